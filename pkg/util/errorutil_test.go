package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"domain passthrough", NewInsufficientFunds(10, 5), CodeInsufficientFunds, http.StatusPaymentRequired},
		{"wrapped domain", fmt.Errorf("book: %w", NewConflict("done", nil)), CodeConflict, http.StatusConflict},
		{"no rows", pgx.ErrNoRows, CodeNotFound, http.StatusNotFound},
		{"fiber error", fiber.NewError(http.StatusForbidden, "nope"), CodeForbidden, http.StatusForbidden},
		{"unknown", errors.New("boom"), CodeInternal, http.StatusInternalServerError},
		{"exhausted", NewResourceExhausted("no locker", nil), CodeResourceExhausted, http.StatusNotFound},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDomainError(tt.err)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.status, got.HTTPStatus)
		})
	}
	assert.Nil(t, ToDomainError(nil))
	assert.NoError(t, MapError(nil))
}

func TestInternalErrorHidesCause(t *testing.T) {
	err := ToDomainError(errors.New("connection reset"))
	assert.Equal(t, "internal server error", err.Message)
	assert.ErrorContains(t, err, "connection reset")
}
