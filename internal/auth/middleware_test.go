package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/locker-service/internal/domain"
	"github.com/spec-kit/locker-service/internal/repository"
	apperrors "github.com/spec-kit/locker-service/pkg/util"
)

type stubUsers struct {
	repository.UserRepository
	users map[string]*domain.User
}

func (s *stubUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

type memoryRevoker map[string]bool

func (m memoryRevoker) Revoke(_ context.Context, id string, _ time.Time) error {
	m[id] = true
	return nil
}

func (m memoryRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	return m[id], nil
}

func newTestApp(mw *AuthMiddleware, guards ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		domainErr := apperrors.ToDomainError(err)
		return c.Status(domainErr.HTTPStatus).SendString(domainErr.Code)
	}})
	handlers := append([]fiber.Handler{mw.Handle}, guards...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString(p.User.ID)
	})
	app.Get("/me", handlers...)
	return app
}

func TestAuthMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", 30)
	users := &stubUsers{users: map[string]*domain.User{
		"admin":     {ID: "admin", Role: domain.RoleAdmin, Status: domain.UserStatusActive},
		"renter":    {ID: "renter", Role: domain.RoleUser, Status: domain.UserStatusActive},
		"suspended": {ID: "suspended", Role: domain.RoleUser, Status: domain.UserStatusSuspended},
	}}
	revoker := memoryRevoker{}
	mw := NewAuthMiddleware(tm, users, revoker, "session", nil)

	token := func(id string) string {
		raw, _, err := tm.GenerateToken(&domain.User{ID: id, Role: users.users[id].Role})
		require.NoError(t, err)
		return raw
	}
	revokedToken := token("renter")
	claims, err := tm.ParseToken(revokedToken)
	require.NoError(t, err)
	require.NoError(t, revoker.Revoke(context.Background(), claims.ID, claims.ExpiresAt.Time))

	cases := []struct {
		name   string
		header string
		cookie string
		guards []fiber.Handler
		status int
	}{
		{name: "missing", status: http.StatusUnauthorized},
		{name: "malformed header", header: "Token abc", status: http.StatusUnauthorized},
		{name: "bearer", header: "Bearer " + token("renter"), status: http.StatusOK},
		{name: "cookie", cookie: token("renter"), status: http.StatusOK},
		{name: "revoked", header: "Bearer " + revokedToken, status: http.StatusUnauthorized},
		{name: "suspended", header: "Bearer " + token("suspended"), status: http.StatusForbidden},
		{name: "capability denied", header: "Bearer " + token("renter"),
			guards: []fiber.Handler{RequireCapability(domain.CapManageUsers)}, status: http.StatusForbidden},
		{name: "capability granted", header: "Bearer " + token("admin"),
			guards: []fiber.Handler{RequireCapability(domain.CapManageUsers)}, status: http.StatusOK},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(mw, tt.guards...)
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "session", Value: tt.cookie})
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestNoopRevoker(t *testing.T) {
	r := NewRedisRevoker(nil, "locker")
	require.NoError(t, r.Revoke(context.Background(), "id", time.Now().Add(time.Hour)))
	revoked, err := r.IsRevoked(context.Background(), "id")
	require.NoError(t, err)
	assert.False(t, revoked)
}
