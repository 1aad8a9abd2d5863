package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/locker-service/internal/api/dto"
	"github.com/spec-kit/locker-service/internal/domain"
	"github.com/spec-kit/locker-service/internal/service"
	apperrors "github.com/spec-kit/locker-service/pkg/util"
)

// AuthAPI is the subset of the auth service the handlers use.
type AuthAPI interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Logout(ctx context.Context, session domain.Session) error
	ListUsers(ctx context.Context, caller domain.Caller, limit, offset int) ([]domain.User, error)
}

// AuthHandler serves registration, login, logout and the user directory.
type AuthHandler struct {
	service      AuthAPI
	cookieName   string
	secureCookie bool
}

// NewAuthHandler constructs handler. The session cookie is marked Secure when secureCookie is set.
func NewAuthHandler(svc AuthAPI, cookieName string, secureCookie bool) *AuthHandler {
	return &AuthHandler{service: svc, cookieName: cookieName, secureCookie: secureCookie}
}

// Register POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.service.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserProfile(user)})
}

// Login POST /auth/login. The token is returned in the body and set as an HTTP-only cookie.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}
	result, err := h.service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	if h.cookieName != "" {
		c.Cookie(&fiber.Cookie{
			Name:     h.cookieName,
			Value:    result.Token,
			Path:     "/",
			Expires:  result.Session.ExpiresAt,
			HTTPOnly: true,
			Secure:   h.secureCookie,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	return c.JSON(fiber.Map{"data": dto.AuthResponse{
		Token:     result.Token,
		ExpiresAt: result.Session.ExpiresAt,
		User:      dto.NewUserProfile(result.User),
	}})
}

// Logout POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.service.Logout(c.UserContext(), principal.Session); err != nil {
		return err
	}
	if h.cookieName != "" {
		c.Cookie(&fiber.Cookie{
			Name:     h.cookieName,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			HTTPOnly: true,
			Secure:   h.secureCookie,
		})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"success": true}})
}

// ListUsers GET /users.
func (h *AuthHandler) ListUsers(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	users, err := h.service.ListUsers(c.UserContext(), principal.Caller(), queryInt(c, "limit", 50), queryInt(c, "offset", 0))
	if err != nil {
		return err
	}
	items := make([]dto.UserProfile, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserProfile(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
