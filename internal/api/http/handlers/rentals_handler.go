package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/locker-service/internal/api/dto"
	"github.com/spec-kit/locker-service/internal/domain"
	"github.com/spec-kit/locker-service/internal/service"
	apperrors "github.com/spec-kit/locker-service/pkg/util"
)

// RentalAPI is the subset of the rental service the handlers use.
type RentalAPI interface {
	Book(ctx context.Context, caller domain.Caller, input service.BookInput) (*domain.Rental, error)
	Release(ctx context.Context, caller domain.Caller, rentalID string) (*domain.Rental, error)
	Cancel(ctx context.Context, caller domain.Caller, rentalID string) (*domain.Rental, error)
	TopUp(ctx context.Context, caller domain.Caller, amount int64) (int64, error)
	Wallet(ctx context.Context, caller domain.Caller) (*service.Wallet, error)
	ListActive(ctx context.Context, caller domain.Caller) ([]domain.Rental, error)
	History(ctx context.Context, caller domain.Caller) ([]domain.Rental, error)
}

// RentalsHandler serves renter booking and wallet endpoints.
type RentalsHandler struct {
	service RentalAPI
}

// NewRentalsHandler constructs handler.
func NewRentalsHandler(svc RentalAPI) *RentalsHandler {
	return &RentalsHandler{service: svc}
}

// Book POST /rentals.
func (h *RentalsHandler) Book(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.BookRentalRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	rental, err := h.service.Book(c.UserContext(), principal.Caller(), service.BookInput{
		ZoneID:        req.ZoneID,
		Size:          req.Size,
		DurationHours: req.DurationHours,
		Type:          req.Type,
		ExpectedCost:  req.Cost,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewRentalResponse(rental, true)})
}

// Release POST /rentals/:id/release.
func (h *RentalsHandler) Release(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	rental, err := h.service.Release(c.UserContext(), principal.Caller(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRentalResponse(rental, false)})
}

// Cancel POST /rentals/:id/cancel.
func (h *RentalsHandler) Cancel(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	rental, err := h.service.Cancel(c.UserContext(), principal.Caller(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRentalResponse(rental, false)})
}

// Active GET /rentals/active.
func (h *RentalsHandler) Active(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	rentals, err := h.service.ListActive(c.UserContext(), principal.Caller())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": rentalList(rentals, true)})
}

// History GET /rentals/history.
func (h *RentalsHandler) History(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	rentals, err := h.service.History(c.UserContext(), principal.Caller())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": rentalList(rentals, false)})
}

// Wallet GET /wallet.
func (h *RentalsHandler) Wallet(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	wallet, err := h.service.Wallet(c.UserContext(), principal.Caller())
	if err != nil {
		return err
	}
	resp := dto.WalletResponse{Balance: wallet.Balance, Transactions: make([]dto.TransactionResponse, 0, len(wallet.Transactions))}
	for i := range wallet.Transactions {
		resp.Transactions = append(resp.Transactions, dto.NewTransactionResponse(&wallet.Transactions[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// TopUp POST /wallet/topup.
func (h *RentalsHandler) TopUp(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.TopUpRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	balance, err := h.service.TopUp(c.UserContext(), principal.Caller(), req.Amount)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"success": true, "balance": balance}})
}

func rentalList(rentals []domain.Rental, withCode bool) []dto.RentalResponse {
	items := make([]dto.RentalResponse, 0, len(rentals))
	for i := range rentals {
		items = append(items, dto.NewRentalResponse(&rentals[i], withCode))
	}
	return items
}
