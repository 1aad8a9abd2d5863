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

// InventoryAPI is the subset of the inventory service the handlers use.
type InventoryAPI interface {
	List(ctx context.Context, caller domain.Caller) ([]service.LockerView, error)
	SetStatus(ctx context.Context, caller domain.Caller, lockerID string, status domain.LockerStatus) (*domain.Locker, error)
	ReportMaintenance(ctx context.Context, caller domain.Caller, lockerID string, input service.MaintenanceInput) (*domain.MaintenanceLog, error)
	ResolveMaintenance(ctx context.Context, caller domain.Caller, lockerID string) (*domain.Locker, error)
	RentalHistory(ctx context.Context, caller domain.Caller, lockerID string) ([]domain.Rental, error)
}

// LockersHandler manages operator locker endpoints.
type LockersHandler struct {
	service InventoryAPI
}

// NewLockersHandler constructs handler.
func NewLockersHandler(svc InventoryAPI) *LockersHandler {
	return &LockersHandler{service: svc}
}

// List GET /lockers.
func (h *LockersHandler) List(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	views, err := h.service.List(c.UserContext(), principal.Caller())
	if err != nil {
		return err
	}
	items := make([]dto.LockerDetailResponse, 0, len(views))
	for i := range views {
		items = append(items, lockerDetail(&views[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateStatus PUT /lockers/:id/status.
func (h *LockersHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateLockerStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	locker, err := h.service.SetStatus(c.UserContext(), principal.Caller(), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewLockerResponse(locker)})
}

// ReportMaintenance POST /lockers/:id/maintenance.
func (h *LockersHandler) ReportMaintenance(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ReportMaintenanceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	log, err := h.service.ReportMaintenance(c.UserContext(), principal.Caller(), c.Params("id"), service.MaintenanceInput{
		Issue:               req.Issue,
		TechnicianName:      req.TechnicianName,
		EstimatedCost:       req.EstimatedCost,
		EstimatedCompletion: req.EstimatedCompletion,
		Notes:               req.Notes,
		Status:              req.Status,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewMaintenanceLogResponse(log)})
}

// ResolveMaintenance POST /lockers/:id/maintenance/resolve.
func (h *LockersHandler) ResolveMaintenance(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	locker, err := h.service.ResolveMaintenance(c.UserContext(), principal.Caller(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewLockerResponse(locker)})
}

// RentalHistory GET /lockers/:id/rentals.
func (h *LockersHandler) RentalHistory(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	rentals, err := h.service.RentalHistory(c.UserContext(), principal.Caller(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.RentalResponse, 0, len(rentals))
	for i := range rentals {
		items = append(items, dto.NewRentalResponse(&rentals[i], false))
	}
	return c.JSON(fiber.Map{"data": items})
}

func lockerDetail(v *service.LockerView) dto.LockerDetailResponse {
	resp := dto.LockerDetailResponse{
		LockerResponse:  dto.NewLockerResponse(&v.Locker),
		CurrentRentalID: v.CurrentRentalID,
		CurrentUserID:   v.CurrentUserID,
		MaintenanceLogs: make([]dto.MaintenanceLogResponse, 0, len(v.RecentLogs)),
		TotalRevenue:    v.TotalRevenue,
		TotalRentals:    v.TotalRentals,
	}
	for i := range v.RecentLogs {
		resp.MaintenanceLogs = append(resp.MaintenanceLogs, dto.NewMaintenanceLogResponse(&v.RecentLogs[i]))
	}
	if v.ActiveLog != nil {
		active := dto.NewMaintenanceLogResponse(v.ActiveLog)
		resp.ActiveLog = &active
	}
	return resp
}
