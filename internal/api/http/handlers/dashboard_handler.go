package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/locker-service/internal/api/dto"
	"github.com/spec-kit/locker-service/internal/domain"
)

// DashboardAPI computes monthly statistics.
type DashboardAPI interface {
	MonthlyStats(ctx context.Context, caller domain.Caller) ([]domain.Statistic, error)
}

// DashboardHandler serves operator statistics.
type DashboardHandler struct {
	service DashboardAPI
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(svc DashboardAPI) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Stats GET /dashboard/stats.
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	stats, err := h.service.MonthlyStats(c.UserContext(), principal.Caller())
	if err != nil {
		return err
	}
	items := make([]dto.StatisticResponse, 0, len(stats))
	for i := range stats {
		items = append(items, dto.NewStatisticResponse(&stats[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
