package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/locker-service/internal/domain"
	"github.com/spec-kit/locker-service/internal/repository"
	apperrors "github.com/spec-kit/locker-service/pkg/util"
)

// DashboardMonths is the length of the statistics window, current month included.
const DashboardMonths = 6

// revenueStatuses are the rentals that count toward revenue and utilization.
var revenueStatuses = []domain.RentalStatus{domain.RentalStatusCompleted, domain.RentalStatusStored}

// DashboardService computes monthly aggregates for operators.
type DashboardService struct {
	repos  repository.Repositories
	tx     repository.TxManager
	logger *zap.Logger
	now    func() time.Time
}

// NewDashboardService constructs the service.
func NewDashboardService(repos repository.Repositories, tx repository.TxManager, logger *zap.Logger) *DashboardService {
	return &DashboardService{repos: repos, tx: tx, logger: nopLogger(logger), now: time.Now}
}

// MonthlyStats recomputes revenue, utilization and issue counts for each month in
// the window, stores them in the statistics table and returns them oldest first.
// Months without activity are reported as zeros.
func (s *DashboardService) MonthlyStats(ctx context.Context, caller domain.Caller) ([]domain.Statistic, error) {
	if err := requireCapability(caller, domain.CapViewDashboard); err != nil {
		return nil, err
	}

	months := monthWindow(s.now(), DashboardMonths)
	since := months[0]

	usage, err := s.repos.Rentals.MonthlyUsage(ctx, since, revenueStatuses)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	issues, err := s.repos.Maintenance.MonthlyIssues(ctx, since)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	byMonth := make(map[string]*domain.Statistic, len(months))
	stats := make([]domain.Statistic, len(months))
	for i, m := range months {
		stats[i] = domain.Statistic{Month: m}
		byMonth[monthKey(m)] = &stats[i]
	}
	for _, agg := range usage {
		if st, ok := byMonth[monthKey(agg.Month)]; ok {
			st.Revenue = agg.Revenue
			st.Utilization = agg.Count
		}
	}
	for _, agg := range issues {
		if st, ok := byMonth[monthKey(agg.Month)]; ok {
			st.Issues = agg.Count
		}
	}

	err = s.tx.WithinTx(ctx, func(repos repository.Repositories) error {
		for i := range stats {
			if err := repos.Statistics.Upsert(ctx, &stats[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// the figures are already computed; a failed cache write should not hide them
		s.logger.Warn("failed to store monthly statistics", zap.Error(err))
	}
	return stats, nil
}

// monthWindow returns the first instant of each of the last n months, oldest first.
func monthWindow(now time.Time, n int) []time.Time {
	now = now.UTC()
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := 0; i < n; i++ {
		out[i] = current.AddDate(0, i-(n-1), 0)
	}
	return out
}

// monthKey reads the calendar month off the wall clock. Aggregates arrive as
// month starts, so converting zones first would move them into the prior month.
func monthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}
