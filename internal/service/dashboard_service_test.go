package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/locker-service/internal/domain"
	"github.com/spec-kit/locker-service/internal/repository"
	apperrors "github.com/spec-kit/locker-service/pkg/util"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func TestMonthWindow(t *testing.T) {
	got := monthWindow(time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC), 6)
	assert.Equal(t, []time.Time{
		month(2023, 9), month(2023, 10), month(2023, 11), month(2023, 12), month(2024, 1), month(2024, 2),
	}, got)
}

func newDashboardFixture() (*DashboardService, *mockRepos) {
	repos := newMockRepos()
	svc := NewDashboardService(repos.bundle(), &fakeTx{repos: repos.bundle()}, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc, repos
}

func TestMonthlyStats(t *testing.T) {
	svc, repos := newDashboardFixture()
	since := month(2023, 12)
	repos.rentals.On("MonthlyUsage", mock.Anything, since, revenueStatuses).Return([]repository.MonthlyAggregate{
		{Month: month(2024, 3), Revenue: 120000, Count: 4},
		{Month: month(2024, 5), Revenue: 40000, Count: 1},
	}, nil)
	repos.maintenance.On("MonthlyIssues", mock.Anything, since).Return([]repository.MonthlyAggregate{
		{Month: month(2024, 5), Count: 2},
	}, nil)
	repos.statistics.On("Upsert", mock.Anything, mock.Anything).Return(nil).Times(DashboardMonths)

	stats, err := svc.MonthlyStats(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, stats, DashboardMonths)

	assert.Equal(t, since, stats[0].Month)
	assert.Equal(t, month(2024, 5), stats[5].Month)
	assert.Equal(t, domain.Statistic{Month: month(2024, 3), Revenue: 120000, Utilization: 4}, stats[3])
	assert.Equal(t, int64(40000), stats[5].Revenue)
	assert.Equal(t, 2, stats[5].Issues)
	assert.Zero(t, stats[1].Revenue)
	repos.statistics.AssertExpectations(t)
}

func TestMonthlyStatsKeepsMonthOfZonedAggregates(t *testing.T) {
	svc, repos := newDashboardFixture()
	bangkok := time.FixedZone("UTC+7", 7*60*60)
	repos.rentals.On("MonthlyUsage", mock.Anything, mock.Anything, mock.Anything).Return([]repository.MonthlyAggregate{
		{Month: time.Date(2024, 5, 1, 0, 0, 0, 0, bangkok), Revenue: 40000, Count: 1},
	}, nil)
	repos.maintenance.On("MonthlyIssues", mock.Anything, mock.Anything).Return([]repository.MonthlyAggregate{
		{Month: time.Date(2024, 4, 1, 0, 0, 0, 0, bangkok), Count: 3},
	}, nil)
	repos.statistics.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	stats, err := svc.MonthlyStats(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, stats, DashboardMonths)

	assert.Equal(t, int64(40000), stats[5].Revenue)
	assert.Equal(t, 1, stats[5].Utilization)
	assert.Zero(t, stats[4].Revenue)
	assert.Equal(t, 3, stats[4].Issues)
	assert.Zero(t, stats[3].Issues)
}

func TestMonthKey(t *testing.T) {
	assert.Equal(t, "2024-05", monthKey(month(2024, 5)))
	assert.Equal(t, "2024-05", monthKey(time.Date(2024, 5, 1, 0, 0, 0, 0, time.FixedZone("UTC+7", 7*60*60))))
	assert.Equal(t, "2023-12", monthKey(time.Date(2023, 12, 1, 0, 0, 0, 0, time.FixedZone("UTC-5", -5*60*60))))
}

func TestMonthlyStatsSurvivesCacheFailure(t *testing.T) {
	svc, repos := newDashboardFixture()
	repos.rentals.On("MonthlyUsage", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	repos.maintenance.On("MonthlyIssues", mock.Anything, mock.Anything).Return(nil, nil)
	repos.statistics.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("read only"))

	stats, err := svc.MonthlyStats(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, stats, DashboardMonths)
}

func TestMonthlyStatsRequiresDashboardCapability(t *testing.T) {
	svc, repos := newDashboardFixture()
	_, err := svc.MonthlyStats(context.Background(), staff)
	assert.Equal(t, apperrors.CodeForbidden, errorCode(t, err))
	repos.rentals.AssertNotCalled(t, "MonthlyUsage", mock.Anything, mock.Anything, mock.Anything)
}
