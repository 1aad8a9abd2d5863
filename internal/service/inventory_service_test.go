package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/locker-service/internal/domain"
	"github.com/spec-kit/locker-service/internal/events"
	apperrors "github.com/spec-kit/locker-service/pkg/util"
)

type inventoryFixture struct {
	svc        *InventoryService
	repos      *mockRepos
	tx         *fakeTx
	dispatcher *recordingDispatcher
}

func newInventoryFixture() *inventoryFixture {
	repos := newMockRepos()
	tx := &fakeTx{repos: repos.bundle()}
	dispatcher := &recordingDispatcher{}
	svc := NewInventoryService(InventoryDependencies{Repos: repos.bundle(), TxManager: tx, Dispatcher: dispatcher})
	svc.now = func() time.Time { return fixedNow }
	return &inventoryFixture{svc: svc, repos: repos, tx: tx, dispatcher: dispatcher}
}

func strPtr(s string) *string { return &s }

func TestInventoryListAggregates(t *testing.T) {
	f := newInventoryFixture()
	f.repos.lockers.On("List", mock.Anything).Return([]domain.Locker{
		{ID: "L-1", Status: domain.LockerStatusOccupied},
		{ID: "L-2", Status: domain.LockerStatusMaintenance, ActiveMaintenanceID: strPtr("log-2")},
		{ID: "L-3", Status: domain.LockerStatusMaintenance, ActiveMaintenanceID: strPtr("log-old")},
	}, nil)
	f.repos.rentals.On("ListActive", mock.Anything).Return([]domain.Rental{{ID: "r-1", UserID: "user-1", LockerID: "L-1"}}, nil)
	f.repos.maintenance.On("ListRecent", mock.Anything, recentLogsPerLocker).Return(map[string][]domain.MaintenanceLog{
		"L-2": {{ID: "log-2", LockerID: "L-2", Issue: "door jammed"}},
	}, nil)
	f.repos.maintenance.On("GetByID", mock.Anything, "log-old").Return(&domain.MaintenanceLog{ID: "log-old", LockerID: "L-3"}, nil)
	f.repos.lockers.On("Stats", mock.Anything).Return([]domain.LockerStats{{LockerID: "L-1", TotalRevenue: 90000, TotalRentals: 3}}, nil)

	views, err := f.svc.List(context.Background(), staff)
	require.NoError(t, err)
	require.Len(t, views, 3)

	assert.Equal(t, "r-1", views[0].CurrentRentalID)
	assert.Equal(t, "user-1", views[0].CurrentUserID)
	assert.Equal(t, int64(90000), views[0].TotalRevenue)
	assert.Equal(t, 3, views[0].TotalRentals)
	assert.Nil(t, views[0].ActiveLog)

	require.NotNil(t, views[1].ActiveLog)
	assert.Equal(t, "door jammed", views[1].ActiveLog.Issue)
	assert.Len(t, views[1].RecentLogs, 1)
	assert.Empty(t, views[1].CurrentRentalID)

	require.NotNil(t, views[2].ActiveLog)
	assert.Equal(t, "log-old", views[2].ActiveLog.ID)
}

func TestInventoryListRequiresViewLockers(t *testing.T) {
	f := newInventoryFixture()
	_, err := f.svc.List(context.Background(), renter)
	assert.Equal(t, apperrors.CodeForbidden, errorCode(t, err))
	f.repos.lockers.AssertNotCalled(t, "List", mock.Anything)
}

func TestSetStatusLeavingMaintenanceUnlocks(t *testing.T) {
	f := newInventoryFixture()
	f.repos.lockers.On("LockByID", mock.Anything, "L-2").Return(&domain.Locker{
		ID: "L-2", Status: domain.LockerStatusMaintenance, IsLocked: true, ActiveMaintenanceID: strPtr("log-2"),
	}, nil)
	f.repos.rentals.On("HasActiveForLocker", mock.Anything, "L-2").Return(false, nil)
	f.repos.lockers.On("Update", mock.Anything, mock.MatchedBy(func(l *domain.Locker) bool {
		return l.Status == domain.LockerStatusAvailable && !l.IsLocked && l.ActiveMaintenanceID == nil
	})).Return(nil)

	locker, err := f.svc.ResolveMaintenance(context.Background(), staff, "L-2")
	require.NoError(t, err)
	assert.False(t, locker.IsLocked)
	f.repos.lockers.AssertExpectations(t)
	require.Len(t, f.dispatcher.published, 1)
	assert.Equal(t, events.EventLockerStatusChanged, f.dispatcher.published[0].Type)
	assert.Equal(t, events.LockerStatusChangedPayload{
		OldStatus: domain.LockerStatusMaintenance,
		NewStatus: domain.LockerStatusAvailable,
	}, f.dispatcher.published[0].Payload)
}

func TestSetStatusMaintenanceKeepsLock(t *testing.T) {
	f := newInventoryFixture()
	f.repos.lockers.On("LockByID", mock.Anything, "L-1").Return(&domain.Locker{
		ID: "L-1", Status: domain.LockerStatusOccupied, IsLocked: true,
	}, nil)
	f.repos.lockers.On("Update", mock.Anything, mock.MatchedBy(func(l *domain.Locker) bool {
		return l.Status == domain.LockerStatusMaintenance && l.IsLocked
	})).Return(nil)

	_, err := f.svc.SetStatus(context.Background(), admin, "L-1", domain.LockerStatusMaintenance)
	require.NoError(t, err)
	f.repos.lockers.AssertExpectations(t)
}

func TestSetStatusRefusesToFreeRentedLocker(t *testing.T) {
	f := newInventoryFixture()
	f.repos.lockers.On("LockByID", mock.Anything, "L-7").Return(&domain.Locker{
		ID: "L-7", Status: domain.LockerStatusOccupied, IsLocked: true,
	}, nil)
	f.repos.rentals.On("HasActiveForLocker", mock.Anything, "L-7").Return(true, nil)

	_, err := f.svc.SetStatus(context.Background(), staff, "L-7", domain.LockerStatusAvailable)
	assert.Equal(t, apperrors.CodeConflict, errorCode(t, err))
	f.repos.lockers.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	assert.Empty(t, f.dispatcher.published)
}

func TestResolveMaintenanceOnRentedLockerRestoresOccupied(t *testing.T) {
	f := newInventoryFixture()
	f.repos.lockers.On("LockByID", mock.Anything, "L-7").Return(&domain.Locker{
		ID: "L-7", Status: domain.LockerStatusMaintenance, IsLocked: false, ActiveMaintenanceID: strPtr("log-7"),
	}, nil)
	f.repos.rentals.On("HasActiveForLocker", mock.Anything, "L-7").Return(true, nil)
	f.repos.lockers.On("Update", mock.Anything, mock.MatchedBy(func(l *domain.Locker) bool {
		return l.Status == domain.LockerStatusOccupied && l.IsLocked && l.ActiveMaintenanceID == nil
	})).Return(nil)

	locker, err := f.svc.ResolveMaintenance(context.Background(), staff, "L-7")
	require.NoError(t, err)
	assert.Equal(t, domain.LockerStatusOccupied, locker.Status)
	f.repos.lockers.AssertExpectations(t)
	require.Len(t, f.dispatcher.published, 1)
	assert.Equal(t, events.LockerStatusChangedPayload{
		OldStatus: domain.LockerStatusMaintenance,
		NewStatus: domain.LockerStatusOccupied,
	}, f.dispatcher.published[0].Payload)
}

func TestSetStatusFailures(t *testing.T) {
	f := newInventoryFixture()
	_, err := f.svc.SetStatus(context.Background(), staff, "L-1", "Broken")
	assert.Equal(t, apperrors.CodeValidation, errorCode(t, err))

	_, err = f.svc.SetStatus(context.Background(), courier, "L-1", domain.LockerStatusAvailable)
	assert.Equal(t, apperrors.CodeForbidden, errorCode(t, err))

	f.repos.lockers.On("LockByID", mock.Anything, "L-404").Return(nil, pgx.ErrNoRows)
	_, err = f.svc.SetStatus(context.Background(), staff, "L-404", domain.LockerStatusAvailable)
	assert.Equal(t, apperrors.CodeNotFound, errorCode(t, err))
	f.repos.lockers.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestReportMaintenanceTakesLockerOutOfService(t *testing.T) {
	f := newInventoryFixture()
	f.repos.lockers.On("LockByID", mock.Anything, "L-5").Return(&domain.Locker{ID: "L-5", Status: domain.LockerStatusAvailable}, nil)
	f.repos.maintenance.On("Create", mock.Anything, mock.MatchedBy(func(l *domain.MaintenanceLog) bool {
		return l.Status == domain.MaintenanceStatusPending &&
			l.ReportedByID != nil && *l.ReportedByID == "staff-1" &&
			l.Issue == "screen cracked"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.MaintenanceLog).ID = "log-9"
	}).Return(nil)
	f.repos.lockers.On("Update", mock.Anything, mock.MatchedBy(func(l *domain.Locker) bool {
		return l.Status == domain.LockerStatusMaintenance && l.ActiveMaintenanceID != nil && *l.ActiveMaintenanceID == "log-9"
	})).Return(nil)

	log, err := f.svc.ReportMaintenance(context.Background(), staff, "L-5", MaintenanceInput{Issue: "  screen cracked "})
	require.NoError(t, err)
	assert.Equal(t, "log-9", log.ID)
	assert.Equal(t, 1, f.tx.calls)
	f.repos.maintenance.AssertExpectations(t)
	f.repos.lockers.AssertExpectations(t)
	assert.Equal(t, []events.EventType{events.EventMaintenanceReported}, f.dispatcher.types())
}

func TestReportResolvedMaintenanceLeavesLockerStatus(t *testing.T) {
	f := newInventoryFixture()
	f.repos.lockers.On("LockByID", mock.Anything, "L-5").Return(&domain.Locker{ID: "L-5", Status: domain.LockerStatusAvailable}, nil)
	f.repos.maintenance.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.ReportMaintenance(context.Background(), staff, "L-5", MaintenanceInput{
		Issue: "replaced battery", Status: domain.MaintenanceStatusResolved,
	})
	require.NoError(t, err)
	f.repos.lockers.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestReportMaintenanceValidation(t *testing.T) {
	f := newInventoryFixture()
	cases := []MaintenanceInput{
		{Issue: "   "},
		{Issue: "x", Status: "Done"},
		{Issue: "x", EstimatedCost: -1},
	}
	for _, input := range cases {
		_, err := f.svc.ReportMaintenance(context.Background(), staff, "L-5", input)
		assert.Equal(t, apperrors.CodeValidation, errorCode(t, err))
	}

	f.repos.lockers.On("LockByID", mock.Anything, "L-404").Return(nil, pgx.ErrNoRows)
	_, err := f.svc.ReportMaintenance(context.Background(), staff, "L-404", MaintenanceInput{Issue: "x"})
	assert.Equal(t, apperrors.CodeNotFound, errorCode(t, err))
	f.repos.maintenance.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLockerRentalHistory(t *testing.T) {
	f := newInventoryFixture()
	_, err := f.svc.RentalHistory(context.Background(), staff, "")
	assert.Equal(t, apperrors.CodeValidation, errorCode(t, err))

	past := fixedNow.Add(-time.Hour)
	f.repos.rentals.On("ListByLocker", mock.Anything, "L-1", lockerHistoryRentals).Return([]domain.Rental{
		{ID: "r-1", Status: domain.RentalStatusStored, EndTime: &past, User: &domain.User{ID: "user-1", Name: "Nguyen"}},
	}, nil)
	rentals, err := f.svc.RentalHistory(context.Background(), staff, "L-1")
	require.NoError(t, err)
	require.Len(t, rentals, 1)
	assert.Equal(t, domain.RentalStatusOverdue, rentals[0].Status)
	assert.Equal(t, "Nguyen", rentals[0].User.Name)
}
