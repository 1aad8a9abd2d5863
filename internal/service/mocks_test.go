package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/spec-kit/locker-service/internal/domain"
	"github.com/spec-kit/locker-service/internal/events"
	"github.com/spec-kit/locker-service/internal/repository"
)

type mockUsers struct{ mock.Mock }

func (m *mockUsers) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockUsers) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	args := m.Called(ctx, limit, offset)
	u, _ := args.Get(0).([]domain.User)
	return u, args.Error(1)
}

func (m *mockUsers) TouchLastActive(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUsers) LockBalance(ctx context.Context, id string) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockUsers) Debit(ctx context.Context, id string, amount int64) (int64, error) {
	args := m.Called(ctx, id, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockUsers) Credit(ctx context.Context, id string, amount int64) (int64, error) {
	args := m.Called(ctx, id, amount)
	return args.Get(0).(int64), args.Error(1)
}

type mockLockers struct{ mock.Mock }

func (m *mockLockers) List(ctx context.Context) ([]domain.Locker, error) {
	args := m.Called(ctx)
	l, _ := args.Get(0).([]domain.Locker)
	return l, args.Error(1)
}

func (m *mockLockers) GetByID(ctx context.Context, id string) (*domain.Locker, error) {
	args := m.Called(ctx, id)
	l, _ := args.Get(0).(*domain.Locker)
	return l, args.Error(1)
}

func (m *mockLockers) LockByID(ctx context.Context, id string) (*domain.Locker, error) {
	args := m.Called(ctx, id)
	l, _ := args.Get(0).(*domain.Locker)
	return l, args.Error(1)
}

func (m *mockLockers) ClaimAvailable(ctx context.Context, zoneID string, size domain.LockerSize) (*domain.Locker, error) {
	args := m.Called(ctx, zoneID, size)
	l, _ := args.Get(0).(*domain.Locker)
	return l, args.Error(1)
}

func (m *mockLockers) MarkAvailable(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockLockers) Update(ctx context.Context, locker *domain.Locker) error {
	return m.Called(ctx, locker).Error(0)
}

func (m *mockLockers) Provision(ctx context.Context, locker *domain.Locker) error {
	return m.Called(ctx, locker).Error(0)
}

func (m *mockLockers) Stats(ctx context.Context) ([]domain.LockerStats, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).([]domain.LockerStats)
	return s, args.Error(1)
}

type mockRentals struct{ mock.Mock }

func (m *mockRentals) Create(ctx context.Context, rental *domain.Rental) error {
	return m.Called(ctx, rental).Error(0)
}

func (m *mockRentals) GetByID(ctx context.Context, id string) (*domain.Rental, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*domain.Rental)
	return r, args.Error(1)
}

func (m *mockRentals) LockByID(ctx context.Context, id string) (*domain.Rental, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*domain.Rental)
	return r, args.Error(1)
}

func (m *mockRentals) UpdateStatus(ctx context.Context, id string, status domain.RentalStatus, completedAt *time.Time) error {
	return m.Called(ctx, id, status, completedAt).Error(0)
}

func (m *mockRentals) ListByUser(ctx context.Context, userID string, statuses []domain.RentalStatus) ([]domain.Rental, error) {
	args := m.Called(ctx, userID, statuses)
	r, _ := args.Get(0).([]domain.Rental)
	return r, args.Error(1)
}

func (m *mockRentals) ListByLocker(ctx context.Context, lockerID string, limit int) ([]domain.Rental, error) {
	args := m.Called(ctx, lockerID, limit)
	r, _ := args.Get(0).([]domain.Rental)
	return r, args.Error(1)
}

func (m *mockRentals) ListActive(ctx context.Context) ([]domain.Rental, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).([]domain.Rental)
	return r, args.Error(1)
}

func (m *mockRentals) HasActiveForLocker(ctx context.Context, lockerID string) (bool, error) {
	args := m.Called(ctx, lockerID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRentals) MonthlyUsage(ctx context.Context, since time.Time, statuses []domain.RentalStatus) ([]repository.MonthlyAggregate, error) {
	args := m.Called(ctx, since, statuses)
	a, _ := args.Get(0).([]repository.MonthlyAggregate)
	return a, args.Error(1)
}

type mockTransactions struct{ mock.Mock }

func (m *mockTransactions) Create(ctx context.Context, tx *domain.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *mockTransactions) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	args := m.Called(ctx, userID, limit)
	t, _ := args.Get(0).([]domain.Transaction)
	return t, args.Error(1)
}

type mockMaintenance struct{ mock.Mock }

func (m *mockMaintenance) Create(ctx context.Context, log *domain.MaintenanceLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *mockMaintenance) GetByID(ctx context.Context, id string) (*domain.MaintenanceLog, error) {
	args := m.Called(ctx, id)
	l, _ := args.Get(0).(*domain.MaintenanceLog)
	return l, args.Error(1)
}

func (m *mockMaintenance) ListRecent(ctx context.Context, perLocker int) (map[string][]domain.MaintenanceLog, error) {
	args := m.Called(ctx, perLocker)
	l, _ := args.Get(0).(map[string][]domain.MaintenanceLog)
	return l, args.Error(1)
}

func (m *mockMaintenance) MonthlyIssues(ctx context.Context, since time.Time) ([]repository.MonthlyAggregate, error) {
	args := m.Called(ctx, since)
	a, _ := args.Get(0).([]repository.MonthlyAggregate)
	return a, args.Error(1)
}

type mockStatistics struct{ mock.Mock }

func (m *mockStatistics) Upsert(ctx context.Context, stat *domain.Statistic) error {
	return m.Called(ctx, stat).Error(0)
}

func (m *mockStatistics) ListSince(ctx context.Context, since time.Time) ([]domain.Statistic, error) {
	args := m.Called(ctx, since)
	s, _ := args.Get(0).([]domain.Statistic)
	return s, args.Error(1)
}

type mockRepos struct {
	users        *mockUsers
	lockers      *mockLockers
	rentals      *mockRentals
	transactions *mockTransactions
	maintenance  *mockMaintenance
	statistics   *mockStatistics
}

func newMockRepos() *mockRepos {
	return &mockRepos{
		users:        &mockUsers{},
		lockers:      &mockLockers{},
		rentals:      &mockRentals{},
		transactions: &mockTransactions{},
		maintenance:  &mockMaintenance{},
		statistics:   &mockStatistics{},
	}
}

func (m *mockRepos) bundle() repository.Repositories {
	return repository.Repositories{
		Users:        m.users,
		Lockers:      m.lockers,
		Rentals:      m.rentals,
		Transactions: m.transactions,
		Maintenance:  m.maintenance,
		Statistics:   m.statistics,
	}
}

// fakeTx runs the unit of work against the mocks. Mocks carry no rollback, so
// tests assert that mutating calls were never made on failure paths.
type fakeTx struct {
	repos repository.Repositories
	calls int
}

func (f *fakeTx) WithinTx(_ context.Context, fn func(repository.Repositories) error) error {
	f.calls++
	return fn(f.repos)
}

type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	out := make([]events.EventType, len(d.published))
	for i, e := range d.published {
		out[i] = e.Type
	}
	return out
}
