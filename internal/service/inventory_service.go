package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/locker-service/internal/domain"
	"github.com/spec-kit/locker-service/internal/events"
	"github.com/spec-kit/locker-service/internal/repository"
	apperrors "github.com/spec-kit/locker-service/pkg/util"
)

const (
	recentLogsPerLocker   = 5
	lockerHistoryRentals  = 10
	maxMaintenanceIssueSz = 500
)

// InventoryService manages the locker fleet and its maintenance log.
type InventoryService struct {
	repos  repository.Repositories
	tx     repository.TxManager
	events eventPublisher
	logger *zap.Logger
	now    func() time.Time
}

// InventoryDependencies bundles collaborators for the inventory service.
type InventoryDependencies struct {
	Repos      repository.Repositories
	TxManager  repository.TxManager
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// LockerView is a locker enriched for the operator console.
type LockerView struct {
	domain.Locker
	CurrentRentalID string
	CurrentUserID   string
	RecentLogs      []domain.MaintenanceLog
	ActiveLog       *domain.MaintenanceLog
	TotalRevenue    int64
	TotalRentals    int
}

// MaintenanceInput describes a maintenance report.
type MaintenanceInput struct {
	Issue               string
	TechnicianName      string
	EstimatedCost       int64
	EstimatedCompletion *time.Time
	Notes               string
	Status              domain.MaintenanceStatus
}

// NewInventoryService constructs the service.
func NewInventoryService(deps InventoryDependencies) *InventoryService {
	logger := nopLogger(deps.Logger)
	return &InventoryService{
		repos:  deps.Repos,
		tx:     deps.TxManager,
		events: eventPublisher{dispatcher: deps.Dispatcher, logger: logger, now: time.Now},
		logger: logger,
		now:    time.Now,
	}
}

// List returns every locker with its occupant, recent maintenance and revenue.
func (s *InventoryService) List(ctx context.Context, caller domain.Caller) ([]LockerView, error) {
	if err := requireCapability(caller, domain.CapViewLockers); err != nil {
		return nil, err
	}

	lockers, err := s.repos.Lockers.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	active, err := s.repos.Rentals.ListActive(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	logs, err := s.repos.Maintenance.ListRecent(ctx, recentLogsPerLocker)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	stats, err := s.repos.Lockers.Stats(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	occupant := make(map[string]domain.Rental, len(active))
	for _, r := range active {
		occupant[r.LockerID] = r
	}
	statsByLocker := make(map[string]domain.LockerStats, len(stats))
	for _, st := range stats {
		statsByLocker[st.LockerID] = st
	}

	views := make([]LockerView, 0, len(lockers))
	for _, locker := range lockers {
		view := LockerView{Locker: locker, RecentLogs: logs[locker.ID]}
		if r, ok := occupant[locker.ID]; ok {
			view.CurrentRentalID = r.ID
			view.CurrentUserID = r.UserID
		}
		if st, ok := statsByLocker[locker.ID]; ok {
			view.TotalRevenue = st.TotalRevenue
			view.TotalRentals = st.TotalRentals
		}
		if locker.ActiveMaintenanceID != nil {
			view.ActiveLog, err = s.activeLog(ctx, *locker.ActiveMaintenanceID, view.RecentLogs)
			if err != nil {
				return nil, apperrors.MapError(err)
			}
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *InventoryService) activeLog(ctx context.Context, id string, recent []domain.MaintenanceLog) (*domain.MaintenanceLog, error) {
	for i := range recent {
		if recent[i].ID == id {
			log := recent[i]
			return &log, nil
		}
	}
	log, err := s.repos.Maintenance.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return log, err
}

// SetStatus changes a locker's operational status. Leaving Maintenance for
// Available disengages the lock and detaches the open maintenance log. A locker
// still held by an active rental cannot be made Available.
func (s *InventoryService) SetStatus(ctx context.Context, caller domain.Caller, lockerID string, status domain.LockerStatus) (*domain.Locker, error) {
	return s.setStatus(ctx, caller, lockerID, status, false)
}

func (s *InventoryService) setStatus(ctx context.Context, caller domain.Caller, lockerID string, status domain.LockerStatus, resolving bool) (*domain.Locker, error) {
	if err := requireCapability(caller, domain.CapManageLockers); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("unknown locker status", map[string]any{"status": status})
	}

	var (
		locker    *domain.Locker
		oldStatus domain.LockerStatus
	)
	err := s.tx.WithinTx(ctx, func(repos repository.Repositories) error {
		found, err := repos.Lockers.LockByID(ctx, lockerID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("locker", map[string]any{"locker_id": lockerID})
			}
			return err
		}
		oldStatus = found.Status
		target := status
		if target == domain.LockerStatusAvailable {
			rented, err := repos.Rentals.HasActiveForLocker(ctx, lockerID)
			if err != nil {
				return err
			}
			switch {
			case rented && !resolving:
				return apperrors.NewConflict("locker is held by an active rental",
					map[string]any{"locker_id": lockerID, "status": found.Status})
			case rented:
				// the repair is done but the renter's items are still inside
				target = domain.LockerStatusOccupied
				found.IsLocked = true
			case found.Status == domain.LockerStatusMaintenance:
				found.IsLocked = false
			}
			found.ActiveMaintenanceID = nil
		}
		found.Status = target
		if err := repos.Lockers.Update(ctx, found); err != nil {
			return err
		}
		locker = found
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("locker status changed",
		zap.String("locker_id", lockerID),
		zap.String("old_status", string(oldStatus)),
		zap.String("new_status", string(locker.Status)),
		zap.String("actor_id", caller.UserID))
	s.events.publish(ctx, events.Event{
		Type:     events.EventLockerStatusChanged,
		LockerID: lockerID,
		Actor:    events.ActorFrom(caller),
		Payload:  events.LockerStatusChangedPayload{OldStatus: oldStatus, NewStatus: locker.Status},
	})
	return locker, nil
}

// ReportMaintenance logs a fault. An open report (Pending or In Progress) takes
// the locker out of service until it is resolved.
func (s *InventoryService) ReportMaintenance(ctx context.Context, caller domain.Caller, lockerID string, input MaintenanceInput) (*domain.MaintenanceLog, error) {
	if err := requireCapability(caller, domain.CapReportMaintenance); err != nil {
		return nil, err
	}
	input.Issue = strings.TrimSpace(input.Issue)
	if input.Issue == "" {
		return nil, apperrors.NewValidationError("issue is required", nil)
	}
	if len(input.Issue) > maxMaintenanceIssueSz {
		return nil, apperrors.NewValidationError("issue is too long", map[string]any{"max": maxMaintenanceIssueSz})
	}
	if input.EstimatedCost < 0 {
		return nil, apperrors.NewValidationError("estimated cost must not be negative", nil)
	}
	if input.Status == "" {
		input.Status = domain.MaintenanceStatusPending
	}
	if !input.Status.Valid() {
		return nil, apperrors.NewValidationError("unknown maintenance status", map[string]any{"status": input.Status})
	}

	reporter := caller.UserID
	log := &domain.MaintenanceLog{
		LockerID:            lockerID,
		Issue:               input.Issue,
		ReportedByID:        &reporter,
		TechnicianName:      strings.TrimSpace(input.TechnicianName),
		EstimatedCost:       input.EstimatedCost,
		EstimatedCompletion: input.EstimatedCompletion,
		Notes:               strings.TrimSpace(input.Notes),
		Status:              input.Status,
	}

	err := s.tx.WithinTx(ctx, func(repos repository.Repositories) error {
		locker, err := repos.Lockers.LockByID(ctx, lockerID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("locker", map[string]any{"locker_id": lockerID})
			}
			return err
		}
		if err := repos.Maintenance.Create(ctx, log); err != nil {
			return err
		}
		if !log.Status.ActiveRepair() {
			return nil
		}
		locker.Status = domain.LockerStatusMaintenance
		locker.ActiveMaintenanceID = &log.ID
		return repos.Lockers.Update(ctx, locker)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("maintenance reported",
		zap.String("locker_id", lockerID),
		zap.String("log_id", log.ID),
		zap.String("status", string(log.Status)))
	s.events.publish(ctx, events.Event{
		Type:     events.EventMaintenanceReported,
		LockerID: lockerID,
		Actor:    events.ActorFrom(caller),
		Payload:  events.MaintenanceReportedPayload{LogID: log.ID, Issue: log.Issue, Status: log.Status},
	})
	return log, nil
}

// ResolveMaintenance returns a locker to service. A locker that is still rented
// goes back to Occupied instead of Available.
func (s *InventoryService) ResolveMaintenance(ctx context.Context, caller domain.Caller, lockerID string) (*domain.Locker, error) {
	return s.setStatus(ctx, caller, lockerID, domain.LockerStatusAvailable, true)
}

// RentalHistory returns the most recent rentals of a locker with renter profiles.
func (s *InventoryService) RentalHistory(ctx context.Context, caller domain.Caller, lockerID string) ([]domain.Rental, error) {
	if err := requireCapability(caller, domain.CapViewLockers); err != nil {
		return nil, err
	}
	if strings.TrimSpace(lockerID) == "" {
		return nil, apperrors.NewValidationError("locker id is required", nil)
	}
	rentals, err := s.repos.Rentals.ListByLocker(ctx, lockerID, lockerHistoryRentals)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	now := s.now()
	for i := range rentals {
		rentals[i].Status = rentals[i].EffectiveStatus(now)
	}
	return rentals, nil
}
