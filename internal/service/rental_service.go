package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/locker-service/internal/config"
	"github.com/spec-kit/locker-service/internal/domain"
	"github.com/spec-kit/locker-service/internal/events"
	"github.com/spec-kit/locker-service/internal/repository"
	apperrors "github.com/spec-kit/locker-service/pkg/util"
)

const (
	walletRecentTransactions = 10
	bookRateLimitScope       = "book"
)

// RentalService coordinates booking, release, cancellation and wallet flows.
type RentalService struct {
	repos      repository.Repositories
	tx         repository.TxManager
	limiter    RateLimiter
	cfg        config.RentalConfig
	events     eventPublisher
	logger     *zap.Logger
	now        func() time.Time
	accessCode func() (string, error)
}

// RentalDependencies bundles collaborators for the rental service.
type RentalDependencies struct {
	Repos      repository.Repositories
	TxManager  repository.TxManager
	Limiter    RateLimiter
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// BookInput describes a booking request.
type BookInput struct {
	ZoneID        string
	Size          domain.LockerSize
	DurationHours int
	Type          domain.RentalType
	// ExpectedCost is the price the client displayed; when set it must match the server price.
	ExpectedCost *int64
}

// Wallet is a balance with its most recent ledger entries.
type Wallet struct {
	Balance      int64
	Transactions []domain.Transaction
}

// NewRentalService constructs the service.
func NewRentalService(cfg config.RentalConfig, deps RentalDependencies) *RentalService {
	logger := nopLogger(deps.Logger)
	return &RentalService{
		repos:      deps.Repos,
		tx:         deps.TxManager,
		limiter:    deps.Limiter,
		cfg:        cfg,
		events:     eventPublisher{dispatcher: deps.Dispatcher, logger: logger, now: time.Now},
		logger:     logger,
		now:        time.Now,
		accessCode: generateAccessCode,
	}
}

// Quote returns the price of renting a locker of the given size for hours.
func Quote(size domain.LockerSize, hours int) int64 {
	return size.PricePerHour() * int64(hours)
}

// Book allocates a free locker matching zone and size, charges the wallet and
// creates a Stored rental, all in one transaction.
func (s *RentalService) Book(ctx context.Context, caller domain.Caller, input BookInput) (*domain.Rental, error) {
	if err := requireCapability(caller, domain.CapRent); err != nil {
		return nil, err
	}
	cost, err := s.validateBooking(&input)
	if err != nil {
		return nil, err
	}
	if err := s.checkBookingRate(ctx, caller.UserID); err != nil {
		return nil, err
	}
	code, err := s.accessCode()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	now := s.now()
	var rental *domain.Rental
	err = s.tx.WithinTx(ctx, func(repos repository.Repositories) error {
		balance, err := repos.Users.LockBalance(ctx, caller.UserID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("user", map[string]any{"user_id": caller.UserID})
			}
			return err
		}
		if balance < cost {
			return apperrors.NewInsufficientFunds(cost, balance)
		}

		locker, err := repos.Lockers.ClaimAvailable(ctx, input.ZoneID, input.Size)
		if err != nil {
			if errors.Is(err, repository.ErrNoLockerAvailable) {
				return apperrors.NewResourceExhausted("no locker available for the requested zone and size",
					map[string]any{"zone_id": input.ZoneID, "size": input.Size})
			}
			return err
		}

		if _, err := repos.Users.Debit(ctx, caller.UserID, cost); err != nil {
			if errors.Is(err, repository.ErrInsufficientFunds) {
				return apperrors.NewInsufficientFunds(cost, balance)
			}
			return err
		}

		if err := repos.Transactions.Create(ctx, &domain.Transaction{
			UserID:      caller.UserID,
			Amount:      -cost,
			Type:        domain.TransactionTypePayment,
			Description: fmt.Sprintf("Locker rental %s (%dh)", locker.Label, input.DurationHours),
		}); err != nil {
			return err
		}

		end := now.Add(time.Duration(input.DurationHours) * time.Hour)
		created := &domain.Rental{
			UserID:     caller.UserID,
			LockerID:   locker.ID,
			Type:       input.Type,
			Status:     domain.RentalStatusStored,
			StartTime:  now,
			EndTime:    &end,
			Cost:       cost,
			AccessCode: code,
		}
		if err := repos.Rentals.Create(ctx, created); err != nil {
			if repository.IsUniqueViolation(err) {
				return apperrors.NewConflict("locker already has an active rental", map[string]any{"locker_id": locker.ID})
			}
			return err
		}
		created.Locker = locker
		rental = created
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("rental booked",
		zap.String("rental_id", rental.ID),
		zap.String("user_id", caller.UserID),
		zap.String("locker_id", rental.LockerID),
		zap.Int64("cost", cost))
	s.events.publish(ctx, events.Event{
		Type:     events.EventRentalBooked,
		LockerID: rental.LockerID,
		Actor:    events.ActorFrom(caller),
		Payload: events.RentalBookedPayload{
			RentalID: rental.ID,
			Size:     input.Size,
			Cost:     cost,
			EndTime:  *rental.EndTime,
		},
	})
	return rental, nil
}

func (s *RentalService) validateBooking(input *BookInput) (int64, error) {
	if _, ok := domain.LookupZone(input.ZoneID); !ok {
		return 0, apperrors.NewValidationError("unknown zone", map[string]any{"zone_id": input.ZoneID})
	}
	if !input.Size.Valid() {
		return 0, apperrors.NewValidationError("unknown locker size", map[string]any{"size": input.Size})
	}
	maxHours := s.cfg.MaxDurationHours
	if input.DurationHours < 1 || (maxHours > 0 && input.DurationHours > maxHours) {
		return 0, apperrors.NewValidationError("invalid duration",
			map[string]any{"duration_hours": input.DurationHours, "max_hours": maxHours})
	}
	if input.Type == "" {
		input.Type = domain.RentalTypePersonal
	}
	if !input.Type.Valid() {
		return 0, apperrors.NewValidationError("unknown rental type", map[string]any{"type": input.Type})
	}

	cost := Quote(input.Size, input.DurationHours)
	if input.ExpectedCost != nil && *input.ExpectedCost != cost {
		return 0, apperrors.NewValidationError("cost does not match current price",
			map[string]any{"expected": cost, "received": *input.ExpectedCost})
	}
	return cost, nil
}

func (s *RentalService) checkBookingRate(ctx context.Context, userID string) error {
	if s.limiter == nil || s.cfg.BookRateLimit <= 0 || s.cfg.BookRateWindow() <= 0 {
		return nil
	}
	count, retryAfter, err := s.limiter.Consume(ctx, bookRateLimitScope, userID, s.cfg.BookRateWindow())
	if err != nil {
		s.logger.Warn("booking rate limiter unavailable", zap.Error(err))
		return nil
	}
	if count > s.cfg.BookRateLimit {
		return apperrors.NewRateLimited(retryAfter)
	}
	return nil
}

// rentalAction names a caller-initiated transition.
type rentalAction string

const (
	actionRelease rentalAction = "release"
	actionCancel  rentalAction = "cancel"
)

// allowedFrom lists the persisted statuses each action may start from. Overdue is
// included for rows written by older clients that persisted the derived state.
var allowedFrom = map[rentalAction][]domain.RentalStatus{
	actionRelease: {domain.RentalStatusPending, domain.RentalStatusStored, domain.RentalStatusOverdue},
	actionCancel:  {domain.RentalStatusPending, domain.RentalStatusStored},
}

var actionTarget = map[rentalAction]domain.RentalStatus{
	actionRelease: domain.RentalStatusCompleted,
	actionCancel:  domain.RentalStatusCancelled,
}

func canTransition(action rentalAction, current domain.RentalStatus) bool {
	for _, candidate := range allowedFrom[action] {
		if candidate == current {
			return true
		}
	}
	return false
}

// Release completes the caller's rental and frees its locker.
func (s *RentalService) Release(ctx context.Context, caller domain.Caller, rentalID string) (*domain.Rental, error) {
	if caller.UserID == "" {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	rental, old, err := s.close(ctx, caller, rentalID, actionRelease, false)
	if err != nil {
		return nil, err
	}
	s.events.publish(ctx, events.Event{
		Type:     events.EventRentalReleased,
		LockerID: rental.LockerID,
		Actor:    events.ActorFrom(caller),
		Payload: events.RentalClosedPayload{
			RentalID:  rental.ID,
			OldStatus: old,
			NewStatus: rental.Status,
		},
	})
	return rental, nil
}

// Cancel ends a rental early and refunds its full cost. Operators holding
// manage_lockers may cancel on behalf of any renter.
func (s *RentalService) Cancel(ctx context.Context, caller domain.Caller, rentalID string) (*domain.Rental, error) {
	if caller.UserID == "" {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	rental, old, err := s.close(ctx, caller, rentalID, actionCancel, caller.Can(domain.CapManageLockers))
	if err != nil {
		return nil, err
	}
	s.events.publish(ctx, events.Event{
		Type:     events.EventRentalCancelled,
		LockerID: rental.LockerID,
		Actor:    events.ActorFrom(caller),
		Payload: events.RentalClosedPayload{
			RentalID:  rental.ID,
			OldStatus: old,
			NewStatus: rental.Status,
			Refunded:  rental.Cost,
		},
	})
	return rental, nil
}

func (s *RentalService) close(ctx context.Context, caller domain.Caller, rentalID string, action rentalAction, anyOwner bool) (*domain.Rental, domain.RentalStatus, error) {
	if rentalID == "" {
		return nil, "", apperrors.NewValidationError("rental id is required", nil)
	}
	if _, err := uuid.Parse(rentalID); err != nil {
		return nil, "", apperrors.NewNotFound("rental", map[string]any{"rental_id": rentalID})
	}

	var (
		rental    *domain.Rental
		oldStatus domain.RentalStatus
	)
	err := s.tx.WithinTx(ctx, func(repos repository.Repositories) error {
		found, err := repos.Rentals.LockByID(ctx, rentalID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("rental", map[string]any{"rental_id": rentalID})
			}
			return err
		}
		// someone else's rental is reported as missing, not forbidden
		if found.UserID != caller.UserID && !anyOwner {
			return apperrors.NewNotFound("rental", map[string]any{"rental_id": rentalID})
		}
		if !canTransition(action, found.Status) {
			return apperrors.NewConflict(fmt.Sprintf("rental cannot %s from status %s", action, found.Status),
				map[string]any{"status": found.Status})
		}

		now := s.now()
		target := actionTarget[action]
		if err := repos.Rentals.UpdateStatus(ctx, found.ID, target, &now); err != nil {
			return err
		}
		if err := repos.Lockers.MarkAvailable(ctx, found.LockerID); err != nil {
			return err
		}

		if action == actionCancel && found.Cost > 0 {
			if _, err := repos.Users.Credit(ctx, found.UserID, found.Cost); err != nil {
				return err
			}
			if err := repos.Transactions.Create(ctx, &domain.Transaction{
				UserID:      found.UserID,
				Amount:      found.Cost,
				Type:        domain.TransactionTypeRefund,
				Description: fmt.Sprintf("Refund for cancelled rental %s", found.LockerID),
			}); err != nil {
				return err
			}
		}

		oldStatus = found.Status
		found.Status = target
		found.CompletedAt = &now
		rental = found
		return nil
	})
	if err != nil {
		return nil, "", apperrors.MapError(err)
	}
	s.logger.Info("rental closed",
		zap.String("rental_id", rental.ID),
		zap.String("action", string(action)),
		zap.String("actor_id", caller.UserID))
	return rental, oldStatus, nil
}

// TopUp credits the caller's wallet and records the ledger entry.
func (s *RentalService) TopUp(ctx context.Context, caller domain.Caller, amount int64) (int64, error) {
	if err := requireCapability(caller, domain.CapRent); err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, apperrors.NewValidationError("amount must be positive", map[string]any{"amount": amount})
	}
	if s.cfg.MaxTopUp > 0 && amount > s.cfg.MaxTopUp {
		return 0, apperrors.NewValidationError("amount exceeds top-up limit",
			map[string]any{"amount": amount, "max": s.cfg.MaxTopUp})
	}

	var balance int64
	err := s.tx.WithinTx(ctx, func(repos repository.Repositories) error {
		updated, err := repos.Users.Credit(ctx, caller.UserID, amount)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("user", map[string]any{"user_id": caller.UserID})
			}
			return err
		}
		if err := repos.Transactions.Create(ctx, &domain.Transaction{
			UserID:      caller.UserID,
			Amount:      amount,
			Type:        domain.TransactionTypeTopup,
			Description: "Wallet top-up",
		}); err != nil {
			return err
		}
		balance = updated
		return nil
	})
	if err != nil {
		return 0, apperrors.MapError(err)
	}

	s.events.publish(ctx, events.Event{
		Type:    events.EventWalletToppedUp,
		Actor:   events.ActorFrom(caller),
		Payload: events.WalletToppedUpPayload{Amount: amount, Balance: balance},
	})
	return balance, nil
}

// Wallet returns the caller's balance and recent transactions.
func (s *RentalService) Wallet(ctx context.Context, caller domain.Caller) (*Wallet, error) {
	if err := requireCapability(caller, domain.CapRent); err != nil {
		return nil, err
	}
	user, err := s.repos.Users.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	txs, err := s.repos.Transactions.ListByUser(ctx, caller.UserID, walletRecentTransactions)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &Wallet{Balance: user.Balance, Transactions: txs}, nil
}

// ListActive returns the caller's rentals still holding a locker, with Overdue derived.
func (s *RentalService) ListActive(ctx context.Context, caller domain.Caller) ([]domain.Rental, error) {
	return s.listOwn(ctx, caller, domain.ActiveRentalStatuses)
}

// History returns the caller's finished rentals, most recent first.
func (s *RentalService) History(ctx context.Context, caller domain.Caller) ([]domain.Rental, error) {
	return s.listOwn(ctx, caller, domain.FinishedRentalStatuses)
}

func (s *RentalService) listOwn(ctx context.Context, caller domain.Caller, statuses []domain.RentalStatus) ([]domain.Rental, error) {
	if caller.UserID == "" {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	rentals, err := s.repos.Rentals.ListByUser(ctx, caller.UserID, statuses)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	now := s.now()
	for i := range rentals {
		rentals[i].Status = rentals[i].EffectiveStatus(now)
	}
	return rentals, nil
}

// generateAccessCode returns a uniformly random 6-digit code.
func generateAccessCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
