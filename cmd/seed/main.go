// Command seed fills an empty database with demo users, lockers and six months
// of rental history. Rows are only ever inserted; a seeded database is left alone.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/locker-service/internal/auth"
	"github.com/spec-kit/locker-service/internal/config"
	"github.com/spec-kit/locker-service/internal/domain"
	"github.com/spec-kit/locker-service/internal/observability"
	"github.com/spec-kit/locker-service/internal/persistence"
	"github.com/spec-kit/locker-service/internal/repository"
)

const (
	seedPassword    = "123456"
	seedLockers     = 40
	historyMonths   = 6
	historyPerMonth = 15
)

var seedUsers = []domain.User{
	{Name: "System Admin", Email: "admin@nexus.com", Role: domain.RoleAdmin},
	{Name: "Nguyen Van A (Tech)", Email: "tech@nexus.com", Role: domain.RoleTechnician},
	{Name: "Fast Delivery Co.", Email: "shipper@fast.com", Role: domain.RoleCourier, Balance: 500000},
	{Name: "Tran Thi B", Email: "user@gmail.com", Role: domain.RoleUser, Balance: 200000},
}

var sizes = []domain.LockerSize{domain.LockerSizeSmall, domain.LockerSizeMedium, domain.LockerSizeLarge}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	if _, err := repository.New(pg.PoolHandle()).Users.GetByEmail(ctx, seedUsers[0].Email); err == nil {
		logger.Info("database already seeded; nothing to do")
		return
	} else if !errors.Is(err, pgx.ErrNoRows) {
		logger.Fatal("failed to check seed state", zap.Error(err))
	}

	hash, err := auth.HashPassword(seedPassword, cfg.Auth.BcryptCost)
	if err != nil {
		logger.Fatal("failed to hash password", zap.Error(err))
	}

	s := &seeder{rng: rand.New(rand.NewSource(42)), now: time.Now().UTC(), hash: hash}
	err = repository.NewTxManager(pg.PoolHandle()).WithinTx(ctx, func(repos repository.Repositories) error {
		return s.run(ctx, repos)
	})
	if err != nil {
		logger.Fatal("seeding failed", zap.Error(err))
	}
	logger.Info("seed complete",
		zap.Int("users", len(seedUsers)),
		zap.Int("lockers", seedLockers),
		zap.Int("historical_rentals", historyMonths*historyPerMonth),
	)
}

type seeder struct {
	rng   *rand.Rand
	now   time.Time
	hash  string
	users map[domain.Role]*domain.User
}

func (s *seeder) run(ctx context.Context, repos repository.Repositories) error {
	s.users = make(map[domain.Role]*domain.User, len(seedUsers))
	for i := range seedUsers {
		user := seedUsers[i]
		user.PasswordHash = s.hash
		user.Status = domain.UserStatusActive
		if err := repos.Users.Create(ctx, &user); err != nil {
			return fmt.Errorf("create user %s: %w", user.Email, err)
		}
		s.users[user.Role] = &user
	}

	for i := 0; i < seedLockers; i++ {
		if err := s.seedLocker(ctx, repos, i); err != nil {
			return err
		}
	}
	return s.seedHistory(ctx, repos)
}

func (s *seeder) seedLocker(ctx context.Context, repos repository.Repositories, i int) error {
	zone := domain.Zones[i%len(domain.Zones)]
	status, battery := s.pickStatus()
	x, y := s.coordinates(i % len(domain.Zones))

	locker := &domain.Locker{
		ID:           fmt.Sprintf("L-%d", i+1),
		Label:        fmt.Sprintf("%s-%02d", zone.ID[len(zone.ID)-1:], i/len(domain.Zones)+1),
		ZoneID:       zone.ID,
		Location:     zone.Name,
		Size:         sizes[i%len(sizes)],
		Status:       status,
		IsLocked:     status != domain.LockerStatusAvailable && status != domain.LockerStatusMaintenance,
		BatteryLevel: battery,
		CoordinateX:  x,
		CoordinateY:  y,
	}
	if err := repos.Lockers.Provision(ctx, locker); err != nil {
		return fmt.Errorf("create locker %s: %w", locker.ID, err)
	}

	switch status {
	case domain.LockerStatusOccupied:
		rentalType := domain.RentalTypePersonal
		renter := s.users[domain.RoleUser]
		if s.rng.Float64() > 0.5 {
			rentalType = domain.RentalTypeDelivery
			renter = s.users[domain.RoleCourier]
		}
		start := s.now.Add(-time.Duration(s.rng.Int63n(int64(3 * time.Hour))))
		end := start.Add(4 * time.Hour)
		rental := &domain.Rental{
			UserID:     renter.ID,
			LockerID:   locker.ID,
			Type:       rentalType,
			Status:     domain.RentalStatusStored,
			StartTime:  start,
			EndTime:    &end,
			Cost:       locker.Size.PricePerHour() * 4,
			AccessCode: fmt.Sprintf("%06d", 100000+s.rng.Intn(900000)),
		}
		if err := repos.Rentals.Create(ctx, rental); err != nil {
			return fmt.Errorf("create rental for %s: %w", locker.ID, err)
		}
	case domain.LockerStatusMaintenance:
		reporter := s.users[domain.RoleAdmin].ID
		eta := s.now.Add(24 * time.Hour)
		logEntry := &domain.MaintenanceLog{
			LockerID:            locker.ID,
			Issue:               "Door mechanism jammed",
			ReportedByID:        &reporter,
			TechnicianName:      s.users[domain.RoleTechnician].Name,
			EstimatedCost:       150000,
			EstimatedCompletion: &eta,
			Notes:               "Waiting for replacement parts",
			Status:              domain.MaintenanceStatusInProgress,
		}
		if err := repos.Maintenance.Create(ctx, logEntry); err != nil {
			return fmt.Errorf("create maintenance log for %s: %w", locker.ID, err)
		}
		locker.ActiveMaintenanceID = &logEntry.ID
		if err := repos.Lockers.Update(ctx, locker); err != nil {
			return fmt.Errorf("link maintenance log for %s: %w", locker.ID, err)
		}
	}
	return nil
}

// seedHistory backfills completed rentals on the first ten lockers so the
// dashboard has data for every month it shows.
func (s *seeder) seedHistory(ctx context.Context, repos repository.Repositories) error {
	renter := s.users[domain.RoleUser]
	for m := 0; m < historyMonths; m++ {
		monthStart := time.Date(s.now.Year(), s.now.Month()-time.Month(m), 1, 9, 0, 0, 0, time.UTC)
		for k := 0; k < historyPerMonth; k++ {
			start := monthStart.Add(time.Duration(k) * 36 * time.Hour)
			if start.After(s.now) {
				start = s.now.Add(-time.Duration(k+5) * time.Hour)
			}
			end := start.Add(4 * time.Hour)
			rental := &domain.Rental{
				UserID:     renter.ID,
				LockerID:   fmt.Sprintf("L-%d", s.rng.Intn(10)+1),
				Type:       domain.RentalTypePersonal,
				Status:     domain.RentalStatusCompleted,
				StartTime:  start,
				EndTime:    &end,
				Cost:       20000,
				AccessCode: fmt.Sprintf("%06d", 100000+s.rng.Intn(900000)),
			}
			if err := repos.Rentals.Create(ctx, rental); err != nil {
				return fmt.Errorf("create historical rental: %w", err)
			}
			if err := repos.Rentals.UpdateStatus(ctx, rental.ID, domain.RentalStatusCompleted, &end); err != nil {
				return fmt.Errorf("complete historical rental: %w", err)
			}
		}
	}
	return nil
}

func (s *seeder) pickStatus() (domain.LockerStatus, int) {
	battery := s.rng.Intn(40) + 60
	switch r := s.rng.Float64(); {
	case r > 0.97:
		return domain.LockerStatusOffline, battery
	case r > 0.93:
		return domain.LockerStatusLowBattery, s.rng.Intn(15) + 1
	case r > 0.85:
		return domain.LockerStatusMaintenance, battery
	case r > 0.55:
		return domain.LockerStatusOccupied, battery
	default:
		return domain.LockerStatusAvailable, battery
	}
}

// coordinates places lockers on the floor map column of their zone.
func (s *seeder) coordinates(zoneIndex int) (float64, float64) {
	offsets := []float64{5, 37, 70}
	return s.rng.Float64()*25 + offsets[zoneIndex], s.rng.Float64()*80 + 10
}
