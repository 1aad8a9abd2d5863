package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/locker-service/internal/domain"
)

// MonthlyAggregate is a per-month rollup.
type MonthlyAggregate struct {
	Month   time.Time
	Revenue int64
	Count   int
}

// RentalRepository encapsulates rental persistence.
type RentalRepository interface {
	Create(ctx context.Context, rental *domain.Rental) error
	GetByID(ctx context.Context, id string) (*domain.Rental, error)
	// LockByID reads a rental and holds a row lock until the transaction ends.
	LockByID(ctx context.Context, id string) (*domain.Rental, error)
	UpdateStatus(ctx context.Context, id string, status domain.RentalStatus, completedAt *time.Time) error
	// ListByUser returns the user's rentals in the given statuses with their lockers, newest first.
	ListByUser(ctx context.Context, userID string, statuses []domain.RentalStatus) ([]domain.Rental, error)
	// ListByLocker returns the most recent rentals of a locker with renter profiles.
	ListByLocker(ctx context.Context, lockerID string, limit int) ([]domain.Rental, error)
	// ListActive returns every rental currently holding a locker.
	ListActive(ctx context.Context) ([]domain.Rental, error)
	// HasActiveForLocker reports whether a Pending, Stored or Overdue rental holds the locker.
	HasActiveForLocker(ctx context.Context, lockerID string) (bool, error)
	MonthlyUsage(ctx context.Context, since time.Time, statuses []domain.RentalStatus) ([]MonthlyAggregate, error)
}

type rentalRepository struct {
	db DBTX
}

// NewRentalRepository instantiates repository.
func NewRentalRepository(db DBTX) RentalRepository {
	return &rentalRepository{db: db}
}

const rentalColumns = `r.id, r.user_id, r.locker_id, r.type, r.status, r.start_time, r.end_time,
               r.completed_at, r.cost, r.access_code`

func (r *rentalRepository) Create(ctx context.Context, rental *domain.Rental) error {
	const query = `
        INSERT INTO rentals (user_id, locker_id, type, status, start_time, end_time, cost, access_code)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		rental.UserID,
		rental.LockerID,
		rental.Type,
		rental.Status,
		rental.StartTime,
		rental.EndTime,
		rental.Cost,
		rental.AccessCode,
	).Scan(&rental.ID)
}

func (r *rentalRepository) GetByID(ctx context.Context, id string) (*domain.Rental, error) {
	return scanRental(r.db.QueryRow(ctx, `SELECT `+rentalColumns+` FROM rentals r WHERE r.id=$1`, id))
}

func (r *rentalRepository) LockByID(ctx context.Context, id string) (*domain.Rental, error) {
	return scanRental(r.db.QueryRow(ctx, `SELECT `+rentalColumns+` FROM rentals r WHERE r.id=$1 FOR UPDATE`, id))
}

func (r *rentalRepository) UpdateStatus(ctx context.Context, id string, status domain.RentalStatus, completedAt *time.Time) error {
	cmd, err := r.db.Exec(ctx, `UPDATE rentals SET status=$1, completed_at=$2 WHERE id=$3`, status, completedAt, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *rentalRepository) ListByUser(ctx context.Context, userID string, statuses []domain.RentalStatus) ([]domain.Rental, error) {
	query := `
        SELECT ` + rentalColumns + `, ` + joinedLockerColumns + `
        FROM rentals r JOIN lockers l ON l.id = r.locker_id
        WHERE r.user_id=$1 AND r.status = ANY($2)
        ORDER BY COALESCE(r.completed_at, r.start_time) DESC`
	rows, err := r.db.Query(ctx, query, userID, statusStrings(statuses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Rental
	for rows.Next() {
		var rental domain.Rental
		var locker domain.Locker
		dest := append(rentalDest(&rental), lockerDest(&locker)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		rental.Locker = &locker
		result = append(result, rental)
	}
	return result, rows.Err()
}

func (r *rentalRepository) ListByLocker(ctx context.Context, lockerID string, limit int) ([]domain.Rental, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
        SELECT ` + rentalColumns + `,
               u.id, u.name, u.email, u.role, u.status, u.avatar, u.balance, u.last_active
        FROM rentals r JOIN users u ON u.id = r.user_id
        WHERE r.locker_id=$1
        ORDER BY r.start_time DESC
        LIMIT $2`
	rows, err := r.db.Query(ctx, query, lockerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Rental
	for rows.Next() {
		var rental domain.Rental
		var user domain.User
		dest := append(rentalDest(&rental),
			&user.ID, &user.Name, &user.Email, &user.Role, &user.Status, &user.Avatar, &user.Balance, &user.LastActive)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		rental.User = &user
		result = append(result, rental)
	}
	return result, rows.Err()
}

func (r *rentalRepository) ListActive(ctx context.Context) ([]domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals r WHERE r.status = ANY($1) ORDER BY r.start_time DESC`
	rows, err := r.db.Query(ctx, query, statusStrings(domain.ActiveRentalStatuses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Rental
	for rows.Next() {
		rental, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rental)
	}
	return result, rows.Err()
}

func (r *rentalRepository) HasActiveForLocker(ctx context.Context, lockerID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM rentals WHERE locker_id=$1 AND status = ANY($2))`,
		lockerID, statusStrings(domain.ActiveRentalStatuses)).Scan(&exists)
	return exists, err
}

// MonthlyUsage buckets by UTC calendar month whatever the session time zone;
// the returned months are UTC wall-clock values.
func (r *rentalRepository) MonthlyUsage(ctx context.Context, since time.Time, statuses []domain.RentalStatus) ([]MonthlyAggregate, error) {
	const query = `
        SELECT date_trunc('month', start_time AT TIME ZONE 'UTC') AS month, COALESCE(SUM(cost), 0), COUNT(*)
        FROM rentals
        WHERE start_time >= $1 AND status = ANY($2)
        GROUP BY month
        ORDER BY month ASC`
	rows, err := r.db.Query(ctx, query, since, statusStrings(statuses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MonthlyAggregate
	for rows.Next() {
		var agg MonthlyAggregate
		if err := rows.Scan(&agg.Month, &agg.Revenue, &agg.Count); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	return result, rows.Err()
}

func rentalDest(rental *domain.Rental) []any {
	return []any{
		&rental.ID,
		&rental.UserID,
		&rental.LockerID,
		&rental.Type,
		&rental.Status,
		&rental.StartTime,
		&rental.EndTime,
		&rental.CompletedAt,
		&rental.Cost,
		&rental.AccessCode,
	}
}

const joinedLockerColumns = `l.id, l.label, l.zone_id, l.location, l.size, l.status, l.is_locked, l.battery_level,
               l.coordinate_x, l.coordinate_y, l.active_maintenance_id, l.updated_at`

func lockerDest(locker *domain.Locker) []any {
	return []any{
		&locker.ID,
		&locker.Label,
		&locker.ZoneID,
		&locker.Location,
		&locker.Size,
		&locker.Status,
		&locker.IsLocked,
		&locker.BatteryLevel,
		&locker.CoordinateX,
		&locker.CoordinateY,
		&locker.ActiveMaintenanceID,
		&locker.UpdatedAt,
	}
}

func scanRental(row pgx.Row) (*domain.Rental, error) {
	var rental domain.Rental
	if err := row.Scan(rentalDest(&rental)...); err != nil {
		return nil, err
	}
	return &rental, nil
}
