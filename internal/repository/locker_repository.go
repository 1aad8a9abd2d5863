package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/locker-service/internal/domain"
)

// LockerRepository encapsulates locker persistence.
type LockerRepository interface {
	List(ctx context.Context) ([]domain.Locker, error)
	GetByID(ctx context.Context, id string) (*domain.Locker, error)
	// LockByID reads a locker and holds a row lock until the transaction ends.
	LockByID(ctx context.Context, id string) (*domain.Locker, error)
	// ClaimAvailable atomically flips one Available locker in zone/size to Occupied
	// and locked, returning ErrNoLockerAvailable when none is free.
	ClaimAvailable(ctx context.Context, zoneID string, size domain.LockerSize) (*domain.Locker, error)
	// MarkAvailable disengages the lock of a locker whose rental ended and returns
	// it to Available unless it was taken out of service meanwhile.
	MarkAvailable(ctx context.Context, id string) error
	Update(ctx context.Context, locker *domain.Locker) error
	// Provision inserts a new locker row with the caller-chosen id.
	Provision(ctx context.Context, locker *domain.Locker) error
	Stats(ctx context.Context) ([]domain.LockerStats, error)
}

type lockerRepository struct {
	db DBTX
}

// NewLockerRepository instantiates repository.
func NewLockerRepository(db DBTX) LockerRepository {
	return &lockerRepository{db: db}
}

const lockerColumns = `id, label, zone_id, location, size, status, is_locked, battery_level,
               coordinate_x, coordinate_y, active_maintenance_id, updated_at`

func (r *lockerRepository) List(ctx context.Context) ([]domain.Locker, error) {
	rows, err := r.db.Query(ctx, `SELECT `+lockerColumns+` FROM lockers ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Locker
	for rows.Next() {
		locker, err := scanLocker(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *locker)
	}
	return result, rows.Err()
}

func (r *lockerRepository) GetByID(ctx context.Context, id string) (*domain.Locker, error) {
	return scanLocker(r.db.QueryRow(ctx, `SELECT `+lockerColumns+` FROM lockers WHERE id=$1`, id))
}

func (r *lockerRepository) LockByID(ctx context.Context, id string) (*domain.Locker, error) {
	return scanLocker(r.db.QueryRow(ctx, `SELECT `+lockerColumns+` FROM lockers WHERE id=$1 FOR UPDATE`, id))
}

func (r *lockerRepository) ClaimAvailable(ctx context.Context, zoneID string, size domain.LockerSize) (*domain.Locker, error) {
	// The status predicate on the outer UPDATE makes this a check-and-set even if
	// the inner pick raced with another writer. Lockers still bound to an active
	// rental are never handed out, whatever their status column says.
	query := `
        UPDATE lockers SET status=$4, is_locked=TRUE, updated_at=NOW()
        WHERE id = (
            SELECT l.id FROM lockers l
            WHERE l.zone_id=$1 AND l.size=$2 AND l.status=$3
              AND NOT EXISTS (
                  SELECT 1 FROM rentals r WHERE r.locker_id = l.id AND r.status = ANY($5)
              )
            ORDER BY l.id ASC
            LIMIT 1
            FOR UPDATE OF l SKIP LOCKED
        ) AND status=$3
        RETURNING ` + lockerColumns
	locker, err := scanLocker(r.db.QueryRow(ctx, query,
		zoneID, size, domain.LockerStatusAvailable, domain.LockerStatusOccupied,
		statusStrings(domain.ActiveRentalStatuses)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoLockerAvailable
	}
	return locker, err
}

func (r *lockerRepository) MarkAvailable(ctx context.Context, id string) error {
	// Only an Occupied locker goes back to Available. A locker with an open
	// maintenance log stays in Maintenance, and other out-of-service states are kept.
	const query = `
        UPDATE lockers SET
            status = CASE
                WHEN active_maintenance_id IS NOT NULL THEN $2
                WHEN status = $3 THEN $1
                ELSE status
            END,
            is_locked=FALSE, updated_at=NOW()
        WHERE id=$4`
	cmd, err := r.db.Exec(ctx, query,
		domain.LockerStatusAvailable, domain.LockerStatusMaintenance, domain.LockerStatusOccupied, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *lockerRepository) Update(ctx context.Context, locker *domain.Locker) error {
	const query = `
        UPDATE lockers SET label=$1, location=$2, status=$3, is_locked=$4, battery_level=$5,
            coordinate_x=$6, coordinate_y=$7, active_maintenance_id=$8, updated_at=NOW()
        WHERE id=$9
        RETURNING updated_at`
	return r.db.QueryRow(ctx, query,
		locker.Label,
		locker.Location,
		locker.Status,
		locker.IsLocked,
		locker.BatteryLevel,
		locker.CoordinateX,
		locker.CoordinateY,
		locker.ActiveMaintenanceID,
		locker.ID,
	).Scan(&locker.UpdatedAt)
}

func (r *lockerRepository) Provision(ctx context.Context, locker *domain.Locker) error {
	const query = `
        INSERT INTO lockers (id, label, zone_id, location, size, status, is_locked, battery_level,
                             coordinate_x, coordinate_y)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING updated_at`
	return r.db.QueryRow(ctx, query,
		locker.ID,
		locker.Label,
		locker.ZoneID,
		locker.Location,
		locker.Size,
		locker.Status,
		locker.IsLocked,
		locker.BatteryLevel,
		locker.CoordinateX,
		locker.CoordinateY,
	).Scan(&locker.UpdatedAt)
}

func (r *lockerRepository) Stats(ctx context.Context) ([]domain.LockerStats, error) {
	const query = `
        SELECT locker_id,
               COALESCE(SUM(cost) FILTER (WHERE status='Completed'), 0),
               COUNT(*) FILTER (WHERE status <> 'Cancelled')
        FROM rentals
        GROUP BY locker_id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.LockerStats
	for rows.Next() {
		var s domain.LockerStats
		if err := rows.Scan(&s.LockerID, &s.TotalRevenue, &s.TotalRentals); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func scanLocker(row pgx.Row) (*domain.Locker, error) {
	var locker domain.Locker
	if err := row.Scan(
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
	); err != nil {
		return nil, err
	}
	return &locker, nil
}
