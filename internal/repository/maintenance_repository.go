package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/locker-service/internal/domain"
)

// MaintenanceRepository persists maintenance logs.
type MaintenanceRepository interface {
	Create(ctx context.Context, log *domain.MaintenanceLog) error
	GetByID(ctx context.Context, id string) (*domain.MaintenanceLog, error)
	// ListRecent returns up to perLocker newest logs for every locker, keyed by locker id.
	ListRecent(ctx context.Context, perLocker int) (map[string][]domain.MaintenanceLog, error)
	MonthlyIssues(ctx context.Context, since time.Time) ([]MonthlyAggregate, error)
}

type maintenanceRepository struct {
	db DBTX
}

// NewMaintenanceRepository instantiates repository.
func NewMaintenanceRepository(db DBTX) MaintenanceRepository {
	return &maintenanceRepository{db: db}
}

const maintenanceColumns = `id, locker_id, issue, reported_by_id, technician_name, estimated_cost,
               estimated_completion, notes, status, reported_at`

func (r *maintenanceRepository) Create(ctx context.Context, log *domain.MaintenanceLog) error {
	const query = `
        INSERT INTO maintenance_logs (locker_id, issue, reported_by_id, technician_name, estimated_cost,
                                      estimated_completion, notes, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, reported_at`
	return r.db.QueryRow(ctx, query,
		log.LockerID,
		log.Issue,
		log.ReportedByID,
		log.TechnicianName,
		log.EstimatedCost,
		log.EstimatedCompletion,
		log.Notes,
		log.Status,
	).Scan(&log.ID, &log.ReportedAt)
}

func (r *maintenanceRepository) GetByID(ctx context.Context, id string) (*domain.MaintenanceLog, error) {
	return scanMaintenance(r.db.QueryRow(ctx, `SELECT `+maintenanceColumns+` FROM maintenance_logs WHERE id=$1`, id))
}

func (r *maintenanceRepository) ListRecent(ctx context.Context, perLocker int) (map[string][]domain.MaintenanceLog, error) {
	if perLocker <= 0 {
		perLocker = 5
	}
	query := `
        SELECT ` + maintenanceColumns + ` FROM (
            SELECT *, ROW_NUMBER() OVER (PARTITION BY locker_id ORDER BY reported_at DESC) AS rn
            FROM maintenance_logs
        ) ranked
        WHERE rn <= $1
        ORDER BY locker_id, reported_at DESC`
	rows, err := r.db.Query(ctx, query, perLocker)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]domain.MaintenanceLog)
	for rows.Next() {
		log, err := scanMaintenance(rows)
		if err != nil {
			return nil, err
		}
		result[log.LockerID] = append(result[log.LockerID], *log)
	}
	return result, rows.Err()
}

func (r *maintenanceRepository) MonthlyIssues(ctx context.Context, since time.Time) ([]MonthlyAggregate, error) {
	const query = `
        SELECT date_trunc('month', reported_at AT TIME ZONE 'UTC') AS month, COALESCE(SUM(estimated_cost), 0), COUNT(*)
        FROM maintenance_logs
        WHERE reported_at >= $1
        GROUP BY month
        ORDER BY month ASC`
	rows, err := r.db.Query(ctx, query, since)
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

func scanMaintenance(row pgx.Row) (*domain.MaintenanceLog, error) {
	var log domain.MaintenanceLog
	if err := row.Scan(
		&log.ID,
		&log.LockerID,
		&log.Issue,
		&log.ReportedByID,
		&log.TechnicianName,
		&log.EstimatedCost,
		&log.EstimatedCompletion,
		&log.Notes,
		&log.Status,
		&log.ReportedAt,
	); err != nil {
		return nil, err
	}
	return &log, nil
}
