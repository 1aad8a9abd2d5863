package repository

import (
	"context"
	"time"

	"github.com/spec-kit/locker-service/internal/domain"
)

// StatisticRepository caches computed monthly aggregates.
type StatisticRepository interface {
	Upsert(ctx context.Context, stat *domain.Statistic) error
	ListSince(ctx context.Context, since time.Time) ([]domain.Statistic, error)
}

type statisticRepository struct {
	db DBTX
}

// NewStatisticRepository instantiates repository.
func NewStatisticRepository(db DBTX) StatisticRepository {
	return &statisticRepository{db: db}
}

func (r *statisticRepository) Upsert(ctx context.Context, stat *domain.Statistic) error {
	const query = `
        INSERT INTO statistics (month, revenue, utilization, issues, computed_at)
        VALUES ($1,$2,$3,$4,NOW())
        ON CONFLICT (month) DO UPDATE
        SET revenue=EXCLUDED.revenue, utilization=EXCLUDED.utilization,
            issues=EXCLUDED.issues, computed_at=EXCLUDED.computed_at
        RETURNING computed_at`
	return r.db.QueryRow(ctx, query, stat.Month, stat.Revenue, stat.Utilization, stat.Issues).
		Scan(&stat.ComputedAt)
}

func (r *statisticRepository) ListSince(ctx context.Context, since time.Time) ([]domain.Statistic, error) {
	const query = `
        SELECT month, revenue, utilization, issues, computed_at
        FROM statistics
        WHERE month >= $1
        ORDER BY month ASC`
	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Statistic
	for rows.Next() {
		var s domain.Statistic
		if err := rows.Scan(&s.Month, &s.Revenue, &s.Utilization, &s.Issues, &s.ComputedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
