package repository

import (
	"context"

	"github.com/spec-kit/locker-service/internal/domain"
)

// TransactionRepository appends and reads wallet ledger entries. Entries are never updated.
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Transaction, error)
}

type transactionRepository struct {
	db DBTX
}

// NewTransactionRepository instantiates repository.
func NewTransactionRepository(db DBTX) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	const query = `
        INSERT INTO transactions (user_id, amount, type, description)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query, tx.UserID, tx.Amount, tx.Type, tx.Description).
		Scan(&tx.ID, &tx.CreatedAt)
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT id, user_id, amount, type, description, created_at
        FROM transactions
        WHERE user_id=$1
        ORDER BY created_at DESC
        LIMIT $2`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}
