package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrInsufficientFunds is returned when a debit would drive a balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrNoLockerAvailable is returned when no locker matches an allocation request.
	ErrNoLockerAvailable = errors.New("no locker available")
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so every repository can run
// standalone or inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories bundles every repository bound to the same connection or transaction.
type Repositories struct {
	Users        UserRepository
	Lockers      LockerRepository
	Rentals      RentalRepository
	Transactions TransactionRepository
	Maintenance  MaintenanceRepository
	Statistics   StatisticRepository
}

// New binds all repositories to db.
func New(db DBTX) Repositories {
	return Repositories{
		Users:        NewUserRepository(db),
		Lockers:      NewLockerRepository(db),
		Rentals:      NewRentalRepository(db),
		Transactions: NewTransactionRepository(db),
		Maintenance:  NewMaintenanceRepository(db),
		Statistics:   NewStatisticRepository(db),
	}
}

// TxManager runs a unit of work atomically: fn's writes commit together or not at all.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
}

type pgTxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager returns a TxManager backed by the pool.
func NewTxManager(pool *pgxpool.Pool) TxManager {
	return &pgTxManager{pool: pool}
}

func (m *pgTxManager) WithinTx(ctx context.Context, fn func(repos Repositories) error) error {
	return pgx.BeginFunc(ctx, m.pool, func(tx pgx.Tx) error {
		return fn(New(tx))
	})
}

// IsUniqueViolation reports whether err is a Postgres unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func statusStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
