package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/locker-service/internal/config"
)

func TestSlowQueryTracer(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tracer := newSlowQueryTracer(zap.New(core), 100*time.Millisecond)
	clock := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	tracer.now = func() time.Time { return clock }

	run := func(elapsed time.Duration, err error) {
		ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "SELECT id\n        FROM lockers"})
		clock = clock.Add(elapsed)
		tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{CommandTag: pgconn.NewCommandTag("SELECT 1"), Err: err})
	}

	run(10*time.Millisecond, nil)
	assert.Zero(t, logs.Len())

	run(150*time.Millisecond, nil)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "slow query", entry.Message)
	assert.Equal(t, "SELECT id FROM lockers", entry.ContextMap()["sql"])

	run(time.Millisecond, pgx.ErrNoRows)
	assert.Equal(t, 1, logs.Len())

	run(time.Millisecond, errors.New("deadlock detected"))
	assert.Equal(t, 2, logs.Len())
	assert.Equal(t, "query failed", logs.All()[1].Message)
}

func TestNewPostgresRequiresDSN(t *testing.T) {
	_, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	assert.Error(t, err)
}
