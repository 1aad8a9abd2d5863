package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/locker-service/internal/domain"
	"github.com/spec-kit/locker-service/internal/events"
	apperrors "github.com/spec-kit/locker-service/pkg/util"
)

// requireCapability rejects anonymous callers with Unauthorized and callers whose
// role lacks the capability with Forbidden.
func requireCapability(caller domain.Caller, capability domain.Capability) error {
	if caller.UserID == "" {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !caller.Can(capability) {
		return apperrors.NewForbidden("insufficient role")
	}
	return nil
}

// eventPublisher stamps and emits events once their transaction has committed.
type eventPublisher struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

func (p eventPublisher) publish(ctx context.Context, event events.Event) {
	if p.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}
	if err := p.dispatcher.Publish(ctx, event); err != nil && p.logger != nil {
		p.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func nopLogger(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
