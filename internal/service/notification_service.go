package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/locker-service/internal/config"
	"github.com/spec-kit/locker-service/internal/events"
)

// NotificationService fans domain events out to the log and to a Redis channel
// that push clients subscribe to.
type NotificationService struct {
	logger *zap.Logger
	redis  *redis.Client
	cfg    config.NotificationConfig
}

// NewNotificationService creates the service. A nil redis client disables fan-out.
func NewNotificationService(logger *zap.Logger, client *redis.Client, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		logger: nopLogger(logger),
		redis:  client,
		cfg:    cfg,
	}
}

// Notify logs the event and relays it to the Redis channel.
func (n *NotificationService) Notify(ctx context.Context, event events.Event) error {
	n.logger.Info("event",
		zap.String("event_type", string(event.Type)),
		zap.String("event_id", event.ID),
		zap.String("locker_id", event.LockerID),
		zap.String("actor_id", event.Actor.UserID),
		zap.Any("payload", event.Payload))
	return n.broadcast(ctx, event)
}

func (n *NotificationService) broadcast(ctx context.Context, event events.Event) error {
	if n.redis == nil || n.cfg.RedisChannel == "" {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := n.redis.Publish(ctx, n.cfg.RedisChannel, body).Err(); err != nil {
		return fmt.Errorf("publish event %s: %w", event.Type, err)
	}
	return nil
}
