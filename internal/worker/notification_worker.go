package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/locker-service/internal/events"
	"github.com/spec-kit/locker-service/internal/service"
)

const (
	defaultQueueSize = 256
	notifyTimeout    = 5 * time.Second
)

// Notifier delivers a single event.
type Notifier interface {
	Notify(ctx context.Context, event events.Event) error
}

// NotificationWorker moves event delivery off the request path: handlers enqueue
// and a single goroutine drains the queue in publish order.
type NotificationWorker struct {
	notifier Notifier
	logger   *zap.Logger
	queue    chan events.Event
	wg       sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewNotificationWorker builds a worker with a bounded queue.
func NewNotificationWorker(notifier Notifier, logger *zap.Logger, queueSize int) *NotificationWorker {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{notifier: notifier, logger: logger, queue: make(chan events.Event, queueSize)}
}

// Subscribe registers the worker for every event type.
func (w *NotificationWorker) Subscribe(dispatcher events.Dispatcher) {
	events.SubscribeAll(dispatcher, w.enqueue)
}

// enqueue never blocks the publisher; a full queue drops the event.
func (w *NotificationWorker) enqueue(_ context.Context, event events.Event) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.logger.Debug("notification worker stopped, discarding event", zap.String("event_type", string(event.Type)))
		return nil
	}
	select {
	case w.queue <- event:
	default:
		w.logger.Warn("notification queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID))
	}
	return nil
}

// Start launches the delivery goroutine.
func (w *NotificationWorker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for event := range w.queue {
			ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
			if err := w.notifier.Notify(ctx, event); err != nil {
				w.logger.Warn("notification delivery failed",
					zap.String("event_type", string(event.Type)),
					zap.Error(err))
			}
			cancel()
		}
	}()
}

// Stop closes the queue and waits for queued events to be delivered. Events
// published after Stop are discarded.
func (w *NotificationWorker) Stop() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

// StartNotificationWorker wires the notification service to the dispatcher
// through an asynchronous worker and starts it.
func StartNotificationWorker(dispatcher events.Dispatcher, notifications *service.NotificationService, logger *zap.Logger) *NotificationWorker {
	if dispatcher == nil || notifications == nil {
		return nil
	}
	w := NewNotificationWorker(notifications, logger, defaultQueueSize)
	w.Subscribe(dispatcher)
	w.Start()
	return w
}
