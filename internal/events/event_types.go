package events

import (
	"time"

	"github.com/spec-kit/locker-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRentalBooked        EventType = "rental_booked"
	EventRentalReleased      EventType = "rental_released"
	EventRentalCancelled     EventType = "rental_cancelled"
	EventWalletToppedUp      EventType = "wallet_topped_up"
	EventLockerStatusChanged EventType = "locker_status_changed"
	EventMaintenanceReported EventType = "maintenance_reported"
)

// AllEventTypes lists every event the services emit.
var AllEventTypes = []EventType{
	EventRentalBooked,
	EventRentalReleased,
	EventRentalCancelled,
	EventWalletToppedUp,
	EventLockerStatusChanged,
	EventMaintenanceReported,
}

// Actor identifies who triggered an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// ActorFrom builds an Actor from a caller.
func ActorFrom(caller domain.Caller) Actor {
	return Actor{UserID: caller.UserID, Role: caller.Role}
}

// Event represents a domain event emitted by services after commit.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	LockerID  string      `json:"locker_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RentalBookedPayload payload.
type RentalBookedPayload struct {
	RentalID string            `json:"rental_id"`
	Size     domain.LockerSize `json:"size"`
	Cost     int64             `json:"cost"`
	EndTime  time.Time         `json:"end_time"`
}

// RentalClosedPayload is shared by release and cancel.
type RentalClosedPayload struct {
	RentalID  string              `json:"rental_id"`
	OldStatus domain.RentalStatus `json:"old_status"`
	NewStatus domain.RentalStatus `json:"new_status"`
	Refunded  int64               `json:"refunded,omitempty"`
}

// WalletToppedUpPayload payload.
type WalletToppedUpPayload struct {
	Amount  int64 `json:"amount"`
	Balance int64 `json:"balance"`
}

// LockerStatusChangedPayload payload.
type LockerStatusChangedPayload struct {
	OldStatus domain.LockerStatus `json:"old_status"`
	NewStatus domain.LockerStatus `json:"new_status"`
}

// MaintenanceReportedPayload payload.
type MaintenanceReportedPayload struct {
	LogID  string                   `json:"log_id"`
	Issue  string                   `json:"issue"`
	Status domain.MaintenanceStatus `json:"status"`
}
