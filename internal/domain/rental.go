package domain

import "time"

// RentalType describes why a locker is rented.
type RentalType string

const (
	RentalTypePersonal RentalType = "Personal"
	RentalTypeDelivery RentalType = "Delivery"
	RentalTypeP2P      RentalType = "P2P"
)

// Valid reports whether t is a known rental type.
func (t RentalType) Valid() bool {
	switch t {
	case RentalTypePersonal, RentalTypeDelivery, RentalTypeP2P:
		return true
	}
	return false
}

// RentalStatus enumerates lifecycle states for a rental.
type RentalStatus string

const (
	RentalStatusPending   RentalStatus = "Pending"
	RentalStatusStored    RentalStatus = "Stored"
	RentalStatusOverdue   RentalStatus = "Overdue"
	RentalStatusCompleted RentalStatus = "Completed"
	RentalStatusCancelled RentalStatus = "Cancelled"
)

// ActiveRentalStatuses are the persisted states in which a rental holds its locker.
var ActiveRentalStatuses = []RentalStatus{RentalStatusPending, RentalStatusStored, RentalStatusOverdue}

// FinishedRentalStatuses are the terminal states.
var FinishedRentalStatuses = []RentalStatus{RentalStatusCompleted, RentalStatusCancelled}

// Terminal reports whether no further transition is allowed.
func (s RentalStatus) Terminal() bool {
	return s == RentalStatusCompleted || s == RentalStatusCancelled
}

// Rental links a user to a locker for a period.
type Rental struct {
	ID          string
	UserID      string
	LockerID    string
	Type        RentalType
	Status      RentalStatus
	StartTime   time.Time
	EndTime     *time.Time
	CompletedAt *time.Time
	Cost        int64
	AccessCode  string
	Locker      *Locker
	User        *User
}

// EffectiveStatus reports Overdue for a Stored rental whose end time has passed.
func (r *Rental) EffectiveStatus(now time.Time) RentalStatus {
	if r.Status == RentalStatusStored && r.EndTime != nil && now.After(*r.EndTime) {
		return RentalStatusOverdue
	}
	return r.Status
}
