package domain

import "time"

// LockerStatus enumerates physical locker states.
type LockerStatus string

const (
	LockerStatusAvailable   LockerStatus = "Available"
	LockerStatusOccupied    LockerStatus = "Occupied"
	LockerStatusMaintenance LockerStatus = "Maintenance"
	LockerStatusError       LockerStatus = "Error"
	LockerStatusLowBattery  LockerStatus = "LowBattery"
	LockerStatusOffline     LockerStatus = "Offline"
	LockerStatusResolved    LockerStatus = "Resolved"
)

// Valid reports whether s is a known locker status.
func (s LockerStatus) Valid() bool {
	switch s {
	case LockerStatusAvailable, LockerStatusOccupied, LockerStatusMaintenance, LockerStatusError,
		LockerStatusLowBattery, LockerStatusOffline, LockerStatusResolved:
		return true
	}
	return false
}

// LockerSize is the size class of a compartment.
type LockerSize string

const (
	LockerSizeSmall  LockerSize = "Small"
	LockerSizeMedium LockerSize = "Medium"
	LockerSizeLarge  LockerSize = "Large"
)

var pricePerHour = map[LockerSize]int64{
	LockerSizeSmall:  5000,
	LockerSizeMedium: 10000,
	LockerSizeLarge:  20000,
}

// Valid reports whether s is a known size class.
func (s LockerSize) Valid() bool {
	_, ok := pricePerHour[s]
	return ok
}

// PricePerHour returns the hourly rate for the size, or 0 when unknown.
func (s LockerSize) PricePerHour() int64 {
	return pricePerHour[s]
}

// Locker is a single physical unit.
type Locker struct {
	ID                  string
	Label               string
	ZoneID              string
	Location            string
	Size                LockerSize
	Status              LockerStatus
	IsLocked            bool
	BatteryLevel        int
	CoordinateX         float64
	CoordinateY         float64
	ActiveMaintenanceID *string
	UpdatedAt           time.Time
}

// LockerStats holds aggregates over a locker's rentals.
type LockerStats struct {
	LockerID     string
	TotalRevenue int64
	TotalRentals int
}
