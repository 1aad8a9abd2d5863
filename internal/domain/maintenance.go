package domain

import "time"

// MaintenanceStatus tracks repair progress.
type MaintenanceStatus string

const (
	MaintenanceStatusPending    MaintenanceStatus = "Pending"
	MaintenanceStatusInProgress MaintenanceStatus = "In Progress"
	MaintenanceStatusResolved   MaintenanceStatus = "Resolved"
)

// Valid reports whether s is a known maintenance status.
func (s MaintenanceStatus) Valid() bool {
	switch s {
	case MaintenanceStatusPending, MaintenanceStatusInProgress, MaintenanceStatusResolved:
		return true
	}
	return false
}

// ActiveRepair reports whether the locker should be held in Maintenance.
func (s MaintenanceStatus) ActiveRepair() bool {
	return s == MaintenanceStatusPending || s == MaintenanceStatusInProgress
}

// MaintenanceLog records a fault and its repair.
type MaintenanceLog struct {
	ID                  string
	LockerID            string
	Issue               string
	ReportedByID        *string
	TechnicianName      string
	EstimatedCost       int64
	EstimatedCompletion *time.Time
	Notes               string
	Status              MaintenanceStatus
	ReportedAt          time.Time
}
