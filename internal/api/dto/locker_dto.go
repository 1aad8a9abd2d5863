package dto

import (
	"time"

	"github.com/spec-kit/locker-service/internal/domain"
)

// UpdateLockerStatusRequest payload for PUT /lockers/:id/status.
type UpdateLockerStatusRequest struct {
	Status domain.LockerStatus `json:"status"`
}

// ReportMaintenanceRequest payload for POST /lockers/:id/maintenance.
type ReportMaintenanceRequest struct {
	Issue               string                   `json:"issue"`
	TechnicianName      string                   `json:"technician_name"`
	EstimatedCost       int64                    `json:"estimated_cost"`
	EstimatedCompletion *time.Time               `json:"estimated_completion"`
	Notes               string                   `json:"notes"`
	Status              domain.MaintenanceStatus `json:"status"`
}

// LockerResponse is a locker as shown to operators.
type LockerResponse struct {
	ID                  string              `json:"id"`
	Label               string              `json:"label"`
	ZoneID              string              `json:"zone_id"`
	ZoneName            string              `json:"zone_name,omitempty"`
	Location            string              `json:"location"`
	Size                domain.LockerSize   `json:"size"`
	Status              domain.LockerStatus `json:"status"`
	IsLocked            bool                `json:"is_locked"`
	BatteryLevel        int                 `json:"battery_level"`
	CoordinateX         float64             `json:"coordinate_x"`
	CoordinateY         float64             `json:"coordinate_y"`
	ActiveMaintenanceID *string             `json:"active_maintenance_id,omitempty"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// LockerDetailResponse adds occupancy, maintenance and revenue to a locker.
type LockerDetailResponse struct {
	LockerResponse
	CurrentRentalID string                   `json:"current_rental_id,omitempty"`
	CurrentUserID   string                   `json:"current_user_id,omitempty"`
	MaintenanceLogs []MaintenanceLogResponse `json:"maintenance_logs"`
	ActiveLog       *MaintenanceLogResponse  `json:"active_log,omitempty"`
	TotalRevenue    int64                    `json:"total_revenue"`
	TotalRentals    int                      `json:"total_rentals"`
}

// MaintenanceLogResponse is a maintenance record.
type MaintenanceLogResponse struct {
	ID                  string                   `json:"id"`
	LockerID            string                   `json:"locker_id"`
	Issue               string                   `json:"issue"`
	ReportedByID        *string                  `json:"reported_by_id,omitempty"`
	TechnicianName      string                   `json:"technician_name,omitempty"`
	EstimatedCost       int64                    `json:"estimated_cost"`
	EstimatedCompletion *time.Time               `json:"estimated_completion,omitempty"`
	Notes               string                   `json:"notes,omitempty"`
	Status              domain.MaintenanceStatus `json:"status"`
	ReportedAt          time.Time                `json:"reported_at"`
}

// NewLockerResponse maps a domain locker.
func NewLockerResponse(l *domain.Locker) LockerResponse {
	resp := LockerResponse{
		ID:                  l.ID,
		Label:               l.Label,
		ZoneID:              l.ZoneID,
		Location:            l.Location,
		Size:                l.Size,
		Status:              l.Status,
		IsLocked:            l.IsLocked,
		BatteryLevel:        l.BatteryLevel,
		CoordinateX:         l.CoordinateX,
		CoordinateY:         l.CoordinateY,
		ActiveMaintenanceID: l.ActiveMaintenanceID,
		UpdatedAt:           l.UpdatedAt,
	}
	if zone, ok := domain.LookupZone(l.ZoneID); ok {
		resp.ZoneName = zone.Name
	}
	return resp
}

// NewMaintenanceLogResponse maps a domain maintenance log.
func NewMaintenanceLogResponse(m *domain.MaintenanceLog) MaintenanceLogResponse {
	return MaintenanceLogResponse{
		ID:                  m.ID,
		LockerID:            m.LockerID,
		Issue:               m.Issue,
		ReportedByID:        m.ReportedByID,
		TechnicianName:      m.TechnicianName,
		EstimatedCost:       m.EstimatedCost,
		EstimatedCompletion: m.EstimatedCompletion,
		Notes:               m.Notes,
		Status:              m.Status,
		ReportedAt:          m.ReportedAt,
	}
}
