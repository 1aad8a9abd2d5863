package dto

import (
	"time"

	"github.com/spec-kit/locker-service/internal/domain"
)

// BookRentalRequest payload for POST /rentals. Cost is optional; when present it
// must equal the server-side price.
type BookRentalRequest struct {
	ZoneID        string            `json:"zone_id"`
	Size          domain.LockerSize `json:"size"`
	DurationHours int               `json:"duration_hours"`
	Type          domain.RentalType `json:"type"`
	Cost          *int64            `json:"cost"`
}

// RentalResponse is a rental with optional locker and renter.
type RentalResponse struct {
	ID          string              `json:"id"`
	UserID      string              `json:"user_id"`
	LockerID    string              `json:"locker_id"`
	Type        domain.RentalType   `json:"type"`
	Status      domain.RentalStatus `json:"status"`
	StartTime   time.Time           `json:"start_time"`
	EndTime     *time.Time          `json:"end_time,omitempty"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
	Cost        int64               `json:"cost"`
	AccessCode  string              `json:"access_code,omitempty"`
	Locker      *LockerResponse     `json:"locker,omitempty"`
	User        *UserProfile        `json:"user,omitempty"`
}

// NewRentalResponse maps a domain rental. The access code is only included when
// withCode is set, so operators browsing history never see renters' codes.
func NewRentalResponse(r *domain.Rental, withCode bool) RentalResponse {
	resp := RentalResponse{
		ID:          r.ID,
		UserID:      r.UserID,
		LockerID:    r.LockerID,
		Type:        r.Type,
		Status:      r.Status,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		CompletedAt: r.CompletedAt,
		Cost:        r.Cost,
	}
	if withCode {
		resp.AccessCode = r.AccessCode
	}
	if r.Locker != nil {
		locker := NewLockerResponse(r.Locker)
		resp.Locker = &locker
	}
	if r.User != nil {
		user := NewUserProfile(r.User)
		resp.User = &user
	}
	return resp
}

// TopUpRequest payload for POST /wallet/topup.
type TopUpRequest struct {
	Amount int64 `json:"amount"`
}

// WalletResponse is the caller's balance and recent ledger.
type WalletResponse struct {
	Balance      int64                 `json:"balance"`
	Transactions []TransactionResponse `json:"transactions"`
}

// TransactionResponse is a ledger entry.
type TransactionResponse struct {
	ID          string                 `json:"id"`
	Amount      int64                  `json:"amount"`
	Type        domain.TransactionType `json:"type"`
	Description string                 `json:"description"`
	CreatedAt   time.Time              `json:"created_at"`
}

// NewTransactionResponse maps a ledger entry.
func NewTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{ID: t.ID, Amount: t.Amount, Type: t.Type, Description: t.Description, CreatedAt: t.CreatedAt}
}

// StatisticResponse is one month of dashboard figures.
type StatisticResponse struct {
	Month       string `json:"month"`
	Name        string `json:"name"`
	Revenue     int64  `json:"revenue"`
	Utilization int    `json:"utilization"`
	Issues      int    `json:"issues"`
}

// NewStatisticResponse maps a monthly statistic.
func NewStatisticResponse(s *domain.Statistic) StatisticResponse {
	return StatisticResponse{
		Month:       s.Month.Format("2006-01"),
		Name:        s.Month.Format("Jan"),
		Revenue:     s.Revenue,
		Utilization: s.Utilization,
		Issues:      s.Issues,
	}
}
