package domain

import "time"

// TransactionType classifies ledger entries.
type TransactionType string

const (
	TransactionTypePayment TransactionType = "Payment"
	TransactionTypeTopup   TransactionType = "Topup"
	TransactionTypeRefund  TransactionType = "Refund"
)

// Transaction is an append-only wallet ledger entry. Amount is negative for debits.
type Transaction struct {
	ID          string
	UserID      string
	Amount      int64
	Type        TransactionType
	Description string
	CreatedAt   time.Time
}
