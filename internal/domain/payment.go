package domain

import "time"

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
	PaymentRefunded  PaymentStatus = "refunded"
)

// CanTransition reports whether moving from s to "to" is a legal forward
// step. Paid never regresses, and Failed/Cancelled are dead ends.
func (s PaymentStatus) CanTransition(to PaymentStatus) bool {
	switch s {
	case PaymentPending:
		return to == PaymentPaid || to == PaymentFailed || to == PaymentCancelled
	case PaymentPaid:
		return to == PaymentRefunded
	default:
		return false
	}
}

// Payment is the monetary transaction tied 1:1 to an approved booking.
// All amounts are integral minor currency units.
type Payment struct {
	ID             int64         `json:"id"`
	BookingID      int64         `json:"booking_id" gorm:"uniqueIndex;not null"`
	TransactionID  string        `json:"transaction_id" gorm:"uniqueIndex;not null"`
	InvoiceNumber  string        `json:"invoice_number"`
	Amount         int64         `json:"amount"`
	Fee            int64         `json:"fee"`
	Total          int64         `json:"total"`
	Method         string        `json:"method,omitempty"`
	SnapURL        string        `json:"snap_url,omitempty" gorm:"type:text"`
	SnapToken      string        `json:"snap_token,omitempty" gorm:"type:text"`
	Status         PaymentStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	RefundAttempts int           `json:"refund_attempts,omitempty"`
	RawBody        string        `json:"-" gorm:"type:text"`
	PaidAt         *time.Time    `json:"paid_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`

	Refund *Refund `json:"refund,omitempty" gorm:"foreignKey:PaymentID"`
}
