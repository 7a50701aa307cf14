package domain

import "time"

type RefundStatus string

const (
	RefundProcessed RefundStatus = "processed"
	RefundCompleted RefundStatus = "completed"
	RefundRejected  RefundStatus = "rejected"
)

// Refund reverses a paid payment after its booking was rejected. Created
// only by the refund processor, completed only by gateway confirmation.
type Refund struct {
	ID              int64        `json:"id"`
	PaymentID       int64        `json:"payment_id" gorm:"uniqueIndex;not null"`
	Amount          int64        `json:"amount"`
	Reason          string       `json:"reason" gorm:"type:text"`
	GatewayRefundID string       `json:"gateway_refund_id"`
	Status          RefundStatus `json:"status" gorm:"type:varchar(20);default:'processed';index"`
	CompletedAt     *time.Time   `json:"completed_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}
