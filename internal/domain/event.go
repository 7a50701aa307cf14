package domain

import "time"

type EventType string

const (
	EventBookingApproved  EventType = "booking_approved"
	EventBookingRejected  EventType = "booking_rejected"
	EventPaymentSucceeded EventType = "payment_succeeded"
	EventPaymentFailed    EventType = "payment_failed"
	EventPaymentExpired   EventType = "payment_expired"
	EventRefundCompleted  EventType = "refund_completed"
	EventRefundEscalated  EventType = "refund_escalated"
)

// Event is handed to the notification sink for downstream delivery
// (email, in-app). The core emits and never blocks on delivery.
type Event struct {
	Type       EventType `json:"type"`
	BookingID  int64     `json:"booking_id"`
	UserID     *int64    `json:"user_id,omitempty"`
	PaymentID  *int64    `json:"payment_id,omitempty"`
	RefundID   *int64    `json:"refund_id,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
