package booking

import (
	"context"
	"time"

	"pinjamin/internal/domain"
	"pinjamin/internal/pkg/midtrans"
)

type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	FindBlocking(ctx context.Context, roomID int64, startDate, endDate time.Time) ([]domain.Booking, error)
	ApproveWithPayment(ctx context.Context, bookingID int64, p *domain.Payment) (*domain.Booking, error)
	Reject(ctx context.Context, bookingID int64, reason string) (*domain.Booking, error)
	Complete(ctx context.Context, bookingID int64) (*domain.Booking, error)
}

type RoomRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Room, error)
}

type PaymentReader interface {
	GetByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error)
	SaveCheckout(ctx context.Context, txID, snapURL, snapToken string) error
}

// CheckoutGateway opens the payment session when a booking is approved.
type CheckoutGateway interface {
	CreateCheckout(ctx context.Context, orderID string, grossAmount int64, itemName string) (*midtrans.Checkout, error)
}

// RefundInitiator schedules the reversal of a paid payment whose booking
// is being rejected.
type RefundInitiator interface {
	Initiate(ctx context.Context, p *domain.Payment, b *domain.Booking, reason string) (*domain.Refund, error)
}

// EventSink receives domain events for downstream delivery. Implementations
// must never block the caller on delivery.
type EventSink interface {
	Publish(ctx context.Context, e domain.Event)
}
