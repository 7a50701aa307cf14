package refund

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pinjamin/internal/domain"

	"gorm.io/gorm"
)

// Processor initiates refunds for paid bookings that were rejected after
// approval. A refund is created only once the gateway call succeeded, with
// status processed; the reconciler completes it on the gateway's
// confirmation notification.
type Processor struct {
	refunds refundRepo
	gateway refundGateway
	timeout time.Duration
	loggerf func(format string, args ...interface{})
}

func NewProcessor(refunds refundRepo, gateway refundGateway, timeout time.Duration, loggerf func(format string, args ...interface{})) *Processor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Processor{refunds: refunds, gateway: gateway, timeout: timeout, loggerf: loggerf}
}

// Initiate refunds the full total by default. Preconditions: the payment is
// paid and the booking is rejected or being rejected in the same logical
// operation. Calling again for the same payment returns the existing refund.
func (p *Processor) Initiate(ctx context.Context, payment *domain.Payment, b *domain.Booking, reason string) (*domain.Refund, error) {
	if payment.Status != domain.PaymentPaid {
		return nil, ErrPaymentNotPaid
	}
	if b.Status != domain.BookingRejected && !b.Status.CanTransition(domain.BookingRejected) {
		return nil, ErrBookingNotRejected
	}

	existing, err := p.refunds.GetByPaymentID(ctx, payment.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	gctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	res, err := p.gateway.Refund(gctx, payment.TransactionID, payment.Total, reason)
	if err != nil {
		// possibly applied on the gateway side; the confirmation
		// notification or the worker retry settles it
		return nil, fmt.Errorf("%w: %v", ErrRefundInitiation, err)
	}

	f := &domain.Refund{
		PaymentID:       payment.ID,
		Amount:          payment.Total,
		Reason:          reason,
		GatewayRefundID: res.RefundKey,
		Status:          domain.RefundProcessed,
	}
	if err := p.refunds.Create(ctx, f); err != nil {
		return nil, err
	}
	p.loggerf("level=info msg=refund initiated payment_id=%d order_id=%s amount=%d", payment.ID, payment.TransactionID, f.Amount)
	return f, nil
}
