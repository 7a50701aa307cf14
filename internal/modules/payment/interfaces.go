package payment

import (
	"context"
	"time"

	"pinjamin/internal/domain"
)

type paymentRepo interface {
	GetByTransactionID(ctx context.Context, txID string) (*domain.Payment, error)
	MarkPaid(ctx context.Context, txID, method, rawBody string, paidAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, txID, rawBody string) (bool, error)
	MarkCancelled(ctx context.Context, txID, rawBody string) (bool, error)
	MarkRefunded(ctx context.Context, txID, rawBody string, completedAt time.Time) (bool, *domain.Refund, error)
}

// signatureVerifier is the gateway's authenticity contract. The comparison
// must be constant-time.
type signatureVerifier interface {
	VerifySignature(orderID, statusCode, grossAmount, signatureKey string) bool
}

type EventSink interface {
	Publish(ctx context.Context, e domain.Event)
}
