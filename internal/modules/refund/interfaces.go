package refund

import (
	"context"

	"pinjamin/internal/domain"
	"pinjamin/internal/pkg/midtrans"
)

type refundRepo interface {
	Create(ctx context.Context, f *domain.Refund) error
	GetByPaymentID(ctx context.Context, paymentID int64) (*domain.Refund, error)
}

type refundGateway interface {
	Refund(ctx context.Context, orderID string, amount int64, reason string) (*midtrans.RefundResult, error)
}
