package repository

import (
	"context"
	"time"

	"pinjamin/internal/domain"

	"gorm.io/gorm"
)

type RefundRepository struct {
	db *gorm.DB
}

func NewRefundRepository(db *gorm.DB) *RefundRepository {
	return &RefundRepository{db: db}
}

type refundModel struct {
	ID              int64      `gorm:"column:id;primaryKey"`
	PaymentID       int64      `gorm:"column:payment_id;uniqueIndex"`
	Amount          int64      `gorm:"column:amount"`
	Reason          string     `gorm:"column:reason"`
	GatewayRefundID *string    `gorm:"column:gateway_refund_id"`
	Status          string     `gorm:"column:status;index"`
	CompletedAt     *time.Time `gorm:"column:completed_at"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (refundModel) TableName() string { return "refunds" }

func toDomainRefund(m refundModel) *domain.Refund {
	return &domain.Refund{
		ID:              m.ID,
		PaymentID:       m.PaymentID,
		Amount:          m.Amount,
		Reason:          m.Reason,
		GatewayRefundID: deref(m.GatewayRefundID),
		Status:          domain.RefundStatus(m.Status),
		CompletedAt:     m.CompletedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func toRefundModel(r *domain.Refund) refundModel {
	return refundModel{
		ID:              r.ID,
		PaymentID:       r.PaymentID,
		Amount:          r.Amount,
		Reason:          r.Reason,
		GatewayRefundID: optional(r.GatewayRefundID),
		Status:          string(r.Status),
		CompletedAt:     r.CompletedAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func (r *RefundRepository) Create(ctx context.Context, f *domain.Refund) error {
	m := toRefundModel(f)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	*f = *toDomainRefund(m)
	return nil
}

func (r *RefundRepository) GetByPaymentID(ctx context.Context, paymentID int64) (*domain.Refund, error) {
	var m refundModel
	if err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&m).Error; err != nil {
		return nil, err
	}
	return toDomainRefund(m), nil
}
