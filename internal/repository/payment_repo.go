package repository

import (
	"context"
	"time"

	"pinjamin/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

type paymentModel struct {
	ID             int64      `gorm:"column:id;primaryKey"`
	BookingID      int64      `gorm:"column:booking_id;uniqueIndex"`
	TransactionID  string     `gorm:"column:transaction_id;uniqueIndex"`
	InvoiceNumber  string     `gorm:"column:invoice_number"`
	Amount         int64      `gorm:"column:amount"`
	Fee            int64      `gorm:"column:fee"`
	Total          int64      `gorm:"column:total"`
	Method         *string    `gorm:"column:method"`
	SnapURL        *string    `gorm:"column:snap_url"`
	SnapToken      *string    `gorm:"column:snap_token"`
	Status         string     `gorm:"column:status;index"`
	RefundAttempts int        `gorm:"column:refund_attempts;default:0"`
	RawBody        *string    `gorm:"column:raw_body"`
	PaidAt         *time.Time `gorm:"column:paid_at"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
}

func (paymentModel) TableName() string { return "payments" }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toDomainPayment(m paymentModel) *domain.Payment {
	return &domain.Payment{
		ID:             m.ID,
		BookingID:      m.BookingID,
		TransactionID:  m.TransactionID,
		InvoiceNumber:  m.InvoiceNumber,
		Amount:         m.Amount,
		Fee:            m.Fee,
		Total:          m.Total,
		Method:         deref(m.Method),
		SnapURL:        deref(m.SnapURL),
		SnapToken:      deref(m.SnapToken),
		Status:         domain.PaymentStatus(m.Status),
		RefundAttempts: m.RefundAttempts,
		RawBody:        deref(m.RawBody),
		PaidAt:         m.PaidAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func toPaymentModel(p *domain.Payment) paymentModel {
	return paymentModel{
		ID:             p.ID,
		BookingID:      p.BookingID,
		TransactionID:  p.TransactionID,
		InvoiceNumber:  p.InvoiceNumber,
		Amount:         p.Amount,
		Fee:            p.Fee,
		Total:          p.Total,
		Method:         optional(p.Method),
		SnapURL:        optional(p.SnapURL),
		SnapToken:      optional(p.SnapToken),
		Status:         string(p.Status),
		RefundAttempts: p.RefundAttempts,
		RawBody:        optional(p.RawBody),
		PaidAt:         p.PaidAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func (r *PaymentRepository) GetByTransactionID(ctx context.Context, txID string) (*domain.Payment, error) {
	var m paymentModel
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", txID).First(&m).Error; err != nil {
		return nil, err
	}
	return toDomainPayment(m), nil
}

func (r *PaymentRepository) GetByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	var m paymentModel
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&m).Error; err != nil {
		return nil, err
	}
	return toDomainPayment(m), nil
}

func (r *PaymentRepository) SaveCheckout(ctx context.Context, txID, snapURL, snapToken string) error {
	return r.db.WithContext(ctx).Model(&paymentModel{}).Where("transaction_id = ?", txID).
		Updates(map[string]interface{}{"snap_url": snapURL, "snap_token": snapToken}).Error
}

// MarkPaid settles the payment identified by txID. The row lock serializes
// concurrent deliveries for the same transaction id. Returns changed=false
// for duplicate success notifications (idempotent no-op) and
// ErrBackwardTransition when the payment already reached a different
// terminal state.
func (r *PaymentRepository) MarkPaid(ctx context.Context, txID, method, rawBody string, paidAt time.Time) (bool, error) {
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m paymentModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("transaction_id = ?", txID).First(&m).Error; err != nil {
			return err
		}
		cur := domain.PaymentStatus(m.Status)
		if cur == domain.PaymentPaid || cur == domain.PaymentRefunded {
			return nil
		}
		if !cur.CanTransition(domain.PaymentPaid) {
			return ErrBackwardTransition
		}
		res := tx.Model(&paymentModel{}).Where("transaction_id = ?", txID).Updates(map[string]interface{}{
			"status":   string(domain.PaymentPaid),
			"method":   method,
			"raw_body": rawBody,
			"paid_at":  paidAt,
		})
		if res.Error != nil {
			return res.Error
		}
		changed = true
		return nil
	})
	return changed, err
}

// markTerminal covers the failed/cancelled branches, which share shape:
// only reachable from pending, idempotent when already there.
func (r *PaymentRepository) markTerminal(ctx context.Context, txID, rawBody string, to domain.PaymentStatus) (bool, error) {
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m paymentModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("transaction_id = ?", txID).First(&m).Error; err != nil {
			return err
		}
		cur := domain.PaymentStatus(m.Status)
		if cur == to {
			return nil
		}
		if !cur.CanTransition(to) {
			return ErrBackwardTransition
		}
		if err := tx.Model(&paymentModel{}).Where("transaction_id = ?", txID).Updates(map[string]interface{}{
			"status":   string(to),
			"raw_body": rawBody,
		}).Error; err != nil {
			return err
		}
		changed = true
		return nil
	})
	return changed, err
}

func (r *PaymentRepository) MarkFailed(ctx context.Context, txID, rawBody string) (bool, error) {
	return r.markTerminal(ctx, txID, rawBody, domain.PaymentFailed)
}

func (r *PaymentRepository) MarkCancelled(ctx context.Context, txID, rawBody string) (bool, error) {
	return r.markTerminal(ctx, txID, rawBody, domain.PaymentCancelled)
}

// MarkRefunded completes the refund confirmation path: payment moves
// paid -> refunded and the initiated refund row moves to completed, in one
// transaction. A confirmation for a payment with no initiated refund is
// anomalous (refunds are only created by the refund processor).
func (r *PaymentRepository) MarkRefunded(ctx context.Context, txID, rawBody string, completedAt time.Time) (bool, *domain.Refund, error) {
	changed := false
	var refund *domain.Refund
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m paymentModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("transaction_id = ?", txID).First(&m).Error; err != nil {
			return err
		}
		cur := domain.PaymentStatus(m.Status)
		if cur == domain.PaymentRefunded {
			return nil
		}
		if !cur.CanTransition(domain.PaymentRefunded) {
			return ErrBackwardTransition
		}

		var rm refundModel
		if err := tx.Where("payment_id = ?", m.ID).First(&rm).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrRefundMissing
			}
			return err
		}

		if err := tx.Model(&paymentModel{}).Where("transaction_id = ?", txID).Updates(map[string]interface{}{
			"status":   string(domain.PaymentRefunded),
			"raw_body": rawBody,
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(&refundModel{}).Where("id = ?", rm.ID).Updates(map[string]interface{}{
			"status":       string(domain.RefundCompleted),
			"completed_at": completedAt,
		}).Error; err != nil {
			return err
		}

		var fresh refundModel
		if err := tx.First(&fresh, rm.ID).Error; err != nil {
			return err
		}
		refund = toDomainRefund(fresh)
		changed = true
		return nil
	})
	return changed, refund, err
}

// ListStalePending returns pending payments created before cutoff, for the
// worker's gateway status sweep.
func (r *PaymentRepository) ListStalePending(ctx context.Context, cutoff time.Time) ([]domain.Payment, error) {
	var ms []paymentModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", string(domain.PaymentPending), cutoff).
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Payment, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainPayment(m))
	}
	return out, nil
}

// ListPaidOnRejectedBookings finds settled payments whose booking ended up
// rejected but for which no refund was initiated (a failed synchronous
// refund call). The worker retries these; payments that already exhausted
// maxAttempts are excluded and stay parked for the operator.
func (r *PaymentRepository) ListPaidOnRejectedBookings(ctx context.Context, maxAttempts int) ([]domain.Payment, error) {
	var ms []paymentModel
	q := `
SELECT p.*
FROM payments p
JOIN bookings b ON b.id = p.booking_id
LEFT JOIN refunds r ON r.payment_id = p.id
WHERE p.status = ? AND b.status = ? AND r.id IS NULL AND p.refund_attempts < ?
`
	err := r.db.WithContext(ctx).Raw(q, string(domain.PaymentPaid), string(domain.BookingRejected), maxAttempts).Scan(&ms).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Payment, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainPayment(m))
	}
	return out, nil
}

// IncrementRefundAttempts bumps the failed-initiation counter and returns
// the new value, so the caller can tell when the cap was just reached.
func (r *PaymentRepository) IncrementRefundAttempts(ctx context.Context, paymentID int64) (int, error) {
	attempts := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m paymentModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, paymentID).Error; err != nil {
			return err
		}
		attempts = m.RefundAttempts + 1
		return tx.Model(&paymentModel{}).Where("id = ?", paymentID).
			Update("refund_attempts", attempts).Error
	})
	return attempts, err
}
