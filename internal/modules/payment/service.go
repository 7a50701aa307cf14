package payment

import (
	"context"
	"errors"
	"time"

	"pinjamin/internal/domain"
	"pinjamin/internal/repository"

	"gorm.io/gorm"
)

// Result reports what a notification did. Applied is false for idempotent
// duplicate deliveries and pending no-ops.
type Result struct {
	Applied bool
	Status  domain.PaymentStatus
}

// Service is the reconciler for asynchronous gateway notifications:
// signature gate, idempotency/ordering gate, forward-only status mapping,
// then event propagation. Steps after the signature gate run atomically per
// transaction id behind the repository's row lock.
type Service struct {
	payments paymentRepo
	verifier signatureVerifier
	notifs   EventSink
	loggerf  func(format string, args ...interface{})
}

func NewService(payments paymentRepo, verifier signatureVerifier, notifs EventSink, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{payments: payments, verifier: verifier, notifs: notifs, loggerf: loggerf}
}

func (s *Service) HandleNotification(ctx context.Context, n Notification, rawBody string) (*Result, error) {
	if !s.verifier.VerifySignature(n.OrderID, n.StatusCode, n.GrossAmount, n.SignatureKey) {
		s.loggerf("level=warn msg=webhook signature mismatch order_id=%s merchant_id=%s", n.OrderID, n.MerchantID)
		return nil, ErrInvalidSignature
	}

	return s.route(ctx, n, rawBody)
}

// Reconcile applies an authoritative status fetched from the gateway's
// status API. The signature gate does not apply; the outbound call itself
// authenticates the source.
func (s *Service) Reconcile(ctx context.Context, orderID, transactionStatus, paymentType, rawBody string) (*Result, error) {
	n := Notification{
		OrderID:           orderID,
		TransactionStatus: transactionStatus,
		PaymentType:       paymentType,
	}
	return s.route(ctx, n, rawBody)
}

func (s *Service) route(ctx context.Context, n Notification, rawBody string) (*Result, error) {
	// Payments are only ever created by approval; a notification must find
	// its payment or it is anomalous.
	p, err := s.payments.GetByTransactionID(ctx, n.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.loggerf("level=warn msg=notification for unknown transaction order_id=%s status=%s", n.OrderID, n.TransactionStatus)
			return nil, ErrUnknownTransaction
		}
		return nil, err
	}

	switch n.TransactionStatus {
	case "capture", "settlement":
		if n.TransactionStatus == "capture" && n.FraudStatus == "challenge" {
			// not settled yet; a follow-up notification decides
			return &Result{Applied: false, Status: p.Status}, nil
		}
		return s.apply(ctx, n, domain.PaymentPaid, func() (bool, error) {
			return s.payments.MarkPaid(ctx, n.OrderID, n.PaymentType, rawBody, time.Now().UTC())
		})

	case "deny", "failure":
		return s.apply(ctx, n, domain.PaymentFailed, func() (bool, error) {
			return s.payments.MarkFailed(ctx, n.OrderID, rawBody)
		})

	case "cancel", "expire":
		return s.apply(ctx, n, domain.PaymentCancelled, func() (bool, error) {
			return s.payments.MarkCancelled(ctx, n.OrderID, rawBody)
		})

	case "pending":
		// A pending after settlement would be a regression; never applied.
		if p.Status != domain.PaymentPending {
			s.loggerf("level=warn msg=anomalous pending notification ignored order_id=%s current=%s", n.OrderID, p.Status)
		}
		return &Result{Applied: false, Status: p.Status}, nil

	case "refund", "partial_refund":
		return s.applyRefund(ctx, n, rawBody)

	default:
		s.loggerf("level=warn msg=unrecognized transaction status ignored order_id=%s status=%s", n.OrderID, n.TransactionStatus)
		return &Result{Applied: false, Status: p.Status}, nil
	}
}

func (s *Service) apply(ctx context.Context, n Notification, to domain.PaymentStatus, mark func() (bool, error)) (*Result, error) {
	changed, err := mark()
	if err != nil {
		if errors.Is(err, repository.ErrBackwardTransition) {
			s.loggerf("level=warn msg=backward transition attempt order_id=%s target=%s", n.OrderID, to)
			return nil, ErrBackwardTransition
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownTransaction
		}
		return nil, err
	}
	if changed {
		s.emit(ctx, n, eventFor(to), nil)
	}
	return &Result{Applied: changed, Status: to}, nil
}

func (s *Service) applyRefund(ctx context.Context, n Notification, rawBody string) (*Result, error) {
	changed, refund, err := s.payments.MarkRefunded(ctx, n.OrderID, rawBody, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRefundMissing):
			s.loggerf("level=warn msg=refund confirmation without initiated refund order_id=%s", n.OrderID)
			return nil, ErrUnexpectedRefund
		case errors.Is(err, repository.ErrBackwardTransition):
			s.loggerf("level=warn msg=refund confirmation for unsettled payment order_id=%s", n.OrderID)
			return nil, ErrBackwardTransition
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrUnknownTransaction
		}
		return nil, err
	}
	if changed {
		s.emit(ctx, n, domain.EventRefundCompleted, refund)
	}
	return &Result{Applied: changed, Status: domain.PaymentRefunded}, nil
}

func (s *Service) emit(ctx context.Context, n Notification, t domain.EventType, refund *domain.Refund) {
	if s.notifs == nil {
		return
	}
	p, err := s.payments.GetByTransactionID(ctx, n.OrderID)
	if err != nil {
		s.loggerf("level=error msg=failed to load payment for event order_id=%s err=%v", n.OrderID, err)
		return
	}
	e := domain.Event{
		Type:       t,
		BookingID:  p.BookingID,
		PaymentID:  &p.ID,
		OccurredAt: time.Now(),
	}
	if refund != nil {
		e.RefundID = &refund.ID
	}
	s.notifs.Publish(ctx, e)
}

func eventFor(to domain.PaymentStatus) domain.EventType {
	switch to {
	case domain.PaymentPaid:
		return domain.EventPaymentSucceeded
	case domain.PaymentCancelled:
		return domain.EventPaymentExpired
	default:
		return domain.EventPaymentFailed
	}
}
