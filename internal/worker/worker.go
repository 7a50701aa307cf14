package worker

import (
	"context"
	"log"
	"time"

	"pinjamin/internal/domain"
	"pinjamin/internal/modules/payment"
	"pinjamin/internal/pkg/midtrans"
)

type bookingService interface {
	Complete(ctx context.Context, bookingID int64, now time.Time) (*domain.Booking, error)
}

type bookingRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListApprovedEndingBefore(ctx context.Context, day time.Time) ([]domain.Booking, error)
}

type paymentRepo interface {
	ListStalePending(ctx context.Context, cutoff time.Time) ([]domain.Payment, error)
	ListPaidOnRejectedBookings(ctx context.Context, maxAttempts int) ([]domain.Payment, error)
	IncrementRefundAttempts(ctx context.Context, paymentID int64) (int, error)
}

type reconciler interface {
	Reconcile(ctx context.Context, orderID, transactionStatus, paymentType, rawBody string) (*payment.Result, error)
}

type statusGateway interface {
	GetStatus(ctx context.Context, orderID string) (*midtrans.TransactionStatus, error)
}

type refundInitiator interface {
	Initiate(ctx context.Context, p *domain.Payment, b *domain.Booking, reason string) (*domain.Refund, error)
}

type eventSink interface {
	Publish(ctx context.Context, e domain.Event)
}

// Worker runs the system-driven parts of the lifecycle on a fixed interval:
// completing elapsed bookings, reconciling pending payments whose
// notification never arrived, and retrying failed refund initiations.
type Worker struct {
	bookings          bookingRepo
	bookingSvc        bookingService
	payments          paymentRepo
	reconciler        reconciler
	gateway           statusGateway
	refunds           refundInitiator
	notifs            eventSink
	interval          time.Duration
	pendingMaxAge     time.Duration
	refundMaxAttempts int
	loc               *time.Location
}

func New(
	bookings bookingRepo,
	bookingSvc bookingService,
	payments paymentRepo,
	rec reconciler,
	gateway statusGateway,
	refunds refundInitiator,
	notifs eventSink,
	interval, pendingMaxAge time.Duration,
	refundMaxAttempts int,
	loc *time.Location,
) *Worker {
	if loc == nil {
		loc = time.UTC
	}
	if refundMaxAttempts <= 0 {
		refundMaxAttempts = 5
	}
	return &Worker{
		bookings:          bookings,
		bookingSvc:        bookingSvc,
		payments:          payments,
		reconciler:        rec,
		gateway:           gateway,
		refunds:           refunds,
		notifs:            notifs,
		interval:          interval,
		pendingMaxAge:     pendingMaxAge,
		refundMaxAttempts: refundMaxAttempts,
		loc:               loc,
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.Println("lifecycle worker started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.completeElapsed(ctx)
			w.sweepPending(ctx)
			w.retryRefunds(ctx)
		}
	}
}

// completeElapsed finishes approved bookings whose range lies in the past.
func (w *Worker) completeElapsed(ctx context.Context) {
	now := time.Now().In(w.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	rows, err := w.bookings.ListApprovedEndingBefore(ctx, today)
	if err != nil {
		log.Printf("worker_error job=complete err=%v", err)
		return
	}
	for _, b := range rows {
		rng, err := b.Range(w.loc)
		if err != nil || !rng.Elapsed(now) {
			continue
		}
		if _, err := w.bookingSvc.Complete(ctx, b.ID, now); err != nil {
			log.Printf("worker_error job=complete booking_id=%d err=%v", b.ID, err)
			continue
		}
		log.Printf("worker job=complete booking_id=%d", b.ID)
	}
}

// sweepPending polls the gateway for payments stuck in pending past the
// threshold. The gateway's answer is the source of truth; it flows through
// the same forward-only mapping as a webhook.
func (w *Worker) sweepPending(ctx context.Context) {
	cutoff := time.Now().Add(-w.pendingMaxAge)
	rows, err := w.payments.ListStalePending(ctx, cutoff)
	if err != nil {
		log.Printf("worker_error job=sweep err=%v", err)
		return
	}
	for _, p := range rows {
		st, err := w.gateway.GetStatus(ctx, p.TransactionID)
		if err != nil {
			log.Printf("worker_error job=sweep order_id=%s err=%v", p.TransactionID, err)
			continue
		}
		res, err := w.reconciler.Reconcile(ctx, st.OrderID, st.TransactionStatus, st.PaymentType, "")
		if err != nil {
			log.Printf("worker_error job=sweep order_id=%s status=%s err=%v", st.OrderID, st.TransactionStatus, err)
			continue
		}
		if res.Applied {
			log.Printf("worker job=sweep order_id=%s resolved=%s", st.OrderID, res.Status)
		}
	}
}

// retryRefunds re-attempts refund initiation for paid payments whose
// booking was rejected but whose synchronous gateway call failed. Each
// payment gets at most refundMaxAttempts tries; hitting the cap raises an
// operator escalation and parks the payment out of the retry queue.
func (w *Worker) retryRefunds(ctx context.Context) {
	rows, err := w.payments.ListPaidOnRejectedBookings(ctx, w.refundMaxAttempts)
	if err != nil {
		log.Printf("worker_error job=refund_retry err=%v", err)
		return
	}
	for _, p := range rows {
		b, err := w.bookings.GetByID(ctx, p.BookingID)
		if err != nil {
			log.Printf("worker_error job=refund_retry booking_id=%d err=%v", p.BookingID, err)
			continue
		}
		if _, err := w.refunds.Initiate(ctx, &p, b, b.RejectionReason); err != nil {
			attempts, ierr := w.payments.IncrementRefundAttempts(ctx, p.ID)
			if ierr != nil {
				log.Printf("worker_error job=refund_retry payment_id=%d err=%v", p.ID, ierr)
				continue
			}
			if attempts >= w.refundMaxAttempts {
				w.escalate(ctx, p, b, attempts, err)
				continue
			}
			log.Printf("worker_error job=refund_retry payment_id=%d attempt=%d err=%v", p.ID, attempts, err)
			continue
		}
		log.Printf("worker job=refund_retry payment_id=%d initiated", p.ID)
	}
}

// escalate hands a permanently failing refund to the operator queue: an
// alert log line plus a domain event for the delivery pipeline.
func (w *Worker) escalate(ctx context.Context, p domain.Payment, b *domain.Booking, attempts int, cause error) {
	log.Printf("worker_alert job=refund_retry payment_id=%d booking_id=%d attempts=%d needs-operator err=%v",
		p.ID, p.BookingID, attempts, cause)
	if w.notifs == nil {
		return
	}
	w.notifs.Publish(ctx, domain.Event{
		Type:       domain.EventRefundEscalated,
		BookingID:  p.BookingID,
		UserID:     b.UserID,
		PaymentID:  &p.ID,
		Reason:     cause.Error(),
		OccurredAt: time.Now(),
	})
}
