package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pinjamin/internal/domain"
	"pinjamin/internal/repository"

	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// slotTakenReason is the system-generated reason used when an approval
// loses the race for an overlapping slot.
const slotTakenReason = "slot is no longer available: an overlapping booking was approved first"

type Service struct {
	bookings BookingRepository
	rooms    RoomRepository
	payments PaymentReader
	checker  *AvailabilityChecker
	gateway  CheckoutGateway
	refunds  RefundInitiator
	notifs   EventSink
	loc      *time.Location
	fee      int64
	loggerf  func(format string, args ...interface{})
}

func NewService(
	bookings BookingRepository,
	rooms RoomRepository,
	payments PaymentReader,
	gateway CheckoutGateway,
	refunds RefundInitiator,
	notifs EventSink,
	loc *time.Location,
	gatewayFee int64,
	loggerf func(format string, args ...interface{}),
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{
		bookings: bookings,
		rooms:    rooms,
		payments: payments,
		checker:  NewAvailabilityChecker(bookings, loc),
		gateway:  gateway,
		refunds:  refunds,
		notifs:   notifs,
		loc:      loc,
		fee:      gatewayFee,
		loggerf:  loggerf,
	}
}

// Create validates the candidate range, checks availability and persists the
// booking in processing. Processing does not hold the slot yet; the
// conflicting-approval race is settled inside Approve.
func (s *Service) Create(ctx context.Context, actorID int64, req CreateBookingRequest) (*domain.Booking, error) {
	startDate, endDate, err := parseDates(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	rng, err := domain.NewTimeRangeFromParts(startDate, endDate, req.StartTime, req.EndTime, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	room, err := s.rooms.GetByID(ctx, req.RoomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !room.IsActive {
		return nil, fmt.Errorf("%w: room is not rentable", ErrValidation)
	}

	conflicts, err := s.checker.FindConflicts(ctx, req.RoomID, rng)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, &ConflictError{Conflicts: conflicts}
	}

	b := &domain.Booking{
		RoomID:       req.RoomID,
		UserID:       &actorID,
		ActivityName: req.ActivityName,
		StartDate:    startDate,
		EndDate:      endDate,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		DocumentURL:  req.DocumentURL,
		Status:       domain.BookingProcessing,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Approve flips a processing booking to approved and creates its pending
// payment plus gateway checkout session. The availability check re-runs
// inside the approval transaction; the loser of a concurrent race is
// auto-rejected with a system reason.
func (s *Service) Approve(ctx context.Context, bookingID, actorID int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if b.Status != domain.BookingProcessing {
		return nil, ErrAlreadyDecided
	}

	room, err := s.rooms.GetByID(ctx, b.RoomID)
	if err != nil {
		return nil, err
	}
	amount := room.RentalPrice * rentalDays(b.StartDate, b.EndDate)
	p := &domain.Payment{
		TransactionID: transactionID(b.ID),
		InvoiceNumber: invoiceNumber(time.Now().In(s.loc), b.ID),
		Amount:        amount,
		Fee:           s.fee,
		Total:         amount + s.fee,
		Status:        domain.PaymentPending,
	}

	updated, err := s.bookings.ApproveWithPayment(ctx, b.ID, p)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSlotTaken):
			if _, rerr := s.bookings.Reject(ctx, b.ID, slotTakenReason); rerr != nil {
				s.loggerf("level=error msg=failed to auto-reject raced booking booking_id=%d err=%v", b.ID, rerr)
			} else {
				s.publish(ctx, domain.EventBookingRejected, b, slotTakenReason)
			}
			return nil, ErrSlotNoLongerAvailable
		case errors.Is(err, repository.ErrNotTransitionable):
			return nil, ErrAlreadyDecided
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrNotFound
		}
		return nil, err
	}

	// Checkout creation may time out while still applying on the gateway
	// side; the order id is the idempotency key, so the pending sweep or a
	// late notification reconciles it instead of a blind retry here.
	co, err := s.gateway.CreateCheckout(ctx, p.TransactionID, p.Total, b.ActivityName)
	if err != nil {
		s.loggerf("level=warn msg=checkout creation failed, awaiting reconciliation booking_id=%d order_id=%s err=%v", b.ID, p.TransactionID, err)
	} else {
		p.SnapURL = co.RedirectURL
		p.SnapToken = co.Token
		if err := s.payments.SaveCheckout(ctx, p.TransactionID, co.RedirectURL, co.Token); err != nil {
			s.loggerf("level=error msg=failed to store checkout session order_id=%s err=%v", p.TransactionID, err)
		}
	}

	s.publish(ctx, domain.EventBookingApproved, updated, "")
	updated.Payment = p
	return updated, nil
}

// Reject moves a processing or approved booking to rejected. Reason is
// mandatory. Rejecting an approved, paid booking schedules a refund first;
// a failed refund initiation is logged and retried by the worker, never
// blocking the rejection itself.
func (s *Service) Reject(ctx context.Context, bookingID, actorID int64, reason string) (*domain.Booking, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrMissingReason
	}
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !b.Status.CanTransition(domain.BookingRejected) {
		return nil, ErrInvalidTransition
	}

	if b.Status == domain.BookingApproved {
		p, err := s.payments.GetByBookingID(ctx, b.ID)
		if err == nil && p.Status == domain.PaymentPaid {
			if _, rerr := s.refunds.Initiate(ctx, p, b, reason); rerr != nil {
				s.loggerf("level=error msg=refund initiation failed, queued for retry booking_id=%d payment_id=%d err=%v", b.ID, p.ID, rerr)
			}
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	updated, err := s.bookings.Reject(ctx, b.ID, reason)
	if err != nil {
		if errors.Is(err, repository.ErrNotTransitionable) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	s.publish(ctx, domain.EventBookingRejected, updated, reason)
	return updated, nil
}

// Complete finishes an approved booking once its range has elapsed.
// System-invoked (worker), never user-invoked.
func (s *Service) Complete(ctx context.Context, bookingID int64, now time.Time) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !b.Status.CanTransition(domain.BookingCompleted) {
		return nil, ErrInvalidTransition
	}
	rng, err := b.Range(s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !rng.Elapsed(now) {
		return nil, ErrNotElapsed
	}
	updated, err := s.bookings.Complete(ctx, b.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotTransitionable) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	return updated, nil
}

// GetByID returns the booking. Non-admin actors may only read their own.
func (s *Service) GetByID(ctx context.Context, bookingID, actorID int64, admin bool) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !admin && b.UserID != nil && *b.UserID != actorID {
		return nil, ErrForbidden
	}
	return b, nil
}

func (s *Service) GetAvailability(ctx context.Context, req AvailabilityRequest) (*AvailabilityResponse, error) {
	startDate, endDate, err := parseDates(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	rng, err := domain.NewTimeRangeFromParts(startDate, endDate, req.StartTime, req.EndTime, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	conflicts, err := s.checker.FindConflicts(ctx, req.RoomID, rng)
	if err != nil {
		return nil, err
	}
	return &AvailabilityResponse{Available: len(conflicts) == 0, Conflicts: conflicts}, nil
}

func (s *Service) publish(ctx context.Context, t domain.EventType, b *domain.Booking, reason string) {
	if s.notifs == nil {
		return
	}
	s.notifs.Publish(ctx, domain.Event{
		Type:       t,
		BookingID:  b.ID,
		UserID:     b.UserID,
		Reason:     reason,
		OccurredAt: time.Now(),
	})
}

func parseDates(start, end string) (time.Time, time.Time, error) {
	startDate, err := time.Parse(dateLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: bad start_date %q", ErrValidation, start)
	}
	endDate, err := time.Parse(dateLayout, end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: bad end_date %q", ErrValidation, end)
	}
	if endDate.Before(startDate) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date before start_date", ErrValidation)
	}
	return startDate, endDate, nil
}

// rentalDays counts calendar days inclusively: a same-day booking is one day.
func rentalDays(startDate, endDate time.Time) int64 {
	return int64(endDate.Sub(startDate).Hours()/24) + 1
}

func transactionID(bookingID int64) string {
	return fmt.Sprintf("BOOK-%d", bookingID)
}

func invoiceNumber(now time.Time, bookingID int64) string {
	return fmt.Sprintf("INV/%s/%d", now.Format("20060102"), bookingID)
}
