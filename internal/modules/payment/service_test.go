package payment

import (
	"context"
	"sync"
	"testing"
	"time"

	"pinjamin/internal/domain"
	"pinjamin/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

type MockPaymentRepo struct {
	mock.Mock
}

func (m *MockPaymentRepo) GetByTransactionID(ctx context.Context, txID string) (*domain.Payment, error) {
	args := m.Called(ctx, txID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepo) MarkPaid(ctx context.Context, txID, method, rawBody string, paidAt time.Time) (bool, error) {
	args := m.Called(ctx, txID, method, rawBody, paidAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepo) MarkFailed(ctx context.Context, txID, rawBody string) (bool, error) {
	args := m.Called(ctx, txID, rawBody)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepo) MarkCancelled(ctx context.Context, txID, rawBody string) (bool, error) {
	args := m.Called(ctx, txID, rawBody)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepo) MarkRefunded(ctx context.Context, txID, rawBody string, completedAt time.Time) (bool, *domain.Refund, error) {
	args := m.Called(ctx, txID, rawBody, completedAt)
	if args.Get(1) == nil {
		return args.Bool(0), nil, args.Error(2)
	}
	return args.Bool(0), args.Get(1).(*domain.Refund), args.Error(2)
}

type stubVerifier struct {
	ok bool
}

func (v stubVerifier) VerifySignature(orderID, statusCode, grossAmount, signatureKey string) bool {
	return v.ok
}

type captureSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (s *captureSink) Publish(ctx context.Context, e domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func notification(orderID, status string) Notification {
	return Notification{
		OrderID:           orderID,
		TransactionStatus: status,
		StatusCode:        "200",
		GrossAmount:       "505000.00",
		SignatureKey:      "aa",
		PaymentType:       "qris",
	}
}

func pendingPayment() *domain.Payment {
	return &domain.Payment{ID: 40, BookingID: 104, TransactionID: "BOOK-104", Total: 505000, Status: domain.PaymentPending}
}

func TestHandleNotification_Settlement(t *testing.T) {
	repo := new(MockPaymentRepo)
	sink := &captureSink{}
	svc := NewService(repo, stubVerifier{ok: true}, sink, nil)

	p := pendingPayment()
	paid := *p
	paid.Status = domain.PaymentPaid

	repo.On("GetByTransactionID", mock.Anything, "BOOK-104").Return(p, nil).Once()
	repo.On("MarkPaid", mock.Anything, "BOOK-104", "qris", `{"raw":true}`, mock.Anything).Return(true, nil)
	// reload for the event
	repo.On("GetByTransactionID", mock.Anything, "BOOK-104").Return(&paid, nil).Once()

	res, err := svc.HandleNotification(context.Background(), notification("BOOK-104", "settlement"), `{"raw":true}`)

	assert.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, domain.PaymentPaid, res.Status)
	assert.Len(t, sink.events, 1)
	assert.Equal(t, domain.EventPaymentSucceeded, sink.events[0].Type)
	assert.Equal(t, int64(104), sink.events[0].BookingID)
}

func TestHandleNotification_ReplayIsIdempotent(t *testing.T) {
	repo := new(MockPaymentRepo)
	sink := &captureSink{}
	svc := NewService(repo, stubVerifier{ok: true}, sink, nil)

	paid := pendingPayment()
	paid.Status = domain.PaymentPaid

	repo.On("GetByTransactionID", mock.Anything, "BOOK-104").Return(paid, nil)
	repo.On("MarkPaid", mock.Anything, "BOOK-104", "qris", mock.Anything, mock.Anything).Return(false, nil)

	res, err := svc.HandleNotification(context.Background(), notification("BOOK-104", "settlement"), "{}")

	assert.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Empty(t, sink.events, "replays must not re-emit events")
}

func TestHandleNotification_ForgedSignature(t *testing.T) {
	repo := new(MockPaymentRepo)
	sink := &captureSink{}
	svc := NewService(repo, stubVerifier{ok: false}, sink, nil)

	_, err := svc.HandleNotification(context.Background(), notification("BOOK-104", "settlement"), "{}")

	assert.ErrorIs(t, err, ErrInvalidSignature)
	repo.AssertNotCalled(t, "GetByTransactionID", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, sink.events)
}

func TestHandleNotification_UnknownTransaction(t *testing.T) {
	repo := new(MockPaymentRepo)
	svc := NewService(repo, stubVerifier{ok: true}, nil, nil)

	repo.On("GetByTransactionID", mock.Anything, "BOOK-999").Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.HandleNotification(context.Background(), notification("BOOK-999", "settlement"), "{}")
	assert.ErrorIs(t, err, ErrUnknownTransaction)
}

func TestHandleNotification_BackwardTransitionRejected(t *testing.T) {
	repo := new(MockPaymentRepo)
	sink := &captureSink{}
	svc := NewService(repo, stubVerifier{ok: true}, sink, nil)

	paid := pendingPayment()
	paid.Status = domain.PaymentPaid

	repo.On("GetByTransactionID", mock.Anything, "BOOK-104").Return(paid, nil)
	repo.On("MarkFailed", mock.Anything, "BOOK-104", mock.Anything).Return(false, repository.ErrBackwardTransition)

	_, err := svc.HandleNotification(context.Background(), notification("BOOK-104", "failure"), "{}")

	assert.ErrorIs(t, err, ErrBackwardTransition)
	assert.Empty(t, sink.events)
}

func TestHandleNotification_CaptureChallengeIsNoOp(t *testing.T) {
	repo := new(MockPaymentRepo)
	svc := NewService(repo, stubVerifier{ok: true}, nil, nil)

	repo.On("GetByTransactionID", mock.Anything, "BOOK-104").Return(pendingPayment(), nil)

	n := notification("BOOK-104", "capture")
	n.FraudStatus = "challenge"
	res, err := svc.HandleNotification(context.Background(), n, "{}")

	assert.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, domain.PaymentPending, res.Status)
	repo.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleNotification_PendingIsNoOp(t *testing.T) {
	repo := new(MockPaymentRepo)
	svc := NewService(repo, stubVerifier{ok: true}, nil, nil)

	repo.On("GetByTransactionID", mock.Anything, "BOOK-104").Return(pendingPayment(), nil)

	res, err := svc.HandleNotification(context.Background(), notification("BOOK-104", "pending"), "{}")

	assert.NoError(t, err)
	assert.False(t, res.Applied)
}

func TestHandleNotification_Expiry(t *testing.T) {
	repo := new(MockPaymentRepo)
	sink := &captureSink{}
	svc := NewService(repo, stubVerifier{ok: true}, sink, nil)

	p := pendingPayment()
	cancelled := *p
	cancelled.Status = domain.PaymentCancelled

	repo.On("GetByTransactionID", mock.Anything, "BOOK-104").Return(p, nil).Once()
	repo.On("MarkCancelled", mock.Anything, "BOOK-104", mock.Anything).Return(true, nil)
	repo.On("GetByTransactionID", mock.Anything, "BOOK-104").Return(&cancelled, nil).Once()

	res, err := svc.HandleNotification(context.Background(), notification("BOOK-104", "expire"), "{}")

	assert.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, domain.PaymentCancelled, res.Status)
	assert.Len(t, sink.events, 1)
	assert.Equal(t, domain.EventPaymentExpired, sink.events[0].Type)
}

func TestHandleNotification_RefundCompletion(t *testing.T) {
	repo := new(MockPaymentRepo)
	sink := &captureSink{}
	svc := NewService(repo, stubVerifier{ok: true}, sink, nil)

	p := pendingPayment()
	p.Status = domain.PaymentPaid
	refunded := *p
	refunded.Status = domain.PaymentRefunded
	refund := &domain.Refund{ID: 9, PaymentID: 40, Amount: 505000, Status: domain.RefundCompleted}

	repo.On("GetByTransactionID", mock.Anything, "BOOK-104").Return(p, nil).Once()
	repo.On("MarkRefunded", mock.Anything, "BOOK-104", mock.Anything, mock.Anything).Return(true, refund, nil)
	repo.On("GetByTransactionID", mock.Anything, "BOOK-104").Return(&refunded, nil).Once()

	res, err := svc.HandleNotification(context.Background(), notification("BOOK-104", "refund"), "{}")

	assert.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, domain.PaymentRefunded, res.Status)
	assert.Len(t, sink.events, 1)
	assert.Equal(t, domain.EventRefundCompleted, sink.events[0].Type)
	assert.Equal(t, int64(9), *sink.events[0].RefundID)
}

func TestHandleNotification_RefundWithoutInitiation(t *testing.T) {
	repo := new(MockPaymentRepo)
	svc := NewService(repo, stubVerifier{ok: true}, nil, nil)

	p := pendingPayment()
	p.Status = domain.PaymentPaid

	repo.On("GetByTransactionID", mock.Anything, "BOOK-104").Return(p, nil)
	repo.On("MarkRefunded", mock.Anything, "BOOK-104", mock.Anything, mock.Anything).
		Return(false, nil, repository.ErrRefundMissing)

	_, err := svc.HandleNotification(context.Background(), notification("BOOK-104", "refund"), "{}")
	assert.ErrorIs(t, err, ErrUnexpectedRefund)
}

func TestReconcile_SkipsSignatureGate(t *testing.T) {
	repo := new(MockPaymentRepo)
	sink := &captureSink{}
	// verifier would reject everything; Reconcile must not consult it
	svc := NewService(repo, stubVerifier{ok: false}, sink, nil)

	p := pendingPayment()
	paid := *p
	paid.Status = domain.PaymentPaid

	repo.On("GetByTransactionID", mock.Anything, "BOOK-104").Return(p, nil).Once()
	repo.On("MarkPaid", mock.Anything, "BOOK-104", "bank_transfer", mock.Anything, mock.Anything).Return(true, nil)
	repo.On("GetByTransactionID", mock.Anything, "BOOK-104").Return(&paid, nil).Once()

	res, err := svc.Reconcile(context.Background(), "BOOK-104", "settlement", "bank_transfer", "{}")

	assert.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Len(t, sink.events, 1)
}

func TestHandleNotification_UnrecognizedStatusIgnored(t *testing.T) {
	repo := new(MockPaymentRepo)
	svc := NewService(repo, stubVerifier{ok: true}, nil, nil)

	repo.On("GetByTransactionID", mock.Anything, "BOOK-104").Return(pendingPayment(), nil)

	res, err := svc.HandleNotification(context.Background(), notification("BOOK-104", "authorize"), "{}")

	assert.NoError(t, err)
	assert.False(t, res.Applied)
}
