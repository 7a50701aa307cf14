package refund

import (
	"context"
	"errors"
	"testing"
	"time"

	"pinjamin/internal/domain"
	"pinjamin/internal/pkg/midtrans"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

type MockRefundRepo struct {
	mock.Mock
}

func (m *MockRefundRepo) Create(ctx context.Context, f *domain.Refund) error {
	args := m.Called(ctx, f)
	if f != nil {
		f.ID = 9
	}
	return args.Error(0)
}

func (m *MockRefundRepo) GetByPaymentID(ctx context.Context, paymentID int64) (*domain.Refund, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Refund), args.Error(1)
}

type MockRefundGateway struct {
	mock.Mock
}

func (m *MockRefundGateway) Refund(ctx context.Context, orderID string, amount int64, reason string) (*midtrans.RefundResult, error) {
	args := m.Called(ctx, orderID, amount, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*midtrans.RefundResult), args.Error(1)
}

func paidPayment() *domain.Payment {
	return &domain.Payment{ID: 40, BookingID: 104, TransactionID: "BOOK-104", Amount: 995000, Fee: 5000, Total: 1000000, Status: domain.PaymentPaid}
}

func rejectedBooking() *domain.Booking {
	return &domain.Booking{ID: 104, RoomID: 3, Status: domain.BookingRejected}
}

func TestInitiate_FullAmount(t *testing.T) {
	repo := new(MockRefundRepo)
	gw := new(MockRefundGateway)
	proc := NewProcessor(repo, gw, time.Second, nil)

	repo.On("GetByPaymentID", mock.Anything, int64(40)).Return(nil, gorm.ErrRecordNotFound)
	gw.On("Refund", mock.Anything, "BOOK-104", int64(1000000), "venue unavailable").
		Return(&midtrans.RefundResult{RefundKey: "refund-BOOK-104"}, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	f, err := proc.Initiate(context.Background(), paidPayment(), rejectedBooking(), "venue unavailable")

	assert.NoError(t, err)
	assert.Equal(t, int64(1000000), f.Amount, "refund covers the charged total, fee included")
	assert.Equal(t, domain.RefundProcessed, f.Status)
	assert.Equal(t, "refund-BOOK-104", f.GatewayRefundID)
	gw.AssertExpectations(t)
}

func TestInitiate_PaymentNotPaid(t *testing.T) {
	proc := NewProcessor(new(MockRefundRepo), new(MockRefundGateway), time.Second, nil)

	p := paidPayment()
	p.Status = domain.PaymentPending

	_, err := proc.Initiate(context.Background(), p, rejectedBooking(), "reason")
	assert.ErrorIs(t, err, ErrPaymentNotPaid)
}

func TestInitiate_BookingNotRejectable(t *testing.T) {
	proc := NewProcessor(new(MockRefundRepo), new(MockRefundGateway), time.Second, nil)

	b := rejectedBooking()
	b.Status = domain.BookingCompleted

	_, err := proc.Initiate(context.Background(), paidPayment(), b, "reason")
	assert.ErrorIs(t, err, ErrBookingNotRejected)
}

func TestInitiate_ExistingRefundReturned(t *testing.T) {
	repo := new(MockRefundRepo)
	gw := new(MockRefundGateway)
	proc := NewProcessor(repo, gw, time.Second, nil)

	existing := &domain.Refund{ID: 9, PaymentID: 40, Amount: 1000000, Status: domain.RefundProcessed}
	repo.On("GetByPaymentID", mock.Anything, int64(40)).Return(existing, nil)

	f, err := proc.Initiate(context.Background(), paidPayment(), rejectedBooking(), "reason")

	assert.NoError(t, err)
	assert.Equal(t, existing, f)
	gw.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInitiate_GatewayFailure(t *testing.T) {
	repo := new(MockRefundRepo)
	gw := new(MockRefundGateway)
	proc := NewProcessor(repo, gw, time.Second, nil)

	repo.On("GetByPaymentID", mock.Anything, int64(40)).Return(nil, gorm.ErrRecordNotFound)
	gw.On("Refund", mock.Anything, "BOOK-104", int64(1000000), "reason").
		Return(nil, errors.New("gateway unreachable"))

	_, err := proc.Initiate(context.Background(), paidPayment(), rejectedBooking(), "reason")

	assert.ErrorIs(t, err, ErrRefundInitiation)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
