package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatus_Transitions(t *testing.T) {
	assert.True(t, BookingProcessing.CanTransition(BookingApproved))
	assert.True(t, BookingProcessing.CanTransition(BookingRejected))
	assert.False(t, BookingProcessing.CanTransition(BookingCompleted))

	assert.True(t, BookingApproved.CanTransition(BookingCompleted))
	assert.True(t, BookingApproved.CanTransition(BookingRejected))
	assert.False(t, BookingApproved.CanTransition(BookingProcessing))

	for _, terminal := range []BookingStatus{BookingRejected, BookingCompleted} {
		assert.True(t, terminal.Terminal())
		for _, to := range []BookingStatus{BookingProcessing, BookingApproved, BookingRejected, BookingCompleted} {
			assert.False(t, terminal.CanTransition(to), "%s -> %s must be forbidden", terminal, to)
		}
	}
}

func TestPaymentStatus_ForwardOnly(t *testing.T) {
	assert.True(t, PaymentPending.CanTransition(PaymentPaid))
	assert.True(t, PaymentPending.CanTransition(PaymentFailed))
	assert.True(t, PaymentPending.CanTransition(PaymentCancelled))
	assert.False(t, PaymentPending.CanTransition(PaymentRefunded))

	assert.True(t, PaymentPaid.CanTransition(PaymentRefunded))
	assert.False(t, PaymentPaid.CanTransition(PaymentPending))
	assert.False(t, PaymentPaid.CanTransition(PaymentFailed))

	for _, terminal := range []PaymentStatus{PaymentFailed, PaymentCancelled, PaymentRefunded} {
		for _, to := range []PaymentStatus{PaymentPending, PaymentPaid, PaymentFailed, PaymentCancelled, PaymentRefunded} {
			if terminal == to {
				continue
			}
			assert.False(t, terminal.CanTransition(to), "%s -> %s must be forbidden", terminal, to)
		}
	}
}
