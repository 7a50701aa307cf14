package refund

import "errors"

var (
	ErrPaymentNotPaid     = errors.New("payment is not in paid status")
	ErrBookingNotRejected = errors.New("booking is not rejected")
	ErrRefundInitiation   = errors.New("refund initiation failed")
)
