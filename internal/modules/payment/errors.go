package payment

import "errors"

var (
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrUnknownTransaction = errors.New("unknown transaction")
	ErrBackwardTransition = errors.New("illegal backward payment transition")
	ErrUnexpectedRefund   = errors.New("refund notification without initiated refund")
)
