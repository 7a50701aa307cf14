package repository

import "errors"

// Sentinels surfaced by the transactional composites below. The modules map
// them onto their own error taxonomy at the API boundary.
var (
	ErrSlotTaken          = errors.New("slot already taken")
	ErrNotTransitionable  = errors.New("status transition not allowed")
	ErrBackwardTransition = errors.New("backward payment transition")
	ErrRefundMissing      = errors.New("no refund initiated for payment")
)
