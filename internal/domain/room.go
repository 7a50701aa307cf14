package domain

import "time"

// Room is a rentable building space. The catalog owns it; the core only
// reads price and capacity.
type Room struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description,omitempty"`
	RentalPrice int64     `json:"rental_price" validate:"gte=0"`
	Capacity    int       `json:"capacity" validate:"gt=0"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
