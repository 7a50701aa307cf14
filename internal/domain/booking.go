package domain

import "time"

type BookingStatus string

const (
	BookingProcessing BookingStatus = "processing"
	BookingApproved   BookingStatus = "approved"
	BookingRejected   BookingStatus = "rejected"
	BookingCompleted  BookingStatus = "completed"
)

// bookingTransitions is the single source of truth for the booking
// lifecycle. Rejected and Completed are terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingProcessing: {BookingApproved, BookingRejected},
	BookingApproved:   {BookingCompleted, BookingRejected},
	BookingRejected:   {},
	BookingCompleted:  {},
}

func (s BookingStatus) CanTransition(to BookingStatus) bool {
	for _, next := range bookingTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s BookingStatus) Terminal() bool {
	return len(bookingTransitions[s]) == 0
}

type Booking struct {
	ID              int64         `json:"id"`
	RoomID          int64         `json:"room_id" validate:"required"`
	UserID          *int64        `json:"user_id,omitempty"`
	ActivityName    string        `json:"activity_name" validate:"required"`
	StartDate       time.Time     `json:"start_date" validate:"required"`
	EndDate         time.Time     `json:"end_date" validate:"required"`
	StartTime       string        `json:"start_time" validate:"required"`
	EndTime         string        `json:"end_time" validate:"required"`
	DocumentURL     string        `json:"document_url,omitempty"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	Status          BookingStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`

	Room    *Room    `json:"room,omitempty" gorm:"foreignKey:RoomID"`
	Payment *Payment `json:"payment,omitempty" gorm:"foreignKey:BookingID"`
}

// Range normalizes the stored date and clock parts to one interval in loc.
func (b *Booking) Range(loc *time.Location) (TimeRange, error) {
	return NewTimeRangeFromParts(b.StartDate, b.EndDate, b.StartTime, b.EndTime, loc)
}
