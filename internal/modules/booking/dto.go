package booking

import "pinjamin/internal/domain"

type CreateBookingRequest struct {
	RoomID       int64  `json:"room_id" validate:"required"`
	ActivityName string `json:"activity_name" validate:"required"`
	StartDate    string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string `json:"end_date" validate:"required,datetime=2006-01-02"`
	StartTime    string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime      string `json:"end_time" validate:"required,datetime=15:04"`
	DocumentURL  string `json:"document_url" validate:"omitempty,url"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type AvailabilityRequest struct {
	RoomID    int64  `form:"room_id" binding:"required"`
	StartDate string `form:"start_date" binding:"required"`
	EndDate   string `form:"end_date" binding:"required"`
	StartTime string `form:"start_time" binding:"required"`
	EndTime   string `form:"end_time" binding:"required"`
}

type AvailabilityResponse struct {
	Available bool             `json:"available"`
	Conflicts []domain.Booking `json:"conflicts"`
}
