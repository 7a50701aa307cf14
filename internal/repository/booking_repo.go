package repository

import (
	"context"
	"time"

	"pinjamin/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingRepository struct {
	db  *gorm.DB
	loc *time.Location
}

func NewBookingRepository(db *gorm.DB, loc *time.Location) *BookingRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingRepository{db: db, loc: loc}
}

type bookingModel struct {
	ID              int64     `gorm:"column:id;primaryKey"`
	RoomID          int64     `gorm:"column:room_id;index"`
	UserID          *int64    `gorm:"column:user_id"`
	ActivityName    string    `gorm:"column:activity_name"`
	StartDate       time.Time `gorm:"column:start_date;index"`
	EndDate         time.Time `gorm:"column:end_date;index"`
	StartTime       string    `gorm:"column:start_time"`
	EndTime         string    `gorm:"column:end_time"`
	DocumentURL     *string   `gorm:"column:document_url"`
	RejectionReason *string   `gorm:"column:rejection_reason"`
	Status          string    `gorm:"column:status;index"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainBooking(m bookingModel) *domain.Booking {
	var doc, reason string
	if m.DocumentURL != nil {
		doc = *m.DocumentURL
	}
	if m.RejectionReason != nil {
		reason = *m.RejectionReason
	}
	return &domain.Booking{
		ID:              m.ID,
		RoomID:          m.RoomID,
		UserID:          m.UserID,
		ActivityName:    m.ActivityName,
		StartDate:       m.StartDate,
		EndDate:         m.EndDate,
		StartTime:       m.StartTime,
		EndTime:         m.EndTime,
		DocumentURL:     doc,
		RejectionReason: reason,
		Status:          domain.BookingStatus(m.Status),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func toBookingModel(b *domain.Booking) bookingModel {
	var doc, reason *string
	if b.DocumentURL != "" {
		v := b.DocumentURL
		doc = &v
	}
	if b.RejectionReason != "" {
		v := b.RejectionReason
		reason = &v
	}
	return bookingModel{
		ID:              b.ID,
		RoomID:          b.RoomID,
		UserID:          b.UserID,
		ActivityName:    b.ActivityName,
		StartDate:       b.StartDate,
		EndDate:         b.EndDate,
		StartTime:       b.StartTime,
		EndTime:         b.EndTime,
		DocumentURL:     doc,
		RejectionReason: reason,
		Status:          string(b.Status),
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	*b = *toDomainBooking(m)
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var m bookingModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return toDomainBooking(m), nil
}

// FindBlocking returns bookings for roomID that hold the slot
// (approved/completed) and whose coarse date range intersects
// [startDate, endDate]. Precise clock-level overlap is the caller's job.
func (r *BookingRepository) FindBlocking(ctx context.Context, roomID int64, startDate, endDate time.Time) ([]domain.Booking, error) {
	var ms []bookingModel
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND status IN ? AND start_date <= ? AND end_date >= ?",
			roomID,
			[]string{string(domain.BookingApproved), string(domain.BookingCompleted)},
			endDate, startDate).
		Order("start_date, start_time").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Booking, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainBooking(m))
	}
	return out, nil
}

// ApproveWithPayment flips the booking to approved and inserts its pending
// payment in one transaction. The room's slot is re-checked under a
// per-room advisory lock so concurrent approvals of overlapping ranges
// cannot both pass the availability check.
func (r *BookingRepository) ApproveWithPayment(ctx context.Context, bookingID int64, p *domain.Payment) (*domain.Booking, error) {
	var out *domain.Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m bookingModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, bookingID).Error; err != nil {
			return err
		}
		cur := domain.BookingStatus(m.Status)
		if !cur.CanTransition(domain.BookingApproved) {
			return ErrNotTransitionable
		}

		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", m.RoomID).Error; err != nil {
				return err
			}
		}

		candidate, err := toDomainBooking(m).Range(r.loc)
		if err != nil {
			return err
		}
		var others []bookingModel
		if err := tx.
			Where("room_id = ? AND id <> ? AND status IN ? AND start_date <= ? AND end_date >= ?",
				m.RoomID, m.ID,
				[]string{string(domain.BookingApproved), string(domain.BookingCompleted)},
				m.EndDate, m.StartDate).
			Find(&others).Error; err != nil {
			return err
		}
		for _, o := range others {
			rng, err := toDomainBooking(o).Range(r.loc)
			if err != nil {
				continue
			}
			if candidate.Overlaps(rng) {
				return ErrSlotTaken
			}
		}

		if err := tx.Model(&bookingModel{}).Where("id = ?", m.ID).
			Update("status", string(domain.BookingApproved)).Error; err != nil {
			return err
		}
		if p != nil {
			p.BookingID = m.ID
			pm := toPaymentModel(p)
			if err := tx.Create(&pm).Error; err != nil {
				return err
			}
			*p = *toDomainPayment(pm)
		}

		var fresh bookingModel
		if err := tx.First(&fresh, m.ID).Error; err != nil {
			return err
		}
		out = toDomainBooking(fresh)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Reject moves the booking to rejected with a mandatory reason. Allowed
// from processing and approved; terminal states fail.
func (r *BookingRepository) Reject(ctx context.Context, bookingID int64, reason string) (*domain.Booking, error) {
	var out *domain.Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m bookingModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, bookingID).Error; err != nil {
			return err
		}
		if !domain.BookingStatus(m.Status).CanTransition(domain.BookingRejected) {
			return ErrNotTransitionable
		}
		if err := tx.Model(&bookingModel{}).Where("id = ?", m.ID).Updates(map[string]interface{}{
			"status":           string(domain.BookingRejected),
			"rejection_reason": reason,
		}).Error; err != nil {
			return err
		}
		var fresh bookingModel
		if err := tx.First(&fresh, m.ID).Error; err != nil {
			return err
		}
		out = toDomainBooking(fresh)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Complete marks an approved booking completed. Elapsed-time validation is
// the service's job; this only guards the transition itself.
func (r *BookingRepository) Complete(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	var out *domain.Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m bookingModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, bookingID).Error; err != nil {
			return err
		}
		if !domain.BookingStatus(m.Status).CanTransition(domain.BookingCompleted) {
			return ErrNotTransitionable
		}
		if err := tx.Model(&bookingModel{}).Where("id = ?", m.ID).
			Update("status", string(domain.BookingCompleted)).Error; err != nil {
			return err
		}
		var fresh bookingModel
		if err := tx.First(&fresh, m.ID).Error; err != nil {
			return err
		}
		out = toDomainBooking(fresh)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListApprovedEndingBefore returns approved bookings whose end date is on
// or before the given day. The worker applies the precise clock check.
func (r *BookingRepository) ListApprovedEndingBefore(ctx context.Context, day time.Time) ([]domain.Booking, error) {
	var ms []bookingModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_date <= ?", string(domain.BookingApproved), day).
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Booking, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainBooking(m))
	}
	return out, nil
}
