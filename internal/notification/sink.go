package notification

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"pinjamin/internal/domain"

	"gorm.io/gorm"
)

type eventRecord struct {
	ID         int64           `gorm:"column:id;primaryKey"`
	Type       string          `gorm:"column:type;index"`
	BookingID  int64           `gorm:"column:booking_id;index"`
	UserID     *int64          `gorm:"column:user_id"`
	Payload    json.RawMessage `gorm:"column:payload;type:text"`
	OccurredAt time.Time       `gorm:"column:occurred_at"`
	CreatedAt  time.Time       `gorm:"column:created_at"`
}

func (eventRecord) TableName() string { return "domain_events" }

// Migrate creates the event outbox table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&eventRecord{})
}

// Sink records domain events for the external delivery pipeline (email,
// in-app). Publishing is best-effort and never blocks or fails the caller;
// delivery itself is outside this service.
type Sink struct {
	db *gorm.DB
}

func NewSink(db *gorm.DB) *Sink {
	return &Sink{db: db}
}

func (s *Sink) Publish(ctx context.Context, e domain.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		log.Printf("event_publish_error type=%s booking_id=%d err=%v", e.Type, e.BookingID, err)
		return
	}
	rec := eventRecord{
		Type:       string(e.Type),
		BookingID:  e.BookingID,
		UserID:     e.UserID,
		Payload:    payload,
		OccurredAt: e.OccurredAt,
	}
	if s.db != nil {
		if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
			log.Printf("event_store_error type=%s booking_id=%d err=%v", e.Type, e.BookingID, err)
		}
	}
	log.Printf("domain_event type=%s booking_id=%d payload=%s", e.Type, e.BookingID, payload)
}
