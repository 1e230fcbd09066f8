package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

// Типы событий бронирования
const (
	TypeBookingConfirmed = "booking.confirmed"
	TypeBookingCancelled = "booking.cancelled"
)

// Event событие жизненного цикла бронирования
// ID уникален для каждой публикации, потребители дедуплицируют по нему
type Event struct {
	ID          string               `json:"event_id"`
	Type        string               `json:"event_type"`
	OccurredAt  time.Time            `json:"occurred_at"`
	BookingID   int64                `json:"booking_id"`
	ResourceID  int64                `json:"resource_id"`
	UserID      int64                `json:"user_id"`
	Kind        domain.ResourceKind  `json:"kind"`
	Status      domain.BookingStatus `json:"status"`
	AmountMinor int64                `json:"amount_minor"`
	RefundMinor *int64               `json:"refund_minor,omitempty"`
	EventStart  time.Time            `json:"event_start"`
	ShowtimeID  *int64               `json:"showtime_id,omitempty"`
	SeatIDs     []string             `json:"seat_ids,omitempty"`
}

// NewBookingEvent создает событие по текущему состоянию бронирования
func NewBookingEvent(eventType string, booking *domain.Booking, occurredAt time.Time) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		OccurredAt:  occurredAt.UTC(),
		BookingID:   booking.ID,
		ResourceID:  booking.ResourceID,
		UserID:      booking.UserID,
		Kind:        booking.Kind,
		Status:      booking.Status,
		AmountMinor: booking.AmountMinor,
		RefundMinor: booking.RefundMinor,
		EventStart:  booking.EventStart,
		ShowtimeID:  booking.ShowtimeID,
		SeatIDs:     booking.SeatIDs,
	}
}
