package domain

import (
	"time"

	"github.com/m04kA/SMC-BookingEngine/pkg/types"
)

// BookingStatus статус бронирования
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

// Valid проверяет, что статус известен
func (s BookingStatus) Valid() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusCancelled
}

// Booking зафиксированное бронирование
// Никогда не удаляется физически: отмена - это смена статуса, история сохраняется
type Booking struct {
	ID         int64
	ResourceID int64
	UserID     int64
	Kind       ResourceKind

	// KindSlot
	BookingDate     time.Time
	StartTime       types.Minutes
	DurationMinutes int
	BufferMinutes   int

	// KindDateRange
	CheckIn  time.Time
	CheckOut time.Time

	// KindSeat
	ShowtimeID *int64
	SeatIDs    []string
	Holder     string

	Quantity    int
	AmountMinor int64
	EventStart  time.Time
	Status      BookingStatus

	CancellationReason *string
	CancelledAt        *time.Time
	RefundMinor        *int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive бронирование занимает ресурс (pending или confirmed)
func (b *Booking) IsActive() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// IsCancelled бронирование уже отменено
func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}

// OccupiedWindow занятое окно [start, start+duration+buffer)
func (b *Booking) OccupiedWindow() Interval {
	return NewInterval(b.StartTime, b.DurationMinutes+b.BufferMinutes)
}

// Nights количество ночей для посуточного бронирования
func (b *Booking) Nights() int {
	return len(DatesInRange(b.CheckIn, b.CheckOut))
}

// BookingsFilter фильтр для выборки бронирований ресурса
type BookingsFilter struct {
	ResourceID      int64
	Date            *time.Time     // Конкретная дата (для слотов)
	Status          *BookingStatus // Фильтр по статусу (опционально)
	IncludeInactive bool           // Включать ли отмененные
}
