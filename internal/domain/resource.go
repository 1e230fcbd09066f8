package domain

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-BookingEngine/pkg/types"
)

// ResourceKind форма учета вместимости ресурса
type ResourceKind string

const (
	// KindDateRange посуточный учет (номера отеля): счетчик на каждую дату
	KindDateRange ResourceKind = "date_range"
	// KindSlot учет по слотам (услуги, площадки, столики): счетчик на каждый слот
	KindSlot ResourceKind = "slot"
	// KindSeat нумерованные места (кинотеатр): удержание с TTL и продажа
	KindSeat ResourceKind = "seat"
)

// Valid проверяет, что форма известна
func (k ResourceKind) Valid() bool {
	switch k {
	case KindDateRange, KindSlot, KindSeat:
		return true
	}
	return false
}

// Vertical направление бизнеса, которому принадлежит ресурс
type Vertical string

const (
	VerticalRooms       Vertical = "rooms"
	VerticalServices    Vertical = "services"
	VerticalVenues      Vertical = "venues"
	VerticalMovies      Vertical = "movies"
	VerticalRestaurants Vertical = "restaurants"
)

// Valid проверяет, что вертикаль известна
func (v Vertical) Valid() bool {
	switch v {
	case VerticalRooms, VerticalServices, VerticalVenues, VerticalMovies, VerticalRestaurants:
		return true
	}
	return false
}

// Resource бронируемая сущность с фиксированной вместимостью и протяженностью во времени
// Неизменна в течение жизни бронирования, кроме административных правок между окнами продаж
type Resource struct {
	ID       int64
	StoreID  int64
	Vertical Vertical
	Kind     ResourceKind
	Name     string

	DurationMinutes int
	BufferMinutes   int
	Capacity        int // номеров на дату или мест на сессию; для мест кинотеатра не используется

	BasePriceMinor int64
	CheckInTime    types.Minutes // только для KindDateRange

	MinBookingNoticeMinutes int
	AdvanceBookingDays      int // 0 = без ограничений
	IsActive                bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BlockMinutes длительность плюс буфер - шаг генератора слотов
func (r *Resource) BlockMinutes() int {
	return r.DurationMinutes + r.BufferMinutes
}

// IsExclusive ресурс допускает только одно бронирование на интервал
func (r *Resource) IsExclusive() bool {
	return r.Capacity <= 1
}

// HasAdvanceBookingLimit есть ли ограничение на бронирование заранее
func (r *Resource) HasAdvanceBookingLimit() bool {
	return r.AdvanceBookingDays > 0
}

// Validate проверяет конфигурацию ресурса для его формы учета
func (r *Resource) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: unknown resource kind %q", ErrInvalidConfig, r.Kind)
	}
	if r.BufferMinutes < 0 || r.BufferMinutes > MaxBufferMinutes {
		return fmt.Errorf("%w: bufferMinutes must be in [0, %d], got %d", ErrInvalidConfig, MaxBufferMinutes, r.BufferMinutes)
	}
	if r.BasePriceMinor < 0 {
		return fmt.Errorf("%w: base price must not be negative", ErrInvalidConfig)
	}
	if r.MinBookingNoticeMinutes < 0 || r.AdvanceBookingDays < 0 {
		return fmt.Errorf("%w: booking notice and advance days must not be negative", ErrInvalidConfig)
	}

	switch r.Kind {
	case KindSlot:
		if r.DurationMinutes <= 0 || r.DurationMinutes > MaxDurationMinutes {
			return fmt.Errorf("%w: durationMinutes must be in (0, %d], got %d", ErrInvalidConfig, MaxDurationMinutes, r.DurationMinutes)
		}
		if r.Capacity < 1 || r.Capacity > MaxCapacity {
			return fmt.Errorf("%w: session capacity must be in [1, %d], got %d", ErrInvalidConfig, MaxCapacity, r.Capacity)
		}
	case KindDateRange:
		if r.Capacity < 1 || r.Capacity > MaxCapacity {
			return fmt.Errorf("%w: day capacity must be in [1, %d], got %d", ErrInvalidConfig, MaxCapacity, r.Capacity)
		}
		if err := r.CheckInTime.Validate(); err != nil {
			return fmt.Errorf("%w: check-in time: %v", ErrInvalidConfig, err)
		}
	case KindSeat:
		if r.DurationMinutes < 0 {
			return fmt.Errorf("%w: durationMinutes must not be negative", ErrInvalidConfig)
		}
	}

	return nil
}
