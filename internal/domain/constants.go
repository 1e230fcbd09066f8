package domain

import (
	"time"

	"github.com/m04kA/SMC-BookingEngine/pkg/types"
)

// Значения по умолчанию
const (
	DefaultLeaseTTL                = 10 * time.Minute
	DefaultMinBookingNoticeMinutes = 0
	DefaultAdvanceBookingDays      = 0 // 0 = без ограничений

	// DefaultCheckInTime время заезда для посуточных ресурсов
	DefaultCheckInTime types.Minutes = 14 * 60
)

// BreakSkipMinutes шаг, на который сдвигается генератор при попадании в перерыв
// (вместо целого блока, чтобы перерыв не съедал расписание)
const BreakSkipMinutes = 15

// Ограничения бизнес-валидации
const (
	MaxDurationMinutes     = 24 * 60
	MaxBufferMinutes       = 8 * 60
	MaxCapacity            = 10000
	MaxRangeNights         = 90
	MaxSeatsPerReservation = 20
	MaxSlotQuantity        = 100
	MaxCancellationReason  = 500
)

// Форматы времени
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// ActiveStatuses статусы, участвующие в проверке конфликтов и вместимости
var ActiveStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
}

// InactiveStatuses статусы, не занимающие ресурс
var InactiveStatuses = []BookingStatus{
	StatusCancelled,
}
