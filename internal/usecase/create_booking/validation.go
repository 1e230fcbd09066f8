package create_booking

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/pkg/types"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.UserID <= 0 {
		return fmt.Errorf("%w: userID must be positive", ErrInvalidInput)
	}

	if req.ResourceID <= 0 && req.ShowtimeID <= 0 {
		return fmt.Errorf("%w: resourceID or showtimeID is required", ErrInvalidInput)
	}

	if req.ResourceID < 0 || req.ShowtimeID < 0 {
		return fmt.Errorf("%w: ids must not be negative", ErrInvalidInput)
	}

	if req.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalidInput)
	}

	return nil
}

// validateSlotRequest проверяет поля бронирования слота
func validateSlotRequest(req *Request) error {
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if err := req.StartTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid startTime: %v", ErrInvalidInput, err)
	}
	if quantity(req) > domain.MaxSlotQuantity {
		return fmt.Errorf("%w: quantity must be at most %d", ErrInvalidInput, domain.MaxSlotQuantity)
	}
	return nil
}

// validateRangeRequest проверяет даты заезда и выезда
func validateRangeRequest(req *Request) error {
	if req.CheckIn.IsZero() || req.CheckOut.IsZero() {
		return fmt.Errorf("%w: checkIn and checkOut are required", ErrInvalidInput)
	}
	nights := len(domain.DatesInRange(req.CheckIn, req.CheckOut))
	if nights < 1 || nights > domain.MaxRangeNights {
		return fmt.Errorf("%w: stay must be between 1 and %d nights", ErrInvalidInput, domain.MaxRangeNights)
	}
	return nil
}

// validateSeatRequest проверяет набор мест и токен удержания
func validateSeatRequest(req *Request) error {
	if len(req.SeatIDs) == 0 || len(req.SeatIDs) > domain.MaxSeatsPerReservation {
		return fmt.Errorf("%w: between 1 and %d seats are required", ErrInvalidInput, domain.MaxSeatsPerReservation)
	}
	if req.Holder == "" {
		return fmt.Errorf("%w: holder is required", ErrInvalidInput)
	}
	return nil
}

// validateDate проверяет, что дата подходит для бронирования
func validateDate(bookingDate time.Time, now time.Time, advanceBookingDays int) error {
	// Проверяем, что дата не в прошлом
	if isDateInPast(bookingDate, now) {
		return ErrInvalidDate
	}

	// Если advanceBookingDays = 0, нет ограничений на дату
	if advanceBookingDays == 0 {
		return nil
	}

	maxDate := domain.TruncateToDate(now).AddDate(0, 0, advanceBookingDays)
	if dateIn(bookingDate, now.Location()).After(maxDate) {
		return fmt.Errorf("%w: can only book %d days in advance", ErrDateTooFarInFuture, advanceBookingDays)
	}

	return nil
}

// validateBookingTime проверяет, что бронирование не нарушает minBookingNoticeMinutes
func validateBookingTime(bookingDate time.Time, startTime types.Minutes, now time.Time, minBookingNoticeMinutes int) error {
	// Если дата бронирования не сегодня, проверка не нужна
	if !isSameDay(bookingDate, now) {
		return nil
	}

	minAllowed := types.MinutesFromTime(now).Add(minBookingNoticeMinutes)
	if startTime.IsBefore(minAllowed) {
		return fmt.Errorf("%w: must book at least %d minutes in advance", ErrTooLateToBook, minBookingNoticeMinutes)
	}

	return nil
}

// isSameDay проверяет, что две даты относятся к одному и тому же дню
func isSameDay(date1, date2 time.Time) bool {
	y1, m1, d1 := date1.Date()
	y2, m2, d2 := date2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// isDateInPast проверяет, что дата в прошлом (раньше сегодняшнего дня)
func isDateInPast(date, now time.Time) bool {
	return dateIn(date, now.Location()).Before(domain.TruncateToDate(now))
}

// dateIn переносит календарную дату в локацию без сдвига дня
func dateIn(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func quantity(req *Request) int {
	if req.Quantity > 0 {
		return req.Quantity
	}
	return 1
}
