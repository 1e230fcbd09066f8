package create_booking

import "errors"

var (
	// ErrResourceNotFound возвращается, когда ресурс не найден или неактивен
	ErrResourceNotFound = errors.New("create_booking: resource not found")

	// ErrShowtimeNotFound возвращается, когда сеанс не найден
	ErrShowtimeNotFound = errors.New("create_booking: showtime not found")

	// ErrInvalidDate возвращается при некорректной дате бронирования
	ErrInvalidDate = errors.New("create_booking: invalid booking date")

	// ErrDateTooFarInFuture возвращается, когда дата превышает ограничение advanceBookingDays
	ErrDateTooFarInFuture = errors.New("create_booking: date is too far in the future")

	// ErrResourceClosed возвращается, когда ресурс закрыт в указанную дату
	ErrResourceClosed = errors.New("create_booking: resource is closed on this date")

	// ErrInvalidTimeSlot возвращается, когда время не совпадает с началом слота из сетки
	ErrInvalidTimeSlot = errors.New("create_booking: invalid time slot")

	// ErrTooLateToBook возвращается, когда попытка забронировать слот нарушает minBookingNoticeMinutes
	ErrTooLateToBook = errors.New("create_booking: too late to book this slot")

	// ErrPaymentFailed возвращается, когда списание не прошло и бронирование отменено
	ErrPaymentFailed = errors.New("create_booking: payment failed")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)

// PaymentFailedReason причина отмены бронирования при неудачном списании
const PaymentFailedReason = "payment_failed"
