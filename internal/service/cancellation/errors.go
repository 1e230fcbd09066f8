package cancellation

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("cancellation: booking not found")

	// ErrAccessDenied возвращается, когда пользователь отменяет чужое бронирование
	ErrAccessDenied = errors.New("cancellation: access denied")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("cancellation: invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("cancellation: internal error")
)
