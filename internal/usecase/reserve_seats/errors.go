package reserve_seats

import "errors"

var (
	// ErrShowtimeNotFound возвращается, когда сеанс не найден
	ErrShowtimeNotFound = errors.New("reserve_seats: showtime not found")

	// ErrShowtimeStarted возвращается, когда сеанс уже начался
	ErrShowtimeStarted = errors.New("reserve_seats: showtime has already started")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("reserve_seats: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("reserve_seats: internal error")
)
