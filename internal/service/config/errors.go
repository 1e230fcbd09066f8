package config

import "errors"

var (
	// ErrResourceNotFound возвращается, когда ресурс не найден или неактивен
	ErrResourceNotFound = errors.New("config service: resource not found")

	// ErrShowtimeNotFound возвращается, когда сеанс не найден
	ErrShowtimeNotFound = errors.New("config service: showtime not found")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("config service: internal error")
)
