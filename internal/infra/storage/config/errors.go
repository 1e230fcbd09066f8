package config

import "errors"

var (
	// ErrResourceNotFound возвращается, когда ресурс не найден или неактивен
	ErrResourceNotFound = errors.New("config.repository: resource not found")

	// ErrWorkingHoursNotFound ресурс не работает в этот день недели
	ErrWorkingHoursNotFound = errors.New("config.repository: working hours not found")

	// ErrShowtimeNotFound возвращается, когда сеанс не найден
	ErrShowtimeNotFound = errors.New("config.repository: showtime not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("config.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("config.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("config.repository: failed to scan row")
)
