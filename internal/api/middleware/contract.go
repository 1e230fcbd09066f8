package middleware

import "time"

// HTTPObserver приемник HTTP метрик
type HTTPObserver interface {
	ObserveHTTP(method, route, status string, started time.Time)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
}
