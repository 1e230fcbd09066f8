package leasesweeper

import "context"

// Sweeper возвращает в продажу места с истекшим удержанием
type Sweeper interface {
	SweepExpiredLeases(ctx context.Context) (int, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}
