package config

import (
	"context"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

// ConfigRepository интерфейс репозитория административной конфигурации
type ConfigRepository interface {
	GetResource(ctx context.Context, id int64) (*domain.Resource, error)
	GetWorkingHours(ctx context.Context, resourceID int64, weekday time.Weekday) (*domain.WorkingHours, error)
	GetPeakRules(ctx context.Context, resourceID int64, weekday time.Weekday) ([]domain.PeakRule, error)
	GetCancellationPolicy(ctx context.Context, resourceID int64) (domain.CancellationPolicy, bool, error)
	GetShowtime(ctx context.Context, id int64) (*domain.Showtime, error)
	GetSeatSections(ctx context.Context, resourceID int64) ([]domain.SeatSection, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
