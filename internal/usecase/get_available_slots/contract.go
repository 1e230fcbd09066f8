package get_available_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	configService "github.com/m04kA/SMC-BookingEngine/internal/service/config"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByResourceWithFilter(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error)
}

// ConfigService интерфейс сервиса конфигурации ресурсов
type ConfigService interface {
	GetResourceConfig(ctx context.Context, resourceID int64, date time.Time) (*configService.ResourceConfig, error)
}

// Clock интерфейс для получения текущего времени (для тестирования)
type Clock interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
