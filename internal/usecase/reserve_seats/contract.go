package reserve_seats

import (
	"context"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

// ConfigService источник сеансов
type ConfigService interface {
	GetShowtime(ctx context.Context, showtimeID int64) (*domain.Showtime, error)
}

// Allocator удержание мест
type Allocator interface {
	ReserveSeats(ctx context.Context, showtimeID int64, seatIDs []string, holder string) (domain.SeatResult, error)
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
