package get_seats

import (
	"context"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

type ConfigService interface {
	GetShowtime(ctx context.Context, showtimeID int64) (*domain.Showtime, error)
}

type Allocator interface {
	GetSeats(ctx context.Context, showtimeID int64) ([]domain.SeatLease, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
