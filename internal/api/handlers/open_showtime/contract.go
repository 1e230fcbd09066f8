package open_showtime

import (
	"context"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

type ConfigService interface {
	GetShowtime(ctx context.Context, showtimeID int64) (*domain.Showtime, error)
}

type Allocator interface {
	OpenShowtime(ctx context.Context, showtimeID int64, seatIDs []string) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
