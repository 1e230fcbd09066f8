package reserve_seats

import (
	"context"

	reserveSeats "github.com/m04kA/SMC-BookingEngine/internal/usecase/reserve_seats"
)

type ReserveSeatsUseCase interface {
	Execute(ctx context.Context, req *reserveSeats.Request) (*reserveSeats.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
