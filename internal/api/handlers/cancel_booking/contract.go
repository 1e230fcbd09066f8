package cancel_booking

import (
	"context"

	"github.com/m04kA/SMC-BookingEngine/internal/service/cancellation"
)

type CancellationService interface {
	Cancel(ctx context.Context, req cancellation.Request) (*cancellation.Result, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
