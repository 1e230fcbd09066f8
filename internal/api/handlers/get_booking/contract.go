package get_booking

import (
	"context"

	"github.com/m04kA/SMC-BookingEngine/internal/service/bookings/models"
	"github.com/m04kA/SMC-BookingEngine/internal/service/cancellation"
)

type BookingService interface {
	GetByID(ctx context.Context, id int64, userID int64) (*models.BookingResponse, error)
}

// RefundQuoter расчет возврата без отмены
type RefundQuoter interface {
	Quote(ctx context.Context, bookingID, userID int64) (*cancellation.Result, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
