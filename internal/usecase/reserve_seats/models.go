package reserve_seats

import (
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

// Request модель запроса на удержание мест
type Request struct {
	UserID     int64
	ShowtimeID int64
	SeatIDs    []string
}

// Response удержание, которое нужно подтвердить бронированием до LeaseExpiry
type Response struct {
	ShowtimeID  int64
	Holder      string // передается в create_booking
	Seats       []domain.SeatLease
	LeaseExpiry time.Time
}
