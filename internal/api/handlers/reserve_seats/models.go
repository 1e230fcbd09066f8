package reserve_seats

import (
	"time"

	reserveSeats "github.com/m04kA/SMC-BookingEngine/internal/usecase/reserve_seats"
)

// ReserveSeatsRequest HTTP request model
type ReserveSeatsRequest struct {
	SeatIDs []string `json:"seatIds"`
}

// ReserveSeatsResponse удержание мест; holder нужно передать в POST /bookings
type ReserveSeatsResponse struct {
	ShowtimeID  int64     `json:"showtimeId"`
	Holder      string    `json:"holder"`
	SeatIDs     []string  `json:"seatIds"`
	LeaseExpiry time.Time `json:"leaseExpiry"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *ReserveSeatsRequest) ToUseCaseRequest(userID, showtimeID int64) *reserveSeats.Request {
	return &reserveSeats.Request{
		UserID:     userID,
		ShowtimeID: showtimeID,
		SeatIDs:    r.SeatIDs,
	}
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *reserveSeats.Response) *ReserveSeatsResponse {
	seatIDs := make([]string, 0, len(resp.Seats))
	for _, s := range resp.Seats {
		seatIDs = append(seatIDs, s.SeatID)
	}
	return &ReserveSeatsResponse{
		ShowtimeID:  resp.ShowtimeID,
		Holder:      resp.Holder,
		SeatIDs:     seatIDs,
		LeaseExpiry: resp.LeaseExpiry,
	}
}
