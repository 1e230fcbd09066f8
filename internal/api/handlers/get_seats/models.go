package get_seats

import (
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/engine"
)

// SeatMapResponse HTTP response model
type SeatMapResponse struct {
	ShowtimeID int64          `json:"showtimeId"`
	StartsAt   time.Time      `json:"startsAt"`
	PriceMinor int64          `json:"priceMinor"`
	Available  int            `json:"available"`
	Seats      []SeatResponse `json:"seats"`
}

// SeatResponse состояние места; держатель удержания наружу не отдается
type SeatResponse struct {
	SeatID      string     `json:"seatId"`
	Status      string     `json:"status"`
	Section     string     `json:"section,omitempty"`
	PriceMinor  int64      `json:"priceMinor"`
	LeaseExpiry *time.Time `json:"leaseExpiry,omitempty"`
}

// FromDomainSeats конвертирует карту мест в HTTP response
func FromDomainSeats(showtime *domain.Showtime, seats []domain.SeatLease) *SeatMapResponse {
	resp := &SeatMapResponse{
		ShowtimeID: showtime.ID,
		StartsAt:   showtime.StartsAt,
		PriceMinor: showtime.PriceMinor,
		Seats:      make([]SeatResponse, 0, len(seats)),
	}
	for _, s := range seats {
		if s.Status == domain.SeatAvailable {
			resp.Available++
		}
		seat := SeatResponse{
			SeatID:      s.SeatID,
			Status:      string(s.Status),
			PriceMinor:  engine.SeatPrice(showtime, s.SeatID, showtime.PriceMinor),
			LeaseExpiry: s.LeaseExpiry,
		}
		if section, ok := showtime.SectionFor(s.SeatID); ok {
			seat.Section = section.ID
		}
		resp.Seats = append(resp.Seats, seat)
	}
	return resp
}
