package create_booking

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/service/bookings/models"
	createBooking "github.com/m04kA/SMC-BookingEngine/internal/usecase/create_booking"
	"github.com/m04kA/SMC-BookingEngine/pkg/types"
)

// CreateBookingRequest HTTP request model
// Заполняется набор полей, соответствующий виду ресурса
type CreateBookingRequest struct {
	ResourceID int64 `json:"resourceId,omitempty"`
	Quantity   int   `json:"quantity,omitempty"`

	BookingDate string `json:"bookingDate,omitempty"` // "2025-10-15"
	StartTime   string `json:"startTime,omitempty"`   // "10:00"

	CheckIn  string `json:"checkIn,omitempty"`
	CheckOut string `json:"checkOut,omitempty"`

	ShowtimeID int64    `json:"showtimeId,omitempty"`
	SeatIDs    []string `json:"seatIds,omitempty"`
	Holder     string   `json:"holder,omitempty"`
}

// CreateBookingResponse HTTP response model
type CreateBookingResponse struct {
	models.BookingResponse
	TransactionID string `json:"transactionId,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(userID int64) (*createBooking.Request, error) {
	req := &createBooking.Request{
		UserID:     userID,
		ResourceID: r.ResourceID,
		Quantity:   r.Quantity,
		ShowtimeID: r.ShowtimeID,
		SeatIDs:    r.SeatIDs,
		Holder:     r.Holder,
	}

	var err error
	if req.Date, err = parseDate("bookingDate", r.BookingDate); err != nil {
		return nil, err
	}
	if req.CheckIn, err = parseDate("checkIn", r.CheckIn); err != nil {
		return nil, err
	}
	if req.CheckOut, err = parseDate("checkOut", r.CheckOut); err != nil {
		return nil, err
	}

	if r.StartTime != "" {
		if req.StartTime, err = types.ParseMinutes(r.StartTime); err != nil {
			return nil, fmt.Errorf("startTime: %w", err)
		}
	}

	return req, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *CreateBookingResponse {
	return &CreateBookingResponse{
		BookingResponse: *models.FromDomainBooking(resp.Booking),
		TransactionID:   resp.TransactionID,
	}
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	date, err := time.Parse(domain.DateFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", field, err)
	}
	return date, nil
}
