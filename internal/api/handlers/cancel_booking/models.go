package cancel_booking

import (
	"github.com/m04kA/SMC-BookingEngine/internal/service/bookings/models"
	"github.com/m04kA/SMC-BookingEngine/internal/service/cancellation"
)

// CancelBookingRequest HTTP request model
type CancelBookingRequest struct {
	CancellationReason *string `json:"cancellationReason,omitempty"`
}

// CancelBookingResponse HTTP response model
type CancelBookingResponse struct {
	Booking          *models.BookingResponse `json:"booking"`
	RefundMinor      int64                   `json:"refundMinor"`
	RefundFraction   string                  `json:"refundFraction"`
	RefundRequested  bool                    `json:"refundRequested"`
	AlreadyCancelled bool                    `json:"alreadyCancelled"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *CancelBookingRequest) ToServiceRequest(bookingID, userID int64) cancellation.Request {
	reason := ""
	if r.CancellationReason != nil {
		reason = *r.CancellationReason
	}

	return cancellation.Request{
		BookingID: bookingID,
		UserID:    userID,
		Reason:    reason,
	}
}

// FromServiceResult конвертирует итог отмены в HTTP response
func FromServiceResult(res *cancellation.Result) *CancelBookingResponse {
	return &CancelBookingResponse{
		Booking:          models.FromDomainBooking(res.Booking),
		RefundMinor:      res.Decision.RefundMinor,
		RefundFraction:   res.Decision.Fraction.String(),
		RefundRequested:  res.RefundRequested,
		AlreadyCancelled: res.Decision.AlreadyCancelled,
	}
}
