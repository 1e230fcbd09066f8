package get_booking

import (
	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/service/bookings/models"
)

// BookingDetailsResponse бронирование и сумма возврата, если отменить его сейчас
type BookingDetailsResponse struct {
	models.BookingResponse
	CancellationPreview *CancellationPreview `json:"cancellationPreview,omitempty"`
}

// CancellationPreview расчет по текущей политике отмены
type CancellationPreview struct {
	RefundMinor    int64  `json:"refundMinor"`
	RefundFraction string `json:"refundFraction"`
}

func newPreview(decision domain.RefundDecision) *CancellationPreview {
	if decision.AlreadyCancelled {
		return nil
	}
	return &CancellationPreview{
		RefundMinor:    decision.RefundMinor,
		RefundFraction: decision.Fraction.String(),
	}
}
