package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

// ComputeRefund рассчитывает долю и сумму возврата при отмене
//
// Ступени политики просматриваются от самой дальней к ближайшей, побеждает первая,
// для которой eventStart - now >= MinBeforeEvent. Если ни одна не подошла, возврат нулевой.
// Для уже отмененного бронирования возвращается AlreadyCancelled без освобождения вместимости.
// Функция не двигает деньги и не меняет бронирование.
func ComputeRefund(booking *domain.Booking, now, eventStart time.Time, policy domain.CancellationPolicy) domain.RefundDecision {
	if booking.IsCancelled() {
		decision := domain.RefundDecision{
			Fraction:         decimal.Zero,
			AlreadyCancelled: true,
			ReleaseCapacity:  false,
		}
		if booking.RefundMinor != nil {
			decision.RefundMinor = *booking.RefundMinor
		}
		return decision
	}

	untilEvent := eventStart.Sub(now)

	decision := domain.RefundDecision{
		Fraction:        decimal.Zero,
		ReleaseCapacity: true,
	}
	for _, tier := range policy.Sorted() {
		if untilEvent >= tier.MinBeforeEvent {
			matched := tier
			decision.Fraction = tier.Fraction
			decision.MatchedTier = &matched
			break
		}
	}

	decision.RefundMinor = decimal.NewFromInt(booking.AmountMinor).Mul(decision.Fraction).Floor().IntPart()
	return decision
}
