package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/engine"
	"github.com/m04kA/SMC-BookingEngine/pkg/types"
)

// buildSlots строит сетку слотов с ценами и свободными местами
//
// Эксклюзивный ресурс (capacity 1): конфликтующие слоты пропускаются генератором.
// Ресурс с несколькими местами: сетка строится без учета бронирований,
// свободные места = capacity - пересекающиеся бронирования, полные слоты скрываются.
func buildSlots(resource *domain.Resource, hours domain.WorkingHours, rules []domain.PeakRule, bookings []*domain.Booking) []domain.PricedSlot {
	if resource.IsExclusive() {
		return engine.AnnotatePrices(engine.GenerateSlots(resource, hours, bookings), resource.BasePriceMinor, rules)
	}

	grid := engine.AnnotatePrices(engine.GenerateSlots(resource, hours, nil), resource.BasePriceMinor, rules)

	result := make([]domain.PricedSlot, 0, len(grid))
	for _, slot := range grid {
		slot.TotalSpots = resource.Capacity
		slot.AvailableSpots = resource.Capacity - engine.CountOverlaps(slot.OccupiedWindow(), bookings)
		if slot.IsFull() {
			continue
		}
		result = append(result, slot)
	}
	return result
}

// filterByNotice убирает слоты, до которых осталось меньше minBookingNoticeMinutes
// Для будущих дат слоты не фильтруются
func filterByNotice(slots []domain.PricedSlot, date, now time.Time, minBookingNoticeMinutes int) []domain.PricedSlot {
	if !isSameDay(date, now) {
		return slots
	}

	nowMinutes := int(types.MinutesFromTime(now))
	minAllowed := nowMinutes + minBookingNoticeMinutes

	result := make([]domain.PricedSlot, 0, len(slots))
	for _, slot := range slots {
		if int(slot.Start) >= minAllowed {
			result = append(result, slot)
		}
	}
	return result
}

func toSlots(priced []domain.PricedSlot, rules []domain.PeakRule) []Slot {
	result := make([]Slot, len(priced))
	for i, p := range priced {
		result[i] = Slot{
			StartTime:       p.Start,
			EndTime:         p.End,
			DurationMinutes: p.DurationMinutes,
			PriceMinor:      p.PriceMinor,
			AvailableSpots:  p.AvailableSpots,
			TotalSpots:      p.TotalSpots,
		}
		if rule, ok := engine.MatchPeakRule(p.Start, rules); ok {
			result[i].PeakRule = rule.Name
		}
	}
	return result
}
