package engine

import (
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/pkg/types"
)

// MatchPeakRule первое правило, окно которого содержит минуту start
// Порядок правил задает приоритет, пересекающиеся окна автоматически не разрешаются
func MatchPeakRule(start types.Minutes, rules []domain.PeakRule) (domain.PeakRule, bool) {
	for _, rule := range rules {
		if rule.Contains(start) {
			return rule, true
		}
	}
	return domain.PeakRule{}, false
}

// Price цена слота в минимальных единицах валюты
// При совпадении правила: round(base * multiplier), половина округляется от нуля
func Price(slot domain.CandidateSlot, basePriceMinor int64, rules []domain.PeakRule) int64 {
	rule, ok := MatchPeakRule(slot.Start, rules)
	if !ok {
		return basePriceMinor
	}
	return ApplyMultiplier(basePriceMinor, rule.Multiplier)
}

// ApplyMultiplier умножает сумму на множитель с округлением до целой минимальной единицы
func ApplyMultiplier(amountMinor int64, multiplier decimal.Decimal) int64 {
	return decimal.NewFromInt(amountMinor).Mul(multiplier).Round(0).IntPart()
}

// SeatPrice цена места на сеансе: базовая цена с множителем ценовой зоны ряда
func SeatPrice(showtime *domain.Showtime, seatID string, basePriceMinor int64) int64 {
	section, ok := showtime.SectionFor(seatID)
	if !ok {
		return basePriceMinor
	}
	return ApplyMultiplier(basePriceMinor, section.Multiplier)
}

// AnnotatePrices назначает цену каждому слоту
// Наличие мест выставляется как для эксклюзивного ресурса (1 из 1), многоместные ресурсы перезаписывают его сами
func AnnotatePrices(slots []domain.CandidateSlot, basePriceMinor int64, rules []domain.PeakRule) []domain.PricedSlot {
	result := make([]domain.PricedSlot, len(slots))
	for i, slot := range slots {
		result[i] = domain.PricedSlot{
			CandidateSlot:  slot,
			PriceMinor:     Price(slot, basePriceMinor, rules),
			AvailableSpots: 1,
			TotalSpots:     1,
		}
	}
	return result
}
