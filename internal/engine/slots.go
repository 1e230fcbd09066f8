package engine

import (
	"iter"
	"slices"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/pkg/types"
)

// SlotSeq лениво порождает слоты ресурса на рабочий день
//
// Начиная с hours.Start генератор шагает на блок (длительность + буфер), пока слот помещается в рабочее окно:
//   - слот, пересекающий перерыв, отбрасывается, и начало сдвигается на domain.BreakSkipMinutes
//   - слот, чье занятое окно конфликтует с активным бронированием, отбрасывается со сдвигом на целый блок
//
// Каждый проход по последовательности начинается заново с hours.Start
// При DurationMinutes <= 0 последовательность пуста (ошибку конфигурации возвращает resource.Validate)
func SlotSeq(resource *domain.Resource, hours domain.WorkingHours, committed []*domain.Booking) iter.Seq[domain.CandidateSlot] {
	duration := resource.DurationMinutes
	buffer := resource.BufferMinutes
	index := NewConflictIndex(committed)

	return func(yield func(domain.CandidateSlot) bool) {
		if duration <= 0 || buffer < 0 {
			return
		}
		block := duration + buffer

		start := hours.Start
		for !start.Add(duration).IsAfter(hours.End) {
			slot := domain.NewCandidateSlot(start, duration, buffer)

			if hitsBreak(slot.Interval(), hours.Breaks) {
				start = start.Add(domain.BreakSkipMinutes)
				continue
			}

			if !index.Conflicts(slot.OccupiedWindow()) {
				if !yield(slot) {
					return
				}
			}
			start = start.Add(block)
		}
	}
}

// GenerateSlots возвращает все слоты ресурса на рабочий день в порядке возрастания начала
func GenerateSlots(resource *domain.Resource, hours domain.WorkingHours, committed []*domain.Booking) []domain.CandidateSlot {
	slots := slices.Collect(SlotSeq(resource, hours, committed))
	if slots == nil {
		return []domain.CandidateSlot{}
	}
	return slots
}

// NextAvailableSlot первый свободный слот, начинающийся не раньше after
func NextAvailableSlot(
	resource *domain.Resource,
	hours domain.WorkingHours,
	committed []*domain.Booking,
	after types.Minutes,
) (domain.CandidateSlot, bool) {
	for slot := range SlotSeq(resource, hours, committed) {
		if !slot.Start.IsBefore(after) {
			return slot, true
		}
	}
	return domain.CandidateSlot{}, false
}

// IsOfferedSlot проверяет, что start совпадает с началом одного из сгенерированных слотов
// Используется при создании бронирования для повторной проверки выбранного времени
func IsOfferedSlot(resource *domain.Resource, hours domain.WorkingHours, committed []*domain.Booking, start types.Minutes) bool {
	for slot := range SlotSeq(resource, hours, committed) {
		if slot.Start == start {
			return true
		}
		if slot.Start.IsAfter(start) {
			return false
		}
	}
	return false
}

// hitsBreak перерывы упорядочены, поэтому проверка прекращается на первом перерыве после интервала
func hitsBreak(slot domain.Interval, breaks []domain.Break) bool {
	for _, b := range breaks {
		if !b.Start.IsBefore(slot.End) {
			return false
		}
		if slot.Overlaps(b.Interval()) {
			return true
		}
	}
	return false
}
