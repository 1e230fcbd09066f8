package engine

import (
	"sort"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/pkg/types"
)

// Overlaps полуоткрытые интервалы конфликтуют тогда и только тогда, когда a.Start < b.End && b.Start < a.End
// Окна уже включают буфер, поэтому граница a.End == b.Start конфликтом не является
func Overlaps(a, b domain.Interval) bool {
	return a.Overlaps(b)
}

// ConflictIndex отсортированные занятые окна активных бронирований
// Проверка конфликта выполняется бинарным поиском за O(log n)
type ConflictIndex struct {
	windows []domain.Interval
	// maxEnd[i] максимальный конец среди windows[0..i]
	maxEnd []types.Minutes
}

// NewConflictIndex строит индекс по бронированиям ресурса
// Отмененные бронирования не занимают ресурс и в индекс не попадают
func NewConflictIndex(committed []*domain.Booking) *ConflictIndex {
	windows := make([]domain.Interval, 0, len(committed))
	for _, b := range committed {
		if b == nil || !b.IsActive() {
			continue
		}
		windows = append(windows, b.OccupiedWindow())
	}

	sort.Slice(windows, func(i, j int) bool {
		if windows[i].Start != windows[j].Start {
			return windows[i].Start < windows[j].Start
		}
		return windows[i].End < windows[j].End
	})

	maxEnd := make([]types.Minutes, len(windows))
	for i, w := range windows {
		maxEnd[i] = w.End
		if i > 0 && maxEnd[i-1] > w.End {
			maxEnd[i] = maxEnd[i-1]
		}
	}

	return &ConflictIndex{windows: windows, maxEnd: maxEnd}
}

// Len количество активных окон в индексе
func (x *ConflictIndex) Len() int {
	if x == nil {
		return 0
	}
	return len(x.windows)
}

// Conflicts проверяет, пересекает ли окно хотя бы одно занятое окно
func (x *ConflictIndex) Conflicts(window domain.Interval) bool {
	if x.Len() == 0 {
		return false
	}

	// Кандидаты - окна, начинающиеся строго раньше конца проверяемого
	n := sort.Search(len(x.windows), func(i int) bool {
		return x.windows[i].Start >= window.End
	})
	if n == 0 {
		return false
	}

	// Среди них конфликт есть, если хотя бы одно заканчивается позже начала проверяемого
	return x.maxEnd[n-1] > window.Start
}

// CountOverlaps количество активных бронирований, чьи занятые окна пересекают window
// Используется для ресурсов с вместимостью больше одного
func CountOverlaps(window domain.Interval, committed []*domain.Booking) int {
	count := 0
	for _, b := range committed {
		if b == nil || !b.IsActive() {
			continue
		}
		if Overlaps(window, b.OccupiedWindow()) {
			count += quantityOf(b)
		}
	}
	return count
}

func quantityOf(b *domain.Booking) int {
	if b.Quantity > 0 {
		return b.Quantity
	}
	return 1
}
