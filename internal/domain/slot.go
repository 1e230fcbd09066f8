package domain

import "github.com/m04kA/SMC-BookingEngine/pkg/types"

// CandidateSlot вычисляемый (не хранимый) интервал, доступный для бронирования
type CandidateSlot struct {
	Start           types.Minutes
	End             types.Minutes // Start + DurationMinutes
	DurationMinutes int
	BufferMinutes   int
}

// NewCandidateSlot создает слот начиная со start
func NewCandidateSlot(start types.Minutes, duration, buffer int) CandidateSlot {
	return CandidateSlot{
		Start:           start,
		End:             start.Add(duration),
		DurationMinutes: duration,
		BufferMinutes:   buffer,
	}
}

// Interval продаваемая часть слота [Start, End)
func (s CandidateSlot) Interval() Interval {
	return Interval{Start: s.Start, End: s.End}
}

// OccupiedWindow окно, которое слот занимает для проверки конфликтов [Start, End+Buffer)
func (s CandidateSlot) OccupiedWindow() Interval {
	return Interval{Start: s.Start, End: s.End.Add(s.BufferMinutes)}
}

// PricedSlot слот с ценой и наличием мест для витрины
type PricedSlot struct {
	CandidateSlot
	PriceMinor     int64
	AvailableSpots int
	TotalSpots     int
}

// IsFull нет свободных мест
func (s *PricedSlot) IsFull() bool {
	return s.AvailableSpots <= 0
}

// OccupancyRate процент занятости (0-100)
func (s *PricedSlot) OccupancyRate() float64 {
	if s.TotalSpots == 0 {
		return 0
	}
	occupied := s.TotalSpots - s.AvailableSpots
	return float64(occupied) / float64(s.TotalSpots) * 100
}
