package domain

import (
	"time"

	"github.com/m04kA/SMC-BookingEngine/pkg/types"
)

// Interval полуоткрытый интервал [Start, End) в минутах от полуночи
type Interval struct {
	Start types.Minutes
	End   types.Minutes
}

// NewInterval создает интервал начиная со start длиной length минут
func NewInterval(start types.Minutes, length int) Interval {
	return Interval{Start: start, End: start.Add(length)}
}

// Overlaps два интервала пересекаются тогда и только тогда, когда a.Start < b.End && b.Start < a.End
// Интервалы, которые только касаются границами (a.End == b.Start), не пересекаются
func (a Interval) Overlaps(b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

// Contains проверяет Start <= m < End
func (a Interval) Contains(m types.Minutes) bool {
	return a.Start <= m && m < a.End
}

// Length длина интервала в минутах
func (a Interval) Length() int {
	return int(a.End - a.Start)
}

// DateKey ключ периода для посуточного учета (номера отеля)
func DateKey(date time.Time) string {
	return date.Format(DateFormat)
}

// SlotKey ключ периода для учета по слотам (площадки, услуги, столики)
func SlotKey(date time.Time, start types.Minutes) string {
	return date.Format(DateFormat) + "T" + start.String()
}

// DatesInRange возвращает все даты из [checkIn, checkOut) - дата выезда не включается
func DatesInRange(checkIn, checkOut time.Time) []time.Time {
	start := TruncateToDate(checkIn)
	end := TruncateToDate(checkOut)

	dates := make([]time.Time, 0)
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// TruncateToDate обнуляет время, оставляя дату в исходной локации
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
