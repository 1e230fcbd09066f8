package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-BookingEngine/pkg/types"
)

func TestInterval_Overlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{name: "touching end to start", a: Interval{540, 600}, b: Interval{600, 660}, want: false},
		{name: "touching start to end", a: Interval{600, 660}, b: Interval{540, 600}, want: false},
		{name: "partial overlap", a: Interval{540, 600}, b: Interval{590, 620}, want: true},
		{name: "contained", a: Interval{540, 700}, b: Interval{600, 610}, want: true},
		{name: "identical", a: Interval{540, 600}, b: Interval{540, 600}, want: true},
		{name: "disjoint", a: Interval{540, 560}, b: Interval{600, 620}, want: false},
		{name: "empty inside", a: Interval{550, 550}, b: Interval{540, 600}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a), "overlap must be symmetric")
		})
	}
}

func TestInterval_OverlapsMatchesDefinition(t *testing.T) {
	for a0 := types.Minutes(0); a0 < 60; a0 += 5 {
		for a1 := a0; a1 < 60; a1 += 5 {
			for b0 := types.Minutes(0); b0 < 60; b0 += 5 {
				for b1 := b0; b1 < 60; b1 += 5 {
					a, b := Interval{a0, a1}, Interval{b0, b1}
					assert.Equal(t, a0 < b1 && b0 < a1, a.Overlaps(b), "a=%v b=%v", a, b)
				}
			}
		}
	}
}

func TestDatesInRange(t *testing.T) {
	checkIn := time.Date(2026, 5, 1, 14, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, 5, 3, 11, 0, 0, 0, time.UTC)

	dates := DatesInRange(checkIn, checkOut)

	assert.Equal(t, []string{"2026-05-01", "2026-05-02"}, []string{DateKey(dates[0]), DateKey(dates[1])})
	assert.Len(t, dates, 2)
	assert.Empty(t, DatesInRange(checkOut, checkIn))
}

func TestSlotKey(t *testing.T) {
	date := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-05-01T09:15", SlotKey(date, types.MustParseMinutes("09:15")))
}
