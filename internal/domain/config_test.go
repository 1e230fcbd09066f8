package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-BookingEngine/pkg/types"
)

func TestWorkingHours_Validate(t *testing.T) {
	m := types.MustParseMinutes

	valid := WorkingHours{Start: m("09:00"), End: m("18:00"), Breaks: []Break{
		{Start: m("12:00"), End: m("13:00")},
		{Start: m("15:00"), End: m("15:15")},
	}}
	assert.NoError(t, valid.Validate())

	assert.ErrorIs(t, WorkingHours{Start: m("18:00"), End: m("09:00")}.Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, WorkingHours{Start: m("09:00"), End: m("18:00"), Breaks: []Break{
		{Start: m("12:00"), End: m("13:00")},
		{Start: m("12:30"), End: m("14:00")},
	}}.Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, WorkingHours{Start: m("09:00"), End: m("18:00"), Breaks: []Break{
		{Start: m("12:00"), End: m("12:00")},
	}}.Validate(), ErrInvalidConfig)
}

func TestCancellationPolicy_SortedAndValidate(t *testing.T) {
	policy := CancellationPolicy{Tiers: []RefundTier{
		{MinBeforeEvent: 6 * time.Hour, Fraction: decimal.RequireFromString("0.5")},
		{MinBeforeEvent: 24 * time.Hour, Fraction: decimal.NewFromInt(1)},
	}}

	sorted := policy.Sorted()
	assert.Equal(t, 24*time.Hour, sorted[0].MinBeforeEvent)
	assert.Equal(t, 6*time.Hour, policy.Tiers[0].MinBeforeEvent, "original order must not change")
	assert.NoError(t, policy.Validate())

	bad := CancellationPolicy{Tiers: []RefundTier{{MinBeforeEvent: time.Hour, Fraction: decimal.RequireFromString("1.5")}}}
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)
}

func TestResource_Validate(t *testing.T) {
	slot := Resource{Kind: KindSlot, DurationMinutes: 60, BufferMinutes: 15, Capacity: 1}
	assert.NoError(t, slot.Validate())

	zeroDuration := slot
	zeroDuration.DurationMinutes = 0
	assert.ErrorIs(t, zeroDuration.Validate(), ErrInvalidConfig)

	room := Resource{Kind: KindDateRange, Capacity: 5, CheckInTime: DefaultCheckInTime}
	assert.NoError(t, room.Validate())

	noRooms := room
	noRooms.Capacity = 0
	assert.ErrorIs(t, noRooms.Validate(), ErrInvalidConfig)

	assert.ErrorIs(t, (&Resource{Kind: "spaceship"}).Validate(), ErrInvalidConfig)
}
