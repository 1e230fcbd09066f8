package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanReserve(t *testing.T) {
	now := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	expired := now.Add(-time.Second)
	active := now.Add(5 * time.Minute)

	t.Run("available and expired seats are reserved", func(t *testing.T) {
		current := []SeatLease{
			{ShowtimeID: 1, SeatID: "A1", Status: SeatAvailable},
			{ShowtimeID: 1, SeatID: "A2", Status: SeatReserved, Holder: "old", LeaseExpiry: &expired},
		}

		next, err := PlanReserve(current, "h-1", now, now.Add(DefaultLeaseTTL))

		require.NoError(t, err)
		require.Len(t, next, 2)
		for _, seat := range next {
			assert.Equal(t, SeatReserved, seat.Status)
			assert.Equal(t, "h-1", seat.Holder)
			assert.Equal(t, now.Add(DefaultLeaseTTL), *seat.LeaseExpiry)
		}
	})

	t.Run("one held seat fails the batch", func(t *testing.T) {
		current := []SeatLease{
			{ShowtimeID: 1, SeatID: "A1", Status: SeatAvailable},
			{ShowtimeID: 1, SeatID: "A2", Status: SeatReserved, Holder: "other", LeaseExpiry: &active},
		}

		next, err := PlanReserve(current, "h-1", now, now.Add(DefaultLeaseTTL))

		assert.ErrorIs(t, err, ErrSeatUnavailable)
		assert.Nil(t, next)
	})
}

func TestPlanFinalize(t *testing.T) {
	now := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	expired := now.Add(-time.Second)
	active := now.Add(5 * time.Minute)

	tests := []struct {
		name        string
		current     []SeatLease
		wantErr     error
		wantChanged bool
	}{
		{
			name:        "own leases become booked",
			current:     []SeatLease{{SeatID: "A1", Status: SeatReserved, Holder: "h-1", LeaseExpiry: &active}},
			wantChanged: true,
		},
		{
			name:        "already booked by same holder is a no-op",
			current:     []SeatLease{{SeatID: "A1", Status: SeatBooked, Holder: "h-1"}},
			wantChanged: false,
		},
		{
			name: "expired lease fails",
			current: []SeatLease{
				{SeatID: "A1", Status: SeatReserved, Holder: "h-1", LeaseExpiry: &active},
				{SeatID: "A2", Status: SeatReserved, Holder: "h-1", LeaseExpiry: &expired},
			},
			wantErr: ErrLeaseExpired,
		},
		{
			name:    "never reserved seat fails as expired",
			current: []SeatLease{{SeatID: "A1", Status: SeatAvailable}},
			wantErr: ErrLeaseExpired,
		},
		{
			name:    "seat booked by another holder fails",
			current: []SeatLease{{SeatID: "A1", Status: SeatBooked, Holder: "h-2"}},
			wantErr: ErrSeatUnavailable,
		},
		{
			name:    "seat held by another holder fails",
			current: []SeatLease{{SeatID: "A1", Status: SeatReserved, Holder: "h-2", LeaseExpiry: &active}},
			wantErr: ErrSeatUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, changed, err := PlanFinalize(tt.current, "h-1", now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, next)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantChanged, changed)
			for _, seat := range next {
				assert.Equal(t, SeatBooked, seat.Status)
				assert.Nil(t, seat.LeaseExpiry)
			}
		})
	}
}

func TestPlanRelease(t *testing.T) {
	now := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	active := now.Add(5 * time.Minute)

	current := []SeatLease{
		{SeatID: "A1", Status: SeatReserved, Holder: "h-1", LeaseExpiry: &active},
		{SeatID: "A2", Status: SeatBooked, Holder: "h-1"},
		{SeatID: "A3", Status: SeatBooked, Holder: "h-2"},
		{SeatID: "A4", Status: SeatAvailable},
	}

	released := PlanRelease(current, "h-1", now)

	require.Len(t, released, 2)
	assert.Equal(t, "A1", released[0].SeatID)
	assert.Equal(t, "A2", released[1].SeatID)
	assert.Equal(t, SeatAvailable, released[1].Status)
}
