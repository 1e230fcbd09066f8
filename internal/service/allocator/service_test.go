package allocator_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BookingEngine/internal/clock"
	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/storage/inventory"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/storage/memory"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/storage/seats"
	"github.com/m04kA/SMC-BookingEngine/internal/service/allocator"
	"github.com/m04kA/SMC-BookingEngine/pkg/metrics"
	"github.com/m04kA/SMC-BookingEngine/pkg/types"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

var reservedAt = time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *allocator.Service
	capacity *memory.CapacityStore
	seats    *memory.SeatStore
	clock    *clock.Manual
	metrics  *metrics.Metrics
}

func newFixture() *fixture {
	f := &fixture{
		capacity: memory.NewCapacityStore(),
		seats:    memory.NewSeatStore(),
		clock:    clock.NewManual(reservedAt),
		metrics:  metrics.New("allocator_test"),
	}
	f.svc = allocator.NewService(f.capacity, f.capacity, f.seats, f.clock, 0, f.metrics, nopLogger{})
	return f
}

func day(d int) time.Time {
	return time.Date(2026, 5, d, 0, 0, 0, 0, time.UTC)
}

func openRange(t *testing.T, f *fixture, resourceID int64, key string, total int) {
	t.Helper()
	_, err := f.capacity.OpenRange(context.Background(), resourceID, []string{key}, total)
	require.NoError(t, err)
}

func soldOn(t *testing.T, f *fixture, resourceID int64, keys ...string) []int {
	t.Helper()
	counters, err := f.capacity.GetCounters(context.Background(), resourceID, keys)
	require.NoError(t, err)
	sold := make([]int, len(counters))
	for i, c := range counters {
		sold[i] = c.SoldCount
	}
	return sold
}

func TestClaimRange_DateRangeScenario(t *testing.T) {
	ctx := context.Background()
	keys := []string{"2026-05-01", "2026-05-02"}

	t.Run("succeeds when every night has room", func(t *testing.T) {
		f := newFixture()
		for _, key := range keys {
			openRange(t, f, 1, key, 5)
		}
		f.capacity.SetSold(1, "2026-05-01", 2)

		counters, err := f.svc.ClaimRange(ctx, 1, day(1), day(3), 3)

		require.NoError(t, err)
		require.Len(t, counters, 2)
		assert.Equal(t, []int{5, 3}, soldOn(t, f, 1, keys...))
	})

	t.Run("fails without touching any night", func(t *testing.T) {
		f := newFixture()
		for _, key := range keys {
			openRange(t, f, 1, key, 5)
		}
		f.capacity.SetSold(1, "2026-05-01", 2)
		f.capacity.SetSold(1, "2026-05-02", 4)

		_, err := f.svc.ClaimRange(ctx, 1, day(1), day(3), 3)

		require.ErrorIs(t, err, domain.ErrCapacityExceeded)
		assert.Equal(t, []int{2, 4}, soldOn(t, f, 1, keys...))
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AllocationsTotal.WithLabelValues(allocator.ShapeDateRange, "claim", "rejected")))
	})

	t.Run("three existing bookings leave room for two more", func(t *testing.T) {
		f := newFixture()
		for _, key := range keys {
			openRange(t, f, 1, key, 5)
		}
		f.capacity.SetSold(1, "2026-05-01", 3)

		_, err := f.svc.ClaimRange(ctx, 1, day(1), day(3), 3)
		require.ErrorIs(t, err, domain.ErrCapacityExceeded)

		_, err = f.svc.ClaimRange(ctx, 1, day(1), day(3), 2)
		require.NoError(t, err)
		assert.Equal(t, []int{5, 2}, soldOn(t, f, 1, keys...))
	})

	t.Run("missing inventory row is sold out", func(t *testing.T) {
		f := newFixture()
		openRange(t, f, 1, "2026-05-01", 5)

		_, err := f.svc.ClaimRange(ctx, 1, day(1), day(3), 1)

		require.ErrorIs(t, err, domain.ErrCapacityExceeded)
		assert.Equal(t, []int{0}, soldOn(t, f, 1, "2026-05-01"))
	})
}

func TestClaimRange_InvalidRequest(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.ClaimRange(ctx, 1, day(3), day(3), 1)
	assert.ErrorIs(t, err, allocator.ErrInvalidRequest)

	_, err = f.svc.ClaimRange(ctx, 1, day(1), day(3), 0)
	assert.ErrorIs(t, err, allocator.ErrInvalidRequest)

	_, err = f.svc.ClaimRange(ctx, 1, day(1), day(1).AddDate(0, 0, domain.MaxRangeNights+1), 1)
	assert.ErrorIs(t, err, allocator.ErrInvalidRequest)
}

func TestOpenInventory(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	counters, err := f.svc.OpenInventory(ctx, 1, day(1), day(4), 5)
	require.NoError(t, err)
	require.Len(t, counters, 3)

	_, err = f.svc.ClaimRange(ctx, 1, day(2), day(3), 4)
	require.NoError(t, err)

	_, err = f.svc.OpenInventory(ctx, 1, day(1), day(4), 3)
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Equal(t, []int{0, 4, 0}, soldOn(t, f, 1, "2026-05-01", "2026-05-02", "2026-05-03"))

	counters, err = f.svc.OpenInventory(ctx, 1, day(2), day(3), 10)
	require.NoError(t, err)
	assert.Equal(t, 6, counters[0].Free())
}

func TestReleaseRange(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	openRange(t, f, 1, "2026-05-01", 5)
	openRange(t, f, 1, "2026-05-02", 5)

	_, err := f.svc.ClaimRange(ctx, 1, day(1), day(3), 2)
	require.NoError(t, err)

	_, err = f.svc.ReleaseRange(ctx, 1, day(1), day(3), 2)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, soldOn(t, f, 1, "2026-05-01", "2026-05-02"))

	_, err = f.svc.ReleaseRange(ctx, 1, day(1), day(3), 1)
	assert.ErrorIs(t, err, domain.ErrInvalidRelease)
	assert.Equal(t, []int{0, 0}, soldOn(t, f, 1, "2026-05-01", "2026-05-02"))
}

func TestClaimRange_ConcurrentNeverOversells(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	const capacity = 7
	for d := 1; d <= 4; d++ {
		openRange(t, f, 1, domain.DateKey(day(d)), capacity)
	}

	var wg sync.WaitGroup
	var succeeded atomic.Int64
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Пересекающиеся диапазоны, чтобы захваты конкурировали за общие даты
			from := 1 + i%2
			_, err := f.svc.ClaimRange(ctx, 1, day(from), day(from+2), 1)
			if err == nil {
				succeeded.Add(1)
				return
			}
			assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
		}(i)
	}
	wg.Wait()

	counters, err := f.capacity.GetCounters(ctx, 1, []string{"2026-05-01", "2026-05-02", "2026-05-03", "2026-05-04"})
	require.NoError(t, err)
	for _, c := range counters {
		assert.LessOrEqual(t, c.SoldCount, capacity)
		assert.NoError(t, c.CheckInvariant())
	}
	// 2026-05-02 входит во все диапазоны
	assert.Equal(t, capacity, counters[1].SoldCount)
	assert.Equal(t, int64(capacity), succeeded.Load())
}

func TestClaimSlot_ConcurrentClaimsAndReleases(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	start := types.MustParseMinutes("10:00")
	const capacity = 4

	var wg sync.WaitGroup
	var claimed atomic.Int64
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			counter, err := f.svc.ClaimSlot(ctx, 9, day(1), start, capacity, 1)
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
				return
			}
			assert.LessOrEqual(t, counter.SoldCount, capacity)
			claimed.Add(1)
			if claimed.Load()%2 == 0 {
				_, err := f.svc.ReleaseSlot(ctx, 9, day(1), start, 1)
				if err == nil {
					claimed.Add(-1)
				}
			}
		}()
	}
	wg.Wait()

	counter, err := f.svc.ClaimSlot(ctx, 9, day(1), start, capacity, 0)
	assert.ErrorIs(t, err, allocator.ErrInvalidRequest)
	assert.Zero(t, counter.SoldCount)

	counters, err := f.capacity.GetCounters(ctx, 9, []string{domain.SlotKey(day(1), start)})
	require.NoError(t, err)
	require.Len(t, counters, 1)
	assert.LessOrEqual(t, counters[0].SoldCount, capacity)
	assert.GreaterOrEqual(t, counters[0].SoldCount, 0)
}

func TestReleaseSlot_NeverBelowZero(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	start := types.MustParseMinutes("10:00")

	_, err := f.svc.ClaimSlot(ctx, 9, day(1), start, 1, 1)
	require.NoError(t, err)
	_, err = f.svc.ClaimSlot(ctx, 9, day(1), start, 1, 1)
	require.ErrorIs(t, err, domain.ErrCapacityExceeded)

	counter, err := f.svc.ReleaseSlot(ctx, 9, day(1), start, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, counter.SoldCount)

	_, err = f.svc.ReleaseSlot(ctx, 9, day(1), start, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidRelease)
}

func TestSeatLease_TTL(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.svc.OpenShowtime(ctx, 100, []string{"A1", "A2", "A3"}))

	result, err := f.svc.ReserveSeats(ctx, 100, []string{"A2", "A1"}, "h-1")
	require.NoError(t, err)
	require.NotNil(t, result.LeaseExpiry)
	assert.Equal(t, reservedAt.Add(10*time.Minute), *result.LeaseExpiry)

	f.clock.Advance(9 * time.Minute)
	seats, err := f.svc.GetSeats(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, domain.SeatReserved, seats[0].Status)
	assert.Equal(t, domain.SeatReserved, seats[1].Status)
	assert.Equal(t, domain.SeatAvailable, seats[2].Status)

	_, err = f.svc.ReserveSeats(ctx, 100, []string{"A1"}, "h-2")
	assert.ErrorIs(t, err, domain.ErrSeatUnavailable)

	f.clock.Set(reservedAt.Add(10*time.Minute + time.Millisecond))
	seats, err = f.svc.GetSeats(ctx, 100)
	require.NoError(t, err)
	for _, seat := range seats {
		assert.Equal(t, domain.SeatAvailable, seat.Status, "seat %s", seat.SeatID)
		assert.Empty(t, seat.Holder)
	}

	_, err = f.svc.FinalizeSeats(ctx, 100, []string{"A1", "A2"}, "h-1")
	assert.ErrorIs(t, err, domain.ErrLeaseExpired)

	_, err = f.svc.ReserveSeats(ctx, 100, []string{"A1"}, "h-2")
	assert.NoError(t, err)
}

func TestFinalizeSeats(t *testing.T) {
	ctx := context.Background()

	t.Run("books own lease and repeats as no-op", func(t *testing.T) {
		f := newFixture()
		require.NoError(t, f.svc.OpenShowtime(ctx, 100, []string{"A1", "A2"}))
		_, err := f.svc.ReserveSeats(ctx, 100, []string{"A1", "A2"}, "h-1")
		require.NoError(t, err)

		result, err := f.svc.FinalizeSeats(ctx, 100, []string{"A1", "A2"}, "h-1")
		require.NoError(t, err)
		assert.True(t, result.Changed)

		again, err := f.svc.FinalizeSeats(ctx, 100, []string{"A2", "A1"}, "h-1")
		require.NoError(t, err)
		assert.False(t, again.Changed)

		f.clock.Advance(time.Hour)
		seats, err := f.svc.GetSeats(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, domain.SeatBooked, seats[0].Status)
	})

	t.Run("partial foreign seat fails whole batch", func(t *testing.T) {
		f := newFixture()
		require.NoError(t, f.svc.OpenShowtime(ctx, 100, []string{"A1", "A2"}))
		_, err := f.svc.ReserveSeats(ctx, 100, []string{"A1"}, "h-1")
		require.NoError(t, err)
		_, err = f.svc.ReserveSeats(ctx, 100, []string{"A2"}, "h-2")
		require.NoError(t, err)

		_, err = f.svc.FinalizeSeats(ctx, 100, []string{"A1", "A2"}, "h-1")
		require.ErrorIs(t, err, domain.ErrSeatUnavailable)

		seats, err := f.svc.GetSeats(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, domain.SeatReserved, seats[0].Status, "own lease must stay reserved, not booked")
	})

	t.Run("unknown seat is unavailable", func(t *testing.T) {
		f := newFixture()
		require.NoError(t, f.svc.OpenShowtime(ctx, 100, []string{"A1"}))

		_, err := f.svc.ReserveSeats(ctx, 100, []string{"Z9"}, "h-1")
		assert.ErrorIs(t, err, domain.ErrSeatUnavailable)
	})

	t.Run("duplicate seat ids are rejected", func(t *testing.T) {
		f := newFixture()
		require.NoError(t, f.svc.OpenShowtime(ctx, 100, []string{"A1"}))

		_, err := f.svc.ReserveSeats(ctx, 100, []string{"A1", "A1"}, "h-1")
		assert.ErrorIs(t, err, allocator.ErrInvalidRequest)
	})
}

func TestReserveSeats_ConcurrentSingleWinner(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.svc.OpenShowtime(ctx, 100, []string{"A1", "A2", "A3"}))

	var wg sync.WaitGroup
	var winners atomic.Int64
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Разный порядок мест в запросах не должен приводить к взаимной блокировке
			seats := []string{"A1", "A2", "A3"}
			if i%2 == 1 {
				seats = []string{"A3", "A2", "A1"}
			}
			_, err := f.svc.ReserveSeats(ctx, 100, seats, fmt.Sprintf("h-%d", i))
			if err == nil {
				winners.Add(1)
				return
			}
			assert.ErrorIs(t, err, domain.ErrSeatUnavailable)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), winners.Load())
}

func TestReleaseSeatsAndSweep(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.svc.OpenShowtime(ctx, 100, []string{"A1", "A2", "A3"}))

	_, err := f.svc.ReserveSeats(ctx, 100, []string{"A1"}, "h-1")
	require.NoError(t, err)
	_, err = f.svc.ReserveSeats(ctx, 100, []string{"A2", "A3"}, "h-2")
	require.NoError(t, err)

	released, err := f.svc.ReleaseSeats(ctx, 100, []string{"A1"}, "h-1")
	require.NoError(t, err)
	assert.True(t, released.Changed)

	again, err := f.svc.ReleaseSeats(ctx, 100, []string{"A1"}, "h-1")
	require.NoError(t, err)
	assert.False(t, again.Changed)

	f.clock.Advance(11 * time.Minute)
	n, err := f.svc.SweepExpiredLeases(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.LeasesSwept))

	n, err = f.svc.SweepExpiredLeases(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

type brokenInventory struct {
	allocator.InventoryStore
	err error
}

func (b brokenInventory) ClaimRange(_ context.Context, resourceID int64, keys []string, qty int) ([]domain.CapacityCounter, error) {
	if b.err != nil {
		return nil, b.err
	}
	return []domain.CapacityCounter{{ResourceID: resourceID, PeriodKey: keys[0], TotalCapacity: 1, SoldCount: 1 + qty}}, nil
}

func TestClaimRange_InvariantViolationIsReported(t *testing.T) {
	m := metrics.New("allocator_test")
	svc := allocator.NewService(brokenInventory{}, nil, nil, clock.NewFixed(reservedAt), 0, m, nopLogger{})

	_, err := svc.ClaimRange(context.Background(), 1, day(1), day(2), 1)

	require.ErrorIs(t, err, domain.ErrInvariantViolation)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InvariantViolations.WithLabelValues(allocator.ShapeDateRange)))
}

func TestClaimRange_StoreErrorKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	svc := allocator.NewService(brokenInventory{err: cause}, nil, nil, clock.NewFixed(reservedAt), 0, metrics.New("allocator_test"), nopLogger{})

	_, err := svc.ClaimRange(context.Background(), 1, day(1), day(2), 1)

	require.ErrorIs(t, err, allocator.ErrStore)
	assert.ErrorIs(t, err, cause)
}

func TestReleaseBooking_ByKind(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	openRange(t, f, 1, "2026-05-01", 3)
	openRange(t, f, 1, "2026-05-02", 3)
	_, err := f.svc.ClaimRange(ctx, 1, day(1), day(3), 2)
	require.NoError(t, err)

	_, err = f.svc.ClaimSlot(ctx, 2, day(1), types.Minutes(540), 1, 1)
	require.NoError(t, err)

	require.NoError(t, f.svc.OpenShowtime(ctx, 9, []string{"A1", "A2"}))
	_, err = f.svc.ReserveSeats(ctx, 9, []string{"A1", "A2"}, "h-1")
	require.NoError(t, err)
	_, err = f.svc.FinalizeSeats(ctx, 9, []string{"A1", "A2"}, "h-1")
	require.NoError(t, err)

	showtimeID := int64(9)
	bookings := []*domain.Booking{
		{ID: 1, ResourceID: 1, Kind: domain.KindDateRange, CheckIn: day(1), CheckOut: day(3), Quantity: 2},
		{ID: 2, ResourceID: 2, Kind: domain.KindSlot, BookingDate: day(1), StartTime: 540},
		{ID: 3, Kind: domain.KindSeat, ShowtimeID: &showtimeID, SeatIDs: []string{"A1", "A2"}, Holder: "h-1", Quantity: 2},
	}
	for _, b := range bookings {
		require.NoError(t, f.svc.ReleaseBooking(ctx, b), "booking %d", b.ID)
	}

	assert.Equal(t, []int{0, 0}, soldOn(t, f, 1, "2026-05-01", "2026-05-02"))

	counter, err := f.svc.ClaimSlot(ctx, 2, day(1), types.Minutes(540), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, counter.SoldCount)

	seats, err := f.svc.GetSeats(ctx, 9)
	require.NoError(t, err)
	for _, seat := range seats {
		assert.Equal(t, domain.SeatAvailable, seat.Status)
	}

	err = f.svc.ReleaseBooking(ctx, &domain.Booking{ID: 4, Kind: domain.KindSeat})
	require.ErrorIs(t, err, allocator.ErrInvalidRequest)
}

func TestSharesTransaction(t *testing.T) {
	f := newFixture()
	for _, kind := range []domain.ResourceKind{domain.KindDateRange, domain.KindSlot, domain.KindSeat} {
		assert.False(t, f.svc.SharesTransaction(kind), kind)
	}

	counters := inventory.NewRepository(nil, nil)
	mixed := allocator.NewService(counters, counters, f.seats, f.clock, 0, f.metrics, nopLogger{})
	assert.True(t, mixed.SharesTransaction(domain.KindDateRange))
	assert.True(t, mixed.SharesTransaction(domain.KindSlot))
	assert.False(t, mixed.SharesTransaction(domain.KindSeat))

	sqlSeats := allocator.NewService(f.capacity, f.capacity, seats.NewRepository(nil, nil), f.clock, 0, f.metrics, nopLogger{})
	assert.True(t, sqlSeats.SharesTransaction(domain.KindSeat))
	assert.False(t, sqlSeats.SharesTransaction(domain.ResourceKind("unknown")))
}
