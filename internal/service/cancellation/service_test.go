package cancellation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BookingEngine/internal/clock"
	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	bookingRepo "github.com/m04kA/SMC-BookingEngine/internal/infra/storage/booking"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/storage/memory"
	"github.com/m04kA/SMC-BookingEngine/internal/integrations/events"
	"github.com/m04kA/SMC-BookingEngine/internal/integrations/payments"
	"github.com/m04kA/SMC-BookingEngine/internal/service/allocator"
	"github.com/m04kA/SMC-BookingEngine/internal/service/cancellation"
	"github.com/m04kA/SMC-BookingEngine/pkg/metrics"
	"github.com/m04kA/SMC-BookingEngine/pkg/txmanager"
	"github.com/m04kA/SMC-BookingEngine/pkg/types"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeBookings struct {
	mu       sync.Mutex
	bookings map[int64]*domain.Booking
}

func (f *fakeBookings) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookings) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return f.GetByIDForUpdate(ctx, id)
}

func (f *fakeBookings) Cancel(ctx context.Context, id int64, reason string, refundMinor int64, cancelledAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.bookings[id]
	if b.IsCancelled() {
		return bookingRepo.ErrAlreadyCancelled
	}
	b.Status = domain.StatusCancelled
	b.CancellationReason = &reason
	b.RefundMinor = &refundMinor
	b.CancelledAt = &cancelledAt
	return nil
}

func (f *fakeBookings) snapshot() map[int64]domain.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := make(map[int64]domain.Booking, len(f.bookings))
	for id, b := range f.bookings {
		rows[id] = *b
	}
	return rows
}

func (f *fakeBookings) restore(rows map[int64]domain.Booking) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings = make(map[int64]*domain.Booking, len(rows))
	for id, b := range rows {
		cp := b
		f.bookings[id] = &cp
	}
}

// conflictOnCommitTx ведет себя как DoSerializable, у которого первые failures коммитов
// завершились конфликтом сериализации: записи откатываются, функция выполняется заново
type conflictOnCommitTx struct {
	bookings *fakeBookings
	failures int
	attempts int
}

func (tx *conflictOnCommitTx) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	for {
		tx.attempts++
		rows := tx.bookings.snapshot()
		if err := fn(ctx); err != nil {
			tx.bookings.restore(rows)
			return err
		}
		if tx.failures == 0 {
			return nil
		}
		tx.failures--
		tx.bookings.restore(rows)
	}
}

type fakeConfig struct{}

func (fakeConfig) GetResource(ctx context.Context, resourceID int64) (*domain.Resource, error) {
	return &domain.Resource{ID: resourceID, Vertical: domain.VerticalServices, Kind: domain.KindSlot, DurationMinutes: 60, Capacity: 1}, nil
}

func (fakeConfig) GetCancellationPolicy(ctx context.Context, resource *domain.Resource) (domain.CancellationPolicy, error) {
	return domain.DefaultCancellationPolicy(), nil
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(ctx context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

type failingGateway struct{}

func (failingGateway) Refund(ctx context.Context, req payments.RefundRequest) (*payments.Result, error) {
	return nil, errors.New("gateway timeout")
}

var eventStart = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc       *cancellation.Service
	alloc     *allocator.Service
	bookings  *fakeBookings
	gateway   *payments.Fake
	published *recorder
	metrics   *metrics.Metrics
}

func newFixture(t *testing.T, now time.Time, gateway cancellation.PaymentGateway) *fixture {
	t.Helper()
	capacity := memory.NewCapacityStore()
	clk := clock.NewFixed(now)
	m := metrics.New("cancellation_test")

	f := &fixture{
		alloc:     allocator.NewService(capacity, capacity, memory.NewSeatStore(), clk, 0, m, nopLogger{}),
		bookings:  &fakeBookings{bookings: map[int64]*domain.Booking{}},
		gateway:   payments.NewFake(),
		published: &recorder{},
		metrics:   m,
	}
	if gateway == nil {
		gateway = f.gateway
	}

	_, err := f.alloc.ClaimSlot(context.Background(), 10, eventStart, types.Minutes(540), 1, 1)
	require.NoError(t, err)
	f.bookings.bookings[1] = &domain.Booking{
		ID: 1, ResourceID: 10, UserID: 7, Kind: domain.KindSlot,
		BookingDate: domain.TruncateToDate(eventStart), StartTime: 540, DurationMinutes: 60,
		Quantity: 1, AmountMinor: 10001, EventStart: eventStart, Status: domain.StatusConfirmed,
	}

	f.svc = cancellation.NewService(f.bookings, fakeConfig{}, f.alloc, gateway, f.published,
		txmanager.Noop{}, clk, f.metrics, nopLogger{})
	return f
}

// slotIsFree проверяет, что вместимость слота вернулась (повторный захват успешен)
func slotIsFree(t *testing.T, f *fixture) bool {
	t.Helper()
	_, err := f.alloc.ClaimSlot(context.Background(), 10, eventStart, types.Minutes(540), 1, 1)
	if errors.Is(err, domain.ErrCapacityExceeded) {
		return false
	}
	require.NoError(t, err)
	return true
}

func TestCancel_FullRefundReleasesCapacity(t *testing.T) {
	f := newFixture(t, eventStart.Add(-24*time.Hour), nil)

	res, err := f.svc.Cancel(context.Background(), cancellation.Request{BookingID: 1, UserID: 7, Reason: " changed plans "})

	require.NoError(t, err)
	assert.Equal(t, int64(10001), res.Decision.RefundMinor)
	assert.True(t, res.Decision.ReleaseCapacity)
	assert.True(t, res.RefundRequested)
	assert.Equal(t, domain.StatusCancelled, res.Booking.Status)
	assert.Equal(t, "changed plans", *res.Booking.CancellationReason)

	refunds := f.gateway.Refunds()
	require.Len(t, refunds, 1)
	assert.Equal(t, int64(10001), refunds["booking:1:refund"].AmountMinor)

	require.Len(t, f.published.events, 1)
	assert.Equal(t, events.TypeBookingCancelled, f.published.events[0].Type)

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.RefundsTotal.WithLabelValues("slot", "1")))
	assert.True(t, slotIsFree(t, f))
}

func TestCancel_SecondCancelIsNoop(t *testing.T) {
	f := newFixture(t, eventStart.Add(-10*time.Hour), nil)
	ctx := context.Background()

	first, err := f.svc.Cancel(ctx, cancellation.Request{BookingID: 1, UserID: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), first.Decision.RefundMinor)

	// Слот снова занят другим клиентом: повторная отмена не должна его освободить
	require.True(t, slotIsFree(t, f))

	second, err := f.svc.Cancel(ctx, cancellation.Request{BookingID: 1, UserID: 7})

	require.NoError(t, err)
	assert.True(t, second.Decision.AlreadyCancelled)
	assert.False(t, second.Decision.ReleaseCapacity)
	assert.Equal(t, int64(5000), second.Decision.RefundMinor)
	assert.Len(t, f.gateway.Refunds(), 1)
	assert.Len(t, f.published.events, 1)
	assert.False(t, slotIsFree(t, f))
}

func TestCancel_CommitRetryReleasesOnce(t *testing.T) {
	now := eventStart.Add(-24 * time.Hour)
	f := newFixture(t, now, nil)
	tx := &conflictOnCommitTx{bookings: f.bookings, failures: 1}
	svc := cancellation.NewService(f.bookings, fakeConfig{}, f.alloc, f.gateway, f.published,
		tx, clock.NewFixed(now), f.metrics, nopLogger{})

	res, err := svc.Cancel(context.Background(), cancellation.Request{BookingID: 1, UserID: 7})

	require.NoError(t, err)
	assert.Equal(t, 2, tx.attempts)
	assert.Equal(t, domain.StatusCancelled, res.Booking.Status)
	assert.Len(t, f.gateway.Refunds(), 1)

	// Место освобождено ровно одно: первый захват проходит, второй упирается во вместимость
	assert.True(t, slotIsFree(t, f))
	assert.False(t, slotIsFree(t, f))
}

func TestCancel_LateCancellation(t *testing.T) {
	f := newFixture(t, eventStart.Add(-(5*time.Hour + 59*time.Minute)), nil)

	res, err := f.svc.Cancel(context.Background(), cancellation.Request{BookingID: 1, UserID: 7})

	require.NoError(t, err)
	assert.Zero(t, res.Decision.RefundMinor)
	assert.False(t, res.RefundRequested)
	assert.Empty(t, f.gateway.Refunds())
	assert.True(t, slotIsFree(t, f))
}

func TestCancel_RefundFailureKeepsCancellation(t *testing.T) {
	f := newFixture(t, eventStart.Add(-48*time.Hour), failingGateway{})

	res, err := f.svc.Cancel(context.Background(), cancellation.Request{BookingID: 1, UserID: 7})

	require.NoError(t, err)
	assert.False(t, res.RefundRequested)
	assert.True(t, f.bookings.bookings[1].IsCancelled())
}

func TestCancel_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("not the owner", func(t *testing.T) {
		f := newFixture(t, eventStart.Add(-48*time.Hour), nil)

		_, err := f.svc.Cancel(ctx, cancellation.Request{BookingID: 1, UserID: 8})

		require.ErrorIs(t, err, cancellation.ErrAccessDenied)
		assert.False(t, f.bookings.bookings[1].IsCancelled())
		assert.False(t, slotIsFree(t, f))
	})

	t.Run("unknown booking", func(t *testing.T) {
		f := newFixture(t, eventStart.Add(-48*time.Hour), nil)

		_, err := f.svc.Cancel(ctx, cancellation.Request{BookingID: 2, UserID: 7})

		require.ErrorIs(t, err, cancellation.ErrBookingNotFound)
	})

	t.Run("reason too long", func(t *testing.T) {
		f := newFixture(t, eventStart.Add(-48*time.Hour), nil)
		long := make([]byte, domain.MaxCancellationReason+1)
		for i := range long {
			long[i] = 'x'
		}

		_, err := f.svc.Cancel(ctx, cancellation.Request{BookingID: 1, UserID: 7, Reason: string(long)})

		require.ErrorIs(t, err, cancellation.ErrInvalidInput)
	})
}

func TestQuote_PreviewsRefundWithoutCancelling(t *testing.T) {
	f := newFixture(t, eventStart.Add(-10*time.Hour), nil)
	ctx := context.Background()

	quote, err := f.svc.Quote(ctx, 1, 7)

	require.NoError(t, err)
	assert.Equal(t, int64(5000), quote.Decision.RefundMinor)
	assert.Equal(t, "0.5", quote.Decision.Fraction.String())
	assert.False(t, quote.Decision.AlreadyCancelled)
	assert.False(t, f.bookings.bookings[1].IsCancelled())
	assert.Empty(t, f.gateway.Refunds())
	assert.Empty(t, f.published.events)
	assert.False(t, slotIsFree(t, f))

	_, err = f.svc.Cancel(ctx, cancellation.Request{BookingID: 1, UserID: 7})
	require.NoError(t, err)

	quote, err = f.svc.Quote(ctx, 1, 7)
	require.NoError(t, err)
	assert.True(t, quote.Decision.AlreadyCancelled)
	assert.Equal(t, int64(5000), quote.Decision.RefundMinor)

	_, err = f.svc.Quote(ctx, 1, 8)
	require.ErrorIs(t, err, cancellation.ErrAccessDenied)

	_, err = f.svc.Quote(ctx, 2, 7)
	require.ErrorIs(t, err, cancellation.ErrBookingNotFound)
}
