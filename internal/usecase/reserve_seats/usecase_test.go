package reserve_seats

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BookingEngine/internal/clock"
	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/storage/memory"
	"github.com/m04kA/SMC-BookingEngine/internal/service/allocator"
	configService "github.com/m04kA/SMC-BookingEngine/internal/service/config"
	"github.com/m04kA/SMC-BookingEngine/pkg/metrics"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeConfig map[int64]*domain.Showtime

func (f fakeConfig) GetShowtime(ctx context.Context, showtimeID int64) (*domain.Showtime, error) {
	s, ok := f[showtimeID]
	if !ok {
		return nil, configService.ErrShowtimeNotFound
	}
	return s, nil
}

var now = time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)

func newUseCase(t *testing.T) *UseCase {
	t.Helper()

	clk := clock.NewFixed(now)
	alloc := allocator.NewService(nil, nil, memory.NewSeatStore(), clk, 5*time.Minute, metrics.New("reserve_seats_test"), nopLogger{})
	require.NoError(t, alloc.OpenShowtime(context.Background(), 1, []string{"A1", "A2", "B1"}))
	require.NoError(t, alloc.OpenShowtime(context.Background(), 2, []string{"A1"}))

	cfg := fakeConfig{
		1: {ID: 1, ResourceID: 9, StartsAt: now.Add(2 * time.Hour)},
		2: {ID: 2, ResourceID: 9, StartsAt: now.Add(-time.Minute)},
	}
	return NewUseCase(cfg, alloc, clk, nopLogger{})
}

func TestExecute_HoldsSeats(t *testing.T) {
	uc := newUseCase(t)

	resp, err := uc.Execute(context.Background(), &Request{UserID: 1, ShowtimeID: 1, SeatIDs: []string{"A2", "A1"}})

	require.NoError(t, err)
	_, err = uuid.Parse(resp.Holder)
	require.NoError(t, err)
	assert.Equal(t, now.Add(5*time.Minute), resp.LeaseExpiry)
	require.Len(t, resp.Seats, 2)
	for _, seat := range resp.Seats {
		assert.Equal(t, domain.SeatReserved, seat.Status)
		assert.Equal(t, resp.Holder, seat.Holder)
	}

	_, err = uc.Execute(context.Background(), &Request{UserID: 2, ShowtimeID: 1, SeatIDs: []string{"A1", "B1"}})
	require.ErrorIs(t, err, domain.ErrSeatUnavailable)
}

func TestExecute_Rejections(t *testing.T) {
	uc := newUseCase(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     *Request
		wantErr error
	}{
		{name: "no seats", req: &Request{UserID: 1, ShowtimeID: 1}, wantErr: ErrInvalidInput},
		{name: "unknown showtime", req: &Request{UserID: 1, ShowtimeID: 7, SeatIDs: []string{"A1"}}, wantErr: ErrShowtimeNotFound},
		{name: "started showtime", req: &Request{UserID: 1, ShowtimeID: 2, SeatIDs: []string{"A1"}}, wantErr: ErrShowtimeStarted},
		{name: "duplicate seat", req: &Request{UserID: 1, ShowtimeID: 1, SeatIDs: []string{"A1", "A1"}}, wantErr: ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(ctx, tt.req)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
