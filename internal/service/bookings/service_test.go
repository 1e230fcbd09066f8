package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	bookingRepo "github.com/m04kA/SMC-BookingEngine/internal/infra/storage/booking"
	"github.com/m04kA/SMC-BookingEngine/internal/service/bookings/models"
	"github.com/m04kA/SMC-BookingEngine/pkg/ptr"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeRepo struct {
	bookings   []*domain.Booking
	lastFilter domain.BookingsFilter
}

func (f *fakeRepo) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	for _, b := range f.bookings {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, bookingRepo.ErrBookingNotFound
}

func (f *fakeRepo) GetByUserID(ctx context.Context, userID int64, status *domain.BookingStatus) ([]*domain.Booking, error) {
	var out []*domain.Booking
	for _, b := range f.bookings {
		if b.UserID == userID && (status == nil || b.Status == *status) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetByResourceWithFilter(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	f.lastFilter = filter
	return f.bookings, nil
}

func seedBookings() []*domain.Booking {
	cancelledAt := time.Date(2026, 4, 30, 8, 0, 0, 0, time.UTC)
	return []*domain.Booking{
		{ID: 1, UserID: 7, Kind: domain.KindSlot, BookingDate: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), StartTime: 615, DurationMinutes: 60, Status: domain.StatusConfirmed},
		{ID: 2, UserID: 7, Kind: domain.KindDateRange, CheckIn: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), CheckOut: time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC), Status: domain.StatusCancelled, CancelledAt: &cancelledAt, RefundMinor: ptr.Ptr(int64(5000))},
		{ID: 3, UserID: 8, Kind: domain.KindSeat, ShowtimeID: ptr.Ptr(int64(4)), SeatIDs: []string{"B7"}, Status: domain.StatusPending},
	}
}

func TestService_GetByID(t *testing.T) {
	svc := NewService(&fakeRepo{bookings: seedBookings()}, nopLogger{})
	ctx := context.Background()

	resp, err := svc.GetByID(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, "2026-05-01", *resp.BookingDate)
	assert.Equal(t, "10:15", *resp.StartTime)
	assert.Nil(t, resp.CheckIn)

	resp, err = svc.GetByID(ctx, 2, 7)
	require.NoError(t, err)
	assert.Equal(t, "2026-05-03", *resp.CheckOut)
	assert.Equal(t, "2026-04-30T08:00:00Z", *resp.CancelledAt)
	assert.Equal(t, int64(5000), *resp.RefundMinor)

	_, err = svc.GetByID(ctx, 3, 7)
	require.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.GetByID(ctx, 99, 7)
	require.ErrorIs(t, err, ErrBookingNotFound)
}

func TestService_GetUserBookings(t *testing.T) {
	svc := NewService(&fakeRepo{bookings: seedBookings()}, nopLogger{})
	ctx := context.Background()

	all, err := svc.GetUserBookings(ctx, &models.GetUserBookingsRequest{UserID: 7})
	require.NoError(t, err)
	assert.Len(t, all.Bookings, 2)

	cancelled, err := svc.GetUserBookings(ctx, &models.GetUserBookingsRequest{UserID: 7, Status: ptr.Ptr("cancelled")})
	require.NoError(t, err)
	require.Len(t, cancelled.Bookings, 1)
	assert.Equal(t, int64(2), cancelled.Bookings[0].ID)

	_, err = svc.GetUserBookings(ctx, &models.GetUserBookingsRequest{UserID: 7, Status: ptr.Ptr("no_show")})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_GetResourceBookings(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, nopLogger{})

	resp, err := svc.GetResourceBookings(context.Background(), &models.GetResourceBookingsRequest{
		ResourceID:      4,
		Status:          ptr.Ptr("confirmed"),
		IncludeInactive: true,
	})

	require.NoError(t, err)
	assert.NotNil(t, resp.Bookings)
	assert.Equal(t, int64(4), repo.lastFilter.ResourceID)
	assert.Equal(t, domain.StatusConfirmed, *repo.lastFilter.Status)
	assert.True(t, repo.lastFilter.IncludeInactive)
}
