package config

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-BookingEngine/pkg/types"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(dbmetrics.Wrap(db, nil, "test")), mock
}

func TestRepository_GetResource(t *testing.T) {
	ctx := context.Background()

	t.Run("scans active resource", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		now := time.Now()

		mock.ExpectQuery(regexp.QuoteMeta("FROM resources WHERE id = $1 AND is_active = $2")).
			WithArgs(int64(3), true).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "store_id", "vertical", "kind", "name", "duration_minutes", "buffer_minutes",
				"capacity", "base_price_minor", "check_in_time", "min_booking_notice_minutes",
				"advance_booking_days", "is_active", "created_at", "updated_at",
			}).AddRow(3, 1, "services", "slot", "Haircut", 60, 15, 1, 2500, nil, 30, 14, true, now, now))

		resource, err := repo.GetResource(ctx, 3)

		require.NoError(t, err)
		assert.Equal(t, domain.KindSlot, resource.Kind)
		assert.Equal(t, domain.VerticalServices, resource.Vertical)
		assert.Equal(t, 75, resource.BlockMinutes())
		assert.Equal(t, 30, resource.MinBookingNoticeMinutes)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectQuery("FROM resources").WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetResource(ctx, 3)

		require.ErrorIs(t, err, ErrResourceNotFound)
	})
}

func TestRepository_GetWorkingHours(t *testing.T) {
	ctx := context.Background()

	t.Run("weekday row wins and breaks are attached", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectQuery(regexp.QuoteMeta("FROM working_hours WHERE resource_id = $1 AND (day_of_week = $2 OR day_of_week IS NULL) ORDER BY day_of_week ASC NULLS LAST LIMIT 1")).
			WithArgs(int64(3), int(time.Friday)).
			WillReturnRows(sqlmock.NewRows([]string{"start_time", "end_time"}).AddRow(int64(540), int64(1080)))
		mock.ExpectQuery(regexp.QuoteMeta("FROM working_breaks")).
			WithArgs(int64(3), int(time.Friday)).
			WillReturnRows(sqlmock.NewRows([]string{"start_time", "end_time", "name"}).AddRow("13:00:00", "14:00:00", "lunch"))

		hours, err := repo.GetWorkingHours(ctx, 3, time.Friday)

		require.NoError(t, err)
		assert.Equal(t, types.Minutes(540), hours.Start)
		assert.Equal(t, types.Minutes(1080), hours.End)
		require.Len(t, hours.Breaks, 1)
		assert.Equal(t, types.Minutes(780), hours.Breaks[0].Start)
		assert.Equal(t, "lunch", hours.Breaks[0].Name)
		assert.NoError(t, hours.Validate())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("closed day", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectQuery("FROM working_hours").WillReturnRows(sqlmock.NewRows([]string{"start_time", "end_time"}))

		_, err := repo.GetWorkingHours(ctx, 3, time.Sunday)

		require.ErrorIs(t, err, ErrWorkingHoursNotFound)
	})
}

func TestRepository_GetPeakRules(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY priority ASC, id ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"start_time", "end_time", "multiplier", "name"}).
			AddRow(int64(1020), int64(1260), "1.5", "evening").
			AddRow(int64(1080), int64(1200), "2", nil))

	rules, err := repo.GetPeakRules(context.Background(), 3, time.Saturday)

	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.True(t, rules[0].Multiplier.Equal(decimal.RequireFromString("1.5")))
	assert.Equal(t, "evening", rules[0].Name)
	assert.Empty(t, rules[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetCancellationPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("resource override", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectQuery("FROM cancellation_policy_tiers").
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"min_minutes_before", "refund_fraction"}).
				AddRow(1440, "1").
				AddRow(120, "0.5"))

		policy, found, err := repo.GetCancellationPolicy(ctx, 3)

		require.NoError(t, err)
		assert.True(t, found)
		require.Len(t, policy.Tiers, 2)
		assert.Equal(t, 2*time.Hour, policy.Tiers[1].MinBeforeEvent)
		assert.NoError(t, policy.Validate())
	})

	t.Run("no override", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectQuery("FROM cancellation_policy_tiers").
			WillReturnRows(sqlmock.NewRows([]string{"min_minutes_before", "refund_fraction"}))

		_, found, err := repo.GetCancellationPolicy(ctx, 3)

		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestRepository_GetShowtime(t *testing.T) {
	repo, mock := newMockRepository(t)
	startsAt := time.Date(2026, 5, 1, 19, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM showtimes").
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "resource_id", "starts_at", "price_minor"}).AddRow(8, 4, startsAt, 1200))

	showtime, err := repo.GetShowtime(context.Background(), 8)

	require.NoError(t, err)
	assert.Equal(t, int64(4), showtime.ResourceID)
	assert.Equal(t, startsAt, showtime.StartsAt)
}

func TestRepository_GetSeatSections(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM seat_sections WHERE resource_id = $1 ORDER BY position ASC, section_id ASC")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"section_id", "name", "rows", "price_multiplier"}).
			AddRow("premium", "Premium", "{H,J}", "1.5").
			AddRow("front", nil, "{A}", "0.8"))

	sections, err := repo.GetSeatSections(context.Background(), 4)

	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "premium", sections[0].ID)
	assert.Equal(t, "Premium", sections[0].Name)
	assert.Equal(t, []string{"H", "J"}, sections[0].Rows)
	assert.True(t, decimal.RequireFromString("1.5").Equal(sections[0].Multiplier))
	assert.Empty(t, sections[1].Name)
	assert.True(t, decimal.RequireFromString("0.8").Equal(sections[1].Multiplier))
	require.NoError(t, mock.ExpectationsWereMet())
}
