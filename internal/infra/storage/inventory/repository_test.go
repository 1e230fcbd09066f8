package inventory

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-BookingEngine/pkg/txmanager"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	wrapped := dbmetrics.Wrap(db, nil, "test")
	return NewRepository(wrapped, txmanager.NewTransactionManager(wrapped)), mock
}

func counterRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"resource_id", "period_key", "total_capacity", "sold_count"})
}

func TestRepository_ClaimRange(t *testing.T) {
	ctx := context.Background()
	keys := []string{"2026-05-02", "2026-05-01"}

	t.Run("locks in key order and increments all rows", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT resource_id, period_key, total_capacity, sold_count FROM capacity_counters")+
			".*ORDER BY period_key FOR UPDATE").
			WithArgs("2026-05-01", "2026-05-02", int64(1)).
			WillReturnRows(counterRows().AddRow(1, "2026-05-01", 5, 2).AddRow(1, "2026-05-02", 5, 0))
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE capacity_counters SET sold_count = sold_count + $1")).
			WithArgs(3, "2026-05-01", "2026-05-02", int64(1)).
			WillReturnRows(counterRows().AddRow(1, "2026-05-02", 5, 3).AddRow(1, "2026-05-01", 5, 5))
		mock.ExpectCommit()

		counters, err := repo.ClaimRange(ctx, 1, keys, 3)

		require.NoError(t, err)
		require.Len(t, counters, 2)
		assert.Equal(t, "2026-05-01", counters[0].PeriodKey)
		assert.Equal(t, 5, counters[0].SoldCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when one night is short", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").
			WillReturnRows(counterRows().AddRow(1, "2026-05-01", 5, 2).AddRow(1, "2026-05-02", 5, 4))
		mock.ExpectRollback()

		_, err := repo.ClaimRange(ctx, 1, keys, 3)

		require.ErrorIs(t, err, domain.ErrCapacityExceeded)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row is sold out", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").
			WillReturnRows(counterRows().AddRow(1, "2026-05-01", 5, 0))
		mock.ExpectRollback()

		_, err := repo.ClaimRange(ctx, 1, keys, 1)

		require.ErrorIs(t, err, domain.ErrCapacityExceeded)
		assert.Contains(t, err.Error(), "2026-05-02")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_ClaimSlot(t *testing.T) {
	ctx := context.Background()

	t.Run("conditional update succeeds", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO capacity_counters") + ".*ON CONFLICT \\(resource_id, period_key\\) DO NOTHING").
			WithArgs(int64(9), "2026-05-01T10:00", 4, 0).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(regexp.QuoteMeta("sold_count + $4 <= total_capacity")).
			WillReturnRows(counterRows().AddRow(9, "2026-05-01T10:00", 4, 1))

		counter, err := repo.ClaimSlot(ctx, 9, "2026-05-01T10:00", 4, 1)

		require.NoError(t, err)
		assert.Equal(t, 1, counter.SoldCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no row updated means sold out", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectExec("INSERT INTO capacity_counters").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("UPDATE capacity_counters").WillReturnRows(counterRows())

		_, err := repo.ClaimSlot(ctx, 9, "2026-05-01T10:00", 4, 1)

		assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
	})
}

func TestRepository_ReleaseSlot_NoRowIsInvalidRelease(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("UPDATE capacity_counters").WillReturnRows(counterRows())

	_, err := repo.ReleaseSlot(context.Background(), 9, "2026-05-01T10:00", 1)

	assert.ErrorIs(t, err, domain.ErrInvalidRelease)
}

func TestRepository_OpenRange_RejectsShrinkBelowSold(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery("ON CONFLICT").
		WillReturnRows(counterRows().AddRow(1, "2026-05-01", 2, 0))
	mock.ExpectRollback()

	_, err := repo.OpenRange(context.Background(), 1, []string{"2026-05-01", "2026-05-02"}, 2)

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.NoError(t, mock.ExpectationsWereMet())
}
