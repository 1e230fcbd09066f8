package txmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BookingEngine/pkg/dbmetrics"
)

type fakeTx struct {
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *fakeTx) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, nil
}

func (t *fakeTx) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, nil
}

func (t *fakeTx) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	return nil
}

func (t *fakeTx) Commit() error {
	t.committed = true
	return t.commitErr
}

func (t *fakeTx) Rollback() error {
	t.rolledBack = true
	return nil
}

type fakeBeginner struct {
	txs  []*fakeTx
	opts []*sql.TxOptions
}

func (b *fakeBeginner) BeginTx(_ context.Context, opts *sql.TxOptions) (dbmetrics.TxExecutor, error) {
	tx := &fakeTx{}
	b.txs = append(b.txs, tx)
	b.opts = append(b.opts, opts)
	return tx, nil
}

func TestTransactionManager_CommitAndRollback(t *testing.T) {
	ctx := context.Background()

	t.Run("commits on success and exposes tx in context", func(t *testing.T) {
		db := &fakeBeginner{}
		m := NewTransactionManager(db)

		err := m.Do(ctx, func(txCtx context.Context) error {
			assert.True(t, dbmetrics.IsInTransaction(txCtx))
			return nil
		})
		require.NoError(t, err)
		require.Len(t, db.txs, 1)
		assert.True(t, db.txs[0].committed)
		assert.False(t, db.txs[0].rolledBack)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db := &fakeBeginner{}
		m := NewTransactionManager(db)
		boom := errors.New("boom")

		err := m.Do(ctx, func(context.Context) error { return boom })
		require.ErrorIs(t, err, boom)
		assert.True(t, db.txs[0].rolledBack)
		assert.False(t, db.txs[0].committed)
	})

	t.Run("nested call reuses outer transaction", func(t *testing.T) {
		db := &fakeBeginner{}
		m := NewTransactionManager(db)

		err := m.DoSerializable(ctx, func(txCtx context.Context) error {
			return m.Do(txCtx, func(context.Context) error { return nil })
		})
		require.NoError(t, err)
		assert.Len(t, db.txs, 1)
		assert.Equal(t, sql.LevelSerializable, db.opts[0].Isolation)
	})
}

func TestTransactionManager_RetriesSerializationFailure(t *testing.T) {
	db := &fakeBeginner{}
	m := NewTransactionManager(db)

	calls := 0
	err := m.DoSerializable(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("claim: %w", &pq.Error{Code: serializationFailure})
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, db.txs, 3)
}

func TestTransactionManager_DoesNotRetryBusinessErrors(t *testing.T) {
	db := &fakeBeginner{}
	m := NewTransactionManager(db)
	soldOut := errors.New("sold out")

	calls := 0
	err := m.DoSerializable(context.Background(), func(context.Context) error {
		calls++
		return soldOut
	})

	require.ErrorIs(t, err, soldOut)
	assert.Equal(t, 1, calls)
}
