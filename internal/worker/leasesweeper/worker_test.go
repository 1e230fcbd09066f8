package leasesweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeSweeper struct {
	calls atomic.Int32
	swept int
	err   error
}

func (f *fakeSweeper) SweepExpiredLeases(ctx context.Context) (int, error) {
	f.calls.Add(1)
	return f.swept, f.err
}

func TestSweepOnce(t *testing.T) {
	t.Run("returns swept count", func(t *testing.T) {
		w := NewWorker(&fakeSweeper{swept: 3}, time.Second, nopLogger{})
		assert.Equal(t, 3, w.SweepOnce(context.Background()))
	})

	t.Run("store error is swallowed", func(t *testing.T) {
		w := NewWorker(&fakeSweeper{swept: 3, err: errors.New("redis down")}, time.Second, nopLogger{})
		assert.Equal(t, 0, w.SweepOnce(context.Background()))
	})
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	sweeper := &fakeSweeper{}
	w := NewWorker(sweeper, 5*time.Millisecond, nopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return sweeper.calls.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestNewWorker_DefaultInterval(t *testing.T) {
	w := NewWorker(&fakeSweeper{}, 0, nopLogger{})
	assert.Equal(t, DefaultInterval, w.interval)
}
