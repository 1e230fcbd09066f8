package leasesweeper

import (
	"context"
	"time"
)

// DefaultInterval период обхода по умолчанию
const DefaultInterval = 30 * time.Second

// Worker периодически подметает истекшие удержания мест
// Истекшие удержания и без обхода считаются свободными; обход только приводит хранилище в порядок
type Worker struct {
	sweeper  Sweeper
	interval time.Duration
	logger   Logger
}

// NewWorker создает воркер; interval <= 0 заменяется на DefaultInterval
func NewWorker(sweeper Sweeper, interval time.Duration, logger Logger) *Worker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Worker{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger,
	}
}

// Run обходит хранилище каждые interval до отмены ctx
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("LeaseSweeper: started, interval=%s", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("LeaseSweeper: stopped")
			return
		case <-ticker.C:
			w.SweepOnce(ctx)
		}
	}
}

// SweepOnce один проход; ошибка логируется, следующий проход повторит попытку
func (w *Worker) SweepOnce(ctx context.Context) int {
	swept, err := w.sweeper.SweepExpiredLeases(ctx)
	if err != nil {
		w.logger.Error("LeaseSweeper: sweep failed: %v", err)
		return 0
	}
	if swept > 0 {
		w.logger.Info("LeaseSweeper: released %d expired leases", swept)
	}
	return swept
}
