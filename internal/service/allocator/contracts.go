package allocator

import (
	"context"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

// InventoryStore посуточные счетчики (номера отеля)
// ClaimRange и ReleaseRange изменяют все ключи атомарно или не изменяют ни одного
type InventoryStore interface {
	OpenRange(ctx context.Context, resourceID int64, periodKeys []string, total int) ([]domain.CapacityCounter, error)
	ClaimRange(ctx context.Context, resourceID int64, periodKeys []string, qty int) ([]domain.CapacityCounter, error)
	ReleaseRange(ctx context.Context, resourceID int64, periodKeys []string, qty int) ([]domain.CapacityCounter, error)
	GetCounters(ctx context.Context, resourceID int64, periodKeys []string) ([]domain.CapacityCounter, error)
}

// SlotCounterStore счетчики по слотам: одно условное изменение на ключ
// Счетчик создается при первом захвате с вместимостью total
type SlotCounterStore interface {
	ClaimSlot(ctx context.Context, resourceID int64, periodKey string, total, qty int) (domain.CapacityCounter, error)
	ReleaseSlot(ctx context.Context, resourceID int64, periodKey string, qty int) (domain.CapacityCounter, error)
}

// SeatStore места сеансов с временным удержанием
// Все пакетные операции атомарны: либо меняются все места, либо ни одно
type SeatStore interface {
	AddSeats(ctx context.Context, showtimeID int64, seatIDs []string) error
	Reserve(ctx context.Context, showtimeID int64, seatIDs []string, holder string, now, expiry time.Time) ([]domain.SeatLease, error)
	Finalize(ctx context.Context, showtimeID int64, seatIDs []string, holder string, now time.Time) (domain.SeatResult, error)
	Release(ctx context.Context, showtimeID int64, seatIDs []string, holder string, now time.Time) ([]domain.SeatLease, error)
	GetSeats(ctx context.Context, showtimeID int64, now time.Time) ([]domain.SeatLease, error)
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

// transactional реализуют хранилища, изменения которых откатываются вместе с SQL-транзакцией из контекста
// Хранилища без этого метода (память, Redis) применяют изменения сразу и навсегда
type transactional interface {
	Transactional() bool
}

// Clock источник текущего времени
type Clock interface {
	Now() time.Time
}

// Metrics счетчики операций аллокатора
type Metrics interface {
	IncAllocation(shape, operation, result string)
	IncInvariantViolation(shape string)
	AddLeasesSwept(n int)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
