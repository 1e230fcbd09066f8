package open_inventory

import (
	"context"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

type ConfigService interface {
	GetResource(ctx context.Context, resourceID int64) (*domain.Resource, error)
}

type Allocator interface {
	OpenInventory(ctx context.Context, resourceID int64, from, to time.Time, total int) ([]domain.CapacityCounter, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
