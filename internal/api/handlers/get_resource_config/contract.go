package get_resource_config

import (
	"context"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	configService "github.com/m04kA/SMC-BookingEngine/internal/service/config"
)

type ConfigService interface {
	GetResourceConfig(ctx context.Context, resourceID int64, date time.Time) (*configService.ResourceConfig, error)
	GetCancellationPolicy(ctx context.Context, resource *domain.Resource) (domain.CancellationPolicy, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
