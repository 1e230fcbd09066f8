package cancellation

import (
	"context"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/integrations/events"
	"github.com/m04kA/SMC-BookingEngine/internal/integrations/payments"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error)
	Cancel(ctx context.Context, id int64, reason string, refundMinor int64, cancelledAt time.Time) error
}

// ConfigService источник ресурса и его политики отмены
type ConfigService interface {
	GetResource(ctx context.Context, resourceID int64) (*domain.Resource, error)
	GetCancellationPolicy(ctx context.Context, resource *domain.Resource) (domain.CancellationPolicy, error)
}

// CapacityReleaser возвращает вместимость, занятую бронированием
type CapacityReleaser interface {
	ReleaseBooking(ctx context.Context, booking *domain.Booking) error
	SharesTransaction(kind domain.ResourceKind) bool
}

// PaymentGateway платежный шлюз
type PaymentGateway interface {
	Refund(ctx context.Context, req payments.RefundRequest) (*payments.Result, error)
}

// EventPublisher зеркалирование событий во внешние системы
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Clock источник текущего времени
type Clock interface {
	Now() time.Time
}

// Metrics учет возвратов
type Metrics interface {
	IncRefund(kind, fraction string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
