package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/integrations/events"
	"github.com/m04kA/SMC-BookingEngine/internal/integrations/payments"
	configService "github.com/m04kA/SMC-BookingEngine/internal/service/config"
	"github.com/m04kA/SMC-BookingEngine/pkg/types"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetByResourceWithFilter(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error
	Cancel(ctx context.Context, id int64, reason string, refundMinor int64, cancelledAt time.Time) error
}

// ConfigService интерфейс сервиса конфигурации ресурсов
type ConfigService interface {
	GetResource(ctx context.Context, resourceID int64) (*domain.Resource, error)
	GetResourceConfig(ctx context.Context, resourceID int64, date time.Time) (*configService.ResourceConfig, error)
	GetShowtime(ctx context.Context, showtimeID int64) (*domain.Showtime, error)
}

// Allocator захват и возврат вместимости
type Allocator interface {
	ClaimSlot(ctx context.Context, resourceID int64, date time.Time, start types.Minutes, total, qty int) (domain.CapacityCounter, error)
	ClaimRange(ctx context.Context, resourceID int64, checkIn, checkOut time.Time, qty int) ([]domain.CapacityCounter, error)
	FinalizeSeats(ctx context.Context, showtimeID int64, seatIDs []string, holder string) (domain.SeatResult, error)
	ReleaseBooking(ctx context.Context, booking *domain.Booking) error
	SharesTransaction(kind domain.ResourceKind) bool
}

// PaymentGateway платежный шлюз
type PaymentGateway interface {
	Charge(ctx context.Context, req payments.ChargeRequest) (*payments.Result, error)
}

// EventPublisher зеркалирование событий во внешние системы
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Clock интерфейс для получения текущего времени (для тестирования)
type Clock interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
