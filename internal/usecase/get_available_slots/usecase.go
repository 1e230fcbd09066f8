package get_available_slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	configService "github.com/m04kA/SMC-BookingEngine/internal/service/config"
)

// UseCase use case для получения доступных слотов для бронирования
type UseCase struct {
	bookingRepo BookingRepository
	config      ConfigService
	clock       Clock
	location    *time.Location
	logger      Logger
}

// NewUseCase создает новый экземпляр use case
// location - часовой пояс площадок, в котором считаются "сегодня" и время до слота
func NewUseCase(
	bookingRepo BookingRepository,
	config ConfigService,
	clock Clock,
	location *time.Location,
	logger Logger,
) *UseCase {
	if location == nil {
		location = time.UTC
	}
	return &UseCase{
		bookingRepo: bookingRepo,
		config:      config,
		clock:       clock,
		location:    location,
		logger:      logger,
	}
}

// Execute выполняет use case получения доступных слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: user=%d, resource=%d, date=%s",
		req.UserID, req.ResourceID, req.Date.Format(domain.DateFormat))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Текущее время в часовом поясе площадок
	now := uc.clock.Now().In(uc.location)
	date := dateIn(req.Date, uc.location)

	// 3. Получаем ресурс, рабочие часы и пиковые правила
	cfg, err := uc.config.GetResourceConfig(ctx, req.ResourceID, date)
	if err != nil {
		switch {
		case errors.Is(err, configService.ErrResourceNotFound):
			return nil, ErrResourceNotFound
		case errors.Is(err, domain.ErrInvalidConfig):
			return nil, err
		}
		uc.logger.Error("GetAvailableSlots: failed to get config for resource=%d: %v", req.ResourceID, err)
		return nil, fmt.Errorf("%w: failed to get config: %v", ErrInternal, err)
	}

	resource := cfg.Resource
	if resource.Kind != domain.KindSlot {
		uc.logger.Warn("GetAvailableSlots: resource=%d has kind %s", resource.ID, resource.Kind)
		return nil, ErrUnsupportedKind
	}

	// 4. Валидация даты с учетом конфигурации
	if err := validateDate(date, now, resource.AdvanceBookingDays); err != nil {
		uc.logger.Warn("GetAvailableSlots: date validation failed: %v", err)
		return nil, err
	}

	response := &Response{
		Date:       date,
		ResourceID: resource.ID,
		IsOpen:     cfg.IsOpen(),
		Slots:      []Slot{},
	}

	// 5. Ресурс закрыт в этот день
	if !cfg.IsOpen() {
		uc.logger.Info("GetAvailableSlots: resource=%d is closed on %s", resource.ID, date.Format(domain.DateFormat))
		return response, nil
	}

	// 6. Получаем активные бронирования на эту дату
	bookings, err := uc.bookingRepo.GetByResourceWithFilter(ctx, domain.BookingsFilter{
		ResourceID:      resource.ID,
		Date:            &date,
		IncludeInactive: false, // Только активные бронирования
	})
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get bookings: %v", err)
		return nil, fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
	}

	// 7. Генерируем слоты, считаем цены и свободные места
	priced := buildSlots(resource, *cfg.WorkingHours, cfg.PeakRules, bookings)
	priced = filterByNotice(priced, date, now, resource.MinBookingNoticeMinutes)

	response.Slots = toSlots(priced, cfg.PeakRules)
	if len(response.Slots) > 0 {
		first := response.Slots[0].StartTime
		response.NextAvailable = &first
	}

	uc.logger.Info("GetAvailableSlots: generated %d slots for resource=%d, date=%s",
		len(response.Slots), resource.ID, date.Format(domain.DateFormat))

	return response, nil
}
