package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/engine"
	bookingStorage "github.com/m04kA/SMC-BookingEngine/internal/infra/storage/booking"
	"github.com/m04kA/SMC-BookingEngine/internal/integrations/events"
	"github.com/m04kA/SMC-BookingEngine/internal/integrations/payments"
	"github.com/m04kA/SMC-BookingEngine/internal/service/allocator"
	configService "github.com/m04kA/SMC-BookingEngine/internal/service/config"
)

// UseCase use case для создания бронирования
//
// Фаза 1: повторная проверка выбранного времени, захват вместимости и запись бронирования в статусе pending.
// Фаза 2: списание через платежный шлюз. При отказе бронирование отменяется и вместимость
// возвращается, при успехе бронирование подтверждается.
type UseCase struct {
	bookingRepo BookingRepository
	config      ConfigService
	allocator   Allocator
	payments    PaymentGateway
	publisher   EventPublisher
	txManager   TransactionManager
	clock       Clock
	location    *time.Location
	logger      Logger
}

// NewUseCase создает новый экземпляр use case
// location - часовой пояс площадок; nil означает UTC
func NewUseCase(
	bookingRepo BookingRepository,
	config ConfigService,
	allocator Allocator,
	payments PaymentGateway,
	publisher EventPublisher,
	txManager TransactionManager,
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
		allocator:   allocator,
		payments:    payments,
		publisher:   publisher,
		txManager:   txManager,
		clock:       clock,
		location:    location,
		logger:      logger,
	}
}

// claimFunc захватывает вместимость внутри транзакции фазы 1
type claimFunc func(ctx context.Context) error

// Execute выполняет use case создания бронирования
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: user=%d, resource=%d, showtime=%d", req.UserID, req.ResourceID, req.ShowtimeID)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	now := uc.clock.Now().In(uc.location)

	// 2. Подготовка бронирования по виду ресурса
	booking, claim, err := uc.prepare(ctx, req, now)
	if err != nil {
		return nil, err
	}

	// 3. Фаза 1: захват вместимости и запись pending
	created, err := uc.commit(ctx, booking, claim)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("CreateBooking: booking id=%d pending, amount=%d", created.ID, created.AmountMinor)

	// 4. Фаза 2: списание
	transactionID, err := uc.charge(ctx, created)
	if err != nil {
		return nil, err
	}

	// 5. Подтверждение
	if err := uc.bookingRepo.UpdateStatus(ctx, created.ID, domain.StatusConfirmed); err != nil {
		uc.logger.Error("CreateBooking: booking id=%d charged but not confirmed: %v", created.ID, err)
		return nil, fmt.Errorf("%w: failed to confirm booking: %v", ErrInternal, err)
	}
	created.Status = domain.StatusConfirmed

	uc.publish(ctx, created)

	uc.logger.Info("CreateBooking: successfully created booking id=%d", created.ID)
	return &Response{Booking: created, TransactionID: transactionID}, nil
}

// prepare определяет вид ресурса и строит бронирование вместе с функцией захвата
func (uc *UseCase) prepare(ctx context.Context, req *Request, now time.Time) (*domain.Booking, claimFunc, error) {
	if req.ShowtimeID > 0 {
		return uc.prepareSeats(ctx, req, now)
	}

	resource, err := uc.config.GetResource(ctx, req.ResourceID)
	if err != nil {
		return nil, nil, uc.configError(err, req.ResourceID)
	}

	switch resource.Kind {
	case domain.KindSlot:
		return uc.prepareSlot(ctx, req, now)
	case domain.KindDateRange:
		return uc.prepareRange(req, resource, now)
	default:
		return nil, nil, fmt.Errorf("%w: resource %d requires showtimeID", ErrInvalidInput, resource.ID)
	}
}

func (uc *UseCase) prepareSlot(ctx context.Context, req *Request, now time.Time) (*domain.Booking, claimFunc, error) {
	if err := validateSlotRequest(req); err != nil {
		return nil, nil, err
	}

	date := dateIn(req.Date, uc.location)

	cfg, err := uc.config.GetResourceConfig(ctx, req.ResourceID, date)
	if err != nil {
		return nil, nil, uc.configError(err, req.ResourceID)
	}
	resource := cfg.Resource

	if err := validateDate(date, now, resource.AdvanceBookingDays); err != nil {
		uc.logger.Warn("CreateBooking: date validation failed: %v", err)
		return nil, nil, err
	}
	if !cfg.IsOpen() {
		uc.logger.Warn("CreateBooking: resource=%d is closed on %s", resource.ID, date.Format(domain.DateFormat))
		return nil, nil, ErrResourceClosed
	}
	if err := validateBookingTime(date, req.StartTime, now, resource.MinBookingNoticeMinutes); err != nil {
		uc.logger.Warn("CreateBooking: booking time validation failed: %v", err)
		return nil, nil, err
	}

	hours := *cfg.WorkingHours
	if !engine.IsOfferedSlot(resource, hours, nil, req.StartTime) {
		return nil, nil, fmt.Errorf("%w: %s is not a slot start for resource %d", ErrInvalidTimeSlot, req.StartTime, resource.ID)
	}

	qty := quantity(req)
	slot := domain.NewCandidateSlot(req.StartTime, resource.DurationMinutes, resource.BufferMinutes)

	booking := &domain.Booking{
		ResourceID:      resource.ID,
		UserID:          req.UserID,
		Kind:            domain.KindSlot,
		BookingDate:     date,
		StartTime:       req.StartTime,
		DurationMinutes: resource.DurationMinutes,
		BufferMinutes:   resource.BufferMinutes,
		Quantity:        qty,
		AmountMinor:     engine.Price(slot, resource.BasePriceMinor, cfg.PeakRules) * int64(qty),
		EventStart:      req.StartTime.OnDate(date),
		Status:          domain.StatusPending,
	}

	claim := func(txCtx context.Context) error {
		// Блокируем бронирования на дату и повторно проверяем слот
		committed, err := uc.bookingRepo.GetByResourceWithFilter(txCtx, domain.BookingsFilter{
			ResourceID: resource.ID,
			Date:       &date,
		})
		if err != nil {
			return fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
		}

		if resource.IsExclusive() {
			if qty > 1 || !engine.IsOfferedSlot(resource, hours, committed, req.StartTime) {
				return fmt.Errorf("%w: slot %s on %s is taken", domain.ErrCapacityExceeded, req.StartTime, date.Format(domain.DateFormat))
			}
		} else if taken := engine.CountOverlaps(slot.OccupiedWindow(), committed); taken+qty > resource.Capacity {
			return fmt.Errorf("%w: %d/%d spots taken, requested %d", domain.ErrCapacityExceeded, taken, resource.Capacity, qty)
		}

		_, err = uc.allocator.ClaimSlot(txCtx, resource.ID, date, req.StartTime, resource.Capacity, qty)
		return err
	}

	return booking, claim, nil
}

func (uc *UseCase) prepareRange(req *Request, resource *domain.Resource, now time.Time) (*domain.Booking, claimFunc, error) {
	if err := validateRangeRequest(req); err != nil {
		return nil, nil, err
	}

	checkIn := dateIn(req.CheckIn, uc.location)
	checkOut := dateIn(req.CheckOut, uc.location)
	if err := validateDate(checkIn, now, resource.AdvanceBookingDays); err != nil {
		uc.logger.Warn("CreateBooking: check-in validation failed: %v", err)
		return nil, nil, err
	}

	checkInTime := resource.CheckInTime
	if checkInTime == 0 {
		checkInTime = domain.DefaultCheckInTime
	}

	qty := quantity(req)
	nights := len(domain.DatesInRange(checkIn, checkOut))

	booking := &domain.Booking{
		ResourceID:  resource.ID,
		UserID:      req.UserID,
		Kind:        domain.KindDateRange,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Quantity:    qty,
		AmountMinor: resource.BasePriceMinor * int64(nights) * int64(qty),
		EventStart:  checkInTime.OnDate(checkIn),
		Status:      domain.StatusPending,
	}

	claim := func(txCtx context.Context) error {
		_, err := uc.allocator.ClaimRange(txCtx, resource.ID, checkIn, checkOut, qty)
		return err
	}

	return booking, claim, nil
}

func (uc *UseCase) prepareSeats(ctx context.Context, req *Request, now time.Time) (*domain.Booking, claimFunc, error) {
	if err := validateSeatRequest(req); err != nil {
		return nil, nil, err
	}

	showtime, err := uc.config.GetShowtime(ctx, req.ShowtimeID)
	if err != nil {
		if errors.Is(err, configService.ErrShowtimeNotFound) {
			return nil, nil, ErrShowtimeNotFound
		}
		uc.logger.Error("CreateBooking: failed to get showtime id=%d: %v", req.ShowtimeID, err)
		return nil, nil, fmt.Errorf("%w: failed to get showtime: %v", ErrInternal, err)
	}
	if req.ResourceID > 0 && req.ResourceID != showtime.ResourceID {
		return nil, nil, fmt.Errorf("%w: showtime %d belongs to resource %d", ErrInvalidInput, showtime.ID, showtime.ResourceID)
	}
	if !showtime.StartsAt.After(now) {
		return nil, nil, fmt.Errorf("%w: showtime %d has already started", ErrInvalidDate, showtime.ID)
	}

	resource, err := uc.config.GetResource(ctx, showtime.ResourceID)
	if err != nil {
		return nil, nil, uc.configError(err, showtime.ResourceID)
	}
	if resource.Kind != domain.KindSeat {
		return nil, nil, fmt.Errorf("%w: resource %d does not sell seats", ErrInvalidInput, resource.ID)
	}

	price := showtime.PriceMinor
	if price == 0 {
		price = resource.BasePriceMinor
	}
	var amount int64
	for _, seatID := range req.SeatIDs {
		amount += engine.SeatPrice(showtime, seatID, price)
	}

	showtimeID := showtime.ID
	booking := &domain.Booking{
		ResourceID:  resource.ID,
		UserID:      req.UserID,
		Kind:        domain.KindSeat,
		ShowtimeID:  &showtimeID,
		SeatIDs:     append([]string(nil), req.SeatIDs...),
		Holder:      req.Holder,
		Quantity:    len(req.SeatIDs),
		AmountMinor: amount,
		EventStart:  showtime.StartsAt,
		Status:      domain.StatusPending,
	}

	claim := func(txCtx context.Context) error {
		_, err := uc.allocator.FinalizeSeats(txCtx, showtimeID, req.SeatIDs, req.Holder)
		return err
	}

	return booking, claim, nil
}

// commit фаза 1: захват вместимости и запись бронирования
//
// DoSerializable повторяет функцию целиком после конфликта сериализации на коммите.
// Захват в SQL-хранилище откатывается вместе с транзакцией, поэтому выполняется внутри нее.
// Захват в памяти или Redis не откатывается: он делается один раз до транзакции,
// а при неудачной записи бронирования вместимость возвращается явно.
func (uc *UseCase) commit(ctx context.Context, booking *domain.Booking, claim claimFunc) (*domain.Booking, error) {
	var created *domain.Booking

	if uc.allocator.SharesTransaction(booking.Kind) {
		err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
			if err := claim(txCtx); err != nil {
				return err
			}
			return uc.insert(txCtx, booking, &created)
		})
		if err != nil {
			return nil, uc.claimError(err)
		}
		return created, nil
	}

	if err := claim(ctx); err != nil {
		return nil, uc.claimError(err)
	}

	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		return uc.insert(txCtx, booking, &created)
	})
	if err != nil {
		if releaseErr := uc.allocator.ReleaseBooking(ctx, booking); releaseErr != nil {
			uc.logger.Error("CreateBooking: failed to release capacity after insert error, manual release required: %v", releaseErr)
		}
		return nil, uc.claimError(err)
	}

	return created, nil
}

func (uc *UseCase) insert(ctx context.Context, booking *domain.Booking, created **domain.Booking) error {
	result, err := uc.bookingRepo.Create(ctx, booking)
	if err != nil {
		return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
	}
	*created = result
	return nil
}

// charge фаза 2: списание; при отказе бронирование отменяется и вместимость возвращается
func (uc *UseCase) charge(ctx context.Context, booking *domain.Booking) (string, error) {
	if booking.AmountMinor <= 0 {
		return "", nil
	}

	result, err := uc.payments.Charge(ctx, payments.ChargeRequest{
		IdempotencyKey: payments.ChargeKey(booking.ID),
		BookingID:      booking.ID,
		UserID:         booking.UserID,
		AmountMinor:    booking.AmountMinor,
		Description:    fmt.Sprintf("%s booking %d", booking.Kind, booking.ID),
	})
	if err == nil {
		return result.TransactionID, nil
	}

	uc.logger.Warn("CreateBooking: charge for booking id=%d failed: %v", booking.ID, err)

	if compensateErr := uc.compensate(ctx, booking); compensateErr != nil {
		uc.logger.Error("CreateBooking: compensation for booking id=%d failed, manual release required: %v",
			booking.ID, compensateErr)
		return "", fmt.Errorf("%w: charge failed and compensation failed: %v", ErrInternal, compensateErr)
	}

	return "", fmt.Errorf("%w: %v", ErrPaymentFailed, err)
}

// compensate отменяет бронирование и только после успешной смены статуса возвращает вместимость
// Если бронирование уже отменено (пользователь отменил его во время списания),
// вместимость вернул тот, кто отменял, и повторно она не освобождается
func (uc *UseCase) compensate(ctx context.Context, booking *domain.Booking) error {
	cancel := func(txCtx context.Context) error {
		return uc.bookingRepo.Cancel(txCtx, booking.ID, PaymentFailedReason, 0, uc.clock.Now())
	}

	var err error
	if uc.allocator.SharesTransaction(booking.Kind) {
		err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
			if err := cancel(txCtx); err != nil {
				return err
			}
			return uc.allocator.ReleaseBooking(txCtx, booking)
		})
	} else {
		err = uc.txManager.DoSerializable(ctx, cancel)
		if err == nil {
			err = uc.allocator.ReleaseBooking(ctx, booking)
		}
	}

	if errors.Is(err, bookingStorage.ErrAlreadyCancelled) {
		uc.logger.Info("CreateBooking: booking id=%d was cancelled during charge, capacity already released", booking.ID)
		return nil
	}
	return err
}

func (uc *UseCase) publish(ctx context.Context, booking *domain.Booking) {
	event := events.NewBookingEvent(events.TypeBookingConfirmed, booking, uc.clock.Now())
	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.logger.Warn("CreateBooking: failed to publish %s for booking id=%d: %v", event.Type, booking.ID, err)
	}
}

// configError приводит ошибки сервиса конфигурации к ошибкам use case
func (uc *UseCase) configError(err error, resourceID int64) error {
	switch {
	case errors.Is(err, configService.ErrResourceNotFound):
		uc.logger.Warn("CreateBooking: resource id=%d not found", resourceID)
		return ErrResourceNotFound
	case errors.Is(err, domain.ErrInvalidConfig):
		return err
	}
	uc.logger.Error("CreateBooking: failed to get config for resource=%d: %v", resourceID, err)
	return fmt.Errorf("%w: failed to get config: %v", ErrInternal, err)
}

// claimError ошибки конкуренции и конфигурации возвращаются как есть
func (uc *UseCase) claimError(err error) error {
	switch {
	case domain.IsContention(err):
		uc.logger.Warn("CreateBooking: capacity claim rejected: %v", err)
		return err
	case errors.Is(err, domain.ErrInvalidConfig), errors.Is(err, ErrInternal):
		return err
	case errors.Is(err, allocator.ErrInvalidRequest):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	uc.logger.Error("CreateBooking: phase 1 failed: %v", err)
	return fmt.Errorf("%w: %v", ErrInternal, err)
}
