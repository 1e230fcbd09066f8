package cancellation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/engine"
	bookingRepo "github.com/m04kA/SMC-BookingEngine/internal/infra/storage/booking"
	"github.com/m04kA/SMC-BookingEngine/internal/integrations/events"
	"github.com/m04kA/SMC-BookingEngine/internal/integrations/payments"
)

// Service отмена бронирований с расчетом возврата
//
// Фаза 1 (сериализуемая транзакция): блокировка бронирования, расчет возврата,
// смена статуса и освобождение вместимости. Вместимость в памяти или Redis не откатывается
// вместе с транзакцией, поэтому для таких хранилищ она освобождается один раз после коммита.
// Фаза 2 (после коммита): запрос возврата в шлюз и публикация booking.cancelled.
// Обе операции фазы 2 идемпотентны и могут повторяться независимо.
type Service struct {
	bookingRepo BookingRepository
	config      ConfigService
	allocator   CapacityReleaser
	payments    PaymentGateway
	publisher   EventPublisher
	txManager   TransactionManager
	clock       Clock
	metrics     Metrics
	logger      Logger
}

// NewService создает новый экземпляр сервиса отмены
func NewService(
	bookingRepo BookingRepository,
	config ConfigService,
	allocator CapacityReleaser,
	payments PaymentGateway,
	publisher EventPublisher,
	txManager TransactionManager,
	clock Clock,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		config:      config,
		allocator:   allocator,
		payments:    payments,
		publisher:   publisher,
		txManager:   txManager,
		clock:       clock,
		metrics:     metrics,
		logger:      logger,
	}
}

// Cancel отменяет бронирование
func (s *Service) Cancel(ctx context.Context, req Request) (*Result, error) {
	s.logger.Info("Cancel: booking id=%d by user=%d", req.BookingID, req.UserID)

	reason := strings.TrimSpace(req.Reason)
	if req.BookingID <= 0 || len(reason) > domain.MaxCancellationReason {
		return nil, fmt.Errorf("%w: booking id must be positive and reason at most %d characters",
			ErrInvalidInput, domain.MaxCancellationReason)
	}

	var result Result

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		booking, err := s.bookingRepo.GetByIDForUpdate(txCtx, req.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
		}

		if booking.UserID != req.UserID {
			s.logger.Warn("Cancel: user=%d is not the owner of booking id=%d", req.UserID, booking.ID)
			return ErrAccessDenied
		}

		now := s.clock.Now()

		// Повторная отмена ничего не меняет и возвращает сохраненный итог
		if booking.IsCancelled() {
			result = Result{
				Booking:  booking,
				Decision: engine.ComputeRefund(booking, now, booking.EventStart, domain.CancellationPolicy{}),
			}
			return nil
		}

		resource, err := s.config.GetResource(txCtx, booking.ResourceID)
		if err != nil {
			return err
		}
		policy, err := s.config.GetCancellationPolicy(txCtx, resource)
		if err != nil {
			return err
		}

		decision := engine.ComputeRefund(booking, now, booking.EventStart, policy)

		if err := s.bookingRepo.Cancel(txCtx, booking.ID, reason, decision.RefundMinor, now); err != nil {
			return fmt.Errorf("%w: failed to cancel booking: %v", ErrInternal, err)
		}

		if decision.ReleaseCapacity && s.allocator.SharesTransaction(booking.Kind) {
			if err := s.allocator.ReleaseBooking(txCtx, booking); err != nil {
				return fmt.Errorf("%w: failed to release capacity: %w", ErrInternal, err)
			}
		}

		booking.Status = domain.StatusCancelled
		booking.CancellationReason = &reason
		booking.CancelledAt = &now
		booking.RefundMinor = &decision.RefundMinor

		result = Result{Booking: booking, Decision: decision}
		return nil
	})

	if err != nil {
		if !errors.Is(err, ErrBookingNotFound) && !errors.Is(err, ErrAccessDenied) {
			s.logger.Error("Cancel: booking id=%d failed: %v", req.BookingID, err)
		}
		return nil, err
	}

	if result.Decision.AlreadyCancelled {
		s.logger.Info("Cancel: booking id=%d already cancelled, nothing to do", req.BookingID)
		return &result, nil
	}

	// Статус уже зафиксирован, поэтому повторная отмена не дойдет до этого места
	if result.Decision.ReleaseCapacity && !s.allocator.SharesTransaction(result.Booking.Kind) {
		if err := s.allocator.ReleaseBooking(ctx, result.Booking); err != nil {
			s.logger.Error("Cancel: booking id=%d cancelled but capacity not released, manual release required: %v",
				result.Booking.ID, err)
		}
	}

	s.metrics.IncRefund(string(result.Booking.Kind), result.Decision.Fraction.String())
	s.logger.Info("Cancel: booking id=%d cancelled, refund=%d (fraction %s)",
		result.Booking.ID, result.Decision.RefundMinor, result.Decision.Fraction.String())

	result.RefundRequested = s.requestRefund(ctx, result.Booking, result.Decision)
	s.publish(ctx, result.Booking)

	return &result, nil
}

// Quote рассчитывает возврат при отмене в текущий момент, ничего не меняя
func (s *Service) Quote(ctx context.Context, bookingID, userID int64) (*Result, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		s.logger.Error("Quote: failed to get booking id=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
	}
	if booking.UserID != userID {
		return nil, ErrAccessDenied
	}

	now := s.clock.Now()
	if booking.IsCancelled() {
		return &Result{Booking: booking, Decision: engine.ComputeRefund(booking, now, booking.EventStart, domain.CancellationPolicy{})}, nil
	}

	resource, err := s.config.GetResource(ctx, booking.ResourceID)
	if err != nil {
		return nil, err
	}
	policy, err := s.config.GetCancellationPolicy(ctx, resource)
	if err != nil {
		return nil, err
	}

	return &Result{Booking: booking, Decision: engine.ComputeRefund(booking, now, booking.EventStart, policy)}, nil
}

// requestRefund запрашивает возврат; ошибка не отменяет уже зафиксированную отмену
// Повтор с тем же ключом идемпотентности безопасен
func (s *Service) requestRefund(ctx context.Context, booking *domain.Booking, decision domain.RefundDecision) bool {
	if decision.RefundMinor <= 0 {
		return false
	}

	_, err := s.payments.Refund(ctx, payments.RefundRequest{
		IdempotencyKey: payments.RefundKey(booking.ID),
		BookingID:      booking.ID,
		UserID:         booking.UserID,
		AmountMinor:    decision.RefundMinor,
		Reason:         *booking.CancellationReason,
	})
	if err != nil {
		s.logger.Error("Cancel: refund for booking id=%d (key %s) failed, retry required: %v",
			booking.ID, payments.RefundKey(booking.ID), err)
		return false
	}
	return true
}

func (s *Service) publish(ctx context.Context, booking *domain.Booking) {
	event := events.NewBookingEvent(events.TypeBookingCancelled, booking, s.clock.Now())
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Cancel: failed to publish %s for booking id=%d: %v", event.Type, booking.ID, err)
	}
}
