package allocator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/pkg/types"
)

// Формы учета вместимости для метрик и логов
const (
	ShapeDateRange = "date_range"
	ShapeSlot      = "slot"
	ShapeSeat      = "seat"
)

const (
	resultOK       = "ok"
	resultRejected = "rejected"
	resultNoop     = "noop"
	resultError    = "error"
)

// Service аллокатор вместимости
// Единственный компонент, изменяющий разделяемое состояние; атомарность обеспечивают хранилища
type Service struct {
	inventory InventoryStore
	slots     SlotCounterStore
	seats     SeatStore
	clock     Clock
	leaseTTL  time.Duration
	metrics   Metrics
	logger    Logger
}

// NewService создает аллокатор
// leaseTTL <= 0 заменяется на domain.DefaultLeaseTTL
func NewService(
	inventory InventoryStore,
	slots SlotCounterStore,
	seats SeatStore,
	clock Clock,
	leaseTTL time.Duration,
	metrics Metrics,
	logger Logger,
) *Service {
	if leaseTTL <= 0 {
		leaseTTL = domain.DefaultLeaseTTL
	}
	return &Service{
		inventory: inventory,
		slots:     slots,
		seats:     seats,
		clock:     clock,
		leaseTTL:  leaseTTL,
		metrics:   metrics,
		logger:    logger,
	}
}

// LeaseTTL срок удержания мест
func (s *Service) LeaseTTL() time.Duration {
	return s.leaseTTL
}

// SharesTransaction сообщает, откатывается ли захват вместимости для бронирований вида kind
// вместе с SQL-транзакцией из контекста. Если нет, вызывающий должен выполнять захват и возврат
// вне повторяемой транзакции и компенсировать их явно.
func (s *Service) SharesTransaction(kind domain.ResourceKind) bool {
	var store any
	switch kind {
	case domain.KindDateRange:
		store = s.inventory
	case domain.KindSlot:
		store = s.slots
	case domain.KindSeat:
		store = s.seats
	default:
		return false
	}

	tx, ok := store.(transactional)
	return ok && tx.Transactional()
}

// OpenInventory открывает продажи посуточного ресурса на даты из [from, to) с вместимостью total
func (s *Service) OpenInventory(ctx context.Context, resourceID int64, from, to time.Time, total int) ([]domain.CapacityCounter, error) {
	if total < 0 || total > domain.MaxCapacity {
		return nil, fmt.Errorf("%w: capacity must be in [0, %d], got %d", domain.ErrInvalidConfig, domain.MaxCapacity, total)
	}
	keys, err := rangeKeys(from, to, 1)
	if err != nil {
		return nil, err
	}

	counters, err := s.inventory.OpenRange(ctx, resourceID, keys, total)
	if err != nil {
		return nil, s.fail(ShapeDateRange, "open", err, "OpenInventory: resource=%d dates=%v total=%d", resourceID, keys, total)
	}
	if err := s.assertCounters(ShapeDateRange, counters...); err != nil {
		return nil, err
	}

	s.metrics.IncAllocation(ShapeDateRange, "open", resultOK)
	s.logger.Info("OpenInventory: resource=%d opened %d dates with capacity %d", resourceID, len(keys), total)
	return counters, nil
}

// ClaimRange занимает qty единиц на каждую дату из [checkIn, checkOut)
// Если хотя бы на одну дату не хватает вместимости, не меняется ни один счетчик
func (s *Service) ClaimRange(ctx context.Context, resourceID int64, checkIn, checkOut time.Time, qty int) ([]domain.CapacityCounter, error) {
	keys, err := rangeKeys(checkIn, checkOut, qty)
	if err != nil {
		return nil, err
	}

	counters, err := s.inventory.ClaimRange(ctx, resourceID, keys, qty)
	if err != nil {
		return nil, s.fail(ShapeDateRange, "claim", err, "ClaimRange: resource=%d dates=%v qty=%d", resourceID, keys, qty)
	}
	if err := s.assertCounters(ShapeDateRange, counters...); err != nil {
		return nil, err
	}

	s.metrics.IncAllocation(ShapeDateRange, "claim", resultOK)
	s.logger.Info("ClaimRange: resource=%d claimed %d for %d nights starting %s", resourceID, qty, len(keys), keys[0])
	return counters, nil
}

// ReleaseRange возвращает qty единиц на каждую дату из [checkIn, checkOut)
func (s *Service) ReleaseRange(ctx context.Context, resourceID int64, checkIn, checkOut time.Time, qty int) ([]domain.CapacityCounter, error) {
	keys, err := rangeKeys(checkIn, checkOut, qty)
	if err != nil {
		return nil, err
	}

	counters, err := s.inventory.ReleaseRange(ctx, resourceID, keys, qty)
	if err != nil {
		return nil, s.fail(ShapeDateRange, "release", err, "ReleaseRange: resource=%d dates=%v qty=%d", resourceID, keys, qty)
	}
	if err := s.assertCounters(ShapeDateRange, counters...); err != nil {
		return nil, err
	}

	s.metrics.IncAllocation(ShapeDateRange, "release", resultOK)
	s.logger.Info("ReleaseRange: resource=%d released %d for %d nights starting %s", resourceID, qty, len(keys), keys[0])
	return counters, nil
}

// ClaimSlot занимает qty мест слота, начинающегося в start на дату date
func (s *Service) ClaimSlot(ctx context.Context, resourceID int64, date time.Time, start types.Minutes, total, qty int) (domain.CapacityCounter, error) {
	if err := validateQuantity(qty, domain.MaxSlotQuantity); err != nil {
		return domain.CapacityCounter{}, err
	}
	if total < 1 {
		return domain.CapacityCounter{}, fmt.Errorf("%w: slot capacity must be positive, got %d", domain.ErrInvalidConfig, total)
	}
	key := domain.SlotKey(date, start)

	counter, err := s.slots.ClaimSlot(ctx, resourceID, key, total, qty)
	if err != nil {
		return domain.CapacityCounter{}, s.fail(ShapeSlot, "claim", err, "ClaimSlot: resource=%d slot=%s qty=%d", resourceID, key, qty)
	}
	if err := s.assertCounters(ShapeSlot, counter); err != nil {
		return domain.CapacityCounter{}, err
	}

	s.metrics.IncAllocation(ShapeSlot, "claim", resultOK)
	s.logger.Info("ClaimSlot: resource=%d slot=%s sold=%d/%d", resourceID, key, counter.SoldCount, counter.TotalCapacity)
	return counter, nil
}

// ReleaseSlot возвращает qty мест слота
func (s *Service) ReleaseSlot(ctx context.Context, resourceID int64, date time.Time, start types.Minutes, qty int) (domain.CapacityCounter, error) {
	if err := validateQuantity(qty, domain.MaxSlotQuantity); err != nil {
		return domain.CapacityCounter{}, err
	}
	key := domain.SlotKey(date, start)

	counter, err := s.slots.ReleaseSlot(ctx, resourceID, key, qty)
	if err != nil {
		return domain.CapacityCounter{}, s.fail(ShapeSlot, "release", err, "ReleaseSlot: resource=%d slot=%s qty=%d", resourceID, key, qty)
	}
	if err := s.assertCounters(ShapeSlot, counter); err != nil {
		return domain.CapacityCounter{}, err
	}

	s.metrics.IncAllocation(ShapeSlot, "release", resultOK)
	s.logger.Info("ReleaseSlot: resource=%d slot=%s sold=%d/%d", resourceID, key, counter.SoldCount, counter.TotalCapacity)
	return counter, nil
}

// OpenShowtime регистрирует карту мест сеанса
func (s *Service) OpenShowtime(ctx context.Context, showtimeID int64, seatIDs []string) error {
	if len(seatIDs) == 0 {
		return fmt.Errorf("%w: seat map is empty", ErrInvalidRequest)
	}
	for _, id := range seatIDs {
		if id == "" {
			return fmt.Errorf("%w: empty seat id", ErrInvalidRequest)
		}
	}

	if err := s.seats.AddSeats(ctx, showtimeID, seatIDs); err != nil {
		s.logger.Error("OpenShowtime: showtime=%d: %v", showtimeID, err)
		return fmt.Errorf("%w: OpenShowtime: %w", ErrStore, err)
	}

	s.logger.Info("OpenShowtime: showtime=%d registered %d seats", showtimeID, len(seatIDs))
	return nil
}

// ReserveSeats удерживает все места за holder на LeaseTTL
func (s *Service) ReserveSeats(ctx context.Context, showtimeID int64, seatIDs []string, holder string) (domain.SeatResult, error) {
	ids, err := normalizeSeatIDs(seatIDs, holder)
	if err != nil {
		return domain.SeatResult{}, err
	}

	now := s.clock.Now()
	expiry := now.Add(s.leaseTTL)

	leases, err := s.seats.Reserve(ctx, showtimeID, ids, holder, now, expiry)
	if err != nil {
		return domain.SeatResult{}, s.fail(ShapeSeat, "reserve", err, "ReserveSeats: showtime=%d seats=%v", showtimeID, ids)
	}

	s.metrics.IncAllocation(ShapeSeat, "reserve", resultOK)
	s.logger.Info("ReserveSeats: showtime=%d reserved %d seats until %s", showtimeID, len(leases), expiry.Format(time.RFC3339))
	return domain.SeatResult{Seats: leases, Changed: true, LeaseExpiry: &expiry}, nil
}

// FinalizeSeats продает места, удерживаемые holder
// Повтор для уже проданных этому holder мест возвращает Changed=false без ошибки
func (s *Service) FinalizeSeats(ctx context.Context, showtimeID int64, seatIDs []string, holder string) (domain.SeatResult, error) {
	ids, err := normalizeSeatIDs(seatIDs, holder)
	if err != nil {
		return domain.SeatResult{}, err
	}

	result, err := s.seats.Finalize(ctx, showtimeID, ids, holder, s.clock.Now())
	if err != nil {
		return domain.SeatResult{}, s.fail(ShapeSeat, "finalize", err, "FinalizeSeats: showtime=%d seats=%v", showtimeID, ids)
	}

	if !result.Changed {
		s.metrics.IncAllocation(ShapeSeat, "finalize", resultNoop)
		s.logger.Info("FinalizeSeats: showtime=%d seats=%v already booked by holder", showtimeID, ids)
		return result, nil
	}

	s.metrics.IncAllocation(ShapeSeat, "finalize", resultOK)
	s.logger.Info("FinalizeSeats: showtime=%d booked %d seats", showtimeID, len(result.Seats))
	return result, nil
}

// ReleaseSeats освобождает места, удерживаемые или проданные holder
// Уже свободные места пропускаются, поэтому повторный вызов ничего не меняет
func (s *Service) ReleaseSeats(ctx context.Context, showtimeID int64, seatIDs []string, holder string) (domain.SeatResult, error) {
	ids, err := normalizeSeatIDs(seatIDs, holder)
	if err != nil {
		return domain.SeatResult{}, err
	}

	released, err := s.seats.Release(ctx, showtimeID, ids, holder, s.clock.Now())
	if err != nil {
		return domain.SeatResult{}, s.fail(ShapeSeat, "release", err, "ReleaseSeats: showtime=%d seats=%v", showtimeID, ids)
	}

	result := domain.SeatResult{Seats: released, Changed: len(released) > 0}
	if !result.Changed {
		s.metrics.IncAllocation(ShapeSeat, "release", resultNoop)
		return result, nil
	}

	s.metrics.IncAllocation(ShapeSeat, "release", resultOK)
	s.logger.Info("ReleaseSeats: showtime=%d released %d seats", showtimeID, len(released))
	return result, nil
}

// ReleaseBooking освобождает вместимость, занятую бронированием, в форме его ресурса
func (s *Service) ReleaseBooking(ctx context.Context, booking *domain.Booking) error {
	qty := booking.Quantity
	if qty <= 0 {
		qty = 1
	}

	switch booking.Kind {
	case domain.KindDateRange:
		_, err := s.ReleaseRange(ctx, booking.ResourceID, booking.CheckIn, booking.CheckOut, qty)
		return err
	case domain.KindSlot:
		_, err := s.ReleaseSlot(ctx, booking.ResourceID, booking.BookingDate, booking.StartTime, qty)
		return err
	case domain.KindSeat:
		if booking.ShowtimeID == nil {
			return fmt.Errorf("%w: seat booking id=%d has no showtime", ErrInvalidRequest, booking.ID)
		}
		_, err := s.ReleaseSeats(ctx, *booking.ShowtimeID, booking.SeatIDs, booking.Holder)
		return err
	default:
		return fmt.Errorf("%w: unknown booking kind %q", ErrInvalidRequest, booking.Kind)
	}
}

// GetSeats карта мест сеанса с учетом истекших удержаний
func (s *Service) GetSeats(ctx context.Context, showtimeID int64) ([]domain.SeatLease, error) {
	now := s.clock.Now()

	seats, err := s.seats.GetSeats(ctx, showtimeID, now)
	if err != nil {
		s.logger.Error("GetSeats: showtime=%d: %v", showtimeID, err)
		return nil, fmt.Errorf("%w: GetSeats: %w", ErrStore, err)
	}

	for i := range seats {
		seats[i] = seats[i].Normalize(now)
	}
	return seats, nil
}

// SweepExpiredLeases возвращает в available все места с истекшим удержанием
func (s *Service) SweepExpiredLeases(ctx context.Context) (int, error) {
	n, err := s.seats.SweepExpired(ctx, s.clock.Now())
	if err != nil {
		s.logger.Error("SweepExpiredLeases: %v", err)
		return 0, fmt.Errorf("%w: SweepExpiredLeases: %w", ErrStore, err)
	}

	s.metrics.AddLeasesSwept(n)
	if n > 0 {
		s.logger.Info("SweepExpiredLeases: released %d expired seat leases", n)
	}
	return n, nil
}

// assertCounters проверяет инвариант 0 <= sold <= total после изменения
// Нарушение означает ошибку блокировок, а не пользователя
func (s *Service) assertCounters(shape string, counters ...domain.CapacityCounter) error {
	for _, c := range counters {
		if err := c.CheckInvariant(); err != nil {
			s.metrics.IncInvariantViolation(shape)
			s.logger.Error("INVARIANT VIOLATION: shape=%s: %v", shape, err)
			return err
		}
	}
	return nil
}

// fail классифицирует ошибку хранилища, пишет метрику и лог
// Доменные ошибки возвращаются как есть, остальные оборачиваются в ErrStore с сохранением исходной причины
func (s *Service) fail(shape, operation string, err error, format string, v ...interface{}) error {
	msg := fmt.Sprintf(format, v...)

	switch {
	case domain.IsContention(err):
		s.metrics.IncAllocation(shape, operation, resultRejected)
		s.logger.Warn("%s: %v", msg, err)
		return err
	case errors.Is(err, domain.ErrInvariantViolation):
		s.metrics.IncInvariantViolation(shape)
		s.logger.Error("INVARIANT VIOLATION: %s: %v", msg, err)
		return err
	case errors.Is(err, domain.ErrInvalidRelease), errors.Is(err, domain.ErrInvalidConfig):
		s.metrics.IncAllocation(shape, operation, resultRejected)
		s.logger.Warn("%s: %v", msg, err)
		return err
	default:
		s.metrics.IncAllocation(shape, operation, resultError)
		s.logger.Error("%s: %v", msg, err)
		return fmt.Errorf("%w: %s: %w", ErrStore, operation, err)
	}
}

func rangeKeys(checkIn, checkOut time.Time, qty int) ([]string, error) {
	if err := validateQuantity(qty, domain.MaxCapacity); err != nil {
		return nil, err
	}

	dates := domain.DatesInRange(checkIn, checkOut)
	if len(dates) == 0 {
		return nil, fmt.Errorf("%w: check-out %s must be after check-in %s",
			ErrInvalidRequest, domain.DateKey(checkOut), domain.DateKey(checkIn))
	}
	if len(dates) > domain.MaxRangeNights {
		return nil, fmt.Errorf("%w: stay of %d nights exceeds %d", ErrInvalidRequest, len(dates), domain.MaxRangeNights)
	}

	keys := make([]string, len(dates))
	for i, d := range dates {
		keys[i] = domain.DateKey(d)
	}
	return keys, nil
}

func validateQuantity(qty, limit int) error {
	if qty < 1 || qty > limit {
		return fmt.Errorf("%w: quantity must be in [1, %d], got %d", ErrInvalidRequest, limit, qty)
	}
	return nil
}

// normalizeSeatIDs сортирует места, чтобы блокировки всегда брались в одном порядке
func normalizeSeatIDs(seatIDs []string, holder string) ([]string, error) {
	if holder == "" {
		return nil, fmt.Errorf("%w: holder is required", ErrInvalidRequest)
	}
	if len(seatIDs) == 0 || len(seatIDs) > domain.MaxSeatsPerReservation {
		return nil, fmt.Errorf("%w: seat count must be in [1, %d], got %d", ErrInvalidRequest, domain.MaxSeatsPerReservation, len(seatIDs))
	}

	ids := slices.Clone(seatIDs)
	slices.Sort(ids)
	for i, id := range ids {
		if id == "" {
			return nil, fmt.Errorf("%w: empty seat id", ErrInvalidRequest)
		}
		if i > 0 && ids[i-1] == id {
			return nil, fmt.Errorf("%w: duplicate seat %s", ErrInvalidRequest, id)
		}
	}
	return ids, nil
}
