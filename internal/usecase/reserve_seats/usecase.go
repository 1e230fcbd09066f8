package reserve_seats

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/service/allocator"
	configService "github.com/m04kA/SMC-BookingEngine/internal/service/config"
)

// UseCase use case для временного удержания мест на сеансе
type UseCase struct {
	config    ConfigService
	allocator Allocator
	clock     Clock
	logger    Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(config ConfigService, allocator Allocator, clock Clock, logger Logger) *UseCase {
	return &UseCase{
		config:    config,
		allocator: allocator,
		clock:     clock,
		logger:    logger,
	}
}

// Execute удерживает места за новым токеном holder
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("ReserveSeats: user=%d, showtime=%d, seats=%v", req.UserID, req.ShowtimeID, req.SeatIDs)

	if req.UserID <= 0 || req.ShowtimeID <= 0 {
		return nil, fmt.Errorf("%w: userID and showtimeID must be positive", ErrInvalidInput)
	}
	if len(req.SeatIDs) == 0 || len(req.SeatIDs) > domain.MaxSeatsPerReservation {
		return nil, fmt.Errorf("%w: between 1 and %d seats are required", ErrInvalidInput, domain.MaxSeatsPerReservation)
	}

	showtime, err := uc.config.GetShowtime(ctx, req.ShowtimeID)
	if err != nil {
		if errors.Is(err, configService.ErrShowtimeNotFound) {
			return nil, ErrShowtimeNotFound
		}
		uc.logger.Error("ReserveSeats: failed to get showtime id=%d: %v", req.ShowtimeID, err)
		return nil, fmt.Errorf("%w: failed to get showtime: %v", ErrInternal, err)
	}
	if !showtime.StartsAt.After(uc.clock.Now()) {
		return nil, ErrShowtimeStarted
	}

	holder := uuid.NewString()

	result, err := uc.allocator.ReserveSeats(ctx, showtime.ID, req.SeatIDs, holder)
	if err != nil {
		switch {
		case domain.IsContention(err):
			uc.logger.Warn("ReserveSeats: showtime=%d seats=%v unavailable: %v", showtime.ID, req.SeatIDs, err)
			return nil, err
		case errors.Is(err, allocator.ErrInvalidRequest):
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		uc.logger.Error("ReserveSeats: failed to reserve seats: %v", err)
		return nil, fmt.Errorf("%w: failed to reserve seats: %v", ErrInternal, err)
	}

	uc.logger.Info("ReserveSeats: showtime=%d held %d seats until %s", showtime.ID, len(result.Seats), result.LeaseExpiry)

	return &Response{
		ShowtimeID:  showtime.ID,
		Holder:      holder,
		Seats:       result.Seats,
		LeaseExpiry: *result.LeaseExpiry,
	}, nil
}
