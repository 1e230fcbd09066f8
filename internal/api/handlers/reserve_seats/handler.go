package reserve_seats

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-BookingEngine/internal/api/handlers"
	"github.com/m04kA/SMC-BookingEngine/internal/api/middleware"
	reserveSeats "github.com/m04kA/SMC-BookingEngine/internal/usecase/reserve_seats"
)

const (
	msgInvalidShowtimeID  = "некорректный ID сеанса"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgShowtimeNotFound   = "сеанс не найден"
	msgShowtimeStarted    = "сеанс уже начался"
	msgInvalidSeats       = "некорректный набор мест"
)

type Handler struct {
	useCase ReserveSeatsUseCase
	logger  Logger
}

func NewHandler(useCase ReserveSeatsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/showtimes/{showtimeId}/reservations
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	showtimeID, err := strconv.ParseInt(vars["showtimeId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /showtimes/{id}/reservations - Invalid showtime ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidShowtimeID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /showtimes/{id}/reservations - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req ReserveSeatsRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /showtimes/{id}/reservations - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(userID, showtimeID))
	if err != nil {
		switch {
		case errors.Is(err, reserveSeats.ErrShowtimeNotFound):
			h.logger.Warn("POST /showtimes/{id}/reservations - Showtime not found: showtime_id=%d", showtimeID)
			handlers.RespondNotFound(w, msgShowtimeNotFound)

		case errors.Is(err, reserveSeats.ErrShowtimeStarted):
			handlers.RespondBadRequest(w, msgShowtimeStarted)

		case errors.Is(err, reserveSeats.ErrInvalidInput):
			h.logger.Warn("POST /showtimes/{id}/reservations - Invalid seats: showtime_id=%d, error=%v", showtimeID, err)
			handlers.RespondBadRequest(w, msgInvalidSeats)

		case handlers.RespondDomainError(w, err):
			h.logger.Warn("POST /showtimes/{id}/reservations - Rejected: showtime_id=%d, user_id=%d, error=%v",
				showtimeID, userID, err)

		default:
			h.logger.Error("POST /showtimes/{id}/reservations - Failed to reserve seats: showtime_id=%d, error=%v",
				showtimeID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /showtimes/{id}/reservations - Seats held: showtime_id=%d, user_id=%d, seats=%d",
		showtimeID, userID, len(result.Seats))
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
