package get_seats

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-BookingEngine/internal/api/handlers"
	configService "github.com/m04kA/SMC-BookingEngine/internal/service/config"
)

const (
	msgInvalidShowtimeID = "некорректный ID сеанса"
	msgShowtimeNotFound  = "сеанс не найден"
)

type Handler struct {
	config    ConfigService
	allocator Allocator
	logger    Logger
}

func NewHandler(config ConfigService, allocator Allocator, logger Logger) *Handler {
	return &Handler{
		config:    config,
		allocator: allocator,
		logger:    logger,
	}
}

// Handle GET /api/v1/showtimes/{showtimeId}/seats
// Публичный endpoint - без авторизации
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	showtimeID, err := strconv.ParseInt(vars["showtimeId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /showtimes/{id}/seats - Invalid showtime ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidShowtimeID)
		return
	}

	showtime, err := h.config.GetShowtime(r.Context(), showtimeID)
	if err != nil {
		if errors.Is(err, configService.ErrShowtimeNotFound) {
			h.logger.Warn("GET /showtimes/{id}/seats - Showtime not found: showtime_id=%d", showtimeID)
			handlers.RespondNotFound(w, msgShowtimeNotFound)
			return
		}
		h.logger.Error("GET /showtimes/{id}/seats - Failed to get showtime: showtime_id=%d, error=%v", showtimeID, err)
		handlers.RespondInternalError(w)
		return
	}

	seats, err := h.allocator.GetSeats(r.Context(), showtimeID)
	if err != nil {
		h.logger.Error("GET /showtimes/{id}/seats - Failed to get seats: showtime_id=%d, error=%v", showtimeID, err)
		handlers.RespondInternalError(w)
		return
	}

	response := FromDomainSeats(showtime, seats)

	h.logger.Info("GET /showtimes/{id}/seats - Seat map retrieved: showtime_id=%d, available=%d/%d",
		showtimeID, response.Available, len(seats))
	handlers.RespondJSON(w, http.StatusOK, response)
}
