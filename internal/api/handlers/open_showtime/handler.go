package open_showtime

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-BookingEngine/internal/api/handlers"
	"github.com/m04kA/SMC-BookingEngine/internal/service/allocator"
	configService "github.com/m04kA/SMC-BookingEngine/internal/service/config"
)

const (
	msgInvalidShowtimeID  = "некорректный ID сеанса"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgShowtimeNotFound   = "сеанс не найден"
	msgInvalidSeatMap     = "некорректная карта мест"
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

// Handle POST /api/v1/showtimes/{showtimeId}/seats
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	showtimeID, err := strconv.ParseInt(vars["showtimeId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /showtimes/{id}/seats - Invalid showtime ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidShowtimeID)
		return
	}

	var req OpenShowtimeRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /showtimes/{id}/seats - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	if _, err := h.config.GetShowtime(r.Context(), showtimeID); err != nil {
		if errors.Is(err, configService.ErrShowtimeNotFound) {
			h.logger.Warn("POST /showtimes/{id}/seats - Showtime not found: showtime_id=%d", showtimeID)
			handlers.RespondNotFound(w, msgShowtimeNotFound)
			return
		}
		h.logger.Error("POST /showtimes/{id}/seats - Failed to get showtime: showtime_id=%d, error=%v", showtimeID, err)
		handlers.RespondInternalError(w)
		return
	}

	if err := h.allocator.OpenShowtime(r.Context(), showtimeID, req.SeatIDs); err != nil {
		if errors.Is(err, allocator.ErrInvalidRequest) {
			h.logger.Warn("POST /showtimes/{id}/seats - Invalid seat map: showtime_id=%d, error=%v", showtimeID, err)
			handlers.RespondBadRequest(w, msgInvalidSeatMap)
			return
		}
		h.logger.Error("POST /showtimes/{id}/seats - Failed to open showtime: showtime_id=%d, error=%v", showtimeID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("POST /showtimes/{id}/seats - Seat map registered: showtime_id=%d, seats=%d", showtimeID, len(req.SeatIDs))
	handlers.RespondJSON(w, http.StatusCreated, &OpenShowtimeResponse{ShowtimeID: showtimeID, Registered: len(req.SeatIDs)})
}
