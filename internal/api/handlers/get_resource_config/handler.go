package get_resource_config

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-BookingEngine/internal/api/handlers"
	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	configService "github.com/m04kA/SMC-BookingEngine/internal/service/config"
)

const (
	msgInvalidResourceID = "некорректный ID ресурса"
	msgInvalidDate       = "некорректный формат даты (YYYY-MM-DD)"
	msgResourceNotFound  = "ресурс не найден"
)

type Handler struct {
	service  ConfigService
	location *time.Location
	logger   Logger
}

// NewHandler location используется, когда дата в запросе не указана
func NewHandler(service ConfigService, location *time.Location, logger Logger) *Handler {
	return &Handler{
		service:  service,
		location: location,
		logger:   logger,
	}
}

// Handle GET /api/v1/resources/{resourceId}/config
// Query params: date (опционально, по умолчанию сегодня)
// Публичный endpoint - без авторизации
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	resourceID, err := strconv.ParseInt(vars["resourceId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /resources/{id}/config - Invalid resource ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidResourceID)
		return
	}

	date, err := h.parseDate(r.URL.Query().Get("date"))
	if err != nil {
		h.logger.Warn("GET /resources/{id}/config - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	cfg, err := h.service.GetResourceConfig(r.Context(), resourceID, date)
	if err == nil {
		var policy domain.CancellationPolicy
		policy, err = h.service.GetCancellationPolicy(r.Context(), cfg.Resource)
		if err == nil {
			h.logger.Info("GET /resources/{id}/config - Config retrieved successfully: resource_id=%d, date=%s",
				resourceID, date.Format(domain.DateFormat))
			handlers.RespondJSON(w, http.StatusOK, FromServiceConfig(cfg, policy))
			return
		}
	}

	switch {
	case errors.Is(err, configService.ErrResourceNotFound):
		h.logger.Warn("GET /resources/{id}/config - Resource not found: resource_id=%d", resourceID)
		handlers.RespondNotFound(w, msgResourceNotFound)

	case errors.Is(err, domain.ErrInvalidConfig):
		// Битая конфигурация ресурса - ошибка данных, а не запроса
		h.logger.Error("GET /resources/{id}/config - Invalid resource config: resource_id=%d, error=%v", resourceID, err)
		handlers.RespondInternalError(w)

	default:
		h.logger.Error("GET /resources/{id}/config - Failed to get config: resource_id=%d, error=%v", resourceID, err)
		handlers.RespondInternalError(w)
	}
}

func (h *Handler) parseDate(value string) (time.Time, error) {
	if value == "" {
		now := time.Now().In(h.location)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse(domain.DateFormat, value)
}
