package open_inventory

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-BookingEngine/internal/api/handlers"
	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/service/allocator"
	configService "github.com/m04kA/SMC-BookingEngine/internal/service/config"
)

const (
	msgInvalidResourceID  = "некорректный ID ресурса"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDates       = "некорректный формат дат (YYYY-MM-DD)"
	msgResourceNotFound   = "ресурс не найден"
	msgNotDateRange       = "ресурс не продается посуточно"
	msgInvalidData        = "некорректные параметры инвентаря"
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

// Handle POST /api/v1/resources/{resourceId}/inventory
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	resourceID, err := strconv.ParseInt(vars["resourceId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /resources/{id}/inventory - Invalid resource ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidResourceID)
		return
	}

	var req OpenInventoryRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /resources/{id}/inventory - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	resource, err := h.config.GetResource(r.Context(), resourceID)
	if err != nil {
		if errors.Is(err, configService.ErrResourceNotFound) {
			h.logger.Warn("POST /resources/{id}/inventory - Resource not found: resource_id=%d", resourceID)
			handlers.RespondNotFound(w, msgResourceNotFound)
			return
		}
		h.logger.Error("POST /resources/{id}/inventory - Failed to get resource: resource_id=%d, error=%v", resourceID, err)
		handlers.RespondInternalError(w)
		return
	}
	if resource.Kind != domain.KindDateRange {
		handlers.RespondBadRequest(w, msgNotDateRange)
		return
	}

	from, to, total, err := req.Parse(resource)
	if err != nil {
		h.logger.Warn("POST /resources/{id}/inventory - Invalid dates: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDates)
		return
	}

	counters, err := h.allocator.OpenInventory(r.Context(), resourceID, from, to, total)
	if err != nil {
		switch {
		case errors.Is(err, allocator.ErrInvalidRequest), errors.Is(err, domain.ErrInvalidConfig):
			h.logger.Warn("POST /resources/{id}/inventory - Invalid data: resource_id=%d, error=%v", resourceID, err)
			handlers.RespondBadRequest(w, msgInvalidData)

		default:
			h.logger.Error("POST /resources/{id}/inventory - Failed to open inventory: resource_id=%d, error=%v",
				resourceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /resources/{id}/inventory - Inventory opened: resource_id=%d, dates=%d, total=%d",
		resourceID, len(counters), total)
	handlers.RespondJSON(w, http.StatusOK, FromCounters(counters))
}
