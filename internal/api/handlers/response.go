package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

const (
	msgInternalError      = "внутренняя ошибка сервера"
	msgCapacityExceeded   = "нет свободных мест на выбранный период"
	msgSeatUnavailable    = "одно или несколько мест уже заняты"
	msgLeaseExpired       = "время удержания мест истекло"
	msgInvalidResourceCfg = "некорректная конфигурация ресурса"
)

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// DecodeJSON декодирует тело запроса, отклоняя неизвестные поля
func DecodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errors.New("empty request body")
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("failed to decode request body: %w", err)
	}
	return nil
}

// RespondJSON пишет JSON ответ; nil тело дает пустой ответ
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// RespondError пишет ошибку с кодом status
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorResponse{Code: status, Message: message})
}

func RespondBadRequest(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusBadRequest, message)
}

func RespondUnauthorized(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusUnauthorized, message)
}

func RespondForbidden(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusForbidden, message)
}

func RespondNotFound(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusNotFound, message)
}

func RespondConflict(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusConflict, message)
}

func RespondInternalError(w http.ResponseWriter) {
	RespondError(w, http.StatusInternalServerError, msgInternalError)
}

// RespondDomainError отвечает на ошибки конкуренции (409) и конфигурации (400)
// Возвращает false, если ошибка не доменная и ее должен обработать вызывающий
func RespondDomainError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, domain.ErrCapacityExceeded):
		RespondConflict(w, msgCapacityExceeded)
	case errors.Is(err, domain.ErrSeatUnavailable):
		RespondConflict(w, msgSeatUnavailable)
	case errors.Is(err, domain.ErrLeaseExpired):
		RespondConflict(w, msgLeaseExpired)
	case errors.Is(err, domain.ErrInvalidConfig):
		RespondBadRequest(w, msgInvalidResourceCfg)
	default:
		return false
	}
	return true
}
