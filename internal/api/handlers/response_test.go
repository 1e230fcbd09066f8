package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

func TestRespondDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		handled    bool
		wantStatus int
	}{
		{name: "capacity", err: fmt.Errorf("%w: sold out", domain.ErrCapacityExceeded), handled: true, wantStatus: http.StatusConflict},
		{name: "seat", err: domain.ErrSeatUnavailable, handled: true, wantStatus: http.StatusConflict},
		{name: "lease", err: domain.ErrLeaseExpired, handled: true, wantStatus: http.StatusConflict},
		{name: "config", err: domain.ErrInvalidConfig, handled: true, wantStatus: http.StatusBadRequest},
		{name: "other", err: errors.New("boom"), handled: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			assert.Equal(t, tt.handled, RespondDomainError(rec, tt.err))
			if !tt.handled {
				return
			}
			assert.Equal(t, tt.wantStatus, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantStatus, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	var v struct {
		UserID int64 `json:"userId"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"userId":1,"extra":true}`))
	require.Error(t, DecodeJSON(r, &v))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"userId":1}`))
	require.NoError(t, DecodeJSON(r, &v))
	assert.Equal(t, int64(1), v.UserID)
}
