package create_booking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BookingEngine/internal/api/middleware"
	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	createBooking "github.com/m04kA/SMC-BookingEngine/internal/usecase/create_booking"
	"github.com/m04kA/SMC-BookingEngine/pkg/types"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeUseCase struct {
	got  *createBooking.Request
	resp *createBooking.Response
	err  error
}

func (f *fakeUseCase) Execute(ctx context.Context, req *createBooking.Request) (*createBooking.Response, error) {
	f.got = req
	return f.resp, f.err
}

func serve(h *Handler, userID string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	if userID != "" {
		req.Header.Set(middleware.UserIDHeader, userID)
	}
	rec := httptest.NewRecorder()
	middleware.Auth(http.HandlerFunc(h.Handle)).ServeHTTP(rec, req)
	return rec
}

func TestHandle_CreatesSlotBooking(t *testing.T) {
	date := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	uc := &fakeUseCase{resp: &createBooking.Response{
		Booking: &domain.Booking{
			ID: 9, ResourceID: 1, UserID: 42, Kind: domain.KindSlot, BookingDate: date,
			StartTime: types.MustParseMinutes("10:15"), DurationMinutes: 60, Quantity: 1,
			AmountMinor: 3000, Status: domain.StatusConfirmed,
		},
		TransactionID: "tx-9",
	}}

	rec := serve(NewHandler(uc, nopLogger{}), "42", `{"resourceId":1,"bookingDate":"2026-05-02","startTime":"10:15"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(42), uc.got.UserID)
	assert.Equal(t, types.MustParseMinutes("10:15"), uc.got.StartTime)
	assert.True(t, date.Equal(uc.got.Date))

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "tx-9", body["transactionId"])
	assert.Equal(t, "10:15", body["startTime"])
	assert.Equal(t, "confirmed", body["status"])
	assert.EqualValues(t, 3000, body["amountMinor"])
}

func TestHandle_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "sold out", err: fmt.Errorf("%w: taken", domain.ErrCapacityExceeded), wantStatus: http.StatusConflict},
		{name: "lease expired", err: domain.ErrLeaseExpired, wantStatus: http.StatusConflict},
		{name: "payment", err: fmt.Errorf("%w: declined", createBooking.ErrPaymentFailed), wantStatus: http.StatusPaymentRequired},
		{name: "not found", err: createBooking.ErrResourceNotFound, wantStatus: http.StatusNotFound},
		{name: "bad slot", err: createBooking.ErrInvalidTimeSlot, wantStatus: http.StatusBadRequest},
		{name: "bad config", err: domain.ErrInvalidConfig, wantStatus: http.StatusBadRequest},
		{name: "internal", err: createBooking.ErrInternal, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(NewHandler(&fakeUseCase{err: tt.err}, nopLogger{}), "42", `{"resourceId":1}`)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandle_BadRequests(t *testing.T) {
	uc := &fakeUseCase{}
	h := NewHandler(uc, nopLogger{})

	assert.Equal(t, http.StatusUnauthorized, serve(h, "", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, "42", `{"resourceId":`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, "42", `{"resourceId":1,"bookingDate":"02.05.2026"}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, "42", `{"resourceId":1,"startTime":"25:00"}`).Code)
	assert.Nil(t, uc.got)
}
