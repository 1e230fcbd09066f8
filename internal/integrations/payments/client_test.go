package payments

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BookingEngine/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, time.Second, logger.NewWithWriter(io.Discard, logger.LevelError))
}

func TestClient_Charge(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/internal/payments/charges", r.URL.Path)
		assert.Equal(t, "booking:7:charge", r.Header.Get("Idempotency-Key"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 7, body["booking_id"])
		assert.EqualValues(t, 2500, body["amount_minor"])
		assert.NotContains(t, body, "IdempotencyKey")

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Result{TransactionID: "tx-1", Status: "succeeded", AmountMinor: 2500})
	})

	result, err := client.Charge(context.Background(), ChargeRequest{
		IdempotencyKey: ChargeKey(7), BookingID: 7, UserID: 1, AmountMinor: 2500,
	})

	require.NoError(t, err)
	assert.Equal(t, "tx-1", result.TransactionID)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "declined", status: http.StatusPaymentRequired, wantErr: ErrDeclined},
		{name: "server error", status: http.StatusInternalServerError, wantErr: ErrInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(ErrorResponse{Code: tt.status, Message: "nope"})
			})

			_, err := client.Refund(context.Background(), RefundRequest{IdempotencyKey: RefundKey(1), BookingID: 1, AmountMinor: 10})
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_RequiresIdempotencyKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request must not be sent")
	})

	_, err := client.Charge(context.Background(), ChargeRequest{BookingID: 1})
	require.ErrorIs(t, err, ErrInternal)
}

func TestFake_IdempotentByKey(t *testing.T) {
	fake := NewFake()
	ctx := context.Background()

	first, err := fake.Charge(ctx, ChargeRequest{IdempotencyKey: ChargeKey(1), AmountMinor: 100})
	require.NoError(t, err)

	fake.SetDecline(true)
	again, err := fake.Charge(ctx, ChargeRequest{IdempotencyKey: ChargeKey(1), AmountMinor: 100})
	require.NoError(t, err)
	assert.Equal(t, first.TransactionID, again.TransactionID)

	_, err = fake.Charge(ctx, ChargeRequest{IdempotencyKey: ChargeKey(2), AmountMinor: 100})
	require.ErrorIs(t, err, ErrDeclined)

	assert.Len(t, fake.Charges(), 1)
	assert.Empty(t, fake.Refunds())
}
