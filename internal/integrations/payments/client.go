package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client клиент платежного шлюза
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента шлюза
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Charge списывает сумму за бронирование
// Повтор с тем же ключом идемпотентности не приводит к повторному списанию
func (c *Client) Charge(ctx context.Context, req ChargeRequest) (*Result, error) {
	c.log.Info("Charging booking id=%d amount=%d key=%s", req.BookingID, req.AmountMinor, req.IdempotencyKey)
	return c.post(ctx, "/internal/payments/charges", req.IdempotencyKey, req)
}

// Refund возвращает сумму по отмененному бронированию
func (c *Client) Refund(ctx context.Context, req RefundRequest) (*Result, error) {
	c.log.Info("Refunding booking id=%d amount=%d key=%s", req.BookingID, req.AmountMinor, req.IdempotencyKey)
	return c.post(ctx, "/internal/payments/refunds", req.IdempotencyKey, req)
}

func (c *Client) post(ctx context.Context, path, idempotencyKey string, payload interface{}) (*Result, error) {
	if idempotencyKey == "" {
		return nil, fmt.Errorf("%w: idempotency key is required", ErrInternal)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode request: %v", ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	// Обработка статус-кодов
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		// Продолжаем обработку
	case http.StatusPaymentRequired:
		var errResp ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return nil, fmt.Errorf("%w: %s", ErrDeclined, errResp.Message)
	default:
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(raw))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	return &result, nil
}
