package payments

import "fmt"

// ChargeRequest запрос на списание за бронирование
type ChargeRequest struct {
	IdempotencyKey string `json:"-"`
	BookingID      int64  `json:"booking_id"`
	UserID         int64  `json:"user_id"`
	AmountMinor    int64  `json:"amount_minor"`
	Description    string `json:"description"`
}

// RefundRequest запрос на возврат по отмененному бронированию
type RefundRequest struct {
	IdempotencyKey string `json:"-"`
	BookingID      int64  `json:"booking_id"`
	UserID         int64  `json:"user_id"`
	AmountMinor    int64  `json:"amount_minor"`
	Reason         string `json:"reason"`
}

// Result ответ шлюза
type Result struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	AmountMinor   int64  `json:"amount_minor"`
}

// ErrorResponse модель ошибки от шлюза
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ChargeKey ключ идемпотентности списания
func ChargeKey(bookingID int64) string {
	return fmt.Sprintf("booking:%d:charge", bookingID)
}

// RefundKey ключ идемпотентности возврата
func RefundKey(bookingID int64) string {
	return fmt.Sprintf("booking:%d:refund", bookingID)
}
