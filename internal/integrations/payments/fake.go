package payments

import (
	"context"
	"fmt"
	"sync"
)

// Fake шлюз в памяти для локального запуска и тестов
// Операции идемпотентны по ключу, как у настоящего шлюза
type Fake struct {
	mu      sync.Mutex
	decline bool
	seq     int
	charges map[string]Result
	refunds map[string]Result
}

// NewFake создает шлюз, одобряющий все операции
func NewFake() *Fake {
	return &Fake{
		charges: make(map[string]Result),
		refunds: make(map[string]Result),
	}
}

// SetDecline переключает отклонение новых операций
func (f *Fake) SetDecline(decline bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decline = decline
}

// Charge списание
func (f *Fake) Charge(ctx context.Context, req ChargeRequest) (*Result, error) {
	return f.apply(f.charges, req.IdempotencyKey, req.AmountMinor)
}

// Refund возврат
func (f *Fake) Refund(ctx context.Context, req RefundRequest) (*Result, error) {
	return f.apply(f.refunds, req.IdempotencyKey, req.AmountMinor)
}

// Charges проведенные списания по ключу
func (f *Fake) Charges() map[string]Result {
	return f.snapshot(f.charges)
}

// Refunds проведенные возвраты по ключу
func (f *Fake) Refunds() map[string]Result {
	return f.snapshot(f.refunds)
}

func (f *Fake) apply(store map[string]Result, key string, amountMinor int64) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if key == "" {
		return nil, fmt.Errorf("%w: idempotency key is required", ErrInternal)
	}
	if result, ok := store[key]; ok {
		return &result, nil
	}
	if f.decline {
		return nil, ErrDeclined
	}

	f.seq++
	result := Result{TransactionID: fmt.Sprintf("fake-%d", f.seq), Status: "succeeded", AmountMinor: amountMinor}
	store[key] = result
	return &result, nil
}

func (f *Fake) snapshot(store map[string]Result) map[string]Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]Result, len(store))
	for k, v := range store {
		out[k] = v
	}
	return out
}
