package open_inventory

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

// OpenInventoryRequest HTTP request model
// Total применяется к каждой дате из [from, to)
type OpenInventoryRequest struct {
	From  string `json:"from"` // "2025-10-15"
	To    string `json:"to"`   // не включительно
	Total *int   `json:"total,omitempty"`
}

// CounterResponse счетчик вместимости на дату
type CounterResponse struct {
	Date          string `json:"date"`
	TotalCapacity int    `json:"totalCapacity"`
	SoldCount     int    `json:"soldCount"`
	Free          int    `json:"free"`
}

// Parse разбирает даты; без total используется вместимость ресурса
func (r *OpenInventoryRequest) Parse(resource *domain.Resource) (from, to time.Time, total int, err error) {
	if from, err = time.Parse(domain.DateFormat, r.From); err != nil {
		return from, to, 0, fmt.Errorf("from: %w", err)
	}
	if to, err = time.Parse(domain.DateFormat, r.To); err != nil {
		return from, to, 0, fmt.Errorf("to: %w", err)
	}

	total = resource.Capacity
	if r.Total != nil {
		total = *r.Total
	}
	return from, to, total, nil
}

// FromCounters конвертирует счетчики в HTTP response
func FromCounters(counters []domain.CapacityCounter) []CounterResponse {
	resp := make([]CounterResponse, 0, len(counters))
	for _, c := range counters {
		resp = append(resp, CounterResponse{
			Date:          c.PeriodKey,
			TotalCapacity: c.TotalCapacity,
			SoldCount:     c.SoldCount,
			Free:          c.Free(),
		})
	}
	return resp
}
