package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-BookingEngine/internal/usecase/get_available_slots"
)

// AvailableSlotsResponse HTTP response model
type AvailableSlotsResponse struct {
	Date          string          `json:"date"`
	ResourceID    int64           `json:"resourceId"`
	IsOpen        bool            `json:"isOpen"`
	NextAvailable *string         `json:"nextAvailable,omitempty"`
	Slots         []AvailableSlot `json:"slots"`
}

// AvailableSlot модель временного слота
type AvailableSlot struct {
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	DurationMinutes int    `json:"durationMinutes"`
	PriceMinor      int64  `json:"priceMinor"`
	PeakRule        string `json:"peakRule,omitempty"`
	AvailableSpots  int    `json:"availableSpots"`
	TotalSpots      int    `json:"totalSpots"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailableSlotsResponse {
	slots := make([]AvailableSlot, len(resp.Slots))
	for i, slot := range resp.Slots {
		slots[i] = AvailableSlot{
			StartTime:       slot.StartTime.String(),
			EndTime:         slot.EndTime.String(),
			DurationMinutes: slot.DurationMinutes,
			PriceMinor:      slot.PriceMinor,
			PeakRule:        slot.PeakRule,
			AvailableSpots:  slot.AvailableSpots,
			TotalSpots:      slot.TotalSpots,
		}
	}

	result := &AvailableSlotsResponse{
		Date:       resp.Date.Format(domain.DateFormat),
		ResourceID: resp.ResourceID,
		IsOpen:     resp.IsOpen,
		Slots:      slots,
	}
	if resp.NextAvailable != nil {
		next := resp.NextAvailable.String()
		result.NextAvailable = &next
	}
	return result
}

// ToUseCaseRequest создает запрос use case из query параметров
func ToUseCaseRequest(userID, resourceID int64, dateStr string) (*getAvailableSlots.Request, error) {
	// Парсим дату
	date, err := time.Parse(domain.DateFormat, dateStr)
	if err != nil {
		return nil, err
	}

	return &getAvailableSlots.Request{
		UserID:     userID,
		ResourceID: resourceID,
		Date:       date,
	}, nil
}
