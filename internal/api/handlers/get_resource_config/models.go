package get_resource_config

import (
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	configService "github.com/m04kA/SMC-BookingEngine/internal/service/config"
)

// ResourceConfigResponse HTTP response model
type ResourceConfigResponse struct {
	ResourceID int64  `json:"resourceId"`
	StoreID    int64  `json:"storeId"`
	Name       string `json:"name"`
	Vertical   string `json:"vertical"`
	Kind       string `json:"kind"`

	DurationMinutes int    `json:"durationMinutes"`
	BufferMinutes   int    `json:"bufferMinutes"`
	Capacity        int    `json:"capacity"`
	BasePriceMinor  int64  `json:"basePriceMinor"`
	CheckInTime     string `json:"checkInTime,omitempty"`

	MinBookingNoticeMinutes int `json:"minBookingNoticeMinutes"`
	AdvanceBookingDays      int `json:"advanceBookingDays"`

	Date         string                `json:"date"`
	IsOpen       bool                  `json:"isOpen"`
	WorkingHours *WorkingHoursResponse `json:"workingHours,omitempty"`
	PeakRules    []PeakRuleResponse    `json:"peakRules"`
	Cancellation []RefundTierResponse  `json:"cancellationPolicy"`
}

// WorkingHoursResponse рабочее окно на дату
type WorkingHoursResponse struct {
	Start  string          `json:"start"`
	End    string          `json:"end"`
	Breaks []BreakResponse `json:"breaks"`
}

// BreakResponse перерыв
type BreakResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Name  string `json:"name,omitempty"`
}

// PeakRuleResponse пиковое окно с множителем
type PeakRuleResponse struct {
	Start      string `json:"start"`
	End        string `json:"end"`
	Multiplier string `json:"multiplier"`
	Name       string `json:"name,omitempty"`
}

// RefundTierResponse ступень политики отмены
type RefundTierResponse struct {
	MinMinutesBefore int64  `json:"minMinutesBefore"`
	Fraction         string `json:"fraction"`
}

// FromServiceConfig конвертирует конфигурацию сервиса в HTTP response
func FromServiceConfig(cfg *configService.ResourceConfig, policy domain.CancellationPolicy) *ResourceConfigResponse {
	r := cfg.Resource
	resp := &ResourceConfigResponse{
		ResourceID:              r.ID,
		StoreID:                 r.StoreID,
		Name:                    r.Name,
		Vertical:                string(r.Vertical),
		Kind:                    string(r.Kind),
		DurationMinutes:         r.DurationMinutes,
		BufferMinutes:           r.BufferMinutes,
		Capacity:                r.Capacity,
		BasePriceMinor:          r.BasePriceMinor,
		MinBookingNoticeMinutes: r.MinBookingNoticeMinutes,
		AdvanceBookingDays:      r.AdvanceBookingDays,
		Date:                    cfg.Date.Format(domain.DateFormat),
		IsOpen:                  cfg.IsOpen(),
		PeakRules:               make([]PeakRuleResponse, 0, len(cfg.PeakRules)),
		Cancellation:            make([]RefundTierResponse, 0, len(policy.Tiers)),
	}

	if r.Kind == domain.KindDateRange {
		resp.CheckInTime = r.CheckInTime.String()
	}

	if cfg.WorkingHours != nil {
		wh := &WorkingHoursResponse{
			Start:  cfg.WorkingHours.Start.String(),
			End:    cfg.WorkingHours.End.String(),
			Breaks: make([]BreakResponse, 0, len(cfg.WorkingHours.Breaks)),
		}
		for _, b := range cfg.WorkingHours.Breaks {
			wh.Breaks = append(wh.Breaks, BreakResponse{Start: b.Start.String(), End: b.End.String(), Name: b.Name})
		}
		resp.WorkingHours = wh
	}

	for _, rule := range cfg.PeakRules {
		resp.PeakRules = append(resp.PeakRules, PeakRuleResponse{
			Start:      rule.Start.String(),
			End:        rule.End.String(),
			Multiplier: rule.Multiplier.String(),
			Name:       rule.Name,
		})
	}

	for _, tier := range policy.Sorted() {
		resp.Cancellation = append(resp.Cancellation, RefundTierResponse{
			MinMinutesBefore: int64(tier.MinBeforeEvent / time.Minute),
			Fraction:         tier.Fraction.String(),
		})
	}

	return resp
}
