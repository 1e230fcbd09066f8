package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-BookingEngine/pkg/types"
)

// Break перерыв внутри рабочих часов, в который слоты не начинаются
type Break struct {
	Start types.Minutes
	End   types.Minutes
	Name  string
}

// Interval перерыв как полуоткрытый интервал
func (b Break) Interval() Interval {
	return Interval{Start: b.Start, End: b.End}
}

// WorkingHours рабочее окно ресурса на день
// Breaks упорядочены по началу и не пересекаются
type WorkingHours struct {
	Start  types.Minutes
	End    types.Minutes
	Breaks []Break
}

// Validate проверяет границы окна и перерывов
func (w WorkingHours) Validate() error {
	if err := w.Start.Validate(); err != nil {
		return fmt.Errorf("%w: working hours start: %v", ErrInvalidConfig, err)
	}
	if err := w.End.Validate(); err != nil {
		return fmt.Errorf("%w: working hours end: %v", ErrInvalidConfig, err)
	}
	if !w.Start.IsBefore(w.End) {
		return fmt.Errorf("%w: working hours start %s must be before end %s", ErrInvalidConfig, w.Start, w.End)
	}

	for i, b := range w.Breaks {
		if !b.Start.IsBefore(b.End) {
			return fmt.Errorf("%w: break %s-%s is empty", ErrInvalidConfig, b.Start, b.End)
		}
		if i > 0 && b.Start.IsBefore(w.Breaks[i-1].End) {
			return fmt.Errorf("%w: breaks must be ordered and non-overlapping (%s-%s after %s-%s)",
				ErrInvalidConfig, b.Start, b.End, w.Breaks[i-1].Start, w.Breaks[i-1].End)
		}
	}
	return nil
}

// Interval рабочее окно как полуоткрытый интервал
func (w WorkingHours) Interval() Interval {
	return Interval{Start: w.Start, End: w.End}
}

// PeakRule окно времени суток с множителем цены
// Порядок правил задает приоритет: побеждает первое совпадение
type PeakRule struct {
	Start      types.Minutes
	End        types.Minutes
	Multiplier decimal.Decimal
	Name       string
}

// Contains проверяет, что минута попадает в окно правила [Start, End)
func (p PeakRule) Contains(m types.Minutes) bool {
	return Interval{Start: p.Start, End: p.End}.Contains(m)
}

// Validate множитель должен быть положительным, окно непустым
func (p PeakRule) Validate() error {
	if !p.Start.IsBefore(p.End) {
		return fmt.Errorf("%w: peak window %s-%s is empty", ErrInvalidConfig, p.Start, p.End)
	}
	if !p.Multiplier.IsPositive() {
		return fmt.Errorf("%w: peak multiplier must be positive, got %s", ErrInvalidConfig, p.Multiplier)
	}
	return nil
}

// RefundTier ступень политики отмены: при отмене не позднее чем за MinBeforeEvent возвращается Fraction
type RefundTier struct {
	MinBeforeEvent time.Duration
	Fraction       decimal.Decimal
}

// CancellationPolicy упорядоченная таблица ступеней возврата
type CancellationPolicy struct {
	Tiers []RefundTier
}

// Validate доля в [0, 1], порог неотрицательный
func (p CancellationPolicy) Validate() error {
	one := decimal.NewFromInt(1)
	for _, tier := range p.Tiers {
		if tier.MinBeforeEvent < 0 {
			return fmt.Errorf("%w: refund tier threshold must not be negative", ErrInvalidConfig)
		}
		if tier.Fraction.IsNegative() || tier.Fraction.GreaterThan(one) {
			return fmt.Errorf("%w: refund fraction must be in [0, 1], got %s", ErrInvalidConfig, tier.Fraction)
		}
	}
	return nil
}

// Sorted ступени от самой щедрой (дальней) к ближайшей
func (p CancellationPolicy) Sorted() []RefundTier {
	tiers := make([]RefundTier, len(p.Tiers))
	copy(tiers, p.Tiers)
	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].MinBeforeEvent > tiers[j].MinBeforeEvent
	})
	return tiers
}

// DefaultCancellationPolicy 24ч и больше - 100%, от 6ч - 50%, иначе 0
func DefaultCancellationPolicy() CancellationPolicy {
	return CancellationPolicy{Tiers: []RefundTier{
		{MinBeforeEvent: 24 * time.Hour, Fraction: decimal.NewFromInt(1)},
		{MinBeforeEvent: 6 * time.Hour, Fraction: decimal.NewFromFloat(0.5)},
	}}
}
