package domain

import "fmt"

// CapacityCounter счетчик проданного на ключ периода (дата или слот)
// Инвариант: 0 <= SoldCount <= TotalCapacity в любой наблюдаемый момент
type CapacityCounter struct {
	ResourceID    int64
	PeriodKey     string
	TotalCapacity int
	SoldCount     int
}

// Free свободная вместимость
func (c CapacityCounter) Free() int {
	return c.TotalCapacity - c.SoldCount
}

// CanClaim можно ли продать еще qty единиц
func (c CapacityCounter) CanClaim(qty int) bool {
	return c.SoldCount+qty <= c.TotalCapacity
}

// CheckInvariant проверяет 0 <= sold <= total
func (c CapacityCounter) CheckInvariant() error {
	if c.SoldCount < 0 || c.SoldCount > c.TotalCapacity {
		return fmt.Errorf("%w: resource=%d period=%s sold=%d total=%d",
			ErrInvariantViolation, c.ResourceID, c.PeriodKey, c.SoldCount, c.TotalCapacity)
	}
	return nil
}
