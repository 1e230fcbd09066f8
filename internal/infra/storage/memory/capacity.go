package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

type counterKey struct {
	resourceID int64
	periodKey  string
}

type counterEntry struct {
	mu      sync.Mutex
	counter domain.CapacityCounter
	exists  bool
}

// CapacityStore счетчики вместимости в памяти
// Блокировка берется на каждый ключ (ресурс, период) отдельно, общей блокировки нет
type CapacityStore struct {
	entries sync.Map // counterKey -> *counterEntry
}

// NewCapacityStore создает пустое хранилище
func NewCapacityStore() *CapacityStore {
	return &CapacityStore{}
}

func (s *CapacityStore) entry(resourceID int64, periodKey string) *counterEntry {
	e, _ := s.entries.LoadOrStore(counterKey{resourceID, periodKey}, &counterEntry{})
	return e.(*counterEntry)
}

// SetSold задает проданное количество (для подготовки данных)
func (s *CapacityStore) SetSold(resourceID int64, periodKey string, sold int) {
	e := s.entry(resourceID, periodKey)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.counter.SoldCount = sold
}

// lockAll блокирует ключи в отсортированном порядке и возвращает функцию разблокировки
func (s *CapacityStore) lockAll(resourceID int64, periodKeys []string) ([]string, []*counterEntry, func()) {
	keys := slices.Clone(periodKeys)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	locked := make([]*counterEntry, len(keys))
	for i, key := range keys {
		e := s.entry(resourceID, key)
		e.mu.Lock()
		locked[i] = e
	}

	return keys, locked, func() {
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].mu.Unlock()
		}
	}
}

// OpenRange создает счетчики или меняет их вместимость, не опуская ниже проданного
func (s *CapacityStore) OpenRange(ctx context.Context, resourceID int64, periodKeys []string, total int) ([]domain.CapacityCounter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keys, entries, unlock := s.lockAll(resourceID, periodKeys)
	defer unlock()

	for i, e := range entries {
		if e.exists && e.counter.SoldCount > total {
			return nil, fmt.Errorf("%w: capacity %d is below sold count %d on %s", domain.ErrInvalidConfig, total, e.counter.SoldCount, keys[i])
		}
	}

	result := make([]domain.CapacityCounter, len(entries))
	for i, e := range entries {
		e.counter.ResourceID = resourceID
		e.counter.PeriodKey = keys[i]
		e.counter.TotalCapacity = total
		e.exists = true
		result[i] = e.counter
	}
	return result, nil
}

// ClaimRange проверяет все ключи и только затем увеличивает каждый
func (s *CapacityStore) ClaimRange(ctx context.Context, resourceID int64, periodKeys []string, qty int) ([]domain.CapacityCounter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keys, entries, unlock := s.lockAll(resourceID, periodKeys)
	defer unlock()

	for i, e := range entries {
		if !e.exists {
			return nil, fmt.Errorf("%w: no inventory for resource %d on %s", domain.ErrCapacityExceeded, resourceID, keys[i])
		}
		if !e.counter.CanClaim(qty) {
			return nil, fmt.Errorf("%w: resource %d on %s has %d free, requested %d",
				domain.ErrCapacityExceeded, resourceID, keys[i], e.counter.Free(), qty)
		}
	}

	result := make([]domain.CapacityCounter, len(entries))
	for i, e := range entries {
		e.counter.SoldCount += qty
		result[i] = e.counter
	}
	return result, nil
}

// ReleaseRange уменьшает проданное на всех ключах, не опуская ниже нуля
func (s *CapacityStore) ReleaseRange(ctx context.Context, resourceID int64, periodKeys []string, qty int) ([]domain.CapacityCounter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keys, entries, unlock := s.lockAll(resourceID, periodKeys)
	defer unlock()

	for i, e := range entries {
		if !e.exists || e.counter.SoldCount < qty {
			return nil, fmt.Errorf("%w: resource %d on %s sold %d, release %d",
				domain.ErrInvalidRelease, resourceID, keys[i], e.counter.SoldCount, qty)
		}
	}

	result := make([]domain.CapacityCounter, len(entries))
	for i, e := range entries {
		e.counter.SoldCount -= qty
		result[i] = e.counter
	}
	return result, nil
}

// GetCounters текущие значения счетчиков; отсутствующие ключи пропускаются
func (s *CapacityStore) GetCounters(ctx context.Context, resourceID int64, periodKeys []string) ([]domain.CapacityCounter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := make([]domain.CapacityCounter, 0, len(periodKeys))
	for _, key := range periodKeys {
		v, ok := s.entries.Load(counterKey{resourceID, key})
		if !ok {
			continue
		}
		e := v.(*counterEntry)
		e.mu.Lock()
		if e.exists {
			result = append(result, e.counter)
		}
		e.mu.Unlock()
	}
	return result, nil
}

// ClaimSlot создает счетчик слота при первом обращении и условно увеличивает его
func (s *CapacityStore) ClaimSlot(ctx context.Context, resourceID int64, periodKey string, total, qty int) (domain.CapacityCounter, error) {
	if err := ctx.Err(); err != nil {
		return domain.CapacityCounter{}, err
	}

	e := s.entry(resourceID, periodKey)
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.exists {
		e.counter = domain.CapacityCounter{ResourceID: resourceID, PeriodKey: periodKey, TotalCapacity: total}
		e.exists = true
	}
	if !e.counter.CanClaim(qty) {
		return domain.CapacityCounter{}, fmt.Errorf("%w: slot %s of resource %d has %d free, requested %d",
			domain.ErrCapacityExceeded, periodKey, resourceID, e.counter.Free(), qty)
	}

	e.counter.SoldCount += qty
	return e.counter, nil
}

// ReleaseSlot уменьшает счетчик слота
func (s *CapacityStore) ReleaseSlot(ctx context.Context, resourceID int64, periodKey string, qty int) (domain.CapacityCounter, error) {
	if err := ctx.Err(); err != nil {
		return domain.CapacityCounter{}, err
	}

	e := s.entry(resourceID, periodKey)
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.exists || e.counter.SoldCount < qty {
		return domain.CapacityCounter{}, fmt.Errorf("%w: slot %s of resource %d sold %d, release %d",
			domain.ErrInvalidRelease, periodKey, resourceID, e.counter.SoldCount, qty)
	}

	e.counter.SoldCount -= qty
	return e.counter, nil
}
