package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

type seatKey struct {
	showtimeID int64
	seatID     string
}

type seatEntry struct {
	mu    sync.Mutex
	lease domain.SeatLease
}

// showtimeEntry карта мест сеанса; ids отсортированы и заменяются целиком под mu
type showtimeEntry struct {
	mu  sync.Mutex
	ids []string
}

func (e *showtimeEntry) seatIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ids
}

// SeatStore места сеансов в памяти с блокировкой на каждое место
type SeatStore struct {
	seats     sync.Map // seatKey -> *seatEntry
	showtimes sync.Map // showtimeID -> *showtimeEntry
}

// NewSeatStore создает пустое хранилище
func NewSeatStore() *SeatStore {
	return &SeatStore{}
}

// AddSeats регистрирует карту мест сеанса; существующие места не меняются
func (s *SeatStore) AddSeats(ctx context.Context, showtimeID int64, seatIDs []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	v, _ := s.showtimes.LoadOrStore(showtimeID, &showtimeEntry{})
	entry := v.(*showtimeEntry)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	ids := append(slices.Clone(entry.ids), seatIDs...)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	for _, id := range ids {
		s.seats.LoadOrStore(seatKey{showtimeID, id}, &seatEntry{
			lease: domain.SeatLease{ShowtimeID: showtimeID, SeatID: id, Status: domain.SeatAvailable},
		})
	}
	entry.ids = ids
	return nil
}

// lockSeats блокирует места в отсортированном порядке; неизвестное место дает ErrSeatUnavailable
func (s *SeatStore) lockSeats(showtimeID int64, seatIDs []string) ([]*seatEntry, func(), error) {
	ids := slices.Clone(seatIDs)
	slices.Sort(ids)

	entries := make([]*seatEntry, 0, len(ids))
	for _, id := range ids {
		v, ok := s.seats.Load(seatKey{showtimeID, id})
		if !ok {
			return nil, nil, fmt.Errorf("%w: seat %s does not exist on showtime %d", domain.ErrSeatUnavailable, id, showtimeID)
		}
		entries = append(entries, v.(*seatEntry))
	}

	for _, e := range entries {
		e.mu.Lock()
	}
	return entries, func() {
		for i := len(entries) - 1; i >= 0; i-- {
			entries[i].mu.Unlock()
		}
	}, nil
}

func snapshot(entries []*seatEntry) []domain.SeatLease {
	leases := make([]domain.SeatLease, len(entries))
	for i, e := range entries {
		leases[i] = e.lease
	}
	return leases
}

func (s *SeatStore) Reserve(ctx context.Context, showtimeID int64, seatIDs []string, holder string, now, expiry time.Time) ([]domain.SeatLease, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, unlock, err := s.lockSeats(showtimeID, seatIDs)
	if err != nil {
		return nil, err
	}
	defer unlock()

	next, err := domain.PlanReserve(snapshot(entries), holder, now, expiry)
	if err != nil {
		return nil, err
	}
	for i, e := range entries {
		e.lease = next[i]
	}
	return next, nil
}

func (s *SeatStore) Finalize(ctx context.Context, showtimeID int64, seatIDs []string, holder string, now time.Time) (domain.SeatResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.SeatResult{}, err
	}

	entries, unlock, err := s.lockSeats(showtimeID, seatIDs)
	if err != nil {
		return domain.SeatResult{}, err
	}
	defer unlock()

	next, changed, err := domain.PlanFinalize(snapshot(entries), holder, now)
	if err != nil {
		return domain.SeatResult{}, err
	}
	for i, e := range entries {
		e.lease = next[i]
	}
	return domain.SeatResult{Seats: next, Changed: changed}, nil
}

func (s *SeatStore) Release(ctx context.Context, showtimeID int64, seatIDs []string, holder string, now time.Time) ([]domain.SeatLease, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, unlock, err := s.lockSeats(showtimeID, seatIDs)
	if err != nil {
		return nil, err
	}
	defer unlock()

	released := domain.PlanRelease(snapshot(entries), holder, now)
	for _, r := range released {
		for _, e := range entries {
			if e.lease.SeatID == r.SeatID {
				e.lease = r
			}
		}
	}
	return released, nil
}

func (s *SeatStore) GetSeats(ctx context.Context, showtimeID int64, now time.Time) ([]domain.SeatLease, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v, ok := s.showtimes.Load(showtimeID)
	if !ok {
		return []domain.SeatLease{}, nil
	}
	ids := v.(*showtimeEntry).seatIDs()

	leases := make([]domain.SeatLease, 0, len(ids))
	for _, id := range ids {
		ev, ok := s.seats.Load(seatKey{showtimeID, id})
		if !ok {
			continue
		}
		e := ev.(*seatEntry)
		e.mu.Lock()
		// Ленивое истечение: тот, кто читает место, приводит его в актуальное состояние
		e.lease = e.lease.Normalize(now)
		leases = append(leases, e.lease)
		e.mu.Unlock()
	}
	return leases, nil
}

func (s *SeatStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	swept := 0
	var err error

	s.seats.Range(func(_, v any) bool {
		if err = ctx.Err(); err != nil {
			return false
		}
		e := v.(*seatEntry)
		e.mu.Lock()
		if e.lease.Status == domain.SeatReserved && e.lease.EffectiveStatus(now) == domain.SeatAvailable {
			e.lease = e.lease.Normalize(now)
			swept++
		}
		e.mu.Unlock()
		return true
	})
	return swept, err
}
