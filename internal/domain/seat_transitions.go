package domain

import (
	"fmt"
	"time"
)

// PlanReserve переводит места в reserved за holder до expiry
// Каждое место должно быть фактически свободно (истекшее удержание считается свободным), иначе вся пачка отклоняется
func PlanReserve(current []SeatLease, holder string, now, expiry time.Time) ([]SeatLease, error) {
	next := make([]SeatLease, len(current))
	for i, seat := range current {
		if seat.EffectiveStatus(now) != SeatAvailable {
			return nil, fmt.Errorf("%w: seat %s on showtime %d is %s", ErrSeatUnavailable, seat.SeatID, seat.ShowtimeID, seat.EffectiveStatus(now))
		}
		exp := expiry
		next[i] = SeatLease{
			ShowtimeID:  seat.ShowtimeID,
			SeatID:      seat.SeatID,
			Status:      SeatReserved,
			Holder:      holder,
			LeaseExpiry: &exp,
		}
	}
	return next, nil
}

// PlanFinalize переводит удержанные holder места в booked
//
// Места, уже проданные этому же holder, считаются идемпотентным повтором.
// Если все места уже проданы holder, changed == false.
// Место, проданное или удерживаемое другим, дает ErrSeatUnavailable,
// место с истекшим или отсутствующим удержанием дает ErrLeaseExpired. В обоих случаях вся пачка отклоняется.
func PlanFinalize(current []SeatLease, holder string, now time.Time) (next []SeatLease, changed bool, err error) {
	next = make([]SeatLease, len(current))
	for i, seat := range current {
		switch {
		case seat.Status == SeatBooked && seat.Holder == holder:
			next[i] = seat
		case seat.Status == SeatBooked:
			return nil, false, fmt.Errorf("%w: seat %s on showtime %d is already booked", ErrSeatUnavailable, seat.SeatID, seat.ShowtimeID)
		case seat.IsLeasedBy(holder, now):
			next[i] = SeatLease{
				ShowtimeID: seat.ShowtimeID,
				SeatID:     seat.SeatID,
				Status:     SeatBooked,
				Holder:     holder,
			}
			changed = true
		case seat.EffectiveStatus(now) == SeatReserved:
			return nil, false, fmt.Errorf("%w: seat %s on showtime %d is held by another customer", ErrSeatUnavailable, seat.SeatID, seat.ShowtimeID)
		default:
			return nil, false, fmt.Errorf("%w: seat %s on showtime %d", ErrLeaseExpired, seat.SeatID, seat.ShowtimeID)
		}
	}
	return next, changed, nil
}

// PlanRelease возвращает в available места, удерживаемые или проданные holder
// Свободные и чужие места не трогаются; в результат попадают только измененные места
func PlanRelease(current []SeatLease, holder string, now time.Time) []SeatLease {
	released := make([]SeatLease, 0, len(current))
	for _, seat := range current {
		status := seat.EffectiveStatus(now)
		if status == SeatAvailable || seat.Holder != holder {
			continue
		}
		released = append(released, SeatLease{ShowtimeID: seat.ShowtimeID, SeatID: seat.SeatID, Status: SeatAvailable})
	}
	return released
}
