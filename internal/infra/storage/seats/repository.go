package seats

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-BookingEngine/pkg/psqlbuilder"
)

const table = "seat_leases"

var leaseColumns = []string{"showtime_id", "seat_id", "status", "holder", "lease_expiry"}

// Repository места сеансов в PostgreSQL
// Каждая пакетная операция блокирует строки мест FOR UPDATE в порядке seat_id внутри одной транзакции
type Repository struct {
	db  DBExecutor
	txm TransactionManager
}

// NewRepository создает репозиторий мест
func NewRepository(db DBExecutor, txm TransactionManager) *Repository {
	return &Repository{db: db, txm: txm}
}

// Transactional изменения выполняются в SQL-транзакции из контекста и откатываются вместе с ней
func (r *Repository) Transactional() bool {
	return true
}

// AddSeats регистрирует карту мест сеанса; существующие места не меняются
func (r *Repository) AddSeats(ctx context.Context, showtimeID int64, seatIDs []string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	insert := psqlbuilder.Insert(table).Columns("showtime_id", "seat_id", "status")
	for _, id := range seatIDs {
		insert = insert.Values(showtimeID, id, domain.SeatAvailable)
	}
	query, args, err := insert.Suffix("ON CONFLICT (showtime_id, seat_id) DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("%w: AddSeats - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: AddSeats - execute insert: %w", ErrExecQuery, err)
	}
	return nil
}

// Reserve удерживает все места за holder до expiry
func (r *Repository) Reserve(ctx context.Context, showtimeID int64, seatIDs []string, holder string, now, expiry time.Time) ([]domain.SeatLease, error) {
	var result []domain.SeatLease

	err := r.txm.Do(ctx, func(ctx context.Context) error {
		current, err := r.lockSeats(ctx, showtimeID, seatIDs)
		if err != nil {
			return err
		}

		next, err := domain.PlanReserve(current, holder, now, expiry)
		if err != nil {
			return err
		}

		update := psqlbuilder.Update(table).
			Set("status", domain.SeatReserved).
			Set("holder", holder).
			Set("lease_expiry", expiry)
		if err := r.apply(ctx, update, showtimeID, seatIDs); err != nil {
			return fmt.Errorf("Reserve: %w", err)
		}

		result = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Finalize продает места, удерживаемые holder
func (r *Repository) Finalize(ctx context.Context, showtimeID int64, seatIDs []string, holder string, now time.Time) (domain.SeatResult, error) {
	var result domain.SeatResult

	err := r.txm.Do(ctx, func(ctx context.Context) error {
		current, err := r.lockSeats(ctx, showtimeID, seatIDs)
		if err != nil {
			return err
		}

		next, changed, err := domain.PlanFinalize(current, holder, now)
		if err != nil {
			return err
		}

		if changed {
			update := psqlbuilder.Update(table).
				Set("status", domain.SeatBooked).
				Set("lease_expiry", nil).
				Where(squirrel.Eq{"holder": holder})
			if err := r.apply(ctx, update, showtimeID, seatIDs); err != nil {
				return fmt.Errorf("Finalize: %w", err)
			}
		}

		result = domain.SeatResult{Seats: next, Changed: changed}
		return nil
	})
	if err != nil {
		return domain.SeatResult{}, err
	}
	return result, nil
}

// Release освобождает места, удерживаемые или проданные holder
func (r *Repository) Release(ctx context.Context, showtimeID int64, seatIDs []string, holder string, now time.Time) ([]domain.SeatLease, error) {
	var result []domain.SeatLease

	err := r.txm.Do(ctx, func(ctx context.Context) error {
		current, err := r.lockSeats(ctx, showtimeID, seatIDs)
		if err != nil {
			return err
		}

		released := domain.PlanRelease(current, holder, now)
		if len(released) > 0 {
			ids := make([]string, len(released))
			for i, seat := range released {
				ids[i] = seat.SeatID
			}
			update := psqlbuilder.Update(table).
				Set("status", domain.SeatAvailable).
				Set("holder", nil).
				Set("lease_expiry", nil)
			if err := r.apply(ctx, update, showtimeID, ids); err != nil {
				return fmt.Errorf("Release: %w", err)
			}
		}

		result = released
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetSeats все места сеанса в порядке seat_id
func (r *Repository) GetSeats(ctx context.Context, showtimeID int64, _ time.Time) ([]domain.SeatLease, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(leaseColumns...).
		From(table).
		Where(squirrel.Eq{"showtime_id": showtimeID}).
		OrderBy("seat_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetSeats - build select query: %v", ErrBuildQuery, err)
	}

	leases, err := queryLeases(ctx, executor, query, args)
	if err != nil {
		return nil, fmt.Errorf("GetSeats: %w", err)
	}
	return leases, nil
}

// SweepExpired возвращает в available все удержания, истекшие к now
func (r *Repository) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(table).
		Set("status", domain.SeatAvailable).
		Set("holder", nil).
		Set("lease_expiry", nil).
		Where(squirrel.Eq{"status": domain.SeatReserved}).
		Where(squirrel.LtOrEq{"lease_expiry": now}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: SweepExpired - build update query: %v", ErrBuildQuery, err)
	}

	res, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: SweepExpired - execute update: %w", ErrExecQuery, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: SweepExpired - rows affected: %w", ErrExecQuery, err)
	}
	return int(n), nil
}

// lockSeats блокирует строки мест; отсутствующее место означает ErrSeatUnavailable
func (r *Repository) lockSeats(ctx context.Context, showtimeID int64, seatIDs []string) ([]domain.SeatLease, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(leaseColumns...).
		From(table).
		Where(squirrel.Eq{"showtime_id": showtimeID}).
		Where(squirrel.Expr("seat_id = ANY(?)", pq.Array(seatIDs))).
		OrderBy("seat_id").
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: lockSeats - build select query: %v", ErrBuildQuery, err)
	}

	leases, err := queryLeases(ctx, executor, query, args)
	if err != nil {
		return nil, fmt.Errorf("lockSeats: %w", err)
	}
	if len(leases) != len(seatIDs) {
		return nil, fmt.Errorf("%w: %d of %d seats do not exist on showtime %d",
			domain.ErrSeatUnavailable, len(seatIDs)-len(leases), len(seatIDs), showtimeID)
	}
	return leases, nil
}

func (r *Repository) apply(ctx context.Context, update squirrel.UpdateBuilder, showtimeID int64, seatIDs []string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := update.
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"showtime_id": showtimeID}).
		Where(squirrel.Expr("seat_id = ANY(?)", pq.Array(seatIDs))).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: build update query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: execute update: %w", ErrExecQuery, err)
	}
	return nil
}

func queryLeases(ctx context.Context, executor DBExecutor, query string, args []interface{}) ([]domain.SeatLease, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	leases := make([]domain.SeatLease, 0)
	for rows.Next() {
		var lease domain.SeatLease
		var holder sql.NullString
		var expiry sql.NullTime

		if err := rows.Scan(&lease.ShowtimeID, &lease.SeatID, &lease.Status, &holder, &expiry); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanRow, err)
		}
		lease.Holder = holder.String
		if expiry.Valid {
			t := expiry.Time
			lease.LeaseExpiry = &t
		}
		leases = append(leases, lease)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows iteration: %w", ErrScanRow, err)
	}
	return leases, nil
}
