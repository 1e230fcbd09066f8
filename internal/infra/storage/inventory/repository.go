package inventory

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-BookingEngine/pkg/psqlbuilder"
)

const table = "capacity_counters"

var counterColumns = []string{"resource_id", "period_key", "total_capacity", "sold_count"}

// Repository счетчики вместимости в PostgreSQL
//
// Таблица capacity_counters хранит по строке на (resource_id, period_key),
// CHECK (sold_count BETWEEN 0 AND total_capacity) страхует инвариант на уровне БД.
// Посуточные операции блокируют строки FOR UPDATE в порядке period_key внутри одной транзакции,
// операции над слотом выполняются одним условным UPDATE.
type Repository struct {
	db  DBExecutor
	txm TransactionManager
}

// NewRepository создает репозиторий счетчиков
func NewRepository(db DBExecutor, txm TransactionManager) *Repository {
	return &Repository{db: db, txm: txm}
}

// Transactional изменения выполняются в SQL-транзакции из контекста и откатываются вместе с ней
func (r *Repository) Transactional() bool {
	return true
}

// OpenRange открывает продажи: создает счетчики или меняет вместимость существующих
// Вместимость нельзя опустить ниже уже проданного
func (r *Repository) OpenRange(ctx context.Context, resourceID int64, periodKeys []string, total int) ([]domain.CapacityCounter, error) {
	keys := sortedKeys(periodKeys)
	var result []domain.CapacityCounter

	err := r.txm.Do(ctx, func(ctx context.Context) error {
		executor := dbmetrics.GetExecutor(ctx, r.db)

		insert := psqlbuilder.Insert(table).Columns("resource_id", "period_key", "total_capacity", "sold_count")
		for _, key := range keys {
			insert = insert.Values(resourceID, key, total, 0)
		}
		query, args, err := insert.
			Suffix("ON CONFLICT (resource_id, period_key) DO UPDATE SET total_capacity = EXCLUDED.total_capacity, updated_at = NOW() " +
				"WHERE capacity_counters.sold_count <= EXCLUDED.total_capacity " +
				"RETURNING resource_id, period_key, total_capacity, sold_count").
			ToSql()
		if err != nil {
			return fmt.Errorf("%w: OpenRange - build upsert query: %v", ErrBuildQuery, err)
		}

		counters, err := r.queryCounters(ctx, executor, query, args)
		if err != nil {
			return fmt.Errorf("OpenRange: %w", err)
		}
		if len(counters) != len(keys) {
			return fmt.Errorf("%w: capacity %d is below sold count for some of %v", domain.ErrInvalidConfig, total, keys)
		}

		result = sortCounters(counters)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ClaimRange увеличивает sold_count на qty для всех ключей или не меняет ни одного
func (r *Repository) ClaimRange(ctx context.Context, resourceID int64, periodKeys []string, qty int) ([]domain.CapacityCounter, error) {
	keys := sortedKeys(periodKeys)
	var result []domain.CapacityCounter

	err := r.txm.Do(ctx, func(ctx context.Context) error {
		locked, err := r.lockCounters(ctx, resourceID, keys)
		if err != nil {
			return err
		}

		if missing := missingKeys(keys, locked); len(missing) > 0 {
			return fmt.Errorf("%w: no inventory for resource %d on %v", domain.ErrCapacityExceeded, resourceID, missing)
		}
		for _, c := range locked {
			if !c.CanClaim(qty) {
				return fmt.Errorf("%w: resource %d on %s has %d free, requested %d",
					domain.ErrCapacityExceeded, resourceID, c.PeriodKey, c.Free(), qty)
			}
		}

		result, err = r.shiftSold(ctx, resourceID, keys, qty)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReleaseRange уменьшает sold_count на qty для всех ключей
func (r *Repository) ReleaseRange(ctx context.Context, resourceID int64, periodKeys []string, qty int) ([]domain.CapacityCounter, error) {
	keys := sortedKeys(periodKeys)
	var result []domain.CapacityCounter

	err := r.txm.Do(ctx, func(ctx context.Context) error {
		locked, err := r.lockCounters(ctx, resourceID, keys)
		if err != nil {
			return err
		}

		if missing := missingKeys(keys, locked); len(missing) > 0 {
			return fmt.Errorf("%w: no inventory for resource %d on %v", domain.ErrInvalidRelease, resourceID, missing)
		}
		for _, c := range locked {
			if c.SoldCount < qty {
				return fmt.Errorf("%w: resource %d on %s sold %d, release %d",
					domain.ErrInvalidRelease, resourceID, c.PeriodKey, c.SoldCount, qty)
			}
		}

		result, err = r.shiftSold(ctx, resourceID, keys, -qty)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetCounters текущие значения счетчиков без блокировки
func (r *Repository) GetCounters(ctx context.Context, resourceID int64, periodKeys []string) ([]domain.CapacityCounter, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(counterColumns...).
		From(table).
		Where(squirrel.Eq{"resource_id": resourceID, "period_key": periodKeys}).
		OrderBy("period_key").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetCounters - build select query: %v", ErrBuildQuery, err)
	}

	counters, err := r.queryCounters(ctx, executor, query, args)
	if err != nil {
		return nil, fmt.Errorf("GetCounters: %w", err)
	}
	return counters, nil
}

// ClaimSlot создает счетчик слота при первом обращении и условно увеличивает его одним UPDATE
func (r *Repository) ClaimSlot(ctx context.Context, resourceID int64, periodKey string, total, qty int) (domain.CapacityCounter, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	insertQuery, insertArgs, err := psqlbuilder.Insert(table).
		Columns("resource_id", "period_key", "total_capacity", "sold_count").
		Values(resourceID, periodKey, total, 0).
		Suffix("ON CONFLICT (resource_id, period_key) DO NOTHING").
		ToSql()
	if err != nil {
		return domain.CapacityCounter{}, fmt.Errorf("%w: ClaimSlot - build insert query: %v", ErrBuildQuery, err)
	}
	if _, err := executor.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		return domain.CapacityCounter{}, fmt.Errorf("%w: ClaimSlot - ensure counter: %w", ErrExecQuery, err)
	}

	query, args, err := psqlbuilder.Update(table).
		Set("sold_count", squirrel.Expr("sold_count + ?", qty)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"resource_id": resourceID, "period_key": periodKey}).
		Where(squirrel.Expr("sold_count + ? <= total_capacity", qty)).
		Suffix("RETURNING resource_id, period_key, total_capacity, sold_count").
		ToSql()
	if err != nil {
		return domain.CapacityCounter{}, fmt.Errorf("%w: ClaimSlot - build update query: %v", ErrBuildQuery, err)
	}

	counter, err := scanCounter(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CapacityCounter{}, fmt.Errorf("%w: slot %s of resource %d cannot take %d more", domain.ErrCapacityExceeded, periodKey, resourceID, qty)
	}
	if err != nil {
		return domain.CapacityCounter{}, fmt.Errorf("%w: ClaimSlot - update counter: %w", ErrExecQuery, err)
	}
	return counter, nil
}

// ReleaseSlot условно уменьшает счетчик слота, не опуская его ниже нуля
func (r *Repository) ReleaseSlot(ctx context.Context, resourceID int64, periodKey string, qty int) (domain.CapacityCounter, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(table).
		Set("sold_count", squirrel.Expr("sold_count - ?", qty)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"resource_id": resourceID, "period_key": periodKey}).
		Where(squirrel.GtOrEq{"sold_count": qty}).
		Suffix("RETURNING resource_id, period_key, total_capacity, sold_count").
		ToSql()
	if err != nil {
		return domain.CapacityCounter{}, fmt.Errorf("%w: ReleaseSlot - build update query: %v", ErrBuildQuery, err)
	}

	counter, err := scanCounter(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CapacityCounter{}, fmt.Errorf("%w: slot %s of resource %d has fewer than %d sold", domain.ErrInvalidRelease, periodKey, resourceID, qty)
	}
	if err != nil {
		return domain.CapacityCounter{}, fmt.Errorf("%w: ReleaseSlot - update counter: %w", ErrExecQuery, err)
	}
	return counter, nil
}

// lockCounters блокирует строки счетчиков в порядке period_key
func (r *Repository) lockCounters(ctx context.Context, resourceID int64, keys []string) ([]domain.CapacityCounter, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(counterColumns...).
		From(table).
		Where(squirrel.Eq{"resource_id": resourceID, "period_key": keys}).
		OrderBy("period_key").
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: lockCounters - build select query: %v", ErrBuildQuery, err)
	}

	counters, err := r.queryCounters(ctx, executor, query, args)
	if err != nil {
		return nil, fmt.Errorf("lockCounters: %w", err)
	}
	return counters, nil
}

// shiftSold сдвигает sold_count уже заблокированных строк на delta
func (r *Repository) shiftSold(ctx context.Context, resourceID int64, keys []string, delta int) ([]domain.CapacityCounter, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(table).
		Set("sold_count", squirrel.Expr("sold_count + ?", delta)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"resource_id": resourceID, "period_key": keys}).
		Suffix("RETURNING resource_id, period_key, total_capacity, sold_count").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: shiftSold - build update query: %v", ErrBuildQuery, err)
	}

	counters, err := r.queryCounters(ctx, executor, query, args)
	if err != nil {
		return nil, fmt.Errorf("shiftSold: %w", err)
	}
	return sortCounters(counters), nil
}

func (r *Repository) queryCounters(ctx context.Context, executor DBExecutor, query string, args []interface{}) ([]domain.CapacityCounter, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	counters := make([]domain.CapacityCounter, 0)
	for rows.Next() {
		counter, err := scanCounter(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanRow, err)
		}
		counters = append(counters, counter)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows iteration: %w", ErrScanRow, err)
	}
	return counters, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCounter(row rowScanner) (domain.CapacityCounter, error) {
	var c domain.CapacityCounter
	err := row.Scan(&c.ResourceID, &c.PeriodKey, &c.TotalCapacity, &c.SoldCount)
	return c, err
}

func sortedKeys(keys []string) []string {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}

func sortCounters(counters []domain.CapacityCounter) []domain.CapacityCounter {
	slices.SortFunc(counters, func(a, b domain.CapacityCounter) int {
		return cmp.Compare(a.PeriodKey, b.PeriodKey)
	})
	return counters
}

func missingKeys(keys []string, found []domain.CapacityCounter) []string {
	present := make(map[string]struct{}, len(found))
	for _, c := range found {
		present[c.PeriodKey] = struct{}{}
	}

	missing := make([]string, 0)
	for _, key := range keys {
		if _, ok := present[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}
