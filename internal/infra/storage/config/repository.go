package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-BookingEngine/pkg/psqlbuilder"
)

// Repository читает административную конфигурацию ресурсов
// Движок конфигурацию только читает: правки делаются между окнами продаж
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория конфигурации
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetResource получает активный ресурс по ID
func (r *Repository) GetResource(ctx context.Context, id int64) (*domain.Resource, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"store_id",
		"vertical",
		"kind",
		"name",
		"duration_minutes",
		"buffer_minutes",
		"capacity",
		"base_price_minor",
		"check_in_time",
		"min_booking_notice_minutes",
		"advance_booking_days",
		"is_active",
		"created_at",
		"updated_at",
	).
		From("resources").
		Where(squirrel.Eq{"id": id, "is_active": true}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetResource - build select query: %v", ErrBuildQuery, err)
	}

	var resource domain.Resource
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&resource.ID,
		&resource.StoreID,
		&resource.Vertical,
		&resource.Kind,
		&resource.Name,
		&resource.DurationMinutes,
		&resource.BufferMinutes,
		&resource.Capacity,
		&resource.BasePriceMinor,
		&resource.CheckInTime,
		&resource.MinBookingNoticeMinutes,
		&resource.AdvanceBookingDays,
		&resource.IsActive,
		&createdAt,
		&updatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetResource - scan resource: %v", ErrScanRow, err)
	}

	resource.CreatedAt = createdAt.Time
	resource.UpdatedAt = updatedAt.Time

	return &resource, nil
}

// GetWorkingHours получает рабочие часы ресурса на день недели вместе с перерывами
// Приоритет:
// 1. Строка для конкретного дня недели
// 2. Строка с day_of_week = NULL (все дни)
//
// Если ни одной строки нет, ресурс в этот день закрыт: ErrWorkingHoursNotFound
func (r *Repository) GetWorkingHours(ctx context.Context, resourceID int64, weekday time.Weekday) (*domain.WorkingHours, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("start_time", "end_time").
		From("working_hours").
		Where(squirrel.Eq{"resource_id": resourceID}).
		Where(squirrel.Or{
			squirrel.Eq{"day_of_week": int(weekday)},
			squirrel.Eq{"day_of_week": nil},
		}).
		OrderBy("day_of_week ASC NULLS LAST"). // Конкретный день первым
		Limit(1).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetWorkingHours - build select query: %v", ErrBuildQuery, err)
	}

	var hours domain.WorkingHours
	err = executor.QueryRowContext(ctx, query, args...).Scan(&hours.Start, &hours.End)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWorkingHoursNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetWorkingHours - scan working hours: %v", ErrScanRow, err)
	}

	breaks, err := r.getBreaks(ctx, resourceID, weekday)
	if err != nil {
		return nil, err
	}
	hours.Breaks = breaks

	return &hours, nil
}

func (r *Repository) getBreaks(ctx context.Context, resourceID int64, weekday time.Weekday) ([]domain.Break, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("start_time", "end_time", "name").
		From("working_breaks").
		Where(squirrel.Eq{"resource_id": resourceID}).
		Where(squirrel.Or{
			squirrel.Eq{"day_of_week": int(weekday)},
			squirrel.Eq{"day_of_week": nil},
		}).
		OrderBy("start_time ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: getBreaks - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: getBreaks - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	breaks := make([]domain.Break, 0)
	for rows.Next() {
		var b domain.Break
		var name sql.NullString
		if err := rows.Scan(&b.Start, &b.End, &name); err != nil {
			return nil, fmt.Errorf("%w: getBreaks - scan row: %v", ErrScanRow, err)
		}
		b.Name = name.String
		breaks = append(breaks, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: getBreaks - rows error: %v", ErrScanRow, err)
	}

	return breaks, nil
}

// GetPeakRules получает правила пиковых цен ресурса на день недели
// Порядок priority, id - это административный приоритет: побеждает первое совпадение
func (r *Repository) GetPeakRules(ctx context.Context, resourceID int64, weekday time.Weekday) ([]domain.PeakRule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("start_time", "end_time", "multiplier", "name").
		From("peak_pricing_rules").
		Where(squirrel.Eq{"resource_id": resourceID, "is_active": true}).
		Where(squirrel.Or{
			squirrel.Eq{"day_of_week": int(weekday)},
			squirrel.Eq{"day_of_week": nil},
		}).
		OrderBy("priority ASC", "id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetPeakRules - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetPeakRules - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	rules := make([]domain.PeakRule, 0)
	for rows.Next() {
		var rule domain.PeakRule
		var name sql.NullString
		if err := rows.Scan(&rule.Start, &rule.End, &rule.Multiplier, &name); err != nil {
			return nil, fmt.Errorf("%w: GetPeakRules - scan row: %v", ErrScanRow, err)
		}
		rule.Name = name.String
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetPeakRules - rows error: %v", ErrScanRow, err)
	}

	return rules, nil
}

// GetCancellationPolicy получает индивидуальную политику отмены ресурса
// found = false, если у ресурса нет своих ступеней и действует политика направления
func (r *Repository) GetCancellationPolicy(ctx context.Context, resourceID int64) (policy domain.CancellationPolicy, found bool, err error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("min_minutes_before", "refund_fraction").
		From("cancellation_policy_tiers").
		Where(squirrel.Eq{"resource_id": resourceID}).
		OrderBy("min_minutes_before DESC").
		ToSql()

	if err != nil {
		return policy, false, fmt.Errorf("%w: GetCancellationPolicy - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return policy, false, fmt.Errorf("%w: GetCancellationPolicy - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var minutes int64
		var fraction decimal.Decimal
		if err := rows.Scan(&minutes, &fraction); err != nil {
			return policy, false, fmt.Errorf("%w: GetCancellationPolicy - scan row: %v", ErrScanRow, err)
		}
		policy.Tiers = append(policy.Tiers, domain.RefundTier{
			MinBeforeEvent: time.Duration(minutes) * time.Minute,
			Fraction:       fraction,
		})
	}

	if err := rows.Err(); err != nil {
		return policy, false, fmt.Errorf("%w: GetCancellationPolicy - rows error: %v", ErrScanRow, err)
	}

	return policy, len(policy.Tiers) > 0, nil
}

// GetShowtime получает сеанс по ID
func (r *Repository) GetShowtime(ctx context.Context, id int64) (*domain.Showtime, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "resource_id", "starts_at", "price_minor").
		From("showtimes").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetShowtime - build select query: %v", ErrBuildQuery, err)
	}

	var showtime domain.Showtime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&showtime.ID,
		&showtime.ResourceID,
		&showtime.StartsAt,
		&showtime.PriceMinor,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShowtimeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetShowtime - scan showtime: %v", ErrScanRow, err)
	}

	return &showtime, nil
}

// GetSeatSections получает ценовые зоны зала (ресурса) в порядке position
func (r *Repository) GetSeatSections(ctx context.Context, resourceID int64) ([]domain.SeatSection, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("section_id", "name", "rows", "price_multiplier").
		From("seat_sections").
		Where(squirrel.Eq{"resource_id": resourceID}).
		OrderBy("position ASC", "section_id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetSeatSections - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetSeatSections - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	sections := make([]domain.SeatSection, 0)
	for rows.Next() {
		var section domain.SeatSection
		var name sql.NullString
		if err := rows.Scan(&section.ID, &name, pq.Array(&section.Rows), &section.Multiplier); err != nil {
			return nil, fmt.Errorf("%w: GetSeatSections - scan row: %v", ErrScanRow, err)
		}
		section.Name = name.String
		sections = append(sections, section)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetSeatSections - rows error: %v", ErrScanRow, err)
	}

	return sections, nil
}
