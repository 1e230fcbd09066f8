package domain

import "errors"

// Ошибки конфигурации: обнаруживаются синхронно и никогда не подменяются значениями по умолчанию
var (
	// ErrInvalidConfig некорректная длительность, вместимость, рабочие часы или политика
	ErrInvalidConfig = errors.New("domain: invalid configuration")
)

// Ошибки конкуренции: ожидаемый результат спроса, вызывающий должен повторить с другими входными данными
var (
	// ErrCapacityExceeded ресурс распродан на запрошенный период
	ErrCapacityExceeded = errors.New("domain: capacity exceeded")

	// ErrSeatUnavailable одно или несколько мест уже удерживаются или проданы
	ErrSeatUnavailable = errors.New("domain: seat unavailable")

	// ErrLeaseExpired удержание места истекло (или отсутствует) к моменту подтверждения
	ErrLeaseExpired = errors.New("domain: seat lease expired")
)

var (
	// ErrInvariantViolation sold > capacity или sold < 0 после изменения - ошибка блокировок, не пользователя
	ErrInvariantViolation = errors.New("domain: capacity invariant violated")

	// ErrInvalidRelease попытка освободить больше, чем было продано
	ErrInvalidRelease = errors.New("domain: release exceeds sold count")
)

// IsContention проверяет, относится ли ошибка к ожидаемым ошибкам конкуренции
func IsContention(err error) bool {
	return errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrSeatUnavailable) ||
		errors.Is(err, ErrLeaseExpired)
}
