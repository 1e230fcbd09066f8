package types

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay количество минут в сутках
const MinutesPerDay = 24 * 60

var (
	// ErrInvalidTimeFormat возвращается, если строка не в формате HH:MM или HH:MM:SS
	ErrInvalidTimeFormat = errors.New("types: invalid time format, expected HH:MM")

	// ErrOutOfRange возвращается, если значение вне диапазона [0, 1440)
	ErrOutOfRange = errors.New("types: minutes out of range")
)

// Minutes время суток в минутах от полуночи, допустимый диапазон [0, 1440)
// Все расчёты слотов ведутся в этом целочисленном домене
type Minutes int

// ParseMinutes разбирает время в формате "HH:MM" или "HH:MM:SS"
// Секунды отбрасываются
func ParseMinutes(s string) (Minutes, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	mins, err := strconv.Atoi(parts[1])
	if err != nil || mins < 0 || mins > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
		}
	}

	m := Minutes(hours*60 + mins)
	if err := m.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %q", err, s)
	}
	return m, nil
}

// MustParseMinutes как ParseMinutes, но паникует при ошибке (для констант и тестов)
func MustParseMinutes(s string) Minutes {
	m, err := ParseMinutes(s)
	if err != nil {
		panic(err)
	}
	return m
}

// MinutesFromTime извлекает время суток из time.Time (в его локации)
func MinutesFromTime(t time.Time) Minutes {
	return Minutes(t.Hour()*60 + t.Minute())
}

// Validate проверяет, что значение в диапазоне [0, 1440)
func (m Minutes) Validate() error {
	if m < 0 || m >= MinutesPerDay {
		return fmt.Errorf("%w: %d", ErrOutOfRange, int(m))
	}
	return nil
}

// Add возвращает время, сдвинутое на delta минут (без нормализации через полночь)
func (m Minutes) Add(delta int) Minutes {
	return m + Minutes(delta)
}

// IsBefore проверяет, что m строго раньше other
func (m Minutes) IsBefore(other Minutes) bool {
	return m < other
}

// IsAfter проверяет, что m строго позже other
func (m Minutes) IsAfter(other Minutes) bool {
	return m > other
}

// OnDate возвращает момент времени m на дате date в локации date
func (m Minutes) OnDate(date time.Time) time.Time {
	y, mo, d := date.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, date.Location()).Add(time.Duration(m) * time.Minute)
}

// String форматирует как "HH:MM"
func (m Minutes) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// MarshalText для JSON и TOML
func (m Minutes) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText для JSON и TOML
func (m *Minutes) UnmarshalText(text []byte) error {
	parsed, err := ParseMinutes(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value хранится в БД как целое число минут
func (m Minutes) Value() (driver.Value, error) {
	return int64(m), nil
}

// Scan поддерживает integer, текст "HH:MM[:SS]" (колонки типа time) и time.Time
func (m *Minutes) Scan(src interface{}) error {
	switch v := src.(type) {
	case int64:
		if err := Minutes(v).Validate(); err != nil {
			return err
		}
		*m = Minutes(v)
	case []byte:
		return m.UnmarshalText(v)
	case string:
		return m.UnmarshalText([]byte(v))
	case time.Time:
		*m = MinutesFromTime(v)
	case nil:
		*m = 0
	default:
		return fmt.Errorf("types: cannot scan %T into Minutes", src)
	}
	return nil
}
