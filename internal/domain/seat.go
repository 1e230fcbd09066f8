package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// SeatStatus состояние места на сеансе
type SeatStatus string

const (
	SeatAvailable SeatStatus = "available"
	SeatReserved  SeatStatus = "reserved" // временное удержание до LeaseExpiry
	SeatBooked    SeatStatus = "booked"
)

// SeatLease состояние конкретного места на конкретном сеансе
type SeatLease struct {
	ShowtimeID  int64
	SeatID      string
	Status      SeatStatus
	Holder      string
	LeaseExpiry *time.Time
}

// EffectiveStatus статус с учетом истечения удержания:
// reserved с истекшим сроком считается available, даже если строку еще не подмели
func (s SeatLease) EffectiveStatus(now time.Time) SeatStatus {
	if s.Status == SeatReserved && s.LeaseExpiry != nil && !now.Before(*s.LeaseExpiry) {
		return SeatAvailable
	}
	return s.Status
}

// IsLeasedBy место удерживается holder и удержание еще действует
func (s SeatLease) IsLeasedBy(holder string, now time.Time) bool {
	return s.EffectiveStatus(now) == SeatReserved && s.Holder == holder
}

// Normalize приводит истекшее удержание к available
func (s SeatLease) Normalize(now time.Time) SeatLease {
	if s.EffectiveStatus(now) == SeatAvailable {
		return SeatLease{ShowtimeID: s.ShowtimeID, SeatID: s.SeatID, Status: SeatAvailable}
	}
	return s
}

// Showtime сеанс на экране (ресурсе) с началом в конкретный момент
// Sections - ценовые зоны зала; место вне зон продается по PriceMinor
type Showtime struct {
	ID         int64
	ResourceID int64
	StartsAt   time.Time
	PriceMinor int64
	Sections   []SeatSection
}

// SectionFor ценовая зона, в которую входит ряд места
// Зоны не должны делить ряды; при пересечении побеждает первая
func (s *Showtime) SectionFor(seatID string) (SeatSection, bool) {
	row := SeatRow(seatID)
	for _, section := range s.Sections {
		if slices.Contains(section.Rows, row) {
			return section, true
		}
	}
	return SeatSection{}, false
}

// SeatSection ценовая зона зала: ряды с общим множителем цены
type SeatSection struct {
	ID         string
	Name       string
	Rows       []string
	Multiplier decimal.Decimal
}

func (s SeatSection) Validate() error {
	if len(s.Rows) == 0 {
		return fmt.Errorf("%w: section %q has no rows", ErrInvalidConfig, s.ID)
	}
	if !s.Multiplier.IsPositive() {
		return fmt.Errorf("%w: section %q multiplier must be positive, got %s", ErrInvalidConfig, s.ID, s.Multiplier)
	}
	return nil
}

// SeatRow ряд места - буквенный префикс идентификатора: "B" для "B7", "AA" для "AA12"
func SeatRow(seatID string) string {
	if i := strings.IndexFunc(seatID, unicode.IsDigit); i >= 0 {
		return seatID[:i]
	}
	return seatID
}

// SeatResult результат пакетной операции над местами
type SeatResult struct {
	Seats       []SeatLease
	Changed     bool // false для идемпотентного повтора
	LeaseExpiry *time.Time
}
