// Пакет retest — правило вычисления даты повторной проверки
// и статус сертификата относительно этой даты.
package retest

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout — формат календарной даты в API и в БД.
const DateLayout = "2006-01-02"

// FixedOffset — смещение по умолчанию: 364 дня, а не календарный год.
const FixedOffset = 364

// ErrInvalidDate — строка не является датой YYYY-MM-DD или RFC 3339.
var ErrInvalidDate = errors.New("некорректная дата")

// Policy вычисляет retest_date по service_date.
type Policy interface {
	Name() string
	Next(serviceDate time.Time) time.Time
}

// Fixed — фиксированное смещение в днях.
type Fixed struct {
	Days int
}

// Name возвращает имя политики.
func (p Fixed) Name() string { return fmt.Sprintf("fixed-%d", p.Days) }

// Next возвращает serviceDate + Days дней.
func (p Fixed) Next(serviceDate time.Time) time.Time {
	return Truncate(serviceDate).AddDate(0, 0, p.Days)
}

// CalendarYear — та же дата через год. 29 февраля переходит в 28 февраля.
type CalendarYear struct{}

// Name возвращает имя политики.
func (CalendarYear) Name() string { return "calendar-year" }

// Next возвращает дату через календарный год.
// AddDate нормализует 2025-02-29 в 2025-03-01, поэтому конец месяца прижимается.
func (CalendarYear) Next(serviceDate time.Time) time.Time {
	d := Truncate(serviceDate)
	next := time.Date(d.Year()+1, d.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := next.AddDate(0, 1, -1).Day()
	day := d.Day()
	if day > last {
		day = last
	}
	return time.Date(next.Year(), next.Month(), day, 0, 0, 0, 0, time.UTC)
}

// New возвращает политику по имени из конфигурации.
func New(name string) (Policy, error) {
	switch name {
	case "", "fixed-364":
		return Fixed{Days: FixedOffset}, nil
	case "calendar-year":
		return CalendarYear{}, nil
	}
	return nil, fmt.Errorf("неизвестная политика retest: %q", name)
}

// Truncate приводит момент времени к полуночи UTC той же календарной даты.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate разбирает YYYY-MM-DD или RFC 3339.
// Для RFC 3339 берётся календарная дата в исходном смещении.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return Truncate(t), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// Status возвращает статус сертификата и количество дней до повторной проверки.
// overdue — дата прошла, due — наступит в пределах window, иначе valid.
func Status(retestDate, now time.Time, window time.Duration) (string, int) {
	today := Truncate(now)
	days := int(Truncate(retestDate).Sub(today).Hours() / 24)
	switch {
	case days < 0:
		return "overdue", days
	case time.Duration(days)*24*time.Hour <= window:
		return "due", days
	default:
		return "valid", days
	}
}
