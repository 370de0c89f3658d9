package dto

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout - формат даты в JSON.
const DateLayout = "2006-01-02"

// Date - календарный день без времени и часового пояса.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf берёт календарный день из t в его часовом поясе.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate разбирает дату формата YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, &DateDecodeError{Value: s}
	}

	return DateOf(t), nil
}

// Time возвращает полночь UTC этого дня.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Before сообщает, что d строго раньше other.
func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

// AddYears сдвигает дату на n лет (n может быть отрицательным).
func (d Date) AddYears(n int) Date {
	return DateOf(d.Time().AddDate(n, 0, 0))
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed

	return nil
}

// DateDecodeError - дата в JSON не соответствует формату YYYY-MM-DD.
type DateDecodeError struct {
	Value string
}

func (e *DateDecodeError) Error() string {
	return fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", e.Value)
}
