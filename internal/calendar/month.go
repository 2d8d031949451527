// Package calendar builds month grids and provides the date helpers shared by
// the attendance, time-slot and hour-table features.
//
// Months are always 1-based (January == 1). Callers that receive a month from
// outside the process convert it once through NewMonth.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

var (
	// ErrInvalidMonth is returned when a month number is outside 1..12.
	ErrInvalidMonth = errors.New("calendar: month must be between 1 and 12")
	// ErrInvalidYear is returned when a year is outside 1..9999.
	ErrInvalidYear = errors.New("calendar: year must be between 1 and 9999")
	// ErrInvalidDate is returned when a date string is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("calendar: date must use YYYY-MM-DD")
)

// Month identifies a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// NewMonth validates a 1-based (year, month) pair.
func NewMonth(year, month int) (Month, error) {
	if year < 1 || year > 9999 {
		return Month{}, ErrInvalidYear
	}
	if month < 1 || month > 12 {
		return Month{}, ErrInvalidMonth
	}
	return Month{Year: year, Month: time.Month(month)}, nil
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// First returns midnight UTC on the first day of the month.
func (m Month) First() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// DaysIn reports the number of days in the month.
func (m Month) DaysIn() int {
	return m.First().AddDate(0, 1, -1).Day()
}

// FirstWeekdayIndex returns the column of day 1 in a Sunday-first week.
func (m Month) FirstWeekdayIndex() int {
	return int(m.First().Weekday())
}

// Range returns the first and last dates of the month as YYYY-MM-DD strings.
func (m Month) Range() (string, string) {
	first := m.First()
	return FormatDate(first), FormatDate(first.AddDate(0, 1, -1))
}

// Prev returns the previous month.
func (m Month) Prev() Month {
	return MonthOf(m.First().AddDate(0, -1, 0))
}

// Next returns the following month.
func (m Month) Next() Month {
	return MonthOf(m.First().AddDate(0, 1, 0))
}

// Contains reports whether the YYYY-MM-DD date falls inside the month.
func (m Month) Contains(date string) bool {
	d, err := ParseDate(date)
	if err != nil {
		return false
	}
	return d.Year() == m.Year && d.Month() == m.Month
}

// Number returns the 1-based month number.
func (m Month) Number() int {
	return int(m.Month)
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string into midnight UTC.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return t, nil
}

// ValidDate reports whether value is a real YYYY-MM-DD date.
func ValidDate(value string) bool {
	_, err := ParseDate(value)
	return err == nil
}

var koreanWeekdays = [...]string{"일", "월", "화", "수", "목", "금", "토"}

// KoreanWeekday returns the short Korean weekday name.
func KoreanWeekday(day time.Weekday) string {
	if day < time.Sunday || day > time.Saturday {
		return ""
	}
	return koreanWeekdays[day]
}
