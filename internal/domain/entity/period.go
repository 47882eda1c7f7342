package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period is the year-month a claim covers
type Period struct {
	Year  int
	Month time.Month
}

// NewPeriod returns the period containing t
func NewPeriod(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod parses "2025-01" into a Period
func ParsePeriod(s string) (Period, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 1 {
		return Period{}, fmt.Errorf("%w: invalid year in %q", ErrInvalidPeriod, s)
	}

	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return Period{}, fmt.Errorf("%w: invalid month in %q", ErrInvalidPeriod, s)
	}

	return Period{Year: year, Month: time.Month(month)}, nil
}

// String returns the period formatted as "2025-01"
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// IsZero reports whether the period is unset
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// FirstDay returns the first day of the period in UTC
func (p Period) FirstDay() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Days returns the number of days in the period
func (p Period) Days() int {
	return p.Next().FirstDay().AddDate(0, 0, -1).Day()
}

// Date returns the given day of the period, clamped to the last day of the month
func (p Period) Date(day int) time.Time {
	if day < 1 {
		day = 1
	}
	if last := p.Days(); day > last {
		day = last
	}
	return time.Date(p.Year, p.Month, day, 0, 0, 0, 0, time.UTC)
}

// Contains reports whether t falls within the period
func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.Year && t.Month() == p.Month
}

// Next returns the following period
func (p Period) Next() Period {
	return NewPeriod(p.FirstDay().AddDate(0, 1, 0))
}

// Prev returns the preceding period
func (p Period) Prev() Period {
	return NewPeriod(p.FirstDay().AddDate(0, -1, 0))
}

// MarshalText implements encoding.TextMarshaler
func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Period) UnmarshalText(text []byte) error {
	parsed, err := ParsePeriod(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
