package reporting

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidMonth = errors.New("invalid month")

type Month struct {
	Year  int
	Month time.Month
}

func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth accepts "YYYY-MM" or an English month name, which refers to
// that month of now's year. An empty string is the month of now.
func ParseMonth(s string, now time.Time) (Month, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return MonthOf(now), nil
	}

	if t, err := time.Parse("2006-01", s); err == nil {
		return MonthOf(t), nil
	}

	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(s, m.String()) {
			return Month{Year: now.Year(), Month: m}, nil
		}
	}

	return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
}

// Window returns [first day 00:00, first day of next month 00:00) in loc, so
// the last day of the month counts in full.
func (m Month) Window(loc *time.Location) (time.Time, time.Time) {
	from := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 1, 0)
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}
