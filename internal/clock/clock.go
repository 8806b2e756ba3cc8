package clock

import (
	"fmt"
	"time"
)

// DayLayout: формат, в котором день хранится в БД и ходит по API.
const DayLayout = "2006-01-02"

// Day is a calendar date in YYYY-MM-DD form.
// String order equals calendar order, so it can be compared as text in SQL.
type Day string

func DayOf(t time.Time) Day {
	return Day(t.Format(DayLayout))
}

func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid day %q: %w", s, err)
	}
	return DayOf(t), nil
}

// AddDays shifts the day by n calendar days (n may be negative).
func (d Day) AddDays(n int) Day {
	t, err := time.ParseInLocation(DayLayout, string(d), time.UTC)
	if err != nil {
		return d
	}
	return DayOf(t.AddDate(0, 0, n))
}

func (d Day) String() string {
	return string(d)
}

// Clock is the only source of "now" for day boundaries.
type Clock interface {
	Now() time.Time
}

type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed always reports the same instant.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }

// FixedDay pins the clock to noon of the given day.
func FixedDay(d Day) Fixed {
	t, err := time.ParseInLocation(DayLayout, string(d), time.Local)
	if err != nil {
		panic(err)
	}
	return Fixed{T: t.Add(12 * time.Hour)}
}

func Today(c Clock) Day {
	return DayOf(c.Now())
}
