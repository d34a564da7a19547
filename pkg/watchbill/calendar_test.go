package watchbill

import (
	"testing"
	"time"
)

func TestWeekdayWeight(t *testing.T) {
	cases := []struct {
		date time.Time
		want float64
	}{
		{time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC), 1.0}, // Monday
		{time.Date(2026, time.January, 8, 0, 0, 0, 0, time.UTC), 1.0}, // Thursday
		{time.Date(2026, time.January, 9, 0, 0, 0, 0, time.UTC), 1.5}, // Friday
		{time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC), 2.0}, // Saturday
		{time.Date(2026, time.January, 11, 0, 0, 0, 0, time.UTC), 2.0}, // Sunday
	}
	for _, c := range cases {
		if got := weekdayWeight(c.date); got != c.want {
			t.Errorf("weekdayWeight(%s) = %v, want %v", c.date.Weekday(), got, c.want)
		}
	}
}

func TestIsWeekendDay(t *testing.T) {
	saturday := Day{Date: time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)}
	if !IsWeekendDay(saturday) {
		t.Error("expected Saturday to count as a weekend day")
	}

	monday := Day{Date: time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)}
	if IsWeekendDay(monday) {
		t.Error("expected a plain Monday not to count as a weekend day")
	}

	holidayMonday := Day{Date: time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC), IsHoliday: true}
	if !IsWeekendDay(holidayMonday) {
		t.Error("expected a holiday Monday to count as a weekend day")
	}
}
