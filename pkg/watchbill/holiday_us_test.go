package watchbill

import (
	"testing"
	"time"
)

func TestFederalHolidays_KnownDates(t *testing.T) {
	cases := []struct {
		name string
		want time.Time
	}{
		{"Martin Luther King, Jr. Day", date(2026, time.January, 19)},
		{"Memorial Day", date(2026, time.May, 25)},
		{"Thanksgiving Day", date(2026, time.November, 26)},
	}

	byName := map[string]time.Time{}
	for _, h := range federalHolidays(2026) {
		byName[h.Name] = h.Date
	}

	for _, c := range cases {
		got, ok := byName[c.name]
		if !ok {
			t.Fatalf("expected %q to be present in federalHolidays(2026)", c.name)
		}
		if !got.Equal(c.want) {
			t.Errorf("%s: got %s, want %s", c.name, got.Format("2006-01-02"), c.want.Format("2006-01-02"))
		}
	}
}

func TestMothersDay(t *testing.T) {
	got := mothersDay(2026)
	want := date(2026, time.May, 10)
	if !got.Equal(want) {
		t.Errorf("mothersDay(2026) = %s, want %s", got.Format("2006-01-02"), want.Format("2006-01-02"))
	}
	if got.Weekday() != time.Sunday {
		t.Errorf("mothersDay must fall on a Sunday, got %s", got.Weekday())
	}
}

func TestEasterSunday_KnownDates(t *testing.T) {
	cases := map[int]time.Time{
		2024: date(2024, time.March, 31),
		2025: date(2025, time.April, 20),
		2026: date(2026, time.April, 5),
	}
	for year, want := range cases {
		got := easterSunday(year)
		if !got.Equal(want) {
			t.Errorf("easterSunday(%d) = %s, want %s", year, got.Format("2006-01-02"), want.Format("2006-01-02"))
		}
	}
}

func TestUSFederalFeed_HolidaysWithinWindow(t *testing.T) {
	feed := USFederalFeed{}
	start := date(2026, time.December, 20)
	end := date(2026, time.December, 31)

	got, err := feed.Holidays(start, end)
	if err != nil {
		t.Fatalf("Holidays() error: %v", err)
	}

	found := false
	for _, h := range got {
		if h.Name == "Christmas Day" {
			found = true
		}
		if h.Date.Before(start) || h.Date.After(end) {
			t.Errorf("holiday %q at %s falls outside the requested window", h.Name, h.Date.Format("2006-01-02"))
		}
	}
	if !found {
		t.Error("expected Christmas Day in the December 2026 window")
	}
}
