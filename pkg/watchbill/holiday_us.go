package watchbill

import "time"

// USFederalFeed is the default HolidayFeed: a static, offline table of US
// federal holidays plus a handful of derived and fixed cultural dates
// (Mother's Day, Easter Sunday, and similar). It never makes a network
// call, so it can never fail — the HolidayFeed interface's non-fatal
// failure handling exists for other implementations, not this one.
type USFederalFeed struct{}

// Holidays returns every known holiday whose date falls within [start,end].
func (USFederalFeed) Holidays(start, end time.Time) ([]HolidayName, error) {
	var out []HolidayName
	for year := start.Year(); year <= end.Year(); year++ {
		for _, h := range federalHolidays(year) {
			if !h.Date.Before(start) && !h.Date.After(end) {
				out = append(out, h)
			}
		}
		if md := mothersDay(year); !md.Before(start) && !md.After(end) {
			out = append(out, HolidayName{Date: md, Name: "Mother's Day"})
		}
		if es := easterSunday(year); !es.Before(start) && !es.After(end) {
			out = append(out, HolidayName{Date: es, Name: "Easter Sunday"})
		}
	}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if name, ok := culturalHolidays[fmtMMDD(d)]; ok {
			out = append(out, HolidayName{Date: d, Name: name})
		}
	}
	return out, nil
}

var culturalHolidays = map[string]string{
	"02-14": "Valentine's Day",
	"03-17": "St. Patrick's Day",
	"05-05": "Cinco de Mayo",
	"10-31": "Halloween",
}

func fmtMMDD(t time.Time) string {
	return t.Format("01-02")
}

// federalHolidays returns the 11 US federal holidays for a year, using the
// fixed-date or nth-weekday-of-month rule each one follows.
func federalHolidays(year int) []HolidayName {
	return []HolidayName{
		{Date: date(year, time.January, 1), Name: "New Year's Day"},
		{Date: nthWeekday(year, time.January, time.Monday, 3), Name: "Martin Luther King, Jr. Day"},
		{Date: nthWeekday(year, time.February, time.Monday, 3), Name: "Washington's Birthday"},
		{Date: lastWeekday(year, time.May, time.Monday), Name: "Memorial Day"},
		{Date: date(year, time.June, 19), Name: "Juneteenth National Independence Day"},
		{Date: date(year, time.July, 4), Name: "Independence Day"},
		{Date: nthWeekday(year, time.September, time.Monday, 1), Name: "Labor Day"},
		{Date: nthWeekday(year, time.October, time.Monday, 2), Name: "Columbus Day"},
		{Date: date(year, time.November, 11), Name: "Veterans Day"},
		{Date: nthWeekday(year, time.November, time.Thursday, 4), Name: "Thanksgiving Day"},
		{Date: date(year, time.December, 25), Name: "Christmas Day"},
	}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// nthWeekday returns the nth occurrence (1-indexed) of weekday in month/year.
func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	d := date(year, month, 1)
	offset := (int(weekday) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset+7*(n-1))
}

// lastWeekday returns the last occurrence of weekday in month/year.
func lastWeekday(year int, month time.Month, weekday time.Weekday) time.Time {
	firstOfNext := date(year, month+1, 1)
	lastOfMonth := firstOfNext.AddDate(0, 0, -1)
	offset := (int(lastOfMonth.Weekday()) - int(weekday) + 7) % 7
	return lastOfMonth.AddDate(0, 0, -offset)
}

// mothersDay returns the second Sunday in May.
func mothersDay(year int) time.Time {
	may1 := date(year, time.May, 1)
	firstSunday := may1.AddDate(0, 0, (7-int(may1.Weekday()))%7)
	return firstSunday.AddDate(0, 0, 7)
}

// easterSunday computes the date of Easter via the anonymous Gregorian
// algorithm (Meeus/Jones/Butcher).
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return date(year, time.Month(month), day)
}
