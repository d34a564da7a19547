package watchbill

import (
	"context"
	"log/slog"
	"time"
)

const lookbackDays = 3

// CalendarMaterializer expands a schedule's [start,end] window plus a
// 3-day lookback into per-day records.
type CalendarMaterializer struct {
	store  *Store
	feed   HolidayFeed
	logger *slog.Logger
}

// NewCalendarMaterializer builds a materializer over the given feed. A nil
// feed falls back to USFederalFeed.
func NewCalendarMaterializer(store *Store, feed HolidayFeed, logger *slog.Logger) *CalendarMaterializer {
	if feed == nil {
		feed = USFederalFeed{}
	}
	return &CalendarMaterializer{store: store, feed: feed, logger: logger}
}

// Materialize builds and inserts the full day sequence [start-3d, end] for
// scheduleID, applying the weekday weight policy and flagging lookback days.
func (c *CalendarMaterializer) Materialize(ctx context.Context, scheduleID int64, start, end time.Time) ([]Day, error) {
	windowStart := start.AddDate(0, 0, -lookbackDays)

	holidayByDate := map[string]string{}
	if names, err := c.feed.Holidays(windowStart, end); err != nil {
		c.logger.Warn("holiday feed failed, proceeding with weekday defaults", "error", err)
	} else {
		for _, h := range names {
			holidayByDate[h.Date.Format("2006-01-02")] = h.Name
		}
	}

	var days []Day
	for d := windowStart; !d.After(end); d = d.AddDate(0, 0, 1) {
		isLookback := d.Before(start)
		day := Day{
			ScheduleID: scheduleID,
			Date:       d,
			Weight:     weekdayWeight(d),
			IsLookback: isLookback,
		}
		if name, ok := holidayByDate[d.Format("2006-01-02")]; ok {
			day.IsHoliday = true
			day.HolidayName = name
			day.Weight = 2.0
		}
		if isLookback {
			day.Weight = 0
		}
		days = append(days, day)
	}

	return c.store.InsertDays(ctx, days)
}

// weekdayWeight implements the base weight policy: Mon-Thu=1.0, Fri=1.5,
// Sat/Sun=2.0.
func weekdayWeight(d time.Time) float64 {
	switch d.Weekday() {
	case time.Friday:
		return 1.5
	case time.Saturday, time.Sunday:
		return 2.0
	default:
		return 1.0
	}
}

// IsWeekendDay reports whether a day counts toward a weekend cluster: it is
// Saturday, Sunday, or a holiday.
func IsWeekendDay(d Day) bool {
	if d.IsHoliday {
		return true
	}
	wd := d.Date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
