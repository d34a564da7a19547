package watchbill

import "time"

// HolidayName pairs a date with the label the calendar materializer should
// record for it.
type HolidayName struct {
	Date time.Time
	Name string
}

// HolidayFeed supplies a date→name mapping for a window. Implementations
// may call out to an external service; failures there are the caller's
// concern — the materializer treats a HolidayFeed error as non-fatal and
// proceeds with weekday defaults.
type HolidayFeed interface {
	Holidays(start, end time.Time) ([]HolidayName, error)
}
