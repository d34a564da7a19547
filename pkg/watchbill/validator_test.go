package watchbill

import (
	"testing"
	"time"
)

func TestSortDaysByDate(t *testing.T) {
	base := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	days := []Day{
		{ID: 3, Date: base.AddDate(0, 0, 2)},
		{ID: 1, Date: base},
		{ID: 2, Date: base.AddDate(0, 0, 1)},
	}
	sortDaysByDate(days)

	for i, want := range []int64{1, 2, 3} {
		if days[i].ID != want {
			t.Errorf("position %d: got day id %d, want %d", i, days[i].ID, want)
		}
	}
}

func TestSortDaysByDate_AlreadySorted(t *testing.T) {
	base := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	days := []Day{
		{ID: 1, Date: base},
		{ID: 2, Date: base.AddDate(0, 0, 1)},
	}
	sortDaysByDate(days)
	if days[0].ID != 1 || days[1].ID != 2 {
		t.Errorf("expected order preserved, got %v", days)
	}
}
