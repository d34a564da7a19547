package watchbill

import (
	"testing"
	"time"
)

func dayOn(id int64, t time.Time) Day {
	return Day{ID: id, Date: t}
}

// TestFindWeekendClusters_SingleWeekend checks that a lone Saturday/Sunday
// pair forms one cluster and that a plain weekday run forms none.
func TestFindWeekendClusters_SingleWeekend(t *testing.T) {
	// 2026-01-05 is a Monday; Jan 10-11 is Sat/Sun.
	start := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	days := []Day{
		dayOn(1, start),
		dayOn(2, start.AddDate(0, 0, 1)),
		dayOn(3, start.AddDate(0, 0, 2)),
		dayOn(4, start.AddDate(0, 0, 3)),
		dayOn(5, start.AddDate(0, 0, 4)),
		dayOn(6, start.AddDate(0, 0, 5)), // Saturday
		dayOn(7, start.AddDate(0, 0, 6)), // Sunday
	}
	clusters := findWeekendClusters(days)
	if len(clusters) != 1 {
		t.Fatalf("expected 1 weekend cluster, got %d", len(clusters))
	}
	if len(clusters[0].days) != 2 {
		t.Errorf("expected the cluster to contain 2 days, got %d", len(clusters[0].days))
	}
}

// TestFindWeekendClusters_HolidayExtendsCluster checks that a holiday
// adjacent to a real weekend is folded into the same cluster, but a holiday
// alone (no adjacent Sat/Sun) forms no cluster at all.
func TestFindWeekendClusters_HolidayExtendsCluster(t *testing.T) {
	start := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC) // Monday
	days := []Day{
		dayOn(1, start),
		{ID: 2, Date: start.AddDate(0, 0, 1), IsHoliday: true}, // Tuesday holiday, isolated
		dayOn(3, start.AddDate(0, 0, 2)),
		dayOn(4, start.AddDate(0, 0, 3)),
		{ID: 5, Date: start.AddDate(0, 0, 4), IsHoliday: true}, // Friday holiday
		dayOn(6, start.AddDate(0, 0, 5)),                       // Saturday
		dayOn(7, start.AddDate(0, 0, 6)),                       // Sunday
	}
	clusters := findWeekendClusters(days)
	if len(clusters) != 1 {
		t.Fatalf("expected 1 weekend cluster (isolated holiday excluded), got %d", len(clusters))
	}
	if len(clusters[0].days) != 3 {
		t.Errorf("expected the Fri-holiday/Sat/Sun cluster to have 3 days, got %d", len(clusters[0].days))
	}
}

func TestFindWeekendClusters_NoWeekendDays(t *testing.T) {
	start := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC) // Monday
	days := []Day{
		dayOn(1, start),
		dayOn(2, start.AddDate(0, 0, 1)),
		dayOn(3, start.AddDate(0, 0, 2)),
	}
	clusters := findWeekendClusters(days)
	if len(clusters) != 0 {
		t.Errorf("expected no weekend clusters among weekdays, got %d", len(clusters))
	}
}
