package watchbill

import (
	"context"
	"fmt"
)

// Validate is a post-hoc check of a schedule's live assignments against
// the hard constraints, respecting lookback semantics.
func Validate(ctx context.Context, store *Store, personnelNames func(membershipID int64) string, scheduleID int64) ([]Alert, error) {
	days, err := store.ListDays(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("loading days: %w", err)
	}
	assignments, err := store.ListAssignments(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("loading assignments: %w", err)
	}
	leaves, err := store.ListLeaves(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("loading leaves: %w", err)
	}
	exclusions, err := store.ListExclusions(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("loading exclusions: %w", err)
	}

	dayByIDMap := make(map[int64]Day, len(days))
	for _, d := range days {
		dayByIDMap[d.ID] = d
	}

	var alerts []Alert

	// LEAVE_CONFLICT and EXCLUSION_CONFLICT: per assignment with a
	// membership, check its leave intervals and exclusion days, skipping
	// lookback-only days.
	leavesByMembership := map[int64][]Leave{}
	for _, l := range leaves {
		leavesByMembership[l.MembershipID] = append(leavesByMembership[l.MembershipID], l)
	}
	excludedDaysByMembership := map[int64]map[int64]bool{}
	for _, e := range exclusions {
		if excludedDaysByMembership[e.MembershipID] == nil {
			excludedDaysByMembership[e.MembershipID] = map[int64]bool{}
		}
		excludedDaysByMembership[e.MembershipID][e.DayID] = true
	}

	for _, a := range assignments {
		if a.MembershipID == nil {
			continue
		}
		day, ok := dayByIDMap[a.DayID]
		if !ok || day.IsLookback {
			continue
		}
		membershipID := *a.MembershipID
		name := personnelNames(membershipID)

		for _, l := range leavesByMembership[membershipID] {
			if !day.Date.Before(l.StartDate) && !day.Date.After(l.EndDate) {
				alerts = append(alerts, Alert{
					Type: AlertLeaveConflict, DayID: day.ID, Date: day.Date.Format("2006-01-02"),
					Member: name, AssignmentIDs: []int64{a.ID},
					Message: fmt.Sprintf("%s is assigned on %s while on leave", name, day.Date.Format("2006-01-02")),
				})
			}
		}
		if excludedDaysByMembership[membershipID][day.ID] {
			alerts = append(alerts, Alert{
				Type: AlertExclusionConflict, DayID: day.ID, Date: day.Date.Format("2006-01-02"),
				Member: name, AssignmentIDs: []int64{a.ID},
				Message: fmt.Sprintf("%s is assigned on %s despite an exclusion", name, day.Date.Format("2006-01-02")),
			})
		}
	}

	// DOUBLE_BOOKING: two assignments, same (member, day), on a non-lookback day.
	byMemberDay := map[[2]int64][]Assignment{}
	for _, a := range assignments {
		if a.MembershipID == nil {
			continue
		}
		day, ok := dayByIDMap[a.DayID]
		if !ok || day.IsLookback {
			continue
		}
		key := [2]int64{*a.MembershipID, a.DayID}
		byMemberDay[key] = append(byMemberDay[key], a)
	}
	for key, list := range byMemberDay {
		if len(list) < 2 {
			continue
		}
		day := dayByIDMap[key[1]]
		name := personnelNames(key[0])
		ids := make([]int64, 0, len(list))
		for _, a := range list {
			ids = append(ids, a.ID)
		}
		alerts = append(alerts, Alert{
			Type: AlertDoubleBooking, DayID: day.ID, Date: day.Date.Format("2006-01-02"),
			Member: name, AssignmentIDs: ids,
			Message: fmt.Sprintf("%s is double-booked on %s", name, day.Date.Format("2006-01-02")),
		})
	}

	// BACK_TO_BACK: same member assigned on consecutive calendar days.
	// Both-lookback pairs are skipped; a lookback day followed by a window
	// day is flagged and attributed to the window day, since that's the
	// assignment the fatigue actually carries into.
	assignedDaysByMember := map[int64]map[int64]Assignment{}
	for _, a := range assignments {
		if a.MembershipID == nil {
			continue
		}
		if assignedDaysByMember[*a.MembershipID] == nil {
			assignedDaysByMember[*a.MembershipID] = map[int64]Assignment{}
		}
		assignedDaysByMember[*a.MembershipID][a.DayID] = a
	}

	sortedDays := append([]Day(nil), days...)
	sortDaysByDate(sortedDays)

	for membershipID, byDay := range assignedDaysByMember {
		name := personnelNames(membershipID)
		for i := 0; i+1 < len(sortedDays); i++ {
			d1, d2 := sortedDays[i], sortedDays[i+1]
			if d2.Date.Sub(d1.Date).Hours() != 24 {
				continue
			}
			a1, ok1 := byDay[d1.ID]
			a2, ok2 := byDay[d2.ID]
			if !ok1 || !ok2 {
				continue
			}
			if d1.IsLookback && d2.IsLookback {
				continue // both lookback: outside the window, not actionable
			}
			flagDay := d2
			if !d1.IsLookback {
				flagDay = d1
			}
			alerts = append(alerts, Alert{
				Type: AlertBackToBack, DayID: flagDay.ID, Date: flagDay.Date.Format("2006-01-02"),
				Member: name, AssignmentIDs: []int64{a1.ID, a2.ID},
				Message: fmt.Sprintf("%s is assigned on consecutive days %s and %s", name, d1.Date.Format("2006-01-02"), d2.Date.Format("2006-01-02")),
			})
		}
	}

	return alerts, nil
}

func sortDaysByDate(days []Day) {
	for i := 1; i < len(days); i++ {
		for j := i; j > 0 && days[j].Date.Before(days[j-1].Date); j-- {
			days[j], days[j-1] = days[j-1], days[j]
		}
	}
}
