package watchbill

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Apply copies a candidate's assignments onto the live schedule, skipping
// any slot that is locked. Returns the count of slots actually updated;
// locked slots are left untouched and not counted. Fails if the candidate
// does not belong to scheduleID, so a stale or mistyped candidate_id can
// never mutate a different schedule than the caller named in the URL.
func Apply(ctx context.Context, store *Store, scheduleID int64, candidateID uuid.UUID) (int, error) {
	candidate, err := store.GetCandidate(ctx, candidateID)
	if err != nil {
		return 0, err
	}
	if candidate.ScheduleID != scheduleID {
		return 0, NotFound("candidate %s does not belong to schedule %d", candidateID, scheduleID)
	}

	updated := 0
	for key, membershipID := range candidate.Assignments {
		dayID, stationID, err := parseAssignmentKey(key)
		if err != nil {
			return updated, DataIntegrity(err, "candidate %s has a malformed assignment key %q", candidate.ID, key)
		}
		ok, err := store.ApplyAssignment(ctx, candidate.ScheduleID, dayID, stationID, membershipID)
		if err != nil {
			return updated, fmt.Errorf("applying assignment %s: %w", key, err)
		}
		if ok {
			updated++
		}
	}
	return updated, nil
}

// Clear resets every non-locked slot of a schedule to unassigned.
func Clear(ctx context.Context, store *Store, scheduleID int64) (int, error) {
	return store.ClearAssignments(ctx, scheduleID)
}

func parseAssignmentKey(key string) (int64, int64, error) {
	var dayID, stationID int64
	var rest string
	n, err := fmt.Sscanf(key, "%d_%d%s", &dayID, &stationID, &rest)
	if n == 3 || (err == nil && rest != "") {
		return 0, 0, fmt.Errorf("parsing assignment key %q: trailing data after day/station ids", key)
	}
	if n != 2 {
		return 0, 0, fmt.Errorf("parsing assignment key %q: %w", key, err)
	}
	return dayID, stationID, nil
}
