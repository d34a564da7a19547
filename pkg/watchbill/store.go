package watchbill

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/traskcs99/watchbill/internal/platform"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store provides database operations for the whole watchbill domain:
// schedules, days, memberships, station weights, leaves, exclusions,
// assignments, and candidates.
type Store struct {
	dbtx platform.DBTX
}

// NewStore creates a Store backed by the given database connection or
// transaction.
func NewStore(dbtx platform.DBTX) *Store {
	return &Store{dbtx: dbtx}
}

// WithTx returns a Store bound to the given transaction, for callers that
// need several writes to commit or roll back atomically.
func (s *Store) WithTx(tx pgx.Tx) *Store {
	return &Store{dbtx: tx}
}

// --- Schedules ---

func (s *Store) CreateSchedule(ctx context.Context, sc Schedule) (Schedule, error) {
	weights, err := json.Marshal(sc.GroupWeights)
	if err != nil {
		return Schedule{}, fmt.Errorf("marshaling group weights: %w", err)
	}
	const query = `
		INSERT INTO schedules (name, start_date, end_date, status,
			weight_quota_deviation, weight_spacing_1_day, weight_spacing_2_day,
			weight_same_weekend, weight_consecutive_weekends, weight_goal_deviation, group_weights)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id, name, start_date, end_date, status,
			weight_quota_deviation, weight_spacing_1_day, weight_spacing_2_day,
			weight_same_weekend, weight_consecutive_weekends, weight_goal_deviation, group_weights`
	return s.scanSchedule(s.dbtx.QueryRow(ctx, query, sc.Name, sc.StartDate, sc.EndDate, sc.Status,
		sc.WeightQuotaDeviation, sc.WeightSpacing1Day, sc.WeightSpacing2Day,
		sc.WeightSameWeekend, sc.WeightConsecutiveWeekends, sc.WeightGoalDeviation, weights))
}

func (s *Store) GetSchedule(ctx context.Context, id int64) (Schedule, error) {
	const query = `
		SELECT id, name, start_date, end_date, status,
			weight_quota_deviation, weight_spacing_1_day, weight_spacing_2_day,
			weight_same_weekend, weight_consecutive_weekends, weight_goal_deviation, group_weights
		FROM schedules WHERE id = $1`
	return s.scanSchedule(s.dbtx.QueryRow(ctx, query, id))
}

func (s *Store) ListSchedules(ctx context.Context) ([]Schedule, error) {
	const query = `
		SELECT id, name, start_date, end_date, status,
			weight_quota_deviation, weight_spacing_1_day, weight_spacing_2_day,
			weight_same_weekend, weight_consecutive_weekends, weight_goal_deviation, group_weights
		FROM schedules ORDER BY start_date DESC`
	rows, err := s.dbtx.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing schedules: %w", err)
	}
	defer rows.Close()

	var out []Schedule
	for rows.Next() {
		sc, err := s.scanScheduleFromRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *Store) UpdateSchedule(ctx context.Context, id int64, sc Schedule) (Schedule, error) {
	weights, err := json.Marshal(sc.GroupWeights)
	if err != nil {
		return Schedule{}, fmt.Errorf("marshaling group weights: %w", err)
	}
	const query = `
		UPDATE schedules SET name=$2, status=$3,
			weight_quota_deviation=$4, weight_spacing_1_day=$5, weight_spacing_2_day=$6,
			weight_same_weekend=$7, weight_consecutive_weekends=$8, weight_goal_deviation=$9, group_weights=$10
		WHERE id=$1
		RETURNING id, name, start_date, end_date, status,
			weight_quota_deviation, weight_spacing_1_day, weight_spacing_2_day,
			weight_same_weekend, weight_consecutive_weekends, weight_goal_deviation, group_weights`
	return s.scanSchedule(s.dbtx.QueryRow(ctx, query, id, sc.Name, sc.Status,
		sc.WeightQuotaDeviation, sc.WeightSpacing1Day, sc.WeightSpacing2Day,
		sc.WeightSameWeekend, sc.WeightConsecutiveWeekends, sc.WeightGoalDeviation, weights))
}

func (s *Store) scanSchedule(row pgx.Row) (Schedule, error) {
	var sc Schedule
	var weights []byte
	err := row.Scan(&sc.ID, &sc.Name, &sc.StartDate, &sc.EndDate, &sc.Status,
		&sc.WeightQuotaDeviation, &sc.WeightSpacing1Day, &sc.WeightSpacing2Day,
		&sc.WeightSameWeekend, &sc.WeightConsecutiveWeekends, &sc.WeightGoalDeviation, &weights)
	if errors.Is(err, pgx.ErrNoRows) {
		return Schedule{}, ErrNotFound
	}
	if err != nil {
		return Schedule{}, fmt.Errorf("scanning schedule: %w", err)
	}
	if err := json.Unmarshal(weights, &sc.GroupWeights); err != nil {
		return Schedule{}, DataIntegrity(err, "schedule %d has malformed group_weights", sc.ID)
	}
	return sc, nil
}

func (s *Store) scanScheduleFromRows(rows pgx.Rows) (Schedule, error) {
	var sc Schedule
	var weights []byte
	if err := rows.Scan(&sc.ID, &sc.Name, &sc.StartDate, &sc.EndDate, &sc.Status,
		&sc.WeightQuotaDeviation, &sc.WeightSpacing1Day, &sc.WeightSpacing2Day,
		&sc.WeightSameWeekend, &sc.WeightConsecutiveWeekends, &sc.WeightGoalDeviation, &weights); err != nil {
		return Schedule{}, fmt.Errorf("scanning schedule row: %w", err)
	}
	if err := json.Unmarshal(weights, &sc.GroupWeights); err != nil {
		return Schedule{}, DataIntegrity(err, "schedule %d has malformed group_weights", sc.ID)
	}
	return sc, nil
}

// --- Days ---

// InsertDays inserts every day atomically; a uniqueness violation on
// (schedule_id, date) rejects the whole batch. Callers should run this
// inside a transaction.
func (s *Store) InsertDays(ctx context.Context, days []Day) ([]Day, error) {
	out := make([]Day, 0, len(days))
	const query = `
		INSERT INTO days (schedule_id, date, weight, is_holiday, holiday_name, is_lookback)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, schedule_id, date, weight, is_holiday, holiday_name, is_lookback`
	for _, d := range days {
		row := s.dbtx.QueryRow(ctx, query, d.ScheduleID, d.Date, d.Weight, d.IsHoliday, d.HolidayName, d.IsLookback)
		var out1 Day
		var holidayName *string
		if err := row.Scan(&out1.ID, &out1.ScheduleID, &out1.Date, &out1.Weight, &out1.IsHoliday, &holidayName, &out1.IsLookback); err != nil {
			return nil, Conflict("duplicate day %s for schedule %d", d.Date.Format("2006-01-02"), d.ScheduleID)
		}
		if holidayName != nil {
			out1.HolidayName = *holidayName
		}
		out = append(out, out1)
	}
	return out, nil
}

func (s *Store) ListDays(ctx context.Context, scheduleID int64) ([]Day, error) {
	const query = `
		SELECT id, schedule_id, date, weight, is_holiday, holiday_name, is_lookback
		FROM days WHERE schedule_id = $1 ORDER BY date ASC`
	rows, err := s.dbtx.Query(ctx, query, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("listing days: %w", err)
	}
	defer rows.Close()

	var out []Day
	for rows.Next() {
		var d Day
		var holidayName *string
		if err := rows.Scan(&d.ID, &d.ScheduleID, &d.Date, &d.Weight, &d.IsHoliday, &holidayName, &d.IsLookback); err != nil {
			return nil, fmt.Errorf("scanning day row: %w", err)
		}
		if holidayName != nil {
			d.HolidayName = *holidayName
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// --- Memberships ---

func (s *Store) CreateMembership(ctx context.Context, m Membership) (Membership, error) {
	const query = `
		INSERT INTO memberships (schedule_id, person_id, group_id,
			override_seniority_factor, override_min_assignments, override_max_assignments)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, schedule_id, person_id, group_id,
			override_seniority_factor, override_min_assignments, override_max_assignments`
	return s.scanMembership(s.dbtx.QueryRow(ctx, query, m.ScheduleID, m.PersonID, m.GroupID,
		m.OverrideSeniorityFactor, m.OverrideMinAssignments, m.OverrideMaxAssignments))
}

func (s *Store) GetMembership(ctx context.Context, id int64) (Membership, error) {
	const query = `
		SELECT id, schedule_id, person_id, group_id,
			override_seniority_factor, override_min_assignments, override_max_assignments
		FROM memberships WHERE id = $1`
	return s.scanMembership(s.dbtx.QueryRow(ctx, query, id))
}

func (s *Store) ListMemberships(ctx context.Context, scheduleID int64) ([]Membership, error) {
	const query = `
		SELECT id, schedule_id, person_id, group_id,
			override_seniority_factor, override_min_assignments, override_max_assignments
		FROM memberships WHERE schedule_id = $1`
	rows, err := s.dbtx.Query(ctx, query, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("listing memberships: %w", err)
	}
	defer rows.Close()

	var out []Membership
	for rows.Next() {
		var m Membership
		if err := rows.Scan(&m.ID, &m.ScheduleID, &m.PersonID, &m.GroupID,
			&m.OverrideSeniorityFactor, &m.OverrideMinAssignments, &m.OverrideMaxAssignments); err != nil {
			return nil, fmt.Errorf("scanning membership row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) scanMembership(row pgx.Row) (Membership, error) {
	var m Membership
	err := row.Scan(&m.ID, &m.ScheduleID, &m.PersonID, &m.GroupID,
		&m.OverrideSeniorityFactor, &m.OverrideMinAssignments, &m.OverrideMaxAssignments)
	if errors.Is(err, pgx.ErrNoRows) {
		return Membership{}, ErrNotFound
	}
	if err != nil {
		return Membership{}, fmt.Errorf("scanning membership: %w", err)
	}
	return m, nil
}

// --- Station weights ---

func (s *Store) UpsertStationWeight(ctx context.Context, sw StationWeight) (StationWeight, error) {
	const query = `
		INSERT INTO station_weights (membership_id, station_id, weight)
		VALUES ($1,$2,$3)
		ON CONFLICT (membership_id, station_id) DO UPDATE SET weight = $3
		RETURNING id, membership_id, station_id, weight`
	return s.scanStationWeight(s.dbtx.QueryRow(ctx, query, sw.MembershipID, sw.StationID, sw.Weight))
}

func (s *Store) ListStationWeights(ctx context.Context, membershipID int64) ([]StationWeight, error) {
	const query = `SELECT id, membership_id, station_id, weight FROM station_weights WHERE membership_id = $1`
	rows, err := s.dbtx.Query(ctx, query, membershipID)
	if err != nil {
		return nil, fmt.Errorf("listing station weights: %w", err)
	}
	defer rows.Close()

	var out []StationWeight
	for rows.Next() {
		var sw StationWeight
		if err := rows.Scan(&sw.ID, &sw.MembershipID, &sw.StationID, &sw.Weight); err != nil {
			return nil, fmt.Errorf("scanning station weight row: %w", err)
		}
		out = append(out, sw)
	}
	return out, rows.Err()
}

func (s *Store) scanStationWeight(row pgx.Row) (StationWeight, error) {
	var sw StationWeight
	if err := row.Scan(&sw.ID, &sw.MembershipID, &sw.StationID, &sw.Weight); err != nil {
		return StationWeight{}, fmt.Errorf("scanning station weight: %w", err)
	}
	return sw, nil
}

// --- Leaves ---

func (s *Store) CreateLeave(ctx context.Context, l Leave) (Leave, error) {
	const query = `
		INSERT INTO leaves (membership_id, start_date, end_date, reason)
		VALUES ($1,$2,$3,$4)
		RETURNING id, membership_id, start_date, end_date, reason`
	return s.scanLeave(s.dbtx.QueryRow(ctx, query, l.MembershipID, l.StartDate, l.EndDate, l.Reason))
}

func (s *Store) ListLeaves(ctx context.Context, scheduleID int64) ([]Leave, error) {
	const query = `
		SELECT l.id, l.membership_id, l.start_date, l.end_date, l.reason
		FROM leaves l JOIN memberships m ON m.id = l.membership_id
		WHERE m.schedule_id = $1`
	rows, err := s.dbtx.Query(ctx, query, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("listing leaves: %w", err)
	}
	defer rows.Close()

	var out []Leave
	for rows.Next() {
		l, err := s.scanLeaveFromRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) scanLeave(row pgx.Row) (Leave, error) {
	var l Leave
	var reason *string
	if err := row.Scan(&l.ID, &l.MembershipID, &l.StartDate, &l.EndDate, &reason); err != nil {
		return Leave{}, fmt.Errorf("scanning leave: %w", err)
	}
	if reason != nil {
		l.Reason = *reason
	}
	return l, nil
}

func (s *Store) scanLeaveFromRows(rows pgx.Rows) (Leave, error) {
	var l Leave
	var reason *string
	if err := rows.Scan(&l.ID, &l.MembershipID, &l.StartDate, &l.EndDate, &reason); err != nil {
		return Leave{}, fmt.Errorf("scanning leave row: %w", err)
	}
	if reason != nil {
		l.Reason = *reason
	}
	return l, nil
}

// --- Exclusions ---

func (s *Store) CreateExclusion(ctx context.Context, e Exclusion) (Exclusion, error) {
	const query = `
		INSERT INTO exclusions (membership_id, day_id) VALUES ($1,$2)
		RETURNING id, membership_id, day_id`
	return s.scanExclusion(s.dbtx.QueryRow(ctx, query, e.MembershipID, e.DayID))
}

func (s *Store) ListExclusions(ctx context.Context, scheduleID int64) ([]Exclusion, error) {
	const query = `
		SELECT e.id, e.membership_id, e.day_id
		FROM exclusions e
		JOIN memberships m ON m.id = e.membership_id
		WHERE m.schedule_id = $1`
	rows, err := s.dbtx.Query(ctx, query, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("listing exclusions: %w", err)
	}
	defer rows.Close()

	var out []Exclusion
	for rows.Next() {
		var e Exclusion
		if err := rows.Scan(&e.ID, &e.MembershipID, &e.DayID); err != nil {
			return nil, fmt.Errorf("scanning exclusion row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) scanExclusion(row pgx.Row) (Exclusion, error) {
	var e Exclusion
	if err := row.Scan(&e.ID, &e.MembershipID, &e.DayID); err != nil {
		return Exclusion{}, fmt.Errorf("scanning exclusion: %w", err)
	}
	return e, nil
}

// QualifiedStationsForMembership returns the set of stations the
// membership's person holds an active qualification for. Qualifications
// are owned by the personnel package's table but read here directly,
// since the constraint builder and summary need them joined against
// watchbill's own membership rows.
func (s *Store) QualifiedStationsForMembership(ctx context.Context, membershipID int64) (map[int64]bool, error) {
	const query = `
		SELECT q.station_id
		FROM qualifications q
		JOIN memberships m ON m.person_id = q.person_id
		WHERE m.id = $1 AND q.is_active = true`
	rows, err := s.dbtx.Query(ctx, query, membershipID)
	if err != nil {
		return nil, fmt.Errorf("listing qualified stations for membership %d: %w", membershipID, err)
	}
	defer rows.Close()

	out := map[int64]bool{}
	for rows.Next() {
		var stationID int64
		if err := rows.Scan(&stationID); err != nil {
			return nil, fmt.Errorf("scanning qualified station: %w", err)
		}
		out[stationID] = true
	}
	return out, rows.Err()
}

// --- Station links + assignments ---

// LinkStation creates one empty Assignment per day for the schedule,
// rejecting a duplicate (schedule, station) link.
func (s *Store) LinkStation(ctx context.Context, scheduleID, stationID int64) error {
	const checkQuery = `SELECT 1 FROM station_links WHERE schedule_id = $1 AND station_id = $2`
	var exists int
	err := s.dbtx.QueryRow(ctx, checkQuery, scheduleID, stationID).Scan(&exists)
	if err == nil {
		return Conflict("station already assigned to schedule")
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("checking station link: %w", err)
	}

	const linkQuery = `INSERT INTO station_links (schedule_id, station_id) VALUES ($1,$2) RETURNING id`
	var linkID int64
	if err := s.dbtx.QueryRow(ctx, linkQuery, scheduleID, stationID).Scan(&linkID); err != nil {
		return fmt.Errorf("linking station: %w", err)
	}

	// Slots are created for lookback days too: a locked lookback slot is how
	// historical fatigue data (the lookback bridge) enters the store.
	const assignQuery = `
		INSERT INTO assignments (schedule_id, day_id, station_id, membership_id, is_locked, availability_estimate)
		SELECT $1, d.id, $2, NULL, false, 0
		FROM days d WHERE d.schedule_id = $1`
	if _, err := s.dbtx.Exec(ctx, assignQuery, scheduleID, stationID); err != nil {
		return fmt.Errorf("creating assignment slots: %w", err)
	}
	return nil
}

// UnlinkStation removes a station link and cascades its Assignments.
func (s *Store) UnlinkStation(ctx context.Context, scheduleID, linkID int64) error {
	tag, err := s.dbtx.Exec(ctx, `DELETE FROM station_links WHERE id = $1 AND schedule_id = $2`, linkID, scheduleID)
	if err != nil {
		return fmt.Errorf("unlinking station: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RequiredStationIDs returns the stations linked to a schedule.
func (s *Store) RequiredStationIDs(ctx context.Context, scheduleID int64) ([]int64, error) {
	const query = `SELECT station_id FROM station_links WHERE schedule_id = $1`
	rows, err := s.dbtx.Query(ctx, query, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("listing required stations: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning station id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) ListAssignments(ctx context.Context, scheduleID int64) ([]Assignment, error) {
	const query = `
		SELECT id, schedule_id, day_id, station_id, membership_id, is_locked, availability_estimate
		FROM assignments WHERE schedule_id = $1`
	rows, err := s.dbtx.Query(ctx, query, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("listing assignments: %w", err)
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		a, err := s.scanAssignmentFromRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SetAssignmentMembership sets a single slot's membership unconditionally
// (used by seeds/tests to establish locks).
func (s *Store) SetAssignmentMembership(ctx context.Context, id int64, membershipID *int64, locked bool) error {
	const query = `UPDATE assignments SET membership_id=$2, is_locked=$3 WHERE id=$1`
	_, err := s.dbtx.Exec(ctx, query, id, membershipID, locked)
	if err != nil {
		return fmt.Errorf("setting assignment membership: %w", err)
	}
	return nil
}

// ApplyAssignment sets a non-locked slot's membership; returns false
// (without error) if the slot is locked, so callers can count skips.
func (s *Store) ApplyAssignment(ctx context.Context, scheduleID, dayID, stationID int64, membershipID int64) (bool, error) {
	const query = `
		UPDATE assignments SET membership_id = $4
		WHERE schedule_id = $1 AND day_id = $2 AND station_id = $3 AND is_locked = false`
	tag, err := s.dbtx.Exec(ctx, query, scheduleID, dayID, stationID, membershipID)
	if err != nil {
		return false, fmt.Errorf("applying assignment: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ClearAssignments sets membership to null on every non-locked slot of a
// schedule, returning the count updated.
func (s *Store) ClearAssignments(ctx context.Context, scheduleID int64) (int, error) {
	const query = `UPDATE assignments SET membership_id = NULL WHERE schedule_id = $1 AND is_locked = false`
	tag, err := s.dbtx.Exec(ctx, query, scheduleID)
	if err != nil {
		return 0, fmt.Errorf("clearing assignments: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) scanAssignmentFromRows(rows pgx.Rows) (Assignment, error) {
	var a Assignment
	if err := rows.Scan(&a.ID, &a.ScheduleID, &a.DayID, &a.StationID, &a.MembershipID, &a.IsLocked, &a.AvailabilityEstimate); err != nil {
		return Assignment{}, fmt.Errorf("scanning assignment row: %w", err)
	}
	return a, nil
}

// --- Candidates ---

// DeleteCandidates removes every prior candidate for a schedule; the
// generator runs this before producing a fresh batch.
func (s *Store) DeleteCandidates(ctx context.Context, scheduleID int64) error {
	_, err := s.dbtx.Exec(ctx, `DELETE FROM candidates WHERE schedule_id = $1`, scheduleID)
	if err != nil {
		return fmt.Errorf("deleting prior candidates: %w", err)
	}
	return nil
}

func (s *Store) CreateCandidate(ctx context.Context, c Candidate) (Candidate, error) {
	assignments, err := json.Marshal(c.Assignments)
	if err != nil {
		return Candidate{}, fmt.Errorf("marshaling assignments: %w", err)
	}
	metrics, err := json.Marshal(c.Metrics)
	if err != nil {
		return Candidate{}, fmt.Errorf("marshaling metrics: %w", err)
	}
	const query = `
		INSERT INTO candidates (id, schedule_id, run_id, iteration, score, assignments_data, metrics_data, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, schedule_id, run_id, iteration, score, assignments_data, metrics_data, created_at`
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = timeNow()
	}
	return s.scanCandidate(s.dbtx.QueryRow(ctx, query, c.ID, c.ScheduleID, c.RunID, c.Iteration, c.Score, assignments, metrics, c.CreatedAt))
}

func (s *Store) GetCandidate(ctx context.Context, id uuid.UUID) (Candidate, error) {
	const query = `
		SELECT id, schedule_id, run_id, iteration, score, assignments_data, metrics_data, created_at
		FROM candidates WHERE id = $1`
	return s.scanCandidate(s.dbtx.QueryRow(ctx, query, id))
}

// ListCandidates returns candidates for a schedule sorted by score
// ascending, ties broken by creation order.
func (s *Store) ListCandidates(ctx context.Context, scheduleID int64) ([]Candidate, error) {
	const query = `
		SELECT id, schedule_id, run_id, iteration, score, assignments_data, metrics_data, created_at
		FROM candidates WHERE schedule_id = $1 ORDER BY score ASC, created_at ASC`
	rows, err := s.dbtx.Query(ctx, query, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("listing candidates: %w", err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		c, err := s.scanCandidateFromRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) scanCandidate(row pgx.Row) (Candidate, error) {
	var c Candidate
	var assignments, metrics []byte
	err := row.Scan(&c.ID, &c.ScheduleID, &c.RunID, &c.Iteration, &c.Score, &assignments, &metrics, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Candidate{}, ErrNotFound
	}
	if err != nil {
		return Candidate{}, fmt.Errorf("scanning candidate: %w", err)
	}
	return decodeCandidateJSON(c, assignments, metrics)
}

func (s *Store) scanCandidateFromRows(rows pgx.Rows) (Candidate, error) {
	var c Candidate
	var assignments, metrics []byte
	if err := rows.Scan(&c.ID, &c.ScheduleID, &c.RunID, &c.Iteration, &c.Score, &assignments, &metrics, &c.CreatedAt); err != nil {
		return Candidate{}, fmt.Errorf("scanning candidate row: %w", err)
	}
	return decodeCandidateJSON(c, assignments, metrics)
}

func decodeCandidateJSON(c Candidate, assignments, metrics []byte) (Candidate, error) {
	if err := json.Unmarshal(assignments, &c.Assignments); err != nil {
		return Candidate{}, DataIntegrity(err, "candidate %s has malformed assignments_data", c.ID)
	}
	if err := json.Unmarshal(metrics, &c.Metrics); err != nil {
		return Candidate{}, DataIntegrity(err, "candidate %s has malformed metrics_data", c.ID)
	}
	return c, nil
}

// timeNow is isolated in its own function so tests and deterministic paths
// can see exactly where wall-clock time enters the store.
func timeNow() (t time.Time) {
	return time.Now().UTC()
}
