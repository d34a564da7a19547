// Package watchbill implements the Watchbill Optimization Core: the
// calendar materializer, quota calculator, constraint builder, solver
// driver, candidate generator, validator, and applier that together turn a
// roster and a planning window into ranked, conflict-free watch schedules.
package watchbill

import (
	"time"

	"github.com/google/uuid"
)

// Status is a Schedule's lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Schedule is a planning window plus its soft-constraint weights.
type Schedule struct {
	ID                      int64           `json:"id"`
	Name                    string          `json:"name"`
	StartDate               time.Time       `json:"start_date"`
	EndDate                 time.Time       `json:"end_date"`
	Status                  Status          `json:"status"`
	WeightQuotaDeviation    float64         `json:"weight_quota_deviation"`
	WeightSpacing1Day       float64         `json:"weight_spacing_1_day"`
	WeightSpacing2Day       float64         `json:"weight_spacing_2_day"`
	WeightSameWeekend       float64         `json:"weight_same_weekend"`
	WeightConsecutiveWeekends float64       `json:"weight_consecutive_weekends"`
	WeightGoalDeviation     float64         `json:"weight_goal_deviation"`
	GroupWeights            map[int64]float64 `json:"group_weights"`
}

// DefaultScheduleWeights returns the weights a new schedule starts with:
// every soft constraint contributes equally before an operator tunes it.
func DefaultScheduleWeights() (float64, float64, float64, float64, float64, float64) {
	return 1.0, 1.0, 1.0, 1.0, 1.0, 1.0
}

// Day is one calendar date within a schedule, including the 3-day lookback
// window. Lookback days carry weight 0 and are never assignable.
type Day struct {
	ID          int64     `json:"id"`
	ScheduleID  int64     `json:"schedule_id"`
	Date        time.Time `json:"date"`
	Weight      float64   `json:"weight"`
	IsHoliday   bool      `json:"is_holiday"`
	HolidayName string    `json:"holiday_name,omitempty"`
	IsLookback  bool      `json:"is_lookback"`
}

// Membership is a person's participation in one schedule.
type Membership struct {
	ID                     int64    `json:"id"`
	ScheduleID             int64    `json:"schedule_id"`
	PersonID               int64    `json:"person_id"`
	GroupID                *int64   `json:"group_id,omitempty"`
	OverrideSeniorityFactor *float64 `json:"override_seniority_factor,omitempty"`
	OverrideMinAssignments *int     `json:"override_min_assignments,omitempty"`
	OverrideMaxAssignments *int     `json:"override_max_assignments,omitempty"`
}

// StationWeight is a membership's preference for a station, used only by
// the goal-deviation soft penalty.
type StationWeight struct {
	ID           int64   `json:"id"`
	MembershipID int64   `json:"membership_id"`
	StationID    int64   `json:"station_id"`
	Weight       float64 `json:"weight"`
}

// Leave is a closed interval during which a membership is unavailable.
type Leave struct {
	ID           int64     `json:"id"`
	MembershipID int64     `json:"membership_id"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Reason       string    `json:"reason,omitempty"`
}

// Exclusion is a hard "do not assign this membership on this day" marker.
type Exclusion struct {
	ID           int64 `json:"id"`
	MembershipID int64 `json:"membership_id"`
	DayID        int64 `json:"day_id"`
}

// Assignment is one (day, station) slot. MembershipID is nil when unfilled.
type Assignment struct {
	ID                   int64  `json:"id"`
	ScheduleID           int64  `json:"schedule_id"`
	DayID                int64  `json:"day_id"`
	StationID            int64  `json:"station_id"`
	MembershipID         *int64 `json:"membership_id,omitempty"`
	IsLocked             bool   `json:"is_locked"`
	AvailabilityEstimate float64 `json:"availability_estimate"`
}

// MemberMetric is one member's cost breakdown within a Candidate.
type MemberMetric struct {
	MembershipID  int64              `json:"member_id"`
	GoatPoints    float64            `json:"goat_points"`
	Breakdown     map[string]float64 `json:"breakdown"`
	Assigned      int                `json:"assigned"`
	Points        float64            `json:"points"`
	QuotaTarget   float64            `json:"quota_target"`
	GroupPriority float64            `json:"group_priority"`
}

// Candidate is one optimizer output.
type Candidate struct {
	ID          uuid.UUID               `json:"id"`
	ScheduleID  int64                   `json:"schedule_id"`
	RunID       uuid.UUID               `json:"run_id"`
	Iteration   int                     `json:"iteration"`
	Score       float64                 `json:"score"`
	Assignments map[string]int64        `json:"assignments"` // "{day_id}_{station_id}" -> membership_id
	Metrics     map[string]MemberMetric `json:"metrics"`     // keyed by person name
	CreatedAt   time.Time               `json:"created_at"`
}

// Alert is one validator finding.
type Alert struct {
	Type          string  `json:"type"`
	DayID         int64   `json:"day_id"`
	Date          string  `json:"date"`
	Member        string  `json:"member"`
	AssignmentIDs []int64 `json:"assignment_ids"`
	Message       string  `json:"message"`
}

// Alert type constants.
const (
	AlertLeaveConflict     = "LEAVE_CONFLICT"
	AlertExclusionConflict = "EXCLUSION_CONFLICT"
	AlertDoubleBooking     = "DOUBLE_BOOKING"
	AlertBackToBack        = "BACK_TO_BACK"
)
