// Package personnel owns the Person, Group, and Qualification entities:
// the roster-wide identity and permission data that a watchbill Schedule's
// Memberships reference but do not own.
package personnel

import "time"

// Group orders personnel by seniority/priority and supplies default
// assignment bounds a Membership may override per-schedule.
type Group struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Priority        int     `json:"priority"` // dense 1..N, no gaps
	SeniorityFactor float64 `json:"seniority_factor"`
	MinAssignments  int     `json:"min_assignments"`
	MaxAssignments  int     `json:"max_assignments"`
}

// Person is a roster member's identity. GroupID is optional. Schedule
// computations read the group from each watchbill Membership, not from this
// field; a membership with no group gets built-in defaults wherever a group
// default would otherwise apply.
type Person struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	IsActive  bool       `json:"is_active"`
	GroupID   *int64     `json:"group_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Qualification grants a Person permission to hold a Station. At most one
// row exists per (person, station); IsActive is toggled rather than
// deleted so a schedule's history of who was ever qualified survives.
type Qualification struct {
	ID        int64 `json:"id"`
	PersonID  int64 `json:"person_id"`
	StationID int64 `json:"station_id"`
	IsActive  bool  `json:"is_active"`
}
