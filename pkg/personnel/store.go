package personnel

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/traskcs99/watchbill/internal/platform"
)

// Store provides database operations for people, groups, and qualifications.
type Store struct {
	dbtx platform.DBTX
}

// NewStore creates a personnel Store backed by the given database connection.
func NewStore(dbtx platform.DBTX) *Store {
	return &Store{dbtx: dbtx}
}

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// --- Groups ---

func (s *Store) CreateGroup(ctx context.Context, g Group) (Group, error) {
	const query = `INSERT INTO groups (name, priority, seniority_factor, min_assignments, max_assignments)
	               VALUES ($1, (SELECT COALESCE(MAX(priority),0)+1 FROM groups), $2, $3, $4)
	               RETURNING id, name, priority, seniority_factor, min_assignments, max_assignments`
	return s.scanGroup(s.dbtx.QueryRow(ctx, query, g.Name, g.SeniorityFactor, g.MinAssignments, g.MaxAssignments))
}

func (s *Store) GetGroup(ctx context.Context, id int64) (Group, error) {
	const query = `SELECT id, name, priority, seniority_factor, min_assignments, max_assignments
	               FROM groups WHERE id = $1`
	return s.scanGroup(s.dbtx.QueryRow(ctx, query, id))
}

func (s *Store) ListGroups(ctx context.Context) ([]Group, error) {
	const query = `SELECT id, name, priority, seniority_factor, min_assignments, max_assignments
	               FROM groups ORDER BY priority ASC`
	rows, err := s.dbtx.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	defer rows.Close()

	groups := []Group{}
	for rows.Next() {
		g, err := s.scanGroupFromRows(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (s *Store) UpdateGroup(ctx context.Context, id int64, g Group) (Group, error) {
	const query = `UPDATE groups SET name=$2, seniority_factor=$3, min_assignments=$4, max_assignments=$5
	               WHERE id=$1
	               RETURNING id, name, priority, seniority_factor, min_assignments, max_assignments`
	return s.scanGroup(s.dbtx.QueryRow(ctx, query, id, g.Name, g.SeniorityFactor, g.MinAssignments, g.MaxAssignments))
}

// DeleteGroup removes a group and renumbers the remaining groups' priority
// densely from 1, preserving their relative order.
func (s *Store) DeleteGroup(ctx context.Context, id int64) error {
	if _, err := s.dbtx.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting group: %w", err)
	}
	const renumber = `
		WITH ranked AS (
			SELECT id, ROW_NUMBER() OVER (ORDER BY priority ASC) AS rn FROM groups
		)
		UPDATE groups SET priority = ranked.rn FROM ranked WHERE groups.id = ranked.id`
	if _, err := s.dbtx.Exec(ctx, renumber); err != nil {
		return fmt.Errorf("renumbering group priority: %w", err)
	}
	return nil
}

// ReorderGroups applies a caller-specified priority ordering (a list of
// group ids, highest priority first) and renumbers densely from 1.
func (s *Store) ReorderGroups(ctx context.Context, orderedIDs []int64) error {
	// Park each group on a negative priority first so no intermediate row
	// collides with another under UNIQUE (priority), then flip them positive.
	for i, id := range orderedIDs {
		if _, err := s.dbtx.Exec(ctx, `UPDATE groups SET priority = $2 WHERE id = $1`, id, -(i + 1)); err != nil {
			return fmt.Errorf("reordering group %d: %w", id, err)
		}
	}
	if _, err := s.dbtx.Exec(ctx, `UPDATE groups SET priority = -priority WHERE priority < 0`); err != nil {
		return fmt.Errorf("finalizing group order: %w", err)
	}
	return nil
}

func (s *Store) scanGroup(row pgx.Row) (Group, error) {
	var g Group
	err := row.Scan(&g.ID, &g.Name, &g.Priority, &g.SeniorityFactor, &g.MinAssignments, &g.MaxAssignments)
	if errors.Is(err, pgx.ErrNoRows) {
		return Group{}, ErrNotFound
	}
	if err != nil {
		return Group{}, fmt.Errorf("scanning group: %w", err)
	}
	return g, nil
}

func (s *Store) scanGroupFromRows(rows pgx.Rows) (Group, error) {
	var g Group
	if err := rows.Scan(&g.ID, &g.Name, &g.Priority, &g.SeniorityFactor, &g.MinAssignments, &g.MaxAssignments); err != nil {
		return Group{}, fmt.Errorf("scanning group row: %w", err)
	}
	return g, nil
}

// --- People ---

func (s *Store) CreatePerson(ctx context.Context, p Person) (Person, error) {
	const query = `INSERT INTO people (name, is_active, group_id)
	               VALUES ($1, $2, $3)
	               RETURNING id, name, is_active, group_id, created_at, updated_at`
	return s.scanPerson(s.dbtx.QueryRow(ctx, query, p.Name, p.IsActive, p.GroupID))
}

func (s *Store) GetPerson(ctx context.Context, id int64) (Person, error) {
	const query = `SELECT id, name, is_active, group_id, created_at, updated_at FROM people WHERE id = $1`
	return s.scanPerson(s.dbtx.QueryRow(ctx, query, id))
}

func (s *Store) ListPeople(ctx context.Context) ([]Person, error) {
	const query = `SELECT id, name, is_active, group_id, created_at, updated_at FROM people ORDER BY name ASC`
	rows, err := s.dbtx.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing people: %w", err)
	}
	defer rows.Close()

	people := []Person{}
	for rows.Next() {
		p, err := s.scanPersonFromRows(rows)
		if err != nil {
			return nil, err
		}
		people = append(people, p)
	}
	return people, rows.Err()
}

func (s *Store) UpdatePerson(ctx context.Context, id int64, p Person) (Person, error) {
	const query = `UPDATE people SET name=$2, is_active=$3, group_id=$4, updated_at=now()
	               WHERE id=$1
	               RETURNING id, name, is_active, group_id, created_at, updated_at`
	return s.scanPerson(s.dbtx.QueryRow(ctx, query, id, p.Name, p.IsActive, p.GroupID))
}

func (s *Store) DeletePerson(ctx context.Context, id int64) error {
	tag, err := s.dbtx.Exec(ctx, `DELETE FROM people WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting person: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) scanPerson(row pgx.Row) (Person, error) {
	var p Person
	err := row.Scan(&p.ID, &p.Name, &p.IsActive, &p.GroupID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Person{}, ErrNotFound
	}
	if err != nil {
		return Person{}, fmt.Errorf("scanning person: %w", err)
	}
	return p, nil
}

func (s *Store) scanPersonFromRows(rows pgx.Rows) (Person, error) {
	var p Person
	if err := rows.Scan(&p.ID, &p.Name, &p.IsActive, &p.GroupID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Person{}, fmt.Errorf("scanning person row: %w", err)
	}
	return p, nil
}

// --- Qualifications ---

// CreateQualification inserts a qualification, or reactivates an existing
// inactive one for the same (person, station) pair rather than violating
// the at-most-one-per-pair uniqueness constraint.
func (s *Store) CreateQualification(ctx context.Context, q Qualification) (Qualification, error) {
	const query = `INSERT INTO qualifications (person_id, station_id, is_active)
	               VALUES ($1, $2, true)
	               ON CONFLICT (person_id, station_id)
	               DO UPDATE SET is_active = true
	               RETURNING id, person_id, station_id, is_active`
	return s.scanQualification(s.dbtx.QueryRow(ctx, query, q.PersonID, q.StationID))
}

// SetQualificationActive toggles a qualification's active flag without
// deleting history.
func (s *Store) SetQualificationActive(ctx context.Context, id int64, active bool) (Qualification, error) {
	const query = `UPDATE qualifications SET is_active=$2 WHERE id=$1
	               RETURNING id, person_id, station_id, is_active`
	return s.scanQualification(s.dbtx.QueryRow(ctx, query, id, active))
}

func (s *Store) ListQualificationsForPerson(ctx context.Context, personID int64) ([]Qualification, error) {
	const query = `SELECT id, person_id, station_id, is_active FROM qualifications WHERE person_id = $1`
	rows, err := s.dbtx.Query(ctx, query, personID)
	if err != nil {
		return nil, fmt.Errorf("listing qualifications: %w", err)
	}
	defer rows.Close()

	quals := []Qualification{}
	for rows.Next() {
		var q Qualification
		if err := rows.Scan(&q.ID, &q.PersonID, &q.StationID, &q.IsActive); err != nil {
			return nil, fmt.Errorf("scanning qualification row: %w", err)
		}
		quals = append(quals, q)
	}
	return quals, rows.Err()
}

// ActiveQualifiedStations returns the station ids a person currently holds
// an active qualification for.
func (s *Store) ActiveQualifiedStations(ctx context.Context, personID int64) ([]int64, error) {
	const query = `SELECT station_id FROM qualifications WHERE person_id = $1 AND is_active = true`
	rows, err := s.dbtx.Query(ctx, query, personID)
	if err != nil {
		return nil, fmt.Errorf("listing active qualified stations: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning station id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) scanQualification(row pgx.Row) (Qualification, error) {
	var q Qualification
	err := row.Scan(&q.ID, &q.PersonID, &q.StationID, &q.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return Qualification{}, ErrNotFound
	}
	if err != nil {
		return Qualification{}, fmt.Errorf("scanning qualification: %w", err)
	}
	return q, nil
}
