package watchbill

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/traskcs99/watchbill/internal/solver"
	"github.com/traskcs99/watchbill/pkg/personnel"
	"github.com/traskcs99/watchbill/pkg/station"
)

// Service orchestrates the watchbill domain: it owns the store and the
// personnel/station stores it needs to resolve names, qualifications, and
// group defaults when assembling a ConstraintInput snapshot.
type Service struct {
	db            *pgxpool.Pool
	store         *Store
	personnel     *personnel.Store
	stations      *station.Store
	calendar      *CalendarMaterializer
	solverEngine  solver.Solver
	generatorCfg  GenerateConfig
	logger        *slog.Logger
	redis         *redis.Client
}

// NewService wires the watchbill domain service from its dependencies.
func NewService(db *pgxpool.Pool, personnelStore *personnel.Store, stationStore *station.Store,
	feed HolidayFeed, cfg GenerateConfig, logger *slog.Logger, rdb *redis.Client) *Service {
	store := NewStore(db)
	return &Service{
		db:           db,
		store:        store,
		personnel:    personnelStore,
		stations:     stationStore,
		calendar:     NewCalendarMaterializer(store, feed, logger),
		solverEngine: solver.New(),
		generatorCfg: cfg,
		logger:       logger,
		redis:        rdb,
	}
}

// CreateSchedule creates a schedule and materializes its calendar.
func (s *Service) CreateSchedule(ctx context.Context, sc Schedule) (Schedule, error) {
	if sc.GroupWeights == nil {
		sc.GroupWeights = map[int64]float64{}
	}
	if sc.Status == "" {
		sc.Status = StatusDraft
	}
	q1, q2, q3, q4, q5, q6 := DefaultScheduleWeights()
	if sc.WeightQuotaDeviation == 0 {
		sc.WeightQuotaDeviation = q1
	}
	if sc.WeightSpacing1Day == 0 {
		sc.WeightSpacing1Day = q2
	}
	if sc.WeightSpacing2Day == 0 {
		sc.WeightSpacing2Day = q3
	}
	if sc.WeightSameWeekend == 0 {
		sc.WeightSameWeekend = q4
	}
	if sc.WeightConsecutiveWeekends == 0 {
		sc.WeightConsecutiveWeekends = q5
	}
	if sc.WeightGoalDeviation == 0 {
		sc.WeightGoalDeviation = q6
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Schedule{}, fmt.Errorf("beginning schedule transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	txStore := s.store.WithTx(tx)

	created, err := txStore.CreateSchedule(ctx, sc)
	if err != nil {
		return Schedule{}, fmt.Errorf("creating schedule: %w", err)
	}
	cal := *s.calendar
	cal.store = txStore
	if _, err := cal.Materialize(ctx, created.ID, sc.StartDate, sc.EndDate); err != nil {
		return Schedule{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Schedule{}, fmt.Errorf("committing schedule: %w", err)
	}
	return created, nil
}

// AddMembership adds a person to a schedule and seeds their station-weight
// preferences at 1.0 for every station they currently hold a qualification
// for.
func (s *Service) AddMembership(ctx context.Context, m Membership) (Membership, error) {
	created, err := s.store.CreateMembership(ctx, m)
	if err != nil {
		return Membership{}, fmt.Errorf("creating membership: %w", err)
	}
	quals, err := s.personnel.ListQualificationsForPerson(ctx, m.PersonID)
	if err != nil {
		return Membership{}, fmt.Errorf("listing qualifications: %w", err)
	}
	for _, q := range quals {
		if !q.IsActive {
			continue
		}
		if _, err := s.store.UpsertStationWeight(ctx, StationWeight{MembershipID: created.ID, StationID: q.StationID, Weight: 1.0}); err != nil {
			return Membership{}, fmt.Errorf("seeding station weight: %w", err)
		}
	}
	return created, nil
}

// Quotas computes each membership's fair-share target for a schedule.
func (s *Service) Quotas(ctx context.Context, scheduleID int64) (map[int64]float64, error) {
	snapshot, err := s.snapshot(ctx, scheduleID, 1.0)
	if err != nil {
		return nil, err
	}
	return snapshot.in.QuotaTargets, nil
}

// Generate runs candidate generation end to end for a schedule, streaming to w.
func (s *Service) Generate(ctx context.Context, scheduleID int64, n int, w io.Writer) error {
	gen := NewGenerator(s.store, s.solverEngine, s.generatorCfg, s.logger, s.redis, func(ctx context.Context, scheduleID int64, weightScale float64) (ConstraintInput, map[int64]string, error) {
		snap, err := s.snapshot(ctx, scheduleID, weightScale)
		if err != nil {
			return ConstraintInput{}, nil, err
		}
		return snap.in, snap.personNames, nil
	})
	return gen.Generate(ctx, scheduleID, n, w)
}

// Validate checks a schedule's live assignments against the hard constraints.
func (s *Service) Validate(ctx context.Context, scheduleID int64) ([]Alert, error) {
	memberships, err := s.store.ListMemberships(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("listing memberships: %w", err)
	}
	nameOf, err := s.membershipNameResolver(ctx, memberships)
	if err != nil {
		return nil, err
	}
	return Validate(ctx, s.store, nameOf, scheduleID)
}

// Apply copies a chosen candidate's assignments onto the live schedule.
func (s *Service) Apply(ctx context.Context, scheduleID int64, candidateID uuid.UUID) (int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning apply transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	updated, err := Apply(ctx, s.store.WithTx(tx), scheduleID, candidateID)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing apply: %w", err)
	}
	return updated, nil
}

// Clear resets a schedule's unlocked slots.
func (s *Service) Clear(ctx context.Context, scheduleID int64) (int, error) {
	return Clear(ctx, s.store, scheduleID)
}

// Summary computes a schedule's overall health summary.
func (s *Service) Summary(ctx context.Context, scheduleID int64) (Summary, error) {
	stations, err := s.stations.List(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("listing stations: %w", err)
	}
	names := make(map[int64]string, len(stations))
	for _, st := range stations {
		names[st.ID] = st.Name
	}
	return BuildSummary(ctx, s.store, names, scheduleID)
}

type scheduleSnapshot struct {
	in          ConstraintInput
	personNames map[int64]string
}

// snapshot assembles one consistent ConstraintInput from the store in a
// single read, so every constraint and penalty in one solve iteration
// sees the same data. weightScale is the diversification multiplier for
// the soft base weights (1.0 for the baseline iteration).
func (s *Service) snapshot(ctx context.Context, scheduleID int64, weightScale float64) (scheduleSnapshot, error) {
	sc, err := s.store.GetSchedule(ctx, scheduleID)
	if err != nil {
		return scheduleSnapshot{}, err
	}
	days, err := s.store.ListDays(ctx, scheduleID)
	if err != nil {
		return scheduleSnapshot{}, fmt.Errorf("listing days: %w", err)
	}
	memberships, err := s.store.ListMemberships(ctx, scheduleID)
	if err != nil {
		return scheduleSnapshot{}, fmt.Errorf("listing memberships: %w", err)
	}
	requiredStations, err := s.store.RequiredStationIDs(ctx, scheduleID)
	if err != nil {
		return scheduleSnapshot{}, fmt.Errorf("listing required stations: %w", err)
	}
	assignments, err := s.store.ListAssignments(ctx, scheduleID)
	if err != nil {
		return scheduleSnapshot{}, fmt.Errorf("listing assignments: %w", err)
	}
	allGroups, err := s.allGroups(ctx)
	if err != nil {
		return scheduleSnapshot{}, err
	}
	stations, err := s.stations.List(ctx)
	if err != nil {
		return scheduleSnapshot{}, fmt.Errorf("listing stations: %w", err)
	}
	stationNames := make(map[int64]string, len(stations))
	for _, st := range stations {
		stationNames[st.ID] = st.Name
	}

	qualifiedStations := map[int64]map[int64]bool{}
	stationWeights := map[int64]map[int64]float64{}
	leavesByMembership := map[int64][]Leave{}
	exclusionsByMembership := map[int64]map[int64]bool{}
	personNames := map[int64]string{}

	for _, m := range memberships {
		quals, err := s.store.QualifiedStationsForMembership(ctx, m.ID)
		if err != nil {
			return scheduleSnapshot{}, err
		}
		qualifiedStations[m.ID] = quals

		weights, err := s.store.ListStationWeights(ctx, m.ID)
		if err != nil {
			return scheduleSnapshot{}, fmt.Errorf("listing station weights: %w", err)
		}
		wm := make(map[int64]float64, len(weights))
		for _, w := range weights {
			wm[w.StationID] = w.Weight
		}
		stationWeights[m.ID] = wm

		person, err := s.personnel.GetPerson(ctx, m.PersonID)
		if err != nil {
			return scheduleSnapshot{}, fmt.Errorf("loading person %d: %w", m.PersonID, err)
		}
		personNames[m.PersonID] = person.Name
	}

	leaves, err := s.store.ListLeaves(ctx, scheduleID)
	if err != nil {
		return scheduleSnapshot{}, fmt.Errorf("listing leaves: %w", err)
	}
	for _, l := range leaves {
		leavesByMembership[l.MembershipID] = append(leavesByMembership[l.MembershipID], l)
	}

	exclusions, err := s.store.ListExclusions(ctx, scheduleID)
	if err != nil {
		return scheduleSnapshot{}, fmt.Errorf("listing exclusions: %w", err)
	}
	for _, e := range exclusions {
		if exclusionsByMembership[e.MembershipID] == nil {
			exclusionsByMembership[e.MembershipID] = map[int64]bool{}
		}
		exclusionsByMembership[e.MembershipID][e.DayID] = true
	}

	lockedAssignments := map[dayStation]int64{}
	lookbackAssignments := map[dayStation]int64{}
	dayIsLookback := map[int64]bool{}
	for _, d := range days {
		dayIsLookback[d.ID] = d.IsLookback
	}
	for _, a := range assignments {
		if a.MembershipID == nil {
			continue
		}
		ds := dayStation{a.DayID, a.StationID}
		if dayIsLookback[a.DayID] {
			lookbackAssignments[ds] = *a.MembershipID
			continue
		}
		if a.IsLocked {
			lockedAssignments[ds] = *a.MembershipID
		}
	}

	activeDays := make([]Day, 0, len(days))
	for _, d := range days {
		if !d.IsLookback {
			activeDays = append(activeDays, d)
		}
	}
	quotaTargets := CalculateQuotas(activeDays, len(requiredStations), memberships, allGroups, leavesByMembership)

	in := ConstraintInput{
		Schedule:            sc,
		Days:                days,
		Memberships:         memberships,
		Groups:              allGroups,
		QualifiedStations:   qualifiedStations,
		StationWeights:      stationWeights,
		Leaves:              leavesByMembership,
		Exclusions:          exclusionsByMembership,
		LockedAssignments:   lockedAssignments,
		LookbackAssignments: lookbackAssignments,
		RequiredStationIDs:  requiredStations,
		StationNames:        stationNames,
		QuotaTargets:        quotaTargets,
		WeightScale:         weightScale,
	}
	return scheduleSnapshot{in: in, personNames: personNames}, nil
}

func (s *Service) allGroups(ctx context.Context) (map[int64]personnelGroup, error) {
	groups, err := s.personnel.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	out := make(map[int64]personnelGroup, len(groups))
	for _, g := range groups {
		out[g.ID] = personnelGroup{SeniorityFactor: g.SeniorityFactor, MinAssignments: g.MinAssignments, MaxAssignments: g.MaxAssignments}
	}
	return out, nil
}

func (s *Service) membershipNameResolver(ctx context.Context, memberships []Membership) (func(int64) string, error) {
	names := make(map[int64]string, len(memberships))
	for _, m := range memberships {
		person, err := s.personnel.GetPerson(ctx, m.PersonID)
		if err != nil {
			return nil, fmt.Errorf("loading person %d: %w", m.PersonID, err)
		}
		names[m.ID] = person.Name
	}
	return func(membershipID int64) string { return names[membershipID] }, nil
}
