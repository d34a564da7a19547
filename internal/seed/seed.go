// Package seed populates a fresh database with reference data ("seed"
// mode) or a full set of demo schedules exercising the optimizer's key
// behaviors ("seed-demo" mode).
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/traskcs99/watchbill/pkg/personnel"
	"github.com/traskcs99/watchbill/pkg/station"
	"github.com/traskcs99/watchbill/pkg/watchbill"
)

// Run seeds the minimum reference data a fresh deployment needs: one
// seniority group and the standard set of watch stations. It does not
// create any schedule.
func Run(ctx context.Context, db *pgxpool.Pool, logger *slog.Logger) error {
	personnelStore := personnel.NewStore(db)
	stationStore := station.NewStore(db)

	group, err := personnelStore.CreateGroup(ctx, personnel.Group{
		Name: "Standard", SeniorityFactor: 1.0, MinAssignments: 0, MaxAssignments: 999,
	})
	if err != nil {
		return fmt.Errorf("seeding default group: %w", err)
	}
	logger.Info("seeded default group", "group_id", group.ID)

	stations := []station.Station{
		{Name: "Officer of the Deck", Abbreviation: "OOD"},
		{Name: "Conning Officer", Abbreviation: "CONN"},
		{Name: "Engineering Officer of the Watch", Abbreviation: "EOOW"},
	}
	for _, st := range stations {
		created, err := stationStore.Create(ctx, st)
		if err != nil {
			return fmt.Errorf("seeding station %q: %w", st.Name, err)
		}
		logger.Info("seeded station", "station_id", created.ID, "name", created.Name)
	}
	return nil
}

// RunDemo builds one demo schedule per notable optimizer behavior (quota
// fairness, spacing, qualification gating, lookback fatigue, infeasibility,
// and lock preservation), so the generate/validate/apply endpoints have
// realistic data to exercise against immediately after a fresh deployment.
func RunDemo(ctx context.Context, db *pgxpool.Pool, logger *slog.Logger) error {
	personnelStore := personnel.NewStore(db)
	stationStore := station.NewStore(db)
	watchbillStore := watchbill.NewStore(db)
	svc := watchbill.NewService(db, personnelStore, stationStore, watchbill.USFederalFeed{}, watchbill.GenerateConfig{
		BaseTimeLimitSeconds: 2, TimeLimitStepSeconds: 4.5, BaseRelGap: 0.05, RelGapStep: 0.012,
	}, logger, nil)

	group, err := personnelStore.CreateGroup(ctx, personnel.Group{
		Name: "Standard", SeniorityFactor: 1.0, MinAssignments: 0, MaxAssignments: 999,
	})
	if err != nil {
		return fmt.Errorf("seeding demo group: %w", err)
	}

	ood, err := stationStore.Create(ctx, station.Station{Name: "Officer of the Deck", Abbreviation: "OOD"})
	if err != nil {
		return fmt.Errorf("seeding demo station: %w", err)
	}

	d := demo{
		ctx:       ctx,
		logger:    logger,
		personnel: personnelStore,
		store:     watchbillStore,
		svc:       svc,
		groupID:   group.ID,
		stationID: ood.ID,
	}

	if err := d.seedQuotaWaterfall(); err != nil {
		return fmt.Errorf("seeding quota waterfall demo: %w", err)
	}
	if err := d.seedNoBackToBack(); err != nil {
		return fmt.Errorf("seeding no-back-to-back demo: %w", err)
	}
	if err := d.seedQualificationConstraint(); err != nil {
		return fmt.Errorf("seeding qualification constraint demo: %w", err)
	}
	if err := d.seedLookbackBridge(); err != nil {
		return fmt.Errorf("seeding lookback bridge demo: %w", err)
	}
	if err := d.seedInfeasible(); err != nil {
		return fmt.Errorf("seeding infeasibility demo: %w", err)
	}
	if err := d.seedApplyRespectsLocks(); err != nil {
		return fmt.Errorf("seeding apply-respects-locks demo: %w", err)
	}

	logger.Info("demo data seeded")
	return nil
}

type demo struct {
	ctx       context.Context
	logger    *slog.Logger
	personnel *personnel.Store
	store     *watchbill.Store
	svc       *watchbill.Service
	groupID   int64
	stationID int64
}

func dateAt(daysFromNow int) time.Time {
	return demoEpoch.AddDate(0, 0, daysFromNow)
}

// demoEpoch anchors every demo schedule's dates to a fixed Monday, so the
// seeded data (and the weekday-weight policy it exercises) is reproducible
// across runs regardless of when seed-demo is invoked.
var demoEpoch = time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)

func (d *demo) addPerson(name string) (personnel.Person, error) {
	return d.personnel.CreatePerson(d.ctx, personnel.Person{Name: name, IsActive: true, GroupID: &d.groupID})
}

func (d *demo) addQualifiedMembership(scheduleID, personID int64) (watchbill.Membership, error) {
	return d.addQualifiedMembershipWith(scheduleID, personID, watchbill.Membership{})
}

// addQualifiedMembershipWith grants the station qualification and creates
// the membership with caller-supplied override fields layered on top of
// the schedule/person/group identity.
func (d *demo) addQualifiedMembershipWith(scheduleID, personID int64, overrides watchbill.Membership) (watchbill.Membership, error) {
	if _, err := d.personnel.CreateQualification(d.ctx, personnel.Qualification{PersonID: personID, StationID: d.stationID}); err != nil {
		return watchbill.Membership{}, err
	}
	overrides.ScheduleID = scheduleID
	overrides.PersonID = personID
	overrides.GroupID = &d.groupID
	return d.svc.AddMembership(d.ctx, overrides)
}

// seedQuotaWaterfall builds a 4-day window weighted [1,2,1,1] (Mon 16 to
// Thu 19 March 2026; Tuesday the 17th is St. Patrick's Day, a holiday),
// with one member capped at 1 assignment and another on leave across the
// weight-2 day, so the waterfall redistribution has both a cap and a leave
// to route around.
func (d *demo) seedQuotaWaterfall() error {
	sc, err := d.svc.CreateSchedule(d.ctx, watchbill.Schedule{
		Name: "Quota Waterfall Demo", StartDate: dateAt(70), EndDate: dateAt(73),
	})
	if err != nil {
		return err
	}
	if err := d.store.LinkStation(d.ctx, sc.ID, d.stationID); err != nil {
		return err
	}

	alice, err := d.addPerson("Alice Waterfall")
	if err != nil {
		return err
	}
	bob, err := d.addPerson("Bob Waterfall")
	if err != nil {
		return err
	}
	carol, err := d.addPerson("Carol Waterfall")
	if err != nil {
		return err
	}
	dana, err := d.addPerson("Dana Waterfall")
	if err != nil {
		return err
	}

	if _, err := d.addQualifiedMembership(sc.ID, alice.ID); err != nil {
		return err
	}

	half := 0.5
	if _, err := d.addQualifiedMembershipWith(sc.ID, bob.ID, watchbill.Membership{OverrideSeniorityFactor: &half}); err != nil {
		return err
	}

	memCarol, err := d.addQualifiedMembership(sc.ID, carol.ID)
	if err != nil {
		return err
	}

	one := 1
	if _, err := d.addQualifiedMembershipWith(sc.ID, dana.ID, watchbill.Membership{OverrideMaxAssignments: &one}); err != nil {
		return err
	}

	days, err := d.store.ListDays(d.ctx, sc.ID)
	if err != nil {
		return err
	}
	var weightTwoDay watchbill.Day
	for _, day := range days {
		if !day.IsLookback && day.Weight == 2 {
			weightTwoDay = day
			break
		}
	}
	if weightTwoDay.ID != 0 {
		if _, err := d.store.CreateLeave(d.ctx, watchbill.Leave{
			MembershipID: memCarol.ID, StartDate: weightTwoDay.Date, EndDate: weightTwoDay.Date, Reason: "demo leave",
		}); err != nil {
			return err
		}
	}

	d.logger.Info("seeded quota waterfall demo", "schedule_id", sc.ID)
	return nil
}

// seedNoBackToBack builds a 5-day window, 1 station, 2 qualified members
// who must alternate perfectly to cover every day without ever working
// consecutive days.
func (d *demo) seedNoBackToBack() error {
	sc, err := d.svc.CreateSchedule(d.ctx, watchbill.Schedule{
		Name: "No Back-to-Back Demo", StartDate: dateAt(10), EndDate: dateAt(14),
	})
	if err != nil {
		return err
	}
	if err := d.store.LinkStation(d.ctx, sc.ID, d.stationID); err != nil {
		return err
	}
	for _, name := range []string{"Erin Alternate", "Frank Alternate"} {
		p, err := d.addPerson(name)
		if err != nil {
			return err
		}
		if _, err := d.addQualifiedMembership(sc.ID, p.ID); err != nil {
			return err
		}
	}
	d.logger.Info("seeded no-back-to-back demo", "schedule_id", sc.ID)
	return nil
}

// seedQualificationConstraint builds 2 members and 1 active day, where one
// member holds no qualification so only the other can fill the single
// assignment.
func (d *demo) seedQualificationConstraint() error {
	sc, err := d.svc.CreateSchedule(d.ctx, watchbill.Schedule{
		Name: "Qualification Constraint Demo", StartDate: dateAt(20), EndDate: dateAt(20),
	})
	if err != nil {
		return err
	}
	if err := d.store.LinkStation(d.ctx, sc.ID, d.stationID); err != nil {
		return err
	}

	unqualified, err := d.addPerson("Gabe Unqualified")
	if err != nil {
		return err
	}
	if _, err := d.svc.AddMembership(d.ctx, watchbill.Membership{ScheduleID: sc.ID, PersonID: unqualified.ID, GroupID: &d.groupID}); err != nil {
		return err
	}

	qualified, err := d.addPerson("Hana Qualified")
	if err != nil {
		return err
	}
	if _, err := d.addQualifiedMembership(sc.ID, qualified.ID); err != nil {
		return err
	}

	d.logger.Info("seeded qualification constraint demo", "schedule_id", sc.ID)
	return nil
}

// seedLookbackBridge builds a locked assignment on the lookback day
// immediately before the first active day, so the bridge hard constraint
// rules that member out of the first active day.
func (d *demo) seedLookbackBridge() error {
	sc, err := d.svc.CreateSchedule(d.ctx, watchbill.Schedule{
		Name: "Lookback Bridge Demo", StartDate: dateAt(30), EndDate: dateAt(31),
	})
	if err != nil {
		return err
	}
	if err := d.store.LinkStation(d.ctx, sc.ID, d.stationID); err != nil {
		return err
	}

	bridged, err := d.addPerson("Ivan Bridged")
	if err != nil {
		return err
	}
	memBridged, err := d.addQualifiedMembership(sc.ID, bridged.ID)
	if err != nil {
		return err
	}
	free, err := d.addPerson("Jan Free")
	if err != nil {
		return err
	}
	if _, err := d.addQualifiedMembership(sc.ID, free.ID); err != nil {
		return err
	}

	days, err := d.store.ListDays(d.ctx, sc.ID)
	if err != nil {
		return err
	}
	var lookbackDay watchbill.Day
	for _, day := range days {
		if day.IsLookback && day.Date.Equal(dateAt(29)) {
			lookbackDay = day
			break
		}
	}
	if lookbackDay.ID == 0 {
		return fmt.Errorf("could not find lookback day for the lookback bridge demo")
	}

	assignments, err := d.store.ListAssignments(d.ctx, sc.ID)
	if err != nil {
		return err
	}
	for _, asn := range assignments {
		if asn.DayID == lookbackDay.ID && asn.StationID == d.stationID {
			if err := d.store.SetAssignmentMembership(d.ctx, asn.ID, &memBridged.ID, true); err != nil {
				return err
			}
			break
		}
	}

	d.logger.Info("seeded lookback bridge demo", "schedule_id", sc.ID)
	return nil
}

// seedInfeasible builds both members on leave on the only active day, so
// the pre-flight feasibility check must reject generation.
func (d *demo) seedInfeasible() error {
	sc, err := d.svc.CreateSchedule(d.ctx, watchbill.Schedule{
		Name: "Infeasible Demo", StartDate: dateAt(40), EndDate: dateAt(40),
	})
	if err != nil {
		return err
	}
	if err := d.store.LinkStation(d.ctx, sc.ID, d.stationID); err != nil {
		return err
	}

	for _, name := range []string{"Kara Leave", "Liam Leave"} {
		p, err := d.addPerson(name)
		if err != nil {
			return err
		}
		mem, err := d.addQualifiedMembership(sc.ID, p.ID)
		if err != nil {
			return err
		}
		if _, err := d.store.CreateLeave(d.ctx, watchbill.Leave{
			MembershipID: mem.ID, StartDate: dateAt(40), EndDate: dateAt(40), Reason: "demo leave",
		}); err != nil {
			return err
		}
	}

	d.logger.Info("seeded infeasibility demo", "schedule_id", sc.ID)
	return nil
}

// seedApplyRespectsLocks builds a single locked slot holding one member, so
// applying any candidate must leave it untouched.
func (d *demo) seedApplyRespectsLocks() error {
	sc, err := d.svc.CreateSchedule(d.ctx, watchbill.Schedule{
		Name: "Apply Respects Locks Demo", StartDate: dateAt(50), EndDate: dateAt(51),
	})
	if err != nil {
		return err
	}
	if err := d.store.LinkStation(d.ctx, sc.ID, d.stationID); err != nil {
		return err
	}

	locked, err := d.addPerson("Mara Locked")
	if err != nil {
		return err
	}
	memLocked, err := d.addQualifiedMembership(sc.ID, locked.ID)
	if err != nil {
		return err
	}
	open, err := d.addPerson("Noah Open")
	if err != nil {
		return err
	}
	if _, err := d.addQualifiedMembership(sc.ID, open.ID); err != nil {
		return err
	}

	days, err := d.store.ListDays(d.ctx, sc.ID)
	if err != nil {
		return err
	}
	var firstActive watchbill.Day
	for _, day := range days {
		if !day.IsLookback {
			firstActive = day
			break
		}
	}

	assignments, err := d.store.ListAssignments(d.ctx, sc.ID)
	if err != nil {
		return err
	}
	for _, asn := range assignments {
		if asn.DayID == firstActive.ID && asn.StationID == d.stationID {
			if err := d.store.SetAssignmentMembership(d.ctx, asn.ID, &memLocked.ID, true); err != nil {
				return err
			}
			break
		}
	}

	d.logger.Info("seeded apply-respects-locks demo", "schedule_id", sc.ID)
	return nil
}
