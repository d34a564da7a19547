package watchbill

import (
	"context"
	"fmt"
)

// StationSummary is one station's supply/demand snapshot within a
// schedule's health summary.
type StationSummary struct {
	StationID   int64   `json:"station_id"`
	StationName string  `json:"station_name"`
	Demand      float64 `json:"demand"`       // active-day count requiring this station
	Supply      int     `json:"supply"`       // memberships with an active qualification for this station (exclusions and leaves not counted against it)
	LoadFactor  float64 `json:"load_factor"`  // demand / supply; supply=0 -> +Inf represented as -1
	Status      string  `json:"status"`       // healthy | tight | overloaded
}

// Summary is a schedule's overall health: per-station demand vs. supply
// and any warnings worth surfacing before generation.
type Summary struct {
	TotalCalendarLoad float64          `json:"total_calendar_load"`
	Stations          []StationSummary `json:"stations"`
	Warnings          []string         `json:"warnings"`
}

const (
	statusHealthy    = "healthy"
	statusTight      = "tight"
	statusOverloaded = "overloaded"
)

// BuildSummary computes a schedule's health: total weighted calendar load,
// per-station load factor (demand/supply), and warnings for any station
// whose load factor crosses the tight/overloaded thresholds.
func BuildSummary(ctx context.Context, store *Store, stationNames map[int64]string, scheduleID int64) (Summary, error) {
	days, err := store.ListDays(ctx, scheduleID)
	if err != nil {
		return Summary{}, fmt.Errorf("loading days: %w", err)
	}
	memberships, err := store.ListMemberships(ctx, scheduleID)
	if err != nil {
		return Summary{}, fmt.Errorf("loading memberships: %w", err)
	}
	requiredStations, err := store.RequiredStationIDs(ctx, scheduleID)
	if err != nil {
		return Summary{}, fmt.Errorf("loading required stations: %w", err)
	}

	activeDayCount := 0
	totalLoad := 0.0
	for _, d := range days {
		if d.IsLookback {
			continue
		}
		activeDayCount++
		totalLoad += d.Weight * float64(len(requiredStations))
	}

	qualifiedByMembership := make(map[int64]map[int64]bool, len(memberships))
	for _, mem := range memberships {
		qualified, err := store.QualifiedStationsForMembership(ctx, mem.ID)
		if err != nil {
			return Summary{}, err
		}
		qualifiedByMembership[mem.ID] = qualified
	}

	var warnings []string
	stationSummaries := make([]StationSummary, 0, len(requiredStations))
	for _, stationID := range requiredStations {
		supply := 0
		for _, mem := range memberships {
			if qualifiedByMembership[mem.ID][stationID] {
				supply++
			}
		}

		demand := float64(activeDayCount)
		loadFactor := -1.0
		status := statusHealthy
		if supply > 0 {
			loadFactor = demand / float64(supply)
			switch {
			case loadFactor > 3:
				status = statusOverloaded
			case loadFactor > 1.5:
				status = statusTight
			}
		} else if demand > 0 {
			status = statusOverloaded
		}

		name := stationNames[stationID]
		if status != statusHealthy {
			warnings = append(warnings, fmt.Sprintf("%s is %s: %d active days against %d qualified members", name, status, activeDayCount, supply))
		}

		stationSummaries = append(stationSummaries, StationSummary{
			StationID: stationID, StationName: name, Demand: demand, Supply: supply,
			LoadFactor: loadFactor, Status: status,
		})
	}

	return Summary{TotalCalendarLoad: totalLoad, Stations: stationSummaries, Warnings: warnings}, nil
}
