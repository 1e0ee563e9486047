package records

import (
	"sort"
)

// RecomputeScopes takes ALL events of one activity and reassigns their
// scope labels from scratch: the overall best gets "all-time", the best
// of each season its "season-<id>" label, the best of each calendar
// year its "year-<y>" label. Every event gets its scopes overwritten,
// winners and losers alike, so the result can be persisted as a full
// per-activity overwrite.
//
// Events are reduced in ascending order of achievement time and a later
// event replaces the current best only on strict improvement, so among
// equal values the earliest-achieved one keeps the record.
func RecomputeScopes(events []Event) []Event {
	if len(events) == 0 {
		return events
	}

	recomputed := make([]Event, len(events))
	copy(recomputed, events)

	sort.SliceStable(recomputed, func(i, j int) bool {
		if recomputed[i].AchievedAt.Equal(recomputed[j].AchievedAt) {
			return recomputed[i].ResultsID < recomputed[j].ResultsID
		}
		return recomputed[i].AchievedAt.Before(recomputed[j].AchievedAt)
	})

	// all events of one activity share the metric type
	lowerWins := recomputed[0].MetricType == MetricTime

	allTime := bestPerPartition(recomputed, lowerWins, func(Event) string {
		return ScopeAllTime
	})
	perSeason := bestPerPartition(recomputed, lowerWins, func(e Event) string {
		return SeasonScope(e.SeasonIdentifier)
	})
	perYear := bestPerPartition(recomputed, lowerWins, func(e Event) string {
		return YearScope(e.AchievedAt.UTC().Year())
	})

	for i := range recomputed {
		id := recomputed[i].ID()
		scopes := []string{}
		if allTime[ScopeAllTime] == id {
			scopes = append(scopes, ScopeAllTime)
		}
		seasonLabel := SeasonScope(recomputed[i].SeasonIdentifier)
		if perSeason[seasonLabel] == id {
			scopes = append(scopes, seasonLabel)
		}
		yearLabel := YearScope(recomputed[i].AchievedAt.UTC().Year())
		if perYear[yearLabel] == id {
			scopes = append(scopes, yearLabel)
		}
		recomputed[i].Scopes = scopes
	}

	return recomputed
}

// bestPerPartition groups the (chronologically sorted) events by the
// partition key and reduces each group to its best event. Replacement
// happens on strict improvement only, so the first occurrence of the
// optimal value wins.
func bestPerPartition(
	sortedEvents []Event,
	lowerWins bool,
	partitionKey func(Event) string,
) map[string]EventID {
	best := make(map[string]*Event)
	for i := range sortedEvents {
		e := &sortedEvents[i]
		key := partitionKey(*e)
		current, ok := best[key]
		if !ok {
			best[key] = e
			continue
		}
		if lowerWins {
			if e.MetricValue < current.MetricValue {
				best[key] = e
			}
		} else {
			if e.MetricValue > current.MetricValue {
				best[key] = e
			}
		}
	}

	winners := make(map[string]EventID, len(best))
	for key, e := range best {
		winners[key] = e.ID()
	}
	return winners
}
