package records

import (
	"fmt"
	"strconv"
	"time"
)

// ScopeAllTime marks the single best event of an activity, ever.
const ScopeAllTime = "all-time"

func SeasonScope(seasonIdentifier string) string {
	return "season-" + seasonIdentifier
}

func YearScope(year int) string {
	return "year-" + strconv.Itoa(year)
}

// SeasonIdentifier returns the season label for a result date. A season
// runs May through April and is labeled by its ending calendar year:
// Jan-Apr belong to the season of their own year, May-Dec to the next one.
// Dates are partitioned on their UTC calendar fields.
func SeasonIdentifier(date time.Time) string {
	d := date.UTC()
	year := d.Year()
	if d.Month() >= time.May {
		year++
	}
	return strconv.Itoa(year)
}

// EventID is the deterministic identity of a PR event: one result can
// produce at most one event per definition. Structured on purpose, so
// numeric result ids and string activity keys never get mixed up in a
// concatenated string key.
type EventID struct {
	ResultsID   int64
	ActivityKey string
}

func (id EventID) String() string {
	return fmt.Sprintf("%d||%s", id.ResultsID, id.ActivityKey)
}

// Event is one achieved personal record. Scopes is the only field that
// changes after creation; it is recomputed for the whole activity every
// time a new event of that activity lands.
type Event struct {
	UserID           string     `json:"userId"`
	ResultsID        int64      `json:"resultsId"`
	ActivityKey      string     `json:"activityKey"`
	MetricType       MetricType `json:"metricType"`
	MetricValue      float64    `json:"metricValue"`
	AchievedAt       time.Time  `json:"achievedAt"`
	SeasonIdentifier string     `json:"seasonIdentifier"`
	Scopes           []string   `json:"prScope"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func (e Event) ID() EventID {
	return EventID{
		ResultsID:   e.ResultsID,
		ActivityKey: e.ActivityKey,
	}
}

// NewEvent builds the PR event for a qualifying (result, definition)
// pair, with no scopes assigned yet. Malformed inputs are a programming
// contract violation and are returned as errors, not swallowed.
func NewEvent(result Result, definition Definition) (Event, error) {
	if err := result.Validate(); err != nil {
		return Event{}, err
	}
	if err := definition.Validate(); err != nil {
		return Event{}, err
	}

	return Event{
		UserID:           definition.UserID,
		ResultsID:        result.ID,
		ActivityKey:      definition.ActivityKey,
		MetricType:       definition.MetricType,
		MetricValue:      MetricValue(result, definition),
		AchievedAt:       result.Date,
		SeasonIdentifier: SeasonIdentifier(result.Date),
		Scopes:           []string{},
	}, nil
}
