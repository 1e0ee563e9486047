package records

import (
	"errors"
	"fmt"
)

type Sport string

const (
	SportRower  Sport = "rower"
	SportSkiErg Sport = "skierg"
	SportBike   Sport = "bike"
)

type MetricType string

const (
	// MetricTime - the record value is the elapsed time over a fixed distance (lower is better)
	MetricTime MetricType = "time"
	// MetricDistance - the record value is the distance covered in a fixed time (higher is better)
	MetricDistance MetricType = "distance"
)

var ErrInvalidDefinition = errors.New("invalid pr definition")

// Definition describes one personal record type, e.g. "fastest 2000m row".
// Exactly one of TargetDistance / TargetTime is set, depending on MetricType:
// a time record targets a fixed distance, a distance record targets a fixed time.
type Definition struct {
	ID             int        `json:"id"`
	UserID         string     `json:"userId"`
	ActivityKey    string     `json:"activityKey"`
	Sport          Sport      `json:"sport"`
	MetricType     MetricType `json:"metricType"`
	TargetDistance *int       `json:"targetDistance,omitempty"`
	TargetTime     *float64   `json:"targetTime,omitempty"`
	IsActive       bool       `json:"isActive"`
	DisplayOrder   int        `json:"displayOrder"`
}

func (d Definition) Validate() error {
	if d.ActivityKey == "" {
		return fmt.Errorf("%w: empty activity key", ErrInvalidDefinition)
	}
	if d.Sport == "" {
		return fmt.Errorf("%w [%s]: empty sport", ErrInvalidDefinition, d.ActivityKey)
	}
	switch d.MetricType {
	case MetricTime:
		if d.TargetDistance == nil || d.TargetTime != nil {
			return fmt.Errorf(
				"%w [%s]: time metric needs target distance only",
				ErrInvalidDefinition, d.ActivityKey,
			)
		}
	case MetricDistance:
		if d.TargetTime == nil || d.TargetDistance != nil {
			return fmt.Errorf(
				"%w [%s]: distance metric needs target time only",
				ErrInvalidDefinition, d.ActivityKey,
			)
		}
	default:
		return fmt.Errorf("%w [%s]: unknown metric type %q", ErrInvalidDefinition, d.ActivityKey, d.MetricType)
	}
	return nil
}

func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }

// DefaultDefinitions is the catalog seeded for users that have none yet.
func DefaultDefinitions(userID string) []Definition {
	return []Definition{
		{UserID: userID, ActivityKey: "500m_row", Sport: SportRower, MetricType: MetricTime, TargetDistance: intPtr(500), IsActive: true, DisplayOrder: 1},
		{UserID: userID, ActivityKey: "1k_row", Sport: SportRower, MetricType: MetricTime, TargetDistance: intPtr(1000), IsActive: true, DisplayOrder: 2},
		{UserID: userID, ActivityKey: "2k_row", Sport: SportRower, MetricType: MetricTime, TargetDistance: intPtr(2000), IsActive: true, DisplayOrder: 3},
		{UserID: userID, ActivityKey: "5k_row", Sport: SportRower, MetricType: MetricTime, TargetDistance: intPtr(5000), IsActive: true, DisplayOrder: 4},
		{UserID: userID, ActivityKey: "10k_row", Sport: SportRower, MetricType: MetricTime, TargetDistance: intPtr(10000), IsActive: true, DisplayOrder: 5},
		{UserID: userID, ActivityKey: "halfmarathon_row", Sport: SportRower, MetricType: MetricTime, TargetDistance: intPtr(21097), IsActive: true, DisplayOrder: 6},
		{UserID: userID, ActivityKey: "1min_row", Sport: SportRower, MetricType: MetricDistance, TargetTime: floatPtr(60), IsActive: true, DisplayOrder: 7},
		{UserID: userID, ActivityKey: "30min_row", Sport: SportRower, MetricType: MetricDistance, TargetTime: floatPtr(1800), IsActive: true, DisplayOrder: 8},
		{UserID: userID, ActivityKey: "60min_row", Sport: SportRower, MetricType: MetricDistance, TargetTime: floatPtr(3600), IsActive: true, DisplayOrder: 9},

		{UserID: userID, ActivityKey: "500m_ski", Sport: SportSkiErg, MetricType: MetricTime, TargetDistance: intPtr(500), IsActive: true, DisplayOrder: 10},
		{UserID: userID, ActivityKey: "1k_ski", Sport: SportSkiErg, MetricType: MetricTime, TargetDistance: intPtr(1000), IsActive: true, DisplayOrder: 11},
		{UserID: userID, ActivityKey: "2k_ski", Sport: SportSkiErg, MetricType: MetricTime, TargetDistance: intPtr(2000), IsActive: true, DisplayOrder: 12},
		{UserID: userID, ActivityKey: "5k_ski", Sport: SportSkiErg, MetricType: MetricTime, TargetDistance: intPtr(5000), IsActive: true, DisplayOrder: 13},

		{UserID: userID, ActivityKey: "1k_bike", Sport: SportBike, MetricType: MetricTime, TargetDistance: intPtr(1000), IsActive: true, DisplayOrder: 14},
		{UserID: userID, ActivityKey: "4k_bike", Sport: SportBike, MetricType: MetricTime, TargetDistance: intPtr(4000), IsActive: true, DisplayOrder: 15},
		{UserID: userID, ActivityKey: "10k_bike", Sport: SportBike, MetricType: MetricTime, TargetDistance: intPtr(10000), IsActive: true, DisplayOrder: 16},
		{UserID: userID, ActivityKey: "60min_bike", Sport: SportBike, MetricType: MetricDistance, TargetTime: floatPtr(3600), IsActive: true, DisplayOrder: 17},
	}
}
