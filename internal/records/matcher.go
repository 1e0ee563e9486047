package records

// Matches reports whether a result qualifies for a PR definition.
// Pure function: sport must match, and the result must hit the
// definition target exactly (no tolerance).
func Matches(result Result, definition Definition) bool {
	if result.Sport != definition.Sport {
		return false
	}

	switch {
	case definition.MetricType == MetricTime && definition.TargetDistance != nil:
		return result.Distance == *definition.TargetDistance
	case definition.MetricType == MetricDistance && definition.TargetTime != nil:
		return result.Time == *definition.TargetTime
	default:
		return false
	}
}

// MetricValue extracts the record value of a result for a definition:
// the elapsed time for time records, the covered distance otherwise.
func MetricValue(result Result, definition Definition) float64 {
	if definition.MetricType == MetricTime {
		return result.Time
	}
	return float64(result.Distance)
}
