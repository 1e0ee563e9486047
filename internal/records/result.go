package records

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidResult = errors.New("invalid workout result")

// Result is one finished workout as reported by the logbook API.
// Results are owned by the ingestion side and read-only here.
type Result struct {
	ID       int64     `json:"id"`
	UserID   string    `json:"userId"`
	Sport    Sport     `json:"sport"`
	Distance int       `json:"distance"` // meters
	Time     float64   `json:"time"`     // seconds
	Date     time.Time `json:"date"`
}

func (r Result) Validate() error {
	if r.ID == 0 {
		return fmt.Errorf("%w: missing id", ErrInvalidResult)
	}
	if r.Sport == "" {
		return fmt.Errorf("%w [%d]: missing sport", ErrInvalidResult, r.ID)
	}
	if r.Date.IsZero() {
		return fmt.Errorf("%w [%d]: missing date", ErrInvalidResult, r.ID)
	}
	return nil
}
