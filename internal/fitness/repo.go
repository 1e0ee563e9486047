package fitness

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/ergolog/internal/records"
	"github.com/2beens/ergolog/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

// Repo stores the workout results pulled from the logbook. The records
// package reads them back through ListResults when processing PRs.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// AddResults stores the given results for a user, skipping the ones
// already present. Reports how many new results were actually added.
func (r *Repo) AddResults(ctx context.Context, userID string, results []records.Result) (added int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.fitness.addResults")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("results.count", len(results)))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	for _, result := range results {
		tag, err := tx.Exec(ctx, `
			INSERT INTO workout_result (id, user_id, sport, distance, time, date, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, now())
			ON CONFLICT (user_id, id) DO NOTHING
		`,
			result.ID, userID, result.Sport, result.Distance, result.Time, result.Date,
		)
		if err != nil {
			return added, fmt.Errorf("insert result %d: %w", result.ID, err)
		}
		if tag.RowsAffected() > 0 {
			added++
		}
	}

	return added, nil
}

// LastResultDate returns the date of the most recent stored result of a
// user, or the zero time if none is stored yet.
func (r *Repo) LastResultDate(ctx context.Context, userID string) (_ time.Time, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.fitness.lastResultDate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var lastDate *time.Time
	if err := r.db.QueryRow(ctx, `
		SELECT max(date) FROM workout_result WHERE user_id = $1
	`, userID).Scan(&lastDate); err != nil {
		return time.Time{}, fmt.Errorf("query last result date: %w", err)
	}

	if lastDate == nil {
		return time.Time{}, nil
	}
	return *lastDate, nil
}

func (r *Repo) ListResults(ctx context.Context, userID string) (_ []records.Result, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.fitness.listResults")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, sport, distance, time, date
		FROM workout_result
		WHERE user_id = $1
		ORDER BY date, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	results := make([]records.Result, 0)
	for rows.Next() {
		var result records.Result
		if err := rows.Scan(
			&result.ID, &result.UserID, &result.Sport,
			&result.Distance, &result.Time, &result.Date,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
