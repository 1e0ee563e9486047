package records

import (
	"context"
	"fmt"

	"github.com/2beens/ergolog/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) GetActiveDefinitions(ctx context.Context, userID string) (_ []Definition, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.records.getActiveDefinitions")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, activity_key, sport, metric_type, target_distance, target_time, is_active, display_order
		FROM pr_definition
		WHERE user_id = $1 AND is_active
		ORDER BY display_order
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query definitions: %w", err)
	}
	defer rows.Close()

	definitions := make([]Definition, 0)
	for rows.Next() {
		var d Definition
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.ActivityKey, &d.Sport, &d.MetricType,
			&d.TargetDistance, &d.TargetTime, &d.IsActive, &d.DisplayOrder,
		); err != nil {
			return nil, fmt.Errorf("scan definition: %w", err)
		}
		definitions = append(definitions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return definitions, nil
}

func (r *Repo) SeedDefaultDefinitions(ctx context.Context, userID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.records.seedDefaultDefinitions")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
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

	for _, d := range DefaultDefinitions(userID) {
		if _, err = tx.Exec(ctx, `
			INSERT INTO pr_definition (user_id, activity_key, sport, metric_type, target_distance, target_time, is_active, display_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (user_id, activity_key) DO NOTHING
		`,
			d.UserID, d.ActivityKey, d.Sport, d.MetricType,
			d.TargetDistance, d.TargetTime, d.IsActive, d.DisplayOrder,
		); err != nil {
			return fmt.Errorf("insert default definition %s: %w", d.ActivityKey, err)
		}
	}

	return nil
}

func (r *Repo) ProcessedResultIDs(ctx context.Context, userID string) (_ map[int64]bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.records.processedResultIDs")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT results_id FROM pr_event WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query processed result ids: %w", err)
	}
	defer rows.Close()

	resultIDs := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan result id: %w", err)
		}
		resultIDs[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return resultIDs, nil
}

func (r *Repo) UpsertEvent(ctx context.Context, event Event) (created bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.records.upsertEvent")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("event.id", event.ID().String()))

	// the conflict target is the deterministic event identity; an
	// existing event is left as-is so its scopes survive reprocessing
	tag, err := r.db.Exec(ctx, `
		INSERT INTO pr_event (user_id, results_id, activity_key, metric_type, metric_value, achieved_at, season_identifier, pr_scope, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, '{}', now(), now())
		ON CONFLICT (user_id, results_id, activity_key) DO NOTHING
	`,
		event.UserID, event.ResultsID, event.ActivityKey, event.MetricType,
		event.MetricValue, event.AchievedAt, event.SeasonIdentifier,
	)
	if err != nil {
		return false, fmt.Errorf("insert event: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *Repo) ListEventsByActivity(ctx context.Context, userID, activityKey string) (_ []Event, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.records.listEventsByActivity")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("activity.key", activityKey))

	rows, err := r.db.Query(ctx, `
		SELECT user_id, results_id, activity_key, metric_type, metric_value, achieved_at, season_identifier, pr_scope, created_at, updated_at
		FROM pr_event
		WHERE user_id = $1 AND activity_key = $2
		ORDER BY achieved_at, results_id
	`, userID, activityKey)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// OverwriteScopes replaces the scope labels of all given events in one
// transaction - the full per-activity scope overwrite.
func (r *Repo) OverwriteScopes(ctx context.Context, events []Event) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.records.overwriteScopes")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("events.count", len(events)))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
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

	for _, event := range events {
		if _, err = tx.Exec(ctx, `
			UPDATE pr_event
			SET pr_scope = $1, updated_at = now()
			WHERE user_id = $2 AND results_id = $3 AND activity_key = $4
		`,
			event.Scopes, event.UserID, event.ResultsID, event.ActivityKey,
		); err != nil {
			return fmt.Errorf("update scopes of event %s: %w", event.ID(), err)
		}
	}

	return nil
}

// ListCurrentRecords returns the events currently holding at least one
// scope label, i.e. the user's record board.
func (r *Repo) ListCurrentRecords(ctx context.Context, userID string) (_ []Event, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.records.listCurrentRecords")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT user_id, results_id, activity_key, metric_type, metric_value, achieved_at, season_identifier, pr_scope, created_at, updated_at
		FROM pr_event
		WHERE user_id = $1 AND cardinality(pr_scope) > 0
		ORDER BY activity_key, achieved_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query current records: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanEvents(rows pgxRows) ([]Event, error) {
	events := make([]Event, 0)
	for rows.Next() {
		var e Event
		if err := rows.Scan(
			&e.UserID, &e.ResultsID, &e.ActivityKey, &e.MetricType, &e.MetricValue,
			&e.AchievedAt, &e.SeasonIdentifier, &e.Scopes, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
