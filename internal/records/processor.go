package records

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/2beens/ergolog/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// processorRepo is the storage surface the PR engine needs. The pgx
// implementation lives in Repo; tests use an in-memory mock.
type processorRepo interface {
	GetActiveDefinitions(ctx context.Context, userID string) ([]Definition, error)
	SeedDefaultDefinitions(ctx context.Context, userID string) error
	// ProcessedResultIDs returns the ids of results that already have
	// at least one PR event - the existence index that makes repeated
	// processing over a superset of results cheap.
	ProcessedResultIDs(ctx context.Context, userID string) (map[int64]bool, error)
	// UpsertEvent creates the event if absent, keyed by (results id,
	// activity key). An existing event is left untouched, its scopes
	// included. Reports whether a new event was created.
	UpsertEvent(ctx context.Context, event Event) (created bool, err error)
	ListEventsByActivity(ctx context.Context, userID, activityKey string) ([]Event, error)
	// OverwriteScopes persists the recomputed scopes of all given
	// events as one atomic batch.
	OverwriteScopes(ctx context.Context, events []Event) error
}

type ProcessStats struct {
	EventsCreated        int `json:"eventsCreated"`
	ActivitiesRecomputed int `json:"activitiesRecomputed"`
}

// Processor runs the PR pipeline for a batch of results: match results
// against the catalog, create missing PR events, recompute scope labels
// for every activity that got a new event.
type Processor struct {
	repo processorRepo

	// Serializes invocations per user within this process. Two
	// concurrent runs over overlapping results cannot create duplicate
	// events (the upsert key is deterministic), but their per-activity
	// scope recomputations would race and the last write would win.
	// Deployments with more than one service instance need an external
	// lock or lease to get the same guarantee across processes.
	userLocks sync.Map
}

func NewProcessor(repo processorRepo) *Processor {
	return &Processor{
		repo: repo,
	}
}

func (p *Processor) userLock(userID string) *sync.Mutex {
	lock, _ := p.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// Process is idempotent: re-running it over the same (or a superset of
// the same) result batch creates no new events and leaves all scope
// assignments unchanged. No retries happen here - the whole pipeline is
// safe for the caller to re-run in full.
func (p *Processor) Process(ctx context.Context, userID string, results []Result) (_ ProcessStats, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "records.processor.process")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))
	span.SetAttributes(attribute.Int("results.count", len(results)))

	lock := p.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	definitions, err := p.repo.GetActiveDefinitions(ctx, userID)
	if err != nil {
		return ProcessStats{}, fmt.Errorf("get active definitions: %w", err)
	}

	if len(definitions) == 0 {
		log.Debugf("records processor: no definitions for user %s, seeding defaults", userID)
		if err := p.repo.SeedDefaultDefinitions(ctx, userID); err != nil {
			return ProcessStats{}, fmt.Errorf("seed default definitions: %w", err)
		}
		definitions, err = p.repo.GetActiveDefinitions(ctx, userID)
		if err != nil {
			return ProcessStats{}, fmt.Errorf("reload definitions after seed: %w", err)
		}
		if len(definitions) == 0 {
			// catalog still empty - not an error, nothing to do
			return ProcessStats{}, nil
		}
	}

	processedResultIDs, err := p.repo.ProcessedResultIDs(ctx, userID)
	if err != nil {
		return ProcessStats{}, fmt.Errorf("get processed result ids: %w", err)
	}

	stats := ProcessStats{}
	touchedActivities := make(map[string]bool)
	for _, result := range results {
		if processedResultIDs[result.ID] {
			continue
		}
		if err := result.Validate(); err != nil {
			return ProcessStats{}, err
		}

		for _, definition := range definitions {
			if !Matches(result, definition) {
				continue
			}

			event, err := NewEvent(result, definition)
			if err != nil {
				return ProcessStats{}, err
			}
			event.UserID = userID

			created, err := p.repo.UpsertEvent(ctx, event)
			if err != nil {
				return ProcessStats{}, fmt.Errorf("upsert event %s: %w", event.ID(), err)
			}
			if created {
				stats.EventsCreated++
				touchedActivities[definition.ActivityKey] = true
			}
		}
	}

	// deterministic recompute order, makes logs and tests reproducible
	activityKeys := make([]string, 0, len(touchedActivities))
	for activityKey := range touchedActivities {
		activityKeys = append(activityKeys, activityKey)
	}
	sort.Strings(activityKeys)

	for _, activityKey := range activityKeys {
		// scope is a property of the activity's full history, so all
		// events are loaded, not just the new ones
		events, err := p.repo.ListEventsByActivity(ctx, userID, activityKey)
		if err != nil {
			return stats, fmt.Errorf("list events for activity %s: %w", activityKey, err)
		}

		recomputed := RecomputeScopes(events)
		if err := p.repo.OverwriteScopes(ctx, recomputed); err != nil {
			// scopes of this activity may be inconsistent now; a full
			// re-run of the pipeline repairs them
			return stats, fmt.Errorf("overwrite scopes for activity %s: %w", activityKey, err)
		}
		stats.ActivitiesRecomputed++
	}

	log.Tracef(
		"records processor: user %s, %d events created, %d activities recomputed",
		userID, stats.EventsCreated, stats.ActivitiesRecomputed,
	)

	return stats, nil
}
