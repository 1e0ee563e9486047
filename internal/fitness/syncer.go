package fitness

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/ergolog/internal/records"
	"github.com/2beens/ergolog/internal/telemetry/metrics"
	"github.com/2beens/ergolog/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type resultsFetcher interface {
	FetchResults(ctx context.Context, updatedAfter time.Time) ([]records.Result, error)
}

type syncerRepo interface {
	AddResults(ctx context.Context, userID string, results []records.Result) (added int, err error)
	LastResultDate(ctx context.Context, userID string) (time.Time, error)
	ListResults(ctx context.Context, userID string) ([]records.Result, error)
}

type prProcessor interface {
	Process(ctx context.Context, userID string, results []records.Result) (records.ProcessStats, error)
}

type SyncStats struct {
	ResultsFetched       int `json:"resultsFetched"`
	ResultsAdded         int `json:"resultsAdded"`
	EventsCreated        int `json:"eventsCreated"`
	ActivitiesRecomputed int `json:"activitiesRecomputed"`
}

// Syncer is the incremental ingestion pipeline: pull the results that
// landed in the logbook since the last stored one, persist them, then
// run the PR processor over the user's full result history. Every step
// is idempotent, so a failed sync is simply retried in full.
type Syncer struct {
	client    resultsFetcher
	repo      syncerRepo
	processor prProcessor
	metrics   *metrics.Manager
}

func NewSyncer(
	client resultsFetcher,
	repo syncerRepo,
	processor prProcessor,
	metricsManager *metrics.Manager,
) *Syncer {
	return &Syncer{
		client:    client,
		repo:      repo,
		processor: processor,
		metrics:   metricsManager,
	}
}

func (s *Syncer) Sync(ctx context.Context, userID string) (_ SyncStats, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "fitness.syncer.sync")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))

	syncStart := time.Now()
	defer func() {
		s.metrics.HistSyncDuration.Observe(time.Since(syncStart).Seconds())
	}()

	lastResultDate, err := s.repo.LastResultDate(ctx, userID)
	if err != nil {
		return SyncStats{}, fmt.Errorf("get last result date: %w", err)
	}

	fetched, err := s.client.FetchResults(ctx, lastResultDate)
	if err != nil {
		return SyncStats{}, fmt.Errorf("fetch results: %w", err)
	}

	added, err := s.repo.AddResults(ctx, userID, fetched)
	if err != nil {
		return SyncStats{}, fmt.Errorf("store results: %w", err)
	}
	s.metrics.CounterResultsSynced.Add(float64(added))

	// the processor skips already processed results, so handing it the
	// full history keeps the sync cheap and self-repairing at once
	storedResults, err := s.repo.ListResults(ctx, userID)
	if err != nil {
		return SyncStats{}, fmt.Errorf("list stored results: %w", err)
	}

	processStats, err := s.processor.Process(ctx, userID, storedResults)
	if err != nil {
		return SyncStats{}, fmt.Errorf("process results: %w", err)
	}

	stats := SyncStats{
		ResultsFetched:       len(fetched),
		ResultsAdded:         added,
		EventsCreated:        processStats.EventsCreated,
		ActivitiesRecomputed: processStats.ActivitiesRecomputed,
	}

	log.Debugf(
		"fitness syncer: user %s, %d results fetched, %d added, %d events created",
		userID, stats.ResultsFetched, stats.ResultsAdded, stats.EventsCreated,
	)

	return stats, nil
}
