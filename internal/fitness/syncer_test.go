package fitness

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/2beens/ergolog/internal/records"
	"github.com/2beens/ergolog/internal/telemetry/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fetcherMock struct {
	results      []records.Result
	err          error
	updatedAfter time.Time
}

func (f *fetcherMock) FetchResults(_ context.Context, updatedAfter time.Time) ([]records.Result, error) {
	f.updatedAfter = updatedAfter
	return f.results, f.err
}

type syncerRepoMock struct {
	stored         []records.Result
	lastResultDate time.Time
	addedResults   []records.Result
	addResultsErr  error
}

func (r *syncerRepoMock) AddResults(_ context.Context, userID string, results []records.Result) (int, error) {
	if r.addResultsErr != nil {
		return 0, r.addResultsErr
	}
	added := 0
	for _, result := range results {
		alreadyStored := false
		for _, stored := range r.stored {
			if stored.ID == result.ID {
				alreadyStored = true
				break
			}
		}
		if alreadyStored {
			continue
		}
		result.UserID = userID
		r.stored = append(r.stored, result)
		r.addedResults = append(r.addedResults, result)
		added++
	}
	return added, nil
}

func (r *syncerRepoMock) LastResultDate(_ context.Context, _ string) (time.Time, error) {
	return r.lastResultDate, nil
}

func (r *syncerRepoMock) ListResults(_ context.Context, _ string) ([]records.Result, error) {
	return r.stored, nil
}

type processorMock struct {
	stats     records.ProcessStats
	err       error
	processed []records.Result
}

func (p *processorMock) Process(_ context.Context, _ string, results []records.Result) (records.ProcessStats, error) {
	p.processed = results
	return p.stats, p.err
}

func TestSyncer_Sync(t *testing.T) {
	lastDate := time.Date(2024, 1, 10, 7, 0, 0, 0, time.UTC)
	fetcher := &fetcherMock{
		results: []records.Result{
			{ID: 1, Sport: records.SportRower, Distance: 2000, Time: 450, Date: lastDate},
			{ID: 2, Sport: records.SportRower, Distance: 2000, Time: 430, Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
	repo := &syncerRepoMock{
		// result 1 is already stored, the fetch overlaps on purpose
		stored:         []records.Result{{ID: 1, Sport: records.SportRower, Distance: 2000, Time: 450, Date: lastDate}},
		lastResultDate: lastDate,
	}
	processor := &processorMock{
		stats: records.ProcessStats{EventsCreated: 1, ActivitiesRecomputed: 1},
	}
	metricsManager := metrics.NewTestManager()

	syncer := NewSyncer(fetcher, repo, processor, metricsManager)
	stats, err := syncer.Sync(context.Background(), "user1")
	require.NoError(t, err)

	assert.Equal(t, lastDate, fetcher.updatedAfter)
	assert.Equal(t, 2, stats.ResultsFetched)
	assert.Equal(t, 1, stats.ResultsAdded)
	assert.Equal(t, 1, stats.EventsCreated)
	assert.Equal(t, 1, stats.ActivitiesRecomputed)

	// the processor gets the full stored history, not just the new batch
	assert.Len(t, processor.processed, 2)

	assert.InDelta(t, 1, testutil.ToFloat64(metricsManager.CounterResultsSynced), 0.01)
}

func TestSyncer_Sync_emptyHistory(t *testing.T) {
	fetcher := &fetcherMock{}
	repo := &syncerRepoMock{}
	processor := &processorMock{}

	syncer := NewSyncer(fetcher, repo, processor, metrics.NewTestManager())
	stats, err := syncer.Sync(context.Background(), "user1")
	require.NoError(t, err)

	// zero last result date means a full history fetch
	assert.True(t, fetcher.updatedAfter.IsZero())
	assert.Equal(t, SyncStats{}, stats)
}

func TestSyncer_Sync_fetchError(t *testing.T) {
	fetcher := &fetcherMock{err: errors.New("logbook down")}
	repo := &syncerRepoMock{}
	processor := &processorMock{}

	syncer := NewSyncer(fetcher, repo, processor, metrics.NewTestManager())
	_, err := syncer.Sync(context.Background(), "user1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logbook down")
	assert.Empty(t, processor.processed)
}

func TestSyncer_Sync_processError(t *testing.T) {
	fetcher := &fetcherMock{
		results: []records.Result{
			{ID: 1, Sport: records.SportRower, Distance: 2000, Time: 450, Date: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		},
	}
	repo := &syncerRepoMock{}
	processor := &processorMock{err: errors.New("db unreachable")}
	metricsManager := metrics.NewTestManager()

	syncer := NewSyncer(fetcher, repo, processor, metricsManager)
	_, err := syncer.Sync(context.Background(), "user1")
	require.Error(t, err)

	// the results got stored before the processing failed; the next
	// sync run will process them
	assert.Len(t, repo.stored, 1)
	assert.InDelta(t, 1, testutil.ToFloat64(metricsManager.CounterResultsSynced), 0.01)
}
