package records

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/2beens/ergolog/internal/telemetry/metrics"
	"github.com/2beens/ergolog/internal/telemetry/tracing"
	"github.com/2beens/ergolog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=records_test

type recordsProcessor interface {
	Process(ctx context.Context, userID string, results []Result) (ProcessStats, error)
}

// resultsSource provides the stored workout results of a user; the
// fitness package implements it on top of the synced logbook data.
type resultsSource interface {
	ListResults(ctx context.Context, userID string) ([]Result, error)
}

type recordsRepo interface {
	GetActiveDefinitions(ctx context.Context, userID string) ([]Definition, error)
	ListEventsByActivity(ctx context.Context, userID, activityKey string) ([]Event, error)
	ListCurrentRecords(ctx context.Context, userID string) ([]Event, error)
}

type Handler struct {
	processor recordsProcessor
	results   resultsSource
	repo      recordsRepo
	metrics   *metrics.Manager
}

func NewHandler(
	processor recordsProcessor,
	results resultsSource,
	repo recordsRepo,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		processor: processor,
		results:   results,
		repo:      repo,
		metrics:   metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/records/{userId}/process", handler.HandleProcess).Methods("POST", "OPTIONS").Name("process-records")
	router.HandleFunc("/records/{userId}/definitions", handler.HandleDefinitions).Methods("GET", "OPTIONS").Name("list-definitions")
	router.HandleFunc("/records/{userId}/activity/{activityKey}", handler.HandleActivityEvents).Methods("GET", "OPTIONS").Name("list-activity-events")
	router.HandleFunc("/records/{userId}/current", handler.HandleCurrentRecords).Methods("GET", "OPTIONS").Name("list-current-records")
}

// HandleProcess runs the PR pipeline over all stored results of a user.
// Safe to call repeatedly - already processed results are skipped.
func (handler *Handler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	var err error
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.records.process")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	userID := mux.Vars(r)["userId"]
	if userID == "" {
		http.Error(w, "error, user id empty", http.StatusBadRequest)
		return
	}

	results, err := handler.results.ListResults(ctx, userID)
	if err != nil {
		log.Errorf("process records, list results for %s: %s", userID, err)
		http.Error(w, "process records failed", http.StatusInternalServerError)
		return
	}

	stats, err := handler.processor.Process(ctx, userID, results)
	if err != nil {
		log.Errorf("process records for %s: %s", userID, err)
		http.Error(w, "process records failed", http.StatusInternalServerError)
		return
	}

	if handler.metrics != nil {
		handler.metrics.CounterPREventsCreated.Add(float64(stats.EventsCreated))
		handler.metrics.CounterScopesRecomputed.Add(float64(stats.ActivitiesRecomputed))
	}

	statsJson, err := json.Marshal(stats)
	if err != nil {
		log.Errorf("process records, marshal stats: %s", err)
		http.Error(w, "process records failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, statsJson)
}

func (handler *Handler) HandleDefinitions(w http.ResponseWriter, r *http.Request) {
	var err error
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.records.definitions")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	userID := mux.Vars(r)["userId"]
	definitions, err := handler.repo.GetActiveDefinitions(ctx, userID)
	if err != nil {
		log.Errorf("list definitions for %s: %s", userID, err)
		http.Error(w, "list definitions failed", http.StatusInternalServerError)
		return
	}

	definitionsJson, err := json.Marshal(definitions)
	if err != nil {
		log.Errorf("list definitions, marshal: %s", err)
		http.Error(w, "list definitions failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, definitionsJson)
}

func (handler *Handler) HandleActivityEvents(w http.ResponseWriter, r *http.Request) {
	var err error
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.records.activityEvents")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	vars := mux.Vars(r)
	userID := vars["userId"]
	activityKey := vars["activityKey"]
	if activityKey == "" {
		http.Error(w, "error, activity key empty", http.StatusBadRequest)
		return
	}

	events, err := handler.repo.ListEventsByActivity(ctx, userID, activityKey)
	if err != nil {
		log.Errorf("list events for %s, activity %s: %s", userID, activityKey, err)
		http.Error(w, "list activity events failed", http.StatusInternalServerError)
		return
	}

	eventsJson, err := json.Marshal(events)
	if err != nil {
		log.Errorf("list activity events, marshal: %s", err)
		http.Error(w, "list activity events failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, eventsJson)
}

func (handler *Handler) HandleCurrentRecords(w http.ResponseWriter, r *http.Request) {
	var err error
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.records.currentRecords")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	userID := mux.Vars(r)["userId"]
	events, err := handler.repo.ListCurrentRecords(ctx, userID)
	if err != nil {
		log.Errorf("list current records for %s: %s", userID, err)
		http.Error(w, "list current records failed", http.StatusInternalServerError)
		return
	}

	eventsJson, err := json.Marshal(events)
	if err != nil {
		log.Errorf("list current records, marshal: %s", err)
		http.Error(w, "list current records failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, eventsJson)
}
