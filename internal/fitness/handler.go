package fitness

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/2beens/ergolog/internal/records"
	"github.com/2beens/ergolog/internal/telemetry/tracing"
	"github.com/2beens/ergolog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type authClient interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) error
	IsAuthenticated() bool
}

type resultsSyncer interface {
	Sync(ctx context.Context, userID string) (SyncStats, error)
}

type resultsLister interface {
	ListResults(ctx context.Context, userID string) ([]records.Result, error)
}

type Handler struct {
	client             authClient
	syncer             resultsSyncer
	repo               resultsLister
	randStateGenerator func() string
	state              string
}

func NewHandler(
	client authClient,
	syncer resultsSyncer,
	repo resultsLister,
	randStateGenerator func() string,
) *Handler {
	return &Handler{
		client:             client,
		syncer:             syncer,
		repo:               repo,
		randStateGenerator: randStateGenerator,
	}
}

func GenerateStateString() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/fitness/auth", handler.Authenticate).Methods("GET").Name("fitness-auth")
	router.HandleFunc("/fitness/auth/redirect", handler.AuthRedirect).Methods("GET").Name("fitness-auth-redirect")
	router.HandleFunc("/fitness/{userId}/sync", handler.HandleSync).Methods("POST", "OPTIONS").Name("fitness-sync")
	router.HandleFunc("/fitness/{userId}/results", handler.HandleListResults).Methods("GET", "OPTIONS").Name("fitness-list-results")
}

// Authenticate kicks off the OAuth2 dance with the logbook.
func (handler *Handler) Authenticate(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.fitness.authenticate")
	defer span.End()

	handler.state = handler.randStateGenerator()
	http.Redirect(w, r, handler.client.AuthURL(handler.state), http.StatusFound)
}

func (handler *Handler) AuthRedirect(w http.ResponseWriter, r *http.Request) {
	var err error
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.fitness.authRedirect")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if st := r.FormValue("state"); st != handler.state {
		http.Error(w, "state mismatch", http.StatusForbidden)
		log.Errorf("logbook auth redirect: state mismatch: %s != %s", st, handler.state)
		return
	}

	code := r.FormValue("code")
	if code == "" {
		http.Error(w, "authorization code missing", http.StatusForbidden)
		return
	}

	if err = handler.client.Exchange(ctx, code); err != nil {
		log.Errorf("logbook auth redirect, exchange code: %s", err)
		http.Error(w, "failed to get token", http.StatusForbidden)
		return
	}

	log.Debugln("logbook auth redirect: client authenticated")

	// back to the main page
	http.Redirect(w, r, "/", http.StatusFound)
}

// HandleSync pulls new results from the logbook and runs the PR
// pipeline over them.
func (handler *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	var err error
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.fitness.sync")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	userID := mux.Vars(r)["userId"]
	if userID == "" {
		http.Error(w, "error, user id empty", http.StatusBadRequest)
		return
	}

	if !handler.client.IsAuthenticated() {
		http.Error(w, "logbook client not authenticated", http.StatusForbidden)
		return
	}

	stats, err := handler.syncer.Sync(ctx, userID)
	if err != nil {
		log.Errorf("sync results for %s: %s", userID, err)
		http.Error(w, "sync failed", http.StatusInternalServerError)
		return
	}

	statsJson, err := json.Marshal(stats)
	if err != nil {
		log.Errorf("sync results, marshal stats: %s", err)
		http.Error(w, "sync failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, statsJson)
}

func (handler *Handler) HandleListResults(w http.ResponseWriter, r *http.Request) {
	var err error
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.fitness.listResults")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	userID := mux.Vars(r)["userId"]
	results, err := handler.repo.ListResults(ctx, userID)
	if err != nil {
		log.Errorf("list results for %s: %s", userID, err)
		http.Error(w, "list results failed", http.StatusInternalServerError)
		return
	}

	resultsJson, err := json.Marshal(results)
	if err != nil {
		log.Errorf("list results, marshal: %s", err)
		http.Error(w, "list results failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resultsJson)
}
