package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/kh40/Vintage-Gear-Finder/config"
	"github.com/kh40/Vintage-Gear-Finder/models"
	"github.com/kh40/Vintage-Gear-Finder/storage"
	"github.com/kh40/Vintage-Gear-Finder/utils"
)

// Runner is the aggregation entry point the control surface triggers.
type Runner interface {
	Run(ctx context.Context, criteria models.SearchCriteria) ([]models.Listing, error)
}

// RecentFetcher supplies previously stored listings. It backs /api/results
// before the first run of the current process.
type RecentFetcher interface {
	FetchRecent(limit int) ([]models.Listing, error)
}

// recentLimit caps how many stored listings /api/results serves.
const recentLimit = 100

// runState tracks the single in-flight run. Only one run may be active at a
// time; POST /scrape while running answers 409.
type runState struct {
	mu      sync.Mutex
	running bool
	runID   string
	lastRun time.Time
	message string
	results []models.Listing
}

// Server exposes the HTTP dashboard: trigger runs, inspect status and
// results, and edit the runtime settings.
type Server struct {
	cfg       *config.Config
	runner    Runner
	sinks     []storage.ListingWriter
	recent    RecentFetcher
	logger    *utils.Logger
	lifecycle context.Context

	state runState
}

// New creates a Server. Sinks receive every filtered batch; a nil or empty
// slice means results are only kept in memory. ctx bounds every run the
// server starts, including HTTP-triggered ones: cancelling it stops in-flight
// runs at shutdown.
func New(ctx context.Context, cfg *config.Config, runner Runner, sinks []storage.ListingWriter, logger *utils.Logger) *Server {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Server{
		cfg:       cfg,
		runner:    runner,
		sinks:     sinks,
		logger:    logger.WithComponent("server"),
		lifecycle: ctx,
	}
}

// SetRecentFetcher wires a stored-results source used by /api/results when
// this process has not completed a run yet.
func (s *Server) SetRecentFetcher(f RecentFetcher) {
	s.recent = f
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/scrape", s.handleScrape).Methods(http.MethodPost)
	r.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/results", s.handleResults).Methods(http.MethodGet)
	r.HandleFunc("/api/config", s.handleGetConfig).Methods(http.MethodGet)
	r.HandleFunc("/api/config", s.handleUpdateConfig).Methods(http.MethodPost)
	return r
}

// ListenAndServe blocks serving the dashboard until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.HTTPPort),
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("Dashboard listening on :%d", s.cfg.HTTPPort)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// TriggerRun starts an aggregation run if none is active. It returns the run
// ID, or false when a run is already in flight. The run itself executes in a
// background goroutine; the scheduler and POST /scrape both come through here.
func (s *Server) TriggerRun(ctx context.Context) (string, bool) {
	s.state.mu.Lock()
	if s.state.running {
		s.state.mu.Unlock()
		return "", false
	}
	runID := uuid.NewString()
	s.state.running = true
	s.state.runID = runID
	s.state.message = "run in progress"
	s.state.mu.Unlock()

	go s.execute(ctx, runID)
	return runID, true
}

func (s *Server) execute(ctx context.Context, runID string) {
	s.logger.Info("Run %s started", runID)
	listings, err := s.runner.Run(ctx, s.cfg.Criteria())

	message := fmt.Sprintf("found %d listings", len(listings))
	if err != nil {
		message = fmt.Sprintf("run failed: %v", err)
		s.logger.Error("Run %s failed: %v", runID, err)
	} else {
		for _, sink := range s.sinks {
			if werr := sink.Write(listings); werr != nil {
				s.logger.Error("Run %s: sink write failed: %v", runID, werr)
			}
		}
		s.logger.Info("Run %s finished with %d listings", runID, len(listings))
	}

	s.state.mu.Lock()
	s.state.running = false
	s.state.lastRun = time.Now()
	s.state.message = message
	if err == nil {
		s.state.results = listings
	}
	s.state.mu.Unlock()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	if _, errs := s.cfg.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": errs})
		return
	}

	runID, ok := s.TriggerRun(s.lifecycle)
	if !ok {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a run is already in progress"})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.state.mu.Lock()
	resp := map[string]interface{}{
		"running": s.state.running,
		"run_id":  s.state.runID,
		"message": s.state.message,
	}
	if !s.state.lastRun.IsZero() {
		resp["last_run"] = s.state.lastRun.Format(time.RFC3339)
	}
	s.state.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	s.state.mu.Lock()
	results := s.state.results
	s.state.mu.Unlock()

	// Before the first completed run, fall back to listings stored by
	// earlier processes.
	if results == nil && s.recent != nil {
		stored, err := s.recent.FetchRecent(recentLimit)
		if err != nil {
			s.logger.Error("Stored results fetch failed: %v", err)
		} else {
			results = stored
		}
	}

	if results == nil {
		results = []models.Listing{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(results),
		"listings": results,
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	settings := s.cfg.Settings()
	settings.EbayAPIKey = redact(settings.EbayAPIKey)
	settings.ReverbAPIKey = redact(settings.ReverbAPIKey)

	warnings, errs := s.cfg.Validate()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"settings": settings,
		"warnings": warnings,
		"errors":   errs,
	})
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var settings config.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed settings payload"})
		return
	}

	if err := s.cfg.Update(settings); err != nil {
		s.logger.Error("Config update failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not persist settings"})
		return
	}

	warnings, errs := s.cfg.Validate()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"saved":    true,
		"warnings": warnings,
		"errors":   errs,
	})
}

func redact(key string) string {
	if key == "" {
		return ""
	}
	return "***"
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
