// Package api exposes the regeneration trigger over HTTP so runs can be
// dispatched remotely.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/JeffersGlass/benchmarking/pkg/trigger"
)

// Handlers contains HTTP handlers for the regeneration API
type Handlers struct {
	trigger trigger.Trigger
	logger  *slog.Logger

	// The working copy is a single shared resource: runs are serialized.
	runMu sync.Mutex
	runs  sync.Map // run ID -> *trigger.RunRecord
}

// NewHandlers creates a new handlers instance
func NewHandlers(t trigger.Trigger, logger *slog.Logger) *Handlers {
	return &Handlers{
		trigger: t,
		logger:  logger,
	}
}

// HandleRuns handles /runs endpoints
func (h *Handlers) HandleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listRuns(w, r)
	case http.MethodPost:
		h.startRun(w, r)
	default:
		h.methodNotAllowed(w, r)
	}
}

// HandleRun handles /runs/{id} endpoints
func (h *Handlers) HandleRun(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/runs/")
	if id == "" || strings.Contains(id, "/") {
		h.notFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, r)
		return
	}

	value, ok := h.runs.Load(id)
	if !ok {
		h.errorWithCode(w, "run not found", "NOT_FOUND", http.StatusNotFound)
		return
	}
	h.json(w, RunResponse{Run: value})
}

// HandleHealth handles health check requests
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	})
}

// startRun dispatches one regeneration run and blocks until it finishes.
// Runs are serialized because they share one working copy.
func (h *Handlers) startRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.error(w, err, http.StatusBadRequest)
			return
		}
	}

	opts := &trigger.RunOptions{
		Force:  req.Force,
		DryRun: req.DryRun,
		Actor:  req.Actor,
	}

	h.runMu.Lock()
	rec, err := h.trigger.Run(r.Context(), opts)
	h.runMu.Unlock()

	if rec != nil {
		h.runs.Store(rec.ID, rec)
	}
	if err != nil {
		if rec != nil {
			// The run record carries the per-step failure detail
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(RunResponse{Run: rec})
			return
		}
		h.error(w, err, http.StatusInternalServerError)
		return
	}

	h.json(w, RunResponse{Run: rec})
}

// listRuns returns all recorded runs, newest first
func (h *Handlers) listRuns(w http.ResponseWriter, r *http.Request) {
	var records []*trigger.RunRecord
	h.runs.Range(func(key, value interface{}) bool {
		if rec, ok := value.(*trigger.RunRecord); ok {
			records = append(records, rec)
		}
		return true
	})
	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})

	items := make([]interface{}, len(records))
	for i, rec := range records {
		items[i] = rec
	}
	h.json(w, ListRunsResponse{Runs: items})
}

// Helper methods

func (h *Handlers) json(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) error(w http.ResponseWriter, err error, status int) {
	h.errorWithCode(w, err.Error(), "", status)
}

func (h *Handlers) errorWithCode(w http.ResponseWriter, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code})
}

func (h *Handlers) notFound(w http.ResponseWriter, r *http.Request) {
	h.errorWithCode(w, "not found", "NOT_FOUND", http.StatusNotFound)
}

func (h *Handlers) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.errorWithCode(w, "method not allowed", "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed)
}
