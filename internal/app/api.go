package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/voxteller/voxteller/internal/conversation"
	"github.com/voxteller/voxteller/internal/observe"
	"github.com/voxteller/voxteller/internal/session"
)

// API serves the conversation inspection and operations endpoints used by
// the demo dashboard: active and completed transcripts, per-call lookup,
// aggregate stats, and a manual stale-call sweep.
type API struct {
	tracker  *conversation.Tracker
	sessions *session.Store
}

// statsResponse extends the tracker stats with the session store size.
type statsResponse struct {
	conversation.Stats
	Sessions int `json:"sessions"`
}

// sweepResponse lists the call IDs reclaimed by a manual sweep.
type sweepResponse struct {
	Reclaimed []string `json:"reclaimed"`
}

// ServeActive handles GET /conversations/active.
func (api *API) ServeActive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.tracker.Active())
}

// ServeCompleted handles GET /conversations/completed. The optional limit
// query parameter caps the result; completed conversations come back most
// recent first.
func (api *API) ServeCompleted(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := parsePositiveInt(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, api.tracker.Completed(limit))
}

// ServeConversation handles GET /conversations/{id}, searching active and
// completed conversations.
func (api *API) ServeConversation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, ok := api.tracker.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ServeStats handles GET /stats.
func (api *API) ServeStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statsResponse{
		Stats:    api.tracker.Stats(),
		Sessions: api.sessions.Len(),
	})
}

// ServeSweep handles POST /sweep. The max_age query parameter (a Go
// duration) overrides the configured threshold for this one sweep.
func (api *API) ServeSweep(w http.ResponseWriter, r *http.Request) {
	maxAge := time.Duration(0)
	if raw := r.URL.Query().Get("max_age"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, "max_age must be a positive duration")
			return
		}
		maxAge = d
	}
	if maxAge == 0 {
		writeError(w, http.StatusBadRequest, "max_age is required")
		return
	}

	reclaimed := api.tracker.SweepStale(maxAge)
	if reclaimed == nil {
		reclaimed = []string{}
	}
	observe.Logger(r.Context()).Info("manual sweep", "max_age", maxAge, "reclaimed", len(reclaimed))
	writeJSON(w, http.StatusOK, sweepResponse{Reclaimed: reclaimed})
}

// Register adds the inspection and operations routes to mux.
func (api *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /conversations/active", api.ServeActive)
	mux.HandleFunc("GET /conversations/completed", api.ServeCompleted)
	mux.HandleFunc("GET /conversations/{id}", api.ServeConversation)
	mux.HandleFunc("GET /stats", api.ServeStats)
	mux.HandleFunc("POST /sweep", api.ServeSweep)
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("not positive")
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding failed"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
