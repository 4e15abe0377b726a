package devtools

import (
	"net/http"

	"github.com/vango-dev/statekit/internal/errors"
	"github.com/vango-dev/statekit/pkg/inject"
	"github.com/vango-dev/statekit/pkg/reactive"
)

// RegistryResponse is the body of GET /api/registry.
type RegistryResponse struct {
	Keys []string `json:"keys"`
	inject.Snapshot
}

// TrackerResponse is the body of GET /api/tracker.
type TrackerResponse struct {
	Available bool `json:"available"`
	reactive.Stats
}

// EventsResponse is the body of GET /api/events.
type EventsResponse struct {
	Events  []EventMessage `json:"events"`
	Clients int            `json:"clients"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegistry(w http.ResponseWriter, r *http.Request) {
	if s.opts.Registry == nil {
		writeError(w, http.StatusServiceUnavailable,
			errors.Newf(errors.CategoryDevtools, "no registry attached"))
		return
	}

	keys := s.opts.Registry.Keys()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	writeJSON(w, http.StatusOK, RegistryResponse{
		Keys:     names,
		Snapshot: s.opts.Registry.Snapshot(),
	})
}

func (s *Server) handleTracker(w http.ResponseWriter, r *http.Request) {
	if s.opts.Tracker == nil {
		writeJSON(w, http.StatusOK, TrackerResponse{})
		return
	}
	writeJSON(w, http.StatusOK, TrackerResponse{
		Available: true,
		Stats:     s.opts.Tracker.Stats(),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, EventsResponse{
		Events:  s.opts.Hub.Recent(),
		Clients: s.opts.Hub.ClientCount(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err *errors.StatekitError) {
	writeJSON(w, status, map[string]any{"error": err})
}
