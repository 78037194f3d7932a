package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"fleettwin/internal/aggregator"
	"fleettwin/internal/buildinfo"
)

// TwinsHandler handles GET /v1/twins: the full twin mapping plus cycle
// metadata from the latest snapshot.
func (s *Server) TwinsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	snap := s.Snapshot()
	if snap == nil {
		writeProblem(w, http.StatusServiceUnavailable, "No data yet", "first refresh cycle has not completed", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// TwinByIDHandler handles GET /v1/twins/{id}. With ?fresh=1 the twin is
// rebuilt through the single-vehicle fetch path (still subject to its own
// short cache) instead of being read from the latest snapshot.
func (s *Server) TwinByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/twins/")
	if id == "" || strings.Contains(id, "/") {
		writeProblem(w, http.StatusBadRequest, "Invalid vehicle id", "", r.URL.Path)
		return
	}

	if r.URL.Query().Get("fresh") == "1" {
		t, err := s.Agg.RefreshOne(r.Context(), id)
		if err != nil {
			// Only an id absent from the roster is a 404; roster fetch
			// failures are upstream trouble, not a missing vehicle.
			if errors.Is(err, aggregator.ErrUnknownVehicle) {
				writeProblem(w, http.StatusNotFound, "Vehicle not found", err.Error(), r.URL.Path)
				return
			}
			writeProblem(w, http.StatusServiceUnavailable, "Upstream unavailable", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, t)
		return
	}

	snap := s.Snapshot()
	if snap == nil {
		writeProblem(w, http.StatusServiceUnavailable, "No data yet", "first refresh cycle has not completed", r.URL.Path)
		return
	}
	t, ok := snap.Twins[id]
	if !ok {
		writeProblem(w, http.StatusNotFound, "Vehicle not found", "id not present in roster snapshot", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// RefreshHandler handles POST /v1/refresh: clears the fetch caches and
// queues an immediate cycle. Never cancels a cycle already in flight.
func (s *Server) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.Poller.Refresh()
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "refresh queued"})
}

// HealthHandler reports process liveness.
func (s *Server) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Info(),
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadyHandler reports readiness: true once the first cycle has produced a
// snapshot.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	if s.Snapshot() == nil {
		writeProblem(w, http.StatusServiceUnavailable, "Not ready", "no snapshot yet", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}
