package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fleettwin/internal/aggregator"
	"fleettwin/internal/poller"
	"fleettwin/internal/samsara"
	"fleettwin/internal/twin"
)

type stubFetcher struct {
	roster    []samsara.Vehicle
	rosterErr error
	stats     map[string]map[string]float64
}

func (f *stubFetcher) FetchRoster(context.Context) ([]samsara.Vehicle, error) {
	return f.roster, f.rosterErr
}
func (f *stubFetcher) FetchLocations(context.Context, []string) (map[string]samsara.Location, error) {
	return nil, nil
}
func (f *stubFetcher) FetchStats(context.Context, []string, []string) (map[string]map[string]float64, error) {
	return f.stats, nil
}
func (f *stubFetcher) FetchMaintenance(context.Context, []string) (map[string]samsara.VehicleMaintenance, error) {
	return nil, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerWith(t, &stubFetcher{
		roster: []samsara.Vehicle{{ID: "v1", Name: "Truck 1"}, {ID: "v2", Name: "Truck 2"}},
		stats:  map[string]map[string]float64{"v1": {samsara.StatCoolantTempMilliC: 85000}},
	})
}

func newTestServerWith(t *testing.T, f *stubFetcher) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	agg := aggregator.New(f, &twin.Builder{}, time.Hour, time.Minute, log)
	s := &Server{Agg: agg, Broker: NewBroker(), Log: log}
	s.Poller = poller.New(agg, time.Minute, log, s.onSnapshot)
	return s
}

func completeCycle(t *testing.T, s *Server) {
	t.Helper()
	snap, err := s.Agg.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	s.onSnapshot(snap)
}

func TestTwinsHandlerBeforeFirstCycle(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.TwinsHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/twins", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("got %d before first cycle", rr.Code)
	}
}

func TestTwinsHandler(t *testing.T) {
	s := newTestServer(t)
	completeCycle(t, s)

	rr := httptest.NewRecorder()
	s.TwinsHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/twins", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d", rr.Code)
	}
	var snap aggregator.Snapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if len(snap.Twins) != 2 {
		t.Fatalf("expected 2 twins, got %d", len(snap.Twins))
	}
	if !snap.InitialLoad {
		t.Fatal("first served snapshot should flag initial load")
	}
	if got := snap.Twins["v1"].CoolantTempC; !got.Valid || got.Value != 85.0 {
		t.Fatalf("coolant = %+v", got)
	}
}

func TestTwinByIDHandler(t *testing.T) {
	s := newTestServer(t)
	completeCycle(t, s)

	rr := httptest.NewRecorder()
	s.TwinByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/twins/v1", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d", rr.Code)
	}
	var tw twin.DigitalTwin
	if err := json.Unmarshal(rr.Body.Bytes(), &tw); err != nil {
		t.Fatal(err)
	}
	if tw.VehicleID != "v1" || tw.Name != "Truck 1" {
		t.Fatalf("unexpected twin: %+v", tw)
	}

	rr = httptest.NewRecorder()
	s.TwinByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/twins/ghost", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown id: got %d", rr.Code)
	}
}

func TestTwinByIDHandlerFresh(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.TwinByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/twins/v1?fresh=1", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("fresh fetch: got %d body %s", rr.Code, rr.Body.String())
	}
	var tw twin.DigitalTwin
	if err := json.Unmarshal(rr.Body.Bytes(), &tw); err != nil {
		t.Fatal(err)
	}
	if tw.VehicleID != "v1" {
		t.Fatalf("unexpected twin: %+v", tw)
	}
}

func TestTwinByIDHandlerFreshUnknownVehicle(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.TwinByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/twins/ghost?fresh=1", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown id fresh fetch: got %d", rr.Code)
	}
}

func TestTwinByIDHandlerFreshUpstreamFailureIsNot404(t *testing.T) {
	s := newTestServerWith(t, &stubFetcher{rosterErr: errors.New("upstream down")})
	rr := httptest.NewRecorder()
	s.TwinByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/twins/v1?fresh=1", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("upstream failure must read as 503, got %d body %s", rr.Code, rr.Body.String())
	}
}

func TestRefreshHandler(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.RefreshHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/refresh", nil))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	s.RefreshHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/refresh", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET refresh: got %d", rr.Code)
	}
}

func TestHealthReady(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("health: got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	s.ReadyHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready before cycle: got %d", rr.Code)
	}

	completeCycle(t, s)
	rr = httptest.NewRecorder()
	s.ReadyHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("ready after cycle: got %d", rr.Code)
	}
}

func TestStreamDeliversRefreshEvents(t *testing.T) {
	s := newTestServer(t)
	ch := s.Broker.Subscribe(TopicFleet)
	defer s.Broker.Unsubscribe(TopicFleet, ch)

	completeCycle(t, s)

	select {
	case evt := <-ch:
		if evt.Type != "twin.refreshed" {
			t.Fatalf("event type = %q", evt.Type)
		}
		if evt.Data["vehicles"].(int) != 2 {
			t.Fatalf("bad event data: %+v", evt.Data)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("no refresh event published")
	}
}
