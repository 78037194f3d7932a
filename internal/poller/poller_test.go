package poller

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"fleettwin/internal/aggregator"
	"fleettwin/internal/samsara"
	"fleettwin/internal/twin"
)

type oneVehicleFetcher struct{}

func (oneVehicleFetcher) FetchRoster(context.Context) ([]samsara.Vehicle, error) {
	return []samsara.Vehicle{{ID: "v1"}}, nil
}
func (oneVehicleFetcher) FetchLocations(context.Context, []string) (map[string]samsara.Location, error) {
	return nil, nil
}
func (oneVehicleFetcher) FetchStats(context.Context, []string, []string) (map[string]map[string]float64, error) {
	return nil, nil
}
func (oneVehicleFetcher) FetchMaintenance(context.Context, []string) (map[string]samsara.VehicleMaintenance, error) {
	return nil, nil
}

func TestPollerRunsImmediatelyAndOnKick(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	agg := aggregator.New(oneVehicleFetcher{}, &twin.Builder{}, time.Hour, time.Hour, log)

	snaps := make(chan *aggregator.Snapshot, 4)
	p := New(agg, time.Hour, log, func(s *aggregator.Snapshot) { snaps <- s })
	p.Start()
	defer p.Stop()

	select {
	case s := <-snaps:
		if !s.InitialLoad {
			t.Fatal("first snapshot should be the initial load")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no initial cycle")
	}

	p.Refresh()
	select {
	case s := <-snaps:
		if s.InitialLoad {
			t.Fatal("manual refresh is a silent refresh")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("manual refresh did not trigger a cycle")
	}
}
