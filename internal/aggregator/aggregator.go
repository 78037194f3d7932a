// Package aggregator runs the per-cycle pipeline: roster fetch, parallel
// dynamic fetches, cross-source join, twin build, alert evaluation. Results
// are idempotent wholesale replacements, so a superseded cycle finishing late
// does no harm.
package aggregator

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"fleettwin/internal/cache"
	"fleettwin/internal/metrics"
	"fleettwin/internal/samsara"
	"fleettwin/internal/twin"
)

// ErrEmptyRoster is returned when the roster fetch yields zero vehicles.
// With no roster there are no twins to build, so the cycle halts; every other
// upstream failure degrades to missing data instead.
var ErrEmptyRoster = errors.New("roster fetch returned no vehicles")

// ErrUnknownVehicle is returned by RefreshOne for an id absent from the
// roster. Callers use it to tell "no such vehicle" apart from upstream
// failures.
var ErrUnknownVehicle = errors.New("vehicle not in roster")

// Fetcher is the upstream surface the aggregator consumes. *samsara.Client
// implements it; tests substitute fakes.
type Fetcher interface {
	FetchRoster(ctx context.Context) ([]samsara.Vehicle, error)
	FetchLocations(ctx context.Context, ids []string) (map[string]samsara.Location, error)
	FetchStats(ctx context.Context, ids, types []string) (map[string]map[string]float64, error)
	FetchMaintenance(ctx context.Context, ids []string) (map[string]samsara.VehicleMaintenance, error)
}

// Snapshot is one complete refresh result: every roster vehicle maps to
// exactly one twin.
type Snapshot struct {
	SyncID      string                      `json:"syncId"`
	SyncedAt    time.Time                   `json:"syncedAt"`
	InitialLoad bool                        `json:"initialLoad"`
	Twins       map[string]twin.DigitalTwin `json:"twins"`
}

// dynamicData bundles the three dynamic fetch results cached as one unit.
type dynamicData struct {
	locations   map[string]samsara.Location
	stats       map[string]map[string]float64
	maintenance map[string]samsara.VehicleMaintenance
}

// Aggregator owns twin construction. Presentation reads snapshots but never
// mutates them.
type Aggregator struct {
	fetcher   Fetcher
	roster    *cache.Cache
	dynamic   *cache.Cache
	builder   *twin.Builder
	statTypes []string
	log       *slog.Logger

	cycles atomic.Uint64
	now    func() time.Time
	newID  func() string
}

// New wires an Aggregator. rosterTTL and dynamicTTL bound the upstream
// request rate independently per endpoint group.
func New(f Fetcher, builder *twin.Builder, rosterTTL, dynamicTTL time.Duration, log *slog.Logger) *Aggregator {
	return &Aggregator{
		fetcher:   f,
		roster:    cache.New(rosterTTL),
		dynamic:   cache.New(dynamicTTL),
		builder:   builder,
		statTypes: samsara.DefaultStatTypes(),
		log:       log,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
}

// Invalidate drops every cached fetch result. The manual "refresh now" path
// calls this synchronously before triggering the next cycle; it never cancels
// an in-flight cycle.
func (a *Aggregator) Invalidate() {
	a.roster.Clear()
	a.dynamic.Clear()
}

// Refresh runs one full aggregation cycle and returns a fresh snapshot.
// Partial upstream failures degrade to unavailable fields; only an empty
// roster fails the cycle.
func (a *Aggregator) Refresh(ctx context.Context) (*Snapshot, error) {
	start := a.now()

	roster, err := a.fetchRoster(ctx)
	if err != nil {
		metrics.RefreshCycles.WithLabelValues("empty_roster").Inc()
		return nil, err
	}

	ids := make([]string, 0, len(roster))
	for _, v := range roster {
		ids = append(ids, v.ID.String())
	}

	dyn, softErr := a.fetchDynamic(ctx, ids)
	if softErr != nil {
		a.log.Warn("cycle completed with degraded sources", "err", softErr)
	}

	syncID := a.newID()
	syncedAt := a.now()
	bundles := twin.Join(roster, dyn.locations, dyn.stats, dyn.maintenance)
	twins := make(map[string]twin.DigitalTwin, len(bundles))
	alerts := 0
	for _, b := range bundles {
		t := a.builder.Build(b, syncID, syncedAt)
		if t.StatusAlert != twin.StatusNormal {
			alerts++
		}
		twins[t.VehicleID] = t
	}

	snap := &Snapshot{
		SyncID:      syncID,
		SyncedAt:    syncedAt,
		InitialLoad: a.cycles.Add(1) == 1,
		Twins:       twins,
	}

	result := "ok"
	if softErr != nil {
		result = "degraded"
	}
	metrics.RefreshCycles.WithLabelValues(result).Inc()
	metrics.RefreshDuration.Observe(a.now().Sub(start).Seconds())
	metrics.TwinCount.Set(float64(len(twins)))
	metrics.TwinAlerts.Set(float64(alerts))

	a.log.Info("refresh cycle complete",
		"syncId", syncID, "vehicles", len(twins), "alerts", alerts,
		"took", a.now().Sub(start))
	return snap, nil
}

// RefreshOne rebuilds the twin for a single vehicle through the same
// pipeline, with its own short-TTL cache key.
func (a *Aggregator) RefreshOne(ctx context.Context, vehicleID string) (*twin.DigitalTwin, error) {
	roster, err := a.fetchRoster(ctx)
	if err != nil {
		return nil, err
	}
	var found *samsara.Vehicle
	for i := range roster {
		if roster[i].ID.String() == vehicleID {
			found = &roster[i]
			break
		}
	}
	if found == nil {
		return nil, errors.Wrapf(ErrUnknownVehicle, "vehicle %s", vehicleID)
	}

	dyn, softErr := a.fetchDynamic(ctx, []string{vehicleID})
	if softErr != nil {
		a.log.Warn("single-vehicle refresh degraded", "vehicleId", vehicleID, "err", softErr)
	}
	bundles := twin.Join([]samsara.Vehicle{*found}, dyn.locations, dyn.stats, dyn.maintenance)
	t := a.builder.Build(bundles[0], a.newID(), a.now())
	return &t, nil
}

// fetchRoster reads through the long-TTL roster cache. A partial roster from
// a failed page is still served; zero vehicles is ErrEmptyRoster.
func (a *Aggregator) fetchRoster(ctx context.Context) ([]samsara.Vehicle, error) {
	const key = "roster"
	if v, ok := a.roster.Get(key); ok {
		metrics.CacheLookups.WithLabelValues("roster", "hit").Inc()
		return v.([]samsara.Vehicle), nil
	}
	metrics.CacheLookups.WithLabelValues("roster", "miss").Inc()

	roster, err := a.fetcher.FetchRoster(ctx)
	if err != nil && len(roster) == 0 {
		return nil, multierr.Append(ErrEmptyRoster, err)
	}
	if len(roster) == 0 {
		return nil, ErrEmptyRoster
	}
	if err != nil {
		a.log.Warn("serving partial roster", "vehicles", len(roster), "err", err)
	}
	a.roster.Set(key, roster)
	return roster, nil
}

// fetchDynamic reads through the short-TTL cache for the three dynamic
// sources, fetched in parallel into disjoint maps. The returned error is the
// soft combination of per-source degradations; the data is always usable.
func (a *Aggregator) fetchDynamic(ctx context.Context, ids []string) (*dynamicData, error) {
	key := idSetKey(ids)
	if v, ok := a.dynamic.Get(key); ok {
		metrics.CacheLookups.WithLabelValues("dynamic", "hit").Inc()
		return v.(*dynamicData), nil
	}
	metrics.CacheLookups.WithLabelValues("dynamic", "miss").Inc()

	dyn := &dynamicData{}
	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		errs error
	)
	collect := func(err error) {
		if err != nil {
			mu.Lock()
			errs = multierr.Append(errs, err)
			mu.Unlock()
		}
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		locs, err := a.fetcher.FetchLocations(ctx, ids)
		dyn.locations = locs
		collect(err)
	}()
	go func() {
		defer wg.Done()
		stats, err := a.fetcher.FetchStats(ctx, ids, a.statTypes)
		dyn.stats = stats
		collect(err)
	}()
	go func() {
		defer wg.Done()
		maint, err := a.fetcher.FetchMaintenance(ctx, ids)
		dyn.maintenance = maint
		collect(err)
	}()
	wg.Wait()

	a.dynamic.Set(key, dyn)
	return dyn, errs
}

// idSetKey derives a compact cache key from the id set identity. Same ids in
// the same order hash identically, which holds cycle to cycle because ids
// come from the (cached) roster in roster order.
func idSetKey(ids []string) string {
	h := fnv.New64a()
	for _, id := range ids {
		_, _ = h.Write([]byte(id))
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf("ids:%d:%x", len(ids), h.Sum64())
}
