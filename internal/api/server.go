// Package api serves the aggregated digital twins to the presentation layer.
package api

import (
	"log/slog"
	"os"
	"sync"

	"golang.org/x/time/rate"

	"fleettwin/internal/aggregator"
	"fleettwin/internal/config"
	"fleettwin/internal/dtc"
	"fleettwin/internal/poller"
	"fleettwin/internal/samsara"
	"fleettwin/internal/twin"
)

type Server struct {
	Agg    *aggregator.Aggregator
	Poller *poller.Poller
	Broker EventBroker
	Log    *slog.Logger

	mu     sync.RWMutex
	latest *aggregator.Snapshot
}

// NewServer wires the client, aggregator, broker, and poller from config.
// The poller is returned armed but not started; main starts it after the
// listener is up.
func NewServer(cfg *config.Config, log *slog.Logger) (*Server, error) {
	defs, err := dtc.Load(cfg.DTCDefinitionsPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("dtc definitions file not found, descriptions unavailable", "path", cfg.DTCDefinitionsPath)
		} else {
			return nil, err
		}
	} else {
		log.Info("loaded dtc definitions", "count", defs.Len())
	}

	client := samsara.NewClient(cfg.APIToken, log,
		samsara.WithBaseURL(cfg.BaseURL),
		samsara.WithIDChunkSize(cfg.IDChunkSize),
		samsara.WithTypeChunkSize(cfg.TypeChunkSize),
		samsara.WithConcurrency(cfg.Concurrency),
		samsara.WithRateLimit(rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.Concurrency)),
	)

	builder := &twin.Builder{Lookup: func(spn, fmi int64) (string, string, bool) {
		def, ok := defs.Lookup(spn, fmi)
		return def.Description, def.Suggestion, ok
	}}

	agg := aggregator.New(client, builder, cfg.RosterTTL(), cfg.DynamicTTL(), log)

	// Broker selection: Redis when configured, in-memory otherwise.
	var broker EventBroker
	if cfg.RedisURL != "" {
		rb, err := NewRedisBroker(cfg.RedisURL)
		if err != nil {
			log.Warn("redis broker unavailable, using in-memory broker", "err", err)
			broker = NewBroker()
		} else {
			broker = rb
		}
	} else {
		broker = NewBroker()
	}

	s := &Server{Agg: agg, Broker: broker, Log: log}
	s.Poller = poller.New(agg, cfg.PollInterval(), log, s.onSnapshot)
	return s, nil
}

// onSnapshot installs each completed snapshot and notifies stream
// subscribers.
func (s *Server) onSnapshot(snap *aggregator.Snapshot) {
	s.mu.Lock()
	s.latest = snap
	s.mu.Unlock()

	s.Broker.Publish(TopicFleet, Event{
		Type: "twin.refreshed",
		Data: map[string]any{
			"syncId":      snap.SyncID,
			"syncedAt":    snap.SyncedAt,
			"initialLoad": snap.InitialLoad,
			"vehicles":    len(snap.Twins),
		},
	})
}

// Snapshot returns the latest completed snapshot, or nil before the first
// cycle finishes.
func (s *Server) Snapshot() *aggregator.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}
