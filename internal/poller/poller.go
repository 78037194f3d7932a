// Package poller drives the aggregation pipeline on a fixed interval plus
// on-demand manual triggers.
package poller

import (
	"context"
	"log/slog"
	"time"

	"fleettwin/internal/aggregator"
)

// Poller runs one aggregation cycle per tick. It is the sole cycle executor,
// so cycles never overlap; a manual trigger during a running cycle queues the
// next one rather than cancelling anything in flight.
type Poller struct {
	Agg      *aggregator.Aggregator
	Interval time.Duration
	Log      *slog.Logger

	// OnSnapshot receives each completed snapshot (serving layer, broker).
	OnSnapshot func(*aggregator.Snapshot)

	stop chan struct{}
	kick chan struct{}
}

// New builds a Poller with the given cycle interval.
func New(agg *aggregator.Aggregator, interval time.Duration, log *slog.Logger, onSnapshot func(*aggregator.Snapshot)) *Poller {
	return &Poller{
		Agg:        agg,
		Interval:   interval,
		Log:        log,
		OnSnapshot: onSnapshot,
		stop:       make(chan struct{}),
		kick:       make(chan struct{}, 1),
	}
}

// Start launches the poll loop. The first cycle runs immediately.
func (p *Poller) Start() {
	go func() {
		ticker := time.NewTicker(p.Interval)
		defer ticker.Stop()
		p.runOnce()
		for {
			select {
			case <-p.stop:
				return
			case <-p.kick:
				p.runOnce()
			case <-ticker.C:
				p.runOnce()
			}
		}
	}()
}

// Stop ends the loop after any in-flight cycle finishes.
func (p *Poller) Stop() { close(p.stop) }

// Refresh clears the fetch caches synchronously and queues an immediate
// cycle. Coalesces when a trigger is already pending.
func (p *Poller) Refresh() {
	p.Agg.Invalidate()
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

func (p *Poller) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), p.Interval)
	defer cancel()
	snap, err := p.Agg.Refresh(ctx)
	if err != nil {
		p.Log.Error("refresh cycle failed", "err", err)
		return
	}
	if p.OnSnapshot != nil {
		p.OnSnapshot(snap)
	}
}
