package samsara

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/multierr"
)

const pathStats = "/fleet/vehicles/stats"

// statsRequest is one unit of the two-dimensional batch: an id chunk crossed
// with a stat-type chunk.
type statsRequest struct {
	ids   []string
	types []string
}

// statRequests expands ids and types into the Cartesian product of request
// descriptors honoring both chunk limits.
func (c *Client) statRequests(ids, types []string) []statsRequest {
	var reqs []statsRequest
	for _, idBatch := range chunk(ids, c.idChunk) {
		for _, typeBatch := range chunk(types, c.typeChunk) {
			reqs = append(reqs, statsRequest{ids: idBatch, types: typeBatch})
		}
	}
	return reqs
}

// FetchStats fetches the requested stat types for the given vehicles and
// merges every response into a vehicleId -> statType -> value map. The two
// batching dimensions are independent; each request unit fails independently
// and failed units are skipped. Merging happens under a single mutex so the
// result map never sees a half-written entry.
func (c *Client) FetchStats(ctx context.Context, ids, types []string) (map[string]map[string]float64, error) {
	out := make(map[string]map[string]float64, len(ids))
	for _, id := range ids {
		out[id] = map[string]float64{}
	}
	if len(ids) == 0 || len(types) == 0 {
		return out, nil
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		errs error
	)
	sem := make(chan struct{}, c.concurrency)
	for _, req := range c.statRequests(ids, types) {
		wg.Add(1)
		sem <- struct{}{}
		go func(req statsRequest) {
			defer wg.Done()
			defer func() { <-sem }()
			q := url.Values{}
			q.Set("types", strings.Join(req.types, ","))
			q.Set("vehicleIds", strings.Join(req.ids, ","))
			var resp struct {
				Data []map[string]json.RawMessage `json:"data"`
			}
			if err := c.getJSON(ctx, c.httpcStats, pathStats, q, &resp); err != nil {
				c.log.Warn("stats chunk failed, skipping",
					"ids", len(req.ids), "types", len(req.types), "err", err)
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
				return
			}
			mu.Lock()
			for _, item := range resp.Data {
				var id FlexID
				if raw, ok := item["id"]; ok {
					_ = json.Unmarshal(raw, &id)
				}
				vm, ok := out[id.String()]
				if !ok {
					continue // not a vehicle we asked about
				}
				for _, st := range req.types {
					raw, ok := item[st]
					if !ok {
						continue
					}
					if v, ok := decodeStatValue(raw); ok {
						vm[st] = v
					}
				}
			}
			mu.Unlock()
		}(req)
	}
	wg.Wait()
	return out, errs
}
