package samsara

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/multierr"
)

const pathLocations = "/fleet/vehicles/locations"

type locationsResponse struct {
	Data []struct {
		ID       FlexID   `json:"id"`
		Location Location `json:"location"`
	} `json:"data"`
}

// FetchLocations requests current locations for the given vehicle ids,
// chunked to stay under the request-size limit. Chunks run concurrently up to
// the client's cap. A failed chunk is logged and skipped; the rest still
// contribute. The combined chunk errors are returned for cycle-level logging.
func (c *Client) FetchLocations(ctx context.Context, ids []string) (map[string]Location, error) {
	out := make(map[string]Location, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		errs error
	)
	sem := make(chan struct{}, c.concurrency)
	for _, batch := range chunk(ids, c.idChunk) {
		wg.Add(1)
		sem <- struct{}{}
		go func(batch []string) {
			defer wg.Done()
			defer func() { <-sem }()
			q := url.Values{}
			q.Set("ids", strings.Join(batch, ","))
			var resp locationsResponse
			if err := c.getJSON(ctx, c.httpc, pathLocations, q, &resp); err != nil {
				c.log.Warn("location chunk failed, skipping", "size", len(batch), "err", err)
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
				return
			}
			mu.Lock()
			for _, item := range resp.Data {
				out[item.ID.String()] = item.Location
			}
			mu.Unlock()
		}(batch)
	}
	wg.Wait()
	return out, errs
}
