package samsara

import (
	"context"
	"net/url"
)

const pathVehicles = "/fleet/vehicles"

type rosterResponse struct {
	Data       []Vehicle  `json:"data"`
	Pagination pagination `json:"pagination"`
}

type pagination struct {
	EndCursor string `json:"endCursor"`
}

// FetchRoster walks the cursor-paginated vehicle roster and accumulates every
// page. A page-level failure ends pagination but keeps what was accumulated:
// availability over completeness. The page error is returned alongside the
// partial result so the caller can log it.
func (c *Client) FetchRoster(ctx context.Context) ([]Vehicle, error) {
	var all []Vehicle
	cursor := ""
	page := 0
	for {
		page++
		q := url.Values{}
		if cursor != "" {
			q.Set("after", cursor)
		}
		var resp rosterResponse
		if err := c.getJSON(ctx, c.httpc, pathVehicles, q, &resp); err != nil {
			c.log.Warn("roster page failed, keeping partial roster",
				"page", page, "accumulated", len(all), "err", err)
			return all, err
		}
		all = append(all, resp.Data...)
		cursor = resp.Pagination.EndCursor
		if cursor == "" {
			return all, nil
		}
	}
}
