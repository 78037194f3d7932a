package samsara

import (
	"context"
	"net/url"
)

const pathMaintenance = "/v1/fleet/maintenance/list"

type maintenanceResponse struct {
	// The endpoint has shipped both field names for the same array.
	VehicleMaintenance []VehicleMaintenance `json:"vehicleMaintenance"`
	Vehicles           []VehicleMaintenance `json:"vehicles"`
	Pagination         pagination           `json:"pagination"`
}

func (r *maintenanceResponse) items() []VehicleMaintenance {
	if len(r.VehicleMaintenance) > 0 {
		return r.VehicleMaintenance
	}
	return r.Vehicles
}

// FetchMaintenance pages through the fleet-wide maintenance list, keeping
// only vehicles in targetIDs. Found ids leave the working set, and pagination
// stops as soon as the working set is empty or the cursor runs out, so a
// large fleet is never scanned past satisfaction.
//
// Unlike the other fetchers, any page failure discards everything and returns
// an empty map: partially paged maintenance data has no clear provenance and
// is unsafe to merge. This asymmetry is deliberate.
func (c *Client) FetchMaintenance(ctx context.Context, targetIDs []string) (map[string]VehicleMaintenance, error) {
	out := make(map[string]VehicleMaintenance, len(targetIDs))
	pending := make(map[string]struct{}, len(targetIDs))
	for _, id := range targetIDs {
		pending[id] = struct{}{}
	}
	if len(pending) == 0 {
		return out, nil
	}

	cursor := ""
	page := 0
	for {
		page++
		q := url.Values{}
		if cursor != "" {
			q.Set("after", cursor)
		}
		var resp maintenanceResponse
		if err := c.getJSON(ctx, c.httpc, pathMaintenance, q, &resp); err != nil {
			c.log.Warn("maintenance page failed, discarding partial result", "page", page, "err", err)
			return map[string]VehicleMaintenance{}, err
		}
		for _, item := range resp.items() {
			id := item.ID.String()
			if _, ok := pending[id]; ok {
				out[id] = item
				delete(pending, id)
			}
		}
		cursor = resp.Pagination.EndCursor
		if cursor == "" || len(pending) == 0 {
			return out, nil
		}
	}
}
