package twin

import "fleettwin/internal/samsara"

// Join merges the three per-source maps into one Bundle per roster vehicle,
// keyed lookups by vehicle id. Every roster vehicle yields a bundle; vehicles
// absent from a source simply carry a nil/empty fragment. IDs that appear in
// a dynamic source but not in the roster are dropped.
func Join(
	roster []samsara.Vehicle,
	locations map[string]samsara.Location,
	stats map[string]map[string]float64,
	maintenance map[string]samsara.VehicleMaintenance,
) []Bundle {
	bundles := make([]Bundle, 0, len(roster))
	for _, v := range roster {
		id := v.ID.String()
		b := Bundle{Vehicle: v, Stats: stats[id]}
		if loc, ok := locations[id]; ok {
			l := loc
			b.Location = &l
		}
		if m, ok := maintenance[id]; ok {
			mm := m
			b.Maintenance = &mm
		}
		bundles = append(bundles, b)
	}
	return bundles
}
