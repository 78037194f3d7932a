package twin

import (
	"math"
	"time"

	"fleettwin/internal/samsara"
)

// timeLayout is the display format for parsed timestamps.
const timeLayout = "2006-01-02 15:04:05"

// DTCLookup resolves an (SPN, FMI) pair to a description and suggestion.
// Returns ok=false when the pair has no entry.
type DTCLookup func(spn, fmi int64) (description, suggestion string, ok bool)

// Builder normalizes joined bundles into digital twins. The zero Builder is
// usable; Lookup enriches DTCs when set.
type Builder struct {
	Lookup DTCLookup
}

// Build converts one bundle into its twin. syncID and syncedAt identify the
// refresh cycle that produced the record.
func (b *Builder) Build(bundle Bundle, syncID string, syncedAt time.Time) DigitalTwin {
	t := DigitalTwin{
		VehicleID:    bundle.Vehicle.ID.String(),
		Name:         bundle.Vehicle.Name,
		Make:         bundle.Vehicle.Make,
		Model:        bundle.Vehicle.Model,
		Year:         bundle.Vehicle.Year,
		LicensePlate: bundle.Vehicle.LicensePlate,
		DTCs:         []DTC{},
		LastDataSync: syncedAt.Format(timeLayout),
		SyncID:       syncID,
	}

	if loc := bundle.Location; loc != nil {
		// Coordinates keep full precision; rounding them moves the fix.
		if loc.Latitude != nil {
			t.Latitude = FloatOf(*loc.Latitude)
		}
		if loc.Longitude != nil {
			t.Longitude = FloatOf(*loc.Longitude)
		}
		if loc.Speed != nil {
			t.SpeedMPH = FloatOf(round2(*loc.Speed))
		}
		if loc.ReverseGeo != nil && loc.ReverseGeo.FormattedLocation != "" {
			t.Address = TextOf(loc.ReverseGeo.FormattedLocation)
		}
		if loc.Time != "" {
			// Trailing Z is a UTC offset; unparsable strings are kept
			// verbatim rather than dropped.
			if ts, err := time.Parse(time.RFC3339, loc.Time); err == nil {
				t.LocationUpdatedAt = TextOf(ts.UTC().Format(timeLayout))
			} else {
				t.LocationUpdatedAt = TextOf(loc.Time)
			}
		}
	}

	if v, ok := bundle.Stats[samsara.StatCoolantTempMilliC]; ok {
		t.CoolantTempC = FloatOf(round2(v / 1000))
	}
	if v, ok := bundle.Stats[samsara.StatAmbientTempMilliC]; ok {
		t.AmbientTempC = FloatOf(round2(v / 1000))
	}
	if v, ok := bundle.Stats[samsara.StatEngineSeconds]; ok {
		t.EngineHours = FloatOf(round2(v / 3600))
	}
	if v, ok := bundle.Stats[samsara.StatOilPressureKPa]; ok {
		t.OilPressureKPa = FloatOf(round2(v))
	}
	if v, ok := bundle.Stats[samsara.StatEngineRPM]; ok {
		t.EngineRPM = FloatOf(round2(v))
	}

	if m := bundle.Maintenance; m != nil {
		// A present record with a null j1939 block reads as an empty
		// block: flags stay false, the DTC list stays empty.
		j := m.J1939
		if j == nil {
			j = &samsara.J1939{}
		}
		if cel := j.CheckEngineLight; cel != nil {
			t.LightWarning = cel.WarningIsOn
			t.LightEmissions = cel.EmissionsIsOn
			t.LightProtect = cel.ProtectIsOn
			t.LightStop = cel.StopIsOn
		}
		for _, code := range j.DiagnosticTroubleCodes {
			d := DTC{SpnID: code.SpnID, FmiID: code.FmiID, OccurrenceCount: code.OccurrenceCount}
			if b.Lookup != nil {
				if desc, sugg, ok := b.Lookup(code.SpnID, code.FmiID); ok {
					d.Description = desc
					d.Suggestion = sugg
				}
			}
			t.DTCs = append(t.DTCs, d)
		}
	}

	t.StatusAlert, t.AlertColor = Evaluate(&t)
	return t
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
