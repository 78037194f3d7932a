package samsara

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Wire types for the Samsara fleet API. Field names follow the vendor
// payloads; conversion to canonical units happens in internal/twin.

// Vehicle is one roster entry from GET /fleet/vehicles.
type Vehicle struct {
	ID           FlexID `json:"id"`
	Name         string `json:"name"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         string `json:"year"`
	LicensePlate string `json:"licensePlate"`
}

// Location is the per-vehicle block from GET /fleet/vehicles/locations.
// Pointer fields may be absent from the payload.
type Location struct {
	Latitude   *float64    `json:"latitude"`
	Longitude  *float64    `json:"longitude"`
	Speed      *float64    `json:"speed"`
	ReverseGeo *ReverseGeo `json:"reverseGeo"`
	Time       string      `json:"time"`
}

type ReverseGeo struct {
	FormattedLocation string `json:"formattedLocation"`
}

// VehicleMaintenance is one entry from GET /v1/fleet/maintenance/list.
// J1939 may be null in the payload.
type VehicleMaintenance struct {
	ID    FlexID `json:"id"`
	J1939 *J1939 `json:"j1939"`
}

type J1939 struct {
	CheckEngineLight       *CheckEngineLight `json:"checkEngineLight"`
	DiagnosticTroubleCodes []DTC             `json:"diagnosticTroubleCodes"`
}

type CheckEngineLight struct {
	WarningIsOn   bool `json:"warningIsOn"`
	EmissionsIsOn bool `json:"emissionsIsOn"`
	ProtectIsOn   bool `json:"protectIsOn"`
	StopIsOn      bool `json:"stopIsOn"`
}

// DTC is a J1939 diagnostic trouble code. Identity is the (SPN, FMI) pair.
type DTC struct {
	SpnID           int64 `json:"spnId"`
	FmiID           int64 `json:"fmiId"`
	OccurrenceCount int   `json:"occurrenceCount"`
}

// FlexID is a vehicle identifier. The v1 maintenance endpoint returns ids as
// JSON numbers while the v2 endpoints return strings; both decode to the same
// string so cross-source joins key consistently.
type FlexID string

func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

func (f FlexID) String() string { return string(f) }

// Stat types requested from GET /fleet/vehicles/stats.
const (
	StatCoolantTempMilliC = "engineCoolantTemperatureMilliC"
	StatAmbientTempMilliC = "ambientAirTemperatureMilliC"
	StatEngineRPM         = "engineRpm"
	StatEngineSeconds     = "obdEngineSeconds"
	StatOilPressureKPa    = "engineOilPressureKPa"
)

// DefaultStatTypes lists every stat the twin pipeline consumes.
func DefaultStatTypes() []string {
	return []string{
		StatCoolantTempMilliC,
		StatAmbientTempMilliC,
		StatEngineRPM,
		StatEngineSeconds,
		StatOilPressureKPa,
	}
}

// decodeStatValue accepts either a bare number or a {value: n} envelope,
// which the stats endpoint mixes freely across stat types.
func decodeStatValue(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	if raw[0] == '{' {
		var env struct {
			Value *float64 `json:"value"`
		}
		if err := json.Unmarshal(raw, &env); err != nil || env.Value == nil {
			return 0, false
		}
		return *env.Value, true
	}
	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
