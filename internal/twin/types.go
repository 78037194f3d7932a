// Package twin builds the canonical per-vehicle digital twin from the raw
// per-source fragments fetched out of the vendor API.
package twin

import (
	"encoding/json"
	"strconv"

	"fleettwin/internal/samsara"
)

// Float is an optional numeric reading. A missing or wrong-shaped source
// value yields the zero Float, which marshals to JSON null and displays as
// "N/A", never a fake zero that would imply a real reading.
type Float struct {
	Value float64
	Valid bool
}

// FloatOf wraps a present reading.
func FloatOf(v float64) Float { return Float{Value: v, Valid: true} }

func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

func (f *Float) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = Float{}
		return nil
	}
	if err := json.Unmarshal(b, &f.Value); err != nil {
		return err
	}
	f.Valid = true
	return nil
}

// Display renders the reading for humans, with unavailable readings as "N/A".
func (f Float) Display() string {
	if !f.Valid {
		return "N/A"
	}
	return strconv.FormatFloat(f.Value, 'f', -1, 64)
}

// Text is an optional string field with the same unavailable semantics.
type Text struct {
	Value string
	Valid bool
}

func TextOf(s string) Text { return Text{Value: s, Valid: true} }

func (t Text) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Value)
}

func (t *Text) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = Text{}
		return nil
	}
	if err := json.Unmarshal(b, &t.Value); err != nil {
		return err
	}
	t.Valid = true
	return nil
}

func (t Text) Display() string {
	if !t.Valid {
		return "N/A"
	}
	return t.Value
}

// DTC is a diagnostic trouble code carried onto the twin, optionally enriched
// with a human-readable description from the static definitions table.
type DTC struct {
	SpnID           int64  `json:"spnId"`
	FmiID           int64  `json:"fmiId"`
	OccurrenceCount int    `json:"occurrenceCount"`
	Description     string `json:"description,omitempty"`
	Suggestion      string `json:"suggestion,omitempty"`
}

// Alert severity colors.
const (
	ColorGreen = "green"
	ColorRed   = "red"
)

// StatusNormal is the statusAlert value for a healthy twin. Alerting twins
// get a composed message starting with "ALERT:".
const StatusNormal = "OPERATING NORMALLY"

// DigitalTwin is the flattened per-vehicle aggregate exposed to the
// presentation layer. Rebuilt wholesale every refresh cycle; readers never
// mutate it.
type DigitalTwin struct {
	VehicleID    string `json:"vehicleId"`
	Name         string `json:"name"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         string `json:"year"`
	LicensePlate string `json:"licensePlate"`

	Latitude          Float `json:"latitude"`
	Longitude         Float `json:"longitude"`
	SpeedMPH          Float `json:"speedMph"`
	Address           Text  `json:"formattedAddress"`
	LocationUpdatedAt Text  `json:"locationUpdatedAt"`

	CoolantTempC   Float `json:"engineCoolantTempC"`
	AmbientTempC   Float `json:"ambientAirTempC"`
	EngineRPM      Float `json:"engineRpm"`
	EngineHours    Float `json:"engineHours"`
	OilPressureKPa Float `json:"engineOilPressureKpa"`

	LightWarning   bool  `json:"checkLightWarning"`
	LightEmissions bool  `json:"checkLightEmissions"`
	LightProtect   bool  `json:"checkLightProtect"`
	LightStop      bool  `json:"checkLightStop"`
	DTCs           []DTC `json:"diagnosticTroubleCodes"`

	StatusAlert string `json:"statusAlert"`
	AlertColor  string `json:"alertColor"`

	LastDataSync string `json:"lastDataSync"`
	SyncID       string `json:"syncId"`
}

// Bundle is the joined raw material for one roster vehicle. Any of the three
// dynamic fragments may be absent.
type Bundle struct {
	Vehicle     samsara.Vehicle
	Location    *samsara.Location
	Stats       map[string]float64
	Maintenance *samsara.VehicleMaintenance
}
