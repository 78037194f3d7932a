package twin

import (
	"fmt"
	"strings"
)

// Evaluate derives the twin's alert status and color from its DTC list and
// the four check-engine-light flags. Any active DTC or light triggers the
// alert state; the composition order below only shapes the message.
func Evaluate(t *DigitalTwin) (status, color string) {
	var clauses []string

	if len(t.DTCs) > 0 {
		codes := make([]string, 0, len(t.DTCs))
		for _, d := range t.DTCs {
			codes = append(codes, fmt.Sprintf("SPN: %d (FMI: %d)", d.SpnID, d.FmiID))
		}
		clauses = append(clauses, fmt.Sprintf("Engine faults (DTCs: %s)", strings.Join(codes, "; ")))
	}

	var lights []string
	if t.LightWarning {
		lights = append(lights, "Warning")
	}
	if t.LightEmissions {
		lights = append(lights, "Emissions")
	}
	if t.LightProtect {
		lights = append(lights, "Protect")
	}
	if t.LightStop {
		lights = append(lights, "Stop")
	}
	if len(lights) > 0 {
		clauses = append(clauses, fmt.Sprintf("Check engine light ON (%s)", strings.Join(lights, ", ")))
	}

	if len(clauses) > 0 {
		return "ALERT: " + strings.Join(clauses, "; "), ColorRed
	}
	return StatusNormal, ColorGreen
}
