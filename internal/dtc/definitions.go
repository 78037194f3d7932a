// Package dtc loads the static lookup table mapping diagnostic trouble codes
// to human-readable descriptions and repair suggestions.
package dtc

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// Definition describes one (SPN, FMI) pair.
type Definition struct {
	Description string `json:"description"`
	Suggestion  string `json:"suggestion"`
}

// Definitions is the loaded table. The zero value is an empty table where
// every lookup misses.
type Definitions struct {
	byKey map[string]Definition
}

// Load reads a definitions file keyed "SPN:<spn> FMI:<fmi>". A missing file
// is not an error here; callers decide whether to warn. A malformed file is.
func Load(path string) (*Definitions, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Definitions{}, err
		}
		return nil, errors.Wrap(err, "read dtc definitions")
	}
	var byKey map[string]Definition
	if err := json.Unmarshal(b, &byKey); err != nil {
		return nil, errors.Wrap(err, "parse dtc definitions")
	}
	return &Definitions{byKey: byKey}, nil
}

// Lookup resolves a code pair to its definition.
func (d *Definitions) Lookup(spn, fmi int64) (Definition, bool) {
	if d == nil || d.byKey == nil {
		return Definition{}, false
	}
	def, ok := d.byKey[key(spn, fmi)]
	return def, ok
}

// Len reports the number of loaded definitions.
func (d *Definitions) Len() int {
	if d == nil {
		return 0
	}
	return len(d.byKey)
}

func key(spn, fmi int64) string {
	return fmt.Sprintf("SPN:%d FMI:%d", spn, fmi)
}
