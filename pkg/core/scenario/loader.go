// Package scenario loads user-authored scenario files. Files may be strict
// JSON, Hjson (comments, unquoted keys, optional commas), or sloppy JSON
// pasted from elsewhere; parsing falls through progressively more lenient
// strategies before giving up.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"

	"finsim/pkg/core/model"
)

// Parse decodes scenario bytes using progressively lenient strategies:
// strict JSON first, then repaired JSON, then Hjson. The decoded scenario is
// validated before it is returned.
func Parse(data []byte) (*model.SimulationScenario, error) {
	var s model.SimulationScenario

	// Try 1: Standard JSON.
	if err := json.Unmarshal(data, &s); err == nil {
		return validated(&s)
	}

	// Try 2: JSON repair (single quotes, trailing commas, code fences).
	if repaired, err := jsonrepair.RepairJSON(string(data)); err == nil {
		s = model.SimulationScenario{}
		if err := json.Unmarshal([]byte(repaired), &s); err == nil {
			return validated(&s)
		}
	}

	// Try 3: Hjson (most lenient).
	var loose interface{}
	if err := hjson.Unmarshal(data, &loose); err == nil {
		if jsonBytes, err := json.Marshal(loose); err == nil {
			s = model.SimulationScenario{}
			if err := json.Unmarshal(jsonBytes, &s); err == nil {
				return validated(&s)
			}
		}
	}

	return nil, fmt.Errorf("scenario parse failed: all parsing strategies exhausted")
}

// LoadFile reads and parses a scenario file.
func LoadFile(path string) (*model.SimulationScenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func validated(s *model.SimulationScenario) (*model.SimulationScenario, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
