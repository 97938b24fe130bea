package additive

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/YuminosukeSato/gamgo/pkg/errors"
)

// functionJSON is the wire form of a single transfer function. The type tag
// selects the concrete variant on load; min and max are only meaningful for
// splines.
type functionJSON struct {
	Type    string    `json:"type"`
	Min     float64   `json:"min,omitempty"`
	Max     float64   `json:"max,omitempty"`
	Weights []float64 `json:"weights"`
}

type modelEntryJSON struct {
	Family   string       `json:"family"`
	Name     string       `json:"name"`
	Function functionJSON `json:"function"`
}

type modelJSON struct {
	Functions []modelEntryJSON `json:"functions"`
}

// MarshalJSON encodes the model as a list of keyed functions sorted by family
// and name, so repeated exports of the same model are byte-identical.
func (m *Model) MarshalJSON() ([]byte, error) {
	entries := make([]modelEntryJSON, 0, len(m.Functions))
	for key, fn := range m.Functions {
		entry := modelEntryJSON{
			Family: key.Family,
			Name:   key.Name,
			Function: functionJSON{
				Type:    fn.Type().String(),
				Weights: append([]float64(nil), fn.Weights()...),
			},
		}
		if spline, ok := fn.(*Spline); ok {
			entry.Function.Min = spline.Min
			entry.Function.Max = spline.Max
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Family != entries[j].Family {
			return entries[i].Family < entries[j].Family
		}
		return entries[i].Name < entries[j].Name
	})
	return json.Marshal(modelJSON{Functions: entries})
}

// UnmarshalJSON decodes a model written by MarshalJSON, rebuilding each
// concrete function variant from its type tag. The previous contents of the
// model are replaced.
func (m *Model) UnmarshalJSON(data []byte) error {
	var wire modelJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return errors.NewModelError("Model.UnmarshalJSON", "malformed model document", err)
	}

	functions := make(map[FeatureKey]Function, len(wire.Functions))
	for _, entry := range wire.Functions {
		fn, err := entry.Function.build()
		if err != nil {
			return err
		}
		functions[FeatureKey{Family: entry.Family, Name: entry.Name}] = fn
	}
	m.Functions = functions
	return nil
}

func (f functionJSON) build() (Function, error) {
	switch f.Type {
	case FunctionSpline.String():
		spline, err := NewSpline(f.Min, f.Max, len(f.Weights))
		if err != nil {
			return nil, err
		}
		if err := spline.SetWeights(f.Weights); err != nil {
			return nil, err
		}
		return spline, nil
	case FunctionLinear.String():
		linear := NewLinear()
		if err := linear.SetWeights(f.Weights); err != nil {
			return nil, err
		}
		return linear, nil
	default:
		return nil, errors.NewValueError("Model.UnmarshalJSON", fmt.Sprintf("unknown function type %q", f.Type))
	}
}
