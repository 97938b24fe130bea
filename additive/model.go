package additive

import (
	coremodel "github.com/YuminosukeSato/gamgo/core/model"
	"github.com/YuminosukeSato/gamgo/pkg/errors"
)

// Model is a generalized additive model: a flat mapping from feature key to
// transfer function. A prediction is the sum of each function evaluated at
// its feature's value. Features without a registered function contribute
// nothing, and no key is ever created implicitly by scoring or updates.
//
// During a training round the trainer shares a deep-cloned snapshot with its
// bag workers; only the trainer mutates the authoritative instance, strictly
// between rounds.
type Model struct {
	Functions map[FeatureKey]Function
}

var _ coremodel.Persistable = (*Model)(nil)

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{Functions: make(map[FeatureKey]Function)}
}

// Get returns the function registered for key.
func (m *Model) Get(key FeatureKey) (Function, bool) {
	fn, ok := m.Functions[key]
	return fn, ok
}

// Put registers fn under key. When the key already holds a function it is
// only replaced if overwrite is set. Returns whether the model changed.
func (m *Model) Put(key FeatureKey, fn Function, overwrite bool) bool {
	if _, exists := m.Functions[key]; exists && !overwrite {
		return false
	}
	m.Functions[key] = fn
	return true
}

// Delete removes the function registered for key, if any.
func (m *Model) Delete(key FeatureKey) {
	delete(m.Functions, key)
}

// Len returns the number of feature functions.
func (m *Model) Len() int {
	return len(m.Functions)
}

// NumFamilies returns the number of distinct feature families.
func (m *Model) NumFamilies() int {
	families := make(map[string]struct{})
	for key := range m.Functions {
		families[key.Family] = struct{}{}
	}
	return len(families)
}

// Score sums the registered functions over the flattened features. Features
// without a function are skipped.
func (m *Model) Score(flat []FlatFeature) float64 {
	sum := 0.0
	for _, f := range flat {
		if fn, ok := m.Functions[f.Key()]; ok {
			sum += fn.Evaluate(f.Value)
		}
	}
	return sum
}

// Update applies one gradient step: every flattened feature with a
// registered function is nudged by -learningRate*grad at its value, then the
// touched function's weights are capped at linfinityCap.
func (m *Model) Update(grad, learningRate, linfinityCap float64, flat []FlatFeature) {
	delta := -learningRate * grad
	for _, f := range flat {
		fn, ok := m.Functions[f.Key()]
		if !ok {
			continue
		}
		fn.Update(f.Value, delta)
		fn.CapInfNorm(linfinityCap)
	}
}

// Clone returns a deep copy. The copy shares nothing with the original, so
// it can be mutated independently.
func (m *Model) Clone() *Model {
	clone := &Model{Functions: make(map[FeatureKey]Function, len(m.Functions))}
	for key, fn := range m.Functions {
		clone.Functions[key] = fn.Clone()
	}
	return clone
}

// WriteBack replaces the functions of keys present in both the model and the
// aggregate. Keys that have disappeared from the model, e.g. pruned in an
// earlier round, are dropped silently.
func (m *Model) WriteBack(aggregated map[FeatureKey]Function) {
	for key, fn := range aggregated {
		if _, ok := m.Functions[key]; ok {
			m.Functions[key] = fn
		}
	}
}

// Save persists the model to path with gob encoding.
func (m *Model) Save(path string) error {
	if err := coremodel.SaveModel(m, path); err != nil {
		return errors.NewModelError("Model.Save", "failed to persist model", err)
	}
	return nil
}

// Load restores the model from a file written by Save.
func (m *Model) Load(path string) error {
	if err := coremodel.LoadModel(m, path); err != nil {
		return errors.NewModelError("Model.Load", "failed to load model", err)
	}
	return nil
}

// LoadModelFile loads a persisted model from path.
func LoadModelFile(path string) (*Model, error) {
	m := NewModel()
	if err := m.Load(path); err != nil {
		return nil, err
	}
	return m, nil
}
