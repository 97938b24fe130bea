package additive

import (
	"math/rand/v2"
	"sort"
)

// FeatureVector maps a feature family to named numeric feature values.
// String/categorical features are represented by name with value 1.
type FeatureVector map[string]map[string]float64

// Example is one labeled training record: an ordered sequence of feature
// vectors. The label is stored like any other feature, under the family
// configured as the rank key.
type Example struct {
	Vectors []FeatureVector
}

// NewExample creates an Example from the given feature vectors.
func NewExample(vectors ...FeatureVector) Example {
	return Example{Vectors: vectors}
}

// FeatureKey identifies one feature function in the model.
type FeatureKey struct {
	Family string
	Name   string
}

func (k FeatureKey) String() string {
	return k.Family + ":" + k.Name
}

// FlatFeature is a resolved (family, name, value) triple produced by
// flattening an example's feature vectors.
type FlatFeature struct {
	Family string
	Name   string
	Value  float64
}

// Key returns the feature's model key.
func (f FlatFeature) Key() FeatureKey {
	return FeatureKey{Family: f.Family, Name: f.Name}
}

// Flatten resolves all feature vectors into a flat feature list.
func (e Example) Flatten() []FlatFeature {
	return e.FlattenWithDropout(nil, 0)
}

// FlattenWithDropout resolves all feature vectors into a flat feature list,
// independently dropping each feature with probability dropout. rng may be
// nil when dropout is zero.
//
// The result is sorted by family, name and value. Map iteration order must
// not leak into the pairing of dropout draws with features or into the
// floating-point order of score sums, or a fixed seed would stop
// reproducing runs.
func (e Example) FlattenWithDropout(rng *rand.Rand, dropout float64) []FlatFeature {
	var flat []FlatFeature
	for _, vector := range e.Vectors {
		for family, features := range vector {
			for name, value := range features {
				flat = append(flat, FlatFeature{Family: family, Name: name, Value: value})
			}
		}
	}
	sort.Slice(flat, func(i, j int) bool {
		if flat[i].Family != flat[j].Family {
			return flat[i].Family < flat[j].Family
		}
		if flat[i].Name != flat[j].Name {
			return flat[i].Name < flat[j].Name
		}
		return flat[i].Value < flat[j].Value
	})
	if dropout <= 0 {
		return flat
	}
	kept := flat[:0]
	for _, f := range flat {
		if rng.Float64() < dropout {
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// Label returns the raw label stored under the rank key family. When the
// family holds several entries the lexicographically smallest name wins, so
// the result does not depend on map iteration order. The second return is
// false when no vector carries the rank key.
func (e Example) Label(rankKey string) (float64, bool) {
	for _, vector := range e.Vectors {
		features, ok := vector[rankKey]
		if !ok || len(features) == 0 {
			continue
		}
		names := make([]string, 0, len(features))
		for name := range features {
			names = append(names, name)
		}
		sort.Strings(names)
		return features[names[0]], true
	}
	return 0, false
}

// BinaryLabel thresholds a raw label into {-1, +1} for margin losses.
func BinaryLabel(raw, threshold float64) float64 {
	if raw > threshold {
		return 1
	}
	return -1
}
