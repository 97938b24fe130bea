package additive

import (
	"math"

	"github.com/YuminosukeSato/gamgo/pkg/log"
)

// featureRange accumulates per-feature occurrence statistics during the
// initialization scan.
type featureRange struct {
	count int
	min   float64
	max   float64
}

// Initializer populates a model with one transfer function per feature seen
// often enough in the training data. Families on the linear-feature list get
// identity-initialized Linear functions; all others get zero-weight Splines
// spanning the feature's observed value range.
type Initializer struct {
	params *TrainerParams
}

// NewInitializer creates an initializer for the given parameters.
func NewInitializer(params *TrainerParams) *Initializer {
	return &Initializer{params: params}
}

// Initialize scans examples and adds a function for every feature with at
// least min_count occurrences. With overwrite set, existing functions are
// replaced (fresh model); without it they are preserved and only missing
// keys are added (extending a loaded model). The rank key family holds
// labels and never becomes a feature.
func (in *Initializer) Initialize(model *Model, examples []Example, overwrite bool) error {
	stats := in.scanRanges(examples)

	created := 0
	skipped := 0
	for key, r := range stats {
		if r.count < in.params.MinCount {
			skipped++
			continue
		}
		var fn Function
		if in.params.isLinearFamily(key.Family) {
			fn = NewLinear()
		} else {
			spline, err := NewSpline(r.min, r.max, in.params.NumBins)
			if err != nil {
				return err
			}
			fn = spline
		}
		if model.Put(key, fn, overwrite) {
			created++
		}
	}

	logger := log.GetLoggerWithName("additive.initializer")
	logger.Info("model initialized",
		log.PhaseKey, log.PhaseInitialization,
		log.SamplesKey, len(examples),
		log.FeaturesKey, model.Len(),
		log.FamiliesKey, model.NumFamilies(),
		"created", created,
		"below_min_count", skipped,
	)
	return nil
}

// scanRanges computes occurrence count and observed (min, max) for every
// feature key in the examples, excluding the rank key family.
func (in *Initializer) scanRanges(examples []Example) map[FeatureKey]*featureRange {
	stats := make(map[FeatureKey]*featureRange)
	for _, example := range examples {
		for _, f := range example.Flatten() {
			if f.Family == in.params.RankKey {
				continue
			}
			r, ok := stats[f.Key()]
			if !ok {
				r = &featureRange{min: f.Value, max: f.Value}
				stats[f.Key()] = r
			}
			r.count++
			r.min = math.Min(r.min, f.Value)
			r.max = math.Max(r.max, f.Value)
		}
	}
	return stats
}
