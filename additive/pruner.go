package additive

import (
	"github.com/YuminosukeSato/gamgo/pkg/log"
)

// Pruner removes spline functions whose fitted influence has decayed to
// near-zero, keeping the model sparse across training rounds.
//
// Linear functions are never pruned: their families are few and hand-picked,
// and a near-zero linear map is trained signal, not noise.
type Pruner struct {
	Threshold float64
}

// NewPruner creates a pruner with the given L∞ threshold.
func NewPruner(threshold float64) *Pruner {
	return &Pruner{Threshold: threshold}
}

// Prune deletes every spline whose maximum absolute weight is below the
// threshold and returns the number of removed functions.
func (p *Pruner) Prune(model *Model) int {
	var doomed []FeatureKey
	for key, fn := range model.Functions {
		if fn.Type() != FunctionSpline {
			continue
		}
		if fn.LInfNorm() < p.Threshold {
			doomed = append(doomed, key)
		}
	}
	for _, key := range doomed {
		model.Delete(key)
	}

	if len(doomed) > 0 {
		log.GetLoggerWithName("additive.pruner").Debug("pruned near-zero splines",
			log.PrunedKey, len(doomed),
			log.FeaturesKey, model.Len(),
		)
	}
	return len(doomed)
}
