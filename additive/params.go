package additive

import (
	"github.com/YuminosukeSato/gamgo/pkg/errors"
)

// TrainerParams contains all training hyperparameters. The zero value is not
// usable directly; NewTrainer fills documented defaults and Validate reports
// anything still missing or out of range.
type TrainerParams struct {
	// Loss selects the training objective: "logistic", "hinge" or
	// "regression".
	Loss string `json:"loss"`

	// Model shape
	NumBins               int      `json:"num_bins"`
	LinearFeatureFamilies []string `json:"linear_feature"`
	MinCount              int      `json:"min_count"`

	// Labels
	RankKey       string  `json:"rank_key"`
	RankThreshold float64 `json:"rank_threshold"`

	// SGD
	Iterations   int     `json:"iterations"`
	NumBags      int     `json:"num_bags"`
	LearningRate float64 `json:"learning_rate"`
	Subsample    float64 `json:"subsample"`
	Dropout      float64 `json:"dropout"`
	LInfinityCap float64 `json:"linfinity_cap"`

	// Loss-specific parameters
	Epsilon    float64 `json:"epsilon"`     // regression dead-zone half-width
	Margin     float64 `json:"margin"`      // hinge margin
	RankMargin float64 `json:"rank_margin"` // reserved for a ranking loss variant

	// Post-processing
	SmoothingTolerance float64 `json:"smoothing_tolerance"`
	LInfinityThreshold float64 `json:"linfinity_threshold"`

	// Persistence
	InitModel   string `json:"init_model"`
	ModelOutput string `json:"model_output"`

	// Priors are "family,name,v0,v1" entries applied to a fresh model.
	Priors []string `json:"prior"`

	// Other
	LossMod int   `json:"loss_mod"`
	Seed    int64 `json:"seed"`
}

// Validate checks the parameter set and returns a distinguished error for
// the first violation found, so the embedding program can decide how to
// fail instead of the library exiting the process.
func (p *TrainerParams) Validate() error {
	if !knownLoss(p.Loss) {
		return errors.NewUnknownLossError(p.Loss, KnownLosses())
	}
	if p.NumBins < 2 {
		return errors.NewValidationError("num_bins", "must be at least 2", p.NumBins)
	}
	if p.NumBags < 1 {
		return errors.NewValidationError("num_bags", "must be at least 1", p.NumBags)
	}
	if p.Iterations < 1 {
		return errors.NewValidationError("iterations", "must be at least 1", p.Iterations)
	}
	if p.LearningRate <= 0 {
		return errors.NewValidationError("learning_rate", "must be positive", p.LearningRate)
	}
	if p.Subsample <= 0 || p.Subsample > 1 {
		return errors.NewValidationError("subsample", "must be in (0, 1]", p.Subsample)
	}
	if p.Dropout < 0 || p.Dropout >= 1 {
		return errors.NewValidationError("dropout", "must be in [0, 1)", p.Dropout)
	}
	if p.LInfinityCap <= 0 {
		return errors.NewValidationError("linfinity_cap", "must be positive", p.LInfinityCap)
	}
	if p.SmoothingTolerance < 0 {
		return errors.NewValidationError("smoothing_tolerance", "must be non-negative", p.SmoothingTolerance)
	}
	if p.LInfinityThreshold < 0 {
		return errors.NewValidationError("linfinity_threshold", "must be non-negative", p.LInfinityThreshold)
	}
	if p.MinCount < 0 {
		return errors.NewValidationError("min_count", "must be non-negative", p.MinCount)
	}
	if p.Epsilon < 0 {
		return errors.NewValidationError("epsilon", "must be non-negative", p.Epsilon)
	}
	if p.RankKey == "" {
		return errors.NewValidationError("rank_key", "must be set", p.RankKey)
	}
	if p.LossMod < 1 {
		return errors.NewValidationError("loss_mod", "must be positive", p.LossMod)
	}
	return nil
}

// GetParams returns the hyperparameters as a map, mirroring the json keys.
func (p *TrainerParams) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"loss":                p.Loss,
		"num_bins":            p.NumBins,
		"linear_feature":      p.LinearFeatureFamilies,
		"min_count":           p.MinCount,
		"rank_key":            p.RankKey,
		"rank_threshold":      p.RankThreshold,
		"iterations":          p.Iterations,
		"num_bags":            p.NumBags,
		"learning_rate":       p.LearningRate,
		"subsample":           p.Subsample,
		"dropout":             p.Dropout,
		"linfinity_cap":       p.LInfinityCap,
		"epsilon":             p.Epsilon,
		"margin":              p.Margin,
		"rank_margin":         p.RankMargin,
		"smoothing_tolerance": p.SmoothingTolerance,
		"linfinity_threshold": p.LInfinityThreshold,
		"init_model":          p.InitModel,
		"model_output":        p.ModelOutput,
		"prior":               p.Priors,
		"loss_mod":            p.LossMod,
		"seed":                p.Seed,
	}
}

// isLinearFamily reports whether family is configured to use Linear
// functions instead of Splines.
func (p *TrainerParams) isLinearFamily(family string) bool {
	for _, f := range p.LinearFeatureFamilies {
		if f == family {
			return true
		}
	}
	return false
}
