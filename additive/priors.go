package additive

import (
	"strconv"
	"strings"

	"github.com/YuminosukeSato/gamgo/pkg/errors"
	"github.com/YuminosukeSato/gamgo/pkg/log"
)

// Prior is a parsed weight override for one feature function.
type Prior struct {
	Key FeatureKey
	V0  float64
	V1  float64
}

// ParsePrior parses one "family,name,v0,v1" entry. Each entry is parsed
// independently so one malformed string never hides the state of the others.
func ParsePrior(entry string) (Prior, error) {
	tokens := strings.Split(entry, ",")
	if len(tokens) != 4 {
		return Prior{}, errors.NewPriorParseError(entry, "expected 4 comma-separated tokens")
	}
	v0, err := strconv.ParseFloat(tokens[2], 64)
	if err != nil {
		return Prior{}, errors.NewPriorParseError(entry, "v0 is not a number")
	}
	v1, err := strconv.ParseFloat(tokens[3], 64)
	if err != nil {
		return Prior{}, errors.NewPriorParseError(entry, "v1 is not a number")
	}
	return Prior{
		Key: FeatureKey{Family: tokens[0], Name: tokens[1]},
		V0:  v0,
		V1:  v1,
	}, nil
}

// SeedPriors applies the prior entries to the model. Malformed entries are
// reported as warnings and skipped; entries naming a key without a function
// are skipped silently. It returns the number of functions overwritten and
// the parse failures, so callers can surface per-entry diagnostics.
//
// Priors only run when a model is created fresh, never when extending a
// loaded artifact; the trainer enforces that.
func SeedPriors(model *Model, entries []string) (applied int, failures []error) {
	logger := log.GetLoggerWithName("additive.priors")
	for _, entry := range entries {
		prior, err := ParsePrior(entry)
		if err != nil {
			failures = append(failures, err)
			errors.Warn(err)
			logger.Warn("skipping malformed prior",
				log.ErrorCodeKey, log.ErrorMalformedPrior,
				"entry", entry,
				"err", err,
			)
			continue
		}
		fn, ok := model.Get(prior.Key)
		if !ok {
			continue
		}
		fn.SetPriors(prior.V0, prior.V1)
		applied++
	}
	if applied > 0 {
		logger.Info("priors applied", "applied", applied, "entries", len(entries))
	}
	return applied, failures
}
