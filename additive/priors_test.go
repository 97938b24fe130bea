package additive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/gamgo/pkg/errors"
)

// TestParsePrior tests one good entry and the malformed shapes.
func TestParsePrior(t *testing.T) {
	prior, err := ParsePrior("geo,lat,2.0,3.0")
	require.NoError(t, err)
	assert.Equal(t, FeatureKey{Family: "geo", Name: "lat"}, prior.Key)
	assert.Equal(t, 2.0, prior.V0)
	assert.Equal(t, 3.0, prior.V1)

	tests := []struct {
		name  string
		entry string
	}{
		{"too few tokens", "bad,entry"},
		{"too many tokens", "a,b,1,2,3"},
		{"v0 not numeric", "a,b,x,2"},
		{"v1 not numeric", "a,b,1,y"},
		{"empty string", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePrior(tt.entry)
			require.Error(t, err)
			var parseErr *errors.PriorParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tt.entry, parseErr.Entry)
		})
	}
}

// TestSeedPriors tests the three per-entry outcomes: applied, malformed and
// collected, or silently skipped for a key without a function.
func TestSeedPriors(t *testing.T) {
	model := NewModel()
	linear := NewLinear()
	model.Put(FeatureKey{Family: "fam", Name: "feat"}, linear, true)

	applied, failures := SeedPriors(model, []string{
		"fam,feat,2.0,3.0",
		"bad,entry",
		"ghost,key,1,1",
	})

	assert.Equal(t, 1, applied)
	require.Len(t, failures, 1)
	var parseErr *errors.PriorParseError
	assert.ErrorAs(t, failures[0], &parseErr)

	// the valid entry replaced the linear coefficients
	assert.Equal(t, []float64{2, 3}, linear.Weights())
	// nothing was created for the unknown key
	assert.Equal(t, 1, model.Len())
}

// TestSeedPriorsSplineRamp tests that a spline prior becomes a ramp over
// the curve's range.
func TestSeedPriorsSplineRamp(t *testing.T) {
	model := NewModel()
	spline, err := NewSpline(0, 1, 5)
	require.NoError(t, err)
	model.Put(FeatureKey{Family: "geo", Name: "lat"}, spline, true)

	applied, failures := SeedPriors(model, []string{"geo,lat,-1.0,1.0"})
	assert.Equal(t, 1, applied)
	assert.Empty(t, failures)

	assert.InDelta(t, -1.0, spline.W[0], 1e-12)
	assert.InDelta(t, 0.0, spline.W[2], 1e-12)
	assert.InDelta(t, 1.0, spline.W[4], 1e-12)
}
