package additive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInitializerCreatesFunctionsPerFeature tests the function shape per
// family: splines over the observed range, identity linears for configured
// families, and never anything for the rank key.
func TestInitializerCreatesFunctionsPerFeature(t *testing.T) {
	params := validParams()
	params.LinearFeatureFamilies = []string{"listing"}

	examples := []Example{
		NewExample(FeatureVector{
			"$rank":   {"": 1.0},
			"geo":     {"lat": 10, "lng": -3},
			"listing": {"entire_home": 1},
		}),
		NewExample(FeatureVector{
			"$rank": {"": 0.0},
			"geo":   {"lat": 20, "lng": 4},
		}),
	}

	model := NewModel()
	require.NoError(t, NewInitializer(&params).Initialize(model, examples, true))

	// the rank key family holds labels, not features
	_, ok := model.Get(FeatureKey{Family: "$rank", Name: ""})
	assert.False(t, ok)

	// spline families span the observed value range
	fn, ok := model.Get(FeatureKey{Family: "geo", Name: "lat"})
	require.True(t, ok)
	require.Equal(t, FunctionSpline, fn.Type())
	spline := fn.(*Spline)
	assert.Equal(t, 10.0, spline.Min)
	assert.Equal(t, 20.0, spline.Max)
	assert.Len(t, spline.W, params.NumBins)

	// configured families get identity-initialized linear functions
	fn, ok = model.Get(FeatureKey{Family: "listing", Name: "entire_home"})
	require.True(t, ok)
	require.Equal(t, FunctionLinear, fn.Type())
	assert.Equal(t, []float64{0, 1}, fn.Weights())

	assert.Equal(t, 3, model.Len())
}

// TestInitializerMinCount tests that rarely seen features are dropped.
func TestInitializerMinCount(t *testing.T) {
	params := validParams()
	params.MinCount = 2

	examples := []Example{
		NewExample(FeatureVector{
			"$rank": {"": 1.0},
			"geo":   {"common": 1, "rare": 1},
		}),
		NewExample(FeatureVector{
			"$rank": {"": 0.0},
			"geo":   {"common": 2},
		}),
	}

	model := NewModel()
	require.NoError(t, NewInitializer(&params).Initialize(model, examples, true))

	_, ok := model.Get(FeatureKey{Family: "geo", Name: "common"})
	assert.True(t, ok)
	_, ok = model.Get(FeatureKey{Family: "geo", Name: "rare"})
	assert.False(t, ok)
}

// TestInitializerPreservesLoadedFunctions tests the warm-start path: with
// overwrite off, trained functions survive and only missing keys are added.
func TestInitializerPreservesLoadedFunctions(t *testing.T) {
	params := validParams()

	model := NewModel()
	trained, err := NewSpline(0, 1, params.NumBins)
	require.NoError(t, err)
	weights := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	require.NoError(t, trained.SetWeights(weights))
	key := FeatureKey{Family: "geo", Name: "lat"}
	model.Put(key, trained, true)

	examples := []Example{
		NewExample(FeatureVector{
			"$rank": {"": 1.0},
			"geo":   {"lat": 0.5, "lng": 1},
		}),
	}
	require.NoError(t, NewInitializer(&params).Initialize(model, examples, false))

	fn, ok := model.Get(key)
	require.True(t, ok)
	assert.Equal(t, weights, fn.Weights())

	_, ok = model.Get(FeatureKey{Family: "geo", Name: "lng"})
	assert.True(t, ok)
}

// TestInitializerConstantFeature tests that a feature observed at a single
// value still gets a usable spline.
func TestInitializerConstantFeature(t *testing.T) {
	params := validParams()

	examples := []Example{
		NewExample(FeatureVector{"$rank": {"": 1.0}, "geo": {"lat": 7}}),
		NewExample(FeatureVector{"$rank": {"": 0.0}, "geo": {"lat": 7}}),
	}

	model := NewModel()
	require.NoError(t, NewInitializer(&params).Initialize(model, examples, true))

	fn, ok := model.Get(FeatureKey{Family: "geo", Name: "lat"})
	require.True(t, ok)
	spline := fn.(*Spline)
	assert.Equal(t, 7.0, spline.Min)
	assert.Equal(t, 8.0, spline.Max)
	assert.NotPanics(t, func() { fn.Evaluate(7) })
}
