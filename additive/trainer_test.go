package additive

import (
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/gamgo/pkg/errors"
	"github.com/YuminosukeSato/gamgo/pkg/log"
)

func TestMain(m *testing.M) {
	log.SetLevel(log.LevelError)
	goleak.VerifyTestMain(m)
}

// regressionExamples builds labeled examples with label = 2*x over a grid
// of x in [0, 1].
func regressionExamples(n int) []Example {
	examples := make([]Example, 0, n)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)
		examples = append(examples, NewExample(FeatureVector{
			"$rank": {"": 2 * x},
			"num":   {"x": x},
		}))
	}
	return examples
}

// TestNewTrainerDefaults tests default filling and validation order.
func TestNewTrainerDefaults(t *testing.T) {
	trainer, err := NewTrainer(TrainerParams{
		Loss:         "regression",
		NumBins:      8,
		RankKey:      "$rank",
		Iterations:   1,
		LearningRate: 0.1,
		LInfinityCap: 1.0,
	})
	require.NoError(t, err)

	params := trainer.GetParams()
	assert.Equal(t, 100, params["loss_mod"])
	assert.Equal(t, 1.0, params["margin"])
	assert.Equal(t, 0.5, params["rank_margin"])
	assert.Equal(t, 1.0, params["subsample"])
	assert.Equal(t, 1, params["num_bags"])
	assert.NotEmpty(t, trainer.RunID())
}

// TestNewTrainerRejectsUnknownLoss tests the configuration error path.
func TestNewTrainerRejectsUnknownLoss(t *testing.T) {
	params := validParams()
	params.Loss = "squared"
	_, err := NewTrainer(params)
	require.Error(t, err)
	var unknown *errors.UnknownLossError
	assert.ErrorAs(t, err, &unknown)
}

// TestNewTrainerRejectsInvalidParams tests that validation errors surface
// as values, not process exits.
func TestNewTrainerRejectsInvalidParams(t *testing.T) {
	params := validParams()
	params.LearningRate = -1
	_, err := NewTrainer(params)
	require.Error(t, err)
	var validation *errors.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "learning_rate", validation.ParamName)
}

// TestFitRegressionLearnsMonotoneCurve tests the end-to-end loop on
// label = 2*x: the learned transfer function must slope upward and the
// training loss must come down.
func TestFitRegressionLearnsMonotoneCurve(t *testing.T) {
	params := validParams()
	params.Iterations = 50
	params.LearningRate = 0.05
	params.LInfinityCap = 10
	params.Seed = 42

	trainer, err := NewTrainer(params)
	require.NoError(t, err)
	require.NoError(t, trainer.Fit(regressionExamples(200)))

	model, err := trainer.Model()
	require.NoError(t, err)
	fn, ok := model.Get(FeatureKey{Family: "num", Name: "x"})
	require.True(t, ok)

	assert.Greater(t, fn.Evaluate(0.95), fn.Evaluate(0.05))

	history := trainer.LossHistory()
	require.Len(t, history, 50)
	assert.Less(t, history[len(history)-1], history[0])
}

// TestFitLogisticSeparatesClasses tests binary training on two noisy
// clusters: the score must be positive where positives live and negative
// where negatives live.
func TestFitLogisticSeparatesClasses(t *testing.T) {
	pos := distuv.Normal{Mu: 0.8, Sigma: 0.05, Src: rand.NewPCG(7, 7)}
	neg := distuv.Normal{Mu: 0.2, Sigma: 0.05, Src: rand.NewPCG(8, 8)}
	examples := make([]Example, 0, 300)
	for i := 0; i < 150; i++ {
		examples = append(examples,
			NewExample(FeatureVector{"$rank": {"": 1.0}, "sig": {"x": pos.Rand()}}),
			NewExample(FeatureVector{"$rank": {"": 0.0}, "sig": {"x": neg.Rand()}}),
		)
	}

	trainer, err := NewTrainer(TrainerParams{
		Loss:          "logistic",
		NumBins:       8,
		RankKey:       "$rank",
		RankThreshold: 0.5,
		Iterations:    20,
		NumBags:       2,
		LearningRate:  0.1,
		LInfinityCap:  5,
		Seed:          1,
	})
	require.NoError(t, err)
	require.NoError(t, trainer.Fit(examples))

	high, err := trainer.Predict(NewExample(FeatureVector{"sig": {"x": 0.8}}))
	require.NoError(t, err)
	low, err := trainer.Predict(NewExample(FeatureVector{"sig": {"x": 0.2}}))
	require.NoError(t, err)

	assert.Greater(t, high, 0.0)
	assert.Less(t, low, 0.0)
}

// TestFitDeterministicForFixedSeed tests that sampling, bagging and dropout
// all derive from the seed: two identical runs produce identical loss
// histories and identical models.
func TestFitDeterministicForFixedSeed(t *testing.T) {
	run := func() *Trainer {
		params := validParams()
		params.Iterations = 5
		params.NumBags = 3
		params.Subsample = 0.7
		params.Dropout = 0.2
		params.Seed = 99

		trainer, err := NewTrainer(params)
		require.NoError(t, err)
		require.NoError(t, trainer.Fit(regressionExamples(100)))
		return trainer
	}

	first := run()
	second := run()
	assert.Equal(t, first.LossHistory(), second.LossHistory())

	probe := NewExample(FeatureVector{"num": {"x": 0.4}})
	p1, err := first.Predict(probe)
	require.NoError(t, err)
	p2, err := second.Predict(probe)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}

// TestFitWithDropout tests that dropout training stays finite and fitted.
func TestFitWithDropout(t *testing.T) {
	params := validParams()
	params.Iterations = 5
	params.Dropout = 0.3
	params.Seed = 3

	trainer, err := NewTrainer(params)
	require.NoError(t, err)
	require.NoError(t, trainer.Fit(regressionExamples(100)))

	for _, v := range trainer.LossHistory() {
		assert.False(t, math.IsNaN(v))
		assert.False(t, math.IsInf(v, 0))
	}
}

// TestFitWritesCheckpoint tests that the model artifact on disk scores
// identically to the in-memory model.
func TestFitWritesCheckpoint(t *testing.T) {
	out := filepath.Join(t.TempDir(), "model.gob")
	params := validParams()
	params.Iterations = 2
	params.ModelOutput = out

	trainer, err := NewTrainer(params)
	require.NoError(t, err)
	require.NoError(t, trainer.Fit(regressionExamples(50)))

	loaded, err := LoadModelFile(out)
	require.NoError(t, err)

	model, err := trainer.Model()
	require.NoError(t, err)
	assert.Equal(t, model.Len(), loaded.Len())

	flat := []FlatFeature{{Family: "num", Name: "x", Value: 0.4}}
	assert.InDelta(t, model.Score(flat), loaded.Score(flat), 1e-12)
}

// TestFitExtendsInitModel tests warm starting: trained functions are
// preserved and only new features gain functions.
func TestFitExtendsInitModel(t *testing.T) {
	warm := filepath.Join(t.TempDir(), "warm.gob")

	params := validParams()
	params.Iterations = 30
	params.LearningRate = 0.05
	params.ModelOutput = warm
	first, err := NewTrainer(params)
	require.NoError(t, err)
	require.NoError(t, first.Fit(regressionExamples(100)))
	firstModel, err := first.Model()
	require.NoError(t, err)
	fn, ok := firstModel.Get(FeatureKey{Family: "num", Name: "x"})
	require.True(t, ok)
	trainedValue := fn.Evaluate(0.4)

	// second run loads the artifact; its data has an extra family
	extended := make([]Example, 0, 100)
	for i := 0; i < 100; i++ {
		x := float64(i) / 99
		extended = append(extended, NewExample(FeatureVector{
			"$rank": {"": 2 * x},
			"num":   {"x": x},
			"extra": {"y": 1 - x},
		}))
	}

	params2 := validParams()
	params2.Iterations = 1
	params2.LearningRate = 1e-9
	params2.InitModel = warm
	second, err := NewTrainer(params2)
	require.NoError(t, err)
	require.NoError(t, second.Fit(extended))

	secondModel, err := second.Model()
	require.NoError(t, err)

	// the warm function was not re-initialized
	fn, ok = secondModel.Get(FeatureKey{Family: "num", Name: "x"})
	require.True(t, ok)
	assert.InDelta(t, trainedValue, fn.Evaluate(0.4), 1e-3)

	// the new family gained a function
	_, ok = secondModel.Get(FeatureKey{Family: "extra", Name: "y"})
	assert.True(t, ok)
}

// TestFitAppliesPriors tests prior seeding through Fit: the valid entry
// shows up in the model and the malformed one does not abort training.
func TestFitAppliesPriors(t *testing.T) {
	params := validParams()
	params.LearningRate = 1e-9
	params.Priors = []string{"num,x,1.0,1.0", "bad,entry"}

	trainer, err := NewTrainer(params)
	require.NoError(t, err)
	require.NoError(t, trainer.Fit(regressionExamples(10)))

	model, err := trainer.Model()
	require.NoError(t, err)
	fn, ok := model.Get(FeatureKey{Family: "num", Name: "x"})
	require.True(t, ok)
	assert.InDelta(t, 1.0, fn.Evaluate(0.5), 1e-3)
}

// TestFitEmptyExamples tests the empty-input error.
func TestFitEmptyExamples(t *testing.T) {
	trainer, err := NewTrainer(validParams())
	require.NoError(t, err)

	err = trainer.Fit(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrEmptyData)
}

// TestFitAbortsOnNumericalInstability tests that a bag whose prediction
// overflows stops the run with a typed error instead of averaging garbage.
func TestFitAbortsOnNumericalInstability(t *testing.T) {
	params := validParams()
	params.LearningRate = 1e308
	params.LInfinityCap = 1e308

	trainer, err := NewTrainer(params)
	require.NoError(t, err)

	// Two identical examples: the first update pushes both weights to 1e308,
	// so the second example's summed prediction overflows to +Inf.
	example := Example{Vectors: []FeatureVector{{
		"$rank": {"": 5},
		"num":   {"a": 1, "b": 1},
	}}}

	err = trainer.Fit([]Example{example, example})
	require.Error(t, err)

	var instability *errors.NumericalInstabilityError
	assert.ErrorAs(t, err, &instability)
}

// TestPredictBeforeFit tests the not-fitted guards on the read paths.
func TestPredictBeforeFit(t *testing.T) {
	trainer, err := NewTrainer(validParams())
	require.NoError(t, err)

	_, err = trainer.Predict(NewExample(FeatureVector{"num": {"x": 1}}))
	require.Error(t, err)
	var notFitted *errors.NotFittedError
	assert.ErrorAs(t, err, &notFitted)

	_, err = trainer.Model()
	assert.Error(t, err)

	_, err = trainer.Score(regressionExamples(3))
	assert.Error(t, err)

	_, err = trainer.PredictBatch(regressionExamples(3))
	assert.Error(t, err)
}

// TestScoreAfterFit tests mean-loss evaluation on held data.
func TestScoreAfterFit(t *testing.T) {
	params := validParams()
	params.Iterations = 50
	params.LearningRate = 0.05
	params.LInfinityCap = 10

	trainer, err := NewTrainer(params)
	require.NoError(t, err)
	examples := regressionExamples(200)
	require.NoError(t, trainer.Fit(examples))

	score, err := trainer.Score(examples)
	require.NoError(t, err)
	assert.Less(t, score, 0.2)

	// examples without a label are excluded; all-unlabeled input errors
	_, err = trainer.Score([]Example{NewExample(FeatureVector{"num": {"x": 0.5}})})
	assert.Error(t, err)
}

// TestPredictBatchMatchesPredict tests that batch scoring agrees with the
// single-example path, including above the parallel threshold.
func TestPredictBatchMatchesPredict(t *testing.T) {
	params := validParams()
	params.Iterations = 10
	trainer, err := NewTrainer(params)
	require.NoError(t, err)
	require.NoError(t, trainer.Fit(regressionExamples(50)))

	holdout := regressionExamples(parallelThreshold + 40)
	batch, err := trainer.PredictBatch(holdout)
	require.NoError(t, err)
	require.Len(t, batch, len(holdout))

	for i, example := range holdout {
		single, err := trainer.Predict(example)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
	}

	_, err = trainer.PredictBatch(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrEmptyData)
}

// TestFitWarnsWhenLossDoesNotImprove tests the convergence warning on data
// that is perfectly fit from the start.
func TestFitWarnsWhenLossDoesNotImprove(t *testing.T) {
	var warned []error
	errors.SetWarningHandler(func(w error) {
		warned = append(warned, w)
	})
	defer errors.SetWarningHandler(nil)

	// all labels are zero, so the zero-initialized model is already exact
	// and the loss stays at zero across both iterations
	examples := make([]Example, 0, 20)
	for i := 0; i < 20; i++ {
		examples = append(examples, NewExample(FeatureVector{
			"$rank": {"": 0.0},
			"num":   {"x": float64(i) / 19},
		}))
	}

	params := validParams()
	params.Iterations = 2
	trainer, err := NewTrainer(params)
	require.NoError(t, err)
	require.NoError(t, trainer.Fit(examples))

	require.NotEmpty(t, warned)
	var conv *errors.ConvergenceWarning
	assert.ErrorAs(t, warned[len(warned)-1], &conv)
}

// TestFitPrunesDormantFeatures tests that a feature the gradient never
// touches is pruned once a threshold is configured.
func TestFitPrunesDormantFeatures(t *testing.T) {
	// the dormant family only appears on perfectly predicted examples
	examples := make([]Example, 0, 40)
	for i := 0; i < 40; i++ {
		x := float64(i) / 39
		examples = append(examples, NewExample(FeatureVector{
			"$rank": {"": 0.0},
			"num":   {"x": x},
		}))
	}

	params := validParams()
	params.Iterations = 1
	params.LInfinityThreshold = 1e-6
	trainer, err := NewTrainer(params)
	require.NoError(t, err)
	require.NoError(t, trainer.Fit(examples))

	model, err := trainer.Model()
	require.NoError(t, err)
	// labels are all zero, so num:x never receives an update and its
	// zero-weight spline falls below the prune threshold
	_, ok := model.Get(FeatureKey{Family: "num", Name: "x"})
	assert.False(t, ok)
	assert.Equal(t, 0, model.Len())
}

// TestFitLogsIterationSummary tests the structured training log stream
// through a swapped-in capturing provider.
func TestFitLogsIterationSummary(t *testing.T) {
	provider, _ := log.NewTestLoggerProvider(log.LevelDebug)
	log.SetProvider(provider)
	defer log.SetProvider(log.NewZerologProvider(os.Stderr, log.LevelError))

	params := validParams()
	params.Iterations = 2
	trainer, err := NewTrainer(params)
	require.NoError(t, err)
	require.NoError(t, trainer.Fit(regressionExamples(30)))

	logger, ok := provider.GetLogger().(*log.TestLogger)
	require.True(t, ok)
	assert.True(t, logger.ContainsMessage("training started"))
	assert.True(t, logger.ContainsMessage("iteration complete"))
	assert.True(t, logger.ContainsMessage("training complete"))
	// JSON numbers come back as float64
	assert.True(t, logger.ContainsField(log.IterationKey, float64(2)))
	assert.True(t, logger.ContainsField(log.EstimatorIDKey, trainer.RunID()))
}
