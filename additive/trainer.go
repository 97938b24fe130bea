package additive

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	coremodel "github.com/YuminosukeSato/gamgo/core/model"
	"github.com/YuminosukeSato/gamgo/core/parallel"
	"github.com/YuminosukeSato/gamgo/pkg/errors"
	"github.com/YuminosukeSato/gamgo/pkg/log"
)

// Trainer fits an additive model with bagged stochastic gradient descent.
//
// Each iteration draws a Bernoulli subsample of the examples, partitions it
// into independent bags, trains one deep-cloned replica of the model per bag
// concurrently, then averages the replicas back into the live model. The
// live model is only ever touched between iterations, after all bags have
// finished; workers see an immutable snapshot.
type Trainer struct {
	// Training parameters
	params TrainerParams

	// Model state
	model *Model
	state *coremodel.StateManager

	// Objective function
	loss LossFunction

	// Mean training loss per completed iteration
	lossHistory []float64

	// Driver-level randomness for sampling and bag partitioning
	rng *rand.Rand

	// Run identity for log correlation
	runID string

	logger log.Logger
}

var (
	_ coremodel.ParameterGetter = (*Trainer)(nil)
	_ coremodel.OnlineMetrics   = (*Trainer)(nil)
	_ coremodel.Validator       = (*TrainerParams)(nil)
)

// Batches below this many examples are scored on the calling goroutine.
const parallelThreshold = 256

// NewTrainer creates a trainer, fills defaults for the optional parameters
// and validates the rest. Configuration problems are returned as
// distinguished errors so the embedding program decides how to fail.
func NewTrainer(params TrainerParams) (*Trainer, error) {
	// Set default values
	if params.LossMod == 0 {
		params.LossMod = 100
	}
	if params.Margin == 0 {
		params.Margin = 1.0
	}
	if params.RankMargin == 0 {
		params.RankMargin = 0.5
	}
	if params.Subsample == 0 {
		params.Subsample = 1.0
	}
	if params.NumBags == 0 {
		params.NumBags = 1
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}

	lossFunc, err := CreateLossFunction(params.Loss, &params)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	return &Trainer{
		params: params,
		model:  NewModel(),
		state:  coremodel.NewStateManager(),
		loss:   lossFunc,
		rng:    rand.New(rand.NewPCG(uint64(params.Seed), uint64(params.Seed))),
		runID:  runID,
		logger: log.GetLoggerWithName("additive.trainer").With(
			log.EstimatorIDKey, runID,
			log.ModelNameKey, "additive",
		),
	}, nil
}

// RunID returns the unique identifier of this training run.
func (t *Trainer) RunID() string {
	return t.runID
}

// Fit trains the additive model on the given examples. A panic anywhere in
// the run surfaces as a single PanicError instead of tearing down the caller.
func (t *Trainer) Fit(examples []Example) (err error) {
	defer errors.Recover(&err, "Trainer.Fit")

	if len(examples) == 0 {
		return errors.NewModelError("Trainer.Fit", "no training examples", errors.ErrEmptyData)
	}

	start := time.Now()
	t.logger.Info("training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, len(examples),
		log.LearningRateKey, t.params.LearningRate,
		log.DropoutKey, t.params.Dropout,
		log.SubsampleKey, t.params.Subsample,
		"loss", t.loss.Name(),
		"num_bags", t.params.NumBags,
		"iterations", t.params.Iterations,
	)

	if err := t.initModel(examples); err != nil {
		return fmt.Errorf("model initialization failed: %w", err)
	}

	for iter := 1; iter <= t.params.Iterations; iter++ {
		if err := t.runIteration(iter, examples); err != nil {
			return fmt.Errorf("iteration %d failed: %w", iter, err)
		}
	}

	t.warnIfNotConverged()

	t.state.SetDimensions(t.model.Len(), len(examples))
	t.state.SetFitted()

	t.logger.Info("training complete",
		log.OperationKey, log.OperationFit,
		log.FeaturesKey, t.model.Len(),
		log.FamiliesKey, t.model.NumFamilies(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// initModel builds a fresh model or extends a loaded artifact. Priors only
// apply to a fresh model; a loaded model keeps its trained functions and
// only gains functions for keys it does not have yet.
func (t *Trainer) initModel(examples []Example) error {
	fresh := t.params.InitModel == ""
	if fresh {
		t.model = NewModel()
	} else {
		loaded, err := LoadModelFile(t.params.InitModel)
		if err != nil {
			return err
		}
		t.model = loaded
		t.logger.Info("extending loaded model",
			"init_model", t.params.InitModel,
			log.FeaturesKey, t.model.Len(),
		)
	}

	initializer := NewInitializer(&t.params)
	if err := initializer.Initialize(t.model, examples, fresh); err != nil {
		return err
	}

	if fresh && len(t.params.Priors) > 0 {
		applied, failures := SeedPriors(t.model, t.params.Priors)
		if len(failures) > 0 {
			t.logger.Warn("some priors were malformed",
				"applied", applied,
				"failed", len(failures),
			)
		}
	}
	return nil
}

// runIteration executes one round of sample, bag, per-bag SGD, aggregate,
// prune and checkpoint.
func (t *Trainer) runIteration(iter int, examples []Example) error {
	start := time.Now()

	sampled := t.subsample(examples)
	if len(sampled) == 0 {
		t.logger.Warn("subsample produced no examples, skipping iteration",
			log.IterationKey, iter,
		)
		return nil
	}

	bags := t.partitionBags(sampled)
	snapshot := t.model.Clone()

	results := make([]map[FeatureKey]Function, len(bags))
	bagLosses := make([]float64, len(bags))
	bagCounts := make([]int, len(bags))

	var g errgroup.Group
	for b := range bags {
		g.Go(func() (err error) {
			defer errors.Recover(&err, "train bag")
			local, lossSum, count, err := t.trainBag(iter, b, bags[b], snapshot)
			if err != nil {
				return err
			}
			results[b] = local
			bagLosses[b] = lossSum
			bagCounts[b] = count
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	smoothed, err := t.aggregate(results)
	if err != nil {
		return err
	}

	pruned := NewPruner(t.params.LInfinityThreshold).Prune(t.model)

	totalLoss := 0.0
	totalCount := 0
	for i := range bagLosses {
		totalLoss += bagLosses[i]
		totalCount += bagCounts[i]
	}
	meanLoss := errors.SafeDivide(totalLoss, float64(totalCount))
	if err := errors.CheckScalar("mean training loss", meanLoss, iter); err != nil {
		return err
	}
	t.lossHistory = append(t.lossHistory, meanLoss)

	if t.params.ModelOutput != "" {
		if err := t.model.Save(t.params.ModelOutput); err != nil {
			return err
		}
		t.logger.Debug("checkpoint written",
			log.OperationKey, log.OperationCheckpoint,
			log.IterationKey, iter,
			log.CheckpointPathKey, t.params.ModelOutput,
		)
	}

	t.logger.Info("iteration complete",
		log.IterationKey, iter,
		log.LossKey, meanLoss,
		log.SamplesKey, len(sampled),
		log.FeaturesKey, t.model.Len(),
		log.SmoothedKey, smoothed,
		log.PrunedKey, pruned,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// subsample draws a Bernoulli sample: each example is independently included
// with probability subsample.
func (t *Trainer) subsample(examples []Example) []Example {
	if t.params.Subsample >= 1 {
		return examples
	}
	sampled := make([]Example, 0, int(float64(len(examples))*t.params.Subsample)+1)
	for _, e := range examples {
		if t.rng.Float64() < t.params.Subsample {
			sampled = append(sampled, e)
		}
	}
	return sampled
}

// partitionBags shuffles the sampled examples and splits them into num_bags
// contiguous chunks; the first remainder bags receive one extra example.
func (t *Trainer) partitionBags(examples []Example) [][]Example {
	numBags := t.params.NumBags
	indices := t.rng.Perm(len(examples))

	bagSize := len(examples) / numBags
	remainder := len(examples) % numBags

	bags := make([][]Example, numBags)
	cursor := 0
	for b := 0; b < numBags; b++ {
		size := bagSize
		if b < remainder {
			size++
		}
		bag := make([]Example, 0, size)
		for i := 0; i < size; i++ {
			bag = append(bag, examples[indices[cursor]])
			cursor++
		}
		bags[b] = bag
	}
	return bags
}

// trainBag sequentially applies online SGD over one bag against a private
// deep copy of the snapshot's functions. The snapshot is never mutated, so a
// failed bag can be re-run without double-counting anything. A non-finite
// prediction aborts the bag: it means the weights themselves have exploded.
func (t *Trainer) trainBag(iter, bag int, examples []Example, snapshot *Model) (map[FeatureKey]Function, float64, int, error) {
	local := snapshot.Clone()
	rng := rand.New(rand.NewPCG(uint64(t.params.Seed)+uint64(iter), uint64(bag)+1))

	logger := t.logger.With(log.IterationKey, iter, log.BagKey, bag)

	lossSum := 0.0
	count := 0
	for _, example := range examples {
		raw, ok := example.Label(t.params.RankKey)
		if !ok {
			continue
		}
		label := raw
		if t.loss.RequiresBinaryLabel() {
			label = BinaryLabel(raw, t.params.RankThreshold)
		}

		flat := example.FlattenWithDropout(rng, t.params.Dropout)
		prediction := local.Score(flat) / (1 - t.params.Dropout)
		if err := errors.CheckScalar("bag prediction", prediction, iter); err != nil {
			return nil, 0, 0, err
		}

		lossSum += t.loss.Loss(prediction, label)
		count++

		if grad := t.loss.Gradient(prediction, label); grad != 0 {
			local.Update(grad, t.params.LearningRate, t.params.LInfinityCap, flat)
		}

		if count%t.params.LossMod == 0 {
			logger.Info("running loss",
				log.LossKey, lossSum/float64(count),
				log.SamplesKey, count,
			)
		}
	}
	return local.Functions, lossSum, count, nil
}

// aggregate averages the bag replicas per feature key, conditionally smooths
// aggregated splines, and writes the result back into the live model. Keys
// no longer present in the live model are dropped silently.
func (t *Trainer) aggregate(results []map[FeatureKey]Function) (int, error) {
	smoother := NewSmoother(t.params.SmoothingTolerance)

	aggregated := make(map[FeatureKey]Function, len(results[0]))
	smoothed := 0
	for key := range results[0] {
		copies := make([]Function, 0, len(results))
		for _, result := range results {
			if fn, ok := result[key]; ok {
				copies = append(copies, fn)
			}
		}
		mean := MeanFunction(copies)
		if t.params.SmoothingTolerance > 0 {
			if spline, ok := mean.(*Spline); ok {
				replaced, err := smoother.Smooth(spline)
				if err != nil {
					return 0, err
				}
				if replaced {
					smoothed++
				}
			}
		}
		aggregated[key] = mean
	}

	t.model.WriteBack(aggregated)
	return smoothed, nil
}

// Converged reports whether the final iteration's mean loss improved on the
// first. It is false before Fit and for single-iteration runs.
func (t *Trainer) Converged() bool {
	n := len(t.lossHistory)
	return n >= 2 && t.lossHistory[n-1] < t.lossHistory[0]
}

// warnIfNotConverged raises a convergence warning when the final iteration's
// mean loss has not improved on the first.
func (t *Trainer) warnIfNotConverged() {
	if len(t.lossHistory) < 2 {
		return
	}
	if !t.Converged() {
		errors.Warn(errors.NewConvergenceWarning("additive-sgd", t.params.Iterations,
			"final loss did not improve on the first iteration"))
	}
}

// Predict scores one example with the trained model. Dropout rescaling is
// already baked into the trained weights, so no correction is applied here.
func (t *Trainer) Predict(example Example) (float64, error) {
	if !t.state.IsFitted() {
		return 0, errors.NewNotFittedError("AdditiveTrainer", "Predict")
	}
	return t.model.Score(example.Flatten()), nil
}

// PredictBatch scores a slice of examples, splitting the work across
// goroutines once the batch is large enough to pay for them.
func (t *Trainer) PredictBatch(examples []Example) ([]float64, error) {
	if !t.state.IsFitted() {
		return nil, errors.NewNotFittedError("AdditiveTrainer", "PredictBatch")
	}
	if len(examples) == 0 {
		return nil, errors.NewModelError("Trainer.PredictBatch", "no examples", errors.ErrEmptyData)
	}

	predictions := make([]float64, len(examples))
	parallel.ParallelizeWithThreshold(len(examples), parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			predictions[i] = t.model.Score(examples[i].Flatten())
		}
	})
	return predictions, nil
}

// Score returns the mean loss of the trained model over the examples.
func (t *Trainer) Score(examples []Example) (float64, error) {
	if !t.state.IsFitted() {
		return 0, errors.NewNotFittedError("AdditiveTrainer", "Score")
	}
	if len(examples) == 0 {
		return 0, errors.NewModelError("Trainer.Score", "no examples", errors.ErrEmptyData)
	}

	losses := make([]float64, len(examples))
	labeled := make([]bool, len(examples))
	parallel.ParallelizeWithThreshold(len(examples), parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			raw, ok := examples[i].Label(t.params.RankKey)
			if !ok {
				continue
			}
			label := raw
			if t.loss.RequiresBinaryLabel() {
				label = BinaryLabel(raw, t.params.RankThreshold)
			}
			losses[i] = t.loss.Loss(t.model.Score(examples[i].Flatten()), label)
			labeled[i] = true
		}
	})

	sum := 0.0
	count := 0
	for i := range losses {
		if labeled[i] {
			sum += losses[i]
			count++
		}
	}
	if count == 0 {
		return 0, errors.NewModelError("Trainer.Score", "no labeled examples", errors.ErrEmptyData)
	}
	return sum / float64(count), nil
}

// Model returns the trained model.
func (t *Trainer) Model() (*Model, error) {
	if err := t.state.RequireFitted(); err != nil {
		return nil, errors.NewNotFittedError("AdditiveTrainer", "Model")
	}
	return t.model, nil
}

// LossHistory returns the mean training loss per completed iteration.
func (t *Trainer) LossHistory() []float64 {
	out := make([]float64, len(t.lossHistory))
	copy(out, t.lossHistory)
	return out
}

// GetParams returns the trainer's hyperparameters.
func (t *Trainer) GetParams() map[string]interface{} {
	return t.params.GetParams()
}
