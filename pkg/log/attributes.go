// Package log defines standard attribute keys for training operations.
//
// Using these keys consistently across the trainer, initializer and model
// packages keeps the JSON log stream filterable: every record that touches a
// training run carries the same identifiers for run, iteration, bag and
// component. The keys follow a hierarchical naming convention (e.g.
// "model.name", "data.examples") to support structured log analysis.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the model family being trained or scored.
	// Examples: "additive", "spline", "linear"
	ModelNameKey = "model.name"

	// EstimatorIDKey is a unique identifier for one training run or model
	// instance, typically a UUID assigned when the trainer starts.
	EstimatorIDKey = "estimator.id"

	// OperationKey names the operation being performed.
	// Standard values: "fit", "predict", "score", "aggregate", "checkpoint"
	OperationKey = "ml.operation"

	// ComponentKey identifies the package or subsystem emitting the record.
	// Examples: "additive.trainer", "additive.initializer", "metrics"
	ComponentKey = "ml.component"

	// PhaseKey indicates the lifecycle phase of the run.
	// Examples: "initialization", "training", "aggregation", "inference"
	PhaseKey = "ml.phase"
)

// Data shape.
const (
	// SamplesKey is the number of training examples in play.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of feature functions in the model.
	FeaturesKey = "data.features"

	// FamiliesKey is the number of distinct feature families observed.
	FamiliesKey = "data.families"
)

// Training progress and performance.
const (
	// DurationMsKey records elapsed wall time for an operation in
	// milliseconds.
	DurationMsKey = "perf.duration_ms"

	// LossKey records the mean loss for an iteration or bag.
	LossKey = "metrics.loss"

	// IterationKey is the outer training iteration, starting at 1.
	IterationKey = "training.iteration"

	// BagKey identifies one bag within an iteration, starting at 0.
	BagKey = "training.bag"

	// PrunedKey counts feature functions removed by the pruner.
	PrunedKey = "training.pruned"

	// SmoothedKey counts spline functions replaced by the smoother.
	SmoothedKey = "training.smoothed"

	// CheckpointPathKey is the file a model snapshot was written to.
	CheckpointPathKey = "training.checkpoint_path"
)

// Hyperparameters and configuration.
const (
	// LearningRateKey records the SGD step size.
	LearningRateKey = "hyperparams.learning_rate"

	// DropoutKey records the per-feature dropout probability.
	DropoutKey = "hyperparams.dropout"

	// SubsampleKey records the Bernoulli subsampling rate.
	SubsampleKey = "hyperparams.subsample"

	// RandomSeedKey records the seed used for reproducible runs.
	RandomSeedKey = "config.random_seed"
)

// Error context.
const (
	// ErrorCodeKey is a structured code for programmatic handling.
	// Examples: "NOT_FITTED", "UNKNOWN_LOSS", "MALFORMED_PRIOR"
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the error.
	// Examples: "ValidationError", "ConfigError", "NumericalError"
	ErrorTypeKey = "error.type"

	// SuggestionKey carries a hint for resolving the problem.
	SuggestionKey = "error.suggestion"
)

// Standard attribute values for common operations and phases.
const (
	OperationFit        = "fit"
	OperationPredict    = "predict"
	OperationScore      = "score"
	OperationAggregate  = "aggregate"
	OperationSmooth     = "smooth"
	OperationPrune      = "prune"
	OperationCheckpoint = "checkpoint"

	PhaseInitialization = "initialization"
	PhaseTraining       = "training"
	PhaseAggregation    = "aggregation"
	PhaseInference      = "inference"

	ErrorNotFitted      = "NOT_FITTED"
	ErrorEmptyData      = "EMPTY_DATA"
	ErrorInvalidInput   = "INVALID_INPUT"
	ErrorUnknownLoss    = "UNKNOWN_LOSS"
	ErrorMalformedPrior = "MALFORMED_PRIOR"
)
