package additive

import (
	"math"

	"github.com/YuminosukeSato/gamgo/pkg/errors"
)

// LossFunction defines the interface for the per-example training losses.
type LossFunction interface {
	// Loss returns the scalar loss for a single example.
	Loss(prediction, label float64) float64

	// Gradient returns the scalar gradient signal for a single example.
	// A zero return means no update fires.
	Gradient(prediction, label float64) float64

	// RequiresBinaryLabel reports whether labels must be thresholded into
	// {-1, +1} before training.
	RequiresBinaryLabel() bool

	// Name returns the name of the loss.
	Name() string
}

// maxCorrelation clamps label*prediction in the logistic loss so exp cannot
// overflow on confident predictions.
const maxCorrelation = 10.0

// LogisticLoss is the binary classification log loss over labels in {-1,+1}.
type LogisticLoss struct{}

func NewLogisticLoss() *LogisticLoss {
	return &LogisticLoss{}
}

func (o *LogisticLoss) Loss(prediction, label float64) float64 {
	corr := math.Min(maxCorrelation, label*prediction)
	return errors.Softplus(-corr)
}

func (o *LogisticLoss) Gradient(prediction, label float64) float64 {
	corr := math.Min(maxCorrelation, label*prediction)
	return -label / (1 + math.Exp(corr))
}

func (o *LogisticLoss) RequiresBinaryLabel() bool {
	return true
}

func (o *LogisticLoss) Name() string {
	return "logistic"
}

// HingeLoss is the max-margin classification loss over labels in {-1,+1}.
// The gradient fires only for examples inside the margin.
type HingeLoss struct {
	margin float64
}

func NewHingeLoss(margin float64) *HingeLoss {
	if margin <= 0 {
		margin = 1.0
	}
	return &HingeLoss{margin: margin}
}

func (o *HingeLoss) Loss(prediction, label float64) float64 {
	return math.Max(0, o.margin-label*prediction)
}

func (o *HingeLoss) Gradient(prediction, label float64) float64 {
	if o.margin-label*prediction > 0 {
		return -label
	}
	return 0
}

func (o *HingeLoss) RequiresBinaryLabel() bool {
	return true
}

func (o *HingeLoss) Name() string {
	return "hinge"
}

// EpsilonInsensitiveLoss is absolute-error regression with a dead zone:
// predictions within epsilon of the label produce no update.
type EpsilonInsensitiveLoss struct {
	epsilon float64
}

func NewEpsilonInsensitiveLoss(epsilon float64) *EpsilonInsensitiveLoss {
	if epsilon < 0 {
		epsilon = 0
	}
	return &EpsilonInsensitiveLoss{epsilon: epsilon}
}

func (o *EpsilonInsensitiveLoss) Loss(prediction, label float64) float64 {
	return math.Abs(prediction - label)
}

func (o *EpsilonInsensitiveLoss) Gradient(prediction, label float64) float64 {
	diff := prediction - label
	if diff > o.epsilon {
		return 1
	}
	if diff < -o.epsilon {
		return -1
	}
	return 0
}

func (o *EpsilonInsensitiveLoss) RequiresBinaryLabel() bool {
	return false
}

func (o *EpsilonInsensitiveLoss) Name() string {
	return "regression"
}

// KnownLosses returns the recognized loss names.
func KnownLosses() []string {
	return []string{"logistic", "hinge", "regression"}
}

func knownLoss(name string) bool {
	for _, known := range KnownLosses() {
		if name == known {
			return true
		}
	}
	return false
}

// CreateLossFunction creates a loss function based on the loss name.
func CreateLossFunction(loss string, params *TrainerParams) (LossFunction, error) {
	switch loss {
	case "logistic":
		return NewLogisticLoss(), nil
	case "hinge":
		margin := 1.0
		if params != nil && params.Margin > 0 {
			margin = params.Margin
		}
		return NewHingeLoss(margin), nil
	case "regression":
		epsilon := 0.0
		if params != nil && params.Epsilon > 0 {
			epsilon = params.Epsilon
		}
		return NewEpsilonInsensitiveLoss(epsilon), nil
	default:
		return nil, errors.NewUnknownLossError(loss, KnownLosses())
	}
}
