package additive

import (
	"encoding/gob"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/gamgo/pkg/errors"
)

// FunctionType tags the two feature function variants.
type FunctionType int

const (
	// FunctionSpline is a piecewise curve over a bounded range.
	FunctionSpline FunctionType = iota
	// FunctionLinear is a two-parameter affine map.
	FunctionLinear
)

func (t FunctionType) String() string {
	switch t {
	case FunctionSpline:
		return "spline"
	case FunctionLinear:
		return "linear"
	default:
		return "unknown"
	}
}

// Function is a scalar transfer function of one feature value. The two
// variants are Spline and Linear; code that needs variant-specific behavior
// dispatches on Type instead of downcasting.
type Function interface {
	// Type returns the variant tag.
	Type() FunctionType
	// Evaluate returns the function value at x.
	Evaluate(x float64) float64
	// Update nudges the weights closest to x by delta.
	Update(x, delta float64)
	// Clone returns a deep copy safe for independent mutation.
	Clone() Function
	// Weights returns the underlying weight vector. Callers must treat it
	// as read-only; mutation goes through Update or SetWeights.
	Weights() []float64
	// SetWeights replaces the weight vector. The length must match.
	SetWeights(w []float64) error
	// SetPriors overwrites the weights from a (v0, v1) prior tuple.
	SetPriors(v0, v1 float64)
	// LInfNorm returns the maximum absolute weight.
	LInfNorm() float64
	// CapInfNorm rescales the weights so no magnitude exceeds cap. A cap of
	// zero or less disables capping.
	CapInfNorm(cap float64)
}

// Spline is a piecewise-linear curve over [Min, Max] with one learned weight
// per control point. Evaluation interpolates between the two control points
// bracketing x; updates distribute delta onto the same two points.
type Spline struct {
	Min  float64
	Max  float64
	Bins int
	W    []float64
}

// NewSpline creates a zero-weight spline with numBins control points over
// [min, max]. A degenerate range (max <= min, e.g. a constant feature) is
// widened to [min, min+1] so interpolation stays well defined.
func NewSpline(min, max float64, numBins int) (*Spline, error) {
	if numBins < 2 {
		return nil, errors.NewValueError("NewSpline", "num_bins must be at least 2")
	}
	if max <= min {
		max = min + 1
	}
	return &Spline{
		Min:  min,
		Max:  max,
		Bins: numBins,
		W:    make([]float64, numBins),
	}, nil
}

// Type implements Function.
func (s *Spline) Type() FunctionType { return FunctionSpline }

// position maps x onto the control point axis [0, Bins-1], clamping x into
// [Min, Max] first.
func (s *Spline) position(x float64) (bin int, frac float64) {
	x = errors.ClipValue(x, s.Min, s.Max)
	t := (x - s.Min) * float64(s.Bins-1) / (s.Max - s.Min)
	bin = int(t)
	if bin >= s.Bins-1 {
		return s.Bins - 1, 0
	}
	return bin, t - float64(bin)
}

// Evaluate implements Function.
func (s *Spline) Evaluate(x float64) float64 {
	bin, frac := s.position(x)
	if bin >= s.Bins-1 {
		return s.W[s.Bins-1]
	}
	return s.W[bin]*(1-frac) + s.W[bin+1]*frac
}

// Update implements Function. The delta is split between the bracketing
// control points with the same interpolation weights Evaluate uses.
func (s *Spline) Update(x, delta float64) {
	bin, frac := s.position(x)
	if bin >= s.Bins-1 {
		s.W[s.Bins-1] += delta
		return
	}
	s.W[bin] += delta * (1 - frac)
	s.W[bin+1] += delta * frac
}

// Clone implements Function.
func (s *Spline) Clone() Function {
	w := make([]float64, len(s.W))
	copy(w, s.W)
	return &Spline{Min: s.Min, Max: s.Max, Bins: s.Bins, W: w}
}

// Weights implements Function.
func (s *Spline) Weights() []float64 { return s.W }

// SetWeights implements Function.
func (s *Spline) SetWeights(w []float64) error {
	if len(w) != s.Bins {
		return errors.NewDimensionError("Spline.SetWeights", s.Bins, len(w), 1)
	}
	copy(s.W, w)
	return nil
}

// SetPriors implements Function: the weights become a linear ramp from v0 at
// Min to v1 at Max.
func (s *Spline) SetPriors(v0, v1 float64) {
	for i := range s.W {
		s.W[i] = v0 + (v1-v0)*float64(i)/float64(s.Bins-1)
	}
}

// LInfNorm implements Function.
func (s *Spline) LInfNorm() float64 { return linfNorm(s.W) }

// CapInfNorm implements Function.
func (s *Spline) CapInfNorm(cap float64) { capInfNorm(s.W, cap) }

// Linear is the affine map f(x) = W[0] + W[1]*x, used for categorical and
// string feature families where a curve over a value range has no meaning.
type Linear struct {
	W []float64
}

// NewLinear creates an identity-initialized linear function with weights
// [0, 1], so f(x) = x before any training.
func NewLinear() *Linear {
	return &Linear{W: []float64{0, 1}}
}

// Type implements Function.
func (l *Linear) Type() FunctionType { return FunctionLinear }

// Evaluate implements Function.
func (l *Linear) Evaluate(x float64) float64 {
	return l.W[0] + l.W[1]*x
}

// Update implements Function. The intercept absorbs delta directly and the
// slope scales it by x.
func (l *Linear) Update(x, delta float64) {
	l.W[0] += delta
	l.W[1] += delta * x
}

// Clone implements Function.
func (l *Linear) Clone() Function {
	w := make([]float64, len(l.W))
	copy(w, l.W)
	return &Linear{W: w}
}

// Weights implements Function.
func (l *Linear) Weights() []float64 { return l.W }

// SetWeights implements Function.
func (l *Linear) SetWeights(w []float64) error {
	if len(w) != len(l.W) {
		return errors.NewDimensionError("Linear.SetWeights", len(l.W), len(w), 1)
	}
	copy(l.W, w)
	return nil
}

// SetPriors implements Function.
func (l *Linear) SetPriors(v0, v1 float64) {
	l.W[0] = v0
	l.W[1] = v1
}

// LInfNorm implements Function.
func (l *Linear) LInfNorm() float64 { return linfNorm(l.W) }

// CapInfNorm implements Function.
func (l *Linear) CapInfNorm(cap float64) { capInfNorm(l.W, cap) }

// MeanFunction returns a new function whose weights are the elementwise
// arithmetic mean of the given copies. All copies must come from clones of
// the same function, so their types and lengths agree.
func MeanFunction(fns []Function) Function {
	out := fns[0].Clone()
	w := out.Weights()
	for i := range w {
		w[i] = 0
	}
	for _, fn := range fns {
		floats.Add(w, fn.Weights())
	}
	floats.Scale(1/float64(len(fns)), w)
	return out
}

func linfNorm(w []float64) float64 {
	norm := 0.0
	for _, v := range w {
		if a := math.Abs(v); a > norm {
			norm = a
		}
	}
	return norm
}

func capInfNorm(w []float64, cap float64) {
	if cap <= 0 {
		return
	}
	norm := linfNorm(w)
	if norm <= cap {
		return
	}
	scale := cap / norm
	for i := range w {
		w[i] *= scale
	}
}

func init() {
	// Concrete variants must be registered so a Model holding Function
	// interface values round-trips through gob.
	gob.Register(&Spline{})
	gob.Register(&Linear{})
}
