package additive

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gamgo/pkg/errors"
)

// smoothingDegree is the polynomial degree used to denoise spline curves.
const smoothingDegree = 3

// Smoother conditionally replaces a spline's weights with a low-degree
// polynomial fit. The replacement only happens when the fit residual stays
// below the tolerance, so genuinely jagged curves are left alone instead of
// being flattened into a bad approximation.
type Smoother struct {
	Tolerance float64
}

// NewSmoother creates a smoother with the given RMS residual tolerance.
func NewSmoother(tolerance float64) *Smoother {
	return &Smoother{Tolerance: tolerance}
}

// Smooth fits a cubic polynomial to the spline's weights over normalized bin
// positions and projects the weights onto it when the RMS residual is below
// the tolerance. Returns whether the weights were replaced.
func (s *Smoother) Smooth(spline *Spline) (bool, error) {
	n := spline.Bins
	if n <= smoothingDegree+1 {
		// The polynomial would interpolate the points exactly; there is
		// no noise to remove.
		return false, nil
	}

	a := mat.NewDense(n, smoothingDegree+1, nil)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)
		p := 1.0
		for j := 0; j <= smoothingDegree; j++ {
			a.Set(i, j, p)
			p *= x
		}
	}
	b := mat.NewVecDense(n, spline.W)

	var beta mat.VecDense
	err := errors.SafeExecute("fit smoothing polynomial", func() error {
		if err := beta.SolveVec(a, b); err != nil {
			return errors.NewModelError("Smoother.Smooth", "degenerate design matrix", errors.ErrSingularMatrix)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	fitted := make([]float64, n)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)
		value := beta.AtVec(smoothingDegree)
		for j := smoothingDegree - 1; j >= 0; j-- {
			value = value*x + beta.AtVec(j)
		}
		fitted[i] = value
	}
	if err := errors.CheckNumericalStability("spline smoothing", fitted, 0); err != nil {
		return false, err
	}

	rms := floats.Distance(fitted, spline.W, 2) / math.Sqrt(float64(n))
	if rms >= s.Tolerance {
		return false, nil
	}

	copy(spline.W, fitted)
	return true, nil
}
