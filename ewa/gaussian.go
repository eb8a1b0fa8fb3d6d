package ewa

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
)

// Gaussian is an anisotropic 2-D Gaussian density whose isocontours are a
// given implicit ellipse. Its covariance is the inverse of the ellipse's
// conic matrix; the normalizing coefficient integrates the density to the
// extra scale factor over the whole plane. Instances are immutable.
type Gaussian struct {
	Ellipse     Ellipse
	Coefficient float64

	extra float64
}

// NewGaussian builds the Gaussian over the given ellipse, with an extra
// scale factor multiplied into the normalizing coefficient. It fails if
// the conic matrix is singular (no finite covariance).
func NewGaussian(e Ellipse, extra float64) (Gaussian, error) {
	detQ := e.A*e.C - e.B*e.B/4
	if detQ == 0 {
		return Gaussian{}, fmt.Errorf("ewa: conic matrix of ellipse %+v is singular", e)
	}
	detV := 1 / detQ // det(Q^-1) = 1/det(Q)
	return Gaussian{
		Ellipse:     e,
		Coefficient: extra / (2 * math.Pi * math.Sqrt(detV)),
		extra:       extra,
	}, nil
}

// Covariance returns the covariance matrix V = Q^-1.
func (g Gaussian) Covariance() *mat.SymDense {
	detQ := g.Ellipse.A*g.Ellipse.C - g.Ellipse.B*g.Ellipse.B/4
	return mat.NewSymDense(2, []float64{
		g.Ellipse.C / detQ, -g.Ellipse.B / 2 / detQ,
		-g.Ellipse.B / 2 / detQ, g.Ellipse.A / detQ,
	})
}

// Compute evaluates the density at p:
//
//	coefficient * exp(-1/2 * p' * Q * p)
func (g Gaussian) Compute(p r2.Vec) float64 {
	return g.Coefficient * math.Exp(-0.5*g.Ellipse.Evaluate(p))
}

// Transformed returns the Gaussian warped by the linear map m, i.e. the
// density of m-mapped samples. The conic matrix becomes inv(m)*Q*inv(m)'
// and the coefficient is scaled by 1/det(inv(m)), following the
// probability-density transform law so the integral over the plane is
// invariant. Splat weights derived from a transformed kernel therefore
// remain a valid weighted average after normalization.
func (g Gaussian) Transformed(m mat.Matrix) (Gaussian, error) {
	if r, c := m.Dims(); r != 2 || c != 2 {
		return Gaussian{}, fmt.Errorf("ewa: transform matrix is %dx%d, want 2x2", r, c)
	}
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return Gaussian{}, fmt.Errorf("ewa: transform matrix is not invertible: %w", err)
	}
	var qNew mat.Dense
	qNew.Product(&inv, g.Ellipse.Q(), inv.T())
	// The product of a symmetric matrix with inv and inv' is symmetric up
	// to rounding; rebuild it exactly symmetric before constructing the
	// ellipse, which rejects asymmetry.
	q01 := (qNew.At(0, 1) + qNew.At(1, 0)) / 2
	e, err := NewEllipseFromMatrix(mat.NewSymDense(2, []float64{
		qNew.At(0, 0), q01,
		q01, qNew.At(1, 1),
	}), g.Ellipse.F)
	if err != nil {
		return Gaussian{}, err
	}
	factor := 1 / mat.Det(&inv)
	return NewGaussian(e, g.extra*factor)
}
