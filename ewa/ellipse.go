// Package ewa implements the elliptical footprint kernels used for
// Elliptical Weighted Average (EWA) resampling of depth samples onto voxel
// grids: implicit ellipses (conics) and the anisotropic Gaussians built
// on them. A depth sample's footprint after perspective projection is a
// stretched ellipse in image space, not a single pixel; the Gaussian over
// that ellipse weights the sample's contribution to nearby grid cells.
package ewa

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
)

// crossTermTol is the magnitude below which the conic cross term B is
// treated as exactly zero when computing bounds.
const crossTermTol = 1e-5

// Ellipse is the implicit ellipse (conic)
//
//	A*x^2 + B*x*y + C*y^2 = F
//
// equivalently x' * Q * x = F with the symmetric conic matrix
// Q = [[A, B/2], [B/2, C]].
type Ellipse struct {
	A, B, C, F float64
}

// NewEllipse builds an ellipse from its conic coefficients.
func NewEllipse(a, b, c, f float64) Ellipse {
	return Ellipse{A: a, B: b, C: c, F: f}
}

// NewEllipseFromMatrix builds an ellipse from a 2x2 conic matrix.
// The matrix must be symmetric: silently symmetrizing an asymmetric Q
// would hide caller bugs, so asymmetry is an error.
func NewEllipseFromMatrix(q mat.Matrix, f float64) (Ellipse, error) {
	if r, c := q.Dims(); r != 2 || c != 2 {
		return Ellipse{}, fmt.Errorf("ewa: conic matrix is %dx%d, want 2x2", r, c)
	}
	if q.At(0, 1) != q.At(1, 0) {
		return Ellipse{}, fmt.Errorf("ewa: conic matrix should be symmetric, got off-diagonal %g and %g",
			q.At(0, 1), q.At(1, 0))
	}
	return Ellipse{
		A: q.At(0, 0),
		B: q.At(0, 1) * 2,
		C: q.At(1, 1),
		F: f,
	}, nil
}

// UnitCircle returns the ellipse x^2 + y^2 = 1.
func UnitCircle() Ellipse {
	return Ellipse{A: 1, C: 1, F: 1}
}

// Q returns the symmetric conic matrix [[A, B/2], [B/2, C]].
func (e Ellipse) Q() *mat.SymDense {
	return mat.NewSymDense(2, []float64{
		e.A, e.B / 2,
		e.B / 2, e.C,
	})
}

// Bounds returns the axis-aligned extent of the ellipse, centered on the
// origin. It bounds the footprint's region of influence so samplers need
// not scan cells the kernel cannot reach.
func (e Ellipse) Bounds() r2.Box {
	var maxX, maxY float64
	if math.Abs(e.B) < crossTermTol {
		maxX = math.Sqrt(e.F / e.A)
		maxY = math.Sqrt(e.F / e.C)
	} else {
		b2 := e.B * e.B
		maxX = math.Sqrt(e.F * b2 / (4*e.A*e.C*e.C - e.C*b2))
		maxY = math.Sqrt(e.F / (e.A - b2/(4*e.C)))
	}
	return r2.Box{
		Min: r2.Vec{X: -maxX, Y: -maxY},
		Max: r2.Vec{X: maxX, Y: maxY},
	}
}

// Evaluate returns x' * Q * x for the given point, the left-hand side of
// the conic equation. Points on the ellipse evaluate to F.
func (e Ellipse) Evaluate(p r2.Vec) float64 {
	return e.A*p.X*p.X + e.B*p.X*p.Y + e.C*p.Y*p.Y
}
