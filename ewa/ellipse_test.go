package ewa

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestNewEllipseFromMatrixRejectsAsymmetry(t *testing.T) {
	q := mat.NewDense(2, 2, []float64{
		1, 0.2,
		0.3, 1,
	})
	if _, err := NewEllipseFromMatrix(q, 1); err == nil {
		t.Fatal("asymmetric conic matrix accepted; off-diagonals must never be silently averaged")
	}
	if _, err := NewEllipseFromMatrix(mat.NewDense(3, 3, nil), 1); err == nil {
		t.Fatal("3x3 conic matrix accepted")
	}
}

func TestEllipseMatrixRoundTrip(t *testing.T) {
	for _, e := range []Ellipse{
		UnitCircle(),
		NewEllipse(2, 0.5, 1, 3),
		NewEllipse(0.25, 0, 4, 1),
	} {
		got, err := NewEllipseFromMatrix(e.Q(), e.F)
		if err != nil {
			t.Fatal(err)
		}
		if got != e {
			t.Errorf("round trip through Q: got %+v, want %+v", got, e)
		}
	}
}

// TestBoundsAxisAligned compares the closed-form bounds of cross-term-free
// ellipses against a brute-force search over points satisfying the conic
// equation.
func TestBoundsAxisAligned(t *testing.T) {
	for _, e := range []Ellipse{
		UnitCircle(),
		NewEllipse(0.25, 0, 4, 1),
		NewEllipse(2, 0, 0.5, 3),
	} {
		bounds := e.Bounds()
		const n = 2000
		var maxX, maxY float64
		for i := 0; i <= n; i++ {
			// March x over a generous range, solving the conic for y.
			x := (float64(i)/n*2 - 1) * 2 * bounds.Max.X
			disc := e.B*e.B*x*x - 4*e.C*(e.A*x*x-e.F)
			if disc < 0 {
				continue
			}
			y := (-e.B*x + math.Sqrt(disc)) / (2 * e.C)
			maxX = math.Max(maxX, math.Abs(x))
			maxY = math.Max(maxY, math.Abs(y))
		}
		if math.Abs(maxX-bounds.Max.X) > 1e-2*bounds.Max.X {
			t.Errorf("ellipse %+v: brute-force max x %g vs bounds %g", e, maxX, bounds.Max.X)
		}
		if math.Abs(maxY-bounds.Max.Y) > 1e-2*bounds.Max.Y {
			t.Errorf("ellipse %+v: brute-force max y %g vs bounds %g", e, maxY, bounds.Max.Y)
		}
		if bounds.Min.X != -bounds.Max.X || bounds.Min.Y != -bounds.Max.Y {
			t.Errorf("ellipse %+v: bounds %+v not centered on the origin", e, bounds)
		}
	}
}

// TestBoundsCrossTerm pins the discriminant-based branch to its
// closed-form values.
func TestBoundsCrossTerm(t *testing.T) {
	e := NewEllipse(2, 0.5, 1, 1)
	bounds := e.Bounds()
	b2 := e.B * e.B
	wantX := math.Sqrt(e.F * b2 / (4*e.A*e.C*e.C - e.C*b2))
	wantY := math.Sqrt(e.F / (e.A - b2/(4*e.C)))
	if math.Abs(bounds.Max.X-wantX) > 1e-12 || math.Abs(bounds.Max.Y-wantY) > 1e-12 {
		t.Errorf("bounds %+v, want max (%g, %g)", bounds, wantX, wantY)
	}
}

func TestBoundsCrossTermThreshold(t *testing.T) {
	// Just below the threshold the cross term is dropped entirely.
	small := NewEllipse(1, 0.9e-5, 1, 1)
	if got, want := small.Bounds().Max.X, 1.0; got != want {
		t.Errorf("near-zero cross term: max x %g, want %g", got, want)
	}
}

func TestEllipseEvaluate(t *testing.T) {
	e := NewEllipse(2, 0.5, 1, 3)
	q := e.Q()
	for _, p := range []r2.Vec{{X: 1}, {Y: 1}, {X: 0.3, Y: -0.7}} {
		viaQ := q.At(0, 0)*p.X*p.X + 2*q.At(0, 1)*p.X*p.Y + q.At(1, 1)*p.Y*p.Y
		if got := e.Evaluate(p); math.Abs(got-viaQ) > 1e-12 {
			t.Errorf("Evaluate(%+v) = %g, want %g via conic matrix", p, got, viaQ)
		}
	}
}
