package camera

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestIntrinsicsProject(t *testing.T) {
	in := NewIntrinsics(700, 680, 320, 240, 640, 480)
	if err := in.Validate(); err != nil {
		t.Fatal(err)
	}
	p := r3.Vec{X: 0.1, Y: -0.05, Z: 2}
	if got, want := in.ProjectX(p), 700*0.1/2+320.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("ProjectX = %g, want %g", got, want)
	}
	if got, want := in.ProjectY(p), 680*-0.05/2+240.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("ProjectY = %g, want %g", got, want)
	}
	// A point on the optical axis projects to the principal point.
	axis := r3.Vec{Z: 3}
	if got := in.ProjectX(axis); got != 320 {
		t.Errorf("axis ProjectX = %g, want 320", got)
	}
}

func TestIntrinsicsValidate(t *testing.T) {
	bad := Intrinsics{Matrix: mat.NewDense(2, 3, nil), Width: 640, Height: 480}
	if err := bad.Validate(); err == nil {
		t.Error("2x3 intrinsic matrix accepted")
	}
	if err := (Intrinsics{}).Validate(); err == nil {
		t.Error("nil intrinsic matrix accepted")
	}
	zero := NewIntrinsics(700, 700, 320, 240, 0, 480)
	if err := zero.Validate(); err == nil {
		t.Error("zero resolution accepted")
	}
	cam := NewDepth(NewIntrinsics(700, 700, 320, 240, 640, 480), 0)
	if err := cam.Validate(); err == nil {
		t.Error("zero depth unit ratio accepted")
	}
}

func TestExtrinsicsTransform(t *testing.T) {
	identity := Extrinsics{}
	p := r3.Vec{X: 1, Y: 2, Z: 3}
	if got := identity.Transform(p); got != p {
		t.Errorf("identity transform moved %v to %v", p, got)
	}
	if !identity.IsIdentity() {
		t.Error("zero-value extrinsics should be the identity")
	}

	// Rotate a quarter turn around Z and translate.
	ext, err := NewExtrinsics(mat.NewDense(4, 4, []float64{
		0, -1, 0, 0.5,
		1, 0, 0, -0.25,
		0, 0, 1, 1,
		0, 0, 0, 1,
	}))
	if err != nil {
		t.Fatal(err)
	}
	got := ext.Transform(p)
	want := r3.Vec{X: -2 + 0.5, Y: 1 - 0.25, Z: 4}
	if math.Abs(got.X-want.X) > 1e-12 || math.Abs(got.Y-want.Y) > 1e-12 || math.Abs(got.Z-want.Z) > 1e-12 {
		t.Errorf("Transform = %+v, want %+v", got, want)
	}
}

func TestExtrinsicsValidate(t *testing.T) {
	if _, err := NewExtrinsics(mat.NewDense(3, 4, nil)); err == nil {
		t.Error("3x4 extrinsic matrix accepted")
	}
	bad := Extrinsics{Matrix: mat.NewDense(4, 3, nil)}
	if err := bad.Validate(); err == nil {
		t.Error("4x3 extrinsic matrix accepted")
	}
}
