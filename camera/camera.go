// Package camera provides the pinhole depth-camera model consumed by the
// TSDF field builders: a 3x3 intrinsic projection matrix, the image
// resolution and the ratio converting raw depth units to meters.
package camera

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Intrinsics holds the pinhole projection parameters of a camera.
type Intrinsics struct {
	// Matrix is the 3x3 intrinsic projection matrix
	//  [ fx  0  cx ]
	//  [  0 fy  cy ]
	//  [  0  0   1 ]
	Matrix *mat.Dense
	// Width and Height are the image resolution in pixels.
	Width, Height int
}

// NewIntrinsics builds pinhole intrinsics from focal lengths and the
// principal point.
func NewIntrinsics(fx, fy, cx, cy float64, width, height int) Intrinsics {
	return Intrinsics{
		Matrix: mat.NewDense(3, 3, []float64{
			fx, 0, cx,
			0, fy, cy,
			0, 0, 1,
		}),
		Width:  width,
		Height: height,
	}
}

// Fx returns the focal length along the image x axis.
func (in Intrinsics) Fx() float64 { return in.Matrix.At(0, 0) }

// Fy returns the focal length along the image y axis.
func (in Intrinsics) Fy() float64 { return in.Matrix.At(1, 1) }

// Cx returns the x coordinate of the principal point.
func (in Intrinsics) Cx() float64 { return in.Matrix.At(0, 2) }

// Cy returns the y coordinate of the principal point.
func (in Intrinsics) Cy() float64 { return in.Matrix.At(1, 2) }

// Validate checks the intrinsic matrix shape and resolution.
func (in Intrinsics) Validate() error {
	if in.Matrix == nil {
		return fmt.Errorf("camera: nil intrinsic matrix")
	}
	if r, c := in.Matrix.Dims(); r != 3 || c != 3 {
		return fmt.Errorf("camera: intrinsic matrix is %dx%d, want 3x3", r, c)
	}
	if in.Width <= 0 || in.Height <= 0 {
		return fmt.Errorf("camera: resolution %dx%d is not positive", in.Width, in.Height)
	}
	return nil
}

// ProjectX projects a camera-space point onto the image x (column) axis.
// The caller must ensure p.Z > 0; points behind the camera are never sampled.
func (in Intrinsics) ProjectX(p r3.Vec) float64 {
	return in.Fx()*p.X/p.Z + in.Cx()
}

// ProjectY projects a camera-space point onto the image y (row) axis.
func (in Intrinsics) ProjectY(p r3.Vec) float64 {
	return in.Fy()*p.Y/p.Z + in.Cy()
}

// Depth is a depth camera: pinhole intrinsics plus the scale converting
// raw integer depth samples to metric distance (e.g. 0.001 for millimeter
// sensors).
type Depth struct {
	Intrinsics
	DepthUnitRatio float64
}

// NewDepth builds a depth camera from intrinsics and a depth unit ratio.
func NewDepth(in Intrinsics, depthUnitRatio float64) Depth {
	return Depth{Intrinsics: in, DepthUnitRatio: depthUnitRatio}
}

// Validate checks the camera parameters.
func (d Depth) Validate() error {
	if err := d.Intrinsics.Validate(); err != nil {
		return err
	}
	if d.DepthUnitRatio <= 0 {
		return fmt.Errorf("camera: depth unit ratio %g is not positive", d.DepthUnitRatio)
	}
	return nil
}

// Extrinsics is a homogeneous 4x4 rigid transform
//  [ R | T ]
//  [ 0 | 1 ]
// taking world-space points into camera space. The zero value is the
// identity transform.
type Extrinsics struct {
	// Matrix is nil for the identity transform.
	Matrix *mat.Dense
}

// NewExtrinsics wraps a 4x4 homogeneous transform matrix.
func NewExtrinsics(m *mat.Dense) (Extrinsics, error) {
	if m != nil {
		if r, c := m.Dims(); r != 4 || c != 4 {
			return Extrinsics{}, fmt.Errorf("camera: extrinsic matrix is %dx%d, want 4x4", r, c)
		}
	}
	return Extrinsics{Matrix: m}, nil
}

// IsIdentity reports whether the transform is the identity.
func (e Extrinsics) IsIdentity() bool { return e.Matrix == nil }

// Transform takes a world-space point into camera space.
func (e Extrinsics) Transform(p r3.Vec) r3.Vec {
	if e.Matrix == nil {
		return p
	}
	m := e.Matrix
	return r3.Vec{
		X: m.At(0, 0)*p.X + m.At(0, 1)*p.Y + m.At(0, 2)*p.Z + m.At(0, 3),
		Y: m.At(1, 0)*p.X + m.At(1, 1)*p.Y + m.At(1, 2)*p.Z + m.At(1, 3),
		Z: m.At(2, 0)*p.X + m.At(2, 1)*p.Y + m.At(2, 2)*p.Z + m.At(2, 3),
	}
}

// Validate checks the extrinsic matrix shape.
func (e Extrinsics) Validate() error {
	if e.Matrix == nil {
		return nil
	}
	if r, c := e.Matrix.Dims(); r != 4 || c != 4 {
		return fmt.Errorf("camera: extrinsic matrix is %dx%d, want 4x4", r, c)
	}
	return nil
}
