package tsdf

import (
	"fmt"
	"math"

	"github.com/fieldforge/tsdf/camera"
	"github.com/fieldforge/tsdf/ewa"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// ewaCutoff bounds the footprint's region of influence at two standard
// deviations of the image-space Gaussian (Mahalanobis distance squared).
const ewaCutoff = 4.0

// GenerateEWA builds a 2-D narrow-band TSDF slice from one row of a depth
// image using anisotropic footprint-based resampling. Instead of looking
// up a single column, each voxel's camera-space Gaussian footprint is
// pushed through the projection Jacobian into depth-image space, widened
// by the identity low-pass kernel, and the depth samples inside the
// resulting elliptical bounds are averaged with elliptical-Gaussian
// weights. The narrow-band encoding and skip rules match Generate.
//
// Sentinel samples participate in the average as ordinary large depths,
// consistent with the point-sampling policies.
func GenerateEWA(img *DepthImage, cam camera.Depth, row int, opts Options) (*Field2, error) {
	if err := img.validate(); err != nil {
		return nil, err
	}
	if err := cam.Validate(); err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if row < 0 || row >= img.Height {
		return nil, fmt.Errorf("tsdf: row %d outside depth image of height %d", row, img.Height)
	}

	field := NewField2(opts.FieldSize, opts.FieldSize, opts.DefaultValue)
	halfWidth := float64(opts.NarrowBandWidthVoxels) / 2 * opts.VoxelSize
	// Isotropic camera-space footprint: one standard deviation per axis of
	// half a voxel.
	sigma2 := opts.VoxelSize * opts.VoxelSize / 4

	for yField := 0; yField < opts.FieldSize; yField++ {
		for xField := 0; xField < opts.FieldSize; xField++ {
			world := r3.Vec{
				X: float64(xField+opts.ArrayOffset[0]) * opts.VoxelSize,
				Z: float64(yField+opts.ArrayOffset[2]) * opts.VoxelSize,
			}
			p := opts.Extrinsics.Transform(world)
			if p.Z <= 0 {
				continue
			}
			u := cam.ProjectX(p)
			v := float64(row)

			raw, ok := splatAverage(img, cam, p, u, v, sigma2)
			if !ok {
				continue
			}
			depth := raw * cam.DepthUnitRatio
			if depth <= 0 {
				continue
			}
			field.Set(xField, yField, encodeBand(depth-p.Z, halfWidth))
		}
	}
	return field, nil
}

// splatAverage computes the elliptical-Gaussian-weighted average of raw
// depth samples around the projected footprint center (u, v). It falls
// back to the nearest sample when the footprint covers no pixel center.
func splatAverage(img *DepthImage, cam camera.Depth, p r3.Vec, u, v, sigma2 float64) (float64, bool) {
	// Jacobian of the pinhole projection at p.
	fx, fy := cam.Fx(), cam.Fy()
	z2 := p.Z * p.Z
	jac := mat.NewDense(2, 3, []float64{
		fx / p.Z, 0, -fx * p.X / z2,
		0, fy / p.Z, -fy * p.Y / z2,
	})
	// Image-space covariance: sigma2 * J*J' plus the identity pixel
	// low-pass filter.
	var jj mat.Dense
	jj.Mul(jac, jac.T())
	cov := mat.NewSymDense(2, []float64{
		sigma2*jj.At(0, 0) + 1, sigma2 * jj.At(0, 1),
		sigma2 * jj.At(0, 1), sigma2*jj.At(1, 1) + 1,
	})
	det := cov.At(0, 0)*cov.At(1, 1) - cov.At(0, 1)*cov.At(0, 1)
	q := mat.NewSymDense(2, []float64{
		cov.At(1, 1) / det, -cov.At(0, 1) / det,
		-cov.At(0, 1) / det, cov.At(0, 0) / det,
	})
	ellipse, err := ewa.NewEllipseFromMatrix(q, ewaCutoff)
	if err != nil {
		return 0, false
	}
	kernel, err := ewa.NewGaussian(ellipse, 1)
	if err != nil {
		return 0, false
	}
	bounds := ellipse.Bounds()

	uMin := clampIndex(int(math.Ceil(u+bounds.Min.X)), 0, img.Width-1)
	uMax := clampIndex(int(math.Floor(u+bounds.Max.X)), 0, img.Width-1)
	vMin := clampIndex(int(math.Ceil(v+bounds.Min.Y)), 0, img.Height-1)
	vMax := clampIndex(int(math.Floor(v+bounds.Max.Y)), 0, img.Height-1)

	var weightSum, valueSum float64
	for pv := vMin; pv <= vMax; pv++ {
		for pu := uMin; pu <= uMax; pu++ {
			d := r2.Vec{X: float64(pu) - u, Y: float64(pv) - v}
			if ellipse.Evaluate(d) > ewaCutoff {
				continue
			}
			w := kernel.Compute(d)
			weightSum += w
			valueSum += w * float64(img.At(pu, pv))
		}
	}
	if weightSum <= 0 {
		// Footprint narrower than a pixel: degenerate splat, sample the
		// nearest pixel instead.
		if row := int(v + 0.5); row >= 0 && row < img.Height {
			return Nearest{}.Sample(img, u, row)
		}
		return 0, false
	}
	return valueSum / weightSum, true
}

func clampIndex(i, lo, hi int) int {
	if i < lo {
		return lo
	}
	if i > hi {
		return hi
	}
	return i
}
