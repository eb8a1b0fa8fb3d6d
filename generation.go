package tsdf

import (
	"fmt"
	"math"

	"github.com/fieldforge/tsdf/camera"
	"gonum.org/v1/gonum/spatial/r3"
)

// DepthSampler looks up a depth sample at a fractional image column of a
// depth-image row. It returns the raw (unit-scaled) depth and false when
// the column cannot be sampled, in which case the voxel being evaluated
// keeps the field's fill value.
type DepthSampler interface {
	Sample(img *DepthImage, x float64, row int) (float64, bool)
}

// Nearest samples the depth pixel closest to the projected column.
type Nearest struct{}

// Sample rounds x to the nearest integer column and indexes directly.
func (Nearest) Sample(img *DepthImage, x float64, row int) (float64, bool) {
	ix := int(x + 0.5)
	if ix < 0 || ix >= img.Width {
		return 0, false
	}
	return float64(img.At(ix, row)), true
}

// Bilinear interpolates fractionally between the two bracketing depth
// samples of the row.
type Bilinear struct{}

// Sample linearly interpolates between columns floor(x) and floor(x)+1.
func (Bilinear) Sample(img *DepthImage, x float64, row int) (float64, bool) {
	if x < 0 || x >= float64(img.Width) {
		return 0, false
	}
	x0 := int(math.Floor(x))
	x1 := x0 + 1
	if x1 >= img.Width {
		x1 = img.Width - 1
	}
	t := x - float64(x0)
	return (1-t)*float64(img.At(x0, row)) + t*float64(img.At(x1, row)), true
}

// Options configures TSDF field generation.
type Options struct {
	// FieldSize is the output grid side length in voxels.
	FieldSize int
	// DefaultValue fills voxels never reached by sampling: the documented
	// "free space / unseen space" value, not an error state.
	DefaultValue float32
	// VoxelSize is the metric voxel side length.
	VoxelSize float64
	// ArrayOffset positions the grid: voxel (x, y) of the output slice sits
	// at ((x+offset[0])*VoxelSize, 0, (y+offset[2])*VoxelSize) in world
	// space. The slice's "height" axis maps to the camera Z axis.
	ArrayOffset V3i
	// NarrowBandWidthVoxels is the full band width; signed distances are
	// normalized by half this width times VoxelSize.
	NarrowBandWidthVoxels int
	// BackCutoffVoxels limits the band behind the surface for the
	// orthographic sample-surface path (AddSurface). May be +Inf for a
	// symmetric band. The depth-image paths accept it for parity but do
	// not yet honor it.
	BackCutoffVoxels float64
	// Extrinsics transforms world-space voxel positions into camera space.
	// The zero value is the identity transform.
	Extrinsics camera.Extrinsics
	// Sampler is the depth interpolation policy. Nil means Nearest.
	Sampler DepthSampler
}

// DefaultOptions returns the conventional generation parameters: a
// 128-voxel grid of 4mm voxels centered in x on the camera axis, a
// 20-voxel narrow band and nearest-sample depth lookup.
func DefaultOptions() Options {
	return Options{
		FieldSize:             128,
		DefaultValue:          1,
		VoxelSize:             0.004,
		ArrayOffset:           V3i{-64, -64, 64},
		NarrowBandWidthVoxels: 20,
		BackCutoffVoxels:      math.Inf(1),
		Sampler:               Nearest{},
	}
}

func (o Options) validate() error {
	if o.FieldSize <= 0 {
		return fmt.Errorf("tsdf: field size %d is not positive", o.FieldSize)
	}
	if o.VoxelSize <= 0 {
		return fmt.Errorf("tsdf: voxel size %g is not positive", o.VoxelSize)
	}
	if o.NarrowBandWidthVoxels < 1 {
		return fmt.Errorf("tsdf: narrow band width %d voxels, want at least 1", o.NarrowBandWidthVoxels)
	}
	return o.Extrinsics.Validate()
}

// Generate builds a 2-D narrow-band TSDF slice from one row of a depth
// image. Every voxel of the output grid is projected into the depth image
// and the sampled depth compared against the voxel's camera-space depth:
//
//	sd := depth - cameraZ
//	sd < -halfBand: -1 (behind the surface, past the band)
//	sd >  halfBand: +1 (in front of the surface, past the band)
//	otherwise:      sd / halfBand
//
// Voxels behind the camera, projecting outside the image columns, or
// sampling a non-positive depth keep opts.DefaultValue. Sentinel
// ("no return") samples pass through as ordinary large depths and force
// their voxels to +1.
func Generate(img *DepthImage, cam camera.Depth, row int, opts Options) (*Field2, error) {
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
	sampler := opts.Sampler
	if sampler == nil {
		sampler = Nearest{}
	}

	field := NewField2(opts.FieldSize, opts.FieldSize, opts.DefaultValue)
	halfWidth := float64(opts.NarrowBandWidthVoxels) / 2 * opts.VoxelSize

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
			imageX := cam.ProjectX(p)
			raw, ok := sampler.Sample(img, imageX, row)
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

// encodeBand maps a metric signed distance to the narrow-band TSDF value.
func encodeBand(signedDistance, halfWidth float64) float32 {
	switch {
	case signedDistance < -halfWidth:
		return -1
	case signedDistance > halfWidth:
		return 1
	default:
		return float32(signedDistance / halfWidth)
	}
}
