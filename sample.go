package tsdf

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// SurfaceTooCloseError reports a surface polyline passing closer than a
// full narrow-band width to row 0 of the field, leaving no room for the
// band. The whole field construction fails; the caller must adjust the
// input geometry.
type SurfaceTooCloseError struct {
	// X is the voxel column at which the violation was detected.
	X int
	// Y is the interpolated surface height at that column.
	Y float64
	// NarrowBandWidthVoxels is the required clearance.
	NarrowBandWidthVoxels int
}

func (e *SurfaceTooCloseError) Error() string {
	return fmt.Sprintf(
		"tsdf: surface at column %d has height %g, too close to row 0 for a %d-voxel narrow band",
		e.X, e.Y, e.NarrowBandWidthVoxels)
}

// AddSurface rasterizes a piecewise-linear surface into an existing field
// as an orthographic narrow-band TSDF. For each consecutive point pair the
// surface height is interpolated per integer column; voxels above the band
// are set to +1, voxels within half the band width of the surface get the
// clamped linear signed distance, and voxels below are set to -1 unless a
// finite backCutoffVoxels leaves the far side untouched (an asymmetric,
// thin-shell band).
//
// Used to build synthetic test fixtures rather than real depth images.
// The field is mutated in place and also returned for chaining.
func AddSurface(field *Field2, points []r2.Vec, narrowBandWidthVoxels int, backCutoffVoxels float64) (*Field2, error) {
	halfWidth := narrowBandWidthVoxels / 2

	for i := 0; i+1 < len(points); i++ {
		a, b := points[i], points[i+1]
		xDist := b.X - a.X
		for xVoxel := int(a.X); xVoxel < int(b.X); xVoxel++ {
			ratio := (float64(xVoxel) - a.X) / xDist
			y := Mix(a.Y, b.Y, ratio)
			if y-float64(narrowBandWidthVoxels) < 0 {
				return nil, &SurfaceTooCloseError{
					X:                     xVoxel,
					Y:                     y,
					NarrowBandWidthVoxels: narrowBandWidthVoxels,
				}
			}
			start := int(y - float64(halfWidth))
			end := int(y + math.Min(float64(halfWidth), backCutoffVoxels) + 1)

			for yVoxel := 0; yVoxel < start && yVoxel < field.Height; yVoxel++ {
				field.Set(xVoxel, yVoxel, 1.0)
			}
			bandEnd := end
			if bandEnd > field.Height {
				bandEnd = field.Height
			}
			for yVoxel := start; yVoxel < bandEnd; yVoxel++ {
				distance := (y - float64(yVoxel)) / float64(halfWidth)
				field.Set(xVoxel, yVoxel, float32(Clamp(distance, -1.0, 1.0)))
			}
			// Fill the far side with -1 only when no back cutoff applies.
			if end < field.Height && float64(end) < backCutoffVoxels {
				for yVoxel := end; yVoxel < field.Height; yVoxel++ {
					field.Set(xVoxel, yVoxel, -1.0)
				}
			}
		}
	}
	return field, nil
}

// GenerateSampleOrthographic builds a square field filled with
// defaultValue and rasterizes the given surface polyline into it with
// AddSurface.
func GenerateSampleOrthographic(points []r2.Vec, size, narrowBandWidthVoxels int, backCutoffVoxels float64, defaultValue float32) (*Field2, error) {
	return AddSurface(NewField2(size, size, defaultValue), points, narrowBandWidthVoxels, backCutoffVoxels)
}

// sampleSurfacePoints is the piecewise-linear test surface used by
// GenerateInitialFields. Integer coordinates would hit voxel centers
// dead-on, which real boundaries never do, so a small vertical offset is
// applied below.
var sampleSurfacePoints = [][2]float64{
	{9, 56}, {14, 66}, {23, 72}, {35, 72}, {44, 65}, {54, 60}, {63, 60},
	{69, 64}, {76, 71}, {84, 73}, {91, 72}, {106, 63}, {109, 57},
}

var sampleSurfaceExtraPoints = [][2]float64{
	{32, 65}, {36, 65}, {41, 61},
}

// GenerateInitialFields builds the standard live/canonical orthographic
// field pair used as non-rigid alignment fixtures: the canonical surface
// is the live surface shifted down by five voxels. With mimicEta true the
// canonical field uses a three-voxel back cutoff, replicating the eta
// thin-shell parameter of the SobolevFusion data term.
func GenerateInitialFields(fieldSize, narrowBandWidthVoxels int, mimicEta bool, defaultValue float32) (live, canonical *Field2, err error) {
	const verticalOffset = -0.23

	surface := make([]r2.Vec, len(sampleSurfacePoints))
	for i, p := range sampleSurfacePoints {
		surface[i] = r2.Vec{X: p[0], Y: p[1] + verticalOffset}
	}
	extra := make([]r2.Vec, len(sampleSurfaceExtraPoints))
	for i, p := range sampleSurfaceExtraPoints {
		extra[i] = r2.Vec{X: p[0], Y: p[1] + verticalOffset}
	}

	live, err = GenerateSampleOrthographic(surface, fieldSize, narrowBandWidthVoxels, math.Inf(1), defaultValue)
	if err != nil {
		return nil, nil, err
	}
	if _, err = AddSurface(live, extra, narrowBandWidthVoxels, math.Inf(1)); err != nil {
		return nil, nil, err
	}

	const canonicalShift = 5.0
	canonicalSurface := make([]r2.Vec, len(surface))
	for i, p := range surface {
		canonicalSurface[i] = r2.Vec{X: p.X, Y: p.Y + canonicalShift}
	}
	canonicalExtra := make([]r2.Vec, len(extra))
	for i, p := range extra {
		canonicalExtra[i] = r2.Vec{X: p.X, Y: p.Y + canonicalShift}
	}

	backCutoff := math.Inf(1)
	if mimicEta {
		backCutoff = 3
	}
	canonical, err = GenerateSampleOrthographic(canonicalSurface, fieldSize, narrowBandWidthVoxels, backCutoff, defaultValue)
	if err != nil {
		return nil, nil, err
	}
	if _, err = AddSurface(canonical, canonicalExtra, narrowBandWidthVoxels, backCutoff); err != nil {
		return nil, nil, err
	}
	return live, canonical, nil
}
