// Package tsdf builds truncated signed-distance fields (TSDFs) from
// single-row depth-image samples for non-rigid reconstruction research.
//
// A TSDF encodes, near a surface, the signed distance from each voxel
// center to the nearest surface along the camera ray, normalized by half
// the narrow-band width and clamped to [-1, 1]. Values of +1/-1 mean the
// voxel is past the band in front of/behind the surface.
package tsdf

import (
	"fmt"
	"math"
)

// Sentinel is the "no return" depth value. Depth sensors emit it (or zero,
// which callers substitute before building fields) for pixels with no
// valid measurement. The builders treat it as an ordinary very large
// depth, which pushes affected voxels to the +1 "in front of surface"
// state rather than leaving them at the fill value.
const Sentinel uint16 = math.MaxUint16

// DepthImage is a row-major raster of raw (unit-scaled) depth samples.
type DepthImage struct {
	Width, Height int
	// Pixels holds Width*Height samples in row-major order.
	Pixels []uint16
}

// NewDepthImage returns a depth image with every pixel set to Sentinel.
func NewDepthImage(width, height int) *DepthImage {
	img := &DepthImage{
		Width:  width,
		Height: height,
		Pixels: make([]uint16, width*height),
	}
	for i := range img.Pixels {
		img.Pixels[i] = Sentinel
	}
	return img
}

// At returns the depth sample at pixel (x, y).
func (im *DepthImage) At(x, y int) uint16 {
	return im.Pixels[y*im.Width+x]
}

// Set sets the depth sample at pixel (x, y).
func (im *DepthImage) Set(x, y int, v uint16) {
	im.Pixels[y*im.Width+x] = v
}

func (im *DepthImage) validate() error {
	if im == nil || im.Width <= 0 || im.Height <= 0 {
		return fmt.Errorf("tsdf: empty depth image")
	}
	if len(im.Pixels) != im.Width*im.Height {
		return fmt.Errorf("tsdf: depth image has %d pixels, want %d", len(im.Pixels), im.Width*im.Height)
	}
	return nil
}

// Field2 is a dense 2-D scalar field addressed as (x, y) with row-major
// (y, x) storage. The TSDF builders produce values in [-1, 1].
type Field2 struct {
	Width, Height int
	Data          []float32
}

// NewField2 allocates a field with every cell set to fill.
func NewField2(width, height int, fill float32) *Field2 {
	f := &Field2{
		Width:  width,
		Height: height,
		Data:   make([]float32, width*height),
	}
	f.Fill(fill)
	return f
}

// At returns the cell value at (x, y).
func (f *Field2) At(x, y int) float32 { return f.Data[y*f.Width+x] }

// Set sets the cell value at (x, y).
func (f *Field2) Set(x, y int, v float32) { f.Data[y*f.Width+x] = v }

// Fill sets every cell to v.
func (f *Field2) Fill(v float32) {
	for i := range f.Data {
		f.Data[i] = v
	}
}

// VectorField2 is a dense 2-D field with a 2-component vector per cell,
// stored row-major as (y, x, component).
type VectorField2 struct {
	Width, Height int
	Data          []float32
}

// NewVectorField2 allocates a zeroed 2-D vector field.
func NewVectorField2(width, height int) *VectorField2 {
	return &VectorField2{
		Width:  width,
		Height: height,
		Data:   make([]float32, width*height*2),
	}
}

// At returns component c of the vector at (x, y).
func (f *VectorField2) At(x, y, c int) float32 {
	return f.Data[(y*f.Width+x)*2+c]
}

// Set sets component c of the vector at (x, y).
func (f *VectorField2) Set(x, y, c int, v float32) {
	f.Data[(y*f.Width+x)*2+c] = v
}

// VectorField3 is a dense 3-D field with a 3-component vector per cell,
// stored as (z, y, x, component).
type VectorField3 struct {
	NX, NY, NZ int
	Data       []float32
}

// NewVectorField3 allocates a zeroed 3-D vector field.
func NewVectorField3(nx, ny, nz int) *VectorField3 {
	return &VectorField3{
		NX: nx,
		NY: ny,
		NZ: nz,
		Data: make([]float32, nx*ny*nz*3),
	}
}

// At returns component c of the vector at (x, y, z).
func (f *VectorField3) At(x, y, z, c int) float32 {
	return f.Data[((z*f.NY+y)*f.NX+x)*3+c]
}

// Set sets component c of the vector at (x, y, z).
func (f *VectorField3) Set(x, y, z, c int, v float32) {
	f.Data[((z*f.NY+y)*f.NX+x)*3+c] = v
}
