package tsdf

import (
	"fmt"

	"github.com/chewxy/math32"
)

// SobolevKernel is the fixed 7-tap separable smoothing kernel
// approximating the Sobolev (H1) preconditioner of SobolevFusion. It is
// symmetric and low-pass; the dominant center tap keeps smoothing gentle.
var SobolevKernel = []float64{
	2.995900285895913839e-04,
	4.410949535667896271e-03,
	6.571318954229354858e-02,
	9.956527948379516602e-01,
	6.571318954229354858e-02,
	4.410949535667896271e-03,
	2.995900285895913839e-04,
}

// zeroTol is the magnitude below which a cell counts as exact background
// for the preserve-zeros mask.
const zeroTol = 1e-6

// Smoother applies separable 1-D convolution passes along each spatial
// axis of a vector field: Y then X for 2-D fields, X, Y then Z for 3-D
// fields. The axis order must not change; truncated-kernel convolution is
// not associative at array boundaries, so results are only reproducible
// with a fixed order.
type Smoother struct {
	// Kernel is a 1-D convolution kernel of odd length. Nil means
	// SobolevKernel.
	Kernel []float64
	// PreserveZeros records which cells have magnitude below 1e-6 before
	// the first pass and forces them back to exactly zero after every
	// pass, so background/masked regions never acquire spurious gradients
	// from their smoothed neighbors.
	PreserveZeros bool
}

func (s Smoother) kernel() ([]float64, error) {
	k := s.Kernel
	if k == nil {
		k = SobolevKernel
	}
	if len(k) == 0 || len(k)%2 == 0 {
		return nil, fmt.Errorf("tsdf: smoothing kernel has length %d, want odd", len(k))
	}
	return k, nil
}

// Smooth2 smooths a 2-D vector field in place, convolving along Y and
// then along X, and returns the same field for chaining.
func (s Smoother) Smooth2(f *VectorField2) (*VectorField2, error) {
	kernel, err := s.kernel()
	if err != nil {
		return nil, err
	}
	var mask []bool
	if s.PreserveZeros {
		mask = zeroMask(f.Data)
	}
	scratch := make([]float32, len(f.Data))
	line := make([]float64, maxInt(f.Width, f.Height))

	// Y pass: one line per column per component.
	for x := 0; x < f.Width; x++ {
		for c := 0; c < 2; c++ {
			for y := 0; y < f.Height; y++ {
				line[y] = float64(f.At(x, y, c))
			}
			for y := 0; y < f.Height; y++ {
				scratch[(y*f.Width+x)*2+c] = float32(convolveAt(line[:f.Height], kernel, y))
			}
		}
	}
	commitPass(f.Data, scratch, mask)

	// X pass.
	for y := 0; y < f.Height; y++ {
		for c := 0; c < 2; c++ {
			for x := 0; x < f.Width; x++ {
				line[x] = float64(f.At(x, y, c))
			}
			for x := 0; x < f.Width; x++ {
				scratch[(y*f.Width+x)*2+c] = float32(convolveAt(line[:f.Width], kernel, x))
			}
		}
	}
	commitPass(f.Data, scratch, mask)
	return f, nil
}

// Smooth3 smooths a 3-D vector field in place, convolving along X, Y and
// then Z, and returns the same field for chaining.
func (s Smoother) Smooth3(f *VectorField3) (*VectorField3, error) {
	kernel, err := s.kernel()
	if err != nil {
		return nil, err
	}
	var mask []bool
	if s.PreserveZeros {
		mask = zeroMask(f.Data)
	}
	scratch := make([]float32, len(f.Data))
	line := make([]float64, maxInt(f.NX, maxInt(f.NY, f.NZ)))

	// X pass.
	for z := 0; z < f.NZ; z++ {
		for y := 0; y < f.NY; y++ {
			for c := 0; c < 3; c++ {
				for x := 0; x < f.NX; x++ {
					line[x] = float64(f.At(x, y, z, c))
				}
				for x := 0; x < f.NX; x++ {
					scratch[((z*f.NY+y)*f.NX+x)*3+c] = float32(convolveAt(line[:f.NX], kernel, x))
				}
			}
		}
	}
	commitPass(f.Data, scratch, mask)

	// Y pass.
	for z := 0; z < f.NZ; z++ {
		for x := 0; x < f.NX; x++ {
			for c := 0; c < 3; c++ {
				for y := 0; y < f.NY; y++ {
					line[y] = float64(f.At(x, y, z, c))
				}
				for y := 0; y < f.NY; y++ {
					scratch[((z*f.NY+y)*f.NX+x)*3+c] = float32(convolveAt(line[:f.NY], kernel, y))
				}
			}
		}
	}
	commitPass(f.Data, scratch, mask)

	// Z pass.
	for y := 0; y < f.NY; y++ {
		for x := 0; x < f.NX; x++ {
			for c := 0; c < 3; c++ {
				for z := 0; z < f.NZ; z++ {
					line[z] = float64(f.At(x, y, z, c))
				}
				for z := 0; z < f.NZ; z++ {
					scratch[((z*f.NY+y)*f.NX+x)*3+c] = float32(convolveAt(line[:f.NZ], kernel, z))
				}
			}
		}
	}
	commitPass(f.Data, scratch, mask)
	return f, nil
}

// convolveAt evaluates the zero-padded "same" 1-D convolution of line with
// kernel at index i. True convolution, not correlation: the kernel is
// flipped, which matters for asymmetric kernels.
func convolveAt(line, kernel []float64, i int) float64 {
	half := (len(kernel) - 1) / 2
	var sum float64
	for j, k := range kernel {
		si := i + half - j
		if si < 0 || si >= len(line) {
			continue
		}
		sum += k * line[si]
	}
	return sum
}

// zeroMask records cells with near-zero magnitude.
func zeroMask(data []float32) []bool {
	mask := make([]bool, len(data))
	for i, v := range data {
		mask[i] = math32.Abs(v) < zeroTol
	}
	return mask
}

// commitPass copies a finished axis pass back into the field, forcing
// masked cells to exactly zero when a mask is present.
func commitPass(dst, scratch []float32, mask []bool) {
	copy(dst, scratch)
	if mask == nil {
		return
	}
	for i, zero := range mask {
		if zero {
			dst[i] = 0
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
