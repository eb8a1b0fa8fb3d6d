package tsdf

import (
	"math"
	"testing"

	"github.com/fieldforge/tsdf/camera"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// TestGenerateEWAConstantDepth checks that the weighted average of a
// constant-depth region is that depth: on flat input the EWA field must
// match the nearest-sample field.
func TestGenerateEWAConstantDepth(t *testing.T) {
	img := NewDepthImage(640, 9)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			img.Set(x, y, 3000)
		}
	}
	cam := camera.NewDepth(camera.NewIntrinsics(700, 700, 320, 240, 640, 9), 0.001)
	opts := DefaultOptions()
	opts.FieldSize = 16
	opts.ArrayOffset = V3i{-8, 0, 735}

	ewaField, err := GenerateEWA(img, cam, 4, opts)
	if err != nil {
		t.Fatal(err)
	}
	nearField, err := Generate(img, cam, 4, opts)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(nearField.Data, ewaField.Data, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("EWA field differs from nearest field on constant depth (-near +ewa):\n%s", diff)
	}
}

func TestGenerateEWAValuesInBand(t *testing.T) {
	field, err := GenerateEWA(rampDepthImage(), rampCamera(), 1, rampOptions())
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range field.Data {
		if v < -1 || v > 1 {
			t.Errorf("cell %d has value %g outside [-1, 1]", i, v)
		}
	}
}

// TestGenerateEWASmoothsRamp checks the anisotropic average follows the
// surface: where the nearest field is in-band, the EWA field is close to
// it (the Gaussian footprint only blends neighboring ramp samples).
func TestGenerateEWASmoothsRamp(t *testing.T) {
	img := linearDepthImage(640, 2000, 1)
	big := NewDepthImage(640, 9)
	for y := 0; y < big.Height; y++ {
		for x := 0; x < big.Width; x++ {
			big.Set(x, y, img.At(x, 0))
		}
	}
	cam := camera.NewDepth(camera.NewIntrinsics(700, 700, 320, 240, 640, 9), 0.001)
	opts := DefaultOptions()
	opts.FieldSize = 16
	opts.ArrayOffset = V3i{-8, 0, 550}
	opts.NarrowBandWidthVoxels = 40

	ewaField, err := GenerateEWA(big, cam, 4, opts)
	if err != nil {
		t.Fatal(err)
	}
	nearField, err := Generate(big, cam, 4, opts)
	if err != nil {
		t.Fatal(err)
	}
	for i := range nearField.Data {
		n := float64(nearField.Data[i])
		e := float64(ewaField.Data[i])
		if n > -1 && n < 1 && math.Abs(n-e) > 5e-2 {
			t.Errorf("cell %d: nearest %g vs EWA %g", i, n, e)
		}
	}
}

func TestGenerateEWADefaultsPreserved(t *testing.T) {
	const fill = float32(0.25)
	opts := rampOptions()
	opts.DefaultValue = fill
	opts.ArrayOffset = V3i{94, -256, -300} // every voxel behind the camera
	field, err := GenerateEWA(rampDepthImage(), rampCamera(), 1, opts)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range field.Data {
		if v != fill {
			t.Fatalf("cell %d is %g, want untouched default %g", i, v, fill)
		}
	}
}
