// Package depthimage loads 16-bit depth rasters for the TSDF builders.
// Depth sensors and synthetic renderers commonly store depth as 16-bit
// grayscale PNG with 0 marking "no return"; the loader substitutes the
// sentinel maximum depth for those pixels, which the builders treat as
// empty space in front of the camera.
package depthimage

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"github.com/fieldforge/tsdf"
	"github.com/nfnt/resize"
)

// Load decodes a 16-bit grayscale PNG depth image, replacing zero ("no
// return") pixels with tsdf.Sentinel.
func Load(r io.Reader) (*tsdf.DepthImage, error) {
	src, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("depthimage: %w", err)
	}
	gray, ok := src.(*image.Gray16)
	if !ok {
		return nil, fmt.Errorf("depthimage: decoded %T, want 16-bit grayscale", src)
	}
	return FromGray16(gray), nil
}

// LoadFile opens and decodes a depth PNG from disk.
func LoadFile(path string) (*tsdf.DepthImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// FromGray16 converts a 16-bit grayscale image to a depth image,
// replacing zero pixels with tsdf.Sentinel.
func FromGray16(gray *image.Gray16) *tsdf.DepthImage {
	b := gray.Bounds()
	img := tsdf.NewDepthImage(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := gray.Gray16At(b.Min.X+x, b.Min.Y+y).Y
			if v == 0 {
				v = tsdf.Sentinel
			}
			img.Set(x, y, v)
		}
	}
	return img
}

// ToGray16 converts a depth image to a 16-bit grayscale image.
func ToGray16(img *tsdf.DepthImage) *image.Gray16 {
	gray := image.NewGray16(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			gray.SetGray16(x, y, color.Gray16{Y: img.At(x, y)})
		}
	}
	return gray
}

// Downsample resizes a depth image to the given dimensions using
// nearest-neighbor sampling. Interpolating resamplers average across depth
// discontinuities and invent phantom surfaces between foreground and
// background, so only nearest-neighbor is offered.
func Downsample(img *tsdf.DepthImage, width, height int) *tsdf.DepthImage {
	resized := resize.Resize(uint(width), uint(height), ToGray16(img), resize.NearestNeighbor)
	return FromGray16(resized.(*image.Gray16))
}
