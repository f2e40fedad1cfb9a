// Package imgio handles the image file I/O, resizing and synthetic test
// image generation around the core pipeline. Format support (PNG, JPEG,
// GIF, ...) follows the disintegration/imaging codecs, keyed by file
// extension on save.
package imgio

import (
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/imaging"

	"github.com/ditherbox/ditherbox/internal/colorspace"
)

// Load decodes an image from disk.
func Load(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	return img, nil
}

// Save encodes img to disk; the format is derived from the file
// extension.
func Save(path string, img image.Image) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// Resize scales img to the given dimensions with a Lanczos filter.
// When exactly one of width or height is zero it is derived from the
// source aspect ratio; both zero (or any negative value) is an error.
func Resize(img image.Image, width, height int) (image.Image, error) {
	if width < 0 || height < 0 || (width == 0 && height == 0) {
		return nil, fmt.Errorf("invalid resize target %dx%d", width, height)
	}

	bounds := img.Bounds()
	if width == 0 {
		width = bounds.Dx() * height / bounds.Dy()
	}
	if height == 0 {
		height = bounds.Dy() * width / bounds.Dx()
	}
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("resize target %dx%d collapses the image", width, height)
	}

	return transform.Resize(img, width, height, transform.Lanczos), nil
}

// Gradient generates a horizontal gradient from one color to another,
// used for smoke-testing palettes and dithering settings without a real
// input image.
func Gradient(width, height int, from, to colorspace.RGB) (image.Image, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("invalid gradient size %dx%d", width, height)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		factor := 0.0
		if width > 1 {
			factor = float64(x) / float64(width-1)
		}
		c := colorspace.Mix(factor, from, to)
		for y := 0; y < height; y++ {
			img.SetNRGBA(x, y, color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255})
		}
	}
	return img, nil
}
