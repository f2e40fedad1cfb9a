package dither

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/ditherbox/ditherbox/internal/colorspace"
	"github.com/ditherbox/ditherbox/internal/grid"
	"github.com/ditherbox/ditherbox/internal/palette"
)

// newGradientImage creates a horizontal gradient from one color to
// another, matching the synthetic images the CLI tests with.
func newGradientImage(width, height int, from, to colorspace.RGB) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		factor := float64(x) / float64(width-1)
		c := colorspace.Mix(factor, from, to)
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{c.R, c.G, c.B, 255})
		}
	}
	return img
}

func newUniformImage(width, height int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func pixelRGB(img image.Image, x, y int) colorspace.RGB {
	r, g, b, _ := img.At(x, y).RGBA()
	return colorspace.RGB{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
}

func TestRun_PreservesDimensions(t *testing.T) {
	src := newGradientImage(200, 80, colorspace.RGB{}, colorspace.RGB{R: 0, G: 0, B: 255})
	p := palette.Primary()

	for _, mode := range []Mode{ModeThreshold, ModeFloydSteinberg} {
		t.Run(mode.String(), func(t *testing.T) {
			out, err := NewProcessor(p, mode).Run(src)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if out.Bounds().Dx() != 200 || out.Bounds().Dy() != 80 {
				t.Errorf("output is %dx%d, want 200x80", out.Bounds().Dx(), out.Bounds().Dy())
			}
		})
	}
}

func TestRun_OutputUsesOnlyPaletteColors(t *testing.T) {
	src := newGradientImage(64, 32, colorspace.RGB{}, colorspace.RGB{R: 255, G: 255, B: 255})
	p, err := palette.Grayscale(4)
	if err != nil {
		t.Fatalf("Grayscale failed: %v", err)
	}

	for _, mode := range []Mode{ModeThreshold, ModeFloydSteinberg} {
		t.Run(mode.String(), func(t *testing.T) {
			out, err := NewProcessor(p, mode).Run(src)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			for y := 0; y < out.Bounds().Dy(); y++ {
				for x := 0; x < out.Bounds().Dx(); x++ {
					if c := pixelRGB(out, x, y); !p.Contains(c) {
						t.Fatalf("pixel (%d,%d) = %v is not a palette color", x, y, c)
					}
				}
			}
		})
	}
}

// Thresholding a black-to-white gradient with a black/white palette must
// leave the dark half black-dominated and the bright half
// white-dominated, and the output must contain exactly two colors.
func TestThreshold_BlackWhiteGradient(t *testing.T) {
	width, height := 200, 40
	src := newGradientImage(width, height, colorspace.RGB{}, colorspace.RGB{R: 255, G: 255, B: 255})

	out, err := NewProcessor(palette.BlackWhite(), ModeThreshold).Run(src)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	black := colorspace.RGB{}
	countBlack := func(x0, x1 int) int {
		n := 0
		for y := 0; y < height; y++ {
			for x := x0; x < x1; x++ {
				if pixelRGB(out, x, y) == black {
					n++
				}
			}
		}
		return n
	}

	halfPixels := width / 2 * height
	leftBlack := countBlack(0, width/2)
	rightBlack := countBlack(width/2, width)

	if leftBlack*2 <= halfPixels {
		t.Errorf("left half has %d/%d black pixels, want a black majority", leftBlack, halfPixels)
	}
	if (halfPixels-rightBlack)*2 <= halfPixels {
		t.Errorf("right half has %d/%d white pixels, want a white majority", halfPixels-rightBlack, halfPixels)
	}

	if recovered := palette.FromImage(out); len(recovered) != 2 {
		t.Errorf("recovered palette has %d colors, want 2", len(recovered))
	}
}

// Diffusion must keep the average tone close to the source: a mid-gray
// image dithered to black and white should stay near 50% black.
func TestFloydSteinberg_PreservesAverageTone(t *testing.T) {
	width, height := 64, 64
	src := newUniformImage(width, height, color.RGBA{128, 128, 128, 255})

	out, err := NewProcessor(palette.BlackWhite(), ModeFloydSteinberg).Run(src)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	black := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if pixelRGB(out, x, y) == (colorspace.RGB{}) {
				black++
			}
		}
	}

	ratio := float64(black) / float64(width*height)
	if math.Abs(ratio-0.5) > 0.2 {
		t.Errorf("black ratio = %.2f, want close to 0.5 for mid-gray input", ratio)
	}
}

func TestFloydSteinberg_RequiresMinimumSize(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"single row", 5, 1},
		{"single column", 1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newUniformImage(tt.w, tt.h, color.RGBA{10, 20, 30, 255})

			_, err := NewProcessor(palette.BlackWhite(), ModeFloydSteinberg).Run(src)

			var badSize *grid.BadSizeError
			if !errors.As(err, &badSize) {
				t.Errorf("got %v, want *grid.BadSizeError", err)
			}
		})
	}
}

func TestThreshold_WorksOnSingleRow(t *testing.T) {
	src := newUniformImage(5, 1, color.RGBA{250, 250, 250, 255})

	out, err := NewProcessor(palette.BlackWhite(), ModeThreshold).Run(src)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := pixelRGB(out, 2, 0); got != (colorspace.RGB{R: 255, G: 255, B: 255}) {
		t.Errorf("near-white pixel thresholded to %v, want white", got)
	}
}

func TestRun_EmptyPalette(t *testing.T) {
	src := newUniformImage(4, 4, color.RGBA{0, 0, 0, 255})

	_, err := NewProcessor(nil, ModeThreshold).Run(src)
	if !errors.Is(err, ErrEmptyPalette) {
		t.Errorf("got %v, want ErrEmptyPalette", err)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"threshold", ModeThreshold, false},
		{"floyd-steinberg", ModeFloydSteinberg, false},
		{"ordered", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMode(%q) should fail", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMode(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWeights_PresetsSumAtMostOne(t *testing.T) {
	for name, w := range map[string]Weights{
		"balanced": BalancedWeights,
		"soft":     SoftWeights,
	} {
		if sum := w.TR + w.BL + w.BR; sum > 1.0+1e-9 {
			t.Errorf("%s weights sum to %v, want <= 1", name, sum)
		}
	}
}
