// Package dither rewrites an image using only the colors of a palette,
// either by plain nearest-color thresholding or by Floyd-Steinberg
// error diffusion over a 2x2 neighborhood kernel.
package dither

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/ditherbox/ditherbox/internal/colorspace"
	"github.com/ditherbox/ditherbox/internal/grid"
	"github.com/ditherbox/ditherbox/internal/palette"
)

// Mode selects the rewriting algorithm.
type Mode int

const (
	// ModeThreshold replaces every pixel independently with the nearest
	// palette color. Carries no state between pixels.
	ModeThreshold Mode = iota

	// ModeFloydSteinberg additionally diffuses each pixel's quantization
	// error into its right, below and diagonal neighbors. Requires an
	// image of at least 2x2 pixels.
	ModeFloydSteinberg
)

func (m Mode) String() string {
	switch m {
	case ModeThreshold:
		return "threshold"
	case ModeFloydSteinberg:
		return "floyd-steinberg"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps a configuration string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "threshold":
		return ModeThreshold, nil
	case "floyd-steinberg":
		return ModeFloydSteinberg, nil
	default:
		return 0, fmt.Errorf("dither: unknown algorithm %q", s)
	}
}

// Weights is the error-diffusion weight triple: the fractions of the
// quantization error pushed to the right (TR), below (BL) and diagonal
// (BR) neighbors. The three weights should sum to at most 1 to avoid
// channel overshoot.
//
// The weights are deliberately a parameter rather than constants baked
// into the kernel: two historical weight sets produce materially
// different output and the choice belongs to configuration.
type Weights struct {
	TR float64
	BL float64
	BR float64
}

var (
	// BalancedWeights distributes the full error (sums to 1.0), keeping
	// average tone intact. This is the default.
	BalancedWeights = Weights{TR: 9.0 / 18.0, BL: 5.0 / 18.0, BR: 4.0 / 18.0}

	// SoftWeights drops most of the error (sums to ~0.46), trading tone
	// fidelity for less visible noise on saturated palettes.
	SoftWeights = Weights{TR: 1.5 / 18.0, BL: 2.5 / 18.0, BR: 4.2 / 18.0}
)

// ErrEmptyPalette is returned when a Processor is run without any
// palette colors.
var ErrEmptyPalette = errors.New("dither: palette is empty")

// Processor applies one algorithm run over one image. It exclusively
// owns its working grid for the duration of Run; a Processor may be
// reused sequentially but not concurrently.
type Processor struct {
	Palette palette.Palette
	Mode    Mode
	Weights Weights
	Logger  *slog.Logger
}

// NewProcessor returns a Processor with the default diffusion weights.
func NewProcessor(p palette.Palette, mode Mode) *Processor {
	return &Processor{
		Palette: p,
		Mode:    mode,
		Weights: BalancedWeights,
	}
}

// Run rewrites img using only palette colors and returns the result.
// The output image always has the source's dimensions.
func (pr *Processor) Run(img image.Image) (image.Image, error) {
	if len(pr.Palette) == 0 {
		return nil, ErrEmptyPalette
	}
	logger := pr.Logger
	if logger == nil {
		logger = slog.Default()
	}

	bounds := img.Bounds()
	g, err := labGrid(img)
	if err != nil {
		return nil, err
	}
	labs := pr.Palette.Lab()

	logger.Debug("processing image",
		"mode", pr.Mode.String(),
		"width", bounds.Dx(),
		"height", bounds.Dy(),
		"palette_colors", len(pr.Palette),
	)

	switch pr.Mode {
	case ModeThreshold:
		// Nothing to do up front: the nearest-color snap below is the
		// whole algorithm.
	case ModeFloydSteinberg:
		if err := pr.diffuse(g, labs); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("dither: unknown mode %d", int(pr.Mode))
	}

	return pr.snapToPalette(g, labs, bounds), nil
}

// labGrid flattens the image into its perceptual representation.
func labGrid(img image.Image) (*grid.Grid[colorspace.Lab], error) {
	bounds := img.Bounds()
	return grid.NewFromFunc(bounds.Dx(), bounds.Dy(), func(x, y int) colorspace.Lab {
		r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
		c := colorspace.RGB{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
		return c.Lab()
	})
}

// diffuse runs the Floyd-Steinberg pass in place. At each step the
// current cell snaps to its nearest palette color and the residual is
// spread to the three unvisited neighbors; writes past the border land
// in the traversal's scratch cells and are discarded.
func (pr *Processor) diffuse(g *grid.Grid[colorspace.Lab], labs []colorspace.Lab) error {
	w := pr.Weights
	return g.ForEachKernel(func(x, y int, k grid.Kernel2x2[colorspace.Lab]) {
		chosen := labs[palette.NearestIndex(labs, *k.TL)]
		quantError := k.TL.Sub(chosen)
		*k.TL = chosen

		*k.TR = k.TR.Add(quantError.Scale(w.TR))
		*k.BL = k.BL.Add(quantError.Scale(w.BL))
		*k.BR = k.BR.Add(quantError.Scale(w.BR))
	})
}

// snapToPalette converts the working grid back to an 8-bit image,
// mapping every cell to its nearest palette entry so the output contains
// palette colors only. Cells already holding palette values (every TL
// after a pass) map at distance zero.
func (pr *Processor) snapToPalette(g *grid.Grid[colorspace.Lab], labs []colorspace.Lab, bounds image.Rectangle) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < g.Height(); y++ {
		for x, cell := range g.Row(y) {
			c := pr.Palette[palette.NearestIndex(labs, cell)]
			i := out.PixOffset(x, y)
			out.Pix[i+0] = c.R
			out.Pix[i+1] = c.G
			out.Pix[i+2] = c.B
			out.Pix[i+3] = 0xFF
		}
	}
	return out
}
