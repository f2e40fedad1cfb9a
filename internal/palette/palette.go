// Package palette models an ordered, duplicate-free set of colors and
// its reduction to a smaller representative set via k-means clustering
// in the perceptual Lab space.
package palette

import (
	"encoding/json"
	"fmt"
	"image"
	"math/rand"
	"os"
	"sort"
	"strings"

	"github.com/ditherbox/ditherbox/internal/cluster"
	"github.com/ditherbox/ditherbox/internal/colorspace"
)

// Palette is an ordered sequence of distinct RGB colors.
//
// Invariants maintained by every constructor:
//   - no two entries are equal under the 8-bit representation
//   - entries are sorted by perceptual lightness (darkest first), so
//     equality checks and persisted palettes are reproducible
type Palette []colorspace.RGB

// NotEnoughColorsError reports a reduction target larger than the
// palette being reduced.
type NotEnoughColorsError struct {
	Expected int // requested color count
	Actual   int // colors actually available
}

func (e *NotEnoughColorsError) Error() string {
	return fmt.Sprintf("palette: cannot reduce %d colors to %d", e.Actual, e.Expected)
}

// New builds a palette from arbitrary colors, dropping duplicates and
// sorting by lightness.
func New(colors []colorspace.RGB) Palette {
	seen := make(map[colorspace.RGB]struct{}, len(colors))
	p := make(Palette, 0, len(colors))
	for _, c := range colors {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		p = append(p, c)
	}
	p.sortByLightness()
	return p
}

// FromImage collects every distinct color observed in img.
func FromImage(img image.Image) Palette {
	bounds := img.Bounds()
	seen := make(map[colorspace.RGB]struct{})
	colors := make([]colorspace.RGB, 0, 64)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			c := colorspace.RGB{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			colors = append(colors, c)
		}
	}
	return New(colors)
}

// BlackWhite returns the two-color black and white palette.
func BlackWhite() Palette {
	return New([]colorspace.RGB{
		{R: 0, G: 0, B: 0},
		{R: 255, G: 255, B: 255},
	})
}

// Primary returns the three additive primaries.
func Primary() Palette {
	return New([]colorspace.RGB{
		{R: 255, G: 0, B: 0},
		{R: 0, G: 255, B: 0},
		{R: 0, G: 0, B: 255},
	})
}

// Grayscale returns n evenly spaced gray levels from black to white.
// n must be at least 2 so both endpoints exist.
func Grayscale(n int) (Palette, error) {
	if n < 2 {
		return nil, fmt.Errorf("palette: grayscale needs at least 2 levels, got %d", n)
	}
	colors := make([]colorspace.RGB, n)
	for i := 0; i < n; i++ {
		v := uint8(i * 255 / (n - 1))
		colors[i] = colorspace.RGB{R: v, G: v, B: v}
	}
	return New(colors), nil
}

// Reduce shrinks the palette to k representative colors using k-means
// over the Lab representations.
//
// When k equals the current size the palette is returned unchanged; when
// k exceeds it, *NotEnoughColorsError is returned before any clustering
// runs. rng seeds the centroid initialization; pass nil for a
// time-seeded source (tests pass a fixed seed).
func (p Palette) Reduce(k int, rng *rand.Rand) (Palette, error) {
	if k > len(p) {
		return nil, &NotEnoughColorsError{Expected: k, Actual: len(p)}
	}
	if k == len(p) {
		out := make(Palette, len(p))
		copy(out, p)
		return out, nil
	}

	finder := cluster.NewFinder(colorspace.Distance, colorspace.Mean)
	finder.Rand = rng

	centroids, err := finder.FindCentroids(p.Lab(), k)
	if err != nil {
		return nil, fmt.Errorf("palette: reduction failed: %w", err)
	}

	colors := make([]colorspace.RGB, len(centroids))
	for i, c := range centroids {
		colors[i] = c.RGB()
	}
	return New(colors), nil
}

// Lab returns the perceptual representation of every entry, in palette
// order.
func (p Palette) Lab() []colorspace.Lab {
	labs := make([]colorspace.Lab, len(p))
	for i, c := range p {
		labs[i] = c.Lab()
	}
	return labs
}

// Contains reports whether c is an entry of the palette.
func (p Palette) Contains(c colorspace.RGB) bool {
	for _, e := range p {
		if e == c {
			return true
		}
	}
	return false
}

// NearestIndex returns the index of the entry in labs closest to c,
// breaking ties by the first-encountered minimum so results are
// deterministic. labs must not be empty.
func NearestIndex(labs []colorspace.Lab, c colorspace.Lab) int {
	best := 0
	bestDist := colorspace.Distance(c, labs[0])
	for i := 1; i < len(labs); i++ {
		if d := colorspace.Distance(c, labs[i]); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// ANSI renders the palette as a row of true-color terminal swatches,
// used by the CLI's verbose output.
func (p Palette) ANSI() string {
	var sb strings.Builder
	for _, c := range p {
		fmt.Fprintf(&sb, "\x1b[48;2;%d;%d;%dm  \x1b[0m", c.R, c.G, c.B)
	}
	return sb.String()
}

func (p Palette) sortByLightness() {
	sort.SliceStable(p, func(i, j int) bool {
		return p[i].Lab().L < p[j].Lab().L
	})
}

// UnmarshalJSON decodes the persisted [[r,g,b],...] form and
// re-establishes the palette invariants (deduplication and lightness
// order).
func (p *Palette) UnmarshalJSON(data []byte) error {
	var colors []colorspace.RGB
	if err := json.Unmarshal(data, &colors); err != nil {
		return err
	}
	*p = New(colors)
	return nil
}

// Load reads a palette from a JSON file.
func Load(path string) (Palette, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read palette: %w", err)
	}
	var p Palette
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse palette: %w", err)
	}
	return p, nil
}

// Save writes the palette to a JSON file as an array of 3-element
// integer arrays.
func Save(path string, p Palette) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode palette: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write palette: %w", err)
	}
	return nil
}
