// Package colorspace provides the color value types used throughout the
// dithering pipeline and the conversions between them.
//
// Two representations exist for every color:
//   - RGB: the 8-bit-per-channel display/storage form
//   - Lab: the perceptual floating-point form used for clustering and
//     error diffusion
//
// Conversions go through go-colorful's sRGB↔CIE-Lab implementation (D65
// white point). Round-tripping an RGB color through Lab and back changes
// each channel by at most 1 due to rounding.
package colorspace

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is an 8-bit-per-channel color triple.
//
// Each component ranges from 0 to 255. RGB is the storage and display
// form: palettes are persisted as RGB triples and final images are
// written back in RGB.
type RGB struct {
	R uint8 // Red component (0-255)
	G uint8 // Green component (0-255)
	B uint8 // Blue component (0-255)
}

// Hex returns the color in "#RRGGBB" form.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Lab converts the color to its perceptual CIE-Lab representation.
func (c RGB) Lab() Lab {
	col := colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
	l, a, b := col.Lab()
	return Lab{L: l, A: a, B: b}
}

// MarshalJSON encodes the color as a 3-element integer array [r,g,b],
// the palette persistence wire format.
func (c RGB) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]int{int(c.R), int(c.G), int(c.B)})
}

// UnmarshalJSON decodes a 3-element integer array [r,g,b]. Values outside
// 0-255 or arrays of any other length are rejected.
func (c *RGB) UnmarshalJSON(data []byte) error {
	var channels []int
	if err := json.Unmarshal(data, &channels); err != nil {
		return fmt.Errorf("color must be an array of integers: %w", err)
	}
	if len(channels) != 3 {
		return fmt.Errorf("color must have exactly 3 channels, got %d", len(channels))
	}
	for i, v := range channels {
		if v < 0 || v > 255 {
			return fmt.Errorf("channel %d out of range: %d", i, v)
		}
	}
	c.R = uint8(channels[0])
	c.G = uint8(channels[1])
	c.B = uint8(channels[2])
	return nil
}

// Lab is a color in the CIE-Lab perceptual color space.
//
// Unlike RGB, Lab values are not clamped to any gamut: during error
// diffusion cells accumulate quantization residue and may temporarily
// leave the range representable in 8-bit sRGB. Converting back to RGB
// clamps to the nearest in-gamut color.
type Lab struct {
	L float64 // Lightness (0 = black, 100 = white for in-gamut colors)
	A float64 // Green-red axis
	B float64 // Blue-yellow axis
}

// RGB converts the color back to the 8-bit display form, clamping
// out-of-gamut values.
func (l Lab) RGB() RGB {
	col := colorful.Lab(l.L, l.A, l.B).Clamped()
	r, g, b := col.RGB255()
	return RGB{R: r, G: g, B: b}
}

// Add returns the component-wise sum of two Lab values.
func (l Lab) Add(o Lab) Lab {
	return Lab{L: l.L + o.L, A: l.A + o.A, B: l.B + o.B}
}

// Sub returns the component-wise difference of two Lab values.
func (l Lab) Sub(o Lab) Lab {
	return Lab{L: l.L - o.L, A: l.A - o.A, B: l.B - o.B}
}

// Scale returns the Lab value with every component multiplied by s.
func (l Lab) Scale(s float64) Lab {
	return Lab{L: l.L * s, A: l.A * s, B: l.B * s}
}

// Distance returns the Euclidean distance between two Lab values, the
// same measure go-colorful exposes as DistanceLab. It is non-negative,
// symmetric and zero only for equal inputs, which is all the clustering
// and nearest-color code requires.
func Distance(a, b Lab) float64 {
	dl := a.L - b.L
	da := a.A - b.A
	db := a.B - b.B
	return math.Sqrt(dl*dl + da*da + db*db)
}

// Mean returns the component-wise arithmetic mean of the given Lab
// values. The mean is order-independent. Calling Mean with an empty
// slice is a programmer error and panics.
func Mean(values []Lab) Lab {
	if len(values) == 0 {
		panic("colorspace: mean of empty slice")
	}
	var sum Lab
	for _, v := range values {
		sum = sum.Add(v)
	}
	return sum.Scale(1.0 / float64(len(values)))
}

// Mix linearly interpolates between two RGB colors in channel space.
// A factor of 0 returns from, 1 returns to; factors outside [0,1] are
// clamped. Used by the synthetic gradient generator.
func Mix(factor float64, from, to RGB) RGB {
	return RGB{
		R: mixChannel(factor, from.R, to.R),
		G: mixChannel(factor, from.G, to.G),
		B: mixChannel(factor, from.B, to.B),
	}
}

func mixChannel(factor float64, from, to uint8) uint8 {
	factor = math.Max(0, math.Min(1, factor))
	mixed := (1.0-factor)*float64(from) + factor*float64(to)
	return uint8(math.Max(0, math.Min(255, math.Round(mixed))))
}
