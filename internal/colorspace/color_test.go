package colorspace

import (
	"encoding/json"
	"math"
	"testing"
)

func absDiff(a, b uint8) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}

func TestRGBLabRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		color RGB
	}{
		{"black", RGB{0, 0, 0}},
		{"white", RGB{255, 255, 255}},
		{"pure red", RGB{255, 0, 0}},
		{"pure green", RGB{0, 255, 0}},
		{"pure blue", RGB{0, 0, 255}},
		{"mid gray", RGB{128, 128, 128}},
		{"orange", RGB{255, 128, 64}},
		{"dark cyan", RGB{0, 96, 96}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.color.Lab().RGB()
			if absDiff(got.R, tt.color.R) > 1 || absDiff(got.G, tt.color.G) > 1 || absDiff(got.B, tt.color.B) > 1 {
				t.Errorf("round trip of %v produced %v, want within ±1 per channel", tt.color, got)
			}
		})
	}
}

func TestRGBLabRoundTrip_GrayRamp(t *testing.T) {
	for v := 0; v <= 255; v++ {
		c := RGB{uint8(v), uint8(v), uint8(v)}
		got := c.Lab().RGB()
		if absDiff(got.R, c.R) > 1 || absDiff(got.G, c.G) > 1 || absDiff(got.B, c.B) > 1 {
			t.Fatalf("gray %d round-tripped to %v", v, got)
		}
	}
}

func TestDistanceProperties(t *testing.T) {
	colors := []RGB{
		{0, 0, 0},
		{255, 255, 255},
		{255, 0, 0},
		{0, 128, 255},
		{17, 93, 211},
	}

	for _, a := range colors {
		for _, b := range colors {
			la, lb := a.Lab(), b.Lab()
			d := Distance(la, lb)
			if d < 0 {
				t.Errorf("Distance(%v, %v) = %v, want non-negative", a, b, d)
			}
			if rd := Distance(lb, la); math.Abs(d-rd) > 1e-12 {
				t.Errorf("Distance not symmetric for %v, %v: %v vs %v", a, b, d, rd)
			}
			if a == b && d != 0 {
				t.Errorf("Distance(%v, %v) = %v, want 0 for equal inputs", a, b, d)
			}
			if a != b && d == 0 {
				t.Errorf("Distance(%v, %v) = 0 for distinct inputs", a, b)
			}
		}
	}
}

func TestLabArithmetic(t *testing.T) {
	a := Lab{L: 10, A: -4, B: 2}
	b := Lab{L: 5, A: 1, B: -1}

	if got := a.Add(b); got != (Lab{L: 15, A: -3, B: 1}) {
		t.Errorf("Add: got %+v", got)
	}
	if got := a.Sub(b); got != (Lab{L: 5, A: -5, B: 3}) {
		t.Errorf("Sub: got %+v", got)
	}
	if got := b.Scale(2); got != (Lab{L: 10, A: 2, B: -2}) {
		t.Errorf("Scale: got %+v", got)
	}
}

func TestMean(t *testing.T) {
	values := []Lab{
		{L: 0, A: 0, B: 0},
		{L: 100, A: 20, B: -20},
	}
	got := Mean(values)
	want := Lab{L: 50, A: 10, B: -10}
	if got != want {
		t.Errorf("Mean: got %+v, want %+v", got, want)
	}
}

func TestMean_EmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Mean of empty slice should panic")
		}
	}()
	Mean(nil)
}

func TestMix(t *testing.T) {
	tests := []struct {
		name   string
		factor float64
		from   RGB
		to     RGB
		want   RGB
	}{
		{"start", 0, RGB{0, 0, 0}, RGB{100, 100, 100}, RGB{0, 0, 0}},
		{"end", 1, RGB{0, 0, 0}, RGB{100, 100, 100}, RGB{100, 100, 100}},
		{"quarter", 0.25, RGB{0, 0, 0}, RGB{100, 100, 100}, RGB{25, 25, 25}},
		{"clamped low", -0.5, RGB{10, 10, 10}, RGB{200, 200, 200}, RGB{10, 10, 10}},
		{"clamped high", 1.5, RGB{10, 10, 10}, RGB{200, 200, 200}, RGB{200, 200, 200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Mix(tt.factor, tt.from, tt.to); got != tt.want {
				t.Errorf("Mix(%v): got %v, want %v", tt.factor, got, tt.want)
			}
		})
	}
}

func TestRGBJSON(t *testing.T) {
	c := RGB{R: 12, G: 200, B: 255}

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != "[12,200,255]" {
		t.Errorf("Marshal: got %s, want [12,200,255]", data)
	}

	var back RGB
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back != c {
		t.Errorf("round trip: got %v, want %v", back, c)
	}
}

func TestRGBJSON_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"too short", "[1,2]"},
		{"too long", "[1,2,3,4]"},
		{"out of range", "[0,0,300]"},
		{"negative", "[-1,0,0]"},
		{"not an array", `{"r":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c RGB
			if err := json.Unmarshal([]byte(tt.data), &c); err == nil {
				t.Errorf("Unmarshal(%s) should fail", tt.data)
			}
		})
	}
}

func TestHex(t *testing.T) {
	if got := (RGB{255, 128, 64}).Hex(); got != "#FF8040" {
		t.Errorf("Hex: got %s, want #FF8040", got)
	}
}
