// Package config holds the tool configuration, mainly the choice of
// processing algorithm and error-diffusion weights. The defaults are
// compiled in; an optional YAML file overrides them.
//
// Example file:
//
//	algorithm: floyd-steinberg
//	weights:
//	  preset: soft
//
// or with explicit weights:
//
//	weights:
//	  tr: 0.4375
//	  bl: 0.3125
//	  br: 0.25
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ditherbox/ditherbox/internal/dither"
)

// Config is the top-level tool configuration.
type Config struct {
	// Algorithm selects the processing mode: "threshold" or
	// "floyd-steinberg".
	Algorithm string `yaml:"algorithm"`

	// Weights configures error diffusion; ignored for thresholding.
	Weights WeightsConfig `yaml:"weights"`
}

// WeightsConfig selects diffusion weights either by preset name or as an
// explicit triple. When explicit values are present they take precedence
// over the preset.
type WeightsConfig struct {
	// Preset is "balanced" (full error distribution, the default) or
	// "soft" (the historical low-saturation set).
	Preset string `yaml:"preset"`

	TR *float64 `yaml:"tr"`
	BL *float64 `yaml:"bl"`
	BR *float64 `yaml:"br"`
}

// Default returns the compiled-in configuration: Floyd-Steinberg with
// the balanced weight preset.
func Default() Config {
	return Config{
		Algorithm: dither.ModeFloydSteinberg.String(),
		Weights:   WeightsConfig{Preset: "balanced"},
	}
}

// Load reads a YAML configuration file over the defaults. Fields absent
// from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Mode resolves the configured algorithm.
func (c Config) Mode() (dither.Mode, error) {
	return dither.ParseMode(c.Algorithm)
}

// DiffusionWeights resolves the configured weight triple.
func (c Config) DiffusionWeights() (dither.Weights, error) {
	if c.Weights.TR != nil || c.Weights.BL != nil || c.Weights.BR != nil {
		if c.Weights.TR == nil || c.Weights.BL == nil || c.Weights.BR == nil {
			return dither.Weights{}, fmt.Errorf("config: explicit weights need all of tr, bl and br")
		}
		w := dither.Weights{TR: *c.Weights.TR, BL: *c.Weights.BL, BR: *c.Weights.BR}
		if sum := w.TR + w.BL + w.BR; sum > 1.0 || w.TR < 0 || w.BL < 0 || w.BR < 0 {
			return dither.Weights{}, fmt.Errorf("config: weights must be non-negative and sum to at most 1, got sum %v", sum)
		}
		return w, nil
	}

	switch c.Weights.Preset {
	case "", "balanced":
		return dither.BalancedWeights, nil
	case "soft":
		return dither.SoftWeights, nil
	default:
		return dither.Weights{}, fmt.Errorf("config: unknown weights preset %q", c.Weights.Preset)
	}
}
