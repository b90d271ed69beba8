// Package config holds the tunables of every augmentation operator and
// loads them from YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"trackaug/internal/logger"
	"trackaug/tensor"
)

// Config holds every augmentation knob. Zero values are not meaningful;
// start from Default and override.
type Config struct {
	Gray       GrayConfig       `yaml:"gray"`
	Stretch    StretchConfig    `yaml:"stretch"`
	Crop       CropConfig       `yaml:"crop"`
	Color      ColorConfig      `yaml:"color"`
	Blur       BlurConfig       `yaml:"blur"`
	Flip       FlipConfig       `yaml:"flip"`
	Downsample DownsampleConfig `yaml:"downsample"`
	Mixup      MixupConfig      `yaml:"mixup"`
	Runner     RunnerConfig     `yaml:"runner"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type GrayConfig struct {
	Ratio float64 `yaml:"ratio"`
}

type StretchConfig struct {
	MaxStretch    float64 `yaml:"max_stretch"`
	Interpolation string  `yaml:"interpolation"` // bilinear, bicubic
}

type CropConfig struct {
	Height int     `yaml:"height"`
	Width  int     `yaml:"width"`
	Margin int     `yaml:"margin"` // extra room required around the target before padding kicks in
	Fill   float64 `yaml:"fill"`
}

type ColorConfig struct {
	MaxBrightnessDelta float64 `yaml:"max_brightness_delta"` // added to samples as is
	ContrastLower      float64 `yaml:"contrast_lower"`
	ContrastUpper      float64 `yaml:"contrast_upper"`
	Prob               float64 `yaml:"prob"`
}

type BlurConfig struct {
	Prob          float64 `yaml:"prob"`
	MinKernelSize int     `yaml:"min_kernel_size"`
	MaxKernelSize int     `yaml:"max_kernel_size"`
	Backend       string  `yaml:"backend"` // go, opencv
}

type FlipConfig struct {
	Prob float64 `yaml:"prob"`
}

type DownsampleConfig struct {
	ImageSize int     `yaml:"image_size"`
	Prob      float64 `yaml:"prob"`
	MinRatio  float64 `yaml:"min_ratio"`
	MaxRatio  float64 `yaml:"max_ratio"`
}

type MixupConfig struct {
	Enabled bool    `yaml:"enabled"`
	MinRate float64 `yaml:"min_rate"`
	MaxRate float64 `yaml:"max_rate"`
}

type RunnerConfig struct {
	Workers int   `yaml:"workers"` // 0 means GOMAXPROCS
	Seed    int64 `yaml:"seed"`    // seeds augment.Augmenter.NewRand
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// Default returns the settings the tracker training recipe ships with.
func Default() Config {
	return Config{
		Gray:    GrayConfig{Ratio: 0.25},
		Stretch: StretchConfig{MaxStretch: 0.4, Interpolation: "bilinear"},
		Crop:    CropConfig{Height: 255, Width: 255, Margin: 64, Fill: 128},
		Color: ColorConfig{
			MaxBrightnessDelta: 0.12,
			ContrastLower:      0.5,
			ContrastUpper:      1.5,
			Prob:               0.3,
		},
		Blur:       BlurConfig{Prob: 0.3, MinKernelSize: 3, MaxKernelSize: 11, Backend: "go"},
		Flip:       FlipConfig{Prob: 0.3},
		Downsample: DownsampleConfig{ImageSize: 255, Prob: 0.3, MinRatio: 1.0 / 8, MaxRatio: 1.0 / 4},
		Mixup:      MixupConfig{Enabled: true, MinRate: 0.3, MaxRate: 1.5},
		Logging:    LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML file on top of Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default and validates the result. Keys the
// document omits keep their default value.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Marshal renders cfg back to YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func checkProb(name string, p float64) error {
	if p < 0 || p > 1 {
		return fmt.Errorf("%s must be in [0, 1], got %v", name, p)
	}
	return nil
}

// Validate reports every out-of-range setting at once.
func (c Config) Validate() error {
	var errs []error

	for _, p := range []struct {
		name string
		v    float64
	}{
		{"gray.ratio", c.Gray.Ratio},
		{"color.prob", c.Color.Prob},
		{"blur.prob", c.Blur.Prob},
		{"flip.prob", c.Flip.Prob},
		{"downsample.prob", c.Downsample.Prob},
	} {
		if err := checkProb(p.name, p.v); err != nil {
			errs = append(errs, err)
		}
	}

	if c.Stretch.MaxStretch < 0 || c.Stretch.MaxStretch >= 1 {
		errs = append(errs, fmt.Errorf("stretch.max_stretch must be in [0, 1), got %v", c.Stretch.MaxStretch))
	}
	if _, err := tensor.ParseInterpolation(c.Stretch.Interpolation); err != nil {
		errs = append(errs, fmt.Errorf("stretch.interpolation: %w", err))
	}
	if c.Crop.Height <= 0 || c.Crop.Width <= 0 {
		errs = append(errs, fmt.Errorf("crop size must be positive, got %dx%d", c.Crop.Height, c.Crop.Width))
	}
	if c.Crop.Margin < 0 {
		errs = append(errs, fmt.Errorf("crop.margin must not be negative, got %d", c.Crop.Margin))
	}
	if c.Color.MaxBrightnessDelta < 0 {
		errs = append(errs, fmt.Errorf("color.max_brightness_delta must not be negative, got %v", c.Color.MaxBrightnessDelta))
	}
	if c.Color.ContrastLower < 0 || c.Color.ContrastLower > c.Color.ContrastUpper {
		errs = append(errs, fmt.Errorf("color contrast range [%v, %v] is invalid", c.Color.ContrastLower, c.Color.ContrastUpper))
	}
	if k0, k1 := c.Blur.MinKernelSize, c.Blur.MaxKernelSize; k0 < 1 || k0%2 == 0 || k1%2 == 0 || k0 > k1 {
		errs = append(errs, fmt.Errorf("blur kernel range [%d, %d] must hold odd sizes", k0, k1))
	}
	switch c.Blur.Backend {
	case "go", "opencv":
	default:
		errs = append(errs, fmt.Errorf("blur.backend must be go or opencv, got %q", c.Blur.Backend))
	}
	if c.Downsample.ImageSize <= 0 {
		errs = append(errs, fmt.Errorf("downsample.image_size must be positive, got %d", c.Downsample.ImageSize))
	}
	if r0, r1 := c.Downsample.MinRatio, c.Downsample.MaxRatio; r0 <= 0 || r0 > r1 || r1 > 1 {
		errs = append(errs, fmt.Errorf("downsample ratio range [%v, %v] is invalid", r0, r1))
	}
	if c.Mixup.MinRate <= 0 || c.Mixup.MinRate > c.Mixup.MaxRate {
		errs = append(errs, fmt.Errorf("mixup rate range [%v, %v] is invalid", c.Mixup.MinRate, c.Mixup.MaxRate))
	}
	if c.Runner.Workers < 0 {
		errs = append(errs, fmt.Errorf("runner.workers must not be negative, got %d", c.Runner.Workers))
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// NewLogger builds the zerolog-backed logger the config asks for.
func (c Config) NewLogger() (logger.Logger, error) {
	level, err := logger.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	if c.Logging.Console {
		return logger.NewConsoleLogger(level), nil
	}
	return logger.NewZerolog(os.Stderr, level), nil
}
