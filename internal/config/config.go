/**
 * Configuration for the blueprint estimator
 *
 * Sources, lowest to highest precedence: built-in defaults, an optional
 * YAML file, then BLUEPRINT_* environment variables (a .env file in the
 * working directory is loaded into the environment first).
 */

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Label ordering modes
const (
	OrderDetection = "detection"
	OrderSpatial   = "spatial"
)

// Alignment check modes
const (
	AlignmentOff    = "off"
	AlignmentWarn   = "warn"
	AlignmentStrict = "strict"
)

// Config holds estimator configuration
type Config struct {
	Estimate  EstimateConfig  `yaml:"estimate"`
	OCR       OCRConfig       `yaml:"ocr"`
	Labels    LabelConfig     `yaml:"labels"`
	Alignment AlignmentConfig `yaml:"alignment"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// EstimateConfig holds the material conversion constants.
type EstimateConfig struct {
	AreaConversion  float64 `yaml:"area_conversion"`  // vector units² → sq ft
	CeilingHeight   float64 `yaml:"ceiling_height"`   // feet
	PaintCoverage   float64 `yaml:"paint_coverage"`   // sq ft per gallon
	DrywallCoverage float64 `yaml:"drywall_coverage"` // sq ft per sheet
	WasteFactor     float64 `yaml:"waste_factor"`     // flooring multiplier
}

// OCRConfig configures the Tesseract engine.
type OCRConfig struct {
	Language       string `yaml:"language"`
	TessdataPrefix string `yaml:"tessdata_prefix"`
	Level          string `yaml:"level"` // "line" or "word"
	Preprocess     bool   `yaml:"preprocess"`
}

// LabelConfig configures label filtering and naming.
type LabelConfig struct {
	MinConfidence float64 `yaml:"min_confidence"`
	Order         string  `yaml:"order"`
}

// AlignmentConfig configures the vector/raster size check.
type AlignmentConfig struct {
	Mode      string  `yaml:"mode"`
	Tolerance float64 `yaml:"tolerance"` // pixels
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Estimate: EstimateConfig{
			AreaConversion:  0.01,
			CeilingHeight:   8,
			PaintCoverage:   350,
			DrywallCoverage: 32,
			WasteFactor:     1.10,
		},
		OCR: OCRConfig{
			Language: "eng",
			Level:    "line",
		},
		Labels: LabelConfig{
			MinConfidence: 0.6,
			Order:         OrderDetection,
		},
		Alignment: AlignmentConfig{
			Mode:      AlignmentWarn,
			Tolerance: 1,
		},
		LogLevel: "info",
	}
}

// LoadConfig loads configuration from defaults, an optional YAML file at
// path (empty to skip) and the environment.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	c.LogLevel = getEnvOrDefault("BLUEPRINT_LOG_LEVEL", c.LogLevel)

	c.Estimate.AreaConversion = getEnvAsFloatOrDefault("BLUEPRINT_AREA_CONVERSION", c.Estimate.AreaConversion)
	c.Estimate.CeilingHeight = getEnvAsFloatOrDefault("BLUEPRINT_CEILING_HEIGHT", c.Estimate.CeilingHeight)
	c.Estimate.PaintCoverage = getEnvAsFloatOrDefault("BLUEPRINT_PAINT_COVERAGE", c.Estimate.PaintCoverage)
	c.Estimate.DrywallCoverage = getEnvAsFloatOrDefault("BLUEPRINT_DRYWALL_COVERAGE", c.Estimate.DrywallCoverage)
	c.Estimate.WasteFactor = getEnvAsFloatOrDefault("BLUEPRINT_WASTE_FACTOR", c.Estimate.WasteFactor)

	c.OCR.Language = getEnvOrDefault("BLUEPRINT_OCR_LANGUAGE", c.OCR.Language)
	c.OCR.TessdataPrefix = getEnvOrDefault("BLUEPRINT_TESSDATA_PREFIX", c.OCR.TessdataPrefix)
	c.OCR.Level = getEnvOrDefault("BLUEPRINT_OCR_LEVEL", c.OCR.Level)
	c.OCR.Preprocess = getEnvAsBoolOrDefault("BLUEPRINT_OCR_PREPROCESS", c.OCR.Preprocess)

	c.Labels.MinConfidence = getEnvAsFloatOrDefault("BLUEPRINT_MIN_CONFIDENCE", c.Labels.MinConfidence)
	c.Labels.Order = getEnvOrDefault("BLUEPRINT_LABEL_ORDER", c.Labels.Order)

	c.Alignment.Mode = getEnvOrDefault("BLUEPRINT_ALIGNMENT", c.Alignment.Mode)
	c.Alignment.Tolerance = getEnvAsFloatOrDefault("BLUEPRINT_ALIGNMENT_TOLERANCE", c.Alignment.Tolerance)
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	e := c.Estimate
	if e.AreaConversion <= 0 {
		return fmt.Errorf("area_conversion must be positive, got %g", e.AreaConversion)
	}
	if e.CeilingHeight <= 0 {
		return fmt.Errorf("ceiling_height must be positive, got %g", e.CeilingHeight)
	}
	if e.PaintCoverage <= 0 {
		return fmt.Errorf("paint_coverage must be positive, got %g", e.PaintCoverage)
	}
	if e.DrywallCoverage <= 0 {
		return fmt.Errorf("drywall_coverage must be positive, got %g", e.DrywallCoverage)
	}
	if e.WasteFactor < 1 {
		return fmt.Errorf("waste_factor must be at least 1, got %g", e.WasteFactor)
	}

	if c.OCR.Language == "" {
		return fmt.Errorf("ocr language is required")
	}
	switch c.OCR.Level {
	case "line", "word":
	default:
		return fmt.Errorf("ocr level must be line or word, got %q", c.OCR.Level)
	}

	if c.Labels.MinConfidence < 0 || c.Labels.MinConfidence >= 1 {
		return fmt.Errorf("min_confidence must be in [0,1), got %g", c.Labels.MinConfidence)
	}
	switch c.Labels.Order {
	case OrderDetection, OrderSpatial:
	default:
		return fmt.Errorf("label order must be %s or %s, got %q", OrderDetection, OrderSpatial, c.Labels.Order)
	}

	switch c.Alignment.Mode {
	case AlignmentOff, AlignmentWarn, AlignmentStrict:
	default:
		return fmt.Errorf("alignment mode must be off, warn or strict, got %q", c.Alignment.Mode)
	}
	if c.Alignment.Tolerance < 0 {
		return fmt.Errorf("alignment tolerance must not be negative, got %g", c.Alignment.Tolerance)
	}

	return nil
}

func getEnvOrDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getEnvAsFloatOrDefault(key string, def float64) float64 {
	v := getEnvOrDefault(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvAsBoolOrDefault(key string, def bool) bool {
	v := getEnvOrDefault(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
