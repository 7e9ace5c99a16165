// Package config loads handtrack settings from defaults, an optional .env
// file and HANDTRACK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/ayusman/handtrack/internal/capture"
	"github.com/ayusman/handtrack/internal/detector"
)

// ErrInvalidConfig is returned for values that cannot be parsed or are out of range.
var ErrInvalidConfig = errors.New("invalid config")

// Environment keys.
const (
	EnvCamera              = "HANDTRACK_CAMERA"
	EnvWidth               = "HANDTRACK_WIDTH"
	EnvHeight              = "HANDTRACK_HEIGHT"
	EnvFPS                 = "HANDTRACK_FPS"
	EnvMode                = "HANDTRACK_MODE"
	EnvMaxHands            = "HANDTRACK_MAX_HANDS"
	EnvDetectionConfidence = "HANDTRACK_DETECTION_CONFIDENCE"
	EnvTrackingConfidence  = "HANDTRACK_TRACKING_CONFIDENCE"
	EnvDB                  = "HANDTRACK_DB"
	EnvAddr                = "HANDTRACK_ADDR"
	EnvLogLevel            = "HANDTRACK_LOG_LEVEL"
)

// Config holds every setting of the handtrack binary.
type Config struct {
	Capture  capture.Options
	Detector detector.Config

	// DBPath enables session recording when non-empty.
	DBPath string
	// Addr enables the live server when non-empty.
	Addr string

	LogLevel string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Capture:  capture.DefaultOptions(),
		Detector: detector.DefaultConfig(),
		LogLevel: "info",
	}
}

// Load layers defaults, the .env file at envFile (skipped when empty or
// missing) and the process environment, in that order of precedence.
func Load(envFile string) (Config, error) {
	fileVars := map[string]string{}
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read %s: %w", envFile, err)
		}
		if vars != nil {
			fileVars = vars
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}

	cfg := Default()
	if err := cfg.apply(lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) apply(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvCamera); ok && v != "" {
		c.Capture.Source = v
	}
	if v, ok := lookup(EnvDB); ok {
		c.DBPath = v
	}
	if v, ok := lookup(EnvAddr); ok {
		c.Addr = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvMode); ok {
		mode, err := detector.ParseMode(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvMode, err)
		}
		c.Detector.Mode = mode
	}

	ints := []struct {
		key string
		dst *int
	}{
		{EnvWidth, &c.Capture.Width},
		{EnvHeight, &c.Capture.Height},
		{EnvFPS, &c.Capture.FPS},
		{EnvMaxHands, &c.Detector.MaxHands},
	}
	for _, f := range ints {
		v, ok := lookup(f.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, f.key, v)
		}
		*f.dst = n
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{EnvDetectionConfidence, &c.Detector.MinConfidence},
		{EnvTrackingConfidence, &c.Detector.MinTrackingConf},
	}
	for _, f := range floats {
		v, ok := lookup(f.key)
		if !ok || v == "" {
			continue
		}
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, f.key, v)
		}
		*f.dst = x
	}

	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if err := c.Detector.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Capture.Width <= 0 || c.Capture.Height <= 0 {
		return fmt.Errorf("%w: frame size %dx%d", ErrInvalidConfig, c.Capture.Width, c.Capture.Height)
	}
	if c.Capture.FPS <= 0 || c.Capture.FPS > capture.MaxFPS {
		return fmt.Errorf("%w: fps %d not in 1..%d", ErrInvalidConfig, c.Capture.FPS, capture.MaxFPS)
	}
	return nil
}
