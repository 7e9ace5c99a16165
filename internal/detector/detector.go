package detector

import (
	"errors"
	"fmt"
	"strings"

	"gocv.io/x/gocv"
)

// ErrInvalidConfig is returned by Config.Validate for out-of-range options.
var ErrInvalidConfig = errors.New("invalid detector config")

// Detector defines the interface for hand landmark detection implementations.
type Detector interface {
	// Detect analyzes a BGR video frame and returns one landmark set per detected hand.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Mode selects how the detector treats consecutive frames.
type Mode int

const (
	// ModeVideo tracks hands across frames, re-running palm detection only
	// when tracking confidence drops.
	ModeVideo Mode = iota
	// ModeStaticImage runs full detection on every frame.
	ModeStaticImage
)

// String returns the name used on the command line and in the environment.
func (m Mode) String() string {
	switch m {
	case ModeVideo:
		return "video"
	case ModeStaticImage:
		return "static"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "video" or "static" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "video", "":
		return ModeVideo, nil
	case "static", "image", "static-image":
		return ModeStaticImage, nil
	default:
		return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, s)
	}
}

// Config holds configuration options for hand detection.
// It is fixed when the detector is constructed and passed through unchanged.
type Config struct {
	// Mode is video tracking (default) or static image.
	Mode Mode

	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Mode:            ModeVideo,
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}

// Validate checks that every option is within the range the detector accepts.
func (c Config) Validate() error {
	if c.Mode != ModeVideo && c.Mode != ModeStaticImage {
		return fmt.Errorf("%w: mode %v", ErrInvalidConfig, c.Mode)
	}
	if c.MaxHands <= 0 {
		return fmt.Errorf("%w: max hands must be positive, got %d", ErrInvalidConfig, c.MaxHands)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("%w: detection confidence %v outside [0,1]", ErrInvalidConfig, c.MinConfidence)
	}
	if c.MinTrackingConf < 0 || c.MinTrackingConf > 1 {
		return fmt.Errorf("%w: tracking confidence %v outside [0,1]", ErrInvalidConfig, c.MinTrackingConf)
	}
	return nil
}
