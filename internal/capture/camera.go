// Package capture provides frame sources backed by GoCV (OpenCV): camera
// devices, video files and stream URLs.
package capture

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"gocv.io/x/gocv"
)

// Default capture settings
const (
	DefaultFPS    = 30
	DefaultWidth  = 640
	DefaultHeight = 480

	// MaxFPS bounds the processing rate.
	MaxFPS = 240
)

var (
	// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")

	// ErrEndOfStream is returned when a file or stream source has no more frames.
	ErrEndOfStream = errors.New("end of stream")
)

// Camera defines the interface for frame sources.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// Options configures a Camera.
type Options struct {
	// Source is a device index ("0") or a video file path / stream URL.
	Source string
	Width  int
	Height int
	FPS    int
}

// DefaultOptions returns capture options for the first camera device.
func DefaultOptions() Options {
	return Options{
		Source: "0",
		Width:  DefaultWidth,
		Height: DefaultHeight,
		FPS:    DefaultFPS,
	}
}

// cameraImpl manages video capture from a device or file using GoCV.
type cameraImpl struct {
	opts    Options
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
	fps     int
}

// NewCamera creates a Camera for opts. Zero sizes and FPS fall back to defaults.
func NewCamera(opts Options) Camera {
	if opts.Source == "" {
		opts.Source = "0"
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.FPS <= 0 {
		opts.FPS = DefaultFPS
	}

	return &cameraImpl{
		opts: opts,
		fps:  opts.FPS,
	}
}

// IsDevice reports whether source names a camera device index rather than a file.
func IsDevice(source string) bool {
	_, err := strconv.Atoi(strings.TrimSpace(source))
	return err == nil
}

// device converts the source into the value gocv.OpenVideoCapture expects.
func (c *cameraImpl) device() interface{} {
	if id, err := strconv.Atoi(strings.TrimSpace(c.opts.Source)); err == nil {
		return id
	}
	return c.opts.Source
}

// Open opens the source for capturing frames. For camera devices the
// configured resolution and frame rate are requested from the driver.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.device())
	if err != nil {
		return fmt.Errorf("open capture %q: %w", c.opts.Source, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("open capture %q: device not available", c.opts.Source)
	}

	if IsDevice(c.opts.Source) {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(c.opts.Width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(c.opts.Height))
		capture.Set(gocv.VideoCaptureFPS, float64(c.fps))
	}

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the camera and releases resources.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame.
// The caller is responsible for closing the returned Mat.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		if !IsDevice(c.opts.Source) {
			return nil, ErrEndOfStream
		}
		return nil, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		return nil, errors.New("captured frame is empty")
	}

	return &mat, nil
}

// SetFPS sets the frames per second for capture.
// Values less than or equal to 0 are ignored.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps

	if c.capture != nil && IsDevice(c.opts.Source) {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fps
}

// IsOpen returns true if the camera is currently open and running.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
