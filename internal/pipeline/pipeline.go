// Package pipeline runs the frame loop: camera frames go through the hand
// tracker, joint angles are measured and every processed frame is published
// as a Snapshot to the registered subscribers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"gocv.io/x/gocv"

	"github.com/ayusman/handtrack/internal/capture"
	"github.com/ayusman/handtrack/internal/tracker"
)

// Config holds the pipeline options.
type Config struct {
	// FPS is the processing rate. Zero uses the camera's rate.
	FPS int
	// DrawSkeleton draws the hand connections onto each frame.
	DrawSkeleton bool
	// DrawPoints draws a marker at every pixel landmark.
	DrawPoints bool
}

// DefaultConfig returns the options used by the handtrack command.
func DefaultConfig() Config {
	return Config{
		FPS:          capture.DefaultFPS,
		DrawSkeleton: true,
		DrawPoints:   false,
	}
}

// HandSnapshot is one tracked hand of a processed frame.
type HandSnapshot struct {
	Index      int                  `json:"index"`
	Handedness string               `json:"handedness"`
	Score      float64              `json:"score"`
	Landmarks  []tracker.Landmark   `json:"landmarks"`
	Angles     []tracker.JointAngle `json:"angles"`
}

// Snapshot is the tracking result of a single frame.
type Snapshot struct {
	Seq       int64          `json:"seq"`
	Timestamp time.Time      `json:"timestamp"`
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	Hands     []HandSnapshot `json:"hands"`
}

// Hand returns hand n of the snapshot, or false when fewer hands were tracked.
func (s Snapshot) Hand(n int) (HandSnapshot, bool) {
	if n < 0 || n >= len(s.Hands) {
		return HandSnapshot{}, false
	}
	return s.Hands[n], true
}

// Previewer displays annotated frames. Show returns false when the viewer
// asked to stop.
type Previewer interface {
	Show(frame *gocv.Mat) bool
}

// Pipeline drives a camera through a tracker.
type Pipeline struct {
	config  Config
	camera  capture.Camera
	tracker *tracker.HandTracker
	logger  *log.Logger

	mu          sync.RWMutex
	preview     Previewer
	subscribers map[int]func(Snapshot)
	nextSubID   int
	latest      []byte
	seq         int64
}

// New creates a pipeline over cam and tr. A nil logger uses the default logger.
func New(config Config, cam capture.Camera, tr *tracker.HandTracker, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{
		config:      config,
		camera:      cam,
		tracker:     tr,
		logger:      logger,
		subscribers: make(map[int]func(Snapshot)),
	}
}

// SetPreview installs a preview window. It is called from the Run goroutine.
func (p *Pipeline) SetPreview(pv Previewer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.preview = pv
}

// Subscribe registers fn to receive every snapshot. Subscribers run on the
// pipeline goroutine and must not block. The returned func unregisters fn.
func (p *Pipeline) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextSubID
	p.nextSubID++
	p.subscribers[id] = fn

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subscribers, id)
	}
}

// LatestJPEG returns the last annotated frame as JPEG, or nil before the first frame.
func (p *Pipeline) LatestJPEG() []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

// Run opens the camera if needed and processes frames until ctx is done, the
// source runs out of frames or the preview is closed. In those cases it
// returns nil. Camera and detector failures stop the loop and are returned.
// The camera is closed when Run returns.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.camera.IsOpen() {
		if err := p.camera.Open(); err != nil {
			return fmt.Errorf("open camera: %w", err)
		}
	}
	defer func() {
		if err := p.camera.Close(); err != nil {
			p.logger.Warn("closing camera", "err", err)
		}
	}()

	fps := p.config.FPS
	if fps <= 0 {
		fps = p.camera.FPS()
	}
	if fps <= 0 {
		fps = capture.DefaultFPS
	}
	fps = min(fps, capture.MaxFPS)
	p.camera.SetFPS(fps)

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	p.logger.Info("pipeline started", "fps", fps)
	defer p.logger.Info("pipeline stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			frame, err := p.camera.ReadFrame()
			if errors.Is(err, capture.ErrEndOfStream) {
				p.logger.Info("end of stream")
				return nil
			}
			if err != nil {
				return fmt.Errorf("read frame: %w", err)
			}

			cont, err := p.step(frame)
			frame.Close()
			if err != nil {
				return fmt.Errorf("detect: %w", err)
			}
			if !cont {
				return nil
			}
		}
	}
}

// step processes one frame and shows it. It reports false when the preview
// asked to stop.
func (p *Pipeline) step(frame *gocv.Mat) (bool, error) {
	if _, err := p.ProcessFrame(frame); err != nil {
		return false, err
	}

	p.mu.RLock()
	pv := p.preview
	p.mu.RUnlock()

	if pv != nil && !pv.Show(frame) {
		return false, nil
	}
	return true, nil
}

// ProcessFrame tracks hands on frame, annotates it in place according to the
// draw options, and publishes the resulting snapshot.
func (p *Pipeline) ProcessFrame(frame *gocv.Mat) (Snapshot, error) {
	if _, err := p.tracker.FindHands(frame, p.config.DrawSkeleton); err != nil {
		return Snapshot{}, err
	}

	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	snap := Snapshot{
		Seq:       seq,
		Timestamp: time.Now(),
		Width:     frame.Cols(),
		Height:    frame.Rows(),
		Hands:     []HandSnapshot{},
	}

	for i, hand := range p.tracker.Hands() {
		lms := p.tracker.FindPosition(frame, i, p.config.DrawPoints)
		snap.Hands = append(snap.Hands, HandSnapshot{
			Index:      i,
			Handedness: hand.Handedness,
			Score:      hand.Score,
			Landmarks:  lms,
			Angles:     tracker.FingerAngles(lms),
		})
	}

	p.encode(frame)
	p.publish(snap)

	return snap, nil
}

func (p *Pipeline) encode(frame *gocv.Mat) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		p.logger.Warn("encoding frame", "err", err)
		return
	}
	defer buf.Close()

	// The native buffer is freed on Close.
	data := append([]byte(nil), buf.GetBytes()...)

	p.mu.Lock()
	p.latest = data
	p.mu.Unlock()
}

func (p *Pipeline) publish(snap Snapshot) {
	p.mu.RLock()
	subs := make([]func(Snapshot), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		subs = append(subs, fn)
	}
	p.mu.RUnlock()

	for _, fn := range subs {
		fn(snap)
	}
}
