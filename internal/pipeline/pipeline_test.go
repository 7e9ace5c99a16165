package pipeline

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"gocv.io/x/gocv"

	"github.com/ayusman/handtrack/internal/capture"
	"github.com/ayusman/handtrack/internal/detector"
	"github.com/ayusman/handtrack/internal/store"
	"github.com/ayusman/handtrack/internal/tracker"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func newFrames(t *testing.T, n int) []*gocv.Mat {
	t.Helper()
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		m := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
		frames[i] = &m
	}
	t.Cleanup(func() {
		for _, m := range frames {
			m.Close()
		}
	})
	return frames
}

func newPipeline(t *testing.T, cam capture.Camera, hands ...detector.HandLandmarks) (*Pipeline, *detector.MockDetector) {
	t.Helper()
	mock := detector.NewMockDetector()
	mock.SetHands(hands)
	cfg := DefaultConfig()
	cfg.FPS = 200
	return New(cfg, cam, tracker.New(mock), quietLogger()), mock
}

type stopAfter struct {
	shown int
	limit int
}

func (s *stopAfter) Show(frame *gocv.Mat) bool {
	s.shown++
	return s.shown < s.limit
}

type failingCamera struct {
	*capture.MockCamera
	err error
}

func (c *failingCamera) ReadFrame() (*gocv.Mat, error) {
	return nil, c.err
}

func TestPipeline_ProcessFrame(t *testing.T) {
	p, _ := newPipeline(t, capture.NewMockCamera(nil, false), detector.OpenPalmLandmarks())
	frame := newFrames(t, 1)[0]

	snap, err := p.ProcessFrame(frame)
	if err != nil {
		t.Fatalf("ProcessFrame() error = %v", err)
	}

	if snap.Seq != 1 {
		t.Errorf("Seq = %d, want 1", snap.Seq)
	}
	if snap.Width != 640 || snap.Height != 480 {
		t.Errorf("size = %dx%d, want 640x480", snap.Width, snap.Height)
	}
	if len(snap.Hands) != 1 {
		t.Fatalf("expected 1 hand, got %d", len(snap.Hands))
	}

	hand := snap.Hands[0]
	if hand.Handedness != "Right" {
		t.Errorf("Handedness = %q, want Right", hand.Handedness)
	}
	if len(hand.Landmarks) != detector.NumLandmarks {
		t.Errorf("expected %d landmarks, got %d", detector.NumLandmarks, len(hand.Landmarks))
	}
	if len(hand.Angles) != len(tracker.FingerJoints) {
		t.Errorf("expected %d joint angles, got %d", len(tracker.FingerJoints), len(hand.Angles))
	}

	// The skeleton is drawn by default.
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	if gocv.CountNonZero(gray) == 0 {
		t.Error("expected the skeleton to be drawn onto the frame")
	}

	if len(p.LatestJPEG()) == 0 {
		t.Error("expected LatestJPEG after a processed frame")
	}

	if _, ok := snap.Hand(1); ok {
		t.Error("Hand(1) should not exist with one tracked hand")
	}
}

func TestPipeline_ProcessFrameNoHands(t *testing.T) {
	p, _ := newPipeline(t, capture.NewMockCamera(nil, false))
	frame := newFrames(t, 1)[0]

	snap, err := p.ProcessFrame(frame)
	if err != nil {
		t.Fatalf("ProcessFrame() error = %v", err)
	}
	if snap.Hands == nil || len(snap.Hands) != 0 {
		t.Errorf("expected empty, non-nil hands, got %v", snap.Hands)
	}
}

func TestPipeline_ProcessFrameDetectorError(t *testing.T) {
	p, mock := newPipeline(t, capture.NewMockCamera(nil, false))
	wantErr := errors.New("service crashed")
	mock.SetError(wantErr)

	published := 0
	p.Subscribe(func(Snapshot) { published++ })

	if _, err := p.ProcessFrame(newFrames(t, 1)[0]); !errors.Is(err, wantErr) {
		t.Errorf("ProcessFrame() error = %v, want %v", err, wantErr)
	}
	if published != 0 {
		t.Error("no snapshot should be published on detector error")
	}
}

func TestPipeline_Subscribe(t *testing.T) {
	p, _ := newPipeline(t, capture.NewMockCamera(nil, false), detector.ThumbsUpLandmarks())
	frames := newFrames(t, 2)

	var got []int64
	unsubscribe := p.Subscribe(func(s Snapshot) { got = append(got, s.Seq) })

	if _, err := p.ProcessFrame(frames[0]); err != nil {
		t.Fatalf("ProcessFrame() error = %v", err)
	}
	unsubscribe()
	if _, err := p.ProcessFrame(frames[1]); err != nil {
		t.Fatalf("ProcessFrame() error = %v", err)
	}

	if len(got) != 1 || got[0] != 1 {
		t.Errorf("subscriber saw %v, want [1]", got)
	}
}

func TestPipeline_RunEndOfStream(t *testing.T) {
	cam := capture.NewMockCamera(newFrames(t, 3), false)
	p, mock := newPipeline(t, cam, detector.OpenPalmLandmarks())

	count := 0
	p.Subscribe(func(Snapshot) { count++ })

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if count != 3 {
		t.Errorf("expected 3 snapshots, got %d", count)
	}
	if mock.Calls() != 3 {
		t.Errorf("expected 3 detector calls, got %d", mock.Calls())
	}
	if cam.IsOpen() {
		t.Error("camera should be closed after Run")
	}
}

func TestPipeline_RunCapsFPS(t *testing.T) {
	cam := capture.NewMockCamera(newFrames(t, 2), false)
	p, _ := newPipeline(t, cam)
	p.config.FPS = 2_000_000_000

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := cam.FPS(); got != capture.MaxFPS {
		t.Errorf("camera FPS = %d, want %d", got, capture.MaxFPS)
	}
}

func TestPipeline_RunContextCancel(t *testing.T) {
	cam := capture.NewMockCamera(newFrames(t, 1), true)
	p, _ := newPipeline(t, cam)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := p.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if cam.Reads() == 0 {
		t.Error("expected frames to be read before cancellation")
	}
}

func TestPipeline_RunPreviewStops(t *testing.T) {
	cam := capture.NewMockCamera(newFrames(t, 1), true)
	p, _ := newPipeline(t, cam)

	pv := &stopAfter{limit: 4}
	p.SetPreview(pv)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if pv.shown != 4 {
		t.Errorf("preview shown %d frames, want 4", pv.shown)
	}
}

func TestPipeline_RunDetectorError(t *testing.T) {
	cam := capture.NewMockCamera(newFrames(t, 1), true)
	p, mock := newPipeline(t, cam)
	wantErr := errors.New("service crashed")
	mock.SetError(wantErr)

	err := p.Run(context.Background())
	if !errors.Is(err, wantErr) {
		t.Errorf("Run() error = %v, want wrapped %v", err, wantErr)
	}
}

func TestPipeline_RunCameraError(t *testing.T) {
	wantErr := errors.New("device unplugged")
	cam := &failingCamera{MockCamera: capture.NewMockCamera(nil, false), err: wantErr}
	p, _ := newPipeline(t, cam)

	err := p.Run(context.Background())
	if !errors.Is(err, wantErr) {
		t.Errorf("Run() error = %v, want wrapped %v", err, wantErr)
	}
}

func TestRecorder(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "rec.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer st.Close()

	sess := &store.Session{Source: "mock", Mode: "video", MaxHands: 2, DetectionConf: 0.5, TrackingConf: 0.5}
	if err := st.Sessions().Create(sess); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	cam := capture.NewMockCamera(newFrames(t, 2), false)
	p, _ := newPipeline(t, cam, detector.OpenPalmLandmarks())

	rec := NewRecorder(st, sess.ID, quietLogger())
	p.Subscribe(rec.Record)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rec.Errors() != 0 {
		t.Fatalf("recorder reported %d errors", rec.Errors())
	}

	frames, err := st.Frames().ListBySession(sess.ID, 0)
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("expected 2 recorded frames, got %d", len(frames))
	}
	if len(frames[0].Hands) != 1 || len(frames[0].Hands[0].Landmarks) != detector.NumLandmarks {
		t.Errorf("recorded frame = %+v", frames[0])
	}
}

func TestToFrame(t *testing.T) {
	snap := Snapshot{
		Seq:    7,
		Width:  320,
		Height: 240,
		Hands: []HandSnapshot{{
			Index:      0,
			Handedness: "Left",
			Landmarks:  []tracker.Landmark{{ID: 0, X: 1, Y: 2}},
			Angles:     []tracker.JointAngle{{Joint: "index", Degrees: 90}},
		}},
	}

	f := ToFrame("s1", snap)
	if f.SessionID != "s1" || f.Seq != 7 || f.Width != 320 {
		t.Errorf("ToFrame() = %+v", f)
	}
	if len(f.Hands) != 1 || f.Hands[0].Landmarks[0] != (store.Landmark{ID: 0, X: 1, Y: 2}) {
		t.Errorf("hands = %+v", f.Hands)
	}
	if f.Hands[0].Angles[0].Degrees != 90 {
		t.Errorf("angles = %+v", f.Hands[0].Angles)
	}
}
