// Package tracker extracts per-frame hand landmarks in pixel space on top of a
// detector.Detector and draws them onto the frame.
package tracker

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/handtrack/internal/detector"
	"github.com/ayusman/handtrack/internal/geometry"
)

// Landmark is a detected hand landmark in pixel coordinates.
// ID is the MediaPipe landmark index (detector.Wrist .. detector.PinkyTip).
type Landmark struct {
	ID int `json:"id"`
	X  int `json:"x"`
	Y  int `json:"y"`
}

// Point returns the landmark position as a geometry point.
func (l Landmark) Point() geometry.Point2D {
	return geometry.Pt(float64(l.X), float64(l.Y))
}

// HandTracker keeps the result of the last FindHands call so that
// FindPosition can be queried for any detected hand.
//
// The intended use is a single frame loop: FindHands, then FindPosition for
// the hands of interest, then the next frame.
type HandTracker struct {
	detector detector.Detector

	mu    sync.Mutex
	hands []detector.HandLandmarks
}

// New creates a HandTracker on top of d. The detector's configuration
// (mode, max hands, confidence thresholds) is fixed by d.
func New(d detector.Detector) *HandTracker {
	return &HandTracker{detector: d}
}

// FindHands runs detection on frame and stores the result for FindPosition.
// When draw is true the skeleton of every detected hand is drawn onto frame.
// The same frame is returned.
//
// A detector error is returned unchanged and clears the stored result.
func (t *HandTracker) FindHands(frame *gocv.Mat, draw bool) (*gocv.Mat, error) {
	hands, err := t.detector.Detect(frame)

	t.mu.Lock()
	defer t.mu.Unlock()

	if err != nil {
		t.hands = nil
		return frame, err
	}
	t.hands = hands

	if draw {
		for i := range hands {
			DrawSkeleton(frame, &hands[i])
		}
	}

	return frame, nil
}

// FindPosition returns the landmarks of hand handNo from the last FindHands
// call, scaled to the pixel size of frame. When draw is true a filled marker
// is drawn at every landmark.
//
// The result is empty, never an error, when FindHands has not run yet or
// fewer than handNo+1 hands were detected.
func (t *HandTracker) FindPosition(frame *gocv.Mat, handNo int, draw bool) []Landmark {
	t.mu.Lock()
	defer t.mu.Unlock()

	landmarks := []Landmark{}
	if handNo < 0 || handNo >= len(t.hands) || frame == nil || frame.Empty() {
		return landmarks
	}

	hand := &t.hands[handNo]
	w, h := frame.Cols(), frame.Rows()

	for id, lm := range hand.Points {
		cx, cy := int(lm.X*float64(w)), int(lm.Y*float64(h))
		landmarks = append(landmarks, Landmark{ID: id, X: cx, Y: cy})

		if draw {
			DrawPoint(frame, cx, cy)
		}
	}

	return landmarks
}

// NumHands returns how many hands the last FindHands call detected.
func (t *HandTracker) NumHands() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.hands)
}

// Hands returns a copy of the last detection result in normalized coordinates.
func (t *HandTracker) Hands() []detector.HandLandmarks {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]detector.HandLandmarks, len(t.hands))
	copy(out, t.hands)
	return out
}

// Close releases the underlying detector.
func (t *HandTracker) Close() error {
	return t.detector.Close()
}
