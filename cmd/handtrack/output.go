package main

import (
	"fmt"
	"io"

	"gocv.io/x/gocv"

	"github.com/ayusman/handtrack/internal/pipeline"
	"github.com/ayusman/handtrack/internal/tracker"
)

// printer writes the selected landmark and joint angle of each snapshot.
type printer struct {
	w        io.Writer
	hand     int
	landmark int
	joint    [3]int
}

func newPrinter(w io.Writer, opts options) *printer {
	return &printer{w: w, hand: opts.Hand, landmark: opts.Landmark, joint: opts.Joint}
}

// Print has the signature of a pipeline subscriber. Frames without the
// selected hand print nothing.
func (p *printer) Print(snap pipeline.Snapshot) {
	hand, ok := snap.Hand(p.hand)
	if !ok || len(hand.Landmarks) == 0 {
		return
	}

	for _, lm := range hand.Landmarks {
		if lm.ID == p.landmark {
			fmt.Fprintf(p.w, "frame %d: landmark %d at (%d, %d)", snap.Seq, lm.ID, lm.X, lm.Y)
			break
		}
	}

	a, b, c := p.joint[0], p.joint[1], p.joint[2]
	if deg, err := tracker.Angle(hand.Landmarks, a, b, c); err == nil {
		fmt.Fprintf(p.w, ", angle %d-%d-%d = %.1f", a, b, c, deg)
	}
	fmt.Fprintln(p.w)
}

// window is an OpenCV preview window.
type window struct {
	w *gocv.Window
}

func newWindow(title string) *window {
	return &window{w: gocv.NewWindow(title)}
}

// Show displays frame and reports false once q or Esc was pressed.
func (w *window) Show(frame *gocv.Mat) bool {
	w.w.IMShow(*frame)
	key := w.w.WaitKey(1)
	return key != 'q' && key != 27
}

func (w *window) Close() error {
	return w.w.Close()
}
