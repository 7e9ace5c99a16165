package tracker

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/handtrack/internal/detector"
)

// Drawing style, matching MediaPipe's default hand style.
var (
	ConnectionColor = color.RGBA{R: 224, G: 224, B: 224, A: 255}
	JointColor      = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	PointColor      = color.RGBA{R: 0, G: 0, B: 255, A: 255}
)

const (
	connectionThickness = 2
	jointRadius         = 2
	pointRadius         = 7
	filled              = -1
)

// DrawSkeleton draws the hand connections and joints of h onto frame.
func DrawSkeleton(frame *gocv.Mat, h *detector.HandLandmarks) {
	if frame == nil || frame.Empty() || h == nil {
		return
	}

	w, ht := frame.Cols(), frame.Rows()
	px := func(i int) image.Point {
		return image.Pt(int(h.Points[i].X*float64(w)), int(h.Points[i].Y*float64(ht)))
	}

	for _, c := range detector.HandConnections {
		gocv.Line(frame, px(c.From), px(c.To), ConnectionColor, connectionThickness)
	}
	for i := range h.Points {
		gocv.Circle(frame, px(i), jointRadius, JointColor, connectionThickness)
	}
}

// DrawPoint draws the filled landmark marker at pixel (x, y).
func DrawPoint(frame *gocv.Mat, x, y int) {
	gocv.Circle(frame, image.Pt(x, y), pointRadius, PointColor, filled)
}
