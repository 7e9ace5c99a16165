// Package geometry provides the 2D helpers used on hand landmarks.
package geometry

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidInput is returned when a point cannot take part in an angle computation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDegenerate is returned when an outer point coincides with the vertex,
	// leaving one of the rays without a direction.
	ErrDegenerate = fmt.Errorf("%w: degenerate angle, outer point coincides with vertex", ErrInvalidInput)
)

// Point2D is a point in pixel or normalized image coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point2D{X: x, Y: y}.
func Pt(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Sub returns p - q.
func (p Point2D) Sub(q Point2D) Point2D {
	return Point2D{X: p.X - q.X, Y: p.Y - q.Y}
}

// IsZero reports whether p is the origin.
func (p Point2D) IsZero() bool {
	return p.X == 0 && p.Y == 0
}

func (p Point2D) finite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

func (p Point2D) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point2D) float64 {
	d := a.Sub(b)
	return math.Hypot(d.X, d.Y)
}

// Angle returns the interior angle in degrees at p2, formed by the rays
// p2->p1 and p2->p3. The result is always in [0, 180].
//
// Swapping p1 and p3 yields the same angle. If p1 or p3 equals p2 the
// direction of that ray is undefined and ErrDegenerate is returned. p1 equal
// to p3 with both distinct from p2 is not degenerate and gives 0.
func Angle(p1, p2, p3 Point2D) (float64, error) {
	for _, p := range []Point2D{p1, p2, p3} {
		if !p.finite() {
			return 0, fmt.Errorf("%w: non-finite point %v", ErrInvalidInput, p)
		}
	}

	a := p1.Sub(p2)
	b := p3.Sub(p2)
	if a.IsZero() || b.IsZero() {
		return 0, ErrDegenerate
	}

	angle := degrees(math.Atan2(b.Y, b.X)) - degrees(math.Atan2(a.Y, a.X))
	if angle < 0 {
		angle += 360
	}
	if angle > 180 {
		angle = 360 - angle
	}

	return angle, nil
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
