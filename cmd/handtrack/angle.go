package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ayusman/handtrack/internal/geometry"
)

// runAngle implements "handtrack angle x1,y1 x2,y2 x3,y3".
func runAngle(args []string, out io.Writer) int {
	if len(args) != 3 {
		fmt.Fprintf(os.Stderr, "Usage: handtrack angle x1,y1 x2,y2 x3,y3\n")
		return 2
	}

	var pts [3]geometry.Point2D
	for i, a := range args {
		p, err := parsePoint(a)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 2
		}
		pts[i] = p
	}

	deg, err := geometry.Angle(pts[0], pts[1], pts[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(out, "%.2f\n", deg)
	return 0
}

// parsePoint parses "x,y".
func parsePoint(s string) (geometry.Point2D, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return geometry.Point2D{}, fmt.Errorf("point %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return geometry.Point2D{}, fmt.Errorf("point %q: bad x: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return geometry.Point2D{}, fmt.Errorf("point %q: bad y: %w", s, err)
	}
	return geometry.Pt(x, y), nil
}
