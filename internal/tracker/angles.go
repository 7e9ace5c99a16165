package tracker

import (
	"errors"
	"fmt"

	"github.com/ayusman/handtrack/internal/detector"
	"github.com/ayusman/handtrack/internal/geometry"
)

// ErrLandmarkMissing is returned when a requested landmark id is not in the list.
var ErrLandmarkMissing = errors.New("landmark missing")

// Joint names a landmark triple whose angle is measured at Vertex.
type Joint struct {
	Name   string `json:"name"`
	A      int    `json:"a"`
	Vertex int    `json:"vertex"`
	B      int    `json:"b"`
}

// JointAngle is the interior angle of a joint in degrees.
// 180 means the finger is straight at that joint.
type JointAngle struct {
	Joint   string  `json:"joint"`
	Degrees float64 `json:"degrees"`
}

// FingerJoints are the middle joint of every finger.
var FingerJoints = []Joint{
	{Name: "thumb", A: detector.ThumbMCP, Vertex: detector.ThumbIP, B: detector.ThumbTip},
	{Name: "index", A: detector.IndexMCP, Vertex: detector.IndexPIP, B: detector.IndexDIP},
	{Name: "middle", A: detector.MiddleMCP, Vertex: detector.MiddlePIP, B: detector.MiddleDIP},
	{Name: "ring", A: detector.RingMCP, Vertex: detector.RingPIP, B: detector.RingDIP},
	{Name: "pinky", A: detector.PinkyMCP, Vertex: detector.PinkyPIP, B: detector.PinkyDIP},
}

// Angle returns the interior angle at landmark b formed with landmarks a and c.
func Angle(lms []Landmark, a, b, c int) (float64, error) {
	var pts [3]geometry.Point2D
	for i, id := range [3]int{a, b, c} {
		lm, ok := find(lms, id)
		if !ok {
			return 0, fmt.Errorf("%w: id %d", ErrLandmarkMissing, id)
		}
		pts[i] = lm.Point()
	}
	return geometry.Angle(pts[0], pts[1], pts[2])
}

// FingerAngles measures every FingerJoints entry on lms. Joints that cannot be
// measured (missing or coinciding landmarks) are left out.
func FingerAngles(lms []Landmark) []JointAngle {
	angles := make([]JointAngle, 0, len(FingerJoints))
	for _, j := range FingerJoints {
		deg, err := Angle(lms, j.A, j.Vertex, j.B)
		if err != nil {
			continue
		}
		angles = append(angles, JointAngle{Joint: j.Name, Degrees: deg})
	}
	return angles
}

func find(lms []Landmark, id int) (Landmark, bool) {
	// FindPosition returns landmarks ordered by id.
	if id >= 0 && id < len(lms) && lms[id].ID == id {
		return lms[id], true
	}
	for _, lm := range lms {
		if lm.ID == id {
			return lm, true
		}
	}
	return Landmark{}, false
}
