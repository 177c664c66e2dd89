// Package detector provides the landmark model and tracker adapters that feed hand and face geometry into the game.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// EyePoints is the number of boundary points describing one eye.
const EyePoints = 6

// FaceMesh indices for the eye contours, ordered outer corner, two upper lid
// points, inner corner, two lower lid points.
var (
	LeftEyeMesh  = [EyePoints]int{362, 385, 387, 263, 373, 380}
	RightEyeMesh = [EyePoints]int{33, 160, 158, 133, 153, 144}
)

// Point3D represents a 3D point in space with x, y, z coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Missing reports whether the point was not supplied by the tracker.
func (p Point3D) Missing() bool {
	return math.IsNaN(p.X) || math.IsNaN(p.Y)
}

// MissingPoint is the placeholder stored for landmarks the tracker did not return.
// Every comparison against it is false, so geometry tests fail closed.
var MissingPoint = Point3D{X: math.NaN(), Y: math.NaN(), Z: math.NaN()}

// Point2D is a normalized image-plane point.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Complete reports whether every landmark of the hand is present.
func (h *HandLandmarks) Complete() bool {
	if h == nil {
		return false
	}
	for _, p := range h.Points {
		if p.Missing() {
			return false
		}
	}
	return true
}

// FaceLandmarks holds the eye contours of one detected face.
type FaceLandmarks struct {
	LeftEye  [EyePoints]Point2D `json:"left_eye"`
	RightEye [EyePoints]Point2D `json:"right_eye"`
}

// EyesFromMesh picks the eye contours out of a full face mesh.
// Returns nil if the mesh is too short to contain them.
func EyesFromMesh(mesh []Point3D) *FaceLandmarks {
	face := &FaceLandmarks{}
	for i := 0; i < EyePoints; i++ {
		l, r := LeftEyeMesh[i], RightEyeMesh[i]
		if l >= len(mesh) || r >= len(mesh) {
			return nil
		}
		face.LeftEye[i] = Point2D{X: mesh[l].X, Y: mesh[l].Y}
		face.RightEye[i] = Point2D{X: mesh[r].X, Y: mesh[r].Y}
	}
	return face
}

// Observation is everything the tracker saw in a single frame.
type Observation struct {
	Hands []HandLandmarks `json:"hands"`
	// Face is nil when no face was detected.
	Face   *FaceLandmarks `json:"face,omitempty"`
	Width  int            `json:"width"`
	Height int            `json:"height"`
}

// distance3D calculates the Euclidean distance between two 3D points.
func distance3D(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// JointAngle returns the angle in degrees at b formed by the segments b→a and b→c.
// Returns NaN when a segment has zero length.
func JointAngle(a, b, c Point3D) float64 {
	ab := distance3D(a, b)
	bc := distance3D(b, c)
	ac := distance3D(a, c)
	if ab == 0 || bc == 0 {
		return math.NaN()
	}
	cos := (ab*ab + bc*bc - ac*ac) / (2 * ab * bc)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}
