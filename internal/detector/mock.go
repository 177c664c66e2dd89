package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockTracker is a test implementation of the Tracker interface.
// It allows tests to control the detection results.
type MockTracker struct {
	mu          sync.Mutex
	obs         Observation
	err         error
	maxHands    int
	reconfigErr error
	closed      int
	detections  int
}

// NewMockTracker creates a new MockTracker instance.
func NewMockTracker() *MockTracker {
	return &MockTracker{maxHands: 1}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockTracker) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.obs.Hands = hands
}

// SetFace sets the face that will be returned by Detect. Nil means no face.
func (m *MockTracker) SetFace(face *FaceLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.obs.Face = face
}

// SetObservation replaces the whole observation returned by Detect.
func (m *MockTracker) SetObservation(obs Observation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.obs = obs
}

// SetError sets the error that will be returned by Detect.
func (m *MockTracker) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetReconfigureError sets the error returned by Reconfigure.
func (m *MockTracker) SetReconfigureError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconfigErr = err
}

// Detect returns the pre-configured observation or error.
// Hands beyond the configured limit are dropped, as a real tracker would.
func (m *MockTracker) Detect(frame *gocv.Mat) (Observation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detections++
	if m.err != nil {
		return Observation{}, m.err
	}
	obs := m.obs
	if len(obs.Hands) > m.maxHands {
		obs.Hands = obs.Hands[:m.maxHands]
	}
	return obs, nil
}

// Reconfigure records the new hand limit.
func (m *MockTracker) Reconfigure(maxHands int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reconfigErr != nil {
		return m.reconfigErr
	}
	m.maxHands = maxHands
	return nil
}

// MaxHands returns the hand limit from the last Reconfigure call.
func (m *MockTracker) MaxHands() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxHands
}

// Detections returns how many times Detect was called.
func (m *MockTracker) Detections() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detections
}

// Closed returns how many times Close was called.
func (m *MockTracker) Closed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close records the call.
func (m *MockTracker) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return nil
}

// fingerBases are the x positions of the index, middle, ring and pinky columns
// for a right hand seen palm-forward.
var fingerBases = [4]float64{0.55, 0.50, 0.45, 0.40}

// HandPose returns landmarks for a right hand with the given fingers raised,
// in thumb, index, middle, ring, pinky order. Wrist X shifts the whole hand.
func HandPose(wristX float64, up [5]bool) HandLandmarks {
	dx := wristX - 0.5
	lm := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	lm.Points[Wrist] = Point3D{X: 0.5 + dx, Y: 0.8}

	lm.Points[ThumbCMC] = Point3D{X: 0.55 + dx, Y: 0.76}
	lm.Points[ThumbMCP] = Point3D{X: 0.58 + dx, Y: 0.70}
	if up[0] {
		lm.Points[ThumbIP] = Point3D{X: 0.62 + dx, Y: 0.62}
		lm.Points[ThumbTip] = Point3D{X: 0.64 + dx, Y: 0.52}
	} else {
		lm.Points[ThumbIP] = Point3D{X: 0.58 + dx, Y: 0.66}
		lm.Points[ThumbTip] = Point3D{X: 0.56 + dx, Y: 0.67}
	}

	for f := 0; f < 4; f++ {
		x := fingerBases[f] + dx
		mcp := IndexMCP + 4*f
		lm.Points[mcp] = Point3D{X: x, Y: 0.68}
		lm.Points[mcp+1] = Point3D{X: x, Y: 0.58, Z: -0.01}
		if up[f+1] {
			lm.Points[mcp+2] = Point3D{X: x, Y: 0.48}
			lm.Points[mcp+3] = Point3D{X: x, Y: 0.40}
		} else {
			lm.Points[mcp+2] = Point3D{X: x - 0.01, Y: 0.62, Z: -0.04}
			lm.Points[mcp+3] = Point3D{X: x - 0.02, Y: 0.66, Z: -0.02}
		}
	}

	return lm
}

// ThumbsUpLandmarks returns a preset HandLandmarks representing a thumbs up gesture.
func ThumbsUpLandmarks() HandLandmarks {
	return HandPose(0.5, [5]bool{true, false, false, false, false})
}

// OpenPalmLandmarks returns a preset HandLandmarks with every finger extended.
func OpenPalmLandmarks() HandLandmarks {
	return HandPose(0.5, [5]bool{true, true, true, true, true})
}

// FistLandmarks returns a preset HandLandmarks with every finger folded.
func FistLandmarks() HandLandmarks {
	return HandPose(0.5, [5]bool{})
}

// eye builds a six point contour centred on (cx, cy) with the given lid gap.
func eye(cx, cy, gap float64) [EyePoints]Point2D {
	const half = 0.02
	return [EyePoints]Point2D{
		{X: cx - half, Y: cy},
		{X: cx - half/2, Y: cy - gap/2},
		{X: cx + half/2, Y: cy - gap/2},
		{X: cx + half, Y: cy},
		{X: cx + half/2, Y: cy + gap/2},
		{X: cx - half/2, Y: cy + gap/2},
	}
}

const (
	openGap   = 0.015
	closedGap = 0.002
)

// OpenFace returns a face with both eyes open.
func OpenFace() *FaceLandmarks {
	return &FaceLandmarks{
		LeftEye:  eye(0.56, 0.40, openGap),
		RightEye: eye(0.44, 0.40, openGap),
	}
}

// WinkingFace returns a face with the left eye closed and the right eye open.
func WinkingFace() *FaceLandmarks {
	return &FaceLandmarks{
		LeftEye:  eye(0.56, 0.40, closedGap),
		RightEye: eye(0.44, 0.40, openGap),
	}
}

// ClosedFace returns a face with both eyes closed, as in a blink.
func ClosedFace() *FaceLandmarks {
	return &FaceLandmarks{
		LeftEye:  eye(0.56, 0.40, closedGap),
		RightEye: eye(0.44, 0.40, closedGap),
	}
}
