package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"
)

// idleShutdown is how long the Python process may sit unused before it is stopped.
const idleShutdown = 30 * time.Second

const serviceScript = "mediapipe_service.py"

// MediaPipeTracker implements Tracker using a Python MediaPipe subprocess.
type MediaPipeTracker struct {
	config    Config
	script    string
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	lastUsed  time.Time
	idleTimer *time.Timer
}

// NewMediaPipeTracker creates a new MediaPipe tracker.
// The Python process is started lazily on first detection.
func NewMediaPipeTracker(config Config) (*MediaPipeTracker, error) {
	scriptPath := findMediaPipeScript()
	if scriptPath == "" {
		return nil, fmt.Errorf("%s not found: %w", serviceScript, ErrTrackerUnavailable)
	}
	if config.MaxHands <= 0 {
		config.MaxHands = 1
	}

	return &MediaPipeTracker{
		config: config,
		script: scriptPath,
	}, nil
}

// Detect analyzes a frame and returns detected hand and face landmarks.
func (d *MediaPipeTracker) Detect(frame *gocv.Mat) (Observation, error) {
	if frame == nil || frame.Empty() {
		return Observation{}, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return Observation{}, err
	}

	// Encode frame as JPEG
	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return Observation{}, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	// Write length (4 bytes big-endian) + data
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		d.abort()
		return Observation{}, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		d.abort()
		return Observation{}, fmt.Errorf("write data: %w", err)
	}

	line, err := d.stdout.ReadString('\n')
	if err != nil {
		d.abort()
		return Observation{}, fmt.Errorf("read response: %w", err)
	}

	var response jsonResponse
	if err := json.Unmarshal([]byte(line), &response); err != nil {
		return Observation{}, fmt.Errorf("parse response: %w", err)
	}

	obs := response.toObservation(d.config.MaxHands)
	obs.Width = frame.Cols()
	obs.Height = frame.Rows()

	d.lastUsed = time.Now()
	d.resetIdleTimer()

	return obs, nil
}

// Reconfigure stops the running session so the next detection starts one
// with the new hand limit.
func (d *MediaPipeTracker) Reconfigure(maxHands int) error {
	if maxHands <= 0 {
		maxHands = 1
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.config.MaxHands == maxHands {
		return nil
	}
	d.config.MaxHands = maxHands
	log.Info().Int("max_hands", maxHands).Msg("rebuilding mediapipe session")
	return d.shutdown()
}

// Close shuts down the Python process.
func (d *MediaPipeTracker) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeTracker) ensureStarted() error {
	if d.started {
		return nil
	}

	// Use virtual environment Python if available
	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	args := []string{
		d.script,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-detection", strconv.FormatFloat(d.config.MinConfidence, 'f', 2, 64),
		"--min-tracking", strconv.FormatFloat(d.config.MinTrackingConf, 'f', 2, 64),
	}
	if d.config.Face {
		args = append(args, "--face")
	}
	d.cmd = exec.Command(pythonPath, args...)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Capture stderr for debugging
	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start mediapipe service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	d.lastUsed = time.Now()

	log.Debug().Str("python", pythonPath).Int("max_hands", d.config.MaxHands).Msg("mediapipe service started")
	return nil
}

// abort tears the process down after a broken pipe so the next frame restarts it.
func (d *MediaPipeTracker) abort() {
	if err := d.shutdown(); err != nil {
		log.Debug().Err(err).Msg("mediapipe service exited")
	}
}

func (d *MediaPipeTracker) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *MediaPipeTracker) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(idleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

func findMediaPipeScript() string {
	// Get executable directory
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", serviceScript),
		filepath.Join("..", "scripts", serviceScript),
		filepath.Join(execDir, "scripts", serviceScript),
		filepath.Join(os.Getenv("HOME"), ".drivethru", "scripts", serviceScript),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		"../../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".drivethru/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonResponse is one line of output from the Python service.
type jsonResponse struct {
	Hands []jsonHand `json:"hands"`
	Face  *jsonFace  `json:"face"`
}

// jsonHand represents the JSON structure from the Python service.
type jsonHand struct {
	Points     []jsonPoint `json:"points"`
	Handedness string      `json:"handedness"`
	Score      float64     `json:"score"`
}

// jsonFace carries either the full mesh or just the eye contours.
type jsonFace struct {
	Mesh     []jsonPoint `json:"mesh"`
	LeftEye  []jsonPoint `json:"left_eye"`
	RightEye []jsonPoint `json:"right_eye"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (r jsonResponse) toObservation(maxHands int) Observation {
	var obs Observation

	for i, h := range r.Hands {
		if i >= maxHands {
			break
		}
		obs.Hands = append(obs.Hands, h.toHandLandmarks())
	}

	if r.Face != nil {
		obs.Face = r.Face.toFaceLandmarks()
	}

	return obs
}

// toHandLandmarks copies the points the service returned and marks the rest missing.
func (h jsonHand) toHandLandmarks() HandLandmarks {
	lm := HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}

	for i := 0; i < NumLandmarks; i++ {
		if i >= len(h.Points) {
			lm.Points[i] = MissingPoint
			continue
		}
		lm.Points[i] = Point3D{
			X: h.Points[i].X,
			Y: h.Points[i].Y,
			Z: h.Points[i].Z,
		}
	}

	return lm
}

func (f jsonFace) toFaceLandmarks() *FaceLandmarks {
	if len(f.Mesh) > 0 {
		mesh := make([]Point3D, len(f.Mesh))
		for i, p := range f.Mesh {
			mesh[i] = Point3D{X: p.X, Y: p.Y, Z: p.Z}
		}
		return EyesFromMesh(mesh)
	}

	if len(f.LeftEye) != EyePoints || len(f.RightEye) != EyePoints {
		return nil
	}

	face := &FaceLandmarks{}
	for i := 0; i < EyePoints; i++ {
		face.LeftEye[i] = Point2D{X: f.LeftEye[i].X, Y: f.LeftEye[i].Y}
		face.RightEye[i] = Point2D{X: f.RightEye[i].X, Y: f.RightEye[i].Y}
	}
	return face
}
