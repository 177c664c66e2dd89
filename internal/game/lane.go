package game

// Lane geometry defaults, in pixels.
const (
	DefaultLaneWidth = 605
	DefaultCarWidth  = 200
	// laneSpeed is how much of the lane width the car covers per tick.
	laneSpeed = 0.0165
)

// Lane animates the customer's car driving up to the window. The car enters
// at the right edge and moves left one step per countdown tick until it
// reaches the middle of the lane.
type Lane struct {
	width   float64
	car     float64
	speed   float64
	x       float64
	arrived bool
}

// NewLane creates a lane. A non-positive width or a negative car width takes the default.
func NewLane(width, carWidth int) *Lane {
	if width <= 0 {
		width = DefaultLaneWidth
	}
	if carWidth < 0 {
		carWidth = DefaultCarWidth
	}
	speed := float64(int(float64(width) * laneSpeed))
	if speed < 1 {
		speed = 1
	}
	l := &Lane{width: float64(width), car: float64(carWidth), speed: speed}
	l.Reset()
	return l
}

// Reset puts the car back at the lane entrance.
func (l *Lane) Reset() {
	l.x = l.width
	l.arrived = false
}

// Advance moves the car one step and reports true on the single tick the car
// reaches the middle of the lane.
func (l *Lane) Advance() bool {
	if l.arrived {
		return false
	}

	mid := l.width/2 - l.car/2
	if l.x > mid-l.speed && l.x <= mid {
		l.arrived = true
		return true
	}

	l.x -= l.speed
	if l.x <= -l.car {
		l.x = l.width
	}
	return false
}

// Position returns the car's left edge.
func (l *Lane) Position() float64 {
	return l.x
}

// Arrived reports whether the car is waiting at the window.
func (l *Lane) Arrived() bool {
	return l.arrived
}
