package game

import "time"

// RoundObserver is notified of round lifecycle events. Callbacks run on the
// session goroutine and must not block.
type RoundObserver interface {
	OrderPlaced(o Order)
	CountdownStarted(o Order)
	Resolved(r Resolution)
}

// NopObserver implements RoundObserver with no-ops. Embed it to handle only
// some events.
type NopObserver struct{}

func (NopObserver) OrderPlaced(Order)      {}
func (NopObserver) CountdownStarted(Order) {}
func (NopObserver) Resolved(Resolution)    {}

// Observers fans events out to every observer in order.
type Observers []RoundObserver

func (obs Observers) OrderPlaced(o Order) {
	for _, ob := range obs {
		ob.OrderPlaced(o)
	}
}

func (obs Observers) CountdownStarted(o Order) {
	for _, ob := range obs {
		ob.CountdownStarted(o)
	}
}

func (obs Observers) Resolved(r Resolution) {
	for _, ob := range obs {
		ob.Resolved(r)
	}
}

// ObserverFunc adapts a function to receive only resolutions.
type ObserverFunc func(Resolution)

func (ObserverFunc) OrderPlaced(Order)        {}
func (ObserverFunc) CountdownStarted(Order)   {}
func (f ObserverFunc) Resolved(r Resolution) { f(r) }

// Order is one customer's request.
type Order struct {
	RoundID  string        `json:"round_id"`
	Mode     Mode          `json:"mode"`
	Item     string        `json:"item"`
	Code     int           `json:"code"`
	Label    string        `json:"label"`
	Duration time.Duration `json:"-"`
	PlacedAt time.Time     `json:"placed_at"`
}
