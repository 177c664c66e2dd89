package plugin

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/drivethru/internal/game"
)

// DefaultQueueSize is how many pending plugin runs Hooks buffers.
const DefaultQueueSize = 16

// Runner executes one plugin request.
type Runner interface {
	Execute(ctx context.Context, plugin *Plugin, req *Request) (*Response, error)
}

type job struct {
	plugin *Plugin
	req    Request
}

// Hooks is a round observer that hands events to subscribed plugins on a
// background worker. Events arriving while the queue is full are dropped.
type Hooks struct {
	manager *Manager
	runner  Runner

	jobs chan job
	wg   sync.WaitGroup
	once sync.Once

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHooks creates Hooks and starts its worker. Call Close to stop it.
func NewHooks(m *Manager, r Runner, queueSize int) *Hooks {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hooks{
		manager: m,
		runner:  r,
		jobs:    make(chan job, queueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
	h.wg.Add(1)
	go h.work()
	return h
}

func (h *Hooks) OrderPlaced(o game.Order) {
	h.dispatch(Request{Event: EventOrder, Order: &o})
}

func (h *Hooks) CountdownStarted(o game.Order) {
	h.dispatch(Request{Event: EventCountdown, Order: &o})
}

func (h *Hooks) Resolved(r game.Resolution) {
	h.dispatch(Request{Event: EventResolved, Resolution: &r})
}

func (h *Hooks) dispatch(req Request) {
	for _, p := range h.manager.ForEvent(req.Event) {
		select {
		case h.jobs <- job{plugin: p, req: req}:
		default:
			log.Warn().Str("plugin", p.Manifest.Name).Str("event", req.Event).Msg("plugin queue full, dropping event")
		}
	}
}

func (h *Hooks) work() {
	defer h.wg.Done()
	for {
		select {
		case <-h.ctx.Done():
			return
		case j := <-h.jobs:
			resp, err := h.runner.Execute(h.ctx, j.plugin, &j.req)
			if err != nil {
				log.Warn().Err(err).Str("plugin", j.plugin.Manifest.Name).Str("event", j.req.Event).Msg("plugin failed")
				continue
			}
			if !resp.Success {
				log.Warn().Str("plugin", j.plugin.Manifest.Name).Str("error", resp.Error).Msg("plugin reported failure")
			}
		}
	}
}

// Close stops the worker, cancelling any running plugin, and waits for it to exit.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.cancel()
		h.wg.Wait()
	})
}
