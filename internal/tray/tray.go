// Package tray provides the system tray menu for the drive-thru game.
package tray

import (
	"fmt"
	"strings"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/drivethru/internal/game"
)

// Tray represents the system tray application. It holds no game state of its
// own; menu clicks are forwarded to the injected callbacks.
type Tray struct {
	game.NopObserver

	onMode  func(m game.Mode)
	onPause func(paused bool)
	onOpen  func()
	onQuit  func()
	mode    game.Mode
	paused  bool
	last    string
	mu      sync.RWMutex

	// Menu items stored for later updates
	menuModes       map[game.Mode]*systray.MenuItem
	menuPause       *systray.MenuItem
	menuLastOutcome *systray.MenuItem
}

// New creates a Tray with mode checked.
func New(mode game.Mode) *Tray {
	return &Tray{mode: mode}
}

// OnMode sets the callback called when a mode item is clicked.
func (t *Tray) OnMode(fn func(m game.Mode)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMode = fn
}

// OnPause sets the callback called when the pause item is toggled.
func (t *Tray) OnPause(fn func(paused bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPause = fn
}

// OnOpen sets the callback called when the open-in-browser item is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback called when the quit item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Drive-Thru")
	systray.SetTooltip("Binary drive-thru quiz")

	t.mu.Lock()
	t.menuModes = make(map[game.Mode]*systray.MenuItem)
	for _, m := range game.Modes() {
		item := systray.AddMenuItemCheckbox(modeTitle(m), "Switch to "+modeTitle(m), m == t.mode)
		t.menuModes[m] = item
	}
	systray.AddSeparator()

	t.menuPause = systray.AddMenuItem(pauseTitle(t.paused), "Pause or resume the countdown")
	systray.AddSeparator()

	t.menuLastOutcome = systray.AddMenuItem(lastTitle(t.last), "Last round")
	t.menuLastOutcome.Disable()
	systray.AddSeparator()
	t.mu.Unlock()

	menuOpen := systray.AddMenuItem("Open Game...", "Open the game in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Drive-Thru")

	for m, item := range t.menuModes {
		go func(m game.Mode, item *systray.MenuItem) {
			for range item.ClickedCh {
				t.handleMode(m)
			}
		}(m, item)
	}

	go func() {
		for {
			select {
			case <-t.menuPause.ClickedCh:
				t.handlePause()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) handleMode(m game.Mode) {
	t.mu.Lock()
	t.mode = m
	t.checkModes()
	callback := t.onMode
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(m)
	}
}

// checkModes must be called with mu held.
func (t *Tray) checkModes() {
	for m, item := range t.menuModes {
		if m == t.mode {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
}

func (t *Tray) handlePause() {
	t.mu.Lock()
	t.paused = !t.paused
	paused := t.paused
	if t.menuPause != nil {
		t.menuPause.SetTitle(pauseTitle(paused))
	}
	callback := t.onPause
	t.mu.Unlock()

	if callback != nil {
		callback(paused)
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Resolved updates the last outcome line and the checked mode.
func (t *Tray) Resolved(r game.Resolution) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = outcomeLine(r)
	t.mode = r.Mode
	if t.menuLastOutcome != nil {
		t.menuLastOutcome.SetTitle(lastTitle(t.last))
	}
	t.checkModes()
}

// LastOutcome returns the text shown on the last outcome line.
func (t *Tray) LastOutcome() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return lastTitle(t.last)
}

// Mode returns the checked mode.
func (t *Tray) Mode() game.Mode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mode
}

// IsPaused returns the pause toggle state.
func (t *Tray) IsPaused() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.paused
}

func modeTitle(m game.Mode) string {
	words := strings.Split(m.String(), "_")
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func pauseTitle(paused bool) string {
	if paused {
		return "▶ Resume"
	}
	return "❚❚ Pause"
}

func lastTitle(line string) string {
	if line == "" {
		return "Last: none"
	}
	return "Last: " + line
}

func outcomeLine(r game.Resolution) string {
	switch r.Outcome {
	case game.Correct:
		return fmt.Sprintf("correct, score %d", r.Score)
	case game.Incorrect, game.TimedOut:
		line := fmt.Sprintf("%s, final score %d", strings.ReplaceAll(r.Outcome.String(), "_", " "), r.Score)
		if r.NewHighScore {
			line += " (new high score)"
		}
		return line
	}
	return ""
}
