package server

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/jonboulle/clockwork"

	"github.com/ayusman/drivethru/internal/app"
	"github.com/ayusman/drivethru/internal/capture"
	"github.com/ayusman/drivethru/internal/deals"
	"github.com/ayusman/drivethru/internal/detector"
	"github.com/ayusman/drivethru/internal/game"
	"github.com/ayusman/drivethru/internal/store"
)

func TestAPI_SessionWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("needs OpenCV")
	}

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	recorder := store.NewRoundRecorder(st, "ana")
	defer recorder.Close()

	tracker := detector.NewMockTracker()
	session := app.New(app.Config{
		Camera:  capture.NewMockCamera(nil, true),
		Tracker: tracker,
		Mode:    game.Default,
		Game: game.Config{
			Clock:    clockwork.NewFakeClock(),
			Deals:    deals.NewGenerator(rand.New(rand.NewSource(3)), nil),
			Scores:   store.NewScoreKeeper(st, "ana"),
			Observer: recorder,
		},
	})
	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer session.Stop()

	srv := New(Config{Game: session, Store: st, Player: "ana"})
	defer srv.Close()
	ts := httptest.NewServer(srv)
	defer ts.Close()
	client := ts.Client()

	// 1. Current round is approaching the window
	resp, err := client.Get(ts.URL + "/api/round")
	if err != nil {
		t.Fatalf("GET /api/round error = %v", err)
	}
	var snap struct {
		Mode  string `json:"mode"`
		Phase string `json:"phase"`
		Order struct {
			Item string `json:"item"`
		} `json:"order"`
	}
	json.NewDecoder(resp.Body).Decode(&snap)
	resp.Body.Close()

	if snap.Mode != "default" || snap.Phase != "approaching" || snap.Order.Item == "" {
		t.Fatalf("unexpected round %+v", snap)
	}

	// 2. Validation before arrival is ignored
	resp, _ = client.Post(ts.URL+"/api/round/validate", "application/json", nil)
	var action struct {
		Accepted bool `json:"accepted"`
	}
	json.NewDecoder(resp.Body).Decode(&action)
	resp.Body.Close()
	if action.Accepted {
		t.Error("validate before arrival should be ignored")
	}

	// 3. Switch to a two-hand mode
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/mode", bytes.NewBufferString(`{"mode":"reverse"}`))
	resp, err = client.Do(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT /api/mode = %v, %v", resp, err)
	}
	resp.Body.Close()
	if tracker.MaxHands() != 2 {
		t.Errorf("tracker hands = %d, want 2", tracker.MaxHands())
	}

	// 4. Empty history and scores
	recorder.Flush()
	resp, _ = client.Get(ts.URL + "/api/rounds")
	var rounds struct {
		Rounds []json.RawMessage `json:"rounds"`
	}
	json.NewDecoder(resp.Body).Decode(&rounds)
	resp.Body.Close()
	if len(rounds.Rounds) != 0 {
		t.Errorf("expected no rounds, got %d", len(rounds.Rounds))
	}

	// 5. Stopped session reports unavailable
	session.Stop()
	resp, _ = client.Get(ts.URL + "/api/round")
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("GET /api/round after stop = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}
}

func TestAPI_HealthCheck(t *testing.T) {
	srv := New(Config{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}
