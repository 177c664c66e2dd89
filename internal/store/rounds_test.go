package store

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/drivethru/internal/game"
)

func TestRoundRepository_CreateAndList(t *testing.T) {
	s := newTestStore(t)
	repo := s.Rounds()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, outcome := range []string{"correct", "correct", "timed_out"} {
		rd := &Round{
			ID:           uuid.NewString(),
			Player:       "ana",
			Mode:         game.Default,
			Outcome:      outcome,
			TrueCode:     10 + i,
			ObservedCode: "01010",
			RemainingMs:  int64(1000 * i),
			Score:        i,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(rd); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	rounds, err := repo.ListRecent("ana", 2)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(rounds) != 2 {
		t.Fatalf("expected 2 rounds, got %d", len(rounds))
	}
	if rounds[0].Outcome != "timed_out" || rounds[0].TrueCode != 12 {
		t.Errorf("expected newest round first, got %+v", rounds[0])
	}
	if rounds[1].RemainingMs != 1000 || rounds[1].Mode != game.Default {
		t.Errorf("unexpected second round %+v", rounds[1])
	}
}

func TestRoundRepository_CreateSetsTime(t *testing.T) {
	s := newTestStore(t)

	rd := &Round{ID: uuid.NewString(), Player: "ana", Outcome: "incorrect"}
	if err := s.Rounds().Create(rd); err != nil {
		t.Fatal(err)
	}
	if rd.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestRoundRepository_RejectsUnknownOutcome(t *testing.T) {
	s := newTestStore(t)

	rd := &Round{ID: uuid.NewString(), Player: "ana", Outcome: "maybe"}
	if err := s.Rounds().Create(rd); err == nil {
		t.Error("expected constraint violation for unknown outcome")
	}
}

func TestRoundRepository_DuplicateID(t *testing.T) {
	s := newTestStore(t)

	rd := &Round{ID: "same", Player: "ana", Outcome: "correct"}
	if err := s.Rounds().Create(rd); err != nil {
		t.Fatal(err)
	}
	if err := s.Rounds().Create(&Round{ID: "same", Player: "ana", Outcome: "correct"}); err == nil {
		t.Error("expected primary key violation")
	}
}
