package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

// stubGame is a minimal Game implementation for testing the registry.
type stubGame struct {
	name       string
	minPlayers int
	maxPlayers int
}

func (s stubGame) Info() GameInfo {
	return GameInfo{Name: s.name, MinPlayers: s.minPlayers, MaxPlayers: s.maxPlayers}
}

func (s stubGame) NewMatch(config MatchConfig) Match {
	return &stubMatch{}
}

// stubMatch is a minimal Match implementation.
type stubMatch struct{}

func (m *stubMatch) Join(string) ([]Event, error)                { return nil, nil }
func (m *stubMatch) Leave(string) ([]Event, error)               { return nil, nil }
func (m *stubMatch) ApplyAction(string, Action) ([]Event, error) { return nil, nil }
func (m *stubMatch) State(playerID string) any                   { return nil }
func (m *stubMatch) PlayerIDs() []string                         { return nil }
func (m *stubMatch) Started() bool                               { return false }
func (m *stubMatch) IsOver() bool                                { return false }
func (m *stubMatch) Results() []PlayerResult                     { return nil }
func (m *stubMatch) MarshalJSON() ([]byte, error)                { return json.Marshal(struct{}{}) }
func (m *stubMatch) UnmarshalJSON(data []byte) error             { return nil }

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	g := stubGame{name: "test", minPlayers: 2, maxPlayers: 2}
	r.Register(g)

	got, ok := r.Get("test")
	if !ok {
		t.Fatal("expected to find registered game")
	}
	if got.Info().Name != "test" {
		t.Fatalf("expected name test, got %s", got.Info().Name)
	}

	_, ok = r.Get("nonexistent")
	if ok {
		t.Fatal("expected not found for unregistered game")
	}
}

func TestRegistryListSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(stubGame{name: "b", minPlayers: 2, maxPlayers: 2})
	r.Register(stubGame{name: "a", minPlayers: 2, maxPlayers: 2})

	infos := r.List()
	if len(infos) != 2 {
		t.Fatalf("expected 2 games, got %d", len(infos))
	}
	if infos[0].Name != "a" || infos[1].Name != "b" {
		t.Fatalf("expected [a b], got %v", infos)
	}
}

func TestRegistryListEmpty(t *testing.T) {
	r := NewRegistry()
	infos := r.List()
	if len(infos) != 0 {
		t.Fatalf("expected 0 games, got %d", len(infos))
	}
}

func TestRegistryDuplicatePanics(t *testing.T) {
	r := NewRegistry()
	g := stubGame{name: "test", minPlayers: 2, maxPlayers: 2}
	r.Register(g)

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	r.Register(g) // should panic
}

func TestReasonOf(t *testing.T) {
	wrapped := fmt.Errorf("%w: index 7", ErrInvalidCardIndex)
	if got := ReasonOf(wrapped); got != "invalidCardIndex" {
		t.Fatalf("expected invalidCardIndex, got %s", got)
	}
	if !errors.Is(wrapped, ErrInvalidCardIndex) {
		t.Fatal("expected wrapped error to match sentinel")
	}
	if got := ReasonOf(errors.New("disk full")); got != "internal" {
		t.Fatalf("expected internal, got %s", got)
	}
	if IsRejection(errors.New("disk full")) {
		t.Fatal("plain error is not a rejection")
	}
}

func TestEventTo(t *testing.T) {
	ev := Event{Kind: EventSnapshot}
	addressed := ev.To("alice")
	if len(ev.Recipients) != 0 {
		t.Fatal("To must not mutate the original event")
	}
	if len(addressed.Recipients) != 1 || addressed.Recipients[0] != "alice" {
		t.Fatalf("expected [alice], got %v", addressed.Recipients)
	}
}
