package game

import (
	"encoding/json"
	"math/rand/v2"
)

// GameInfo describes a game type for the lobby.
type GameInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MinPlayers  int    `json:"minPlayers"`
	MaxPlayers  int    `json:"maxPlayers"`
}

// MatchConfig holds settings for creating a new match.
type MatchConfig struct {
	// Rand drives the shuffle. Nil means the default source.
	Rand *rand.Rand
}

// Action is one inbound player request.
type Action struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// PlayerResult holds the outcome for one player.
type PlayerResult struct {
	PlayerID string `json:"playerId"`
	Rank     int    `json:"rank"` // 1 = first place
	Score    int    `json:"score"`
}

// EventKind names an outbound event on the wire.
type EventKind string

// EventSnapshot asks the broadcaster to render State for each recipient.
const EventSnapshot EventKind = "snapshot"

// EventRejected is the event name used for rule violations.
const EventRejected EventKind = "actionRejected"

// Event is emitted by a match after an action. Empty Recipients means every
// seated player.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string
}

// To returns a copy of e addressed to the given players.
func (e Event) To(playerIDs ...string) Event {
	e.Recipients = playerIDs
	return e
}

// Game describes a game type.
type Game interface {
	Info() GameInfo
	NewMatch(config MatchConfig) Match
}

// Match is one in-progress game. Implementations are not safe for concurrent
// use; the session serializes every call.
type Match interface {
	Join(playerID string) ([]Event, error)
	Leave(playerID string) ([]Event, error)
	ApplyAction(playerID string, action Action) ([]Event, error)
	// State returns the snapshot visible to playerID.
	State(playerID string) any
	PlayerIDs() []string
	Started() bool
	IsOver() bool
	Results() []PlayerResult
	// MarshalJSON / UnmarshalJSON support for persistence
	MarshalJSON() ([]byte, error)
	UnmarshalJSON(data []byte) error
}
