package shed

import (
	"shed/internal/game"
	"shed/internal/game/cards"
)

const (
	EventPileCleared   game.EventKind = "pileCleared"
	EventMustPlayAgain game.EventKind = "mustPlayAgain"
	EventMatchWon      game.EventKind = "matchWon"
	EventOpponentLeft  game.EventKind = "opponentLeft"
	EventPilePickedUp  game.EventKind = "pilePickedUp"
	EventBlindMiss     game.EventKind = "blindMiss"
)

// Why the pile was cleared.
const (
	ClearedTen         = "ten"
	ClearedFourOfAKind = "fourOfAKind"
)

type PileClearedPayload struct {
	PlayerID string `json:"playerId"`
	Reason   string `json:"reason"`
	Count    int    `json:"count"`
}

// MustPlayAgainPayload is sent to the player who just played a 2. Blind is
// set when the extra play has to come from the face-down zone.
type MustPlayAgainPayload struct {
	Blind bool `json:"blind"`
}

type MatchWonPayload struct {
	WinnerID string `json:"winnerId"`
}

type OpponentLeftPayload struct {
	PlayerID string `json:"playerId"`
}

// PilePickedUpPayload reports a pickup. Forced pickups come from an illegal
// play under the sweep policy, and Reason carries the rule that was broken.
type PilePickedUpPayload struct {
	PlayerID string `json:"playerId"`
	Count    int    `json:"count"`
	Forced   bool   `json:"forced"`
	Reason   string `json:"reason,omitempty"`
}

type BlindMissPayload struct {
	PlayerID string     `json:"playerId"`
	Card     cards.Card `json:"card"`
	Swept    int        `json:"swept"`
	Reason   string     `json:"reason"`
}

func snapshotEvent() game.Event {
	return game.Event{Kind: game.EventSnapshot}
}

func (m *Match) emit(ev game.Event) {
	m.events = append(m.events, ev)
}

// flush hands the buffered events to the caller.
func (m *Match) flush() []game.Event {
	evs := m.events
	m.events = nil
	return evs
}
