package shed

import "shed/internal/game/cards"

// PlayerView is one seat as seen by a particular viewer. Hand is only
// filled in for the viewer's own seat.
type PlayerView struct {
	ID            string       `json:"id"`
	Hand          []cards.Card `json:"hand,omitempty"`
	HandCount     int          `json:"handCount"`
	FaceUp        []cards.Card `json:"faceUp"`
	FaceDownCount int          `json:"faceDownCount"`
	IsTurn        bool         `json:"isTurn"`
}

// Snapshot is the per-viewer projection of a match.
type Snapshot struct {
	Phase           Phase        `json:"phase"`
	Policy          Policy       `json:"policy"`
	Viewer          string       `json:"viewer"`
	CurrentPlayerID string       `json:"currentPlayerId,omitempty"`
	Players         []PlayerView `json:"players"`
	DeckCount       int          `json:"deckCount"`
	PileTop         *cards.Card  `json:"pileTop,omitempty"`
	PileCount       int          `json:"pileCount"`
	RankCeiling     bool         `json:"rankCeiling"`
	RepeatTurn      bool         `json:"repeatTurn"`
	AwaitingBlind   string       `json:"awaitingBlind,omitempty"`
	CanPlayBlind    bool         `json:"canPlayBlind"`
	WinnerID        string       `json:"winnerId,omitempty"`
}

// Snapshot builds the view for viewer. Face-down cards are never revealed,
// not even to their owner.
func (m *Match) Snapshot(viewer string) Snapshot {
	s := Snapshot{
		Phase:         m.Phase,
		Policy:        m.Policy,
		Viewer:        viewer,
		Players:       make([]PlayerView, 0, len(m.Players)),
		DeckCount:     m.Deck.Len(),
		PileCount:     m.Pile.Len(),
		RankCeiling:   m.RankCeiling,
		RepeatTurn:    m.RepeatTurn,
		AwaitingBlind: m.AwaitingBlind,
		WinnerID:      m.Winner,
	}
	if top, ok := m.Pile.Top(); ok {
		s.PileTop = &top
	}

	playing := m.Phase == PhasePlaying
	for i, p := range m.Players {
		turn := playing && i == m.Current
		if turn {
			s.CurrentPlayerID = p.ID
		}
		v := PlayerView{
			ID:            p.ID,
			HandCount:     len(p.Hand),
			FaceUp:        append([]cards.Card{}, p.FaceUp...),
			FaceDownCount: len(p.FaceDown),
			IsTurn:        turn,
		}
		if p.ID == viewer {
			v.Hand = append([]cards.Card{}, p.Hand...)
			s.CanPlayBlind = turn && (m.AwaitingBlind == p.ID || (len(p.Hand) == 0 && len(p.FaceUp) == 0))
		}
		s.Players = append(s.Players, v)
	}
	return s
}

// State returns the snapshot for playerID.
func (m *Match) State(playerID string) any {
	return m.Snapshot(playerID)
}
