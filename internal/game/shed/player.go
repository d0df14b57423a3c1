package shed

import (
	"fmt"

	"shed/internal/game"
	"shed/internal/game/cards"
)

// Player is one seat with its three private zones. Hand and FaceUp are
// unordered; FaceDown positions address blind plays.
type Player struct {
	ID       string       `json:"id"`
	Hand     []cards.Card `json:"hand"`
	FaceUp   []cards.Card `json:"faceUp"`
	FaceDown []cards.Card `json:"faceDown"`
}

func NewPlayer(id string) *Player {
	return &Player{
		ID:       id,
		Hand:     []cards.Card{},
		FaceUp:   []cards.Card{},
		FaceDown: []cards.Card{},
	}
}

// CardCount is the total held across all three zones.
func (p *Player) CardCount() int {
	return len(p.Hand) + len(p.FaceUp) + len(p.FaceDown)
}

// OutOfCards reports the going-out condition.
func (p *Player) OutOfCards() bool {
	return p.CardCount() == 0
}

func (p *Player) promoteFaceUp() {
	p.Hand = append(p.Hand, p.FaceUp...)
	p.FaceUp = []cards.Card{}
}

// meld returns the hand cards at indices, in the order given, after checking
// that they exist, are distinct and share one rank.
func (p *Player) meld(indices []int) ([]cards.Card, error) {
	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: no cards selected", game.ErrInvalidCardIndex)
	}
	seen := make(map[int]bool, len(indices))
	out := make([]cards.Card, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(p.Hand) {
			return nil, fmt.Errorf("%w: %d", game.ErrInvalidCardIndex, i)
		}
		if seen[i] {
			return nil, fmt.Errorf("%w: %d selected twice", game.ErrInvalidCardIndex, i)
		}
		seen[i] = true
		out = append(out, p.Hand[i])
	}
	for _, c := range out[1:] {
		if c.Rank != out[0].Rank {
			return nil, ErrMixedRankMeld
		}
	}
	return out, nil
}

func (p *Player) removeFromHand(indices []int) {
	drop := make(map[int]bool, len(indices))
	for _, i := range indices {
		drop[i] = true
	}
	kept := make([]cards.Card, 0, len(p.Hand))
	for i, c := range p.Hand {
		if !drop[i] {
			kept = append(kept, c)
		}
	}
	p.Hand = kept
}

func (p *Player) takeFaceDown(i int) (cards.Card, error) {
	if i < 0 || i >= len(p.FaceDown) {
		return cards.Card{}, fmt.Errorf("%w: face-down %d", game.ErrInvalidCardIndex, i)
	}
	c := p.FaceDown[i]
	p.FaceDown = append(p.FaceDown[:i:i], p.FaceDown[i+1:]...)
	return c, nil
}
