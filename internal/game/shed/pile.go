package shed

import "shed/internal/game/cards"

// Pile is the shared discard stack. The last element is the top.
type Pile []cards.Card

// Top returns the most recently played card.
func (p Pile) Top() (cards.Card, bool) {
	if len(p) == 0 {
		return cards.Card{}, false
	}
	return p[len(p)-1], true
}

func (p Pile) Len() int {
	return len(p)
}

func (p *Pile) Push(cs ...cards.Card) {
	*p = append(*p, cs...)
}

// Take empties the pile and returns what was on it, bottom first.
func (p *Pile) Take() []cards.Card {
	taken := *p
	*p = Pile{}
	return taken
}

// TopRun counts consecutive cards from the top sharing the top card's rank.
func (p Pile) TopRun() int {
	top, ok := p.Top()
	if !ok {
		return 0
	}
	n := 0
	for i := len(p) - 1; i >= 0 && p[i].Rank == top.Rank; i-- {
		n++
	}
	return n
}
