package cards

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
)

// DeckSize is the number of cards in a standard deck.
const DeckSize = 52

// ErrDeckEmpty is returned by Draw on an exhausted deck.
var ErrDeckEmpty = errors.New("deck is empty")

// Generate returns the 52 cards in a fixed suit-major order.
func Generate() []Card {
	out := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for r := Two; r <= Ace; r++ {
			out = append(out, Card{Rank: r, Suit: s})
		}
	}
	return out
}

// Shuffle permutes cards in place with Fisher-Yates. A nil rng uses the
// package-level source.
func Shuffle(cards []Card, rng *rand.Rand) {
	intn := rand.IntN
	if rng != nil {
		intn = rng.IntN
	}
	for i := len(cards) - 1; i > 0; i-- {
		j := intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// Deck is a draw pile. The top of the deck is the end of the slice.
type Deck struct {
	cards []Card
}

// NewDeck returns a freshly shuffled 52-card deck.
func NewDeck(rng *rand.Rand) *Deck {
	cs := Generate()
	Shuffle(cs, rng)
	return &Deck{cards: cs}
}

// NewDeckFrom builds a deck whose last element is drawn first.
func NewDeckFrom(cards []Card) *Deck {
	cs := make([]Card, len(cards))
	copy(cs, cards)
	return &Deck{cards: cs}
}

// Draw removes and returns the top card.
func (d *Deck) Draw() (Card, error) {
	n := len(d.cards)
	if n == 0 {
		return Card{}, ErrDeckEmpty
	}
	c := d.cards[n-1]
	d.cards = d.cards[:n-1]
	return c, nil
}

func (d *Deck) Len() int {
	return len(d.cards)
}

func (d *Deck) Empty() bool {
	return len(d.cards) == 0
}

// Cards returns a copy of the remaining cards, bottom first.
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}

func (d *Deck) MarshalJSON() ([]byte, error) {
	if d.cards == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d.cards)
}

func (d *Deck) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &d.cards)
}
