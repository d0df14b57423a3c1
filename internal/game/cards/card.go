package cards

import (
	"encoding/json"
	"strconv"
)

// Suit is one of the four French suits.
type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

// Suits lists the suits in deck-generation order.
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// Symbol returns the single-rune glyph used in card ids.
func (s Suit) Symbol() string {
	switch s {
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	case Spades:
		return "♠"
	}
	return "?"
}

// Rank is the numeric card value, 2 through 14 (ace high).
type Rank int

const (
	Two   Rank = 2
	Three Rank = 3
	Four  Rank = 4
	Five  Rank = 5
	Six   Rank = 6
	Seven Rank = 7
	Eight Rank = 8
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

// Valid reports whether r is inside the 2..A range.
func (r Rank) Valid() bool {
	return r >= Two && r <= Ace
}

func (r Rank) String() string {
	switch r {
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	}
	return strconv.Itoa(int(r))
}

// Card is an immutable rank+suit pair. Equal cards are interchangeable.
type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

// ID is the rendering key shown to clients, e.g. "10♥" or "Q♠".
func (c Card) ID() string {
	return c.Rank.String() + c.Suit.Symbol()
}

func (c Card) String() string {
	return c.ID()
}

// MarshalJSON adds the id to the wire form. Decoding ignores it.
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Rank Rank   `json:"rank"`
		Suit Suit   `json:"suit"`
		ID   string `json:"id"`
	}{c.Rank, c.Suit, c.ID()})
}
