// Package shed implements a two-player shedding card game: players empty
// their hand, then their face-up cards, then their face-down cards, onto a
// shared pile, and the first one out of cards wins.
package shed

import "shed/internal/game"

// Game is a registered variant of the rules.
type Game struct {
	Name   string
	Policy Policy
}

var (
	// Standard refuses illegal melds and lets the player try again.
	Standard = Game{Name: "shed", Policy: PolicyReject}
	// Sweep makes an illegal meld cost the player the whole pile.
	Sweep = Game{Name: "shed-sweep", Policy: PolicySweep}
)

// Variants lists every rule set the server registers.
func Variants() []Game {
	return []Game{Standard, Sweep}
}

func (g Game) Info() game.GameInfo {
	desc := "Shed: get rid of your hand, face-up and face-down cards first. Illegal plays are refused."
	if g.Policy == PolicySweep {
		desc = "Shed with sweeping: an illegal play picks up the whole pile."
	}
	return game.GameInfo{
		Name:        g.Name,
		Description: desc,
		MinPlayers:  MaxPlayers,
		MaxPlayers:  MaxPlayers,
	}
}

func (g Game) NewMatch(config game.MatchConfig) game.Match {
	return NewMatch(g.Policy, config.Rand)
}
