package shed

import (
	"fmt"

	"shed/internal/game"
	"shed/internal/game/cards"
)

func wild(r cards.Rank) bool {
	return r == cards.Two || r == cards.Ten
}

// checkPlayable decides whether a card of rank r may go on the pile now.
func (m *Match) checkPlayable(r cards.Rank) error {
	if wild(r) {
		return nil
	}
	if m.RankCeiling {
		if r > cards.Seven {
			return fmt.Errorf("%w (played %s)", ErrRankCeilingViolation, r)
		}
		return nil
	}
	if top, ok := m.Pile.Top(); ok && r < top.Rank {
		return fmt.Errorf("%w (played %s on %s)", ErrRankTooLowForPile, r, top.Rank)
	}
	return nil
}

// resolve applies the effect of a legal play of rank, then refills the
// player's hand and hands the turn on unless a 2 grants another play.
// Effects in order of precedence: four of a kind on top, ten, seven, two.
func (m *Match) resolve(p *Player, rank cards.Rank) {
	again := false
	switch {
	case m.Pile.TopRun() >= 4:
		m.clearPile(p, ClearedFourOfAKind)
	case rank == cards.Ten:
		m.clearPile(p, ClearedTen)
	case rank == cards.Seven:
		m.RankCeiling, m.RepeatTurn = true, false
	case rank == cards.Two:
		m.RankCeiling, m.RepeatTurn = false, true
		again = true
		// An emptied hand takes the face-up cards before drawing.
		if len(p.Hand) == 0 && len(p.FaceUp) > 0 {
			p.promoteFaceUp()
		}
	default:
		m.resetFlags()
	}

	m.refill(p)
	if m.checkWin(p) {
		return
	}

	if again {
		blind := len(p.Hand) == 0 && len(p.FaceUp) == 0
		if blind {
			m.AwaitingBlind = p.ID
		}
		m.emit(game.Event{Kind: EventMustPlayAgain, Payload: MustPlayAgainPayload{Blind: blind}}.To(p.ID))
	} else {
		m.advance()
	}
	m.emit(snapshotEvent())
}

func (m *Match) clearPile(p *Player, reason string) {
	n := len(m.Pile.Take())
	m.resetFlags()
	m.emit(game.Event{Kind: EventPileCleared, Payload: PileClearedPayload{
		PlayerID: p.ID,
		Reason:   reason,
		Count:    n,
	}})
}

// refill draws the hand back up to HandSize. Once the deck is gone an empty
// hand takes over the face-up cards.
func (m *Match) refill(p *Player) {
	for len(p.Hand) < HandSize {
		c, err := m.Deck.Draw()
		if err != nil {
			break
		}
		p.Hand = append(p.Hand, c)
	}
	if m.Deck.Empty() && len(p.Hand) == 0 && len(p.FaceUp) > 0 {
		p.promoteFaceUp()
	}
}

func (m *Match) checkWin(p *Player) bool {
	if !p.OutOfCards() {
		return false
	}
	m.Phase = PhaseFinished
	m.Winner = p.ID
	m.AwaitingBlind = ""
	m.resetFlags()
	m.emit(snapshotEvent())
	m.emit(game.Event{Kind: EventMatchWon, Payload: MatchWonPayload{WinnerID: p.ID}})
	return true
}
