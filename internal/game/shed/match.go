package shed

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"shed/internal/game"
	"shed/internal/game/cards"
)

const (
	// MaxPlayers is the seat count of a match.
	MaxPlayers = 2
	// HandSize is both the refill target and the size of each dealt zone.
	HandSize = 3
)

// Phase is the lifecycle stage of a match.
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhasePlaying   Phase = "playing"
	PhaseFinished  Phase = "finished"
	PhaseAbandoned Phase = "abandoned"
)

// Policy decides what happens to an illegal meld.
type Policy string

const (
	// PolicyReject refuses the meld and leaves the turn with the player.
	PolicyReject Policy = "reject"
	// PolicySweep makes the player pick up the pile and ends the turn.
	PolicySweep Policy = "sweep"
)

// Match is the authoritative state of one two-player game.
type Match struct {
	Policy        Policy      `json:"policy"`
	Phase         Phase       `json:"phase"`
	Deck          *cards.Deck `json:"deck"`
	Pile          Pile        `json:"pile"`
	Players       []*Player   `json:"players"`
	Current       int         `json:"current"`
	RankCeiling   bool        `json:"rankCeiling"`
	RepeatTurn    bool        `json:"repeatTurn"`
	AwaitingBlind string      `json:"awaitingBlind,omitempty"`
	Dealt         bool        `json:"dealt"`
	Winner        string      `json:"winner,omitempty"`

	events []game.Event
}

// NewMatch returns an empty match with a freshly shuffled deck.
func NewMatch(policy Policy, rng *rand.Rand) *Match {
	if policy == "" {
		policy = PolicyReject
	}
	return &Match{
		Policy:  policy,
		Phase:   PhaseWaiting,
		Deck:    cards.NewDeck(rng),
		Pile:    Pile{},
		Players: []*Player{},
	}
}

func (m *Match) indexOf(playerID string) int {
	for i, p := range m.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

func (m *Match) player(playerID string) *Player {
	if i := m.indexOf(playerID); i >= 0 {
		return m.Players[i]
	}
	return nil
}

func (m *Match) over() bool {
	return m.Phase == PhaseFinished || m.Phase == PhaseAbandoned
}

// Join seats a player. Rejoining with a seated id only resends that
// player's snapshot. The second seat triggers the deal.
func (m *Match) Join(playerID string) ([]game.Event, error) {
	if playerID == "" {
		return nil, fmt.Errorf("%w: empty player id", game.ErrUnknownPlayer)
	}
	if m.indexOf(playerID) >= 0 {
		m.emit(snapshotEvent().To(playerID))
		return m.flush(), nil
	}
	if m.over() {
		return nil, game.ErrAlreadyFinished
	}
	if m.Dealt || len(m.Players) >= MaxPlayers {
		return nil, game.ErrMatchFull
	}

	m.Players = append(m.Players, NewPlayer(playerID))
	if len(m.Players) == MaxPlayers {
		m.deal()
	}
	m.emit(snapshotEvent())
	return m.flush(), nil
}

func (m *Match) deal() {
	for _, p := range m.Players {
		p.FaceDown = m.drawN(HandSize)
		p.FaceUp = m.drawN(HandSize)
		p.Hand = m.drawN(HandSize)
	}
	m.Dealt = true
	m.Phase = PhasePlaying
	m.Current = 0
}

func (m *Match) drawN(n int) []cards.Card {
	out := make([]cards.Card, 0, n)
	for len(out) < n {
		c, err := m.Deck.Draw()
		if err != nil {
			break
		}
		out = append(out, c)
	}
	return out
}

// Leave removes a seat. Leaving an unfinished dealt match abandons it.
func (m *Match) Leave(playerID string) ([]game.Event, error) {
	idx := m.indexOf(playerID)
	if idx < 0 {
		return nil, game.ErrUnknownPlayer
	}
	m.Players = append(m.Players[:idx], m.Players[idx+1:]...)
	if m.AwaitingBlind == playerID {
		m.AwaitingBlind = ""
	}
	if m.Current >= len(m.Players) {
		m.Current = 0
	}

	switch {
	case m.Phase == PhasePlaying:
		m.Phase = PhaseAbandoned
	case m.Phase == PhaseWaiting && len(m.Players) == 0:
		m.Phase = PhaseAbandoned
	}
	if len(m.Players) == 0 {
		return nil, nil
	}
	m.emit(game.Event{Kind: EventOpponentLeft, Payload: OpponentLeftPayload{PlayerID: playerID}})
	m.emit(snapshotEvent())
	return m.flush(), nil
}

// actor resolves the player allowed to act right now.
func (m *Match) actor(playerID string) (*Player, error) {
	idx := m.indexOf(playerID)
	if idx < 0 {
		return nil, game.ErrUnknownPlayer
	}
	if m.over() {
		return nil, game.ErrAlreadyFinished
	}
	if !m.Dealt {
		return nil, game.ErrNotStarted
	}
	if idx != m.Current {
		return nil, game.ErrNotYourTurn
	}
	return m.Players[idx], nil
}

func (m *Match) advance() {
	if len(m.Players) > 0 {
		m.Current = (m.Current + 1) % len(m.Players)
	}
}

func (m *Match) resetFlags() {
	m.RankCeiling = false
	m.RepeatTurn = false
}

// PlayCards melds the hand cards at indices onto the pile.
func (m *Match) PlayCards(playerID string, indices []int) ([]game.Event, error) {
	p, err := m.actor(playerID)
	if err != nil {
		return nil, err
	}
	if m.AwaitingBlind == p.ID {
		return nil, ErrBlindPlayRequired
	}
	meld, err := p.meld(indices)
	if err != nil {
		return nil, err
	}
	rank := meld[0].Rank
	if err := m.checkPlayable(rank); err != nil {
		if m.Policy != PolicySweep {
			return nil, err
		}
		m.pickUp(p, game.ReasonOf(err))
		return m.flush(), nil
	}

	p.removeFromHand(indices)
	m.Pile.Push(meld...)
	m.resolve(p, rank)
	return m.flush(), nil
}

// PlayBlindCard turns over one face-down card and plays it if it can.
func (m *Match) PlayBlindCard(playerID string, index int) ([]game.Event, error) {
	p, err := m.actor(playerID)
	if err != nil {
		return nil, err
	}
	if m.AwaitingBlind != p.ID && (len(p.Hand) > 0 || len(p.FaceUp) > 0) {
		return nil, ErrBlindPlayNotAllowed
	}
	c, err := p.takeFaceDown(index)
	if err != nil {
		return nil, err
	}
	m.AwaitingBlind = ""

	if err := m.checkPlayable(c.Rank); err != nil {
		swept := m.Pile.Take()
		p.Hand = append(p.Hand, c)
		p.Hand = append(p.Hand, swept...)
		m.resetFlags()
		m.advance()
		m.emit(game.Event{Kind: EventBlindMiss, Payload: BlindMissPayload{
			PlayerID: p.ID,
			Card:     c,
			Swept:    len(swept),
			Reason:   game.ReasonOf(err),
		}})
		m.emit(snapshotEvent())
		return m.flush(), nil
	}

	m.Pile.Push(c)
	m.resolve(p, c.Rank)
	return m.flush(), nil
}

// PickUpPile moves the whole pile into the player's hand and ends the turn.
func (m *Match) PickUpPile(playerID string) ([]game.Event, error) {
	p, err := m.actor(playerID)
	if err != nil {
		return nil, err
	}
	if m.AwaitingBlind == p.ID {
		return nil, ErrBlindPlayRequired
	}
	m.pickUp(p, "")
	return m.flush(), nil
}

func (m *Match) pickUp(p *Player, reason string) {
	taken := m.Pile.Take()
	p.Hand = append(p.Hand, taken...)
	m.resetFlags()
	m.advance()
	m.emit(game.Event{Kind: EventPilePickedUp, Payload: PilePickedUpPayload{
		PlayerID: p.ID,
		Count:    len(taken),
		Forced:   reason != "",
		Reason:   reason,
	}})
	m.emit(snapshotEvent())
}

// DrawCard takes one card from the deck while the hand is short. It does
// not end the turn.
func (m *Match) DrawCard(playerID string) ([]game.Event, error) {
	p, err := m.actor(playerID)
	if err != nil {
		return nil, err
	}
	if m.AwaitingBlind == p.ID {
		return nil, ErrBlindPlayRequired
	}
	if m.Deck.Empty() || len(p.Hand) >= HandSize {
		return nil, ErrNothingToDraw
	}
	c, err := m.Deck.Draw()
	if err != nil {
		return nil, fmt.Errorf("draw: %w", err)
	}
	p.Hand = append(p.Hand, c)
	m.emit(snapshotEvent())
	return m.flush(), nil
}

func (m *Match) PlayerIDs() []string {
	ids := make([]string, len(m.Players))
	for i, p := range m.Players {
		ids[i] = p.ID
	}
	return ids
}

func (m *Match) Started() bool {
	return m.Dealt
}

func (m *Match) IsOver() bool {
	return m.over()
}

// Results ranks the winner first. The loser's score is the number of cards
// still held. An abandoned match has no results.
func (m *Match) Results() []game.PlayerResult {
	if m.Phase != PhaseFinished {
		return nil
	}
	out := make([]game.PlayerResult, 0, len(m.Players))
	for _, p := range m.Players {
		if p.ID == m.Winner {
			out = append(out, game.PlayerResult{PlayerID: p.ID, Rank: 1})
		}
	}
	for _, p := range m.Players {
		if p.ID != m.Winner {
			out = append(out, game.PlayerResult{PlayerID: p.ID, Rank: 2, Score: p.CardCount()})
		}
	}
	return out
}

// CardsInPlay counts every card across deck, pile and all zones.
func (m *Match) CardsInPlay() int {
	n := m.Deck.Len() + m.Pile.Len()
	for _, p := range m.Players {
		n += p.CardCount()
	}
	return n
}

type matchJSON Match

func (m *Match) MarshalJSON() ([]byte, error) {
	return json.Marshal((*matchJSON)(m))
}

func (m *Match) UnmarshalJSON(data []byte) error {
	var aux matchJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Deck == nil {
		aux.Deck = cards.NewDeckFrom(nil)
	}
	if aux.Pile == nil {
		aux.Pile = Pile{}
	}
	if aux.Players == nil {
		aux.Players = []*Player{}
	}
	*m = Match(aux)
	return nil
}
