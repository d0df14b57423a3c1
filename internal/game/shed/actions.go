package shed

import (
	"encoding/json"
	"fmt"

	"shed/internal/game"
)

// Inbound action types.
const (
	ActionDrawCard        = "drawCard"
	ActionPlayCards       = "playCards"
	ActionPlayBlindCard   = "playBlindCard"
	ActionPickUpPile      = "pickUpPile"
	ActionRequestSnapshot = "requestSnapshot"
)

type PlayCardsPayload struct {
	Indices []int `json:"indices"`
}

type PlayBlindCardPayload struct {
	Index *int `json:"index"`
}

// ApplyAction decodes a wire action and dispatches it.
func (m *Match) ApplyAction(playerID string, action game.Action) ([]game.Event, error) {
	switch action.Type {
	case ActionDrawCard:
		return m.DrawCard(playerID)
	case ActionPickUpPile:
		return m.PickUpPile(playerID)
	case ActionPlayCards:
		var p PlayCardsPayload
		if err := decode(action.Payload, &p); err != nil {
			return nil, err
		}
		return m.PlayCards(playerID, p.Indices)
	case ActionPlayBlindCard:
		var p PlayBlindCardPayload
		if err := decode(action.Payload, &p); err != nil {
			return nil, err
		}
		if p.Index == nil {
			return nil, fmt.Errorf("%w: index is required", game.ErrBadPayload)
		}
		return m.PlayBlindCard(playerID, *p.Index)
	case ActionRequestSnapshot:
		if m.player(playerID) == nil {
			return nil, game.ErrUnknownPlayer
		}
		return []game.Event{snapshotEvent().To(playerID)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", game.ErrUnknownAction, action.Type)
	}
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing payload", game.ErrBadPayload)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", game.ErrBadPayload, err)
	}
	return nil
}
