package shed

import "shed/internal/game"

var (
	ErrMixedRankMeld        = &game.Rejection{Code: "mixedRankMeld", Message: "selected cards must all be the same rank"}
	ErrRankTooLowForPile    = &game.Rejection{Code: "rankTooLowForPile", Message: "must play the pile's rank or higher (2 and 10 are always playable); you may pick up the pile instead"}
	ErrRankCeilingViolation = &game.Rejection{Code: "rankCeilingViolation", Message: "after a 7 you must play 7 or lower (2 and 10 are always playable); you may pick up the pile instead"}
	ErrBlindPlayRequired    = &game.Rejection{Code: "blindPlayRequired", Message: "you must play one of your face-down cards"}
	ErrBlindPlayNotAllowed  = &game.Rejection{Code: "blindPlayNotAllowed", Message: "face-down cards are played only once hand and face-up cards are gone"}
	ErrNothingToDraw        = &game.Rejection{Code: "nothingToDraw", Message: "cannot draw: the draw pile is empty or your hand is full"}
)
