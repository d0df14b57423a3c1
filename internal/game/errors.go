package game

import "errors"

// Rejection is a rule violation. The match state is unchanged when one is
// returned, and Code is what the offending client receives.
type Rejection struct {
	Code    string
	Message string
}

func (r *Rejection) Error() string {
	return r.Message
}

func reject(code, msg string) *Rejection {
	return &Rejection{Code: code, Message: msg}
}

var (
	ErrMatchFull        = reject("matchFull", "match is full")
	ErrMatchNotFound    = reject("matchNotFound", "match not found")
	ErrAlreadyFinished  = reject("alreadyFinished", "match is already over")
	ErrNotStarted       = reject("notStarted", "waiting for an opponent")
	ErrUnknownPlayer    = reject("unknownPlayer", "player is not seated in this match")
	ErrUnknownAction    = reject("unknownAction", "unknown action")
	ErrBadPayload       = reject("badPayload", "malformed action payload")
	ErrNotYourTurn      = reject("notYourTurn", "not your turn")
	ErrInvalidCardIndex = reject("invalidCardIndex", "invalid card index")
)

// ReasonOf returns the wire code for err, or "internal" when err is not a
// Rejection.
func ReasonOf(err error) string {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Code
	}
	return "internal"
}

// IsRejection reports whether err is a rule violation rather than a fault.
func IsRejection(err error) bool {
	var r *Rejection
	return errors.As(err, &r)
}
