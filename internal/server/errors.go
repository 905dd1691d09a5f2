package server

import "fmt"

// Error codes carried on GAME_ERROR events. Stable across releases; clients
// key UI messages off them.
const (
	errNotYourTurn         = "notYourTurn"
	errNoRollsRemaining    = "noRollsRemaining"
	errCategoryScored      = "categoryScored"
	errRoomFull            = "roomFull"
	errInvalidRoomCode     = "invalidRoomCode"
	errNotHost             = "notHost"
	errRoomNotJoinable     = "roomNotJoinable"
	errInvalidCommand      = "invalidCommand"
	errSpectatorsForbidden = "spectatorsForbidden"
	errNotEnoughPlayers    = "notEnoughPlayers"
	errRollRequired        = "rollRequired"
	errInternal            = "internalError"
)

// roomError is a recoverable validation failure. It is reported privately to
// the offending sender and never mutates room state.
type roomError struct {
	Code    string
	Message string
}

func (e *roomError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newRoomError(code, message string) *roomError {
	return &roomError{Code: code, Message: message}
}
