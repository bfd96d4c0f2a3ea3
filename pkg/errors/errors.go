package errors

import "errors"

// Action validation errors. These are rejected synchronously to the caller
// and never mutate table state.
var (
	ErrNotYourTurn             = errors.New("not your turn")
	ErrInvalidActionForPhase   = errors.New("action not allowed in current phase")
	ErrInvalidBid              = errors.New("invalid bid")
	ErrForbiddenBid            = errors.New("bid would make total equal round length")
	ErrCardNotInHand           = errors.New("card not in hand")
	ErrMustFollowSuit          = errors.New("must follow lead suit")
	ErrInvalidJokerDeclaration = errors.New("invalid joker declaration")
	ErrUnknownAction           = errors.New("unknown action type")
	ErrPlayerNotSeated         = errors.New("player not seated at table")
)

// Structural errors. Fatal to table creation: a table with a bad deck or
// schedule never reaches the waiting phase.
var (
	ErrInsufficientCards = errors.New("not enough cards in deck for requested deal")
	ErrInvalidSchedule   = errors.New("invalid pulka schedule")
	ErrInvalidSeatCount  = errors.New("invalid seat count")
)

// Table lifecycle errors.
var (
	ErrTableNotFound     = errors.New("table not found")
	ErrTableAccessDenied = errors.New("table access denied")
	ErrTableFinished     = errors.New("table already finished")
	ErrRuleSetNotFound   = errors.New("rule set not found")
	ErrRuleSetDisabled   = errors.New("rule set disabled")
	ErrGameNotFound      = errors.New("game record not found")
	ErrGameAlreadySaved  = errors.New("game already archived")
)

// Admin auth errors.
var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrAdminNotFound        = errors.New("admin not found")
	ErrInvalidAdminPassword = errors.New("invalid admin credentials")
	ErrAdminDisabled        = errors.New("admin account disabled")
)
