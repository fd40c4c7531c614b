package entity

import "errors"

// Domain errors returned by the economy and poll rules. Callers match them
// with errors.Is; the HTTP layer maps each one to a distinct status.
var (
	ErrInvalidFormat      = errors.New("invalid format")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not found")
	ErrDailyLimitReached  = errors.New("daily click limit reached for tap to earn")
	ErrInsufficientEnergy = errors.New("not enough energy to tap")
	ErrInsufficientFunds  = errors.New("insufficient points")
	ErrAlreadyVoted       = errors.New("already voted in this poll")
	ErrOptionNotFound     = errors.New("poll option not found")
	ErrBadRequest         = errors.New("bad request")
)
