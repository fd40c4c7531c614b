package application

import (
	"errors"
	"fmt"

	"github.com/oksasatya/tapvote/internal/domain/entity"
)

// ErrStorage marks transient storage failures (connectivity, driver errors)
// so callers can tell "try again" apart from "your request was invalid".
var ErrStorage = errors.New("storage unavailable")

var domainErrors = []error{
	entity.ErrInvalidFormat,
	entity.ErrConflict,
	entity.ErrNotFound,
	entity.ErrDailyLimitReached,
	entity.ErrInsufficientEnergy,
	entity.ErrInsufficientFunds,
	entity.ErrAlreadyVoted,
	entity.ErrOptionNotFound,
	entity.ErrBadRequest,
}

// IsDomainError reports whether err carries one of the entity sentinels.
func IsDomainError(err error) bool {
	for _, d := range domainErrors {
		if errors.Is(err, d) {
			return true
		}
	}
	return false
}

// classify passes domain errors through and wraps anything else as ErrStorage.
func classify(err error) error {
	if err == nil || IsDomainError(err) || errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStorage, err)
}

// subject prefixes lookup misses with the record kind, e.g. "user not found".
func subject(what string, err error) error {
	if errors.Is(err, entity.ErrNotFound) {
		return fmt.Errorf("%s %w", what, err)
	}
	return err
}
