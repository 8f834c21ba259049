package game

import (
	"errors"

	"akiclient/lib/gamedata"
)

var (
	ErrNotStarted     = errors.New("session has not started")
	ErrAlreadyStarted = errors.New("session has already started")
	// ErrCantGoBackAnyFurther is returned by Back on the first question.
	ErrCantGoBackAnyFurther = errors.New("already at the first question")
	// ErrSessionExpired is the service declaring the session timed out,
	// the session cannot be used afterwards.
	ErrSessionExpired = errors.New("the session has timed out")
)

func invalidChoice(input, reason string) error {
	return &gamedata.InvalidChoiceError{Input: input, Reason: reason}
}
