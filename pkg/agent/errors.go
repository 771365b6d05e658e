package agent

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when the utterance has no content.
	ErrEmptyInput = errors.New("utterance is empty")
	// ErrTurnLimitExceeded is returned in strict mode when no answer is reached
	// within the turn budget.
	ErrTurnLimitExceeded = errors.New("turn limit exceeded without an answer")
)

// UnknownActionError reports a directive naming a tool that is not registered.
type UnknownActionError struct {
	Name     string
	Argument string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action: %s: %s", e.Name, e.Argument)
}
