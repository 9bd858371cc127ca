package event

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedEventType = errors.New("unsupported event type")

	ErrMissingProject      = errors.New("missing project id")
	ErrMissingIssue        = errors.New("missing issue iid")
	ErrMissingMergeRequest = errors.New("missing merge request iid")
	ErrMissingComment      = errors.New("missing comment body")
	ErrMissingAction       = errors.New("missing lifecycle action")
)

// ParseError is a parse failure with the event type it occurred for.
type ParseError struct {
	EventType string
	Err       error
}

func (e *ParseError) Error() string {
	if e.EventType != "" {
		return fmt.Sprintf("event parse failed for type %s: %v", e.EventType, e.Err)
	}
	return fmt.Sprintf("event parse failed: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseError(eventType string, err error) error {
	return &ParseError{EventType: eventType, Err: err}
}
