package service

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map these to HTTP status codes.
var (
	ErrMissingInput = errors.New("missing input")
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrUpstream     = errors.New("upstream failure")
)

var (
	ErrAgentNotFound        = fmt.Errorf("agent %w", ErrNotFound)
	ErrArtifactNotFound     = fmt.Errorf("artifact %w", ErrNotFound)
	ErrConversationNotFound = fmt.Errorf("conversation %w", ErrNotFound)
	ErrSequenceNotFound     = fmt.Errorf("sequence %w", ErrNotFound)

	ErrInvalidAgentType    = fmt.Errorf("%w: unsupported agent type", ErrInvalidInput)
	ErrInvalidStatusState  = fmt.Errorf("%w: unsupported status state", ErrInvalidInput)
	ErrInvalidReviewStatus = fmt.Errorf("%w: review status must be accepted or rejected", ErrInvalidInput)
	ErrStatusIDTaken       = fmt.Errorf("%w: status_id belongs to another agent", ErrInvalidInput)
	ErrAIBotNotConfigured  = fmt.Errorf("%w: AI bot server url or token not configured", ErrUpstream)
)

func missing(field string) error {
	return fmt.Errorf("%w: %s is required", ErrMissingInput, field)
}

func invalid(field string) error {
	return fmt.Errorf("%w: %s is malformed", ErrInvalidInput, field)
}
