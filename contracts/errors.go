package contracts

import (
	"errors"
	"fmt"
)

var (
	// Registration errors
	ErrDuplicateRegistration = errors.New("registry: recipient already registered for this message type and channel")

	// Request errors
	ErrNoRegisteredHandler = errors.New("request: no registered handler produced a reply")
	ErrAlreadyReplied      = errors.New("request: reply slot already written")
	ErrNotReplied          = errors.New("request: reply slot not yet written")
)

// RegistrationError carries the registry key that caused a registration
// failure.
type RegistrationError struct {
	MessageType string
	Channel     any
	Err         error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register %s on channel %v: %v", e.MessageType, e.Channel, e.Err)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// DispatchError wraps an error raised inside a handler during a send.
// Dispatch for the remaining handlers in that send is aborted, so the sender
// sees exactly the first failure.
type DispatchError struct {
	MessageType string
	MessageID   string
	Channel     any
	Err         error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s (id=%s) on channel %v: %v", e.MessageType, e.MessageID, e.Channel, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
