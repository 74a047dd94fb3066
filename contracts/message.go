package contracts

import (
	"context"
	"time"
)

// Message is the base interface for everything that can be sent through a
// messenger. The concrete type of a message is its dispatch key: handlers
// registered for that type (and channel token) receive it, nobody else does.
type Message interface {
	GetID() string
	GetTimestamp() time.Time
	GetType() string
	GetCorrelationID() string
	SetCorrelationID(correlationID string)
}

// RequestMessage is the untyped view of a request the dispatcher works with.
// Callers use the typed Request interface instead.
type RequestMessage interface {
	Message
	State() ReplyState
	Fail(err error) bool
}

// Request is a message carrying a single-assignment reply slot for a response
// of type T. Concrete request types embed BaseRequest[T].
type Request[T any] interface {
	Message
	Reply(value T) error
	Response() (T, error)
	Future() *Future[T]
	State() ReplyState
	Fail(err error) bool
}

// CollectionRequest is a message that aggregates zero or more responses of
// type T from every handler that sees it. Concrete types embed
// BaseCollectionRequest[T].
type CollectionRequest[T any] interface {
	Message
	AddResponse(value T)
	Responses() []T
	Track() func()
	Join(ctx context.Context) error
}
