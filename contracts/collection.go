package contracts

import (
	"context"
	"sync"
)

// collectionState holds the accumulator and task tracker shared by copies of a
// BaseCollectionRequest.
type collectionState[T any] struct {
	mu        sync.Mutex
	responses []T
	tasks     sync.WaitGroup
	joinOnce  sync.Once
	joined    chan struct{}
}

// BaseCollectionRequest provides common fields and the response accumulator
// for collection request messages. Every handler may append zero or more
// values; the final sequence preserves append order.
type BaseCollectionRequest[T any] struct {
	BaseMessage
	state *collectionState[T]
}

// NewBaseCollectionRequest creates a collection request base with generated ID,
// current timestamp, and an empty accumulator.
func NewBaseCollectionRequest[T any](messageType string) BaseCollectionRequest[T] {
	return BaseCollectionRequest[T]{
		BaseMessage: NewBaseMessage(messageType),
		state:       &collectionState[T]{joined: make(chan struct{})},
	}
}

// AddResponse appends a value to the result sequence. Safe for concurrent use
// by handlers doing asynchronous work.
func (r BaseCollectionRequest[T]) AddResponse(value T) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	r.state.responses = append(r.state.responses, value)
}

// Responses returns a copy of the values accumulated so far.
func (r BaseCollectionRequest[T]) Responses() []T {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	out := make([]T, len(r.state.responses))
	copy(out, r.state.responses)
	return out
}

// Track registers asynchronous handler work with the request. The handler
// calls Track before starting a goroutine and the returned function when the
// goroutine finishes; an asynchronous collect only resolves after every
// tracked task is done.
func (r BaseCollectionRequest[T]) Track() func() {
	r.state.tasks.Add(1)
	return r.state.tasks.Done
}

// Join blocks until all tracked tasks complete or ctx is done. Handlers must
// not call Track after dispatch has finished.
func (r BaseCollectionRequest[T]) Join(ctx context.Context) error {
	r.state.joinOnce.Do(func() {
		go func() {
			r.state.tasks.Wait()
			close(r.state.joined)
		}()
	})
	select {
	case <-r.state.joined:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CollectionFuture resolves to a collection request's ordered responses once
// all tracked handler work completes.
type CollectionFuture[T any] struct {
	req CollectionRequest[T]
}

// NewCollectionFuture wraps a dispatched collection request in a future.
func NewCollectionFuture[T any](req CollectionRequest[T]) *CollectionFuture[T] {
	return &CollectionFuture[T]{req: req}
}

// Wait blocks until every tracked handler task finishes, then returns the
// accumulated responses in append order.
func (f *CollectionFuture[T]) Wait(ctx context.Context) ([]T, error) {
	if err := f.req.Join(ctx); err != nil {
		return nil, err
	}
	return f.req.Responses(), nil
}
