package contracts

import (
	"context"
	"sync/atomic"
)

// ReplyState describes where a request's reply slot is in its lifecycle.
// The only transitions are Pending -> Replied and Pending -> Failed; both are
// terminal. There is no cancelled state: a request always resolves or fails.
type ReplyState int32

const (
	// ReplyStatePending means no handler has written the slot yet.
	ReplyStatePending ReplyState = iota
	// replyStateClaimed is the transient state while a writer publishes its
	// value. Never observable through State().
	replyStateClaimed
	// ReplyStateReplied means exactly one handler wrote a response.
	ReplyStateReplied
	// ReplyStateFailed means dispatch completed without any handler replying.
	ReplyStateFailed
)

// String returns a human-readable state name.
func (s ReplyState) String() string {
	switch s {
	case ReplyStatePending:
		return "pending"
	case ReplyStateReplied:
		return "replied"
	case ReplyStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ReplySlot is a single-assignment container for a response of type T.
// The transition out of pending is an atomic compare-and-set, so concurrent
// writers race safely: exactly one wins, the rest get ErrAlreadyReplied.
//
// A ReplySlot must be created through NewBaseRequest and must not be copied
// after first use.
type ReplySlot[T any] struct {
	state atomic.Int32
	value T
	err   error
	done  chan struct{}
}

// Reply writes the response value. The first call wins; every later call,
// from any goroutine, returns ErrAlreadyReplied and leaves the slot untouched.
func (s *ReplySlot[T]) Reply(value T) error {
	if !s.state.CompareAndSwap(int32(ReplyStatePending), int32(replyStateClaimed)) {
		return ErrAlreadyReplied
	}
	s.value = value
	s.state.Store(int32(ReplyStateReplied))
	close(s.done)
	return nil
}

// Fail moves the slot from pending to failed. Used by the dispatcher when a
// send completes without any handler replying. Returns false if the slot was
// already settled.
func (s *ReplySlot[T]) Fail(err error) bool {
	if !s.state.CompareAndSwap(int32(ReplyStatePending), int32(replyStateClaimed)) {
		return false
	}
	s.err = err
	s.state.Store(int32(ReplyStateFailed))
	close(s.done)
	return true
}

// State reports the externally visible slot state. A concurrent writer that
// has claimed the slot but not yet published still reads as pending.
func (s *ReplySlot[T]) State() ReplyState {
	st := ReplyState(s.state.Load())
	if st == replyStateClaimed {
		return ReplyStatePending
	}
	return st
}

// Response returns the reply value once the slot is settled. A pending slot
// returns ErrNotReplied; a failed slot returns the failure error.
func (s *ReplySlot[T]) Response() (T, error) {
	var zero T
	select {
	case <-s.done:
	default:
		return zero, ErrNotReplied
	}
	if ReplyState(s.state.Load()) == ReplyStateFailed {
		return zero, s.err
	}
	return s.value, nil
}

// Future returns a future resolving when the slot is settled.
func (s *ReplySlot[T]) Future() *Future[T] {
	return &Future[T]{slot: s}
}

// Future resolves to a request's response once its reply slot is written,
// possibly after the responding handler's own asynchronous work completes.
// Abandoning a future does not cancel the in-flight handler.
type Future[T any] struct {
	slot *ReplySlot[T]
}

// Wait blocks until the reply slot settles or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.slot.done:
		return f.slot.Response()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done returns a channel closed when the reply slot settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.slot.done
}

// TryResult returns the response without blocking. ok is false while the slot
// is still pending.
func (f *Future[T]) TryResult() (value T, err error, ok bool) {
	select {
	case <-f.slot.done:
		value, err = f.slot.Response()
		return value, err, true
	default:
		return value, nil, false
	}
}

// BaseRequest provides common fields and the reply slot for request messages.
// Concrete request types embed it and are sent by pointer:
//
//	type RenameRequest struct {
//		contracts.BaseRequest[string]
//		OldName string
//	}
//
//	req := &RenameRequest{BaseRequest: contracts.NewBaseRequest[string]("RenameRequest"), OldName: "a"}
type BaseRequest[T any] struct {
	BaseMessage
	*ReplySlot[T]
}

// NewBaseRequest creates a request base with generated ID, current timestamp,
// and a pending reply slot. Requests not built through it have no slot and
// cannot be sent.
func NewBaseRequest[T any](messageType string) BaseRequest[T] {
	return BaseRequest[T]{
		BaseMessage: NewBaseMessage(messageType),
		ReplySlot:   &ReplySlot[T]{done: make(chan struct{})},
	}
}
