package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/courierbus/courier-go/contracts"
	"github.com/courierbus/courier-go/interceptors"
)

// Dispatcher resolves a message's registry snapshot and invokes the matching
// handlers on the caller's goroutine, in registration order, outside the
// registry lock. It owns no goroutines of its own: asynchronous behavior only
// comes from work the handlers start themselves.
type Dispatcher struct {
	registry        *Registry
	logger          *slog.Logger
	chain           *interceptors.InterceptorChain
	continueOnError bool
}

// DispatcherOption configures the Dispatcher
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger sets the logger
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithContinueOnError makes broadcast dispatch run every handler in the
// snapshot and return the joined errors, instead of aborting at the first
// failure. Request dispatch is always fail-fast: a failed handler cannot be
// distinguished from a missing responder once the snapshot is abandoned.
func WithContinueOnError() DispatcherOption {
	return func(d *Dispatcher) {
		d.continueOnError = true
	}
}

// WithInterceptors installs an interceptor chain wrapped around every handler
// invocation.
func WithInterceptors(chain ...interceptors.Interceptor) DispatcherOption {
	return func(d *Dispatcher) {
		if d.chain == nil {
			d.chain = interceptors.NewInterceptorChain(d.logger)
		}
		for _, i := range chain {
			d.chain.Add(i)
		}
	}
}

// NewDispatcher creates a dispatcher over the given registry
func NewDispatcher(registry *Registry, options ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

// MessageTypeOf returns the dispatch key of a message: its concrete type with
// pointers dereferenced, so *RenameEvent and RenameEvent key identically.
func MessageTypeOf(msg contracts.Message) reflect.Type {
	t := reflect.TypeOf(msg)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// Broadcast delivers msg to every live handler registered for its type on the
// given channel, in registration order. Zero matches is valid and silent. The
// default policy is fail-fast: the first handler error aborts the remaining
// handlers in the snapshot and surfaces to the sender.
//
// Collection requests take this same path; their handlers append to the
// message's accumulator instead of returning values.
func (d *Dispatcher) Broadcast(ctx context.Context, msg contracts.Message, channel any) error {
	if msg == nil {
		return fmt.Errorf("message cannot be nil")
	}

	msgType := MessageTypeOf(msg)
	snapshot := d.registry.Snapshot(msgType, channel)

	var errs []error
	for _, entry := range snapshot {
		if err := d.invoke(ctx, entry, msg); err != nil {
			wrapped := d.dispatchError(msg, channel, err)
			if !d.continueOnError {
				return wrapped
			}
			errs = append(errs, wrapped)
		}
	}

	d.logger.Debug("message dispatched",
		"messageType", msgType.Name(),
		"messageId", msg.GetID(),
		"channel", channel,
		"handlerCount", len(snapshot),
	)
	return errors.Join(errs...)
}

// Request delivers a request synchronously. The first handler to write the
// reply slot decides the response and ends the dispatch; remaining snapshot
// entries are not invoked. If the snapshot is empty, or every handler returns
// without replying, the slot is failed and ErrNoRegisteredHandler surfaces.
func (d *Dispatcher) Request(ctx context.Context, req contracts.RequestMessage, channel any) error {
	return d.dispatchRequest(ctx, req, channel, true)
}

// RequestAsync delivers a request whose reply may be written after the
// responding handler returns. It fails immediately with ErrNoRegisteredHandler
// when the snapshot is empty; otherwise the slot is left pending for the
// handler's asynchronous work and the caller waits on the request's future.
func (d *Dispatcher) RequestAsync(ctx context.Context, req contracts.RequestMessage, channel any) error {
	return d.dispatchRequest(ctx, req, channel, false)
}

func (d *Dispatcher) dispatchRequest(ctx context.Context, req contracts.RequestMessage, channel any, failIfUnreplied bool) error {
	if req == nil {
		return fmt.Errorf("request cannot be nil")
	}

	snapshot := d.registry.Snapshot(MessageTypeOf(req), channel)
	if len(snapshot) == 0 {
		req.Fail(contracts.ErrNoRegisteredHandler)
		return d.dispatchError(req, channel, contracts.ErrNoRegisteredHandler)
	}

	for _, entry := range snapshot {
		if err := d.invoke(ctx, entry, req); err != nil {
			wrapped := d.dispatchError(req, channel, err)
			// Unblock anyone already waiting on the future.
			req.Fail(wrapped)
			return wrapped
		}
		if req.State() != contracts.ReplyStatePending {
			// Only one response is meaningful; skip the rest of the snapshot.
			return nil
		}
	}

	if failIfUnreplied {
		req.Fail(contracts.ErrNoRegisteredHandler)
		return d.dispatchError(req, channel, contracts.ErrNoRegisteredHandler)
	}
	return nil
}

// invoke resolves the entry's recipient and runs its handler, through the
// interceptor chain when one is installed. An entry whose weak recipient died
// after the snapshot was taken is silently skipped.
func (d *Dispatcher) invoke(ctx context.Context, entry Entry, msg contracts.Message) error {
	recipient, ok := entry.Ref.Value()
	if !ok {
		return nil
	}
	if d.chain == nil {
		return entry.Handler.Handle(ctx, recipient, msg)
	}
	final := interceptors.MessageHandlerFunc(func(ctx context.Context, m contracts.Message) error {
		return entry.Handler.Handle(ctx, recipient, m)
	})
	return d.chain.Execute(ctx, msg, final)
}

func (d *Dispatcher) dispatchError(msg contracts.Message, channel any, err error) error {
	d.logger.Error("dispatch failed",
		"messageType", msg.GetType(),
		"messageId", msg.GetID(),
		"channel", channel,
		"error", err,
	)
	return &contracts.DispatchError{
		MessageType: msg.GetType(),
		MessageID:   msg.GetID(),
		Channel:     channel,
		Err:         err,
	}
}
