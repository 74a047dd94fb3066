package courier

import (
	"context"

	"github.com/courierbus/courier-go/contracts"
)

// Request sends a request message and returns the single response
// synchronously. Handlers run in registration order; the first one to write
// the reply slot decides the response and ends the dispatch. If no handler is
// registered, or every handler returns without replying, the call fails with
// contracts.ErrNoRegisteredHandler: a request without exactly one producer is
// a programming error, not a silent default.
func Request[T any](ctx context.Context, m *Messenger, req contracts.Request[T], options ...SendOption) (T, error) {
	cfg := newSendConfig(options)
	if err := m.dispatcher.Request(ctx, req, cfg.channel); err != nil {
		var zero T
		return zero, err
	}
	return req.Response()
}

// RequestAsync sends a request whose reply may be written after the
// responding handler returns, from work the handler started itself. The
// returned future resolves when the slot is written; abandoning it does not
// cancel the in-flight handler. Only an empty snapshot fails immediately with
// contracts.ErrNoRegisteredHandler.
func RequestAsync[T any](ctx context.Context, m *Messenger, req contracts.Request[T], options ...SendOption) (*contracts.Future[T], error) {
	cfg := newSendConfig(options)
	if err := m.dispatcher.RequestAsync(ctx, req, cfg.channel); err != nil {
		return nil, err
	}
	return req.Future(), nil
}

// Collect sends a collection request and returns the values appended by the
// handlers, in invocation order, once every handler in the snapshot has run.
// Zero handlers yields an empty sequence, not an error.
func Collect[T any](ctx context.Context, m *Messenger, req contracts.CollectionRequest[T], options ...SendOption) ([]T, error) {
	cfg := newSendConfig(options)
	if err := m.dispatcher.Broadcast(ctx, req, cfg.channel); err != nil {
		return nil, err
	}
	return req.Responses(), nil
}

// CollectAsync sends a collection request whose handlers may append values
// from their own asynchronous work, registered through the request's Track.
// The returned future resolves once every tracked task completes.
func CollectAsync[T any](ctx context.Context, m *Messenger, req contracts.CollectionRequest[T], options ...SendOption) (*contracts.CollectionFuture[T], error) {
	cfg := newSendConfig(options)
	if err := m.dispatcher.Broadcast(ctx, req, cfg.channel); err != nil {
		return nil, err
	}
	return contracts.NewCollectionFuture(req), nil
}
