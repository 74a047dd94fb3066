package courier

import (
	"context"
	"log/slog"
	"reflect"
	"sync"

	"github.com/courierbus/courier-go/contracts"
	"github.com/courierbus/courier-go/messaging"
)

// Messenger is an in-process publish/subscribe bus. Recipients register
// handlers for concrete message types, optionally scoped to a channel token;
// a send resolves the matching registrations and invokes them on the caller's
// goroutine in registration order.
//
// Each messenger owns one registry and is fully isolated from every other
// messenger. The recipient lifecycle policy is fixed at construction:
// NewStrongReferenceMessenger and NewWeakReferenceMessenger are two
// configurations of the same type.
type Messenger struct {
	registry   *messaging.Registry
	dispatcher *messaging.Dispatcher
	policy     messaging.Policy
	logger     *slog.Logger
}

// NewStrongReferenceMessenger creates a messenger that keeps recipients alive
// until they are explicitly unregistered.
func NewStrongReferenceMessenger(options ...MessengerOption) *Messenger {
	return newMessenger(messaging.StrongRecipients, options...)
}

// NewWeakReferenceMessenger creates a messenger that never keeps recipients
// alive: once nothing else references a recipient, its registrations go dead
// and are purged on a later registry pass.
func NewWeakReferenceMessenger(options ...MessengerOption) *Messenger {
	return newMessenger(messaging.WeakRecipients, options...)
}

func newMessenger(policy messaging.Policy, options ...MessengerOption) *Messenger {
	cfg := &messengerConfig{
		logger: slog.Default(),
	}
	for _, opt := range options {
		opt(cfg)
	}

	registry := messaging.NewRegistry(messaging.WithRegistryLogger(cfg.logger))

	dispatcherOpts := []messaging.DispatcherOption{
		messaging.WithDispatcherLogger(cfg.logger),
	}
	if cfg.continueOnError {
		dispatcherOpts = append(dispatcherOpts, messaging.WithContinueOnError())
	}
	if len(cfg.interceptors) > 0 {
		dispatcherOpts = append(dispatcherOpts, messaging.WithInterceptors(cfg.interceptors...))
	}

	return &Messenger{
		registry:   registry,
		dispatcher: messaging.NewDispatcher(registry, dispatcherOpts...),
		policy:     policy,
		logger:     cfg.logger,
	}
}

var (
	defaultOnce      sync.Once
	defaultMessenger *Messenger
)

// Default returns the process-wide messenger, constructed lazily on first use
// with the strong lifecycle policy. It lives for the process duration; there
// is no teardown. It is the same type as explicitly constructed messengers,
// not a separate code path.
func Default() *Messenger {
	defaultOnce.Do(func() {
		defaultMessenger = NewStrongReferenceMessenger()
	})
	return defaultMessenger
}

// Policy returns the recipient lifecycle policy fixed at construction.
func (m *Messenger) Policy() messaging.Policy {
	return m.policy
}

// Send broadcasts msg to every handler registered for its concrete type on
// the selected channel, in registration order. Zero registered handlers is a
// valid, silent no-op. A handler error aborts the remaining handlers and
// surfaces to the caller unless the messenger was built with
// WithContinueOnError.
func (m *Messenger) Send(ctx context.Context, msg contracts.Message, options ...SendOption) error {
	cfg := newSendConfig(options)
	return m.dispatcher.Broadcast(ctx, msg, cfg.channel)
}

// RegisteredTypes returns the message types that currently have at least one
// live registration.
func (m *Messenger) RegisteredTypes() []reflect.Type {
	return m.registry.RegisteredTypes()
}

// EntryCount returns the number of live registrations.
func (m *Messenger) EntryCount() int {
	return m.registry.EntryCount()
}

// Reset removes every registration. Mainly useful for test isolation with the
// process-wide Default messenger.
func (m *Messenger) Reset() {
	m.registry.Reset()
}

// newRef wraps a recipient under the messenger's lifecycle policy.
func newRef[R any](m *Messenger, recipient *R) messaging.RecipientRef {
	if m.policy == messaging.WeakRecipients {
		return messaging.NewWeakRef(recipient)
	}
	return messaging.NewStrongRef(recipient)
}
