package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/courierbus/courier-go/contracts"
)

// Handler is invoked with the resolved recipient and the message during
// dispatch.
type Handler interface {
	Handle(ctx context.Context, recipient any, msg contracts.Message) error
}

// HandlerFunc is a function adapter for Handler
type HandlerFunc func(ctx context.Context, recipient any, msg contracts.Message) error

// Handle implements Handler
func (f HandlerFunc) Handle(ctx context.Context, recipient any, msg contracts.Message) error {
	return f(ctx, recipient, msg)
}

type defaultChannel struct{}

func (defaultChannel) String() string { return "default" }

// DefaultChannel is the channel identity of registrations made without an
// explicit token. It is a distinct channel: a token-scoped registration never
// receives a default-channel send and vice versa.
var DefaultChannel any = defaultChannel{}

type anyChannel struct{}

func (anyChannel) String() string { return "any" }

// AnyChannel matches every channel when filtering an unregistration. It is
// never a valid registration or send channel.
var AnyChannel any = anyChannel{}

// registryKey addresses one ordered bucket of registrations.
type registryKey struct {
	messageType reflect.Type
	channel     any
}

type registryEntry struct {
	ref     RecipientRef
	handler Handler
}

// Entry is one element of a registry snapshot.
type Entry struct {
	Ref     RecipientRef
	Handler Handler
}

// Registry maps (message type, channel token) to an ordered list of
// (recipient, handler) registrations. All mutations and reads are serialized
// by one mutex per registry; handler code never runs while it is held.
// Dead weak recipients are purged lazily whenever their bucket is touched.
type Registry struct {
	mu      sync.Mutex
	entries map[registryKey][]registryEntry
	logger  *slog.Logger
}

// RegistryOption configures the Registry
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates an empty registry
func NewRegistry(options ...RegistryOption) *Registry {
	r := &Registry{
		entries: make(map[registryKey][]registryEntry),
		logger:  slog.Default(),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Register adds a registration for (messageType, channel, recipient). The
// triple must be unique among live entries; a second handler for the same
// triple is rejected with ErrDuplicateRegistration until the first is
// unregistered or its weak recipient dies.
func (r *Registry) Register(ref RecipientRef, messageType reflect.Type, channel any, handler Handler) error {
	if ref == nil {
		return fmt.Errorf("recipient ref cannot be nil")
	}
	if messageType == nil {
		return fmt.Errorf("message type cannot be nil")
	}
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	key := registryKey{messageType: messageType, channel: channel}

	r.mu.Lock()
	defer r.mu.Unlock()

	bucket := purgeDead(r.entries[key])
	for _, e := range bucket {
		if e.ref.Key() == ref.Key() {
			r.entries[key] = bucket
			return &contracts.RegistrationError{
				MessageType: messageType.Name(),
				Channel:     channel,
				Err:         contracts.ErrDuplicateRegistration,
			}
		}
	}

	r.entries[key] = append(bucket, registryEntry{ref: ref, handler: handler})

	r.logger.Debug("registered handler",
		"messageType", messageType.Name(),
		"channel", channel,
	)
	return nil
}

// Unregister removes every registration matching the recipient key and the
// given filters. A nil messageType matches all types; AnyChannel matches all
// channels. Removing something that is not registered is a no-op.
func (r *Registry) Unregister(recipientKey any, messageType reflect.Type, channel any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, bucket := range r.entries {
		if messageType != nil && key.messageType != messageType {
			continue
		}
		if channel != AnyChannel && key.channel != channel {
			continue
		}
		live := bucket[:0]
		for _, e := range bucket {
			if !e.ref.Alive() || e.ref.Key() == recipientKey {
				continue
			}
			live = append(live, e)
		}
		if len(live) == 0 {
			delete(r.entries, key)
		} else {
			r.entries[key] = live
		}
	}
}

// IsRegistered reports whether a live registration exists for the exact
// (recipient, messageType, channel) triple.
func (r *Registry) IsRegistered(recipientKey any, messageType reflect.Type, channel any) bool {
	key := registryKey{messageType: messageType, channel: channel}

	r.mu.Lock()
	defer r.mu.Unlock()

	bucket := purgeDead(r.entries[key])
	if len(bucket) == 0 {
		delete(r.entries, key)
	} else {
		r.entries[key] = bucket
	}

	for _, e := range bucket {
		if e.ref.Key() == recipientKey {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the live registrations for (messageType,
// channel) in registration order. Dead weak entries are physically purged as
// a side effect. The dispatcher only ever observes the registry through this
// call, so handlers are free to mutate the registry during their own
// invocation without affecting the in-flight send.
func (r *Registry) Snapshot(messageType reflect.Type, channel any) []Entry {
	key := registryKey{messageType: messageType, channel: channel}

	r.mu.Lock()
	defer r.mu.Unlock()

	bucket := purgeDead(r.entries[key])
	if len(bucket) == 0 {
		delete(r.entries, key)
		return nil
	}
	r.entries[key] = bucket

	snapshot := make([]Entry, len(bucket))
	for i, e := range bucket {
		snapshot[i] = Entry{Ref: e.ref, Handler: e.handler}
	}
	return snapshot
}

// RegisteredTypes returns the distinct message types that currently have at
// least one live registration on any channel.
func (r *Registry) RegisteredTypes() []reflect.Type {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[reflect.Type]bool)
	types := make([]reflect.Type, 0, len(r.entries))
	for key, bucket := range r.entries {
		if seen[key.messageType] {
			continue
		}
		for _, e := range bucket {
			if e.ref.Alive() {
				seen[key.messageType] = true
				types = append(types, key.messageType)
				break
			}
		}
	}
	return types
}

// EntryCount returns the number of live registrations across all buckets.
func (r *Registry) EntryCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for key, bucket := range r.entries {
		bucket = purgeDead(bucket)
		if len(bucket) == 0 {
			delete(r.entries, key)
			continue
		}
		r.entries[key] = bucket
		count += len(bucket)
	}
	return count
}

// Reset removes every registration.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[registryKey][]registryEntry)
}

// purgeDead compacts a bucket in place, keeping only live entries in order.
func purgeDead(bucket []registryEntry) []registryEntry {
	live := bucket[:0]
	for _, e := range bucket {
		if e.ref.Alive() {
			live = append(live, e)
		}
	}
	return live
}
