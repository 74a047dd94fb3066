package courier

import (
	"context"
	"fmt"

	"github.com/courierbus/courier-go/contracts"
	"github.com/courierbus/courier-go/messaging"
)

// Register subscribes recipient to messages of type T on the selected
// channel. The handler is invoked with the recipient and the message, on
// whatever goroutine performs the send.
//
// The (message type, channel, recipient) triple must be unique: registering
// it twice without an intervening Unregister fails with
// contracts.ErrDuplicateRegistration and leaves the registry unchanged.
// Replacing a handler is remove-then-add.
//
//	courier.Register(m, inbox, func(ctx context.Context, r *Inbox, msg *UserRenamed) error {
//		r.Add(msg.NewName)
//		return nil
//	})
func Register[R any, T contracts.Message](m *Messenger, recipient *R, handler func(ctx context.Context, recipient *R, msg T) error, options ...RegisterOption) error {
	if recipient == nil {
		return fmt.Errorf("recipient cannot be nil")
	}
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	cfg := newRegisterConfig(options)

	h := messaging.HandlerFunc(func(ctx context.Context, rec any, msg contracts.Message) error {
		r, ok := rec.(*R)
		if !ok {
			return fmt.Errorf("unexpected recipient type %T", rec)
		}
		typed, ok := msg.(T)
		if !ok {
			return fmt.Errorf("unexpected message type %T for handler of %s", msg, messageTypeFor[T]().Name())
		}
		return handler(ctx, r, typed)
	})

	return m.registry.Register(newRef(m, recipient), messageTypeFor[T](), cfg.channel, h)
}

// Unregister removes the recipient's registrations matching the given
// filters. With no options every registration of the recipient is removed;
// OfType and OnChannel narrow the match. Unregistering something that is not
// registered is a no-op.
func Unregister[R any](m *Messenger, recipient *R, options ...UnregisterOption) {
	if recipient == nil {
		return
	}
	cfg := newUnregisterConfig(options)
	m.registry.Unregister(newRef(m, recipient).Key(), cfg.messageType, cfg.channel)
}

// IsRegistered reports whether recipient has a live registration for message
// type T on the selected channel. Under the weak lifecycle policy a collected
// recipient reports false.
func IsRegistered[T contracts.Message, R any](m *Messenger, recipient *R, options ...RegisterOption) bool {
	if recipient == nil {
		return false
	}
	cfg := newRegisterConfig(options)
	return m.registry.IsRegistered(newRef(m, recipient).Key(), messageTypeFor[T](), cfg.channel)
}
