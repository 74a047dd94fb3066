package courier

import (
	"log/slog"
	"reflect"

	"github.com/courierbus/courier-go/contracts"
	"github.com/courierbus/courier-go/interceptors"
	"github.com/courierbus/courier-go/messaging"
)

// messengerConfig holds construction-time configuration
type messengerConfig struct {
	logger          *slog.Logger
	continueOnError bool
	interceptors    []interceptors.Interceptor
}

// MessengerOption configures a messenger at construction
type MessengerOption func(*messengerConfig)

// WithLogger sets the logger used by the registry and dispatcher
func WithLogger(logger *slog.Logger) MessengerOption {
	return func(c *messengerConfig) {
		c.logger = logger
	}
}

// WithContinueOnError makes broadcast sends run every handler and return the
// joined errors instead of aborting at the first failure. The default is
// fail-fast.
func WithContinueOnError() MessengerOption {
	return func(c *messengerConfig) {
		c.continueOnError = true
	}
}

// WithInterceptors installs an interceptor chain wrapped around every handler
// invocation, outermost first.
func WithInterceptors(chain ...interceptors.Interceptor) MessengerOption {
	return func(c *messengerConfig) {
		c.interceptors = append(c.interceptors, chain...)
	}
}

type registerConfig struct {
	channel any
}

type unregisterConfig struct {
	channel     any
	messageType reflect.Type
}

type sendConfig struct {
	channel any
}

// RegisterOption configures a registration or an IsRegistered query
type RegisterOption interface {
	applyRegister(*registerConfig)
}

// UnregisterOption narrows an unregistration; omitted filters mean "all"
type UnregisterOption interface {
	applyUnregister(*unregisterConfig)
}

// SendOption configures a send
type SendOption interface {
	applySend(*sendConfig)
}

// ChannelOption scopes an operation to one channel token. It satisfies
// RegisterOption, UnregisterOption, and SendOption.
type ChannelOption struct {
	token any
}

// OnChannel scopes the operation to the given channel token. Tokens are
// compared by equality and must be comparable values. Registrations and sends
// without OnChannel use the default channel, which is itself a distinct
// channel identity: token-scoped and default-channel registrations never
// cross-deliver.
func OnChannel(token any) ChannelOption {
	return ChannelOption{token: token}
}

func (o ChannelOption) applyRegister(c *registerConfig)     { c.channel = o.token }
func (o ChannelOption) applyUnregister(c *unregisterConfig) { c.channel = o.token }
func (o ChannelOption) applySend(c *sendConfig)             { c.channel = o.token }

type typeOption struct {
	messageType reflect.Type
}

// OfType narrows an unregistration to handlers of one message type.
func OfType[T contracts.Message]() UnregisterOption {
	return typeOption{messageType: messageTypeFor[T]()}
}

func (o typeOption) applyUnregister(c *unregisterConfig) { c.messageType = o.messageType }

func newRegisterConfig(options []RegisterOption) *registerConfig {
	cfg := &registerConfig{channel: messaging.DefaultChannel}
	for _, opt := range options {
		opt.applyRegister(cfg)
	}
	return cfg
}

func newUnregisterConfig(options []UnregisterOption) *unregisterConfig {
	cfg := &unregisterConfig{channel: messaging.AnyChannel}
	for _, opt := range options {
		opt.applyUnregister(cfg)
	}
	return cfg
}

func newSendConfig(options []SendOption) *sendConfig {
	cfg := &sendConfig{channel: messaging.DefaultChannel}
	for _, opt := range options {
		opt.applySend(cfg)
	}
	return cfg
}

// messageTypeFor returns the dispatch key for T, dereferencing pointer types
// so handlers for *RenameEvent and RenameEvent key identically.
func messageTypeFor[T contracts.Message]() reflect.Type {
	t := reflect.TypeFor[T]()
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
