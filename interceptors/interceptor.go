package interceptors

import (
	"context"
	"log/slog"
	"time"

	"github.com/courierbus/courier-go/contracts"
)

// MessageHandler represents one handler invocation in the interceptor chain.
// The dispatcher binds the recipient before the chain runs, so interceptors
// see only the message.
type MessageHandler interface {
	Handle(ctx context.Context, msg contracts.Message) error
}

// MessageHandlerFunc is a function adapter for MessageHandler
type MessageHandlerFunc func(ctx context.Context, msg contracts.Message) error

// Handle implements MessageHandler
func (f MessageHandlerFunc) Handle(ctx context.Context, msg contracts.Message) error {
	return f(ctx, msg)
}

// Interceptor processes a message before it reaches a handler. An error from
// an interceptor counts as a handler error: it aborts the rest of the send
// and surfaces to the sender.
type Interceptor interface {
	// Intercept processes a message and calls the next handler in the chain
	Intercept(ctx context.Context, msg contracts.Message, next MessageHandler) error

	// Name returns the interceptor name for logging and debugging
	Name() string
}

// InterceptorFunc is a function adapter for Interceptor
type InterceptorFunc struct {
	name string
	fn   func(ctx context.Context, msg contracts.Message, next MessageHandler) error
}

// NewInterceptorFunc creates a new function-based interceptor
func NewInterceptorFunc(name string, fn func(ctx context.Context, msg contracts.Message, next MessageHandler) error) *InterceptorFunc {
	return &InterceptorFunc{name: name, fn: fn}
}

// Intercept implements Interceptor
func (i *InterceptorFunc) Intercept(ctx context.Context, msg contracts.Message, next MessageHandler) error {
	return i.fn(ctx, msg, next)
}

// Name implements Interceptor
func (i *InterceptorFunc) Name() string {
	return i.name
}

// InterceptorChain wraps every handler invocation of a dispatch in an ordered
// list of interceptors.
type InterceptorChain struct {
	interceptors []Interceptor
	logger       *slog.Logger
}

// NewInterceptorChain creates a new interceptor chain
func NewInterceptorChain(logger *slog.Logger) *InterceptorChain {
	if logger == nil {
		logger = slog.Default()
	}
	return &InterceptorChain{
		interceptors: make([]Interceptor, 0),
		logger:       logger,
	}
}

// Add adds an interceptor to the chain
func (c *InterceptorChain) Add(interceptor Interceptor) *InterceptorChain {
	c.interceptors = append(c.interceptors, interceptor)
	return c
}

// Execute runs the chain around finalHandler. The first interceptor added is
// the outermost.
func (c *InterceptorChain) Execute(ctx context.Context, msg contracts.Message, finalHandler MessageHandler) error {
	if len(c.interceptors) == 0 {
		return finalHandler.Handle(ctx, msg)
	}

	handler := finalHandler
	for i := len(c.interceptors) - 1; i >= 0; i-- {
		interceptor := c.interceptors[i]
		currentHandler := handler
		handler = MessageHandlerFunc(func(ctx context.Context, msg contracts.Message) error {
			return interceptor.Intercept(ctx, msg, currentHandler)
		})
	}

	return handler.Handle(ctx, msg)
}

// LoggingInterceptor logs every handler invocation with its outcome and
// duration.
type LoggingInterceptor struct {
	logger *slog.Logger
}

// NewLoggingInterceptor creates a new logging interceptor
func NewLoggingInterceptor(logger *slog.Logger) *LoggingInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingInterceptor{logger: logger}
}

// Intercept implements Interceptor
func (i *LoggingInterceptor) Intercept(ctx context.Context, msg contracts.Message, next MessageHandler) error {
	start := time.Now()

	err := next.Handle(ctx, msg)
	duration := time.Since(start)

	if err != nil {
		i.logger.Error("handler failed",
			"messageId", msg.GetID(),
			"messageType", msg.GetType(),
			"duration", duration,
			"error", err,
		)
	} else {
		i.logger.Debug("handler completed",
			"messageId", msg.GetID(),
			"messageType", msg.GetType(),
			"duration", duration,
		)
	}

	return err
}

// Name implements Interceptor
func (i *LoggingInterceptor) Name() string {
	return "LoggingInterceptor"
}
