package interceptors

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/courierbus/courier-go/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testMessage struct {
	contracts.BaseMessage
}

func newTestMessage() *testMessage {
	return &testMessage{BaseMessage: contracts.NewBaseMessage("testMessage")}
}

func TestInterceptorChain(t *testing.T) {
	t.Run("empty chain calls the handler directly", func(t *testing.T) {
		chain := NewInterceptorChain(nil)
		called := false

		err := chain.Execute(context.Background(), newTestMessage(),
			MessageHandlerFunc(func(ctx context.Context, msg contracts.Message) error {
				called = true
				return nil
			}))

		require.NoError(t, err)
		assert.True(t, called)
	})

	t.Run("interceptors run outermost first", func(t *testing.T) {
		chain := NewInterceptorChain(nil)
		var order []string

		chain.Add(NewInterceptorFunc("outer", func(ctx context.Context, msg contracts.Message, next MessageHandler) error {
			order = append(order, "outer-before")
			err := next.Handle(ctx, msg)
			order = append(order, "outer-after")
			return err
		}))
		chain.Add(NewInterceptorFunc("inner", func(ctx context.Context, msg contracts.Message, next MessageHandler) error {
			order = append(order, "inner-before")
			err := next.Handle(ctx, msg)
			order = append(order, "inner-after")
			return err
		}))

		err := chain.Execute(context.Background(), newTestMessage(),
			MessageHandlerFunc(func(ctx context.Context, msg contracts.Message) error {
				order = append(order, "handler")
				return nil
			}))

		require.NoError(t, err)
		assert.Equal(t, []string{"outer-before", "inner-before", "handler", "inner-after", "outer-after"}, order)
	})

	t.Run("interceptor error stops the chain", func(t *testing.T) {
		chain := NewInterceptorChain(nil)
		boom := errors.New("boom")
		handlerCalled := false

		chain.Add(NewInterceptorFunc("failing", func(ctx context.Context, msg contracts.Message, next MessageHandler) error {
			return boom
		}))

		err := chain.Execute(context.Background(), newTestMessage(),
			MessageHandlerFunc(func(ctx context.Context, msg contracts.Message) error {
				handlerCalled = true
				return nil
			}))

		assert.ErrorIs(t, err, boom)
		assert.False(t, handlerCalled)
	})

	t.Run("logging interceptor passes errors through", func(t *testing.T) {
		chain := NewInterceptorChain(nil)
		chain.Add(NewLoggingInterceptor(slog.Default()))
		boom := errors.New("boom")

		err := chain.Execute(context.Background(), newTestMessage(),
			MessageHandlerFunc(func(ctx context.Context, msg contracts.Message) error {
				return boom
			}))

		assert.ErrorIs(t, err, boom)
	})
}

func TestFiltering(t *testing.T) {
	passAll := MessageFilterFunc(func(ctx context.Context, msg contracts.Message) (bool, error) {
		return true, nil
	})
	blockAll := MessageFilterFunc(func(ctx context.Context, msg contracts.Message) (bool, error) {
		return false, nil
	})

	t.Run("passing filter reaches the handler", func(t *testing.T) {
		i := NewFilteringInterceptor(passAll, SkipSilently)
		called := false

		err := i.Intercept(context.Background(), newTestMessage(),
			MessageHandlerFunc(func(ctx context.Context, msg contracts.Message) error {
				called = true
				return nil
			}))

		require.NoError(t, err)
		assert.True(t, called)
	})

	t.Run("SkipSilently suppresses without error", func(t *testing.T) {
		i := NewFilteringInterceptor(blockAll, SkipSilently)
		called := false

		err := i.Intercept(context.Background(), newTestMessage(),
			MessageHandlerFunc(func(ctx context.Context, msg contracts.Message) error {
				called = true
				return nil
			}))

		require.NoError(t, err)
		assert.False(t, called)
	})

	t.Run("SkipWithError surfaces the suppression", func(t *testing.T) {
		i := NewFilteringInterceptor(blockAll, SkipWithError)

		err := i.Intercept(context.Background(), newTestMessage(),
			MessageHandlerFunc(func(ctx context.Context, msg contracts.Message) error {
				return nil
			}))

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "message filtered")
	})

	t.Run("filter errors are wrapped", func(t *testing.T) {
		broken := MessageFilterFunc(func(ctx context.Context, msg contracts.Message) (bool, error) {
			return false, errors.New("filter broke")
		})
		i := NewFilteringInterceptor(broken, SkipSilently)

		err := i.Intercept(context.Background(), newTestMessage(), MessageHandlerFunc(func(ctx context.Context, msg contracts.Message) error {
			return nil
		}))

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "filter error")
	})

	t.Run("MessageTypeFilter allows only listed types", func(t *testing.T) {
		f := NewMessageTypeFilter("testMessage")

		ok, err := f.ShouldProcess(context.Background(), newTestMessage())
		require.NoError(t, err)
		assert.True(t, ok)

		other := &testMessage{BaseMessage: contracts.NewBaseMessage("otherMessage")}
		ok, err = f.ShouldProcess(context.Background(), other)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("CompositeFilter requires every filter to pass", func(t *testing.T) {
		f := NewCompositeFilter(passAll, blockAll)

		ok, err := f.ShouldProcess(context.Background(), newTestMessage())
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
