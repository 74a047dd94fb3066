package contracts

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type renameRequest struct {
	BaseRequest[string]
	OldName string
}

func newRenameRequest(oldName string) *renameRequest {
	return &renameRequest{
		BaseRequest: NewBaseRequest[string]("renameRequest"),
		OldName:     oldName,
	}
}

func TestReplySlot(t *testing.T) {
	t.Run("starts pending", func(t *testing.T) {
		req := newRenameRequest("a")

		assert.Equal(t, ReplyStatePending, req.State())

		_, err := req.Response()
		assert.ErrorIs(t, err, ErrNotReplied)
	})

	t.Run("first reply wins", func(t *testing.T) {
		req := newRenameRequest("a")

		require.NoError(t, req.Reply("b"))
		assert.Equal(t, ReplyStateReplied, req.State())

		value, err := req.Response()
		require.NoError(t, err)
		assert.Equal(t, "b", value)
	})

	t.Run("second reply fails with AlreadyReplied and keeps the first value", func(t *testing.T) {
		req := newRenameRequest("a")

		require.NoError(t, req.Reply("first"))
		err := req.Reply("second")
		assert.ErrorIs(t, err, ErrAlreadyReplied)

		value, err := req.Response()
		require.NoError(t, err)
		assert.Equal(t, "first", value)
	})

	t.Run("concurrent replies settle on exactly one value", func(t *testing.T) {
		req := newRenameRequest("a")

		var wg sync.WaitGroup
		var failures sync.Map
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				if err := req.Reply("v"); err != nil {
					failures.Store(n, err)
				}
			}(i)
		}
		wg.Wait()

		count := 0
		failures.Range(func(_, _ any) bool { count++; return true })
		assert.Equal(t, 15, count)
		assert.Equal(t, ReplyStateReplied, req.State())
	})

	t.Run("Fail settles the slot with its error", func(t *testing.T) {
		req := newRenameRequest("a")

		assert.True(t, req.Fail(ErrNoRegisteredHandler))
		assert.Equal(t, ReplyStateFailed, req.State())

		_, err := req.Response()
		assert.ErrorIs(t, err, ErrNoRegisteredHandler)
	})

	t.Run("Fail after reply is rejected", func(t *testing.T) {
		req := newRenameRequest("a")

		require.NoError(t, req.Reply("b"))
		assert.False(t, req.Fail(ErrNoRegisteredHandler))

		value, err := req.Response()
		require.NoError(t, err)
		assert.Equal(t, "b", value)
	})

	t.Run("reply after fail is rejected", func(t *testing.T) {
		req := newRenameRequest("a")

		require.True(t, req.Fail(ErrNoRegisteredHandler))
		assert.ErrorIs(t, req.Reply("late"), ErrAlreadyReplied)
	})

	t.Run("state names", func(t *testing.T) {
		assert.Equal(t, "pending", ReplyStatePending.String())
		assert.Equal(t, "replied", ReplyStateReplied.String())
		assert.Equal(t, "failed", ReplyStateFailed.String())
	})
}

func TestFuture(t *testing.T) {
	t.Run("Wait returns a value written after Wait begins", func(t *testing.T) {
		req := newRenameRequest("a")
		future := req.Future()

		go func() {
			time.Sleep(10 * time.Millisecond)
			_ = req.Reply("late")
		}()

		value, err := future.Wait(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "late", value)
	})

	t.Run("Wait honors context cancellation", func(t *testing.T) {
		req := newRenameRequest("a")
		future := req.Future()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := future.Wait(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("abandoned future does not block the reply", func(t *testing.T) {
		req := newRenameRequest("a")
		_ = req.Future()

		assert.NoError(t, req.Reply("nobody waiting"))
	})

	t.Run("TryResult before and after settling", func(t *testing.T) {
		req := newRenameRequest("a")
		future := req.Future()

		_, _, ok := future.TryResult()
		assert.False(t, ok)

		require.NoError(t, req.Reply("b"))
		value, err, ok := future.TryResult()
		assert.True(t, ok)
		require.NoError(t, err)
		assert.Equal(t, "b", value)
	})

	t.Run("Done closes when a failure settles the slot", func(t *testing.T) {
		req := newRenameRequest("a")
		future := req.Future()

		req.Fail(ErrNoRegisteredHandler)

		select {
		case <-future.Done():
		default:
			t.Fatal("expected Done to be closed")
		}
		_, err := future.Wait(context.Background())
		assert.ErrorIs(t, err, ErrNoRegisteredHandler)
	})
}

type inventoryRequest struct {
	BaseCollectionRequest[string]
}

func newInventoryRequest() *inventoryRequest {
	return &inventoryRequest{
		BaseCollectionRequest: NewBaseCollectionRequest[string]("inventoryRequest"),
	}
}

func TestCollectionRequest(t *testing.T) {
	t.Run("responses preserve append order", func(t *testing.T) {
		req := newInventoryRequest()

		req.AddResponse("a")
		req.AddResponse("b")
		req.AddResponse("c")

		assert.Equal(t, []string{"a", "b", "c"}, req.Responses())
	})

	t.Run("Responses returns a copy", func(t *testing.T) {
		req := newInventoryRequest()
		req.AddResponse("a")

		first := req.Responses()
		first[0] = "mutated"

		assert.Equal(t, []string{"a"}, req.Responses())
	})

	t.Run("Join waits for tracked tasks", func(t *testing.T) {
		req := newInventoryRequest()

		done := req.Track()
		go func() {
			time.Sleep(10 * time.Millisecond)
			req.AddResponse("late")
			done()
		}()

		require.NoError(t, req.Join(context.Background()))
		assert.Equal(t, []string{"late"}, req.Responses())
	})

	t.Run("Join with no tracked tasks returns immediately", func(t *testing.T) {
		req := newInventoryRequest()
		assert.NoError(t, req.Join(context.Background()))
	})

	t.Run("Join honors context cancellation", func(t *testing.T) {
		req := newInventoryRequest()
		done := req.Track()
		defer done()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		assert.ErrorIs(t, req.Join(ctx), context.DeadlineExceeded)
	})

	t.Run("future resolves after tracked work", func(t *testing.T) {
		req := newInventoryRequest()

		done := req.Track()
		go func() {
			req.AddResponse("async")
			done()
		}()

		future := NewCollectionFuture[string](req)
		values, err := future.Wait(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"async"}, values)
	})
}
