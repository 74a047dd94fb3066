package messaging

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type subscriber struct {
	name string
}

func TestStrongRef(t *testing.T) {
	t.Run("strong ref is always alive", func(t *testing.T) {
		s := &subscriber{name: "a"}
		ref := NewStrongRef(s)

		assert.True(t, ref.Alive())
		v, ok := ref.Value()
		assert.True(t, ok)
		assert.Same(t, s, v)
	})

	t.Run("refs to the same recipient share a key", func(t *testing.T) {
		s := &subscriber{name: "a"}

		assert.Equal(t, NewStrongRef(s).Key(), NewStrongRef(s).Key())
	})

	t.Run("refs to different recipients differ", func(t *testing.T) {
		a := NewStrongRef(&subscriber{name: "a"})
		b := NewStrongRef(&subscriber{name: "b"})

		assert.NotEqual(t, a.Key(), b.Key())
	})
}

func TestWeakRef(t *testing.T) {
	t.Run("alive while the recipient is externally referenced", func(t *testing.T) {
		s := &subscriber{name: "a"}
		ref := NewWeakRef(s)

		runtime.GC()

		assert.True(t, ref.Alive())
		v, ok := ref.Value()
		assert.True(t, ok)
		assert.Same(t, s, v)
		runtime.KeepAlive(s)
	})

	t.Run("refs to the same recipient share a key", func(t *testing.T) {
		s := &subscriber{name: "a"}

		assert.Equal(t, NewWeakRef(s).Key(), NewWeakRef(s).Key())
	})

	t.Run("dies once the recipient is unreachable", func(t *testing.T) {
		ref := NewWeakRef(&subscriber{name: "gone"})

		dead := func() bool {
			runtime.GC()
			return !ref.Alive()
		}
		require.Eventually(t, dead, time.Second, 10*time.Millisecond)

		_, ok := ref.Value()
		assert.False(t, ok)
	})
}
