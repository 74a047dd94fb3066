package contracts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBaseMessage(t *testing.T) {
	t.Run("NewBaseMessage generates ID and timestamp", func(t *testing.T) {
		before := time.Now().UTC()
		msg := NewBaseMessage("TestMessage")
		after := time.Now().UTC()

		assert.NotEmpty(t, msg.GetID())
		assert.Equal(t, "TestMessage", msg.GetType())
		assert.True(t, !msg.GetTimestamp().Before(before))
		assert.True(t, !msg.GetTimestamp().After(after))
		assert.Empty(t, msg.GetCorrelationID())
	})

	t.Run("NewBaseMessage generates unique IDs", func(t *testing.T) {
		a := NewBaseMessage("TestMessage")
		b := NewBaseMessage("TestMessage")

		assert.NotEqual(t, a.GetID(), b.GetID())
	})

	t.Run("SetCorrelationID round-trips", func(t *testing.T) {
		msg := NewBaseMessage("TestMessage")
		msg.SetCorrelationID("corr-1")

		assert.Equal(t, "corr-1", msg.GetCorrelationID())
	})
}
