package scan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker(t *testing.T) {
	t.Run("closed until threshold", func(t *testing.T) {
		cb := newCircuitBreaker(3, time.Minute)
		cb.RecordFailure()
		cb.RecordFailure()
		assert.True(t, cb.Allow())
		assert.False(t, cb.IsOpen())

		cb.RecordFailure()
		assert.True(t, cb.IsOpen())
		assert.False(t, cb.Allow())
	})

	t.Run("success resets consecutive failures", func(t *testing.T) {
		cb := newCircuitBreaker(3, time.Minute)
		cb.RecordFailure()
		cb.RecordFailure()
		cb.RecordSuccess()
		cb.RecordFailure()
		cb.RecordFailure()
		assert.False(t, cb.IsOpen())
	})

	t.Run("half-open after cooldown", func(t *testing.T) {
		cb := newCircuitBreaker(1, 10*time.Millisecond)
		cb.RecordFailure()
		assert.False(t, cb.Allow())

		time.Sleep(20 * time.Millisecond)
		assert.True(t, cb.Allow())
	})
}
