package debounce_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/UnknownOlympus/talentbridge/internal/debounce"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const delay = 50 * time.Millisecond

func TestTrigger(t *testing.T) {
	t.Run("burst runs only the last function", func(t *testing.T) {
		debouncer := debounce.New(delay)

		var (
			mu    sync.Mutex
			calls []int
		)
		for i := range 10 {
			debouncer.Trigger(func() {
				mu.Lock()
				calls = append(calls, i)
				mu.Unlock()
			})
			time.Sleep(delay / 10)
		}

		assert.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(calls) == 1
		}, time.Second, 5*time.Millisecond)

		time.Sleep(3 * delay)
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []int{9}, calls)
	})

	t.Run("separate bursts each run once", func(t *testing.T) {
		debouncer := debounce.New(delay)
		var calls atomic.Int32

		debouncer.Trigger(func() { calls.Add(1) })
		require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
		assert.False(t, debouncer.Pending())

		debouncer.Trigger(func() { calls.Add(1) })
		assert.True(t, debouncer.Pending())
		require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	})

	t.Run("does not run before the delay", func(t *testing.T) {
		debouncer := debounce.New(time.Hour)
		var calls atomic.Int32

		debouncer.Trigger(func() { calls.Add(1) })

		assert.Never(t, func() bool { return calls.Load() > 0 }, 50*time.Millisecond, 5*time.Millisecond)
		debouncer.Stop()
	})
}

func TestCancel(t *testing.T) {
	debouncer := debounce.New(delay)
	var calls atomic.Int32

	debouncer.Trigger(func() { calls.Add(1) })
	debouncer.Cancel()

	assert.False(t, debouncer.Pending())
	assert.Never(t, func() bool { return calls.Load() > 0 }, 3*delay, 5*time.Millisecond)

	debouncer.Trigger(func() { calls.Add(1) })
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestStop(t *testing.T) {
	debouncer := debounce.New(delay)
	var calls atomic.Int32

	debouncer.Trigger(func() { calls.Add(1) })
	debouncer.Stop()
	debouncer.Trigger(func() { calls.Add(1) })

	assert.False(t, debouncer.Pending())
	assert.Never(t, func() bool { return calls.Load() > 0 }, 3*delay, 5*time.Millisecond)
}
