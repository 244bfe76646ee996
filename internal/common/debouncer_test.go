package common

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncerReady(t *testing.T) {
	d := NewDebouncer(time.Second)
	now := time.Now()

	assert.True(t, d.Ready(now), "never marked")

	d.Mark(now)
	assert.False(t, d.Ready(now.Add(500*time.Millisecond)))
	assert.True(t, d.Ready(now.Add(time.Second)))

	d.Reset()
	assert.True(t, d.Ready(now))
}

func TestDebouncerZeroInterval(t *testing.T) {
	d := NewDebouncer(0)
	now := time.Now()
	d.Mark(now)
	assert.True(t, d.Ready(now))
}

func TestCoalescerRunsTrailingCallOnly(t *testing.T) {
	c := NewCoalescer(20 * time.Millisecond)
	defer c.Stop()

	var ran atomic.Int32
	var last atomic.Int32
	for i := 1; i <= 5; i++ {
		i := int32(i)
		c.Do(func() {
			ran.Add(1)
			last.Store(i)
		})
	}

	assert.Eventually(t, func() bool { return ran.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(5), last.Load())

	// and it stays at one
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), ran.Load())
}

func TestCoalescerStopCancelsPending(t *testing.T) {
	c := NewCoalescer(20 * time.Millisecond)

	var ran atomic.Int32
	c.Do(func() { ran.Add(1) })
	c.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), ran.Load())
}
