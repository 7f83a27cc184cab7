package counter

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"
)

// TestSessionCounter_Basic 测试基本增减
func TestSessionCounter_Basic(t *testing.T) {
	c := New()
	assert.Zero(t, c.Get())

	assert.Equal(t, int64(1), c.Increment())
	assert.Equal(t, int64(2), c.Increment())
	assert.Equal(t, int64(1), c.Decrement())

	c.Set(10)
	assert.Equal(t, int64(10), c.Get())

	c.Reset()
	assert.Zero(t, c.Get())

	// 误用时允许为负
	assert.Equal(t, int64(-1), c.Decrement())
}

// TestSessionCounter_Concurrent 测试并发增减不丢失
func TestSessionCounter_Concurrent(t *testing.T) {
	const creates, deletes = 500, 200

	c := New()
	var wg sync.WaitGroup
	for i := 0; i < creates; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Increment()
		}()
	}
	for i := 0; i < deletes; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Decrement()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(creates-deletes), c.Get())
}

// TestSessionCounter_Observer 测试变化回调
func TestSessionCounter_Observer(t *testing.T) {
	var last atomic.Int64
	var calls atomic.Int32
	c := New(WithObserver(func(n int64) {
		last.Store(n)
		calls.Inc()
	}))

	c.Increment()
	c.Increment()
	assert.Equal(t, int64(2), last.Load())

	c.Reset()
	assert.Zero(t, last.Load())
	assert.Equal(t, int32(3), calls.Load())
}
