package threadpool

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddWorkRunsAllTasks(t *testing.T) {
	p := New(4)
	defer p.Destroy()

	var count int64
	const n = 200
	for i := 0; i < n; i++ {
		assert.NoError(t, p.AddWork(func() { atomic.AddInt64(&count, 1) }))
	}
	p.Wait()
	assert.Equal(t, int64(n), atomic.LoadInt64(&count))
}

func TestWaitBlocksUntilDrained(t *testing.T) {
	p := New(2)
	defer p.Destroy()

	var done atomic.Bool
	assert.NoError(t, p.AddWork(func() {
		time.Sleep(20 * time.Millisecond)
		done.Store(true)
	}))
	p.Wait()
	assert.True(t, done.Load())
}

func TestDestroyRejectsFurtherWork(t *testing.T) {
	p := New(1)
	p.Destroy()
	err := p.AddWork(func() {})
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestSingleWorkerMatchesManyWorkers(t *testing.T) {
	run := func(n int) []int {
		p := New(n)
		defer p.Destroy()
		out := make([]int32, 16)
		for i := 0; i < 16; i++ {
			i := i
			p.AddWork(func() { atomic.StoreInt32(&out[i], int32(i*i)) })
		}
		p.Wait()
		result := make([]int, 16)
		for i, v := range out {
			result[i] = int(v)
		}
		return result
	}
	assert.Equal(t, run(1), run(16))
}
