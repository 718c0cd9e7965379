package pool_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/blackforge/rainbowcrack/internal/pool"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestPoolRunsAllPostedTasks(t *testing.T) {
	p := pool.New(context.Background(), "test", 4, zap.NewNop())
	var count atomic.Int64

	const n = 500
	for i := 0; i < n; i++ {
		p.Post(func(context.Context) { count.Add(1) })
	}
	p.Wait()
	p.Stop()

	assert.EqualValues(t, n, count.Load())
}

func TestPoolStopIsIdempotent(t *testing.T) {
	p := pool.New(context.Background(), "test", 2, zap.NewNop())
	p.Post(func(context.Context) {})
	p.Wait()
	p.Stop()
	assert.NotPanics(t, func() { p.Stop() })
}

func TestPoolPostAfterStopPanics(t *testing.T) {
	p := pool.New(context.Background(), "test", 1, zap.NewNop())
	p.Stop()
	assert.Panics(t, func() { p.Post(func(context.Context) {}) })
}
