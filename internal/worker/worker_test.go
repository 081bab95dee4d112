package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPool_ProcessesEveryJob(t *testing.T) {
	var processed atomic.Int64
	pool := NewPool(2, 10, func(_ context.Context, n int) error {
		processed.Add(int64(n))
		return nil
	})
	pool.Start(context.Background())

	for i := 1; i <= 5; i++ {
		require.NoError(t, pool.Submit(i))
	}

	require.NoError(t, pool.Stop())
	assert.Equal(t, int64(15), processed.Load())
}

func TestPool_ConcurrentSubmit(t *testing.T) {
	var processed atomic.Int64
	pool := NewPool(4, 0, func(_ context.Context, _ string) error {
		processed.Add(1)
		return nil
	})
	pool.Start(context.Background())

	done := make(chan struct{})
	for i := 0; i < 100; i++ {
		go func() {
			_ = pool.Submit("AL092022")
			done <- struct{}{}
		}()
	}
	for i := 0; i < 100; i++ {
		<-done
	}

	require.NoError(t, pool.Stop())
	assert.Equal(t, int64(100), processed.Load())
}

func TestPool_FirstErrorCancels(t *testing.T) {
	boom := errors.New("boom")
	var started atomic.Int64
	pool := NewPool(1, 0, func(ctx context.Context, n int) error {
		started.Add(1)
		if n == 2 {
			return boom
		}
		return nil
	})
	pool.Start(context.Background())

	var submitErr error
	for i := 1; i <= 10 && submitErr == nil; i++ {
		submitErr = pool.Submit(i)
	}

	assert.ErrorIs(t, pool.Stop(), boom)
	assert.ErrorIs(t, submitErr, ErrStopped)
	assert.Less(t, started.Load(), int64(10))
}

func TestPool_ParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(2, 10, func(ctx context.Context, _ int) error {
		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
		}
		return nil
	})
	pool.Start(ctx)
	require.NoError(t, pool.Submit(1))

	cancel()
	assert.ErrorIs(t, pool.Submit(2), ErrStopped)

	stopped := make(chan error, 1)
	go func() { stopped <- pool.Stop() }()

	select {
	case err := <-stopped:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("pool.Stop() timed out")
	}
}

func TestNewPool_AtLeastOneWorker(t *testing.T) {
	pool := NewPool(0, 1, func(context.Context, int) error { return nil })
	assert.Equal(t, 1, pool.numWorkers)
}
