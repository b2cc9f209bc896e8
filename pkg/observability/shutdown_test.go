package observability

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownManager_RunsAll(t *testing.T) {
	sm := NewShutdownManager(nil, time.Second)

	var calls atomic.Int32
	sm.Register("a", func(ctx context.Context) error { calls.Add(1); return nil })
	sm.Register("b", func(ctx context.Context) error { calls.Add(1); return errors.New("boom") })
	sm.Register("c", func(ctx context.Context) error { calls.Add(1); return nil })

	err := sm.Shutdown(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b: boom")
	assert.Equal(t, int32(3), calls.Load())

	assert.NoError(t, sm.Shutdown(context.Background()))
	assert.Equal(t, int32(3), calls.Load())
}

func TestShutdownManager_CancelledParent(t *testing.T) {
	sm := NewShutdownManager(nil, time.Second)

	var sawErr error
	sm.Register("server", func(ctx context.Context) error {
		sawErr = ctx.Err()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, sm.Shutdown(ctx))
	assert.NoError(t, sawErr)
}

func TestShutdownManager_Timeout(t *testing.T) {
	sm := NewShutdownManager(nil, 20*time.Millisecond)
	release := make(chan struct{})
	defer close(release)

	sm.Register("stuck", func(ctx context.Context) error {
		<-release
		return nil
	})

	err := sm.Shutdown(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestNewShutdownManager_DefaultTimeout(t *testing.T) {
	assert.Equal(t, 10*time.Second, NewShutdownManager(nil, 0).timeout)
}
