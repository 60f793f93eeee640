package lifecycle

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard_ActiveUntilClosed(t *testing.T) {
	g := New(context.Background(), time.Second)
	assert.True(t, g.Active())

	g.Close()
	assert.False(t, g.Active())
	assert.ErrorIs(t, g.Context().Err(), context.Canceled)

	g.Close() // idempotent
}

func TestGuard_DefaultTimeout(t *testing.T) {
	g := New(context.Background(), 0)
	assert.Equal(t, DefaultSafetyTimeout, g.Timeout())
}

func TestGuard_GoRefusedAfterClose(t *testing.T) {
	g := New(context.Background(), time.Second)
	g.Close()

	ran := g.Go(func(context.Context) { t.Error("must not run") })
	assert.False(t, ran)
}

func TestGuard_GoSeesCancellation(t *testing.T) {
	g := New(context.Background(), time.Second)
	started := make(chan struct{})

	require.True(t, g.Go(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	}))
	<-started
	g.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, g.Wait(ctx))
}

func TestGuard_WatchdogFires(t *testing.T) {
	g := New(context.Background(), 20*time.Millisecond)
	defer g.Close()

	fired := make(chan struct{})
	g.Arm(func() { close(fired) })
	assert.True(t, g.Armed())

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("watchdog did not fire")
	}
	assert.False(t, g.Armed())
}

func TestGuard_DisarmPreventsFire(t *testing.T) {
	g := New(context.Background(), 20*time.Millisecond)
	defer g.Close()

	var fired atomic.Bool
	g.Arm(func() { fired.Store(true) })
	g.Disarm()

	time.Sleep(60 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestGuard_CloseCancelsWatchdog(t *testing.T) {
	g := New(context.Background(), 20*time.Millisecond)

	var fired atomic.Bool
	g.Arm(func() { fired.Store(true) })
	g.Close()

	time.Sleep(60 * time.Millisecond)
	assert.False(t, fired.Load())

	g.Arm(func() { fired.Store(true) })
	time.Sleep(60 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestGuard_RearmReplacesPending(t *testing.T) {
	g := New(context.Background(), 40*time.Millisecond)
	defer g.Close()

	var first, second atomic.Int32
	g.Arm(func() { first.Add(1) })
	time.Sleep(20 * time.Millisecond)
	g.Arm(func() { second.Add(1) })

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), first.Load())
	assert.Equal(t, int32(1), second.Load())
}
