package fetch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestThrottleSpacesDispatches(t *testing.T) {
	t.Parallel()

	throttle := NewThrottle(1, 50*time.Millisecond, 50*time.Millisecond)
	ctx := context.Background()

	release, err := throttle.Acquire(ctx, "example.com")
	require.NoError(t, err)
	release()

	start := time.Now()
	release, err = throttle.Acquire(ctx, "example.com")
	require.NoError(t, err)
	release()

	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestThrottleFirstDispatchIsImmediate(t *testing.T) {
	t.Parallel()

	throttle := NewThrottle(1, time.Second, time.Second)

	start := time.Now()
	release, err := throttle.Acquire(context.Background(), "example.com")
	require.NoError(t, err)
	release()

	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestThrottleLimitsConcurrencyPerDomain(t *testing.T) {
	t.Parallel()

	throttle := NewThrottle(1, 0, 0)
	ctx := context.Background()

	release, err := throttle.Acquire(ctx, "example.com")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		secondRelease, goErr := throttle.Acquire(ctx, "example.com")
		require.NoError(t, goErr)
		close(acquired)
		secondRelease()
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire should block while the permit is held")
	case <-time.After(100 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire never proceeded after release")
	}
}

func TestThrottleDomainsAreIndependent(t *testing.T) {
	t.Parallel()

	throttle := NewThrottle(1, time.Second, time.Second)
	ctx := context.Background()

	releaseA, err := throttle.Acquire(ctx, "example.com")
	require.NoError(t, err)
	defer releaseA()

	start := time.Now()
	releaseB, err := throttle.Acquire(ctx, "example.org")
	require.NoError(t, err)
	defer releaseB()

	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestThrottleReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	throttle := NewThrottle(1, 0, 0)
	ctx := context.Background()

	release, err := throttle.Acquire(ctx, "example.com")
	require.NoError(t, err)
	release()
	release()

	// A double release must not free a phantom permit.
	releaseA, err := throttle.Acquire(ctx, "example.com")
	require.NoError(t, err)
	defer releaseA()

	blocked := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		cancelCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()
		_, goErr := throttle.Acquire(cancelCtx, "example.com")
		require.Error(t, goErr)
		close(blocked)
	}()

	select {
	case <-blocked:
	case <-time.After(time.Second):
		t.Fatal("expected the second acquire to time out")
	}
	wg.Wait()
}

func TestThrottleAcquireHonorsCancellation(t *testing.T) {
	t.Parallel()

	throttle := NewThrottle(1, time.Minute, time.Minute)
	ctx := context.Background()

	release, err := throttle.Acquire(ctx, "example.com")
	require.NoError(t, err)
	release()

	// The second acquire would sleep for a minute; cancellation must cut it short.
	cancelCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = throttle.Acquire(cancelCtx, "example.com")
	require.Error(t, err)
	require.Less(t, time.Since(start), 5*time.Second)
}
