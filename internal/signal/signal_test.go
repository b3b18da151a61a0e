package signal

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignal_FireOnce(t *testing.T) {
	sig := New(context.Background())
	require.False(t, sig.Fired())
	require.NoError(t, sig.Cause())

	first := errors.New("timeout")
	second := errors.New("cancelled")

	require.True(t, sig.Fire(first))
	require.False(t, sig.Fire(second))

	require.True(t, sig.Fired())
	require.ErrorIs(t, sig.Cause(), first)

	select {
	case <-sig.Done():
	default:
		t.Fatal("done channel should be closed after Fire")
	}

	require.ErrorIs(t, context.Cause(sig.Context()), first)
}

func TestSignal_ParentCancellationFires(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	sig := New(parent)

	cancel()

	<-sig.Done()
	require.True(t, sig.Fired())
	require.ErrorIs(t, sig.Cause(), context.Canceled)
}

func TestSignal_ReleaseAfterFireKeepsCause(t *testing.T) {
	sig := New(context.Background())
	cause := errors.New("first")

	sig.Fire(cause)
	sig.Release()

	require.ErrorIs(t, sig.Cause(), cause)
}

func TestSignal_ConcurrentFire(t *testing.T) {
	sig := New(context.Background())

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		wins  int
		cause = errors.New("fired")
	)

	for range 50 {
		wg.Go(func() {
			if sig.Fire(cause) {
				mu.Lock()
				wins++
				mu.Unlock()
			}

			_ = sig.Fired()
		})
	}

	wg.Wait()

	require.Equal(t, 1, wins)
}
