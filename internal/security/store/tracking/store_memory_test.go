package tracking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryLockStoreLockTransition(t *testing.T) {
	store := NewMemoryLockStore()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	transitioned, err := store.Lock(context.Background(), "u1", at)
	require.NoError(t, err)
	require.True(t, transitioned)

	again, err := store.Lock(context.Background(), "u1", at.Add(time.Minute))
	require.NoError(t, err)
	require.False(t, again, "locking a locked account is a no-op")

	state, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.True(t, state.Locked)
	require.Equal(t, at, state.LockedAt, "the first lock's instant survives later attempts")
}

func TestMemoryLockStoreConcurrentLockSingleTransition(t *testing.T) {
	store := NewMemoryLockStore()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	const callers = 16
	start := make(chan struct{})
	results := make([]bool, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			transitioned, err := store.Lock(context.Background(), "u1", at)
			require.NoError(t, err)
			results[i] = transitioned
		}()
	}
	close(start)
	wg.Wait()

	transitions := 0
	for _, transitioned := range results {
		if transitioned {
			transitions++
		}
	}
	require.Equal(t, 1, transitions)
}
