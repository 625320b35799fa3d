package counter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"grantgate/pkg/requestcontext"
)

func at(base time.Time, d time.Duration) context.Context {
	return requestcontext.WithTime(context.Background(), base.Add(d))
}

func TestMemoryStoreIncr(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	window := time.Minute

	t.Run("counts within a window", func(t *testing.T) {
		store := NewMemoryStore()

		for i := 1; i <= 3; i++ {
			count, start, err := store.Incr(at(base, time.Duration(i)*time.Second), "ip-1:/grants", window)
			require.NoError(t, err)
			require.Equal(t, i, count)
			require.Equal(t, base.Add(time.Second), start)
		}
	})

	t.Run("rolls over after the window elapses", func(t *testing.T) {
		store := NewMemoryStore()

		for range 3 {
			_, _, err := store.Incr(at(base, 0), "ip-1:/grants", window)
			require.NoError(t, err)
		}

		count, start, err := store.Incr(at(base, 61*time.Second), "ip-1:/grants", window)
		require.NoError(t, err)
		require.Equal(t, 1, count)
		require.Equal(t, base.Add(61*time.Second), start)
	})

	t.Run("keys are independent", func(t *testing.T) {
		store := NewMemoryStore()

		_, _, err := store.Incr(at(base, 0), "ip-1:/grants", window)
		require.NoError(t, err)

		count, _, err := store.Incr(at(base, 0), "ip-2:/grants", window)
		require.NoError(t, err)
		require.Equal(t, 1, count)
	})

	t.Run("stale entries are evicted on access", func(t *testing.T) {
		store := NewMemoryStore()

		_, _, err := store.Incr(at(base, 0), "ip-1:/grants", window)
		require.NoError(t, err)
		_, _, err = store.Incr(at(base, 0), "ip-2:/grants", window)
		require.NoError(t, err)
		require.Equal(t, 2, store.Len())

		_, _, err = store.Incr(at(base, 2*time.Minute), "ip-3:/grants", window)
		require.NoError(t, err)
		require.Equal(t, 1, store.Len())
	})
}

func TestMemoryStoreConcurrentIncr(t *testing.T) {
	store := NewMemoryStore()
	ctx := requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	const goroutines = 50
	done := make(chan int, goroutines)
	for range goroutines {
		go func() {
			count, _, err := store.Incr(ctx, "shared", time.Minute)
			require.NoError(t, err)
			done <- count
		}()
	}

	seen := make(map[int]bool)
	for range goroutines {
		count := <-done
		require.False(t, seen[count], "duplicate count %d", count)
		seen[count] = true
	}
	require.Len(t, seen, goroutines)
}
