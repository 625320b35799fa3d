//go:build integration

package counter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"grantgate/pkg/testutil/containers"
)

func TestRedisStoreIncr(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	rc := containers.NewRedisContainer(t)
	store := NewRedisStore(rc.Client)
	ctx := context.Background()

	t.Run("counts within a window", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		for i := 1; i <= 5; i++ {
			count, _, err := store.Incr(ctx, "ip-1:/grants", time.Minute)
			require.NoError(t, err)
			require.Equal(t, i, count)
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		_, _, err := store.Incr(ctx, "ip-1:/grants", time.Minute)
		require.NoError(t, err)

		count, _, err := store.Incr(ctx, "ip-2:/grants", time.Minute)
		require.NoError(t, err)
		require.Equal(t, 1, count)
	})

	t.Run("counter expires after the window", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		_, _, err := store.Incr(ctx, "ip-1:/grants", time.Second)
		require.NoError(t, err)

		time.Sleep(1200 * time.Millisecond)

		count, _, err := store.Incr(ctx, "ip-1:/grants", time.Second)
		require.NoError(t, err)
		require.Equal(t, 1, count, "expired counter restarts at 1")
	})

	t.Run("shared counting across store instances", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		other := NewRedisStore(rc.Client)
		_, _, err := store.Incr(ctx, "ip-1:/grants", time.Minute)
		require.NoError(t, err)

		count, _, err := other.Incr(ctx, "ip-1:/grants", time.Minute)
		require.NoError(t, err)
		require.Equal(t, 2, count)
	})
}
