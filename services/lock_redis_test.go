//go:build integration

package services

import (
	"backoffice_app_go/testutil"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker(t *testing.T) {
	rc := testutil.StartRedis(t)
	locker := NewRedisLocker(rc.Client)
	ctx := context.Background()

	release, err := locker.TryLock(ctx, "document-expiration-scan", time.Minute)
	require.NoError(t, err)

	_, err = locker.TryLock(ctx, "document-expiration-scan", time.Minute)
	assert.ErrorIs(t, err, ErrLockHeld)

	release()
	release()

	release, err = locker.TryLock(ctx, "document-expiration-scan", time.Minute)
	require.NoError(t, err)
	defer release()

	t.Run("Expired lock can be taken again", func(t *testing.T) {
		_, err := locker.TryLock(ctx, "short", 50*time.Millisecond)
		require.NoError(t, err)
		time.Sleep(150 * time.Millisecond)

		again, err := locker.TryLock(ctx, "short", time.Minute)
		assert.NoError(t, err)
		again()
	})
}
