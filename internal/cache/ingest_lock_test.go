package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLock(t *testing.T, ttl time.Duration) (*DocumentLock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewDocumentLock(client, ttl), mr
}

func TestAcquireIsExclusivePerDocument(t *testing.T) {
	lock, _ := newLock(t, time.Minute)
	ctx := context.Background()
	doc := uuid.New()

	release, err := lock.Acquire(ctx, doc)
	require.NoError(t, err)

	_, err = lock.Acquire(ctx, doc)
	assert.ErrorIs(t, err, ErrLockHeld)

	other, err := lock.Acquire(ctx, uuid.New())
	require.NoError(t, err)
	other()

	release()
	release()

	again, err := lock.Acquire(ctx, doc)
	require.NoError(t, err)
	again()
}

func TestReleaseLeavesForeignLockAlone(t *testing.T) {
	lock, mr := newLock(t, time.Second)
	ctx := context.Background()
	doc := uuid.New()

	release, err := lock.Acquire(ctx, doc)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	_, err = lock.Acquire(ctx, doc)
	require.NoError(t, err)

	release()
	assert.True(t, mr.Exists(lock.key(doc)))
}
