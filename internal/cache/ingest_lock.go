package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redisv9 "github.com/redis/go-redis/v9"
)

// ErrLockHeld means another ingestion of the same document is running.
var ErrLockHeld = errors.New("document lock held")

// releaseScript deletes the key only while it still carries our token, so an
// expired lock re-acquired by someone else is left alone.
var releaseScript = redisv9.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type DocumentLock struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewDocumentLock(client *redisv9.Client, ttl time.Duration) *DocumentLock {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &DocumentLock{client: client, ttl: ttl}
}

// Acquire takes the per-document ingestion lock. The returned release func is
// safe to call more than once.
func (l *DocumentLock) Acquire(ctx context.Context, documentID uuid.UUID) (func(), error) {
	key := l.key(documentID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis acquire lock failed: %w", err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		// the caller's ctx may already be cancelled
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
	}, nil
}

func (l *DocumentLock) key(documentID uuid.UUID) string {
	return fmt.Sprintf("ingest:lock:%s", documentID)
}
