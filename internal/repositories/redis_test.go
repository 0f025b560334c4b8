package repositories

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
)

// TestRedisSongStore needs a disposable Redis server; set TUNECACHE_TEST_REDIS_ADDR to run it.
// The selected database is flushed before every subtest.
func TestRedisSongStore(t *testing.T) {
	addr := os.Getenv("TUNECACHE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TUNECACHE_TEST_REDIS_ADDR not set")
	}

	testSongStore(t, func(t *testing.T) SongStore {
		ctx := context.Background()
		opts := RedisOpts{Addr: addr, DB: 15}

		flush := redis.NewClient(&redis.Options{Addr: addr, DB: opts.DB})
		if err := flush.FlushDB(ctx).Err(); err != nil {
			t.Fatalf("failed to flush redis: %v", err)
		}
		flush.Close()

		store, err := NewRedisSongStore(ctx, opts)
		if err != nil {
			t.Fatalf("failed to connect: %v", err)
		}
		t.Cleanup(func() { store.Close() })
		return store
	})
}
