package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type cachedExam struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func newTestCache(t *testing.T, prefix string) (*miniredis.Miniredis, *CacheHelper) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, NewCacheHelper(client, prefix)
}

func TestCacheHelper_GetSet(t *testing.T) {
	ctx := context.Background()
	mr, helper := newTestCache(t, "exam:")

	t.Run("round trip", func(t *testing.T) {
		in := cachedExam{ID: 1, Title: "Midterm"}
		if err := helper.Set(ctx, "1", in, time.Minute); err != nil {
			t.Fatalf("set failed: %v", err)
		}

		var out cachedExam
		if err := helper.Get(ctx, "1", &out); err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if out != in {
			t.Errorf("expected %+v, got %+v", in, out)
		}
	})

	t.Run("keys carry the prefix", func(t *testing.T) {
		if !mr.Exists("exam:1") {
			t.Error("expected key exam:1 in the store")
		}
	})

	t.Run("missing key", func(t *testing.T) {
		var out cachedExam
		if err := helper.Get(ctx, "absent", &out); !errors.Is(err, ErrCacheNotFound) {
			t.Errorf("expected ErrCacheNotFound, got %v", err)
		}
	})

	t.Run("entries expire", func(t *testing.T) {
		if err := helper.Set(ctx, "short", cachedExam{ID: 2}, time.Second); err != nil {
			t.Fatalf("set failed: %v", err)
		}
		mr.FastForward(2 * time.Second)

		var out cachedExam
		if err := helper.Get(ctx, "short", &out); !errors.Is(err, ErrCacheNotFound) {
			t.Errorf("expected ErrCacheNotFound after TTL, got %v", err)
		}
	})
}

func TestCacheHelper_DeleteAndExists(t *testing.T) {
	ctx := context.Background()
	_, helper := newTestCache(t, "question:")

	for _, key := range []string{"1", "2", "3"} {
		if err := helper.Set(ctx, key, cachedExam{Title: key}, time.Minute); err != nil {
			t.Fatalf("set failed: %v", err)
		}
	}

	exists, err := helper.Exists(ctx, "1")
	if err != nil || !exists {
		t.Fatalf("expected key 1 to exist, exists=%v err=%v", exists, err)
	}

	if err := helper.Delete(ctx, "1", "2"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	exists, err = helper.Exists(ctx, "1")
	if err != nil || exists {
		t.Errorf("expected key 1 gone, exists=%v err=%v", exists, err)
	}
	exists, err = helper.Exists(ctx, "3")
	if err != nil || !exists {
		t.Errorf("expected key 3 untouched, exists=%v err=%v", exists, err)
	}
}

func TestCacheHelper_InvalidatePattern(t *testing.T) {
	ctx := context.Background()
	_, helper := newTestCache(t, "question:")

	if err := helper.Set(ctx, "list:page1", cachedExam{}, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := helper.Set(ctx, "list:page2", cachedExam{}, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := helper.Set(ctx, "42", cachedExam{ID: 42}, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	if err := helper.InvalidatePattern(ctx, "list:*"); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}

	var out cachedExam
	if err := helper.Get(ctx, "list:page1", &out); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("expected list:page1 invalidated, got %v", err)
	}
	if err := helper.Get(ctx, "42", &out); err != nil {
		t.Errorf("pattern must not touch unrelated keys: %v", err)
	}
}

func TestCacheHelper_CacheOrExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("serves the cached value without fetching", func(t *testing.T) {
		_, helper := newTestCache(t, "exam:")

		cached := cachedExam{ID: 7, Title: "From cache"}
		if err := helper.Set(ctx, "7", cached, time.Minute); err != nil {
			t.Fatalf("set failed: %v", err)
		}

		var out cachedExam
		err := helper.CacheOrExecute(ctx, "7", &out, time.Minute, func() (interface{}, error) {
			return nil, errors.New("fetch must not run on a cache hit")
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != cached {
			t.Errorf("expected cached value, got %+v", out)
		}
	})

	t.Run("falls through to the fetch on a miss", func(t *testing.T) {
		_, helper := newTestCache(t, "exam:")

		fetched := cachedExam{ID: 8, Title: "From store"}
		var out cachedExam
		err := helper.CacheOrExecute(ctx, "8", &out, time.Minute, func() (interface{}, error) {
			return fetched, nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != fetched {
			t.Errorf("expected fetched value, got %+v", out)
		}
	})

	t.Run("fetch errors propagate", func(t *testing.T) {
		_, helper := newTestCache(t, "exam:")

		var out cachedExam
		err := helper.CacheOrExecute(ctx, "9", &out, time.Minute, func() (interface{}, error) {
			return nil, errors.New("store down")
		})
		if err == nil {
			t.Fatal("expected the fetch error to surface")
		}
	})
}

func TestCacheHelper_NilClientDegradation(t *testing.T) {
	ctx := context.Background()
	helper := NewCacheHelper(nil, "exam:")

	if err := helper.Set(ctx, "1", cachedExam{}, time.Minute); err != nil {
		t.Errorf("set on a nil client must be a no-op, got %v", err)
	}
	if err := helper.Delete(ctx, "1"); err != nil {
		t.Errorf("delete on a nil client must be a no-op, got %v", err)
	}

	var out cachedExam
	if err := helper.Get(ctx, "1", &out); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("expected ErrCacheNotAvailable, got %v", err)
	}

	fetched := cachedExam{ID: 3}
	err := helper.CacheOrExecute(ctx, "1", &out, time.Minute, func() (interface{}, error) {
		return fetched, nil
	})
	if err != nil {
		t.Fatalf("cache-aside must degrade to the fetch, got %v", err)
	}
	if out != fetched {
		t.Errorf("expected fetched value, got %+v", out)
	}
}

func TestCacheManager(t *testing.T) {
	ctx := context.Background()

	t.Run("health check against a live store", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { client.Close() })

		cm := NewCacheManager(client)
		if err := cm.HealthCheck(ctx); err != nil {
			t.Errorf("unexpected health check error: %v", err)
		}
	})

	t.Run("nil client reports unavailable", func(t *testing.T) {
		cm := NewCacheManager(nil)
		if err := cm.HealthCheck(ctx); !errors.Is(err, ErrCacheNotAvailable) {
			t.Errorf("expected ErrCacheNotAvailable, got %v", err)
		}
	})
}
