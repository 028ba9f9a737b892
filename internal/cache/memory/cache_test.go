package memory

import (
	"testing"
	"time"
)

func newTestCache(ttl time.Duration) (*Cache, *time.Time) {
	c := New(Config{TTL: ttl, SweepInterval: time.Hour})
	now := time.Unix(1700000000, 0)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestCache_SetAndGet(t *testing.T) {
	cache, _ := newTestCache(5 * time.Minute)
	defer cache.Stop()

	cache.Set("key", "value")

	got, ok := cache.Get("key")
	if !ok {
		t.Fatal("Get() should return ok=true for fresh entry")
	}
	if got != "value" {
		t.Errorf("Get() = %v, want %v", got, "value")
	}
}

func TestCache_GetNonExistent(t *testing.T) {
	cache, _ := newTestCache(5 * time.Minute)
	defer cache.Stop()

	got, ok := cache.Get("missing")
	if ok {
		t.Error("Get() should return ok=false for missing key")
	}
	if got != nil {
		t.Errorf("Get() = %v, want nil", got)
	}
}

func TestCache_TTLExpiration(t *testing.T) {
	cache, now := newTestCache(5 * time.Minute)
	defer cache.Stop()

	cache.Set("key", "value")

	*now = now.Add(5 * time.Minute)
	if _, ok := cache.Get("key"); !ok {
		t.Error("entry exactly at TTL should still be valid")
	}

	*now = now.Add(time.Millisecond)
	if _, ok := cache.Get("key"); ok {
		t.Error("entry past TTL should be a miss")
	}

	// протухшая запись удаляется при чтении
	if cache.Len() != 0 {
		t.Errorf("stale entry should be evicted on read, len = %d", cache.Len())
	}
}

func TestCache_Overwrite(t *testing.T) {
	cache, now := newTestCache(5 * time.Minute)
	defer cache.Stop()

	cache.Set("key", "old")
	*now = now.Add(4 * time.Minute)
	cache.Set("key", "new")

	// свежая перезапись сбрасывает возраст
	*now = now.Add(4 * time.Minute)
	got, ok := cache.Get("key")
	if !ok {
		t.Fatal("rewritten entry should still be fresh")
	}
	if got != "new" {
		t.Errorf("Get() = %v, want %v", got, "new")
	}
}

func TestCache_SweepRemovesOnlyStale(t *testing.T) {
	cache, now := newTestCache(5 * time.Minute)
	defer cache.Stop()

	cache.Set("old", 1)
	*now = now.Add(4 * time.Minute)
	cache.Set("fresh", 2)
	*now = now.Add(2 * time.Minute)

	cache.removeExpired()

	if _, ok := cache.Get("old"); ok {
		t.Error("sweep should remove entries older than TTL")
	}
	if _, ok := cache.Get("fresh"); !ok {
		t.Error("sweep must not remove fresh entries")
	}
}

func TestCache_Delete(t *testing.T) {
	cache, _ := newTestCache(5 * time.Minute)
	defer cache.Stop()

	cache.Set("key", "value")
	cache.Delete("key")

	if _, ok := cache.Get("key"); ok {
		t.Error("Get() after Delete() should miss")
	}
}

func TestCache_StopIdempotent(t *testing.T) {
	cache, _ := newTestCache(time.Minute)
	cache.Stop()
	cache.Stop() // не должно паниковать
}
