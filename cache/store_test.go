package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestStore(t *testing.T, ttl time.Duration, capacity int) (*Store[string, string], *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
	return New[string, string]("test", ttl, capacity, WithClock[string, string](clock.Now)), clock
}

func TestGetSetRoundTrip(t *testing.T) {
	store, _ := newTestStore(t, time.Minute, 10)

	store.Set("a", "alpha")
	got, ok := store.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "alpha", got)
}

func TestGetMissingKey(t *testing.T) {
	store, _ := newTestStore(t, time.Minute, 10)

	_, ok := store.Get("nope")
	assert.False(t, ok)

	stats := store.Stats()
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestCapacityNeverExceeded(t *testing.T) {
	store, _ := newTestStore(t, time.Minute, 3)

	for _, k := range []string{"a", "b", "c", "d", "e"} {
		store.Set(k, k)
		assert.LessOrEqual(t, store.Stats().Entries, 3)
	}
	assert.Equal(t, int64(2), store.Stats().Evictions)
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	store, _ := newTestStore(t, time.Minute, 3)

	store.Set("a", "1")
	store.Set("b", "2")
	store.Set("c", "3")

	// Touch "a" so "b" becomes the oldest.
	_, ok := store.Get("a")
	assert.True(t, ok)

	store.Set("d", "4")

	_, ok = store.Get("b")
	assert.False(t, ok, "least-recently-used entry should have been evicted")
	for _, k := range []string{"a", "c", "d"} {
		_, ok := store.Get(k)
		assert.True(t, ok, "entry %q should survive", k)
	}
}

func TestSetPromotesRecency(t *testing.T) {
	store, _ := newTestStore(t, time.Minute, 2)

	store.Set("a", "1")
	store.Set("b", "2")
	store.Set("a", "updated") // overwrite moves "a" to the fresh end

	store.Set("c", "3")

	_, ok := store.Get("b")
	assert.False(t, ok)
	got, ok := store.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "updated", got)
}

func TestExpiredEntryIsRemovedOnGet(t *testing.T) {
	store, clock := newTestStore(t, time.Minute, 10)

	store.Set("a", "1")
	clock.Advance(2 * time.Minute)

	_, ok := store.Get("a")
	assert.False(t, ok)

	stats := store.Stats()
	assert.Equal(t, 0, stats.Entries)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestOverwriteResetsTTL(t *testing.T) {
	store, clock := newTestStore(t, time.Minute, 10)

	store.Set("a", "1")
	clock.Advance(45 * time.Second)
	store.Set("a", "2")
	clock.Advance(45 * time.Second)

	got, ok := store.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "2", got)
}

func TestFlushIdempotence(t *testing.T) {
	store, _ := newTestStore(t, time.Minute, 10)

	store.Set("a", "1")
	store.Set("b", "2")
	_, _ = store.Get("a")

	assert.Equal(t, 2, store.Flush())
	assert.Equal(t, 0, store.Flush())

	// Counters survive the flush.
	stats := store.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, 0, stats.Entries)
}

func TestStatsPurgesExpired(t *testing.T) {
	store, clock := newTestStore(t, time.Minute, 10)

	store.Set("a", "1")
	store.Set("b", "2")
	clock.Advance(2 * time.Minute)
	store.Set("c", "3")

	stats := store.Stats()
	assert.Equal(t, 1, stats.Entries)
}

func TestHitRateSentinel(t *testing.T) {
	store, _ := newTestStore(t, time.Minute, 10)

	assert.Equal(t, "n/a", store.Stats().HitRate)

	store.Set("a", "1")
	_, _ = store.Get("a")
	_, _ = store.Get("missing")
	assert.Equal(t, "50.0%", store.Stats().HitRate)
}

type countingObserver struct {
	hits, misses, evictions int
}

func (o *countingObserver) Hit(string)      { o.hits++ }
func (o *countingObserver) Miss(string)     { o.misses++ }
func (o *countingObserver) Eviction(string) { o.evictions++ }

func TestObserverNotifications(t *testing.T) {
	obs := &countingObserver{}
	store := New[string, int]("obs", time.Minute, 1, WithObserver[string, int](obs))

	store.Set("a", 1)
	store.Set("b", 2)
	_, _ = store.Get("b")
	_, _ = store.Get("a")

	assert.Equal(t, 1, obs.hits)
	assert.Equal(t, 1, obs.misses)
	assert.Equal(t, 1, obs.evictions)
}
