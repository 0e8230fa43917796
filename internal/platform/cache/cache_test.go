package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"phineas/internal/testutil"
)

func TestNew_DefaultCapacity(t *testing.T) {
	c := New[string](0, 0)
	testutil.AssertEqual(t, c.capacity, DefaultCapacity, "default capacity")
	testutil.AssertEqual(t, c.Len(), 0, "empty cache")
}

func TestLRU_SetGet(t *testing.T) {
	c := New[[]byte](4, 0)
	c.Set("a", []byte("1"))

	v, ok := c.Get("a")
	testutil.AssertTrue(t, ok, "hit")
	testutil.AssertEqual(t, string(v), "1", "value")

	_, ok = c.Get("missing")
	testutil.AssertFalse(t, ok, "miss")

	c.Set("a", []byte("2"))
	v, _ = c.Get("a")
	testutil.AssertEqual(t, string(v), "2", "replaced value")
	testutil.AssertEqual(t, c.Len(), 1, "replace keeps size")

	hits, misses := c.Stats()
	testutil.AssertEqual(t, hits, 2, "hits")
	testutil.AssertEqual(t, misses, 1, "misses")
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New[int](2, 0)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // "b" pasa a ser el menos usado
	c.Set("c", 3)

	_, ok := c.Get("b")
	testutil.AssertFalse(t, ok, "b evicted")
	_, ok = c.Get("a")
	testutil.AssertTrue(t, ok, "a kept")
	_, ok = c.Get("c")
	testutil.AssertTrue(t, ok, "c kept")
}

func TestLRU_TTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New[string](4, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	now = now.Add(30 * time.Second)
	_, ok := c.Get("k")
	testutil.AssertTrue(t, ok, "fresh entry")

	now = now.Add(time.Minute)
	_, ok = c.Get("k")
	testutil.AssertFalse(t, ok, "expired entry")
	testutil.AssertEqual(t, c.Len(), 0, "expired entry removed")
}

func TestLRU_Delete(t *testing.T) {
	c := New[int](4, 0)
	c.Set("a", 1)
	c.Delete("a")
	c.Delete("missing")

	_, ok := c.Get("a")
	testutil.AssertFalse(t, ok, "deleted")
}

func TestLRU_Concurrent(t *testing.T) {
	c := New[int](50, 0)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("k%d", i%60)
				c.Set(key, g)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()

	testutil.AssertTrue(t, c.Len() <= 50, "capacity respected")
}
