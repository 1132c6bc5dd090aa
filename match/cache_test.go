package match

import (
	"sync"
	"testing"
)

func TestChannelCachePutGetEvict(t *testing.T) {
	c := NewChannelCache()

	if got := c.Get("m1"); len(got) != 0 {
		t.Fatalf("Get on empty cache = %v, want empty", got)
	}

	c.Put("m1", "faction1", Entry{ChannelID: "c1", Members: []string{"u1"}})
	c.Put("m1", "faction2", Entry{ChannelID: "c2"})
	c.Put("m2", "faction1", Entry{ChannelID: "c3"})

	got := c.Get("m1")
	if got["faction1"] != "c1" || got["faction2"] != "c2" {
		t.Errorf("Get(m1) = %v", got)
	}
	if c.Size() != 3 {
		t.Errorf("Size() = %d, want 3", c.Size())
	}

	e, ok := c.Lookup("m1", "faction1")
	if !ok || e.ChannelID != "c1" || len(e.Members) != 1 {
		t.Errorf("Lookup(m1, faction1) = %+v, %v", e, ok)
	}

	c.Evict("m1", "faction1")
	if _, ok := c.Lookup("m1", "faction1"); ok {
		t.Error("entry still present after Evict")
	}
	if got := c.Get("m1"); len(got) != 1 {
		t.Errorf("Get(m1) after evict = %v, want one entry", got)
	}

	c.EvictAll("m1")
	if got := c.Get("m1"); len(got) != 0 {
		t.Errorf("Get(m1) after EvictAll = %v, want empty", got)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestChannelCacheSnapshotIsCopy(t *testing.T) {
	c := NewChannelCache()
	c.Put("m1", "faction1", Entry{ChannelID: "c1"})

	snap := c.Snapshot()
	snap["m1"]["faction1"] = "mutated"
	snap["m9"] = map[string]string{"faction1": "x"}

	if got := c.Get("m1"); got["faction1"] != "c1" {
		t.Errorf("cache mutated through snapshot: %v", got)
	}
	if got := c.Get("m9"); len(got) != 0 {
		t.Errorf("cache gained entry through snapshot: %v", got)
	}
}

func TestChannelCacheConcurrentAccess(t *testing.T) {
	c := NewChannelCache()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Put("m1", "faction1", Entry{ChannelID: "c1"})
			c.Get("m1")
			c.Lookup("m1", "faction1")
			c.Evict("m1", "faction1")
		}()
	}
	wg.Wait()
}

func TestKeyedMutexExcludesSameKey(t *testing.T) {
	km := newKeyedMutex()
	var counter, max int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.lock("m1/faction1")
			defer unlock()
			mu.Lock()
			counter++
			if counter > max {
				max = counter
			}
			mu.Unlock()
			mu.Lock()
			counter--
			mu.Unlock()
		}()
	}
	wg.Wait()
	if max != 1 {
		t.Errorf("max concurrent holders for same key = %d, want 1", max)
	}
	km.mu.Lock()
	if len(km.locks) != 0 {
		t.Errorf("lock table not cleaned up: %d entries", len(km.locks))
	}
	km.mu.Unlock()
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := newKeyedMutex()
	unlock1 := km.lock("m1/faction1")
	done := make(chan struct{})
	go func() {
		unlock2 := km.lock("m1/faction2")
		unlock2()
		close(done)
	}()
	<-done // would deadlock if keys shared a lock
	unlock1()
}
