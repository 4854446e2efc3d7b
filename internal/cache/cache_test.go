package cache

import (
	"errors"
	"strconv"
	"sync"
	"testing"
)

func TestNewDefaultCapacity(t *testing.T) {
	c := New[string, int](0, nil)
	if got := c.Stats().Capacity; got != DefaultCapacity {
		t.Errorf("Capacity = %d, want %d", got, DefaultCapacity)
	}
}

func TestGetSet(t *testing.T) {
	c := New[string, int](4, nil)
	if _, ok := c.Get("a"); ok {
		t.Error("Get on empty cache should miss")
	}
	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Len != 1 {
		t.Errorf("Stats = %+v", s)
	}
}

func TestEvictionOrder(t *testing.T) {
	var evicted []string
	c := New[string, int](2, func(k string, _ int) { evicted = append(evicted, k) })

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // b is now least recently used
	c.Set("c", 3)

	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("evicted = %v, want [b]", evicted)
	}
	if _, ok := c.Get("b"); ok {
		t.Error("b should be gone")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
	if c.Stats().Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", c.Stats().Evictions)
	}
}

func TestSetReplaceEvictsOldValue(t *testing.T) {
	var old []int
	c := New[string, int](2, func(_ string, v int) { old = append(old, v) })
	c.Set("a", 1)
	c.Set("a", 2)
	if len(old) != 1 || old[0] != 1 {
		t.Errorf("evicted values = %v, want [1]", old)
	}
	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("Get(a) = %d, want 2", v)
	}
}

func TestGetOrCreate(t *testing.T) {
	c := New[string, int](4, nil)
	calls := 0
	create := func() (int, error) {
		calls++
		return 42, nil
	}
	for range 3 {
		v, err := c.GetOrCreate("k", create)
		if err != nil || v != 42 {
			t.Fatalf("GetOrCreate = %d, %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}

	errBoom := errors.New("boom")
	if _, err := c.GetOrCreate("bad", func() (int, error) { return 0, errBoom }); !errors.Is(err, errBoom) {
		t.Errorf("err = %v, want boom", err)
	}
	if _, ok := c.Get("bad"); ok {
		t.Error("failed create must not be stored")
	}
}

func TestDeleteAndClear(t *testing.T) {
	var evicted []string
	c := New[string, int](4, func(k string, _ int) { evicted = append(evicted, k) })
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	if !c.Delete("b") || c.Delete("b") {
		t.Error("Delete should succeed once")
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d", c.Len())
	}
	want := []string{"b", "a", "c"}
	if len(evicted) != len(want) {
		t.Fatalf("evicted = %v, want %v", evicted, want)
	}
	for i := range want {
		if evicted[i] != want[i] {
			t.Errorf("evicted = %v, want %v", evicted, want)
			break
		}
	}
}

func TestConcurrent(t *testing.T) {
	c := New[string, int](32, nil)
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				key := strconv.Itoa((g*200 + i) % 64)
				_, _ = c.GetOrCreate(key, func() (int, error) { return i, nil })
				c.Get(key)
			}
		}()
	}
	wg.Wait()
	if c.Len() > 32 {
		t.Errorf("Len = %d exceeds capacity", c.Len())
	}
}

func BenchmarkGet(b *testing.B) {
	c := New[string, int](128, nil)
	for i := range 100 {
		c.Set(strconv.Itoa(i), i)
	}
	b.ResetTimer()
	for range b.N {
		c.Get("50")
	}
}
