// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
)

type value struct {
	name string
	// pad keeps the value out of the tiny allocator so it can be collected
	// independently.
	pad [64]byte
}

func TestWeakCache_GetOrCreate(t *testing.T) {
	var c WeakCache[value]
	v, created, err := c.GetOrCreate("key", func() (*value, error) { return &value{name: "a"}, nil })
	if err != nil || !created || v.name != "a" {
		t.Fatalf("GetOrCreate() = %v, %v, %v, want a, true, nil", v, created, err)
	}
	again, created, err := c.GetOrCreate("key", func() (*value, error) {
		t.Errorf("create called for a live key")
		return nil, nil
	})
	if err != nil || created || again != v {
		t.Errorf("GetOrCreate() = %p, %v, %v, want %p, false, nil", again, created, err, v)
	}
	got, err := c.Get("key")
	if err != nil || got != v {
		t.Errorf("Get() = %p, %v, want %p", got, err, v)
	}
	runtime.KeepAlive(v)
}

func TestWeakCache_Error(t *testing.T) {
	var c WeakCache[value]
	foo := errors.New("foo")
	if _, _, err := c.GetOrCreate("key", func() (*value, error) { return nil, foo }); err != foo {
		t.Fatalf("GetOrCreate() = %v, want %v", err, foo)
	}
	if _, err := c.Get("key"); err != ErrNotExist {
		t.Errorf("Get() after failed create = %v, want ErrNotExist", err)
	}
	v, created, err := c.GetOrCreate("key", func() (*value, error) { return &value{name: "b"}, nil })
	if err != nil || !created || v.name != "b" {
		t.Errorf("GetOrCreate() retry = %v, %v, %v", v, created, err)
	}
	runtime.KeepAlive(v)
}

func TestWeakCache_SingleFlight(t *testing.T) {
	var c WeakCache[value]
	var calls atomic.Int32
	release := make(chan struct{})
	const n = 8
	results := make([]*value, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, err := c.GetOrCreate("key", func() (*value, error) {
				calls.Add(1)
				<-release
				return &value{name: "shared"}, nil
			})
			if err != nil {
				t.Errorf("GetOrCreate() failed: %v", err)
			}
			results[i] = v
		}()
	}
	close(release)
	wg.Wait()
	// Late arrivals either joined the flight or found the stored value.
	if got := calls.Load(); got != 1 {
		t.Errorf("create called %d times, want 1", got)
	}
	for i, v := range results {
		if v != results[0] {
			t.Errorf("results[%d] = %p, want %p", i, v, results[0])
		}
	}
	runtime.KeepAlive(results)
}

func TestWeakCache_DelClear(t *testing.T) {
	var c WeakCache[value]
	a, _, _ := c.GetOrCreate("a", func() (*value, error) { return &value{name: "a"}, nil })
	b, _, _ := c.GetOrCreate("b", func() (*value, error) { return &value{name: "b"}, nil })
	c.Del("a")
	if _, err := c.Get("a"); err != ErrNotExist {
		t.Errorf("Get(a) after Del = %v, want ErrNotExist", err)
	}
	if got, err := c.Get("b"); err != nil || got != b {
		t.Errorf("Get(b) after Del(a) = %p, %v, want %p", got, err, b)
	}
	fresh, created, _ := c.GetOrCreate("a", func() (*value, error) { return &value{name: "a2"}, nil })
	if !created || fresh == a {
		t.Errorf("GetOrCreate(a) after Del returned the old value")
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
	runtime.KeepAlive(a)
	runtime.KeepAlive(b)
	runtime.KeepAlive(fresh)
}

func TestWeakCache_DelDuringCreate(t *testing.T) {
	var c WeakCache[value]
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan *value)
	go func() {
		v, _, _ := c.GetOrCreate("key", func() (*value, error) {
			close(started)
			<-release
			return &value{name: "stale"}, nil
		})
		done <- v
	}()
	<-started
	c.Del("key")
	close(release)
	v := <-done
	if v == nil || v.name != "stale" {
		t.Fatalf("in-flight GetOrCreate() = %v, want stale", v)
	}
	if _, err := c.Get("key"); err != ErrNotExist {
		t.Errorf("Get() = %v, want ErrNotExist for a creation invalidated mid-flight", err)
	}
	runtime.KeepAlive(v)
}

func TestWeakCache_Collected(t *testing.T) {
	var c WeakCache[value]
	func() {
		_, _, err := c.GetOrCreate("key", func() (*value, error) { return &value{name: "tmp"}, nil })
		if err != nil {
			t.Fatalf("GetOrCreate() failed: %v", err)
		}
	}()
	for range 10 {
		runtime.GC()
		if _, err := c.Get("key"); err == ErrNotExist {
			return
		}
	}
	t.Errorf("value still cached after it became unreachable")
}
