// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package cache provides a memoizing cache whose values may be reclaimed by
// the garbage collector once no caller holds them.
package cache

import (
	"runtime"
	"sync"
	"weak"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

// ErrNotExist is returned when a key has no live value in the cache.
var ErrNotExist = errors.New("does not exist")

// WeakCache maps string keys to values held through weak pointers. Concurrent
// creations for the same key are coalesced so that at most one runs at a
// time; creations for different keys proceed in parallel.
//
// A value stays cached while anything outside the cache references it. Once
// it is collected, the entry is dropped and the next GetOrCreate rebuilds it.
type WeakCache[V any] struct {
	entries sync.Map // key -> weak.Pointer[V]
	sf      singleflight.Group

	// Generations are bumped by Del and Clear so that creations started
	// before an invalidation do not repopulate the cache.
	mu  sync.Mutex
	gen map[string]uint64
	all uint64
}

func (c *WeakCache[V]) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.all + c.gen[key]
}

func (c *WeakCache[V]) bump(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen == nil {
		c.gen = make(map[string]uint64)
	}
	c.gen[key]++
}

// Get returns the live value for key, or ErrNotExist.
func (c *WeakCache[V]) Get(key string) (*V, error) {
	if v := c.load(key); v != nil {
		return v, nil
	}
	return nil, ErrNotExist
}

func (c *WeakCache[V]) load(key string) *V {
	wp, ok := c.entries.Load(key)
	if !ok {
		return nil
	}
	v := wp.(weak.Pointer[V]).Value()
	if v == nil {
		c.entries.CompareAndDelete(key, wp)
	}
	return v
}

// GetOrCreate returns the live value for key, calling create if there is
// none. Concurrent calls for the same key share a single create call. A
// failed create is not cached.
func (c *WeakCache[V]) GetOrCreate(key string, create func() (*V, error)) (v *V, created bool, err error) {
	if v := c.load(key); v != nil {
		return v, false, nil
	}
	res, err, _ := c.sf.Do(key, func() (any, error) {
		if v := c.load(key); v != nil {
			return v, nil
		}
		gen := c.generation(key)
		v, err := create()
		if err != nil {
			return nil, err
		}
		if c.generation(key) == gen {
			c.store(key, v)
		}
		created = true
		return v, nil
	})
	if err != nil {
		return nil, false, err
	}
	return res.(*V), created, nil
}

func (c *WeakCache[V]) store(key string, v *V) {
	wp := weak.Make(v)
	c.entries.Store(key, wp)
	runtime.AddCleanup(v, func(key string) {
		c.entries.CompareAndDelete(key, wp)
	}, key)
}

// Del drops the entry for key. A creation already in flight for key still
// returns its value to its callers but does not repopulate the cache.
func (c *WeakCache[V]) Del(key string) {
	c.bump(key)
	c.sf.Forget(key)
	c.entries.Delete(key)
}

// Clear drops every entry.
func (c *WeakCache[V]) Clear() {
	c.mu.Lock()
	c.all++
	c.mu.Unlock()
	c.entries.Range(func(key, _ any) bool {
		c.sf.Forget(key.(string))
		c.entries.Delete(key)
		return true
	})
}

// Len returns the number of entries, including any whose value has been
// collected but not yet dropped.
func (c *WeakCache[V]) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
