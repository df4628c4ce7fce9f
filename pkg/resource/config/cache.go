// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package config

// Cache deduplicates configurations during a single load so that items in
// the same configuration share one instance. It is not safe for concurrent use.
type Cache struct {
	byValue map[Configuration]*Configuration
	byKey   map[string]*Configuration
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{
		byValue: make(map[Configuration]*Configuration),
		byKey:   make(map[string]*Configuration),
	}
}

// Intern returns the shared instance equal to c.
func (cc *Cache) Intern(c Configuration) *Configuration {
	if p, ok := cc.byValue[c]; ok {
		return p
	}
	p := &c
	cc.byValue[c] = p
	return p
}

// InternKey returns the instance recorded under an encoded form, decoding and
// interning it on first use. Distinct encodings of an equal configuration
// resolve to the same instance.
func (cc *Cache) InternKey(key string, decode func() (Configuration, error)) (*Configuration, error) {
	if p, ok := cc.byKey[key]; ok {
		return p, nil
	}
	c, err := decode()
	if err != nil {
		return nil, err
	}
	p := cc.Intern(c)
	cc.byKey[key] = p
	return p, nil
}

// Len returns the number of distinct configurations seen.
func (cc *Cache) Len() int {
	return len(cc.byValue)
}
