// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"github.com/google/resrepo/internal/cache"
	"github.com/sirupsen/logrus"
)

// Factory builds the repository for a path.
type Factory func(path, libraryName string) (*Repository, error)

// LibraryFactory returns a Factory that loads libraries with LoadLibrary.
func LibraryFactory(opts Options) Factory {
	return func(path, libraryName string) (*Repository, error) {
		o := opts
		o.LibraryName = libraryName
		return LoadLibrary(path, o)
	}
}

// Cache shares repositories between callers, keyed by path. A repository
// stays cached while some caller holds it and is rebuilt on demand after it
// has been collected. Concurrent requests for one path build it once.
type Cache struct {
	repos   cache.WeakCache[Repository]
	factory Factory
	log     logrus.FieldLogger
}

// NewCache returns an empty cache that builds repositories with factory.
func NewCache(factory Factory, log logrus.FieldLogger) *Cache {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Cache{factory: factory, log: log}
}

// GetOrCreate returns the repository for path, building it if necessary.
// Requesting a cached path under a different library name is a caller bug;
// it is logged and the cached repository is returned anyway.
func (c *Cache) GetOrCreate(path, libraryName string) (*Repository, error) {
	r, created, err := c.repos.GetOrCreate(path, func() (*Repository, error) {
		return c.factory(path, libraryName)
	})
	if err != nil {
		return nil, err
	}
	if !created && r.libraryName != libraryName {
		c.log.WithFields(logrus.Fields{
			"path":      path,
			"library":   libraryName,
			"cached_as": r.libraryName,
		}).Error("Repository requested under a different library name")
	}
	return r, nil
}

// Get returns the cached repository for path, if it is live.
func (c *Cache) Get(path string) (*Repository, bool) {
	r, err := c.repos.Get(path)
	return r, err == nil
}

// Remove drops the repository for path.
func (c *Cache) Remove(path string) {
	c.repos.Del(path)
}

// Clear drops every repository.
func (c *Cache) Clear() {
	c.repos.Clear()
}
