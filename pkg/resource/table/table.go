// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package table provides the arena-backed resource table populated by the
// loaders and shared read-only once frozen.
package table

import (
	"iter"
	"slices"

	"github.com/google/resrepo/pkg/resource"
	"github.com/pkg/errors"
)

// ErrFrozen is returned when adding to a frozen table.
var ErrFrozen = errors.New("table is frozen")

// Table maps namespace -> type -> name -> items, preserving insertion order
// at every level. Within one (namespace, type, name) bucket no two items
// share an equal configuration.
//
// A Table is populated by a single goroutine and must be frozen before it is
// shared; a frozen table is safe for concurrent reads.
type Table struct {
	arena      []*resource.Item
	namespaces []resource.Namespace
	byNS       map[resource.Namespace]*nsEntry
	frozen     bool
}

type nsEntry struct {
	types  []resource.Type
	byType map[resource.Type]*typeEntry
}

type typeEntry struct {
	names  []string
	byName map[string][]int
}

// New returns an empty table.
func New() *Table {
	return &Table{byNS: make(map[resource.Namespace]*nsEntry)}
}

// Add inserts an item into the namespace and assigns its arena index. An
// existing item of the same name in an equal configuration is replaced,
// keeping its position, and replaced reports true.
func (t *Table) Add(ns resource.Namespace, it *resource.Item) (replaced bool, err error) {
	if t.frozen {
		return false, ErrFrozen
	}
	if !it.Type.Valid() {
		return false, errors.Errorf("adding %q: invalid type %d", it.Name, it.Type)
	}
	nse, ok := t.byNS[ns]
	if !ok {
		nse = &nsEntry{byType: make(map[resource.Type]*typeEntry)}
		t.byNS[ns] = nse
		t.namespaces = append(t.namespaces, ns)
	}
	te, ok := nse.byType[it.Type]
	if !ok {
		te = &typeEntry{byName: make(map[string][]int)}
		nse.byType[it.Type] = te
		nse.types = append(nse.types, it.Type)
	}
	bucket, ok := te.byName[it.Name]
	if !ok {
		te.names = append(te.names, it.Name)
	}
	for _, idx := range bucket {
		if t.arena[idx].Configuration() == it.Configuration() {
			it.Index = idx
			t.arena[idx] = it
			return true, nil
		}
	}
	it.Index = len(t.arena)
	t.arena = append(t.arena, it)
	te.byName[it.Name] = append(bucket, it.Index)
	return false, nil
}

// Freeze makes the table read-only.
func (t *Table) Freeze() {
	t.frozen = true
}

// Frozen reports whether the table is read-only.
func (t *Table) Frozen() bool {
	return t.frozen
}

// Len returns the number of items.
func (t *Table) Len() int {
	return len(t.arena)
}

// ItemAt returns the item with the given arena index.
func (t *Table) ItemAt(i int) *resource.Item {
	if i < 0 || i >= len(t.arena) {
		return nil
	}
	return t.arena[i]
}

// Items returns the items of a bucket in insertion order, or nil.
func (t *Table) Items(ns resource.Namespace, typ resource.Type, name string) []*resource.Item {
	te := t.typeEntry(ns, typ)
	if te == nil {
		return nil
	}
	bucket := te.byName[name]
	if len(bucket) == 0 {
		return nil
	}
	items := make([]*resource.Item, len(bucket))
	for i, idx := range bucket {
		items[i] = t.arena[idx]
	}
	return items
}

// Namespaces returns the namespaces present, in insertion order.
func (t *Table) Namespaces() []resource.Namespace {
	return slices.Clone(t.namespaces)
}

// Types returns the types present in a namespace, in insertion order.
func (t *Table) Types(ns resource.Namespace) []resource.Type {
	nse, ok := t.byNS[ns]
	if !ok {
		return nil
	}
	return slices.Clone(nse.types)
}

// Names returns the names of a type in a namespace, in insertion order.
func (t *Table) Names(ns resource.Namespace, typ resource.Type) []string {
	te := t.typeEntry(ns, typ)
	if te == nil {
		return nil
	}
	return slices.Clone(te.names)
}

// PublicNames returns the sorted names of public items of a type across all
// namespaces.
func (t *Table) PublicNames(typ resource.Type) []string {
	var names []string
	for _, it := range t.arena {
		if it.Type == typ && it.Visibility == resource.Public {
			names = append(names, it.Name)
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// All iterates over every item grouped by namespace, type and name, in
// insertion order.
func (t *Table) All() iter.Seq2[resource.Namespace, *resource.Item] {
	return func(yield func(resource.Namespace, *resource.Item) bool) {
		for _, ns := range t.namespaces {
			nse := t.byNS[ns]
			for _, typ := range nse.types {
				te := nse.byType[typ]
				for _, name := range te.names {
					for _, idx := range te.byName[name] {
						if !yield(ns, t.arena[idx]) {
							return
						}
					}
				}
			}
		}
	}
}

func (t *Table) typeEntry(ns resource.Namespace, typ resource.Type) *typeEntry {
	nse, ok := t.byNS[ns]
	if !ok {
		return nil
	}
	return nse.byType[typ]
}
