// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package resource

import (
	"strings"

	"github.com/google/resrepo/pkg/resource/config"
)

// Item is a single resource declaration in one configuration.
//
// Items are immutable once added to a table. Index is the item's position in
// the owning table's arena and is assigned on insertion; any lookup that needs
// repository-level data (namespace, library name) goes through the owner.
type Item struct {
	Index      int
	Type       Type
	Name       string
	Visibility Visibility
	Config     *config.Configuration
	Value      Value
}

// Key identifies an item independently of its value.
type Key struct {
	Type       Type
	Name       string
	Visibility Visibility
}

// Key returns the identity of the item. Value differences do not affect it.
func (it *Item) Key() Key {
	return Key{Type: it.Type, Name: it.Name, Visibility: it.Visibility}
}

// Configuration returns the item's configuration, or the default one.
func (it *Item) Configuration() config.Configuration {
	if it.Config == nil {
		return config.Default
	}
	return *it.Config
}

// Kind tags the shape of an item's value payload.
type Kind uint8

// Value kinds. The numbering is persisted by the binary cache.
const (
	KindText Kind = iota + 1
	KindFile
	KindArray
	KindPlural
	KindAttr
	KindAttrRef
	KindStyle
	KindStyleable
)

// Value is the type-specific payload of an item. It is one of *TextValue,
// *FileValue, *ArrayValue, *PluralValue, *AttrValue, *AttrRefValue,
// *StyleValue or *StyleableValue.
type Value interface {
	Kind() Kind
}

// TextValue is a plain value such as a string, dimension, or color.
type TextValue struct {
	Text string
	// Null distinguishes an explicit @null from an empty value.
	Null bool
	// RawXML holds the unescaped markup of a styled string, if any.
	RawXML string
}

func (*TextValue) Kind() Kind { return KindText }

// FileValue is a file-based resource such as a drawable or layout.
type FileValue struct {
	// Path is relative to the repository origin, e.g. "res/drawable-hdpi/icon.png".
	Path string
	// Density is the density bucket of the containing folder, or zero.
	Density uint32
}

func (*FileValue) Kind() Kind { return KindFile }

// ArrayValue is an ordered list of elements.
type ArrayValue struct {
	Elements []string
}

func (*ArrayValue) Kind() Kind { return KindArray }

// Quantity is a plural category.
type Quantity uint8

// Plural quantities, in declaration order of the plural arity.
const (
	Zero Quantity = iota
	One
	Two
	Few
	Many
	Other
)

var quantityNames = [...]string{"zero", "one", "two", "few", "many", "other"}

func (q Quantity) String() string {
	if int(q) < len(quantityNames) {
		return quantityNames[q]
	}
	return "other"
}

// ParseQuantity parses a plural quantity name.
func ParseQuantity(s string) (Quantity, bool) {
	for i, n := range quantityNames {
		if n == s {
			return Quantity(i), true
		}
	}
	return Other, false
}

// PluralItem is one quantity string of a plural.
type PluralItem struct {
	Quantity Quantity
	Value    string
}

// PluralValue maps quantities to strings in declaration order.
type PluralValue struct {
	Items []PluralItem
}

func (*PluralValue) Kind() Kind { return KindPlural }

// Get returns the string for a quantity.
func (p *PluralValue) Get(q Quantity) (string, bool) {
	for _, it := range p.Items {
		if it.Quantity == q {
			return it.Value, true
		}
	}
	return "", false
}

// AttrSymbol is a named enum or flag value of an attr.
type AttrSymbol struct {
	Name        string
	Value       *int32
	Description string
}

// AttrValue is a full attr definition.
type AttrValue struct {
	Formats AttrFormats
	Symbols []AttrSymbol
}

func (*AttrValue) Kind() Kind { return KindAttr }

// AttrRefValue is an attr that is only referenced, or that is defined in a
// namespace other than the one owning the item.
type AttrRefValue struct {
	Namespace Namespace
}

func (*AttrRefValue) Kind() Kind { return KindAttrRef }

// StyleItem is one attribute setting of a style.
type StyleItem struct {
	Namespace Namespace
	Attr      string
	Value     string
}

// StyleValue is a style with an optional parent.
type StyleValue struct {
	// Parent is a style reference such as "@android:style/Theme", or "".
	Parent string
	Items  []StyleItem
}

func (*StyleValue) Kind() Kind { return KindStyle }

// Put sets an attribute. A later declaration of the same attribute replaces
// the value of the earlier one in place.
func (s *StyleValue) Put(ns Namespace, attr, value string) {
	for i := range s.Items {
		if s.Items[i].Namespace == ns && s.Items[i].Attr == attr {
			s.Items[i].Value = value
			return
		}
	}
	s.Items = append(s.Items, StyleItem{Namespace: ns, Attr: attr, Value: value})
}

// Get returns the value of an attribute.
func (s *StyleValue) Get(ns Namespace, attr string) (string, bool) {
	for _, it := range s.Items {
		if it.Namespace == ns && it.Attr == attr {
			return it.Value, true
		}
	}
	return "", false
}

// AttrRef names an attr in a namespace.
type AttrRef struct {
	Namespace Namespace
	Name      string
}

// StyleableValue lists attrs in declaration order. Duplicates are kept.
type StyleableValue struct {
	Attrs []AttrRef
}

func (*StyleableValue) Kind() Kind { return KindStyleable }

// AttrFormats is a set of allowed attr formats. Bit i corresponds to the
// format with ordinal i.
type AttrFormats uint32

// Attr formats, by ordinal.
const (
	FormatReference AttrFormats = 1 << iota
	FormatString
	FormatInteger
	FormatBoolean
	FormatColor
	FormatFloat
	FormatDimension
	FormatFraction
	FormatEnum
	FormatFlags
	numFormats = iota
)

var formatNames = [numFormats]string{
	"reference", "string", "integer", "boolean", "color", "float", "dimension", "fraction", "enum", "flags",
}

// ParseAttrFormats parses a "|"-separated format attribute value. Unknown
// formats are reported through ok.
func ParseAttrFormats(s string) (f AttrFormats, ok bool) {
	ok = true
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		found := false
		for i, n := range formatNames {
			if n == part {
				f |= 1 << i
				found = true
			}
		}
		ok = ok && found
	}
	return f, ok
}

// Has reports whether all formats in o are present.
func (f AttrFormats) Has(o AttrFormats) bool {
	return f&o == o
}

func (f AttrFormats) String() string {
	var parts []string
	for i, n := range formatNames {
		if f&(1<<i) != 0 {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, "|")
}
