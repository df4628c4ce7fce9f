// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package resproto contains Go representations of the compiled resource table
// and proto XML messages written by the resource compiler, along with a
// decoder for their wire format.
//
// Only the fields consumed by the resource repository are represented;
// unknown fields are skipped.
package resproto

// ResourceTable is the top-level message of a resources.pb file.
type ResourceTable struct {
	Packages []*Package
}

// Package holds the types of one resource package.
type Package struct {
	ID    uint32
	Name  string
	Types []*Type
}

// Type holds the entries of one resource type.
type Type struct {
	ID      uint32
	Name    string
	Entries []*Entry
}

// Entry is a named resource with its values in each configuration.
type Entry struct {
	ID           uint32
	Name         string
	Visibility   *Visibility
	ConfigValues []*ConfigValue
}

// VisibilityLevel is the declared visibility of an entry.
type VisibilityLevel uint32

// Visibility levels.
const (
	LevelUnknown VisibilityLevel = iota
	LevelPrivate
	LevelPublic
)

// Visibility is the visibility declaration of an entry.
type Visibility struct {
	Level   VisibilityLevel
	Comment string
}

// ConfigValue is a value in one configuration.
type ConfigValue struct {
	Config *Configuration
	// ConfigBytes is the encoded configuration, usable as a dedup key.
	ConfigBytes []byte
	Value       *Value
}

// Value is either an Item or a CompoundValue.
type Value struct {
	Comment  string
	Weak     bool
	Item     *Item
	Compound *CompoundValue
}

// ItemKind tags the case of an Item.
type ItemKind uint8

// Item cases.
const (
	ItemNone ItemKind = iota
	ItemRef
	ItemString
	ItemRawString
	ItemStyledString
	ItemFile
	ItemID
	ItemPrimitive
)

// Item is a simple value.
type Item struct {
	Kind ItemKind
	Ref  *Reference
	// Str holds the value of string and raw string items.
	Str       string
	StyledStr *StyledString
	File      *FileReference
	Prim      *Primitive
}

// ReferenceType distinguishes @ from ? references.
type ReferenceType uint32

// Reference types.
const (
	RefReference ReferenceType = iota
	RefAttribute
)

// Reference points at another resource by id and name.
type Reference struct {
	Type    ReferenceType
	ID      uint32
	Name    string
	Private bool
}

// Span is a styling span over UTF-16 code units [FirstChar, LastChar].
type Span struct {
	Tag       string
	FirstChar uint32
	LastChar  uint32
}

// StyledString is a string with markup spans.
type StyledString struct {
	Value string
	Spans []*Span
}

// FileReference points at a file inside the archive.
type FileReference struct {
	Path string
	Type uint32
}

// PrimitiveKind tags the case of a Primitive.
type PrimitiveKind uint8

// Primitive cases.
const (
	PrimNone PrimitiveKind = iota
	PrimNull
	PrimEmpty
	PrimFloat
	PrimDimension
	PrimFraction
	PrimIntDecimal
	PrimIntHexadecimal
	PrimBoolean
	PrimColorARGB8
	PrimColorRGB8
	PrimColorARGB4
	PrimColorRGB4
	PrimDimensionFloat // deprecated float-valued dimension
	PrimFractionFloat  // deprecated float-valued fraction
)

// Primitive is a packed scalar. Data holds the raw 32 bits; floats are
// stored as their IEEE-754 bits.
type Primitive struct {
	Kind PrimitiveKind
	Data uint32
}

// CompoundKind tags the case of a CompoundValue.
type CompoundKind uint8

// Compound value cases.
const (
	CompoundNone CompoundKind = iota
	CompoundAttr
	CompoundStyle
	CompoundStyleable
	CompoundArray
	CompoundPlural
	CompoundMacro
)

// CompoundValue is a structured value.
type CompoundValue struct {
	Kind      CompoundKind
	Attr      *Attribute
	Style     *Style
	Styleable *Styleable
	Array     *Array
	Plural    *Plural
}

// Attribute format flags.
const (
	FormatAny       = 0x0000ffff
	FormatReference = 0x01
	FormatString    = 0x02
	FormatInteger   = 0x04
	FormatBoolean   = 0x08
	FormatColor     = 0x10
	FormatFloat     = 0x20
	FormatDimension = 0x40
	FormatFraction  = 0x80
	FormatEnum      = 0x00010000
	FormatFlags     = 0x00020000
)

// Attribute is an attr definition.
type Attribute struct {
	FormatFlags uint32
	MinInt      int32
	MaxInt      int32
	Symbols     []*Symbol
}

// Symbol is an enum or flag value of an attr.
type Symbol struct {
	Comment string
	Name    *Reference
	Value   uint32
	Type    uint32
}

// Style is a style definition.
type Style struct {
	Parent  *Reference
	Entries []*StyleEntry
}

// StyleEntry is one attribute setting of a style.
type StyleEntry struct {
	Comment string
	Key     *Reference
	Item    *Item
}

// Styleable is a declare-styleable group.
type Styleable struct {
	Entries []*StyleableEntry
}

// StyleableEntry references one attr of a styleable.
type StyleableEntry struct {
	Comment string
	Attr    *Reference
}

// Array is an array resource.
type Array struct {
	Elements []*Item
}

// Plural arities.
const (
	ArityZero uint32 = iota
	ArityOne
	ArityTwo
	ArityFew
	ArityMany
	ArityOther
)

// Plural is a plurals resource.
type Plural struct {
	Entries []*PluralEntry
}

// PluralEntry is the value of one arity.
type PluralEntry struct {
	Comment string
	Arity   uint32
	Item    *Item
}

// Configuration is the device configuration message. Enumerated fields use
// the same numbering as the config package.
type Configuration struct {
	MCC                   uint32
	MNC                   uint32
	Locale                string
	LayoutDirection       uint32
	ScreenWidth           uint32
	ScreenHeight          uint32
	ScreenWidthDP         uint32
	ScreenHeightDP        uint32
	SmallestScreenWidthDP uint32
	ScreenLayoutSize      uint32
	ScreenLayoutLong      uint32
	ScreenRound           uint32
	WideColorGamut        uint32
	HDR                   uint32
	Orientation           uint32
	UIModeType            uint32
	UIModeNight           uint32
	Density               uint32
	Touchscreen           uint32
	KeysHidden            uint32
	Keyboard              uint32
	NavHidden             uint32
	Navigation            uint32
	SDKVersion            uint32
	Product               string
}

// XMLNode is an element or a text node of a compiled XML file.
type XMLNode struct {
	Element *XMLElement
	Text    string
	Line    uint32
	Column  uint32
}

// XMLElement is an element with its namespace declarations, attributes and
// children.
type XMLElement struct {
	Namespaces   []*XMLNamespace
	NamespaceURI string
	Name         string
	Attributes   []*XMLAttribute
	Children     []*XMLNode
}

// XMLNamespace is a namespace declaration.
type XMLNamespace struct {
	Prefix string
	URI    string
}

// XMLAttribute is an attribute of an element.
type XMLAttribute struct {
	NamespaceURI string
	Name         string
	Value        string
	ResourceID   uint32
}
