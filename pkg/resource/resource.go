// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package resource defines the resource item model shared by the loaders,
// the resource table, and the binary cache.
package resource

import (
	"strings"
)

// Type is the kind of a resource, e.g. string or drawable.
type Type uint8

// Resource types. The numbering is persisted by the binary cache; append only.
const (
	Unknown Type = iota
	Anim
	Animator
	Array
	Attr
	Bool
	Color
	Dimen
	Drawable
	Font
	Fraction
	ID
	Integer
	Interpolator
	Layout
	Menu
	Mipmap
	Navigation
	Plurals
	Raw
	String
	Style
	Styleable
	Transition
	XML
	numTypes
)

var typeNames = [...]string{
	Unknown:      "unknown",
	Anim:         "anim",
	Animator:     "animator",
	Array:        "array",
	Attr:         "attr",
	Bool:         "bool",
	Color:        "color",
	Dimen:        "dimen",
	Drawable:     "drawable",
	Font:         "font",
	Fraction:     "fraction",
	ID:           "id",
	Integer:      "integer",
	Interpolator: "interpolator",
	Layout:       "layout",
	Menu:         "menu",
	Mipmap:       "mipmap",
	Navigation:   "navigation",
	Plurals:      "plurals",
	Raw:          "raw",
	String:       "string",
	Style:        "style",
	Styleable:    "styleable",
	Transition:   "transition",
	XML:          "xml",
}

// String returns the name used in XML and resource references.
func (t Type) String() string {
	if t < numTypes {
		return typeNames[t]
	}
	return typeNames[Unknown]
}

// ParseType returns the Type for a resource type name.
func ParseType(name string) (Type, bool) {
	for t := Anim; t < numTypes; t++ {
		if typeNames[t] == name {
			return t, true
		}
	}
	return Unknown, false
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	return t > Unknown && t < numTypes
}

// FolderType returns the type of the file-based resources stored in a folder
// type such as "drawable". Values folders and unknown folders report false.
func FolderType(folder string) (Type, bool) {
	t, ok := ParseType(folder)
	if !ok {
		return Unknown, false
	}
	switch t {
	case Anim, Animator, Color, Drawable, Font, Interpolator, Layout, Menu, Mipmap, Navigation, Raw, Transition, XML:
		return t, true
	}
	return Unknown, false
}

// Visibility classifies whether a resource is part of a library's API.
type Visibility uint8

// Visibility values. The numbering is persisted by the binary cache.
const (
	Undefined Visibility = iota
	PrivateXMLOnly
	Private
	Public
)

func (v Visibility) String() string {
	switch v {
	case PrivateXMLOnly:
		return "private-xml-only"
	case Private:
		return "private"
	case Public:
		return "public"
	}
	return "undefined"
}

// Namespace is the URI of a resource namespace.
type Namespace string

// Well-known namespaces.
const (
	ResAuto Namespace = "http://schemas.android.com/apk/res-auto"
	Android Namespace = "http://schemas.android.com/apk/res/android"
	Tools   Namespace = "http://schemas.android.com/tools"
)

const packagePrefix = "http://schemas.android.com/apk/res/"

// PackageNamespace returns the namespace of an explicitly namespaced package.
func PackageNamespace(pkg string) Namespace {
	switch pkg {
	case "":
		return ResAuto
	case "android":
		return Android
	}
	return Namespace(packagePrefix + pkg)
}

// PackageName returns the package of the namespace, or "" for res-auto.
func (n Namespace) PackageName() string {
	if n == ResAuto {
		return ""
	}
	return strings.TrimPrefix(string(n), packagePrefix)
}

// Resolve maps the package prefix of a reference such as "android:color/black"
// to a namespace, relative to the namespace that contains the reference.
func (n Namespace) Resolve(pkg string) Namespace {
	if pkg == "" || pkg == n.PackageName() {
		return n
	}
	return PackageNamespace(pkg)
}

// Name is a parsed resource name such as "android:attr/textColor".
type Name struct {
	Package string
	Type    Type
	Entry   string
}

// ParseName parses "[package:][type/]entry", tolerating a leading '@', '?'
// or '*'. The type is Unknown when absent.
func ParseName(s string) Name {
	s = strings.TrimLeft(s, "@?")
	s = strings.TrimPrefix(s, "*")
	var n Name
	if pkg, rest, ok := strings.Cut(s, ":"); ok {
		n.Package, s = pkg, rest
	}
	if typ, entry, ok := strings.Cut(s, "/"); ok {
		n.Type, _ = ParseType(typ)
		s = entry
	}
	n.Entry = s
	return n
}
