// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package resprototest encodes resproto messages for use as test fixtures.
package resprototest

import (
	"github.com/google/resrepo/pkg/resproto"
	"google.golang.org/protobuf/encoding/protowire"
)

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	return appendBytes(b, num, []byte(s))
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendID(b []byte, num protowire.Number, id uint32) []byte {
	if id == 0 {
		return b
	}
	return appendBytes(b, num, appendVarint(nil, 1, uint64(id)))
}

// MarshalResourceTable encodes a resource table.
func MarshalResourceTable(t *resproto.ResourceTable) []byte {
	var b []byte
	for _, p := range t.Packages {
		b = appendBytes(b, 2, marshalPackage(p))
	}
	return b
}

func marshalPackage(p *resproto.Package) []byte {
	var b []byte
	b = appendID(b, 1, p.ID)
	b = appendString(b, 2, p.Name)
	for _, t := range p.Types {
		b = appendBytes(b, 3, marshalType(t))
	}
	return b
}

func marshalType(t *resproto.Type) []byte {
	var b []byte
	b = appendID(b, 1, t.ID)
	b = appendString(b, 2, t.Name)
	for _, e := range t.Entries {
		b = appendBytes(b, 3, marshalEntry(e))
	}
	return b
}

func marshalEntry(e *resproto.Entry) []byte {
	var b []byte
	b = appendID(b, 1, e.ID)
	b = appendString(b, 2, e.Name)
	if e.Visibility != nil {
		var v []byte
		v = appendVarint(v, 1, uint64(e.Visibility.Level))
		v = appendString(v, 3, e.Visibility.Comment)
		b = appendBytes(b, 3, v)
	}
	for _, cv := range e.ConfigValues {
		var c []byte
		if cv.Config != nil {
			c = appendBytes(c, 1, MarshalConfiguration(cv.Config))
		}
		if cv.Value != nil {
			c = appendBytes(c, 2, marshalValue(cv.Value))
		}
		b = appendBytes(b, 6, c)
	}
	return b
}

// MarshalConfiguration encodes a configuration.
func MarshalConfiguration(c *resproto.Configuration) []byte {
	var b []byte
	b = appendVarint(b, 1, uint64(c.MCC))
	b = appendVarint(b, 2, uint64(c.MNC))
	b = appendString(b, 3, c.Locale)
	for _, f := range []struct {
		num protowire.Number
		v   uint32
	}{
		{4, c.LayoutDirection},
		{5, c.ScreenWidth},
		{6, c.ScreenHeight},
		{7, c.ScreenWidthDP},
		{8, c.ScreenHeightDP},
		{9, c.SmallestScreenWidthDP},
		{10, c.ScreenLayoutSize},
		{11, c.ScreenLayoutLong},
		{12, c.ScreenRound},
		{13, c.WideColorGamut},
		{14, c.HDR},
		{15, c.Orientation},
		{16, c.UIModeType},
		{17, c.UIModeNight},
		{18, c.Density},
		{19, c.Touchscreen},
		{20, c.KeysHidden},
		{21, c.Keyboard},
		{22, c.NavHidden},
		{23, c.Navigation},
		{24, c.SDKVersion},
	} {
		b = appendVarint(b, f.num, uint64(f.v))
	}
	b = appendString(b, 25, c.Product)
	return b
}

func marshalValue(v *resproto.Value) []byte {
	var b []byte
	b = appendString(b, 2, v.Comment)
	if v.Weak {
		b = appendVarint(b, 3, 1)
	}
	if v.Item != nil {
		b = appendBytes(b, 4, marshalItem(v.Item))
	}
	if v.Compound != nil {
		b = appendBytes(b, 5, marshalCompound(v.Compound))
	}
	return b
}

func marshalReference(r *resproto.Reference) []byte {
	var b []byte
	b = appendVarint(b, 1, uint64(r.Type))
	b = appendVarint(b, 2, uint64(r.ID))
	b = appendString(b, 3, r.Name)
	if r.Private {
		b = appendVarint(b, 4, 1)
	}
	return b
}

func marshalItem(it *resproto.Item) []byte {
	switch it.Kind {
	case resproto.ItemRef:
		return appendBytes(nil, 1, marshalReference(it.Ref))
	case resproto.ItemString:
		return appendBytes(nil, 2, appendString(nil, 1, it.Str))
	case resproto.ItemRawString:
		return appendBytes(nil, 3, appendString(nil, 1, it.Str))
	case resproto.ItemStyledString:
		var s []byte
		s = appendString(s, 1, it.StyledStr.Value)
		for _, sp := range it.StyledStr.Spans {
			var span []byte
			span = appendString(span, 1, sp.Tag)
			span = appendVarint(span, 2, uint64(sp.FirstChar))
			span = appendVarint(span, 3, uint64(sp.LastChar))
			s = appendBytes(s, 2, span)
		}
		return appendBytes(nil, 4, s)
	case resproto.ItemFile:
		var f []byte
		f = appendString(f, 1, it.File.Path)
		f = appendVarint(f, 2, uint64(it.File.Type))
		return appendBytes(nil, 5, f)
	case resproto.ItemID:
		return appendBytes(nil, 6, nil)
	case resproto.ItemPrimitive:
		return appendBytes(nil, 7, marshalPrimitive(it.Prim))
	}
	return nil
}

func marshalPrimitive(p *resproto.Primitive) []byte {
	num := map[resproto.PrimitiveKind]protowire.Number{
		resproto.PrimNull:           1,
		resproto.PrimEmpty:          2,
		resproto.PrimFloat:          3,
		resproto.PrimDimensionFloat: 4,
		resproto.PrimFractionFloat:  5,
		resproto.PrimIntDecimal:     6,
		resproto.PrimIntHexadecimal: 7,
		resproto.PrimBoolean:        8,
		resproto.PrimColorARGB8:     9,
		resproto.PrimColorRGB8:      10,
		resproto.PrimColorARGB4:     11,
		resproto.PrimColorRGB4:      12,
		resproto.PrimDimension:      13,
		resproto.PrimFraction:       14,
	}[p.Kind]
	var b []byte
	switch p.Kind {
	case resproto.PrimNull, resproto.PrimEmpty:
		b = appendBytes(b, num, nil)
	case resproto.PrimFloat, resproto.PrimDimensionFloat, resproto.PrimFractionFloat:
		b = protowire.AppendTag(b, num, protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, p.Data)
	case resproto.PrimIntDecimal:
		b = protowire.AppendTag(b, num, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(int32(p.Data))))
	default:
		b = protowire.AppendTag(b, num, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(p.Data))
	}
	return b
}

func marshalCompound(c *resproto.CompoundValue) []byte {
	switch c.Kind {
	case resproto.CompoundAttr:
		var b []byte
		b = appendVarint(b, 1, uint64(c.Attr.FormatFlags))
		for _, s := range c.Attr.Symbols {
			var sb []byte
			sb = appendString(sb, 2, s.Comment)
			if s.Name != nil {
				sb = appendBytes(sb, 3, marshalReference(s.Name))
			}
			sb = appendVarint(sb, 4, uint64(s.Value))
			sb = appendVarint(sb, 5, uint64(s.Type))
			b = appendBytes(b, 4, sb)
		}
		return appendBytes(nil, 1, b)
	case resproto.CompoundStyle:
		var b []byte
		if c.Style.Parent != nil {
			b = appendBytes(b, 1, marshalReference(c.Style.Parent))
		}
		for _, e := range c.Style.Entries {
			var eb []byte
			eb = appendString(eb, 2, e.Comment)
			if e.Key != nil {
				eb = appendBytes(eb, 3, marshalReference(e.Key))
			}
			if e.Item != nil {
				eb = appendBytes(eb, 4, marshalItem(e.Item))
			}
			b = appendBytes(b, 3, eb)
		}
		return appendBytes(nil, 2, b)
	case resproto.CompoundStyleable:
		var b []byte
		for _, e := range c.Styleable.Entries {
			var eb []byte
			eb = appendString(eb, 2, e.Comment)
			if e.Attr != nil {
				eb = appendBytes(eb, 3, marshalReference(e.Attr))
			}
			b = appendBytes(b, 1, eb)
		}
		return appendBytes(nil, 3, b)
	case resproto.CompoundArray:
		var b []byte
		for _, el := range c.Array.Elements {
			b = appendBytes(b, 1, appendBytes(nil, 3, marshalItem(el)))
		}
		return appendBytes(nil, 4, b)
	case resproto.CompoundPlural:
		var b []byte
		for _, e := range c.Plural.Entries {
			var eb []byte
			eb = appendString(eb, 2, e.Comment)
			eb = appendVarint(eb, 3, uint64(e.Arity))
			if e.Item != nil {
				eb = appendBytes(eb, 4, marshalItem(e.Item))
			}
			b = appendBytes(b, 1, eb)
		}
		return appendBytes(nil, 5, b)
	case resproto.CompoundMacro:
		return appendBytes(nil, 6, nil)
	}
	return nil
}

// MarshalXMLNode encodes a compiled XML node.
func MarshalXMLNode(n *resproto.XMLNode) []byte {
	var b []byte
	if n.Element != nil {
		b = appendBytes(b, 1, marshalXMLElement(n.Element))
	} else {
		// Text nodes are encoded even when empty to keep the oneof set.
		b = appendBytes(b, 2, []byte(n.Text))
	}
	if n.Line != 0 || n.Column != 0 {
		var pos []byte
		pos = appendVarint(pos, 1, uint64(n.Line))
		pos = appendVarint(pos, 2, uint64(n.Column))
		b = appendBytes(b, 3, pos)
	}
	return b
}

func marshalXMLElement(e *resproto.XMLElement) []byte {
	var b []byte
	for _, ns := range e.Namespaces {
		var nb []byte
		nb = appendString(nb, 1, ns.Prefix)
		nb = appendString(nb, 2, ns.URI)
		b = appendBytes(b, 1, nb)
	}
	b = appendString(b, 2, e.NamespaceURI)
	b = appendString(b, 3, e.Name)
	for _, a := range e.Attributes {
		var ab []byte
		ab = appendString(ab, 1, a.NamespaceURI)
		ab = appendString(ab, 2, a.Name)
		ab = appendString(ab, 3, a.Value)
		ab = appendVarint(ab, 5, uint64(a.ResourceID))
		b = appendBytes(b, 4, ab)
	}
	for _, c := range e.Children {
		b = appendBytes(b, 5, MarshalXMLNode(c))
	}
	return b
}
