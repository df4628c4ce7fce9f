// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package rescache

import (
	"cmp"
	"maps"
	"slices"

	"github.com/google/resrepo/pkg/resource"
	"github.com/google/resrepo/pkg/resource/config"
	"github.com/google/resrepo/pkg/resource/table"
	"github.com/pkg/errors"
)

// Contents is everything a cache file reproduces: the frozen table plus the
// repository metadata that was derived alongside it.
type Contents struct {
	Table       *table.Table
	Namespace   resource.Namespace
	LibraryName string
	PackageName string
	// DeclaredIDs is nil when the source had no symbol file.
	DeclaredIDs map[string]int32
}

// The body is laid out as:
//
//	metadata
//	configuration dictionary
//	namespace count
//	  namespace, type count
//	    type, name count
//	      name, item count
//	        arena index, visibility, configuration index, kind, payload
//	declared ids
//
// Arena indices let the reader rebuild a table whose iteration order and item
// indices match the one that was written.
func encodeBody(e *Encoder, c *Contents) {
	e.WriteString(string(c.Namespace))
	e.WriteNullableString(c.LibraryName, c.LibraryName != "")
	e.WriteNullableString(c.PackageName, c.PackageName != "")

	t := c.Table
	configs := make(map[config.Configuration]int32)
	var dict []config.Configuration
	for i := 0; i < t.Len(); i++ {
		cfg := t.ItemAt(i).Configuration()
		if _, ok := configs[cfg]; !ok {
			configs[cfg] = int32(len(dict))
			dict = append(dict, cfg)
		}
	}
	e.WriteInt(int32(len(dict)))
	for _, cfg := range dict {
		encodeConfig(e, cfg)
	}

	namespaces := t.Namespaces()
	e.WriteInt(int32(len(namespaces)))
	for _, ns := range namespaces {
		e.WriteString(string(ns))
		types := t.Types(ns)
		e.WriteInt(int32(len(types)))
		for _, typ := range types {
			e.WriteByte(byte(typ))
			names := t.Names(ns, typ)
			e.WriteInt(int32(len(names)))
			for _, name := range names {
				e.WriteString(name)
				items := t.Items(ns, typ, name)
				e.WriteInt(int32(len(items)))
				for _, it := range items {
					e.WriteInt(int32(it.Index))
					e.WriteByte(byte(it.Visibility))
					e.WriteInt(configs[it.Configuration()])
					encodeValue(e, it.Value)
				}
			}
		}
	}

	e.WriteBool(c.DeclaredIDs != nil)
	if c.DeclaredIDs != nil {
		names := slices.Sorted(maps.Keys(c.DeclaredIDs))
		e.WriteInt(int32(len(names)))
		for _, name := range names {
			e.WriteString(name)
			e.WriteInt(c.DeclaredIDs[name])
		}
	}
}

type decodedItem struct {
	ns resource.Namespace
	it *resource.Item
}

func decodeBody(d *Decoder) (*Contents, error) {
	c := &Contents{Namespace: resource.Namespace(d.ReadString())}
	c.LibraryName = d.ReadString()
	c.PackageName = d.ReadString()

	n := d.ReadInt()
	if err := checkCount(d, n); err != nil {
		return nil, errors.Wrap(err, "reading configurations")
	}
	interned := config.NewCache()
	var dict []*config.Configuration
	for i := int32(0); i < n && d.Err() == nil; i++ {
		dict = append(dict, interned.Intern(decodeConfig(d)))
	}

	var items []decodedItem
	nsCount := d.ReadInt()
	if err := checkCount(d, nsCount); err != nil {
		return nil, errors.Wrap(err, "reading namespaces")
	}
	for i := int32(0); i < nsCount && d.Err() == nil; i++ {
		ns := resource.Namespace(d.ReadString())
		typeCount := d.ReadInt()
		if err := checkCount(d, typeCount); err != nil {
			return nil, errors.Wrapf(err, "reading namespace %s", ns)
		}
		for i := int32(0); i < typeCount && d.Err() == nil; i++ {
			b, _ := d.ReadByte()
			typ := resource.Type(b)
			if d.Err() == nil && !typ.Valid() {
				return nil, errors.Errorf("invalid type %d", b)
			}
			nameCount := d.ReadInt()
			if err := checkCount(d, nameCount); err != nil {
				return nil, errors.Wrapf(err, "reading type %v", typ)
			}
			for i := int32(0); i < nameCount && d.Err() == nil; i++ {
				name := d.ReadString()
				itemCount := d.ReadInt()
				if err := checkCount(d, itemCount); err != nil {
					return nil, errors.Wrapf(err, "reading %v/%s", typ, name)
				}
				for i := int32(0); i < itemCount && d.Err() == nil; i++ {
					it := &resource.Item{Type: typ, Name: name}
					it.Index = int(d.ReadInt())
					vis, _ := d.ReadByte()
					it.Visibility = resource.Visibility(vis)
					ci := d.ReadInt()
					if d.Err() == nil && (ci < 0 || int(ci) >= len(dict)) {
						return nil, errors.Errorf("%v/%s: configuration index %d out of range", typ, name, ci)
					}
					if d.Err() == nil {
						it.Config = dict[ci]
					}
					v, err := decodeValue(d)
					if err != nil {
						return nil, errors.Wrapf(err, "%v/%s", typ, name)
					}
					it.Value = v
					items = append(items, decodedItem{ns, it})
				}
			}
		}
	}

	if d.ReadBool() {
		n := d.ReadInt()
		if err := checkCount(d, n); err != nil {
			return nil, errors.Wrap(err, "reading declared ids")
		}
		c.DeclaredIDs = make(map[string]int32, n)
		for i := int32(0); i < n && d.Err() == nil; i++ {
			name := d.ReadString()
			c.DeclaredIDs[name] = d.ReadInt()
		}
	}
	if err := d.Err(); err != nil {
		return nil, errors.Wrap(err, "reading body")
	}

	slices.SortFunc(items, func(a, b decodedItem) int { return cmp.Compare(a.it.Index, b.it.Index) })
	c.Table = table.New()
	for i, di := range items {
		if di.it.Index != i {
			return nil, errors.Errorf("arena index %d out of sequence at %d", di.it.Index, i)
		}
		if replaced, err := c.Table.Add(di.ns, di.it); err != nil {
			return nil, errors.Wrap(err, "rebuilding table")
		} else if replaced {
			return nil, errors.Errorf("duplicate configuration for %v/%s", di.it.Type, di.it.Name)
		}
	}
	c.Table.Freeze()
	return c, nil
}

// maxCount bounds element counts read from a cache file.
const maxCount = 1 << 24

func checkCount(d *Decoder, n int32) error {
	if err := d.Err(); err != nil {
		return err
	}
	if n < 0 || n > maxCount {
		return errors.Errorf("invalid count %d", n)
	}
	return nil
}

func encodeConfig(e *Encoder, c config.Configuration) {
	e.WriteInt(int32(c.MCC))
	e.WriteInt(int32(c.MNC))
	e.WriteString(c.Locale)
	e.WriteByte(byte(c.LayoutDirection))
	e.WriteInt(int32(c.SmallestScreenWidthDP))
	e.WriteInt(int32(c.ScreenWidthDP))
	e.WriteInt(int32(c.ScreenHeightDP))
	e.WriteBytes([]byte{
		byte(c.ScreenSize),
		byte(c.ScreenLong),
		byte(c.ScreenRound),
		byte(c.WideColorGamut),
		byte(c.HDR),
		byte(c.Orientation),
		byte(c.UIModeType),
		byte(c.UIModeNight),
	})
	e.WriteInt(int32(c.Density))
	e.WriteBytes([]byte{
		byte(c.Touchscreen),
		byte(c.KeysHidden),
		byte(c.Keyboard),
		byte(c.NavHidden),
		byte(c.Navigation),
	})
	e.WriteInt(int32(c.ScreenWidth))
	e.WriteInt(int32(c.ScreenHeight))
	e.WriteInt(int32(c.SDKVersion))
}

func decodeConfig(d *Decoder) config.Configuration {
	var c config.Configuration
	c.MCC = uint32(d.ReadInt())
	c.MNC = uint32(d.ReadInt())
	c.Locale = d.ReadString()
	c.LayoutDirection = config.LayoutDirection(readByte(d))
	c.SmallestScreenWidthDP = uint32(d.ReadInt())
	c.ScreenWidthDP = uint32(d.ReadInt())
	c.ScreenHeightDP = uint32(d.ReadInt())
	c.ScreenSize = config.ScreenSize(readByte(d))
	c.ScreenLong = config.ScreenLong(readByte(d))
	c.ScreenRound = config.ScreenRound(readByte(d))
	c.WideColorGamut = config.WideColorGamut(readByte(d))
	c.HDR = config.HDR(readByte(d))
	c.Orientation = config.Orientation(readByte(d))
	c.UIModeType = config.UIModeType(readByte(d))
	c.UIModeNight = config.UIModeNight(readByte(d))
	c.Density = uint32(d.ReadInt())
	c.Touchscreen = config.Touchscreen(readByte(d))
	c.KeysHidden = config.KeysHidden(readByte(d))
	c.Keyboard = config.Keyboard(readByte(d))
	c.NavHidden = config.NavHidden(readByte(d))
	c.Navigation = config.Navigation(readByte(d))
	c.ScreenWidth = uint32(d.ReadInt())
	c.ScreenHeight = uint32(d.ReadInt())
	c.SDKVersion = uint32(d.ReadInt())
	return c
}

func readByte(d *Decoder) byte {
	b, _ := d.ReadByte()
	return b
}

func encodeValue(e *Encoder, v resource.Value) {
	e.WriteByte(byte(v.Kind()))
	switch v := v.(type) {
	case *resource.TextValue:
		e.WriteString(v.Text)
		e.WriteBool(v.Null)
		e.WriteNullableString(v.RawXML, v.RawXML != "")
	case *resource.FileValue:
		e.WriteString(v.Path)
		e.WriteInt(int32(v.Density))
	case *resource.ArrayValue:
		e.WriteInt(int32(len(v.Elements)))
		for _, s := range v.Elements {
			e.WriteString(s)
		}
	case *resource.PluralValue:
		e.WriteInt(int32(len(v.Items)))
		for _, p := range v.Items {
			e.WriteByte(byte(p.Quantity))
			e.WriteString(p.Value)
		}
	case *resource.AttrValue:
		e.WriteInt(int32(v.Formats))
		e.WriteInt(int32(len(v.Symbols)))
		for _, s := range v.Symbols {
			e.WriteString(s.Name)
			e.WriteBool(s.Value != nil)
			if s.Value != nil {
				e.WriteInt(*s.Value)
			}
			e.WriteNullableString(s.Description, s.Description != "")
		}
	case *resource.AttrRefValue:
		e.WriteString(string(v.Namespace))
	case *resource.StyleValue:
		e.WriteNullableString(v.Parent, v.Parent != "")
		e.WriteInt(int32(len(v.Items)))
		for _, si := range v.Items {
			e.WriteString(string(si.Namespace))
			e.WriteString(si.Attr)
			e.WriteString(si.Value)
		}
	case *resource.StyleableValue:
		e.WriteInt(int32(len(v.Attrs)))
		for _, a := range v.Attrs {
			e.WriteString(string(a.Namespace))
			e.WriteString(a.Name)
		}
	}
}

func decodeValue(d *Decoder) (resource.Value, error) {
	kind := resource.Kind(readByte(d))
	if err := d.Err(); err != nil {
		return nil, err
	}
	switch kind {
	case resource.KindText:
		v := &resource.TextValue{Text: d.ReadString()}
		v.Null = d.ReadBool()
		v.RawXML = d.ReadString()
		return v, nil
	case resource.KindFile:
		v := &resource.FileValue{Path: d.ReadString()}
		v.Density = uint32(d.ReadInt())
		return v, nil
	case resource.KindArray:
		n := d.ReadInt()
		if err := checkCount(d, n); err != nil {
			return nil, err
		}
		v := &resource.ArrayValue{}
		for i := int32(0); i < n && d.Err() == nil; i++ {
			v.Elements = append(v.Elements, d.ReadString())
		}
		return v, nil
	case resource.KindPlural:
		n := d.ReadInt()
		if err := checkCount(d, n); err != nil {
			return nil, err
		}
		v := &resource.PluralValue{}
		for i := int32(0); i < n && d.Err() == nil; i++ {
			q := resource.Quantity(readByte(d))
			v.Items = append(v.Items, resource.PluralItem{Quantity: q, Value: d.ReadString()})
		}
		return v, nil
	case resource.KindAttr:
		v := &resource.AttrValue{Formats: resource.AttrFormats(uint32(d.ReadInt()))}
		n := d.ReadInt()
		if err := checkCount(d, n); err != nil {
			return nil, err
		}
		for i := int32(0); i < n && d.Err() == nil; i++ {
			s := resource.AttrSymbol{Name: d.ReadString()}
			if d.ReadBool() {
				val := d.ReadInt()
				s.Value = &val
			}
			s.Description = d.ReadString()
			v.Symbols = append(v.Symbols, s)
		}
		return v, nil
	case resource.KindAttrRef:
		return &resource.AttrRefValue{Namespace: resource.Namespace(d.ReadString())}, nil
	case resource.KindStyle:
		v := &resource.StyleValue{Parent: d.ReadString()}
		n := d.ReadInt()
		if err := checkCount(d, n); err != nil {
			return nil, err
		}
		for i := int32(0); i < n && d.Err() == nil; i++ {
			var si resource.StyleItem
			si.Namespace = resource.Namespace(d.ReadString())
			si.Attr = d.ReadString()
			si.Value = d.ReadString()
			v.Items = append(v.Items, si)
		}
		return v, nil
	case resource.KindStyleable:
		n := d.ReadInt()
		if err := checkCount(d, n); err != nil {
			return nil, err
		}
		v := &resource.StyleableValue{}
		for i := int32(0); i < n && d.Err() == nil; i++ {
			var a resource.AttrRef
			a.Namespace = resource.Namespace(d.ReadString())
			a.Name = d.ReadString()
			v.Attrs = append(v.Attrs, a)
		}
		return v, nil
	}
	return nil, errors.Errorf("unknown value kind %d", kind)
}
