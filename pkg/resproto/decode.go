// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package resproto

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// field is a decoded wire field. Bytes is set for length-delimited fields,
// Int for varint and fixed-width fields.
type field struct {
	Num   protowire.Number
	Type  protowire.Type
	Bytes []byte
	Int   uint64
}

// fields calls fn for every field of the encoded message b.
func fields(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return errors.Wrap(protowire.ParseError(n), "consuming tag")
		}
		b = b[n:]
		f := field{Num: num, Type: typ}
		switch typ {
		case protowire.VarintType:
			f.Int, n = protowire.ConsumeVarint(b)
		case protowire.Fixed32Type:
			var v uint32
			v, n = protowire.ConsumeFixed32(b)
			f.Int = uint64(v)
		case protowire.Fixed64Type:
			f.Int, n = protowire.ConsumeFixed64(b)
		case protowire.BytesType:
			f.Bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return errors.Wrapf(protowire.ParseError(n), "skipping field %d", num)
			}
			b = b[n:]
			continue
		}
		if n < 0 {
			return errors.Wrapf(protowire.ParseError(n), "consuming field %d", num)
		}
		b = b[n:]
		if err := fn(f); err != nil {
			return errors.Wrapf(err, "field %d", num)
		}
	}
	return nil
}

// message decodes a nested message into a fresh value.
func message[T any](b []byte, decode func(*T, []byte) error) (*T, error) {
	v := new(T)
	if err := decode(v, b); err != nil {
		return nil, err
	}
	return v, nil
}

// UnmarshalResourceTable decodes a resources.pb payload.
func UnmarshalResourceTable(b []byte) (*ResourceTable, error) {
	return message(b, decodeResourceTable)
}

// UnmarshalXMLNode decodes a compiled XML file.
func UnmarshalXMLNode(b []byte) (*XMLNode, error) {
	return message(b, decodeXMLNode)
}

// UnmarshalConfiguration decodes a configuration message.
func UnmarshalConfiguration(b []byte) (*Configuration, error) {
	return message(b, decodeConfiguration)
}

func decodeResourceTable(m *ResourceTable, b []byte) error {
	return fields(b, func(f field) error {
		if f.Num == 2 && f.Type == protowire.BytesType {
			p, err := message(f.Bytes, decodePackage)
			if err != nil {
				return err
			}
			m.Packages = append(m.Packages, p)
		}
		return nil
	})
}

// decodeID reads the single id field of the PackageId/TypeId/EntryId wrappers.
func decodeID(b []byte) (uint32, error) {
	var id uint32
	err := fields(b, func(f field) error {
		if f.Num == 1 && f.Type == protowire.VarintType {
			id = uint32(f.Int)
		}
		return nil
	})
	return id, err
}

func decodePackage(m *Package, b []byte) error {
	return fields(b, func(f field) error {
		var err error
		switch {
		case f.Num == 1 && f.Type == protowire.BytesType:
			m.ID, err = decodeID(f.Bytes)
		case f.Num == 2 && f.Type == protowire.BytesType:
			m.Name = string(f.Bytes)
		case f.Num == 3 && f.Type == protowire.BytesType:
			var t *Type
			if t, err = message(f.Bytes, decodeType); err == nil {
				m.Types = append(m.Types, t)
			}
		}
		return err
	})
}

func decodeType(m *Type, b []byte) error {
	return fields(b, func(f field) error {
		var err error
		switch {
		case f.Num == 1 && f.Type == protowire.BytesType:
			m.ID, err = decodeID(f.Bytes)
		case f.Num == 2 && f.Type == protowire.BytesType:
			m.Name = string(f.Bytes)
		case f.Num == 3 && f.Type == protowire.BytesType:
			var e *Entry
			if e, err = message(f.Bytes, decodeEntry); err == nil {
				m.Entries = append(m.Entries, e)
			}
		}
		return err
	})
}

func decodeEntry(m *Entry, b []byte) error {
	return fields(b, func(f field) error {
		var err error
		switch {
		case f.Num == 1 && f.Type == protowire.BytesType:
			m.ID, err = decodeID(f.Bytes)
		case f.Num == 2 && f.Type == protowire.BytesType:
			m.Name = string(f.Bytes)
		case f.Num == 3 && f.Type == protowire.BytesType:
			m.Visibility, err = message(f.Bytes, decodeVisibility)
		case f.Num == 6 && f.Type == protowire.BytesType:
			var cv *ConfigValue
			if cv, err = message(f.Bytes, decodeConfigValue); err == nil {
				m.ConfigValues = append(m.ConfigValues, cv)
			}
		}
		return err
	})
}

func decodeVisibility(m *Visibility, b []byte) error {
	return fields(b, func(f field) error {
		switch {
		case f.Num == 1 && f.Type == protowire.VarintType:
			m.Level = VisibilityLevel(f.Int)
		case f.Num == 3 && f.Type == protowire.BytesType:
			m.Comment = string(f.Bytes)
		}
		return nil
	})
}

func decodeConfigValue(m *ConfigValue, b []byte) error {
	return fields(b, func(f field) error {
		var err error
		switch {
		case f.Num == 1 && f.Type == protowire.BytesType:
			m.ConfigBytes = f.Bytes
			m.Config, err = message(f.Bytes, decodeConfiguration)
		case f.Num == 2 && f.Type == protowire.BytesType:
			m.Value, err = message(f.Bytes, decodeValue)
		}
		return err
	})
}

func decodeValue(m *Value, b []byte) error {
	return fields(b, func(f field) error {
		var err error
		switch {
		case f.Num == 2 && f.Type == protowire.BytesType:
			m.Comment = string(f.Bytes)
		case f.Num == 3 && f.Type == protowire.VarintType:
			m.Weak = f.Int != 0
		case f.Num == 4 && f.Type == protowire.BytesType:
			m.Item, err = message(f.Bytes, decodeItem)
		case f.Num == 5 && f.Type == protowire.BytesType:
			m.Compound, err = message(f.Bytes, decodeCompoundValue)
		}
		return err
	})
}

// stringField reads field 1 of the String/RawString wrappers.
func stringField(b []byte) (string, error) {
	var s string
	err := fields(b, func(f field) error {
		if f.Num == 1 && f.Type == protowire.BytesType {
			s = string(f.Bytes)
		}
		return nil
	})
	return s, err
}

func decodeItem(m *Item, b []byte) error {
	return fields(b, func(f field) error {
		if f.Type != protowire.BytesType {
			return nil
		}
		var err error
		switch f.Num {
		case 1:
			m.Kind = ItemRef
			m.Ref, err = message(f.Bytes, decodeReference)
		case 2:
			m.Kind = ItemString
			m.Str, err = stringField(f.Bytes)
		case 3:
			m.Kind = ItemRawString
			m.Str, err = stringField(f.Bytes)
		case 4:
			m.Kind = ItemStyledString
			m.StyledStr, err = message(f.Bytes, decodeStyledString)
		case 5:
			m.Kind = ItemFile
			m.File, err = message(f.Bytes, decodeFileReference)
		case 6:
			m.Kind = ItemID
		case 7:
			m.Kind = ItemPrimitive
			m.Prim, err = message(f.Bytes, decodePrimitive)
		}
		return err
	})
}

func decodeReference(m *Reference, b []byte) error {
	return fields(b, func(f field) error {
		switch {
		case f.Num == 1 && f.Type == protowire.VarintType:
			m.Type = ReferenceType(f.Int)
		case f.Num == 2 && f.Type == protowire.VarintType:
			m.ID = uint32(f.Int)
		case f.Num == 3 && f.Type == protowire.BytesType:
			m.Name = string(f.Bytes)
		case f.Num == 4 && f.Type == protowire.VarintType:
			m.Private = f.Int != 0
		}
		return nil
	})
}

func decodeStyledString(m *StyledString, b []byte) error {
	return fields(b, func(f field) error {
		switch {
		case f.Num == 1 && f.Type == protowire.BytesType:
			m.Value = string(f.Bytes)
		case f.Num == 2 && f.Type == protowire.BytesType:
			s, err := message(f.Bytes, decodeSpan)
			if err != nil {
				return err
			}
			m.Spans = append(m.Spans, s)
		}
		return nil
	})
}

func decodeSpan(m *Span, b []byte) error {
	return fields(b, func(f field) error {
		switch {
		case f.Num == 1 && f.Type == protowire.BytesType:
			m.Tag = string(f.Bytes)
		case f.Num == 2 && f.Type == protowire.VarintType:
			m.FirstChar = uint32(f.Int)
		case f.Num == 3 && f.Type == protowire.VarintType:
			m.LastChar = uint32(f.Int)
		}
		return nil
	})
}

func decodeFileReference(m *FileReference, b []byte) error {
	return fields(b, func(f field) error {
		switch {
		case f.Num == 1 && f.Type == protowire.BytesType:
			m.Path = string(f.Bytes)
		case f.Num == 2 && f.Type == protowire.VarintType:
			m.Type = uint32(f.Int)
		}
		return nil
	})
}

var primitiveFields = map[protowire.Number]PrimitiveKind{
	1:  PrimNull,
	2:  PrimEmpty,
	3:  PrimFloat,
	4:  PrimDimensionFloat,
	5:  PrimFractionFloat,
	6:  PrimIntDecimal,
	7:  PrimIntHexadecimal,
	8:  PrimBoolean,
	9:  PrimColorARGB8,
	10: PrimColorRGB8,
	11: PrimColorARGB4,
	12: PrimColorRGB4,
	13: PrimDimension,
	14: PrimFraction,
}

func decodePrimitive(m *Primitive, b []byte) error {
	return fields(b, func(f field) error {
		kind, ok := primitiveFields[f.Num]
		if !ok {
			return nil
		}
		m.Kind = kind
		// Negative int32 values arrive sign-extended to 64 bits; truncation
		// keeps the two's complement bits.
		m.Data = uint32(f.Int)
		return nil
	})
}

func decodeCompoundValue(m *CompoundValue, b []byte) error {
	return fields(b, func(f field) error {
		if f.Type != protowire.BytesType {
			return nil
		}
		var err error
		switch f.Num {
		case 1:
			m.Kind = CompoundAttr
			m.Attr, err = message(f.Bytes, decodeAttribute)
		case 2:
			m.Kind = CompoundStyle
			m.Style, err = message(f.Bytes, decodeStyle)
		case 3:
			m.Kind = CompoundStyleable
			m.Styleable, err = message(f.Bytes, decodeStyleable)
		case 4:
			m.Kind = CompoundArray
			m.Array, err = message(f.Bytes, decodeArray)
		case 5:
			m.Kind = CompoundPlural
			m.Plural, err = message(f.Bytes, decodePlural)
		case 6:
			m.Kind = CompoundMacro
		}
		return err
	})
}

func decodeAttribute(m *Attribute, b []byte) error {
	return fields(b, func(f field) error {
		switch {
		case f.Num == 1 && f.Type == protowire.VarintType:
			m.FormatFlags = uint32(f.Int)
		case f.Num == 2 && f.Type == protowire.VarintType:
			m.MinInt = int32(f.Int)
		case f.Num == 3 && f.Type == protowire.VarintType:
			m.MaxInt = int32(f.Int)
		case f.Num == 4 && f.Type == protowire.BytesType:
			s, err := message(f.Bytes, decodeSymbol)
			if err != nil {
				return err
			}
			m.Symbols = append(m.Symbols, s)
		}
		return nil
	})
}

func decodeSymbol(m *Symbol, b []byte) error {
	return fields(b, func(f field) error {
		var err error
		switch {
		case f.Num == 2 && f.Type == protowire.BytesType:
			m.Comment = string(f.Bytes)
		case f.Num == 3 && f.Type == protowire.BytesType:
			m.Name, err = message(f.Bytes, decodeReference)
		case f.Num == 4 && f.Type == protowire.VarintType:
			m.Value = uint32(f.Int)
		case f.Num == 5 && f.Type == protowire.VarintType:
			m.Type = uint32(f.Int)
		}
		return err
	})
}

func decodeStyle(m *Style, b []byte) error {
	return fields(b, func(f field) error {
		var err error
		switch {
		case f.Num == 1 && f.Type == protowire.BytesType:
			m.Parent, err = message(f.Bytes, decodeReference)
		case f.Num == 3 && f.Type == protowire.BytesType:
			var e *StyleEntry
			if e, err = message(f.Bytes, decodeStyleEntry); err == nil {
				m.Entries = append(m.Entries, e)
			}
		}
		return err
	})
}

func decodeStyleEntry(m *StyleEntry, b []byte) error {
	return fields(b, func(f field) error {
		var err error
		switch {
		case f.Num == 2 && f.Type == protowire.BytesType:
			m.Comment = string(f.Bytes)
		case f.Num == 3 && f.Type == protowire.BytesType:
			m.Key, err = message(f.Bytes, decodeReference)
		case f.Num == 4 && f.Type == protowire.BytesType:
			m.Item, err = message(f.Bytes, decodeItem)
		}
		return err
	})
}

func decodeStyleable(m *Styleable, b []byte) error {
	return fields(b, func(f field) error {
		if f.Num != 1 || f.Type != protowire.BytesType {
			return nil
		}
		e, err := message(f.Bytes, decodeStyleableEntry)
		if err != nil {
			return err
		}
		m.Entries = append(m.Entries, e)
		return nil
	})
}

func decodeStyleableEntry(m *StyleableEntry, b []byte) error {
	return fields(b, func(f field) error {
		var err error
		switch {
		case f.Num == 2 && f.Type == protowire.BytesType:
			m.Comment = string(f.Bytes)
		case f.Num == 3 && f.Type == protowire.BytesType:
			m.Attr, err = message(f.Bytes, decodeReference)
		}
		return err
	})
}

func decodeArray(m *Array, b []byte) error {
	return fields(b, func(f field) error {
		if f.Num != 1 || f.Type != protowire.BytesType {
			return nil
		}
		// Array.Element carries its item in field 3.
		var item *Item
		err := fields(f.Bytes, func(ef field) error {
			if ef.Num == 3 && ef.Type == protowire.BytesType {
				var err error
				item, err = message(ef.Bytes, decodeItem)
				return err
			}
			return nil
		})
		if err != nil {
			return err
		}
		if item == nil {
			item = &Item{}
		}
		m.Elements = append(m.Elements, item)
		return nil
	})
}

func decodePlural(m *Plural, b []byte) error {
	return fields(b, func(f field) error {
		if f.Num != 1 || f.Type != protowire.BytesType {
			return nil
		}
		e, err := message(f.Bytes, decodePluralEntry)
		if err != nil {
			return err
		}
		m.Entries = append(m.Entries, e)
		return nil
	})
}

func decodePluralEntry(m *PluralEntry, b []byte) error {
	return fields(b, func(f field) error {
		var err error
		switch {
		case f.Num == 2 && f.Type == protowire.BytesType:
			m.Comment = string(f.Bytes)
		case f.Num == 3 && f.Type == protowire.VarintType:
			m.Arity = uint32(f.Int)
		case f.Num == 4 && f.Type == protowire.BytesType:
			m.Item, err = message(f.Bytes, decodeItem)
		}
		return err
	})
}

func decodeConfiguration(m *Configuration, b []byte) error {
	return fields(b, func(f field) error {
		if f.Type == protowire.BytesType {
			switch f.Num {
			case 3:
				m.Locale = string(f.Bytes)
			case 25:
				m.Product = string(f.Bytes)
			}
			return nil
		}
		if f.Type != protowire.VarintType {
			return nil
		}
		v := uint32(f.Int)
		switch f.Num {
		case 1:
			m.MCC = v
		case 2:
			m.MNC = v
		case 4:
			m.LayoutDirection = v
		case 5:
			m.ScreenWidth = v
		case 6:
			m.ScreenHeight = v
		case 7:
			m.ScreenWidthDP = v
		case 8:
			m.ScreenHeightDP = v
		case 9:
			m.SmallestScreenWidthDP = v
		case 10:
			m.ScreenLayoutSize = v
		case 11:
			m.ScreenLayoutLong = v
		case 12:
			m.ScreenRound = v
		case 13:
			m.WideColorGamut = v
		case 14:
			m.HDR = v
		case 15:
			m.Orientation = v
		case 16:
			m.UIModeType = v
		case 17:
			m.UIModeNight = v
		case 18:
			m.Density = v
		case 19:
			m.Touchscreen = v
		case 20:
			m.KeysHidden = v
		case 21:
			m.Keyboard = v
		case 22:
			m.NavHidden = v
		case 23:
			m.Navigation = v
		case 24:
			m.SDKVersion = v
		}
		return nil
	})
}

func decodeXMLNode(m *XMLNode, b []byte) error {
	return fields(b, func(f field) error {
		var err error
		switch {
		case f.Num == 1 && f.Type == protowire.BytesType:
			m.Element, err = message(f.Bytes, decodeXMLElement)
		case f.Num == 2 && f.Type == protowire.BytesType:
			m.Text = string(f.Bytes)
		case f.Num == 3 && f.Type == protowire.BytesType:
			err = fields(f.Bytes, func(pf field) error {
				switch pf.Num {
				case 1:
					m.Line = uint32(pf.Int)
				case 2:
					m.Column = uint32(pf.Int)
				}
				return nil
			})
		}
		return err
	})
}

func decodeXMLElement(m *XMLElement, b []byte) error {
	return fields(b, func(f field) error {
		if f.Type != protowire.BytesType {
			return nil
		}
		switch f.Num {
		case 1:
			ns, err := message(f.Bytes, decodeXMLNamespace)
			if err != nil {
				return err
			}
			m.Namespaces = append(m.Namespaces, ns)
		case 2:
			m.NamespaceURI = string(f.Bytes)
		case 3:
			m.Name = string(f.Bytes)
		case 4:
			a, err := message(f.Bytes, decodeXMLAttribute)
			if err != nil {
				return err
			}
			m.Attributes = append(m.Attributes, a)
		case 5:
			n, err := message(f.Bytes, decodeXMLNode)
			if err != nil {
				return err
			}
			m.Children = append(m.Children, n)
		}
		return nil
	})
}

func decodeXMLNamespace(m *XMLNamespace, b []byte) error {
	return fields(b, func(f field) error {
		if f.Type != protowire.BytesType {
			return nil
		}
		switch f.Num {
		case 1:
			m.Prefix = string(f.Bytes)
		case 2:
			m.URI = string(f.Bytes)
		}
		return nil
	})
}

func decodeXMLAttribute(m *XMLAttribute, b []byte) error {
	return fields(b, func(f field) error {
		switch {
		case f.Num == 1 && f.Type == protowire.BytesType:
			m.NamespaceURI = string(f.Bytes)
		case f.Num == 2 && f.Type == protowire.BytesType:
			m.Name = string(f.Bytes)
		case f.Num == 3 && f.Type == protowire.BytesType:
			m.Value = string(f.Bytes)
		case f.Num == 5 && f.Type == protowire.VarintType:
			m.ResourceID = uint32(f.Int)
		}
		return nil
	})
}
