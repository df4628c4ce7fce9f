// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package protores

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/google/resrepo/pkg/resource"
	"github.com/google/resrepo/pkg/resproto"
)

// Complex value layout: a signed 24-bit mantissa in bits [31:8], a radix
// selector in bits [5:4] and a unit selector in bits [3:0].
const (
	complexUnitMask   = 0xf
	complexRadixShift = 4
	complexRadixMask  = 0x3
	complexMantShift  = 8
)

var radixMults = [4]float32{
	1,
	1.0 / (1 << 7),
	1.0 / (1 << 15),
	1.0 / (1 << 23),
}

var (
	dimensionUnits = []string{"px", "dp", "sp", "pt", "in", "mm"}
	fractionUnits  = []string{"%", "%p"}
)

// DecodeDimension formats a packed complex dimension, e.g. "16dp".
func DecodeDimension(data uint32) string {
	return decodeComplex(data, false)
}

// DecodeFraction formats a packed complex fraction, e.g. "50%p".
func DecodeFraction(data uint32) string {
	return decodeComplex(data, true)
}

func decodeComplex(data uint32, fraction bool) string {
	mantissa := int32(data) >> complexMantShift
	radix := (data >> complexRadixShift) & complexRadixMask
	value := float32(mantissa) * radixMults[radix]
	units := dimensionUnits
	if fraction {
		value *= 100
		units = fractionUnits
	}
	var unit string
	if u := int(data & complexUnitMask); u < len(units) {
		unit = units[u]
	}
	return formatFloat(value) + unit
}

// formatFloat prints the shortest decimal form without trailing zeros.
func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}

// DecodePrimitive formats a primitive as it would appear in source XML. An
// explicit null is reported through TextValue.Null.
func DecodePrimitive(p *resproto.Primitive) *resource.TextValue {
	v := p.Data
	switch p.Kind {
	case resproto.PrimNull:
		return &resource.TextValue{Null: true}
	case resproto.PrimEmpty:
		return &resource.TextValue{}
	case resproto.PrimFloat, resproto.PrimDimensionFloat, resproto.PrimFractionFloat:
		return &resource.TextValue{Text: formatFloat(math.Float32frombits(v))}
	case resproto.PrimDimension:
		return &resource.TextValue{Text: DecodeDimension(v)}
	case resproto.PrimFraction:
		return &resource.TextValue{Text: DecodeFraction(v)}
	case resproto.PrimIntDecimal:
		return &resource.TextValue{Text: strconv.FormatInt(int64(int32(v)), 10)}
	case resproto.PrimIntHexadecimal:
		return &resource.TextValue{Text: fmt.Sprintf("0x%X", v)}
	case resproto.PrimBoolean:
		return &resource.TextValue{Text: strconv.FormatBool(v != 0)}
	case resproto.PrimColorARGB8:
		return &resource.TextValue{Text: fmt.Sprintf("#%08X", v)}
	case resproto.PrimColorRGB8:
		return &resource.TextValue{Text: fmt.Sprintf("#%06X", v&0xffffff)}
	case resproto.PrimColorARGB4:
		return &resource.TextValue{Text: fmt.Sprintf("#%X%X%X%X", v>>28&0xf, v>>20&0xf, v>>12&0xf, v>>4&0xf)}
	case resproto.PrimColorRGB4:
		return &resource.TextValue{Text: fmt.Sprintf("#%X%X%X", v>>20&0xf, v>>12&0xf, v>>4&0xf)}
	}
	return &resource.TextValue{}
}

// DecodeReference formats a reference as "@name" or "?name".
func DecodeReference(r *resproto.Reference) string {
	if r == nil || r.Name == "" {
		return ""
	}
	var sb strings.Builder
	if r.Type == resproto.RefAttribute {
		sb.WriteByte('?')
	} else {
		sb.WriteByte('@')
	}
	if r.Private {
		sb.WriteByte('*')
	}
	sb.WriteString(r.Name)
	return sb.String()
}

var rawEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// StyledRawXML rebuilds the markup of a styled string from its spans. Span
// tags may carry attributes as "tag;name=value;...". Span bounds are
// inclusive and counted in UTF-16 code units.
func StyledRawXML(s *resproto.StyledString) string {
	units := utf16.Encode([]rune(s.Value))
	type mark struct {
		pos   int
		open  bool
		order int
		text  string
	}
	var marks []mark
	for i, sp := range s.Spans {
		name, attrs, _ := strings.Cut(sp.Tag, ";")
		open := "<" + name
		if attrs != "" {
			for _, a := range strings.Split(attrs, ";") {
				k, v, _ := strings.Cut(a, "=")
				open += " " + k + `="` + rawEscaper.Replace(v) + `"`
			}
		}
		open += ">"
		marks = append(marks,
			mark{pos: int(sp.FirstChar), open: true, order: i, text: open},
			mark{pos: int(sp.LastChar) + 1, order: i, text: "</" + name + ">"},
		)
	}
	// At equal positions closing tags come first, innermost (latest) first;
	// opening tags follow in span order.
	sort.SliceStable(marks, func(i, j int) bool {
		a, b := marks[i], marks[j]
		if a.pos != b.pos {
			return a.pos < b.pos
		}
		if a.open != b.open {
			return !a.open
		}
		if a.open {
			return a.order < b.order
		}
		return a.order > b.order
	})
	var sb strings.Builder
	next := 0
	for _, m := range marks {
		pos := min(max(m.pos, next), len(units))
		sb.WriteString(rawEscaper.Replace(string(utf16.Decode(units[next:pos]))))
		next = pos
		sb.WriteString(m.text)
	}
	sb.WriteString(rawEscaper.Replace(string(utf16.Decode(units[next:]))))
	return sb.String()
}

// ItemText converts a simple item into a text value.
func ItemText(it *resproto.Item) *resource.TextValue {
	if it == nil {
		return &resource.TextValue{}
	}
	switch it.Kind {
	case resproto.ItemRef:
		return &resource.TextValue{Text: DecodeReference(it.Ref)}
	case resproto.ItemString, resproto.ItemRawString:
		return &resource.TextValue{Text: it.Str}
	case resproto.ItemStyledString:
		v := &resource.TextValue{Text: it.StyledStr.Value}
		if len(it.StyledStr.Spans) > 0 {
			v.RawXML = StyledRawXML(it.StyledStr)
		}
		return v
	case resproto.ItemFile:
		return &resource.TextValue{Text: it.File.Path}
	case resproto.ItemPrimitive:
		return DecodePrimitive(it.Prim)
	}
	// Ids and unset items carry no value.
	return &resource.TextValue{}
}

// itemString is ItemText without the null/raw distinctions, for values
// nested in arrays, plurals and styles.
func itemString(it *resproto.Item) string {
	v := ItemText(it)
	if v.Null {
		return "@null"
	}
	return v.Text
}

// attrFormatMasks maps format ordinals to the compiled format flag bits.
var attrFormatMasks = [...]uint32{
	resproto.FormatReference,
	resproto.FormatString,
	resproto.FormatInteger,
	resproto.FormatBoolean,
	resproto.FormatColor,
	resproto.FormatFloat,
	resproto.FormatDimension,
	resproto.FormatFraction,
	resproto.FormatEnum,
	resproto.FormatFlags,
}

// DecodeFormats converts compiled format flags into attr formats by testing
// the flag of each format ordinal in turn.
func DecodeFormats(flags uint32) resource.AttrFormats {
	var f resource.AttrFormats
	for i, mask := range attrFormatMasks {
		if flags&mask != 0 {
			f |= 1 << i
		}
	}
	return f
}

// DecodeVisibility maps a compiled visibility declaration. An absent
// declaration is distinct from one with an unknown level.
func DecodeVisibility(v *resproto.Visibility) resource.Visibility {
	if v == nil {
		return resource.Undefined
	}
	switch v.Level {
	case resproto.LevelUnknown:
		return resource.PrivateXMLOnly
	case resproto.LevelPrivate:
		return resource.Private
	case resproto.LevelPublic:
		return resource.Public
	}
	return resource.Undefined
}
