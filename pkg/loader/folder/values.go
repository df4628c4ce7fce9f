// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package folder

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/google/resrepo/pkg/resource"
	"github.com/pkg/errors"
)

// xliffNamespace marks translation placeholders whose content is kept but
// whose markup is not part of the value.
const xliffNamespace = "urn:oasis:names:tc:xliff:document:1.2"

// simpleTypes are the value tags that hold a single text value.
var simpleTypes = map[string]resource.Type{
	"string":   resource.String,
	"dimen":    resource.Dimen,
	"color":    resource.Color,
	"integer":  resource.Integer,
	"bool":     resource.Bool,
	"fraction": resource.Fraction,
	"drawable": resource.Drawable,
}

// ignoredTags declare metadata rather than values.
var ignoredTags = map[string]bool{
	"public":               true,
	"public-group":         true,
	"staging-public-group": true,
	"java-symbol":          true,
	"eat-comment":          true,
	"skip":                 true,
	"add-resource":         true,
	"overlayable":          true,
	"macro":                true,
}

// Decl is a resource declared in a values file.
type Decl struct {
	Type  resource.Type
	Name  string
	Value resource.Value
}

type valuesParser struct {
	d   *xml.Decoder
	ns  resource.Namespace
	out []Decl
}

// ParseValues parses the declarations of a values XML file. Attrs whose name
// carries a package prefix, and attrs declared without a format, are recorded
// as references to the namespace that defines them.
func ParseValues(r io.Reader, ns resource.Namespace) ([]Decl, error) {
	p := &valuesParser{d: xml.NewDecoder(r), ns: ns}
	root, err := p.root()
	if err != nil {
		return nil, err
	}
	if root.Name.Local != "resources" {
		return nil, errors.Errorf("unexpected root element %q", root.Name.Local)
	}
	err = p.children(func(se xml.StartElement, _ string) error {
		return errors.Wrapf(p.element(se), "parsing <%s name=%q>", se.Name.Local, attrValue(se, "name"))
	})
	if err != nil {
		return nil, errors.Wrap(err, "reading resources")
	}
	return p.out, nil
}

func (p *valuesParser) root() (xml.StartElement, error) {
	for {
		tok, err := p.d.Token()
		if err == io.EOF {
			return xml.StartElement{}, errors.New("no root element")
		} else if err != nil {
			return xml.StartElement{}, errors.Wrap(err, "reading document")
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se, nil
		}
	}
}

func attrValue(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if a.Name.Space == "" && a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (p *valuesParser) add(t resource.Type, name string, v resource.Value) {
	p.out = append(p.out, Decl{Type: t, Name: name, Value: v})
}

// splitName resolves a possibly prefixed name such as "android:textColor".
func (p *valuesParser) splitName(name string) (resource.Namespace, string) {
	if pkg, local, ok := strings.Cut(name, ":"); ok {
		return p.ns.Resolve(pkg), local
	}
	return p.ns, name
}

func (p *valuesParser) element(se xml.StartElement) error {
	tag := se.Name.Local
	name := attrValue(se, "name")
	if ignoredTags[tag] {
		return p.d.Skip()
	}
	if name == "" {
		return errors.New("missing name attribute")
	}
	switch tag {
	case "item":
		return p.item(se, name)
	case "id":
		p.add(resource.ID, name, &resource.TextValue{})
		return p.d.Skip()
	case "string-array", "integer-array", "array":
		return p.array(name)
	case "plurals":
		return p.plurals(name)
	case "style":
		return p.style(se, name)
	case "declare-styleable":
		return p.styleable(name)
	case "attr":
		v, err := p.attr(se)
		if err != nil {
			return err
		}
		_, local := p.splitName(name)
		p.add(resource.Attr, local, v)
		return nil
	}
	t, ok := simpleTypes[tag]
	if !ok {
		return p.d.Skip()
	}
	v, err := p.text()
	if err != nil {
		return err
	}
	p.add(t, name, v)
	return nil
}

// text reads the content of the current element as a text value.
func (p *valuesParser) text() (*resource.TextValue, error) {
	var b textBuilder
	depth := 0
	for {
		tok, err := p.d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.chars(string(t))
		case xml.StartElement:
			depth++
			if t.Name.Space == xliffNamespace {
				continue
			}
			var sb strings.Builder
			sb.WriteString("<" + t.Name.Local)
			for _, a := range t.Attr {
				sb.WriteString(" " + a.Name.Local + `="` + rawEscaper.Replace(a.Value) + `"`)
			}
			sb.WriteString(">")
			b.tag(sb.String())
		case xml.EndElement:
			if depth == 0 {
				v := &resource.TextValue{Text: b.Text(), RawXML: b.RawXML()}
				if v.Text == "@null" {
					v.Text, v.Null = "", true
				}
				return v, nil
			}
			depth--
			if t.Name.Space != xliffNamespace {
				b.tag("</" + t.Name.Local + ">")
			}
		}
	}
}

// valueString is the text of a nested value, spelling out an explicit null.
func valueString(v *resource.TextValue) string {
	if v.Null {
		return "@null"
	}
	return v.Text
}

func (p *valuesParser) item(se xml.StartElement, name string) error {
	typ := attrValue(se, "type")
	t, ok := resource.ParseType(typ)
	if !ok {
		return errors.Errorf("unknown item type %q", typ)
	}
	v, err := p.text()
	if err != nil {
		return err
	}
	if t == resource.ID {
		v = &resource.TextValue{}
	}
	p.add(t, name, v)
	return nil
}

// children calls fn for each child element of the current element, passing
// the comment that immediately precedes it. fn must consume the child.
func (p *valuesParser) children(fn func(se xml.StartElement, comment string) error) error {
	var comment string
	for {
		tok, err := p.d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.Comment:
			comment = strings.TrimSpace(string(t))
		case xml.StartElement:
			if err := fn(t, comment); err != nil {
				return err
			}
			comment = ""
		case xml.EndElement:
			return nil
		}
	}
}

func (p *valuesParser) array(name string) error {
	av := &resource.ArrayValue{}
	err := p.children(func(se xml.StartElement, _ string) error {
		if se.Name.Local != "item" {
			return p.d.Skip()
		}
		v, err := p.text()
		if err != nil {
			return err
		}
		av.Elements = append(av.Elements, valueString(v))
		return nil
	})
	if err != nil {
		return err
	}
	p.add(resource.Array, name, av)
	return nil
}

func (p *valuesParser) plurals(name string) error {
	pv := &resource.PluralValue{}
	err := p.children(func(se xml.StartElement, _ string) error {
		if se.Name.Local != "item" {
			return p.d.Skip()
		}
		q, ok := resource.ParseQuantity(attrValue(se, "quantity"))
		if !ok {
			return errors.Errorf("invalid quantity %q", attrValue(se, "quantity"))
		}
		v, err := p.text()
		if err != nil {
			return err
		}
		pv.Items = append(pv.Items, resource.PluralItem{Quantity: q, Value: valueString(v)})
		return nil
	})
	if err != nil {
		return err
	}
	p.add(resource.Plurals, name, pv)
	return nil
}

// normalizeParent rewrites a style parent to "@[package:]style/Name".
func normalizeParent(parent string) string {
	parent = strings.TrimSpace(parent)
	if parent == "" {
		return ""
	}
	n := resource.ParseName(parent)
	if n.Package != "" {
		return "@" + n.Package + ":style/" + n.Entry
	}
	return "@style/" + n.Entry
}

func (p *valuesParser) style(se xml.StartElement, name string) error {
	sv := &resource.StyleValue{Parent: normalizeParent(attrValue(se, "parent"))}
	err := p.children(func(se xml.StartElement, _ string) error {
		if se.Name.Local != "item" {
			return p.d.Skip()
		}
		ns, attr := p.splitName(attrValue(se, "name"))
		v, err := p.text()
		if err != nil {
			return err
		}
		sv.Put(ns, attr, valueString(v))
		return nil
	})
	if err != nil {
		return err
	}
	p.add(resource.Style, name, sv)
	return nil
}

func (p *valuesParser) styleable(name string) error {
	sv := &resource.StyleableValue{}
	err := p.children(func(se xml.StartElement, _ string) error {
		if se.Name.Local != "attr" {
			return p.d.Skip()
		}
		ns, local := p.splitName(attrValue(se, "name"))
		sv.Attrs = append(sv.Attrs, resource.AttrRef{Namespace: ns, Name: local})
		v, err := p.attr(se)
		if err != nil {
			return err
		}
		// Attrs given a definition inside the styleable are declared too.
		if _, ok := v.(*resource.AttrValue); ok && ns == p.ns {
			p.add(resource.Attr, local, v)
		}
		return nil
	})
	if err != nil {
		return err
	}
	p.add(resource.Styleable, name, sv)
	return nil
}

// attr reads an attr definition. An attr with no format and no symbols, or
// one belonging to another namespace, is a reference.
func (p *valuesParser) attr(se xml.StartElement) (resource.Value, error) {
	ns, _ := p.splitName(attrValue(se, "name"))
	var formats resource.AttrFormats
	if f := attrValue(se, "format"); f != "" {
		var ok bool
		if formats, ok = resource.ParseAttrFormats(f); !ok {
			return nil, errors.Errorf("invalid format %q", f)
		}
	}
	var symbols []resource.AttrSymbol
	err := p.children(func(child xml.StartElement, comment string) error {
		switch child.Name.Local {
		case "enum":
			formats |= resource.FormatEnum
		case "flag":
			formats |= resource.FormatFlags
		default:
			return p.d.Skip()
		}
		sym := resource.AttrSymbol{Name: attrValue(child, "name"), Description: comment}
		if v := strings.TrimSpace(attrValue(child, "value")); v != "" {
			n, err := parseInt32(v)
			if err != nil {
				return errors.Wrapf(err, "symbol %q", sym.Name)
			}
			sym.Value = &n
		}
		symbols = append(symbols, sym)
		return p.d.Skip()
	})
	if err != nil {
		return nil, err
	}
	if ns != p.ns {
		return &resource.AttrRefValue{Namespace: ns}, nil
	}
	if formats == 0 && len(symbols) == 0 {
		return &resource.AttrRefValue{Namespace: ns}, nil
	}
	return &resource.AttrValue{Formats: formats, Symbols: symbols}, nil
}

// parseInt32 parses a decimal or hexadecimal value, accepting unsigned
// 32-bit values such as 0xffffffff.
func parseInt32(s string) (int32, error) {
	if n, err := strconv.ParseInt(s, 0, 32); err == nil {
		return int32(n), nil
	}
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, err
	}
	return int32(uint32(n)), nil
}
