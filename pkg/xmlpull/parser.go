// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package xmlpull presents compiled proto XML trees through pull-parser
// semantics and resolves namespace prefixes at a node.
package xmlpull

import (
	"github.com/google/resrepo/pkg/resproto"
	"github.com/pkg/errors"
)

// Event is a pull-parser event type.
type Event int

// Events, numbered as in the XmlPullParser convention.
const (
	StartDocument Event = iota
	EndDocument
	StartTag
	EndTag
	Text
)

func (e Event) String() string {
	switch e {
	case StartDocument:
		return "START_DOCUMENT"
	case EndDocument:
		return "END_DOCUMENT"
	case StartTag:
		return "START_TAG"
	case EndTag:
		return "END_TAG"
	case Text:
		return "TEXT"
	}
	return "UNKNOWN"
}

type frame struct {
	node *resproto.XMLNode
	next int
}

// Parser walks a proto XML tree. It keeps a stack of (node, next child index)
// frames; namespace information is computed from the live stack, so values
// returned for a node are only meaningful while it remains on the stack.
//
// A Parser is stateful and must not be shared between goroutines.
type Parser struct {
	root  *resproto.XMLNode
	stack []frame
	event Event
}

// NewParser returns a parser positioned at StartDocument.
func NewParser(root *resproto.XMLNode) *Parser {
	return &Parser{root: root, event: StartDocument}
}

// ErrNoRoot is returned when the tree has no root element.
var ErrNoRoot = errors.New("document has no root element")

// Next advances to the next event and returns it.
func (p *Parser) Next() (Event, error) {
	switch p.event {
	case StartDocument:
		if p.root == nil || p.root.Element == nil {
			return p.event, ErrNoRoot
		}
		p.stack = append(p.stack, frame{node: p.root})
		p.event = StartTag
		return p.event, nil
	case EndDocument:
		return p.event, nil
	case EndTag, Text:
		p.stack = p.stack[:len(p.stack)-1]
		if len(p.stack) == 0 {
			p.event = EndDocument
			return p.event, nil
		}
	}
	top := &p.stack[len(p.stack)-1]
	children := top.node.Element.Children
	if top.next >= len(children) {
		p.event = EndTag
		return p.event, nil
	}
	child := children[top.next]
	top.next++
	p.stack = append(p.stack, frame{node: child})
	switch {
	case child.Element != nil:
		p.event = StartTag
	case child.Text != "":
		p.event = Text
	default:
		// Empty text is reported as an end tag with no element.
		p.event = EndTag
	}
	return p.event, nil
}

// NextTag advances past whitespace-only text to the next start or end tag.
func (p *Parser) NextTag() (Event, error) {
	for {
		ev, err := p.Next()
		if err != nil {
			return ev, err
		}
		switch ev {
		case StartTag, EndTag, EndDocument:
			return ev, nil
		case Text:
			if !isWhitespace(p.Text()) {
				return ev, errors.Errorf("unexpected text %q", p.Text())
			}
		}
	}
}

func isWhitespace(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}

// EventType returns the current event.
func (p *Parser) EventType() Event {
	return p.event
}

func (p *Parser) current() *resproto.XMLNode {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1].node
}

func (p *Parser) element() *resproto.XMLElement {
	if p.event != StartTag && p.event != EndTag {
		return nil
	}
	if n := p.current(); n != nil {
		return n.Element
	}
	return nil
}

// Depth returns the number of enclosing elements, counting the current one
// for tag events. It is zero before the root and after the document ends.
func (p *Parser) Depth() int {
	d := 0
	for _, f := range p.stack {
		if f.node.Element != nil {
			d++
		}
	}
	return d
}

// Name returns the local name of the current element.
func (p *Parser) Name() string {
	if e := p.element(); e != nil {
		return e.Name
	}
	return ""
}

// Namespace returns the namespace URI of the current element.
func (p *Parser) Namespace() string {
	if e := p.element(); e != nil {
		return e.NamespaceURI
	}
	return ""
}

// Prefix returns the prefix bound to the current element's namespace.
func (p *Parser) Prefix() string {
	ns := p.Namespace()
	if ns == "" {
		return ""
	}
	prefix, _ := ResolverAt(p).Prefix(ns)
	return prefix
}

// Text returns the content of the current text event.
func (p *Parser) Text() string {
	if p.event != Text {
		return ""
	}
	return p.current().Text
}

// LineNumber returns the source line of the current node, or zero.
func (p *Parser) LineNumber() int {
	if n := p.current(); n != nil {
		return int(n.Line)
	}
	return 0
}

// AttributeCount returns the number of attributes of the current start tag,
// or -1 when not positioned on a start tag.
func (p *Parser) AttributeCount() int {
	if p.event != StartTag {
		return -1
	}
	return len(p.current().Element.Attributes)
}

func (p *Parser) attribute(i int) *resproto.XMLAttribute {
	if p.event != StartTag {
		return nil
	}
	attrs := p.current().Element.Attributes
	if i < 0 || i >= len(attrs) {
		return nil
	}
	return attrs[i]
}

// AttributeName returns the local name of attribute i.
func (p *Parser) AttributeName(i int) string {
	if a := p.attribute(i); a != nil {
		return a.Name
	}
	return ""
}

// AttributeNamespace returns the namespace URI of attribute i.
func (p *Parser) AttributeNamespace(i int) string {
	if a := p.attribute(i); a != nil {
		return a.NamespaceURI
	}
	return ""
}

// AttributeValue returns the value of attribute i.
func (p *Parser) AttributeValue(i int) string {
	if a := p.attribute(i); a != nil {
		return a.Value
	}
	return ""
}

// AttributeValueNS returns the value of the attribute with the given
// namespace URI and local name.
func (p *Parser) AttributeValueNS(ns, name string) (string, bool) {
	for i := 0; i < p.AttributeCount(); i++ {
		a := p.attribute(i)
		if a.NamespaceURI == ns && a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// elementFrames returns the elements on the stack, outermost first.
func (p *Parser) elementFrames() []*resproto.XMLElement {
	var els []*resproto.XMLElement
	for _, f := range p.stack {
		if f.node.Element != nil {
			els = append(els, f.node.Element)
		}
	}
	return els
}

// NamespaceCount returns the number of namespace declarations in scope at
// the given element depth, counted from the root.
func (p *Parser) NamespaceCount(depth int) int {
	n := 0
	for i, e := range p.elementFrames() {
		if i >= depth {
			break
		}
		n += len(e.Namespaces)
	}
	return n
}

func (p *Parser) namespaceAt(pos int) *resproto.XMLNamespace {
	if pos < 0 {
		return nil
	}
	for _, e := range p.elementFrames() {
		if pos < len(e.Namespaces) {
			return e.Namespaces[pos]
		}
		pos -= len(e.Namespaces)
	}
	return nil
}

// NamespacePrefix returns the prefix of the declaration at position pos.
func (p *Parser) NamespacePrefix(pos int) string {
	if ns := p.namespaceAt(pos); ns != nil {
		return ns.Prefix
	}
	return ""
}

// NamespaceURI returns the URI of the declaration at position pos.
func (p *Parser) NamespaceURI(pos int) string {
	if ns := p.namespaceAt(pos); ns != nil {
		return ns.URI
	}
	return ""
}

// NamespaceURIForPrefix returns the URI bound to prefix in the current scope.
func (p *Parser) NamespaceURIForPrefix(prefix string) (string, bool) {
	return ResolverAt(p).URI(prefix)
}
