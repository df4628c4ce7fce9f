// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package xmlpull

import (
	"bufio"
	"io"
	"strings"

	"github.com/google/resrepo/pkg/resproto"
	"github.com/pkg/errors"
)

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

// Render writes the tree rooted at root as text XML.
func Render(w io.Writer, root *resproto.XMLNode) error {
	bw := bufio.NewWriter(w)
	p := NewParser(root)
	for {
		ev, err := p.Next()
		if err != nil {
			return errors.Wrap(err, "walking document")
		}
		switch ev {
		case StartTag:
			r := ResolverAt(p)
			bw.WriteString("<" + qualify(r, p.Namespace(), p.Name()))
			depth := p.Depth()
			for pos := p.NamespaceCount(depth - 1); pos < p.NamespaceCount(depth); pos++ {
				bw.WriteString(" xmlns")
				if prefix := p.NamespacePrefix(pos); prefix != "" {
					bw.WriteString(":" + prefix)
				}
				bw.WriteString(`="` + attrEscaper.Replace(p.NamespaceURI(pos)) + `"`)
			}
			for i := 0; i < p.AttributeCount(); i++ {
				name := qualify(r, p.AttributeNamespace(i), p.AttributeName(i))
				bw.WriteString(" " + name + `="` + attrEscaper.Replace(p.AttributeValue(i)) + `"`)
			}
			bw.WriteString(">")
		case EndTag:
			if p.element() == nil {
				continue
			}
			bw.WriteString("</" + qualify(ResolverAt(p), p.Namespace(), p.Name()) + ">")
		case Text:
			bw.WriteString(textEscaper.Replace(p.Text()))
		case EndDocument:
			bw.WriteString("\n")
			return errors.Wrap(bw.Flush(), "flushing output")
		}
	}
}

func qualify(r *Resolver, ns, name string) string {
	if ns == "" {
		return name
	}
	if prefix, ok := r.Prefix(ns); ok && prefix != "" {
		return prefix + ":" + name
	}
	return name
}
