// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package xmlpull

// Reserved namespaces.
const (
	XMLNamespace   = "http://www.w3.org/XML/1998/namespace"
	XMLNSNamespace = "http://www.w3.org/2000/xmlns/"
)

// Resolver holds the prefix bindings in scope at one node as a flat
// [prefix, uri, prefix, uri, ...] array, most recently declared first.
// The xml and xmlns prefixes are always bound.
type Resolver struct {
	bindings []string
}

// NewResolver returns a resolver over interleaved prefix/URI pairs, most
// recently declared first.
func NewResolver(bindings ...string) *Resolver {
	if len(bindings)%2 != 0 {
		bindings = bindings[:len(bindings)-1]
	}
	return &Resolver{bindings: bindings}
}

// ResolverAt captures the bindings in scope at the parser's current node.
func ResolverAt(p *Parser) *Resolver {
	els := p.elementFrames()
	var bindings []string
	for i := len(els) - 1; i >= 0; i-- {
		nss := els[i].Namespaces
		for j := len(nss) - 1; j >= 0; j-- {
			bindings = append(bindings, nss[j].Prefix, nss[j].URI)
		}
	}
	return &Resolver{bindings: bindings}
}

// URI returns the namespace bound to prefix.
func (r *Resolver) URI(prefix string) (string, bool) {
	switch prefix {
	case "xml":
		return XMLNamespace, true
	case "xmlns":
		return XMLNSNamespace, true
	}
	for i := 0; i+1 < len(r.bindings); i += 2 {
		if r.bindings[i] == prefix {
			return r.bindings[i+1], true
		}
	}
	return "", false
}

// Prefix returns a prefix bound to uri. A prefix shadowed by a more recent
// declaration is not returned.
func (r *Resolver) Prefix(uri string) (string, bool) {
	switch uri {
	case XMLNamespace:
		return "xml", true
	case XMLNSNamespace:
		return "xmlns", true
	}
	for i := 0; i+1 < len(r.bindings); i += 2 {
		if r.bindings[i+1] != uri {
			continue
		}
		prefix := r.bindings[i]
		if bound, _ := r.URI(prefix); bound == uri {
			return prefix, true
		}
	}
	return "", false
}

// Len returns the number of bindings, excluding the reserved ones.
func (r *Resolver) Len() int {
	return len(r.bindings) / 2
}
