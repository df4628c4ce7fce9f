// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package protores

import (
	"strconv"

	"github.com/google/resrepo/pkg/resource"
	"github.com/google/resrepo/pkg/resproto"
	"github.com/google/resrepo/pkg/xmlpull"
	"github.com/pkg/errors"
)

// Manifest holds the fields recovered from a compiled manifest.
type Manifest struct {
	Package string
	MinSDK  int
}

// ReadManifest extracts the package name and minimum SDK from a compiled
// AndroidManifest.xml.
func ReadManifest(data []byte) (*Manifest, error) {
	root, err := resproto.UnmarshalXMLNode(data)
	if err != nil {
		return nil, errors.Wrap(err, "decoding manifest")
	}
	return ParseManifest(xmlpull.NewParser(root))
}

// ParseManifest reads a manifest through a pull parser positioned at the
// start of the document.
func ParseManifest(p *xmlpull.Parser) (*Manifest, error) {
	ev, err := p.Next()
	if err != nil {
		return nil, err
	}
	if ev != xmlpull.StartTag || p.Name() != "manifest" {
		return nil, errors.Errorf("unexpected root element %q", p.Name())
	}
	m := &Manifest{}
	m.Package, _ = p.AttributeValueNS("", "package")
	for ev != xmlpull.EndDocument {
		if ev, err = p.Next(); err != nil {
			return nil, err
		}
		if ev != xmlpull.StartTag || p.Depth() != 2 || p.Name() != "uses-sdk" {
			continue
		}
		if v, ok := p.AttributeValueNS(string(resource.Android), "minSdkVersion"); ok {
			// Codenames are not numeric and leave MinSDK unset.
			if n, err := strconv.Atoi(v); err == nil {
				m.MinSDK = n
			}
		}
	}
	return m, nil
}
