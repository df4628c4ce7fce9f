// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package folder

import (
	"bufio"
	"encoding/xml"
	"io"
	"strings"

	"github.com/google/resrepo/pkg/resource"
	"github.com/pkg/errors"
)

// PublicNames lists the names declared public, by type.
type PublicNames map[resource.Type]map[string]bool

// Contains reports whether a name is declared public.
func (p PublicNames) Contains(t resource.Type, name string) bool {
	return p[t][name]
}

// ParsePublic reads a public.xml file. Entries of a public-group inherit the
// group's type.
func ParsePublic(r io.Reader) (PublicNames, error) {
	names := make(PublicNames)
	d := xml.NewDecoder(r)
	var groupType string
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return names, nil
		} else if err != nil {
			return nil, errors.Wrap(err, "reading public declarations")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "public-group", "staging-public-group":
				groupType = attrValue(t, "type")
			case "public":
				typ := attrValue(t, "type")
				if typ == "" {
					typ = groupType
				}
				rt, ok := resource.ParseType(typ)
				if !ok {
					return nil, errors.Errorf("public %q has unknown type %q", attrValue(t, "name"), typ)
				}
				if names[rt] == nil {
					names[rt] = make(map[string]bool)
				}
				names[rt][attrValue(t, "name")] = true
			}
		case xml.EndElement:
			if t.Name.Local == "public-group" || t.Name.Local == "staging-public-group" {
				groupType = ""
			}
		}
	}
}

// ParseSymbols reads the id entries of an R.txt symbol file. Lines have the
// form "int id name 0x7f0a0001"; other types and array entries are ignored.
func ParseSymbols(r io.Reader) (map[string]int32, error) {
	ids := make(map[string]int32)
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) != 4 || fields[0] != "int" || fields[1] != "id" {
			continue
		}
		v, err := parseInt32(fields[3])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: parsing id %s", lineNum, fields[2])
		}
		ids[fields[2]] = v
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading symbols")
	}
	return ids, nil
}

// Manifest holds the fields recovered from a text AndroidManifest.xml.
type Manifest struct {
	Package string
	MinSDK  int
}

// ParseManifest reads the package name and minimum SDK of a text manifest.
func ParseManifest(r io.Reader) (*Manifest, error) {
	d := xml.NewDecoder(r)
	var m *Manifest
	depth := 0
	for {
		tok, err := d.Token()
		if err == io.EOF {
			if m == nil {
				return nil, errors.New("no manifest element")
			}
			return m, nil
		} else if err != nil {
			return nil, errors.Wrap(err, "reading manifest")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch {
			case depth == 1 && t.Name.Local != "manifest":
				return nil, errors.Errorf("unexpected root element %q", t.Name.Local)
			case depth == 1:
				m = &Manifest{Package: attrValue(t, "package")}
			case depth == 2 && t.Name.Local == "uses-sdk":
				for _, a := range t.Attr {
					if a.Name.Space == string(resource.Android) && a.Name.Local == "minSdkVersion" {
						if n, err := parseInt32(a.Value); err == nil {
							m.MinSDK = int(n)
						}
					}
				}
			}
		case xml.EndElement:
			depth--
		}
	}
}
