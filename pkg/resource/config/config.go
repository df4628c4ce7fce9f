// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package config models the device configuration a resource variant is
// restricted to, along with the folder-qualifier syntax used to name
// resource directories.
package config

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/language"
)

// Enumerated axes share the numbering of the compiled resource table format
// so that decoded values can be assigned without translation. Zero is unset.
type (
	LayoutDirection uint8
	ScreenSize      uint8
	ScreenLong      uint8
	ScreenRound     uint8
	WideColorGamut  uint8
	HDR             uint8
	Orientation     uint8
	UIModeType      uint8
	UIModeNight     uint8
	Touchscreen     uint8
	KeysHidden      uint8
	Keyboard        uint8
	NavHidden       uint8
	Navigation      uint8
)

// Special density values.
const (
	DensityLow     = 120
	DensityMedium  = 160
	DensityTV      = 213
	DensityHigh    = 240
	DensityXHigh   = 320
	DensityXXHigh  = 480
	DensityXXXHigh = 640
	DensityAny     = 0xfffe
	DensityNone    = 0xffff
)

// MNCZero represents the "mnc00" qualifier, which is distinct from an unset MNC.
const MNCZero = 0xffff

// Configuration is an immutable set of qualifiers. The zero value is the
// default (unqualified) configuration. Two configurations are equal iff every
// axis matches, so the type is comparable with ==.
type Configuration struct {
	MCC                   uint32
	MNC                   uint32
	Locale                string // BCP-47, e.g. "fr-CA"
	LayoutDirection       LayoutDirection
	SmallestScreenWidthDP uint32
	ScreenWidthDP         uint32
	ScreenHeightDP        uint32
	ScreenSize            ScreenSize
	ScreenLong            ScreenLong
	ScreenRound           ScreenRound
	WideColorGamut        WideColorGamut
	HDR                   HDR
	Orientation           Orientation
	UIModeType            UIModeType
	UIModeNight           UIModeNight
	Density               uint32
	Touchscreen           Touchscreen
	KeysHidden            KeysHidden
	Keyboard              Keyboard
	NavHidden             NavHidden
	Navigation            Navigation
	ScreenWidth           uint32
	ScreenHeight          uint32
	SDKVersion            uint32
}

// Default is the unqualified configuration.
var Default = Configuration{}

// IsDefault reports whether no qualifier is set.
func (c Configuration) IsDefault() bool {
	return c == Default
}

// String returns the folder-qualifier form, or "default".
func (c Configuration) String() string {
	if q := c.Qualifiers(); q != "" {
		return q
	}
	return "default"
}

// Qualifiers returns the configuration as a dash-separated folder-qualifier
// string in canonical order, e.g. "fr-rCA-land-hdpi-v21". The default
// configuration yields the empty string.
func (c Configuration) Qualifiers() string {
	var parts []string
	for _, q := range qualifiers {
		if s := q.print(&c); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "-")
}

// ErrInvalidQualifier is returned for malformed or out-of-order qualifiers.
var ErrInvalidQualifier = errors.New("invalid qualifier")

// ParseQualifiers parses a dash-separated qualifier string (without the
// resource type prefix). Qualifiers must appear in canonical order.
func ParseQualifiers(s string) (Configuration, error) {
	var c Configuration
	if s == "" {
		return c, nil
	}
	segs := strings.Split(s, "-")
	next := 0
	for i := 0; i < len(segs); i++ {
		seg := strings.ToLower(segs[i])
		if seg == "" {
			return Default, errors.Wrapf(ErrInvalidQualifier, "empty segment in %q", s)
		}
		matched := false
		for next < len(qualifiers) {
			q := qualifiers[next]
			next++
			if q.locale {
				consumed, ok := parseLocale(&c, segs[i:])
				if ok {
					i += consumed - 1
					matched = true
					break
				}
				continue
			}
			if q.parse(&c, seg) {
				matched = true
				break
			}
		}
		if !matched {
			return Default, errors.Wrapf(ErrInvalidQualifier, "%q in %q", segs[i], s)
		}
	}
	return c, nil
}

// ParseFolderName splits a resource directory name such as "values-fr" into
// its folder type and configuration.
func ParseFolderName(name string) (string, Configuration, error) {
	folder, quals, _ := strings.Cut(name, "-")
	if folder == "" {
		return "", Default, errors.Wrapf(ErrInvalidQualifier, "folder %q", name)
	}
	c, err := ParseQualifiers(quals)
	if err != nil {
		return "", Default, err
	}
	return folder, c, nil
}

// FolderName returns the resource directory name for a folder type in c.
func (c Configuration) FolderName(folder string) string {
	if q := c.Qualifiers(); q != "" {
		return folder + "-" + q
	}
	return folder
}

type qualifier struct {
	locale bool
	parse  func(c *Configuration, seg string) bool
	print  func(c *Configuration) string
}

func enumQualifier[T ~uint8](names []string, field func(*Configuration) *T) qualifier {
	return qualifier{
		parse: func(c *Configuration, seg string) bool {
			for i, n := range names {
				if n != "" && n == seg {
					*field(c) = T(i)
					return true
				}
			}
			return false
		},
		print: func(c *Configuration) string {
			v := int(*field(c))
			if v < len(names) {
				return names[v]
			}
			return ""
		},
	}
}

func numberQualifier(prefix, suffix string, field func(*Configuration) *uint32) qualifier {
	return qualifier{
		parse: func(c *Configuration, seg string) bool {
			if !strings.HasPrefix(seg, prefix) || !strings.HasSuffix(seg, suffix) {
				return false
			}
			n, ok := parseUint(seg[len(prefix) : len(seg)-len(suffix)])
			if !ok {
				return false
			}
			*field(c) = n
			return true
		},
		print: func(c *Configuration) string {
			if v := *field(c); v != 0 {
				return prefix + strconv.FormatUint(uint64(v), 10) + suffix
			}
			return ""
		},
	}
}

func parseUint(s string) (uint32, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(s, 10, 32)
	return uint32(n), err == nil
}

var densityNames = map[string]uint32{
	"ldpi":    DensityLow,
	"mdpi":    DensityMedium,
	"tvdpi":   DensityTV,
	"hdpi":    DensityHigh,
	"xhdpi":   DensityXHigh,
	"xxhdpi":  DensityXXHigh,
	"xxxhdpi": DensityXXXHigh,
	"anydpi":  DensityAny,
	"nodpi":   DensityNone,
}

// DensityName returns the qualifier for a density value.
func DensityName(d uint32) string {
	for name, v := range densityNames {
		if v == d {
			return name
		}
	}
	if d == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(d), 10) + "dpi"
}

var qualifiers = []qualifier{
	numberQualifier("mcc", "", func(c *Configuration) *uint32 { return &c.MCC }),
	{
		parse: func(c *Configuration, seg string) bool {
			if !strings.HasPrefix(seg, "mnc") {
				return false
			}
			n, ok := parseUint(seg[3:])
			if !ok || len(seg) > 6 {
				return false
			}
			if n == 0 {
				n = MNCZero
			}
			c.MNC = n
			return true
		},
		print: func(c *Configuration) string {
			switch c.MNC {
			case 0:
				return ""
			case MNCZero:
				return "mnc00"
			}
			return "mnc" + strconv.FormatUint(uint64(c.MNC), 10)
		},
	},
	{locale: true, print: func(c *Configuration) string { return localeQualifier(c.Locale) }},
	enumQualifier([]string{"", "ldltr", "ldrtl"}, func(c *Configuration) *LayoutDirection { return &c.LayoutDirection }),
	numberQualifier("sw", "dp", func(c *Configuration) *uint32 { return &c.SmallestScreenWidthDP }),
	numberQualifier("w", "dp", func(c *Configuration) *uint32 { return &c.ScreenWidthDP }),
	numberQualifier("h", "dp", func(c *Configuration) *uint32 { return &c.ScreenHeightDP }),
	enumQualifier([]string{"", "small", "normal", "large", "xlarge"}, func(c *Configuration) *ScreenSize { return &c.ScreenSize }),
	enumQualifier([]string{"", "long", "notlong"}, func(c *Configuration) *ScreenLong { return &c.ScreenLong }),
	enumQualifier([]string{"", "round", "notround"}, func(c *Configuration) *ScreenRound { return &c.ScreenRound }),
	enumQualifier([]string{"", "widecg", "nowidecg"}, func(c *Configuration) *WideColorGamut { return &c.WideColorGamut }),
	enumQualifier([]string{"", "highdr", "lowdr"}, func(c *Configuration) *HDR { return &c.HDR }),
	enumQualifier([]string{"", "port", "land", "square"}, func(c *Configuration) *Orientation { return &c.Orientation }),
	// "normal" is never a folder qualifier for the UI mode; it would collide with the screen size.
	enumQualifier([]string{"", "", "desk", "car", "television", "appliance", "watch", "vrheadset"}, func(c *Configuration) *UIModeType { return &c.UIModeType }),
	enumQualifier([]string{"", "night", "notnight"}, func(c *Configuration) *UIModeNight { return &c.UIModeNight }),
	{
		parse: func(c *Configuration, seg string) bool {
			if d, ok := densityNames[seg]; ok {
				c.Density = d
				return true
			}
			if n, ok := parseUint(strings.TrimSuffix(seg, "dpi")); ok && strings.HasSuffix(seg, "dpi") && n != 0 {
				c.Density = n
				return true
			}
			return false
		},
		print: func(c *Configuration) string { return DensityName(c.Density) },
	},
	enumQualifier([]string{"", "notouch", "stylus", "finger"}, func(c *Configuration) *Touchscreen { return &c.Touchscreen }),
	enumQualifier([]string{"", "keysexposed", "keyshidden", "keyssoft"}, func(c *Configuration) *KeysHidden { return &c.KeysHidden }),
	enumQualifier([]string{"", "nokeys", "qwerty", "12key"}, func(c *Configuration) *Keyboard { return &c.Keyboard }),
	enumQualifier([]string{"", "navexposed", "navhidden"}, func(c *Configuration) *NavHidden { return &c.NavHidden }),
	enumQualifier([]string{"", "nonav", "dpad", "trackball", "wheel"}, func(c *Configuration) *Navigation { return &c.Navigation }),
	{
		parse: func(c *Configuration, seg string) bool {
			w, h, ok := strings.Cut(seg, "x")
			if !ok {
				return false
			}
			wn, wok := parseUint(w)
			hn, hok := parseUint(h)
			if !wok || !hok || wn < hn {
				return false
			}
			c.ScreenWidth, c.ScreenHeight = wn, hn
			return true
		},
		print: func(c *Configuration) string {
			if c.ScreenWidth == 0 && c.ScreenHeight == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.ScreenWidth), 10) + "x" + strconv.FormatUint(uint64(c.ScreenHeight), 10)
		},
	},
	numberQualifier("v", "", func(c *Configuration) *uint32 { return &c.SDKVersion }),
}

// parseLocale consumes one or two segments at the head of segs as a locale
// qualifier and reports how many were consumed.
func parseLocale(c *Configuration, segs []string) (int, bool) {
	seg := segs[0]
	if strings.HasPrefix(strings.ToLower(seg), "b+") {
		tag, err := NormalizeLocale(strings.ReplaceAll(seg[2:], "+", "-"))
		if err != nil {
			return 0, false
		}
		c.Locale = tag
		return 1, true
	}
	if !isLanguage(seg) {
		return 0, false
	}
	lang := strings.ToLower(seg)
	consumed := 1
	if len(segs) > 1 && len(segs[1]) == 3 && (segs[1][0] == 'r' || segs[1][0] == 'R') {
		if _, err := language.ParseRegion(segs[1][1:]); err == nil {
			lang += "-" + strings.ToUpper(segs[1][1:])
			consumed = 2
		}
	}
	tag, err := NormalizeLocale(lang)
	if err != nil {
		return 0, false
	}
	c.Locale = tag
	return consumed, true
}

func isLanguage(seg string) bool {
	if len(seg) != 2 && len(seg) != 3 {
		return false
	}
	// "car" is a UI mode, not the Carib language.
	if strings.EqualFold(seg, "car") {
		return false
	}
	for _, r := range seg {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	_, err := language.ParseBase(seg)
	return err == nil
}

// NormalizeLocale canonicalizes a BCP-47 tag. The empty tag is returned as is.
func NormalizeLocale(tag string) (string, error) {
	if tag == "" {
		return "", nil
	}
	t, err := language.Raw.Parse(tag)
	if err != nil {
		return "", errors.Wrapf(err, "parsing locale %q", tag)
	}
	return t.String(), nil
}

func localeQualifier(tag string) string {
	if tag == "" {
		return ""
	}
	t, err := language.Raw.Parse(tag)
	if err != nil {
		return ""
	}
	base, _ := t.Base()
	_, scriptConf := t.Script()
	region, regionConf := t.Region()
	simple := scriptConf != language.Exact && len(t.Variants()) == 0
	if regionConf == language.Exact && !region.IsCountry() {
		simple = false
	}
	if !simple {
		return "b+" + strings.ReplaceAll(t.String(), "-", "+")
	}
	if regionConf == language.Exact {
		return base.String() + "-r" + region.String()
	}
	return base.String()
}
