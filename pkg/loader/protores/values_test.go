// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package protores

import (
	"math"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/go-cmp/cmp"
	"github.com/google/resrepo/pkg/loader/folder"
	"github.com/google/resrepo/pkg/resource"
	"github.com/google/resrepo/pkg/resproto"
)

func complexValue(mantissa int32, radix, unit uint32) uint32 {
	return uint32(mantissa)<<8 | radix<<4 | unit
}

func TestDecodeDimension(t *testing.T) {
	testCases := []struct {
		test string
		data uint32
		want string
	}{
		{"integer dp", complexValue(100, 0, 1), "100dp"},
		{"half dp", complexValue(64, 1, 1), "0.5dp"},
		{"negative px", complexValue(-2, 0, 0), "-2px"},
		{"sp", complexValue(14, 0, 2), "14sp"},
		{"mm", complexValue(3, 0, 5), "3mm"},
		{"quarter pt", complexValue(1<<13, 2, 3), "0.25pt"},
		{"unknown unit", complexValue(7, 0, 9), "7"},
	}
	for _, tc := range testCases {
		t.Run(tc.test, func(t *testing.T) {
			if got := DecodeDimension(tc.data); got != tc.want {
				t.Errorf("DecodeDimension(%#x) = %q, want %q", tc.data, got, tc.want)
			}
		})
	}
}

func TestDecodeFraction(t *testing.T) {
	if got := DecodeFraction(complexValue(64, 1, 1)); got != "50%p" {
		t.Errorf("DecodeFraction(half, %%p) = %q, want 50%%p", got)
	}
	if got := DecodeFraction(complexValue(1, 0, 0)); got != "100%" {
		t.Errorf("DecodeFraction(one, %%) = %q, want 100%%", got)
	}
}

func TestDecodePrimitive(t *testing.T) {
	testCases := []struct {
		test string
		prim resproto.Primitive
		want resource.TextValue
	}{
		{"null", resproto.Primitive{Kind: resproto.PrimNull}, resource.TextValue{Null: true}},
		{"empty", resproto.Primitive{Kind: resproto.PrimEmpty}, resource.TextValue{}},
		{"float", resproto.Primitive{Kind: resproto.PrimFloat, Data: math.Float32bits(1.5)}, resource.TextValue{Text: "1.5"}},
		{"float whole", resproto.Primitive{Kind: resproto.PrimFloat, Data: math.Float32bits(3)}, resource.TextValue{Text: "3"}},
		{"dimension", resproto.Primitive{Kind: resproto.PrimDimension, Data: complexValue(16, 0, 1)}, resource.TextValue{Text: "16dp"}},
		{"decimal", resproto.Primitive{Kind: resproto.PrimIntDecimal, Data: 0xfffffffe}, resource.TextValue{Text: "-2"}},
		{"hexadecimal", resproto.Primitive{Kind: resproto.PrimIntHexadecimal, Data: 0x1f}, resource.TextValue{Text: "0x1F"}},
		{"true", resproto.Primitive{Kind: resproto.PrimBoolean, Data: 1}, resource.TextValue{Text: "true"}},
		{"false", resproto.Primitive{Kind: resproto.PrimBoolean}, resource.TextValue{Text: "false"}},
		{"argb8", resproto.Primitive{Kind: resproto.PrimColorARGB8, Data: 0xff112233}, resource.TextValue{Text: "#FF112233"}},
		{"rgb8", resproto.Primitive{Kind: resproto.PrimColorRGB8, Data: 0xff112233}, resource.TextValue{Text: "#112233"}},
		{"argb4", resproto.Primitive{Kind: resproto.PrimColorARGB4, Data: 0xff112233}, resource.TextValue{Text: "#F123"}},
		{"rgb4", resproto.Primitive{Kind: resproto.PrimColorRGB4, Data: 0xff112233}, resource.TextValue{Text: "#123"}},
	}
	for _, tc := range testCases {
		t.Run(tc.test, func(t *testing.T) {
			got := DecodePrimitive(&tc.prim)
			if diff := cmp.Diff(tc.want, *got); diff != "" {
				t.Errorf("DecodePrimitive() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeReference(t *testing.T) {
	testCases := []struct {
		ref  resproto.Reference
		want string
	}{
		{resproto.Reference{Name: "string/app_name"}, "@string/app_name"},
		{resproto.Reference{Type: resproto.RefAttribute, Name: "android:attr/textColor"}, "?android:attr/textColor"},
		{resproto.Reference{Name: "android:color/hidden", Private: true}, "@*android:color/hidden"},
		{resproto.Reference{ID: 0x7f010001}, ""},
	}
	for _, tc := range testCases {
		if got := DecodeReference(&tc.ref); got != tc.want {
			t.Errorf("DecodeReference(%+v) = %q, want %q", tc.ref, got, tc.want)
		}
	}
}

func TestStyledRawXML(t *testing.T) {
	testCases := []struct {
		test  string
		value string
		spans []*resproto.Span
		want  string
	}{
		{
			test:  "tag with attributes",
			value: "Hello world",
			spans: []*resproto.Span{
				{Tag: "b", FirstChar: 0, LastChar: 4},
				{Tag: "a;href=http://x", FirstChar: 6, LastChar: 10},
			},
			want: `<b>Hello</b> <a href="http://x">world</a>`,
		},
		{
			test:  "escaped attribute",
			value: "a b",
			spans: []*resproto.Span{{Tag: "a;href=x&y<z", FirstChar: 2, LastChar: 2}},
			want:  `a <a href="x&amp;y&lt;z">b</a>`,
		},
		{
			test:  "nested",
			value: "abc",
			spans: []*resproto.Span{
				{Tag: "b", FirstChar: 0, LastChar: 2},
				{Tag: "i", FirstChar: 1, LastChar: 1},
			},
			want: "<b>a<i>b</i>c</b>",
		},
		{
			test:  "adjacent",
			value: "abcd",
			spans: []*resproto.Span{
				{Tag: "b", FirstChar: 0, LastChar: 1},
				{Tag: "i", FirstChar: 2, LastChar: 3},
			},
			want: "<b>ab</b><i>cd</i>",
		},
		{
			test:  "escaped text",
			value: "x & y",
			spans: []*resproto.Span{{Tag: "b", FirstChar: 0, LastChar: 0}},
			want:  "<b>x</b> &amp; y",
		},
		{
			test:  "utf-16 positions",
			value: "😀ab",
			spans: []*resproto.Span{{Tag: "u", FirstChar: 2, LastChar: 2}},
			want:  "😀<u>a</u>b",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.test, func(t *testing.T) {
			got := StyledRawXML(&resproto.StyledString{Value: tc.value, Spans: tc.spans})
			if got != tc.want {
				t.Errorf("StyledRawXML() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestStyledStringMatchesFolder(t *testing.T) {
	testCases := []struct {
		test   string
		source string
		styled *resproto.StyledString
	}{
		{
			test:   "attribute with markup characters",
			source: `a <a href="x&amp;y&lt;z">b</a>`,
			styled: &resproto.StyledString{Value: "a b", Spans: []*resproto.Span{{Tag: "a;href=x&y<z", FirstChar: 2, LastChar: 2}}},
		},
		{
			test:   "escaped text inside a tag",
			source: `<b>1 &lt; 2</b> &amp; 3`,
			styled: &resproto.StyledString{Value: "1 < 2 & 3", Spans: []*resproto.Span{{Tag: "b", FirstChar: 0, LastChar: 4}}},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.test, func(t *testing.T) {
			fs := memfs.New()
			xml := `<resources><string name="s">` + tc.source + `</string></resources>`
			if err := util.WriteFile(fs, "/res/values/strings.xml", []byte(xml), 0644); err != nil {
				t.Fatal(err)
			}
			res, err := folder.Load(fs, "/res", folder.Options{Strict: true})
			if err != nil {
				t.Fatalf("folder.Load() failed: %v", err)
			}
			items := res.Table.Items(resource.ResAuto, resource.String, "s")
			if len(items) != 1 {
				t.Fatalf("folder.Load() produced %d items, want 1", len(items))
			}
			want := items[0].Value
			got := ItemText(&resproto.Item{Kind: resproto.ItemStyledString, StyledStr: tc.styled})
			if diff := cmp.Diff(want, resource.Value(got)); diff != "" {
				t.Errorf("ItemText() disagrees with the folder loader (-folder +proto):\n%s", diff)
			}
		})
	}
}

func TestDecodeFormats(t *testing.T) {
	got := DecodeFormats(resproto.FormatReference | resproto.FormatColor | resproto.FormatEnum)
	want := resource.FormatReference | resource.FormatColor | resource.FormatEnum
	if got != want {
		t.Errorf("DecodeFormats() = %v, want %v", got, want)
	}
	if got := DecodeFormats(resproto.FormatFlags | resproto.FormatDimension); got.String() != "dimension|flags" {
		t.Errorf("DecodeFormats() = %v, want dimension|flags", got)
	}
}

func TestDecodeVisibility(t *testing.T) {
	testCases := []struct {
		test string
		vis  *resproto.Visibility
		want resource.Visibility
	}{
		{"absent", nil, resource.Undefined},
		{"unknown", &resproto.Visibility{Level: resproto.LevelUnknown}, resource.PrivateXMLOnly},
		{"private", &resproto.Visibility{Level: resproto.LevelPrivate}, resource.Private},
		{"public", &resproto.Visibility{Level: resproto.LevelPublic}, resource.Public},
		{"unrecognized", &resproto.Visibility{Level: 7}, resource.Undefined},
	}
	for _, tc := range testCases {
		t.Run(tc.test, func(t *testing.T) {
			if got := DecodeVisibility(tc.vis); got != tc.want {
				t.Errorf("DecodeVisibility() = %v, want %v", got, tc.want)
			}
		})
	}
}
