package schema

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func mustDocTree(t *testing.T, doc, name string) *Tree {
	t.Helper()
	v, err := DecodeDocument([]byte(doc))
	if err != nil {
		t.Fatalf("DecodeDocument(%s): %v", doc, err)
	}
	tree, err := FromDocument(v, name)
	if err != nil {
		t.Fatalf("FromDocument(%s): %v", doc, err)
	}
	return tree
}

func TestFromDocument_RejectsNonObjectRoot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{name: "array", doc: `[1,2]`},
		{name: "string", doc: `"x"`},
		{name: "number", doc: `42`},
		{name: "null", doc: `null`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, err := DecodeDocument([]byte(tt.doc))
			if err != nil {
				t.Fatalf("DecodeDocument: %v", err)
			}
			_, err = FromDocument(v, "E")
			if !errors.Is(err, ErrNotNested) {
				t.Fatalf("FromDocument(%s) error = %v, want ErrNotNested", tt.doc, err)
			}
		})
	}
}

func TestFromDocument_TagsScalars(t *testing.T) {
	t.Parallel()

	tree := mustDocTree(t, `{"s":"x","i":1,"f":1.5,"e":2e3,"g":2.5e-1,"b":true,"n":null}`, "E")

	tests := []struct {
		id       string
		want     []string
		optional bool
	}{
		{id: "s", want: []string{JSONTextual}},
		{id: "i", want: []string{JSONInteger}},
		{id: "f", want: []string{JSONFloat}},
		{id: "e", want: []string{JSONInteger}},
		{id: "g", want: []string{JSONFloat}},
		{id: "b", want: []string{JSONBoolean}},
		{id: "n", want: []string{}, optional: true},
	}
	for _, tt := range tests {
		n, ok := tree.Lookup(tt.id)
		if !ok {
			t.Fatalf("node %q missing", tt.id)
		}
		if got := n.Values(JSONType); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("node %q JSON_TYPE = %v, want %v", tt.id, got, tt.want)
		}
		if n.Optional != tt.optional {
			t.Fatalf("node %q Optional = %v, want %v", tt.id, n.Optional, tt.optional)
		}
		if n.HasChildren() {
			t.Fatalf("node %q must be a leaf", tt.id)
		}
	}
}

func TestFromDocument_NestedObjectsAndArrays(t *testing.T) {
	t.Parallel()

	tree := mustDocTree(t, `{"a":{"b":{"c":"x"}},"tags":["x",1,null],"objs":[{"k":1}]}`, "E")

	c, ok := tree.Lookup("a.b.c")
	if !ok {
		t.Fatalf("a.b.c missing; have %v", tree.DotNotation())
	}
	if got, want := c.Path(), []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Path() = %v, want %v", got, want)
	}

	tags, _ := tree.Lookup("tags")
	if !tags.IsArray || tags.HasChildren() {
		t.Fatalf("tags: IsArray=%v children=%v, want array leaf", tags.IsArray, tags.HasChildren())
	}
	if got, want := tags.Values(ArrayItemType), []string{JSONInteger, JSONTextual}; !reflect.DeepEqual(got, want) {
		t.Fatalf("tags ARRAY_ITEM_TYPE = %v, want %v", got, want)
	}

	objs, _ := tree.Lookup("objs")
	if got, want := objs.Values(ArrayItemType), []string{JSONObject}; !reflect.DeepEqual(got, want) {
		t.Fatalf("objs ARRAY_ITEM_TYPE = %v, want %v", got, want)
	}
}

func TestFromDocument_GoNativeValues(t *testing.T) {
	t.Parallel()

	doc := map[string]any{
		"i64":   int64(7),
		"f64":   float64(3),
		"frac":  float64(3.25),
		"f32":   float32(0.5),
		"bytes": []byte("raw"),
	}
	tree, err := FromDocument(doc, "E")
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}

	want := map[string]string{
		"i64":   JSONInteger,
		"f64":   JSONInteger,
		"frac":  JSONFloat,
		"f32":   JSONFloat,
		"bytes": JSONBinary,
	}
	for id, kind := range want {
		n, _ := tree.Lookup(id)
		if got := n.Values(JSONType); len(got) != 1 || got[0] != kind {
			t.Fatalf("%s JSON_TYPE = %v, want [%s]", id, got, kind)
		}
	}
}

// Numbers get the same evidence with and without UseNumber.
func TestFromDocument_NumberEvidenceIgnoresDecoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		want string
	}{
		{name: "integer", doc: `{"v":2}`, want: JSONInteger},
		{name: "integral with fraction", doc: `{"v":2.0}`, want: JSONInteger},
		{name: "integral exponent", doc: `{"v":2e3}`, want: JSONInteger},
		{name: "fraction", doc: `{"v":2.5}`, want: JSONFloat},
		{name: "small exponent", doc: `{"v":1e-3}`, want: JSONFloat},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var plain any
			if err := json.Unmarshal([]byte(tt.doc), &plain); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			plainTree, err := FromDocument(plain, "E")
			if err != nil {
				t.Fatalf("FromDocument: %v", err)
			}
			for label, tree := range map[string]*Tree{"plain": plainTree, "UseNumber": mustDocTree(t, tt.doc, "E")} {
				n, _ := tree.Lookup("v")
				if got := n.Values(JSONType); len(got) != 1 || got[0] != tt.want {
					t.Fatalf("%s: JSON_TYPE = %v, want [%s]", label, got, tt.want)
				}
			}
		})
	}
}
