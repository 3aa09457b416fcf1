package schema

import (
	"reflect"
	"testing"
)

func TestTree_HashFollowsStructure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		a, b  string
		equal bool
	}{
		{name: "identical", a: `{"a":1,"b":{"c":"x"}}`, b: `{"b":{"c":"y"},"a":2}`, equal: true},
		{name: "different type", a: `{"a":1}`, b: `{"a":"1"}`, equal: false},
		{name: "null vs value", a: `{"a":1}`, b: `{"a":null}`, equal: false},
		{name: "extra field", a: `{"a":1}`, b: `{"a":1,"z":1}`, equal: false},
		{name: "array vs scalar", a: `{"a":[1]}`, b: `{"a":1}`, equal: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := mustDocTree(t, tt.a, "E")
			b := mustDocTree(t, tt.b, "E")
			if got := a.Equal(b); got != tt.equal {
				t.Fatalf("Equal = %v, want %v", got, tt.equal)
			}
			if tt.equal && a.Hash() != b.Hash() {
				t.Fatalf("equal trees hash differently")
			}
			if !tt.equal && a.Hash() == b.Hash() {
				t.Fatalf("unequal trees collided: %x", a.Hash())
			}
		})
	}
}

func TestTree_DotNotationAndLeaves(t *testing.T) {
	t.Parallel()

	tree := mustDocTree(t, `{"a":{"b":1},"c":[true],"d":null}`, "E")

	want := []string{
		"a :",
		"a.b : JSON_TYPE=INTEGER",
		"c : JSON_TYPE=ARRAY ARRAY_ITEM_TYPE=BOOLEAN [array]",
		"d : [optional]",
	}
	if got := tree.DotNotation(); !reflect.DeepEqual(got, want) {
		t.Fatalf("DotNotation =\n%q\nwant\n%q", got, want)
	}

	var ids []string
	for _, n := range tree.Leaves() {
		ids = append(ids, n.ID)
	}
	if want := []string{"a.b", "c", "d"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("Leaves = %v, want %v", ids, want)
	}
}
