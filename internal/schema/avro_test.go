package schema

import (
	"errors"
	"reflect"
	"testing"
)

func mustAvro(t *testing.T, text string) *AvroSchema {
	t.Helper()
	s, err := ParseAvroSchema(text)
	if err != nil {
		t.Fatalf("ParseAvroSchema: %v", err)
	}
	return s
}

func TestFromSchema_FieldEvidence(t *testing.T) {
	t.Parallel()

	s := mustAvro(t, `{
	  "type": "record", "name": "OrderPlaced", "namespace": "shop",
	  "fields": [
	    {"name": "id", "type": "long"},
	    {"name": "note", "type": ["null", "string"]},
	    {"name": "status", "type": {"type": "enum", "name": "OrderStatus", "symbols": ["NEW", "PAID"]}},
	    {"name": "labels", "type": {"type": "map", "values": "string"}},
	    {"name": "items", "type": {"type": "array", "items": "string"}},
	    {"name": "customer", "type": {"type": "record", "name": "Customer", "fields": [
	      {"name": "email", "type": "string"}
	    ]}}
	  ]
	}`)

	tree, err := FromSchema(s)
	if err != nil {
		t.Fatalf("FromSchema: %v", err)
	}
	if tree.Name() != "shop.OrderPlaced" {
		t.Fatalf("tree name = %q, want shop.OrderPlaced", tree.Name())
	}

	id, _ := tree.Lookup("id")
	if got := id.Values(AvroType); !reflect.DeepEqual(got, []string{"long"}) {
		t.Fatalf("id AVRO_TYPE = %v", got)
	}

	note, _ := tree.Lookup("note")
	if !note.Optional {
		t.Fatalf("note must be optional (union with null)")
	}
	if got := note.Values(AvroUnionType); !reflect.DeepEqual(got, []string{"null", "string"}) {
		t.Fatalf("note AVRO_UNION_TYPE = %v", got)
	}

	status, _ := tree.Lookup("status")
	if got := status.Values(AvroEnumSymbol); !reflect.DeepEqual(got, []string{"NEW", "PAID"}) {
		t.Fatalf("status symbols = %v", got)
	}

	labels, _ := tree.Lookup("labels")
	if labels.HasChildren() {
		t.Fatalf("map fields must stay opaque")
	}

	items, _ := tree.Lookup("items")
	if !items.IsArray {
		t.Fatalf("items must be an array")
	}
	if got := items.Values(ArrayItemAvroType); !reflect.DeepEqual(got, []string{"string"}) {
		t.Fatalf("items ARRAY_ITEM_AVRO_TYPE = %v", got)
	}

	if _, ok := tree.Lookup("customer.email"); !ok {
		t.Fatalf("nested record not expanded: %v", tree.DotNotation())
	}
}

func TestFromSchema_OptionalFromNullMember(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		typ  string
		want bool
	}{
		{name: "null first", typ: `["null", "string"]`, want: true},
		{name: "null last", typ: `["long", "null"]`, want: true},
		{name: "no null", typ: `["long", "string"]`, want: false},
		{name: "plain", typ: `"string"`, want: false},
		{name: "nullable array items", typ: `{"type": "array", "items": ["null", "int"]}`, want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := mustAvro(t, `{"type": "record", "name": "E", "fields": [{"name": "f", "type": `+tt.typ+`}]}`)
			tree, err := FromSchema(s)
			if err != nil {
				t.Fatalf("FromSchema: %v", err)
			}
			f, _ := tree.Lookup("f")
			if f.Optional != tt.want {
				t.Fatalf("Optional = %v, want %v (%v)", f.Optional, tt.want, tree.DotNotation())
			}
		})
	}
}

func TestFromSchema_UnionOfRecordsSharesChildren(t *testing.T) {
	t.Parallel()

	s := mustAvro(t, `{
	  "type": "record", "name": "PaymentEvent",
	  "fields": [
	    {"name": "method", "type": ["null",
	      {"type": "record", "name": "Card", "fields": [{"name": "last4", "type": "string"}, {"name": "amount", "type": "int"}]},
	      {"type": "record", "name": "Wire", "fields": [{"name": "iban", "type": "string"}, {"name": "amount", "type": "long"}]}
	    ]}
	  ]
	}`)

	tree, err := FromSchema(s)
	if err != nil {
		t.Fatalf("FromSchema: %v", err)
	}
	method, _ := tree.Lookup("method")
	if !method.Optional {
		t.Fatalf("method must be optional")
	}
	var ids []string
	for _, c := range method.Children() {
		ids = append(ids, c.ID)
	}
	if want := []string{"method.amount", "method.iban", "method.last4"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("children = %v, want %v", ids, want)
	}

	amount, _ := tree.Lookup("method.amount")
	got, err := NewResolver().Resolve(amount)
	if err != nil || got != BigInt {
		t.Fatalf("Resolve(method.amount) = %v, %v; want BIGINT", got, err)
	}
}

func TestFromSchema_RecursiveRecordTerminates(t *testing.T) {
	t.Parallel()

	s := mustAvro(t, `{
	  "type": "record", "name": "LinkedEntry",
	  "fields": [
	    {"name": "value", "type": "string"},
	    {"name": "next", "type": ["null", "LinkedEntry"]}
	  ]
	}`)

	tree, err := FromSchema(s)
	if err != nil {
		t.Fatalf("FromSchema: %v", err)
	}
	next, ok := tree.Lookup("next")
	if !ok {
		t.Fatalf("next missing")
	}
	if next.HasChildren() {
		t.Fatalf("recursive reference must not be expanded")
	}
}

func TestFromSchema_RejectsNonRecord(t *testing.T) {
	t.Parallel()

	s := mustAvro(t, `{"type": "array", "items": "string"}`)
	if _, err := FromSchema(s); !errors.Is(err, ErrNotNested) {
		t.Fatalf("FromSchema(array) error = %v, want ErrNotNested", err)
	}
}

func TestAvroSchema_EqualByFingerprint(t *testing.T) {
	t.Parallel()

	text := `{"type":"record","name":"FingerprintCheck","fields":[{"name":"a","type":"int"}]}`
	a := mustAvro(t, text)
	b := mustAvro(t, text)
	c := mustAvro(t, `{"type":"record","name":"FingerprintCheckTwo","fields":[{"name":"a","type":"long"}]}`)

	if !a.Equal(b) {
		t.Fatalf("identical schemas must be equal")
	}
	if a.Equal(c) {
		t.Fatalf("different schemas must not be equal")
	}
	if len(a.Fingerprint) != 64 {
		t.Fatalf("fingerprint %q should be hex sha256", a.Fingerprint)
	}
}
