package schema

import (
	"encoding/hex"
	"fmt"

	"github.com/hamba/avro/v2"
)

// AvroSchema is an externally declared schema. Identity is the SHA-256
// fingerprint of its parsing canonical form; two schemas are equal iff
// their fingerprints are.
type AvroSchema struct {
	Name        string
	Fingerprint string

	schema avro.Schema
}

// ParseAvroSchema parses schema JSON text.
func ParseAvroSchema(text string) (*AvroSchema, error) {
	s, err := avro.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("schema: parse avro: %w", err)
	}
	return NewAvroSchema(s), nil
}

// NewAvroSchema wraps an already parsed schema.
func NewAvroSchema(s avro.Schema) *AvroSchema {
	fp := s.Fingerprint()
	name := string(s.Type())
	if named, ok := s.(avro.NamedSchema); ok {
		name = named.FullName()
	}
	return &AvroSchema{
		Name:        name,
		Fingerprint: hex.EncodeToString(fp[:]),
		schema:      s,
	}
}

// Schema returns the parsed schema.
func (s *AvroSchema) Schema() avro.Schema { return s.schema }

// Equal compares by fingerprint only.
func (s *AvroSchema) Equal(o *AvroSchema) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.Fingerprint == o.Fingerprint
}

// FromSchema builds a tree from a declared record schema.
//
// Record fields become children tagged with their declared type. Enum
// symbols and union members are recorded as indexed properties; a union
// containing null marks the field optional. Records, and unions containing
// records, are descended into. Every record member of a union contributes
// to the same set of children. Maps are opaque because their key space is
// not known statically.
func FromSchema(s *AvroSchema) (*Tree, error) {
	if s == nil || s.schema == nil {
		return nil, fmt.Errorf("%w: nil schema", ErrNotNested)
	}
	rec, ok := deref(s.schema).(*avro.RecordSchema)
	if !ok {
		return nil, fmt.Errorf("%w: got avro %s", ErrNotNested, s.schema.Type())
	}
	t := NewTree(rec.FullName())
	b := schemaBuilder{active: map[string]bool{}}
	b.addRecordFields(t.Root, rec)
	return t, nil
}

// schemaBuilder tracks the records currently being expanded so that
// recursive schemas stop at the first repetition instead of looping.
type schemaBuilder struct {
	active map[string]bool
}

func (b schemaBuilder) addRecordFields(parent *Node, rec *avro.RecordSchema) {
	name := rec.FullName()
	if b.active[name] {
		return
	}
	b.active[name] = true
	defer delete(b.active, name)

	for _, f := range rec.Fields() {
		b.addSchemaField(parent.childOrNew(f.Name()), f.Type())
	}
}

func (b schemaBuilder) addSchemaField(n *Node, s avro.Schema) {
	s = deref(s)
	n.AddProperty(Property{Kind: AvroType}, string(s.Type()))

	switch t := s.(type) {
	case *avro.RecordSchema:
		b.addRecordFields(n, t)
	case *avro.EnumSchema:
		addEnumSymbols(n, t)
	case *avro.ArraySchema:
		n.IsArray = true
		addArrayItems(n, t.Items())
	case *avro.UnionSchema:
		for i, member := range t.Types() {
			member = deref(member)
			n.AddProperty(Property{Kind: AvroUnionType, Index: i}, string(member.Type()))
			if member.Type() == avro.Null {
				n.Optional = true
				continue
			}
			switch m := member.(type) {
			case *avro.RecordSchema:
				b.addRecordFields(n, m)
			case *avro.EnumSchema:
				addEnumSymbols(n, m)
			case *avro.ArraySchema:
				n.IsArray = true
				addArrayItems(n, m.Items())
			}
		}
	}
}

func addEnumSymbols(n *Node, e *avro.EnumSchema) {
	for i, sym := range e.Symbols() {
		n.AddProperty(Property{Kind: AvroEnumSymbol, Index: i}, sym)
	}
}

func addArrayItems(n *Node, items avro.Schema) {
	items = deref(items)
	u, ok := items.(*avro.UnionSchema)
	if !ok {
		n.AddProperty(Property{Kind: ArrayItemAvroType}, string(items.Type()))
		return
	}
	for i, member := range u.Types() {
		member = deref(member)
		if member.Type() == avro.Null {
			continue
		}
		n.AddProperty(Property{Kind: ArrayItemAvroType, Index: i}, string(member.Type()))
	}
}

func deref(s avro.Schema) avro.Schema {
	if r, ok := s.(*avro.RefSchema); ok {
		return r.Schema()
	}
	return s
}
