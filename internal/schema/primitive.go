package schema

import (
	"fmt"

	"github.com/hamba/avro/v2"
)

// PrimitiveType is one of the scalar output types every leaf resolves to.
type PrimitiveType int

const (
	Text PrimitiveType = iota + 1
	Int
	BigInt
	Float
	Double
	Boolean
)

func (p PrimitiveType) String() string {
	switch p {
	case Text:
		return "TEXT"
	case Int:
		return "INT"
	case BigInt:
		return "BIGINT"
	case Float:
		return "FLOAT"
	case Double:
		return "DOUBLE"
	case Boolean:
		return "BOOLEAN"
	default:
		return fmt.Sprintf("PrimitiveType(%d)", int(p))
	}
}

// Rank orders, most general first. When samples disagree, the first entry
// present wins, so textual evidence always subsumes numeric and boolean.
var (
	avroRank = []string{
		string(avro.Bytes),
		string(avro.String),
		string(avro.Fixed),
		string(avro.Enum),
		string(avro.Double),
		string(avro.Float),
		string(avro.Long),
		string(avro.Int),
		string(avro.Boolean),
	}
	jsonRank = []string{JSONTextual, JSONBinary, JSONFloat, JSONInteger, JSONBoolean}

	avroPrimitive = map[string]PrimitiveType{
		string(avro.Bytes):   Text,
		string(avro.String):  Text,
		string(avro.Fixed):   Text,
		string(avro.Enum):    Text,
		string(avro.Double):  Double,
		string(avro.Float):   Float,
		string(avro.Long):    BigInt,
		string(avro.Int):     Int,
		string(avro.Boolean): Boolean,
	}
	jsonPrimitive = map[string]PrimitiveType{
		JSONTextual: Text,
		JSONBinary:  Text,
		JSONFloat:   Double,
		JSONInteger: BigInt,
		JSONBoolean: Boolean,
	}
)

// Resolver maps accumulated evidence to primitive types. It holds no state;
// results are memoized on the nodes themselves. Construct one at startup
// and pass it to every generator.
type Resolver struct{}

// NewResolver returns a Resolver.
func NewResolver() *Resolver { return &Resolver{} }

// Resolve returns the primitive type of a leaf.
//
// Declared Avro evidence takes priority over duck-typed JSON evidence;
// within each, the widest candidate by rank wins. It returns ErrBranchNode
// for a node with children and ErrNoEvidence when nothing maps to a scalar.
func (r *Resolver) Resolve(n *Node) (PrimitiveType, error) {
	n.memo.mu.Lock()
	defer n.memo.mu.Unlock()

	if n.memo.scalar != 0 {
		return n.memo.scalar, nil
	}
	if n.HasChildren() {
		return 0, fmt.Errorf("%w: %s", ErrBranchNode, n.ID)
	}
	if !n.props.Has(AvroType) && !n.props.Has(JSONType) {
		return 0, fmt.Errorf("%w: %s has no type evidence", ErrNoEvidence, n.ID)
	}

	if t, ok := widest(avroCandidates(n.props, AvroType), avroRank, avroPrimitive); ok {
		n.memo.scalar = t
		return t, nil
	}
	if t, ok := widest(n.props.Values(JSONType), jsonRank, jsonPrimitive); ok {
		n.memo.scalar = t
		return t, nil
	}
	return 0, fmt.Errorf("%w: %s has only non-scalar evidence", ErrNoEvidence, n.ID)
}

// ResolveArrayItem returns the primitive type of an array node's items
// using the ARRAY_ITEM_* evidence and the same rank orders.
func (r *Resolver) ResolveArrayItem(n *Node) (PrimitiveType, error) {
	n.memo.mu.Lock()
	defer n.memo.mu.Unlock()

	if n.memo.item != 0 {
		return n.memo.item, nil
	}
	if n.HasChildren() {
		return 0, fmt.Errorf("%w: %s", ErrBranchNode, n.ID)
	}
	if !n.props.Has(ArrayItemAvroType) && !n.props.Has(ArrayItemType) {
		return 0, fmt.Errorf("%w: %s has no item evidence", ErrNoEvidence, n.ID)
	}

	if t, ok := widest(n.props.Values(ArrayItemAvroType), avroRank, avroPrimitive); ok {
		n.memo.item = t
		return t, nil
	}
	if t, ok := widest(n.props.Values(ArrayItemType), jsonRank, jsonPrimitive); ok {
		n.memo.item = t
		return t, nil
	}
	return 0, fmt.Errorf("%w: %s has only non-scalar item evidence", ErrNoEvidence, n.ID)
}

// avroCandidates expands declared unions into their member types.
func avroCandidates(ps Properties, kind PropertyKind) []string {
	var out []string
	for _, v := range ps.Values(kind) {
		if v == string(avro.Union) {
			out = append(out, ps.Values(AvroUnionType)...)
			continue
		}
		out = append(out, v)
	}
	return out
}

func widest(candidates []string, rank []string, mapping map[string]PrimitiveType) (PrimitiveType, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	present := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		present[c] = struct{}{}
	}
	for _, r := range rank {
		if _, ok := present[r]; ok {
			return mapping[r], true
		}
	}
	return 0, false
}
