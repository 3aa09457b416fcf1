package schema

import (
	"fmt"
	"sort"
)

// PropertyKind tags a piece of type evidence with its provenance. The kinds
// are disjoint: document builders only emit JSON kinds, schema builders only
// emit Avro kinds, so the resolver can always tell where evidence came from.
type PropertyKind int

const (
	// JSONType is the duck-typed kind of a document value (TEXTUAL, INTEGER, ...).
	JSONType PropertyKind = iota + 1
	// AvroType is the declared Avro type of a record field.
	AvroType
	// AvroUnionType is one member of a declared union, indexed by position.
	AvroUnionType
	// AvroEnumSymbol is one symbol of a declared enum, indexed by position.
	AvroEnumSymbol
	// ArrayItemType is the duck-typed kind of an array element.
	ArrayItemType
	// ArrayItemAvroType is the declared Avro type of array items.
	ArrayItemAvroType
)

func (k PropertyKind) String() string {
	switch k {
	case JSONType:
		return "JSON_TYPE"
	case AvroType:
		return "AVRO_TYPE"
	case AvroUnionType:
		return "AVRO_UNION_TYPE"
	case AvroEnumSymbol:
		return "AVRO_ENUM_SYMBOL"
	case ArrayItemType:
		return "ARRAY_ITEM_TYPE"
	case ArrayItemAvroType:
		return "ARRAY_ITEM_AVRO_TYPE"
	default:
		return fmt.Sprintf("PropertyKind(%d)", int(k))
	}
}

// JSON type evidence values.
const (
	JSONTextual = "TEXTUAL"
	JSONInteger = "INTEGER"
	JSONFloat   = "FLOAT"
	JSONBoolean = "BOOLEAN"
	JSONBinary  = "BINARY"
	JSONArray   = "ARRAY"
	JSONObject  = "OBJECT"
)

// Property is one key of a node's property bag. Index distinguishes ordered
// members (union members, enum symbols, union item types) and is zero for
// the single-valued kinds.
type Property struct {
	Kind  PropertyKind
	Index int
}

func (p Property) String() string {
	if p.Index != 0 || p.Kind == AvroUnionType || p.Kind == AvroEnumSymbol {
		return fmt.Sprintf("%s_%d", p.Kind, p.Index)
	}
	return p.Kind.String()
}

// Properties is a multimap from Property to a set of string values.
// Merging two bags is a set union, which is what makes structure merges
// commutative and idempotent.
type Properties map[Property]map[string]struct{}

// Add records value under p.
func (ps Properties) Add(p Property, value string) {
	set, ok := ps[p]
	if !ok {
		set = make(map[string]struct{}, 1)
		ps[p] = set
	}
	set[value] = struct{}{}
}

// Has reports whether any evidence of the given kind exists, at any index.
func (ps Properties) Has(kind PropertyKind) bool {
	for p, set := range ps {
		if p.Kind == kind && len(set) > 0 {
			return true
		}
	}
	return false
}

// Values returns the sorted, de-duplicated values recorded for kind across
// all indexes.
func (ps Properties) Values(kind PropertyKind) []string {
	seen := map[string]struct{}{}
	for p, set := range ps {
		if p.Kind != kind {
			continue
		}
		for v := range set {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Union adds every value of other into ps.
func (ps Properties) Union(other Properties) {
	for p, set := range other {
		for v := range set {
			ps.Add(p, v)
		}
	}
}

// Equal reports whether both bags hold exactly the same values under the
// same keys. Keys with empty value sets are ignored.
func (ps Properties) Equal(other Properties) bool {
	if ps.size() != other.size() {
		return false
	}
	for p, set := range ps {
		if len(set) == 0 {
			continue
		}
		oset := other[p]
		if len(oset) != len(set) {
			return false
		}
		for v := range set {
			if _, ok := oset[v]; !ok {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy.
func (ps Properties) Clone() Properties {
	out := make(Properties, len(ps))
	out.Union(ps)
	return out
}

// Keys returns the non-empty keys ordered by kind, then index.
func (ps Properties) Keys() []Property {
	keys := make([]Property, 0, len(ps))
	for p, set := range ps {
		if len(set) == 0 {
			continue
		}
		keys = append(keys, p)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}
		return keys[i].Index < keys[j].Index
	})
	return keys
}

// sorted returns the values of a single key in sorted order.
func (ps Properties) sorted(p Property) []string {
	set := ps[p]
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (ps Properties) size() int {
	n := 0
	for _, set := range ps {
		if len(set) > 0 {
			n++
		}
	}
	return n
}
