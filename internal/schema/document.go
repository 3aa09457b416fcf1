package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// DecodeDocument decodes a JSON document keeping numbers as json.Number, so
// FromDocument can tell integers from floats.
func DecodeDocument(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("schema: decode document: %w", err)
	}
	return v, nil
}

// FromDocument builds a tree from a decoded document. The top-level value
// must be an object.
//
// Accepted value shapes are those produced by encoding/json (with or
// without UseNumber) and by Avro decoders into generic values:
// map[string]any, []any, string, []byte, bool, json.Number, Go integer and
// float kinds, and nil.
func FromDocument(value any, name string) (*Tree, error) {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotNested, value)
	}
	t := NewTree(name)
	addObject(t.Root, obj)
	return t, nil
}

func addObject(parent *Node, obj map[string]any) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		addValue(parent.childOrNew(k), obj[k])
	}
}

func addValue(n *Node, v any) {
	switch val := v.(type) {
	case nil:
		n.Optional = true
	case map[string]any:
		addObject(n, val)
	case []any:
		n.IsArray = true
		n.AddProperty(Property{Kind: JSONType}, JSONArray)
		for _, item := range val {
			if item == nil {
				continue
			}
			n.AddProperty(Property{Kind: ArrayItemType}, jsonKind(item))
		}
	default:
		n.AddProperty(Property{Kind: JSONType}, jsonKind(val))
	}
}

// jsonKind classifies a scalar (or nested) value the way a duck-typed JSON
// reader would.
func jsonKind(v any) string {
	switch val := v.(type) {
	case string:
		return JSONTextual
	case []byte:
		return JSONBinary
	case bool:
		return JSONBoolean
	case json.Number:
		if !strings.ContainsAny(val.String(), ".eE") {
			return JSONInteger
		}
		f, err := val.Float64()
		if err != nil {
			return JSONFloat
		}
		return floatKind(f)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return JSONInteger
	case float32:
		return floatKind(float64(val))
	case float64:
		return floatKind(val)
	case map[string]any:
		return JSONObject
	case []any:
		return JSONArray
	default:
		return JSONTextual
	}
}

// floatKind treats integral values as integers, whether they arrive as
// float64 from plain encoding/json or as "2.0" or "2e3" under UseNumber.
func floatKind(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1<<53 {
		return JSONInteger
	}
	return JSONFloat
}
