// Package schema holds the structural model used to describe event payloads:
// a labelled tree whose nodes carry provenance-tagged type evidence.
//
// Trees are built from decoded documents (FromDocument) or from declared
// Avro schemas (FromSchema), reconciled with Merge, and read by the dialect
// generators through a Resolver. Once built, a tree is treated as immutable;
// the only mutation performed afterwards is the per-node memo of resolved
// primitive types, which is idempotent and guarded by a mutex.
package schema

import (
	"sort"
	"strings"
	"sync"
)

// Node is a named element of structure.
//
// ID is the dot-joined path from (but excluding) the root, so two samples
// that label their root differently still produce the same child IDs. The
// root itself has an empty ID.
type Node struct {
	ID   string
	Name string

	// Optional is set when a value was ever observed as null, or declared
	// as a union containing null. Absence from a sample does not set it.
	Optional bool
	IsArray  bool

	path     []string
	props    Properties
	children map[string]*Node

	memo primitiveMemo
}

type primitiveMemo struct {
	mu     sync.Mutex
	scalar PrimitiveType
	item   PrimitiveType
}

// NewNode returns an empty root node with the given label.
func NewNode(name string) *Node {
	return &Node{
		Name:     name,
		props:    Properties{},
		children: map[string]*Node{},
	}
}

func newChild(parent *Node, name string) *Node {
	path := make([]string, 0, len(parent.path)+1)
	path = append(path, parent.path...)
	path = append(path, name)
	return &Node{
		ID:       strings.Join(path, "."),
		Name:     name,
		path:     path,
		props:    Properties{},
		children: map[string]*Node{},
	}
}

// Path returns the field names from the root to n. It is empty for the root.
func (n *Node) Path() []string {
	return append([]string(nil), n.path...)
}

// IsRoot reports whether n is a tree root.
func (n *Node) IsRoot() bool { return len(n.path) == 0 }

// AddProperty records a piece of type evidence.
func (n *Node) AddProperty(p Property, value string) { n.props.Add(p, value) }

// Values returns the evidence recorded for kind, sorted.
func (n *Node) Values(kind PropertyKind) []string { return n.props.Values(kind) }

// HasEvidence reports whether any evidence of kind was recorded.
func (n *Node) HasEvidence(kind PropertyKind) bool { return n.props.Has(kind) }

// Properties returns a copy of the property bag.
func (n *Node) Properties() Properties { return n.props.Clone() }

// HasChildren reports whether n is a branch.
func (n *Node) HasChildren() bool { return len(n.children) > 0 }

// Child returns the direct child with the given ID.
func (n *Node) Child(id string) (*Node, bool) {
	c, ok := n.children[id]
	return c, ok
}

// Children returns the direct children ordered by ID.
func (n *Node) Children() []*Node {
	out := make([]*Node, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// childOrNew returns the existing child called name or attaches a new one.
func (n *Node) childOrNew(name string) *Node {
	c := newChild(n, name)
	if existing, ok := n.children[c.ID]; ok {
		return existing
	}
	n.children[c.ID] = c
	return c
}

func (n *Node) adopt(c *Node) {
	n.children[c.ID] = c
}

// Equal reports structural equality: name, evidence, flags and,
// recursively, children. Memoized resolutions are not compared.
func (n *Node) Equal(o *Node) bool {
	if n == o {
		return true
	}
	if n == nil || o == nil {
		return false
	}
	if n.Name != o.Name || n.Optional != o.Optional || n.IsArray != o.IsArray {
		return false
	}
	if !n.props.Equal(o.props) {
		return false
	}
	if len(n.children) != len(o.children) {
		return false
	}
	for id, c := range n.children {
		oc, ok := o.children[id]
		if !ok || !c.Equal(oc) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of n without memoized resolutions.
func (n *Node) Clone() *Node {
	c := &Node{
		ID:       n.ID,
		Name:     n.Name,
		Optional: n.Optional,
		IsArray:  n.IsArray,
		path:     append([]string(nil), n.path...),
		props:    n.props.Clone(),
		children: make(map[string]*Node, len(n.children)),
	}
	for id, child := range n.children {
		c.children[id] = child.Clone()
	}
	return c
}

// Walk visits n and its descendants depth-first in ID order. Returning false
// from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children() {
		c.Walk(fn)
	}
}
