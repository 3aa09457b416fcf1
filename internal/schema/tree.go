package schema

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/zeebo/xxh3"
)

// Tree is a root node plus derived views over it.
type Tree struct {
	Root *Node
}

// NewTree returns an empty tree whose root carries the given label.
func NewTree(name string) *Tree {
	return &Tree{Root: NewNode(name)}
}

// Name returns the root label.
func (t *Tree) Name() string { return t.Root.Name }

// Equal reports whether both roots are structurally equal.
func (t *Tree) Equal(o *Tree) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.Root.Equal(o.Root)
}

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	return &Tree{Root: t.Root.Clone()}
}

// Leaves returns every non-root node without children, ordered by ID.
func (t *Tree) Leaves() []*Node {
	var out []*Node
	t.Root.Walk(func(n *Node) bool {
		if !n.IsRoot() && !n.HasChildren() {
			out = append(out, n)
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Lookup finds a node by its dotted ID.
func (t *Tree) Lookup(id string) (*Node, bool) {
	var found *Node
	t.Root.Walk(func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.ID == id {
			found = n
			return false
		}
		return strings.HasPrefix(id, n.ID)
	})
	return found, found != nil
}

// DotNotation renders one line per non-root node:
//
//	a.b : AVRO_TYPE=long JSON_TYPE=INTEGER [optional] [array]
func (t *Tree) DotNotation() []string {
	var out []string
	t.Root.Walk(func(n *Node) bool {
		if n.IsRoot() {
			return true
		}
		var b strings.Builder
		b.WriteString(n.ID)
		b.WriteString(" :")
		for _, p := range n.props.Keys() {
			fmt.Fprintf(&b, " %s=%s", p, strings.Join(n.props.sorted(p), "|"))
		}
		if n.Optional {
			b.WriteString(" [optional]")
		}
		if n.IsArray {
			b.WriteString(" [array]")
		}
		out = append(out, b.String())
		return true
	})
	return out
}

// Hash returns a structural hash consistent with Equal: equal trees always
// hash the same. Callers deduplicating by hash must still confirm with
// Equal to rule out collisions.
func (t *Tree) Hash() uint64 {
	h := xxh3.New()
	hashNode(h, t.Root)
	return h.Sum64()
}

func hashNode(w io.Writer, n *Node) {
	io.WriteString(w, n.Name)
	io.WriteString(w, "\x00")
	fmt.Fprintf(w, "%t%t\x00", n.Optional, n.IsArray)
	for _, p := range n.props.Keys() {
		io.WriteString(w, p.String())
		io.WriteString(w, "=")
		io.WriteString(w, strings.Join(n.props.sorted(p), "\x1f"))
		io.WriteString(w, "\x00")
	}
	io.WriteString(w, "{")
	for _, c := range n.Children() {
		io.WriteString(w, c.ID)
		io.WriteString(w, ":")
		hashNode(w, c)
	}
	io.WriteString(w, "}")
}
