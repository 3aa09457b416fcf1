package schema

import "fmt"

// Merge unions trees describing the same logical event type into one
// canonical tree labelled name.
//
// Properties are unioned at every node and the optional/array flags are
// OR-ed. Children are matched by ID; a child present only in some sources is
// adopted as a copy of the source subtree. Root labels are ignored. The
// result is independent of source order and of duplicated sources. Sources
// are never modified.
func Merge(name string, trees []*Tree) (*Tree, error) {
	if len(trees) == 0 {
		return nil, ErrEmptyMerge
	}
	out := NewTree(name)
	for i, t := range trees {
		if t == nil || t.Root == nil {
			return nil, fmt.Errorf("schema: merge %s: tree %d is nil", name, i)
		}
		fold(out.Root, t.Root, true)
	}
	return out, nil
}

func fold(target, source *Node, root bool) {
	target.props.Union(source.props)
	target.Optional = target.Optional || source.Optional
	target.IsArray = target.IsArray || source.IsArray

	if !root && target.Equal(source) {
		return
	}
	for id, child := range source.children {
		if existing, ok := target.children[id]; ok {
			fold(existing, child, false)
			continue
		}
		target.adopt(child.Clone())
	}
}
