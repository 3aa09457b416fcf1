package schema

import "strings"

// Origin says where an EventStructure came from.
type Origin int

const (
	// Observed structures were built from a single decoded sample.
	Observed Origin = iota + 1
	// Declared structures were built from an externally supplied schema.
	Declared
	// Merged structures are the union of several others.
	Merged
)

func (o Origin) String() string {
	switch o {
	case Observed:
		return "observed"
	case Declared:
		return "declared"
	case Merged:
		return "merged"
	default:
		return "unknown"
	}
}

// EventStructure pairs a tree with its provenance. Provenance is kept for
// naming and debugging only; it never affects merge results.
type EventStructure struct {
	Tree    *Tree
	Origin  Origin
	Sources []string
}

// ObservedStructure wraps a tree built from one sample identified by label.
func ObservedStructure(t *Tree, label string) *EventStructure {
	return &EventStructure{Tree: t, Origin: Observed, Sources: []string{label}}
}

// DeclaredStructure wraps a tree built from a declared schema.
func DeclaredStructure(t *Tree, s *AvroSchema) *EventStructure {
	label := ""
	if s != nil {
		label = s.Name + "@" + s.Fingerprint
	}
	return &EventStructure{Tree: t, Origin: Declared, Sources: []string{label}}
}

// MergeStructures merges the trees of several structures into one labelled
// name. It fails with ErrEmptyMerge when given none.
func MergeStructures(name string, structs []*EventStructure) (*EventStructure, error) {
	trees := make([]*Tree, 0, len(structs))
	var sources []string
	for _, s := range structs {
		trees = append(trees, s.Tree)
		sources = append(sources, s.Sources...)
	}
	t, err := Merge(name, trees)
	if err != nil {
		return nil, err
	}
	return &EventStructure{Tree: t, Origin: Merged, Sources: sources}, nil
}

// String describes the structure for logs.
func (s *EventStructure) String() string {
	return s.Origin.String() + "(" + strings.Join(s.Sources, ",") + ")"
}
