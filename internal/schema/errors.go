package schema

import "errors"

var (
	// ErrNoEvidence means no primitive type could be determined from the
	// recorded evidence. It is recoverable: callers substitute a fallback.
	ErrNoEvidence = errors.New("schema: no primitive type determinable")

	// ErrBranchNode means a primitive type was requested for a node that has
	// children. It is a contract violation.
	ErrBranchNode = errors.New("schema: node has children")

	// ErrNotNested means a tree was requested from a value or schema that is
	// not an object/record.
	ErrNotNested = errors.New("schema: root is not an object or record")

	// ErrEmptyMerge means Merge was called without any tree.
	ErrEmptyMerge = errors.New("schema: merge requires at least one tree")
)
