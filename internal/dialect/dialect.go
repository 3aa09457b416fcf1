// Package dialect holds what the SQL generators share: the Generator
// contract, the rendered Artifact, the time windows every view is emitted
// for, identifier helpers and leaf-type resolution with fallback.
//
// Generators live in subpackages (drill, spark, etljob). Each one is a plain
// value configured at startup and safe for concurrent use; none of them
// mutates the tree it renders.
package dialect

import (
	"errors"
	"fmt"
	"log"

	"eventschema/internal/schema"
)

var (
	// ErrNoColumns is returned when a tree has nothing to project.
	ErrNoColumns = errors.New("dialect: tree has no columns")
	// ErrNameCollision marks an event type whose artifact names are already
	// taken by another event type of the same run.
	ErrNameCollision = errors.New("dialect: artifact name already in use")
)

// Artifact is one rendered text for one event type.
type Artifact struct {
	EventType string
	Dialect   string
	// Name is the view, table or job name. It doubles as the file stem when
	// published.
	Name string
	// Window is the window name, empty for window-independent artifacts.
	Window string
	Text   string
}

func (a Artifact) String() string {
	if a.Window == "" {
		return fmt.Sprintf("%s/%s/%s", a.Dialect, a.EventType, a.Name)
	}
	return fmt.Sprintf("%s/%s/%s[%s]", a.Dialect, a.EventType, a.Name, a.Window)
}

// Generator renders a canonical tree into dialect-specific text.
type Generator interface {
	Dialect() string
	Generate(eventType string, tree *schema.Tree) ([]Artifact, error)
}

// LoggerOrDefault returns l, or the standard logger when l is nil.
func LoggerOrDefault(l *log.Logger) *log.Logger {
	if l == nil {
		return log.Default()
	}
	return l
}

// ResolverOrDefault returns r, or a fresh resolver when r is nil.
func ResolverOrDefault(r *schema.Resolver) *schema.Resolver {
	if r == nil {
		return schema.NewResolver()
	}
	return r
}

// LeafType resolves n and maps the result through types.
//
// Missing evidence is not an error: the fallback is returned and a warning
// is logged. A node with children is a contract violation and fails.
func LeafType(r *schema.Resolver, n *schema.Node, types map[schema.PrimitiveType]string, fallback, dialect string, logger *log.Logger) (string, error) {
	p, err := r.Resolve(n)
	return mapResolved(p, err, n, types, fallback, dialect, logger)
}

// ItemType is LeafType for the element type of an array node.
func ItemType(r *schema.Resolver, n *schema.Node, types map[schema.PrimitiveType]string, fallback, dialect string, logger *log.Logger) (string, error) {
	p, err := r.ResolveArrayItem(n)
	return mapResolved(p, err, n, types, fallback, dialect, logger)
}

func mapResolved(p schema.PrimitiveType, err error, n *schema.Node, types map[schema.PrimitiveType]string, fallback, dialect string, logger *log.Logger) (string, error) {
	switch {
	case errors.Is(err, schema.ErrNoEvidence):
		LoggerOrDefault(logger).Printf("%s: warning: %s: no type evidence, using %s", dialect, n.ID, fallback)
		return fallback, nil
	case err != nil:
		return "", fmt.Errorf("%s: %s: %w", dialect, n.ID, err)
	}
	t, ok := types[p]
	if !ok {
		LoggerOrDefault(logger).Printf("%s: warning: %s: no mapping for %s, using %s", dialect, n.ID, p, fallback)
		return fallback, nil
	}
	return t, nil
}
