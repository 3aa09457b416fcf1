package spark

import (
	"fmt"

	"eventschema/internal/dialect"
	"eventschema/internal/schema"
)

// explodedProjection walks the tree like Projection but turns every array
// into a LATERAL VIEW OUTER posexplode. Each explode gets a fresh table
// alias ex_<n> with columns ex_<n>_pos and ex_<n>_item; the position is
// projected as <alias>_idx next to the element columns.
func (g Generator) explodedProjection(tree *schema.Tree) (cols, laterals []string) {
	aliases := &dialect.AliasSet{Dialect: Dialect, Logger: g.Logger}
	seq := 0

	// base is the SQL expression the rel path hangs off; prefix is the full
	// node path used for aliases.
	var walk func(n *schema.Node, base string, rel, prefix []string)
	walk = func(n *schema.Node, base string, rel, prefix []string) {
		for _, c := range n.Children() {
			cRel := append(append([]string(nil), rel...), c.Name)
			cPrefix := append(append([]string(nil), prefix...), c.Name)

			switch {
			case c.IsArray:
				seq++
				tbl := fmt.Sprintf("ex_%d", seq)
				pos, item := tbl+"_pos", tbl+"_item"
				laterals = append(laterals, fmt.Sprintf("LATERAL VIEW OUTER posexplode(%s) %s AS %s, %s",
					dialect.FieldAccess(base, cRel), tbl, pos, item))

				alias := dialect.Alias(cPrefix)
				cols = append(cols, fmt.Sprintf("%s AS %s", pos, dialect.Backtick(aliases.Claim(alias+"_idx"))))
				if c.HasChildren() {
					walk(c, item, nil, cPrefix)
				} else {
					cols = append(cols, fmt.Sprintf("%s AS %s", item, dialect.Backtick(aliases.Claim(alias))))
				}
			case c.HasChildren():
				walk(c, base, cRel, cPrefix)
			default:
				cols = append(cols, fmt.Sprintf("%s AS %s",
					dialect.FieldAccess(base, cRel),
					dialect.Backtick(aliases.Claim(dialect.Alias(cPrefix))),
				))
			}
		}
	}
	walk(tree.Root, "e.typed", nil, nil)
	return cols, laterals
}
