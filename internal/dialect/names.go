package dialect

import (
	"log"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName converts an event type name into a lowercase ASCII
// identifier usable as a view or table name.
//
// Accents are stripped, separators (space, '-', '.', '_') collapse into a
// single underscore and any other rune is dropped. Names that would start
// with a digit get a leading "e_". An empty result becomes "event".
func NormalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	ascii, _, _ := transform.String(t, s)

	var b strings.Builder
	prevUnderscore := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !prevUnderscore {
				b.WriteRune('_')
				prevUnderscore = true
			}
		}
	}

	name := strings.Trim(b.String(), "_")
	switch {
	case name == "":
		return "event"
	case name[0] >= '0' && name[0] <= '9':
		return "e_" + name
	}
	return name
}

// Alias is the underscore-joined path of a node.
func Alias(path []string) string { return strings.Join(path, "_") }

// Backtick quotes one identifier with backticks, doubling embedded ones.
func Backtick(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}

// FieldAccess renders base.`p1`.`p2`...
func FieldAccess(base string, path []string) string {
	var b strings.Builder
	b.WriteString(base)
	for _, p := range path {
		b.WriteByte('.')
		b.WriteString(Backtick(p))
	}
	return b.String()
}

// AliasSet hands out column aliases that are unique case-insensitively.
// A repeated alias gets a numeric suffix ("a_b_2") and a logged warning.
type AliasSet struct {
	Dialect string
	Logger  *log.Logger

	seen map[string]struct{}
}

// Claim returns alias, or a suffixed variant if alias was already taken.
func (s *AliasSet) Claim(alias string) string {
	if s.seen == nil {
		s.seen = map[string]struct{}{}
	}
	candidate := alias
	for i := 2; ; i++ {
		key := strings.ToLower(candidate)
		if _, taken := s.seen[key]; !taken {
			s.seen[key] = struct{}{}
			break
		}
		candidate = alias + "_" + strconv.Itoa(i)
	}
	if candidate != alias {
		LoggerOrDefault(s.Logger).Printf("%s: warning: alias %s already used, renamed to %s", s.Dialect, alias, candidate)
	}
	return candidate
}
