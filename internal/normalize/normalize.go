// Package normalize turns the linking text of a definition into the key the
// term index is looked up by. It strips the syntactic wrappers specs put
// around names (quotes, [[internal slots]], <productions>, ::pseudo
// prefixes, @rules, %placeholders) and folds case where the definition type
// is case-insensitive.
package normalize

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/webdex/internal/dfntype"
)

// Term folds case and strips wrappers. It is the key used when the type of
// the text is unknown.
func Term(raw string) string {
	return strip(strings.ToLower(raw))
}

// ForType strips wrappers and folds case only when typ is case-insensitive.
func ForType(raw string, typ string) string {
	if dfntype.Lookup(typ).FoldCase {
		return Term(raw)
	}
	return strip(raw)
}

// Keys returns the distinct keys raw may be stored under: the
// case-preserving key first, then the folded one.
func Keys(raw string) []string {
	exact := strip(raw)
	folded := Term(raw)
	if exact == folded {
		return []string{exact}
	}
	return []string{exact, folded}
}

// Display removes the double quotes some specs put around a term; the
// renderer adds its own based on the type.
func Display(raw string) string {
	raw = strings.TrimPrefix(raw, `"`)
	return strings.TrimSuffix(raw, `"`)
}

// strip applies one round of the wrapper rules until the text stops
// changing. Every rule only removes characters, so this terminates and the
// result is a fixed point.
func strip(s string) string {
	for {
		next := stripOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func stripOnce(s string) string {
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	s = unwrapSlot(s)
	s = unwrapProduction(s)
	s = trimUpTo(s, ':', 2)
	s = trimUpTo(s, '@', 2)
	s = strings.TrimPrefix(s, "'")
	s = strings.TrimSuffix(s, "'")
	s = strings.TrimPrefix(s, "%")
	return s
}

// unwrapSlot turns a leading "[[name]]" into "name", keeping anything after
// the closing brackets.
func unwrapSlot(s string) string {
	if !strings.HasPrefix(s, "[[") {
		return s
	}
	end := strings.Index(s[2:], "]]")
	if end <= 0 {
		return s
	}
	inner := s[2 : 2+end]
	if strings.Contains(inner, "]") {
		return s
	}
	return inner + s[2+end+2:]
}

// unwrapProduction turns "<name>" into "name" when the brackets enclose the
// whole string and nothing else.
func unwrapProduction(s string) string {
	if len(s) < 3 || s[0] != '<' || s[len(s)-1] != '>' {
		return s
	}
	inner := s[1 : len(s)-1]
	if strings.Contains(inner, ">") {
		return s
	}
	return inner
}

// trimUpTo removes up to max leading copies of c.
func trimUpTo(s string, c byte, max int) string {
	for i := 0; i < max && len(s) > 0 && s[0] == c; i++ {
		s = s[1:]
	}
	return s
}
