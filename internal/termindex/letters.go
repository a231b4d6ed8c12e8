package termindex

import "sort"

// OtherLetter is the bucket of terms that do not start with an ASCII letter.
const OtherLetter = "other"

// Letters partitions term keys by first character.
type Letters map[string][]string

// LetterOf returns the bucket term belongs to: its first character
// lowercased when that is an ASCII letter, OtherLetter otherwise.
func LetterOf(term string) string {
	if term == "" {
		return OtherLetter
	}
	c := term[0]
	switch {
	case c >= 'a' && c <= 'z':
		return string(c)
	case c >= 'A' && c <= 'Z':
		return string(c + 'a' - 'A')
	default:
		return OtherLetter
	}
}

// BuildLetters buckets every term of idx. Buckets are sorted.
func BuildLetters(idx *Index) Letters {
	letters := make(Letters)
	for term := range idx.terms {
		l := LetterOf(term)
		letters[l] = append(letters[l], term)
	}
	for _, terms := range letters {
		sort.Strings(terms)
	}
	return letters
}

// Keys returns the bucket names in sorted order.
func (l Letters) Keys() []string {
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Page returns the file name of the page holding the bucket of term.
func Page(term string) string {
	return LetterOf(term) + ".html"
}
