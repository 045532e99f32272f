package searcher

import (
	"unicode"
	"unicode/utf8"
)

// Ellipsis marks truncation at either end of an excerpt.
const Ellipsis = "..."

// BuildExcerpt returns a window of at most maxLen bytes centered on the
// first case-insensitive occurrence of query in text, with ellipses when
// truncated at either end. When the query does not occur, the window starts
// at the beginning of the text. Window bounds always fall on rune
// boundaries.
func BuildExcerpt(text, query string, maxLen int) string {
	if maxLen <= 0 || len(text) <= maxLen {
		return text
	}

	matchStart, matchEnd := -1, -1
	if query != "" {
		matchStart, matchEnd = foldIndex(text, query)
	}
	if matchStart < 0 {
		return text[:snapBack(text, maxLen)] + Ellipsis
	}

	// Center the window on the match, shifting back inside the text at the
	// edges.
	start := matchStart + (matchEnd-matchStart)/2 - maxLen/2
	if start < 0 {
		start = 0
	}
	if start+maxLen > len(text) {
		start = len(text) - maxLen
	}
	start = snapBack(text, start)
	end := start + maxLen
	if end >= len(text) {
		end = len(text)
	} else {
		end = snapBack(text, end)
	}

	out := text[start:end]
	if start > 0 {
		out = Ellipsis + out
	}
	if end < len(text) {
		out = out + Ellipsis
	}
	return out
}

// foldIndex locates the first case-insensitive occurrence of query in text
// and returns its byte offsets in the original text. Matching folds rune by
// rune so case pairs with different encoded lengths cannot shift the
// offsets.
func foldIndex(text, query string) (start, end int) {
	for i := range text {
		if n, ok := foldPrefix(text[i:], query); ok {
			return i, i + n
		}
	}
	return -1, -1
}

// foldPrefix reports whether s starts with a case-insensitive match of
// query and returns the matched byte length in s.
func foldPrefix(s, query string) (int, bool) {
	n := 0
	for _, qr := range query {
		sr, size := utf8.DecodeRuneInString(s[n:])
		if size == 0 {
			return 0, false
		}
		if sr != qr && unicode.ToLower(sr) != unicode.ToLower(qr) {
			return 0, false
		}
		n += size
	}
	return n, true
}

// snapBack moves pos to the nearest rune boundary at or before it.
func snapBack(text string, pos int) int {
	for pos > 0 && !utf8.RuneStart(text[pos]) {
		pos--
	}
	return pos
}
