// Package wildcard expands `*`/`?` filename patterns into concrete lists of
// existing regular files.
//
// This is deliberately not a general glob engine: there are no character
// classes, no `**` recursion, and no brace expansion. Patterns address at
// most one directory, and only its direct entries are considered.
package wildcard

import "strings"

// Match reports whether text matches pattern.
//
// The pattern language is two metacharacters over plain bytes:
//
//	?  matches exactly one byte
//	*  matches zero or more bytes
//
// Matching is greedy with backtracking: on a mismatch after a `*`, the star
// re-expands one byte at a time until the remainder of the pattern fits or
// the text runs out. There is no escaping and no path-separator awareness;
// matching is byte-wise and therefore case-sensitive.
func Match(text, pattern string) bool {
	var tIdx, pIdx int
	starIdx := -1 // pattern index of the most recent `*`, -1 when none seen
	matchIdx := 0 // text index the current star expansion resumes from

	for tIdx < len(text) {
		switch {
		case pIdx < len(pattern) && (pattern[pIdx] == '?' || pattern[pIdx] == text[tIdx]):
			tIdx++
			pIdx++
		case pIdx < len(pattern) && pattern[pIdx] == '*':
			starIdx = pIdx
			matchIdx = tIdx
			pIdx++
		case starIdx >= 0:
			// Mismatch past a star: widen the star by one byte and retry.
			pIdx = starIdx + 1
			matchIdx++
			tIdx = matchIdx
		default:
			return false
		}
	}

	// Trailing stars match the empty remainder.
	for pIdx < len(pattern) && pattern[pIdx] == '*' {
		pIdx++
	}

	return pIdx == len(pattern)
}

// HasWildcard reports whether pattern contains a `*` or `?` metacharacter.
// Patterns without one are treated as literal paths by the Expander.
func HasWildcard(pattern string) bool {
	return strings.ContainsAny(pattern, "*?")
}
