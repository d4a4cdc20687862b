// Copyright (c) 2025-2026 ParentFacile
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
)

// NormalizeSearch folds a string for matching: lowercase, accents stripped,
// punctuation turned to spaces, runs of whitespace collapsed.
func NormalizeSearch(s string) string {
	s = unidecode.Unidecode(strings.ToLower(s))

	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// withinOneEdit reports whether a and b are at Levenshtein distance 0 or 1.
// Distance 1 covers one substitution, insertion or deletion, enough to
// forgive a single typo without a full distance matrix.
func withinOneEdit(a, b string) bool {
	if a == b {
		return true
	}
	la, lb := len(a), len(b)
	if la > lb {
		a, b = b, a
		la, lb = lb, la
	}
	if lb-la > 1 {
		return false
	}

	// a is the shorter (or equal) string. Walk both until the first
	// mismatch, then skip one position and require the rest to match.
	i := 0
	for i < la && a[i] == b[i] {
		i++
	}
	if la == lb {
		// Substitution: tails after the mismatch must be identical.
		return a[i+1:] == b[i+1:]
	}
	// Insertion into a: drop the mismatched byte of b.
	return a[i:] == b[i+1:]
}

// FuzzyMatch reports whether every token of the query appears in the
// haystack, where "appears" means substring of a haystack token or within
// one edit of it. An empty query matches everything.
func FuzzyMatch(haystack, query string) bool {
	q := NormalizeSearch(query)
	if q == "" {
		return true
	}
	hayTokens := strings.Fields(NormalizeSearch(haystack))

	for _, qt := range strings.Fields(q) {
		found := false
		for _, ht := range hayTokens {
			if strings.Contains(ht, qt) || withinOneEdit(qt, ht) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
