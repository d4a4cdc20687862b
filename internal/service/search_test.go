// Copyright (c) 2025-2026 ParentFacile
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import "testing"

func TestNormalizeSearch(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Déclaration de grossesse", "declaration de grossesse"},
		{"  Congé   parental!  ", "conge parental"},
		{"1–3 ans", "1 3 ans"},
		{"CRÈCHE", "creche"},
		{"", ""},
		{"---", ""},
	}
	for _, tt := range tests {
		if got := NormalizeSearch(tt.in); got != tt.want {
			t.Errorf("NormalizeSearch(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWithinOneEdit(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"creche", "creche", true},
		{"creche", "crache", true},  // substitution
		{"creche", "crche", true},   // deletion
		{"creche", "crueche", true}, // insertion
		{"creche", "crac", false},
		{"a", "abc", false},
		{"", "a", true},
		{"", "", true},
	}
	for _, tt := range tests {
		if got := withinOneEdit(tt.a, tt.b); got != tt.want {
			t.Errorf("withinOneEdit(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFuzzyMatch(t *testing.T) {
	hay := "Déclaration de grossesse Grossesse declaration-grossesse"

	tests := []struct {
		query string
		want  bool
	}{
		{"", true},
		{"grossesse", true},
		{"GROSSESSE", true},
		{"grosesse", true}, // one typo
		{"declaration grossesse", true},
		{"decl", true}, // substring of a token
		{"naissance", false},
		{"declaration naissance", false}, // every token must match
	}
	for _, tt := range tests {
		if got := FuzzyMatch(hay, tt.query); got != tt.want {
			t.Errorf("FuzzyMatch(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}
