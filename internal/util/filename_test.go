// Copyright (c) 2025-2026 ParentFacile
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"strings"
	"testing"
)

func TestSanitizeBaseName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "guide.pdf", "guide"},
		{"spaces collapse", "mon  joli   guide.pdf", "mon_joli_guide"},
		{"accents folded", "Déclaration de grossesse.pdf", "Declaration_de_grossesse"},
		{"traversal stripped", "../../etc/passwd", "passwd"},
		{"windows separators", `..\..\evil.pdf`, "evil"},
		{"specials replaced", "a&b#c?.pdf", "a_b_c"},
		{"empty falls back", "", "document"},
		{"only extension", ".pdf", "document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeBaseName(tt.in); got != tt.want {
				t.Errorf("SanitizeBaseName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeBaseNameTruncates(t *testing.T) {
	long := strings.Repeat("a", 300) + ".pdf"
	if got := SanitizeBaseName(long); len(got) != maxBaseNameLen {
		t.Errorf("len = %d, want %d", len(got), maxBaseNameLen)
	}
}

func TestSafeFsName(t *testing.T) {
	if got := SafeFsName("../secret/file.pdf"); got != "file.pdf" {
		t.Errorf("SafeFsName = %q", got)
	}
	if got := SafeFsName(`..\..\file.pdf`); got != "file.pdf" {
		t.Errorf("SafeFsName backslash = %q", got)
	}
}

func TestCleanForHeader(t *testing.T) {
	if got := CleanForHeader(`a/b\c:d*e?f"g<h>i|j`); strings.ContainsAny(got, `/\:*?"<>|`) {
		t.Errorf("CleanForHeader left unsafe characters: %q", got)
	}
	if got := CleanForHeader(""); got != "document" {
		t.Errorf("CleanForHeader empty = %q", got)
	}
	if got := CleanForHeader(strings.Repeat("x", 300)); len(got) != 200 {
		t.Errorf("CleanForHeader length = %d, want 200", len(got))
	}
}

func TestContentDispositionFilename(t *testing.T) {
	got := ContentDispositionFilename("Déclaration.pdf")
	if !strings.HasPrefix(got, `filename="D_claration.pdf"`) {
		t.Errorf("ASCII fallback wrong: %q", got)
	}
	if !strings.Contains(got, "filename*=UTF-8''D%C3%A9claration.pdf") {
		t.Errorf("extended parameter wrong: %q", got)
	}
}
