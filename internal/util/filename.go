// Copyright (c) 2025-2026 ParentFacile
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides general-purpose utility functions for file name
// sanitization and HTTP header encoding.
package util

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// unsafeFsChars matches characters outside the on-disk allow-list.
	unsafeFsChars = regexp.MustCompile(`[^\w.-]`)
	// whitespaceRun matches one or more whitespace characters.
	whitespaceRun = regexp.MustCompile(`\s+`)
	// headerUnsafe matches characters that break Content-Disposition values.
	headerUnsafe = regexp.MustCompile(`[\\/:*?"<>|]`)
)

// maxBaseNameLen bounds the sanitized base name so the stored file name stays
// well under common filesystem limits once the timestamp suffix is appended.
const maxBaseNameLen = 120

// SanitizeBaseName derives a filesystem-safe base name from a client-supplied
// file name. Path components are stripped, accents decomposed and removed,
// whitespace collapsed to underscores and anything outside [A-Za-z0-9_.-]
// replaced. The extension is dropped; the caller appends its own suffix.
func SanitizeBaseName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimSuffix(name, filepath.Ext(name))

	// Decompose accents so "Déclaration" keeps its letters rather than
	// turning into underscores.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, name); err == nil {
		name = folded
	}

	name = whitespaceRun.ReplaceAllString(name, "_")
	name = unsafeFsChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")

	if len(name) > maxBaseNameLen {
		name = name[:maxBaseNameLen]
	}
	if name == "" {
		name = "document"
	}
	return name
}

// SafeFsName reduces a stored file name to its base component, discarding any
// directory traversal a corrupted row could smuggle in.
func SafeFsName(name string) string {
	return filepath.Base(strings.ReplaceAll(name, "\\", "/"))
}

// CleanForHeader strips characters that would corrupt a Content-Disposition
// value and bounds the length, mirroring what the download endpoints send as
// the suggested file name.
func CleanForHeader(name string) string {
	if name == "" {
		name = "document"
	}
	name = headerUnsafe.ReplaceAllString(name, "_")
	if len(name) > 200 {
		name = name[:200]
	}
	return name
}

// ContentDispositionFilename builds the filename parameters of a
// Content-Disposition header per RFC 5987: an ASCII fallback plus a UTF-8
// percent-encoded variant so accented labels survive every client.
func ContentDispositionFilename(filename string) string {
	var fallback strings.Builder
	for _, r := range filename {
		if r >= 0x20 && r <= 0x7e {
			fallback.WriteRune(r)
		} else {
			fallback.WriteByte('_')
		}
	}
	encoded := url.PathEscape(filename)
	return `filename="` + fallback.String() + `"; filename*=UTF-8''` + encoded
}
