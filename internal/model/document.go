// Copyright (c) 2025-2026 ParentFacile
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// MimeTypePDF is the only MIME type the document catalog accepts.
const MimeTypePDF = "application/pdf"

// DefaultSortOrder is applied when a document is created without an explicit
// sort position.
const DefaultSortOrder = 999

// Known category tags. Tags are free text at the storage layer; these three
// drive the listing priority buckets.
const (
	TagGrossesse = "Grossesse"
	TagNaissance = "Naissance"
	TagPetit     = "1–3 ans"
)

// Field length limits shared by the create and update validations.
const (
	LabelMinLen   = 2
	LabelMaxLen   = 255
	TagMinLen     = 1
	TagMaxLen     = 50
	DocKeyMinLen  = 2
	DocKeyMaxLen  = 191
	SortOrderMin  = 0
	SortOrderMax  = 9999
	SubjectMinLen = 2
	SubjectMaxLen = 190
	BodyMinLen    = 10
	BodyMaxLen    = 5000
)

// Document is a catalog entry: relational metadata referencing one backing
// PDF file on disk. Ownership of the backing file is exclusive to the row.
type Document struct {
	ID        int64     `json:"id"`
	DocKey    string    `json:"doc_key"`
	Label     string    `json:"label"`
	Tag       string    `json:"tag"`
	SortOrder int64     `json:"order"`
	FileName  string    `json:"file_name"`
	FileSize  int64     `json:"file_size"`
	MimeType  string    `json:"mime_type"`
	PublicURL string    `json:"public_url"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminUser is the single seeded administrator identity.
type AdminUser struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Message is a persisted contact form inquiry.
type Message struct {
	ID        int64        `json:"id"`
	Email     string       `json:"email"`
	Subject   string       `json:"subject"`
	Message   string       `json:"message"`
	EmailSent bool         `json:"email_sent"`
	CreatedAt time.Time    `json:"created_at"`
	SentAt    sql.NullTime `json:"-"`
}

// DocumentFields carries the caller-editable metadata of a document. Nil
// pointers mean "leave untouched" for partial updates.
type DocumentFields struct {
	Label     *string
	Tag       *string
	DocKey    *string
	SortOrder *int64
}

// Empty reports whether no field is set.
func (f DocumentFields) Empty() bool {
	return f.Label == nil && f.Tag == nil && f.DocKey == nil && f.SortOrder == nil
}

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func lengthBetween(field, value string, minLen, maxLen int) error {
	n := len([]rune(strings.TrimSpace(value)))
	if n < minLen || n > maxLen {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be %d-%d characters", minLen, maxLen)}
	}
	return nil
}

// Validate checks every supplied field against the catalog limits. Fields
// left nil are skipped, matching partial update semantics; required is true
// for creation, where label, tag and doc_key must all be present.
func (f DocumentFields) Validate(required bool) error {
	if required {
		if f.Label == nil {
			return &ValidationError{Field: "label", Message: "required"}
		}
		if f.Tag == nil {
			return &ValidationError{Field: "tag", Message: "required"}
		}
		if f.DocKey == nil {
			return &ValidationError{Field: "doc_key", Message: "required"}
		}
	}
	if f.Label != nil {
		if err := lengthBetween("label", *f.Label, LabelMinLen, LabelMaxLen); err != nil {
			return err
		}
	}
	if f.Tag != nil {
		if err := lengthBetween("tag", *f.Tag, TagMinLen, TagMaxLen); err != nil {
			return err
		}
	}
	if f.DocKey != nil {
		if err := lengthBetween("doc_key", *f.DocKey, DocKeyMinLen, DocKeyMaxLen); err != nil {
			return err
		}
	}
	if f.SortOrder != nil {
		if *f.SortOrder < SortOrderMin || *f.SortOrder > SortOrderMax {
			return &ValidationError{Field: "sort_order", Message: fmt.Sprintf("must be %d-%d", SortOrderMin, SortOrderMax)}
		}
	}
	return nil
}

// ValidateContact checks a contact form submission.
func ValidateContact(email, subject, body string) error {
	if !looksLikeEmail(email) {
		return &ValidationError{Field: "email", Message: "invalid email address"}
	}
	if err := lengthBetween("subject", subject, SubjectMinLen, SubjectMaxLen); err != nil {
		return err
	}
	if err := lengthBetween("message", body, BodyMinLen, BodyMaxLen); err != nil {
		return err
	}
	return nil
}

// looksLikeEmail applies the same coarse shape check the login endpoint uses:
// one @, non-empty local part, a dot in the domain.
func looksLikeEmail(s string) bool {
	s = strings.TrimSpace(s)
	at := strings.IndexByte(s, '@')
	if at < 1 || at != strings.LastIndexByte(s, '@') {
		return false
	}
	domain := s[at+1:]
	dot := strings.IndexByte(domain, '.')
	return dot > 0 && dot < len(domain)-1 && !strings.ContainsAny(s, " \t\r\n")
}

// TagPriority maps a tag to its listing bucket: the three known life stages
// come first in a fixed order, anything else sorts last.
func TagPriority(tag string) int {
	switch tag {
	case TagGrossesse:
		return 0
	case TagNaissance:
		return 1
	case TagPetit:
		return 2
	default:
		return 99
	}
}
