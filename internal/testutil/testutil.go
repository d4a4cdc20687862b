// Copyright (c) 2025-2026 ParentFacile
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the ParentFacile API.
package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/parentfacile/parentfacile/internal/model"
	"github.com/parentfacile/parentfacile/internal/store"
)

// TestLogger creates a silent test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestDB creates an in-memory SQLite database with the catalog schema.
func TestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE admin_users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE documents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			doc_key TEXT NOT NULL UNIQUE,
			label TEXT NOT NULL,
			tag TEXT NOT NULL,
			sort_order INTEGER NOT NULL DEFAULT 999,
			file_name TEXT NOT NULL,
			file_size INTEGER NOT NULL DEFAULT 0,
			mime_type TEXT NOT NULL DEFAULT 'application/pdf',
			public_url TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX idx_documents_tag ON documents(tag);

		CREATE TABLE messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL,
			subject TEXT NOT NULL,
			message TEXT NOT NULL,
			email_sent INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			sent_at DATETIME
		);
	`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// CreateTestDocument inserts a document row and returns it.
func CreateTestDocument(t *testing.T, db *sql.DB, docKey, label, tag string, sortOrder int64, fileName string) model.Document {
	t.Helper()

	now := time.Now()
	id, err := store.New(db).CreateDocument(context.Background(), store.CreateDocumentParams{
		DocKey:    docKey,
		Label:     label,
		Tag:       tag,
		SortOrder: sortOrder,
		FileName:  fileName,
		FileSize:  1024,
		MimeType:  model.MimeTypePDF,
		PublicURL: "/pdfs/" + fileName,
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("failed to create test document: %v", err)
	}

	return model.Document{
		ID: id, DocKey: docKey, Label: label, Tag: tag, SortOrder: sortOrder,
		FileName: fileName, FileSize: 1024, MimeType: model.MimeTypePDF,
		PublicURL: "/pdfs/" + fileName, CreatedAt: now,
	}
}
