// Copyright (c) 2025-2026 ParentFacile
// SPDX-License-Identifier: GPL-3.0-or-later

package store_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/parentfacile/parentfacile/internal/model"
	"github.com/parentfacile/parentfacile/internal/store"
	"github.com/parentfacile/parentfacile/internal/testutil"
)

func TestCreateAndGetDocument(t *testing.T) {
	db := testutil.TestDB(t)
	queries := store.New(db)

	id, err := queries.CreateDocument(context.Background(), store.CreateDocumentParams{
		DocKey:    "decl-g",
		Label:     "Déclaration de grossesse",
		Tag:       model.TagGrossesse,
		SortOrder: 10,
		FileName:  "declaration_123.pdf",
		FileSize:  51200,
		MimeType:  model.MimeTypePDF,
		PublicURL: "/pdfs/declaration_123.pdf",
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	doc, err := queries.GetDocumentByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetDocumentByID: %v", err)
	}
	if doc.DocKey != "decl-g" || doc.FileSize != 51200 || doc.SortOrder != 10 {
		t.Errorf("unexpected document: %+v", doc)
	}
}

func TestDocKeyUniqueConstraint(t *testing.T) {
	db := testutil.TestDB(t)
	queries := store.New(db)

	testutil.CreateTestDocument(t, db, "decl-g", "Déclaration", model.TagGrossesse, 10, "a.pdf")

	_, err := queries.CreateDocument(context.Background(), store.CreateDocumentParams{
		DocKey: "decl-g", Label: "Autre", Tag: model.TagNaissance, SortOrder: 20,
		FileName: "b.pdf", MimeType: model.MimeTypePDF, PublicURL: "/pdfs/b.pdf",
		CreatedAt: time.Now(),
	})
	if err == nil {
		t.Fatal("duplicate doc_key insert succeeded")
	}
}

func TestDocKeyInUse(t *testing.T) {
	db := testutil.TestDB(t)
	queries := store.New(db)

	doc := testutil.CreateTestDocument(t, db, "decl-g", "Déclaration", model.TagGrossesse, 10, "a.pdf")

	used, err := queries.DocKeyInUse(context.Background(), "decl-g", 0)
	if err != nil || !used {
		t.Fatalf("DocKeyInUse = %v, %v; want true", used, err)
	}

	// A row never conflicts with its own key.
	used, err = queries.DocKeyInUse(context.Background(), "decl-g", doc.ID)
	if err != nil || used {
		t.Fatalf("DocKeyInUse excluding self = %v, %v; want false", used, err)
	}

	used, err = queries.DocKeyInUse(context.Background(), "unknown", 0)
	if err != nil || used {
		t.Fatalf("DocKeyInUse unknown = %v, %v; want false", used, err)
	}
}

func TestListDocumentsTagBucketOrdering(t *testing.T) {
	db := testutil.TestDB(t)
	queries := store.New(db)

	testutil.CreateTestDocument(t, db, "autre", "ZAutre", "Divers", 1, "d.pdf")
	testutil.CreateTestDocument(t, db, "petit", "Vaccins", model.TagPetit, 1, "c.pdf")
	testutil.CreateTestDocument(t, db, "naiss", "Acte de naissance", model.TagNaissance, 1, "b.pdf")
	testutil.CreateTestDocument(t, db, "gross", "Déclaration", model.TagGrossesse, 1, "a.pdf")

	docs, err := queries.ListDocuments(context.Background(), store.ListDocumentsParams{Limit: 50})
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}

	var keys []string
	for _, d := range docs {
		keys = append(keys, d.DocKey)
	}
	want := []string{"gross", "naiss", "petit", "autre"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("order = %v, want %v", keys, want)
		}
	}
}

func TestListDocumentsFiltersAndPagination(t *testing.T) {
	db := testutil.TestDB(t)
	queries := store.New(db)

	testutil.CreateTestDocument(t, db, "decl-g", "Déclaration de grossesse", model.TagGrossesse, 10, "a.pdf")
	testutil.CreateTestDocument(t, db, "suivi-g", "Suivi de grossesse", model.TagGrossesse, 20, "b.pdf")
	testutil.CreateTestDocument(t, db, "acte-n", "Acte de naissance", model.TagNaissance, 10, "c.pdf")

	p := store.ListDocumentsParams{Tag: model.TagGrossesse, Limit: 50}
	total, err := queries.CountDocuments(context.Background(), p)
	if err != nil || total != 2 {
		t.Fatalf("CountDocuments tag filter = %d, %v; want 2", total, err)
	}

	docs, err := queries.ListDocuments(context.Background(), store.ListDocumentsParams{Tag: model.TagNaissance, Limit: 50})
	if err != nil {
		t.Fatalf("ListDocuments tag filter: %v", err)
	}
	if len(docs) != 1 || docs[0].DocKey != "acte-n" {
		t.Fatalf("tag filter returned %+v", docs)
	}

	// Sorted by label descending, one per page.
	p = store.ListDocumentsParams{Sort: "label", Desc: true, Limit: 1, Offset: 0}
	docs, err = queries.ListDocuments(context.Background(), p)
	if err != nil || len(docs) != 1 {
		t.Fatalf("paged list: %v, %d rows", err, len(docs))
	}
	if docs[0].Label != "Suivi de grossesse" {
		t.Errorf("first label desc = %q", docs[0].Label)
	}
}

func TestAdminLookupIsCaseInsensitive(t *testing.T) {
	db := testutil.TestDB(t)
	queries := store.New(db)

	if _, err := queries.CreateAdmin(context.Background(), "Admin@ParentFacile.fr", "hash", time.Now()); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}

	u, err := queries.GetAdminByEmail(context.Background(), "admin@parentfacile.FR")
	if err != nil {
		t.Fatalf("GetAdminByEmail: %v", err)
	}
	if u.PasswordHash != "hash" {
		t.Errorf("PasswordHash = %q", u.PasswordHash)
	}

	if _, err := queries.GetAdminByEmail(context.Background(), "other@parentfacile.fr"); err != sql.ErrNoRows {
		t.Errorf("unknown email err = %v, want sql.ErrNoRows", err)
	}
}

func TestMessagesListAndSearch(t *testing.T) {
	db := testutil.TestDB(t)
	queries := store.New(db)

	base := time.Now().Add(-time.Hour)
	for i, subject := range []string{"Crèche", "Vaccins", "Congé parental"} {
		if _, err := queries.CreateMessage(context.Background(), "parent@exemple.fr", subject, "Bonjour, question au sujet de "+subject, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("CreateMessage: %v", err)
		}
	}

	msgs, err := queries.ListMessages(context.Background(), store.ListMessagesParams{Limit: 2})
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Subject != "Congé parental" {
		t.Fatalf("newest-first page wrong: %+v", msgs)
	}

	total, err := queries.CountMessages(context.Background(), store.ListMessagesParams{Query: "vaccins"})
	if err != nil || total != 1 {
		t.Fatalf("CountMessages search = %d, %v; want 1", total, err)
	}

	if err := queries.MarkMessageSent(context.Background(), msgs[0].ID, time.Now()); err != nil {
		t.Fatalf("MarkMessageSent: %v", err)
	}
	sent, err := queries.ListMessages(context.Background(), store.ListMessagesParams{Limit: 1})
	if err != nil || !sent[0].EmailSent {
		t.Fatalf("EmailSent not set: %+v, %v", sent, err)
	}
}

func TestSeedAdminIdempotent(t *testing.T) {
	db := testutil.TestDB(t)

	if err := store.SeedAdmin(context.Background(), db, "admin@parentfacile.fr", "s3cret"); err != nil {
		t.Fatalf("SeedAdmin: %v", err)
	}
	if err := store.SeedAdmin(context.Background(), db, "admin@parentfacile.fr", "s3cret"); err != nil {
		t.Fatalf("SeedAdmin second run: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM admin_users").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("admin rows = %d, want 1", count)
	}
}

func TestSeedAdminSkipsWhenUnconfigured(t *testing.T) {
	db := testutil.TestDB(t)

	if err := store.SeedAdmin(context.Background(), db, "", ""); err != nil {
		t.Fatalf("SeedAdmin without config should not error: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM admin_users").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("admin rows = %d, want 0", count)
	}
}
