// Copyright (c) 2025-2026 ParentFacile
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/parentfacile/parentfacile/internal/filestore"
	"github.com/parentfacile/parentfacile/internal/model"
	"github.com/parentfacile/parentfacile/internal/testutil"
)

func TestWriteZip(t *testing.T) {
	db := testutil.TestDB(t)
	files, err := filestore.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	catalog := NewCatalogService(db, files)
	svc := NewArchiveService(db, files)

	createDocWith := func(key, label, tag string, order int64) model.Document {
		doc, err := catalog.Create(context.Background(), CreateInput{
			Fields: model.DocumentFields{
				Label:     strPtr(label),
				Tag:       strPtr(tag),
				DocKey:    strPtr(key),
				SortOrder: intPtr(order),
			},
			FileName: key + ".pdf",
			File:     bytes.NewReader([]byte("%PDF-1.4 " + key)),
		})
		if err != nil {
			t.Fatalf("create %s: %v", key, err)
		}
		return doc
	}

	createDocWith("decl-g", "Déclaration de grossesse", model.TagGrossesse, 5)
	createDocWith("acte-n", "Acte de naissance", model.TagNaissance, 10)
	missing := createDocWith("gone", "Document disparu", model.TagPetit, 3)

	// Simulate a row whose file vanished from disk.
	if err := os.Remove(filepath.Join(files.Dir(), missing.FileName)); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	written, err := svc.WriteZip(context.Background(), &buf)
	if err != nil {
		t.Fatalf("WriteZip: %v", err)
	}
	if written != 2 {
		t.Errorf("written = %d, want 2", written)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("reading archive back: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("entries = %d, want 2", len(zr.File))
	}
	// Prefixes carry the documents' own sort orders, zero-padded.
	if zr.File[0].Name != "05 - Déclaration de grossesse.pdf" {
		t.Errorf("first entry = %q", zr.File[0].Name)
	}
	if zr.File[1].Name != "10 - Acte de naissance.pdf" {
		t.Errorf("second entry = %q", zr.File[1].Name)
	}

	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	content := make([]byte, 32)
	n, _ := rc.Read(content)
	if got := string(content[:n]); got != "%PDF-1.4 decl-g" {
		t.Errorf("entry content = %q", got)
	}
}

func TestWriteZipEmptyCatalog(t *testing.T) {
	db := testutil.TestDB(t)
	files, err := filestore.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	svc := NewArchiveService(db, files)

	var buf bytes.Buffer
	if _, err := svc.WriteZip(context.Background(), &buf); !errors.Is(err, ErrArchiveEmpty) {
		t.Fatalf("err = %v, want ErrArchiveEmpty", err)
	}
}
