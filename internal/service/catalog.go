// Copyright (c) 2025-2026 ParentFacile
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service implements the document catalog, contact and archive
// operations on top of the store and file layers.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/parentfacile/parentfacile/internal/filestore"
	"github.com/parentfacile/parentfacile/internal/model"
	"github.com/parentfacile/parentfacile/internal/store"
)

// Sentinel errors mapped to HTTP error kinds by the handlers.
var (
	ErrNotFound     = errors.New("document not found")
	ErrDuplicateKey = errors.New("doc_key already in use")
)

// Pagination bounds for the public document listing.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
	MaxPage          = 10000
)

// CatalogService handles document metadata and the backing PDF files. A
// document row owns its file exclusively; every mutation keeps the two in
// step, cleaning up the file side when the database side fails.
type CatalogService struct {
	db    *sql.DB
	files *filestore.Store
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(db *sql.DB, files *filestore.Store) *CatalogService {
	return &CatalogService{db: db, files: files}
}

// Files exposes the underlying file store for the download handlers.
func (s *CatalogService) Files() *filestore.Store {
	return s.files
}

// Get returns one document by id.
func (s *CatalogService) Get(ctx context.Context, id int64) (model.Document, error) {
	doc, err := store.New(s.db).GetDocumentByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Document{}, ErrNotFound
	}
	return doc, err
}

// CreateInput carries a new document's metadata plus its uploaded PDF.
type CreateInput struct {
	Fields   model.DocumentFields
	FileName string // client-supplied name, used to derive the stored name
	File     io.Reader
}

// Create validates the metadata, stores the PDF and inserts the row. When
// the insert fails the stored file is removed again so no orphan remains.
func (s *CatalogService) Create(ctx context.Context, in CreateInput) (model.Document, error) {
	if err := in.Fields.Validate(true); err != nil {
		return model.Document{}, err
	}

	queries := store.New(s.db)

	docKey := strings.TrimSpace(*in.Fields.DocKey)
	used, err := queries.DocKeyInUse(ctx, docKey, 0)
	if err != nil {
		return model.Document{}, fmt.Errorf("check doc_key: %w", err)
	}
	if used {
		return model.Document{}, ErrDuplicateKey
	}

	name, size, err := s.files.Save(in.FileName, in.File)
	if err != nil {
		return model.Document{}, fmt.Errorf("store upload: %w", err)
	}

	sortOrder := int64(model.DefaultSortOrder)
	if in.Fields.SortOrder != nil {
		sortOrder = *in.Fields.SortOrder
	}

	id, err := queries.CreateDocument(ctx, store.CreateDocumentParams{
		DocKey:    docKey,
		Label:     strings.TrimSpace(*in.Fields.Label),
		Tag:       strings.TrimSpace(*in.Fields.Tag),
		SortOrder: sortOrder,
		FileName:  name,
		FileSize:  size,
		MimeType:  model.MimeTypePDF,
		PublicURL: "/pdfs/" + name,
		CreatedAt: time.Now(),
	})
	if err != nil {
		if rmErr := s.files.Remove(name); rmErr != nil {
			slog.Error("orphan cleanup failed after insert error", "file", name, "error", rmErr)
		}
		if isUniqueViolation(err) {
			return model.Document{}, ErrDuplicateKey
		}
		return model.Document{}, fmt.Errorf("insert document: %w", err)
	}

	return queries.GetDocumentByID(ctx, id)
}

// Update applies a partial metadata update and an optional replacement PDF.
// An update carrying no fields and no file is a no-op returning the current
// row. When a replacement file comes in, the previous file is deleted only
// after the row points at the new one.
func (s *CatalogService) Update(ctx context.Context, id int64, fields model.DocumentFields, fileName string, file io.Reader) (model.Document, error) {
	queries := store.New(s.db)

	existing, err := queries.GetDocumentByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Document{}, ErrNotFound
	}
	if err != nil {
		return model.Document{}, err
	}

	if fields.Empty() && file == nil {
		return existing, nil
	}

	if err := fields.Validate(false); err != nil {
		return model.Document{}, err
	}

	p := store.UpdateDocumentParams{
		ID:        existing.ID,
		DocKey:    existing.DocKey,
		Label:     existing.Label,
		Tag:       existing.Tag,
		SortOrder: existing.SortOrder,
		FileName:  existing.FileName,
		FileSize:  existing.FileSize,
		MimeType:  existing.MimeType,
		PublicURL: existing.PublicURL,
	}
	if fields.DocKey != nil {
		p.DocKey = strings.TrimSpace(*fields.DocKey)
	}
	if fields.Label != nil {
		p.Label = strings.TrimSpace(*fields.Label)
	}
	if fields.Tag != nil {
		p.Tag = strings.TrimSpace(*fields.Tag)
	}
	if fields.SortOrder != nil {
		p.SortOrder = *fields.SortOrder
	}

	if p.DocKey != existing.DocKey {
		used, err := queries.DocKeyInUse(ctx, p.DocKey, existing.ID)
		if err != nil {
			return model.Document{}, fmt.Errorf("check doc_key: %w", err)
		}
		if used {
			return model.Document{}, ErrDuplicateKey
		}
	}

	var newFile string
	if file != nil {
		name, size, err := s.files.Save(fileName, file)
		if err != nil {
			return model.Document{}, fmt.Errorf("store upload: %w", err)
		}
		newFile = name
		p.FileName = name
		p.FileSize = size
		p.MimeType = model.MimeTypePDF
		p.PublicURL = "/pdfs/" + name
	}

	if err := queries.UpdateDocument(ctx, p); err != nil {
		if newFile != "" {
			if rmErr := s.files.Remove(newFile); rmErr != nil {
				slog.Error("orphan cleanup failed after update error", "file", newFile, "error", rmErr)
			}
		}
		if isUniqueViolation(err) {
			return model.Document{}, ErrDuplicateKey
		}
		return model.Document{}, fmt.Errorf("update document: %w", err)
	}

	// The row now points at the replacement; the old file is unreferenced.
	if newFile != "" && existing.FileName != newFile {
		if err := s.files.Remove(existing.FileName); err != nil {
			slog.Warn("failed to remove replaced file", "file", existing.FileName, "error", err)
		}
	}

	return queries.GetDocumentByID(ctx, id)
}

// Delete removes the row first, then the backing file. The row is the
// source of truth, so a failed file removal is logged without undoing the
// delete.
func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	queries := store.New(s.db)

	existing, err := queries.GetDocumentByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if err := queries.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	if err := s.files.Remove(existing.FileName); err != nil {
		slog.Warn("failed to remove file of deleted document", "file", existing.FileName, "error", err)
	}
	return nil
}

// ListAll returns the whole catalog ordered by tag, sort_order and label,
// for the admin UI which manages the full set at once.
func (s *CatalogService) ListAll(ctx context.Context) ([]model.Document, error) {
	return store.New(s.db).ListAllDocuments(ctx)
}

// ListOptions are the public listing filters.
type ListOptions struct {
	Tag   string
	Query string
	Sort  string // one of label, order, created, tag; anything else means bucket ordering
	Desc  bool
	Page  int64
	Limit int64
}

// ListResult is one page of documents plus pagination metadata.
type ListResult struct {
	Documents []model.Document
	Total     int64
	Page      int64
	Limit     int64
}

// List returns one page of the public catalog. Page and limit are clamped
// to their bounds. Without a free-text query the filtering and ordering run
// in SQL; with one, the catalog is fetched and narrowed with the
// typo-tolerant matcher before paginating, so "grosesse" still finds
// "grossesse".
func (s *CatalogService) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Page > MaxPage {
		opts.Page = MaxPage
	}
	if opts.Limit < 1 {
		opts.Limit = DefaultPageLimit
	}
	if opts.Limit > MaxPageLimit {
		opts.Limit = MaxPageLimit
	}
	opts.Tag = strings.TrimSpace(opts.Tag)
	opts.Query = strings.TrimSpace(opts.Query)

	queries := store.New(s.db)

	if opts.Query == "" {
		p := store.ListDocumentsParams{
			Tag:    opts.Tag,
			Sort:   opts.Sort,
			Desc:   opts.Desc,
			Limit:  opts.Limit,
			Offset: (opts.Page - 1) * opts.Limit,
		}
		total, err := queries.CountDocuments(ctx, p)
		if err != nil {
			return ListResult{}, fmt.Errorf("count documents: %w", err)
		}
		docs, err := queries.ListDocuments(ctx, p)
		if err != nil {
			return ListResult{}, fmt.Errorf("list documents: %w", err)
		}
		return ListResult{Documents: docs, Total: total, Page: opts.Page, Limit: opts.Limit}, nil
	}

	docs, err := queries.ListAllDocuments(ctx)
	if err != nil {
		return ListResult{}, fmt.Errorf("list documents: %w", err)
	}

	matched := make([]model.Document, 0, len(docs))
	for _, d := range docs {
		if opts.Tag != "" && d.Tag != opts.Tag {
			continue
		}
		if !FuzzyMatch(d.Label+" "+d.Tag+" "+d.DocKey, opts.Query) {
			continue
		}
		matched = append(matched, d)
	}
	sortDocuments(matched, opts.Sort, opts.Desc)

	total := int64(len(matched))
	start := (opts.Page - 1) * opts.Limit
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}
	return ListResult{Documents: matched[start:end], Total: total, Page: opts.Page, Limit: opts.Limit}, nil
}

// sortDocuments orders docs the same way the SQL listing does: by the
// requested column with a label tie-break, or by life-stage bucket, then
// manual position, then label when no column is given.
func sortDocuments(docs []model.Document, sortBy string, desc bool) {
	// cmp orders by the requested column only; ties fall through to label
	// ascending regardless of direction, like the SQL ORDER BY.
	var cmp func(a, b model.Document) int
	switch sortBy {
	case "label":
		cmp = func(a, b model.Document) int { return strings.Compare(a.Label, b.Label) }
	case "order":
		cmp = func(a, b model.Document) int {
			switch {
			case a.SortOrder < b.SortOrder:
				return -1
			case a.SortOrder > b.SortOrder:
				return 1
			}
			return 0
		}
	case "created":
		cmp = func(a, b model.Document) int { return a.CreatedAt.Compare(b.CreatedAt) }
	default:
		sort.SliceStable(docs, func(i, j int) bool {
			a, b := docs[i], docs[j]
			if pa, pb := model.TagPriority(a.Tag), model.TagPriority(b.Tag); pa != pb {
				return pa < pb
			}
			if a.SortOrder != b.SortOrder {
				return a.SortOrder < b.SortOrder
			}
			return a.Label < b.Label
		})
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		c := cmp(docs[i], docs[j])
		if desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return docs[i].Label < docs[j].Label
	})
}

// isUniqueViolation reports whether an sqlite error is a UNIQUE constraint
// failure. Matched on the message so it works with both driver flavors.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
