// Copyright (c) 2025-2026 ParentFacile
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/parentfacile/parentfacile/internal/filestore"
	"github.com/parentfacile/parentfacile/internal/store"
	"github.com/parentfacile/parentfacile/internal/util"
)

// ErrArchiveEmpty is returned when not a single document file could be
// written into the archive.
var ErrArchiveEmpty = errors.New("no documents available for archive")

// ArchiveName is the download file name of the full-catalog zip.
const ArchiveName = "parentfacile-documents.zip"

// ArchiveService streams the whole catalog as one zip file.
type ArchiveService struct {
	db    store.DBTX
	files *filestore.Store
}

// NewArchiveService creates a new archive service.
func NewArchiveService(db store.DBTX, files *filestore.Store) *ArchiveService {
	return &ArchiveService{db: db, files: files}
}

// WriteZip writes every available document into w as a zip archive and
// returns the number of entries written. Documents whose file is missing on
// disk are skipped; ErrArchiveEmpty is returned only when nothing at all
// could be written. Entries are named "<order> - <label>.pdf" in catalog
// order, the sort order zero-padded to two digits.
func (s *ArchiveService) WriteZip(ctx context.Context, w io.Writer) (int, error) {
	all, err := store.New(s.db).ListArchiveDocuments(ctx)
	if err != nil {
		return 0, fmt.Errorf("list documents: %w", err)
	}

	// Decide emptiness before the first byte goes out, so the caller can
	// still answer with a JSON 404 instead of a zero-entry archive.
	docs := all[:0:0]
	for _, doc := range all {
		if s.files.Exists(doc.FileName) {
			docs = append(docs, doc)
		} else {
			slog.Warn("skipping document with missing file", "id", doc.ID, "file", doc.FileName)
		}
	}
	if len(docs) == 0 {
		return 0, ErrArchiveEmpty
	}

	zw := zip.NewWriter(w)
	written := 0

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			_ = zw.Close()
			return written, err
		}

		f, info, err := s.files.Open(doc.FileName)
		if err != nil {
			// Vanished between the existence check and now.
			if os.IsNotExist(err) {
				continue
			}
			_ = zw.Close()
			return written, fmt.Errorf("open %s: %w", doc.FileName, err)
		}

		hdr := &zip.FileHeader{
			Name:     fmt.Sprintf("%02d - %s.pdf", doc.SortOrder, util.CleanForHeader(doc.Label)),
			Method:   zip.Deflate,
			Modified: info.ModTime(),
		}
		entry, err := zw.CreateHeader(hdr)
		if err == nil {
			_, err = io.Copy(entry, f)
		}
		f.Close()
		if err != nil {
			_ = zw.Close()
			return written, fmt.Errorf("write entry for %s: %w", doc.FileName, err)
		}
		written++
	}

	if err := zw.Close(); err != nil {
		return written, fmt.Errorf("finalize archive: %w", err)
	}
	if written == 0 {
		return 0, ErrArchiveEmpty
	}
	return written, nil
}
