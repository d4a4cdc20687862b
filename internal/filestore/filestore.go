// Copyright (c) 2025-2026 ParentFacile
// SPDX-License-Identifier: GPL-3.0-or-later

// Package filestore persists uploaded PDF files under a single public
// directory and guards every path it touches against traversal.
package filestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/parentfacile/parentfacile/internal/util"
)

// Store manages the on-disk PDF directory. File names handed back to
// callers are always bare names, never paths.
type Store struct {
	dir string
}

// New returns a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve pdf dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create pdf dir: %w", err)
	}
	return &Store{dir: abs}, nil
}

// Dir returns the absolute directory the store writes into.
func (s *Store) Dir() string {
	return s.dir
}

// path resolves name inside the store directory, rejecting anything
// that would escape it.
func (s *Store) path(name string) (string, error) {
	clean := util.SafeFsName(name)
	if clean == "" {
		return "", fmt.Errorf("empty file name")
	}
	p := filepath.Join(s.dir, clean)
	if !strings.HasPrefix(p, s.dir+string(filepath.Separator)) {
		return "", fmt.Errorf("file name %q escapes store directory", name)
	}
	return p, nil
}

// Save writes the uploaded content to a new file whose name is derived
// from originalName plus a millisecond timestamp. The content is first
// written to a temporary file and renamed into place, so a failed
// upload never leaves a partially written PDF visible.
func (s *Store) Save(originalName string, r io.Reader) (string, int64, error) {
	base := util.SanitizeBaseName(originalName)
	name := fmt.Sprintf("%s_%d.pdf", base, time.Now().UnixMilli())

	dst, err := s.path(name)
	if err != nil {
		return "", 0, err
	}

	tmp := filepath.Join(s.dir, "tmp-"+uuid.NewString())
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("create temp file: %w", err)
	}

	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return "", 0, fmt.Errorf("write upload: %w", err)
	}

	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return "", 0, fmt.Errorf("finalize upload: %w", err)
	}
	return name, size, nil
}

// Remove deletes a stored file. A missing file is not an error.
func (s *Store) Remove(name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// Open opens a stored file for reading together with its fs.FileInfo.
// os.IsNotExist reports whether the returned error means the file is
// gone.
func (s *Store) Open(name string) (*os.File, os.FileInfo, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, info, nil
}

// Exists reports whether a stored file is present on disk.
func (s *Store) Exists(name string) bool {
	p, err := s.path(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}
