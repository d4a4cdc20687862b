// Copyright (c) 2025-2026 ParentFacile
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/parentfacile/parentfacile/internal/model"
	"github.com/parentfacile/parentfacile/internal/service"
	"github.com/parentfacile/parentfacile/internal/util"
)

// pdfCacheControl is sent with individual PDF responses. Browsers may keep
// a copy for an hour but must revalidate after that.
const pdfCacheControl = "public, max-age=3600, must-revalidate"

// DocsHandler serves the public catalog endpoints.
type DocsHandler struct {
	catalog *service.CatalogService
	archive *service.ArchiveService
}

// NewDocsHandler creates a new public documents handler.
func NewDocsHandler(catalog *service.CatalogService, archive *service.ArchiveService) *DocsHandler {
	return &DocsHandler{catalog: catalog, archive: archive}
}

// List handles GET /api/documents - the public catalog page, optionally
// narrowed by ?tag= and the typo-tolerant ?q= search, reordered by ?sort=
// and ?dir=.
func (h *DocsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.ParseInt(q.Get("page"), 10, 64)
	limit, _ := strconv.ParseInt(q.Get("limit"), 10, 64)

	res, err := h.catalog.List(r.Context(), service.ListOptions{
		Tag:   q.Get("tag"),
		Query: q.Get("q"),
		Sort:  q.Get("sort"),
		Desc:  strings.EqualFold(q.Get("dir"), "desc"),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONSuccess(w, map[string]any{
		"documents": res.Documents,
		"total":     res.Total,
		"page":      res.Page,
		"limit":     res.Limit,
	})
}

// Preview handles GET /api/documents/{id}/preview, streaming the PDF for
// inline display.
func (h *DocsHandler) Preview(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, "inline")
}

// Download handles GET /api/documents/{id}/download, streaming the PDF as
// an attachment named after the label.
func (h *DocsHandler) Download(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, "attachment")
}

// stream sends one document's PDF. A missing row and a missing backing file
// are both 404s but carry distinct kinds, so the admin UI can tell a stale
// link from a broken row.
func (h *DocsHandler) stream(w http.ResponseWriter, r *http.Request, disposition string) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, KindValidation, "id invalide")
		return
	}

	doc, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	f, info, err := h.catalog.Files().Open(doc.FileName)
	if err != nil {
		if os.IsNotExist(err) {
			writeJSONError(w, http.StatusNotFound, KindFileMissing, "Fichier absent du serveur")
			return
		}
		slog.Error("open document file", "id", doc.ID, "file", doc.FileName, "error", err)
		writeJSONError(w, http.StatusInternalServerError, KindInternal, "Erreur interne")
		return
	}
	defer f.Close()

	name := util.CleanForHeader(doc.Label) + ".pdf"
	w.Header().Set("Content-Type", model.MimeTypePDF)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.Header().Set("Content-Disposition", disposition+"; "+util.ContentDispositionFilename(name))
	w.Header().Set("Cache-Control", pdfCacheControl)
	w.Header().Set("Last-Modified", info.ModTime().UTC().Format(http.TimeFormat))

	if _, err := io.Copy(w, f); err != nil {
		// Headers are gone; nothing left to do but log.
		slog.Warn("document stream interrupted", "id", doc.ID, "error", err)
	}
}

// Zip handles GET /api/documents/zip, streaming the whole catalog as one
// archive. The zip is built on the fly and never cached.
func (h *DocsHandler) Zip(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", service.ArchiveName))
	w.Header().Set("Cache-Control", "no-store")

	written, err := h.archive.WriteZip(r.Context(), w)
	if err != nil {
		// ErrArchiveEmpty surfaces before the first byte is streamed, so a
		// JSON 404 is still possible.
		if errors.Is(err, service.ErrArchiveEmpty) {
			w.Header().Del("Content-Disposition")
			writeJSONError(w, http.StatusNotFound, KindNotFound, "Aucun document disponible")
			return
		}
		slog.Error("zip stream failed", "written", written, "error", err)
	}
}
