// Copyright (c) 2025-2026 ParentFacile
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/parentfacile/parentfacile/internal/model"
	"github.com/parentfacile/parentfacile/internal/service"
)

// multipartMemory bounds how much of a parsed form is held in memory before
// spilling to temp files.
const multipartMemory = 4 << 20

// AdminDocsHandler serves the authenticated catalog management endpoints.
type AdminDocsHandler struct {
	catalog        *service.CatalogService
	maxUploadBytes int64
}

// NewAdminDocsHandler creates a new admin documents handler.
func NewAdminDocsHandler(catalog *service.CatalogService, maxUploadBytes int64) *AdminDocsHandler {
	return &AdminDocsHandler{catalog: catalog, maxUploadBytes: maxUploadBytes}
}

// List handles GET /api/admin/documents. The admin UI manages the whole
// catalog at once, so this is the full set ordered by tag, position, label.
func (h *AdminDocsHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.catalog.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONSuccess(w, map[string]any{
		"documents": docs,
	})
}

// documentFields reads the metadata fields present in a parsed form.
// Absent fields stay nil so updates remain partial.
func documentFields(r *http.Request) (model.DocumentFields, error) {
	var f model.DocumentFields
	get := func(name string) *string {
		if vs, ok := r.MultipartForm.Value[name]; ok && len(vs) > 0 {
			v := vs[0]
			return &v
		}
		return nil
	}
	f.Label = get("label")
	f.Tag = get("tag")
	f.DocKey = get("doc_key")
	if raw := get("sort_order"); raw != nil {
		n, err := strconv.ParseInt(strings.TrimSpace(*raw), 10, 64)
		if err != nil {
			return f, &model.ValidationError{Field: "sort_order", Message: "must be an integer"}
		}
		f.SortOrder = &n
	}
	return f, nil
}

// isPDFUpload accepts a part declaring the PDF content type, falling back
// to the .pdf extension for clients that send application/octet-stream.
func isPDFUpload(header *multipart.FileHeader) bool {
	ct := header.Header.Get("Content-Type")
	if ct == model.MimeTypePDF {
		return true
	}
	if ct == "" || ct == "application/octet-stream" {
		return strings.EqualFold(filepath.Ext(header.Filename), ".pdf")
	}
	return false
}

// parseUpload parses the multipart body and returns the optional "file"
// part. The request body is capped at the configured upload limit.
func (h *AdminDocsHandler) parseUpload(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeJSONError(w, http.StatusBadRequest, KindValidation, "Formulaire invalide ou fichier trop volumineux")
		return nil, nil, false
	}

	file, header, err := r.FormFile("file")
	if err == http.ErrMissingFile {
		return nil, nil, true
	}
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, KindValidation, "Champ fichier invalide")
		return nil, nil, false
	}
	if !isPDFUpload(header) {
		file.Close()
		writeJSONError(w, http.StatusBadRequest, KindValidation, "Seuls les fichiers PDF sont acceptés")
		return nil, nil, false
	}
	return file, header, true
}

// Create handles POST /api/admin/documents. The body is a multipart form
// with label, tag, doc_key, optional sort_order and the PDF under "file".
func (h *AdminDocsHandler) Create(w http.ResponseWriter, r *http.Request) {
	file, header, ok := h.parseUpload(w, r)
	if !ok {
		return
	}
	if file == nil {
		writeJSONError(w, http.StatusBadRequest, KindValidation, "Le fichier PDF est requis")
		return
	}
	defer file.Close()

	fields, err := documentFields(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	doc, err := h.catalog.Create(r.Context(), service.CreateInput{
		Fields:   fields,
		FileName: header.Filename,
		File:     file,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":         true,
		"id":         doc.ID,
		"public_url": doc.PublicURL,
		"file_name":  doc.FileName,
		"document":   doc,
	})
}

// Update handles PUT /api/admin/documents/{id}. Multipart bodies may
// replace the PDF; JSON bodies update metadata only. Every field is
// optional and an empty update leaves the row untouched.
func (h *AdminDocsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, KindValidation, "id invalide")
		return
	}

	var (
		fields   model.DocumentFields
		fileName string
		file     io.Reader
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		part, header, ok := h.parseUpload(w, r)
		if !ok {
			return
		}
		if part != nil {
			defer part.Close()
			file = part
			fileName = header.Filename
		}
		if fields, err = documentFields(r); err != nil {
			writeServiceError(w, err)
			return
		}
	} else {
		var req struct {
			Label     *string `json:"label"`
			Tag       *string `json:"tag"`
			DocKey    *string `json:"doc_key"`
			SortOrder *int64  `json:"sort_order"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			writeJSONError(w, http.StatusBadRequest, KindValidation, "Corps JSON invalide")
			return
		}
		fields = model.DocumentFields{Label: req.Label, Tag: req.Tag, DocKey: req.DocKey, SortOrder: req.SortOrder}
	}

	doc, err := h.catalog.Update(r.Context(), id, fields, fileName, file)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONSuccess(w, map[string]any{"document": doc})
}

// Delete handles DELETE /api/admin/documents/{id}.
func (h *AdminDocsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, KindValidation, "id invalide")
		return
	}

	if err := h.catalog.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONSuccess(w, nil)
}
