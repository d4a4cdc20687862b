// Copyright (c) 2025-2026 ParentFacile
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/parentfacile/parentfacile/internal/auth"
	"github.com/parentfacile/parentfacile/internal/config"
	"github.com/parentfacile/parentfacile/internal/filestore"
	"github.com/parentfacile/parentfacile/internal/middleware"
	"github.com/parentfacile/parentfacile/internal/service"
	"github.com/parentfacile/parentfacile/internal/testutil"
)

const testPassword = "correct horse battery staple"

// testApp wires the full API surface against an in-memory database and a
// temporary PDF directory.
type testApp struct {
	cfg    *config.Config
	db     *sql.DB
	files  *filestore.Store
	tokens *auth.TokenService
	router chi.Router
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cfg := &config.Config{
		Env:            "test",
		JWTSecret:      strings.Repeat("s", config.MinJWTSecretLength),
		JWTExpiry:      time.Hour,
		TokenStrategy:  config.StrategyBoth,
		CookieName:     "admintoken",
		AdminEmail:     "admin@parentfacile.fr",
		AdminPassword:  testPassword,
		MaxUploadBytes: 20 << 20,
	}

	db := testutil.TestDB(t)
	files, err := filestore.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry)
	catalog := service.NewCatalogService(db, files)
	archive := service.NewArchiveService(db, files)
	contact := service.NewContactService(db, nil)

	authHandler := NewAuthHandler(cfg, db, tokens)
	docsHandler := NewDocsHandler(catalog, archive)
	adminDocsHandler := NewAdminDocsHandler(catalog, cfg.MaxUploadBytes)
	contactHandler := NewContactHandler(contact)
	healthHandler := NewHealthHandler(db, cfg)

	requireAdmin := middleware.RequireAdmin(tokens, cfg.TokenStrategy, cfg.CookieName)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)

		r.Get("/documents", docsHandler.List)
		r.Get("/documents/zip", docsHandler.Zip)
		r.Get("/documents/{id}/preview", docsHandler.Preview)
		r.Get("/documents/{id}/download", docsHandler.Download)

		r.Post("/contact", contactHandler.Submit)

		r.Post("/admin/login", authHandler.Login)
		r.Get("/admin/me", authHandler.Me)
		r.Post("/admin/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)

			r.Get("/admin/documents", adminDocsHandler.List)
			r.Post("/admin/documents", adminDocsHandler.Create)
			r.Put("/admin/documents/{id}", adminDocsHandler.Update)
			r.Patch("/admin/documents/{id}", adminDocsHandler.Update)
			r.Delete("/admin/documents/{id}", adminDocsHandler.Delete)

			r.Get("/admin/messages", contactHandler.Messages)
			r.Get("/admin/messages/all", contactHandler.AllMessages)
		})
	})

	return &testApp{cfg: cfg, db: db, files: files, tokens: tokens, router: r}
}

// do runs one request through the router.
func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// login authenticates with the test credentials and returns the bearer token.
func (a *testApp) login(t *testing.T) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{
		"email":    a.cfg.AdminEmail,
		"password": testPassword,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := a.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body)
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Token == "" {
		t.Fatal("login response carries no token")
	}
	return resp.Token
}

// decodeJSON unmarshals a response body, failing the test on bad JSON.
func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body, err)
	}
}

// multipartDoc builds a multipart body with the given metadata fields and,
// when pdfName is non-empty, a PDF file part.
func multipartDoc(t *testing.T, fields map[string]string, pdfName, pdfContent string) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if pdfName != "" {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+pdfName+`"`)
		hdr.Set("Content-Type", "application/pdf")
		part, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write([]byte(pdfContent)); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

// createDocument uploads a document through the API and returns its id.
func (a *testApp) createDocument(t *testing.T, token, docKey, label, tag string) int64 {
	t.Helper()

	body, contentType := multipartDoc(t, map[string]string{
		"label":   label,
		"tag":     tag,
		"doc_key": docKey,
	}, label+".pdf", "%PDF-1.4 "+docKey)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/documents", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := a.do(req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create %s failed: %d %s", docKey, rec.Code, rec.Body)
	}

	var resp struct {
		ID int64 `json:"id"`
	}
	decodeJSON(t, rec, &resp)
	return resp.ID
}
