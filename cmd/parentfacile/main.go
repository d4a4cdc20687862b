// Copyright (c) 2025-2026 ParentFacile
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/parentfacile/parentfacile/internal/auth"
	"github.com/parentfacile/parentfacile/internal/config"
	"github.com/parentfacile/parentfacile/internal/filestore"
	"github.com/parentfacile/parentfacile/internal/handler"
	"github.com/parentfacile/parentfacile/internal/middleware"
	"github.com/parentfacile/parentfacile/internal/service"
	"github.com/parentfacile/parentfacile/internal/store"
	"github.com/parentfacile/parentfacile/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "ParentFacile - parenting paperwork document API\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PF_JWT_SECRET          Token signing key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PF_DB_PATH             SQLite database path (default: ./data/parentfacile.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PF_PDF_DIR             PDF storage directory (default: ./public/pdfs)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PF_SERVER_PORT         Server port (default: 4000)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PF_ENV                 Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PF_TOKEN_STRATEGY      Admin token transport: cookie|bearer|both (default: both)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PF_ADMIN_EMAIL         Admin login email (default: admin@parentfacile.fr)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PF_ADMIN_PASSWORD_HASH Bcrypt hash of the admin password\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PF_SMTP_HOST           SMTP relay for the contact form (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		info := version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}
		fmt.Println(info.String())
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// Initialize database
	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	// Run migrations
	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Seed the admin account when PF_ADMIN_SEED_* is set
	ctx := context.Background()
	if err := store.SeedAdmin(ctx, db, cfg.AdminSeedEmail, cfg.AdminSeedPassword); err != nil {
		return fmt.Errorf("seeding admin account: %w", err)
	}

	// Initialize PDF storage
	files, err := filestore.New(cfg.PDFDir)
	if err != nil {
		return fmt.Errorf("initializing pdf storage: %w", err)
	}
	slog.Info("pdf storage ready", "dir", files.Dir())

	// Services
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry)
	catalog := service.NewCatalogService(db, files)
	archive := service.NewArchiveService(db, files)

	var mailer service.Mailer
	if cfg.MailEnabled() {
		mailer = service.NewSMTPMailer(cfg)
		slog.Info("contact mail relay enabled", "host", cfg.SMTPHost, "to", cfg.MailTo)
	} else {
		slog.Info("contact mail relay disabled, submissions are stored only")
	}
	contact := service.NewContactService(db, mailer)

	// Handlers
	authHandler := handler.NewAuthHandler(cfg, db, tokens)
	docsHandler := handler.NewDocsHandler(catalog, archive)
	adminDocsHandler := handler.NewAdminDocsHandler(catalog, cfg.MaxUploadBytes)
	contactHandler := handler.NewContactHandler(contact)
	healthHandler := handler.NewHealthHandler(db, cfg)

	// Rate limiters: a generous global bucket, tighter ones for login,
	// contact and the zip download
	globalLimiter := middleware.NewRateLimiter(10.0, 20)
	authLimiter := middleware.NewRateLimiter(0.5, 10)
	contactLimiter := middleware.NewRateLimiter(0.2, 3)
	zipLimiter := middleware.NewRateLimiter(0.1, 2)

	requireAdmin := middleware.RequireAdmin(tokens, cfg.TokenStrategy, cfg.CookieName)

	// Create router
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))                    // Gzip compression with level 5
	r.Use(chimw.GetHead)                        // Handle HEAD requests for uptime monitoring
	r.Use(middleware.Timeout(60 * time.Second)) // generous, the zip can take a while

	r.Route("/api", func(r chi.Router) {
		r.Use(globalLimiter.Middleware())

		r.Get("/health", healthHandler.Health)

		// Public catalog
		r.Get("/documents", docsHandler.List)
		r.With(zipLimiter.Middleware()).Get("/documents/zip", docsHandler.Zip)
		r.Get("/documents/{id}/preview", docsHandler.Preview)
		r.Get("/documents/{id}/download", docsHandler.Download)

		// Contact form
		r.With(contactLimiter.Middleware()).Post("/contact", contactHandler.Submit)

		// Admin session, all behind the same strict limiter so session
		// probing is throttled like login itself.
		r.Group(func(r chi.Router) {
			r.Use(authLimiter.Middleware())

			r.Post("/admin/login", authHandler.Login)
			r.Get("/admin/me", authHandler.Me)
			r.Post("/admin/logout", authHandler.Logout)
		})

		// Admin catalog management
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

	// Raw PDF files at their public URLs
	r.Handle("/pdfs/*", http.StripPrefix("/pdfs/", http.FileServer(http.Dir(files.Dir()))))

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // Longer to allow for large uploads and slow connections
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB max header size
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
