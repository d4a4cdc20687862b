package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/parentfacile/parentfacile/internal/auth"
)

// SeedAdmin creates the admin account if it does not exist yet. Idempotent:
// safe to call on every process start. When the seed email or password is
// missing the routine logs and returns nil, leaving the system without a
// usable database-backed account until one is configured.
func SeedAdmin(ctx context.Context, db *sql.DB, email, password string) error {
	if email == "" || password == "" {
		slog.Warn("admin seed email/password not configured, skipping seed")
		return nil
	}

	queries := New(db)

	_, err := queries.GetAdminByEmail(ctx, email)
	if err == nil {
		slog.Info("admin account already exists, skipping seed", "email", email)
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("checking for admin account: %w", err)
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing seed password: %w", err)
	}

	id, err := queries.CreateAdmin(ctx, email, passwordHash, time.Now())
	if err != nil {
		return fmt.Errorf("creating admin account: %w", err)
	}

	slog.Info("created admin account", "id", id, "email", email)
	return nil
}
