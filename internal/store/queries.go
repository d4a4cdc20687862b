// Copyright (c) 2025-2026 ParentFacile
// SPDX-License-Identifier: GPL-3.0-or-later

// Package store provides database access for the document catalog, the admin
// account and the contact message log.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/parentfacile/parentfacile/internal/model"
)

// DBTX is the interface shared by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries wraps a database handle with typed query methods.
type Queries struct {
	db DBTX
}

// New creates a Queries instance backed by the given handle.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const documentColumns = `id, doc_key, label, tag, sort_order, file_name, file_size, mime_type, public_url, created_at`

func scanDocument(row interface{ Scan(...any) error }) (model.Document, error) {
	var d model.Document
	err := row.Scan(&d.ID, &d.DocKey, &d.Label, &d.Tag, &d.SortOrder,
		&d.FileName, &d.FileSize, &d.MimeType, &d.PublicURL, &d.CreatedAt)
	return d, err
}

// GetDocumentByID returns a single document or sql.ErrNoRows.
func (q *Queries) GetDocumentByID(ctx context.Context, id int64) (model.Document, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	return scanDocument(row)
}

// DocKeyInUse reports whether a doc_key is taken by a document other than
// excludeID. Pass 0 to check against every row.
func (q *Queries) DocKeyInUse(ctx context.Context, docKey string, excludeID int64) (bool, error) {
	var id int64
	err := q.db.QueryRowContext(ctx,
		`SELECT id FROM documents WHERE doc_key = ? AND id <> ? LIMIT 1`,
		docKey, excludeID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateDocumentParams holds the columns of a new document row.
type CreateDocumentParams struct {
	DocKey    string
	Label     string
	Tag       string
	SortOrder int64
	FileName  string
	FileSize  int64
	MimeType  string
	PublicURL string
	CreatedAt time.Time
}

// CreateDocument inserts a document row and returns its assigned id.
func (q *Queries) CreateDocument(ctx context.Context, p CreateDocumentParams) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO documents (doc_key, label, tag, sort_order, file_name, file_size, mime_type, public_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.DocKey, p.Label, p.Tag, p.SortOrder, p.FileName, p.FileSize, p.MimeType, p.PublicURL, p.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateDocumentParams holds the full set of mutable document columns. The
// caller pre-fills it from the existing row before applying partial changes.
type UpdateDocumentParams struct {
	ID        int64
	DocKey    string
	Label     string
	Tag       string
	SortOrder int64
	FileName  string
	FileSize  int64
	MimeType  string
	PublicURL string
}

// UpdateDocument rewrites the mutable columns of a document row.
func (q *Queries) UpdateDocument(ctx context.Context, p UpdateDocumentParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE documents
		 SET doc_key = ?, label = ?, tag = ?, sort_order = ?, file_name = ?, file_size = ?, mime_type = ?, public_url = ?
		 WHERE id = ?`,
		p.DocKey, p.Label, p.Tag, p.SortOrder, p.FileName, p.FileSize, p.MimeType, p.PublicURL, p.ID)
	return err
}

// DeleteDocument removes a document row.
func (q *Queries) DeleteDocument(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	return err
}

// ListAllDocuments returns every document ordered for the admin view:
// tag, then manual sort position, then label.
func (q *Queries) ListAllDocuments(ctx context.Context) ([]model.Document, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY tag, sort_order, label`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return collectDocuments(rows)
}

// ListArchiveDocuments returns every document ordered by sort position then
// label, the order zip entries are written in.
func (q *Queries) ListArchiveDocuments(ctx context.Context) ([]model.Document, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY sort_order, label`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return collectDocuments(rows)
}

// Sortable columns the public listing accepts. Anything else falls back to
// the tag-bucket ordering.
var listOrderColumns = map[string]string{
	"label":   "label",
	"order":   "sort_order",
	"created": "created_at",
	"tag":     "tag",
}

// tagBucketOrder ranks the three known life-stage tags ahead of everything else.
const tagBucketOrder = `CASE tag WHEN 'Grossesse' THEN 0 WHEN 'Naissance' THEN 1 WHEN '1–3 ans' THEN 2 ELSE 99 END`

// ListDocumentsParams are the public listing filters. Free-text search is
// applied by the service over fetched rows, so the only SQL filter is the
// exact tag match.
type ListDocumentsParams struct {
	Tag    string
	Sort   string // one of label, order, created, tag; "" or "tag" selects the bucket ordering
	Desc   bool
	Limit  int64
	Offset int64
}

func listFilterSQL(p ListDocumentsParams) (string, []any) {
	if p.Tag == "" {
		return "", nil
	}
	return "WHERE tag = ?", []any{p.Tag}
}

// CountDocuments returns the number of rows matching the listing filters.
func (q *Queries) CountDocuments(ctx context.Context, p ListDocumentsParams) (int64, error) {
	whereSQL, args := listFilterSQL(p)
	var total int64
	err := q.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM documents %s`, whereSQL), args...).Scan(&total)
	return total, err
}

// ListDocuments returns one page of the public catalog listing.
func (q *Queries) ListDocuments(ctx context.Context, p ListDocumentsParams) ([]model.Document, error) {
	whereSQL, args := listFilterSQL(p)

	col, ok := listOrderColumns[p.Sort]
	var orderSQL string
	if !ok || col == "tag" {
		orderSQL = tagBucketOrder + ", sort_order, label"
	} else {
		dir := "ASC"
		if p.Desc {
			dir = "DESC"
		}
		orderSQL = fmt.Sprintf("%s %s, label ASC", col, dir)
	}

	args = append(args, p.Limit, p.Offset)
	rows, err := q.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM documents %s ORDER BY %s LIMIT ? OFFSET ?`,
			documentColumns, whereSQL, orderSQL), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return collectDocuments(rows)
}

func collectDocuments(rows *sql.Rows) ([]model.Document, error) {
	docs := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// GetAdminByEmail returns the admin identity matching the email,
// case-insensitively, or sql.ErrNoRows.
func (q *Queries) GetAdminByEmail(ctx context.Context, email string) (model.AdminUser, error) {
	var u model.AdminUser
	err := q.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM admin_users WHERE LOWER(email) = LOWER(?) LIMIT 1`,
		email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

// CreateAdmin inserts the admin identity row.
func (q *Queries) CreateAdmin(ctx context.Context, email, passwordHash string, createdAt time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO admin_users (email, password_hash, created_at) VALUES (?, ?, ?)`,
		email, passwordHash, createdAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// CreateMessage persists a contact inquiry and returns its id.
func (q *Queries) CreateMessage(ctx context.Context, email, subject, body string, createdAt time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO messages (email, subject, message, email_sent, created_at) VALUES (?, ?, ?, 0, ?)`,
		email, subject, body, createdAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// MarkMessageSent flags a message as relayed by email.
func (q *Queries) MarkMessageSent(ctx context.Context, id int64, sentAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE messages SET email_sent = 1, sent_at = ? WHERE id = ?`, sentAt, id)
	return err
}

// ListMessagesParams are the admin message listing filters.
type ListMessagesParams struct {
	Query  string
	Limit  int64
	Offset int64
}

func messageFilterSQL(p ListMessagesParams) (string, []any) {
	if p.Query == "" {
		return "", nil
	}
	like := "%" + p.Query + "%"
	return "WHERE (email LIKE ? OR subject LIKE ? OR message LIKE ?)", []any{like, like, like}
}

// CountMessages returns the number of messages matching the filter.
func (q *Queries) CountMessages(ctx context.Context, p ListMessagesParams) (int64, error) {
	whereSQL, args := messageFilterSQL(p)
	var total int64
	err := q.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM messages %s`, whereSQL), args...).Scan(&total)
	return total, err
}

// ListMessages returns one page of contact inquiries, newest first.
func (q *Queries) ListMessages(ctx context.Context, p ListMessagesParams) ([]model.Message, error) {
	whereSQL, args := messageFilterSQL(p)
	args = append(args, p.Limit, p.Offset)
	rows, err := q.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, email, subject, message, email_sent, created_at, sent_at
		 FROM messages %s ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, whereSQL), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	msgs := make([]model.Message, 0)
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.Email, &m.Subject, &m.Message, &m.EmailSent, &m.CreatedAt, &m.SentAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
