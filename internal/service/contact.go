// Copyright (c) 2025-2026 ParentFacile
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/parentfacile/parentfacile/internal/config"
	"github.com/parentfacile/parentfacile/internal/model"
	"github.com/parentfacile/parentfacile/internal/store"
)

// Mailer delivers a single message to the site owner.
type Mailer interface {
	Send(subject, body string) error
}

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	host string
	port int
	user string
	pass string
	from string
	to   string
}

// NewSMTPMailer creates a mailer from the SMTP settings.
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: cfg.SMTPFrom,
		to:   cfg.MailTo,
	}
}

// Send delivers one message to the configured recipient.
func (m *SMTPMailer) Send(subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: text/plain; charset=utf-8\r\n"+
		"\r\n"+
		"%s\r\n", m.from, m.to, subject, body)

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}
	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	if err := smtp.SendMail(addr, auth, m.from, []string{m.to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// ContactService persists contact form submissions and relays them by mail.
type ContactService struct {
	db     *sql.DB
	mailer Mailer // nil when mail is not configured
}

// NewContactService creates a new contact service. mailer may be nil, in
// which case submissions are stored but never relayed.
func NewContactService(db *sql.DB, mailer Mailer) *ContactService {
	return &ContactService{db: db, mailer: mailer}
}

// Submit validates and stores a contact inquiry, then tries to relay it by
// mail. The row is the durable record: a mail failure is logged, the
// submission still succeeds, and email_sent stays false for a later look.
func (s *ContactService) Submit(ctx context.Context, email, subject, body string) (int64, error) {
	email = strings.TrimSpace(email)
	subject = strings.TrimSpace(subject)
	body = strings.TrimSpace(body)

	if err := model.ValidateContact(email, subject, body); err != nil {
		return 0, err
	}

	queries := store.New(s.db)
	id, err := queries.CreateMessage(ctx, email, subject, body, time.Now())
	if err != nil {
		return 0, fmt.Errorf("store message: %w", err)
	}

	if s.mailer == nil {
		return id, nil
	}

	mailBody := fmt.Sprintf("Nouveau message via le formulaire de contact\n\nDe: %s\n\n%s", email, body)
	if err := s.mailer.Send("[ParentFacile] "+subject, mailBody); err != nil {
		slog.Error("contact mail relay failed", "message_id", id, "error", err)
		return id, nil
	}

	if err := queries.MarkMessageSent(ctx, id, time.Now()); err != nil {
		slog.Error("failed to mark message as sent", "message_id", id, "error", err)
	}
	return id, nil
}

// Messages pagination bounds for the admin inbox.
const (
	DefaultMessageLimit = 3
	MaxMessageLimit     = 100
	MaxMessageDumpLimit = 500
)

// MessagesResult is one page of contact inquiries plus pagination metadata.
type MessagesResult struct {
	Messages []model.Message
	Total    int64
	Page     int64
	Limit    int64
}

// ListMessages returns one page of the admin inbox, newest first, with an
// optional search over sender, subject and body. Page and limit are clamped
// to their bounds.
func (s *ContactService) ListMessages(ctx context.Context, query string, page, limit int64) (MessagesResult, error) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultMessageLimit
	}
	if limit > MaxMessageLimit {
		limit = MaxMessageLimit
	}

	p := store.ListMessagesParams{
		Query:  strings.TrimSpace(query),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	queries := store.New(s.db)

	total, err := queries.CountMessages(ctx, p)
	if err != nil {
		return MessagesResult{}, fmt.Errorf("count messages: %w", err)
	}
	msgs, err := queries.ListMessages(ctx, p)
	if err != nil {
		return MessagesResult{}, fmt.Errorf("list messages: %w", err)
	}
	return MessagesResult{Messages: msgs, Total: total, Page: page, Limit: limit}, nil
}

// AllMessages returns the newest messages up to the dump cap, for the admin
// export view.
func (s *ContactService) AllMessages(ctx context.Context) ([]model.Message, error) {
	msgs, err := store.New(s.db).ListMessages(ctx, store.ListMessagesParams{Limit: MaxMessageDumpLimit})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}
