// Copyright (c) 2025-2026 ParentFacile
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/parentfacile/parentfacile/internal/service"
)

// ContactHandler serves the public contact form and the admin inbox.
type ContactHandler struct {
	contact *service.ContactService
}

// NewContactHandler creates a new contact handler.
func NewContactHandler(contact *service.ContactService) *ContactHandler {
	return &ContactHandler{contact: contact}
}

type contactRequest struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	// Honeypot field, absent from the visible form. Bots that fill it get a
	// success response while nothing is stored.
	HP string `json:"hp"`
}

// Submit handles POST /api/contact.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, KindValidation, "Corps JSON invalide")
		return
	}

	if req.HP != "" {
		writeJSONSuccess(w, nil)
		return
	}

	id, err := h.contact.Submit(r.Context(), req.Email, req.Subject, req.Message)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONSuccess(w, map[string]any{"id": id})
}

// Messages handles GET /api/admin/messages with ?q=, ?page= and ?limit=.
func (h *ContactHandler) Messages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.ParseInt(q.Get("page"), 10, 64)
	limit, _ := strconv.ParseInt(q.Get("limit"), 10, 64)

	res, err := h.contact.ListMessages(r.Context(), q.Get("q"), page, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONSuccess(w, map[string]any{
		"messages": res.Messages,
		"total":    res.Total,
		"page":     res.Page,
		"limit":    res.Limit,
	})
}

// AllMessages handles GET /api/admin/messages/all, the capped export view.
func (h *ContactHandler) AllMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.contact.AllMessages(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONSuccess(w, map[string]any{
		"messages": msgs,
		"count":    len(msgs),
	})
}
