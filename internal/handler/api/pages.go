// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pageforge/pageforge/internal/model"
	"github.com/pageforge/pageforge/internal/service"
)

// CreatePageRequest is the request body for creating a page.
type CreatePageRequest struct {
	Name        string         `json:"name"`
	PageType    string         `json:"page_type"`
	Config      map[string]any `json:"config,omitempty"`
	ScheduledAt *time.Time     `json:"scheduled_at,omitempty"`
}

// UpdatePageRequest is the request body for updating a page. Patch is
// deep-merged into the stored config; ExpectedVersion, when set,
// enables optimistic concurrency.
type UpdatePageRequest struct {
	Patch           map[string]any `json:"patch"`
	ExpectedVersion *int64         `json:"expected_version,omitempty"`
}

// CopyPageRequest is the request body for copying a page.
type CopyPageRequest struct {
	Name string `json:"name"`
}

// ListPages handles GET /api/v1/pages
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := parsePageParam(r)
	perPage := parsePerPageParam(r, 20, 100)

	createdAfter, err := parseTimeParam(q, "created_after")
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	createdBefore, err := parseTimeParam(q, "created_before")
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	items, total, err := h.pages.List(r.Context(), service.ListParams{
		Status:        q.Get("status"),
		PageType:      q.Get("page_type"),
		Author:        q.Get("author"),
		NameQuery:     q.Get("q"),
		CreatedAfter:  createdAfter,
		CreatedBefore: createdBefore,
		Page:          int64(page),
		PerPage:       int64(perPage),
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	WriteSuccess(w, items, paginationMeta(total, page, perPage))
}

// GetPage handles GET /api/v1/pages/{id}
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	cfg, err := h.pages.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	WriteSuccess(w, cfg, nil)
}

// CreatePage handles POST /api/v1/pages
func (h *Handler) CreatePage(w http.ResponseWriter, r *http.Request) {
	var req CreatePageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cfg, err := h.pages.Create(r.Context(), service.CreatePageParams{
		Name:        req.Name,
		PageType:    req.PageType,
		Initial:     req.Config,
		ScheduledAt: req.ScheduledAt,
		Actor:       actorFrom(r),
		Meta:        requestMeta(r),
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	WriteCreated(w, cfg)
}

// UpdatePage handles PUT /api/v1/pages/{id}
func (h *Handler) UpdatePage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdatePageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Patch) == 0 {
		WriteBadRequest(w, "patch is required")
		return
	}

	cfg, err := h.pages.Update(r.Context(), id, req.Patch, service.UpdateOptions{
		ExpectedVersion: req.ExpectedVersion,
		Actor:           actorFrom(r),
		Meta:            requestMeta(r),
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	WriteSuccess(w, cfg, nil)
}

// DeletePage handles DELETE /api/v1/pages/{id}
func (h *Handler) DeletePage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.pages.Delete(r.Context(), id, actorFrom(r), requestMeta(r)); err != nil {
		h.writeDomainError(w, err)
		return
	}

	WriteSuccess(w, map[string]string{"id": id}, nil)
}

// CopyPage handles POST /api/v1/pages/{id}/copy
func (h *Handler) CopyPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req CopyPageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cfg, err := h.pages.Copy(r.Context(), id, req.Name, actorFrom(r), requestMeta(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	WriteCreated(w, cfg)
}

// PageOperations handles GET /api/v1/pages/{id}/operations
func (h *Handler) PageOperations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	page := parsePageParam(r)
	perPage := parsePerPageParam(r, 20, 100)

	entries, total, err := h.operations.History(r.Context(), id, r.URL.Query().Get("action"),
		int64(perPage), int64((page-1)*perPage))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	WriteSuccess(w, entries, paginationMeta(total, page, perPage))
}

// ListOperations handles GET /api/v1/operations
func (h *Handler) ListOperations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := parsePageParam(r)
	perPage := parsePerPageParam(r, 20, 100)

	if action := q.Get("action"); action != "" && !model.ValidAction(action) {
		WriteBadRequest(w, "unknown action: "+action)
		return
	}

	entries, total, err := h.operations.History(r.Context(), q.Get("page_id"), q.Get("action"),
		int64(perPage), int64((page-1)*perPage))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	WriteSuccess(w, entries, paginationMeta(total, page, perPage))
}
