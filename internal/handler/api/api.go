// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the REST API handlers for the page engine.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pageforge/pageforge/internal/model"
	"github.com/pageforge/pageforge/internal/schema"
	"github.com/pageforge/pageforge/internal/service"
	"github.com/pageforge/pageforge/internal/transfer"
	"github.com/pageforge/pageforge/internal/webhook"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	pages        *service.PageService
	publications *service.PublicationService
	library      *service.LibraryService
	operations   *service.OperationService
	registry     *schema.Registry
	logger       *slog.Logger

	webhooks      *webhook.Dispatcher
	webhookSecret string
	exporter      *transfer.Exporter
	importer      *transfer.Importer
}

// NewHandler creates a new API handler over the given services.
func NewHandler(
	pages *service.PageService,
	publications *service.PublicationService,
	library *service.LibraryService,
	operations *service.OperationService,
	registry *schema.Registry,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		pages:        pages,
		publications: publications,
		library:      library,
		operations:   operations,
		registry:     registry,
		logger:       logger,
	}
}

// Routes returns the API router, ready to mount at /api/v1.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/status", h.Status)

	r.Route("/pages", func(r chi.Router) {
		r.Get("/", h.ListPages)
		r.Post("/", h.CreatePage)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetPage)
			r.Put("/", h.UpdatePage)
			r.Delete("/", h.DeletePage)
			r.Post("/copy", h.CopyPage)
			r.Post("/publish", h.PublishPage)
			r.Post("/preview", h.PreviewPage)
			r.Get("/publications", h.ListPublications)
			r.Get("/active", h.GetActivePublication)
			r.Post("/publications/{publicationId}/restore", h.RestorePublication)
			r.Get("/operations", h.PageOperations)
		})
	})

	r.Route("/schemas", func(r chi.Router) {
		r.Get("/", h.ListSchemas)
		r.Get("/categories", h.ListSchemaCategories)
		r.Get("/{type}", h.GetSchema)
	})

	r.Route("/templates", func(r chi.Router) {
		r.Get("/", h.ListTemplates)
		r.Post("/", h.CreateTemplate)
		r.Get("/catalog", h.Catalog)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTemplate)
			r.Put("/", h.UpdateTemplate)
			r.Delete("/", h.DeleteTemplate)
			r.Post("/preview", h.PreviewTemplate)
		})
	})

	r.Route("/webhooks", func(r chi.Router) {
		r.Get("/", h.ListWebhooks)
		r.Post("/", h.RegisterWebhook)
		r.Delete("/{id}", h.DeleteWebhook)
	})

	r.Post("/render", h.RenderComponent)
	r.Get("/operations", h.ListOperations)
	r.Get("/export", h.ExportContent)
	r.Post("/import", h.ImportContent)

	return r
}

// Response is the standard API response envelope. Code 0 means
// success; non-zero codes are the stable domain error codes.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

// Meta carries the response timestamp and optional pagination info.
type Meta struct {
	Timestamp  time.Time   `json:"timestamp"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination describes the page window of a list response.
type Pagination struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Pages   int   `json:"pages"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful envelope with optional pagination.
func WriteSuccess(w http.ResponseWriter, data any, pagination *Pagination) {
	WriteJSON(w, http.StatusOK, Response{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    &Meta{Timestamp: time.Now().UTC(), Pagination: pagination},
	})
}

// WriteCreated writes a 201 Created envelope.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    &Meta{Timestamp: time.Now().UTC()},
	})
}

// WriteError writes an error envelope with the given HTTP status and
// domain code.
func WriteError(w http.ResponseWriter, statusCode, code int, message string) {
	WriteJSON(w, statusCode, Response{
		Code:    code,
		Message: message,
		Meta:    &Meta{Timestamp: time.Now().UTC()},
	})
}

// WriteBadRequest writes a 400 with the validation error code.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, model.CodeValidation, message)
}

// writeDomainError maps a service error onto the envelope. Unexpected
// errors are logged and surfaced as a generic internal failure.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var de *model.DomainError
	if !errors.As(err, &de) {
		h.logger.Error("unexpected API failure", "error", err)
		WriteError(w, http.StatusInternalServerError, model.CodeInternal, "internal error")
		return
	}

	switch de.Code {
	case model.CodeValidation:
		WriteError(w, http.StatusBadRequest, de.Code, de.Message)
	case model.CodeNotFound:
		WriteError(w, http.StatusNotFound, de.Code, de.Message)
	case model.CodeStateConflict:
		WriteError(w, http.StatusConflict, de.Code, de.Message)
	case model.CodePersistence:
		h.logger.Error("persistence failure", "error", err)
		WriteError(w, http.StatusServiceUnavailable, de.Code, de.Message)
	default:
		h.logger.Error("API failure", "error", err, "code", de.Code)
		WriteError(w, http.StatusInternalServerError, de.Code, de.Message)
	}
}

// StatusResponse contains API status information.
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Status returns the API status.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, StatusResponse{
		Status:  "ok",
		Version: "v1",
	}, nil)
}

// parseIntParam parses an integer query parameter, clamped to
// [minVal, maxVal]. A maxVal of 0 means no upper bound.
func parseIntParam(r *http.Request, name string, defaultVal, minVal, maxVal int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultVal
	}
	if v < minVal {
		return minVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

// parsePageParam parses the "page" query parameter.
func parsePageParam(r *http.Request) int {
	return parseIntParam(r, "page", 1, 1, 0)
}

// parsePerPageParam parses the "per_page" query parameter, clamped to
// [1, maxPerPage].
func parsePerPageParam(r *http.Request, defaultPerPage, maxPerPage int) int {
	return parseIntParam(r, "per_page", defaultPerPage, 1, maxPerPage)
}

// parseTimeParam parses an optional RFC 3339 query parameter. Absent
// means nil, not zero time.
func parseTimeParam(q url.Values, key string) (*time.Time, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an RFC 3339 timestamp", key)
	}
	return &ts, nil
}

// paginationMeta builds the pagination block for a list response.
func paginationMeta(total int64, page, perPage int) *Pagination {
	pages := int(total) / perPage
	if int(total)%perPage != 0 {
		pages++
	}
	return &Pagination{
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Pages:   pages,
	}
}

// decodeBody decodes a JSON request body into dst. Returns false with a
// response written when the body is malformed.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteBadRequest(w, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// requestMeta extracts audit metadata from the request.
func requestMeta(r *http.Request) model.RequestMeta {
	return model.RequestMeta{
		Origin:    "api",
		ClientIP:  clientIP(r),
		UserAgent: r.Header.Get("User-Agent"),
	}
}

// clientIP returns the client address without the port. The RealIP
// middleware has already resolved proxy headers into RemoteAddr, which
// then carries a bare IP.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// actorFrom returns the acting identity for audit entries. Actor
// identity is an opaque header value; absent means anonymous.
func actorFrom(r *http.Request) string {
	if actor := r.Header.Get("X-Actor"); actor != "" {
		return actor
	}
	return "anonymous"
}
