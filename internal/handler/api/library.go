package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pageforge/pageforge/internal/model"
	"github.com/pageforge/pageforge/internal/render"
	"github.com/pageforge/pageforge/internal/service"
)

// TemplateRequest is the request body for creating or updating a
// template.
type TemplateRequest struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
	Component   model.Component `json:"component"`
}

// RenderComponentRequest is the request body for rendering a single
// component tree outside any page.
type RenderComponentRequest struct {
	Component model.Component   `json:"component"`
	Platform  string            `json:"platform,omitempty"`
	Theme     map[string]string `json:"theme,omitempty"`
}

// ListTemplates handles GET /api/v1/templates
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.library.ListTemplates(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	WriteSuccess(w, templates, nil)
}

// CreateTemplate handles POST /api/v1/templates
func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req TemplateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	t, err := h.library.CreateTemplate(r.Context(), service.CreateTemplateParams{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Component:   req.Component,
		Actor:       actorFrom(r),
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	WriteCreated(w, t)
}

// GetTemplate handles GET /api/v1/templates/{id}
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := h.library.GetTemplate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	WriteSuccess(w, t, nil)
}

// UpdateTemplate handles PUT /api/v1/templates/{id}
func (h *Handler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var req TemplateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	t, err := h.library.UpdateTemplate(r.Context(), chi.URLParam(r, "id"), service.UpdateTemplateParams{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Component:   req.Component,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	WriteSuccess(w, t, nil)
}

// DeleteTemplate handles DELETE /api/v1/templates/{id}
func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.library.DeleteTemplate(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}

	WriteSuccess(w, map[string]string{"id": id}, nil)
}

// PreviewTemplate handles POST /api/v1/templates/{id}/preview
func (h *Handler) PreviewTemplate(w http.ResponseWriter, r *http.Request) {
	var req RenderComponentRequest // component ignored; platform/theme apply
	if !decodeBody(w, r, &req) {
		return
	}

	doc, err := h.library.PreviewTemplate(r.Context(), chi.URLParam(r, "id"), render.Context{
		Platform: req.Platform,
		Theme:    req.Theme,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	WriteSuccess(w, doc, nil)
}

// Catalog handles GET /api/v1/templates/catalog
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.library.Catalog(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	WriteSuccess(w, entries, nil)
}

// RenderComponent handles POST /api/v1/render
func (h *Handler) RenderComponent(w http.ResponseWriter, r *http.Request) {
	var req RenderComponentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Component.Type == "" {
		WriteBadRequest(w, "component type is required")
		return
	}

	out, err := h.library.RenderComponent(&req.Component, render.Context{
		Platform: req.Platform,
		Theme:    req.Theme,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	WriteSuccess(w, out, nil)
}

// ListSchemas handles GET /api/v1/schemas
func (h *Handler) ListSchemas(w http.ResponseWriter, r *http.Request) {
	schemas := h.registry.List()
	if category := r.URL.Query().Get("category"); category != "" {
		filtered := schemas[:0]
		for _, s := range schemas {
			if s.Category == category {
				filtered = append(filtered, s)
			}
		}
		schemas = filtered
	}

	WriteSuccess(w, schemas, nil)
}

// ListSchemaCategories handles GET /api/v1/schemas/categories
func (h *Handler) ListSchemaCategories(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, h.registry.ListCategories(), nil)
}

// GetSchema handles GET /api/v1/schemas/{type}
func (h *Handler) GetSchema(w http.ResponseWriter, r *http.Request) {
	componentType := chi.URLParam(r, "type")

	s, ok := h.registry.Get(componentType)
	if !ok {
		WriteError(w, http.StatusNotFound, model.CodeNotFound, "schema "+componentType+" not found")
		return
	}

	WriteSuccess(w, s, nil)
}
