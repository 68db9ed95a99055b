package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pageforge/pageforge/internal/model"
	"github.com/pageforge/pageforge/internal/render"
)

// PreviewRequest is the request body for rendering a page preview.
// When Config is set it is rendered as-is without persisting; when nil
// the stored configuration is used.
type PreviewRequest struct {
	Config   *model.PageConfig `json:"config,omitempty"`
	Platform string            `json:"platform,omitempty"`
	Theme    map[string]string `json:"theme,omitempty"`
}

// PublishPage handles POST /api/v1/pages/{id}/publish
func (h *Handler) PublishPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.publications.Publish(r.Context(), id, actorFrom(r), requestMeta(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	WriteCreated(w, rec)
}

// PreviewPage handles POST /api/v1/pages/{id}/preview
func (h *Handler) PreviewPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req PreviewRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cfg := req.Config
	if cfg == nil {
		var err error
		cfg, err = h.pages.Get(r.Context(), id)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
	}

	doc, err := h.publications.Preview(cfg, render.Context{
		PageID:   id,
		Platform: req.Platform,
		Theme:    req.Theme,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	WriteSuccess(w, doc, nil)
}

// ListPublications handles GET /api/v1/pages/{id}/publications
func (h *Handler) ListPublications(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	records, err := h.publications.GetPublications(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	WriteSuccess(w, records, nil)
}

// GetActivePublication handles GET /api/v1/pages/{id}/active
func (h *Handler) GetActivePublication(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.publications.GetActive(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	WriteSuccess(w, rec, nil)
}

// RestorePublication handles POST /api/v1/pages/{id}/publications/{publicationId}/restore
func (h *Handler) RestorePublication(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	publicationID := chi.URLParam(r, "publicationId")

	cfg, err := h.publications.Restore(r.Context(), id, publicationID, actorFrom(r), requestMeta(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	WriteSuccess(w, cfg, nil)
}
