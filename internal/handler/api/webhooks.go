package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pageforge/pageforge/internal/model"
	"github.com/pageforge/pageforge/internal/webhook"
)

// SetWebhookDispatcher wires webhook management endpoints. Without a
// dispatcher those endpoints answer 503.
func (h *Handler) SetWebhookDispatcher(d *webhook.Dispatcher, defaultSecret string) {
	h.webhooks = d
	h.webhookSecret = defaultSecret
}

// RegisterWebhookRequest is the request body for registering a webhook.
// An empty Events list subscribes to every event.
type RegisterWebhookRequest struct {
	Name   string   `json:"name"`
	URL    string   `json:"url"`
	Secret string   `json:"secret,omitempty"`
	Events []string `json:"events,omitempty"`
}

// WebhookResponse is a webhook subscription without its secret.
type WebhookResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Events    string    `json:"events,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) requireDispatcher(w http.ResponseWriter) bool {
	if h.webhooks == nil {
		WriteError(w, http.StatusServiceUnavailable, model.CodeInternal, "webhooks are not configured")
		return false
	}
	return true
}

// RegisterWebhook handles POST /api/v1/webhooks
func (h *Handler) RegisterWebhook(w http.ResponseWriter, r *http.Request) {
	if !h.requireDispatcher(w) {
		return
	}

	var req RegisterWebhookRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		WriteBadRequest(w, "webhook name is required")
		return
	}

	secret := req.Secret
	if secret == "" {
		secret = h.webhookSecret
	}
	if secret == "" {
		WriteBadRequest(w, "webhook secret is required")
		return
	}

	wh, err := h.webhooks.Register(r.Context(), req.Name, req.URL, secret, req.Events)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	WriteCreated(w, WebhookResponse{
		ID:        wh.ID,
		Name:      wh.Name,
		URL:       wh.URL,
		Events:    wh.Events,
		IsActive:  wh.IsActive == 1,
		CreatedAt: wh.CreatedAt,
	})
}

// ListWebhooks handles GET /api/v1/webhooks
func (h *Handler) ListWebhooks(w http.ResponseWriter, r *http.Request) {
	if !h.requireDispatcher(w) {
		return
	}

	hooks, err := h.webhooks.List(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	out := make([]WebhookResponse, 0, len(hooks))
	for _, wh := range hooks {
		out = append(out, WebhookResponse{
			ID:        wh.ID,
			Name:      wh.Name,
			URL:       wh.URL,
			Events:    wh.Events,
			IsActive:  wh.IsActive == 1,
			CreatedAt: wh.CreatedAt,
		})
	}

	WriteSuccess(w, out, nil)
}

// DeleteWebhook handles DELETE /api/v1/webhooks/{id}
func (h *Handler) DeleteWebhook(w http.ResponseWriter, r *http.Request) {
	if !h.requireDispatcher(w) {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteBadRequest(w, "invalid webhook id")
		return
	}

	if err := h.webhooks.Unregister(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}

	WriteSuccess(w, map[string]int64{"id": id}, nil)
}
