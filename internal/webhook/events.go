// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package webhook provides webhook event dispatching and delivery.
package webhook

import (
	"time"

	"github.com/pageforge/pageforge/internal/model"
)

// Event represents a webhook event to be dispatched.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// NewEvent creates a new webhook event.
func NewEvent(eventType string, data any) *Event {
	return &Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// PageEventData contains data for page-related events.
type PageEventData struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	PageType string `json:"page_type"`
	Status   string `json:"status"`
	Version  int64  `json:"version"`
}

// PublicationEventData contains data for publish events.
type PublicationEventData struct {
	PublicationID string    `json:"publication_id"`
	PageID        string    `json:"page_id"`
	Version       int64     `json:"version"`
	PublishedBy   string    `json:"published_by,omitempty"`
	PublishedAt   time.Time `json:"published_at"`
}

// TestEventData contains data for test webhook events.
type TestEventData struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// pageEventData projects a page config into its event payload.
func pageEventData(cfg *model.PageConfig) PageEventData {
	return PageEventData{
		ID:       cfg.ID,
		Name:     cfg.Name,
		Slug:     cfg.Slug,
		PageType: cfg.PageType,
		Status:   cfg.Status,
		Version:  cfg.Version,
	}
}

// publicationEventData projects a publication record into its event payload.
func publicationEventData(rec *model.PublicationRecord) PublicationEventData {
	return PublicationEventData{
		PublicationID: rec.ID,
		PageID:        rec.PageID,
		Version:       rec.Version,
		PublishedBy:   rec.PublishedBy,
		PublishedAt:   rec.PublishedAt,
	}
}
