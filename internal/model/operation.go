// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Operation action types
const (
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionPublish = "publish"
	ActionRestore = "restore"
	ActionCopy    = "copy"
)

// ValidAction reports whether action is a known operation action type.
func ValidAction(action string) bool {
	switch action {
	case ActionCreate, ActionUpdate, ActionDelete, ActionPublish, ActionRestore, ActionCopy:
		return true
	}
	return false
}

// OperationEntry is one immutable row of the append-only audit trail.
// Entries are written in the same transaction as the change they record
// and are never mutated or deleted by the engine.
type OperationEntry struct {
	ID         int64       `json:"id"`
	PageID     string      `json:"page_id,omitempty"`
	Action     string      `json:"action"`
	Before     *PageConfig `json:"before,omitempty"`
	After      *PageConfig `json:"after,omitempty"`
	Actor      string      `json:"actor"`
	Origin     string      `json:"origin,omitempty"`
	ClientIP   string      `json:"client_ip,omitempty"`
	ClientInfo string      `json:"client_info,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// RequestMeta carries request-scoped metadata captured into operation
// log entries. The caller fills it from the transport layer.
type RequestMeta struct {
	Origin    string `json:"origin,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// Event levels for the system event log.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryPage      = "page"
	EventCategoryPublish   = "publish"
	EventCategoryScheduler = "scheduler"
	EventCategorySystem    = "system"
	EventCategoryWebhook   = "webhook"
)
