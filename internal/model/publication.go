// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Publication statuses
const (
	PublicationStatusActive   = "active"
	PublicationStatusInactive = "inactive"
	PublicationStatusReplaced = "replaced"
)

// PublicationRecord is an immutable snapshot of a page configuration
// taken at publish time. At most one record per page is active.
type PublicationRecord struct {
	ID          string      `json:"id"`
	PageID      string      `json:"page_id"`
	Version     int64       `json:"version"`
	Snapshot    *PageConfig `json:"snapshot,omitempty"`
	Status      string      `json:"status"`
	PublishedBy string      `json:"published_by"`
	PublishedAt time.Time   `json:"published_at"`
}

// IsActive returns true if this record is the live version of its page.
func (r *PublicationRecord) IsActive() bool {
	return r.Status == PublicationStatusActive
}
