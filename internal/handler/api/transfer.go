// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pageforge/pageforge/internal/model"
	"github.com/pageforge/pageforge/internal/transfer"
)

// maxImportBody bounds an uploaded archive.
const maxImportBody = 32 << 20

// SetTransfer wires the content export/import endpoints. Without it
// those endpoints answer 503.
func (h *Handler) SetTransfer(exporter *transfer.Exporter, importer *transfer.Importer) {
	h.exporter = exporter
	h.importer = importer
}

// ExportContent handles GET /api/v1/export. It streams a zip archive
// of pages and templates. Query parameters: status narrows pages,
// publications=true includes publication history, format=json returns
// the bare archive document instead of a zip.
func (h *Handler) ExportContent(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		WriteError(w, http.StatusServiceUnavailable, model.CodeInternal, "content transfer is not configured")
		return
	}

	opts := transfer.DefaultExportOptions()
	opts.PageStatus = r.URL.Query().Get("status")
	opts.IncludePublications = r.URL.Query().Get("publications") == "true"

	if r.URL.Query().Get("format") == "json" {
		w.Header().Set("Content-Type", "application/json")
		if err := h.exporter.ExportToWriter(r.Context(), opts, w); err != nil {
			h.logger.Error("content export failed", "error", err)
		}
		return
	}

	filename := fmt.Sprintf("pageforge-export-%s.zip", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := h.exporter.WriteZip(r.Context(), opts, w); err != nil {
		h.logger.Error("content export failed", "error", err)
	}
}

// ImportContent handles POST /api/v1/import. The body is either a zip
// archive or a bare JSON archive document, selected by Content-Type.
// Query parameters: dry_run=true validates and counts without writing,
// strategy=replace overwrites conflicting entities (default skip).
func (h *Handler) ImportContent(w http.ResponseWriter, r *http.Request) {
	if h.importer == nil {
		WriteError(w, http.StatusServiceUnavailable, model.CodeInternal, "content transfer is not configured")
		return
	}

	opts := transfer.DefaultImportOptions()
	opts.DryRun = r.URL.Query().Get("dry_run") == "true"
	opts.Actor = actorFrom(r)
	switch strategy := r.URL.Query().Get("strategy"); strategy {
	case "", string(transfer.ConflictSkip):
	case string(transfer.ConflictReplace):
		opts.ConflictStrategy = transfer.ConflictReplace
	default:
		WriteBadRequest(w, "unknown conflict strategy: "+strategy)
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxImportBody)
	defer func() { _ = body.Close() }()

	var result *transfer.ImportResult
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/zip") {
		var data []byte
		data, err = io.ReadAll(body)
		if err != nil {
			WriteBadRequest(w, "reading upload: "+err.Error())
			return
		}
		result, err = h.importer.ImportFromZipBytes(r.Context(), data, opts)
	} else {
		result, err = h.importer.ImportFromReader(r.Context(), body, opts)
	}

	if err != nil {
		// A validation failure still carries the per-entity errors.
		if result != nil && model.CodeOf(err) == model.CodeValidation {
			WriteJSON(w, http.StatusBadRequest, Response{
				Code:    model.CodeValidation,
				Message: err.Error(),
				Data:    result,
				Meta:    &Meta{Timestamp: time.Now().UTC()},
			})
			return
		}
		h.writeDomainError(w, err)
		return
	}

	WriteSuccess(w, result, nil)
}
