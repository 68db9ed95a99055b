// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mileusna/useragent"

	"github.com/pageforge/pageforge/internal/model"
	"github.com/pageforge/pageforge/internal/store"
)

// OperationService writes and reads the append-only audit trail. Every
// configuration-changing action records one entry; writes happen in
// the same transaction as the change itself.
type OperationService struct {
	queries *store.Queries
}

// NewOperationService creates an OperationService.
func NewOperationService(db *sql.DB) *OperationService {
	return &OperationService{queries: store.New(db)}
}

// record appends an operation entry using the given (possibly
// transaction-bound) queries.
func record(ctx context.Context, q *store.Queries, action, pageID string, before, after *model.PageConfig, actor string, meta model.RequestMeta) error {
	params := store.CreateOperationParams{
		Action:     action,
		Actor:      actor,
		Origin:     meta.Origin,
		ClientIP:   meta.ClientIP,
		ClientInfo: clientInfo(meta.UserAgent),
		CreatedAt:  time.Now().UTC(),
	}
	if pageID != "" {
		params.PageID = sql.NullString{String: pageID, Valid: true}
	}
	if before != nil {
		raw, err := encodeConfig(before)
		if err != nil {
			return err
		}
		params.BeforeConfig = sql.NullString{String: raw, Valid: true}
	}
	if after != nil {
		raw, err := encodeConfig(after)
		if err != nil {
			return err
		}
		params.AfterConfig = sql.NullString{String: raw, Valid: true}
	}

	if _, err := q.CreateOperation(ctx, params); err != nil {
		return model.NewPersistenceError("appending operation log", err)
	}
	return nil
}

// clientInfo condenses a raw User-Agent header into a short
// browser/os summary for audit display.
func clientInfo(rawUA string) string {
	if rawUA == "" {
		return ""
	}
	ua := useragent.Parse(rawUA)
	if ua.Name == "" {
		return rawUA
	}
	info := ua.Name
	if ua.Version != "" {
		info += "/" + ua.Version
	}
	if ua.OS != "" {
		info = fmt.Sprintf("%s (%s)", info, ua.OS)
	}
	return info
}

// History returns audit entries, optionally narrowed to a page and
// action type, newest first.
func (s *OperationService) History(ctx context.Context, pageID, action string, limit, offset int64) ([]model.OperationEntry, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.queries.ListOperations(ctx, store.ListOperationsParams{
		PageID: pageID,
		Action: action,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, 0, model.NewPersistenceError("listing operations", err)
	}
	total, err := s.queries.CountOperations(ctx, pageID, action)
	if err != nil {
		return nil, 0, model.NewPersistenceError("counting operations", err)
	}

	out := make([]model.OperationEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := operationFromRow(row)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, entry)
	}
	return out, total, nil
}

func operationFromRow(row store.Operation) (model.OperationEntry, error) {
	entry := model.OperationEntry{
		ID:         row.ID,
		Action:     row.Action,
		Actor:      row.Actor,
		Origin:     row.Origin,
		ClientIP:   row.ClientIP,
		ClientInfo: row.ClientInfo,
		CreatedAt:  row.CreatedAt,
	}
	if row.PageID.Valid {
		entry.PageID = row.PageID.String
	}
	if row.BeforeConfig.Valid {
		cfg, err := decodeConfig(row.BeforeConfig.String)
		if err != nil {
			return model.OperationEntry{}, err
		}
		entry.Before = cfg
	}
	if row.AfterConfig.Valid {
		cfg, err := decodeConfig(row.AfterConfig.String)
		if err != nil {
			return model.OperationEntry{}, err
		}
		entry.After = cfg
	}
	return entry, nil
}
