// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pageforge/pageforge/internal/model"
	"github.com/pageforge/pageforge/internal/service"
	"github.com/pageforge/pageforge/internal/store"
)

// eventRetention controls how long system event log rows are kept.
const eventRetention = 90 * 24 * time.Hour

// Scheduler runs background jobs: publishing pages whose scheduled time
// has arrived, disabling expired promotions, and pruning the event log.
type Scheduler struct {
	db           *sql.DB
	pages        *service.PageService
	publications *service.PublicationService
	cron         *cron.Cron
	logger       *slog.Logger
}

// New creates a new scheduler instance.
func New(db *sql.DB, pages *service.PageService, publications *service.PublicationService, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		db:           db,
		pages:        pages,
		publications: publications,
		cron:         cron.New(),
		logger:       logger,
	}
}

// Start registers the cron jobs and begins running them.
func (s *Scheduler) Start() error {
	// Check for due pages every minute
	_, err := s.cron.AddFunc("* * * * *", func() {
		if err := s.processScheduledPages(); err != nil {
			s.logger.Error("failed to process scheduled pages", "error", err)
		}
	})
	if err != nil {
		return err
	}

	// Turn off promotions whose time window has ended
	_, err = s.cron.AddFunc("* * * * *", func() {
		if err := s.disableExpiredPromotions(); err != nil {
			s.logger.Error("failed to disable expired promotions", "error", err)
		}
	})
	if err != nil {
		return err
	}

	// Prune old event log rows nightly
	_, err = s.cron.AddFunc("0 3 * * *", func() {
		if err := s.pruneEvents(); err != nil {
			s.logger.Error("failed to prune event log", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// processScheduledPages publishes every draft whose scheduled time has
// passed. Each page goes through the regular publication path, so
// validation, versioning, and the operation log all apply.
func (s *Scheduler) processScheduledPages() error {
	ctx := context.Background()
	queries := store.New(s.db)

	now := time.Now().UTC()
	pages, err := queries.ListScheduledPages(ctx, now)
	if err != nil {
		return err
	}

	if len(pages) == 0 {
		return nil
	}

	s.logger.Info("processing scheduled pages", "count", len(pages))

	for _, page := range pages {
		rec, err := s.publications.Publish(ctx, page.ID, "scheduler", model.RequestMeta{Origin: "scheduler"})
		if err != nil {
			s.logger.Error("failed to publish scheduled page",
				"page_id", page.ID,
				"page_name", page.Name,
				"error", err,
			)
			continue
		}

		s.logger.Info("published scheduled page",
			"page_id", page.ID,
			"page_name", page.Name,
			"version", rec.Version,
			"scheduled_at", page.ScheduledAt.Time,
		)
	}

	return nil
}

// disableExpiredPromotions flips off promotions whose end time passed.
func (s *Scheduler) disableExpiredPromotions() error {
	ctx := context.Background()

	changed, err := s.pages.DisableExpiredPromotions(ctx, "scheduler")
	if err != nil {
		return err
	}
	if len(changed) > 0 {
		s.logger.Info("disabled expired promotions", "pages", len(changed))
	}
	return nil
}

// pruneEvents deletes event log rows older than the retention window.
func (s *Scheduler) pruneEvents() error {
	ctx := context.Background()
	queries := store.New(s.db)

	cutoff := time.Now().UTC().Add(-eventRetention)
	if err := queries.DeleteOldEvents(ctx, cutoff); err != nil {
		return err
	}

	s.logger.Info("pruned event log", "cutoff", cutoff.Format(time.RFC3339))
	return nil
}
