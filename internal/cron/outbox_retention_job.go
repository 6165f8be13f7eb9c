package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/freightdesk-backend/pkg/logger"
)

const defaultOutboxRetentionDays = 30

type outboxPruner interface {
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewOutboxRetentionJob prunes outbox events that were published more than
// retentionDays ago. Unpublished rows are never touched.
func NewOutboxRetentionJob(logg *logger.Logger, repo outboxPruner, retentionDays int) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if repo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	if retentionDays <= 0 {
		retentionDays = defaultOutboxRetentionDays
	}
	return &outboxRetentionJob{logg: logg, repo: repo, retentionDays: retentionDays, now: time.Now}, nil
}

type outboxRetentionJob struct {
	logg          *logger.Logger
	repo          outboxPruner
	retentionDays int
	now           func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().AddDate(0, 0, -j.retentionDays)
	deleted, err := j.repo.DeletePublishedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("outbox retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "outbox retention cleanup complete")
	return nil
}
