package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/freightdesk-backend/pkg/db/models"
	"github.com/angelmondragon/freightdesk-backend/pkg/logger"
)

const (
	defaultOrphanRetention = 24 * time.Hour
	defaultOrphanBatchSize = 200
)

type orphanLister interface {
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Media, error)
}

type orphanDiscarder interface {
	Discard(ctx context.Context, row models.Media) error
}

type orphanMetrics interface {
	AddOrphansCleaned(n int)
}

type OrphanCleanupJobParams struct {
	Logger    *logger.Logger
	Media     orphanLister
	Discarder orphanDiscarder
	Metrics   orphanMetrics
	Retention time.Duration
	BatchSize int
}

// NewOrphanCleanupJob removes uploads that were stored but never attached to
// a payment or quotation, typically left behind by a failed proof update.
func NewOrphanCleanupJob(params OrphanCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Media == nil {
		return nil, fmt.Errorf("media repository required")
	}
	if params.Discarder == nil {
		return nil, fmt.Errorf("media discarder required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultOrphanRetention
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultOrphanBatchSize
	}
	return &orphanCleanupJob{
		logg:      params.Logger,
		media:     params.Media,
		discarder: params.Discarder,
		metrics:   params.Metrics,
		retention: retention,
		batch:     batch,
		now:       time.Now,
	}, nil
}

type orphanCleanupJob struct {
	logg      *logger.Logger
	media     orphanLister
	discarder orphanDiscarder
	metrics   orphanMetrics
	retention time.Duration
	batch     int
	now       func() time.Time
}

func (j *orphanCleanupJob) Name() string { return "orphaned-proof-cleanup" }

// Run discards one batch of stale pending uploads. A failure on one object
// does not stop the others; all failures are returned together.
func (j *orphanCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	rows, err := j.media.ListPendingBefore(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("query pending media: %w", err)
	}

	var (
		errs    error
		cleaned int
	)
	for _, row := range rows {
		if err := j.discarder.Discard(ctx, row); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		cleaned++
	}
	if j.metrics != nil && cleaned > 0 {
		j.metrics.AddOrphansCleaned(cleaned)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":     cutoff,
		"candidates": len(rows),
		"cleaned":    cleaned,
		"failed":     len(multierr.Errors(errs)),
	})
	j.logg.Info(logCtx, "orphaned upload cleanup complete")
	if errs != nil {
		return fmt.Errorf("orphaned upload cleanup: %w", errs)
	}
	return nil
}
