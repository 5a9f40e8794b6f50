package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/importgroups-backend/pkg/logger"
)

const RetentionJobName = "archive-retention"

// RetentionJob deletes archived groups older than the retention window.
type RetentionJob struct {
	repo      Repository
	logg      *logger.Logger
	retention time.Duration
	now       func() time.Time
}

type RetentionJobParams struct {
	Repo      Repository
	Logger    *logger.Logger
	Retention time.Duration
	Now       func() time.Time
}

func NewRetentionJob(params RetentionJobParams) (*RetentionJob, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("archive repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Retention <= 0 {
		return nil, fmt.Errorf("retention must be positive")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &RetentionJob{
		repo:      params.Repo,
		logg:      params.Logger,
		retention: params.Retention,
		now:       now,
	}, nil
}

func (j *RetentionJob) Name() string {
	return RetentionJobName
}

func (j *RetentionJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.repo.Prune(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune archived groups: %w", err)
	}

	ctx = j.logg.WithFields(ctx, map[string]any{
		"job":     RetentionJobName,
		"cutoff":  cutoff,
		"deleted": deleted,
	})
	j.logg.Info(ctx, "archive retention completed")
	return nil
}
