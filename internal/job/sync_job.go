package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/devbrain-io/devbrain/internal/service"
)

// SyncJob runs the incremental sync over every configured source.
type SyncJob struct {
	sync *service.SyncService
}

func NewSyncJob(sync *service.SyncService) *SyncJob {
	return &SyncJob{sync: sync}
}

func (j *SyncJob) Name() string {
	return "source_sync"
}

func (j *SyncJob) Run(ctx context.Context) error {
	stats, err := j.sync.SyncAll(ctx)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("scheduled sync finished",
		zap.Int("added", stats.Added),
		zap.Int("updated", stats.Updated),
		zap.Int("skipped", stats.Skipped),
		zap.Int("errored", stats.Errored))
	return nil
}
