package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/devbrain-io/devbrain/internal/pkg/errcode"
	"github.com/devbrain-io/devbrain/internal/pkg/response"
	"github.com/devbrain-io/devbrain/internal/service"
)

type SyncHandler struct {
	sync *service.SyncService
}

func NewSyncHandler(sync *service.SyncService) *SyncHandler {
	return &SyncHandler{sync: sync}
}

// Trigger runs a full incremental sync inline and reports the counters.
// Scheduled runs use the same code path, so a manual trigger that overlaps
// one simply re-skips the files the other already settled.
func (h *SyncHandler) Trigger(c *gin.Context) {
	stats, err := h.sync.SyncAll(c.Request.Context())
	if err != nil {
		logutil.GetLogger(c.Request.Context()).Error("sync aborted", zap.Error(err))
		response.Error(c, errcode.ErrSyncFailed, "sync aborted")
		return
	}
	response.Success(c, stats)
}
