package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/devbrain-io/devbrain/internal/pkg/errcode"
	"github.com/devbrain-io/devbrain/internal/pkg/response"
	"github.com/devbrain-io/devbrain/internal/repo"
)

const defaultDocumentListLimit = 100

type DocumentHandler struct {
	documents *repo.DocumentRepo
}

func NewDocumentHandler(documents *repo.DocumentRepo) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

func (h *DocumentHandler) List(c *gin.Context) {
	limit := uint(defaultDocumentListLimit)
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || parsed == 0 {
			response.Error(c, errcode.ErrInvalid, "invalid limit")
			return
		}
		limit = uint(parsed)
	}
	docs, err := h.documents.List(c.Request.Context(), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": docs})
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, errcode.ErrInvalid, "invalid document id")
		return
	}
	if err := h.documents.Delete(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{})
}
