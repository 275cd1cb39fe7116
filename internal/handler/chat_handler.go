package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/devbrain-io/devbrain/internal/pkg/errcode"
	"github.com/devbrain-io/devbrain/internal/pkg/response"
	"github.com/devbrain-io/devbrain/internal/service"
)

type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatRequest struct {
	Query  string `json:"query"`
	Stream bool   `json:"stream"`
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		response.Error(c, errcode.ErrInvalid, "query required")
		return
	}
	if !req.Stream {
		answer, sources, err := h.chat.ChatSync(c.Request.Context(), req.Query)
		if err != nil {
			handleError(c, err)
			return
		}
		response.Success(c, gin.H{"answer": answer, "sources": sources})
		return
	}
	h.stream(c, req.Query)
}

// stream writes the answer as server-sent events: delta events carry answer
// fragments, a final sources event carries the retrieved chunks. Once the
// header is flushed errors can only be reported as an error event.
func (h *ChatHandler) stream(c *gin.Context, query string) {
	ctx := c.Request.Context()
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Error(c, errcode.ErrInternal, "streaming unsupported")
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	sources, err := h.chat.Chat(ctx, query, func(delta string) error {
		return writeEvent(c, flusher, "delta", gin.H{"text": delta})
	})
	if err != nil {
		logutil.GetLogger(ctx).Error("chat stream failed", zap.Error(err))
		_ = writeEvent(c, flusher, "error", gin.H{"message": "generation failed"})
		return
	}
	_ = writeEvent(c, flusher, "sources", gin.H{"items": sources})
	_ = writeEvent(c, flusher, "done", gin.H{})
}

func writeEvent(c *gin.Context, flusher http.Flusher, event string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
