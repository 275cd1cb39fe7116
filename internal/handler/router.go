package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/devbrain-io/devbrain/internal/pkg/response"
)

type RouterDeps struct {
	Search    *SearchHandler
	Chat      *ChatHandler
	Sync      *SyncHandler
	Documents *DocumentHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/healthz", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})

	api.POST("/search", deps.Search.Search)
	api.POST("/chat", deps.Chat.Chat)
	api.POST("/sync", deps.Sync.Trigger)

	api.GET("/documents", deps.Documents.List)
	api.DELETE("/documents/:id", deps.Documents.Delete)
}
