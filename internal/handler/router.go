package handler

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"chatdoc/internal/middleware"
)

type RouterDeps struct {
	Documents      *DocumentHandler
	Chat           *ChatHandler
	Data           *DataHandler
	MaxUploadBytes int64
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/formats", deps.Documents.Formats)
	api.GET("/chunking", deps.Documents.Chunking)
	api.POST("/documents", limitBody(deps.MaxUploadBytes), deps.Documents.Upload)
	api.GET("/documents", deps.Documents.List)
	api.DELETE("/documents", deps.Documents.Delete)

	api.POST("/chat", deps.Chat.Ask)
	api.GET("/messages", deps.Chat.Messages)
	api.GET("/models", deps.Chat.Models)
	api.PUT("/models/selected", deps.Chat.SelectModel)

	api.GET("/dataframes", deps.Data.DataFrames)
	api.GET("/dataframes/:source", deps.Data.DataFrame)
	api.GET("/geojson", deps.Data.GeoJSON)
}

// NewEngine builds the gin engine serving the API under /api/v1.
func NewEngine(deps RouterDeps) *gin.Engine {
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.AccessLog(),
		gzip.Gzip(gzip.DefaultCompression),
	)
	if deps.MaxUploadBytes > 0 {
		engine.MaxMultipartMemory = deps.MaxUploadBytes
	}
	RegisterRoutes(engine.Group("/api/v1"), deps)
	return engine
}
