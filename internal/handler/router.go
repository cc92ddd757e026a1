package handler

import (
	"github.com/gin-gonic/gin"

	"finance-rag/internal/middleware"
)

// RegisterRoutes wires the API onto the engine.
func RegisterRoutes(r *gin.Engine, api *API, allowedOrigins []string) {
	r.Use(middleware.CORS(allowedOrigins))

	r.GET("/", api.Root)

	group := r.Group("/api")
	group.POST("/upload", api.Upload)
	group.POST("/chat", api.Chat)
	group.GET("/documents", api.Documents)
	group.GET("/chunks", api.Chunks)
}
