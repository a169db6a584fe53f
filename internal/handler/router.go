package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stefjnl/localai-knowledge/web"
)

type RouterDeps struct {
	Knowledge *KnowledgeHandler
}

func RegisterRoutes(root *gin.RouterGroup, deps RouterDeps) {
	api := root.Group("api/v1")
	api.POST("/search", deps.Knowledge.Search)
	api.POST("/ask", deps.Knowledge.Ask)
	api.POST("/ingest", deps.Knowledge.Ingest)
	api.GET("/status", deps.Knowledge.Status)
	api.DELETE("/documents/:file", deps.Knowledge.Forget)

	root.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexPage)
	})
}
