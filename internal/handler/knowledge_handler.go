package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/stefjnl/localai-knowledge/internal/ai"
	"github.com/stefjnl/localai-knowledge/internal/pkg/errcode"
	"github.com/stefjnl/localai-knowledge/internal/pkg/response"
	"github.com/stefjnl/localai-knowledge/internal/service"
)

type KnowledgeHandler struct {
	ingest *service.IngestService
	search *service.SearchService
	chat   *service.ChatService
}

func NewKnowledgeHandler(ingest *service.IngestService, search *service.SearchService, chat *service.ChatService) *KnowledgeHandler {
	return &KnowledgeHandler{ingest: ingest, search: search, chat: chat}
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type askRequest struct {
	Question string `json:"question"`
}

func (h *KnowledgeHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	results, err := h.search.Search(c.Request.Context(), req.Query, req.Limit)
	if err != nil {
		if errors.Is(err, ai.ErrUnavailable) {
			response.Error(c, errcode.ErrAIUnavailable, "ai not configured")
			return
		}
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"results": results})
}

func (h *KnowledgeHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	answer, err := h.chat.Ask(c.Request.Context(), req.Question)
	if err != nil {
		if errors.Is(err, ai.ErrUnavailable) {
			response.Error(c, errcode.ErrAIUnavailable, "ai not configured")
			return
		}
		handleError(c, err)
		return
	}
	response.Success(c, answer)
}

// Ingest triggers a batch run synchronously. A second trigger while a run is
// in flight is rejected rather than queued.
func (h *KnowledgeHandler) Ingest(c *gin.Context) {
	report, err := h.ingest.ProcessAll(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrIngestInProgress) {
			response.Error(c, errcode.ErrIngestRunning, "ingestion already running")
			return
		}
		handleError(c, err)
		return
	}
	response.Success(c, report)
}

func (h *KnowledgeHandler) Status(c *gin.Context) {
	summary, err := h.ingest.Status(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"summary":        summary,
		"ingest_running": h.ingest.Running(),
	})
}

func (h *KnowledgeHandler) Forget(c *gin.Context) {
	fileName := c.Param("file")
	if fileName == "" {
		response.Error(c, errcode.ErrInvalid, "file name is required")
		return
	}
	if err := h.ingest.Forget(c.Request.Context(), fileName); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"forgotten": fileName})
}
