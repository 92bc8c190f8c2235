package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"knowledge-qa-go/internal/service"
	"knowledge-qa-go/pkg/log"
)

// QueryHandler 结构体定义了问答相关的处理器。
type QueryHandler struct {
	queryService service.QueryService
}

// NewQueryHandler 创建一个新的 QueryHandler 实例。
func NewQueryHandler(queryService service.QueryService) *QueryHandler {
	return &QueryHandler{
		queryService: queryService,
	}
}

// queryRequest 是问答接口的请求体。
type queryRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

// Query 是处理知识库问答请求的 Gin 处理函数。
func (h *QueryHandler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	log.Infof("[QueryHandler] 收到问答请求, question: '%s', topK: %d", req.Question, req.TopK)

	result, err := h.queryService.Query(c.Request.Context(), req.Question, req.TopK)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Infof("[QueryHandler] 问答成功, 返回 %d 条引用来源", len(result.Sources))
	c.JSON(http.StatusOK, result)
}

// History 返回最近的问答历史。
func (h *QueryHandler) History(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "20")
	limit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil || limit <= 0 {
		limit = 20
	}

	entries, err := h.queryService.History(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}
