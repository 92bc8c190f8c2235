package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"knowledge-qa-go/internal/config"
	"knowledge-qa-go/pkg/database"
)

var startedAt = time.Now()

// HealthHandler 负责服务健康状态的上报。
type HealthHandler struct{}

// NewHealthHandler 创建一个新的 HealthHandler 实例。
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Health 检查各依赖的连通性并上报整体状态。
// 任一依赖不可用时整体状态降级为 degraded，但接口本身仍返回 200。
func (h *HealthHandler) Health(c *gin.Context) {
	health := gin.H{
		"status":          "healthy",
		"database":        "connected",
		"redis":           "connected",
		"llm_model":       config.Conf.LLM.Model,
		"embedding_model": config.Conf.Embedding.Model,
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
		"uptime_seconds":  int64(time.Since(startedAt).Seconds()),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if sqlDB, err := database.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		health["database"] = "disconnected"
		health["status"] = "degraded"
	}
	if err := database.RDB.Ping(ctx).Err(); err != nil {
		health["redis"] = "disconnected"
		health["status"] = "degraded"
	}
	if config.Conf.LLM.APIKey == "" || config.Conf.Embedding.APIKey == "" {
		health["status"] = "degraded"
	}

	c.JSON(http.StatusOK, health)
}
