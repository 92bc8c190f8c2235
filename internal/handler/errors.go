// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"knowledge-qa-go/pkg/errs"
	"knowledge-qa-go/pkg/log"
)

// respondError 将业务错误映射为 HTTP 状态码与稳定的用户可见消息。
// 原始诊断信息只进日志，绝不静默吞掉，也绝不返回半成品的成功响应。
func respondError(c *gin.Context, err error) {
	log.Errorf("[Handler] 请求处理失败: %s %s, error: %v", c.Request.Method, c.Request.URL.Path, err)

	var validationErr *errs.ValidationError
	var notFoundErr *errs.NotFoundError
	var providerErr *errs.ProviderError
	var protocolErr *errs.ProtocolError
	var networkErr *errs.NetworkError
	var configErr *errs.ConfigurationError
	var dimensionErr *errs.DimensionMismatchError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Message})
	case errors.As(err, &providerErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": providerErr.Error()})
	case errors.As(err, &protocolErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream provider returned an unexpected response"})
	case errors.As(err, &networkErr):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to reach upstream provider, please retry later"})
	case errors.As(err, &dimensionErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "corpus embeddings are inconsistent, re-index documents"})
	case errors.As(err, &configErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "service is not configured correctly"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
