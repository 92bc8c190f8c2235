// Package errs 定义了核心流程使用的错误分类。
// 调用方通过 errors.As 区分错误类型，决定返回的状态码与重试策略。
package errs

import "fmt"

// ConfigurationError 表示缺失或无效的配置（例如未配置 API Key）。
// 不可重试，需要修正配置后重启。
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// ProviderError 表示上游服务商拒绝了请求，携带上游的状态码、错误码与消息。
type ProviderError struct {
	Status  int
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider error (status=%d, code=%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("provider error (status=%d): %s", e.Status, e.Message)
}

// ProtocolError 表示上游返回了格式不符合预期的响应体，通常意味着 API 契约发生了变化。
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return e.Message
}

// NetworkError 表示请求已发出但没有收到任何响应，调用方可以在退避后重试。
type NetworkError struct {
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// DimensionMismatchError 表示语料库中的向量维度与查询向量不一致。
// 通常由更换 Embedding 模型后未重新索引导致，必须显式上报而不是静默比较。
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: want %d, got %d", e.Want, e.Got)
}

// NotFoundError 表示请求的资源不存在（例如查询时语料库为空）。
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// ValidationError 表示调用方提供的输入不合法（例如空问题、非正的分块大小）。
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
