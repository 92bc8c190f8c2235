// Package llm provides a client for interacting with Large Language Models.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"knowledge-qa-go/internal/config"
	"knowledge-qa-go/pkg/errs"
	"knowledge-qa-go/pkg/log"
)

// Client defines the interface for an LLM client.
type Client interface {
	// ChatCompletion 以 role-based 消息与可选生成参数调用聊天接口，返回完整回答。
	ChatCompletion(ctx context.Context, messages []Message, gen *GenerationParams) (string, error)
}

type openAICompatibleClient struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewClient creates a new LLM client based on the config.
func NewClient(cfg config.LLMConfig) Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if cfg.TimeoutSeconds <= 0 {
		timeout = 30 * time.Second
	}
	return &openAICompatibleClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Message 表示一条角色消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// chatErrorBody 是 OpenAI 兼容接口的标准错误响应体。
type chatErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// GenerationParams 控制生成行为
type GenerationParams struct {
	Temperature *float64
	MaxTokens   *int
}

// ChatCompletion 调用 OpenAI 兼容的聊天补全接口并返回完整回答文本。
// 错误分类：缺失凭证 -> ConfigurationError；无响应 -> NetworkError；
// 非 200 -> ProviderError（上游模型不可用时改写为可操作的提示）；
// 响应体缺少预期字段 -> ProtocolError。本客户端不做任何自动重试。
func (c *openAICompatibleClient) ChatCompletion(ctx context.Context, messages []Message, gen *GenerationParams) (string, error) {
	if c.cfg.APIKey == "" {
		log.Errorf("[LLMClient] 未配置 LLM API Key, 无法调用聊天接口")
		return "", &errs.ConfigurationError{Message: "llm api key is not configured"}
	}

	reqBody := chatRequest{
		Model:    c.cfg.Model,
		Messages: messages,
	}
	// 从配置或传参注入生成参数（传参优先生效）
	if gen != nil {
		reqBody.Temperature = gen.Temperature
		reqBody.MaxTokens = gen.MaxTokens
	} else {
		if c.cfg.Generation.Temperature != 0 {
			t := c.cfg.Generation.Temperature
			reqBody.Temperature = &t
		}
		if c.cfg.Generation.MaxTokens != 0 {
			m := c.cfg.Generation.MaxTokens
			reqBody.MaxTokens = &m
		}
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/chat/completions", bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Errorf("[LLMClient] 调用聊天接口失败, 未收到响应: %v", err)
		return "", &errs.NetworkError{Message: "no response received from chat provider, check connectivity and retry", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.classifyChatError(resp)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		log.Errorf("[LLMClient] 解析聊天接口响应失败: %v", err)
		return "", &errs.ProtocolError{Message: "failed to decode chat completion response body"}
	}

	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		log.Errorf("[LLMClient] 聊天接口响应缺少预期字段")
		return "", &errs.ProtocolError{Message: "chat completion response is missing expected fields"}
	}

	return chatResp.Choices[0].Message.Content, nil
}

// classifyChatError 将非 200 响应解析为 ProviderError。
// 上游消息表明底层模型/服务商不可用时，改写为指导用户稍后重试或更换模型的提示，
// 而不是直接透传上游原文。原始诊断信息只记录日志。
func (c *openAICompatibleClient) classifyChatError(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)
	log.Errorf("[LLMClient] 聊天接口返回非 200 状态码: %s, body: %s", resp.Status, string(bodyBytes))

	var body chatErrorBody
	if err := json.Unmarshal(bodyBytes, &body); err != nil || body.Error.Message == "" {
		return &errs.ProviderError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("chat api returned non-200 status: %s", resp.Status),
		}
	}

	code := ""
	if body.Error.Code != nil {
		code = fmt.Sprintf("%v", body.Error.Code)
	}

	if strings.Contains(body.Error.Message, "Provider returned error") {
		return &errs.ProviderError{
			Status: resp.StatusCode,
			Code:   code,
			Message: fmt.Sprintf("the underlying provider for model '%s' is currently unavailable or returned an error, try again later or switch models",
				c.cfg.Model),
		}
	}

	return &errs.ProviderError{
		Status:  resp.StatusCode,
		Code:    code,
		Message: body.Error.Message,
	}
}
