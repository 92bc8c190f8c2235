// Package embedding provides a client for interacting with embedding models.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"knowledge-qa-go/internal/config"
	"knowledge-qa-go/pkg/errs"
	"knowledge-qa-go/pkg/log"
)

// 单个批次内的并发 Embedding 请求数的默认值。
const defaultBatchSize = 10

// Client defines the interface for an embedding client.
type Client interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
	// CreateEmbeddings 按固定批次大小并发向量化一组文本，输出顺序与输入一致。
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

type openAICompatibleClient struct {
	cfg    config.EmbeddingConfig
	client *http.Client
}

// NewClient creates a new embedding client based on the config.
func NewClient(cfg config.EmbeddingConfig) Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if cfg.TimeoutSeconds <= 0 {
		timeout = 30 * time.Second
	}
	return &openAICompatibleClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// providerErrorBody 是 OpenAI 兼容接口的标准错误响应体。
type providerErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// CreateEmbedding calls the OpenAI-compatible API to get the vector for a given text.
func (c *openAICompatibleClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if c.cfg.APIKey == "" {
		return nil, &errs.ConfigurationError{Message: "embedding api key is not configured"}
	}

	reqBody := embeddingRequest{
		Model:      c.cfg.Model,
		Input:      []string{text},
		Dimensions: c.cfg.Dimensions,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/embeddings", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Errorf("[EmbeddingClient] 调用 Embedding API 失败, error: %v", err)
		return nil, &errs.NetworkError{Message: "no response received from embedding provider", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyProviderError(resp)
	}

	var embeddingResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingResp); err != nil {
		log.Errorf("[EmbeddingClient] 解析 Embedding API 响应失败, error: %v", err)
		return nil, &errs.ProtocolError{Message: "failed to decode embedding response body"}
	}

	if len(embeddingResp.Data) == 0 || len(embeddingResp.Data[0].Embedding) == 0 {
		log.Warnf("[EmbeddingClient] Embedding API 返回了空的向量数据")
		return nil, &errs.ProtocolError{Message: "embedding response contains no vector data"}
	}

	return embeddingResp.Data[0].Embedding, nil
}

// CreateEmbeddings 将文本分为固定大小的批次，批内并发请求、批间严格串行。
// 结果槽位按索引预分配，无论各请求的完成顺序如何，输出顺序都与输入一致。
// 批内任何一个请求失败，整个操作立即失败返回。
func (c *openAICompatibleClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	batchSize := c.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	vectors := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				vector, err := c.CreateEmbedding(gctx, texts[i])
				if err != nil {
					return fmt.Errorf("embed chunk %d: %w", i, err)
				}
				vectors[i] = vector
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		log.Infof("[EmbeddingClient] 批次向量化完成, 进度: %d/%d", end, len(texts))
	}
	return vectors, nil
}

// classifyProviderError 将非 200 响应解析为带上游状态/错误码/消息的 ProviderError。
func classifyProviderError(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)

	var body providerErrorBody
	if err := json.Unmarshal(bodyBytes, &body); err == nil && body.Error.Message != "" {
		code := ""
		if body.Error.Code != nil {
			code = fmt.Sprintf("%v", body.Error.Code)
		}
		return &errs.ProviderError{
			Status:  resp.StatusCode,
			Code:    code,
			Message: body.Error.Message,
		}
	}
	return &errs.ProviderError{
		Status:  resp.StatusCode,
		Message: fmt.Sprintf("embedding api returned non-200 status: %s", resp.Status),
	}
}
