package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledge-qa-go/internal/config"
	"knowledge-qa-go/pkg/errs"
)

func newTestClient(baseURL string) Client {
	return NewClient(config.EmbeddingConfig{
		APIKey:         "test-key",
		BaseURL:        baseURL,
		Model:          "test-embedding-model",
		BatchSize:      3,
		TimeoutSeconds: 5,
	})
}

func TestCreateEmbedding_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-embedding-model", req.Model)
		require.Len(t, req.Input, 1)

		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float32{0.1, 0.2, 0.3}},
			},
		})
	}))
	defer srv.Close()

	vector, err := newTestClient(srv.URL).CreateEmbedding(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
}

func TestCreateEmbedding_MissingAPIKey(t *testing.T) {
	client := NewClient(config.EmbeddingConfig{BaseURL: "http://127.0.0.1:1"})
	_, err := client.CreateEmbedding(context.Background(), "hello")
	require.Error(t, err)
	var cfgErr *errs.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestCreateEmbedding_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limit exceeded", "code": 429},
		})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateEmbedding(context.Background(), "hello")
	require.Error(t, err)
	var provErr *errs.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusTooManyRequests, provErr.Status)
	assert.Equal(t, "429", provErr.Code)
	assert.Contains(t, provErr.Message, "rate limit exceeded")
}

func TestCreateEmbedding_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": [`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateEmbedding(context.Background(), "hello")
	require.Error(t, err)
	var protoErr *errs.ProtocolError
	assert.ErrorAs(t, err, &protoErr)
}

func TestCreateEmbedding_EmptyVectorData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": []}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateEmbedding(context.Background(), "hello")
	require.Error(t, err)
	var protoErr *errs.ProtocolError
	assert.ErrorAs(t, err, &protoErr)
}

func TestCreateEmbedding_NetworkError(t *testing.T) {
	// 无人监听的端口，连接被拒绝
	client := newTestClient("http://127.0.0.1:1")
	_, err := client.CreateEmbedding(context.Background(), "hello")
	require.Error(t, err)
	var netErr *errs.NetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestCreateEmbeddings_OrderPreservedUnderConcurrency(t *testing.T) {
	// 为每个文本返回只含其序号的向量，并让序号小的请求完成得更晚，
	// 验证输出顺序只取决于输入顺序而非完成顺序。
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Input, 1)

		var idx int
		fmt.Sscanf(req.Input[0], "text-%d", &idx)
		time.Sleep(time.Duration(7-idx) * 5 * time.Millisecond)

		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float32{float32(idx)}},
			},
		})
	}))
	defer srv.Close()

	texts := make([]string, 7)
	for i := range texts {
		texts[i] = fmt.Sprintf("text-%d", i)
	}

	vectors, err := newTestClient(srv.URL).CreateEmbeddings(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, 7)
	for i, v := range vectors {
		assert.Equal(t, []float32{float32(i)}, v, "vector slot %d", i)
	}
}

func TestCreateEmbeddings_FailFastOnBatchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Input[0] == "text-1" {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "boom"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float32{1}}},
		})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateEmbeddings(context.Background(), []string{"text-0", "text-1", "text-2"})
	require.Error(t, err)
	var provErr *errs.ProviderError
	assert.ErrorAs(t, err, &provErr)
	assert.Contains(t, err.Error(), "embed chunk 1")
}

func TestCreateEmbeddings_EmptyInput(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1")
	vectors, err := client.CreateEmbeddings(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}
