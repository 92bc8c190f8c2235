package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledge-qa-go/internal/model"
	"knowledge-qa-go/pkg/errs"
)

type fakeEmbeddingClient struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbeddingClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	return f.vector, f.err
}

func (f *fakeEmbeddingClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("not used in query path")
}

type fakeChunkRepo struct {
	chunks []model.Chunk
	err    error
}

func (f *fakeChunkRepo) BatchCreate(chunks []*model.Chunk) error { return nil }
func (f *fakeChunkRepo) EnumerateAll() ([]model.Chunk, error)    { return f.chunks, f.err }
func (f *fakeChunkRepo) CountByDocumentID(documentID uint) (int64, error) {
	return int64(len(f.chunks)), nil
}
func (f *fakeChunkRepo) DeleteByDocumentID(documentID uint) error { return nil }

type fakeSynthesizer struct {
	answer      string
	err         error
	called      bool
	gotContext  []string
	gotQuestion string
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, contextChunks []string, question string) (string, error) {
	f.called = true
	f.gotContext = contextChunks
	f.gotQuestion = question
	return f.answer, f.err
}

type fakeHistoryRepo struct {
	entries   []model.QueryHistoryEntry
	appendErr error
}

func (f *fakeHistoryRepo) Append(ctx context.Context, entry model.QueryHistoryEntry) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.entries = append([]model.QueryHistoryEntry{entry}, f.entries...)
	return nil
}

func (f *fakeHistoryRepo) Recent(ctx context.Context, limit int64) ([]model.QueryHistoryEntry, error) {
	if limit > 0 && limit < int64(len(f.entries)) {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

func TestQuery_EmptyQuestion(t *testing.T) {
	embedder := &fakeEmbeddingClient{}
	svc := NewQueryService(embedder, &fakeChunkRepo{}, &fakeSynthesizer{}, &fakeHistoryRepo{}, 3)

	result, err := svc.Query(context.Background(), "", 3)
	require.Error(t, err)
	var valErr *errs.ValidationError
	assert.ErrorAs(t, err, &valErr)
	assert.Nil(t, result)
	assert.Zero(t, embedder.calls)
}

func TestQuery_EmptyCorpusSkipsSynthesis(t *testing.T) {
	synth := &fakeSynthesizer{answer: "should never appear"}
	svc := NewQueryService(
		&fakeEmbeddingClient{vector: []float32{1, 0}},
		&fakeChunkRepo{},
		synth,
		&fakeHistoryRepo{},
		3,
	)

	result, err := svc.Query(context.Background(), "anything", 3)
	require.Error(t, err)
	var nfErr *errs.NotFoundError
	assert.ErrorAs(t, err, &nfErr)
	assert.Nil(t, result)
	assert.False(t, synth.called, "语料库为空时绝不能调用大模型")
}

func TestQuery_HappyPath(t *testing.T) {
	chunks := []model.Chunk{
		{ID: 1, DocumentID: 10, FileName: "a.txt", TextContent: "low", Embedding: model.Vector{0, 1}},
		{ID: 2, DocumentID: 10, FileName: "a.txt", TextContent: "high", Embedding: model.Vector{1, 0}},
		{ID: 3, DocumentID: 11, FileName: "b.txt", TextContent: "mid", Embedding: model.Vector{0.8, 0.6}},
	}
	synth := &fakeSynthesizer{answer: "the grounded answer"}
	history := &fakeHistoryRepo{}
	svc := NewQueryService(
		&fakeEmbeddingClient{vector: []float32{1, 0}},
		&fakeChunkRepo{chunks: chunks},
		synth,
		history,
		3,
	)

	result, err := svc.Query(context.Background(), "what is high?", 2)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "the grounded answer", result.Answer)

	require.Len(t, result.Sources, 2)
	assert.Equal(t, "high", result.Sources[0].TextContent)
	assert.Equal(t, "mid", result.Sources[1].TextContent)
	assert.Greater(t, result.Sources[0].Score, result.Sources[1].Score)
	assert.Equal(t, uint(10), result.Sources[0].DocumentID)

	// 合成器拿到的上下文必须与来源顺序一致
	assert.Equal(t, []string{"high", "mid"}, synth.gotContext)
	assert.Equal(t, "what is high?", synth.gotQuestion)

	// 问答历史已写入
	require.Len(t, history.entries, 1)
	assert.Equal(t, "what is high?", history.entries[0].Question)
	assert.Equal(t, "the grounded answer", history.entries[0].Answer)
	assert.False(t, history.entries[0].AskedAt.IsZero())
}

func TestQuery_TopKFallsBackToDefault(t *testing.T) {
	chunks := make([]model.Chunk, 5)
	for i := range chunks {
		chunks[i] = model.Chunk{ID: uint(i + 1), TextContent: "c", Embedding: model.Vector{1, 0}}
	}
	svc := NewQueryService(
		&fakeEmbeddingClient{vector: []float32{1, 0}},
		&fakeChunkRepo{chunks: chunks},
		&fakeSynthesizer{answer: "ok"},
		&fakeHistoryRepo{},
		3,
	)

	result, err := svc.Query(context.Background(), "q", 0)
	require.NoError(t, err)
	assert.Len(t, result.Sources, 3)
}

func TestQuery_SynthesisErrorPropagated(t *testing.T) {
	netErr := &errs.NetworkError{Message: "no response received from chat provider"}
	history := &fakeHistoryRepo{}
	svc := NewQueryService(
		&fakeEmbeddingClient{vector: []float32{1, 0}},
		&fakeChunkRepo{chunks: []model.Chunk{{ID: 1, TextContent: "c", Embedding: model.Vector{1, 0}}}},
		&fakeSynthesizer{err: netErr},
		history,
		3,
	)

	result, err := svc.Query(context.Background(), "q", 1)
	require.Error(t, err)
	var gotNetErr *errs.NetworkError
	assert.ErrorAs(t, err, &gotNetErr)
	assert.Nil(t, result)
	assert.Empty(t, history.entries, "失败的问答不应写入历史")
}

func TestQuery_EmbeddingErrorPropagated(t *testing.T) {
	provErr := &errs.ProviderError{Status: 429, Message: "rate limit exceeded"}
	synth := &fakeSynthesizer{}
	svc := NewQueryService(
		&fakeEmbeddingClient{err: provErr},
		&fakeChunkRepo{chunks: []model.Chunk{{ID: 1, Embedding: model.Vector{1, 0}}}},
		synth,
		&fakeHistoryRepo{},
		3,
	)

	result, err := svc.Query(context.Background(), "q", 1)
	require.Error(t, err)
	var gotProvErr *errs.ProviderError
	assert.ErrorAs(t, err, &gotProvErr)
	assert.Nil(t, result)
	assert.False(t, synth.called)
}

func TestQuery_DimensionMismatchSurfaced(t *testing.T) {
	synth := &fakeSynthesizer{}
	svc := NewQueryService(
		&fakeEmbeddingClient{vector: []float32{1, 0}},
		&fakeChunkRepo{chunks: []model.Chunk{{ID: 1, Embedding: model.Vector{1, 0, 0}}}},
		synth,
		&fakeHistoryRepo{},
		3,
	)

	result, err := svc.Query(context.Background(), "q", 1)
	require.Error(t, err)
	var dimErr *errs.DimensionMismatchError
	assert.ErrorAs(t, err, &dimErr)
	assert.Nil(t, result)
	assert.False(t, synth.called)
}

func TestQuery_HistoryFailureIsBestEffort(t *testing.T) {
	svc := NewQueryService(
		&fakeEmbeddingClient{vector: []float32{1, 0}},
		&fakeChunkRepo{chunks: []model.Chunk{{ID: 1, TextContent: "c", Embedding: model.Vector{1, 0}}}},
		&fakeSynthesizer{answer: "ok"},
		&fakeHistoryRepo{appendErr: errors.New("redis down")},
		3,
	)

	result, err := svc.Query(context.Background(), "q", 1)
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Answer)
}

func TestHistory_DelegatesToRepository(t *testing.T) {
	history := &fakeHistoryRepo{entries: []model.QueryHistoryEntry{
		{Question: "q1", Answer: "a1"},
		{Question: "q2", Answer: "a2"},
	}}
	svc := NewQueryService(&fakeEmbeddingClient{}, &fakeChunkRepo{}, &fakeSynthesizer{}, history, 3)

	entries, err := svc.History(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "q1", entries[0].Question)
}
