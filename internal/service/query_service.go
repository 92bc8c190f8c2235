// Package service 提供了问答相关的业务逻辑。
package service

import (
	"context"
	"time"

	"knowledge-qa-go/internal/model"
	"knowledge-qa-go/internal/ranking"
	"knowledge-qa-go/internal/repository"
	"knowledge-qa-go/pkg/embedding"
	"knowledge-qa-go/pkg/errs"
	"knowledge-qa-go/pkg/log"
)

// QueryService 接口定义了知识库问答操作。
type QueryService interface {
	Query(ctx context.Context, question string, topK int) (*model.QueryResultDTO, error)
	History(ctx context.Context, limit int64) ([]model.QueryHistoryEntry, error)
}

type queryService struct {
	embeddingClient embedding.Client
	chunkRepo       repository.ChunkRepository
	synthesizer     AnswerSynthesizer
	historyRepo     repository.QueryHistoryRepository
	defaultTopK     int
}

// NewQueryService 创建一个新的 QueryService 实例。
func NewQueryService(
	embeddingClient embedding.Client,
	chunkRepo repository.ChunkRepository,
	synthesizer AnswerSynthesizer,
	historyRepo repository.QueryHistoryRepository,
	defaultTopK int,
) QueryService {
	if defaultTopK <= 0 {
		defaultTopK = 3
	}
	return &queryService{
		embeddingClient: embeddingClient,
		chunkRepo:       chunkRepo,
		synthesizer:     synthesizer,
		historyRepo:     historyRepo,
		defaultTopK:     defaultTopK,
	}
}

// Query 协调一次完整的检索增强问答：
// 向量化问题 -> 全量扫描语料库 -> 余弦排序取前 topK -> 拼接上下文 -> 生成回答。
// 语料库为空时直接返回 NotFoundError，绝不调用大模型。
func (s *queryService) Query(ctx context.Context, question string, topK int) (*model.QueryResultDTO, error) {
	if question == "" {
		return nil, &errs.ValidationError{Message: "question must not be empty"}
	}
	log.Infof("[QueryService] 开始处理问答请求, question: '%s', topK: %d", question, topK)

	// 1. 向量化问题
	queryVector, err := s.embeddingClient.CreateEmbedding(ctx, question)
	if err != nil {
		log.Errorf("[QueryService] 向量化问题失败: %v", err)
		return nil, err
	}
	log.Infof("[QueryService] 步骤1: 向量化问题成功, 向量维度: %d", len(queryVector))

	// 2. 全量读取语料库（只取排序与展示需要的字段）
	chunks, err := s.chunkRepo.EnumerateAll()
	if err != nil {
		log.Errorf("[QueryService] 读取语料库失败: %v", err)
		return nil, err
	}
	if len(chunks) == 0 {
		log.Warnf("[QueryService] 语料库为空, 拒绝调用大模型")
		return nil, &errs.NotFoundError{Message: "no documents to query against"}
	}
	log.Infof("[QueryService] 步骤2: 读取语料库成功, 共 %d 个分块", len(chunks))

	// 3. 排序取前 topK。topK 小于 1 回退默认值，超过语料库大小由 Rank 截断。
	if topK < 1 {
		topK = s.defaultTopK
	}
	scored, err := ranking.Rank(queryVector, chunks, topK)
	if err != nil {
		// 维度不一致属于语料库一致性错误，作为查询失败上报而不是静默忽略
		log.Errorf("[QueryService] 分块排序失败: %v", err)
		return nil, err
	}
	log.Infof("[QueryService] 步骤3: 排序完成, 取前 %d 个分块作为上下文", len(scored))

	// 4. 拼接上下文并生成回答
	contextChunks := make([]string, 0, len(scored))
	for _, sc := range scored {
		contextChunks = append(contextChunks, sc.Chunk.TextContent)
	}
	answer, err := s.synthesizer.Synthesize(ctx, contextChunks, question)
	if err != nil {
		log.Errorf("[QueryService] 生成回答失败: %v", err)
		return nil, err
	}
	log.Infof("[QueryService] 步骤4: 生成回答成功, 长度: %d", len(answer))

	// 5. 记录问答历史（尽力而为，失败只记日志）
	if err := s.historyRepo.Append(ctx, model.QueryHistoryEntry{
		Question: question,
		Answer:   answer,
		AskedAt:  time.Now(),
	}); err != nil {
		log.Errorf("[QueryService] 保存问答历史失败: %v", err)
	}

	// 6. 组装最终结果
	sources := make([]model.SourceDTO, 0, len(scored))
	for _, sc := range scored {
		sources = append(sources, model.SourceDTO{
			DocumentID:  sc.Chunk.DocumentID,
			FileName:    sc.Chunk.FileName,
			TextContent: sc.Chunk.TextContent,
			Score:       sc.Score,
		})
	}
	return &model.QueryResultDTO{Answer: answer, Sources: sources}, nil
}

// History 返回最近的问答历史。
func (s *queryService) History(ctx context.Context, limit int64) ([]model.QueryHistoryEntry, error) {
	return s.historyRepo.Recent(ctx, limit)
}
