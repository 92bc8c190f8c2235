// Package pipeline 定义了文档导入的核心流程。
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"knowledge-qa-go/internal/chunker"
	"knowledge-qa-go/internal/config"
	"knowledge-qa-go/internal/model"
	"knowledge-qa-go/internal/repository"
	"knowledge-qa-go/pkg/embedding"
	"knowledge-qa-go/pkg/log"
	"knowledge-qa-go/pkg/storage"
	"knowledge-qa-go/pkg/tasks"
	"knowledge-qa-go/pkg/tika"
)

// Processor 封装了文档导入的所有依赖和逻辑。
type Processor struct {
	tikaClient      *tika.Client
	embeddingClient embedding.Client
	minioCfg        config.MinIOConfig
	ragCfg          config.RAGConfig
	docRepo         repository.DocumentRepository
	chunkRepo       repository.ChunkRepository
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(
	tikaClient *tika.Client,
	embeddingClient embedding.Client,
	minioCfg config.MinIOConfig,
	ragCfg config.RAGConfig,
	docRepo repository.DocumentRepository,
	chunkRepo repository.ChunkRepository,
) *Processor {
	return &Processor{
		tikaClient:      tikaClient,
		embeddingClient: embeddingClient,
		minioCfg:        minioCfg,
		ragCfg:          ragCfg,
		docRepo:         docRepo,
		chunkRepo:       chunkRepo,
	}
}

// Process 是文档导入任务的入口：读取原始文件、提取文本、再执行导入。
func (p *Processor) Process(ctx context.Context, task tasks.DocumentIngestTask) error {
	log.Infof("[Processor] 开始处理文档, DocumentID: %d, FileName: %s", task.DocumentID, task.FileName)

	// 1. 从 MinIO 读取原始文件
	object, err := storage.GetObject(ctx, p.minioCfg.BucketName, task.ObjectName)
	if err != nil {
		log.Errorf("[Processor] 从 MinIO 读取文件失败, Object: %s, Error: %v", task.ObjectName, err)
		p.failDocument(task.DocumentID)
		return fmt.Errorf("从 MinIO 读取文件失败: %w", err)
	}
	defer object.Close()

	buf := new(bytes.Buffer)
	size, err := buf.ReadFrom(object)
	if err != nil {
		log.Errorf("[Processor] 读取 MinIO 对象流失败, Error: %v", err)
		p.failDocument(task.DocumentID)
		return fmt.Errorf("读取 MinIO 对象流失败: %w", err)
	}
	if size == 0 {
		log.Warnf("[Processor] 文件 '%s' 内容为空, 处理中止", task.FileName)
		p.failDocument(task.DocumentID)
		return errors.New("文件内容为空")
	}

	// 2. 提取文本：纯文本格式直接读取，其它格式交给 Tika
	textContent, err := p.extractText(buf, task.FileName)
	if err != nil {
		log.Errorf("[Processor] 提取文本失败, FileName: %s, Error: %v", task.FileName, err)
		p.failDocument(task.DocumentID)
		return fmt.Errorf("提取文本失败: %w", err)
	}
	log.Infof("[Processor] 文本提取成功, 内容长度: %d 字符", utf8.RuneCountInString(textContent))

	// 3. 执行分块、向量化与持久化
	if err := p.Ingest(ctx, task.DocumentID, task.FileName, textContent); err != nil {
		return err
	}

	log.Infof("[Processor] 文档处理成功完成, DocumentID: %d", task.DocumentID)
	return nil
}

// Ingest 将一篇文档的文本切块、批量向量化并持久化。
// 从调用方视角整个导入是原子的：任何一步失败都会清除已写入的分块并把文档标记为失败，
// 只有当持久化的分块数与文档的 chunk_count 一致时，文档才会进入 completed 状态。
func (p *Processor) Ingest(ctx context.Context, documentID uint, fileName, text string) error {
	// 1. 文本切块
	chunkTexts, err := chunker.Split(text, p.ragCfg.ChunkSize, p.ragCfg.ChunkOverlap)
	if err != nil {
		p.failDocument(documentID)
		return fmt.Errorf("文本分块失败: %w", err)
	}
	if len(chunkTexts) == 0 {
		log.Warnf("[Processor] 未生成任何文本分块, 处理中止, FileName: %s", fileName)
		p.failDocument(documentID)
		return errors.New("未生成任何文本分块")
	}
	log.Infof("[Processor] 文本分块完成, 共生成 %d 个分块", len(chunkTexts))

	// 为避免重试导致的重复写入，导入前先清理该文档既有的分块记录（幂等）
	if err := p.chunkRepo.DeleteByDocumentID(documentID); err != nil {
		log.Warnf("[Processor] 清理 chunks 旧记录失败 (document_id=%d): %v", documentID, err)
	}

	// 2. 批量向量化。批内并发、批间串行；任何一个分块失败整次导入中止，不提交任何分块。
	vectors, err := p.embeddingClient.CreateEmbeddings(ctx, chunkTexts)
	if err != nil {
		log.Errorf("[Processor] 批量向量化失败, DocumentID: %d, Error: %v", documentID, err)
		p.failDocument(documentID)
		return fmt.Errorf("批量向量化失败: %w", err)
	}

	// 3. 持久化分块
	records := make([]*model.Chunk, 0, len(chunkTexts))
	for i, chunkText := range chunkTexts {
		records = append(records, &model.Chunk{
			DocumentID:  documentID,
			FileName:    fileName,
			ChunkIndex:  i,
			TextContent: chunkText,
			Embedding:   vectors[i],
		})
	}
	if err := p.chunkRepo.BatchCreate(records); err != nil {
		log.Errorf("[Processor] 批量保存分块失败, DocumentID: %d, Error: %v", documentID, err)
		p.failDocument(documentID)
		return fmt.Errorf("批量保存分块失败: %w", err)
	}

	// 4. 一致性校验：实际写入数必须与分块数一致，文档才能标记为完成
	count, err := p.chunkRepo.CountByDocumentID(documentID)
	if err != nil || count != int64(len(chunkTexts)) {
		log.Errorf("[Processor] 分块数校验失败, DocumentID: %d, want: %d, got: %d, err: %v",
			documentID, len(chunkTexts), count, err)
		p.failDocument(documentID)
		return errors.New("持久化的分块数与预期不一致")
	}

	if err := p.docRepo.UpdateStatus(documentID, model.DocumentStatusCompleted, len(chunkTexts)); err != nil {
		log.Errorf("[Processor] 更新文档状态失败, DocumentID: %d, Error: %v", documentID, err)
		p.failDocument(documentID)
		return fmt.Errorf("更新文档状态失败: %w", err)
	}
	return nil
}

// failDocument 清除部分写入的分块并把文档标记为失败，保证失败的导入不会留下可被检索的残留。
func (p *Processor) failDocument(documentID uint) {
	if err := p.chunkRepo.DeleteByDocumentID(documentID); err != nil {
		log.Errorf("[Processor] 清理失败文档的分块出错, DocumentID: %d, Error: %v", documentID, err)
	}
	if err := p.docRepo.UpdateStatus(documentID, model.DocumentStatusFailed, 0); err != nil {
		log.Errorf("[Processor] 标记文档失败状态出错, DocumentID: %d, Error: %v", documentID, err)
	}
}

// extractText 提取文件的纯文本内容。
func (p *Processor) extractText(buf *bytes.Buffer, fileName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == ".txt" || ext == ".md" {
		return buf.String(), nil
	}
	return p.tikaClient.ExtractText(bytes.NewReader(buf.Bytes()), fileName)
}
