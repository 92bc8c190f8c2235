package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"knowledge-qa-go/internal/config"
	"knowledge-qa-go/internal/model"
	"knowledge-qa-go/internal/repository"
	"knowledge-qa-go/pkg/errs"
	"knowledge-qa-go/pkg/kafka"
	"knowledge-qa-go/pkg/log"
	"knowledge-qa-go/pkg/storage"
	"knowledge-qa-go/pkg/tasks"
)

// 支持导入的文件类型。
var allowedExtensions = map[string]struct{}{
	".txt":  {},
	".md":   {},
	".pdf":  {},
	".doc":  {},
	".docx": {},
	".html": {},
}

// DocumentService 接口定义了文档管理相关的业务操作。
type DocumentService interface {
	Upload(ctx context.Context, fileName string, size int64, reader io.Reader, contentType string) (*model.Document, error)
	List() ([]model.Document, error)
	Delete(ctx context.Context, id uint) error
}

type documentService struct {
	docRepo   repository.DocumentRepository
	chunkRepo repository.ChunkRepository
	minioCfg  config.MinIOConfig
}

// NewDocumentService 创建一个新的 DocumentService 实例。
func NewDocumentService(docRepo repository.DocumentRepository, chunkRepo repository.ChunkRepository, minioCfg config.MinIOConfig) DocumentService {
	return &documentService{
		docRepo:   docRepo,
		chunkRepo: chunkRepo,
		minioCfg:  minioCfg,
	}
}

// Upload 接收一个上传文件：写入对象存储、创建 processing 状态的文档记录并投递导入任务。
// 真正的分块与向量化由后台消费者异步完成，完成前文档不会出现在可检索的语料中。
func (s *documentService) Upload(ctx context.Context, fileName string, size int64, reader io.Reader, contentType string) (*model.Document, error) {
	if size == 0 {
		return nil, &errs.ValidationError{Message: "file is empty"}
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if _, ok := allowedExtensions[ext]; !ok {
		return nil, &errs.ValidationError{Message: fmt.Sprintf("unsupported file type: %s", ext)}
	}

	doc := &model.Document{
		FileName: fileName,
		Status:   model.DocumentStatusProcessing,
	}
	if err := s.docRepo.Create(doc); err != nil {
		return nil, fmt.Errorf("创建文档记录失败: %w", err)
	}

	objectName := fmt.Sprintf("uploads/%d/%s", doc.ID, fileName)
	if err := storage.PutObject(ctx, s.minioCfg.BucketName, objectName, reader, size, contentType); err != nil {
		// 对象写入失败则回滚文档记录，避免留下永远 processing 的孤儿
		_ = s.docRepo.Delete(doc.ID)
		return nil, fmt.Errorf("写入对象存储失败: %w", err)
	}

	task := tasks.DocumentIngestTask{
		DocumentID: doc.ID,
		ObjectName: objectName,
		FileName:   fileName,
	}
	if err := kafka.ProduceIngestTask(task); err != nil {
		_ = storage.RemoveObject(ctx, s.minioCfg.BucketName, objectName)
		_ = s.docRepo.Delete(doc.ID)
		return nil, fmt.Errorf("投递导入任务失败: %w", err)
	}

	log.Infof("[DocumentService] 文档上传成功并已投递导入任务, DocumentID: %d, FileName: %s", doc.ID, fileName)
	return doc, nil
}

// List 返回全部文档，最新上传的在前。
func (s *documentService) List() ([]model.Document, error) {
	return s.docRepo.FindAll()
}

// Delete 删除文档及其全部分块，避免孤儿向量继续参与后续查询的排序。
func (s *documentService) Delete(ctx context.Context, id uint) error {
	doc, err := s.docRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &errs.NotFoundError{Message: "document not found"}
		}
		return err
	}

	if err := s.chunkRepo.DeleteByDocumentID(id); err != nil {
		return fmt.Errorf("删除文档分块失败: %w", err)
	}
	if err := s.docRepo.Delete(id); err != nil {
		return fmt.Errorf("删除文档记录失败: %w", err)
	}

	// 对象存储中的原始文件尽力删除，失败不影响删除结果
	objectName := fmt.Sprintf("uploads/%d/%s", doc.ID, doc.FileName)
	if err := storage.RemoveObject(ctx, s.minioCfg.BucketName, objectName); err != nil {
		log.Warnf("[DocumentService] 删除 MinIO 对象失败, Object: %s, Error: %v", objectName, err)
	}

	log.Infof("[DocumentService] 文档删除成功, DocumentID: %d, FileName: %s", id, doc.FileName)
	return nil
}
