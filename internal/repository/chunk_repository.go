package repository

import (
	"gorm.io/gorm"

	"knowledge-qa-go/internal/model"
)

// ChunkRepository 定义了对 chunks 表的数据操作接口。
// 核心流程只依赖批量写入与全量枚举两种能力；
// EnumerateAll 是日后替换为向量索引检索的唯一扩展点。
type ChunkRepository interface {
	BatchCreate(chunks []*model.Chunk) error
	EnumerateAll() ([]model.Chunk, error)
	CountByDocumentID(documentID uint) (int64, error)
	DeleteByDocumentID(documentID uint) error
}

type chunkRepository struct {
	db *gorm.DB
}

// NewChunkRepository 创建一个新的 ChunkRepository 实例。
func NewChunkRepository(db *gorm.DB) ChunkRepository {
	return &chunkRepository{db: db}
}

// BatchCreate 批量创建分块记录。
func (r *chunkRepository) BatchCreate(chunks []*model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return r.db.CreateInBatches(chunks, 100).Error // 每100条记录一批
}

// EnumerateAll 按写入顺序返回全部分块，只取排序与展示需要的字段。
func (r *chunkRepository) EnumerateAll() ([]model.Chunk, error) {
	var chunks []model.Chunk
	err := r.db.
		Select("id", "document_id", "file_name", "chunk_index", "text_content", "embedding").
		Order("id").
		Find(&chunks).Error
	return chunks, err
}

// CountByDocumentID 统计某文档实际持久化的分块数。
func (r *chunkRepository) CountByDocumentID(documentID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Chunk{}).Where("document_id = ?", documentID).Count(&count).Error
	return count, err
}

// DeleteByDocumentID 删除某文档的全部分块，避免孤儿向量继续参与排序。
func (r *chunkRepository) DeleteByDocumentID(documentID uint) error {
	return r.db.Where("document_id = ?", documentID).Delete(&model.Chunk{}).Error
}
