// Package repository 提供了数据访问层的实现。
package repository

import (
	"gorm.io/gorm"

	"knowledge-qa-go/internal/model"
)

// DocumentRepository 定义了对 documents 表的数据操作接口。
type DocumentRepository interface {
	Create(doc *model.Document) error
	FindAll() ([]model.Document, error)
	FindByID(id uint) (*model.Document, error)
	UpdateStatus(id uint, status int, chunkCount int) error
	Delete(id uint) error
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建一个新的 DocumentRepository 实例。
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Create 创建一条文档记录。
func (r *documentRepository) Create(doc *model.Document) error {
	return r.db.Create(doc).Error
}

// FindAll 返回全部文档记录，最新上传的在前。
func (r *documentRepository) FindAll() ([]model.Document, error) {
	var docs []model.Document
	err := r.db.Order("uploaded_at DESC").Find(&docs).Error
	return docs, err
}

// FindByID 根据 ID 查找文档记录。
func (r *documentRepository) FindByID(id uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.First(&doc, id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// UpdateStatus 更新文档的处理状态与最终分块数。
func (r *documentRepository) UpdateStatus(id uint, status int, chunkCount int) error {
	return r.db.Model(&model.Document{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "chunk_count": chunkCount}).Error
}

// Delete 删除文档记录。级联删除分块由调用方负责（见 ChunkRepository.DeleteByDocumentID）。
func (r *documentRepository) Delete(id uint) error {
	return r.db.Delete(&model.Document{}, id).Error
}
