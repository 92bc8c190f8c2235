// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// Document 的处理状态。只有 completed 状态的文档才拥有完整的分块集合。
const (
	DocumentStatusProcessing = 0
	DocumentStatusCompleted  = 1
	DocumentStatusFailed     = 2
)

// Document 定义了 documents 表的 ORM 模型。
// ChunkCount 必须与实际写入的 Chunk 记录数一致，否则整次导入视为失败。
type Document struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	FileName   string    `gorm:"type:varchar(255);not null" json:"fileName"`
	ChunkCount int       `gorm:"not null;default:0" json:"chunkCount"`
	Status     int       `gorm:"type:tinyint;not null;default:0" json:"status"` // 0: processing, 1: completed, 2: failed
	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploadedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Document) TableName() string {
	return "documents"
}

// Chunk 对应于数据库中的 chunks 表。
// ChunkIndex 在同一文档内从 0 开始、连续且唯一。
// FileName 为冗余字段，避免展示来源时回查 documents 表。
type Chunk struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	DocumentID  uint      `gorm:"not null;index" json:"documentId"`
	FileName    string    `gorm:"type:varchar(255);not null" json:"fileName"`
	ChunkIndex  int       `gorm:"not null" json:"chunkIndex"`
	TextContent string    `gorm:"type:text" json:"textContent"`
	Embedding   Vector    `gorm:"type:json" json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Chunk) TableName() string {
	return "chunks"
}
