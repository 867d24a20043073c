package gorm

import (
	"time"
)

// RagDocuments 已摄入文档的GORM模型
type RagDocuments struct {
	ID            string     `gorm:"primaryKey;column:id;type:varchar(64)"`
	FileName      string     `gorm:"column:file_name;type:varchar(255)"`
	SHA256        string     `gorm:"column:sha256;type:varchar(64);index"`
	Location      string     `gorm:"column:location;type:varchar(512)"` // 文件存储定位标识
	ChunkSize     int        `gorm:"column:chunk_size;not null;default:512"`
	ChunkOverlap  int        `gorm:"column:chunk_overlap;not null;default:50"`
	ChunkStrategy string     `gorm:"column:chunk_strategy;type:varchar(32);not null;default:fixed"`
	ChunkCount    int        `gorm:"column:chunk_count;not null;default:0"`
	Status        int8       `gorm:"column:status;type:smallint;not null;default:0"`
	CreateTime    *time.Time `gorm:"column:create_time;type:timestamp;autoCreateTime"`
	UpdateTime    *time.Time `gorm:"column:update_time;type:timestamp;autoUpdateTime"`
}

// TableName 设置表名
func (RagDocuments) TableName() string {
	return "rag_documents"
}
