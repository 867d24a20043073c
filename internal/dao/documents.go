package dao

import (
	"context"

	"github.com/gogf/gf/v2/frame/g"

	gormModel "github.com/qq642160575-ship-it/rag/internal/model/gorm"
)

// CountDocumentsBySHA256 统计指定SHA256的文档数量，用于去重检查
func CountDocumentsBySHA256(ctx context.Context, sha256 string) (int64, error) {
	var count int64
	err := GetDB().WithContext(ctx).
		Model(&gormModel.RagDocuments{}).
		Where("sha256 = ?", sha256).
		Count(&count).Error
	if err != nil {
		g.Log().Errorf(ctx, "failed to count documents by sha256: %v", err)
		return 0, err
	}
	return count, nil
}

// SaveDocument 保存文档记录
func SaveDocument(ctx context.Context, doc *gormModel.RagDocuments) error {
	if err := GetDB().WithContext(ctx).Create(doc).Error; err != nil {
		g.Log().Errorf(ctx, "failed to save document: %v", err)
		return err
	}
	return nil
}

// UpdateDocumentStatus 更新文档状态与最终片段数量
func UpdateDocumentStatus(ctx context.Context, id string, status int8, chunkCount int) error {
	err := GetDB().WithContext(ctx).
		Model(&gormModel.RagDocuments{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"chunk_count": chunkCount,
		}).Error
	if err != nil {
		g.Log().Errorf(ctx, "failed to update document status: %v", err)
	}
	return err
}

// ListDocuments 分页查询文档记录
func ListDocuments(ctx context.Context, page, size int) ([]gormModel.RagDocuments, int64, error) {
	var (
		docs  []gormModel.RagDocuments
		total int64
	)

	db := GetDB().WithContext(ctx).Model(&gormModel.RagDocuments{})
	if err := db.Count(&total).Error; err != nil {
		g.Log().Errorf(ctx, "failed to count documents: %v", err)
		return nil, 0, err
	}

	err := db.Order("create_time DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&docs).Error
	if err != nil {
		g.Log().Errorf(ctx, "failed to list documents: %v", err)
		return nil, 0, err
	}
	return docs, total, nil
}
