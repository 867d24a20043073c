package vector_store

import (
	"context"

	"github.com/qq642160575-ship-it/rag/core/errors"
)

// New 根据配置创建向量存储实例。
// 存储实例由调用方显式持有并注入使用方，不维护进程级注册表。
func New(ctx context.Context, config *Config) (VectorStore, error) {
	if config == nil {
		return nil, errors.New(errors.ErrInvalidParameter, "config cannot be nil")
	}

	switch config.Type {
	case StoreTypeFlat:
		return NewFlatStore(config.Dimension), nil
	case StoreTypeMilvus:
		return NewMilvusStore(ctx, config)
	default:
		return nil, errors.Newf(errors.ErrUnsupportedStore, "unsupported vector store type: %s", config.Type)
	}
}
