package file_store

import (
	"context"
	"io"

	"github.com/qq642160575-ship-it/rag/core/errors"
)

// Storage 原始文件存储接口。
// Save 返回后端内部的定位标识，Open/Delete 以该标识寻址。
type Storage interface {
	Save(ctx context.Context, dir, fileName string, reader io.Reader) (location string, err error)
	Open(ctx context.Context, location string) (io.ReadCloser, error)
	Delete(ctx context.Context, location string) error
}

// Config 文件存储配置
type Config struct {
	Type string // 后端类型：local / minio，空值等同local

	// LocalDir 本地后端的根目录
	LocalDir string

	// MinIO 连接配置
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// New 根据配置创建存储后端
func New(ctx context.Context, config *Config) (Storage, error) {
	switch config.Type {
	case "", "local":
		return NewLocalStorage(config.LocalDir), nil
	case "minio":
		return NewMinioStorage(ctx, config.Endpoint, config.AccessKey, config.SecretKey, config.Bucket, config.UseSSL)
	default:
		return nil, errors.Newf(errors.ErrConfiguration, "unsupported storage type: %s", config.Type)
	}
}
