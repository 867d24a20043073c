package file_store

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/gogf/gf/v2/frame/g"

	"github.com/qq642160575-ship-it/rag/core/errors"
)

// LocalStorage 本地磁盘文件存储，location为相对根目录的路径
type LocalStorage struct {
	root string
}

// NewLocalStorage 创建本地存储，root为空时使用 upload 目录
func NewLocalStorage(root string) *LocalStorage {
	if root == "" {
		root = "upload"
	}
	return &LocalStorage{root: root}
}

func (s *LocalStorage) Save(ctx context.Context, dir, fileName string, reader io.Reader) (string, error) {
	targetDir := filepath.Join(s.root, dir)
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return "", errors.Newf(errors.ErrFileUploadFailed, "failed to create directory %s: %v", targetDir, err)
	}

	location := filepath.Join(dir, fileName)
	fullPath := filepath.Join(s.root, location)

	destFile, err := os.Create(fullPath)
	if err != nil {
		return "", errors.Newf(errors.ErrFileUploadFailed, "failed to create local file %s: %v", fullPath, err)
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, reader); err != nil {
		_ = os.Remove(fullPath)
		return "", errors.Newf(errors.ErrFileUploadFailed, "failed to write local file %s: %v", fullPath, err)
	}

	g.Log().Infof(ctx, "file saved to local storage: %s", fullPath)
	return location, nil
}

func (s *LocalStorage) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.root, location))
	if err != nil {
		return nil, errors.Newf(errors.ErrFileReadFailed, "failed to open local file %s: %v", location, err)
	}
	return f, nil
}

func (s *LocalStorage) Delete(ctx context.Context, location string) error {
	if err := os.Remove(filepath.Join(s.root, location)); err != nil && !os.IsNotExist(err) {
		return errors.Newf(errors.ErrFileDeleteFailed, "failed to delete local file %s: %v", location, err)
	}
	return nil
}
