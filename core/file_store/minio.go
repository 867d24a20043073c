package file_store

import (
	"context"
	"io"
	"path"

	"github.com/gogf/gf/v2/frame/g"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/qq642160575-ship-it/rag/core/errors"
)

// MinioStorage 对象存储后端，location为bucket内的object key
type MinioStorage struct {
	client *minio.Client
	bucket string
}

// NewMinioStorage 创建对象存储客户端并确保bucket存在
func NewMinioStorage(ctx context.Context, endpoint, accessKey, secretKey, bucket string, ssl bool) (*MinioStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: ssl,
	})
	if err != nil {
		return nil, errors.Newf(errors.ErrInternalError, "failed to create MinIO client: %v", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, errors.Newf(errors.ErrInternalError, "failed to check if bucket exists: %v", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Newf(errors.ErrInternalError, "failed to create bucket: %v", err)
		}
		g.Log().Infof(ctx, "created bucket '%s'", bucket)
	}

	return &MinioStorage{client: client, bucket: bucket}, nil
}

func (s *MinioStorage) Save(ctx context.Context, dir, fileName string, reader io.Reader) (string, error) {
	objectName := path.Join(dir, fileName)

	// 大小未知时传-1走流式上传
	info, err := s.client.PutObject(ctx, s.bucket, objectName, reader, -1,
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return "", errors.Newf(errors.ErrFileUploadFailed, "failed to upload object %s: %v", objectName, err)
	}

	g.Log().Infof(ctx, "file uploaded to bucket=%s, key=%s, size=%d", s.bucket, info.Key, info.Size)
	return objectName, nil
}

func (s *MinioStorage) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, location, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Newf(errors.ErrFileReadFailed, "failed to get object %s: %v", location, err)
	}
	return obj, nil
}

func (s *MinioStorage) Delete(ctx context.Context, location string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, location, minio.RemoveObjectOptions{}); err != nil {
		return errors.Newf(errors.ErrFileDeleteFailed, "failed to delete object %s: %v", location, err)
	}
	g.Log().Infof(ctx, "deleted object '%s' from bucket '%s'", location, s.bucket)
	return nil
}
