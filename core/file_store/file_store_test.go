package file_store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qq642160575-ship-it/rag/core/errors"
)

// 两个后端都必须实现 Storage 接口
var (
	_ Storage = (*LocalStorage)(nil)
	_ Storage = (*MinioStorage)(nil)
)

func TestNewDefaultsToLocal(t *testing.T) {
	s, err := New(context.Background(), &Config{LocalDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)
}

func TestNewLocalExplicit(t *testing.T) {
	s, err := New(context.Background(), &Config{Type: "local", LocalDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)
}

func TestNewUnsupportedType(t *testing.T) {
	_, err := New(context.Background(), &Config{Type: "ftp"})
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrConfiguration, appErr.Code)
}
