package file_store

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStorage(t.TempDir())

	location, err := s.Save(ctx, "docs", "合同.txt", strings.NewReader("文件内容"))
	require.NoError(t, err)
	assert.NotEmpty(t, location)

	rc, err := s.Open(ctx, location)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "文件内容", string(data))

	require.NoError(t, s.Delete(ctx, location))
	_, err = s.Open(ctx, location)
	require.Error(t, err)

	// 重复删除不报错
	require.NoError(t, s.Delete(ctx, location))
}
