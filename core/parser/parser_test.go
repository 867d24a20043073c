package parser

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qq642160575-ship-it/rag/core/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseTxt(t *testing.T) {
	path := writeFile(t, t.TempDir(), "note.txt", "第一行\n第二行")

	doc, err := ParseFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "第一行\n第二行", doc.Content)
	assert.Equal(t, "note.txt", doc.MetaData["_source"])
	assert.Equal(t, ".txt", doc.MetaData["_extension"])
	assert.NotEmpty(t, doc.ID)
}

func TestParseHTML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "page.html",
		"<html><body><h1>标题</h1><p>正文内容</p></body></html>")

	doc, err := ParseFile(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, doc.Content, "标题")
	assert.Contains(t, doc.Content, "正文内容")
	assert.NotContains(t, doc.Content, "<p>")
}

func TestParseDocx(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.docx")

	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	body, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = body.Write([]byte(`<?xml version="1.0"?>
<document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <body>
    <p><r><t>段落一</t></r><r><t>续写</t></r></p>
    <p><r><t>段落二</t></r></p>
  </body>
</document>`))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	doc, err := ParseFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "段落一续写\n段落二", doc.Content)
}

func TestParseUnsupportedFormat(t *testing.T) {
	// 不支持的格式在读取前返回错误，文件不存在也不影响判定
	_, err := ParseFile(context.Background(), "/nonexistent/archive.tar.gz")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrUnsupportedFormat))
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("a.TXT"))
	assert.True(t, IsSupported("b.docx"))
	assert.True(t, IsSupported("c.htm"))
	assert.False(t, IsSupported("d.xlsx"))
	assert.False(t, IsSupported("noext"))
}
