package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qq642160575-ship-it/rag/core/errors"
	"github.com/qq642160575-ship-it/rag/pkg/schema"
)

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(content), 0644))
}

func TestMessagesRendering(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "greet", "system: 你是{role}\nuser: 问题：{question}\n")

	m := NewManager(dir)
	messages, err := m.Messages("greet", map[string]string{
		"role":     "助手",
		"question": "你好",
	})
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, schema.System, messages[0].Role)
	assert.Equal(t, "你是助手", messages[0].Content)
	assert.Equal(t, schema.User, messages[1].Role)
	assert.Equal(t, "问题：你好", messages[1].Content)
}

func TestMessagesSkipsEmptySections(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "useronly", "user: 只有用户消息\n")

	m := NewManager(dir)
	messages, err := m.Messages("useronly", nil)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, schema.User, messages[0].Role)
}

func TestMessagesNotFound(t *testing.T) {
	m := NewManager(t.TempDir())
	_, err := m.Messages("missing", nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrPromptNotFound))
}

func TestMessagesCaching(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "cached", "user: 版本一\n")

	m := NewManager(dir)
	first, err := m.Messages("cached", nil)
	require.NoError(t, err)

	// 文件被覆盖后仍返回缓存内容
	writeTemplate(t, dir, "cached", "user: 版本二\n")
	second, err := m.Messages("cached", nil)
	require.NoError(t, err)
	assert.Equal(t, first[0].Content, second[0].Content)
}

func TestBundledTemplates(t *testing.T) {
	m := NewManager("templates")
	for _, name := range []string{"intent", "expand", "rerank", "judge", "rewrite", "answer"} {
		messages, err := m.Messages(name, map[string]string{
			"original_question": "q",
			"entities":          "e",
			"doc_content":       "d",
			"docs_text":         "d",
		})
		require.NoError(t, err, name)
		assert.NotEmpty(t, messages, name)
	}
}
