package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanForChunking(t *testing.T) {
	input := "第一行  内容\n\n\n\n第二行\t内容\n   \n第三行\x00\x08内容"
	got := CleanForChunking(input)
	assert.Equal(t, "第一行 内容\n第二行 内容\n第三行内容", got)
}

func TestCleanForChunkingZeroWidth(t *testing.T) {
	input := "前\u200B后\u200C中\u200D间\u2060文"
	assert.Equal(t, "前后中间文", CleanForChunking(input))
}

func TestCleanForChunkingStripsBOM(t *testing.T) {
	input := "\uFEFF开头内容\n正文\uFEFF中段"
	assert.Equal(t, "开头内容\n正文中段", CleanForChunking(input))
}

func TestCleanForChunkingEmpty(t *testing.T) {
	assert.Equal(t, "", CleanForChunking(""))
	assert.Equal(t, "", CleanForChunking("  \n\t \n  "))
}

func TestStripHTMLTags(t *testing.T) {
	got := StripHTMLTags("<div><p>你好</p><br/>世界</div>")
	assert.Equal(t, "你好 世界", got)
}

func TestFileNameFromURL(t *testing.T) {
	assert.Equal(t, "report.pdf", FileNameFromURL("https://example.com/files/report.pdf"))
	assert.Equal(t, "report.pdf", FileNameFromURL("https://example.com/files/report.pdf?v=2"))
	assert.Equal(t, "unknown_file", FileNameFromURL(""))
}
