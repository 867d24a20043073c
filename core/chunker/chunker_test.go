package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedChunkBounds(t *testing.T) {
	// 2000字符的重复文本，验证块大小上限和索引的稠密性
	text := strings.Repeat("这是一段测试文本。This is a test sentence. ", 50)
	require.GreaterOrEqual(t, utf8.RuneCountInString(text), 1500)

	docs := Chunk(text, &Options{
		ChunkSize:    100,
		ChunkOverlap: 20,
		Strategy:     StrategyFixed,
		Source:       "test.txt",
		ParentID:     "doc-1",
	})
	require.NotEmpty(t, docs)

	for i, doc := range docs {
		assert.LessOrEqual(t, utf8.RuneCountInString(doc.Content), 150,
			"chunk %d exceeds size bound", i)
		assert.Equal(t, i, doc.MetaData["chunk_index"])
		assert.Equal(t, len(docs), doc.MetaData["total_chunks"])
		assert.Equal(t, utf8.RuneCountInString(doc.Content), doc.MetaData["chunk_size"])
		assert.Equal(t, "test.txt", doc.MetaData["source"])
		assert.Equal(t, "doc-1", doc.MetaData["parent_id"])
	}
}

func TestChunkEmptyInput(t *testing.T) {
	for _, strategy := range []Strategy{StrategyFixed, StrategySemantic} {
		docs := Chunk("", &Options{ChunkSize: 100, Strategy: strategy})
		assert.Empty(t, docs)

		// 清洗后为空的输入同样返回空切片
		docs = Chunk("  \n\n\t  \n ", &Options{ChunkSize: 100, Strategy: strategy})
		assert.Empty(t, docs)
	}
}

func TestStrategyTag(t *testing.T) {
	text := "第一句话。第二句话。第三句话。"

	semantic := Chunk(text, &Options{ChunkSize: 100, Strategy: StrategySemantic})
	require.NotEmpty(t, semantic)
	for _, doc := range semantic {
		assert.Equal(t, "semantic", doc.MetaData["chunking_strategy"])
	}

	fixed := Chunk(text, &Options{ChunkSize: 100, Strategy: StrategyFixed})
	require.NotEmpty(t, fixed)
	for _, doc := range fixed {
		_, ok := doc.MetaData["chunking_strategy"]
		assert.False(t, ok, "fixed strategy must not tag chunking_strategy")
	}
}

func TestSemanticOversizeSentence(t *testing.T) {
	// 单句超过上限时整句输出，不截断
	long := strings.Repeat("很长的句子没有任何标点", 20) + "。"
	docs := Chunk(long, &Options{ChunkSize: 50, Strategy: StrategySemantic})
	require.Len(t, docs, 1)
	assert.Greater(t, utf8.RuneCountInString(docs[0].Content), 50)
}

func TestFixedOverlapCarriesContext(t *testing.T) {
	text := strings.Repeat("abcdefghij ", 40)
	docs := Chunk(text, &Options{ChunkSize: 60, ChunkOverlap: 20, Strategy: StrategyFixed})
	require.Greater(t, len(docs), 1)

	// 相邻块之间应有重叠：后块的开头出现在前块的尾部
	for i := 1; i < len(docs); i++ {
		prev := docs[i-1].Content
		head := docs[i].Content
		if utf8.RuneCountInString(head) > 10 {
			head = string([]rune(head)[:10])
		}
		assert.Contains(t, prev, strings.TrimSpace(head),
			"chunk %d should start with trailing context of chunk %d", i, i-1)
	}
}

func TestChunkDefaults(t *testing.T) {
	docs := Chunk("短文本", nil)
	require.Len(t, docs, 1)
	assert.Equal(t, "短文本", docs[0].Content)
	assert.Equal(t, 0, docs[0].MetaData["chunk_index"])
	assert.Equal(t, 1, docs[0].MetaData["total_chunks"])
}
