package chunker

import (
	"context"
	"strings"
	"testing"

	einoschema "github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformerSplitsDocuments(t *testing.T) {
	ctx := context.Background()
	tf, err := NewTransformer(ctx, 100, 20, StrategyFixed)
	require.NoError(t, err)

	docs := []*einoschema.Document{
		{
			ID:      "doc-1",
			Content: strings.Repeat("这是一段测试内容。", 40),
			MetaData: map[string]interface{}{
				"_source": "report.txt",
			},
		},
		{
			ID:      "doc-2",
			Content: "很短的文档。",
		},
	}

	chunks, err := tf.Transform(ctx, docs)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 2)

	firstDocChunks := 0
	for _, c := range chunks {
		if c.MetaData["parent_id"] == "doc-1" {
			firstDocChunks++
			assert.Equal(t, "report.txt", c.MetaData["source"])
		}
	}
	assert.Greater(t, firstDocChunks, 1)

	// 短文档保持单块且继承父ID
	last := chunks[len(chunks)-1]
	assert.Equal(t, "doc-2", last.MetaData["parent_id"])
	assert.Equal(t, "很短的文档。", last.Content)
}
