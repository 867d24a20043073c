package chunker

import (
	"context"

	"github.com/cloudwego/eino/components/document"
	einoschema "github.com/cloudwego/eino/schema"
)

// transformer 将切片逻辑适配为 eino 的 document.Transformer，
// 供摄入流水线作为图节点使用
type transformer struct {
	chunkSize    int
	chunkOverlap int
	strategy     Strategy
}

// NewTransformer 创建文档切片转换器
func NewTransformer(ctx context.Context, chunkSize, chunkOverlap int, strategy Strategy) (document.Transformer, error) {
	return &transformer{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		strategy:     strategy,
	}, nil
}

func (x *transformer) Transform(ctx context.Context, docs []*einoschema.Document, opts ...document.TransformerOption) ([]*einoschema.Document, error) {
	var out []*einoschema.Document
	for _, doc := range docs {
		o := &Options{
			ChunkSize:    x.chunkSize,
			ChunkOverlap: x.chunkOverlap,
			Strategy:     x.strategy,
			Metadata:     doc.MetaData,
			ParentID:     doc.ID,
		}
		if src, ok := doc.MetaData["_source"].(string); ok {
			o.Source = src
		}
		out = append(out, Chunk(doc.Content, o)...)
	}
	return out, nil
}
