package schema

import (
	"time"

	einoschema "github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
)

// Document 表示文档片段（检索结果）
type Document struct {
	// ID 片段唯一标识
	ID string `json:"id,omitempty"`
	// Content 片段内容
	Content string `json:"content"`
	// MetaData 片段元数据
	MetaData map[string]interface{} `json:"metadata,omitempty"`
	// Score 相关性得分（检索时使用）- 使用float32以直接与向量库兼容
	Score float32 `json:"score"`
}

// RawDocument 解析后的原始文档，摄入路径的统一数据模型
type RawDocument struct {
	// ID 文档唯一标识
	ID string `json:"id"`
	// Content 提取出的文本内容
	Content string `json:"content"`
	// MetaData 文档元信息，如来源、作者等
	MetaData map[string]interface{} `json:"metadata,omitempty"`
	// CreatedAt 文档创建时间
	CreatedAt time.Time `json:"created_at"`
}

// NewRawDocument 创建原始文档，自动分配ID和创建时间
func NewRawDocument(content string, metadata map[string]interface{}) *RawDocument {
	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	return &RawDocument{
		ID:        uuid.New().String(),
		Content:   content,
		MetaData:  metadata,
		CreatedAt: time.Now().UTC(),
	}
}

// ToEinoDocument 转换为 eino 的 Document 对象，供分块转换器使用
func (d *RawDocument) ToEinoDocument() *einoschema.Document {
	meta := make(map[string]interface{}, len(d.MetaData))
	for k, v := range d.MetaData {
		meta[k] = v
	}
	return &einoschema.Document{
		ID:       d.ID,
		Content:  d.Content,
		MetaData: meta,
	}
}
