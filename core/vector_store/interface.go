package vector_store

import (
	"context"
)

// StoreType 向量存储类型
type StoreType string

const (
	// StoreTypeFlat 进程内平铺索引，暴力L2检索，本地目录持久化
	StoreTypeFlat StoreType = "flat"
	// StoreTypeMilvus 委托给Milvus服务端的ANN索引
	StoreTypeMilvus StoreType = "milvus"
)

// SearchResult 检索结果
type SearchResult struct {
	// Text 原始文本内容
	Text string `json:"text"`
	// Score 相似度得分。flat后端为L2平方距离（越小越相似），
	// milvus后端为服务端相似度（越大越相似），各实现需保持自身约定一致。
	Score float32 `json:"score"`
	// Metadata 记录元数据
	Metadata map[string]interface{} `json:"metadata"`
}

// VectorStore 向量存储接口。
// 维度在构造时或首次 Add 时确定，其后所有向量必须匹配。
// 接口本身不做并发控制：同一实例的并发写入由调用方串行化。
type VectorStore interface {
	// Add 追加记录，返回按插入顺序分配的ID列表。
	// texts 与 vectors 必须等长；任一为空时为空操作，返回空ID列表。
	Add(ctx context.Context, texts []string, vectors [][]float32, metadatas []map[string]interface{}) ([]string, error)

	// Search 返回与查询向量最近的至多 topK 条记录，按相似度从优到劣排序。
	// filter 为元数据精确匹配谓词，nil 表示不过滤；无命中时返回空切片而非错误。
	Search(ctx context.Context, queryVector []float32, topK int, filter map[string]interface{}) ([]SearchResult, error)

	// Save 持久化完整状态到指定路径
	Save(ctx context.Context, path string) error

	// Load 从指定路径恢复状态，恢复后的检索结果与持久化前完全一致
	Load(ctx context.Context, path string) error
}

// Config 向量存储配置
type Config struct {
	Type StoreType // 存储类型

	// Dimension 预设向量维度，0表示由首次 Add 懒初始化（仅 flat）
	Dimension int

	// Milvus 连接配置
	Address    string // Milvus 服务地址
	Database   string // 数据库名称
	Collection string // 集合名称
	MetricType string // 距离度量类型（如 L2, COSINE, IP）
}
