package agent

import (
	"github.com/qq642160575-ship-it/rag/pkg/schema"
)

// State 一次检索问答运行的全部状态。
// 在工作流入口创建，只填充 OriginalQuestion，各步骤各自填充一部分字段。
// 单次运行内串行流转，不跨请求共享，运行结束后即丢弃。
type State struct {
	OriginalQuestion string `json:"original_question"`

	// 意图分析
	TaskType string   `json:"task_type"`
	Entities []string `json:"entities"`

	// 检索
	ExpandedQueries []string           `json:"expanded_queries"`
	DenseResults    []*schema.Document `json:"dense_results"`
	MergedDocs      []*schema.Document `json:"merged_docs"`
	RerankedDocs    []*schema.Document `json:"reranked_docs"`

	// 质量控制
	RecallScore  float64 `json:"recall_score"`
	NeedFallback bool    `json:"need_fallback"`

	// 回退重写
	RewrittenQuery string `json:"rewritten_query"`
	Attempts       int    `json:"attempts"` // 已执行的重写次数

	// 输出
	FinalDocs []*schema.Document `json:"final_docs"`
	Answer    string             `json:"answer"`
}

// NewState 创建初始状态
func NewState(question string) *State {
	return &State{OriginalQuestion: question}
}
