package v1

import (
	"github.com/gogf/gf/v2/frame/g"

	"github.com/qq642160575-ship-it/rag/pkg/schema"
)

type QueryReq struct {
	g.Meta   `path:"/v1/query" method:"post" tags:"rag"`
	Question string `p:"question" dc:"用户问题" v:"required|length:1,2048"`
}

type QueryRes struct {
	g.Meta       `mime:"application/json"`
	Answer       string             `json:"answer"`
	TaskType     string             `json:"task_type"`
	Entities     []string           `json:"entities"`
	RecallScore  float64            `json:"recall_score"`
	RewriteCount int                `json:"rewrite_count"`
	FinalDocs    []*schema.Document `json:"final_docs"`
}
