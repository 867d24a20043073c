package v1

import (
	"github.com/gogf/gf/v2/frame/g"

	gormModel "github.com/qq642160575-ship-it/rag/internal/model/gorm"
)

type DocumentsListReq struct {
	g.Meta `path:"/v1/documents" method:"get" tags:"rag"`
	Page   int `p:"page" dc:"page" v:"required|min:1" d:"1"`
	Size   int `p:"size" dc:"size" v:"required|min:1|max:100" d:"10"`
}

type DocumentsListRes struct {
	g.Meta `mime:"application/json"`
	Data   []gormModel.RagDocuments `json:"data"`
	Total  int64                    `json:"total"`
	Page   int                      `json:"page"`
	Size   int                      `json:"size"`
}
