package v1

import (
	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/net/ghttp"
)

// 文档状态
const (
	StatusPending  = 0
	StatusIndexing = 1
	StatusActive   = 2
	StatusFailed   = 3
)

type IngestReq struct {
	g.Meta        `path:"/v1/ingest" method:"post" mime:"multipart/form-data" tags:"rag"`
	File          *ghttp.UploadFile `p:"file" type:"file" dc:"本地文件直接上传"`
	URL           string            `p:"url" dc:"网络文件填写url"`
	ChunkSize     int               `p:"chunk_size" dc:"文档分块大小" d:"512" v:"min:100|max:2048"`
	ChunkOverlap  int               `p:"chunk_overlap" dc:"分块重叠大小" d:"50" v:"min:0"`
	ChunkStrategy string            `p:"chunk_strategy" dc:"分块策略: fixed/semantic" d:"fixed" v:"in:fixed,semantic"`
	EmbedProvider string            `p:"embed_provider" dc:"向量化提供方，留空使用服务配置"`
	StoreProvider string            `p:"store_provider" dc:"向量库后端，留空使用服务配置"`
	StorePath     string            `p:"store_path" dc:"flat索引持久化目录，留空使用服务配置"`
}

type IngestRes struct {
	g.Meta     `mime:"application/json"`
	DocumentId string   `json:"document_id"`
	ChunkIds   []string `json:"ids"`
	Count      int      `json:"count"`
}
