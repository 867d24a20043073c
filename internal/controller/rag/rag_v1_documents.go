package rag

import (
	"context"

	v1 "github.com/qq642160575-ship-it/rag/api/rag/v1"
	"github.com/qq642160575-ship-it/rag/internal/dao"
)

func (c *ControllerV1) DocumentsList(ctx context.Context, req *v1.DocumentsListReq) (res *v1.DocumentsListRes, err error) {
	documents, total, err := dao.ListDocuments(ctx, req.Page, req.Size)
	if err != nil {
		return
	}

	res = &v1.DocumentsListRes{
		Data:  documents,
		Total: total,
		Page:  req.Page,
		Size:  req.Size,
	}
	return
}
