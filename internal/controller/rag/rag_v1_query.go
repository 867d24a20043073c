package rag

import (
	"context"

	v1 "github.com/qq642160575-ship-it/rag/api/rag/v1"
	"github.com/qq642160575-ship-it/rag/internal/logic/rag"
)

func (c *ControllerV1) Query(ctx context.Context, req *v1.QueryReq) (res *v1.QueryRes, err error) {
	state, err := rag.GetSvr().Agent.Run(ctx, req.Question)
	if err != nil {
		return
	}

	res = &v1.QueryRes{
		Answer:       state.Answer,
		TaskType:     state.TaskType,
		Entities:     state.Entities,
		RecallScore:  state.RecallScore,
		RewriteCount: state.Attempts,
		FinalDocs:    state.FinalDocs,
	}
	return
}
