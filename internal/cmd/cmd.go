package cmd

import (
	"context"

	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/net/ghttp"
	"github.com/gogf/gf/v2/os/gcmd"

	"github.com/qq642160575-ship-it/rag/core/config"
	"github.com/qq642160575-ship-it/rag/internal/controller/rag"
	"github.com/qq642160575-ship-it/rag/internal/dao"
	ragLogic "github.com/qq642160575-ship-it/rag/internal/logic/rag"
)

var (
	Main = gcmd.Command{
		Name:  "main",
		Usage: "main",
		Brief: "start rag http server",
		Func: func(ctx context.Context, parser *gcmd.Parser) (err error) {
			if err = config.ValidateConfiguration(ctx); err != nil {
				return err
			}
			if err = dao.InitDB(); err != nil {
				return err
			}
			if err = ragLogic.Init(ctx); err != nil {
				return err
			}

			s := g.Server()
			s.Group("/api/rag", func(group *ghttp.RouterGroup) {
				group.Middleware(MiddlewareHandlerResponse, MiddlewareMultipartMaxMemory, ghttp.MiddlewareCORS)
				group.Bind(
					rag.NewV1(),
				)
			})
			s.Run()
			return nil
		},
	}
)
