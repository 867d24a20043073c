package main

import (
	"github.com/gogf/gf/v2/os/gctx"

	_ "github.com/gogf/gf/contrib/drivers/pgsql/v2"

	"github.com/qq642160575-ship-it/rag/internal/cmd"
)

func main() {
	cmd.Main.Run(gctx.GetInitCtx())
}
