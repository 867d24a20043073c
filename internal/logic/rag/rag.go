package rag

import (
	"context"

	"github.com/gogf/gf/v2/frame/g"

	"github.com/qq642160575-ship-it/rag/core/agent"
	"github.com/qq642160575-ship-it/rag/core/config"
	"github.com/qq642160575-ship-it/rag/core/embedding"
	"github.com/qq642160575-ship-it/rag/core/file_store"
	"github.com/qq642160575-ship-it/rag/core/model"
	"github.com/qq642160575-ship-it/rag/core/prompt"
	"github.com/qq642160575-ship-it/rag/core/vector_store"
	"github.com/qq642160575-ship-it/rag/internal/logic/ingest"
)

// Service 聚合检索问答所需的全部组件
type Service struct {
	Embedder embedding.Embedder
	Chat     *model.ChatService
	Store    vector_store.VectorStore
	Prompts  *prompt.Manager
	Agent    *agent.Agent
	Pipeline *ingest.Pipeline
	Files    file_store.Storage
}

var svr *Service

// Init 根据配置文件组装服务，启动时调用一次
func Init(ctx context.Context) error {
	embedder, err := embedding.New(config.EmbeddingConfig(ctx))
	if err != nil {
		return err
	}

	chat, err := model.NewChatService(config.ChatConfig(ctx))
	if err != nil {
		return err
	}

	store, err := vector_store.New(ctx, config.VectorStoreConfig(ctx))
	if err != nil {
		return err
	}

	storePath := config.StorePath(ctx)
	// flat后端先恢复已持久化的索引，目录不存在视为空库
	if _, ok := store.(*vector_store.FlatStore); ok {
		if err := store.Load(ctx, storePath); err != nil {
			g.Log().Infof(ctx, "no existing flat index at %s, starting empty", storePath)
		}
	} else {
		storePath = ""
	}

	prompts := prompt.NewManager(config.PromptDir(ctx))

	files, err := file_store.New(ctx, config.StorageConfig(ctx))
	if err != nil {
		return err
	}

	svr = &Service{
		Embedder: embedder,
		Chat:     chat,
		Store:    store,
		Prompts:  prompts,
		Agent:    agent.New(chat, embedder, store, prompts, config.AgentConfig(ctx)),
		Pipeline: ingest.NewPipeline(embedder, store, storePath),
		Files:    files,
	}

	g.Log().Info(ctx, "rag service initialized")
	return nil
}

// GetSvr 获取服务实例
func GetSvr() *Service {
	return svr
}
