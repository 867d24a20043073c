package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/gogf/gf/v2/frame/g"

	"github.com/qq642160575-ship-it/rag/core/agent"
	"github.com/qq642160575-ship-it/rag/core/embedding"
	"github.com/qq642160575-ship-it/rag/core/file_store"
	"github.com/qq642160575-ship-it/rag/core/model"
	"github.com/qq642160575-ship-it/rag/core/vector_store"
)

// ValidateConfiguration validates all required configuration items
func ValidateConfiguration(ctx context.Context) error {
	var missingConfigs []string
	var warnings []string

	// 验证向量存储配置
	storeType := g.Cfg().MustGet(ctx, "vectorstore.type", "flat").String()
	if storeType == string(vector_store.StoreTypeMilvus) {
		if g.Cfg().MustGet(ctx, "vectorstore.address", "").String() == "" {
			missingConfigs = append(missingConfigs, "vectorstore.address")
		}
		if g.Cfg().MustGet(ctx, "vectorstore.collection", "").String() == "" {
			missingConfigs = append(missingConfigs, "vectorstore.collection")
		}
	}

	// 验证 Embedding 配置
	if g.Cfg().MustGet(ctx, "embedding.apiKey", "").String() == "" {
		missingConfigs = append(missingConfigs, "embedding.apiKey")
	}
	if g.Cfg().MustGet(ctx, "embedding.baseURL", "").String() == "" {
		missingConfigs = append(missingConfigs, "embedding.baseURL")
	}
	if g.Cfg().MustGet(ctx, "embedding.model", "").String() == "" {
		missingConfigs = append(missingConfigs, "embedding.model")
	}
	if g.Cfg().MustGet(ctx, "embedding.dimensions", 0).Int() <= 0 {
		missingConfigs = append(missingConfigs, "embedding.dimensions")
	}

	// 验证 Chat 配置
	if g.Cfg().MustGet(ctx, "chat.apiKey", "").String() == "" {
		warnings = append(warnings, "chat.apiKey is not set")
	}
	if g.Cfg().MustGet(ctx, "chat.baseURL", "").String() == "" {
		warnings = append(warnings, "chat.baseURL is not set")
	}
	if g.Cfg().MustGet(ctx, "chat.model", "").String() == "" {
		warnings = append(warnings, "chat.model is not set")
	}

	// 验证文件存储配置
	if g.Cfg().MustGet(ctx, "storage.type", "local").String() == "minio" {
		for _, key := range []string{
			"storage.endpoint",
			"storage.accessKey",
			"storage.secretKey",
			"storage.bucket",
		} {
			if g.Cfg().MustGet(ctx, key, "").String() == "" {
				missingConfigs = append(missingConfigs, key)
			}
		}
	}

	// 验证数据库配置
	for _, key := range []string{
		"database.default.host",
		"database.default.port",
		"database.default.user",
		"database.default.name",
	} {
		if g.Cfg().MustGet(ctx, key, "").String() == "" {
			missingConfigs = append(missingConfigs, key)
		}
	}

	if len(warnings) > 0 {
		g.Log().Warningf(ctx, "Configuration warnings:\n- %s", strings.Join(warnings, "\n- "))
	}

	if len(missingConfigs) > 0 {
		return fmt.Errorf("missing required configuration items:\n- %s\n\nPlease check your config.yaml file and ensure all required settings are properly configured", strings.Join(missingConfigs, "\n- "))
	}

	g.Log().Info(ctx, "✓ All required configuration items are present")
	return nil
}

// EmbeddingConfig 从配置文件读取embedding配置
func EmbeddingConfig(ctx context.Context) *embedding.Config {
	return &embedding.Config{
		Provider:   g.Cfg().MustGet(ctx, "embedding.provider", "openai").String(),
		APIKey:     g.Cfg().MustGet(ctx, "embedding.apiKey", "").String(),
		BaseURL:    g.Cfg().MustGet(ctx, "embedding.baseURL", "").String(),
		Model:      g.Cfg().MustGet(ctx, "embedding.model", "").String(),
		Dimensions: g.Cfg().MustGet(ctx, "embedding.dimensions", 1024).Int(),
	}
}

// ChatConfig 从配置文件读取对话模型配置
func ChatConfig(ctx context.Context) *model.Config {
	return &model.Config{
		APIKey:      g.Cfg().MustGet(ctx, "chat.apiKey", "").String(),
		BaseURL:     g.Cfg().MustGet(ctx, "chat.baseURL", "").String(),
		Model:       g.Cfg().MustGet(ctx, "chat.model", "").String(),
		Temperature: float32(g.Cfg().MustGet(ctx, "chat.temperature", 0.1).Float64()),
		MaxTokens:   g.Cfg().MustGet(ctx, "chat.maxTokens", 0).Int(),
	}
}

// VectorStoreConfig 从配置文件读取向量存储配置
func VectorStoreConfig(ctx context.Context) *vector_store.Config {
	return &vector_store.Config{
		Type:       vector_store.StoreType(g.Cfg().MustGet(ctx, "vectorstore.type", "flat").String()),
		Dimension:  g.Cfg().MustGet(ctx, "embedding.dimensions", 1024).Int(),
		Address:    g.Cfg().MustGet(ctx, "vectorstore.address", "").String(),
		Database:   g.Cfg().MustGet(ctx, "vectorstore.database", "default").String(),
		Collection: g.Cfg().MustGet(ctx, "vectorstore.collection", "rag_chunks").String(),
		MetricType: g.Cfg().MustGet(ctx, "vectorstore.metricType", "COSINE").String(),
	}
}

// AgentConfig 从配置文件读取工作流配置
func AgentConfig(ctx context.Context) agent.Config {
	return agent.Config{
		TopK:              g.Cfg().MustGet(ctx, "agent.topK", 3).Int(),
		RerankKeep:        g.Cfg().MustGet(ctx, "agent.rerankKeep", 5).Int(),
		RerankConcurrency: g.Cfg().MustGet(ctx, "agent.rerankConcurrency", 3).Int(),
		MaxRewrites:       g.Cfg().MustGet(ctx, "agent.maxRewrites", 2).Int(),
	}
}

// StorageConfig 从配置文件读取原始文件存储配置
func StorageConfig(ctx context.Context) *file_store.Config {
	return &file_store.Config{
		Type:      g.Cfg().MustGet(ctx, "storage.type", "local").String(),
		LocalDir:  g.Cfg().MustGet(ctx, "storage.localDir", "upload").String(),
		Endpoint:  g.Cfg().MustGet(ctx, "storage.endpoint", "").String(),
		AccessKey: g.Cfg().MustGet(ctx, "storage.accessKey", "").String(),
		SecretKey: g.Cfg().MustGet(ctx, "storage.secretKey", "").String(),
		Bucket:    g.Cfg().MustGet(ctx, "storage.bucket", "").String(),
		UseSSL:    g.Cfg().MustGet(ctx, "storage.useSSL", false).Bool(),
	}
}

// PromptDir 提示词模板目录
func PromptDir(ctx context.Context) string {
	return g.Cfg().MustGet(ctx, "prompt.dir", "core/prompt/templates").String()
}

// StorePath flat向量库的持久化目录
func StorePath(ctx context.Context) string {
	return g.Cfg().MustGet(ctx, "vectorstore.path", "data/flat_index").String()
}
