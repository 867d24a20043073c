package embedding

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"github.com/qq642160575-ship-it/rag/core/errors"
)

// Embedder 文本向量化接口。
// 返回的向量顺序与输入文本一一对应。
type Embedder interface {
	EmbedStrings(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension 返回该模型输出的向量维度
	Dimension() int
}

// EmbedString 单条文本向量化便捷入口
func EmbedString(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vectors, err := e.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, errors.Newf(errors.ErrEmbeddingFailed, "expected 1 vector, got %d", len(vectors))
	}
	return vectors[0], nil
}

// Config embedding服务配置
type Config struct {
	Provider   string // 提供方名称，当前支持 openai（兼容接口）
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int // 输出维度，0表示使用模型默认值
}

// New 根据配置创建Embedder实例
func New(config *Config) (Embedder, error) {
	switch config.Provider {
	case "", "openai":
		return newOpenAIEmbedder(config)
	default:
		return nil, errors.Newf(errors.ErrConfiguration, "unsupported embedding provider: %s", config.Provider)
	}
}

// openAIEmbedder OpenAI兼容embedding客户端
type openAIEmbedder struct {
	apiKey     string
	baseURL    string
	model      string
	dimensions int
	httpClient *http.Client
}

// embeddingRequest OpenAI embedding API请求结构
type embeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions *int     `json:"dimensions,omitempty"`
}

// embeddingResponse OpenAI embedding API响应结构
type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
		Object    string    `json:"object"`
	} `json:"data"`
	Model  string `json:"model"`
	Object string `json:"object"`
	Usage  struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// errorResponse API错误响应
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code,omitempty"`
	} `json:"error"`
}

func newOpenAIEmbedder(config *Config) (*openAIEmbedder, error) {
	if config.APIKey == "" {
		return nil, errors.New(errors.ErrConfiguration, "embedding apiKey is required")
	}
	if config.BaseURL == "" {
		return nil, errors.New(errors.ErrConfiguration, "embedding baseURL is required")
	}
	if config.Model == "" {
		return nil, errors.New(errors.ErrConfiguration, "embedding model is required")
	}
	if config.Dimensions <= 0 {
		return nil, errors.New(errors.ErrConfiguration, "embedding dimensions must be positive")
	}

	// 创建自定义HTTP客户端，设置合理的超时时间
	httpClient := &http.Client{
		Timeout: 5 * time.Minute, // 总体超时5分钟
		Transport: &http.Transport{
			Dial: (&net.Dialer{
				Timeout:   30 * time.Second, // 连接超时
				KeepAlive: 30 * time.Second,
			}).Dial,
			TLSHandshakeTimeout:   30 * time.Second,
			ResponseHeaderTimeout: 2 * time.Minute, // 等待响应头超时
			ExpectContinueTimeout: 1 * time.Second,
			IdleConnTimeout:       90 * time.Second,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
		},
	}

	return &openAIEmbedder{
		apiKey:     config.APIKey,
		baseURL:    config.BaseURL,
		model:      config.Model,
		dimensions: config.Dimensions,
		httpClient: httpClient,
	}, nil
}

func (e *openAIEmbedder) Dimension() int {
	return e.dimensions
}

// EmbedStrings 实现字符串数组的向量化
func (e *openAIEmbedder) EmbedStrings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	req := embeddingRequest{
		Input:      texts,
		Model:      e.model,
		Dimensions: &e.dimensions,
	}

	jsonData, err := sonic.Marshal(req)
	if err != nil {
		return nil, errors.Newf(errors.ErrEmbeddingFailed, "failed to marshal request: %v", err)
	}

	url := e.baseURL + "/embeddings"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, errors.Newf(errors.ErrEmbeddingFailed, "failed to create request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Newf(errors.ErrEmbeddingFailed, "failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&errResp); err != nil {
			return nil, errors.Newf(errors.ErrEmbeddingFailed, "HTTP %d: failed to decode error response: %v", resp.StatusCode, err)
		}
		return nil, errors.Newf(errors.ErrEmbeddingFailed, "API error (HTTP %d): %s", resp.StatusCode, errResp.Error.Message)
	}

	var embResp embeddingResponse
	if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, errors.Newf(errors.ErrEmbeddingFailed, "failed to decode response: %v", err)
	}

	if len(embResp.Data) != len(texts) {
		return nil, errors.Newf(errors.ErrEmbeddingFailed,
			"response data length (%d) doesn't match input length (%d)", len(embResp.Data), len(texts))
	}

	// 按Index回填，响应顺序不保证与输入一致
	result := make([][]float32, len(texts))
	for _, data := range embResp.Data {
		if data.Index >= len(result) {
			return nil, errors.Newf(errors.ErrEmbeddingFailed, "invalid embedding index: %d", data.Index)
		}
		float32Vec := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			float32Vec[i] = float32(v)
		}
		result[data.Index] = float32Vec
	}

	return result, nil
}
