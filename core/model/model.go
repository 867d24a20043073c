package model

import (
	"context"
	"time"

	"github.com/gogf/gf/v2/frame/g"
	"github.com/sashabaranov/go-openai"

	"github.com/qq642160575-ship-it/rag/core/errors"
	"github.com/qq642160575-ship-it/rag/pkg/schema"
)

// ChatCompleter 对话补全接口。
// Complete 返回自由文本，CompleteJSON 要求模型输出单个JSON对象。
type ChatCompleter interface {
	Complete(ctx context.Context, messages []*schema.Message) (string, error)
	CompleteJSON(ctx context.Context, messages []*schema.Message) (string, error)
}

// Config 对话模型配置
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	MaxRetries  int           // 失败重试次数，0使用默认值
	RetryDelay  time.Duration // 重试间隔，0使用默认值
}

// ChatService 基于OpenAI兼容接口的对话服务
type ChatService struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	maxRetries  int
	retryDelay  time.Duration
}

// NewChatService 创建对话服务
func NewChatService(config *Config) (*ChatService, error) {
	if config.APIKey == "" {
		return nil, errors.New(errors.ErrConfiguration, "chat apiKey is required")
	}
	if config.Model == "" {
		return nil, errors.New(errors.ErrConfiguration, "chat model is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	maxRetries := config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	retryDelay := config.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 500 * time.Millisecond
	}

	return &ChatService{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       config.Model,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		maxRetries:  maxRetries,
		retryDelay:  retryDelay,
	}, nil
}

// Complete 非流式对话，返回首个choice的文本
func (s *ChatService) Complete(ctx context.Context, messages []*schema.Message) (string, error) {
	return s.complete(ctx, messages, nil)
}

// CompleteJSON 以JSON模式调用模型，返回的文本保证是单个JSON对象
func (s *ChatService) CompleteJSON(ctx context.Context, messages []*schema.Message) (string, error) {
	return s.complete(ctx, messages, &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	})
}

func (s *ChatService) complete(ctx context.Context, messages []*schema.Message, format *openai.ChatCompletionResponseFormat) (string, error) {
	if len(messages) == 0 {
		return "", errors.New(errors.ErrInvalidParameter, "messages must not be empty")
	}

	req := openai.ChatCompletionRequest{
		Model:               s.model,
		Messages:            convertMessages(messages),
		Temperature:         s.temperature,
		MaxCompletionTokens: s.maxTokens,
		ResponseFormat:      format,
	}

	g.Log().Debugf(ctx, "[chat] 发送请求 - Model: %s, Messages: %d, Temp: %.2f",
		s.model, len(messages), s.temperature)

	// 同一模型重试，失败间隔固定延迟
	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			g.Log().Infof(ctx, "[chat] 重试 %d/%d: 模型 %s", attempt+1, s.maxRetries, s.model)
			select {
			case <-ctx.Done():
				return "", errors.Newf(errors.ErrLLMCallFailed, "chat completion canceled: %v", ctx.Err())
			case <-time.After(s.retryDelay):
			}
		}

		resp, err := s.client.CreateChatCompletion(ctx, req)
		if err != nil {
			lastErr = err
			g.Log().Warningf(ctx, "[chat] 调用失败 - Model: %s, 尝试 %d/%d, 错误: %v",
				s.model, attempt+1, s.maxRetries, err)
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = errors.New(errors.ErrBadModelOutput, "chat completion returned no choices")
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}

	return "", errors.Newf(errors.ErrLLMCallFailed, "模型 %s 调用失败: %v", s.model, lastErr)
}

func convertMessages(messages []*schema.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		if m == nil {
			continue
		}
		result = append(result, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return result
}
