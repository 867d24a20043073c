package model

import (
	"context"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/qq642160575-ship-it/rag/core/errors"
	"github.com/qq642160575-ship-it/rag/pkg/schema"
)

// 结构化输出类型。每个类型对应一个提示词模板约定的JSON形状，
// 模型以JSON模式输出后由 Structured 解码。

// IntentOutput 意图识别结果
type IntentOutput struct {
	TaskType string                 `json:"task_type"` // search / summary / compare / chitchat
	Entities []string               `json:"entities"`
	Filters  map[string]interface{} `json:"filters,omitempty"` // 可选的元数据过滤条件
	Reason   string                 `json:"reason,omitempty"`  // 模型给出的分类依据
}

// ExpandOutput 查询扩写结果
type ExpandOutput struct {
	Queries []string `json:"queries"`
}

// RerankScoreOutput 单条候选的重排打分结果
type RerankScoreOutput struct {
	Score float64 `json:"score"`
}

// RecallJudgeOutput 召回充分性判定结果
type RecallJudgeOutput struct {
	Score      float64 `json:"score"`
	Sufficient bool    `json:"sufficient"`
}

// StructuredOutput 受支持的结构化输出类型集合
type StructuredOutput interface {
	IntentOutput | ExpandOutput | RerankScoreOutput | RecallJudgeOutput
}

// Structured 以JSON模式调用模型并解码为指定的输出类型。
// 模型输出无法解析时返回 ErrBadModelOutput。
func Structured[T StructuredOutput](ctx context.Context, chat ChatCompleter, messages []*schema.Message) (*T, error) {
	raw, err := chat.CompleteJSON(ctx, messages)
	if err != nil {
		return nil, err
	}

	var out T
	if err := sonic.Unmarshal([]byte(stripCodeFence(raw)), &out); err != nil {
		return nil, errors.Newf(errors.ErrBadModelOutput, "failed to parse model output %q: %v", raw, err)
	}
	return &out, nil
}

// stripCodeFence 剥离模型偶尔包裹的markdown代码块标记
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
