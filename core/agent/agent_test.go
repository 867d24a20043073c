package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qq642160575-ship-it/rag/core/prompt"
	"github.com/qq642160575-ship-it/rag/core/vector_store"
	"github.com/qq642160575-ship-it/rag/pkg/schema"
)

// testPrompts 生成带识别前缀的测试模板，便于桩按步骤分发回复
func testPrompts(t *testing.T) *prompt.Manager {
	t.Helper()
	dir := t.TempDir()
	templates := map[string]string{
		"intent":  "user: \"INTENT:{original_question}\"\n",
		"expand":  "user: \"EXPAND:{original_question}|{entities}\"\n",
		"rerank":  "user: \"RERANK:{doc_content}\"\n",
		"judge":   "user: \"JUDGE:{docs_text}\"\n",
		"rewrite": "user: \"REWRITE:{original_question}\"\n",
		"answer":  "user: \"ANSWER:{docs_text}\"\n",
	}
	for name, content := range templates {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(content), 0644))
	}
	return prompt.NewManager(dir)
}

// scriptedChat 按用户消息前缀分发回复的ChatCompleter桩
type scriptedChat struct {
	mu          sync.Mutex
	rerankCalls int
	judgeCalls  int
	// rerankScore 根据候选文本返回分数
	rerankScore func(docContent string) float64
	// judgeReply 根据调用序号返回judge的JSON回复
	judgeReply func(call int) string
	// rewriteReply 重写结果
	rewriteReply string
}

func (s *scriptedChat) lastContent(messages []*schema.Message) string {
	if len(messages) == 0 {
		return ""
	}
	return messages[len(messages)-1].Content
}

func (s *scriptedChat) Complete(ctx context.Context, messages []*schema.Message) (string, error) {
	content := s.lastContent(messages)
	switch {
	case strings.HasPrefix(content, "REWRITE:"):
		return s.rewriteReply, nil
	case strings.HasPrefix(content, "ANSWER:"):
		return "最终回答", nil
	}
	return "", fmt.Errorf("unexpected free-text call: %s", content)
}

func (s *scriptedChat) CompleteJSON(ctx context.Context, messages []*schema.Message) (string, error) {
	content := s.lastContent(messages)
	switch {
	case strings.HasPrefix(content, "INTENT:"):
		return `{"task_type":"qa","entities":["实体A"]}`, nil
	case strings.HasPrefix(content, "EXPAND:"):
		return `{"queries":["查询一","查询二"]}`, nil
	case strings.HasPrefix(content, "RERANK:"):
		s.mu.Lock()
		s.rerankCalls++
		s.mu.Unlock()
		score := 0.5
		if s.rerankScore != nil {
			score = s.rerankScore(strings.TrimPrefix(content, "RERANK:"))
		}
		return fmt.Sprintf(`{"score":%g}`, score), nil
	case strings.HasPrefix(content, "JUDGE:"):
		s.mu.Lock()
		s.judgeCalls++
		call := s.judgeCalls
		s.mu.Unlock()
		if s.judgeReply != nil {
			return s.judgeReply(call), nil
		}
		return `{"score":0.9,"sufficient":true}`, nil
	}
	return "", fmt.Errorf("unexpected structured call: %s", content)
}

// fakeEmbedder 为每条文本返回固定向量并统计调用次数
type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) EmbedStrings(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0}
	}
	return vectors, nil
}

// fakeSearcher 每次Search返回预置结果
type fakeSearcher struct {
	results []vector_store.SearchResult
	calls   int
}

func (f *fakeSearcher) Search(ctx context.Context, queryVector []float32, topK int, filter map[string]interface{}) ([]vector_store.SearchResult, error) {
	f.calls++
	return f.results, nil
}

func TestRunHappyPath(t *testing.T) {
	chat := &scriptedChat{}
	embedder := &fakeEmbedder{}
	searcher := &fakeSearcher{
		results: []vector_store.SearchResult{
			{Text: "片段一", Metadata: map[string]interface{}{"source": "a"}},
			{Text: "片段二", Metadata: map[string]interface{}{"source": "b"}},
		},
	}

	a := New(chat, embedder, searcher, testPrompts(t), Config{})
	state, err := a.Run(context.Background(), "实体A是什么")
	require.NoError(t, err)

	assert.Equal(t, "qa", state.TaskType)
	assert.Equal(t, []string{"查询一", "查询二"}, state.ExpandedQueries)
	// 两条查询均召回同样的两条片段，合并后去重
	assert.Equal(t, 2, searcher.calls)
	assert.Len(t, state.DenseResults, 4)
	assert.Len(t, state.MergedDocs, 2)
	assert.Equal(t, "最终回答", state.Answer)
	assert.Equal(t, state.RerankedDocs, state.FinalDocs)
	assert.Zero(t, state.Attempts)
	assert.False(t, state.NeedFallback)
}

func TestMergeKeepsLastMetadata(t *testing.T) {
	a := &Agent{}
	state := &State{
		DenseResults: []*schema.Document{
			{Content: "同一段内容", MetaData: map[string]interface{}{"v": "旧"}},
			{Content: "另一段", MetaData: map[string]interface{}{"v": "x"}},
			{Content: "同一段内容", MetaData: map[string]interface{}{"v": "新"}},
		},
	}
	a.merge(state)

	require.Len(t, state.MergedDocs, 2)
	assert.Equal(t, "同一段内容", state.MergedDocs[0].Content)
	assert.Equal(t, "新", state.MergedDocs[0].MetaData["v"])
}

func TestRerankTopFiveStable(t *testing.T) {
	scores := map[string]float64{
		"d1": 0.3, "d2": 0.8, "d3": 0.8, "d4": 0.1, "d5": 0.8, "d6": 0.9, "d7": 0.2,
	}
	chat := &scriptedChat{rerankScore: func(doc string) float64 { return scores[doc] }}
	a := New(chat, &fakeEmbedder{}, &fakeSearcher{}, testPrompts(t), Config{})

	state := &State{OriginalQuestion: "q"}
	for _, name := range []string{"d1", "d2", "d3", "d4", "d5", "d6", "d7"} {
		state.MergedDocs = append(state.MergedDocs, &schema.Document{Content: name})
	}

	require.NoError(t, a.rerank(context.Background(), state))
	require.Len(t, state.RerankedDocs, 5)
	// 降序排序，同分0.8保持合并顺序 d2,d3,d5
	got := make([]string, 0, 5)
	for _, d := range state.RerankedDocs {
		got = append(got, d.Content)
	}
	assert.Equal(t, []string{"d6", "d2", "d3", "d5", "d1"}, got)
	assert.Equal(t, 7, chat.rerankCalls)
}

func TestRerankEmptyNoCalls(t *testing.T) {
	chat := &scriptedChat{}
	a := New(chat, &fakeEmbedder{}, &fakeSearcher{}, testPrompts(t), Config{})

	state := &State{OriginalQuestion: "q", MergedDocs: []*schema.Document{}}
	require.NoError(t, a.rerank(context.Background(), state))
	assert.Empty(t, state.RerankedDocs)
	assert.Zero(t, chat.rerankCalls)
}

func TestRunRewriteCapForcesAnswer(t *testing.T) {
	chat := &scriptedChat{
		// 第二轮得分最高，之后持续不充分
		judgeReply: func(call int) string {
			switch call {
			case 2:
				return `{"score":0.6,"sufficient":false}`
			default:
				return `{"score":0.2,"sufficient":false}`
			}
		},
		rewriteReply: "重写后的查询",
	}
	searcher := &fakeSearcher{
		results: []vector_store.SearchResult{{Text: "候选片段"}},
	}

	a := New(chat, &fakeEmbedder{}, searcher, testPrompts(t), Config{MaxRewrites: 2})
	state, err := a.Run(context.Background(), "问题")
	require.NoError(t, err)

	// 初次检索 + 两次重写后重试，之后强制回答
	assert.Equal(t, 2, state.Attempts)
	assert.Equal(t, 3, chat.judgeCalls)
	assert.Equal(t, "重写后的查询", state.RewrittenQuery)
	assert.Equal(t, []string{"重写后的查询"}, state.ExpandedQueries)
	assert.Equal(t, "最终回答", state.Answer)
	assert.NotEmpty(t, state.FinalDocs)
}

func TestRunEmptyExpandedQueries(t *testing.T) {
	chat := &emptyExpandChat{}
	embedder := &fakeEmbedder{}
	searcher := &fakeSearcher{}

	a := New(chat, embedder, searcher, testPrompts(t), Config{})
	state, err := a.Run(context.Background(), "问题")
	require.NoError(t, err)

	// 扩写为空时原样透传：不触发向量化和检索，合并与重排均为空
	assert.Empty(t, state.ExpandedQueries)
	assert.Zero(t, embedder.calls)
	assert.Zero(t, searcher.calls)
	assert.Empty(t, state.MergedDocs)
	assert.Empty(t, state.RerankedDocs)
	assert.Zero(t, chat.rerankCalls)
	assert.Equal(t, "最终回答", state.Answer)
}

func TestRunRejectsBlankQuestion(t *testing.T) {
	a := New(&scriptedChat{}, &fakeEmbedder{}, &fakeSearcher{}, testPrompts(t), Config{})
	_, err := a.Run(context.Background(), "   ")
	require.Error(t, err)
}

// emptyExpandChat 扩写返回空列表的桩
type emptyExpandChat struct {
	scriptedChat
}

func (s *emptyExpandChat) CompleteJSON(ctx context.Context, messages []*schema.Message) (string, error) {
	content := s.lastContent(messages)
	if strings.HasPrefix(content, "EXPAND:") {
		return `{"queries":[]}`, nil
	}
	return s.scriptedChat.CompleteJSON(ctx, messages)
}
