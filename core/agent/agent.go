package agent

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/gogf/gf/v2/frame/g"

	"github.com/qq642160575-ship-it/rag/core/errors"
	"github.com/qq642160575-ship-it/rag/core/model"
	"github.com/qq642160575-ship-it/rag/core/prompt"
	"github.com/qq642160575-ship-it/rag/core/vector_store"
	"github.com/qq642160575-ship-it/rag/pkg/schema"
)

// Embedder 查询向量化依赖
type Embedder interface {
	EmbedStrings(ctx context.Context, texts []string) ([][]float32, error)
}

// Searcher 向量检索依赖
type Searcher interface {
	Search(ctx context.Context, queryVector []float32, topK int, filter map[string]interface{}) ([]vector_store.SearchResult, error)
}

// Config 工作流参数
type Config struct {
	TopK              int // 每条扩写查询的召回数量，默认3
	RerankKeep        int // 重排后保留的候选数量，默认5
	RerankConcurrency int // 重排打分并发度，默认3
	MaxRewrites       int // 最大重写次数，默认2；超出后强制进入回答
}

func (c *Config) normalize() {
	if c.TopK <= 0 {
		c.TopK = 3
	}
	if c.RerankKeep <= 0 {
		c.RerankKeep = 5
	}
	if c.RerankConcurrency <= 0 {
		c.RerankConcurrency = 3
	}
	if c.MaxRewrites <= 0 {
		c.MaxRewrites = 2
	}
}

// Agent 自适应检索问答工作流。
// 流程：意图识别 → 查询扩写 → 向量召回 → 去重合并 → 重排 → 质量判定，
// 判定不充分时重写查询并回到召回步骤，重写次数达到上限后以历史最优
// 候选强制进入回答。单次Run内部串行，仅重排打分做有界并发。
type Agent struct {
	chat     model.ChatCompleter
	embedder Embedder
	store    Searcher
	prompts  *prompt.Manager
	config   Config
}

// New 创建工作流实例
func New(chat model.ChatCompleter, embedder Embedder, store Searcher, prompts *prompt.Manager, config Config) *Agent {
	config.normalize()
	return &Agent{
		chat:     chat,
		embedder: embedder,
		store:    store,
		prompts:  prompts,
		config:   config,
	}
}

// Run 执行一次完整的检索问答
func (a *Agent) Run(ctx context.Context, question string) (*State, error) {
	if strings.TrimSpace(question) == "" {
		return nil, errors.New(errors.ErrInvalidParameter, "question must not be empty")
	}

	state := NewState(question)

	if err := a.intent(ctx, state); err != nil {
		return nil, err
	}
	if err := a.expand(ctx, state); err != nil {
		return nil, err
	}

	// 记录历次判定中得分最高的候选，重写次数耗尽时兜底
	var bestDocs []*schema.Document
	bestScore := -1.0

	for {
		if err := a.retrieve(ctx, state); err != nil {
			return nil, err
		}
		a.merge(state)
		if err := a.rerank(ctx, state); err != nil {
			return nil, err
		}
		if err := a.judge(ctx, state); err != nil {
			return nil, err
		}

		if state.RecallScore > bestScore {
			bestScore = state.RecallScore
			bestDocs = state.RerankedDocs
		}

		if !state.NeedFallback {
			break
		}
		if state.Attempts >= a.config.MaxRewrites {
			g.Log().Warningf(ctx, "[agent] 重写次数已达上限 %d，使用历史最优候选回答，question: %s",
				a.config.MaxRewrites, state.OriginalQuestion)
			state.RerankedDocs = bestDocs
			break
		}
		if err := a.rewrite(ctx, state); err != nil {
			return nil, err
		}
		state.Attempts++
	}

	if err := a.answer(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// intent 分析问题的任务类型并抽取关键实体
func (a *Agent) intent(ctx context.Context, state *State) error {
	messages, err := a.prompts.Messages("intent", map[string]string{
		"original_question": state.OriginalQuestion,
	})
	if err != nil {
		return err
	}
	out, err := model.Structured[model.IntentOutput](ctx, a.chat, messages)
	if err != nil {
		return err
	}
	state.TaskType = out.TaskType
	state.Entities = out.Entities
	return nil
}

// expand 基于问题与实体生成多条扩写查询。
// 模型返回空列表时原样透传，不回退到原始问题。
func (a *Agent) expand(ctx context.Context, state *State) error {
	messages, err := a.prompts.Messages("expand", map[string]string{
		"original_question": state.OriginalQuestion,
		"entities":          strings.Join(state.Entities, ", "),
	})
	if err != nil {
		return err
	}
	out, err := model.Structured[model.ExpandOutput](ctx, a.chat, messages)
	if err != nil {
		return err
	}
	state.ExpandedQueries = out.Queries
	return nil
}

// retrieve 对每条扩写查询做向量召回，结果按查询顺序拼接
func (a *Agent) retrieve(ctx context.Context, state *State) error {
	state.DenseResults = []*schema.Document{}
	if len(state.ExpandedQueries) == 0 {
		return nil
	}

	vectors, err := a.embedder.EmbedStrings(ctx, state.ExpandedQueries)
	if err != nil {
		return err
	}
	if len(vectors) != len(state.ExpandedQueries) {
		return errors.Newf(errors.ErrEmbeddingFailed,
			"embedding count (%d) doesn't match query count (%d)", len(vectors), len(state.ExpandedQueries))
	}

	for i, query := range state.ExpandedQueries {
		results, err := a.store.Search(ctx, vectors[i], a.config.TopK, nil)
		if err != nil {
			return err
		}
		for _, r := range results {
			state.DenseResults = append(state.DenseResults, &schema.Document{
				Content:  r.Text,
				MetaData: r.Metadata,
				Score:    r.Score,
			})
		}
		g.Log().Debugf(ctx, "[agent] 查询 %q 召回 %d 条", query, len(results))
	}
	return nil
}

// merge 按文本内容去重，内容相同时保留后出现的记录
func (a *Agent) merge(state *State) {
	unique := make(map[string]*schema.Document, len(state.DenseResults))
	order := make([]string, 0, len(state.DenseResults))
	for _, doc := range state.DenseResults {
		if _, ok := unique[doc.Content]; !ok {
			order = append(order, doc.Content)
		}
		unique[doc.Content] = doc
	}

	state.MergedDocs = make([]*schema.Document, 0, len(order))
	for _, content := range order {
		state.MergedDocs = append(state.MergedDocs, unique[content])
	}
}

// rerank 对合并后的候选逐条打分，降序稳定排序后保留前若干条。
// 打分相互独立，做有界并发，排序时同分保持合并顺序。
func (a *Agent) rerank(ctx context.Context, state *State) error {
	if len(state.MergedDocs) == 0 {
		state.RerankedDocs = []*schema.Document{}
		return nil
	}

	scores := make([]float64, len(state.MergedDocs))
	errs := make([]error, len(state.MergedDocs))
	semaphore := make(chan struct{}, a.config.RerankConcurrency)
	var wg sync.WaitGroup

	for i, doc := range state.MergedDocs {
		wg.Add(1)
		go func(idx int, d *schema.Document) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			messages, err := a.prompts.Messages("rerank", map[string]string{
				"original_question": state.OriginalQuestion,
				"doc_content":       d.Content,
			})
			if err != nil {
				errs[idx] = err
				return
			}
			out, err := model.Structured[model.RerankScoreOutput](ctx, a.chat, messages)
			if err != nil {
				errs[idx] = errors.Newf(errors.ErrRerankFailed, "candidate %d scoring failed: %v", idx, err)
				return
			}
			scores[idx] = out.Score
		}(i, doc)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	indexes := make([]int, len(state.MergedDocs))
	for i := range indexes {
		indexes[i] = i
	}
	sort.SliceStable(indexes, func(x, y int) bool {
		return scores[indexes[x]] > scores[indexes[y]]
	})

	keep := a.config.RerankKeep
	if keep > len(indexes) {
		keep = len(indexes)
	}
	state.RerankedDocs = make([]*schema.Document, 0, keep)
	for _, idx := range indexes[:keep] {
		doc := state.MergedDocs[idx]
		doc.Score = float32(scores[idx])
		state.RerankedDocs = append(state.RerankedDocs, doc)
	}
	return nil
}

// judge 评估重排后的候选是否足以回答问题
func (a *Agent) judge(ctx context.Context, state *State) error {
	messages, err := a.prompts.Messages("judge", map[string]string{
		"original_question": state.OriginalQuestion,
		"docs_text":         joinContents(state.RerankedDocs),
	})
	if err != nil {
		return err
	}
	out, err := model.Structured[model.RecallJudgeOutput](ctx, a.chat, messages)
	if err != nil {
		return err
	}
	state.RecallScore = out.Score
	state.NeedFallback = !out.Sufficient
	return nil
}

// rewrite 重写原始问题并将扩写查询替换为单条重写结果
func (a *Agent) rewrite(ctx context.Context, state *State) error {
	messages, err := a.prompts.Messages("rewrite", map[string]string{
		"original_question": state.OriginalQuestion,
	})
	if err != nil {
		return err
	}
	rewritten, err := a.chat.Complete(ctx, messages)
	if err != nil {
		return err
	}
	state.RewrittenQuery = strings.TrimSpace(rewritten)
	state.ExpandedQueries = []string{state.RewrittenQuery}
	return nil
}

// answer 以重排候选为上下文生成最终回答，终点步骤
func (a *Agent) answer(ctx context.Context, state *State) error {
	messages, err := a.prompts.Messages("answer", map[string]string{
		"original_question": state.OriginalQuestion,
		"docs_text":         joinContents(state.RerankedDocs),
	})
	if err != nil {
		return err
	}
	answer, err := a.chat.Complete(ctx, messages)
	if err != nil {
		return err
	}
	state.FinalDocs = state.RerankedDocs
	state.Answer = answer
	return nil
}

func joinContents(docs []*schema.Document) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, d.Content)
	}
	return strings.Join(parts, "\n\n")
}
