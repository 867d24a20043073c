package ingest

import (
	"context"
	"math"
	"sync"
	"time"

	einoschema "github.com/cloudwego/eino/schema"
	"github.com/gogf/gf/v2/frame/g"

	"github.com/qq642160575-ship-it/rag/core/chunker"
	"github.com/qq642160575-ship-it/rag/core/embedding"
	"github.com/qq642160575-ship-it/rag/core/errors"
	"github.com/qq642160575-ship-it/rag/core/vector_store"
	"github.com/qq642160575-ship-it/rag/pkg/schema"
)

// 批处理参数
const (
	batchSize    = 30               // 每批30个文本，避免API限制
	concurrency  = 3                // 3个并发，避免API限流
	maxRetries   = 5                // 最大重试次数
	initialDelay = 1 * time.Second  // 初始延迟
	maxDelay     = 30 * time.Second // 最大延迟
	multiplier   = 2.0              // 指数退避倍数
)

// Pipeline 文档摄入流水线：分块 → 向量化 → 写入向量库 → 持久化。
// 向量库写入通过内部互斥锁串行化，多个摄入请求可以安全并发。
type Pipeline struct {
	embedder  embedding.Embedder
	store     vector_store.VectorStore
	storePath string

	mu sync.Mutex // 串行化store的写入与持久化
}

// NewPipeline 创建摄入流水线，storePath为空时跳过持久化
func NewPipeline(embedder embedding.Embedder, store vector_store.VectorStore, storePath string) *Pipeline {
	return &Pipeline{
		embedder:  embedder,
		store:     store,
		storePath: storePath,
	}
}

// batchInfo 单个向量化批次
type batchInfo struct {
	Index  int
	Chunks []*einoschema.Document
	Texts  []string
}

// batchResult 批次处理结果
type batchResult struct {
	BatchIndex int
	Vectors    [][]float32
	Error      error
}

// IngestDocument 摄入一篇已解析的文档，返回写入向量库的片段ID
func (p *Pipeline) IngestDocument(ctx context.Context, doc *schema.RawDocument, opts *chunker.Options) ([]string, error) {
	return p.IngestDocumentTo(ctx, doc, opts, p.storePath)
}

// IngestDocumentTo 同 IngestDocument，但指定本次持久化目录，storePath为空时跳过持久化
func (p *Pipeline) IngestDocumentTo(ctx context.Context, doc *schema.RawDocument, opts *chunker.Options, storePath string) ([]string, error) {
	if opts == nil {
		opts = &chunker.Options{}
	}
	if opts.Source == "" {
		if src, ok := doc.MetaData["_source"].(string); ok {
			opts.Source = src
		}
	}
	opts.ParentID = doc.ID

	chunks := chunker.Chunk(doc.Content, opts)
	if len(chunks) == 0 {
		g.Log().Infof(ctx, "document %s produced no chunks, skipping", doc.ID)
		return []string{}, nil
	}

	g.Log().Infof(ctx, "starting vectorization of %d chunks (BatchSize: %d, Concurrency: %d)",
		len(chunks), batchSize, concurrency)

	vectors, err := p.embedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(chunks))
	metadatas := make([]map[string]interface{}, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
		metadatas[i] = chunk.MetaData
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ids, err := p.store.Add(ctx, texts, vectors, metadatas)
	if err != nil {
		return nil, err
	}

	if storePath != "" {
		if err := p.store.Save(ctx, storePath); err != nil {
			return nil, err
		}
	}

	g.Log().Infof(ctx, "document %s ingested, chunks: %d", doc.ID, len(ids))
	return ids, nil
}

// embedChunks 分批并发向量化，结果按片段原始顺序组装
func (p *Pipeline) embedChunks(ctx context.Context, chunks []*einoschema.Document) ([][]float32, error) {
	batches := p.createBatches(chunks)

	resultChan := make(chan batchResult, len(batches))
	semaphore := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, batch := range batches {
		wg.Add(1)
		go func(b batchInfo) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			vectors, err := p.embedTextsWithRetry(ctx, b.Texts)
			if err != nil {
				resultChan <- batchResult{
					BatchIndex: b.Index,
					Error:      errors.Newf(errors.ErrEmbeddingFailed, "batch %d failed: %v", b.Index, err),
				}
				return
			}

			resultChan <- batchResult{BatchIndex: b.Index, Vectors: vectors}
			g.Log().Debugf(ctx, "batch %d embedded, chunks: %d", b.Index, len(b.Chunks))
		}(batch)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	batchResults := make([]batchResult, len(batches))
	for result := range resultChan {
		if result.Error != nil {
			return nil, result.Error
		}
		batchResults[result.BatchIndex] = result
	}

	vectors := make([][]float32, 0, len(chunks))
	for _, batch := range batches {
		vectors = append(vectors, batchResults[batch.Index].Vectors...)
	}
	if len(vectors) != len(chunks) {
		return nil, errors.Newf(errors.ErrEmbeddingFailed,
			"vector count (%d) doesn't match chunk count (%d)", len(vectors), len(chunks))
	}
	return vectors, nil
}

// createBatches 创建批次
func (p *Pipeline) createBatches(chunks []*einoschema.Document) []batchInfo {
	var batches []batchInfo
	batchCount := int(math.Ceil(float64(len(chunks)) / float64(batchSize)))

	for i := 0; i < batchCount; i++ {
		start := i * batchSize
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		batchChunks := chunks[start:end]
		texts := make([]string, len(batchChunks))
		for j, chunk := range batchChunks {
			texts[j] = chunk.Content
		}

		batches = append(batches, batchInfo{
			Index:  i,
			Chunks: batchChunks,
			Texts:  texts,
		})
	}
	return batches
}

// embedTextsWithRetry 带指数退避重试的向量化
func (p *Pipeline) embedTextsWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	delay := initialDelay

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			g.Log().Infof(ctx, "retrying embedding attempt %d/%d after %v delay", attempt, maxRetries, delay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * multiplier)
			if delay > maxDelay {
				delay = maxDelay
			}
		}

		vectors, err := p.embedder.EmbedStrings(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		lastErr = err
		g.Log().Warningf(ctx, "embedding attempt %d failed: %v", attempt+1, err)
	}

	return nil, lastErr
}
