package vector_store

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/google/uuid"
	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/qq642160575-ship-it/rag/core/errors"
)

// MilvusStore 委托索引实现。
// 向量索引与持久化都由Milvus服务端负责：Save 仅触发Flush，Load 仅加载
// 集合，path 参数被忽略。Search 的得分为服务端返回的相似度，越大越相似
// （与flat后端的距离约定相反，调用方按后端各自的约定解读）。
type MilvusStore struct {
	client     *milvusclient.Client
	collection string
	dimension  int
	metricType string
}

// NewMilvusStore 创建Milvus向量存储实例并确保集合存在
func NewMilvusStore(ctx context.Context, config *Config) (*MilvusStore, error) {
	if config.Address == "" {
		return nil, errors.New(errors.ErrConfiguration, "milvus address is required")
	}
	if config.Collection == "" {
		return nil, errors.New(errors.ErrConfiguration, "milvus collection name is required")
	}
	if config.Dimension <= 0 {
		return nil, errors.New(errors.ErrConfiguration, "milvus store requires a pre-set dimension")
	}

	g.Log().Infof(ctx, "connecting to milvus at %s, database: %s", config.Address, config.Database)

	client, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address: config.Address,
		DBName:  config.Database,
	})
	if err != nil {
		return nil, errors.Newf(errors.ErrConfiguration, "failed to create milvus client: %v", err)
	}

	metricType := config.MetricType
	if metricType == "" {
		metricType = "COSINE"
	}

	store := &MilvusStore{
		client:     client,
		collection: config.Collection,
		dimension:  config.Dimension,
		metricType: metricType,
	}
	if err := store.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// ensureCollection 创建集合（如果不存在）并加载到内存
func (m *MilvusStore) ensureCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(m.collection))
	if err != nil {
		return errors.Newf(errors.ErrConfiguration, "failed to check milvus collection: %v", err)
	}
	if !has {
		metric := entity.MetricType(m.metricType)
		schema := &entity.Schema{
			CollectionName: m.collection,
			Description:    "存储文档分片及其向量",
			AutoID:         false,
			Fields:         m.collectionFields(),
		}
		err = m.client.CreateCollection(ctx,
			milvusclient.NewCreateCollectionOption(m.collection, schema).WithIndexOptions(
				milvusclient.NewCreateIndexOption(m.collection, "vector", index.NewHNSWIndex(metric, 64, 128))))
		if err != nil {
			return errors.Newf(errors.ErrConfiguration, "failed to create milvus collection: %v", err)
		}
		g.Log().Infof(ctx, "collection '%s' created with dimension %d", m.collection, m.dimension)
	}

	_, err = m.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(m.collection))
	if err != nil {
		return errors.Newf(errors.ErrConfiguration, "failed to load milvus collection: %v", err)
	}
	return nil
}

func (m *MilvusStore) collectionFields() []*entity.Field {
	return []*entity.Field{
		{
			Name:        "id",
			DataType:    entity.FieldTypeVarChar,
			TypeParams:  map[string]string{"max_length": "256"},
			PrimaryKey:  true,
			AutoID:      false,
			Description: "record unique ID (primary key)",
		},
		{
			Name:        "text",
			DataType:    entity.FieldTypeVarChar,
			TypeParams:  map[string]string{"max_length": "65535"},
			Description: "record text content",
		},
		{
			Name:        "vector",
			DataType:    entity.FieldTypeFloatVector,
			TypeParams:  map[string]string{"dim": fmt.Sprintf("%d", m.dimension)},
			Description: "record embedding vector",
		},
		{
			Name:        "metadata",
			DataType:    entity.FieldTypeJSON,
			Description: "record metadata (JSON)",
		},
	}
}

func (m *MilvusStore) Add(ctx context.Context, texts []string, vectors [][]float32, metadatas []map[string]interface{}) ([]string, error) {
	if len(texts) == 0 || len(vectors) == 0 {
		return []string{}, nil
	}
	if len(texts) != len(vectors) {
		return nil, errors.Newf(errors.ErrInvalidParameter,
			"texts and vectors length mismatch: %d vs %d", len(texts), len(vectors))
	}

	ids := make([]string, len(texts))
	storedTexts := make([]string, len(texts))
	metadataList := make([][]byte, len(texts))

	for i := range texts {
		if len(vectors[i]) != m.dimension {
			return nil, errors.Newf(errors.ErrDimensionMatch,
				"vector %d has dimension %d, collection dimension is %d", i, len(vectors[i]), m.dimension)
		}
		ids[i] = uuid.New().String()
		storedTexts[i] = truncateString(texts[i], 65535)

		meta := map[string]interface{}{}
		if metadatas != nil && i < len(metadatas) && metadatas[i] != nil {
			meta = metadatas[i]
		}
		raw, err := sonic.Marshal(meta)
		if err != nil {
			return nil, errors.Newf(errors.ErrVectorInsert, "failed to marshal metadata: %v", err)
		}
		metadataList[i] = raw
	}

	columns := []column.Column{
		column.NewColumnVarChar("id", ids),
		column.NewColumnVarChar("text", storedTexts),
		column.NewColumnFloatVector("vector", m.dimension, vectors),
		column.NewColumnJSONBytes("metadata", metadataList),
	}

	result, err := m.client.Insert(ctx, milvusclient.NewColumnBasedInsertOption(m.collection, columns...))
	if err != nil {
		return nil, errors.Newf(errors.ErrVectorInsert, "failed to insert vectors: %v", err)
	}

	g.Log().Infof(ctx, "inserted %d vectors into collection '%s'", result.InsertCount, m.collection)
	return ids, nil
}

func (m *MilvusStore) Search(ctx context.Context, queryVector []float32, topK int, filter map[string]interface{}) ([]SearchResult, error) {
	if topK <= 0 {
		return []SearchResult{}, nil
	}
	if len(queryVector) != m.dimension {
		return nil, errors.Newf(errors.ErrDimensionMatch,
			"query vector has dimension %d, collection dimension is %d", len(queryVector), m.dimension)
	}

	searchOpt := milvusclient.NewSearchOption(m.collection, topK, []entity.Vector{entity.FloatVector(queryVector)}).
		WithANNSField("vector").
		WithOutputFields("id", "text", "metadata").
		WithConsistencyLevel(entity.ClBounded)

	if expr := buildFilterExpr(filter); expr != "" {
		searchOpt = searchOpt.WithFilter(expr)
	}

	results, err := m.client.Search(ctx, searchOpt)
	if err != nil {
		return nil, errors.Newf(errors.ErrVectorSearch, "milvus search failed: %v", err)
	}
	if len(results) == 0 {
		return []SearchResult{}, nil
	}

	return convertResultSet(results[0].Fields, results[0].Scores)
}

func (m *MilvusStore) Save(ctx context.Context, path string) error {
	// 持久化由服务端负责，这里仅确保写入落盘
	task, err := m.client.Flush(ctx, milvusclient.NewFlushOption(m.collection))
	if err != nil {
		return errors.Newf(errors.ErrStorePersist, "failed to flush collection: %v", err)
	}
	if err := task.Await(ctx); err != nil {
		return errors.Newf(errors.ErrStorePersist, "flush did not complete: %v", err)
	}
	return nil
}

func (m *MilvusStore) Load(ctx context.Context, path string) error {
	_, err := m.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(m.collection))
	if err != nil {
		return errors.Newf(errors.ErrStorePersist, "failed to load collection: %v", err)
	}
	return nil
}

// buildFilterExpr 将精确匹配谓词转换为Milvus过滤表达式
func buildFilterExpr(filter map[string]interface{}) string {
	if len(filter) == 0 {
		return ""
	}
	parts := make([]string, 0, len(filter))
	for k, v := range filter {
		key := strings.ReplaceAll(k, `"`, "")
		switch val := v.(type) {
		case string:
			escaped := strings.ReplaceAll(val, `"`, `\"`)
			parts = append(parts, fmt.Sprintf(`metadata["%s"] == "%s"`, key, escaped))
		default:
			parts = append(parts, fmt.Sprintf(`metadata["%s"] == %v`, key, val))
		}
	}
	return strings.Join(parts, " and ")
}

// convertResultSet 将搜索结果列转换为统一结果格式
func convertResultSet(columns []column.Column, scores []float32) ([]SearchResult, error) {
	if len(columns) == 0 {
		return []SearchResult{}, nil
	}

	numDocs := columns[0].Len()
	results := make([]SearchResult, numDocs)
	for i := 0; i < numDocs && i < len(scores); i++ {
		results[i].Score = scores[i]
		results[i].Metadata = make(map[string]interface{})
	}

	for _, col := range columns {
		switch col.Name() {
		case "text":
			for i := 0; i < col.Len(); i++ {
				val, err := col.Get(i)
				if err != nil {
					return nil, errors.Newf(errors.ErrVectorSearch, "failed to read text column: %v", err)
				}
				if str, ok := val.(string); ok {
					results[i].Text = str
				}
			}
		case "metadata":
			for i := 0; i < col.Len(); i++ {
				val, err := col.Get(i)
				if err != nil || val == nil {
					continue
				}
				var meta map[string]interface{}
				switch v := val.(type) {
				case string:
					_ = sonic.Unmarshal([]byte(v), &meta)
				case []byte:
					_ = sonic.Unmarshal(v, &meta)
				}
				for k, mv := range meta {
					results[i].Metadata[k] = mv
				}
			}
		}
	}
	return results, nil
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
