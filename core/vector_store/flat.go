package vector_store

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/bytedance/sonic"

	"github.com/qq642160575-ship-it/rag/core/errors"
)

const (
	flatIndexFile = "index.json"
	flatDataFile  = "data.json"
)

// FlatStore 进程内平铺索引实现。
// 记录保存在平行数组中，检索为暴力L2距离扫描，得分为L2平方距离
// （越小越相似）。ID由单调递增计数器分配，Save/Load 后保持不变。
type FlatStore struct {
	dimension int
	vectors   [][]float32
	texts     []string
	metadatas []map[string]interface{}
	ids       []string
	nextID    int
}

// flatIndexState 索引文件内容：向量、维度和ID计数器
type flatIndexState struct {
	Dimension int         `json:"dimension"`
	NextID    int         `json:"next_id"`
	IDs       []string    `json:"ids"`
	Vectors   [][]float32 `json:"vectors"`
}

// flatDataState 数据文件内容：文本与元数据的平行数组
type flatDataState struct {
	Texts     []string                 `json:"texts"`
	Metadatas []map[string]interface{} `json:"metadatas"`
}

// NewFlatStore 创建平铺索引存储。dimension 为0时由首次 Add 确定维度。
func NewFlatStore(dimension int) *FlatStore {
	return &FlatStore{dimension: dimension}
}

func (s *FlatStore) Add(ctx context.Context, texts []string, vectors [][]float32, metadatas []map[string]interface{}) ([]string, error) {
	if len(texts) == 0 || len(vectors) == 0 {
		return []string{}, nil
	}
	if len(texts) != len(vectors) {
		return nil, errors.Newf(errors.ErrInvalidParameter,
			"texts and vectors length mismatch: %d vs %d", len(texts), len(vectors))
	}

	// 首次写入时确定维度
	if s.dimension == 0 {
		s.dimension = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) != s.dimension {
			return nil, errors.Newf(errors.ErrDimensionMatch,
				"vector %d has dimension %d, store dimension is %d", i, len(v), s.dimension)
		}
	}

	ids := make([]string, len(texts))
	for i := range texts {
		id := strconv.Itoa(s.nextID)
		s.nextID++
		ids[i] = id

		meta := map[string]interface{}{}
		if metadatas != nil && i < len(metadatas) && metadatas[i] != nil {
			meta = metadatas[i]
		}

		s.ids = append(s.ids, id)
		s.texts = append(s.texts, texts[i])
		s.vectors = append(s.vectors, vectors[i])
		s.metadatas = append(s.metadatas, meta)
	}
	return ids, nil
}

func (s *FlatStore) Search(ctx context.Context, queryVector []float32, topK int, filter map[string]interface{}) ([]SearchResult, error) {
	if len(s.vectors) == 0 || topK <= 0 {
		return []SearchResult{}, nil
	}
	if len(queryVector) != s.dimension {
		return nil, errors.Newf(errors.ErrDimensionMatch,
			"query vector has dimension %d, store dimension is %d", len(queryVector), s.dimension)
	}

	type scored struct {
		idx  int
		dist float32
	}
	candidates := make([]scored, 0, len(s.vectors))
	for i := range s.vectors {
		if !matchFilter(s.metadatas[i], filter) {
			continue
		}
		candidates = append(candidates, scored{idx: i, dist: l2Squared(s.vectors[i], queryVector)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].dist < candidates[j].dist
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	results := make([]SearchResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, SearchResult{
			Text:     s.texts[c.idx],
			Score:    c.dist,
			Metadata: s.metadatas[c.idx],
		})
	}
	return results, nil
}

func (s *FlatStore) Save(ctx context.Context, path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return errors.Newf(errors.ErrStorePersist, "failed to create store directory: %v", err)
	}

	index := &flatIndexState{
		Dimension: s.dimension,
		NextID:    s.nextID,
		IDs:       s.ids,
		Vectors:   s.vectors,
	}
	data := &flatDataState{
		Texts:     s.texts,
		Metadatas: s.metadatas,
	}

	if err := writeJSONFile(filepath.Join(path, flatIndexFile), index); err != nil {
		return err
	}
	return writeJSONFile(filepath.Join(path, flatDataFile), data)
}

func (s *FlatStore) Load(ctx context.Context, path string) error {
	var index flatIndexState
	if err := readJSONFile(filepath.Join(path, flatIndexFile), &index); err != nil {
		return err
	}
	var data flatDataState
	if err := readJSONFile(filepath.Join(path, flatDataFile), &data); err != nil {
		return err
	}
	if len(index.Vectors) != len(data.Texts) {
		return errors.Newf(errors.ErrStorePersist,
			"corrupted store at %s: %d vectors but %d texts", path, len(index.Vectors), len(data.Texts))
	}

	s.dimension = index.Dimension
	s.nextID = index.NextID
	s.ids = index.IDs
	s.vectors = index.Vectors
	s.texts = data.Texts
	s.metadatas = data.Metadatas
	if s.metadatas == nil {
		s.metadatas = make([]map[string]interface{}, len(s.texts))
	}
	return nil
}

// matchFilter 元数据精确匹配。filter为nil或空时恒为真。
func matchFilter(metadata, filter map[string]interface{}) bool {
	for k, want := range filter {
		got, ok := metadata[k]
		if !ok || got != want {
			return false
		}
	}
	return true
}

func l2Squared(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func writeJSONFile(path string, v interface{}) error {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return errors.Newf(errors.ErrStorePersist, "failed to marshal %s: %v", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return errors.Newf(errors.ErrStorePersist, "failed to write %s: %v", path, err)
	}
	return nil
}

func readJSONFile(path string, v interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Newf(errors.ErrStorePersist, "failed to read %s: %v", path, err)
	}
	if err := sonic.Unmarshal(raw, v); err != nil {
		return errors.Newf(errors.ErrStorePersist, "failed to unmarshal %s: %v", path, err)
	}
	return nil
}
