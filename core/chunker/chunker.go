package chunker

import (
	"strings"
	"unicode/utf8"

	einoschema "github.com/cloudwego/eino/schema"

	"github.com/qq642160575-ship-it/rag/core/common"
)

// Strategy 切片策略
type Strategy string

const (
	// StrategyFixed 递归定长切片（带重叠）
	StrategyFixed Strategy = "fixed"
	// StrategySemantic 语义切片（段落/句子边界优先，无重叠）
	StrategySemantic Strategy = "semantic"
)

// 递归切片的分隔符优先级，从粗到细：
// 段落 -> 换行 -> 中英文句末标点 -> 分句标点 -> 词边界 -> 单字符
var defaultSeparators = []string{
	"\n\n", "\n",
	"。", "！", "？",
	". ", "! ", "? ",
	"；", "; ", "，", ", ",
	" ", "",
}

// Options 切片参数
type Options struct {
	ChunkSize    int                    // 每个块的最大字符数
	ChunkOverlap int                    // 相邻块之间的重叠字符数（仅 fixed 策略）
	Metadata     map[string]interface{} // 透传的文档元信息
	Source       string                 // 文档来源
	ParentID     string                 // 父文档ID
	Strategy     Strategy               // 切片策略，默认 fixed
}

func (o *Options) normalize() {
	if o.ChunkSize <= 0 {
		o.ChunkSize = 512
	}
	if o.ChunkOverlap < 0 {
		o.ChunkOverlap = 0
	}
	if o.ChunkOverlap >= o.ChunkSize {
		o.ChunkOverlap = o.ChunkSize / 4
	}
}

// Chunk 统一切片入口：清洗文本并按策略切片。
// 清洗后为空的文本返回空切片，不报错。
func Chunk(text string, opts *Options) []*einoschema.Document {
	if opts == nil {
		opts = &Options{}
	}
	opts.normalize()

	cleaned := common.CleanForChunking(text)
	if cleaned == "" {
		return []*einoschema.Document{}
	}

	var pieces []string
	if opts.Strategy == StrategySemantic {
		pieces = semanticSplit(cleaned, opts.ChunkSize)
	} else {
		pieces = recursiveSplit(cleaned, opts.ChunkSize, opts.ChunkOverlap, defaultSeparators)
	}

	return tagChunks(pieces, opts)
}

// tagChunks 为切片结果附加 lineage 元数据
func tagChunks(pieces []string, opts *Options) []*einoschema.Document {
	docs := make([]*einoschema.Document, 0, len(pieces))
	for i, piece := range pieces {
		meta := make(map[string]interface{}, len(opts.Metadata)+6)
		for k, v := range opts.Metadata {
			meta[k] = v
		}
		if opts.Source != "" {
			meta["source"] = opts.Source
		}
		if opts.ParentID != "" {
			meta["parent_id"] = opts.ParentID
		}
		meta["chunk_index"] = i
		meta["total_chunks"] = len(pieces)
		meta["chunk_size"] = utf8.RuneCountInString(piece)
		if opts.Strategy == StrategySemantic {
			meta["chunking_strategy"] = string(StrategySemantic)
		}
		docs = append(docs, &einoschema.Document{
			Content:  piece,
			MetaData: meta,
		})
	}
	return docs
}

// recursiveSplit 递归定长切片。
// 选取文本中出现的最粗分隔符切开，超出预算的片段用更细的分隔符继续切，
// 相邻块之间保留 overlap 个字符的尾部上下文。
func recursiveSplit(text string, chunkSize, overlap int, separators []string) []string {
	sep := ""
	var rest []string
	for i, s := range separators {
		if s == "" {
			sep = ""
			break
		}
		if strings.Contains(text, s) {
			sep = s
			rest = separators[i+1:]
			break
		}
	}

	if sep == "" {
		return splitByRunes(text, chunkSize, overlap)
	}

	splits := strings.SplitAfter(text, sep)

	var final []string
	var good []string
	for _, piece := range splits {
		if piece == "" {
			continue
		}
		if utf8.RuneCountInString(piece) <= chunkSize {
			good = append(good, piece)
			continue
		}
		// 当前片段超出预算：先合并已有的小片段，再用更细的分隔符递归处理
		if len(good) > 0 {
			final = append(final, mergeSplits(good, chunkSize, overlap)...)
			good = nil
		}
		final = append(final, recursiveSplit(piece, chunkSize, overlap, rest)...)
	}
	if len(good) > 0 {
		final = append(final, mergeSplits(good, chunkSize, overlap)...)
	}
	return final
}

// mergeSplits 将小片段贪心合并为不超过 chunkSize 的块，
// 块之间保留总长不超过 overlap 的尾部片段作为重叠上下文。
func mergeSplits(splits []string, chunkSize, overlap int) []string {
	var chunks []string
	var current []string
	size := 0

	for _, s := range splits {
		l := utf8.RuneCountInString(s)
		if size+l > chunkSize && size > 0 {
			chunks = append(chunks, strings.TrimSpace(strings.Join(current, "")))
			// 从头部弹出片段，直到剩余长度落入重叠预算
			for size > overlap || (size+l > chunkSize && size > 0) {
				size -= utf8.RuneCountInString(current[0])
				current = current[1:]
			}
		}
		current = append(current, s)
		size += l
	}
	if len(current) > 0 {
		if merged := strings.TrimSpace(strings.Join(current, "")); merged != "" {
			chunks = append(chunks, merged)
		}
	}
	return chunks
}

// splitByRunes 字符级兜底切片：定长窗口，步进为 chunkSize-overlap
func splitByRunes(text string, chunkSize, overlap int) []string {
	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}
	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
