package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// 跨中英文的句末标点，句子与其终止符一起保留
var sentenceRe = regexp.MustCompile(`[^。！？.!?]*[。！？.!?]`)

// semanticSplit 语义切片：段落优先贪心装箱。
// 连续段落累积到一个块中，运行长度（含每段2个字符的分隔成本）不超过
// maxChunkSize；单个段落超出上限时退化为句子级装箱；单个句子仍超出
// 上限则整句输出。句子级切片不做重叠。
func semanticSplit(text string, maxChunkSize int) []string {
	paragraphs := strings.Split(text, "\n\n")

	var chunks []string
	var current []string
	size := 0

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		paraSize := utf8.RuneCountInString(para)

		if size+paraSize <= maxChunkSize {
			current = append(current, para)
			size += paraSize + 2
			continue
		}

		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n\n"))
		}

		if paraSize > maxChunkSize {
			chunks = append(chunks, splitBySentences(para, maxChunkSize)...)
			current = nil
			size = 0
		} else {
			current = []string{para}
			size = paraSize + 2
		}
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n\n"))
	}
	return chunks
}

// splitBySentences 句子级贪心装箱，无重叠
func splitBySentences(para string, maxChunkSize int) []string {
	sentences := sentenceRe.FindAllString(para, -1)
	// 末尾没有终止符的残句也要保留
	matched := 0
	for _, s := range sentences {
		matched += len(s)
	}
	if matched < len(para) {
		sentences = append(sentences, para[matched:])
	}
	if len(sentences) == 0 {
		return []string{para}
	}

	var chunks []string
	var current []string
	size := 0

	for _, sent := range sentences {
		sent = strings.TrimSpace(sent)
		if sent == "" {
			continue
		}
		sentSize := utf8.RuneCountInString(sent)
		if size+sentSize <= maxChunkSize {
			current = append(current, sent)
			size += sentSize
			continue
		}
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, ""))
		}
		// 单句超长时整句输出，这是有意的边界策略
		current = []string{sent}
		size = sentSize
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, ""))
	}
	return chunks
}
