package common

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// 多个空行（两个及以上换行）合并为一个空行
	blankLineRe = regexp.MustCompile(`\n\s*\n+`)
	// 多个空格/制表符合并为一个空格
	spaceRe = regexp.MustCompile(`[ \t\f\v]+`)
)

// 零宽字符集合
var zeroWidthRunes = map[rune]bool{
	'\u200B': true, // Zero Width Space
	'\u200C': true, // Zero Width Non-Joiner
	'\u200D': true, // Zero Width Joiner
	'\uFEFF': true, // Zero Width No-Break Space (BOM)
	'\u2060': true, // Word Joiner
}

// CleanForChunking 分块前的文本清洗
// 处理顺序：
//  1. 合并连续空行为一个空行
//  2. 清理不可打印控制字符（保留 \n, \t, \r）和零宽字符
//  3. 合并连续水平空白为一个空格
//  4. 逐行去除首尾空白并丢弃空行
//
// 清洗后为空的文本返回空字符串，由调用方短路处理。
func CleanForChunking(text string) string {
	s := norm.NFC.String(text)
	s = blankLineRe.ReplaceAllString(s, "\n\n")
	s = removeControlChars(s)
	s = removeZeroWidthChars(s)
	s = spaceRe.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// removeControlChars 清理控制字符（保留 \n, \t, \r）
func removeControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		if r == '\n' || r == '\t' || r == '\r' {
			b.WriteRune(r)
			continue
		}
		// 跳过 C0/C1 控制字符和 DEL
		if r < 0x20 || (r >= 0x7F && r <= 0x9F) {
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

// removeZeroWidthChars 清理零宽字符
func removeZeroWidthChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		if zeroWidthRunes[r] {
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

// StripHTMLTags 去除HTML标签并压缩空白，用于HTML文档解析
func StripHTMLTags(raw string) string {
	s := htmlTagRe.ReplaceAllString(raw, " ")
	s = allSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

var (
	htmlTagRe  = regexp.MustCompile(`<[^>]+>`)
	allSpaceRe = regexp.MustCompile(`\s+`)
)
