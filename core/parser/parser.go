package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dslipak/pdf"
	"github.com/gogf/gf/v2/frame/g"

	"github.com/qq642160575-ship-it/rag/core/common"
	"github.com/qq642160575-ship-it/rag/core/errors"
	"github.com/qq642160575-ship-it/rag/pkg/schema"
)

// 支持的文件扩展名
var supportedExts = map[string]bool{
	".txt":  true,
	".md":   true,
	".pdf":  true,
	".docx": true,
	".html": true,
	".htm":  true,
}

// IsSupported 判断文件扩展名是否受支持
func IsSupported(filename string) bool {
	return supportedExts[strings.ToLower(filepath.Ext(filename))]
}

// ParseFile 按扩展名解析文件，抽取纯文本并生成原始文档。
// 不支持的格式在读取文件前即返回 ErrUnsupportedFormat。
func ParseFile(ctx context.Context, path string) (*schema.RawDocument, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExts[ext] {
		return nil, errors.Newf(errors.ErrUnsupportedFormat, "unsupported file format: %s", ext)
	}

	var (
		text string
		err  error
	)
	switch ext {
	case ".txt", ".md":
		text, err = parsePlainText(path)
	case ".pdf":
		text, err = parsePDF(path)
	case ".docx":
		text, err = parseDocx(path)
	case ".html", ".htm":
		text, err = parseHTML(path)
	}
	if err != nil {
		return nil, err
	}

	g.Log().Infof(ctx, "parsed file %s, extracted %d chars", path, len(text))

	doc := schema.NewRawDocument(text, map[string]interface{}{
		"_source":    filepath.Base(path),
		"_extension": ext,
	})
	return doc, nil
}

func parsePlainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Newf(errors.ErrDocumentParseFailed, "failed to read file %s: %v", path, err)
	}
	return string(data), nil
}

func parsePDF(path string) (string, error) {
	reader, err := pdf.Open(path)
	if err != nil {
		return "", errors.Newf(errors.ErrDocumentParseFailed, "failed to open pdf %s: %v", path, err)
	}

	var buf bytes.Buffer
	content, err := reader.GetPlainText()
	if err != nil {
		return "", errors.Newf(errors.ErrDocumentParseFailed, "failed to extract pdf text %s: %v", path, err)
	}
	if _, err := io.Copy(&buf, content); err != nil {
		return "", errors.Newf(errors.ErrDocumentParseFailed, "failed to read pdf text %s: %v", path, err)
	}
	return buf.String(), nil
}

// docx正文XML结构，段落内的所有文本run拼接为一行
type docxDocument struct {
	Body struct {
		Paragraphs []struct {
			Runs []struct {
				Text string `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"body"`
}

func parseDocx(path string) (string, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return "", errors.Newf(errors.ErrDocumentParseFailed, "failed to open docx %s: %v", path, err)
	}
	defer reader.Close()

	var docFile *zip.File
	for _, f := range reader.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", errors.Newf(errors.ErrDocumentParseFailed, "docx %s has no word/document.xml", path)
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", errors.Newf(errors.ErrDocumentParseFailed, "failed to open docx body %s: %v", path, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", errors.Newf(errors.ErrDocumentParseFailed, "failed to read docx body %s: %v", path, err)
	}

	var doc docxDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", errors.Newf(errors.ErrDocumentParseFailed, "failed to parse docx body %s: %v", path, err)
	}

	lines := make([]string, 0, len(doc.Body.Paragraphs))
	for _, p := range doc.Body.Paragraphs {
		var sb strings.Builder
		for _, r := range p.Runs {
			sb.WriteString(r.Text)
		}
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, "\n"), nil
}

func parseHTML(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Newf(errors.ErrDocumentParseFailed, "failed to read html %s: %v", path, err)
	}
	return common.StripHTMLTags(string(data)), nil
}
