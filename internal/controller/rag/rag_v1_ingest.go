package rag

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/gogf/gf/v2/errors/gerror"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/google/uuid"

	v1 "github.com/qq642160575-ship-it/rag/api/rag/v1"
	"github.com/qq642160575-ship-it/rag/core/chunker"
	"github.com/qq642160575-ship-it/rag/core/common"
	"github.com/qq642160575-ship-it/rag/core/config"
	"github.com/qq642160575-ship-it/rag/core/parser"
	"github.com/qq642160575-ship-it/rag/core/vector_store"
	"github.com/qq642160575-ship-it/rag/internal/dao"
	"github.com/qq642160575-ship-it/rag/internal/logic/rag"
	gormModel "github.com/qq642160575-ship-it/rag/internal/model/gorm"
)

func (c *ControllerV1) Ingest(ctx context.Context, req *v1.IngestReq) (res *v1.IngestRes, err error) {
	svr := rag.GetSvr()

	var (
		fileSHA256 string
		fileName   string
	)

	// 步骤1: 计算SHA256，文件与URL来源统一处理
	if req.File != nil {
		fileSHA256, err = common.CalculateFileSHA256(req.File.FileHeader)
		if err != nil {
			g.Log().Errorf(ctx, "calculate file SHA256 failed, err=%v", err)
			return
		}
		fileName = req.File.Filename
	} else if req.URL != "" {
		fileSHA256, err = common.CalculateURLFileSHA256(req.URL)
		if err != nil {
			g.Log().Errorf(ctx, "calculate URL file SHA256 failed, err=%v", err)
			return
		}
		fileName = common.FileNameFromURL(req.URL)
	} else {
		return nil, gerror.New("no file or URL provided")
	}

	if !parser.IsSupported(fileName) {
		return nil, gerror.Newf("unsupported file format: %s", fileName)
	}

	// 提供方参数仅可选择服务已配置的后端
	if err = checkProviders(ctx, req); err != nil {
		return
	}

	// 步骤2: SHA256去重检查
	count, err := dao.CountDocumentsBySHA256(ctx, fileSHA256)
	if err != nil {
		return
	}
	if count > 0 {
		return nil, gerror.Newf("file already exists in the knowledge base, sha256=%s", fileSHA256)
	}

	// 步骤3: 保存原始文件
	location, err := saveSourceFile(ctx, req, fileName)
	if err != nil {
		return
	}

	// 步骤4: 登记文档记录
	record := &gormModel.RagDocuments{
		ID:            uuid.New().String(),
		FileName:      fileName,
		SHA256:        fileSHA256,
		Location:      location,
		ChunkSize:     req.ChunkSize,
		ChunkOverlap:  req.ChunkOverlap,
		ChunkStrategy: req.ChunkStrategy,
		Status:        v1.StatusIndexing,
	}
	if err = dao.SaveDocument(ctx, record); err != nil {
		return
	}

	// 步骤5: 解析并摄入
	chunkIds, err := ingestFile(ctx, svr, record, req.StorePath)
	if err != nil {
		_ = dao.UpdateDocumentStatus(ctx, record.ID, v1.StatusFailed, 0)
		return nil, err
	}

	if err = dao.UpdateDocumentStatus(ctx, record.ID, v1.StatusActive, len(chunkIds)); err != nil {
		return
	}

	res = &v1.IngestRes{
		DocumentId: record.ID,
		ChunkIds:   chunkIds,
		Count:      len(chunkIds),
	}
	return
}

// checkProviders 校验请求指定的提供方与服务配置一致
func checkProviders(ctx context.Context, req *v1.IngestReq) error {
	embedCfg := config.EmbeddingConfig(ctx)
	storeCfg := config.VectorStoreConfig(ctx)

	if req.EmbedProvider != "" && req.EmbedProvider != embedCfg.Provider {
		return gerror.Newf("embed provider %q is not configured", req.EmbedProvider)
	}
	if req.StoreProvider != "" && req.StoreProvider != string(storeCfg.Type) {
		return gerror.Newf("store provider %q is not configured", req.StoreProvider)
	}
	if req.StorePath != "" && storeCfg.Type != vector_store.StoreTypeFlat {
		return gerror.New("store_path is only supported by the flat backend")
	}
	return nil
}

// saveSourceFile 保存上传文件或下载URL文件到文件存储
func saveSourceFile(ctx context.Context, req *v1.IngestReq, fileName string) (string, error) {
	svr := rag.GetSvr()

	if req.File != nil {
		src, err := req.File.Open()
		if err != nil {
			return "", gerror.Newf("open uploaded file failed: %v", err)
		}
		defer src.Close()
		return svr.Files.Save(ctx, "documents", fileName, src)
	}

	resp, err := g.Client().Get(ctx, req.URL)
	if err != nil {
		return "", gerror.Newf("download url failed: %v", err)
	}
	defer resp.Close()
	return svr.Files.Save(ctx, "documents", fileName, resp.Body)
}

// ingestFile 解析文件并执行分块、向量化和入库，storePath覆盖本次持久化目录。
// 解析经由存储后端读出到临时文件，结束后无论成败都删除临时文件。
func ingestFile(ctx context.Context, svr *rag.Service, record *gormModel.RagDocuments, storePath string) ([]string, error) {
	src, err := svr.Files.Open(ctx, record.Location)
	if err != nil {
		return nil, gerror.Newf("open stored file failed: %v", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "rag-ingest-*"+filepath.Ext(record.FileName))
	if err != nil {
		return nil, gerror.Newf("create temp file failed: %v", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err = io.Copy(tmp, src); err != nil {
		tmp.Close()
		return nil, gerror.Newf("copy stored file failed: %v", err)
	}
	if err = tmp.Close(); err != nil {
		return nil, gerror.Newf("close temp file failed: %v", err)
	}

	doc, err := parser.ParseFile(ctx, tmpPath)
	if err != nil {
		return nil, err
	}

	opts := &chunker.Options{
		ChunkSize:    record.ChunkSize,
		ChunkOverlap: record.ChunkOverlap,
		Strategy:     chunker.Strategy(record.ChunkStrategy),
		Source:       record.FileName,
	}
	if storePath != "" {
		return svr.Pipeline.IngestDocumentTo(ctx, doc, opts, storePath)
	}
	return svr.Pipeline.IngestDocument(ctx, doc, opts)
}
