package errors

// ErrCode 业务错误码类型
type ErrCode int

const (
	// 通用错误 1000-1999
	ErrInvalidParameter ErrCode = 1001 // 参数错误
	ErrInternalError    ErrCode = 1002 // 内部错误
	ErrNotFound         ErrCode = 1003 // 资源未找到
	ErrAlreadyExists    ErrCode = 1004 // 资源已存在
	ErrConfiguration    ErrCode = 1005 // 配置缺失或不合法

	// 模型相关 2000-2999
	ErrEmbeddingFailed ErrCode = 2001 // Embedding调用失败
	ErrLLMCallFailed   ErrCode = 2002 // LLM调用失败
	ErrBadModelOutput  ErrCode = 2003 // 模型结构化输出不合法
	ErrRerankFailed    ErrCode = 2004 // Rerank失败

	// 文档相关 3000-3999
	ErrDocumentParseFailed ErrCode = 3001 // 文档解析失败
	ErrUnsupportedFormat   ErrCode = 3002 // 不支持的文档格式
	ErrPromptNotFound      ErrCode = 3003 // 提示词模板未找到

	// 存储相关 4000-4999
	ErrUnsupportedStore ErrCode = 4001 // 不支持的向量存储类型
	ErrVectorInsert     ErrCode = 4002 // 向量写入失败
	ErrVectorSearch     ErrCode = 4003 // 向量检索失败
	ErrStorePersist     ErrCode = 4004 // 向量存储持久化失败
	ErrDimensionMatch   ErrCode = 4005 // 向量维度不匹配

	// 文件存储相关 5000-5999
	ErrFileUploadFailed ErrCode = 5001 // 文件上传失败
	ErrFileReadFailed   ErrCode = 5002 // 文件读取失败
	ErrFileDeleteFailed ErrCode = 5003 // 文件删除失败
)
