package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// FileModulePrefix 文件模块
	FileModulePrefix = "file"
	// AnalysisModulePrefix 分析模块
	AnalysisModulePrefix = "analysis"
	// SummaryModulePrefix AI摘要模块
	SummaryModulePrefix = "summary"

	// EntityDedupSet 去重集合实体
	EntityDedupSet = "dedup_set"
	// EntityResult 分析结果实体
	EntityResult = "result"
	// EntityText 文本实体
	EntityText = "text"

	// KeyFileMD5Set 文件MD5集合，用于快速去重 (SET)
	// 格式: app:file:dedup_set
	KeyFileMD5Set = AppPrefix + ":" + FileModulePrefix + ":" + EntityDedupSet

	// KeyAnalysisResult 分析结果缓存 (STRING, JSON)
	// 格式: app:analysis:result:{fileMD5}:{specHash}
	KeyAnalysisResult = AppPrefix + ":" + AnalysisModulePrefix + ":" + EntityResult + ":%s:%s"

	// KeyAISummary AI摘要缓存 (STRING)
	// 格式: app:summary:text:{fileMD5}
	KeyAISummary = AppPrefix + ":" + SummaryModulePrefix + ":" + EntityText + ":%s"
)
