package storage

// SummaryTaskMessage AI摘要生成任务消息
// 由上传接口投递，摘要消费者取出后调用LLM并回填结果
type SummaryTaskMessage struct {
	RecordID   string   `json:"record_id"`   // 简历上传记录ID
	FileMD5    string   `json:"file_md5"`    // 文件内容MD5，作为摘要缓存键
	Filename   string   `json:"filename"`    // 原始文件名
	ResumeText string   `json:"resume_text"` // 提取出的简历文本（已截断）
	Found      []string `json:"keywords_found"`
	Missing    []string `json:"keywords_missing"`
	Score      int      `json:"score"`
}
