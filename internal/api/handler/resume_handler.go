package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"resume-filter-go/internal/analyzer"
	"resume-filter-go/internal/config"
	"resume-filter-go/internal/exporter"
	"resume-filter-go/internal/logger"
	"resume-filter-go/internal/storage"
	"resume-filter-go/internal/storage/models"
	"resume-filter-go/internal/types"
	"resume-filter-go/internal/utils"
)

// ResumeHandler 简历筛选处理器，负责协调上传、去重、分析与导出流程
type ResumeHandler struct {
	cfg        *config.Config
	storage    *storage.Storage
	analyzer   *analyzer.BatchAnalyzer
	summarizer analyzer.SummaryGenerator // LLM关闭时为nil
	exporter   *exporter.CSVExporter
}

// NewResumeHandler 创建简历筛选处理器
func NewResumeHandler(
	cfg *config.Config,
	st *storage.Storage,
	ba *analyzer.BatchAnalyzer,
	summarizer analyzer.SummaryGenerator,
) *ResumeHandler {
	return &ResumeHandler{
		cfg:        cfg,
		storage:    st,
		analyzer:   ba,
		summarizer: summarizer,
		exporter:   exporter.NewCSVExporter(),
	}
}

// FilterResponse 批量筛选响应
type FilterResponse struct {
	TotalResumes       int                     `json:"total_resumes"`
	ValidCandidates    int                     `json:"valid_candidates"`
	RejectedCandidates int                     `json:"rejected_candidates"`
	CSVFilePath        string                  `json:"csv_file_path"`
	Candidates         []*types.AnalysisResult `json:"candidates"`
}

// FilterRequest 批量筛选请求参数（文件内容由路由层从multipart表单解出）
type FilterRequest struct {
	Documents       []types.InputDocument
	Spec            types.KeywordSpec
	MinScore        int  // 0表示使用配置默认阈值
	GenerateSummary bool // 是否为合格候选人生成AI摘要
}

// HandleFilterResumes 批量分析简历并按阈值筛选，合格候选人导出CSV
func (h *ResumeHandler) HandleFilterResumes(ctx context.Context, req *FilterRequest) (*FilterResponse, error) {
	if len(req.Spec.Keywords) == 0 {
		return nil, analyzer.ErrMissingKeywordSpec
	}

	minScore := req.MinScore
	if minScore <= 0 {
		minScore = h.cfg.Analyzer.MinKeywordScore
	}

	results, err := h.analyzeWithCache(ctx, req.Documents, req.Spec)
	if err != nil {
		return nil, err
	}

	// 按阈值分流，扫描件和失败条目都算作不合格
	var valid []*types.AnalysisResult
	for _, r := range results {
		if r.Error == "" && r.Match != nil && r.Match.Applicable && r.Match.Score >= minScore {
			valid = append(valid, r)
		}
	}

	if req.GenerateSummary && h.summarizer != nil {
		h.attachSummaries(ctx, valid)
	}

	csvPath := "No valid candidates found - CSV not generated"
	if len(valid) > 0 {
		if path, exportErr := h.exportToObjectStore(ctx, valid); exportErr != nil {
			logger.Warn().Err(exportErr).Msg("导出CSV失败")
			csvPath = fmt.Sprintf("CSV export failed: %v", exportErr)
		} else {
			csvPath = path
		}
	}

	// 合格候选人按分数从高到低返回
	sortByScoreDesc(valid)

	return &FilterResponse{
		TotalResumes:       len(results),
		ValidCandidates:    len(valid),
		RejectedCandidates: len(results) - len(valid),
		CSVFilePath:        csvPath,
		Candidates:         valid,
	}, nil
}

// HandleAnalyzeResumes 批量分析简历，返回全部结果不做阈值过滤
func (h *ResumeHandler) HandleAnalyzeResumes(ctx context.Context, documents []types.InputDocument, spec types.KeywordSpec) (*types.AnalyzeBatchResponse, error) {
	results, err := h.analyzeWithCache(ctx, documents, spec)
	if err != nil {
		return nil, err
	}
	return &types.AnalyzeBatchResponse{Results: results}, nil
}

// HandleGetResumeRecord 查询某文件最近一次的分析记录
func (h *ResumeHandler) HandleGetResumeRecord(ctx context.Context, filename string) (*models.ResumeRecord, error) {
	if h.storage == nil || h.storage.MySQL == nil {
		return nil, fmt.Errorf("数据库未配置")
	}
	record, err := h.storage.MySQL.GetLatestResumeRecordByFilename(ctx, filename)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("查询简历记录失败: %w", err)
	}
	return record, nil
}

// HandleViewResume 读取某文件最近一次留存的原始字节，用于在线预览
func (h *ResumeHandler) HandleViewResume(ctx context.Context, filename string) ([]byte, error) {
	if h.storage == nil || h.storage.MySQL == nil || h.storage.MinIO == nil {
		return nil, fmt.Errorf("存储未配置")
	}
	record, err := h.storage.MySQL.GetLatestResumeRecordByFilename(ctx, filename)
	if err != nil {
		return nil, err
	}
	if record.ObjectKey == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return h.storage.MinIO.GetResumeFile(ctx, record.ObjectKey)
}

// HandleGetResumeDownloadURL 为某文件最近一次留存的原始文件生成预签名下载链接
func (h *ResumeHandler) HandleGetResumeDownloadURL(ctx context.Context, filename string, expiry time.Duration) (string, error) {
	if h.storage == nil || h.storage.MySQL == nil || h.storage.MinIO == nil {
		return "", fmt.Errorf("存储未配置")
	}
	record, err := h.storage.MySQL.GetLatestResumeRecordByFilename(ctx, filename)
	if err != nil {
		return "", err
	}
	if record.ObjectKey == "" {
		return "", gorm.ErrRecordNotFound
	}
	return h.storage.MinIO.GetPresignedURL(ctx, record.ObjectKey, expiry)
}

// HandleDeleteResume 删除某文件的留存对象并解除MD5去重登记，使其可以重新提交
func (h *ResumeHandler) HandleDeleteResume(ctx context.Context, filename string) error {
	if h.storage == nil || h.storage.MySQL == nil {
		return fmt.Errorf("数据库未配置")
	}
	record, err := h.storage.MySQL.GetLatestResumeRecordByFilename(ctx, filename)
	if err != nil {
		return err
	}

	if h.storage.MinIO != nil && record.ObjectKey != "" {
		if err := h.storage.MinIO.DeleteFile(ctx, record.ObjectKey); err != nil {
			logger.Warn().Err(err).Str("object_key", record.ObjectKey).Msg("删除简历对象失败")
		}
	}
	if h.storage.Redis != nil {
		if err := h.storage.Redis.RemoveFileMD5(ctx, record.ContentMD5); err != nil {
			logger.Warn().Err(err).Str("md5", record.ContentMD5).Msg("移除MD5去重登记失败")
		}
	}
	return nil
}

// HandleExportCSV 将给定的分析结果导出为CSV字节流
func (h *ResumeHandler) HandleExportCSV(results []*types.AnalysisResult) ([]byte, error) {
	return h.exporter.Export(results)
}

// analyzeWithCache 执行批量分析，对重复文件优先返回缓存结果
// 缓存键同时包含文件MD5和关键词规格哈希，同一文件换一套关键词仍会重新计分
func (h *ResumeHandler) analyzeWithCache(ctx context.Context, documents []types.InputDocument, spec types.KeywordSpec) ([]*types.AnalysisResult, error) {
	if len(spec.Keywords) == 0 {
		return nil, analyzer.ErrMissingKeywordSpec
	}

	specHash := utils.KeywordSpecHash(spec.Keywords, spec.DoubleWeight)
	results := make([]*types.AnalysisResult, len(documents))
	md5s := make([]string, len(documents))

	var toAnalyze []types.InputDocument
	var toAnalyzeIdx []int

	for i, doc := range documents {
		md5s[i] = utils.CalculateMD5(doc.Content)

		if cached := h.lookupCachedResult(ctx, md5s[i], specHash); cached != nil {
			logger.Debug().
				Str("filename", doc.Filename).
				Str("md5", md5s[i]).
				Msg("命中分析结果缓存")
			results[i] = cached
			continue
		}
		toAnalyze = append(toAnalyze, doc)
		toAnalyzeIdx = append(toAnalyzeIdx, i)
	}

	if len(toAnalyze) > 0 {
		resp, err := h.analyzer.AnalyzeBatch(ctx, &types.AnalyzeBatchRequest{
			Documents: toAnalyze,
			Spec:      spec,
		})
		if err != nil {
			return nil, err
		}
		for j, r := range resp.Results {
			i := toAnalyzeIdx[j]
			results[i] = r
			h.persistResult(ctx, documents[i], md5s[i], specHash, r)
		}
	}

	return results, nil
}

// lookupCachedResult 读取缓存的分析结果，任何缓存层故障都按未命中处理
func (h *ResumeHandler) lookupCachedResult(ctx context.Context, fileMD5, specHash string) *types.AnalysisResult {
	if h.storage == nil || h.storage.Redis == nil {
		return nil
	}
	raw, err := h.storage.Redis.GetCachedAnalysisResult(ctx, fileMD5, specHash)
	if err != nil {
		if err != storage.ErrNotFound {
			logger.Warn().Err(err).Str("md5", fileMD5).Msg("读取分析结果缓存失败")
		}
		return nil
	}

	var result types.AnalysisResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		logger.Warn().Err(err).Str("md5", fileMD5).Msg("缓存的分析结果反序列化失败")
		return nil
	}
	return &result
}

// persistResult 落库存储：登记去重MD5、缓存结果、留存原始文件和上传记录
// 存储层故障只记日志，不影响分析结果返回
func (h *ResumeHandler) persistResult(ctx context.Context, doc types.InputDocument, fileMD5, specHash string, result *types.AnalysisResult) {
	if h.storage == nil {
		return
	}

	if h.storage.Redis != nil {
		if _, err := h.storage.Redis.CheckAndAddFileMD5(ctx, fileMD5); err != nil {
			logger.Warn().Err(err).Str("md5", fileMD5).Msg("登记文件MD5失败")
		}
		if resultJSON, err := json.Marshal(result); err == nil {
			if err := h.storage.Redis.CacheAnalysisResult(ctx, fileMD5, specHash, string(resultJSON)); err != nil {
				logger.Warn().Err(err).Str("md5", fileMD5).Msg("缓存分析结果失败")
			}
		}
	}

	if h.storage.MySQL == nil {
		return
	}

	record := &models.ResumeRecord{
		Filename:     doc.Filename,
		ContentMD5:   fileMD5,
		FileSize:     int64(len(doc.Content)),
		Status:       string(types.StateCompleted),
		IsImageBased: result.Document.IsImageBased,
	}
	if result.Error != "" {
		record.Status = string(types.StateFailed)
	}
	if result.Match != nil && result.Match.Applicable {
		score := result.Match.Score
		record.Score = &score
	}
	if analysisJSON, err := json.Marshal(result); err == nil {
		record.AnalysisJSON = analysisJSON
	}

	// 同一文件换关键词重新分析时更新已有记录，不产生重复行
	if existing, err := h.storage.MySQL.GetResumeRecordByMD5(ctx, fileMD5); err == nil {
		if err := h.storage.MySQL.UpdateResumeRecordAnalysis(ctx, existing.RecordID,
			record.Status, record.Score, record.IsImageBased, record.AnalysisJSON); err != nil {
			logger.Warn().Err(err).Str("record_id", existing.RecordID).Msg("更新简历分析记录失败")
		}
		return
	}

	if h.storage.MinIO != nil && result.Error == "" {
		if err := h.storage.MySQL.CreateResumeRecord(ctx, record); err != nil {
			logger.Warn().Err(err).Str("filename", doc.Filename).Msg("写入简历上传记录失败")
			return
		}
		objectKey, err := h.storage.MinIO.UploadResumeFile(ctx, record.RecordID, doc.Filename, doc.Content)
		if err != nil {
			logger.Warn().Err(err).Str("filename", doc.Filename).Msg("上传原始简历到MinIO失败")
			return
		}
		record.ObjectKey = objectKey
		if err := h.storage.MySQL.DB().WithContext(ctx).
			Model(&models.ResumeRecord{}).
			Where("record_id = ?", record.RecordID).
			Update("object_key", objectKey).Error; err != nil {
			logger.Warn().Err(err).Str("record_id", record.RecordID).Msg("回填对象键失败")
		}
		return
	}

	if err := h.storage.MySQL.CreateResumeRecord(ctx, record); err != nil {
		logger.Warn().Err(err).Str("filename", doc.Filename).Msg("写入简历上传记录失败")
	}
}

// attachSummaries 为合格候选人补充AI摘要
// 异步模式下投递RabbitMQ任务立即返回，同步模式下逐个调用LLM
func (h *ResumeHandler) attachSummaries(ctx context.Context, candidates []*types.AnalysisResult) {
	for _, c := range candidates {
		if c.Document.IsImageBased || c.Match == nil {
			continue
		}

		fileMD5 := ""
		if h.storage != nil && h.storage.Redis != nil {
			fileMD5 = utils.CalculateMD5([]byte(c.Document.RawText))
			if summary, err := h.storage.Redis.GetCachedAISummary(ctx, fileMD5); err == nil {
				c.AISummary = &summary
				continue
			}
		}

		if h.cfg.LLM.Async && h.storage != nil && h.storage.RabbitMQ != nil {
			// 带上记录ID，消费者生成摘要后才能回填到数据库
			recordID := ""
			if h.storage.MySQL != nil {
				if record, err := h.storage.MySQL.GetLatestResumeRecordByFilename(ctx, c.Document.Filename); err == nil {
					recordID = record.RecordID
				}
			}
			task := buildSummaryTask(c, fileMD5, recordID, h.cfg.LLM.MaxText)
			if err := h.storage.RabbitMQ.PublishSummaryTask(ctx, task); err != nil {
				logger.Warn().Err(err).Str("filename", c.Document.Filename).Msg("投递AI摘要任务失败")
			}
			continue
		}

		summary, err := h.summarizer.GenerateSummary(ctx, c.Document.RawText, c.Match.Found, c.Match.Missing, c.Match.Score)
		if err != nil {
			logger.Warn().Err(err).Str("filename", c.Document.Filename).Msg("生成AI摘要失败")
			continue
		}
		c.AISummary = &summary

		if fileMD5 != "" {
			if err := h.storage.Redis.CacheAISummary(ctx, fileMD5, summary); err != nil {
				logger.Warn().Err(err).Str("md5", fileMD5).Msg("缓存AI摘要失败")
			}
		}
	}
}

// buildSummaryTask 组装异步AI摘要任务消息
func buildSummaryTask(c *types.AnalysisResult, fileMD5, recordID string, maxText int) *storage.SummaryTaskMessage {
	return &storage.SummaryTaskMessage{
		RecordID:   recordID,
		FileMD5:    fileMD5,
		Filename:   c.Document.Filename,
		ResumeText: truncateText(c.Document.RawText, maxText),
		Found:      c.Match.Found,
		Missing:    c.Match.Missing,
		Score:      c.Match.Score,
	}
}

// exportToObjectStore 导出CSV并上传到对象存储，返回对象键
func (h *ResumeHandler) exportToObjectStore(ctx context.Context, candidates []*types.AnalysisResult) (string, error) {
	data, err := h.exporter.Export(candidates)
	if err != nil {
		return "", err
	}

	if h.storage == nil || h.storage.MinIO == nil {
		return "", fmt.Errorf("对象存储未配置")
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("filtered_candidates_%s.csv", timestamp)
	return h.storage.MinIO.UploadResumeFile(ctx, "exports", filename, data)
}

// sortByScoreDesc 按分数从高到低原地排序
func sortByScoreDesc(results []*types.AnalysisResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Match.Score > results[j].Match.Score
	})
}

// truncateText 截断超长文本
func truncateText(text string, max int) string {
	if max > 0 && len(text) > max {
		return text[:max]
	}
	return text
}
