package analyzer

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"resume-filter-go/internal/constants"
	"resume-filter-go/internal/tracing"
	"resume-filter-go/internal/types"
)

// Components 聚合所有功能组件依赖，便于集中管理和测试替换
type Components struct {
	Extractor TextExtractor    // 文档文本提取接口
	Matcher   *KeywordMatcher  // 关键词打分器
	History   HistoryExtractor // 工作经历抽取接口
	Presence  PresenceDetector // 地域信号探测接口
}

// Settings 纯配置项，不包含任何业务逻辑组件
type Settings struct {
	WorkerCount int              // 并发工作协程数，0 表示 runtime.NumCPU()
	DocTimeout  time.Duration    // 单文档处理超时
	Logger      zerolog.Logger   // 日志记录器
	Clock       func() time.Time // 时间源，Present 等开放式日期以此为基准
}

// BatchAnalyzer 批量简历分析编排器
// 每个文档的流水线（提取、计分、经历抽取、地域探测）彼此独立，不共享可变状态，
// 因此可以由固定大小的工作协程池并行执行；结果按输入下标写入预分配的槽位，
// 输出顺序与输入顺序严格一致，与各文档的完成先后无关。
type BatchAnalyzer struct {
	components *Components
	settings   *Settings
}

// NewBatchAnalyzer 创建批量分析编排器
func NewBatchAnalyzer(compOpts []ComponentOpt, setOpts ...SettingOpt) (*BatchAnalyzer, error) {
	components := &Components{}
	for _, opt := range compOpts {
		opt(components)
	}
	settings := &Settings{
		DocTimeout: constants.DefaultAnalyzeTimeout,
		Logger:     zerolog.Nop(),
		Clock:      time.Now,
	}
	for _, opt := range setOpts {
		opt(settings)
	}

	if components.Extractor == nil {
		return nil, errors.New("文本提取器不能为空")
	}
	if components.Matcher == nil {
		components.Matcher = NewKeywordMatcher()
	}
	if settings.WorkerCount <= 0 {
		settings.WorkerCount = runtime.NumCPU()
	}
	if settings.Clock == nil {
		settings.Clock = time.Now
	}

	return &BatchAnalyzer{
		components: components,
		settings:   settings,
	}, nil
}

// AnalyzeBatch 并发分析一批简历文档
// 契约：输入 N 个文档就返回 N 条结果且保持输入顺序，单个文档失败只落到对应条目的
// Error 字段，不中断其余文档；关键词规格为空是唯一的批级错误。
// 调用方取消上下文时放弃在途工作并整体返回 ctx.Err()，不做部分上报。
func (b *BatchAnalyzer) AnalyzeBatch(ctx context.Context, req *types.AnalyzeBatchRequest) (*types.AnalyzeBatchResponse, error) {
	if req == nil || len(req.Spec.Keywords) == 0 {
		return nil, ErrMissingKeywordSpec
	}

	tracer := otel.Tracer("analyzer")
	ctx, span := tracer.Start(ctx, "BatchAnalyzer.AnalyzeBatch",
		trace.WithAttributes(
			attribute.Int("batch.document_count", len(req.Documents)),
			attribute.Int("batch.keyword_count", len(req.Spec.Keywords)),
		))
	defer span.End()

	results := make([]*types.AnalysisResult, len(req.Documents))
	if len(req.Documents) == 0 {
		return &types.AnalyzeBatchResponse{Results: results}, nil
	}

	workers := b.settings.WorkerCount
	if workers > len(req.Documents) {
		workers = len(req.Documents)
	}

	type indexedDoc struct {
		idx int
		doc types.InputDocument
	}
	jobs := make(chan indexedDoc)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for job := range jobs {
				results[job.idx] = b.analyzeOne(ctx, job.doc, req.Spec)
			}
		}()
	}

	cancelled := false
dispatch:
	for i, doc := range req.Documents {
		select {
		case jobs <- indexedDoc{idx: i, doc: doc}:
		case <-ctx.Done():
			cancelled = true
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if cancelled || ctx.Err() != nil {
		span.SetStatus(codes.Error, "批处理被取消")
		return nil, ctx.Err()
	}

	span.SetStatus(codes.Ok, "")
	return &types.AnalyzeBatchResponse{Results: results}, nil
}

// analyzeOne 执行单个文档的完整流水线
// 状态机：PENDING -> EXTRACTED -> SCORED -> COMPLETED，提取失败直接进入 FAILED 终态
func (b *BatchAnalyzer) analyzeOne(ctx context.Context, doc types.InputDocument, spec types.KeywordSpec) *types.AnalysisResult {
	if b.settings.DocTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.settings.DocTimeout)
		defer cancel()
	}

	tracer := otel.Tracer("analyzer")
	ctx, span := tracer.Start(ctx, "BatchAnalyzer.analyzeOne",
		trace.WithAttributes(attribute.String("document.filename", doc.Filename)))
	defer span.End()

	logger := b.settings.Logger.With().Str("filename", doc.Filename).Logger()
	result := &types.AnalysisResult{
		Document: types.ParsedDocument{Filename: doc.Filename},
		ParsedAt: b.settings.Clock(),
	}
	state := types.StatePending

	parsed, err := b.components.Extractor.Parse(ctx, doc.Filename, doc.Content, doc.DeclaredType)
	if err != nil {
		state = types.StateFailed
		wrapped := NewExtractError(doc.Filename, err)
		logger.Warn().Err(err).Str("state", string(state)).Msg("简历文本提取失败")
		tracing.RecordError(span, wrapped, tracing.ErrorTypeParse)
		result.Error = wrapped.Error()
		return result
	}
	state = types.StateExtracted
	result.Document = *parsed
	span.SetAttributes(attribute.String("document.preview", tracing.SafeResumeContent(parsed.RawText)))

	// 扫描件没有可比对的文本信号，直接跳过计分和后续阶段，分值标记为不适用
	if parsed.IsImageBased {
		result.Match = &types.MatchResult{
			Found:      []string{},
			Missing:    []string{},
			Score:      0,
			Applicable: false,
		}
		state = types.StateCompleted
		logger.Info().Str("state", string(state)).Msg("疑似扫描件，跳过关键词计分")
		span.SetAttributes(attribute.Bool("document.image_based", true))
		return result
	}

	result.Match = b.components.Matcher.Match(parsed.RawText, spec)
	state = types.StateScored
	span.SetAttributes(attribute.Int("match.score", result.Match.Score))

	if b.components.History != nil {
		result.Experience = b.components.History.ExtractHistory(ctx, parsed.RawText, result.ParsedAt)
	}
	if b.components.Presence != nil {
		present := b.components.Presence.Detect(parsed.RawText)
		result.UAEPresence = &present
	}

	state = types.StateCompleted
	logger.Debug().
		Str("state", string(state)).
		Int("score", result.Match.Score).
		Msg("简历分析完成")
	return result
}
