package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"gorm.io/gorm"

	"resume-filter-go/internal/analyzer"
	"resume-filter-go/internal/api/handler"
	"resume-filter-go/internal/storage"
	"resume-filter-go/internal/types"
)

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz, resumeHandler *handler.ResumeHandler, profileHandler *handler.ProfileHandler) {
	api := h.Group("/api/v1")

	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok", "message": "service is running"})
	})

	// 批量筛选：multipart上传多份简历，按关键词打分并过滤
	api.POST("/resumes/filter", func(c context.Context, ctx *app.RequestContext) {
		documents, err := collectUploadedFiles(ctx)
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
			return
		}

		spec := types.KeywordSpec{
			Keywords:     splitFormList(ctx.PostForm("keywords")),
			DoubleWeight: splitFormList(ctx.PostForm("double_weight_keywords")),
		}

		minScore := 0
		if v := ctx.PostForm("min_score"); v != "" {
			if n, convErr := strconv.Atoi(v); convErr == nil {
				minScore = n
			}
		}
		generateSummary := ctx.PostForm("generate_ai_summary") == "true"

		resp, err := resumeHandler.HandleFilterResumes(c, &handler.FilterRequest{
			Documents:       documents,
			Spec:            spec,
			MinScore:        minScore,
			GenerateSummary: generateSummary,
		})
		if err != nil {
			if errors.Is(err, analyzer.ErrMissingKeywordSpec) {
				ctx.JSON(consts.StatusBadRequest, utils.H{"error": "关键词不能为空"})
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	// 批量分析：返回全部结果，不做阈值过滤
	api.POST("/resumes/analyze", func(c context.Context, ctx *app.RequestContext) {
		documents, err := collectUploadedFiles(ctx)
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
			return
		}

		spec := types.KeywordSpec{
			Keywords:     splitFormList(ctx.PostForm("keywords")),
			DoubleWeight: splitFormList(ctx.PostForm("double_weight_keywords")),
		}

		resp, err := resumeHandler.HandleAnalyzeResumes(c, documents, spec)
		if err != nil {
			if errors.Is(err, analyzer.ErrMissingKeywordSpec) {
				ctx.JSON(consts.StatusBadRequest, utils.H{"error": "关键词不能为空"})
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	// 查询某文件最近一次的分析记录
	api.GET("/resumes/:filename", func(c context.Context, ctx *app.RequestContext) {
		filename := ctx.Param("filename")
		record, err := resumeHandler.HandleGetResumeRecord(c, filename)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.JSON(consts.StatusNotFound, utils.H{"error": "未找到该文件的分析记录"})
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, record)
	})

	// 在线预览留存的原始文件
	api.GET("/resumes/:filename/view", func(c context.Context, ctx *app.RequestContext) {
		filename := ctx.Param("filename")
		data, err := resumeHandler.HandleViewResume(c, filename)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.JSON(consts.StatusNotFound, utils.H{"error": "未找到该文件的留存对象"})
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.Data(consts.StatusOK, contentTypeForFilename(filename), data)
	})

	// 获取留存原始文件的预签名下载链接
	api.GET("/resumes/:filename/download", func(c context.Context, ctx *app.RequestContext) {
		filename := ctx.Param("filename")
		url, err := resumeHandler.HandleGetResumeDownloadURL(c, filename, 15*time.Minute)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.JSON(consts.StatusNotFound, utils.H{"error": "未找到该文件的留存对象"})
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, utils.H{"url": url})
	})

	// 删除留存文件并解除去重登记，允许重新提交
	api.DELETE("/resumes/:filename", func(c context.Context, ctx *app.RequestContext) {
		filename := ctx.Param("filename")
		if err := resumeHandler.HandleDeleteResume(c, filename); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.JSON(consts.StatusNotFound, utils.H{"error": "未找到该文件的分析记录"})
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, utils.H{"deleted": filename})
	})

	// 将候选人数据导出为CSV下载
	api.POST("/resumes/export", func(c context.Context, ctx *app.RequestContext) {
		var results []*types.AnalysisResult
		if err := json.Unmarshal(ctx.Request.Body(), &results); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体必须是分析结果数组"})
			return
		}

		data, err := resumeHandler.HandleExportCSV(results)
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}

		ctx.Response.Header.Set("Content-Disposition", `attachment; filename="filtered_candidates.csv"`)
		ctx.Data(consts.StatusOK, "text/csv; charset=utf-8", data)
	})

	// 岗位画像 CRUD
	profiles := api.Group("/job-profiles")

	profiles.GET("", func(c context.Context, ctx *app.RequestContext) {
		resp, err := profileHandler.HandleListProfiles(c, ctx.Query("category"))
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	profiles.GET("/:id", func(c context.Context, ctx *app.RequestContext) {
		view, err := profileHandler.HandleGetProfile(c, ctx.Param("id"))
		if err != nil {
			writeProfileError(ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, view)
	})

	profiles.POST("", func(c context.Context, ctx *app.RequestContext) {
		var view handler.JobProfileView
		if err := json.Unmarshal(ctx.Request.Body(), &view); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "无效的画像JSON"})
			return
		}
		created, err := profileHandler.HandleCreateProfile(c, &view)
		if err != nil {
			writeProfileError(ctx, err)
			return
		}
		ctx.JSON(consts.StatusCreated, created)
	})

	profiles.PUT("/:id", func(c context.Context, ctx *app.RequestContext) {
		var view handler.JobProfileView
		if err := json.Unmarshal(ctx.Request.Body(), &view); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "无效的画像JSON"})
			return
		}
		updated, err := profileHandler.HandleUpdateProfile(c, ctx.Param("id"), &view)
		if err != nil {
			writeProfileError(ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, updated)
	})

	profiles.DELETE("/:id", func(c context.Context, ctx *app.RequestContext) {
		if err := profileHandler.HandleDeleteProfile(c, ctx.Param("id")); err != nil {
			writeProfileError(ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, utils.H{"deleted": ctx.Param("id")})
	})
}

// collectUploadedFiles 从multipart表单收集全部上传文件
func collectUploadedFiles(ctx *app.RequestContext) ([]types.InputDocument, error) {
	form, err := ctx.MultipartForm()
	if err != nil {
		return nil, errors.New("请求必须是multipart表单")
	}

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		return nil, errors.New("未上传任何文件")
	}

	documents := make([]types.InputDocument, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			return nil, errors.New("打开上传文件失败: " + fh.Filename)
		}

		content := make([]byte, fh.Size)
		if _, err := io.ReadFull(f, content); err != nil {
			f.Close()
			return nil, errors.New("读取上传文件失败: " + fh.Filename)
		}
		f.Close()

		documents = append(documents, types.InputDocument{
			Filename:     fh.Filename,
			Content:      content,
			DeclaredType: types.FileTypeFromFilename(fh.Filename),
		})
	}
	return documents, nil
}

// contentTypeForFilename 预览响应的Content-Type
func contentTypeForFilename(filename string) string {
	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(strings.ToLower(filename), ".docx"):
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}

// splitFormList 解析关键词表单字段：JSON数组优先，兼容逗号分隔的简写。
// JSON形式下含逗号的关键词（如 "Planning, Budgeting"）不会被拆散
func splitFormList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if strings.HasPrefix(raw, "[") {
		var items []string
		if err := json.Unmarshal([]byte(raw), &items); err == nil {
			out := make([]string, 0, len(items))
			for _, item := range items {
				if item = strings.TrimSpace(item); item != "" {
					out = append(out, item)
				}
			}
			return out
		}
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// writeProfileError 将画像层错误映射为HTTP状态码
func writeProfileError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, storage.ErrProfileNotFound):
		ctx.JSON(consts.StatusNotFound, utils.H{"error": err.Error()})
	case errors.Is(err, storage.ErrDefaultProfileProtected):
		ctx.JSON(consts.StatusForbidden, utils.H{"error": err.Error()})
	case errors.Is(err, handler.ErrProfileValidation):
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
	default:
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
	}
}
