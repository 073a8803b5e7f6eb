package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	"github.com/spf13/pflag"

	"resume-filter-go/internal/analyzer"
	"resume-filter-go/internal/api/handler"
	"resume-filter-go/internal/api/router"
	"resume-filter-go/internal/config"
	appLogger "resume-filter-go/internal/logger"
	"resume-filter-go/internal/parser"
	"resume-filter-go/internal/storage"
	"resume-filter-go/internal/summary"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		glog.Fatalf("加载配置失败: %v", err)
	}

	appLogger.Init(appLogger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})
	glog.SetLogger(hertzadapter.From(appLogger.Logger))
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	glog.Info("存储服务初始化成功")

	pdfExtractor, err := parser.NewEinoPDFExtractor(ctx,
		parser.WithEinoLogger(log.New(os.Stderr, "[EinoPDFMain] ", log.LstdFlags)),
		parser.WithExtractTimeout(time.Duration(cfg.Analyzer.TimeoutSeconds)*time.Second))
	if err != nil {
		glog.Fatalf("创建PDF提取器失败: %v", err)
	}
	docxExtractor := parser.NewDocxExtractor(log.New(io.Discard, "", 0))
	resumeParser := parser.NewResumeParser(pdfExtractor, docxExtractor,
		parser.WithMinTextLength(cfg.Analyzer.MinTextLength))
	glog.Info("简历解析器初始化成功")

	history := analyzer.NewExperienceExtractor(appLogger.Logger)
	presence := analyzer.NewRegionPresenceDetector(cfg.Analyzer.RegionMarkers, cfg.Analyzer.RegionDialCodes)

	batchAnalyzer, err := analyzer.NewBatchAnalyzer(
		[]analyzer.ComponentOpt{
			analyzer.WithcompExtractor(resumeParser),
			analyzer.WithcompMatcher(analyzer.NewKeywordMatcher()),
			analyzer.WithcompHistory(history),
			analyzer.WithcompPresence(presence),
		},
		analyzer.WithsetWorkerCount(cfg.Analyzer.WorkerCount),
		analyzer.WithsetDocTimeout(time.Duration(cfg.Analyzer.TimeoutSeconds)*time.Second),
		analyzer.WithsetLogger(appLogger.Logger),
	)
	if err != nil {
		glog.Fatalf("创建批量分析器失败: %v", err)
	}
	glog.Info("批量分析器初始化成功")

	var summarizer analyzer.SummaryGenerator
	if cfg.LLM.Enabled {
		qwenModel, err := summary.NewQwenChatModel(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.APIURL, appLogger.Logger)
		if err != nil {
			glog.Fatalf("初始化LLM聊天模型失败: %v", err)
		}
		var chatModel model.BaseChatModel = qwenModel
		if cfg.LLM.RequestsPerMinute > 0 {
			chatModel = summary.NewRateLimitedChatModel(qwenModel, cfg.LLM.RequestsPerMinute, appLogger.Logger)
		}
		summarizer, err = summary.NewLLMSummarizer(chatModel, appLogger.Logger,
			summary.WithMaxResumeChars(cfg.LLM.MaxText))
		if err != nil {
			glog.Fatalf("初始化AI摘要生成器失败: %v", err)
		}
		glog.Info("AI摘要生成器初始化成功")
	} else {
		glog.Info("LLM摘要已关闭")
	}

	resumeHandler := handler.NewResumeHandler(cfg, storageManager, batchAnalyzer, summarizer)
	profileHandler := handler.NewProfileHandler(storageManager)

	// 异步摘要消费者：从RabbitMQ取任务，生成摘要后写入缓存和数据库
	var consumerStop chan struct{}
	if cfg.LLM.Enabled && cfg.LLM.Async && storageManager.RabbitMQ != nil {
		if err := storageManager.RabbitMQ.SetupSummaryTopology(); err != nil {
			glog.Fatalf("声明摘要队列拓扑失败: %v", err)
		}
		consumerStop, err = startSummaryConsumer(ctx, cfg, storageManager, summarizer)
		if err != nil {
			glog.Fatalf("启动摘要消费者失败: %v", err)
		}
		glog.Info("AI摘要消费者已启动")
	}

	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		glog.CtxInfof(c, "Request: %s %s", string(ctx.Method()), string(ctx.Path()))
		ctx.Next(c)
		glog.CtxInfof(c, "Response: status %d", ctx.Response.StatusCode())
	})

	router.RegisterRoutes(h, resumeHandler, profileHandler)
	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)

	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	if consumerStop != nil {
		close(consumerStop)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Fatalf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

// startSummaryConsumer 消费AI摘要任务，处理成功才确认消息
func startSummaryConsumer(ctx context.Context, cfg *config.Config, st *storage.Storage, summarizer analyzer.SummaryGenerator) (chan struct{}, error) {
	return st.RabbitMQ.StartConsumer(cfg.RabbitMQ.SummaryQueue, cfg.RabbitMQ.PrefetchCount, func(body []byte) bool {
		var task storage.SummaryTaskMessage
		if err := json.Unmarshal(body, &task); err != nil {
			// 消息格式错误时重试没有意义，确认后丢弃
			appLogger.Warn().Err(err).Msg("摘要任务消息反序列化失败，丢弃")
			return true
		}

		taskCtx, cancel := context.WithTimeout(ctx, 90*time.Second)
		defer cancel()

		text, err := summarizer.GenerateSummary(taskCtx, task.ResumeText, task.Found, task.Missing, task.Score)
		if err != nil {
			appLogger.Warn().Err(err).Str("filename", task.Filename).Msg("异步生成AI摘要失败")
			return false
		}

		if st.Redis != nil && task.FileMD5 != "" {
			if err := st.Redis.CacheAISummary(taskCtx, task.FileMD5, text); err != nil {
				appLogger.Warn().Err(err).Str("md5", task.FileMD5).Msg("缓存AI摘要失败")
			}
		}
		if st.MySQL != nil && task.RecordID != "" {
			if err := st.MySQL.UpdateResumeRecordSummary(taskCtx, task.RecordID, text); err != nil {
				appLogger.Warn().Err(err).Str("record_id", task.RecordID).Msg("回填AI摘要失败")
			}
		}

		appLogger.Info().Str("filename", task.Filename).Msg("AI摘要生成完成")
		return true
	})
}
