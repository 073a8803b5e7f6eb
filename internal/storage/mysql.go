package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofrs/uuid/v5"
	guuid "github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"resume-filter-go/internal/config"
	"resume-filter-go/internal/storage/models"
	"resume-filter-go/internal/tracing"
)

var mysqlTracer = otel.Tracer("resume-filter-go/storage/mysql")

// 岗位画像层的业务错误
var (
	// ErrProfileNotFound 画像不存在
	ErrProfileNotFound = errors.New("岗位画像不存在")
	// ErrDefaultProfileProtected 内置画像不允许更新或删除
	ErrDefaultProfileProtected = errors.New("内置岗位画像不允许修改")
)

// GormTracingPlugin GORM插件，向OpenTelemetry上报数据库操作追踪点
type GormTracingPlugin struct {
	tracer         trace.Tracer
	dbName         string
	disableErrSkip bool
}

// NewGormTracingPlugin 创建GORM追踪插件
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{
		tracer:         mysqlTracer,
		dbName:         dbName,
		disableErrSkip: true,
	}
}

// Name 返回插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 注册GORM回调以启用追踪
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	if err := cb.Create().Before("gorm:create").Register("otel:before_create", p.before("CREATE")); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("otel:after_create", p.after()); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("otel:before_query", p.before("SELECT")); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("otel:after_query", p.after()); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("otel:before_update", p.before("UPDATE")); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("otel:after_update", p.after()); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before("DELETE")); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after()); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("otel:before_raw", p.before("RAW")); err != nil {
		return err
	}
	if err := cb.Raw().After("gorm:raw").Register("otel:after_raw", p.after()); err != nil {
		return err
	}

	return nil
}

type gormSpanKey struct{}

// before 返回在GORM操作之前执行的回调
func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		if p.disableErrSkip && db.Statement.SkipHooks {
			return
		}

		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}

		tableName := db.Statement.Table
		if tableName == "" {
			tableName = "unknown"
		}

		spanName := fmt.Sprintf("%s %s", operation, tableName)
		newCtx, span := p.tracer.Start(ctx, spanName,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", tableName),
			),
		)

		db.Statement.Context = context.WithValue(newCtx, gormSpanKey{}, span)
	}
}

// after 返回在GORM操作之后执行的回调
func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		span, ok := db.Statement.Context.Value(gormSpanKey{}).(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(
			attribute.Int64("db.rows_affected", db.Statement.RowsAffected),
			attribute.String("db.statement", tracing.SafeSQL(db.Statement.SQL.String())),
		)

		if db.Error != nil {
			if errors.Is(db.Error, gorm.ErrRecordNotFound) {
				// 记录不存在属于正常业务分支，不按错误上报
				span.SetAttributes(attribute.String("error.type", "record_not_found"))
				span.SetStatus(codes.Ok, "record not found")
			} else {
				tracing.RecordError(span, db.Error, tracing.ErrorTypeDB)
			}
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}
}

// MySQL 提供关系数据库功能
type MySQL struct {
	db  *gorm.DB
	cfg *config.MySQLConfig
}

// NewMySQL 创建MySQL客户端并自动迁移表结构
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds)

	var logLevel logger.LogLevel
	switch cfg.LogLevel {
	case 1:
		logLevel = logger.Silent
	case 2:
		logLevel = logger.Error
	case 3:
		logLevel = logger.Warn
	case 4:
		logLevel = logger.Info
	default:
		logLevel = logger.Warn
	}

	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logLevel),
		PrepareStmt:                              true,
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute)

	m := &MySQL{db: db, cfg: cfg}

	if err := db.Use(NewGormTracingPlugin(cfg.Database)); err != nil {
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	if err := m.autoMigrateSchema(); err != nil {
		if sqlDB, derr := db.DB(); derr == nil {
			sqlDB.Close()
		}
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	return m, nil
}

// autoMigrateSchema 使用GORM自动迁移表结构，迁移期间关闭SQL日志
func (m *MySQL) autoMigrateSchema() error {
	silentLogger := logger.New(
		log.New(log.Writer(), "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
		},
	)
	silentDB := m.db.Session(&gorm.Session{Logger: silentLogger})

	return silentDB.AutoMigrate(
		&models.JobProfile{},
		&models.ResumeRecord{},
	)
}

// DB 返回GORM数据库连接实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ----- 岗位画像 CRUD -----

// ListJobProfiles 列出全部岗位画像，内置画像排前
func (m *MySQL) ListJobProfiles(ctx context.Context) ([]models.JobProfile, error) {
	var profiles []models.JobProfile
	err := m.db.WithContext(ctx).
		Order("is_default DESC, created_at ASC").
		Find(&profiles).Error
	if err != nil {
		return nil, fmt.Errorf("查询岗位画像列表失败: %w", err)
	}
	return profiles, nil
}

// ListJobProfilesByCategory 按分类查询岗位画像
func (m *MySQL) ListJobProfilesByCategory(ctx context.Context, category string) ([]models.JobProfile, error) {
	var profiles []models.JobProfile
	err := m.db.WithContext(ctx).
		Where("category = ?", category).
		Order("created_at ASC").
		Find(&profiles).Error
	if err != nil {
		return nil, fmt.Errorf("按分类查询岗位画像失败: %w", err)
	}
	return profiles, nil
}

// GetJobProfile 按ID查询岗位画像
func (m *MySQL) GetJobProfile(ctx context.Context, profileID string) (*models.JobProfile, error) {
	var profile models.JobProfile
	err := m.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("查询岗位画像失败: %w", err)
	}
	return &profile, nil
}

// CreateJobProfile 创建岗位画像，ID为空时生成随机UUID
func (m *MySQL) CreateJobProfile(ctx context.Context, profile *models.JobProfile) error {
	if profile.ProfileID == "" {
		profile.ProfileID = guuid.NewString()
	}
	if err := m.db.WithContext(ctx).Create(profile).Error; err != nil {
		return fmt.Errorf("创建岗位画像失败: %w", err)
	}
	return nil
}

// UpdateJobProfile 更新岗位画像，内置画像拒绝更新
func (m *MySQL) UpdateJobProfile(ctx context.Context, profile *models.JobProfile) error {
	existing, err := m.GetJobProfile(ctx, profile.ProfileID)
	if err != nil {
		return err
	}
	if existing.IsDefault {
		return ErrDefaultProfileProtected
	}

	updates := map[string]interface{}{
		"name":               profile.Name,
		"description":        profile.Description,
		"category":           profile.Category,
		"keywords_json":      profile.KeywordsJSON,
		"double_weight_json": profile.DoubleWeightJSON,
		"min_score":          profile.MinScore,
	}
	err = m.db.WithContext(ctx).
		Model(&models.JobProfile{}).
		Where("profile_id = ?", profile.ProfileID).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("更新岗位画像失败: %w", err)
	}
	return nil
}

// DeleteJobProfile 删除岗位画像，内置画像拒绝删除
func (m *MySQL) DeleteJobProfile(ctx context.Context, profileID string) error {
	existing, err := m.GetJobProfile(ctx, profileID)
	if err != nil {
		return err
	}
	if existing.IsDefault {
		return ErrDefaultProfileProtected
	}

	err = m.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Delete(&models.JobProfile{}).Error
	if err != nil {
		return fmt.Errorf("删除岗位画像失败: %w", err)
	}
	return nil
}

// ListProfileCategories 返回全部画像分类（去重）
func (m *MySQL) ListProfileCategories(ctx context.Context) ([]string, error) {
	var categories []string
	err := m.db.WithContext(ctx).
		Model(&models.JobProfile{}).
		Where("category <> ''").
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("查询画像分类失败: %w", err)
	}
	return categories, nil
}

// ----- 简历上传记录 -----

// CreateResumeRecord 写入一条简历上传记录
func (m *MySQL) CreateResumeRecord(ctx context.Context, record *models.ResumeRecord) error {
	if record.RecordID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("生成记录ID失败: %w", err)
		}
		record.RecordID = id.String()
	}
	if err := m.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("创建简历记录失败: %w", err)
	}
	return nil
}

// UpdateResumeRecordAnalysis 回填分析结论到上传记录
func (m *MySQL) UpdateResumeRecordAnalysis(ctx context.Context, recordID string, status string, score *int, isImageBased bool, analysisJSON []byte) error {
	updates := map[string]interface{}{
		"status":         status,
		"score":          score,
		"is_image_based": isImageBased,
	}
	if len(analysisJSON) > 0 {
		updates["analysis_json"] = analysisJSON
	}
	err := m.db.WithContext(ctx).
		Model(&models.ResumeRecord{}).
		Where("record_id = ?", recordID).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("更新简历记录失败: %w", err)
	}
	return nil
}

// UpdateResumeRecordSummary 回填AI摘要
func (m *MySQL) UpdateResumeRecordSummary(ctx context.Context, recordID string, aiSummary string) error {
	err := m.db.WithContext(ctx).
		Model(&models.ResumeRecord{}).
		Where("record_id = ?", recordID).
		Update("ai_summary", aiSummary).Error
	if err != nil {
		return fmt.Errorf("更新AI摘要失败: %w", err)
	}
	return nil
}

// GetResumeRecordByMD5 按内容MD5查询上传记录
func (m *MySQL) GetResumeRecordByMD5(ctx context.Context, md5Hex string) (*models.ResumeRecord, error) {
	var record models.ResumeRecord
	err := m.db.WithContext(ctx).
		Where("content_md5 = ?", md5Hex).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, fmt.Errorf("按MD5查询简历记录失败: %w", err)
	}
	return &record, nil
}

// GetLatestResumeRecordByFilename 按文件名查询最近一次上传记录
func (m *MySQL) GetLatestResumeRecordByFilename(ctx context.Context, filename string) (*models.ResumeRecord, error) {
	var record models.ResumeRecord
	err := m.db.WithContext(ctx).
		Where("filename = ?", filename).
		Order("submitted_at DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, fmt.Errorf("按文件名查询简历记录失败: %w", err)
	}
	return &record, nil
}
