package storage

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"resume-filter-go/internal/config"
	"resume-filter-go/internal/constants"
	"resume-filter-go/internal/tracing"
)

// ErrNotFound 键不存在，包装底层的 redis.Nil 以便上层不直接依赖驱动
var ErrNotFound = redis.Nil

var redisTracer = otel.Tracer("resume-filter-go/storage/redis")

// Redis Key前缀采样率配置，高频的缓存读写只保留少量span
var redisKeySamplingRates = map[string]float64{
	"app:file:":     0.25, // 去重操作采样25%
	"app:analysis:": 0.05, // 结果缓存采样5%
	"app:summary:":  0.1,  // 摘要缓存采样10%
}

var (
	rnd      *rand.Rand
	rndMutex sync.Mutex
)

func init() {
	rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
}

// shouldSampleRedisOp 根据key前缀决定是否需要创建span
func shouldSampleRedisOp(key string) bool {
	if key == "" {
		return false
	}
	for prefix, rate := range redisKeySamplingRates {
		if strings.HasPrefix(key, prefix) {
			return randFloat() < rate
		}
	}
	return randFloat() < 0.05
}

func randFloat() float64 {
	rndMutex.Lock()
	defer rndMutex.Unlock()
	return rnd.Float64()
}

// Redis 键值存储适配器
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter 创建Redis客户端连接
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis配置不能为空")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis地址不能为空")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	}

	client := redis.NewClient(opt)

	// 添加OpenTelemetry钩子，记录所有Redis操作
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("注册Redis OpenTelemetry钩子失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("连接Redis %s 失败: %w", cfg.Address, err)
	}

	return &Redis{Client: client, config: cfg}, nil
}

// Close 关闭Redis连接
func (r *Redis) Close() error {
	return r.Client.Close()
}

// Ping 检查连接可用性
func (r *Redis) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

// GetMD5ExpireDuration 返回MD5去重记录的过期时长
func (r *Redis) GetMD5ExpireDuration() time.Duration {
	days := r.config.MD5RecordExpireDays
	if days <= 0 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}

// CheckAndAddFileMD5 原子性地检查并登记文件MD5，返回是否已存在
// 重复上传的文件据此走缓存路径而不是重新解析
func (r *Redis) CheckAndAddFileMD5(ctx context.Context, md5Hex string) (exists bool, err error) {
	ctx, span := redisTracer.Start(ctx, "Redis.CheckAndAddFileMD5",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		semconv.DBSystemRedis,
		attribute.String("net.peer.name", r.config.Address),
		attribute.String("db.operation", "EVAL"),
		attribute.String("db.redis.key", constants.KeyFileMD5Set),
	)

	if r.Client == nil {
		err = fmt.Errorf("redis客户端未初始化")
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return false, err
	}

	// Lua脚本保证SISMEMBER和SADD的原子性
	script := `
		local exists = redis.call('SISMEMBER', KEYS[1], ARGV[1])
		redis.call('SADD', KEYS[1], ARGV[1])
		redis.call('EXPIRE', KEYS[1], ARGV[2])
		return exists
	`
	expiry := r.GetMD5ExpireDuration().Seconds()

	res, err := r.Client.Eval(ctx, script, []string{constants.KeyFileMD5Set}, md5Hex, expiry).Result()
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return false, fmt.Errorf("执行原子检查和添加操作失败: %w", err)
	}

	existsVal, ok := res.(int64)
	if !ok {
		err = fmt.Errorf("意外的Redis返回类型: %T", res)
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return false, err
	}

	exists = existsVal == 1
	span.SetAttributes(attribute.Bool("already_exists", exists))
	span.SetStatus(codes.Ok, "")
	return exists, nil
}

// RemoveFileMD5 从去重集合中移除一个MD5，供修复流程使用
func (r *Redis) RemoveFileMD5(ctx context.Context, md5Hex string) error {
	return r.Client.SRem(ctx, constants.KeyFileMD5Set, md5Hex).Err()
}

// CacheAnalysisResult 缓存一份简历针对某个关键词规格的分析结果JSON
func (r *Redis) CacheAnalysisResult(ctx context.Context, fileMD5, specHash string, resultJSON string) error {
	key := fmt.Sprintf(constants.KeyAnalysisResult, fileMD5, specHash)
	return r.set(ctx, key, resultJSON, constants.ResultCacheDuration)
}

// GetCachedAnalysisResult 读取缓存的分析结果，未命中返回ErrNotFound
func (r *Redis) GetCachedAnalysisResult(ctx context.Context, fileMD5, specHash string) (string, error) {
	key := fmt.Sprintf(constants.KeyAnalysisResult, fileMD5, specHash)
	return r.get(ctx, key)
}

// CacheAISummary 缓存AI摘要文本
func (r *Redis) CacheAISummary(ctx context.Context, fileMD5 string, summary string) error {
	key := fmt.Sprintf(constants.KeyAISummary, fileMD5)
	return r.set(ctx, key, summary, constants.SummaryCacheDuration)
}

// GetCachedAISummary 读取缓存的AI摘要，未命中返回ErrNotFound
func (r *Redis) GetCachedAISummary(ctx context.Context, fileMD5 string) (string, error) {
	key := fmt.Sprintf(constants.KeyAISummary, fileMD5)
	return r.get(ctx, key)
}

// get 带采样追踪的GET
func (r *Redis) get(ctx context.Context, key string) (string, error) {
	if shouldSampleRedisOp(key) {
		var span trace.Span
		ctx, span = redisTracer.Start(ctx, "Redis.GET",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemRedis,
				attribute.String("db.operation", "GET"),
				attribute.String("db.redis.key", tracing.SafeRedisKey(key)),
			))
		defer span.End()
	}

	val, err := r.Client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("读取Redis键 %s 失败: %w", key, err)
	}
	return val, nil
}

// set 带采样追踪的SET
func (r *Redis) set(ctx context.Context, key string, value string, expiration time.Duration) error {
	if shouldSampleRedisOp(key) {
		var span trace.Span
		ctx, span = redisTracer.Start(ctx, "Redis.SET",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemRedis,
				attribute.String("db.operation", "SET"),
				attribute.String("db.redis.key", tracing.SafeRedisKey(key)),
			))
		defer span.End()
	}

	if err := r.Client.Set(ctx, key, value, expiration).Err(); err != nil {
		return fmt.Errorf("写入Redis键 %s 失败: %w", key, err)
	}
	return nil
}
