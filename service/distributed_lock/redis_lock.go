/*
 * @module service/distributed_lock/redis_lock
 * @description Redis分布式锁实现，保证多实例部署下同一时刻只有一个ETL写入者
 * @architecture 工具层 - 提供分布式锁能力
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 获取锁 -> 执行流水线 -> 释放锁/自动过期
 * @rules 使用Redis SET NX实现，持有者令牌校验，支持锁续期和自动过期
 * @dependencies github.com/go-redis/redis/v8, github.com/google/uuid
 * @refs service/init.go, service/scheduler/scheduler_service.go
 */

package distributed_lock

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// 锁键前缀，所有流水线锁都挂在此命名空间下
const lockKeyPrefix = "energyhub:etl:lock:"

// 释放与续期都必须校验持有者令牌，避免误删其他实例的锁
const (
	unlockScript = `
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`
	refreshScript = `
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("expire", KEYS[1], ARGV[2])
		else
			return 0
		end
	`
)

// lockKeyFor 构造锁的完整键名
func lockKeyFor(key string) string {
	return lockKeyPrefix + key
}

// DistributedLock 分布式锁接口
type DistributedLock interface {
	// TryLock 尝试获取锁
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Unlock 释放锁
	Unlock(ctx context.Context, key string) error
	// Refresh 刷新锁的过期时间
	Refresh(ctx context.Context, key string, ttl time.Duration) error
	// IsLocked 检查锁是否存在
	IsLocked(ctx context.Context, key string) (bool, error)
}

// RedisLock Redis分布式锁实现
type RedisLock struct {
	client      *redis.Client
	holderToken string // 持有者令牌，主机名+进程ID+随机后缀
}

// NewRedisLock 创建Redis分布式锁
func NewRedisLock() (*RedisLock, error) {
	host := getEnvWithDefault("REDIS_HOST", "localhost")
	port := getEnvWithDefault("REDIS_PORT", "6379")

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", host, port),
		Password:     os.Getenv("REDIS_PASSWORD"),
		DB:           cast.ToInt(os.Getenv("REDIS_DB")),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis连接失败: %w", err)
	}

	// 同一主机可能跑多个副本，令牌带随机后缀保证唯一
	hostname, _ := os.Hostname()
	token := fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), uuid.NewString()[:8])

	slog.Info("Redis分布式锁初始化成功",
		"holder", token,
		"redis_host", host,
		"redis_port", port)

	return &RedisLock{
		client:      client,
		holderToken: token,
	}, nil
}

// TryLock 尝试获取锁，SET NX只在键不存在时写入
func (r *RedisLock) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	acquired, err := r.client.SetNX(ctx, lockKeyFor(key), r.holderToken, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("获取锁失败: %w", err)
	}

	if acquired {
		slog.Debug("分布式锁: 成功获取锁",
			"key", key,
			"ttl", ttl,
			"holder", r.holderToken)
	}

	return acquired, nil
}

// Unlock 释放锁，只有持有者令牌匹配时才删除
func (r *RedisLock) Unlock(ctx context.Context, key string) error {
	result, err := r.client.Eval(ctx, unlockScript, []string{lockKeyFor(key)}, r.holderToken).Result()
	if err != nil {
		return fmt.Errorf("释放锁失败: %w", err)
	}

	if cast.ToInt64(result) == 1 {
		slog.Debug("分布式锁: 成功释放锁", "key", key, "holder", r.holderToken)
	} else {
		slog.Warn("分布式锁: 锁不存在或已被其他实例持有", "key", key, "holder", r.holderToken)
	}

	return nil
}

// Refresh 刷新锁的过期时间，流水线跑批时长超过TTL时依赖续期保持独占
func (r *RedisLock) Refresh(ctx context.Context, key string, ttl time.Duration) error {
	result, err := r.client.Eval(ctx, refreshScript, []string{lockKeyFor(key)}, r.holderToken, int(ttl.Seconds())).Result()
	if err != nil {
		return fmt.Errorf("刷新锁失败: %w", err)
	}

	if cast.ToInt64(result) != 1 {
		return fmt.Errorf("锁不存在或已被其他实例持有")
	}

	slog.Debug("分布式锁: 成功刷新锁", "key", key, "ttl", ttl, "holder", r.holderToken)
	return nil
}

// IsLocked 检查锁是否存在
func (r *RedisLock) IsLocked(ctx context.Context, key string) (bool, error) {
	exists, err := r.client.Exists(ctx, lockKeyFor(key)).Result()
	if err != nil {
		return false, fmt.Errorf("检查锁状态失败: %w", err)
	}

	return exists > 0, nil
}

// Close 关闭Redis客户端
func (r *RedisLock) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// LockExecutor 带锁执行器，调度器通过它保证跑批互斥
type LockExecutor struct {
	lock DistributedLock
}

// NewLockExecutor 创建带锁执行器
func NewLockExecutor(lock DistributedLock) *LockExecutor {
	return &LockExecutor{lock: lock}
}

// acquire 尝试获取锁，锁被其他实例持有时返回false且不报错
func (e *LockExecutor) acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	locked, err := e.lock.TryLock(ctx, key, ttl)
	if err != nil {
		return false, fmt.Errorf("获取锁失败: %w", err)
	}
	if !locked {
		slog.Debug("分布式锁: 锁已被其他实例持有，跳过执行", "key", key)
	}
	return locked, nil
}

// release 释放锁，失败只记日志，锁会随TTL自动过期
func (e *LockExecutor) release(ctx context.Context, key string) {
	if err := e.lock.Unlock(ctx, key); err != nil {
		slog.Error("分布式锁: 释放锁失败", "key", key, "error", err)
	}
}

// ExecuteWithLock 在锁保护下执行函数，未抢到锁时静默跳过
func (e *LockExecutor) ExecuteWithLock(ctx context.Context, key string, ttl time.Duration, fn func() error) error {
	locked, err := e.acquire(ctx, key, ttl)
	if err != nil || !locked {
		return err
	}

	defer e.release(ctx, key)
	return fn()
}

// ExecuteWithLockAndRefresh 在锁保护下执行函数，后台按间隔续期
// 流水线全量跑批可能超过锁TTL，续期保证跑批期间锁不被其他实例抢走
func (e *LockExecutor) ExecuteWithLockAndRefresh(ctx context.Context, key string, ttl time.Duration, refreshInterval time.Duration, fn func() error) error {
	locked, err := e.acquire(ctx, key, ttl)
	if err != nil || !locked {
		return err
	}

	refreshCtx, stopRefresh := context.WithCancel(ctx)
	defer stopRefresh()

	go func() {
		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-refreshCtx.Done():
				return
			case <-ticker.C:
				if refreshErr := e.lock.Refresh(ctx, key, ttl); refreshErr != nil {
					slog.Error("分布式锁: 续期失败", "key", key, "error", refreshErr)
				}
			}
		}
	}()

	defer e.release(ctx, key)
	return fn()
}
