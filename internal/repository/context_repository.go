package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"supporter-agent-go/internal/model"
	"supporter-agent-go/pkg/log"
)

// contextCacheTTL 是上下文缓存的过期时间。
const contextCacheTTL = 10 * time.Minute

// ContextRepository 接口定义了版本化用户上下文的持久化操作。
// 写入以乐观并发控制保护：version 列既是校验条件也是递增目标。
type ContextRepository interface {
	Get(ctx context.Context, userID string) (*model.UserContext, error)
	Create(ctx context.Context, uc *model.UserContext) error
	CompareAndSwap(ctx context.Context, uc *model.UserContext, expectedVersion int64) error
}

// contextRepository 是 ContextRepository 的实现：MySQL 权威存储 + Redis 读穿缓存。
type contextRepository struct {
	db          *gorm.DB
	redisClient *redis.Client
}

// NewContextRepository 创建一个新的 ContextRepository 实例。
func NewContextRepository(db *gorm.DB, redisClient *redis.Client) ContextRepository {
	return &contextRepository{db: db, redisClient: redisClient}
}

func contextCacheKey(userID string) string {
	return fmt.Sprintf("context:%s", userID)
}

// Get 读取用户上下文。优先命中 Redis 缓存；缓存异常只降级为回源，不上抛。
// 数据库无记录时返回 model.ErrNotFound。
func (r *contextRepository) Get(ctx context.Context, userID string) (*model.UserContext, error) {
	key := contextCacheKey(userID)

	cached, err := r.redisClient.Get(ctx, key).Result()
	if err == nil {
		var uc model.UserContext
		if jsonErr := json.Unmarshal([]byte(cached), &uc); jsonErr == nil {
			return &uc, nil
		}
		log.Warnw("corrupt context cache entry, falling back to database", "userId", userID)
	} else if err != redis.Nil {
		log.Warnw("redis get failed, falling back to database", "userId", userID, "err", err)
	}

	var row model.UserContextRow
	err = r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	uc := row.ToContext()
	r.cache(ctx, &uc)
	return &uc, nil
}

// Create 首次写入用户上下文，version 固定为 1。
func (r *contextRepository) Create(ctx context.Context, uc *model.UserContext) error {
	uc.Version = 1
	uc.LastUpdated = time.Now()
	row := model.RowFromContext(*uc)

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create user context: %w", err)
	}
	r.cache(ctx, uc)
	return nil
}

// CompareAndSwap 以乐观并发控制写入新上下文：
// 仅当数据库中 version 仍等于 expectedVersion 时才写入 version+1；
// 否则返回 model.ErrVersionConflict，由调用方决定重试。
func (r *contextRepository) CompareAndSwap(ctx context.Context, uc *model.UserContext, expectedVersion int64) error {
	uc.Version = expectedVersion + 1
	uc.LastUpdated = time.Now()
	row := model.RowFromContext(*uc)

	res := r.db.WithContext(ctx).
		Model(&model.UserContextRow{}).
		Where("user_id = ? AND version = ?", uc.UserID, expectedVersion).
		Select("profile", "preferences", "engagement_history", "version", "last_updated").
		Updates(&row)
	if res.Error != nil {
		return fmt.Errorf("failed to update user context: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.ErrVersionConflict
	}

	r.cache(ctx, uc)
	return nil
}

// cache 将上下文写入 Redis。缓存写入失败只记日志。
func (r *contextRepository) cache(ctx context.Context, uc *model.UserContext) {
	data, err := json.Marshal(uc)
	if err != nil {
		log.Warnw("failed to marshal context for cache", "userId", uc.UserID, "err", err)
		return
	}
	if err := r.redisClient.Set(ctx, contextCacheKey(uc.UserID), data, contextCacheTTL).Err(); err != nil {
		log.Warnw("failed to cache user context", "userId", uc.UserID, "err", err)
	}
}
