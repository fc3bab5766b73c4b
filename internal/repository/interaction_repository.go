package repository

import (
	"context"

	"gorm.io/gorm"

	"supporter-agent-go/internal/model"
)

// InteractionRepository 接口定义了分析事件的持久化操作，由消费端管道调用。
type InteractionRepository interface {
	Insert(ctx context.Context, row *model.InteractionRow) error
	ListByUser(ctx context.Context, userID string, limit int) ([]model.InteractionRow, error)
}

// interactionRepository 是 InteractionRepository 的 GORM 实现。
type interactionRepository struct {
	db *gorm.DB
}

// NewInteractionRepository 创建一个新的 InteractionRepository 实例。
func NewInteractionRepository(db *gorm.DB) InteractionRepository {
	return &interactionRepository{db: db}
}

// Insert 写入一条分析事件。
func (r *interactionRepository) Insert(ctx context.Context, row *model.InteractionRow) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// ListByUser 按时间倒序返回用户的分析事件。
func (r *interactionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.InteractionRow, error) {
	var rows []model.InteractionRow
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("timestamp desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&rows).Error
	return rows, err
}
