// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"supporter-agent-go/internal/model"
)

// ProfileRepository 接口定义了支持者档案的持久化操作。
type ProfileRepository interface {
	FindByID(ctx context.Context, userID string) (*model.UserProfile, error)
	Create(ctx context.Context, profile *model.UserProfile) error
	Update(ctx context.Context, profile *model.UserProfile) error
	ListEngagement(ctx context.Context, userID string, limit int) ([]model.EngagementRecord, error)
	AppendEngagement(ctx context.Context, record *model.EngagementRecord) error
}

// profileRepository 是 ProfileRepository 接口的 GORM 实现。
type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository 创建一个新的 ProfileRepository 实例。
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// FindByID 根据用户 ID 查找档案，不存在时返回 model.ErrNotFound。
func (r *profileRepository) FindByID(ctx context.Context, userID string) (*model.UserProfile, error) {
	var profile model.UserProfile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Create 在数据库中创建一个新的档案记录。
func (r *profileRepository) Create(ctx context.Context, profile *model.UserProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

// Update 更新数据库中一个已存在的档案记录。
func (r *profileRepository) Update(ctx context.Context, profile *model.UserProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

// ListEngagement 按时间顺序返回用户的参与记录，limit<=0 时不限制。
func (r *profileRepository) ListEngagement(ctx context.Context, userID string, limit int) ([]model.EngagementRecord, error) {
	var records []model.EngagementRecord
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("timestamp asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&records).Error
	return records, err
}

// AppendEngagement 追加一条参与记录。参与历史只追加，永不收缩。
func (r *profileRepository) AppendEngagement(ctx context.Context, record *model.EngagementRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}
