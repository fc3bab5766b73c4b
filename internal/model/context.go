package model

import "time"

// NotificationSettings 代表用户的通知开关。
type NotificationSettings struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
	Push  bool `json:"push"`
}

// UserPreferences 代表个性化偏好：关注话题、癌种兴趣与通知开关。
type UserPreferences struct {
	PreferredTopics      []string             `json:"preferredTopics"`
	PreferredCancerTypes []string             `json:"preferredCancerTypes"`
	NotificationSettings NotificationSettings `json:"notificationSettings"`
}

// UserContext 是跨回合、跨会话演进的用户上下文记录。
// 不变式：每次持久化写入 version 严格递增；engagementHistory 永不收缩。
type UserContext struct {
	UserID            string             `json:"userId"`
	Profile           UserProfile        `json:"profile"`
	Preferences       UserPreferences    `json:"preferences"`
	EngagementHistory []EngagementRecord `json:"engagementHistory"`
	Version           int64              `json:"version"`
	LastUpdated       time.Time          `json:"lastUpdated"`
}

// ContextPatch 是 updateContext/mergeContext 的部分更新载荷。
// nil 字段表示"未提供"，与零值区分。
type ContextPatch struct {
	Profile           *UserProfile       `json:"profile,omitempty"`
	Preferences       *UserPreferences   `json:"preferences,omitempty"`
	EngagementHistory []EngagementRecord `json:"engagementHistory,omitempty"`
}

// DefaultContext 基于档案合成一个默认上下文（version 由持久层在首次写入时定为 1）。
func DefaultContext(userID string, profile *UserProfile) UserContext {
	p := DefaultProfile(userID)
	if profile != nil {
		p = *profile
	}
	return UserContext{
		UserID:  userID,
		Profile: p,
		Preferences: UserPreferences{
			PreferredTopics:      []string{},
			PreferredCancerTypes: []string{},
			NotificationSettings: NotificationSettings{Email: true},
		},
		EngagementHistory: []EngagementRecord{},
		LastUpdated:       time.Now(),
	}
}

// UserContextRow 是 user_contexts 表的 GORM 行模型。
// 嵌套结构序列化为 JSON 列；version 列承担乐观并发校验。
type UserContextRow struct {
	UserID            string             `gorm:"primaryKey;size:64"`
	Profile           UserProfile        `gorm:"serializer:json"`
	Preferences       UserPreferences    `gorm:"serializer:json"`
	EngagementHistory []EngagementRecord `gorm:"serializer:json"`
	Version           int64              `gorm:"not null"`
	LastUpdated       time.Time          `gorm:"autoUpdateTime"`
}

func (UserContextRow) TableName() string {
	return "user_contexts"
}

// ToContext 将行模型还原为领域对象。
func (r *UserContextRow) ToContext() UserContext {
	return UserContext{
		UserID:            r.UserID,
		Profile:           r.Profile,
		Preferences:       r.Preferences,
		EngagementHistory: r.EngagementHistory,
		Version:           r.Version,
		LastUpdated:       r.LastUpdated,
	}
}

// RowFromContext 将领域对象转换为行模型。
func RowFromContext(ctx UserContext) UserContextRow {
	return UserContextRow{
		UserID:            ctx.UserID,
		Profile:           ctx.Profile,
		Preferences:       ctx.Preferences,
		EngagementHistory: ctx.EngagementHistory,
		Version:           ctx.Version,
		LastUpdated:       ctx.LastUpdated,
	}
}
