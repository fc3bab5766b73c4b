package model

import "time"

// InteractionType 标识一条分析事件的类型。
type InteractionType string

const (
	InteractionSessionStart  InteractionType = "session_start"
	InteractionSessionResume InteractionType = "session_resume"
	InteractionSessionEnd    InteractionType = "session_end"
	InteractionMessage       InteractionType = "message"
	InteractionSearch        InteractionType = "search"
	InteractionFeedback      InteractionType = "feedback"
	InteractionPageVisit     InteractionType = "page_visit"
)

// Interaction 是发往分析管道的单条事件。
// 所有分析记录都是尽力而为：失败只记日志，绝不影响请求。
type Interaction struct {
	Type      InteractionType   `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Intent    string            `json:"intent,omitempty"`
	Sentiment string            `json:"sentiment,omitempty"` // positive / negative / neutral
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// PageVisit 是一次页面访问事件。
type PageVisit struct {
	Page      string    `json:"page"`
	Timestamp time.Time `json:"timestamp"`
	Referrer  string    `json:"referrer,omitempty"`
}

// InteractionRow 是 interactions 表的 GORM 行模型，由消费端管道写入。
type InteractionRow struct {
	ID        uint              `gorm:"primaryKey"`
	UserID    string            `gorm:"index;size:64"`
	Type      string            `gorm:"size:32"`
	Intent    string            `gorm:"size:32"`
	Sentiment string            `gorm:"size:16"`
	Metadata  map[string]string `gorm:"serializer:json"`
	Timestamp time.Time
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (InteractionRow) TableName() string {
	return "interactions"
}
