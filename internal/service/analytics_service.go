package service

import (
	"context"
	"fmt"
	"time"

	"supporter-agent-go/internal/model"
	"supporter-agent-go/pkg/kafka"
	"supporter-agent-go/pkg/log"
	"supporter-agent-go/pkg/tasks"
)

// AnalyticsService 接口定义了分析事件的投递操作。
// 所有投递都是尽力而为：失败只记日志，绝不影响请求。
type AnalyticsService interface {
	Record(ctx context.Context, userID string, interaction model.Interaction) error
	RecordPageVisit(ctx context.Context, userID string, visit model.PageVisit) error
}

// kafkaAnalyticsService 将分析事件发往 Kafka，由消费端管道落库。
type kafkaAnalyticsService struct{}

// NewAnalyticsService 创建一个新的 AnalyticsService 实例。
func NewAnalyticsService() AnalyticsService {
	return &kafkaAnalyticsService{}
}

// Record 投递一条交互事件。
func (s *kafkaAnalyticsService) Record(ctx context.Context, userID string, interaction model.Interaction) error {
	task := tasks.InteractionTask{
		TaskID:      newTaskID(userID),
		UserID:      userID,
		Interaction: interaction,
	}
	if err := kafka.ProduceInteractionTask(ctx, task); err != nil {
		log.Warnw("failed to produce interaction task",
			"userId", userID, "type", interaction.Type, "err", err)
		return err
	}
	return nil
}

// RecordPageVisit 投递一条页面访问事件。
func (s *kafkaAnalyticsService) RecordPageVisit(ctx context.Context, userID string, visit model.PageVisit) error {
	return s.Record(ctx, userID, model.Interaction{
		Type:      model.InteractionPageVisit,
		Timestamp: visit.Timestamp,
		Metadata: map[string]string{
			"page":     visit.Page,
			"referrer": visit.Referrer,
		},
	})
}

// newTaskID 生成任务 ID：纳秒时间戳 + 用户 ID，足够在单进程内唯一。
func newTaskID(userID string) string {
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), userID)
}
