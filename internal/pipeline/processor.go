// Package pipeline 定义了分析事件落库的消费端流程。
package pipeline

import (
	"context"
	"fmt"

	"supporter-agent-go/internal/model"
	"supporter-agent-go/internal/repository"
	"supporter-agent-go/pkg/log"
	"supporter-agent-go/pkg/tasks"
)

// Processor 封装了分析事件处理的依赖和逻辑。
// 由 Kafka 消费者驱动，将交互事件持久化到 MySQL。
type Processor struct {
	interactionRepo repository.InteractionRepository
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(interactionRepo repository.InteractionRepository) *Processor {
	return &Processor{interactionRepo: interactionRepo}
}

// Process 将一条分析事件任务写入数据库。
func (p *Processor) Process(ctx context.Context, task tasks.InteractionTask) error {
	log.Infof("[Processor] 开始处理分析事件, TaskID: %s, UserID: %s, Type: %s",
		task.TaskID, task.UserID, task.Interaction.Type)

	row := model.InteractionRow{
		UserID:    task.UserID,
		Type:      string(task.Interaction.Type),
		Intent:    task.Interaction.Intent,
		Sentiment: task.Interaction.Sentiment,
		Metadata:  task.Interaction.Metadata,
		Timestamp: task.Interaction.Timestamp,
	}

	if err := p.interactionRepo.Insert(ctx, &row); err != nil {
		log.Errorf("[Processor] 写入分析事件失败, TaskID: %s, Error: %v", task.TaskID, err)
		return fmt.Errorf("写入分析事件失败: %w", err)
	}

	log.Infof("[Processor] 分析事件处理完成, TaskID: %s", task.TaskID)
	return nil
}
