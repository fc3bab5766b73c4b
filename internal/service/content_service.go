package service

import (
	"context"
	"fmt"
	"strings"

	"supporter-agent-go/internal/model"
	"supporter-agent-go/pkg/llm"
	"supporter-agent-go/pkg/log"
)

// ContentService 接口定义了个性化文案生成。
// 可插拔策略：默认规则生成；配置启用后委托给 LLM，失败时回落规则生成。
type ContentService interface {
	GenerateResponse(ctx context.Context, intent model.IntentResult, userCtx *model.UserContext) string
	GenerateMotivationalContent(ctx context.Context, userCtx *model.UserContext) string
	GenerateCallToAction(ctx context.Context, userCtx *model.UserContext) string
}

type contentService struct {
	llmClient  llm.Client // 为 nil 时仅使用规则生成
	llmEnabled bool
}

// NewContentService 创建一个新的 ContentService 实例。
// llmClient 可以为 nil，此时全部走规则生成。
func NewContentService(llmClient llm.Client, llmEnabled bool) ContentService {
	return &contentService{llmClient: llmClient, llmEnabled: llmEnabled}
}

// builderWriter 将 LLM 流式分块收集为完整字符串。
type builderWriter struct {
	b strings.Builder
}

func (w *builderWriter) WriteMessage(_ int, data []byte) error {
	w.b.Write(data)
	return nil
}

// GenerateResponse 按意图生成回复文案。
func (s *contentService) GenerateResponse(ctx context.Context, intent model.IntentResult, userCtx *model.UserContext) string {
	if s.llmEnabled && s.llmClient != nil {
		if text, err := s.generateWithLLM(ctx, intent, userCtx); err == nil && text != "" {
			return text
		} else if err != nil {
			log.Warnw("llm content generation failed, falling back to rules",
				"intent", intent.PrimaryIntent, "err", err)
		}
	}
	return s.generateWithRules(intent, userCtx)
}

// GenerateMotivationalContent 生成展示研究影响力的激励文案。
func (s *contentService) GenerateMotivationalContent(_ context.Context, userCtx *model.UserContext) string {
	name := displayName(userCtx)
	if userCtx.Profile.CancerType != "" {
		return fmt.Sprintf("%s, thanks to supporters like you, Cancer Research UK has funded major advances in %s research. "+
			"Survival rates have doubled in the last 40 years, and every contribution brings us closer to beating cancer.",
			name, userCtx.Profile.CancerType)
	}
	return fmt.Sprintf("%s, thanks to supporters like you, Cancer Research UK funds over half of the UK's cancer research. "+
		"Survival rates have doubled in the last 40 years, and every contribution brings us closer to beating cancer.", name)
}

// GenerateCallToAction 生成行动号召文案。
func (s *contentService) GenerateCallToAction(_ context.Context, userCtx *model.UserContext) string {
	name := displayName(userCtx)
	if userCtx.Profile.DonationCount > 0 {
		return fmt.Sprintf("%s, your continued support makes a real difference. "+
			"Would you like to set up a regular gift, join a fundraising event, or explore volunteering?", name)
	}
	return fmt.Sprintf("%s, there are many ways to get involved: donate, fundraise, volunteer, or join a campaign. "+
		"Which would you like to explore?", name)
}

// generateWithRules 规则生成：按意图选择模板，用实体与显示名参数化。
func (s *contentService) generateWithRules(intent model.IntentResult, userCtx *model.UserContext) string {
	name := displayName(userCtx)

	switch intent.PrimaryIntent {
	case model.IntentPersonalization:
		return fmt.Sprintf("Hi %s! I can help you personalize your experience. "+
			"What would you like to update - your profile or preferences?", name)

	case model.IntentInformationSeeking:
		cancerType := entityValue(intent.Entities, "cancer_type", "cancer")
		topic := entityValue(intent.Entities, "topic", "information")
		return fmt.Sprintf("Hi %s, I can help you learn about %s %s. "+
			"Cancer Research UK provides trusted, evidence-based information to help you understand cancer better. "+
			"Would you like to explore our resources on this topic?", name, cancerType, topic)

	case model.IntentAction:
		actionType := entityValue(intent.Entities, "action_type", "action")
		return fmt.Sprintf("Great to see your interest in %s, %s! "+
			"Taking action is a fantastic way to support cancer research. How would you like to get started?", actionType, name)

	case model.IntentUnclear:
		return fmt.Sprintf("Hi %s, I want to make sure I understand how I can help you. Are you looking for:\n", name) +
			"1. Information about cancer (symptoms, treatment, prevention)\n" +
			"2. Ways to support Cancer Research UK (donate, volunteer, fundraise)\n" +
			"3. Your personalized dashboard and impact summary\n\n" +
			"Please let me know what interests you most!"

	default:
		return fmt.Sprintf("Welcome, %s! How can I help you today? "+
			"You can learn about cancer, find support, donate, or discover our latest research.", name)
	}
}

// generateWithLLM 委托 LLM 生成文案，流式分块收集为完整文本。
func (s *contentService) generateWithLLM(ctx context.Context, intent model.IntentResult, userCtx *model.UserContext) (string, error) {
	prompt := fmt.Sprintf(`Generate personalized content for Cancer Research UK website.

User Intent: %s
User Name: %s

Guidelines:
- Be warm, supportive, and empathetic
- Use CRUK's tone of voice: inspiring, hopeful, and action-oriented
- Keep it concise and clear
- Include a call-to-action when appropriate
- Ensure medical information is accurate and evidence-based

Generate the content:`, intent.PrimaryIntent, displayName(userCtx))

	writer := &builderWriter{}
	err := s.llmClient.StreamChatMessages(ctx, []llm.Message{{Role: "user", Content: prompt}}, nil, writer)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(writer.b.String()), nil
}

func displayName(userCtx *model.UserContext) string {
	if userCtx != nil && userCtx.Profile.Name != "" {
		return userCtx.Profile.Name
	}
	return "there"
}

func entityValue(entities []model.Entity, entityType, fallback string) string {
	for _, e := range entities {
		if e.Type == entityType {
			return e.Value
		}
	}
	return fallback
}
