package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"supporter-agent-go/internal/model"
	"supporter-agent-go/pkg/llm"
)

// fakeLLMClient 按配置返回固定分块或失败。
type fakeLLMClient struct {
	chunks []string
	err    error
}

func (f *fakeLLMClient) StreamChatMessages(_ context.Context, _ []llm.Message, _ *llm.GenerationParams, writer llm.MessageWriter) error {
	if f.err != nil {
		return f.err
	}
	for _, chunk := range f.chunks {
		if err := writer.WriteMessage(1, []byte(chunk)); err != nil {
			return err
		}
	}
	return nil
}

func namedContext(name string) *model.UserContext {
	return &model.UserContext{
		UserID:  "user-1",
		Profile: model.UserProfile{UserID: "user-1", Name: name},
	}
}

func TestGenerateResponseRulesByIntent(t *testing.T) {
	svc := NewContentService(nil, false)
	userCtx := namedContext("Sarah")

	tests := []struct {
		name   string
		intent model.IntentResult
		want   string
	}{
		{
			name:   "personalization",
			intent: model.IntentResult{PrimaryIntent: model.IntentPersonalization},
			want:   "Hi Sarah! I can help you personalize your experience.",
		},
		{
			name: "information seeking uses entities",
			intent: model.IntentResult{
				PrimaryIntent: model.IntentInformationSeeking,
				Entities: []model.Entity{
					{Type: "cancer_type", Value: "breast cancer"},
					{Type: "topic", Value: "screening"},
				},
			},
			want: "learn about breast cancer screening",
		},
		{
			name: "action uses action type",
			intent: model.IntentResult{
				PrimaryIntent: model.IntentAction,
				Entities:      []model.Entity{{Type: "action_type", Value: "fundraising"}},
			},
			want: "Great to see your interest in fundraising, Sarah!",
		},
		{
			name:   "unclear offers guidance options",
			intent: model.IntentResult{PrimaryIntent: model.IntentUnclear},
			want:   "Hi Sarah, I want to make sure I understand how I can help you.",
		},
		{
			name:   "unhandled intent falls back to welcome",
			intent: model.IntentResult{PrimaryIntent: model.IntentDashboard},
			want:   "Welcome, Sarah! How can I help you today?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.GenerateResponse(context.Background(), tt.intent, userCtx)
			assert.Contains(t, got, tt.want)
		})
	}
}

func TestGenerateResponseFallsBackToThere(t *testing.T) {
	svc := NewContentService(nil, false)

	got := svc.GenerateResponse(context.Background(),
		model.IntentResult{PrimaryIntent: model.IntentPersonalization},
		&model.UserContext{UserID: "user-1"})
	assert.Contains(t, got, "Hi there!")
}

func TestGenerateResponseUsesLLMWhenEnabled(t *testing.T) {
	client := &fakeLLMClient{chunks: []string{"Thank you ", "for supporting CRUK."}}
	svc := NewContentService(client, true)

	got := svc.GenerateResponse(context.Background(),
		model.IntentResult{PrimaryIntent: model.IntentPersonalization},
		namedContext("Sarah"))
	assert.Equal(t, "Thank you for supporting CRUK.", got)
}

func TestGenerateResponseLLMFailureFallsBackToRules(t *testing.T) {
	client := &fakeLLMClient{err: errors.New("upstream timeout")}
	svc := NewContentService(client, true)

	got := svc.GenerateResponse(context.Background(),
		model.IntentResult{PrimaryIntent: model.IntentPersonalization},
		namedContext("Sarah"))
	assert.Contains(t, got, "Hi Sarah! I can help you personalize your experience.")
}

func TestGenerateResponseLLMDisabledIgnoresClient(t *testing.T) {
	client := &fakeLLMClient{chunks: []string{"should not be used"}}
	svc := NewContentService(client, false)

	got := svc.GenerateResponse(context.Background(),
		model.IntentResult{PrimaryIntent: model.IntentUnclear},
		namedContext("Sarah"))
	assert.NotContains(t, got, "should not be used")
}

func TestGenerateMotivationalContent(t *testing.T) {
	svc := NewContentService(nil, false)

	userCtx := namedContext("Sarah")
	got := svc.GenerateMotivationalContent(context.Background(), userCtx)
	assert.Contains(t, got, "Sarah")
	assert.Contains(t, got, "Survival rates have doubled")

	userCtx.Profile.CancerType = "breast-cancer"
	got = svc.GenerateMotivationalContent(context.Background(), userCtx)
	assert.Contains(t, got, "breast-cancer research")
}

func TestGenerateCallToActionByDonorStatus(t *testing.T) {
	svc := NewContentService(nil, false)

	newSupporter := namedContext("Sarah")
	got := svc.GenerateCallToAction(context.Background(), newSupporter)
	assert.Contains(t, got, "many ways to get involved")

	donor := namedContext("Sarah")
	donor.Profile.DonationCount = 3
	got = svc.GenerateCallToAction(context.Background(), donor)
	assert.Contains(t, got, "your continued support makes a real difference")
}
