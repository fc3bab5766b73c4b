// Package intent 实现了确定性的意图分类级联。
package intent

import (
	"strings"

	"supporter-agent-go/internal/model"
)

// rule 是级联中的一条规则：predicate 命中则由 build 产出结果。
type rule struct {
	name  string
	match func(in string) bool
	build func(raw, in string) model.IntentResult
}

// Classifier 将自由文本映射到封闭的意图枚举。
// 纯函数：无副作用，相同输入必得相同输出。
// 规则按固定优先级从高到低求值，首个命中者胜出——顺序是契约，不是实现细节。
type Classifier struct {
	rules []rule
}

// NewClassifier 构造分类器。优先级（从高到低）：
// profile_update → 影响力类 personalization → support_inquiry → dashboard →
// personal_disclosure → information_seeking → action → 通用 personalization → unclear。
func NewClassifier() *Classifier {
	return &Classifier{rules: []rule{
		{
			name: "profile_update",
			match: func(in string) bool {
				return strings.Contains(in, "update") &&
					(strings.Contains(in, "profile") || strings.Contains(in, "information") || strings.Contains(in, "details"))
			},
			build: func(raw, in string) model.IntentResult {
				return model.IntentResult{
					PrimaryIntent: model.IntentProfileUpdate,
					Confidence:    0.95,
					Entities:      []model.Entity{{Type: "action", Value: "profile_update", Confidence: 0.95}},
					SuggestedFlow: "profile_update",
				}
			},
		},
		{
			name: "impact_query",
			match: func(in string) bool {
				return containsAny(in, "impact", "difference", "achievement", "contribution", "made") &&
					containsAny(in, "cancer", "research", "donation", "support")
			},
			build: func(raw, in string) model.IntentResult {
				entities := []model.Entity{{Type: "query_type", Value: "impact", Confidence: 0.95}}
				entities = append(entities, extractCancerType(in, 0.95)...)
				return model.IntentResult{
					PrimaryIntent: model.IntentPersonalization,
					Confidence:    0.95,
					Entities:      entities,
					SuggestedFlow: "personalization",
				}
			},
		},
		{
			name: "support_inquiry",
			match: func(in string) bool {
				return containsAny(in, "how", "ways") &&
					containsAny(in, "support", "help") &&
					containsAny(in, "cruk", "cancer research")
			},
			build: func(raw, in string) model.IntentResult {
				return model.IntentResult{
					PrimaryIntent: model.IntentSupportInquiry,
					Confidence:    0.90,
					Entities:      extractActionType(in),
					SuggestedFlow: "call_to_action",
				}
			},
		},
		{
			name: "dashboard",
			match: func(in string) bool {
				return strings.Contains(in, "dashboard") || strings.Contains(in, "show my")
			},
			build: func(raw, in string) model.IntentResult {
				return model.IntentResult{
					PrimaryIntent: model.IntentDashboard,
					Confidence:    0.90,
					Entities:      []model.Entity{},
					SuggestedFlow: "dashboard",
				}
			},
		},
		{
			name: "personal_disclosure",
			match: func(in string) bool {
				if strings.Contains(in, "diagnosed") {
					return true
				}
				return containsAny(in, "mother", "father", "family") &&
					containsAny(in, "breast", "lung", "cancer")
			},
			build: func(raw, in string) model.IntentResult {
				return model.IntentResult{
					PrimaryIntent: model.IntentPersonalDisclosure,
					Confidence:    0.95,
					Entities:      extractDisclosureEntities(in),
					SuggestedFlow: "empathy_response",
				}
			},
		},
		{
			name: "information_seeking",
			match: func(in string) bool {
				return containsAny(in, "what is", "tell me about", "learn about", "information about")
			},
			build: func(raw, in string) model.IntentResult {
				return model.IntentResult{
					PrimaryIntent: model.IntentInformationSeeking,
					Confidence:    0.85,
					Entities:      extractTopicEntities(in),
					SuggestedFlow: "information_seeking",
				}
			},
		},
		{
			name: "action",
			match: func(in string) bool {
				return containsAny(in, "donat", "give", "contribute")
			},
			build: func(raw, in string) model.IntentResult {
				return model.IntentResult{
					PrimaryIntent: model.IntentAction,
					Confidence:    0.85,
					Entities:      []model.Entity{{Type: "action_type", Value: "donation", Confidence: 0.9}},
					SuggestedFlow: "donation",
				}
			},
		},
		{
			name: "personalization",
			match: func(in string) bool {
				return containsAny(in, "my", "profile", "preference")
			},
			build: func(raw, in string) model.IntentResult {
				return model.IntentResult{
					PrimaryIntent: model.IntentPersonalization,
					Confidence:    0.75,
					Entities:      extractPersonalizationEntities(in),
					SuggestedFlow: "personalization",
				}
			},
		},
	}}
}

// Classify 对输入文本做一次分类。context 仅作为可选线索保留，目前不参与判定。
// 未命中任何规则时始终落到 unclear（置信度 0.60，零实体），绝不报错。
func (c *Classifier) Classify(text string, context *model.UserContext) model.IntentResult {
	in := strings.ToLower(text)
	for _, r := range c.rules {
		if r.match(in) {
			return r.build(text, in)
		}
	}
	return model.IntentResult{
		PrimaryIntent: model.IntentUnclear,
		Confidence:    0.60,
		Entities:      []model.Entity{},
		SuggestedFlow: "idle",
	}
}

func containsAny(in string, keys ...string) bool {
	for _, k := range keys {
		if strings.Contains(in, k) {
			return true
		}
	}
	return false
}
