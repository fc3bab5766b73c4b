package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supporter-agent-go/internal/model"
)

func TestClassifyPriorityOrder(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name       string
		input      string
		intent     model.IntentType
		confidence float64
		flow       string
	}{
		{"profile update", "I want to update my profile", model.IntentProfileUpdate, 0.95, "profile_update"},
		{"profile update via details", "please update my details", model.IntentProfileUpdate, 0.95, "profile_update"},
		{"impact query", "What impact has my donation made?", model.IntentPersonalization, 0.95, "personalization"},
		{"support inquiry", "How can I support Cancer Research UK?", model.IntentSupportInquiry, 0.90, "call_to_action"},
		{"dashboard", "show my dashboard", model.IntentDashboard, 0.90, "dashboard"},
		{"personal disclosure", "My mother was diagnosed with breast cancer", model.IntentPersonalDisclosure, 0.95, "empathy_response"},
		{"information seeking", "tell me about lung cancer symptoms", model.IntentInformationSeeking, 0.85, "information_seeking"},
		{"action", "I'd like to donate", model.IntentAction, 0.85, "donation"},
		{"generic personalization", "change my preference", model.IntentPersonalization, 0.75, "personalization"},
		{"unclear", "hmm okay", model.IntentUnclear, 0.60, "idle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.input, nil)
			assert.Equal(t, tt.intent, got.PrimaryIntent)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
			assert.Equal(t, tt.flow, got.SuggestedFlow)
		})
	}
}

// 同一句话同时满足多条规则时，高优先级规则必须胜出。
func TestClassifyFirstMatchWins(t *testing.T) {
	c := NewClassifier()

	// "update my information" 同时含 "my"，但 profile_update 优先于 personalization。
	got := c.Classify("update my information please", nil)
	assert.Equal(t, model.IntentProfileUpdate, got.PrimaryIntent)

	// 影响力查询优先于 support_inquiry 的 support 关键词。
	got = c.Classify("what difference has my support made", nil)
	assert.Equal(t, model.IntentPersonalization, got.PrimaryIntent)
	assert.InDelta(t, 0.95, got.Confidence, 1e-9)
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := NewClassifier()
	first := c.Classify("My mum was diagnosed with leukaemia", nil)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.Classify("My mum was diagnosed with leukaemia", nil))
	}
}

func TestClassifyUnclearHasZeroEntities(t *testing.T) {
	c := NewClassifier()
	got := c.Classify("xyzzy", nil)
	assert.Equal(t, model.IntentUnclear, got.PrimaryIntent)
	assert.Empty(t, got.Entities)
}

func TestExtractDisclosureEntities(t *testing.T) {
	c := NewClassifier()
	got := c.Classify("My mum was recently diagnosed with leukaemia", nil)
	require.Equal(t, model.IntentPersonalDisclosure, got.PrimaryIntent)

	byType := map[string]model.Entity{}
	for _, e := range got.Entities {
		byType[e.Type] = e
	}
	assert.Equal(t, "blood-cancer", byType["cancer_type"].Value)
	assert.Equal(t, "mother", byType["relationship"].Value)
	assert.Equal(t, "diagnosed", byType["status"].Value)
}

func TestCancerTypeCanonicalization(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"my father has colon cancer", "bowel-cancer"},
		{"family member diagnosed with melanoma", "skin-cancer"},
		{"my mother has breast cancer", "breast-cancer"},
		{"leukemia runs in my family, I'm worried about cancer", "blood-cancer"},
	}
	c := NewClassifier()
	for _, tt := range tests {
		got := c.Classify(tt.input, nil)
		found := ""
		for _, e := range got.Entities {
			if e.Type == "cancer_type" {
				found = e.Value
			}
		}
		assert.Equal(t, tt.want, found, "input=%q", tt.input)
	}
}

func TestImpactQueryCarriesMarkerEntity(t *testing.T) {
	c := NewClassifier()
	got := c.Classify("what impact has my donation had on breast cancer research", nil)
	require.NotEmpty(t, got.Entities)
	assert.Equal(t, "query_type", got.Entities[0].Type)
	assert.Equal(t, "impact", got.Entities[0].Value)
}
