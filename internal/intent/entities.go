package intent

import (
	"strings"

	"supporter-agent-go/internal/model"
)

// cancerTypePair 保持词典的求值顺序：同时命中多个关键词时取最先声明者。
type cancerTypePair struct {
	keyword   string
	canonical string
}

// cancerTypeLexicon 将口语化的癌症关键词归一化为标准类型标识。
var cancerTypeLexicon = []cancerTypePair{
	{"breast", "breast-cancer"},
	{"lung", "lung-cancer"},
	{"prostate", "prostate-cancer"},
	{"bowel", "bowel-cancer"},
	{"colon", "bowel-cancer"},
	{"skin", "skin-cancer"},
	{"melanoma", "skin-cancer"},
	{"blood", "blood-cancer"},
	{"leukemia", "blood-cancer"},
	{"leukaemia", "blood-cancer"},
}

// extractCancerType 提取归一化后的癌症类型实体，最多一条。
func extractCancerType(in string, confidence float64) []model.Entity {
	for _, p := range cancerTypeLexicon {
		if strings.Contains(in, p.keyword) {
			return []model.Entity{{Type: "cancer_type", Value: p.canonical, Confidence: confidence}}
		}
	}
	return nil
}

// extractDisclosureEntities 从个人倾诉类输入中提取癌症类型、亲属关系与确诊状态。
func extractDisclosureEntities(in string) []model.Entity {
	entities := []model.Entity{}
	entities = append(entities, extractCancerType(in, 0.95)...)

	switch {
	case containsAny(in, "mother", "mom", "mum"):
		entities = append(entities, model.Entity{Type: "relationship", Value: "mother", Confidence: 0.95})
	case containsAny(in, "father", "dad"):
		entities = append(entities, model.Entity{Type: "relationship", Value: "father", Confidence: 0.95})
	case containsAny(in, "family", "relative"):
		entities = append(entities, model.Entity{Type: "relationship", Value: "family", Confidence: 0.85})
	}

	if containsAny(in, "diagnosed", "diagnosis") {
		entities = append(entities, model.Entity{Type: "status", Value: "diagnosed", Confidence: 0.95})
	}
	return entities
}

// extractTopicEntities 从信息检索类输入中提取癌症类型（未归一化）与主题词。
func extractTopicEntities(in string) []model.Entity {
	entities := []model.Entity{}
	for _, t := range []string{"breast", "lung", "prostate", "bowel", "skin", "blood"} {
		if strings.Contains(in, t) {
			entities = append(entities, model.Entity{Type: "cancer_type", Value: t, Confidence: 0.85})
			break
		}
	}

	switch {
	case strings.Contains(in, "symptom"):
		entities = append(entities, model.Entity{Type: "topic", Value: "symptoms", Confidence: 0.8})
	case strings.Contains(in, "treatment"):
		entities = append(entities, model.Entity{Type: "topic", Value: "treatment", Confidence: 0.8})
	case strings.Contains(in, "prevention"):
		entities = append(entities, model.Entity{Type: "topic", Value: "prevention", Confidence: 0.8})
	}
	return entities
}

// extractActionType 从支持咨询类输入中提取行动类型。
func extractActionType(in string) []model.Entity {
	switch {
	case strings.Contains(in, "donat"):
		return []model.Entity{{Type: "action_type", Value: "donation", Confidence: 0.9}}
	case containsAny(in, "register", "sign up"):
		return []model.Entity{{Type: "action_type", Value: "registration", Confidence: 0.85}}
	case strings.Contains(in, "volunteer"):
		return []model.Entity{{Type: "action_type", Value: "volunteering", Confidence: 0.85}}
	}
	return []model.Entity{}
}

// extractPersonalizationEntities 从通用个性化输入中提取动作实体。
func extractPersonalizationEntities(in string) []model.Entity {
	entities := []model.Entity{}
	if strings.Contains(in, "profile") {
		entities = append(entities, model.Entity{Type: "action", Value: "profile", Confidence: 0.9})
	}
	if strings.Contains(in, "preference") {
		entities = append(entities, model.Entity{Type: "action", Value: "preferences", Confidence: 0.9})
	}
	return entities
}
