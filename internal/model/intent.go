package model

// IntentType 是用户话语目的的封闭枚举。
type IntentType string

const (
	IntentProfileUpdate      IntentType = "profile_update"
	IntentPersonalDisclosure IntentType = "personal_disclosure"
	IntentSupportInquiry     IntentType = "support_inquiry"
	IntentDashboard          IntentType = "dashboard"
	IntentInformationSeeking IntentType = "information_seeking"
	IntentPersonalization    IntentType = "personalization"
	IntentAction             IntentType = "action"
	IntentUnclear            IntentType = "unclear"
)

// Entity 是从文本中抽取的类型化取值（如癌种、亲属关系），带置信度。
type Entity struct {
	Type       string  `json:"type"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// IntentResult 是意图分类的结果。置信度是按规则固定的常量，不是计算概率。
type IntentResult struct {
	PrimaryIntent IntentType `json:"primaryIntent"`
	Confidence    float64    `json:"confidence"`
	Entities      []Entity   `json:"entities"`
	SuggestedFlow string     `json:"suggestedFlow"`
}
