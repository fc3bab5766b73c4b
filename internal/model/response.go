package model

// UIComponent 是回复中携带的一个 UI 指令（仪表盘、行动卡片、搜索结果等）。
type UIComponent struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// ResponseMetadata 携带分类结果，便于前端与测试观察路由依据。
type ResponseMetadata struct {
	Intent     IntentType `json:"intent"`
	Confidence float64    `json:"confidence"`
	Entities   []Entity   `json:"entities"`
}

// AgentResponse 是一次 processInput 的完整响应。
// 保证：无论下游如何失败，代理总是返回一个结构完整的响应。
type AgentResponse struct {
	Text              string           `json:"text"`
	UIComponents      []UIComponent    `json:"uiComponents,omitempty"`
	NextAction        string           `json:"nextAction,omitempty"`
	RequiresUserInput bool             `json:"requiresUserInput"`
	SessionID         string           `json:"sessionId"`
	Metadata          ResponseMetadata `json:"metadata"`
}
