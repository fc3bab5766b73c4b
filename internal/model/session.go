package model

import "time"

// ChatMessage 代表会话消息历史中的单条消息。
type ChatMessage struct {
	Role      string            `json:"role"` // "user"、"assistant" 或 "system"
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// FlowType 标识会话当前所处的主流程类别。
type FlowType string

const (
	FlowPersonalization FlowType = "personalization"
	FlowInfoSeeking     FlowType = "information_seeking"
	FlowIdle            FlowType = "idle"
)

// FlowState 代表主个性化旅程的流程状态。
type FlowState struct {
	FlowType       string                 `json:"flowType"`
	CurrentStep    string                 `json:"currentStep"`
	CompletedSteps []string               `json:"completedSteps"`
	CollectedData  map[string]interface{} `json:"collectedData"`
	CanResume      bool                   `json:"canResume"`
}

// NewFlowState 返回一个以指定流程类型开始的空流程状态。
func NewFlowState(flowType string) FlowState {
	return FlowState{
		FlowType:       flowType,
		CurrentStep:    "start",
		CompletedSteps: []string{},
		CollectedData:  map[string]interface{}{},
	}
}

// SessionContext 代表一个活跃的进程内会话实例。
// 生命周期：initializeSession 创建；每次 processInput 变更；
// endSession 销毁并将缓存上下文刷回持久层（唯一持久化点）。
type SessionContext struct {
	SessionID        string        `json:"sessionId"`
	UserID           string        `json:"userId"`
	StartTime        time.Time     `json:"startTime"`
	LastActivityTime time.Time     `json:"lastActivityTime"`
	CurrentFlow      FlowType      `json:"currentFlow"`
	FlowState        FlowState     `json:"flowState"`
	Messages         []ChatMessage `json:"messages"`
	CachedProfile    *UserProfile  `json:"cachedProfile,omitempty"`
	CachedContext    *UserContext  `json:"cachedContext,omitempty"`
}
