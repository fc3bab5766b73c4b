// Package agent 实现支持者互动代理的编排器：
// 会话生命周期、意图路由与上下文缓存的写回。
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"supporter-agent-go/internal/flow"
	"supporter-agent-go/internal/intent"
	"supporter-agent-go/internal/model"
	"supporter-agent-go/internal/repository"
	"supporter-agent-go/internal/service"
	"supporter-agent-go/pkg/log"
)

// UserInput 是一次用户输入。
type UserInput struct {
	Text      string            `json:"text"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Agent 编排分类器、流程状态机与各协作方，产出个性化响应。
// 保证：processInput 无论下游如何失败总是返回结构完整的响应；
// 会话期间所有上下文变更只写进程内缓存，endSession 是唯一持久化点。
type Agent struct {
	classifier *intent.Classifier
	contexts   service.ContextService
	content    service.ContentService
	knowledge  service.KnowledgeService
	research   service.ResearchService
	analytics  service.AnalyticsService

	profileRepo repository.ProfileRepository
	txRepo      repository.TransactionRepository

	sessions      SessionStore
	trustedDomain string
	historyLimit  int
}

// New 创建一个新的 Agent 实例。
func New(
	classifier *intent.Classifier,
	contexts service.ContextService,
	content service.ContentService,
	knowledge service.KnowledgeService,
	research service.ResearchService,
	analytics service.AnalyticsService,
	profileRepo repository.ProfileRepository,
	txRepo repository.TransactionRepository,
	sessions SessionStore,
	trustedDomain string,
	historyLimit int,
) *Agent {
	return &Agent{
		classifier:    classifier,
		contexts:      contexts,
		content:       content,
		knowledge:     knowledge,
		research:      research,
		analytics:     analytics,
		profileRepo:   profileRepo,
		txRepo:        txRepo,
		sessions:      sessions,
		trustedDomain: trustedDomain,
		historyLimit:  historyLimit,
	}
}

// InitializeSession 为用户创建新会话：装载档案快照与用户上下文，
// 推导初始主流程，注册会话并尽力记录 session_start 事件。
// 档案缺失时用默认上下文兜底，不视为错误。
func (a *Agent) InitializeSession(ctx context.Context, userID string) (*Session, error) {
	if userID == "" {
		return nil, model.ErrValidation
	}
	log.Infow("initializing session", "userId", userID)

	profile, err := a.profileRepo.FindByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			log.Warnw("profile lookup failed during session init", "userId", userID, "err", err)
		}
		profile = nil
	}

	uc, err := a.contexts.GetContext(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load context for user %s: %w", userID, err)
	}
	if profile != nil {
		uc.Profile = *profile
	}

	if history, err := a.profileRepo.ListEngagement(ctx, userID, a.historyLimit); err == nil {
		uc.EngagementHistory = history
	} else {
		log.Warnw("engagement history lookup failed, keeping cached history", "userId", userID, "err", err)
	}

	machine := flow.NewMachine(uc, "")
	now := time.Now()
	sess := &Session{
		SessionContext: model.SessionContext{
			SessionID:        newSessionID(userID),
			UserID:           userID,
			StartTime:        now,
			LastActivityTime: now,
			CurrentFlow:      determineInitialFlow(uc),
			FlowState:        *machine.FlowState(),
			Messages:         []model.ChatMessage{},
			CachedProfile:    profile,
			CachedContext:    uc,
		},
		machine:     machine,
		baseVersion: uc.Version,
	}
	a.sessions.Put(sess)

	a.recordEvent(ctx, userID, model.InteractionSessionStart, map[string]string{
		"sessionId": sess.SessionID,
	})

	log.Infow("session initialized",
		"sessionId", sess.SessionID, "userId", userID,
		"initialFlow", sess.CurrentFlow, "initialState", machine.CurrentState())
	return sess, nil
}

// ProcessInput 处理一次用户输入并生成响应。
// 活跃的信息检索子流程优先于意图分类接管路由；
// 其余输入按分类结果分派到对应处理器。处理器内部降级，绝不上抛。
func (a *Agent) ProcessInput(ctx context.Context, input UserInput, sessionID string) (*model.AgentResponse, error) {
	sess, ok := a.sessions.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, model.ErrNotFound)
	}
	log.Infow("processing input", "sessionId", sessionID, "text", input.Text)

	sess.LastActivityTime = time.Now()
	ts := input.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	sess.Messages = append(sess.Messages, model.ChatMessage{
		Role:      "user",
		Content:   input.Text,
		Timestamp: ts,
		Metadata:  input.Metadata,
	})

	var (
		result model.IntentResult
		text   string
		ui     []model.UIComponent
	)

	if sess.infoFlow != nil && !sess.infoFlow.IsComplete() {
		result, text, ui = a.continueInfoSeeking(ctx, sess, input.Text)
	} else {
		result = a.classifier.Classify(input.Text, sess.CachedContext)
		log.Infow("intent detected",
			"sessionId", sessionID, "intent", result.PrimaryIntent, "confidence", result.Confidence)

		a.updateFlow(sess, result)
		text, ui = a.dispatch(ctx, sess, input.Text, result)
	}

	sess.Messages = append(sess.Messages, model.ChatMessage{
		Role:      "assistant",
		Content:   text,
		Timestamp: time.Now(),
		Metadata: map[string]string{
			"intent":     string(result.PrimaryIntent),
			"confidence": fmt.Sprintf("%.2f", result.Confidence),
		},
	})

	a.recordMessageEvent(ctx, sess, input.Text, text, result)
	a.appendEngagement(sess, input.Text, text, result)

	return &model.AgentResponse{
		Text:              text,
		UIComponents:      ui,
		NextAction:        result.SuggestedFlow,
		RequiresUserInput: true,
		SessionID:         sessionID,
		Metadata: model.ResponseMetadata{
			Intent:     result.PrimaryIntent,
			Confidence: result.Confidence,
			Entities:   result.Entities,
		},
	}, nil
}

// ResumeSession 恢复既有会话：从持久层刷新档案与上下文缓存，
// 并尽力记录 session_resume 事件。
func (a *Agent) ResumeSession(ctx context.Context, sessionID string) (*Session, error) {
	sess, ok := a.sessions.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, model.ErrNotFound)
	}
	log.Infow("resuming session", "sessionId", sessionID)

	if uc, err := a.contexts.GetContext(ctx, sess.UserID); err == nil {
		sess.CachedContext = uc
		sess.CachedProfile = &uc.Profile
		sess.baseVersion = uc.Version
		sess.machine.UpdateContext(uc)
	} else {
		log.Warnw("context refresh failed, keeping cached context", "sessionId", sessionID, "err", err)
	}

	if profile, err := a.profileRepo.FindByID(ctx, sess.UserID); err == nil {
		sess.CachedProfile = profile
		if sess.CachedContext != nil {
			sess.CachedContext.Profile = *profile
		}
	}

	sess.LastActivityTime = time.Now()

	a.recordEvent(ctx, sess.UserID, model.InteractionSessionResume, map[string]string{
		"sessionId": sessionID,
	})
	return sess, nil
}

// EndSession 结束会话：将缓存上下文整体写回持久层（唯一持久化点），
// 记录 session_end 事件并注销会话。写回失败向调用方上抛。
func (a *Agent) EndSession(ctx context.Context, sessionID string) error {
	sess, ok := a.sessions.Get(sessionID)
	if !ok {
		return fmt.Errorf("session %s: %w", sessionID, model.ErrNotFound)
	}
	log.Infow("ending session", "sessionId", sessionID)

	if sess.CachedContext != nil {
		snapshot := *sess.CachedContext
		snapshot.Version = sess.baseVersion
		if _, err := a.contexts.PutContext(ctx, &snapshot); err != nil {
			return fmt.Errorf("failed to persist context for session %s: %w", sessionID, err)
		}
	}

	a.recordEvent(ctx, sess.UserID, model.InteractionSessionEnd, map[string]string{
		"sessionId":    sessionID,
		"durationMs":   fmt.Sprintf("%d", time.Since(sess.StartTime).Milliseconds()),
		"messageCount": fmt.Sprintf("%d", len(sess.Messages)),
	})

	a.sessions.Delete(sessionID)
	log.Infow("session ended and context persisted", "sessionId", sessionID)
	return nil
}

// AdvanceFlow 将会话的主流程状态机按默认后继推进一步。
// 进入 MOTIVATION / CALL_TO_ACTION 时用内容生成服务替换提示语。
// 守卫或校验失败不返回 error，由结果的 Success 表达。
func (a *Agent) AdvanceFlow(ctx context.Context, sessionID string) (*flow.TransitionResult, error) {
	sess, ok := a.sessions.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, model.ErrNotFound)
	}

	r := sess.machine.Transition(flow.Event{Type: flow.EventUserInput}, "")
	if r.Success {
		sess.FlowState = *sess.machine.FlowState()
		switch r.NewState {
		case flow.StateMotivation:
			r.NextPrompt = a.content.GenerateMotivationalContent(ctx, sess.CachedContext)
		case flow.StateCallToAction:
			r.NextPrompt = a.content.GenerateCallToAction(ctx, sess.CachedContext)
		}
	}
	return &r, nil
}

// GetSession 按 ID 返回活跃会话。
func (a *Agent) GetSession(sessionID string) (*Session, bool) {
	return a.sessions.Get(sessionID)
}

// GetUserSessions 返回用户的全部活跃会话。
func (a *Agent) GetUserSessions(userID string) []*Session {
	return a.sessions.ByUser(userID)
}

// dispatch 按意图分派到对应处理器。
func (a *Agent) dispatch(ctx context.Context, sess *Session, input string, result model.IntentResult) (string, []model.UIComponent) {
	switch result.PrimaryIntent {
	case model.IntentProfileUpdate:
		return a.handleProfileUpdate(sess)
	case model.IntentPersonalDisclosure:
		return a.handlePersonalDisclosure(ctx, sess, result)
	case model.IntentSupportInquiry:
		return a.handleSupportInquiry(sess)
	case model.IntentDashboard:
		return a.handleDashboard(sess)
	case model.IntentInformationSeeking:
		return a.handleInformationSeeking(ctx, sess, input)
	case model.IntentPersonalization:
		return a.handlePersonalization(ctx, sess, result)
	case model.IntentAction:
		return a.handleAction(ctx, sess, result)
	default:
		return a.handleUnclear(ctx, sess, result), nil
	}
}

// updateFlow 按意图更新会话当前主流程类别。
func (a *Agent) updateFlow(sess *Session, result model.IntentResult) {
	switch result.PrimaryIntent {
	case model.IntentPersonalization:
		sess.CurrentFlow = model.FlowPersonalization
		sess.FlowState.FlowType = string(model.FlowPersonalization)
	case model.IntentInformationSeeking:
		if sess.CurrentFlow != model.FlowInfoSeeking {
			sess.interruptedFlow = sess.CurrentFlow
		}
		sess.CurrentFlow = model.FlowInfoSeeking
		sess.FlowState.FlowType = string(model.FlowInfoSeeking)
	case model.IntentAction:
		sess.CurrentFlow = model.FlowPersonalization
		sess.FlowState.FlowType = "action"
	default:
		sess.CurrentFlow = model.FlowIdle
		sess.FlowState.FlowType = string(model.FlowIdle)
	}
	sess.FlowState.CanResume = true
}

// recordMessageEvent 尽力而为地记录一次消息事件。
func (a *Agent) recordMessageEvent(ctx context.Context, sess *Session, input, response string, result model.IntentResult) {
	err := a.analytics.Record(ctx, sess.UserID, model.Interaction{
		Type:      model.InteractionMessage,
		Timestamp: time.Now(),
		Intent:    string(result.PrimaryIntent),
		Sentiment: detectSentiment(input),
		Metadata: map[string]string{
			"sessionId": sess.SessionID,
			"userInput": input,
			"response":  response,
		},
	})
	if err != nil {
		log.Warnw("failed to record message event", "sessionId", sess.SessionID, "err", err)
	}
}

// recordEvent 尽力而为地记录一次会话生命周期事件。
func (a *Agent) recordEvent(ctx context.Context, userID string, eventType model.InteractionType, metadata map[string]string) {
	err := a.analytics.Record(ctx, userID, model.Interaction{
		Type:      eventType,
		Timestamp: time.Now(),
		Metadata:  metadata,
	})
	if err != nil {
		log.Warnw("failed to record session event", "userId", userID, "type", eventType, "err", err)
	}
}

// appendEngagement 向缓存上下文追加一条参与记录并递增本地版本号。
// 只写进程内缓存，持久化留待 endSession。
func (a *Agent) appendEngagement(sess *Session, input, response string, result model.IntentResult) {
	if sess.CachedContext == nil {
		return
	}
	sess.CachedContext.EngagementHistory = append(sess.CachedContext.EngagementHistory, model.EngagementRecord{
		RecordID:  fmt.Sprintf("eng_%d", time.Now().UnixNano()),
		UserID:    sess.UserID,
		Type:      model.EngagementCampaign,
		Timestamp: time.Now(),
		Metadata: map[string]string{
			"sessionId": sess.SessionID,
			"intent":    string(result.PrimaryIntent),
			"userInput": input,
			"response":  response,
		},
	})
	sess.CachedContext.Version++
	sess.CachedContext.LastUpdated = time.Now()
}

// determineInitialFlow 按上下文推导会话初始主流程：
// 有参与历史或捐赠记录 → 个性化；仅有基础信息 → 个性化；否则空闲等待意图。
func determineInitialFlow(uc *model.UserContext) model.FlowType {
	if len(uc.EngagementHistory) > 0 || uc.Profile.DonationCount > 0 {
		return model.FlowPersonalization
	}
	if uc.Profile.Name != "" && uc.Profile.Email != "" &&
		!uc.Profile.PersonallyAffected && !uc.Profile.LovedOneAffected {
		return model.FlowPersonalization
	}
	return model.FlowIdle
}

func newSessionID(userID string) string {
	return fmt.Sprintf("session_%d_%s", time.Now().UnixNano(), userID)
}
