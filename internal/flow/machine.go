// Package flow 实现主个性化流程的状态机与信息检索子流程。
package flow

import (
	"fmt"

	"supporter-agent-go/internal/model"
	"supporter-agent-go/pkg/log"
)

// State 是主流程的状态。
type State string

const (
	StateNewUser      State = "new_user"
	StateBasicInfo    State = "basic_info"
	StateMotivation   State = "motivation"
	StateCallToAction State = "call_to_action"
	StateDashboard    State = "dashboard"
	StateIdle         State = "idle"
	StatePaused       State = "paused"
)

var allStates = []State{
	StateNewUser, StateBasicInfo, StateMotivation,
	StateCallToAction, StateDashboard, StateIdle, StatePaused,
}

// EventType 是驱动状态迁移的事件类型。
type EventType string

const (
	EventUserInput     EventType = "user_input"
	EventProfileUpdate EventType = "profile_update"
	EventPause         EventType = "pause"
	EventResume        EventType = "resume"
	EventComplete      EventType = "complete"
)

// Event 是一次状态迁移事件。
type Event struct {
	Type EventType
	Data map[string]interface{}
}

// TransitionResult 是一次迁移尝试的结果。失败时 NewState 保持原状态。
type TransitionResult struct {
	Success       bool
	NewState      State
	Message       string
	NextPrompt    string
	CanTransition bool
}

// validator 校验目标状态的前置条件。
type validator func(ctx *model.UserContext, fs *model.FlowState) bool

// guard 校验某条迁移边本身是否允许，与目标状态前置条件无关。
type guard func(from, to State, ctx *model.UserContext) bool

// Machine 管理个性化主流程的状态迁移。
// 非并发安全：每个会话持有自己的实例，由编排器串行驱动。
type Machine struct {
	current     State
	flowState   *model.FlowState
	context     *model.UserContext
	validators  map[State]validator
	guards      map[string]guard
	pausedState State
}

// NewMachine 按上下文推导初始状态并构造状态机。
// initial 非空时跳过推导，用于从持久化状态恢复。
func NewMachine(ctx *model.UserContext, initial State) *Machine {
	m := &Machine{
		context:    ctx,
		validators: make(map[State]validator),
		guards:     make(map[string]guard),
	}
	if initial != "" {
		m.current = initial
	} else {
		m.current = determineInitialState(ctx)
	}
	fs := model.NewFlowState(string(model.FlowPersonalization))
	m.flowState = &fs
	m.initValidators()
	m.initGuards()

	log.Infow("flow state machine initialized",
		"initialState", m.current, "userId", ctx.UserID)
	return m
}

// CurrentState 返回当前状态。
func (m *Machine) CurrentState() State {
	return m.current
}

// FlowState 返回当前流程状态快照。
func (m *Machine) FlowState() *model.FlowState {
	return m.flowState
}

// UpdateContext 替换状态机持有的用户上下文。
func (m *Machine) UpdateContext(ctx *model.UserContext) {
	m.context = ctx
}

// Transition 尝试一次状态迁移。target 为空时按默认后继表推导。
// 守卫或校验失败不返回 error，而是返回 Success=false 的结果。
func (m *Machine) Transition(event Event, target State) TransitionResult {
	log.Infow("attempting state transition",
		"currentState", m.current, "targetState", target, "eventType", event.Type)

	if event.Type == EventPause {
		return m.Pause()
	}
	if event.Type == EventResume {
		return m.Resume()
	}

	next := target
	if next == "" {
		next = m.nextState()
	}

	if !m.canTransition(m.current, next) {
		log.Warnw("state transition blocked by guard", "from", m.current, "to", next)
		return TransitionResult{
			Success:  false,
			NewState: m.current,
			Message:  "Transition not allowed",
		}
	}

	if !m.validateState(next) {
		log.Warnw("target state validation failed", "state", next)
		return TransitionResult{
			Success:  false,
			NewState: m.current,
			Message:  "Target state requirements not met",
		}
	}

	previous := m.current
	m.current = next
	m.flowState.CompletedSteps = append(m.flowState.CompletedSteps, string(previous))
	m.flowState.CanResume = true
	m.flowState.CurrentStep = initialStepFor(next)

	log.Infow("state transition successful", "from", previous, "to", next)

	return TransitionResult{
		Success:       true,
		NewState:      next,
		NextPrompt:    m.PromptFor(next),
		CanTransition: true,
	}
}

// Pause 暂停当前流程：快照当前状态并切换到 PAUSED。已暂停时失败。
func (m *Machine) Pause() TransitionResult {
	if m.current == StatePaused {
		return TransitionResult{
			Success:  false,
			NewState: m.current,
			Message:  "Flow is already paused",
		}
	}

	m.pausedState = m.current
	m.current = StatePaused
	m.flowState.CanResume = true

	log.Infow("flow paused", "pausedState", m.pausedState)

	return TransitionResult{
		Success:       true,
		NewState:      StatePaused,
		Message:       "Flow paused. You can resume anytime.",
		CanTransition: true,
	}
}

// Resume 恢复被暂停的流程到快照状态。当前未暂停时失败。
func (m *Machine) Resume() TransitionResult {
	if m.current != StatePaused || m.pausedState == "" {
		return TransitionResult{
			Success:  false,
			NewState: m.current,
			Message:  "No paused flow to resume",
		}
	}

	resumed := m.pausedState
	m.current = resumed
	m.pausedState = ""

	log.Infow("flow resumed", "resumedState", resumed)

	return TransitionResult{
		Success:       true,
		NewState:      resumed,
		Message:       "Flow resumed",
		NextPrompt:    m.PromptFor(resumed),
		CanTransition: true,
	}
}

// MarkStepComplete 将步骤追加到已完成列表，重复标记幂等。
func (m *Machine) MarkStepComplete(step string) {
	for _, s := range m.flowState.CompletedSteps {
		if s == step {
			return
		}
	}
	m.flowState.CompletedSteps = append(m.flowState.CompletedSteps, step)
	log.Debugf("step marked complete: step=%s state=%s", step, m.current)
}

// StoreCollectedData 记录流程中收集到的数据。
func (m *Machine) StoreCollectedData(key string, value interface{}) {
	m.flowState.CollectedData[key] = value
}

// GetCollectedData 读取流程中收集到的数据，不存在时返回 nil。
func (m *Machine) GetCollectedData(key string) interface{} {
	return m.flowState.CollectedData[key]
}

// CanResumeFlow 返回流程是否可恢复。
func (m *Machine) CanResumeFlow() bool {
	return m.flowState.CanResume
}

// Reset 按当前上下文重新推导初始状态并清空流程状态。
func (m *Machine) Reset() {
	m.current = determineInitialState(m.context)
	fs := model.NewFlowState(string(model.FlowPersonalization))
	m.flowState = &fs
	m.pausedState = ""
	log.Infow("flow state machine reset", "newState", m.current, "userId", m.context.UserID)
}

func (m *Machine) canTransition(from, to State) bool {
	if g, ok := m.guards[guardKey(from, to)]; ok {
		return g(from, to, m.context)
	}
	return true
}

func (m *Machine) validateState(s State) bool {
	if v, ok := m.validators[s]; ok {
		return v(m.context, m.flowState)
	}
	return true
}

// nextState 返回当前状态的默认后继。DASHBOARD 自环，IDLE 按上下文重新推导。
func (m *Machine) nextState() State {
	switch m.current {
	case StateNewUser:
		return StateBasicInfo
	case StateBasicInfo:
		return StateMotivation
	case StateMotivation:
		return StateCallToAction
	case StateCallToAction:
		return StateDashboard
	case StateDashboard:
		return StateDashboard
	case StateIdle:
		return determineInitialState(m.context)
	default:
		return m.current
	}
}

func (m *Machine) initValidators() {
	m.validators[StateNewUser] = func(*model.UserContext, *model.FlowState) bool { return true }
	m.validators[StateBasicInfo] = func(*model.UserContext, *model.FlowState) bool { return true }

	m.validators[StateMotivation] = func(ctx *model.UserContext, fs *model.FlowState) bool {
		return stepCompleted(fs, StateBasicInfo) ||
			ctx.Profile.Name != "" || ctx.Profile.Email != ""
	}
	m.validators[StateCallToAction] = func(ctx *model.UserContext, fs *model.FlowState) bool {
		return stepCompleted(fs, StateMotivation) || stepCompleted(fs, StateBasicInfo)
	}
	m.validators[StateDashboard] = func(ctx *model.UserContext, fs *model.FlowState) bool {
		return len(ctx.EngagementHistory) > 0 ||
			ctx.Profile.DonationCount > 0 ||
			ctx.Profile.Name != ""
	}
}

func (m *Machine) initGuards() {
	for _, s := range allStates {
		if s == StatePaused {
			continue
		}
		m.guards[guardKey(s, StatePaused)] = func(State, State, *model.UserContext) bool { return true }
		m.guards[guardKey(StatePaused, s)] = func(State, State, *model.UserContext) bool { return true }
	}
	// 任何其他状态都不允许迁移回 NEW_USER，包括 IDLE 和 PAUSED。
	// Resume 不走守卫，暂停在 NEW_USER 的流程仍能恢复。
	for _, s := range allStates {
		if s == StateNewUser {
			continue
		}
		m.guards[guardKey(s, StateNewUser)] = func(State, State, *model.UserContext) bool { return false }
	}
}

// determineInitialState 按上下文推导初始状态：
// 有互动历史或捐赠记录 → DASHBOARD；有姓名和邮箱 → BASIC_INFO；否则 → NEW_USER。
func determineInitialState(ctx *model.UserContext) State {
	if len(ctx.EngagementHistory) > 0 || ctx.Profile.DonationCount > 0 {
		return StateDashboard
	}
	if ctx.Profile.Name != "" && ctx.Profile.Email != "" {
		return StateBasicInfo
	}
	return StateNewUser
}

func initialStepFor(s State) string {
	switch s {
	case StateNewUser:
		return "welcome"
	case StateBasicInfo:
		return "collect_info"
	case StateMotivation:
		return "show_achievements"
	case StateCallToAction:
		return "present_cta"
	case StateDashboard:
		return "display_dashboard"
	default:
		return "start"
	}
}

// PromptFor 返回某状态对应的用户提示语，使用显示名，缺省回退为 there。
func (m *Machine) PromptFor(s State) string {
	name := m.context.Profile.Name
	if name == "" {
		name = "there"
	}

	switch s {
	case StateNewUser:
		return "Welcome to Cancer Research UK! Are you new to CRUK? What do you know about us? Have you supported us in any way before?"
	case StateBasicInfo:
		return fmt.Sprintf("Thanks for sharing, %s! To personalize your experience, could you tell me a bit more about yourself? What brings you to Cancer Research UK today?", name)
	case StateMotivation:
		return "Let me share some of the incredible impact Cancer Research UK is making in the fight against cancer..."
	case StateCallToAction:
		return fmt.Sprintf("%s, there are many ways you can support our mission. Would you like to explore donation options, volunteering opportunities, or fundraising events?", name)
	case StateDashboard:
		return fmt.Sprintf("Welcome back, %s! Here's your personalized dashboard showing your impact and engagement with Cancer Research UK.", name)
	case StatePaused:
		return "Your personalization flow is paused. Let me know when you'd like to continue!"
	default:
		return "How can I help you today?"
	}
}

func stepCompleted(fs *model.FlowState, s State) bool {
	for _, done := range fs.CompletedSteps {
		if done == string(s) {
			return true
		}
	}
	return false
}

func guardKey(from, to State) string {
	return string(from) + "->" + string(to)
}
