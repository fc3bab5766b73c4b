package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supporter-agent-go/internal/model"
)

func newUserContext() *model.UserContext {
	ctx := model.DefaultContext("u-1", nil)
	return &ctx
}

func returningUserContext() *model.UserContext {
	ctx := model.DefaultContext("u-2", nil)
	ctx.Profile.Name = "Sarah"
	ctx.Profile.Email = "sarah@example.com"
	ctx.Profile.DonationCount = 3
	return &ctx
}

func TestInitialStateDetermination(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*model.UserContext)
		want  State
	}{
		{"blank user", func(*model.UserContext) {}, StateNewUser},
		{"name and email only", func(c *model.UserContext) {
			c.Profile.Name = "Sam"
			c.Profile.Email = "sam@example.com"
		}, StateBasicInfo},
		{"has donations", func(c *model.UserContext) {
			c.Profile.DonationCount = 1
		}, StateDashboard},
		{"has engagement history", func(c *model.UserContext) {
			c.EngagementHistory = []model.EngagementRecord{{RecordID: "r1"}}
		}, StateDashboard},
		{"name without email", func(c *model.UserContext) {
			c.Profile.Name = "Sam"
		}, StateNewUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newUserContext()
			tt.setup(ctx)
			m := NewMachine(ctx, "")
			assert.Equal(t, tt.want, m.CurrentState())
		})
	}
}

func TestDefaultTransitionChain(t *testing.T) {
	ctx := newUserContext()
	ctx.Profile.Name = "Sam"
	ctx.Profile.Email = "sam@example.com"
	m := NewMachine(ctx, StateNewUser)

	for _, want := range []State{StateBasicInfo, StateMotivation, StateCallToAction, StateDashboard} {
		res := m.Transition(Event{Type: EventUserInput}, "")
		require.True(t, res.Success, "expected transition into %s", want)
		assert.Equal(t, want, res.NewState)
		assert.NotEmpty(t, res.NextPrompt)
	}

	// DASHBOARD 自环
	res := m.Transition(Event{Type: EventUserInput}, "")
	assert.True(t, res.Success)
	assert.Equal(t, StateDashboard, res.NewState)
}

func TestGuardBlocksReturnToNewUser(t *testing.T) {
	for _, from := range allStates {
		if from == StateNewUser {
			continue
		}
		t.Run(string(from), func(t *testing.T) {
			m := NewMachine(returningUserContext(), from)

			res := m.Transition(Event{Type: EventUserInput}, StateNewUser)
			assert.False(t, res.Success)
			assert.Equal(t, from, res.NewState)
			assert.Equal(t, "Transition not allowed", res.Message)
		})
	}
}

func TestGuardBlocksReturnToNewUserAfterPause(t *testing.T) {
	m := NewMachine(returningUserContext(), StateMotivation)
	require.True(t, m.Pause().Success)

	res := m.Transition(Event{Type: EventUserInput}, StateNewUser)
	assert.False(t, res.Success)
	assert.Equal(t, StatePaused, res.NewState)

	// 暂停在 NEW_USER 的流程仍可通过 Resume 回去。
	fresh := NewMachine(newUserContext(), StateNewUser)
	require.True(t, fresh.Pause().Success)
	res = fresh.Resume()
	require.True(t, res.Success)
	assert.Equal(t, StateNewUser, res.NewState)
}

func TestMotivationValidatorRequiresBasicInfoOrProfile(t *testing.T) {
	// 空档案且未完成 basic_info：拒绝进入 MOTIVATION。
	m := NewMachine(newUserContext(), StateBasicInfo)
	res := m.Transition(Event{Type: EventUserInput}, StateMotivation)
	assert.False(t, res.Success)
	assert.Equal(t, StateBasicInfo, res.NewState)

	// 有姓名即可进入。
	ctx := newUserContext()
	ctx.Profile.Name = "Sam"
	m = NewMachine(ctx, StateBasicInfo)
	res = m.Transition(Event{Type: EventUserInput}, StateMotivation)
	assert.True(t, res.Success)
}

func TestDashboardValidator(t *testing.T) {
	// 无历史、无捐赠、无姓名：拒绝。
	m := NewMachine(newUserContext(), StateCallToAction)
	res := m.Transition(Event{Type: EventUserInput}, StateDashboard)
	assert.False(t, res.Success)
	assert.Equal(t, "Target state requirements not met", res.Message)

	// 有姓名即可。
	ctx := newUserContext()
	ctx.Profile.Name = "Sam"
	m = NewMachine(ctx, StateCallToAction)
	res = m.Transition(Event{Type: EventUserInput}, StateDashboard)
	assert.True(t, res.Success)
}

func TestSuccessfulTransitionAppendsCompletedStep(t *testing.T) {
	ctx := returningUserContext()
	m := NewMachine(ctx, StateNewUser)

	res := m.Transition(Event{Type: EventUserInput}, "")
	require.True(t, res.Success)

	fs := m.FlowState()
	assert.Equal(t, []string{string(StateNewUser)}, fs.CompletedSteps)
	assert.True(t, fs.CanResume)
	assert.Equal(t, "collect_info", fs.CurrentStep)
}

func TestPauseAndResume(t *testing.T) {
	ctx := returningUserContext()
	m := NewMachine(ctx, StateMotivation)

	res := m.Pause()
	require.True(t, res.Success)
	assert.Equal(t, StatePaused, m.CurrentState())

	// 重复暂停失败。
	res = m.Pause()
	assert.False(t, res.Success)
	assert.Equal(t, "Flow is already paused", res.Message)

	// 恢复回到快照状态。
	res = m.Resume()
	require.True(t, res.Success)
	assert.Equal(t, StateMotivation, m.CurrentState())

	// 未暂停时恢复失败。
	res = m.Resume()
	assert.False(t, res.Success)
	assert.Equal(t, "No paused flow to resume", res.Message)
}

func TestPauseResumeViaTransitionEvents(t *testing.T) {
	m := NewMachine(returningUserContext(), StateCallToAction)

	res := m.Transition(Event{Type: EventPause}, "")
	require.True(t, res.Success)
	assert.Equal(t, StatePaused, res.NewState)

	res = m.Transition(Event{Type: EventResume}, "")
	require.True(t, res.Success)
	assert.Equal(t, StateCallToAction, res.NewState)
	assert.NotEmpty(t, res.NextPrompt)
}

func TestMarkStepCompleteIsIdempotent(t *testing.T) {
	m := NewMachine(returningUserContext(), StateBasicInfo)
	m.MarkStepComplete("collect_info")
	m.MarkStepComplete("collect_info")
	assert.Equal(t, []string{"collect_info"}, m.FlowState().CompletedSteps)
}

func TestCollectedDataRoundTrip(t *testing.T) {
	m := NewMachine(returningUserContext(), StateBasicInfo)
	m.StoreCollectedData("motivation", "family member affected")
	assert.Equal(t, "family member affected", m.GetCollectedData("motivation"))
	assert.Nil(t, m.GetCollectedData("missing"))
}

func TestReset(t *testing.T) {
	ctx := returningUserContext()
	m := NewMachine(ctx, StateMotivation)
	m.StoreCollectedData("k", "v")
	m.MarkStepComplete("x")
	m.Pause()

	m.Reset()

	assert.Equal(t, StateDashboard, m.CurrentState()) // 按上下文重新推导
	assert.Empty(t, m.FlowState().CompletedSteps)
	assert.Empty(t, m.FlowState().CollectedData)
	assert.False(t, m.CanResumeFlow())
}

func TestPromptFallsBackToThere(t *testing.T) {
	m := NewMachine(newUserContext(), StateBasicInfo)
	assert.Contains(t, m.PromptFor(StateBasicInfo), "Thanks for sharing, there!")

	named := NewMachine(returningUserContext(), StateBasicInfo)
	assert.Contains(t, named.PromptFor(StateCallToAction), "Sarah, there are many ways")
}
