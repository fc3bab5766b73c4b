package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supporter-agent-go/internal/model"
)

// fakeContextRepo 是 ContextRepository 的内存实现，可注入冲突与失败。
type fakeContextRepo struct {
	rows          map[string]model.UserContext
	conflictTimes int // 前 N 次 CAS 强制返回版本冲突
	casCalls      int
	getErr        error
}

func newFakeContextRepo() *fakeContextRepo {
	return &fakeContextRepo{rows: make(map[string]model.UserContext)}
}

func (f *fakeContextRepo) Get(_ context.Context, userID string) (*model.UserContext, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	row, ok := f.rows[userID]
	if !ok {
		return nil, model.ErrNotFound
	}
	copied := row
	return &copied, nil
}

func (f *fakeContextRepo) Create(_ context.Context, uc *model.UserContext) error {
	uc.Version = 1
	uc.LastUpdated = time.Now()
	f.rows[uc.UserID] = *uc
	return nil
}

func (f *fakeContextRepo) CompareAndSwap(_ context.Context, uc *model.UserContext, expectedVersion int64) error {
	f.casCalls++
	if f.conflictTimes > 0 {
		f.conflictTimes--
		return model.ErrVersionConflict
	}
	current, ok := f.rows[uc.UserID]
	if !ok || current.Version != expectedVersion {
		return model.ErrVersionConflict
	}
	uc.Version = expectedVersion + 1
	uc.LastUpdated = time.Now()
	f.rows[uc.UserID] = *uc
	return nil
}

// fakeProfileStore 是 ProfileRepository 的内存实现。
type fakeProfileStore struct {
	profiles map[string]model.UserProfile
	findErr  error
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[string]model.UserProfile)}
}

func (f *fakeProfileStore) FindByID(_ context.Context, userID string) (*model.UserProfile, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, model.ErrNotFound
	}
	copied := p
	return &copied, nil
}

func (f *fakeProfileStore) Create(_ context.Context, profile *model.UserProfile) error {
	f.profiles[profile.UserID] = *profile
	return nil
}

func (f *fakeProfileStore) Update(_ context.Context, profile *model.UserProfile) error {
	f.profiles[profile.UserID] = *profile
	return nil
}

func (f *fakeProfileStore) ListEngagement(_ context.Context, _ string, _ int) ([]model.EngagementRecord, error) {
	return nil, nil
}

func (f *fakeProfileStore) AppendEngagement(_ context.Context, _ *model.EngagementRecord) error {
	return nil
}

func newContextFixture() (*fakeContextRepo, *fakeProfileStore, ContextService) {
	repo := newFakeContextRepo()
	profiles := newFakeProfileStore()
	return repo, profiles, NewContextService(repo, profiles)
}

func TestGetContextSynthesizesDefaultWithProfile(t *testing.T) {
	repo, profiles, svc := newContextFixture()
	profiles.profiles["user-1"] = model.UserProfile{
		UserID: "user-1", Name: "Sarah", Email: "sarah@example.com",
	}

	uc, err := svc.GetContext(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, "Sarah", uc.Profile.Name)
	assert.Equal(t, int64(1), uc.Version)
	assert.Empty(t, uc.EngagementHistory)
	assert.True(t, uc.Preferences.NotificationSettings.Email)

	// 已持久化，下次读取不再合成
	_, ok := repo.rows["user-1"]
	assert.True(t, ok)
}

func TestGetContextSynthesizesBlankDefaultWithoutProfile(t *testing.T) {
	_, _, svc := newContextFixture()

	uc, err := svc.GetContext(context.Background(), "ghost")
	require.NoError(t, err)

	assert.Equal(t, "ghost", uc.UserID)
	assert.Empty(t, uc.Profile.Name)
	assert.Equal(t, int64(1), uc.Version)
}

func TestGetContextEmptyUserID(t *testing.T) {
	_, _, svc := newContextFixture()

	_, err := svc.GetContext(context.Background(), "")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestUpdateContextReplacesTopLevelFields(t *testing.T) {
	repo, _, svc := newContextFixture()
	repo.rows["user-1"] = model.UserContext{
		UserID:  "user-1",
		Profile: model.UserProfile{UserID: "user-1", Name: "Sarah", Interests: []string{"running"}},
		Preferences: model.UserPreferences{
			PreferredTopics: []string{"treatment"},
		},
		Version: 1,
	}

	uc, err := svc.UpdateContext(context.Background(), "user-1", model.ContextPatch{
		Preferences: &model.UserPreferences{PreferredTopics: []string{"prevention"}},
	})
	require.NoError(t, err)

	// 整体替换而非合并
	assert.Equal(t, []string{"prevention"}, uc.Preferences.PreferredTopics)
	// 未出现在 patch 中的字段不动
	assert.Equal(t, "Sarah", uc.Profile.Name)
	assert.Equal(t, int64(2), uc.Version)
}

func TestMergeContextUnionsAndAppends(t *testing.T) {
	repo, _, svc := newContextFixture()
	repo.rows["user-1"] = model.UserContext{
		UserID: "user-1",
		Profile: model.UserProfile{
			UserID: "user-1", Name: "Sarah", Interests: []string{"running", "research"},
		},
		Preferences: model.UserPreferences{
			PreferredCancerTypes: []string{"breast-cancer"},
		},
		EngagementHistory: []model.EngagementRecord{{RecordID: "eng_1"}},
		Version:           3,
	}

	uc, err := svc.MergeContext(context.Background(), "user-1", model.ContextPatch{
		Profile: &model.UserProfile{
			UserID:           "user-1",
			LovedOneAffected: true,
			CancerType:       "lung-cancer",
			Interests:        []string{"research", "biomarkers"},
		},
		Preferences: &model.UserPreferences{
			PreferredCancerTypes: []string{"lung-cancer", "breast-cancer"},
		},
		EngagementHistory: []model.EngagementRecord{{RecordID: "eng_2"}},
	})
	require.NoError(t, err)

	// 非零字段浅覆盖
	assert.Equal(t, "Sarah", uc.Profile.Name)
	assert.True(t, uc.Profile.LovedOneAffected)
	assert.Equal(t, "lung-cancer", uc.Profile.CancerType)
	// 数组求并：去重、保留首次出现顺序
	assert.Equal(t, []string{"running", "research", "biomarkers"}, uc.Profile.Interests)
	assert.Equal(t, []string{"breast-cancer", "lung-cancer"}, uc.Preferences.PreferredCancerTypes)
	// 参与历史只追加
	require.Len(t, uc.EngagementHistory, 2)
	assert.Equal(t, "eng_1", uc.EngagementHistory[0].RecordID)
	assert.Equal(t, "eng_2", uc.EngagementHistory[1].RecordID)
	assert.Equal(t, int64(4), uc.Version)
}

func TestMergeContextDoesNotUnsetBooleans(t *testing.T) {
	repo, _, svc := newContextFixture()
	repo.rows["user-1"] = model.UserContext{
		UserID:  "user-1",
		Profile: model.UserProfile{UserID: "user-1", LovedOneAffected: true},
		Version: 1,
	}

	uc, err := svc.MergeContext(context.Background(), "user-1", model.ContextPatch{
		Profile: &model.UserProfile{UserID: "user-1", Name: "Sarah"},
	})
	require.NoError(t, err)

	// patch 中为 false 的布尔不会清掉已有的 true
	assert.True(t, uc.Profile.LovedOneAffected)
	assert.Equal(t, "Sarah", uc.Profile.Name)
}

func TestWriteRetriesOnConflictThenSucceeds(t *testing.T) {
	repo, _, svc := newContextFixture()
	repo.rows["user-1"] = model.UserContext{
		UserID: "user-1", Profile: model.UserProfile{UserID: "user-1"}, Version: 1,
	}
	repo.conflictTimes = 2

	uc, err := svc.UpdateContext(context.Background(), "user-1", model.ContextPatch{
		Profile: &model.UserProfile{UserID: "user-1", Name: "Sarah"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Sarah", uc.Profile.Name)
	assert.Equal(t, 3, repo.casCalls)
}

func TestWriteFailsAfterExhaustedRetries(t *testing.T) {
	repo, _, svc := newContextFixture()
	repo.rows["user-1"] = model.UserContext{
		UserID: "user-1", Profile: model.UserProfile{UserID: "user-1"}, Version: 1,
	}
	repo.conflictTimes = 10

	_, err := svc.UpdateContext(context.Background(), "user-1", model.ContextPatch{
		Profile: &model.UserProfile{UserID: "user-1", Name: "Sarah"},
	})
	assert.ErrorIs(t, err, model.ErrVersionConflict)
	assert.Equal(t, casMaxAttempts, repo.casCalls)
}

func TestWriteSurfacesNonConflictErrors(t *testing.T) {
	repo, _, svc := newContextFixture()
	repo.getErr = errors.New("db down")

	_, err := svc.UpdateContext(context.Background(), "user-1", model.ContextPatch{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrVersionConflict)
}

func TestPutContextUsesCallerVersion(t *testing.T) {
	repo, _, svc := newContextFixture()
	repo.rows["user-1"] = model.UserContext{
		UserID: "user-1", Profile: model.UserProfile{UserID: "user-1"}, Version: 2,
	}

	uc := &model.UserContext{
		UserID:  "user-1",
		Profile: model.UserProfile{UserID: "user-1", Name: "Sarah"},
		Version: 2,
	}
	saved, err := svc.PutContext(context.Background(), uc)
	require.NoError(t, err)
	assert.Equal(t, int64(3), saved.Version)
	assert.Equal(t, "Sarah", repo.rows["user-1"].Profile.Name)
}

func TestPutContextConflictNotRetried(t *testing.T) {
	repo, _, svc := newContextFixture()
	repo.rows["user-1"] = model.UserContext{
		UserID: "user-1", Profile: model.UserProfile{UserID: "user-1"}, Version: 5,
	}

	uc := &model.UserContext{UserID: "user-1", Version: 2}
	_, err := svc.PutContext(context.Background(), uc)
	assert.ErrorIs(t, err, model.ErrVersionConflict)
	assert.Equal(t, 1, repo.casCalls)
}

func TestUnionStrings(t *testing.T) {
	assert.Equal(t,
		[]string{"a", "b", "c"},
		unionStrings([]string{"a", "b"}, []string{"b", "c", "a"}))
	assert.Empty(t, unionStrings(nil, nil))
}
