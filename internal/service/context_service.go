// Package service 提供了支持者互动代理的业务逻辑层。
package service

import (
	"context"
	"errors"
	"time"

	"supporter-agent-go/internal/model"
	"supporter-agent-go/internal/repository"
	"supporter-agent-go/pkg/log"
)

// casMaxAttempts 是乐观并发写入的最大尝试次数。
const casMaxAttempts = 3

// ContextService 接口定义了版本化用户上下文的读写与合并操作。
type ContextService interface {
	GetContext(ctx context.Context, userID string) (*model.UserContext, error)
	UpdateContext(ctx context.Context, userID string, patch model.ContextPatch) (*model.UserContext, error)
	MergeContext(ctx context.Context, userID string, patch model.ContextPatch) (*model.UserContext, error)
	PutContext(ctx context.Context, uc *model.UserContext) (*model.UserContext, error)
}

type contextService struct {
	contextRepo repository.ContextRepository
	profileRepo repository.ProfileRepository
}

// NewContextService 创建一个新的 ContextService 实例。
func NewContextService(contextRepo repository.ContextRepository, profileRepo repository.ProfileRepository) ContextService {
	return &contextService{contextRepo: contextRepo, profileRepo: profileRepo}
}

// GetContext 读取用户上下文。无记录时从档案协作方合成默认上下文，
// 以 version 1 持久化后返回；档案缺失时用空档案兜底。
func (s *contextService) GetContext(ctx context.Context, userID string) (*model.UserContext, error) {
	if userID == "" {
		return nil, model.ErrValidation
	}

	uc, err := s.contextRepo.Get(ctx, userID)
	if err == nil {
		return uc, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	profile, err := s.profileRepo.FindByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			log.Warnw("profile lookup failed, synthesizing blank default", "userId", userID, "err", err)
		}
		profile = nil
	}

	fresh := model.DefaultContext(userID, profile)
	if err := s.contextRepo.Create(ctx, &fresh); err != nil {
		return nil, err
	}
	log.Infow("default context synthesized", "userId", userID, "version", fresh.Version)
	return &fresh, nil
}

// UpdateContext 读-改-写：patch 提供的顶层字段整体替换，version 递增 1。
// 写冲突时重读重试，连续失败则返回 model.ErrVersionConflict。
func (s *contextService) UpdateContext(ctx context.Context, userID string, patch model.ContextPatch) (*model.UserContext, error) {
	if userID == "" {
		return nil, model.ErrValidation
	}

	return s.writeWithRetry(ctx, userID, func(current *model.UserContext) {
		if patch.Profile != nil {
			current.Profile = *patch.Profile
		}
		if patch.Preferences != nil {
			current.Preferences = *patch.Preferences
		}
		if patch.EngagementHistory != nil {
			current.EngagementHistory = patch.EngagementHistory
		}
	})
}

// MergeContext 深合并：profile/preferences 逐字段浅覆盖，
// interests 数组求并（去重、保留首次出现顺序），参与历史只追加。version 递增 1。
func (s *contextService) MergeContext(ctx context.Context, userID string, patch model.ContextPatch) (*model.UserContext, error) {
	if userID == "" {
		return nil, model.ErrValidation
	}

	return s.writeWithRetry(ctx, userID, func(current *model.UserContext) {
		if patch.Profile != nil {
			mergeProfile(&current.Profile, patch.Profile)
		}
		if patch.Preferences != nil {
			mergePreferences(&current.Preferences, patch.Preferences)
		}
		if len(patch.EngagementHistory) > 0 {
			current.EngagementHistory = append(current.EngagementHistory, patch.EngagementHistory...)
		}
	})
}

// PutContext 将调用方持有的上下文整体写回（会话结束时的唯一持久化点）。
// 以调用方持有的 version 作为 CAS 期望值，冲突时不重试，由调用方决定。
func (s *contextService) PutContext(ctx context.Context, uc *model.UserContext) (*model.UserContext, error) {
	if uc == nil || uc.UserID == "" {
		return nil, model.ErrValidation
	}

	saved := *uc
	if err := s.contextRepo.CompareAndSwap(ctx, &saved, uc.Version); err != nil {
		return nil, err
	}
	return &saved, nil
}

// writeWithRetry 执行带乐观重试的读-改-写循环。
func (s *contextService) writeWithRetry(ctx context.Context, userID string, mutate func(*model.UserContext)) (*model.UserContext, error) {
	for attempt := 1; attempt <= casMaxAttempts; attempt++ {
		current, err := s.GetContext(ctx, userID)
		if err != nil {
			return nil, err
		}

		next := *current
		mutate(&next)

		err = s.contextRepo.CompareAndSwap(ctx, &next, current.Version)
		if err == nil {
			return &next, nil
		}
		if !errors.Is(err, model.ErrVersionConflict) {
			return nil, err
		}

		log.Warnw("context version conflict, retrying",
			"userId", userID, "attempt", attempt, "expectedVersion", current.Version)
		time.Sleep(time.Duration(attempt) * 10 * time.Millisecond)
	}
	return nil, model.ErrVersionConflict
}

// mergeProfile 将 patch 中的非零字段浅覆盖到 dst，interests 求并。
func mergeProfile(dst, patch *model.UserProfile) {
	if patch.Email != "" {
		dst.Email = patch.Email
	}
	if patch.Name != "" {
		dst.Name = patch.Name
	}
	if patch.Location != "" {
		dst.Location = patch.Location
	}
	if patch.TotalDonations != 0 {
		dst.TotalDonations = patch.TotalDonations
	}
	if patch.DonationCount != 0 {
		dst.DonationCount = patch.DonationCount
	}
	if patch.FirstDonationDate != nil {
		dst.FirstDonationDate = patch.FirstDonationDate
	}
	if patch.LastDonationDate != nil {
		dst.LastDonationDate = patch.LastDonationDate
	}
	if patch.HasAttendedEvents {
		dst.HasAttendedEvents = true
	}
	if patch.HasFundraised {
		dst.HasFundraised = true
	}
	if patch.HasVolunteered {
		dst.HasVolunteered = true
	}
	if patch.PersonallyAffected {
		dst.PersonallyAffected = true
	}
	if patch.LovedOneAffected {
		dst.LovedOneAffected = true
	}
	if patch.CancerType != "" {
		dst.CancerType = patch.CancerType
	}
	if patch.ConsentGiven {
		dst.ConsentGiven = true
	}
	if len(patch.Interests) > 0 {
		dst.Interests = unionStrings(dst.Interests, patch.Interests)
	}
}

// mergePreferences 逐字段合并偏好，话题与癌种兴趣求并。
func mergePreferences(dst, patch *model.UserPreferences) {
	if len(patch.PreferredTopics) > 0 {
		dst.PreferredTopics = unionStrings(dst.PreferredTopics, patch.PreferredTopics)
	}
	if len(patch.PreferredCancerTypes) > 0 {
		dst.PreferredCancerTypes = unionStrings(dst.PreferredCancerTypes, patch.PreferredCancerTypes)
	}
	dst.NotificationSettings = patch.NotificationSettings
}

// unionStrings 求两个字符串切片的并集，去重并保留首次出现顺序。
func unionStrings(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	for _, s := range b {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
