package agent

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"supporter-agent-go/internal/flow"
	"supporter-agent-go/internal/model"
	"supporter-agent-go/pkg/log"
)

// averageRegularDonation 是平均月捐金额（英镑），用于识别高额捐赠者。
const averageRegularDonation = 10.0

// handleProfileUpdate 引导用户说明想更新的档案内容。
func (a *Agent) handleProfileUpdate(sess *Session) (string, []model.UIComponent) {
	log.Infow("handling profile update intent", "sessionId", sess.SessionID)

	name := sess.displayName()
	text := fmt.Sprintf("Of course, %s! I can help you update your profile. What would you like to update?\n\n", name) +
		"You can tell me about:\n" +
		"• Personal connections to cancer\n" +
		"• Your interests and preferences\n" +
		"• Communication preferences\n" +
		"• Any other information you'd like to share\n\n" +
		"Just let me know what you'd like to update, and I'll make sure your profile reflects your current situation."
	return text, nil
}

// handlePersonalDisclosure 以共情回应个人披露，
// 并将披露的癌种与亲属关联合并进用户上下文（尽力而为）。
func (a *Agent) handlePersonalDisclosure(ctx context.Context, sess *Session, result model.IntentResult) (string, []model.UIComponent) {
	log.Infow("handling personal disclosure with empathy", "sessionId", sess.SessionID)

	name := sess.displayName()
	cancerType := entityValueOf(result.Entities, "cancer_type", "cancer")
	relationship := entityValueOf(result.Entities, "relationship", "loved one")
	cancerName := strings.ReplaceAll(cancerType, "-", " ")

	a.mergeDisclosure(ctx, sess, cancerType)

	var b strings.Builder
	fmt.Fprintf(&b, "%s, I'm truly sorry to hear about your %s's diagnosis. ", name, relationship)
	b.WriteString("This must be a very difficult time for you and your family.\n\n")
	b.WriteString("Cancer Research UK is here to support you. We have:\n")
	fmt.Fprintf(&b, "• Information about %s and treatment options\n", cancerName)
	b.WriteString("• Support services for families affected by cancer\n")
	b.WriteString("• Research updates on the latest breakthroughs\n")
	b.WriteString("• Ways you can help fund life-saving research\n\n")
	fmt.Fprintf(&b, "I've updated your profile to reflect your connection to %s. ", cancerName)
	b.WriteString("This helps me provide you with the most relevant information and support.\n\n")
	fmt.Fprintf(&b, "Would you like to learn more about %s, find support services, or explore ways to help fund research?", cancerName)

	ui := []model.UIComponent{{
		Type: "empathy_card",
		Data: map[string]interface{}{
			"cancerType":   cancerType,
			"relationship": relationship,
			"supportResources": []map[string]string{
				{"title": fmt.Sprintf("Understanding %s", cancerName), "url": "#"},
				{"title": "Support for families", "url": "#"},
				{"title": "Latest research updates", "url": "#"},
			},
		},
	}}
	return b.String(), ui
}

// mergeDisclosure 将披露的癌种关联深合并进持久上下文。失败只记日志。
func (a *Agent) mergeDisclosure(ctx context.Context, sess *Session, cancerType string) {
	if cancerType == "" || cancerType == "cancer" {
		return
	}

	patch := model.ContextPatch{
		Profile: &model.UserProfile{
			UserID:           sess.UserID,
			LovedOneAffected: true,
			CancerType:       cancerType,
		},
		Preferences: &model.UserPreferences{
			PreferredCancerTypes: []string{cancerType},
			NotificationSettings: notificationSettingsOf(sess),
		},
	}
	merged, err := a.contexts.MergeContext(ctx, sess.UserID, patch)
	if err != nil {
		log.Warnw("failed to merge disclosure into context",
			"userId", sess.UserID, "cancerType", cancerType, "err", err)
		// 合并失败只更新会话缓存，持久化留待 endSession
		sess.CachedContext.Profile.LovedOneAffected = true
		sess.CachedContext.Profile.CancerType = cancerType
		return
	}

	history := sess.CachedContext.EngagementHistory
	sess.CachedContext = merged
	if len(history) > len(merged.EngagementHistory) {
		sess.CachedContext.EngagementHistory = history
	}
	sess.baseVersion = merged.Version
	sess.machine.UpdateContext(sess.CachedContext)
}

// handleSupportInquiry 按档案组装个性化的支持方式清单：
// 兴趣匹配的筹款活动优先，捐赠建议按既往捐赠水平分层。
func (a *Agent) handleSupportInquiry(sess *Session) (string, []model.UIComponent) {
	profile := sess.profile()
	name := sess.displayName()
	log.Infow("handling support inquiry",
		"sessionId", sess.SessionID, "hasProfile", profile != nil)

	isRegularGiver := profile != nil && profile.TotalDonations > 0 && profile.DonationCount > 1
	monthlyAmount := 0.0
	if isRegularGiver {
		monthlyAmount = profile.TotalDonations / float64(profile.DonationCount)
	}
	isGenerousDonor := monthlyAmount > averageRegularDonation

	hasCycling := profileHasInterest(profile, "cycling")
	hasRunning := profileHasInterest(profile, "running") || profileHasInterest(profile, "race-for-life")

	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for wanting to support Cancer Research UK, %s! ", name)
	b.WriteString("There are many meaningful ways you can help us beat cancer:\n\n")

	n := 1
	if hasRunning && profile.Location != "" {
		fmt.Fprintf(&b, "**%d. Fundraise Through Race for Life**\n", n)
		fmt.Fprintf(&b, "Since you're interested in running, you might love Race for Life events in %s! ", profile.Location)
		b.WriteString("You can walk, jog, or run to raise funds and honor loved ones affected by cancer. ")
		b.WriteString("We'll support you every step of the way.\n\n")
		n++
	}
	if hasCycling && profile.Location != "" {
		fmt.Fprintf(&b, "**%d. Fundraise Through Cycling Events**\n", n)
		b.WriteString("Since you're interested in cycling, you might love the London to Brighton Cycle Ride 2026! ")
		b.WriteString("You can also organize your own cycling challenge or join one of our other sponsored rides. ")
		b.WriteString("We'll support you every step of the way.\n\n")
		n++
	}

	if profile != nil && profile.LovedOneAffected && profile.CancerType != "" {
		cancerName := strings.ReplaceAll(profile.CancerType, "-", " ")
		fmt.Fprintf(&b, "**%d. Fund %s Research**\n", n, cancerName)
		fmt.Fprintf(&b, "Your donation directly supports research into %s, helping find better treatments and ultimately a cure. ", cancerName)
		switch {
		case isGenerousDonor:
			fmt.Fprintf(&b, "Your current support of £%.0f/month is incredibly generous and makes a huge difference. ", monthlyAmount)
			b.WriteString("You're welcome to increase your regular giving at any time if you'd like to do even more.\n\n")
		case isRegularGiver:
			b.WriteString("Even a small monthly donation makes a huge difference.\n\n")
		default:
			b.WriteString("You can make a one-time donation or set up regular monthly giving.\n\n")
		}
		n++
	} else if !isRegularGiver {
		fmt.Fprintf(&b, "**%d. Make a Donation**\n", n)
		b.WriteString("Your donation funds life-saving research across all cancer types. Every pound helps us get closer to beating cancer.\n\n")
		n++
	}

	if !isRegularGiver {
		fmt.Fprintf(&b, "**%d. Become a Regular Giver**\n", n)
		b.WriteString("Regular monthly donations provide steady funding for long-term research projects. ")
		b.WriteString("You can start from as little as £5 per month.\n\n")
		n++
	} else if isGenerousDonor {
		fmt.Fprintf(&b, "**%d. Your Incredible Generosity**\n", n)
		fmt.Fprintf(&b, "Thank you for your regular support of £%.0f/month - you're giving more than our average supporter! ", monthlyAmount)
		b.WriteString("Your commitment is funding long-term research projects. You're welcome to increase your giving at any time.\n\n")
		n++
	}

	if !hasCycling {
		fmt.Fprintf(&b, "**%d. Fundraise for Us**\n", n)
		if profile != nil && profile.Location != "" {
			fmt.Fprintf(&b, "Join an event in %s or create your own fundraising campaign. ", profile.Location)
		} else {
			b.WriteString("Join one of our events or create your own fundraising campaign. ")
		}
		b.WriteString("We'll support you every step of the way.\n\n")
		n++
	}

	fmt.Fprintf(&b, "**%d. Volunteer Your Time**\n", n)
	b.WriteString("Help in your local community, at events, or with our campaigns. Your time and skills make a real impact.\n\n")
	n++

	fmt.Fprintf(&b, "**%d. Spread Awareness**\n", n)
	b.WriteString("Share our research updates, cancer prevention information, and fundraising campaigns with your network.\n\n")
	b.WriteString("Which of these options interests you most? I can provide more details about any of them.")

	ui := []model.UIComponent{{
		Type: "call_to_action",
		Data: map[string]interface{}{
			"type":    "support_options",
			"options": buildSupportOptions(profile, hasCycling, hasRunning, isRegularGiver, isGenerousDonor, monthlyAmount),
		},
	}}
	return b.String(), ui
}

// buildSupportOptions 组装支持方式的 UI 选项列表，与文案保持同一优先级。
func buildSupportOptions(
	profile *model.UserProfile,
	hasCycling, hasRunning, isRegularGiver, isGenerousDonor bool,
	monthlyAmount float64,
) []map[string]interface{} {
	options := []map[string]interface{}{}

	if hasRunning {
		options = append(options, map[string]interface{}{
			"title":       "Fundraise Through Race for Life",
			"description": "Walk, jog, or run to raise funds and honor loved ones",
			"action":      "fundraise_running",
		})
	}
	if hasCycling {
		options = append(options, map[string]interface{}{
			"title":       "Fundraise Through Cycling",
			"description": "London to Brighton Cycle Ride 2026 and other cycling challenges",
			"action":      "fundraise_cycling",
		})
	}

	if profile != nil && profile.CancerType != "" {
		description := "One-time or monthly donation"
		amounts := []float64{10, 25, 50, 100}
		if isGenerousDonor {
			description = fmt.Sprintf("Current: £%.0f/month - Thank you!", monthlyAmount)
			amounts = []float64{
				math.Ceil(monthlyAmount * 1.2),
				math.Ceil(monthlyAmount * 1.5),
				math.Ceil(monthlyAmount * 2),
			}
		}
		options = append(options, map[string]interface{}{
			"title":            fmt.Sprintf("Fund %s Research", strings.ReplaceAll(profile.CancerType, "-", " ")),
			"description":      description,
			"suggestedAmounts": amounts,
			"action":           "donate",
		})
	} else if !isRegularGiver {
		options = append(options, map[string]interface{}{
			"title":            "Make a Donation",
			"description":      "One-time or monthly donation",
			"suggestedAmounts": []float64{10, 25, 50, 100},
			"action":           "donate",
		})
	}

	if !isRegularGiver {
		options = append(options, map[string]interface{}{
			"title":            "Become a Regular Giver",
			"description":      "Monthly support from £5",
			"suggestedAmounts": []float64{5, 10, 20},
			"action":           "regular_giving",
		})
	}
	if !hasCycling {
		options = append(options, map[string]interface{}{
			"title":       "Fundraise",
			"description": "Create your own campaign",
			"action":      "fundraise",
		})
	}
	options = append(options, map[string]interface{}{
		"title":       "Volunteer",
		"description": "Give your time and skills",
		"action":      "volunteer",
	})
	return options
}

// handleDashboard 展示个性化仪表盘：捐赠汇总、兴趣推荐与癌种专属资源。
func (a *Agent) handleDashboard(sess *Session) (string, []model.UIComponent) {
	profile := sess.profile()
	name := sess.displayName()
	log.Infow("handling dashboard request",
		"sessionId", sess.SessionID, "hasProfile", profile != nil)

	var b strings.Builder
	fmt.Fprintf(&b, "Welcome, %s! Here's your personalized dashboard:\n\n", name)

	if profile != nil && profile.TotalDonations > 0 {
		b.WriteString("**Your Impact**\n")
		fmt.Fprintf(&b, "• Total donated: £%.2f\n", profile.TotalDonations)
		fmt.Fprintf(&b, "• Number of donations: %d\n", profile.DonationCount)
		if profile.LastDonationDate != nil {
			fmt.Fprintf(&b, "• Last donation: %s\n", profile.LastDonationDate.Format("02/01/2006"))
		}
		b.WriteString("\n")
	}

	if profile != nil && len(profile.Interests) > 0 {
		b.WriteString("**Recommended for You**\n")
		fmt.Fprintf(&b, "Based on your interests in %s:\n", strings.Join(profile.Interests, ", "))
		b.WriteString("• Latest research updates\n")
		b.WriteString("• Support resources\n")
		b.WriteString("• Upcoming events\n\n")
	}

	if profile != nil && profile.CancerType != "" {
		cancerName := strings.ReplaceAll(profile.CancerType, "-", " ")
		fmt.Fprintf(&b, "**%s Resources**\n", titleCase(cancerName))
		fmt.Fprintf(&b, "• Understanding %s\n", cancerName)
		fmt.Fprintf(&b, "• Latest %s research\n", cancerName)
		b.WriteString("• Support for families\n\n")
	}

	b.WriteString("What would you like to explore today?")

	data := map[string]interface{}{
		"userName":           name,
		"totalDonations":     0.0,
		"donationCount":      0,
		"interests":          []string{},
		"recommendedContent": []interface{}{},
	}
	if profile != nil {
		data["totalDonations"] = profile.TotalDonations
		data["donationCount"] = profile.DonationCount
		data["interests"] = profile.Interests
		if profile.CancerType != "" {
			data["cancerType"] = profile.CancerType
		}
	}
	return b.String(), []model.UIComponent{{Type: "dashboard", Data: data}}
}

// handleInformationSeeking 打断当前主流程并进入信息检索子流程。
// 被打断的是个性化流程时先暂停状态机，子流程完成后可恢复。
func (a *Agent) handleInformationSeeking(ctx context.Context, sess *Session, query string) (string, []model.UIComponent) {
	log.Infow("handling information seeking intent",
		"sessionId", sess.SessionID, "query", query, "interruptedFlow", sess.interruptedFlow)

	if sess.interruptedFlow == model.FlowPersonalization && sess.machine.CurrentState() != flow.StatePaused {
		sess.machine.Pause()
	}

	sess.infoFlow = flow.NewInfoSeekingFlow(
		sess.CachedContext, sess.interruptedFlow, a.knowledge, a.analytics, a.trustedDomain)

	r := sess.infoFlow.ProcessQuery(ctx, query)
	return r.Message, searchResultsComponent(query, r.Articles)
}

// handlePersonalization 返回捐赠汇总与精选研究。影响力提问转交 handleImpact。
func (a *Agent) handlePersonalization(ctx context.Context, sess *Session, result model.IntentResult) (string, []model.UIComponent) {
	log.Infow("handling personalization intent", "sessionId", sess.SessionID)

	if entityValueOf(result.Entities, "query_type", "") == "impact" {
		return a.handleImpact(ctx, sess, result)
	}

	name := sess.displayName()
	summary := a.donationSummary(ctx, sess.UserID)

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s! Thank you for your continued support. ", name)
	if summary.TotalAmount > 0 {
		fmt.Fprintf(&b, "You've donated £%.2f across %d donation%s. ",
			summary.TotalAmount, summary.TransactionCount, pluralSuffix(summary.TransactionCount))
		b.WriteString("Your generosity is helping fund vital cancer research. ")
	}
	b.WriteString("\n\nWould you like to see your personalized dashboard or learn more about how your donations are making an impact?")

	ui := []model.UIComponent{{
		Type: "dashboard",
		Data: map[string]interface{}{
			"userName":            name,
			"totalDonations":      summary.TotalAmount,
			"donationCount":       summary.TransactionCount,
			"suggestedNextAmount": summary.SuggestedNextAmount,
		},
	}}

	if papers, err := a.research.GetFeatured(ctx, model.PaperFilters{Limit: 3}); err == nil && len(papers) > 0 {
		ui = append(ui, model.UIComponent{
			Type: "featured_research",
			Data: map[string]interface{}{"papers": papers},
		})
	}
	return b.String(), ui
}

// handleImpact 回答"我的支持有什么影响"：个人捐赠影响、
// 癌种专属研究进展、兴趣领域进展与机构整体成就。
// 用户在提问中指定的癌种优先于档案偏好。
func (a *Agent) handleImpact(ctx context.Context, sess *Session, result model.IntentResult) (string, []model.UIComponent) {
	profile := sess.profile()
	name := sess.displayName()
	log.Infow("handling impact query", "sessionId", sess.SessionID)

	cancerType := entityValueOf(result.Entities, "cancer_type", "")
	if cancerType == "" && profile != nil {
		cancerType = profile.CancerType
	}
	cancerName := "cancer"
	if cancerType != "" {
		cancerName = strings.ReplaceAll(cancerType, "-", " ")
	}

	donationAmount := 0.0
	donationCount := 0
	var lastDonation *time.Time
	if profile != nil {
		donationAmount = profile.TotalDonations
		donationCount = profile.DonationCount
		lastDonation = profile.LastDonationDate
	}
	if summary, err := a.txRepo.SummaryForUser(ctx, sess.UserID); err == nil {
		if summary.TotalAmount > 0 {
			donationAmount = summary.TotalAmount
			donationCount = summary.TransactionCount
		}
		if summary.LastDonationDate != nil {
			lastDonation = summary.LastDonationDate
		}
	} else {
		log.Warnw("donation summary lookup failed, using profile snapshot",
			"userId", sess.UserID, "err", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s, thank you for asking! Your support is making a real difference in the fight against cancer.\n\n", name)

	if donationAmount > 0 {
		b.WriteString("**Your Personal Contribution**\n")
		fmt.Fprintf(&b, "You've donated £%.2f", donationAmount)
		if donationCount > 1 {
			fmt.Fprintf(&b, " across %d donations", donationCount)
		}
		if lastDonation != nil {
			if monthsAgo := int(time.Since(*lastDonation).Hours() / (24 * 30)); monthsAgo > 0 {
				fmt.Fprintf(&b, ", with your last donation %d month%s ago", monthsAgo, pluralSuffix(monthsAgo))
			}
		}
		b.WriteString(". Every pound you give helps fund life-saving research.\n\n")
	}

	if cancerType != "" {
		fmt.Fprintf(&b, "**%s Research Impact**\n", titleCase(cancerName))
		b.WriteString(cancerSpecificImpact(cancerType, profile))
		b.WriteString("\n\n")
	}

	if profile != nil && len(profile.Interests) > 0 {
		if impact := interestBasedImpact(profile.Interests); impact != "" {
			b.WriteString("**Research Areas You Care About**\n")
			b.WriteString(impact)
			b.WriteString("\n\n")
		}
	}

	b.WriteString("**Cancer Research UK's Overall Impact**\n")
	b.WriteString("• Cancer survival has doubled in the last 40 years\n")
	b.WriteString("• We've helped develop 50+ cancer drugs used worldwide\n")
	b.WriteString("• £443m committed to research in 2021/22\n")
	b.WriteString("• Supporting 500+ PhD students and researchers\n\n")
	b.WriteString("Your support is part of this incredible progress. Thank you for being part of our mission to beat cancer sooner.")

	return b.String(), nil
}

// handleAction 处理行动意图，捐赠类按既往捐赠水平给出建议金额。
func (a *Agent) handleAction(ctx context.Context, sess *Session, result model.IntentResult) (string, []model.UIComponent) {
	name := sess.displayName()
	actionType := entityValueOf(result.Entities, "action_type", "support")
	log.Infow("handling action intent", "sessionId", sess.SessionID, "actionType", actionType)

	if actionType != "donation" {
		text := fmt.Sprintf("Great to see your interest in %s, %s! ", actionType, name) +
			"There are many ways to support Cancer Research UK. Would you like to learn more about volunteering, fundraising, or participating in events?"
		return text, nil
	}

	text := fmt.Sprintf("That's wonderful, %s! Every donation helps fund life-saving cancer research. ", name)
	summary := a.donationSummary(ctx, sess.UserID)

	if summary.SuggestedNextAmount > 0 {
		suggested := summary.SuggestedNextAmount
		text += fmt.Sprintf("Based on your previous support, we suggest a donation of £%.0f. ", suggested)
		text += "Of course, any amount you can give makes a real difference."
		return text, []model.UIComponent{{
			Type: "call_to_action",
			Data: map[string]interface{}{
				"type":             "donate",
				"suggestedAmounts": []float64{suggested * 0.5, suggested, suggested * 2},
				"message":          "Your donation funds vital research",
			},
		}}
	}

	text += "Would you like to make a one-time donation or become a regular giver?"
	return text, []model.UIComponent{{
		Type: "call_to_action",
		Data: map[string]interface{}{
			"type":             "donate",
			"suggestedAmounts": []float64{10, 25, 50},
			"message":          "Start supporting cancer research today",
		},
	}}
}

// handleUnclear 对无法判定的输入给出引导选项，文案由内容生成服务产出。
func (a *Agent) handleUnclear(ctx context.Context, sess *Session, result model.IntentResult) string {
	log.Infow("handling unclear intent", "sessionId", sess.SessionID)

	return a.content.GenerateResponse(ctx, result, sess.CachedContext)
}

// continueInfoSeeking 在信息检索子流程活跃时接管路由：
// 按子流程状态把输入解释为新查询、完整性确认、反馈或恢复决定。
func (a *Agent) continueInfoSeeking(ctx context.Context, sess *Session, text string) (model.IntentResult, string, []model.UIComponent) {
	result := model.IntentResult{
		PrimaryIntent: model.IntentInformationSeeking,
		Confidence:    0.85,
		Entities:      []model.Entity{},
		SuggestedFlow: "information_seeking",
	}

	f := sess.infoFlow
	log.Infow("continuing information seeking sub-flow",
		"sessionId", sess.SessionID, "subFlowState", f.CurrentState())

	switch f.CurrentState() {
	case flow.InfoStateResults:
		switch {
		case isAffirmative(text):
			r := f.ValidateCompletion(true)
			return result, r.Message, nil
		case isNegative(text):
			r := f.ValidateCompletion(false)
			return result, r.Message, nil
		default:
			// 既非确认也非否认，当作追加查询
			r := f.ProcessQuery(ctx, text)
			return result, r.Message, searchResultsComponent(text, r.Articles)
		}

	case flow.InfoStateFeedback:
		r := f.CollectFeedback(ctx, detectSentiment(text), text)
		return result, r.Message, nil

	case flow.InfoStateResumePrompt:
		return result, a.finishInfoSeeking(sess, isAffirmative(text)), nil

	default:
		r := f.ProcessQuery(ctx, text)
		return result, r.Message, searchResultsComponent(text, r.Articles)
	}
}

// finishInfoSeeking 结束子流程。resume 为 true 且被打断的是
// 个性化流程时恢复状态机，否则回到空闲等待下一个意图。
func (a *Agent) finishInfoSeeking(sess *Session, resume bool) string {
	canResume := sess.infoFlow.InterruptedFlow() == model.FlowPersonalization
	sess.infoFlow.Complete()
	sess.infoFlow = nil

	if resume && canResume {
		r := sess.machine.Resume()
		if r.Success {
			sess.CurrentFlow = model.FlowPersonalization
			sess.FlowState.FlowType = string(model.FlowPersonalization)
			return r.Message + "\n\n" + r.NextPrompt
		}
	}

	sess.CurrentFlow = model.FlowIdle
	sess.FlowState.FlowType = string(model.FlowIdle)
	return fmt.Sprintf("No problem, %s! I'm here whenever you need me. "+
		"You can ask about cancer information, explore ways to support us, or check your personalized dashboard anytime.",
		sess.displayName())
}

// donationSummary 读取捐赠汇总，失败时回退为全零汇总。
func (a *Agent) donationSummary(ctx context.Context, userID string) model.DonationSummary {
	summary, err := a.txRepo.SummaryForUser(ctx, userID)
	if err != nil {
		log.Warnw("donation summary lookup failed, using zero summary", "userId", userID, "err", err)
		return model.ZeroDonationSummary(userID)
	}
	return *summary
}

// cancerSpecificImpact 返回癌种专属的研究进展陈述。
func cancerSpecificImpact(cancerType string, profile *model.UserProfile) string {
	switch cancerType {
	case "lung-cancer":
		impact := "Lung cancer research is advancing rapidly:\n" +
			"• The TRACERx study is tracking 815 patients to understand how lung cancer evolves\n" +
			"• New targeted therapies are improving survival rates\n" +
			"• Early detection programs are catching lung cancer sooner\n"
		if profileHasInterest(profile, "biomarker") {
			impact += "• Biomarker research is helping identify the best treatments for each patient\n"
		}
		return impact
	case "breast-cancer":
		return "Breast cancer research has transformed outcomes:\n" +
			"• 10-year survival has increased from 40% in the 1970s to almost 80% today\n" +
			"• If diagnosed at the earliest stage, 98% survive 5+ years\n" +
			"• Tamoxifen helps prevent breast cancer returning after surgery\n" +
			"• New immunotherapies are showing promising results\n"
	case "bowel-cancer":
		return "Bowel cancer research is saving lives:\n" +
			"• Screening programs are catching cancer earlier\n" +
			"• New treatments are improving survival rates\n" +
			"• Research into prevention is identifying risk factors\n"
	case "prostate-cancer":
		return "Prostate cancer research is advancing:\n" +
			"• Better diagnostic tools are reducing unnecessary biopsies\n" +
			"• New treatments are targeting aggressive cancers\n" +
			"• Research is helping distinguish slow-growing from aggressive cancers\n"
	case "blood-cancer":
		return "Blood cancer research is making breakthroughs:\n" +
			"• New immunotherapies are achieving remarkable results\n" +
			"• CAR-T cell therapy is transforming treatment\n" +
			"• Research is improving bone marrow transplant success rates\n"
	default:
		return fmt.Sprintf("Research into %s is advancing every day, bringing us closer to better treatments and ultimately a cure.\n",
			strings.ReplaceAll(cancerType, "-", " "))
	}
}

// interestBasedImpact 按用户兴趣组装研究领域进展，每个兴趣最多匹配一条。
func interestBasedImpact(interests []string) string {
	statements := []struct {
		keyword string
		text    string
	}{
		{"biomarker", "• Biomarker research is helping match patients to the most effective treatments\n"},
		{"immunotherapy", "• Immunotherapy breakthroughs are helping the immune system fight cancer\n"},
		{"early-detection", "• Early detection research is catching cancer at more treatable stages\n"},
		{"prevention", "• Prevention research is identifying ways to reduce cancer risk\n"},
		{"treatment", "• Treatment research is developing more effective and less toxic therapies\n"},
	}

	var b strings.Builder
	for _, interest := range interests {
		in := strings.ToLower(interest)
		for _, s := range statements {
			if strings.Contains(in, s.keyword) {
				b.WriteString(s.text)
				break
			}
		}
	}
	return b.String()
}

// searchResultsComponent 组装检索结果 UI 组件，最多携带前五篇文章。
func searchResultsComponent(query string, articles []model.KnowledgeArticle) []model.UIComponent {
	if len(articles) == 0 {
		return nil
	}
	top := articles
	if len(top) > 5 {
		top = top[:5]
	}
	return []model.UIComponent{{
		Type: "search_results",
		Data: map[string]interface{}{
			"query":    query,
			"articles": top,
			"source":   "CRUK Knowledge Base",
		},
	}}
}

// profile 返回会话的档案快照，优先用缓存档案，其次用上下文内嵌档案。
func (s *Session) profile() *model.UserProfile {
	if s.CachedProfile != nil {
		return s.CachedProfile
	}
	if s.CachedContext != nil {
		return &s.CachedContext.Profile
	}
	return nil
}

func (s *Session) displayName() string {
	if p := s.profile(); p != nil && p.Name != "" {
		return p.Name
	}
	return "there"
}

func profileHasInterest(profile *model.UserProfile, keyword string) bool {
	if profile == nil {
		return false
	}
	for _, interest := range profile.Interests {
		if strings.Contains(strings.ToLower(interest), keyword) {
			return true
		}
	}
	return false
}

func notificationSettingsOf(sess *Session) model.NotificationSettings {
	if sess.CachedContext != nil {
		return sess.CachedContext.Preferences.NotificationSettings
	}
	return model.NotificationSettings{Email: true}
}

func entityValueOf(entities []model.Entity, entityType, fallback string) string {
	for _, e := range entities {
		if e.Type == entityType {
			return e.Value
		}
	}
	return fallback
}

var affirmativeReplies = []string{"yes", "yeah", "yep", "sure", "definitely", "absolutely"}

var negativeReplies = []string{"no", "nope", "nothing"}

// isAffirmative 判断输入是否为肯定答复。
func isAffirmative(text string) bool {
	in := strings.ToLower(text)
	for _, w := range affirmativeReplies {
		if containsWord(in, w) {
			return true
		}
	}
	return strings.Contains(in, "that helps") || strings.Contains(in, "i have everything")
}

// isNegative 判断输入是否为否定答复。按词匹配，避免 "know" 误中 "no"。
func isNegative(text string) bool {
	in := strings.ToLower(text)
	for _, w := range negativeReplies {
		if containsWord(in, w) {
			return true
		}
	}
	return strings.Contains(in, "not yet") || strings.Contains(in, "not really")
}

func containsWord(text, word string) bool {
	for _, field := range strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '!' || r == '?'
	}) {
		if field == word {
			return true
		}
	}
	return false
}

// titleCase 首字母大写。
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func pluralSuffix(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}
