package flow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"supporter-agent-go/internal/model"
	"supporter-agent-go/pkg/log"
)

// InfoSeekingState 是信息检索子流程的状态。
type InfoSeekingState string

const (
	InfoStateQuery        InfoSeekingState = "query"
	InfoStateResults      InfoSeekingState = "results"
	InfoStateValidation   InfoSeekingState = "validation"
	InfoStateFeedback     InfoSeekingState = "feedback"
	InfoStateResumePrompt InfoSeekingState = "resume_prompt"
	InfoStateComplete     InfoSeekingState = "complete"
)

// KnowledgeSearcher 是知识库检索协作方。
type KnowledgeSearcher interface {
	Search(ctx context.Context, query string, filters model.SearchFilters) ([]model.KnowledgeArticle, error)
	Related(ctx context.Context, articleID string, limit int) ([]model.KnowledgeArticle, error)
}

// AnalyticsSink 是分析事件接收方。所有记录都是尽力而为。
type AnalyticsSink interface {
	Record(ctx context.Context, userID string, interaction model.Interaction) error
}

// InfoSeekingResult 是子流程单步推进的结果。
type InfoSeekingResult struct {
	State                    InfoSeekingState         `json:"state"`
	Articles                 []model.KnowledgeArticle `json:"articles"`
	Message                  string                   `json:"message"`
	RequiresUserInput        bool                     `json:"requiresUserInput"`
	CanResumePersonalization bool                     `json:"canResumePersonalization"`
}

// FeedbackData 是用户对检索结果的反馈。
type FeedbackData struct {
	HasEverythingNeeded bool   `json:"hasEverythingNeeded"`
	Sentiment           string `json:"sentiment"` // positive / negative / neutral
	FeedbackText        string `json:"feedbackText,omitempty"`
}

// InfoSeekingFlow 处理从提问到反馈的完整信息检索子流程。
// 可从主流程任意状态进入；进入时快照被打断的流程类别，
// 只有被打断的是个性化流程时，反馈完成后才提示恢复。
type InfoSeekingFlow struct {
	state           InfoSeekingState
	context         *model.UserContext
	query           string
	articles        []model.KnowledgeArticle
	feedback        *FeedbackData
	interruptedFlow model.FlowType

	searcher      KnowledgeSearcher
	analytics     AnalyticsSink
	trustedDomain string
}

// NewInfoSeekingFlow 构造子流程。interrupted 记录进入时被打断的主流程类别。
func NewInfoSeekingFlow(
	userCtx *model.UserContext,
	interrupted model.FlowType,
	searcher KnowledgeSearcher,
	analytics AnalyticsSink,
	trustedDomain string,
) *InfoSeekingFlow {
	f := &InfoSeekingFlow{
		state:           InfoStateQuery,
		context:         userCtx,
		interruptedFlow: interrupted,
		searcher:        searcher,
		analytics:       analytics,
		trustedDomain:   trustedDomain,
	}
	log.Infow("information seeking flow initialized",
		"userId", userCtx.UserID, "initialState", f.state, "interruptedFlow", interrupted)
	return f
}

// ProcessQuery 执行一次知识库检索并推进到 RESULTS。
// 检索失败或零结果时返回改述提示而非空结果集；分析记录失败只记日志。
func (f *InfoSeekingFlow) ProcessQuery(ctx context.Context, query string) InfoSeekingResult {
	log.Infow("processing information seeking query", "userId", f.context.UserID, "query", query)

	f.query = query
	f.state = InfoStateQuery

	articles, err := f.searcher.Search(ctx, query, f.buildSearchFilters())
	if err != nil {
		log.Warnw("knowledge base search failed",
			"userId", f.context.UserID, "query", query, "err", err)
		f.state = InfoStateResults
		return InfoSeekingResult{
			State:             InfoStateResults,
			Articles:          []model.KnowledgeArticle{},
			Message:           "I encountered an issue searching for information. Could you try rephrasing your question?",
			RequiresUserInput: true,
		}
	}

	f.articles = f.verifyTrustedSources(articles)
	f.recordSearch(ctx, query, len(f.articles))
	f.state = InfoStateResults

	log.Infow("articles retrieved", "userId", f.context.UserID, "count", len(f.articles))

	return InfoSeekingResult{
		State:             InfoStateResults,
		Articles:          f.articles,
		Message:           f.resultsMessage(),
		RequiresUserInput: true,
	}
}

// ValidateCompletion 校验用户是否已获得所需信息：
// 否则回到 QUERY 邀请继续提问；是则进入 FEEDBACK。
func (f *InfoSeekingFlow) ValidateCompletion(hasEverything bool) InfoSeekingResult {
	log.Infow("validating information completeness",
		"userId", f.context.UserID, "hasEverything", hasEverything)

	f.state = InfoStateValidation

	if !hasEverything {
		f.state = InfoStateQuery
		return InfoSeekingResult{
			State:             InfoStateQuery,
			Articles:          f.articles,
			Message:           "What else would you like to know? I can help you find more information.",
			RequiresUserInput: true,
		}
	}

	f.state = InfoStateFeedback
	return InfoSeekingResult{
		State:             InfoStateFeedback,
		Articles:          f.articles,
		Message:           "Great! Could you share a few words about how helpful this information was?",
		RequiresUserInput: true,
	}
}

// CollectFeedback 记录反馈并进入 RESUME_PROMPT。
// 仅当被打断的是个性化主流程时，CanResumePersonalization 才为 true。
func (f *InfoSeekingFlow) CollectFeedback(ctx context.Context, sentiment, feedbackText string) InfoSeekingResult {
	log.Infow("collecting user feedback",
		"userId", f.context.UserID, "sentiment", sentiment, "hasFeedbackText", feedbackText != "")

	f.feedback = &FeedbackData{
		HasEverythingNeeded: true,
		Sentiment:           sentiment,
		FeedbackText:        feedbackText,
	}
	f.recordFeedback(ctx, sentiment, feedbackText)
	f.state = InfoStateResumePrompt

	canResume := f.interruptedFlow == model.FlowPersonalization
	return InfoSeekingResult{
		State:                    InfoStateResumePrompt,
		Articles:                 f.articles,
		Message:                  f.resumePrompt(),
		RequiresUserInput:        true,
		CanResumePersonalization: canResume,
	}
}

// RelatedArticles 返回与指定文章相关的文章，应用同样的可信来源过滤。
// 失败时返回空列表而非错误。
func (f *InfoSeekingFlow) RelatedArticles(ctx context.Context, articleID string, limit int) []model.KnowledgeArticle {
	log.Infow("getting related articles",
		"userId", f.context.UserID, "articleId", articleID, "limit", limit)

	related, err := f.searcher.Related(ctx, articleID, limit)
	if err != nil {
		log.Warnw("failed to get related articles", "articleId", articleID, "err", err)
		return []model.KnowledgeArticle{}
	}
	return f.verifyTrustedSources(related)
}

// CurrentState 返回当前子流程状态。
func (f *InfoSeekingFlow) CurrentState() InfoSeekingState {
	return f.state
}

// CurrentQuery 返回当前查询文本。
func (f *InfoSeekingFlow) CurrentQuery() string {
	return f.query
}

// Articles 返回当前已检索并通过过滤的文章。
func (f *InfoSeekingFlow) Articles() []model.KnowledgeArticle {
	return f.articles
}

// Feedback 返回已收集的反馈，未收集时为 nil。
func (f *InfoSeekingFlow) Feedback() *FeedbackData {
	return f.feedback
}

// InterruptedFlow 返回进入子流程时快照的主流程类别。
func (f *InfoSeekingFlow) InterruptedFlow() model.FlowType {
	return f.interruptedFlow
}

// IsComplete 返回子流程是否已完成。
func (f *InfoSeekingFlow) IsComplete() bool {
	return f.state == InfoStateComplete
}

// Complete 将子流程标记为完成。
func (f *InfoSeekingFlow) Complete() {
	f.state = InfoStateComplete
	log.Infow("information seeking flow completed",
		"userId", f.context.UserID, "query", f.query, "articlesFound", len(f.articles))
}

// Reset 清空查询、文章与反馈，回到 QUERY。
func (f *InfoSeekingFlow) Reset() {
	f.state = InfoStateQuery
	f.query = ""
	f.articles = nil
	f.feedback = nil
	log.Infow("information seeking flow reset", "userId", f.context.UserID)
}

// buildSearchFilters 由用户偏好推导检索过滤条件。
func (f *InfoSeekingFlow) buildSearchFilters() model.SearchFilters {
	filters := model.SearchFilters{}
	if len(f.context.Preferences.PreferredCancerTypes) > 0 {
		filters.CancerTypes = f.context.Preferences.PreferredCancerTypes
	}
	if len(f.context.Preferences.PreferredTopics) > 0 {
		filters.Tags = f.context.Preferences.PreferredTopics
	}
	return filters
}

// verifyTrustedSources 丢弃 URL 不含可信域名标记的文章。
// 静默过滤：在计数、展示或返回之前执行，绝不作为错误上抛。
func (f *InfoSeekingFlow) verifyTrustedSources(articles []model.KnowledgeArticle) []model.KnowledgeArticle {
	verified := make([]model.KnowledgeArticle, 0, len(articles))
	for _, a := range articles {
		if !strings.Contains(a.URL, f.trustedDomain) {
			log.Warnw("untrusted article filtered out", "articleId", a.ArticleID, "url", a.URL)
			continue
		}
		verified = append(verified, a)
	}
	log.Infow("trusted source verification complete",
		"totalArticles", len(articles), "verifiedArticles", len(verified),
		"filtered", len(articles)-len(verified))
	return verified
}

func (f *InfoSeekingFlow) displayName() string {
	if f.context.Profile.Name != "" {
		return f.context.Profile.Name
	}
	return "there"
}

// resultsMessage 生成检索结果消息，正文最多内嵌前三篇文章。
func (f *InfoSeekingFlow) resultsMessage() string {
	if len(f.articles) == 0 {
		return f.noResultsMessage()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s, I found %d article%s about %q from Cancer Research UK:\n\n",
		f.displayName(), len(f.articles), plural(len(f.articles)), f.query)

	for i, a := range f.articles {
		if i >= 3 {
			break
		}
		fmt.Fprintf(&b, "%d. **%s**\n   %s\n   %s\n\n", i+1, a.Title, a.Summary, a.URL)
	}
	if extra := len(f.articles) - 3; extra > 0 {
		fmt.Fprintf(&b, "...and %d more article%s.\n\n", extra, plural(extra))
	}
	b.WriteString("Does this help answer your question? Do you have everything you need?")
	return b.String()
}

func (f *InfoSeekingFlow) noResultsMessage() string {
	return fmt.Sprintf("Hi %s, I couldn't find specific articles about %q in our knowledge base. "+
		"Could you try rephrasing your question or asking about a different topic? "+
		"I can help you find information about cancer types, symptoms, treatments, prevention, and support services.",
		f.displayName(), f.query)
}

func (f *InfoSeekingFlow) resumePrompt() string {
	return fmt.Sprintf("Thank you for your feedback, %s! "+
		"I'm here to help you explore more about Cancer Research UK. "+
		"Would you like to see your personalized dashboard and learn about ways you can support our mission?",
		f.displayName())
}

// recordSearch 尽力而为地记录一次检索事件。
func (f *InfoSeekingFlow) recordSearch(ctx context.Context, query string, resultsCount int) {
	err := f.analytics.Record(ctx, f.context.UserID, model.Interaction{
		Type:      model.InteractionSearch,
		Timestamp: time.Now(),
		Intent:    string(model.IntentInformationSeeking),
		Metadata: map[string]string{
			"query":        query,
			"resultsCount": fmt.Sprintf("%d", resultsCount),
			"source":       "knowledge_base",
		},
	})
	if err != nil {
		log.Errorf("failed to record search in analytics: %v", err)
	}
}

// recordFeedback 尽力而为地记录一次反馈事件。
func (f *InfoSeekingFlow) recordFeedback(ctx context.Context, sentiment, feedbackText string) {
	err := f.analytics.Record(ctx, f.context.UserID, model.Interaction{
		Type:      model.InteractionFeedback,
		Timestamp: time.Now(),
		Intent:    string(model.IntentInformationSeeking),
		Sentiment: sentiment,
		Metadata: map[string]string{
			"query":            f.query,
			"articlesProvided": fmt.Sprintf("%d", len(f.articles)),
			"feedbackText":     feedbackText,
		},
	})
	if err != nil {
		log.Errorf("failed to record feedback in analytics: %v", err)
	}
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}
