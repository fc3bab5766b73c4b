package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supporter-agent-go/internal/model"
)

const testTrustedDomain = "cancerresearchuk.org"

type fakeSearcher struct {
	articles    []model.KnowledgeArticle
	related     []model.KnowledgeArticle
	err         error
	lastFilters model.SearchFilters
}

func (f *fakeSearcher) Search(_ context.Context, query string, filters model.SearchFilters) ([]model.KnowledgeArticle, error) {
	f.lastFilters = filters
	return f.articles, f.err
}

func (f *fakeSearcher) Related(_ context.Context, articleID string, limit int) ([]model.KnowledgeArticle, error) {
	return f.related, f.err
}

type fakeSink struct {
	recorded []model.Interaction
	err      error
}

func (f *fakeSink) Record(_ context.Context, userID string, in model.Interaction) error {
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, in)
	return nil
}

func trustedArticle(id string) model.KnowledgeArticle {
	return model.KnowledgeArticle{
		ArticleID: id,
		Title:     "About breast cancer",
		Summary:   "An overview.",
		URL:       "https://www.cancerresearchuk.org/about-cancer/" + id,
	}
}

func untrustedArticle(id string) model.KnowledgeArticle {
	return model.KnowledgeArticle{
		ArticleID: id,
		Title:     "Elsewhere",
		URL:       "https://example.com/" + id,
	}
}

func newInfoFlow(searcher KnowledgeSearcher, sink AnalyticsSink, interrupted model.FlowType) *InfoSeekingFlow {
	ctx := model.DefaultContext("u-1", nil)
	ctx.Profile.Name = "Sarah"
	return NewInfoSeekingFlow(&ctx, interrupted, searcher, sink, testTrustedDomain)
}

func TestProcessQueryFiltersUntrustedSources(t *testing.T) {
	searcher := &fakeSearcher{articles: []model.KnowledgeArticle{
		trustedArticle("a1"), untrustedArticle("bad"), trustedArticle("a2"),
	}}
	sink := &fakeSink{}
	f := newInfoFlow(searcher, sink, model.FlowPersonalization)

	res := f.ProcessQuery(context.Background(), "breast cancer symptoms")

	assert.Equal(t, InfoStateResults, res.State)
	require.Len(t, res.Articles, 2)
	for _, a := range res.Articles {
		assert.Contains(t, a.URL, testTrustedDomain)
	}

	// 分析记录里的数量是过滤后的数量。
	require.Len(t, sink.recorded, 1)
	assert.Equal(t, model.InteractionSearch, sink.recorded[0].Type)
	assert.Equal(t, "2", sink.recorded[0].Metadata["resultsCount"])
}

func TestProcessQueryZeroResultsSuggestsRephrasing(t *testing.T) {
	f := newInfoFlow(&fakeSearcher{}, &fakeSink{}, model.FlowPersonalization)

	res := f.ProcessQuery(context.Background(), "obscure topic")

	assert.Equal(t, InfoStateResults, res.State)
	assert.Empty(t, res.Articles)
	assert.Contains(t, res.Message, "try rephrasing")
	assert.True(t, res.RequiresUserInput)
}

func TestProcessQuerySearchErrorDoesNotFail(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("es unavailable")}
	f := newInfoFlow(searcher, &fakeSink{}, model.FlowPersonalization)

	res := f.ProcessQuery(context.Background(), "anything")

	assert.Equal(t, InfoStateResults, res.State)
	assert.Empty(t, res.Articles)
	assert.Contains(t, res.Message, "rephrasing")
}

func TestProcessQueryAnalyticsFailureIsSwallowed(t *testing.T) {
	searcher := &fakeSearcher{articles: []model.KnowledgeArticle{trustedArticle("a1")}}
	sink := &fakeSink{err: errors.New("kafka down")}
	f := newInfoFlow(searcher, sink, model.FlowPersonalization)

	res := f.ProcessQuery(context.Background(), "breast cancer")

	assert.Equal(t, InfoStateResults, res.State)
	assert.Len(t, res.Articles, 1)
}

func TestProcessQueryUsesPreferenceFilters(t *testing.T) {
	searcher := &fakeSearcher{}
	ctx := model.DefaultContext("u-1", nil)
	ctx.Preferences.PreferredCancerTypes = []string{"breast-cancer"}
	ctx.Preferences.PreferredTopics = []string{"treatment"}
	f := NewInfoSeekingFlow(&ctx, model.FlowPersonalization, searcher, &fakeSink{}, testTrustedDomain)

	f.ProcessQuery(context.Background(), "treatment options")

	assert.Equal(t, []string{"breast-cancer"}, searcher.lastFilters.CancerTypes)
	assert.Equal(t, []string{"treatment"}, searcher.lastFilters.Tags)
}

func TestResultsMessageEmbedsTopThree(t *testing.T) {
	searcher := &fakeSearcher{articles: []model.KnowledgeArticle{
		trustedArticle("a1"), trustedArticle("a2"), trustedArticle("a3"), trustedArticle("a4"),
	}}
	f := newInfoFlow(searcher, &fakeSink{}, model.FlowPersonalization)

	res := f.ProcessQuery(context.Background(), "breast cancer")

	assert.Contains(t, res.Message, "I found 4 articles")
	assert.Contains(t, res.Message, "a3")
	assert.NotContains(t, res.Message, "a4")
	assert.Contains(t, res.Message, "...and 1 more article")
}

func TestValidateCompletion(t *testing.T) {
	f := newInfoFlow(&fakeSearcher{}, &fakeSink{}, model.FlowPersonalization)

	// 还没拿到需要的信息：回到 QUERY。
	res := f.ValidateCompletion(false)
	assert.Equal(t, InfoStateQuery, res.State)
	assert.Contains(t, res.Message, "What else would you like to know")

	// 已满足：进入 FEEDBACK。
	res = f.ValidateCompletion(true)
	assert.Equal(t, InfoStateFeedback, res.State)
	assert.Equal(t, InfoStateFeedback, f.CurrentState())
}

func TestCollectFeedbackResumeOnlyFromPersonalization(t *testing.T) {
	sink := &fakeSink{}
	f := newInfoFlow(&fakeSearcher{}, sink, model.FlowPersonalization)

	res := f.CollectFeedback(context.Background(), "positive", "very helpful")

	assert.Equal(t, InfoStateResumePrompt, res.State)
	assert.True(t, res.CanResumePersonalization)
	assert.Contains(t, res.Message, "Thank you for your feedback, Sarah!")

	require.Len(t, sink.recorded, 1)
	assert.Equal(t, model.InteractionFeedback, sink.recorded[0].Type)
	assert.Equal(t, "positive", sink.recorded[0].Sentiment)

	// 被打断的不是个性化流程：不提示恢复。
	f2 := newInfoFlow(&fakeSearcher{}, &fakeSink{}, model.FlowIdle)
	res2 := f2.CollectFeedback(context.Background(), "neutral", "")
	assert.False(t, res2.CanResumePersonalization)
}

func TestRelatedArticlesAppliesTrustedFilter(t *testing.T) {
	searcher := &fakeSearcher{related: []model.KnowledgeArticle{
		trustedArticle("r1"), untrustedArticle("r2"),
	}}
	f := newInfoFlow(searcher, &fakeSink{}, model.FlowPersonalization)

	got := f.RelatedArticles(context.Background(), "a1", 3)

	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].ArticleID)
}

func TestRelatedArticlesErrorReturnsEmpty(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("boom")}
	f := newInfoFlow(searcher, &fakeSink{}, model.FlowPersonalization)

	got := f.RelatedArticles(context.Background(), "a1", 3)
	assert.Empty(t, got)
}

func TestResetClearsState(t *testing.T) {
	searcher := &fakeSearcher{articles: []model.KnowledgeArticle{trustedArticle("a1")}}
	f := newInfoFlow(searcher, &fakeSink{}, model.FlowPersonalization)

	f.ProcessQuery(context.Background(), "q")
	f.ValidateCompletion(true)
	f.CollectFeedback(context.Background(), "positive", "")
	f.Reset()

	assert.Equal(t, InfoStateQuery, f.CurrentState())
	assert.Empty(t, f.CurrentQuery())
	assert.Empty(t, f.Articles())
	assert.Nil(t, f.Feedback())
}

func TestCompleteLifecycle(t *testing.T) {
	f := newInfoFlow(&fakeSearcher{}, &fakeSink{}, model.FlowPersonalization)
	assert.False(t, f.IsComplete())
	f.Complete()
	assert.True(t, f.IsComplete())
}
