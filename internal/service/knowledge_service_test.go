package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supporter-agent-go/internal/model"
)

// fakeKnowledgeRepo 是 KnowledgeRepository 的可注入实现。
type fakeKnowledgeRepo struct {
	articles   []model.KnowledgeArticle
	searchErr  error
	findErr    error
	relatedErr error
	lastQuery  string
	lastSize   int
}

func (f *fakeKnowledgeRepo) Search(_ context.Context, query string, _ model.SearchFilters, size int) ([]model.KnowledgeArticle, error) {
	f.lastQuery = query
	f.lastSize = size
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.articles, nil
}

func (f *fakeKnowledgeRepo) FindByID(_ context.Context, articleID string) (*model.KnowledgeArticle, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for i := range f.articles {
		if f.articles[i].ArticleID == articleID {
			return &f.articles[i], nil
		}
	}
	return nil, model.ErrNotFound
}

func (f *fakeKnowledgeRepo) FindRelated(_ context.Context, _ string, limit int) ([]model.KnowledgeArticle, error) {
	if f.relatedErr != nil {
		return nil, f.relatedErr
	}
	if limit < len(f.articles) {
		return f.articles[:limit], nil
	}
	return f.articles, nil
}

func trustedArticle(id, title string) model.KnowledgeArticle {
	return model.KnowledgeArticle{
		ArticleID: id,
		Title:     title,
		URL:       "https://www.cancerresearchuk.org/about-cancer/" + id,
	}
}

func untrustedArticle(id string) model.KnowledgeArticle {
	return model.KnowledgeArticle{
		ArticleID: id,
		Title:     "Miracle Cure",
		URL:       "https://example.com/" + id,
	}
}

func TestSearchFiltersUntrustedArticles(t *testing.T) {
	repo := &fakeKnowledgeRepo{articles: []model.KnowledgeArticle{
		trustedArticle("article-001", "Understanding Breast Cancer"),
		untrustedArticle("spam-001"),
		trustedArticle("article-002", "Cancer Screening"),
	}}
	svc := NewKnowledgeService(repo, "cancerresearchuk.org")

	articles, err := svc.Search(context.Background(), "breast cancer", model.SearchFilters{})
	require.NoError(t, err)

	require.Len(t, articles, 2)
	assert.Equal(t, "article-001", articles[0].ArticleID)
	assert.Equal(t, "article-002", articles[1].ArticleID)
	assert.Equal(t, "breast cancer", repo.lastQuery)
	assert.Equal(t, 10, repo.lastSize)
}

func TestSearchEmptyQuery(t *testing.T) {
	svc := NewKnowledgeService(&fakeKnowledgeRepo{}, "cancerresearchuk.org")

	_, err := svc.Search(context.Background(), "   ", model.SearchFilters{})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestSearchFallsBackWhenRepoUnavailable(t *testing.T) {
	repo := &fakeKnowledgeRepo{searchErr: errors.New("es unavailable")}
	svc := NewKnowledgeService(repo, "cancerresearchuk.org")

	articles, err := svc.Search(context.Background(), "screening", model.SearchFilters{})
	require.NoError(t, err)

	// 兜底列表本身也要过可信域校验
	require.NotEmpty(t, articles)
	for _, a := range articles {
		assert.Contains(t, a.URL, "cancerresearchuk.org")
	}
	assert.Equal(t, "article-001", articles[0].ArticleID)
}

func TestGetArticleSuppressesUntrusted(t *testing.T) {
	repo := &fakeKnowledgeRepo{articles: []model.KnowledgeArticle{
		untrustedArticle("spam-001"),
	}}
	svc := NewKnowledgeService(repo, "cancerresearchuk.org")

	_, err := svc.GetArticle(context.Background(), "spam-001")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestGetArticleTrusted(t *testing.T) {
	repo := &fakeKnowledgeRepo{articles: []model.KnowledgeArticle{
		trustedArticle("article-001", "Understanding Breast Cancer"),
	}}
	svc := NewKnowledgeService(repo, "cancerresearchuk.org")

	article, err := svc.GetArticle(context.Background(), "article-001")
	require.NoError(t, err)
	assert.Equal(t, "Understanding Breast Cancer", article.Title)
}

func TestRelatedDegradesToEmptyList(t *testing.T) {
	repo := &fakeKnowledgeRepo{relatedErr: errors.New("es unavailable")}
	svc := NewKnowledgeService(repo, "cancerresearchuk.org")

	related, err := svc.Related(context.Background(), "article-001", 3)
	require.NoError(t, err)
	assert.Empty(t, related)
}

func TestRelatedFiltersAndLimits(t *testing.T) {
	repo := &fakeKnowledgeRepo{articles: []model.KnowledgeArticle{
		trustedArticle("article-002", "Cancer Screening"),
		untrustedArticle("spam-001"),
	}}
	svc := NewKnowledgeService(repo, "cancerresearchuk.org")

	related, err := svc.Related(context.Background(), "article-001", 5)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, "article-002", related[0].ArticleID)
}
