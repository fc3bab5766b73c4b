package service

import (
	"context"
	"strings"
	"time"

	"supporter-agent-go/internal/model"
	"supporter-agent-go/internal/repository"
	"supporter-agent-go/pkg/log"
)

// KnowledgeService 接口定义了知识库检索的业务操作。
// 契约：对外返回的每篇文章都通过了可信域校验；
// 检索失败降级为回退文章列表，不向调用方上抛。
type KnowledgeService interface {
	Search(ctx context.Context, query string, filters model.SearchFilters) ([]model.KnowledgeArticle, error)
	GetArticle(ctx context.Context, articleID string) (*model.KnowledgeArticle, error)
	Related(ctx context.Context, articleID string, limit int) ([]model.KnowledgeArticle, error)
}

type knowledgeService struct {
	knowledgeRepo repository.KnowledgeRepository
	trustedDomain string
}

// NewKnowledgeService 创建一个新的 KnowledgeService 实例。
func NewKnowledgeService(knowledgeRepo repository.KnowledgeRepository, trustedDomain string) KnowledgeService {
	return &knowledgeService{knowledgeRepo: knowledgeRepo, trustedDomain: trustedDomain}
}

// Search 执行知识库检索。空查询返回 model.ErrValidation；
// 底层检索失败时返回回退文章列表。
func (s *knowledgeService) Search(ctx context.Context, query string, filters model.SearchFilters) ([]model.KnowledgeArticle, error) {
	if strings.TrimSpace(query) == "" {
		return nil, model.ErrValidation
	}

	articles, err := s.knowledgeRepo.Search(ctx, query, filters, 10)
	if err != nil {
		log.Warnw("knowledge search failed, serving fallback list", "query", query, "err", err)
		articles = fallbackArticles()
	}
	return s.verify(articles), nil
}

// GetArticle 按 ID 获取文章。未通过可信域校验的文章视同不存在。
func (s *knowledgeService) GetArticle(ctx context.Context, articleID string) (*model.KnowledgeArticle, error) {
	if articleID == "" {
		return nil, model.ErrValidation
	}

	article, err := s.knowledgeRepo.FindByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if !strings.Contains(article.URL, s.trustedDomain) {
		log.Warnw("untrusted article suppressed", "articleId", article.ArticleID, "url", article.URL)
		return nil, model.ErrNotFound
	}
	return article, nil
}

// Related 返回相关文章，应用同样的可信域过滤。失败降级为空列表。
func (s *knowledgeService) Related(ctx context.Context, articleID string, limit int) ([]model.KnowledgeArticle, error) {
	if articleID == "" {
		return nil, model.ErrValidation
	}

	related, err := s.knowledgeRepo.FindRelated(ctx, articleID, limit)
	if err != nil {
		log.Warnw("related article lookup failed", "articleId", articleID, "err", err)
		return []model.KnowledgeArticle{}, nil
	}
	return s.verify(related), nil
}

// verify 丢弃 URL 不含可信域名的文章。
func (s *knowledgeService) verify(articles []model.KnowledgeArticle) []model.KnowledgeArticle {
	verified := make([]model.KnowledgeArticle, 0, len(articles))
	for _, a := range articles {
		if strings.Contains(a.URL, s.trustedDomain) {
			verified = append(verified, a)
		} else {
			log.Warnw("untrusted article filtered out", "articleId", a.ArticleID, "url", a.URL)
		}
	}
	return verified
}

// fallbackArticles 是知识库不可用时的兜底文章列表。
func fallbackArticles() []model.KnowledgeArticle {
	published := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	return []model.KnowledgeArticle{
		{
			ArticleID:     "article-001",
			Title:         "Understanding Breast Cancer",
			Summary:       "Comprehensive guide to breast cancer symptoms, diagnosis, and treatment options.",
			Content:       "Breast cancer is the most common cancer in the UK. Learn about symptoms, risk factors, and treatment options.",
			URL:           "https://www.cancerresearchuk.org/about-cancer/breast-cancer",
			Category:      "Cancer Types",
			Tags:          []string{"breast-cancer", "symptoms", "treatment"},
			CancerTypes:   []string{"breast-cancer"},
			PublishedDate: published,
			Author:        "CRUK Medical Team",
			ReadingLevel:  "basic",
		},
		{
			ArticleID:     "article-002",
			Title:         "Cancer Screening: What You Need to Know",
			Summary:       "Information about NHS cancer screening programmes and eligibility.",
			Content:       "Regular screening can help detect cancer early when treatment is most effective.",
			URL:           "https://www.cancerresearchuk.org/about-cancer/screening",
			Category:      "Prevention",
			Tags:          []string{"screening", "prevention", "early-detection"},
			CancerTypes:   []string{"breast-cancer", "cervical-cancer", "bowel-cancer"},
			PublishedDate: published,
			Author:        "CRUK Medical Team",
			ReadingLevel:  "basic",
		},
		{
			ArticleID:     "article-003",
			Title:         "Living with Cancer: Support and Resources",
			Summary:       "Practical advice and support resources for people living with cancer.",
			Content:       "Living with cancer can be challenging. Find support services, practical advice, and resources for patients and families.",
			URL:           "https://www.cancerresearchuk.org/about-cancer/coping",
			Category:      "Support",
			Tags:          []string{"support", "coping", "resources"},
			CancerTypes:   []string{},
			PublishedDate: published,
			Author:        "CRUK Support Team",
			ReadingLevel:  "basic",
		},
		{
			ArticleID:     "article-004",
			Title:         "Ways to Support Cancer Research UK",
			Summary:       "Discover the many ways you can help fund life-saving cancer research.",
			Content:       "From donations to fundraising, volunteering to campaigning - find out how you can support our mission to beat cancer.",
			URL:           "https://www.cancerresearchuk.org/get-involved",
			Category:      "Get Involved",
			Tags:          []string{"support", "donate", "fundraise", "volunteer"},
			CancerTypes:   []string{},
			PublishedDate: published,
			Author:        "CRUK Fundraising Team",
			ReadingLevel:  "basic",
		},
	}
}
