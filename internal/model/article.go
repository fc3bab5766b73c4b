package model

import "time"

// KnowledgeArticle 代表知识库中的一篇文章。
// 契约：对外返回的每篇文章都必须通过可信域校验。
type KnowledgeArticle struct {
	ArticleID string `json:"articleId"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Content   string `json:"content"`
	URL       string `json:"url"`

	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	CancerTypes []string `json:"cancerTypes"`

	PublishedDate time.Time `json:"publishedDate"`
	LastUpdated   time.Time `json:"lastUpdated"`
	Author        string    `json:"author"`

	ReadingLevel string `json:"readingLevel"` // basic / intermediate / advanced
}

// SearchFilters 是知识库搜索的过滤条件。
type SearchFilters struct {
	Category     string   `json:"category,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	CancerTypes  []string `json:"cancerTypes,omitempty"`
	ReadingLevel string   `json:"readingLevel,omitempty"`
}
