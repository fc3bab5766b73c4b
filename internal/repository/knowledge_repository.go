package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"

	"supporter-agent-go/internal/model"
	"supporter-agent-go/pkg/log"
)

// KnowledgeRepository 接口定义了知识库文章的检索操作。
type KnowledgeRepository interface {
	Search(ctx context.Context, query string, filters model.SearchFilters, size int) ([]model.KnowledgeArticle, error)
	FindByID(ctx context.Context, articleID string) (*model.KnowledgeArticle, error)
	FindRelated(ctx context.Context, articleID string, limit int) ([]model.KnowledgeArticle, error)
}

// knowledgeRepository 是 KnowledgeRepository 的 Elasticsearch 实现。
type knowledgeRepository struct {
	esClient  *elasticsearch.Client
	indexName string
}

// NewKnowledgeRepository 创建一个新的 KnowledgeRepository 实例。
func NewKnowledgeRepository(esClient *elasticsearch.Client, indexName string) KnowledgeRepository {
	return &knowledgeRepository{esClient: esClient, indexName: indexName}
}

type esHits struct {
	Hits struct {
		Hits []struct {
			Source model.KnowledgeArticle `json:"_source"`
			Score  float64                `json:"_score"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search 对标题、摘要与正文做全文检索，并按过滤条件收窄。
func (r *knowledgeRepository) Search(ctx context.Context, query string, filters model.SearchFilters, size int) ([]model.KnowledgeArticle, error) {
	log.Infof("[KnowledgeRepository] 开始执行文章检索, query: '%s', size: %d", query, size)

	if size <= 0 {
		size = 10
	}

	must := []map[string]interface{}{
		{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title^3", "summary^2", "content"},
			},
		},
	}

	esQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": buildFilterClauses(filters),
			},
		},
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("failed to encode es query: %w", err)
	}

	res, err := r.esClient.Search(
		r.esClient.Search.WithContext(ctx),
		r.esClient.Search.WithIndex(r.indexName),
		r.esClient.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		log.Errorf("[KnowledgeRepository] Elasticsearch 返回错误, status: %s, body: %s", res.Status(), string(bodyBytes))
		return nil, fmt.Errorf("elasticsearch returned an error: %s", res.String())
	}

	var response esHits
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}

	articles := make([]model.KnowledgeArticle, 0, len(response.Hits.Hits))
	for _, hit := range response.Hits.Hits {
		articles = append(articles, hit.Source)
	}

	log.Infof("[KnowledgeRepository] 检索完成, 命中 %d 条", len(articles))
	return articles, nil
}

// FindByID 按文章 ID 精确查找，不存在时返回 model.ErrNotFound。
func (r *knowledgeRepository) FindByID(ctx context.Context, articleID string) (*model.KnowledgeArticle, error) {
	esQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{
				"articleId": articleID,
			},
		},
		"size": 1,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("failed to encode es query: %w", err)
	}

	res, err := r.esClient.Search(
		r.esClient.Search.WithContext(ctx),
		r.esClient.Search.WithIndex(r.indexName),
		r.esClient.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch returned an error: %s", res.String())
	}

	var response esHits
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}
	if len(response.Hits.Hits) == 0 {
		return nil, model.ErrNotFound
	}

	article := response.Hits.Hits[0].Source
	return &article, nil
}

// FindRelated 用 more_like_this 查找相关文章，并排除文章自身。
func (r *knowledgeRepository) FindRelated(ctx context.Context, articleID string, limit int) ([]model.KnowledgeArticle, error) {
	if limit <= 0 {
		limit = 3
	}

	esQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"more_like_this": map[string]interface{}{
						"fields": []string{"title", "summary", "content"},
						"like": []map[string]interface{}{
							{"_index": r.indexName, "_id": articleID},
						},
						"min_term_freq":   1,
						"min_doc_freq":    1,
						"max_query_terms": 25,
					},
				},
				"must_not": map[string]interface{}{
					"term": map[string]interface{}{
						"articleId": articleID,
					},
				},
			},
		},
		"size": limit,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("failed to encode es query: %w", err)
	}

	res, err := r.esClient.Search(
		r.esClient.Search.WithContext(ctx),
		r.esClient.Search.WithIndex(r.indexName),
		r.esClient.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch returned an error: %s", res.String())
	}

	var response esHits
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}

	related := make([]model.KnowledgeArticle, 0, len(response.Hits.Hits))
	for _, hit := range response.Hits.Hits {
		related = append(related, hit.Source)
	}
	return related, nil
}

// buildFilterClauses 将搜索过滤条件转换为 ES filter 子句。
func buildFilterClauses(filters model.SearchFilters) []map[string]interface{} {
	clauses := []map[string]interface{}{}
	if filters.Category != "" {
		clauses = append(clauses, map[string]interface{}{
			"term": map[string]interface{}{"category": filters.Category},
		})
	}
	if len(filters.Tags) > 0 {
		clauses = append(clauses, map[string]interface{}{
			"terms": map[string]interface{}{"tags": filters.Tags},
		})
	}
	if len(filters.CancerTypes) > 0 {
		clauses = append(clauses, map[string]interface{}{
			"terms": map[string]interface{}{"cancerTypes": filters.CancerTypes},
		})
	}
	if filters.ReadingLevel != "" {
		clauses = append(clauses, map[string]interface{}{
			"term": map[string]interface{}{"readingLevel": filters.ReadingLevel},
		})
	}
	return clauses
}
