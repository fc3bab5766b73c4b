package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"supporter-agent-go/internal/model"
	"supporter-agent-go/internal/service"
	"supporter-agent-go/pkg/log"
)

// KnowledgeHandler 结构体定义了知识库检索相关的处理器。
type KnowledgeHandler struct {
	knowledgeService service.KnowledgeService
	relatedLimit     int
}

// NewKnowledgeHandler 创建一个新的 KnowledgeHandler 实例。
func NewKnowledgeHandler(knowledgeService service.KnowledgeService, relatedLimit int) *KnowledgeHandler {
	return &KnowledgeHandler{
		knowledgeService: knowledgeService,
		relatedLimit:     relatedLimit,
	}
}

// Search 是处理知识库搜索请求的 Gin 处理函数。
func (h *KnowledgeHandler) Search(c *gin.Context) {
	query := c.Query("query")
	log.Infof("[KnowledgeHandler] 收到知识库搜索请求, query: %s", query)

	if strings.TrimSpace(query) == "" {
		log.Warnf("[KnowledgeHandler] 搜索请求失败: query 参数为空")
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的查询参数"})
		return
	}

	filters := model.SearchFilters{
		Category:     c.Query("category"),
		ReadingLevel: c.Query("readingLevel"),
	}
	if tags := c.Query("tags"); tags != "" {
		filters.Tags = strings.Split(tags, ",")
	}
	if cancerTypes := c.Query("cancerTypes"); cancerTypes != "" {
		filters.CancerTypes = strings.Split(cancerTypes, ",")
	}

	articles, err := h.knowledgeService.Search(c.Request.Context(), query, filters)
	if err != nil {
		log.Errorf("[KnowledgeHandler] 知识库搜索失败, query: %s, error: %v", query, err)
		c.JSON(statusFor(err), gin.H{"error": "搜索失败"})
		return
	}

	log.Infof("[KnowledgeHandler] 知识库搜索成功, query: '%s', 返回 %d 条结果", query, len(articles))
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": articles, "message": "success"})
}

// GetArticle 是按 ID 查询文章的 Gin 处理函数。
func (h *KnowledgeHandler) GetArticle(c *gin.Context) {
	articleID := c.Param("articleId")

	article, err := h.knowledgeService.GetArticle(c.Request.Context(), articleID)
	if err != nil {
		log.Warnf("[KnowledgeHandler] 查询文章失败, articleId: %s, error: %v", articleID, err)
		c.JSON(statusFor(err), gin.H{"error": "文章不存在"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": article, "message": "success"})
}

// Related 是查询相关文章的 Gin 处理函数。
func (h *KnowledgeHandler) Related(c *gin.Context) {
	articleID := c.Param("articleId")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.relatedLimit)))
	if err != nil || limit <= 0 {
		limit = h.relatedLimit
	}

	related, err := h.knowledgeService.Related(c.Request.Context(), articleID, limit)
	if err != nil {
		log.Errorf("[KnowledgeHandler] 查询相关文章失败, articleId: %s, error: %v", articleID, err)
		c.JSON(statusFor(err), gin.H{"error": "查询相关文章失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": related, "message": "success"})
}
