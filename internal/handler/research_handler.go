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

// ResearchHandler 结构体定义了研究论文目录相关的处理器。
type ResearchHandler struct {
	researchService service.ResearchService
}

// NewResearchHandler 创建一个新的 ResearchHandler 实例。
func NewResearchHandler(researchService service.ResearchService) *ResearchHandler {
	return &ResearchHandler{researchService: researchService}
}

// Featured 是查询精选论文的 Gin 处理函数。
func (h *ResearchHandler) Featured(c *gin.Context) {
	filters := model.PaperFilters{
		ResearchArea: c.Query("researchArea"),
	}
	if cancerTypes := c.Query("cancerTypes"); cancerTypes != "" {
		filters.CancerTypes = strings.Split(cancerTypes, ",")
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "5")); err == nil && limit > 0 {
		filters.Limit = limit
	}
	log.Infof("[ResearchHandler] 收到精选论文请求, researchArea: %s", filters.ResearchArea)

	papers, err := h.researchService.GetFeatured(c.Request.Context(), filters)
	if err != nil {
		log.Errorf("[ResearchHandler] 查询精选论文失败, error: %v", err)
		c.JSON(statusFor(err), gin.H{"error": "查询精选论文失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": papers, "message": "success"})
}

// GetPaper 是按 ID 查询论文的 Gin 处理函数。
func (h *ResearchHandler) GetPaper(c *gin.Context) {
	paperID := c.Param("paperId")

	paper, err := h.researchService.GetPaper(c.Request.Context(), paperID)
	if err != nil {
		log.Warnf("[ResearchHandler] 查询论文失败, paperId: %s, error: %v", paperID, err)
		c.JSON(statusFor(err), gin.H{"error": "论文不存在"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": paper, "message": "success"})
}
