package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"supporter-agent-go/internal/model"
	"supporter-agent-go/internal/repository"
	"supporter-agent-go/internal/service"
	"supporter-agent-go/pkg/log"
)

// UserHandler 结构体定义了用户档案、上下文与捐赠汇总相关的处理器。
type UserHandler struct {
	contextService service.ContextService
	profileRepo    repository.ProfileRepository
	txRepo         repository.TransactionRepository
}

// NewUserHandler 创建一个新的 UserHandler 实例。
func NewUserHandler(
	contextService service.ContextService,
	profileRepo repository.ProfileRepository,
	txRepo repository.TransactionRepository,
) *UserHandler {
	return &UserHandler{
		contextService: contextService,
		profileRepo:    profileRepo,
		txRepo:         txRepo,
	}
}

// GetProfile 是查询用户档案的 Gin 处理函数。
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID := c.Param("userId")

	profile, err := h.profileRepo.FindByID(c.Request.Context(), userID)
	if err != nil {
		log.Warnf("[UserHandler] 查询档案失败, userId: %s, error: %v", userID, err)
		c.JSON(statusFor(err), gin.H{"error": "档案不存在"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": profile, "message": "success"})
}

// UpsertProfile 是创建或更新用户档案的 Gin 处理函数。
func (h *UserHandler) UpsertProfile(c *gin.Context) {
	userID := c.Param("userId")

	var profile model.UserProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		log.Warnf("[UserHandler] 档案请求参数无效, userId: %s, error: %v", userID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}
	profile.UserID = userID

	var err error
	if _, findErr := h.profileRepo.FindByID(c.Request.Context(), userID); findErr != nil {
		err = h.profileRepo.Create(c.Request.Context(), &profile)
	} else {
		err = h.profileRepo.Update(c.Request.Context(), &profile)
	}
	if err != nil {
		log.Errorf("[UserHandler] 保存档案失败, userId: %s, error: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存档案失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": profile, "message": "success"})
}

// ListEngagement 是查询参与历史的 Gin 处理函数。
func (h *UserHandler) ListEngagement(c *gin.Context) {
	userID := c.Param("userId")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	history, err := h.profileRepo.ListEngagement(c.Request.Context(), userID, limit)
	if err != nil {
		log.Errorf("[UserHandler] 查询参与历史失败, userId: %s, error: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询参与历史失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": history, "message": "success"})
}

// GetContext 是查询用户上下文的 Gin 处理函数。无记录时合成默认上下文。
func (h *UserHandler) GetContext(c *gin.Context) {
	userID := c.Param("userId")
	log.Infof("[UserHandler] 收到上下文查询请求, userId: %s", userID)

	uc, err := h.contextService.GetContext(c.Request.Context(), userID)
	if err != nil {
		log.Errorf("[UserHandler] 查询上下文失败, userId: %s, error: %v", userID, err)
		c.JSON(statusFor(err), gin.H{"error": "查询上下文失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": uc, "message": "success"})
}

// UpdateContext 是整体替换上下文字段的 Gin 处理函数。
func (h *UserHandler) UpdateContext(c *gin.Context) {
	userID := c.Param("userId")

	var patch model.ContextPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		log.Warnf("[UserHandler] 上下文更新参数无效, userId: %s, error: %v", userID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	uc, err := h.contextService.UpdateContext(c.Request.Context(), userID, patch)
	if err != nil {
		log.Errorf("[UserHandler] 更新上下文失败, userId: %s, error: %v", userID, err)
		c.JSON(statusFor(err), gin.H{"error": "更新上下文失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": uc, "message": "success"})
}

// MergeContext 是深合并上下文的 Gin 处理函数：
// 数组求并、参与历史只追加，与整体替换的 UpdateContext 区分。
func (h *UserHandler) MergeContext(c *gin.Context) {
	userID := c.Param("userId")

	var patch model.ContextPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		log.Warnf("[UserHandler] 上下文合并参数无效, userId: %s, error: %v", userID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	uc, err := h.contextService.MergeContext(c.Request.Context(), userID, patch)
	if err != nil {
		log.Errorf("[UserHandler] 合并上下文失败, userId: %s, error: %v", userID, err)
		c.JSON(statusFor(err), gin.H{"error": "合并上下文失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": uc, "message": "success"})
}

// DonationSummary 是查询捐赠汇总的 Gin 处理函数。
func (h *UserHandler) DonationSummary(c *gin.Context) {
	userID := c.Param("userId")

	summary, err := h.txRepo.SummaryForUser(c.Request.Context(), userID)
	if err != nil {
		log.Errorf("[UserHandler] 查询捐赠汇总失败, userId: %s, error: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询捐赠汇总失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": summary, "message": "success"})
}
