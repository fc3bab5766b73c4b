// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"supporter-agent-go/internal/agent"
	"supporter-agent-go/internal/model"
	"supporter-agent-go/pkg/log"
)

// SessionHandler 结构体定义了会话生命周期相关的处理器。
type SessionHandler struct {
	agent *agent.Agent
}

// NewSessionHandler 创建一个新的 SessionHandler 实例。
func NewSessionHandler(a *agent.Agent) *SessionHandler {
	return &SessionHandler{agent: a}
}

type createSessionRequest struct {
	UserID string `json:"userId" binding:"required"`
}

type processMessageRequest struct {
	Text     string            `json:"text" binding:"required"`
	Metadata map[string]string `json:"metadata"`
}

// CreateSession 是处理创建会话请求的 Gin 处理函数。
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("[SessionHandler] 创建会话请求参数无效: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}
	log.Infof("[SessionHandler] 收到创建会话请求, userId: %s", req.UserID)

	sess, err := h.agent.InitializeSession(c.Request.Context(), req.UserID)
	if err != nil {
		log.Errorf("[SessionHandler] 创建会话失败, userId: %s, error: %v", req.UserID, err)
		c.JSON(statusFor(err), gin.H{"error": "创建会话失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": sess.SessionContext, "message": "success"})
}

// ProcessMessage 是处理会话消息的 Gin 处理函数。
func (h *SessionHandler) ProcessMessage(c *gin.Context) {
	sessionID := c.Param("sessionId")

	var req processMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("[SessionHandler] 消息请求参数无效, sessionId: %s, error: %v", sessionID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}
	log.Infof("[SessionHandler] 收到会话消息, sessionId: %s", sessionID)

	resp, err := h.agent.ProcessInput(c.Request.Context(), agent.UserInput{
		Text:      req.Text,
		Timestamp: time.Now(),
		Metadata:  req.Metadata,
	}, sessionID)
	if err != nil {
		log.Errorf("[SessionHandler] 处理消息失败, sessionId: %s, error: %v", sessionID, err)
		c.JSON(statusFor(err), gin.H{"error": "处理消息失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": resp, "message": "success"})
}

// ResumeSession 是处理恢复会话请求的 Gin 处理函数。
func (h *SessionHandler) ResumeSession(c *gin.Context) {
	sessionID := c.Param("sessionId")
	log.Infof("[SessionHandler] 收到恢复会话请求, sessionId: %s", sessionID)

	sess, err := h.agent.ResumeSession(c.Request.Context(), sessionID)
	if err != nil {
		log.Errorf("[SessionHandler] 恢复会话失败, sessionId: %s, error: %v", sessionID, err)
		c.JSON(statusFor(err), gin.H{"error": "恢复会话失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": sess.SessionContext, "message": "success"})
}

// EndSession 是处理结束会话请求的 Gin 处理函数。
// 这是缓存上下文的唯一持久化点，写入失败会返回错误让调用方重试。
func (h *SessionHandler) EndSession(c *gin.Context) {
	sessionID := c.Param("sessionId")
	log.Infof("[SessionHandler] 收到结束会话请求, sessionId: %s", sessionID)

	if err := h.agent.EndSession(c.Request.Context(), sessionID); err != nil {
		log.Errorf("[SessionHandler] 结束会话失败, sessionId: %s, error: %v", sessionID, err)
		c.JSON(statusFor(err), gin.H{"error": "结束会话失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": nil, "message": "success"})
}

// GetSession 是查询单个会话的 Gin 处理函数。
func (h *SessionHandler) GetSession(c *gin.Context) {
	sessionID := c.Param("sessionId")

	sess, ok := h.agent.GetSession(sessionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "会话不存在"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": sess.SessionContext, "message": "success"})
}

// ListUserSessions 是查询用户全部活跃会话的 Gin 处理函数。
func (h *SessionHandler) ListUserSessions(c *gin.Context) {
	userID := c.Param("userId")

	sessions := h.agent.GetUserSessions(userID)
	data := make([]model.SessionContext, 0, len(sessions))
	for _, s := range sessions {
		data = append(data, s.SessionContext)
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": data, "message": "success"})
}

// AdvanceFlow 是推进会话主流程的 Gin 处理函数。
// 守卫或校验失败不是 HTTP 错误，由结果的 success 字段表达。
func (h *SessionHandler) AdvanceFlow(c *gin.Context) {
	sessionID := c.Param("sessionId")
	log.Infof("[SessionHandler] 收到推进流程请求, sessionId: %s", sessionID)

	result, err := h.agent.AdvanceFlow(c.Request.Context(), sessionID)
	if err != nil {
		log.Errorf("[SessionHandler] 推进流程失败, sessionId: %s, error: %v", sessionID, err)
		c.JSON(statusFor(err), gin.H{"error": "推进流程失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": result, "message": "success"})
}

// statusFor 将哨兵错误映射为 HTTP 状态码。
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrVersionConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
