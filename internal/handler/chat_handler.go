package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"supporter-agent-go/internal/agent"
	"supporter-agent-go/pkg/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// ChatHandler 负责处理 WebSocket 聊天连接，把每条消息交给代理处理。
type ChatHandler struct {
	agent *agent.Agent
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(a *agent.Agent) *ChatHandler {
	return &ChatHandler{agent: a}
}

type chatFrame struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Handle 处理一个传入的 WebSocket 连接。
// 会话必须先通过 REST 接口创建，连接按 sessionId 绑定到既有会话。
func (h *ChatHandler) Handle(c *gin.Context) {
	sessionID := c.Param("sessionId")

	if _, ok := h.agent.GetSession(sessionID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "会话不存在"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("WebSocket 升级失败: %v", err)
		return
	}
	defer conn.Close()

	log.Infof("WebSocket 连接已建立, sessionId: %s", sessionID)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}

		// 既支持 JSON 帧也支持纯文本消息
		frame := chatFrame{Text: string(message)}
		if len(message) > 0 && message[0] == '{' {
			if err := json.Unmarshal(message, &frame); err != nil || frame.Text == "" {
				frame.Text = string(message)
			}
		}
		log.Infof("收到 WebSocket 消息, sessionId: %s", sessionID)

		resp, err := h.agent.ProcessInput(c.Request.Context(), agent.UserInput{
			Text:      frame.Text,
			Timestamp: time.Now(),
			Metadata:  frame.Metadata,
		}, sessionID)
		if err != nil {
			log.Errorf("处理 WebSocket 消息失败, sessionId: %s, error: %v", sessionID, err)
			errResp, _ := json.Marshal(map[string]string{"error": "服务暂时不可用，请稍后重试"})
			_ = conn.WriteMessage(websocket.TextMessage, errResp)
			break
		}

		b, err := json.Marshal(resp)
		if err != nil {
			log.Errorf("序列化响应失败, sessionId: %s, error: %v", sessionID, err)
			break
		}
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Warnf("向 WebSocket 写入响应失败: %v", err)
			break
		}
	}
}
