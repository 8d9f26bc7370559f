package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/studentpulse-backend/internal/http/response"
	"github.com/yungbote/studentpulse-backend/internal/services"
)

type ChatHandler struct {
	chatService services.ChatService
}

func NewChatHandler(chatService services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// POST /api/chatbot/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req struct {
		Message   string `json:"message" binding:"required"`
		SessionID string `json:"session_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	out, err := h.chatService.Respond(c.Request.Context(), req.Message)
	respond(c, out, err)
}
