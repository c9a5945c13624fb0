package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kenerlee/navix-server/internal/api/middleware"
	"github.com/kenerlee/navix-server/internal/model"
	"github.com/kenerlee/navix-server/internal/model/dto"
	"github.com/kenerlee/navix-server/internal/pkg/response"
	"github.com/kenerlee/navix-server/internal/pkg/skills"
	"github.com/kenerlee/navix-server/internal/service"
)

type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Stream 发起对话，SSE 流式返回上游事件
// POST /api/chat
func (h *ChatHandler) Stream(c *gin.Context) {
	// 未登录也可对话，走共享匿名身份
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userID = model.AnonymousID
	}

	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.ServerError(c, "当前连接不支持流式输出")
		return
	}

	streaming := false
	err := h.chatService.StreamChat(c.Request.Context(), userID, &req, func(ev skills.StreamEvent) error {
		if !streaming {
			// 首个事件到达后才切换为 SSE，之前的错误仍走 JSON 错误封套
			c.Writer.Header().Set("Content-Type", "text/event-stream")
			c.Writer.Header().Set("Cache-Control", "no-cache")
			c.Writer.Header().Set("Connection", "keep-alive")
			c.Writer.WriteHeader(http.StatusOK)
			streaming = true
		}
		return writeSSE(c.Writer, flusher, ev)
	})
	if err != nil {
		if streaming {
			// 响应头已发出，错误只能作为事件帧送达
			_ = writeSSE(c.Writer, flusher, skills.StreamEvent{Type: skills.EventError, Error: err.Error()})
			return
		}
		switch {
		case errors.Is(err, service.ErrQuotaExceeded),
			errors.Is(err, service.ErrLevelExpired):
			response.QuotaError(c, err.Error())
		case errors.Is(err, skills.ErrNotConfigured):
			response.ServerError(c, err.Error())
		default:
			logrus.WithError(err).Error("对话失败")
			response.ServerError(c, "")
		}
		return
	}

	if streaming {
		fmt.Fprint(c.Writer, "data: [DONE]\n\n")
		flusher.Flush()
	}
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, ev skills.StreamEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
