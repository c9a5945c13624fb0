package skills

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kenerlee/navix-server/config"
)

var ErrNotConfigured = errors.New("Skills 服务未配置")

// Message 对话消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest 发往 Skills API 的请求帧
type chatRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
	Stream    bool      `json:"stream"`
}

// 流式事件类型
const (
	EventMessageStart = "message_start"
	EventTextDelta    = "text_delta"
	EventMessageStop  = "message_stop"
	EventError        = "error"
)

// StreamEvent Skills API 的流式事件帧
type StreamEvent struct {
	Type  string `json:"type"` // text_delta / message_start / message_stop / error
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// Client 通过 WebSocket 调用上游 Skills API
type Client struct {
	cfg *config.ChatConfig
}

func NewClient(cfg *config.ChatConfig) *Client {
	return &Client{cfg: cfg}
}

// StreamChat 发起一轮对话并逐事件回调；ctx 取消时中断连接。
// onEvent 返回非 nil 错误会终止转发（例如客户端断开）。
func (c *Client) StreamChat(ctx context.Context, model string, messages []Message, onEvent func(StreamEvent) error) error {
	if c.cfg.SkillsWSURL == "" {
		return ErrNotConfigured
	}

	if model == "" {
		model = c.cfg.DefaultModel
	}
	maxTokens := c.cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	header := http.Header{}
	if c.cfg.SkillsAPIKey != "" {
		header.Set("Authorization", "Bearer "+c.cfg.SkillsAPIKey)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, c.cfg.SkillsWSURL, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("skills 连接失败 (HTTP %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("skills 连接失败: %w", err)
	}
	defer conn.Close()

	// ctx 取消时强制关闭连接，解除 ReadJSON 阻塞
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	req := chatRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: maxTokens,
		Stream:    true,
	}
	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("skills 请求发送失败: %w", err)
	}

	if c.cfg.TimeoutSec > 0 {
		deadline := time.Now().Add(time.Duration(c.cfg.TimeoutSec) * time.Second)
		_ = conn.SetReadDeadline(deadline)
	}

	for {
		var event StreamEvent
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("skills 读取失败: %w", err)
		}

		switch event.Type {
		case EventError:
			return fmt.Errorf("skills 上游错误: %s", event.Error)
		case EventMessageStop:
			return onEvent(event)
		default:
			if err := onEvent(event); err != nil {
				return err
			}
		}
	}
}
