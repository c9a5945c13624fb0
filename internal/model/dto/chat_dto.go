package dto

type ChatMessage struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type ChatRequest struct {
	ID       string        `json:"id"`
	Messages []ChatMessage `json:"messages" binding:"required,min=1"`
	Model    string        `json:"model"`
}
