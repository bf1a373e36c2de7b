package models

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn in a conversation
type Message struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content"`
}

// ChatRequest is the request body for the chat endpoints
type ChatRequest struct {
	Messages []Message `json:"messages"`
}

// ChatResponse is the response body for the non-streaming chat endpoint
type ChatResponse struct {
	Success bool   `json:"success"`
	Data    string `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}
