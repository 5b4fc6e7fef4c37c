package llm

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat exchange.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Response is a model completion.
type Response struct {
	Text         string     `json:"text"`          // the completion text
	FinishReason string     `json:"finish_reason"` // why generation stopped
	Usage        TokenUsage `json:"usage"`
}

// TokenUsage reports token consumption for one request.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
