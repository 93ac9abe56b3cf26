package model

// Message represents a chat message. Content is a pointer so that an
// absent field can be told apart from an explicit empty string, which is
// a valid message body.
type Message struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

// Text returns the message content, or "" when the field is absent.
func (m Message) Text() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}

// NewMessage builds a message with the given role and content.
func NewMessage(role, content string) Message {
	return Message{Role: role, Content: &content}
}

// ChatRequest mirrors the OpenAI chat completions request. Optional
// fields are pointers: nil means the caller did not supply them.
type ChatRequest struct {
	Model               string    `json:"model"`
	Messages            []Message `json:"messages,omitempty"`
	Prompt              *string   `json:"prompt,omitempty"`
	Temperature         *float64  `json:"temperature,omitempty"`
	TopP                *float64  `json:"top_p,omitempty"`
	MaxTokens           *int      `json:"max_tokens,omitempty"`
	MaxCompletionTokens *int      `json:"max_completion_tokens,omitempty"`
}

// Usage represents token accounting information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Choice represents a single completion choice.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// ChatResponse mirrors the OpenAI chat completions response.
type ChatResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// ModelInfo describes an available model in normalized form.
type ModelInfo struct {
	ID           string `json:"id"`
	Label        string `json:"label"`
	Provider     string `json:"provider"`
	ProviderName string `json:"providerName,omitempty"`
}

// ErrorResponse represents an OpenAI-compatible error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail holds error information. Code is always serialized, as
// null when the failure carried no machine code.
type ErrorDetail struct {
	Message string  `json:"message"`
	Type    string  `json:"type"`
	Code    *string `json:"code"`
}
