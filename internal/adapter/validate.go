package adapter

import (
	"strings"

	"model-emulator/internal/model"
)

// Validate checks an inbound chat completion request against the OpenAI
// contract. It returns nil when the request is acceptable; rules are
// applied in order and the first failure wins. Pure: no side effects.
func Validate(req *model.ChatRequest) *ValidationError {
	if req == nil {
		return invalidRequest("Request body is required")
	}

	if strings.TrimSpace(req.Model) == "" {
		return invalidRequest("model field is required")
	}

	// An empty prompt string counts as absent, same as an omitted field.
	if req.Messages == nil && (req.Prompt == nil || *req.Prompt == "") {
		return invalidRequest("Either messages or prompt field is required")
	}

	if req.Messages != nil {
		if len(req.Messages) == 0 {
			return invalidRequest("messages must be a non-empty array")
		}
		for _, msg := range req.Messages {
			// Empty content is valid; an absent content field is not.
			if msg.Role == "" || msg.Content == nil {
				return invalidRequest("Each message must have role and content fields")
			}
		}
	}

	return nil
}
