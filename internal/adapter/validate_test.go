package adapter

import (
	"net/http"
	"testing"

	"model-emulator/internal/model"
)

func strptr(s string) *string { return &s }

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     *model.ChatRequest
		wantMsg string
	}{
		{
			name:    "nil body",
			req:     nil,
			wantMsg: "Request body is required",
		},
		{
			name:    "missing model",
			req:     &model.ChatRequest{Messages: []model.Message{model.NewMessage("user", "hi")}},
			wantMsg: "model field is required",
		},
		{
			name:    "whitespace model",
			req:     &model.ChatRequest{Model: "   ", Messages: []model.Message{model.NewMessage("user", "hi")}},
			wantMsg: "model field is required",
		},
		{
			name:    "neither messages nor prompt",
			req:     &model.ChatRequest{Model: "gpt-4"},
			wantMsg: "Either messages or prompt field is required",
		},
		{
			name:    "empty prompt counts as absent",
			req:     &model.ChatRequest{Model: "gpt-4", Prompt: strptr("")},
			wantMsg: "Either messages or prompt field is required",
		},
		{
			name:    "empty messages",
			req:     &model.ChatRequest{Model: "gpt-4", Messages: []model.Message{}},
			wantMsg: "messages must be a non-empty array",
		},
		{
			name:    "message missing content",
			req:     &model.ChatRequest{Model: "gpt-4", Messages: []model.Message{{Role: "user"}}},
			wantMsg: "Each message must have role and content fields",
		},
		{
			name:    "message missing role",
			req:     &model.ChatRequest{Model: "gpt-4", Messages: []model.Message{{Content: strptr("hi")}}},
			wantMsg: "Each message must have role and content fields",
		},
		{
			name: "valid messages",
			req:  &model.ChatRequest{Model: "gpt-4", Messages: []model.Message{model.NewMessage("user", "hi")}},
		},
		{
			name: "empty content is valid",
			req:  &model.ChatRequest{Model: "gpt-4", Messages: []model.Message{model.NewMessage("user", "")}},
		},
		{
			name: "prompt instead of messages",
			req:  &model.ChatRequest{Model: "gpt-4", Prompt: strptr("hello")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("expected valid request, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if err.Message != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, err.Message)
			}
			if err.StatusCode != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", err.StatusCode)
			}
			if err.Type != "invalid_request_error" {
				t.Errorf("expected type invalid_request_error, got %q", err.Type)
			}
		})
	}
}
