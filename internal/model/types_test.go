package model

import (
	"encoding/json"
	"testing"
)

func TestChatRequest_AbsentVsEmptyContent(t *testing.T) {
	var withEmpty ChatRequest
	if err := json.Unmarshal([]byte(`{"model":"gpt-4","messages":[{"role":"user","content":""}]}`), &withEmpty); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if withEmpty.Messages[0].Content == nil {
		t.Error("expected empty content to decode as non-nil pointer")
	}
	if withEmpty.Messages[0].Text() != "" {
		t.Errorf("expected empty text, got %q", withEmpty.Messages[0].Text())
	}

	var withoutContent ChatRequest
	if err := json.Unmarshal([]byte(`{"model":"gpt-4","messages":[{"role":"user"}]}`), &withoutContent); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if withoutContent.Messages[0].Content != nil {
		t.Error("expected absent content to decode as nil pointer")
	}
}

func TestChatRequest_OptionalFields(t *testing.T) {
	var req ChatRequest
	if err := json.Unmarshal([]byte(`{"model":"gpt-4","prompt":"hi","temperature":0.7,"max_tokens":100}`), &req); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if req.Prompt == nil || *req.Prompt != "hi" {
		t.Error("expected prompt to be set")
	}
	if req.Temperature == nil || *req.Temperature != 0.7 {
		t.Error("expected temperature 0.7")
	}
	if req.MaxTokens == nil || *req.MaxTokens != 100 {
		t.Error("expected max_tokens 100")
	}
	if req.MaxCompletionTokens != nil {
		t.Error("expected max_completion_tokens to be nil")
	}
	if req.Messages != nil {
		t.Error("expected messages to be nil")
	}
}

func TestErrorDetail_NullCode(t *testing.T) {
	data, err := json.Marshal(ErrorResponse{Error: ErrorDetail{Message: "boom", Type: "internal_server_error"}})
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	want := `{"error":{"message":"boom","type":"internal_server_error","code":null}}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
}
