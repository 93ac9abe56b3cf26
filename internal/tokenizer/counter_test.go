package tokenizer

import (
	"strings"
	"testing"

	"model-emulator/internal/model"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"ab", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"Hello", 2},
		{"Hi", 1},
		{strings.Repeat("x", 8), 2},
		{strings.Repeat("x", 9), 3},
	}

	for _, tt := range tests {
		if got := Estimate(tt.text); got != tt.want {
			t.Errorf("Estimate(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestCounter_CountMessages_KnownModel(t *testing.T) {
	counter := NewCounter()
	messages := []model.Message{
		model.NewMessage("user", "Hello, how are you?"),
	}

	tokens := counter.CountMessages("gpt-4o", messages)
	if tokens <= 0 {
		t.Errorf("expected positive token count, got %d", tokens)
	}
	// "Hello, how are you?" should be roughly 5-6 tokens plus overhead.
	if tokens > 20 {
		t.Errorf("token count seems too high: %d", tokens)
	}
}

func TestCounter_CountMessages_UnknownModel(t *testing.T) {
	counter := NewCounter()
	messages := []model.Message{
		model.NewMessage("user", "Hello world this is a test"),
	}

	tokens := counter.CountMessages("unknown-model", messages)
	// Fallback: ceil(len("Hello world this is a test") / 4) = ceil(26/4) = 7
	if tokens != 7 {
		t.Errorf("expected fallback count of 7, got %d", tokens)
	}
}

func TestCounter_CountMessages_AbsentContent(t *testing.T) {
	counter := NewCounter()
	messages := []model.Message{
		{Role: "user"},
	}

	if tokens := counter.CountMessages("unknown-model", messages); tokens != 0 {
		t.Errorf("expected 0 tokens for absent content, got %d", tokens)
	}
}
