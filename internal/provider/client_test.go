package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"syscall"
	"testing"

	"model-emulator/internal/model"
)

func testMessages() []model.Message {
	return []model.Message{model.NewMessage("user", "Hello")}
}

func TestClient_Chat_Success(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	var gotPayload chatPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"Hi there"}}],"usage":{"prompt_tokens":4,"completion_tokens":2,"total_tokens":6}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	temp := 0.5
	result, err := client.Chat(context.Background(), testMessages(), CallOptions{
		Provider:    "openai",
		Model:       "gpt-4",
		Temperature: &temp,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "Hi there" {
		t.Errorf("expected text %q, got %q", "Hi there", result.Text)
	}
	if result.Usage == nil || result.Usage.TotalTokens != 6 {
		t.Errorf("expected usage total 6, got %+v", result.Usage)
	}
	if gotPayload.Model != "gpt-4" {
		t.Errorf("expected upstream model gpt-4, got %q", gotPayload.Model)
	}
	if gotPayload.Temperature == nil || *gotPayload.Temperature != 0.5 {
		t.Error("expected temperature to be forwarded")
	}
	if !client.IsOnline("openai") {
		t.Error("expected provider to be marked online")
	}
}

func TestClient_Chat_FixesZeroTotal(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}],"usage":{"prompt_tokens":3,"completion_tokens":5}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	result, err := client.Chat(context.Background(), testMessages(), CallOptions{Provider: "openai", Model: "gpt-4"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Usage.TotalTokens != 8 {
		t.Errorf("expected total 8, got %d", result.Usage.TotalTokens)
	}
}

func TestClient_Chat_TextFieldFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	tests := []struct {
		name string
		body string
		want string
	}{
		{"choices text", `{"choices":[{"text":"completions style"}]}`, "completions style"},
		{"bare text", `{"text":"bare"}`, "bare"},
		{"bare response", `{"response":"proxied"}`, "proxied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL)
			result, err := client.Chat(context.Background(), testMessages(), CallOptions{Provider: "openai", Model: "gpt-4"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Text != tt.want {
				t.Errorf("expected %q, got %q", tt.want, result.Text)
			}
			if result.Usage != nil {
				t.Error("expected nil usage")
			}
		})
	}
}

func TestClient_Chat_EmptyResponse(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":""}}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Chat(context.Background(), testMessages(), CallOptions{Provider: "openai", Model: "gpt-4"})
	if err == nil {
		t.Fatal("expected error for empty response")
	}
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if perr.Message != "Backend returned empty response" {
		t.Errorf("unexpected message %q", perr.Message)
	}
	if client.IsOnline("openai") {
		t.Error("expected provider to be marked offline")
	}
}

func TestClient_Chat_UpstreamError(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"Rate limit exceeded"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Chat(context.Background(), testMessages(), CallOptions{Provider: "openai", Model: "gpt-4"})
	if err == nil {
		t.Fatal("expected error")
	}
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if perr.Code != "" {
		t.Errorf("expected no machine code, got %q", perr.Code)
	}
}

func TestClient_Chat_MissingAPIKey(t *testing.T) {
	os.Unsetenv("DEEPSEEK_API_KEY")

	client := NewClient("")
	_, err := client.Chat(context.Background(), testMessages(), CallOptions{Provider: "deepseek", Model: "deepseek-chat"})
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestClient_Chat_UnknownProvider(t *testing.T) {
	client := NewClient("")
	_, err := client.Chat(context.Background(), testMessages(), CallOptions{Provider: "nope", Model: "x"})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestClient_CheckConnectivity(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	if !client.CheckConnectivity(context.Background(), "openai") {
		t.Error("expected connectivity check to pass")
	}
	if !client.IsOnline("openai") {
		t.Error("expected provider to be marked online")
	}

	if client.CheckConnectivity(context.Background(), "nope") {
		t.Error("expected connectivity check to fail for unknown provider")
	}
}

type fakeTimeoutError struct{}

func (fakeTimeoutError) Error() string   { return "i/o timeout" }
func (fakeTimeoutError) Timeout() bool   { return true }
func (fakeTimeoutError) Temporary() bool { return true }

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"refused", &net.OpError{Op: "dial", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}, "ECONNREFUSED"},
		{"reset", &net.OpError{Op: "read", Err: os.NewSyscallError("read", syscall.ECONNRESET)}, "ECONNRESET"},
		{"unreachable", &net.OpError{Op: "dial", Err: os.NewSyscallError("connect", syscall.ENETUNREACH)}, "ENETUNREACH"},
		{"deadline", context.DeadlineExceeded, "ETIMEDOUT"},
		{"dns not found", &net.DNSError{Err: "no such host", IsNotFound: true}, "ENOTFOUND"},
		{"dns temporary", &net.DNSError{Err: "try again", IsTemporary: true}, "EAI_AGAIN"},
		{"timeout", fakeTimeoutError{}, "ETIMEDOUT"},
		{"plain", errors.New("boom"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorCode(tt.err); got != tt.want {
				t.Errorf("errorCode() = %q, want %q", got, tt.want)
			}
		})
	}
}
