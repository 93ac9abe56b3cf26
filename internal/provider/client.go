package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"model-emulator/internal/model"
)

var bufPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

const probeTimeout = 10 * time.Second

// CallOptions carries the parameters for one backend call. Model is
// always the server-side configured model, never the caller's.
type CallOptions struct {
	Provider     string
	Model        string
	APIKeyEnvVar string
	Temperature  *float64
	TopP         *float64
	MaxTokens    *int
}

// Result is a completed backend call. Usage is nil when the upstream
// did not report token accounting.
type Result struct {
	Text  string
	Usage *model.Usage
}

// Client speaks the OpenAI-compatible chat completions API of whichever
// provider is configured, and tracks per-provider connectivity from the
// outcome of each call.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu     sync.Mutex
	online map[string]bool
}

// NewClient creates a backend client. A non-empty baseURL overrides
// every catalog base URL, which is how local stubs are pointed at.
func NewClient(baseURL string) *Client {
	transport := &http.Transport{
		DisableCompression:  true,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Transport: transport},
		online:     make(map[string]bool),
	}
}

// chatPayload is the upstream chat completions request body.
type chatPayload struct {
	Model       string          `json:"model"`
	Messages    []model.Message `json:"messages"`
	Temperature *float64        `json:"temperature,omitempty"`
	TopP        *float64        `json:"top_p,omitempty"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
}

// upstreamResponse covers the response shapes seen across providers:
// chat-style choices, completions-style text, and a few proxies that
// return a bare text/response field.
type upstreamResponse struct {
	Choices []struct {
		Message *struct {
			Content string `json:"content"`
		} `json:"message"`
		Text string `json:"text"`
	} `json:"choices"`
	Text     string       `json:"text"`
	Response string       `json:"response"`
	Usage    *model.Usage `json:"usage"`
}

// extractText pulls the completion text out of whichever field the
// upstream used, in priority order.
func extractText(r *upstreamResponse) string {
	if len(r.Choices) > 0 {
		choice := r.Choices[0]
		if choice.Message != nil && choice.Message.Content != "" {
			return choice.Message.Content
		}
		if choice.Text != "" {
			return choice.Text
		}
	}
	if r.Text != "" {
		return r.Text
	}
	return r.Response
}

// Chat sends a chat completion request to the configured provider.
// Failures are returned as *Error carrying a message and, for transport
// failures, a machine code.
func (c *Client) Chat(ctx context.Context, messages []model.Message, opts CallOptions) (*Result, error) {
	info, ok := Lookup(opts.Provider)
	if !ok {
		return nil, newError(fmt.Sprintf("Provider %q is not supported", opts.Provider))
	}

	key, err := apiKey(info, opts.APIKeyEnvVar)
	if err != nil {
		c.setOnline(info.ID, false)
		return nil, err
	}

	payload := chatPayload{
		Model:       opts.Model,
		Messages:    messages,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		MaxTokens:   opts.MaxTokens,
	}

	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufPool.Put(buf)
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base(info)+"/chat/completions", bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.setOnline(info.ID, false)
		return nil, wrapTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.setOnline(info.ID, false)
		return nil, newError(fmt.Sprintf("upstream error (status %d): %s", resp.StatusCode, string(respBody)))
	}

	var decoded upstreamResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.setOnline(info.ID, false)
		return nil, newError(fmt.Sprintf("decoding upstream response: %v", err))
	}

	text := extractText(&decoded)
	if text == "" {
		c.setOnline(info.ID, false)
		return nil, newError("Backend returned empty response")
	}

	if decoded.Usage != nil && decoded.Usage.TotalTokens == 0 {
		decoded.Usage.TotalTokens = decoded.Usage.PromptTokens + decoded.Usage.CompletionTokens
	}

	c.setOnline(info.ID, true)
	return &Result{Text: text, Usage: decoded.Usage}, nil
}

// CheckConnectivity probes the provider with a minimal completion call
// and records the outcome.
func (c *Client) CheckConnectivity(ctx context.Context, providerID string) bool {
	info, ok := Lookup(providerID)
	if !ok || len(info.Models) == 0 {
		return false
	}
	if _, err := apiKey(info, ""); err != nil {
		c.setOnline(providerID, false)
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	maxTokens := 5
	_, err := c.Chat(ctx, []model.Message{model.NewMessage("user", "Hi")}, CallOptions{
		Provider:  providerID,
		Model:     info.Models[0].ID,
		MaxTokens: &maxTokens,
	})
	return err == nil
}

// IsOnline reports whether the provider was last known to be reachable.
func (c *Client) IsOnline(providerID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online[providerID]
}

func (c *Client) setOnline(providerID string, online bool) {
	c.mu.Lock()
	c.online[providerID] = online
	c.mu.Unlock()
}

func (c *Client) base(info Info) string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return info.BaseURL
}
