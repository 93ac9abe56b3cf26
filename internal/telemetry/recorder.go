package telemetry

import (
	"log/slog"
	"sync"
	"time"

	"model-emulator/internal/config"
)

// RequestEvent describes an accepted completion request about to be
// relayed.
type RequestEvent struct {
	IncomingModel string
	Provider      string
	Model         string
	MessageCount  int
	InputTokens   int
}

// SuccessEvent describes a relayed completion with its token breakdown.
type SuccessEvent struct {
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ErrorContext identifies where a failure happened.
type ErrorContext struct {
	Endpoint       string `json:"endpoint"`
	RequestedModel string `json:"requestedModel,omitempty"`
}

// CompletionRecord is the health snapshot of the last success.
type CompletionRecord struct {
	Timestamp int64          `json:"timestamp"`
	Provider  string         `json:"provider"`
	Model     string         `json:"model"`
	Tokens    TokenBreakdown `json:"tokens"`
}

type TokenBreakdown struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// ErrorRecord is the health snapshot of the last failure.
type ErrorRecord struct {
	Timestamp int64        `json:"timestamp"`
	Message   string       `json:"message"`
	Context   ErrorContext `json:"context"`
}

// Health is the status payload surfaced to the configuration UI.
type Health struct {
	LastSuccessfulCompletion *CompletionRecord `json:"lastSuccessfulCompletion"`
	LastError                *ErrorRecord      `json:"lastError"`
}

// Recorder is the fire-and-forget sink for request lifecycle events.
// It logs (subject to the runtime logging toggles), updates Prometheus
// metrics, and keeps an in-memory health snapshot.
type Recorder struct {
	logger *slog.Logger
	gate   func() config.Logging

	mu          sync.Mutex
	lastSuccess *CompletionRecord
	lastError   *ErrorRecord
}

// NewRecorder creates a recorder. gate is consulted per event so that
// toggling logging in the runtime config takes effect immediately.
func NewRecorder(logger *slog.Logger, gate func() config.Logging) *Recorder {
	return &Recorder{logger: logger, gate: gate}
}

// LogRequest records an accepted request before the backend call.
func (r *Recorder) LogRequest(e RequestEvent) {
	if !r.gate().LogRequests {
		return
	}
	r.logger.Info("request",
		"incoming_model", e.IncomingModel,
		"provider", e.Provider,
		"model", e.Model,
		"messages", e.MessageCount,
		"input_tokens", e.InputTokens,
	)
}

// LogSuccess records a relayed completion.
func (r *Recorder) LogSuccess(e SuccessEvent) {
	requestsTotal.WithLabelValues(e.Provider, e.Model, "success").Inc()
	completionTokens.WithLabelValues(e.Provider, e.Model).Observe(float64(e.TotalTokens))

	if !r.gate().Enabled {
		return
	}
	r.logger.Info("completion",
		"provider", e.Provider,
		"model", e.Model,
		"prompt_tokens", e.PromptTokens,
		"completion_tokens", e.CompletionTokens,
		"total_tokens", e.TotalTokens,
	)

	r.mu.Lock()
	r.lastSuccess = &CompletionRecord{
		Timestamp: time.Now().UnixMilli(),
		Provider:  e.Provider,
		Model:     e.Model,
		Tokens: TokenBreakdown{
			PromptTokens:     e.PromptTokens,
			CompletionTokens: e.CompletionTokens,
			TotalTokens:      e.TotalTokens,
		},
	}
	r.mu.Unlock()
}

// LogError records a failed request.
func (r *Recorder) LogError(err error, ctx ErrorContext) {
	errorsTotal.WithLabelValues(ctx.Endpoint).Inc()

	if !r.gate().LogErrors {
		return
	}
	r.logger.Error("request failed",
		"error", err,
		"endpoint", ctx.Endpoint,
		"requested_model", ctx.RequestedModel,
	)

	r.mu.Lock()
	r.lastError = &ErrorRecord{
		Timestamp: time.Now().UnixMilli(),
		Message:   err.Error(),
		Context:   ctx,
	}
	r.mu.Unlock()
}

// Health returns the last success and error snapshots.
func (r *Recorder) Health() Health {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Health{
		LastSuccessfulCompletion: r.lastSuccess,
		LastError:                r.lastError,
	}
}
