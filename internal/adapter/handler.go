package adapter

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"model-emulator/internal/config"
	"model-emulator/internal/model"
	"model-emulator/internal/provider"
	"model-emulator/internal/telemetry"
	"model-emulator/internal/tokenizer"
)

const chatEndpoint = "/v1/chat/completions"

// Backend performs chat calls against the configured upstream provider.
type Backend interface {
	Chat(ctx context.Context, messages []model.Message, opts provider.CallOptions) (*provider.Result, error)
}

// ConfigSource exposes the runtime emulator configuration.
type ConfigSource interface {
	Snapshot() config.Runtime
	EmulatorActive() bool
}

// Telemetry receives fire-and-forget request lifecycle events.
type Telemetry interface {
	LogRequest(e telemetry.RequestEvent)
	LogSuccess(e telemetry.SuccessEvent)
	LogError(err error, ctx telemetry.ErrorContext)
}

// Handler translates OpenAI-shaped completion requests into backend
// calls and shapes the result back into the OpenAI envelope.
type Handler struct {
	backend Backend
	cfg     ConfigSource
	tel     Telemetry
	counter *tokenizer.Counter
}

// NewHandler creates a completion handler.
func NewHandler(backend Backend, cfg ConfigSource, tel Telemetry, counter *tokenizer.Counter) *Handler {
	return &Handler{backend: backend, cfg: cfg, tel: tel, counter: counter}
}

// Handle runs one completion request through the relay. It never
// returns an error: every failure becomes an OpenAI error envelope with
// the matching HTTP status. A nil req means the body was missing or
// unparseable.
func (h *Handler) Handle(ctx context.Context, req *model.ChatRequest) Result {
	// Service readiness wins over input validity: an inactive emulator
	// rejects even malformed requests with 503.
	if !h.cfg.EmulatorActive() {
		err := errors.New("Emulator is not active. Start it from the configuration UI.")
		h.tel.LogError(err, h.errorContext(req))
		return ErrorResponse(err, http.StatusServiceUnavailable, "service_unavailable")
	}

	if verr := Validate(req); verr != nil {
		h.tel.LogError(verr, h.errorContext(req))
		return ErrorResponse(verr, verr.StatusCode, verr.Type)
	}

	rt := h.cfg.Snapshot()
	providerID := rt.Provider
	if providerID == "" {
		providerID = "openai"
	}
	backendModel := rt.Model
	if backendModel == "" {
		backendModel = "gpt-4"
	}

	messages := req.Messages
	if messages == nil {
		messages = []model.Message{{Role: "user", Content: req.Prompt}}
	}

	h.tel.LogRequest(telemetry.RequestEvent{
		IncomingModel: req.Model,
		Provider:      providerID,
		Model:         backendModel,
		MessageCount:  len(messages),
		InputTokens:   h.counter.CountMessages(backendModel, messages),
	})

	// The caller's model name is never forwarded upstream; the backend
	// model comes from server-side configuration.
	opts := provider.CallOptions{
		Provider:     providerID,
		Model:        backendModel,
		APIKeyEnvVar: rt.APIKeyEnvVar,
		Temperature:  req.Temperature,
		TopP:         req.TopP,
	}
	switch {
	case req.MaxTokens != nil:
		opts.MaxTokens = req.MaxTokens
	case req.MaxCompletionTokens != nil:
		opts.MaxTokens = req.MaxCompletionTokens
	}

	result, err := h.backend.Chat(ctx, messages, opts)
	if err != nil {
		h.tel.LogError(err, h.errorContext(req))
		status, errType := Classify(err)
		return ErrorResponse(err, status, errType)
	}

	usage := result.Usage
	if usage == nil {
		usage = estimateUsage(messages, result.Text)
	}

	h.tel.LogSuccess(telemetry.SuccessEvent{
		Provider:         providerID,
		Model:            backendModel,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
	})

	responseModel := rt.SpoofedModel
	if responseModel == "" {
		responseModel = req.Model
	}

	return Result{
		StatusCode: http.StatusOK,
		Body: model.ChatResponse{
			ID:      completionID(),
			Object:  "chat.completion",
			Created: time.Now().Unix(),
			Model:   responseModel,
			Choices: []model.Choice{
				{
					Index:        0,
					Message:      model.NewMessage("assistant", result.Text),
					FinishReason: "stop",
				},
			},
			Usage: *usage,
		},
	}
}

// estimateUsage approximates token accounting when the backend does not
// report it: prompt tokens over the space-joined message contents,
// completion tokens over the returned text.
func estimateUsage(messages []model.Message, completion string) *model.Usage {
	parts := make([]string, 0, len(messages))
	for _, msg := range messages {
		parts = append(parts, msg.Text())
	}

	promptTokens := tokenizer.Estimate(strings.Join(parts, " "))
	completionTokens := tokenizer.Estimate(completion)
	return &model.Usage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}
}

func completionID() string {
	return "chatcmpl-" + uuid.NewString()
}

func (h *Handler) errorContext(req *model.ChatRequest) telemetry.ErrorContext {
	ctx := telemetry.ErrorContext{Endpoint: chatEndpoint}
	if req != nil {
		ctx.RequestedModel = req.Model
	}
	return ctx
}
