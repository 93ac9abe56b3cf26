package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"model-emulator/internal/adapter"
	"model-emulator/internal/config"
	"model-emulator/internal/model"
	"model-emulator/internal/provider"
	"model-emulator/internal/telemetry"
)

// Handler serves the OpenAI-compatible endpoint plus the configuration
// and emulator-control API consumed by the UI.
type Handler struct {
	adapter  *adapter.Handler
	client   *provider.Client
	store    *config.Store
	recorder *telemetry.Recorder
	logger   *slog.Logger
	port     int
}

// NewHandler creates a new request handler.
func NewHandler(a *adapter.Handler, client *provider.Client, store *config.Store, recorder *telemetry.Recorder, logger *slog.Logger, port int) *Handler {
	return &Handler{
		adapter:  a,
		client:   client,
		store:    store,
		recorder: recorder,
		logger:   logger,
		port:     port,
	}
}

// RegisterRoutes registers all HTTP routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/chat/completions", h.handleChatCompletions)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /v1/models", h.handleModels)
	mux.HandleFunc("GET /models", h.handleModels)
	mux.HandleFunc("GET /providers", h.handleProviders)
	mux.HandleFunc("GET /config/state", h.handleConfigState)
	mux.HandleFunc("POST /config/save", h.handleConfigSave)
	mux.HandleFunc("POST /config/savePreset", h.handleSavePreset)
	mux.HandleFunc("POST /emulator/start", h.handleEmulatorStart)
	mux.HandleFunc("POST /emulator/stop", h.handleEmulatorStop)
	mux.Handle("GET /metrics", promhttp.Handler())
}

func (h *Handler) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	// A missing or unparseable body is handed to the adapter as nil and
	// comes back as its 400 "Request body is required".
	var req *model.ChatRequest
	var decoded model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&decoded); err == nil {
		req = &decoded
	}

	result := h.adapter.Handle(r.Context(), req)
	h.writeJSON(w, result.StatusCode, result.Body)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	cfg := h.store.Snapshot()
	providerID := cfg.Provider
	if providerID == "" {
		providerID = "openai"
	}

	online := h.client.CheckConnectivity(r.Context(), providerID)
	name := provider.DisplayName(providerID)
	message := name + " is reachable"
	if !online {
		message = name + " appears offline"
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"online":   online,
		"provider": providerID,
		"message":  message,
	})
}

func (h *Handler) handleModels(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"
	providerID := r.URL.Query().Get("provider")
	h.writeJSON(w, http.StatusOK, h.modelsPayload(force, providerID))
}

// modelsPayload serves the cached models list unless it is stale,
// forced, or filtered; refreshes persist back to the cache.
func (h *Handler) modelsPayload(force bool, providerID string) map[string]any {
	if !force && providerID == "" {
		cache := h.store.ModelsCache()
		if len(cache.Models) > 0 && !h.store.ModelsCacheStale(config.ModelsCacheTTL) {
			return map[string]any{
				"models":      cache.Models,
				"lastUpdated": cache.LastUpdated,
				"source":      "cache",
			}
		}
	}

	models := provider.ListModels(providerID)
	if providerID == "" {
		if err := h.store.SaveModelsCache(models); err != nil {
			h.logger.Warn("failed to save models cache", "error", err)
		}
	}
	return map[string]any{
		"models":      models,
		"lastUpdated": time.Now().UnixMilli(),
		"source":      "catalog",
	}
}

func (h *Handler) handleProviders(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"providers": provider.ListProviders()})
}

func (h *Handler) handleConfigState(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"
	cfg := h.store.Snapshot()
	providerID := cfg.Provider
	if providerID == "" {
		providerID = "openai"
	}
	models := h.modelsPayload(force, "")

	h.writeJSON(w, http.StatusOK, map[string]any{
		"endpoint":          h.endpointURL(),
		"config":            cfg,
		"presets":           h.store.Presets(),
		"models":            models["models"],
		"modelsLastUpdated": models["lastUpdated"],
		"providers":         provider.ListProviders(),
		"emulatorActive":    h.store.EmulatorActive(),
		"providerOnline":    h.client.IsOnline(providerID),
		"lastConfig":        h.store.LastConfig(),
		"health":            h.recorder.Health(),
	})
}

func (h *Handler) handleConfigSave(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Provider     *string `json:"provider"`
		Model        *string `json:"model"`
		APIKeyEnvVar *string `json:"apiKeyEnvVar"`
		SpoofedModel *string `json:"spoofedModel"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.store.Update(func(rt *config.Runtime) {
		if body.Provider != nil {
			rt.Provider = *body.Provider
		}
		if body.Model != nil {
			rt.Model = *body.Model
		}
		if body.APIKeyEnvVar != nil {
			rt.APIKeyEnvVar = *body.APIKeyEnvVar
		}
		if body.SpoofedModel != nil {
			rt.SpoofedModel = *body.SpoofedModel
		}
	})
	if err != nil {
		h.logger.Error("failed to save config", "error", err)
		h.writeFailure(w, http.StatusInternalServerError, "Failed to save configuration")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "config": h.store.Snapshot()})
}

func (h *Handler) handleSavePreset(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		Provider     string `json:"provider"`
		Model        string `json:"model"`
		APIKeyEnvVar string `json:"apiKeyEnvVar"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	name := strings.TrimSpace(body.Name)
	switch {
	case name == "":
		h.writeFailure(w, http.StatusBadRequest, "Name is required")
		return
	case body.Provider == "":
		h.writeFailure(w, http.StatusBadRequest, "Provider is required")
		return
	case body.Model == "":
		h.writeFailure(w, http.StatusBadRequest, "Model is required")
		return
	}

	if body.ID != "" {
		if _, ok := h.store.PresetByID(body.ID); !ok {
			h.writeFailure(w, http.StatusNotFound, "Preset not found")
			return
		}
		preset, err := h.store.UpdatePreset(body.ID, name, body.Provider, body.Model, body.APIKeyEnvVar)
		if err != nil {
			h.writeFailure(w, http.StatusInternalServerError, "Failed to update preset")
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "preset": preset})
		return
	}

	preset, err := h.store.AddPreset(name, body.Provider, body.Model, body.APIKeyEnvVar)
	if err != nil {
		h.writeFailure(w, http.StatusInternalServerError, "Failed to save preset")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "preset": preset})
}

func (h *Handler) handleEmulatorStart(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Provider     string `json:"provider"`
		Model        string `json:"model"`
		APIKeyEnvVar string `json:"apiKeyEnvVar"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	switch {
	case body.Provider == "":
		h.writeFailure(w, http.StatusBadRequest, "Provider is required")
		return
	case body.Model == "":
		h.writeFailure(w, http.StatusBadRequest, "Model is required")
		return
	}

	if !h.client.CheckConnectivity(r.Context(), body.Provider) {
		h.writeFailure(w, http.StatusServiceUnavailable, provider.DisplayName(body.Provider)+" is offline or API key is invalid")
		return
	}

	if !provider.HasModel(body.Provider, body.Model) {
		h.writeFailure(w, http.StatusBadRequest, fmt.Sprintf("Model %q not found for provider", body.Model))
		return
	}

	if err := h.store.StartEmulator(body.Provider, body.Model, body.APIKeyEnvVar); err != nil {
		h.logger.Error("failed to start emulator", "error", err)
		h.writeFailure(w, http.StatusInternalServerError, "Failed to start")
		return
	}

	h.logger.Info("emulator started", "provider", body.Provider, "model", body.Model)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"config": map[string]string{
			"provider":     body.Provider,
			"model":        body.Model,
			"apiKeyEnvVar": body.APIKeyEnvVar,
		},
	})
}

func (h *Handler) handleEmulatorStop(w http.ResponseWriter, r *http.Request) {
	if err := h.store.StopEmulator(); err != nil {
		h.logger.Error("failed to stop emulator", "error", err)
		h.writeFailure(w, http.StatusInternalServerError, "Failed to stop")
		return
	}
	h.logger.Info("emulator stopped")
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) endpointURL() string {
	return fmt.Sprintf("http://localhost:%d/v1/chat/completions", h.port)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeFailure(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]any{"success": false, "error": message})
}
