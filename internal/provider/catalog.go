package provider

import (
	"fmt"
	"os"

	"model-emulator/internal/model"
)

// ModelEntry is a model offered by a provider.
type ModelEntry struct {
	ID    string
	Label string
}

// Info describes a supported upstream provider. Every provider is
// reached through its OpenAI-compatible chat completions surface.
type Info struct {
	ID      string
	Name    string
	EnvVar  string
	BaseURL string
	Models  []ModelEntry
}

// Summary is the provider shape returned to the configuration UI.
type Summary struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	EnvVar    string            `json:"envVar"`
	HasAPIKey bool              `json:"hasApiKey"`
	Models    []model.ModelInfo `json:"models"`
}

var catalog = []Info{
	{
		ID: "openai", Name: "OpenAI", EnvVar: "OPENAI_API_KEY",
		BaseURL: "https://api.openai.com/v1",
		Models: []ModelEntry{
			{ID: "gpt-4", Label: "GPT-4"},
			{ID: "gpt-4-turbo", Label: "GPT-4 Turbo"},
			{ID: "gpt-4o", Label: "GPT-4o"},
			{ID: "gpt-4o-mini", Label: "GPT-4o Mini"},
			{ID: "gpt-3.5-turbo", Label: "GPT-3.5 Turbo"},
			{ID: "o1", Label: "o1"},
			{ID: "o1-mini", Label: "o1 Mini"},
		},
	},
	{
		ID: "anthropic", Name: "Anthropic", EnvVar: "ANTHROPIC_API_KEY",
		BaseURL: "https://api.anthropic.com/v1",
		Models: []ModelEntry{
			{ID: "claude-3-5-sonnet-20241022", Label: "Claude 3.5 Sonnet"},
			{ID: "claude-3-5-haiku-20241022", Label: "Claude 3.5 Haiku"},
			{ID: "claude-3-opus-20240229", Label: "Claude 3 Opus"},
			{ID: "claude-3-haiku-20240307", Label: "Claude 3 Haiku"},
		},
	},
	{
		ID: "groq", Name: "Groq", EnvVar: "GROQ_API_KEY",
		BaseURL: "https://api.groq.com/openai/v1",
		Models: []ModelEntry{
			{ID: "llama-3.3-70b-versatile", Label: "Llama 3.3 70B"},
			{ID: "llama-3.1-8b-instant", Label: "Llama 3.1 8B"},
			{ID: "mixtral-8x7b-32768", Label: "Mixtral 8x7B"},
			{ID: "gemma2-9b-it", Label: "Gemma 2 9B"},
		},
	},
	{
		ID: "mistral", Name: "Mistral", EnvVar: "MISTRAL_API_KEY",
		BaseURL: "https://api.mistral.ai/v1",
		Models: []ModelEntry{
			{ID: "mistral-large-latest", Label: "Mistral Large"},
			{ID: "mistral-medium-latest", Label: "Mistral Medium"},
			{ID: "mistral-small-latest", Label: "Mistral Small"},
			{ID: "codestral-latest", Label: "Codestral"},
		},
	},
	{
		ID: "google", Name: "Google (Gemini)", EnvVar: "GEMINI_API_KEY",
		BaseURL: "https://generativelanguage.googleapis.com/v1beta/openai",
		Models: []ModelEntry{
			{ID: "gemini-1.5-pro", Label: "Gemini 1.5 Pro"},
			{ID: "gemini-1.5-flash", Label: "Gemini 1.5 Flash"},
		},
	},
	{
		ID: "cohere", Name: "Cohere", EnvVar: "COHERE_API_KEY",
		BaseURL: "https://api.cohere.ai/compatibility/v1",
		Models: []ModelEntry{
			{ID: "command-r-plus", Label: "Command R+"},
			{ID: "command-r", Label: "Command R"},
		},
	},
	{
		ID: "openrouter", Name: "OpenRouter", EnvVar: "OPENROUTER_API_KEY",
		BaseURL: "https://openrouter.ai/api/v1",
		Models: []ModelEntry{
			{ID: "openai/gpt-4-turbo", Label: "GPT-4 Turbo"},
			{ID: "anthropic/claude-3.5-sonnet", Label: "Claude 3.5 Sonnet"},
			{ID: "meta-llama/llama-3.1-405b-instruct", Label: "Llama 3.1 405B"},
		},
	},
	{
		ID: "deepseek", Name: "DeepSeek", EnvVar: "DEEPSEEK_API_KEY",
		BaseURL: "https://api.deepseek.com/v1",
		Models: []ModelEntry{
			{ID: "deepseek-chat", Label: "DeepSeek Chat"},
			{ID: "deepseek-coder", Label: "DeepSeek Coder"},
		},
	},
	{
		ID: "cerebras", Name: "Cerebras", EnvVar: "CEREBRAS_API_KEY",
		BaseURL: "https://api.cerebras.ai/v1",
		Models: []ModelEntry{
			{ID: "llama3.1-8b", Label: "Llama 3.1 8B"},
			{ID: "llama3.1-70b", Label: "Llama 3.1 70B"},
		},
	},
}

// Lookup returns the catalog entry for a provider id.
func Lookup(id string) (Info, bool) {
	for _, info := range catalog {
		if info.ID == id {
			return info, true
		}
	}
	return Info{}, false
}

// DisplayName returns the provider's human-readable name, or the id
// itself for unknown providers.
func DisplayName(id string) string {
	if info, ok := Lookup(id); ok {
		return info.Name
	}
	return id
}

// ListProviders returns all supported providers with an indication of
// whether their API key is present in the environment.
func ListProviders() []Summary {
	summaries := make([]Summary, 0, len(catalog))
	for _, info := range catalog {
		summaries = append(summaries, Summary{
			ID:        info.ID,
			Name:      info.Name,
			EnvVar:    info.EnvVar,
			HasAPIKey: os.Getenv(info.EnvVar) != "",
			Models:    modelInfos(info),
		})
	}
	return summaries
}

// ListModels returns available models, optionally filtered by provider.
// An unknown provider id yields an empty list.
func ListModels(providerID string) []model.ModelInfo {
	if providerID != "" {
		info, ok := Lookup(providerID)
		if !ok {
			return nil
		}
		return modelInfos(info)
	}

	var models []model.ModelInfo
	for _, info := range catalog {
		models = append(models, modelInfos(info)...)
	}
	return models
}

// HasModel reports whether the provider offers the given model id.
func HasModel(providerID, modelID string) bool {
	info, ok := Lookup(providerID)
	if !ok {
		return false
	}
	for _, m := range info.Models {
		if m.ID == modelID {
			return true
		}
	}
	return false
}

// apiKey resolves the provider's API key, preferring an explicit
// environment variable name over the catalog default.
func apiKey(info Info, envVar string) (string, error) {
	if envVar == "" {
		envVar = info.EnvVar
	}
	key := os.Getenv(envVar)
	if key == "" {
		return "", newError(fmt.Sprintf("No API key found for provider %q", info.ID))
	}
	return key, nil
}

func modelInfos(info Info) []model.ModelInfo {
	models := make([]model.ModelInfo, 0, len(info.Models))
	for _, m := range info.Models {
		models = append(models, model.ModelInfo{
			ID:           m.ID,
			Label:        m.Label,
			Provider:     info.ID,
			ProviderName: info.Name,
		})
	}
	return models
}
