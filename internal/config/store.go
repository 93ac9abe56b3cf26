package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"model-emulator/internal/model"
)

const (
	runtimeFile     = "default.json"
	modelsCacheFile = "models-cache.json"
	presetsFile     = "saved-configs.json"

	// ModelsCacheTTL is how long a cached models list stays fresh.
	ModelsCacheTTL = 30 * time.Minute
)

// Runtime is the mutable emulator configuration persisted as JSON and
// edited through the configuration UI.
type Runtime struct {
	Provider       string      `json:"provider"`
	Model          string      `json:"model"`
	APIKeyEnvVar   string      `json:"apiKeyEnvVar"`
	SpoofedModel   string      `json:"spoofedModel,omitempty"`
	EmulatorActive bool        `json:"emulatorActive"`
	LastConfig     *LastConfig `json:"lastConfig,omitempty"`
	Logging        Logging     `json:"logging"`
}

// LastConfig is the provider/model pair the emulator last ran with.
type LastConfig struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	APIKeyEnvVar string `json:"apiKeyEnvVar"`
}

// Logging toggles for the telemetry recorder.
type Logging struct {
	Enabled     bool `json:"enabled"`
	LogRequests bool `json:"logRequests"`
	LogErrors   bool `json:"logErrors"`
}

// ModelsCache is the persisted models list with its refresh timestamp
// in unix milliseconds.
type ModelsCache struct {
	LastUpdated int64             `json:"lastUpdated,omitempty"`
	Models      []model.ModelInfo `json:"models"`
}

// Preset is a saved configuration the UI can recall by name.
type Preset struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	APIKeyEnvVar string `json:"apiKeyEnvVar"`
}

// DefaultRuntime returns the configuration used before anything has
// been saved.
func DefaultRuntime() Runtime {
	return Runtime{
		Provider:     "openai",
		Model:        "gpt-4",
		APIKeyEnvVar: "OPENAI_API_KEY",
		Logging:      Logging{Enabled: true, LogRequests: true, LogErrors: true},
	}
}

// Store persists runtime configuration, the models cache, and saved
// presets as JSON files under one directory. The runtime file is
// re-read when its mtime changes, so external edits are picked up.
type Store struct {
	mu  sync.Mutex
	dir string

	cached *Runtime
	mtime  time.Time
	active bool

	models        *ModelsCache
	presets       []Preset
	presetsLoaded bool
}

// NewStore opens (creating if needed) the data directory and seeds the
// emulator-active flag from the persisted runtime config.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	s := &Store{dir: dir}
	s.active = s.Snapshot().EmulatorActive
	return s, nil
}

// Snapshot returns the current runtime configuration.
func (s *Store) Snapshot() Runtime {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() Runtime {
	path := filepath.Join(s.dir, runtimeFile)

	if fi, err := os.Stat(path); err == nil && s.cached != nil && fi.ModTime().Equal(s.mtime) {
		return *s.cached
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultRuntime()
	}
	var rt Runtime
	if err := json.Unmarshal(data, &rt); err != nil {
		return DefaultRuntime()
	}

	s.cached = &rt
	if fi, err := os.Stat(path); err == nil {
		s.mtime = fi.ModTime()
	}
	return rt
}

// Update applies mutate to the current runtime configuration and
// persists the result.
func (s *Store) Update(mutate func(*Runtime)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt := s.loadLocked()
	mutate(&rt)

	if err := s.writeLocked(runtimeFile, rt); err != nil {
		return err
	}
	s.cached = &rt
	if fi, err := os.Stat(filepath.Join(s.dir, runtimeFile)); err == nil {
		s.mtime = fi.ModTime()
	}
	return nil
}

// EmulatorActive reports whether the emulator gate is open.
func (s *Store) EmulatorActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// StartEmulator persists the given configuration, remembers it as the
// last one used, and opens the gate.
func (s *Store) StartEmulator(provider, modelID, apiKeyEnvVar string) error {
	err := s.Update(func(rt *Runtime) {
		rt.Provider = provider
		rt.Model = modelID
		rt.APIKeyEnvVar = apiKeyEnvVar
		rt.EmulatorActive = true
		rt.LastConfig = &LastConfig{Provider: provider, Model: modelID, APIKeyEnvVar: apiKeyEnvVar}
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.active = true
	s.mu.Unlock()
	return nil
}

// StopEmulator closes the gate.
func (s *Store) StopEmulator() error {
	err := s.Update(func(rt *Runtime) {
		rt.EmulatorActive = false
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
	return nil
}

// LastConfig returns the configuration the emulator last ran with.
func (s *Store) LastConfig() *LastConfig {
	rt := s.Snapshot()
	return rt.LastConfig
}

// ModelsCache returns the persisted models list, or an empty cache.
func (s *Store) ModelsCache() ModelsCache {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.models != nil {
		return *s.models
	}

	data, err := os.ReadFile(filepath.Join(s.dir, modelsCacheFile))
	if err != nil {
		return ModelsCache{}
	}
	var cache ModelsCache
	if err := json.Unmarshal(data, &cache); err != nil || cache.Models == nil {
		return ModelsCache{}
	}
	s.models = &cache
	return cache
}

// ModelsCacheStale reports whether the cache is older than ttl.
func (s *Store) ModelsCacheStale(ttl time.Duration) bool {
	cache := s.ModelsCache()
	if cache.LastUpdated == 0 {
		return true
	}
	return time.Now().UnixMilli()-cache.LastUpdated > ttl.Milliseconds()
}

// SaveModelsCache persists a refreshed models list.
func (s *Store) SaveModelsCache(models []model.ModelInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache := ModelsCache{LastUpdated: time.Now().UnixMilli(), Models: models}
	if err := s.writeLocked(modelsCacheFile, cache); err != nil {
		return err
	}
	s.models = &cache
	return nil
}

// Presets returns the saved configuration presets.
func (s *Store) Presets() []Preset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presetsLocked()
}

func (s *Store) presetsLocked() []Preset {
	if s.presetsLoaded {
		return s.presets
	}

	data, err := os.ReadFile(filepath.Join(s.dir, presetsFile))
	if err == nil {
		var presets []Preset
		if json.Unmarshal(data, &presets) == nil {
			s.presets = presets
		}
	}
	s.presetsLoaded = true
	return s.presets
}

// PresetByID looks up a preset.
func (s *Store) PresetByID(id string) (Preset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.presetsLocked() {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// AddPreset creates and persists a new preset.
func (s *Store) AddPreset(name, provider, modelID, apiKeyEnvVar string) (Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	preset := Preset{
		ID:           "cfg-" + uuid.NewString(),
		Name:         name,
		Provider:     provider,
		Model:        modelID,
		APIKeyEnvVar: apiKeyEnvVar,
	}
	presets := append(s.presetsLocked(), preset)
	if err := s.writeLocked(presetsFile, presets); err != nil {
		return Preset{}, err
	}
	s.presets = presets
	return preset, nil
}

// UpdatePreset overwrites an existing preset's fields. Empty name,
// provider, or model leave the stored value untouched; the env var is
// always replaced.
func (s *Store) UpdatePreset(id, name, provider, modelID, apiKeyEnvVar string) (Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	presets := s.presetsLocked()
	for i := range presets {
		if presets[i].ID != id {
			continue
		}
		if name != "" {
			presets[i].Name = name
		}
		if provider != "" {
			presets[i].Provider = provider
		}
		if modelID != "" {
			presets[i].Model = modelID
		}
		presets[i].APIKeyEnvVar = apiKeyEnvVar

		if err := s.writeLocked(presetsFile, presets); err != nil {
			return Preset{}, err
		}
		s.presets = presets
		return presets[i], nil
	}
	return Preset{}, fmt.Errorf("preset %q not found", id)
}

// DeletePreset removes a preset, reporting whether it existed.
func (s *Store) DeletePreset(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	presets := s.presetsLocked()
	filtered := presets[:0:0]
	for _, p := range presets {
		if p.ID != id {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) == len(presets) {
		return false, nil
	}
	if err := s.writeLocked(presetsFile, filtered); err != nil {
		return false, err
	}
	s.presets = filtered
	return true, nil
}

func (s *Store) writeLocked(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}
