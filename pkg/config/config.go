package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	ConfigVersion  = "1.0"
	ConfigDirName  = ".workshop"
	ConfigFileName = "config.json"
)

// Provider discriminator values accepted in "ai_provider".
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderCustom = "custom"
)

// Config is the full application configuration. It is loaded once per
// command invocation and passed explicitly; nothing mutates it afterwards.
type Config struct {
	Version string `json:"version,omitempty"`

	// Provider selection and per-provider connection settings
	Provider string        `json:"ai_provider"`
	Ollama   *OllamaConfig `json:"ollama,omitempty"`
	OpenAI   *OpenAIConfig `json:"openai,omitempty"`
	Gemini   *GeminiConfig `json:"gemini,omitempty"`
	Custom   *CustomConfig `json:"custom,omitempty"`

	// Scan limits
	MaxFilesToScan int   `json:"max_files_to_scan,omitempty"`
	FileSizeLimit  int64 `json:"file_size_limit,omitempty"`
	ScanTimeoutSec int   `json:"scan_timeout,omitempty"`

	// Scanner inputs
	CodeFileExtensions []string `json:"code_file_extensions,omitempty"`
	ExcludeDirs        []string `json:"exclude_dirs,omitempty"`
	ExcludePatterns    []string `json:"exclude_patterns,omitempty"`

	// Forced architecture label; empty means auto-detect
	Architecture string `json:"architecture,omitempty"`

	// Prompt template overrides keyed by template name
	PromptTemplates map[string]string `json:"prompt_templates,omitempty"`

	// Background workers and cache
	WorkerCount     int `json:"worker_count,omitempty"`
	CacheTTLSec     int `json:"cache_ttl,omitempty"`
	CacheMaxEntries int `json:"cache_max_entries,omitempty"`

	// SkipPrompt disables interactive confirmations
	SkipPrompt bool `json:"skip_prompt,omitempty"`
}

// OllamaConfig holds connection settings for a local or remote Ollama server.
type OllamaConfig struct {
	BaseURL    string `json:"base_url,omitempty"`
	Model      string `json:"model,omitempty"`
	TimeoutSec int    `json:"timeout,omitempty"`
	Stream     *bool  `json:"stream,omitempty"`
}

// OpenAIConfig holds settings for OpenAI or any compatible endpoint.
type OpenAIConfig struct {
	BaseURL     string  `json:"base_url,omitempty"`
	Model       string  `json:"model,omitempty"`
	APIKey      string  `json:"api_key,omitempty"`
	TimeoutSec  int     `json:"timeout,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// GeminiConfig holds settings for Google's generative language API.
type GeminiConfig struct {
	Model       string  `json:"model,omitempty"`
	APIKey      string  `json:"api_key,omitempty"`
	TimeoutSec  int     `json:"timeout,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// CustomConfig holds settings for a self-hosted server speaking either the
// OpenAI or the Ollama wire format, selected by APIFormat.
type CustomConfig struct {
	BaseURL    string            `json:"base_url,omitempty"`
	Model      string            `json:"model,omitempty"`
	APIKey     string            `json:"api_key,omitempty"`
	APIFormat  string            `json:"api_format,omitempty"` // "openai" or "ollama"
	TimeoutSec int               `json:"timeout,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
}

// Default returns a configuration with sensible defaults for local use.
func Default() *Config {
	return &Config{
		Version:  ConfigVersion,
		Provider: ProviderOllama,
		Ollama: &OllamaConfig{
			BaseURL:    "http://localhost:11434",
			Model:      "qwen2.5-coder:14b",
			TimeoutSec: 120,
		},
		MaxFilesToScan: 1000,
		FileSizeLimit:  1024 * 1024,
		ScanTimeoutSec: 30,
		CodeFileExtensions: []string{
			".php", ".js", ".jsx", ".ts", ".tsx", ".py", ".go", ".blade.php", ".vue",
		},
		WorkerCount:     4,
		CacheTTLSec:     1800,
		CacheMaxEntries: 100,
	}
}

// Load reads the layered configuration: built-in defaults, then the home
// config, then the project config. Missing files are not errors.
func Load(projectRoot string) (*Config, error) {
	cfg := Default()

	if home, err := os.UserHomeDir(); err == nil {
		if err := applyFile(cfg, filepath.Join(home, ConfigDirName, ConfigFileName)); err != nil {
			return nil, err
		}
	}
	if projectRoot != "" {
		if err := applyFile(cfg, filepath.Join(projectRoot, ConfigDirName, ConfigFileName)); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvKeys()
	return cfg, nil
}

// applyFile overlays the JSON at path onto cfg. Absent files are skipped.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// applyEnvKeys fills API keys from the environment when the config leaves
// them empty, so keys can stay out of checked-in files.
func (c *Config) applyEnvKeys() {
	if c.OpenAI != nil && c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Gemini != nil && c.Gemini.APIKey == "" {
		c.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Custom != nil && c.Custom.APIKey == "" {
		c.Custom.APIKey = os.Getenv("WORKSHOP_CUSTOM_API_KEY")
	}
}

// Validate checks that the selected provider has the fields it needs. A
// config that fails validation must never reach the network.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOllama:
		if c.Ollama == nil || c.Ollama.Model == "" {
			return fmt.Errorf("ollama provider requires a model name")
		}
	case ProviderOpenAI:
		if c.OpenAI == nil || c.OpenAI.APIKey == "" {
			return fmt.Errorf("openai provider requires an api_key (config or OPENAI_API_KEY)")
		}
		if c.OpenAI.Model == "" {
			return fmt.Errorf("openai provider requires a model name")
		}
	case ProviderGemini:
		if c.Gemini == nil || c.Gemini.APIKey == "" {
			return fmt.Errorf("gemini provider requires an api_key (config or GEMINI_API_KEY)")
		}
		if c.Gemini.Model == "" {
			return fmt.Errorf("gemini provider requires a model name")
		}
	case ProviderCustom:
		if c.Custom == nil || c.Custom.BaseURL == "" {
			return fmt.Errorf("custom provider requires a base_url")
		}
		if f := c.Custom.APIFormat; f != "" && f != "openai" && f != "ollama" {
			return fmt.Errorf("custom provider api_format must be \"openai\" or \"ollama\", got %q", f)
		}
	case "":
		return fmt.Errorf("ai_provider is not set")
	default:
		return fmt.Errorf("unknown ai_provider %q", c.Provider)
	}
	return nil
}

// ProviderTimeout returns the request timeout for the active provider.
func (c *Config) ProviderTimeout() time.Duration {
	sec := 0
	switch c.Provider {
	case ProviderOllama:
		if c.Ollama != nil {
			sec = c.Ollama.TimeoutSec
		}
	case ProviderOpenAI:
		if c.OpenAI != nil {
			sec = c.OpenAI.TimeoutSec
		}
	case ProviderGemini:
		if c.Gemini != nil {
			sec = c.Gemini.TimeoutSec
		}
	case ProviderCustom:
		if c.Custom != nil {
			sec = c.Custom.TimeoutSec
		}
	}
	if sec <= 0 {
		sec = 120
	}
	return time.Duration(sec) * time.Second
}

// CacheTTL returns the scan cache time-to-live.
func (c *Config) CacheTTL() time.Duration {
	if c.CacheTTLSec <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.CacheTTLSec) * time.Second
}

// ScanTimeout returns the directory walk deadline.
func (c *Config) ScanTimeout() time.Duration {
	if c.ScanTimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.ScanTimeoutSec) * time.Second
}

// Save writes cfg to <projectRoot>/.workshop/config.json.
func (c *Config) Save(projectRoot string) error {
	dir := filepath.Join(projectRoot, ConfigDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}
