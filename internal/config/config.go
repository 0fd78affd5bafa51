package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Pipeline   Pipeline   `yaml:"pipeline"`
	Generation Generation `yaml:"generation"`
	Output     Output     `yaml:"output"`
	Server     Server     `yaml:"server"`
}

// Pipeline holds the knobs for the document-to-deck pipeline.
type Pipeline struct {
	TargetRatio        float64 `yaml:"target_ratio"`
	MinSlides          int     `yaml:"min_slides"`
	MaxSlides          int     `yaml:"max_slides"`
	AvgCharsPerSlide   int     `yaml:"avg_chars_per_slide"`
	MaxBullets         int     `yaml:"max_bullets"`
	MaxReductionPasses int     `yaml:"max_reduction_passes"`
	ChunkSize          int     `yaml:"chunk_size"`
	ConcurrencyLimit   int     `yaml:"concurrency_limit"`
	RetryCount         int     `yaml:"retry_count"`
}

// Generation selects and configures the completion provider.
type Generation struct {
	Provider        string `yaml:"provider"`
	GeminiModel     string `yaml:"gemini_model"`
	GeminiKeyEnv    string `yaml:"gemini_api_key_env"`
	OpenAIModel     string `yaml:"openai_model"`
	OpenAIKeyEnv    string `yaml:"openai_api_key_env"`
	OllamaModel     string `yaml:"ollama_model"`
	OllamaURL       string `yaml:"ollama_url"`
	MaxTokens       int    `yaml:"max_tokens"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

// ConfigDir returns the XDG config directory for slidex.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "slidex")
}

// DataDir returns the XDG data directory for slidex.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "slidex")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/slidex/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'slidex init' to create a default config",
		xdgConfig,
	)
}

// Default returns the built-in default configuration.
func Default() *Config {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		// The embedded default must always parse.
		panic(fmt.Sprintf("embedded default config: %v", err))
	}
	return cfg
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Pipeline: Pipeline{
			TargetRatio:        0.3,
			MinSlides:          5,
			MaxSlides:          20,
			AvgCharsPerSlide:   400,
			MaxBullets:         7,
			MaxReductionPasses: 3,
			ChunkSize:          4000,
			ConcurrencyLimit:   4,
			RetryCount:         2,
		},
		Generation: Generation{
			Provider:       "gemini",
			GeminiModel:    "gemini-1.5-flash",
			GeminiKeyEnv:   "GEMINI_API_KEY",
			OpenAIModel:    "gpt-4o-mini",
			OpenAIKeyEnv:   "OPENAI_API_KEY",
			OllamaModel:    "qwen2.5:7b",
			OllamaURL:      "http://localhost:11434",
			MaxTokens:      2048,
			TimeoutSeconds: 120,
		},
		Server: Server{Port: 8000},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
