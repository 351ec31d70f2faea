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
	Analysis   Analysis   `yaml:"analysis"`
	Commentary Commentary `yaml:"commentary"`
	Output     Output     `yaml:"output"`
	Server     Server     `yaml:"server"`
	Logging    Logging    `yaml:"logging"`
}

// Analysis holds the tunable constants of the merge and statistics stages.
type Analysis struct {
	ImportSpike ImportSpike `yaml:"import_spike"`
	Text        Text        `yaml:"text"`
	Badges      Badges      `yaml:"badges"`
	SampleSize  int         `yaml:"sample_size"`
}

// ImportSpike controls bulk-import detection. A spike is flagged when the
// busiest single import day holds at least MinShare of all watched rows and
// the observed diary/watched activity spans more than MinSpanYears.
type ImportSpike struct {
	MinShare     float64 `yaml:"min_share"`
	MinSpanYears float64 `yaml:"min_span_years"`
}

// Text controls review-text frequency analysis.
type Text struct {
	MinTokenLength int `yaml:"min_token_length"`
	TopWords       int `yaml:"top_words"`
}

// Badges holds the thresholds for the rule-based viewer badge.
type Badges struct {
	HighCommitment float64 `yaml:"high_commitment"`
	LowCommitment  float64 `yaml:"low_commitment"`
	HighVolatility float64 `yaml:"high_volatility"`
}

type Commentary struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	OllamaURL   string `yaml:"ollama_url"`
	OpenAIModel string `yaml:"openai_model"`
	APIKeyEnv   string `yaml:"api_key_env"`
	MaxTokens   int    `yaml:"max_tokens"`
	MaxFilms    int    `yaml:"max_films"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for filmlens.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "filmlens")
}

// DataDir returns the XDG data directory for filmlens.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "filmlens")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/filmlens/config.yaml > ./config.yaml
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
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'filmlens init' to create a default config",
		xdgConfig,
	)
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
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		Analysis: Analysis{
			ImportSpike: ImportSpike{
				MinShare:     0.30,
				MinSpanYears: 1,
			},
			Text: Text{
				MinTokenLength: 3,
				TopWords:       20,
			},
			Badges: Badges{
				HighCommitment: 0.75,
				LowCommitment:  0.25,
				HighVolatility: 1.1,
			},
			SampleSize: 5,
		},
		Commentary: Commentary{
			Provider:    "none",
			Model:       "qwen2.5:7b",
			OllamaURL:   "http://localhost:11434",
			OpenAIModel: "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			MaxTokens:   512,
			MaxFilms:    40,
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}
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
