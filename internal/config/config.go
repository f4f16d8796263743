// Package config loads service configuration from an optional YAML file with
// environment variable overrides. Environment always wins so deployments can
// keep secrets out of the file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultNotionAPIBaseURL   = "https://api.notion.com"
	DefaultNotionOAuthBaseURL = "https://api.notion.com"
	DefaultLLMBaseURL         = "https://api.groq.com/openai/v1"
	DefaultLLMModel           = "llama-3.3-70b-versatile"

	DefaultPollInterval   = 500 * time.Millisecond
	DefaultGraceDelay     = 500 * time.Millisecond
	DefaultConnectTimeout = 5 * time.Minute
)

// Config holds all service configuration.
type Config struct {
	Host   string `yaml:"host"`
	Port   string `yaml:"port"`
	DBPath string `yaml:"db_path"`

	Notion   NotionConfig   `yaml:"notion"`
	LLM      LLMConfig      `yaml:"llm"`
	Detector DetectorConfig `yaml:"detector"`
}

// NotionConfig carries the OAuth exchange configuration. All three of
// ClientID/ClientSecret/RedirectURI are required for the exchange to run;
// absence is surfaced per-request as a configuration error.
type NotionConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURI  string `yaml:"redirect_uri"`
	APIBaseURL   string `yaml:"api_base_url"`
	OAuthBaseURL string `yaml:"oauth_base_url"`
}

// LLMConfig configures the formula-generation upstream (OpenAI-compatible).
type LLMConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// DetectorConfig bounds the popup completion detector. The original design
// polled forever; here the interval, grace delay and overall timeout are
// explicit.
type DetectorConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	GraceDelay   time.Duration `yaml:"grace_delay"`
	Timeout      time.Duration `yaml:"timeout"`
}

// Load reads the YAML file at path (a missing file is not an error), applies
// environment overrides and fills defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overrideString(&cfg.Host, "HOST")
	overrideString(&cfg.Port, "PORT")
	overrideString(&cfg.DBPath, "NEXUS_DB_PATH")

	overrideString(&cfg.Notion.ClientID, "NOTION_CLIENT_ID")
	overrideString(&cfg.Notion.ClientSecret, "NOTION_CLIENT_SECRET")
	overrideString(&cfg.Notion.RedirectURI, "NOTION_REDIRECT_URI")
	overrideString(&cfg.Notion.APIBaseURL, "NOTION_API_BASE_URL")
	overrideString(&cfg.Notion.OAuthBaseURL, "NOTION_OAUTH_BASE_URL")

	overrideString(&cfg.LLM.APIKey, "GROQ_API_KEY")
	overrideString(&cfg.LLM.BaseURL, "LLM_BASE_URL")
	overrideString(&cfg.LLM.Model, "LLM_MODEL")

	overrideDuration(&cfg.Detector.PollInterval, "NEXUS_POLL_INTERVAL")
	overrideDuration(&cfg.Detector.GraceDelay, "NEXUS_GRACE_DELAY")
	overrideDuration(&cfg.Detector.Timeout, "NEXUS_CONNECT_TIMEOUT")
}

func applyDefaults(cfg *Config) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "nexus.db"
	}
	if cfg.Notion.APIBaseURL == "" {
		cfg.Notion.APIBaseURL = DefaultNotionAPIBaseURL
	}
	if cfg.Notion.OAuthBaseURL == "" {
		cfg.Notion.OAuthBaseURL = DefaultNotionOAuthBaseURL
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = DefaultLLMBaseURL
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultLLMModel
	}
	if cfg.Detector.PollInterval <= 0 {
		cfg.Detector.PollInterval = DefaultPollInterval
	}
	if cfg.Detector.GraceDelay <= 0 {
		cfg.Detector.GraceDelay = DefaultGraceDelay
	}
	if cfg.Detector.Timeout <= 0 {
		cfg.Detector.Timeout = DefaultConnectTimeout
	}
}

func overrideString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func overrideDuration(dst *time.Duration, env string) {
	if v := os.Getenv(env); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
