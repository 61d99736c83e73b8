package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. FINCHAT_LLM_MODEL.
const EnvPrefix = "FINCHAT"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Store     StoreConfig     `mapstructure:"store"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Export    ExportConfig    `mapstructure:"export"`
	Notion    NotionConfig    `mapstructure:"notion"`
	Log       LogConfig       `mapstructure:"log"`
	Assistant AssistantConfig `mapstructure:"assistant"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// LLMConfig selects and configures the remote text-generation provider.
// An empty APIKey disables remote calls entirely.
type LLMConfig struct {
	Provider string        `mapstructure:"provider"`
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type StoreConfig struct {
	Backend         string `mapstructure:"backend"`
	BoltPath        string `mapstructure:"bolt_path"`
	PostgresURL     string `mapstructure:"postgres_url"`
	BigQueryProject string `mapstructure:"bigquery_project"`
	BigQueryDataset string `mapstructure:"bigquery_dataset"`
}

type RedisConfig struct {
	URL     string        `mapstructure:"url"`
	TipsTTL time.Duration `mapstructure:"tips_ttl"`
}

type ExportConfig struct {
	Bucket string `mapstructure:"bucket"`
}

type NotionConfig struct {
	Token      string `mapstructure:"token"`
	DatabaseID string `mapstructure:"database_id"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type AssistantConfig struct {
	DefaultUser string `mapstructure:"default_user"`
}

var defaults = map[string]any{
	"server.port":            "8080",
	"llm.provider":           "gemini",
	"llm.api_key":            "",
	"llm.base_url":           "",
	"llm.model":              "",
	"llm.timeout":            "30s",
	"store.backend":          "memory",
	"store.bolt_path":        "finchat.db",
	"store.postgres_url":     "",
	"store.bigquery_project": "",
	"store.bigquery_dataset": "finchat",
	"redis.url":              "",
	"redis.tips_ttl":         "1h",
	"export.bucket":          "",
	"notion.token":           "",
	"notion.database_id":     "",
	"log.level":              "info",
	"log.pretty":             true,
	"assistant.default_user": "demo",
}

// Load reads config.yaml from dir when present and applies FINCHAT_*
// environment overrides on top of the defaults. A missing file is not an
// error. The API key is also read from GEMINI_API_KEY.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir != "" {
		v.AddConfigPath(dir)
	}

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("Load: binding api key env: %w", err)
	}

	if dir != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("Load: reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("Load: decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown provider and backend names.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "gemini", "openai", "anthropic":
	default:
		return fmt.Errorf("config: unknown llm.provider %q", c.LLM.Provider)
	}
	switch c.Store.Backend {
	case "memory", "bolt", "postgres", "bigquery":
	default:
		return fmt.Errorf("config: unknown store.backend %q", c.Store.Backend)
	}
	return nil
}
