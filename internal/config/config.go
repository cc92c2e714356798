// Package config loads wordzipf settings from defaults, an optional YAML
// file, a .env file and WORDZIPF_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/abhisek/wordzipf/internal/dictionary"
	"github.com/abhisek/wordzipf/internal/llm"
)

// EnvPrefix prefixes every environment override: llm.api_key is read from
// WORDZIPF_LLM_API_KEY.
const EnvPrefix = "WORDZIPF"

// Config holds all configuration for the application.
type Config struct {
	Data       DataConfig       `mapstructure:"data"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Dictionary DictionaryConfig `mapstructure:"dictionary"`
	Log        LogConfig        `mapstructure:"log"`
}

// DataConfig locates the word list and the name lists. Values are file
// paths or http(s) URLs.
type DataConfig struct {
	FrequencyPrimary  string `mapstructure:"frequency_primary"`
	FrequencyFallback string `mapstructure:"frequency_fallback"`
	MaleNames         string `mapstructure:"male_names"`
	FemaleNames       string `mapstructure:"female_names"`
}

// LLMConfig selects and configures the LLM provider.
type LLMConfig struct {
	Provider      string        `mapstructure:"provider"`
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	PrimaryModel  string        `mapstructure:"primary_model"`
	LiteModel     string        `mapstructure:"lite_model"`
	FallbackModel string        `mapstructure:"fallback_model"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// DictionaryConfig configures the classic-mode dictionary.
type DictionaryConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration. An explicit path must exist; otherwise
// wordzipf.yaml is looked up in the working directory and the user config
// directory, and its absence is not an error.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind api key env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("wordzipf")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "wordzipf"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.LLM.applyModelDefaults()
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	llmDefaults := llm.DefaultConfig()

	v.SetDefault("data.frequency_primary", filepath.Join("data", "en_frequencies.json"))
	v.SetDefault("data.frequency_fallback", filepath.Join(dataHome(), "wordzipf", "en_frequencies.json"))
	v.SetDefault("data.male_names", filepath.Join("data", "male.txt"))
	v.SetDefault("data.female_names", filepath.Join("data", "female.txt"))

	v.SetDefault("llm.provider", llmDefaults.Provider)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	// Model defaults depend on the provider and are filled in after
	// unmarshalling.
	v.SetDefault("llm.primary_model", "")
	v.SetDefault("llm.lite_model", "")
	v.SetDefault("llm.fallback_model", "")
	v.SetDefault("llm.timeout", llmDefaults.Timeout)

	v.SetDefault("dictionary.base_url", dictionary.DefaultBaseURL)

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
}

func (c *LLMConfig) applyModelDefaults() {
	m := llm.ModelConfig{
		Primary:  c.PrimaryModel,
		Lite:     c.LiteModel,
		Fallback: c.FallbackModel,
	}.WithDefaults(c.Provider)
	c.PrimaryModel, c.LiteModel, c.FallbackModel = m.Primary, m.Lite, m.Fallback
}

func dataHome() string {
	if d := os.Getenv("XDG_DATA_HOME"); d != "" {
		return d
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share")
	}
	return "."
}

// Validate checks values that cannot be fixed up later. A missing API key
// is not an error here: modes that need no LLM still work without one.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "gemini", "openai", "anthropic", "openrouter", "mock":
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.LLM.Provider)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be positive, got %s", c.LLM.Timeout)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format: %q", c.Log.Format)
	}
	return nil
}

// LLMProviderConfig converts to the provider factory's configuration. key
// overrides the configured API key when the configured one is empty.
func (c *Config) LLMProviderConfig(key string) llm.Config {
	apiKey := c.LLM.APIKey
	if apiKey == "" {
		apiKey = key
	}
	return llm.Config{
		Provider: c.LLM.Provider,
		APIKey:   apiKey,
		BaseURL:  c.LLM.BaseURL,
		Models: llm.ModelConfig{
			Primary:  c.LLM.PrimaryModel,
			Lite:     c.LLM.LiteModel,
			Fallback: c.LLM.FallbackModel,
		}.WithDefaults(c.LLM.Provider),
		Timeout: c.LLM.Timeout,
	}
}
