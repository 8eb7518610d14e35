package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the process-wide settings. It is loaded once at startup and
// passed by reference into the components that need it; nothing mutates it
// after boot.
type Config struct {
	AppPort              int     `mapstructure:"APP_PORT"`
	OpenAIBaseURL        string  `mapstructure:"OPENAI_BASE_URL"`
	OpenAIAPIKey         string  `mapstructure:"OPENAI_API_KEY"`
	Model                string  `mapstructure:"MODEL"`
	AIRequestTimeoutMS   int     `mapstructure:"AI_REQUEST_TIMEOUT_MS"`
	ExternalAPITimeoutMS int     `mapstructure:"EXTERNAL_API_TIMEOUT_MS"`
	MaxQueryLength       int     `mapstructure:"MAX_QUERY_LENGTH"`
	Temperature          float64 `mapstructure:"TEMPERATURE"`
	MaxTokens            int     `mapstructure:"MAX_TOKENS"`
	CoinGeckoAPIKey      string  `mapstructure:"COINGECKO_API_KEY"`
	CORSOrigin           string  `mapstructure:"CORS_ORIGIN"`
	LogLevel             string  `mapstructure:"LOG_LEVEL"`
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("APP_PORT", 8787)
	viper.SetDefault("OPENAI_BASE_URL", "https://api.openai.com")
	viper.SetDefault("MODEL", "dobby-70")
	viper.SetDefault("AI_REQUEST_TIMEOUT_MS", 30000)
	viper.SetDefault("EXTERNAL_API_TIMEOUT_MS", 10000)
	viper.SetDefault("MAX_QUERY_LENGTH", 2000)
	viper.SetDefault("TEMPERATURE", 0.3)
	viper.SetDefault("MAX_TOKENS", 1024)
	viper.SetDefault("CORS_ORIGIN", "*")
	viper.SetDefault("LOG_LEVEL", "INFO")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("missing required environment variable: OPENAI_API_KEY")
	}

	return &cfg, nil
}

// AIRequestTimeout is the deadline applied to buffered completion calls.
// Streaming calls are deliberately left without one.
func (c *Config) AIRequestTimeout() time.Duration {
	return time.Duration(c.AIRequestTimeoutMS) * time.Millisecond
}

// SourceTimeout is the per-source deadline used by the fan-out executor.
func (c *Config) SourceTimeout() time.Duration {
	return time.Duration(c.ExternalAPITimeoutMS) * time.Millisecond
}
