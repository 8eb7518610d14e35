package app

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ykvit/knowledge-gateway/internal/api"
	"github.com/ykvit/knowledge-gateway/internal/config"
	"github.com/ykvit/knowledge-gateway/internal/llm"
	"github.com/ykvit/knowledge-gateway/internal/service"
	"github.com/ykvit/knowledge-gateway/internal/source"
)

func Run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		// slog is not yet configured, so use the default logger here.
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	setupLogger(cfg.LogLevel)
	logConfigSource()
	slog.Info("Gateway configuration",
		"port", cfg.AppPort,
		"model", cfg.Model,
		"ai_endpoint", cfg.OpenAIBaseURL,
		"cors_origin", cfg.CORSOrigin,
	)

	server := NewServer(cfg)

	slog.Info("Starting server", "port", cfg.AppPort)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server failed", "error", err)
		return 1
	}

	return 0
}

// NewServer wires the component graph and returns the configured HTTP
// server. The HTTP clients carry no Timeout of their own: source fetches are
// bounded by the fan-out's per-source context and streaming completions must
// stay open indefinitely.
func NewServer(cfg *config.Config) *http.Server {
	registry := source.DefaultRegistry(&http.Client{}, cfg.CoinGeckoAPIKey)
	completionClient := llm.NewOpenAIClient(&http.Client{}, cfg.OpenAIBaseURL, cfg.OpenAIAPIKey)

	queryService := service.NewQueryService(registry, completionClient, cfg)
	queryHandler := api.NewQueryHandler(queryService, completionClient, cfg)
	router := api.NewRouter(queryHandler, cfg.CORSOrigin)

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 20 * time.Second,
		WriteTimeout:      0, // Disabled for streaming endpoints
		IdleTimeout:       120 * time.Second,
	}
}

func logConfigSource() {
	if file := viper.ConfigFileUsed(); file != "" {
		slog.Info("Successfully loaded configuration from file.", "file", file)
	} else {
		slog.Info("Configuration file not found. Using environment variables and defaults.")
	}
}

func setupLogger(logLevel string) {
	var level slog.Level
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}
