// Package config provides configuration loading for docweaver.
package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig indicates invalid configuration values.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the root configuration for the docweaver service.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	Telemetry   TelemetryConfig   `koanf:"telemetry"`
	GitHub      GitHubConfig      `koanf:"github"`
	OpenAI      OpenAIConfig      `koanf:"openai"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// ShutdownTimeout bounds graceful shutdown on SIGINT/SIGTERM.
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`

	// RateLimit is the sustained per-IP request rate per second.
	// Zero disables rate limiting.
	RateLimit float64 `koanf:"rate_limit"`

	// RateBurst is the per-IP burst allowance.
	RateBurst int `koanf:"rate_burst"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is the log encoding: json or console.
	Format string `koanf:"format"`
}

// TelemetryConfig holds OpenTelemetry trace export configuration.
type TelemetryConfig struct {
	// Enabled turns OTLP trace export on. When false the global
	// no-op tracer provider is used and spans cost nothing.
	Enabled bool `koanf:"enabled"`

	// Endpoint is the OTLP/HTTP collector endpoint (host:port).
	Endpoint string `koanf:"endpoint"`

	// ServiceName identifies this service in traces.
	ServiceName string `koanf:"service_name"`

	// Insecure disables TLS on the exporter connection.
	Insecure bool `koanf:"insecure"`
}

// GitHubConfig holds source-control API configuration.
type GitHubConfig struct {
	// Token is the bearer token used for all GitHub API calls.
	Token Secret `koanf:"token"`

	// BaseURL overrides the GitHub API base URL (for tests and
	// GitHub Enterprise). Empty means api.github.com.
	BaseURL string `koanf:"base_url"`

	// TargetBranch is the pull-request base branch that qualifies an
	// event for documentation generation.
	TargetBranch string `koanf:"target_branch"`

	// ExtractionMode selects the diff extraction strategy:
	// "full_content" fetches whole changed files, "patch" uses the
	// cleaned patch hunks.
	ExtractionMode string `koanf:"extraction_mode"`

	// RequestTimeout bounds each GitHub API call.
	RequestTimeout Duration `koanf:"request_timeout"`
}

// OpenAIConfig holds embedding and completion API configuration.
// Any OpenAI-compatible endpoint works (OpenAI, TEI, local gateways).
type OpenAIConfig struct {
	APIKey Secret `koanf:"api_key"`

	// BaseURL is the API base URL. Default: https://api.openai.com/v1
	BaseURL string `koanf:"base_url"`

	// EmbeddingModel is the embedding model name.
	EmbeddingModel string `koanf:"embedding_model"`

	// CompletionModel is the chat completion model name.
	CompletionModel string `koanf:"completion_model"`

	// Temperature controls generation randomness for documentation
	// synthesis. One knob for both pipelines.
	Temperature float64 `koanf:"temperature"`

	// RequestTimeout bounds each model API call.
	RequestTimeout Duration `koanf:"request_timeout"`
}

// VectorStoreConfig holds vector index configuration.
type VectorStoreConfig struct {
	// Provider selects the backend: "qdrant" or "chromem".
	Provider string `koanf:"provider"`

	// Collection is the collection holding branch documentation.
	Collection string `koanf:"collection"`

	// VectorSize is the embedding dimensionality. Must match the
	// embedding model output (1536 for text-embedding-ada-002).
	VectorSize int `koanf:"vector_size"`

	// TopK is the number of similar documents retrieved as context.
	TopK int `koanf:"top_k"`

	// MinScore drops retrieved matches below this similarity score.
	// Zero disables the cutoff; every match is passed downstream.
	MinScore float32 `koanf:"min_score"`

	Qdrant  QdrantConfig  `koanf:"qdrant"`
	Chromem ChromemConfig `koanf:"chromem"`
}

// QdrantConfig holds Qdrant gRPC connection configuration.
type QdrantConfig struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	UseTLS bool   `koanf:"use_tls"`
}

// ChromemConfig holds chromem-go embedded store configuration.
type ChromemConfig struct {
	// Path is the persistence directory. Empty means in-memory only.
	Path string `koanf:"path"`

	// Compress enables gzip compression for persisted data.
	Compress bool `koanf:"compress"`
}

// applyDefaults fills in defaults for unset fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if cfg.Server.RateLimit == 0 {
		cfg.Server.RateLimit = 1
	}
	if cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = 10
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "docweaver"
	}
	if cfg.GitHub.TargetBranch == "" {
		cfg.GitHub.TargetBranch = "main"
	}
	if cfg.GitHub.ExtractionMode == "" {
		cfg.GitHub.ExtractionMode = "full_content"
	}
	if cfg.GitHub.RequestTimeout == 0 {
		cfg.GitHub.RequestTimeout = Duration(30 * time.Second)
	}
	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.OpenAI.EmbeddingModel == "" {
		cfg.OpenAI.EmbeddingModel = "text-embedding-ada-002"
	}
	if cfg.OpenAI.CompletionModel == "" {
		cfg.OpenAI.CompletionModel = "gpt-3.5-turbo"
	}
	if cfg.OpenAI.Temperature == 0 {
		cfg.OpenAI.Temperature = 0.7
	}
	if cfg.OpenAI.RequestTimeout == 0 {
		cfg.OpenAI.RequestTimeout = Duration(60 * time.Second)
	}
	if cfg.VectorStore.Provider == "" {
		cfg.VectorStore.Provider = "chromem"
	}
	if cfg.VectorStore.Collection == "" {
		cfg.VectorStore.Collection = "branch_documentation"
	}
	if cfg.VectorStore.VectorSize == 0 {
		cfg.VectorStore.VectorSize = 1536
	}
	if cfg.VectorStore.TopK == 0 {
		cfg.VectorStore.TopK = 3
	}
	if cfg.VectorStore.Qdrant.Host == "" {
		cfg.VectorStore.Qdrant.Host = "localhost"
	}
	if cfg.VectorStore.Qdrant.Port == 0 {
		cfg.VectorStore.Qdrant.Port = 6334
	}
}

// Validate checks the configuration for internally inconsistent or
// unusable values. Secrets are checked for presence, never logged.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("%w: logging format %q (want json or console)", ErrInvalidConfig, c.Logging.Format)
	}
	switch c.GitHub.ExtractionMode {
	case "full_content", "patch":
	default:
		return fmt.Errorf("%w: extraction mode %q (want full_content or patch)", ErrInvalidConfig, c.GitHub.ExtractionMode)
	}
	if c.GitHub.TargetBranch == "" {
		return fmt.Errorf("%w: target branch required", ErrInvalidConfig)
	}
	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		return fmt.Errorf("%w: temperature %.2f out of range [0, 2]", ErrInvalidConfig, c.OpenAI.Temperature)
	}
	switch c.VectorStore.Provider {
	case "qdrant", "chromem":
	default:
		return fmt.Errorf("%w: vectorstore provider %q (want qdrant or chromem)", ErrInvalidConfig, c.VectorStore.Provider)
	}
	if c.VectorStore.VectorSize <= 0 {
		return fmt.Errorf("%w: vector size must be positive", ErrInvalidConfig)
	}
	if c.VectorStore.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive", ErrInvalidConfig)
	}
	if c.VectorStore.MinScore < 0 || c.VectorStore.MinScore > 1 {
		return fmt.Errorf("%w: min_score %.2f out of range [0, 1]", ErrInvalidConfig, c.VectorStore.MinScore)
	}
	return nil
}
