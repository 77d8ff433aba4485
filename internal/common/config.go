package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production"
	Server      ServerConfig  `toml:"server"`
	Market      MarketConfig  `toml:"market"`
	Logging     LoggingConfig `toml:"logging"`
	Gemini      GeminiConfig  `toml:"gemini"`
	Claude      ClaudeConfig  `toml:"claude"`
	LLM         LLMConfig     `toml:"llm"`
	Export      ExportConfig  `toml:"export"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// MarketConfig selects the regional market the dashboard serves
type MarketConfig struct {
	Code string `toml:"code"` // Market code, e.g. "UK", "DE", "BE-FR" (default: "UK")
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// GeminiConfig contains Google Gemini API configuration for grounded insight generation
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model used for insight reports (default: "gemini-2.5-flash")
	Thinking    string  `toml:"thinking"`    // Thinking level: NONE, LOW, MEDIUM, HIGH (default: "NONE")
	Timeout     string  `toml:"timeout"`     // Per-fetch timeout as duration string (default: "5m")
	Temperature float32 `toml:"temperature"` // Generation temperature (default: 0.7)
}

// ClaudeConfig contains Anthropic Claude API configuration for grounded insight generation
type ClaudeConfig struct {
	APIKey         string  `toml:"api_key"`          // Anthropic API key
	Model          string  `toml:"model"`            // Model used for insight reports
	MaxTokens      int     `toml:"max_tokens"`       // Maximum tokens in response (default: 8192)
	MaxWebSearches int     `toml:"max_web_searches"` // Web search tool uses per request (default: 5)
	Timeout        string  `toml:"timeout"`          // Per-fetch timeout as duration string (default: "5m")
	Temperature    float32 `toml:"temperature"`      // Completion temperature (default: 0.7)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API with Google Search grounding
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API with the web search tool
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig selects the provider used for insight reports
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "gemini" or "claude" (default: "gemini")
}

// ExportConfig controls the PDF export
type ExportConfig struct {
	PageSize       string `toml:"page_size"`       // "A4" or "Letter" (default: "A4")
	FilenamePrefix string `toml:"filename_prefix"` // Download filename prefix (default: "marketpulse")
	Validate       bool   `toml:"validate"`        // Validate generated PDFs with pdfcpu (default: true)
}

// DefaultMarketCode is used when no market is configured or the configured code is unknown
const DefaultMarketCode = "UK"

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Market: MarketConfig{
			Code: DefaultMarketCode,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.5-flash",
			Thinking:    "NONE",
			Timeout:     "5m",
			Temperature: 0.7,
		},
		Claude: ClaudeConfig{
			Model:          "claude-sonnet-4-5-20250929",
			MaxTokens:      8192,
			MaxWebSearches: 5,
			Timeout:        "5m",
			Temperature:    0.7,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
		Export: ExportConfig{
			PageSize:       "A4",
			FilenamePrefix: "marketpulse",
			Validate:       true,
		},
	}
}

// LoadFromFiles loads configuration with priority: default -> file1 -> file2 -> ... -> .env -> env -> CLI
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// .env never overrides variables already present in the process environment
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// loadDotEnv loads ./.env when present
func loadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("MARKETPULSE_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("MARKETPULSE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("MARKETPULSE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Market configuration, VITE_MARKET_CODE kept for existing deployments
	if code := firstEnv("MARKETPULSE_MARKET_CODE", "VITE_MARKET_CODE"); code != "" {
		config.Market.Code = code
	}

	// Logging configuration
	if level := os.Getenv("MARKETPULSE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("MARKETPULSE_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("MARKETPULSE_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Gemini configuration
	if apiKey := firstEnv(geminiKeyEnvVars...); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("MARKETPULSE_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if thinking := os.Getenv("MARKETPULSE_GEMINI_THINKING"); thinking != "" {
		config.Gemini.Thinking = thinking
	}
	if timeout := os.Getenv("MARKETPULSE_GEMINI_TIMEOUT"); timeout != "" {
		config.Gemini.Timeout = timeout
	}
	if temperature := os.Getenv("MARKETPULSE_GEMINI_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Gemini.Temperature = float32(t)
		}
	}

	// Claude configuration
	if apiKey := firstEnv(claudeKeyEnvVars...); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if model := os.Getenv("MARKETPULSE_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("MARKETPULSE_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if timeout := os.Getenv("MARKETPULSE_CLAUDE_TIMEOUT"); timeout != "" {
		config.Claude.Timeout = timeout
	}

	// LLM provider configuration
	if provider := os.Getenv("MARKETPULSE_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(strings.ToLower(provider))
	}
}

// Credential lookup order per provider. API_KEY and VITE_API_KEY are accepted for Gemini
// so existing .env files keep working.
var (
	geminiKeyEnvVars = []string{"MARKETPULSE_GEMINI_API_KEY", "API_KEY", "VITE_API_KEY", "GEMINI_API_KEY"}
	claudeKeyEnvVars = []string{"MARKETPULSE_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"}
)

func firstEnv(names ...string) string {
	for _, name := range names {
		if value := strings.TrimSpace(os.Getenv(name)); value != "" {
			return value
		}
	}
	return ""
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string, market string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
	if market != "" {
		config.Market.Code = market
	}
}

// ResolveAPIKey resolves the credential for a provider.
// Resolution order: environment variables → config value → error
func ResolveAPIKey(provider LLMProvider, config *Config) (string, error) {
	var envVars []string
	var fallback string

	switch provider {
	case LLMProviderGemini:
		envVars, fallback = geminiKeyEnvVars, config.Gemini.APIKey
	case LLMProviderClaude:
		envVars, fallback = claudeKeyEnvVars, config.Claude.APIKey
	default:
		return "", fmt.Errorf("unknown LLM provider: %s", provider)
	}

	if value := firstEnv(envVars...); value != "" {
		return value, nil
	}
	if value := strings.TrimSpace(fallback); value != "" {
		return value, nil
	}

	return "", fmt.Errorf("API key for provider '%s' not found in environment or config", provider)
}

// Validate checks values that cannot be corrected by defaults
func (c *Config) Validate() error {
	switch c.LLM.DefaultProvider {
	case LLMProviderGemini, LLMProviderClaude:
	default:
		return fmt.Errorf("invalid llm.default_provider %q: expected \"gemini\" or \"claude\"", c.LLM.DefaultProvider)
	}

	if _, err := time.ParseDuration(c.ProviderTimeoutString()); err != nil {
		return fmt.Errorf("invalid timeout for provider %s: %w", c.LLM.DefaultProvider, err)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid logging.level %q", c.Logging.Level)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}

	return nil
}

// ProviderTimeoutString returns the configured timeout of the default provider
func (c *Config) ProviderTimeoutString() string {
	if c.LLM.DefaultProvider == LLMProviderClaude {
		return c.Claude.Timeout
	}
	return c.Gemini.Timeout
}

// ProviderTimeout returns the per-fetch timeout of the default provider, 5m when unparseable
func (c *Config) ProviderTimeout() time.Duration {
	d, err := time.ParseDuration(c.ProviderTimeoutString())
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// ProviderModel returns the model name of the default provider
func (c *Config) ProviderModel() string {
	if c.LLM.DefaultProvider == LLMProviderClaude {
		return c.Claude.Model
	}
	return c.Gemini.Model
}

// MaskSecret keeps the first 5 and last 4 characters of a credential for diagnostics
func MaskSecret(secret string) string {
	if secret == "" {
		return "NOT FOUND"
	}
	if len(secret) <= 9 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:5] + "..." + secret[len(secret)-4:]
}
