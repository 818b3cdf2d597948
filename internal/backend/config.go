package backend

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/felixgeelhaar/appforge/internal/errors"
)

// Provider identifies a backend implementation.
type Provider string

// Supported providers
const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// Config describes one backend client.
type Config struct {
	// Name is the registry key; defaults to the provider name.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Provider selects the implementation.
	Provider Provider `yaml:"provider" json:"provider"`

	// APIKey authenticates against the provider. When empty the
	// <PROVIDER>_API_KEY environment variable is consulted.
	APIKey string `yaml:"api_key,omitempty" json:"api_key,omitempty"`

	// BaseURL overrides the provider endpoint (useful for proxies and
	// tests).
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`

	// Model is the default model identifier.
	Model string `yaml:"model,omitempty" json:"model,omitempty"`

	// MaxTokens caps reply length when the request does not set one.
	MaxTokens int `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`

	// MaxRetries bounds transparent retries of transient failures.
	MaxRetries int `yaml:"max_retries,omitempty" json:"max_retries,omitempty"`

	// RetryBackoff is the base delay between retries (doubled each
	// attempt).
	RetryBackoff time.Duration `yaml:"retry_backoff,omitempty" json:"retry_backoff,omitempty"`

	// Timeout bounds a single HTTP round trip.
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// withDefaults fills unset fields with provider defaults and resolves the
// API key from the environment when absent.
func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = string(c.Provider)
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv(strings.ToUpper(string(c.Provider)) + "_API_KEY")
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 4096
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 2
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = time.Second
	}
	if c.Timeout == 0 {
		c.Timeout = 120 * time.Second
	}
	return c
}

// New constructs a client for the configured provider.
func New(cfg Config) (Client, error) {
	cfg = cfg.withDefaults()

	if cfg.APIKey == "" {
		return nil, errors.NewBackendAuthError(string(cfg.Provider)).
			WithSuggestion("Or set api_key in the backend configuration")
	}

	switch cfg.Provider {
	case ProviderAnthropic:
		return newAnthropicClient(cfg), nil
	case ProviderOpenAI:
		return newOpenAIClient(cfg), nil
	default:
		return nil, errors.New(errors.ErrCodeBackendConfig,
			fmt.Sprintf("unknown backend provider %q", cfg.Provider)).
			WithSuggestion(`Use "anthropic" or "openai"`)
	}
}
