// Package llm talks to remote text-generation providers. Each provider hides
// its own request and response envelope behind Provider.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/db8labs/db8-agent/internal/config"
)

// Provider sends a prompt to a text-generation backend and returns the
// generated text. Implementations are safe for concurrent use.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Provider names accepted by New.
const (
	ProviderPrimary   = "primary"
	ProviderSecondary = "secondary"
)

// Options configures a provider.
type Options struct {
	Model        string
	APIKey       string
	BaseURL      string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
	SystemPrompt string
}

// OptionsFromConfig copies the llm.* settings out of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Model:        cfg.LLM.Model,
		APIKey:       cfg.LLM.APIKey,
		BaseURL:      cfg.LLM.BaseURL,
		Temperature:  cfg.LLM.Temperature,
		MaxTokens:    cfg.LLM.MaxTokens,
		Timeout:      cfg.LLM.Timeout,
		SystemPrompt: cfg.LLM.SystemPrompt,
	}
}

// New creates a Provider based on the config. Returns nil when the provider
// is unset, meaning generation is disabled.
func New(cfg *config.Config) (Provider, error) {
	return NewProvider(cfg.LLM.Provider, OptionsFromConfig(cfg))
}

// NewProvider creates the named provider.
func NewProvider(name string, opts Options) (Provider, error) {
	switch name {
	case "":
		return nil, nil
	case ProviderPrimary, "openai", "openai-compatible":
		return newOpenAIProvider(opts), nil
	case ProviderSecondary, "anthropic":
		return newAnthropicProvider(opts), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", name)
	}
}

// ProviderError reports a transport failure, a timeout, a non-success status
// or an unusable envelope from a provider. StatusCode is 0 when no response
// was received.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, truncate(e.Body, 512))
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Timeout reports whether the call was abandoned because its deadline passed.
func (e *ProviderError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
